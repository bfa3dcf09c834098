package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scenetrace/internal/config"
	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/monitoring"
	"github.com/banshee-data/scenetrace/internal/rankdb"
	"github.com/banshee-data/scenetrace/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "capture":
		handleCapture(args)
	case "replay":
		handleReplay(args)
	case "rank":
		handleRank(args)
	case "runs":
		handleRuns(args)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetrace - record, replay and light-rank a synthetic scene

Usage: scenetrace <command> [options]

Commands:
  capture    Animate the scene and record a trace
  replay     Replay the recorded trace and print the final poses
  rank       Rank the scene lights by brightness contribution
  runs       List stored ranking runs (requires database_path)
  version    Show version
  help       Show this help message

Common Flags:
  --config <file>   JSON configuration file
  --scene <name>    Override the configured scene name
  --verbose         Enable the diagnostic log stream
  --trace           Enable the per-frame trace log stream`)
}

type commonFlags struct {
	configPath *string
	scene      *string
	verbose    *bool
	trace      *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "", "Path to JSON configuration file"),
		scene:      fs.String("scene", "", "Scene name (overrides config)"),
		verbose:    fs.Bool("verbose", false, "Enable diagnostic logging"),
		trace:      fs.Bool("trace", false, "Enable per-frame trace logging"),
	}
}

// load applies the common flags: log streams first, then the configuration.
func (c commonFlags) load() *config.Config {
	w := monitoring.LogWriters{Ops: os.Stderr}
	if *c.verbose {
		w.Diag = os.Stderr
	}
	if *c.trace {
		w.Trace = os.Stderr
	}
	monitoring.SetLogWriters(w)

	cfg := config.Empty()
	if *c.configPath != "" {
		loaded, err := config.LoadConfig(*c.configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *c.scene != "" {
		cfg.Scene = c.scene
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid --scene: %v", err)
		}
	}
	return cfg
}

func mustApp(cfg *config.Config) *app {
	a, err := newApp(cfg, fsutil.OSFileSystem{})
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}
	return a
}

func handleCapture(args []string) {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	common := addCommonFlags(fs)
	frames := fs.Int("frames", 0, "Frames to record (overrides config)")
	fs.Parse(args)

	cfg := common.load()
	if *frames > 0 {
		cfg.Frames = frames
	}
	a := mustApp(cfg)
	defer a.Close()

	if err := a.capture(); err != nil {
		log.Fatalf("Capture failed: %v", err)
	}
	monitoring.Logf("recorded %d frames of scene %q to %s", cfg.GetFrames(), cfg.GetScene(), cfg.GetTraceDir())
}

func handleReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("max-frames", 1_000_000, "Give up after this many frames")
	fs.Parse(args)

	a := mustApp(common.load())
	defer a.Close()

	if err := a.replay(*limit); err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
	a.printPoses(os.Stdout)
}

func handleRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("max-frames", 10_000_000, "Give up after this many frames")
	fs.Parse(args)

	a := mustApp(common.load())
	defer a.Close()

	run, err := a.rank(*limit)
	if err != nil {
		log.Fatalf("Light ranking failed: %v", err)
	}
	printRun(os.Stdout, run)
}

func handleRuns(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "Maximum runs to list (0 for all)")
	runID := fs.String("run", "", "Show the rows of one run")
	all := fs.Bool("all-scenes", false, "List runs of every scene")
	fs.Parse(args)

	cfg := common.load()
	path := cfg.GetDatabasePath()
	if path == "" {
		log.Fatalf("database_path is not configured")
	}
	db, err := rankdb.Open(path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *runID != "" {
		id, err := uuid.Parse(*runID)
		if err != nil {
			log.Fatalf("Invalid run id %q: %v", *runID, err)
		}
		run, err := db.GetRun(id)
		if err != nil {
			log.Fatalf("Failed to load run: %v", err)
		}
		printRun(os.Stdout, run)
		return
	}

	scene := cfg.GetScene()
	if *all {
		scene = ""
	}
	runs, err := db.ListRuns(scene, *limit)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	for _, r := range runs {
		fmt.Printf("%s  %-12s %s  ranked=%d/%d  took=%s\n",
			r.ID, r.Scene, r.StartedAt.Format("2006-01-02 15:04:05"), r.Ranked, r.Lights,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
}
