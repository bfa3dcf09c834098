// Package report writes finished light rankings: the ranked CSV file and
// optional bar charts.
package report

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/ranking"
)

// Path returns the ranking report file for scene inside dir.
func Path(dir, scene string) string {
	return filepath.Join(dir, "lightRanking_"+scene+".csv")
}

// WriteCSV writes one "rank,path,average" line per row.
func WriteCSV(w io.Writer, rows []ranking.Row) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		line := strconv.Itoa(r.Rank) + "," + r.Path + "," + strconv.FormatFloat(r.Average, 'g', -1, 64) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", r.Rank, err)
		}
	}
	return bw.Flush()
}

// ReadCSV parses a report written by WriteCSV. Paths may contain commas;
// the rank is the first field and the average the last.
func ReadCSV(r io.Reader) ([]ranking.Row, error) {
	var rows []ranking.Row
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		first := strings.IndexByte(line, ',')
		last := strings.LastIndexByte(line, ',')
		if first < 0 || first == last {
			return nil, fmt.Errorf("report line %d: want rank,path,average", n)
		}
		rank, err := strconv.Atoi(line[:first])
		if err != nil {
			return nil, fmt.Errorf("report line %d: bad rank: %w", n, err)
		}
		avg, err := strconv.ParseFloat(line[last+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("report line %d: bad average: %w", n, err)
		}
		rows = append(rows, ranking.Row{Rank: rank, Path: line[first+1 : last], Average: avg})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return rows, nil
}

// CSVSink writes each finished run to Path(Dir, run.Scene).
type CSVSink struct {
	FS  fsutil.FileSystem
	Dir string
}

// Publish implements ranking.Sink.
func (s CSVSink) Publish(run *ranking.Run) (err error) {
	if err := s.FS.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	path := Path(s.Dir, run.Scene)
	f, err := s.FS.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()
	return WriteCSV(f, run.Rows)
}
