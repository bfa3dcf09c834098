package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/ranking"
)

// ChartPNGPath returns the PNG chart path for scene inside dir.
func ChartPNGPath(dir, scene string) string {
	return filepath.Join(dir, "lightRanking_"+scene+".png")
}

// ChartHTMLPath returns the HTML chart path for scene inside dir.
func ChartHTMLPath(dir, scene string) string {
	return filepath.Join(dir, "lightRanking_"+scene+".html")
}

// RenderPNG draws the ranking as a bar chart, brightest first.
func RenderPNG(run *ranking.Run) ([]byte, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Light ranking - %s", run.Scene)
	p.X.Label.Text = "Light"
	p.Y.Label.Text = "Average luminance"
	p.Y.Min = 0
	p.Y.Max = 1

	values := make(plotter.Values, len(run.Rows))
	names := make([]string, len(run.Rows))
	for i, r := range run.Rows {
		values[i] = r.Average
		names[i] = filepath.Base(r.Path)
	}

	if len(values) > 0 {
		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return nil, fmt.Errorf("failed to build bar chart: %w", err)
		}
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.NominalX(names...)
	}

	width := vg.Length(max(4, len(values))) * vg.Inch
	wt, err := p.WriterTo(width, 5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderHTML renders the ranking as an interactive go-echarts page.
func RenderHTML(run *ranking.Run) ([]byte, error) {
	x := make([]string, len(run.Rows))
	y := make([]opts.BarData, len(run.Rows))
	for i, r := range run.Rows {
		x[i] = r.Path
		y[i] = opts.BarData{Value: r.Average}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Light ranking", Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Light ranking", Subtitle: fmt.Sprintf("scene=%s run=%s", run.Scene, run.ID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Average luminance", Min: 0, Max: 1}),
	)
	bar.SetXAxis(x).
		AddSeries("luminance", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart page: %w", err)
	}
	return buf.Bytes(), nil
}

// ChartSink writes PNG and/or HTML charts of each finished run.
type ChartSink struct {
	FS   fsutil.FileSystem
	Dir  string
	PNG  bool
	HTML bool
}

// Publish implements ranking.Sink.
func (s ChartSink) Publish(run *ranking.Run) error {
	if !s.PNG && !s.HTML {
		return nil
	}
	if err := s.FS.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if s.PNG {
		data, err := RenderPNG(run)
		if err != nil {
			return err
		}
		if err := writeFile(s.FS, ChartPNGPath(s.Dir, run.Scene), data); err != nil {
			return err
		}
	}
	if s.HTML {
		data, err := RenderHTML(run)
		if err != nil {
			return err
		}
		if err := writeFile(s.FS, ChartHTMLPath(s.Dir, run.Scene), data); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(fs fsutil.FileSystem, path string, data []byte) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
