// Package monitor renders load diagnostics and exports per-load metrics.
package monitor

import (
	"fmt"
	"io"
	"path"

	"github.com/banshee-data/splat.report/internal/fetch"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const failedColor = "#d9534f"

// WriteFetchTimeline renders one page with two bar charts over the fetch
// log: per-file duration and per-file size. Failed fetches are drawn in red.
func WriteFetchTimeline(w io.Writer, title string, entries []fetch.Entry) error {
	labels := make([]string, len(entries))
	durations := make([]opts.BarData, len(entries))
	sizes := make([]opts.BarData, len(entries))

	var totalBytes int
	var totalMs float64
	failed := 0
	for i, e := range entries {
		labels[i] = fmt.Sprintf("%d %s", i+1, path.Base(e.URL))
		ms := float64(e.Duration.Microseconds()) / 1000
		totalMs += ms
		totalBytes += e.Bytes

		durations[i] = opts.BarData{Name: e.URL, Value: ms}
		sizes[i] = opts.BarData{Name: e.URL, Value: float64(e.Bytes) / 1024}
		if e.Err != nil {
			failed++
			style := &opts.ItemStyle{Color: failedColor}
			durations[i].ItemStyle = style
			sizes[i].ItemStyle = style
		}
	}

	subtitle := fmt.Sprintf("files=%d failed=%d bytes=%d fetch=%.1fms", len(entries), failed, totalBytes, totalMs)

	durationBar := charts.NewBar()
	durationBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "File", AxisLabel: &opts.AxisLabel{Rotate: 60}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Duration (ms)"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	durationBar.SetXAxis(labels).AddSeries("duration", durations)

	sizeBar := charts.NewBar()
	sizeBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Payload size"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "File", AxisLabel: &opts.AxisLabel{Rotate: 60}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Size (KiB)"}),
	)
	sizeBar.SetXAxis(labels).AddSeries("size", sizes)

	page := components.NewPage()
	page.AddCharts(durationBar, sizeBar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render fetch timeline: %w", err)
	}
	return nil
}
