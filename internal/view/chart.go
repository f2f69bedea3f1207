package view

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/satyamaryan14/ChemicalApp/internal/model"
)

// ErrNoData is returned when asked to render an empty series
var ErrNoData = errors.New("no data to render")

const (
	pngWidth  = 1024
	pngHeight = 512
)

// pointStyle renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: drawing.ColorTransparent,
		StrokeWidth: 0,
		DotWidth:    6,
		DotColor:    col,
	}
}

func limitStyle() chart.Style {
	return chart.Style{
		StrokeColor:     drawing.ColorFromHex("d32f2f"),
		StrokeWidth:     2,
		StrokeDashArray: []float64{5, 5},
		DotWidth:        3,
		DotColor:        drawing.ColorFromHex("d32f2f"),
	}
}

// RenderPNG writes the series as a PNG chart, with the reference limit
// line when the series carries one
func RenderPNG(s model.ChartSeries, w io.Writer) error {
	if s.Empty() {
		return ErrNoData
	}

	n := len(s.Values)
	xs := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i := range s.Values {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: s.Labels[i]}
	}
	ys := append([]float64(nil), s.Values...)

	// a single point cannot form a range; duplicate it
	if n == 1 {
		xs = append(xs, xs[0])
		ys = append(ys, ys[0])
	}

	series := []chart.Series{
		chart.ContinuousSeries{Name: "Value", XValues: xs, YValues: ys, Style: pointStyle(chart.ColorBlue)},
	}
	if len(s.Limits) == n {
		lys := append([]float64(nil), s.Limits...)
		lxs := append([]float64(nil), xs[:n]...)
		if n == 1 {
			lxs = append(lxs, lxs[0])
			lys = append(lys, lys[0])
		}
		series = append(series, chart.ContinuousSeries{Name: "Max Safety Limit", XValues: lxs, YValues: lys, Style: limitStyle()})
	}

	lo, hi := yBounds(s)
	ch := chart.Chart{
		Title:      s.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
		},
		YAxis: chart.YAxis{
			Name:  "Value",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// yBounds returns a non-degenerate y range covering values and limits
func yBounds(s model.ChartSeries) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range append(append([]float64(nil), s.Values...), s.Limits...) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi * 1.1
}
