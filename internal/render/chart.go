package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"Indicadores/internal/domain/models"
	xutil "Indicadores/pkg/util"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultChartWidth  = 900
	DefaultChartHeight = 380
)

// ChartSize is the pixel size of a rendered chart.
type ChartSize struct {
	Width  int
	Height int
}

func (s ChartSize) orDefault() ChartSize {
	if s.Width <= 0 {
		s.Width = DefaultChartWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultChartHeight
	}
	return s
}

// DetailChartColor is the line color of the single-indicator chart.
const DetailChartColor = "#2563eb"

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    2.5,
	}
}

// timeSeries builds one line. go-chart needs two X values, so a single point is padded
// with a copy one day later.
func timeSeries(name string, xs []time.Time, ys []float64, style chart.Style) chart.TimeSeries {
	if len(xs) == 1 {
		xs = []time.Time{xs[0], xs[0].Add(24 * time.Hour)}
		ys = []float64{ys[0], ys[0]}
		style.DotWidth = 5
	}
	return chart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: style}
}

// yRange widens a flat series so the axis range is never zero.
func yRange(series []chart.TimeSeries) chart.Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.YValues {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || lo != hi {
		return nil
	}
	pad := math.Abs(lo) * 0.01
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// baseChart labels the X axis with days in loc.
func (f *Formatter) baseChart(title, yName string, loc *time.Location, size ChartSize, series []chart.TimeSeries) chart.Chart {
	size = size.orDefault()
	rs := make([]chart.Series, len(series))
	for i := range series {
		rs[i] = series[i]
	}
	yAxis := chart.YAxis{
		Name: yName,
		ValueFormatter: func(v interface{}) string {
			if fv, ok := v.(float64); ok {
				return f.Value(fv)
			}
			return fmt.Sprint(v)
		},
	}
	if r := yRange(series); r != nil {
		yAxis.Range = r
	}
	return chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if fv, ok := v.(float64); ok {
					return chart.TimeFromFloat64(fv).In(loc).Format(xutil.DisplayDayLayout)
				}
				return fmt.Sprint(v)
			},
		},
		YAxis:  yAxis,
		Series: rs,
	}
}

func renderSVG(ch chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// DetailChart renders the points of one indicator, which must be ascending, as an SVG line chart.
func (f *Formatter) DetailChart(title, unit string, points []models.SeriesPoint, size ChartSize) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("render chart: no points")
	}
	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Date.Time
		ys[i] = p.Value
	}
	s := timeSeries("Valor", xs, ys, lineStyle(hexColor(DetailChartColor)))
	return renderSVG(f.baseChart(title, UnitLabel(unit), f.loc, size, []chart.TimeSeries{s}))
}

// ComparisonChart renders one line per entry over the aligned rows. A code is only plotted on
// the days it has a value. Entries without any value are left out.
func (f *Formatter) ComparisonChart(title string, entries []models.SelectionEntry, rows []models.AlignedRow, size ChartSize) ([]byte, error) {
	var series []chart.TimeSeries
	for _, e := range entries {
		var xs []time.Time
		var ys []float64
		for _, r := range rows {
			if v, ok := r.Value(e.Code); ok {
				xs = append(xs, r.Date)
				ys = append(ys, v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		series = append(series, timeSeries(e.Name, xs, ys, lineStyle(hexColor(e.Color))))
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("render chart: no points")
	}
	// aligned rows are calendar days at midnight UTC
	ch := f.baseChart(title, "", time.UTC, size, series)
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return renderSVG(ch)
}
