package models

import (
	"encoding/json"
	"sort"
	"time"

	xutil "Indicadores/pkg/util"
)

// AlignedRow holds the values of several series on one calendar day.
// Only codes with a point on that day are present in Values.
type AlignedRow struct {
	Date   time.Time
	Values map[IndicatorCode]float64
}

// Value returns the value of code on this row, if any.
func (r AlignedRow) Value(code IndicatorCode) (float64, bool) {
	v, ok := r.Values[code]
	return v, ok
}

func (r AlignedRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date   string                    `json:"fecha"`
		Values map[IndicatorCode]float64 `json:"values"`
	}{
		Date:   r.Date.Format(xutil.DayLayout),
		Values: r.Values,
	})
}

func sortPoints(points []SeriesPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date.Time)
	})
}
