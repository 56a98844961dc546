package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary describes a series shown in the detail view.
type Summary struct {
	Points    int             `json:"points"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	First     decimal.Decimal `json:"first"`
	Last      decimal.Decimal `json:"last"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Change    decimal.Decimal `json:"change"`
	ChangePct decimal.Decimal `json:"change_pct"`
	// HasChangePct is false when the first value is zero.
	HasChangePct bool `json:"has_change_pct"`
}

var hundred = decimal.NewFromInt(100)

// Summarize computes the summary of points, which must be ascending by date.
// It returns false for an empty series.
func Summarize(points []SeriesPoint) (Summary, bool) {
	if len(points) == 0 {
		return Summary{}, false
	}

	first := decimal.NewFromFloat(points[0].Value)
	last := decimal.NewFromFloat(points[len(points)-1].Value)
	lo, hi := first, first
	for _, p := range points[1:] {
		v := decimal.NewFromFloat(p.Value)
		if v.LessThan(lo) {
			lo = v
		}
		if v.GreaterThan(hi) {
			hi = v
		}
	}

	s := Summary{
		Points: len(points),
		From:   points[0].Date.Time,
		To:     points[len(points)-1].Date.Time,
		First:  first.Round(2),
		Last:   last.Round(2),
		Min:    lo.Round(2),
		Max:    hi.Round(2),
		Change: last.Sub(first).Round(2),
	}
	if !first.IsZero() {
		s.ChangePct = last.Sub(first).Div(first.Abs()).Mul(hundred).Round(2)
		s.HasChangePct = true
	}
	return s, true
}
