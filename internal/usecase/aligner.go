package usecase

import (
	"sort"
	"time"

	"Indicadores/internal/domain/models"
	xutil "Indicadores/pkg/util"
)

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

func (k dayKey) before(o dayKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	if k.month != o.month {
		return k.month < o.month
	}
	return k.day < o.day
}

// Align merges independently fetched series into one row per calendar day, ascending.
// The day of a point is taken in its own offset and rows carry that day as midnight UTC,
// so rows built from points in different offsets compare and format alike. A row only carries the codes that have a
// point on that day; when one series has two points on the same day the later one wins.
// Undated points are skipped. The result is never nil.
func Align(series []models.IndicatorDetail) []models.AlignedRow {
	rows := make(map[dayKey]*models.AlignedRow)
	for _, s := range series {
		for _, p := range s.Series {
			if p.Date.IsZero() {
				continue
			}
			k := keyOf(p.Date.Time)
			row, ok := rows[k]
			if !ok {
				row = &models.AlignedRow{
					Date:   xutil.CalendarDay(p.Date.Time),
					Values: make(map[models.IndicatorCode]float64, len(series)),
				}
				rows[k] = row
			}
			row.Values[s.Code] = p.Value
		}
	}

	keys := make([]dayKey, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	out := make([]models.AlignedRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, *rows[k])
	}
	return out
}
