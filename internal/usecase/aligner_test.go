package usecase

import (
	"reflect"
	"testing"
	"time"

	"Indicadores/internal/domain/models"
)

func pt(day string, v float64) models.SeriesPoint {
	t, err := time.Parse(time.RFC3339, day+"T04:00:00Z")
	if err != nil {
		panic(err)
	}
	return models.SeriesPoint{Date: models.Date{Time: t}, Value: v}
}

func detail(code models.IndicatorCode, points ...models.SeriesPoint) models.IndicatorDetail {
	return models.IndicatorDetail{Code: code, Name: string(code), Series: points}
}

func TestAlignDolarEuro(t *testing.T) {
	dolar := detail(models.CodeDolar, pt("2024-06-03", 915.86), pt("2024-05-31", 917.17), pt("2024-06-01", 916.5))
	euro := detail(models.CodeEuro, pt("2024-05-31", 995.1), pt("2024-06-03", 994.2))

	rows := Align([]models.IndicatorDetail{dolar, euro})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	wantDays := []string{"2024-05-31", "2024-06-01", "2024-06-03"}
	for i, r := range rows {
		if got := r.Date.Format("2006-01-02"); got != wantDays[i] {
			t.Fatalf("row %d: day %s want %s", i, got, wantDays[i])
		}
	}
	if v, ok := rows[0].Value(models.CodeEuro); !ok || v != 995.1 {
		t.Fatalf("euro on 05-31: %v %v", v, ok)
	}
	if _, ok := rows[1].Value(models.CodeEuro); ok {
		t.Fatalf("euro must be absent on 06-01")
	}
	if v, _ := rows[1].Value(models.CodeDolar); v != 916.5 {
		t.Fatalf("dolar on 06-01: %v", v)
	}
	if len(rows[2].Values) != 2 {
		t.Fatalf("expected both codes on 06-03: %v", rows[2].Values)
	}
}

func TestAlignStrictlyAscendingNoDuplicates(t *testing.T) {
	a := detail(models.CodeUF, pt("2024-01-03", 3), pt("2024-01-01", 1), pt("2024-01-02", 2))
	b := detail(models.CodeUTM, pt("2024-01-02", 20), pt("2023-12-31", 0))
	rows := Align([]models.IndicatorDetail{a, b})

	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			t.Fatalf("rows not strictly ascending at %d: %v %v", i, rows[i-1].Date, rows[i].Date)
		}
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 distinct days, got %d", len(rows))
	}
	// zero is a real value, not a missing one
	if v, ok := rows[0].Value(models.CodeUTM); !ok || v != 0 {
		t.Fatalf("zero value lost: %v %v", v, ok)
	}
}

func TestAlignPresenceMatchesSource(t *testing.T) {
	a := detail(models.CodeUF, pt("2024-01-01", 1), pt("2024-01-02", 2))
	b := detail(models.CodeIPC, pt("2024-01-02", 0.3))
	rows := Align([]models.IndicatorDetail{a, b})

	count := 0
	for _, r := range rows {
		count += len(r.Values)
	}
	if count != 3 {
		t.Fatalf("expected 3 values across rows, got %d", count)
	}
}

func TestAlignIdempotent(t *testing.T) {
	in := []models.IndicatorDetail{
		detail(models.CodeDolar, pt("2024-06-03", 1), pt("2024-06-01", 2)),
		detail(models.CodeEuro, pt("2024-06-02", 3)),
	}
	if !reflect.DeepEqual(Align(in), Align(in)) {
		t.Fatalf("align is not deterministic")
	}
}

func TestAlignEmpty(t *testing.T) {
	for _, in := range [][]models.IndicatorDetail{nil, {}, {detail(models.CodeUF)}} {
		rows := Align(in)
		if rows == nil || len(rows) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", rows)
		}
	}
}

func TestAlignLaterDuplicateWins(t *testing.T) {
	a := detail(models.CodeTPM, pt("2024-01-01", 1), pt("2024-01-01", 2))
	rows := Align([]models.IndicatorDetail{a})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if v, _ := rows[0].Value(models.CodeTPM); v != 2 {
		t.Fatalf("expected later value, got %v", v)
	}
}

func TestAlignUsesOwnOffset(t *testing.T) {
	santiago := time.FixedZone("CLT", -4*3600)
	late := models.SeriesPoint{Date: models.Date{Time: time.Date(2024, 6, 1, 23, 0, 0, 0, santiago)}, Value: 1}
	rows := Align([]models.IndicatorDetail{{Code: models.CodeUF, Series: []models.SeriesPoint{late}}})
	if rows[0].Date.Day() != 1 {
		t.Fatalf("expected day 1 in own offset, got %v", rows[0].Date)
	}
}

func TestAlignRowsAreUTCDaysAcrossOffsets(t *testing.T) {
	santiago := time.FixedZone("CLT", -4*3600)
	a := models.SeriesPoint{Date: models.Date{Time: time.Date(2024, 6, 3, 0, 0, 0, 0, santiago)}, Value: 1}
	b := models.SeriesPoint{Date: models.Date{Time: time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC)}, Value: 2}
	c := models.SeriesPoint{Date: models.Date{Time: time.Date(2024, 6, 2, 0, 0, 0, 0, santiago)}, Value: 3}
	// The santiago series creates the 2024-06-03 row before the UTC series joins it.
	rows := Align([]models.IndicatorDetail{
		{Code: models.CodeDolar, Series: []models.SeriesPoint{a, c}},
		{Code: models.CodeEuro, Series: []models.SeriesPoint{b}},
	})
	if len(rows) != 2 {
		t.Fatalf("rows %+v", rows)
	}
	for _, r := range rows {
		if r.Date.Location() != time.UTC || r.Date.Hour() != 0 {
			t.Fatalf("row date %v not midnight UTC", r.Date)
		}
	}
	if want := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC); !rows[1].Date.Equal(want) || len(rows[1].Values) != 2 {
		t.Fatalf("unexpected last row %+v", rows[1])
	}
}
