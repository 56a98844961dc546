package usecase

import (
	"context"
	"errors"
	"testing"

	"Indicadores/internal/domain/models"
)

func TestCompareAlignsFetchedSeries(t *testing.T) {
	src := newFakeSource()
	src.setHistory(models.CodeDolar, 2024, pt("2024-06-03", 915.86), pt("2024-05-31", 917.17))
	src.setHistory(models.CodeEuro, 2024, pt("2024-06-03", 994.2))

	rows, err := NewComparator(src).Compare(context.Background(), []models.IndicatorCode{models.CodeDolar, models.CodeEuro}, 2024)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if len(rows[1].Values) != 2 {
		t.Fatalf("expected both codes on last row, got %v", rows[1].Values)
	}
}

func TestCompareFailsWhenAnyFetchFails(t *testing.T) {
	src := newFakeSource()
	src.setHistory(models.CodeDolar, 2024, pt("2024-06-03", 915.86))
	src.fail[models.CodeEuro] = true

	rows, err := NewComparator(src).Compare(context.Background(), []models.IndicatorCode{models.CodeDolar, models.CodeEuro}, 2024)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestCompareValidatesInput(t *testing.T) {
	c := NewComparator(newFakeSource())
	ctx := context.Background()

	cases := []struct {
		codes []models.IndicatorCode
		year  int
		want  error
	}{
		{[]models.IndicatorCode{models.CodeUF}, 2024, models.ErrComparisonSize},
		{[]models.IndicatorCode{models.CodeUF, models.CodeUTM, models.CodeIPC, models.CodeTPM}, 2024, models.ErrComparisonSize},
		{[]models.IndicatorCode{models.CodeUF, models.CodeUF}, 2024, models.ErrComparisonSize},
		{[]models.IndicatorCode{models.CodeUF, "peso"}, 2024, models.ErrUnknownIndicator},
		{[]models.IndicatorCode{models.CodeUF, models.CodeUTM}, 1500, models.ErrInvalidYear},
	}
	for i, tc := range cases {
		if _, err := c.Compare(ctx, tc.codes, tc.year); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v want %v", i, err, tc.want)
		}
	}
}
