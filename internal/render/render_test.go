package render

import (
	"strings"
	"testing"
	"time"

	"Indicadores/internal/domain/models"
	"Indicadores/internal/usecase"

	"github.com/shopspring/decimal"
)

func TestFormatValue(t *testing.T) {
	f := NewFormatter(time.UTC)
	cases := map[float64]string{
		950.5:     "950,5",
		39250.123: "39.250,12",
		37578.26:  "37.578,26",
		0.25:      "0,25",
	}
	for in, want := range cases {
		if got := f.Value(in); got != want {
			t.Fatalf("%v: got %q want %q", in, got, want)
		}
	}
}

func TestUnitLabel(t *testing.T) {
	f := NewFormatter(time.UTC)
	if got := f.ValueWithUnit(950.5, "Pesos"); got != "950,5 CLP" {
		t.Fatalf("got %q", got)
	}
	if got := UnitLabel("Porcentaje"); got != "Porcentaje" {
		t.Fatalf("got %q", got)
	}
	if got := f.Percent(decimal.RequireFromString("5.25")); got != "+5,25 %" {
		t.Fatalf("percent %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	f := NewFormatter(santiago)
	ts := time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC)
	if got := f.Date(ts); got != "03/06/2024" {
		t.Fatalf("got %q", got)
	}
	if got := f.Date(time.Time{}); got != models.MsgDateUnavailable {
		t.Fatalf("got %q", got)
	}
}

func point(day int, v float64) models.SeriesPoint {
	return models.SeriesPoint{Date: models.Date{Time: time.Date(2024, 6, day, 4, 0, 0, 0, time.UTC)}, Value: v}
}

func TestDetailChartSVG(t *testing.T) {
	f := NewFormatter(time.UTC)
	svg, err := f.DetailChart("Evolución Dólar observado - 2024", "Pesos", []models.SeriesPoint{point(1, 915), point(2, 917), point(3, 916)}, ChartSize{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(svg)), "<svg") {
		t.Fatalf("not an svg: %.60s", svg)
	}
}

func TestComparisonDaysIgnoreDashboardZone(t *testing.T) {
	f := NewFormatter(time.FixedZone("CLT", -4*3600))
	rows := []models.AlignedRow{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Values: map[models.IndicatorCode]float64{models.CodeDolar: 915.86}},
		{Date: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), Values: map[models.IndicatorCode]float64{models.CodeDolar: 917}},
	}
	if got := f.Day(rows[0].Date); got != "03/06/2024" {
		t.Fatalf("day %q", got)
	}
	entries := []models.SelectionEntry{{Code: models.CodeDolar, Name: "Dólar observado", Color: models.ColorFor(models.CodeDolar)}}
	svg, err := f.ComparisonChart("Comparación", entries, rows, ChartSize{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(svg), "03/06/2024") || strings.Contains(string(svg), "02/06/2024") {
		t.Fatalf("axis labels shifted by the dashboard zone")
	}
}

func TestChartsHandleSinglePointAndFlatSeries(t *testing.T) {
	f := NewFormatter(time.UTC)
	if _, err := f.DetailChart("x", "Pesos", []models.SeriesPoint{point(1, 10)}, ChartSize{}); err != nil {
		t.Fatalf("single point: %v", err)
	}
	if _, err := f.DetailChart("x", "Pesos", []models.SeriesPoint{point(1, 10), point(2, 10)}, ChartSize{}); err != nil {
		t.Fatalf("flat series: %v", err)
	}
	if _, err := f.DetailChart("x", "Pesos", nil, ChartSize{}); err == nil {
		t.Fatalf("expected error without points")
	}
}

func TestBuildPage(t *testing.T) {
	day := models.Date{Time: time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC)}
	rows := []models.AlignedRow{
		{Date: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), Values: map[models.IndicatorCode]float64{models.CodeDolar: 916}},
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Values: map[models.IndicatorCode]float64{models.CodeDolar: 915.86, models.CodeEuro: 994.2}},
	}
	sel := []models.SelectionEntry{
		{Code: models.CodeDolar, Name: "Dólar observado", Color: models.ColorFor(models.CodeDolar)},
		{Code: models.CodeEuro, Name: "Euro", Color: models.ColorFor(models.CodeEuro)},
	}
	st := usecase.State{
		SessionID: "sid",
		Snapshot: models.Ready([]models.Indicator{
			{Code: models.CodeDolar, Name: "Dólar observado", Unit: "Pesos", Date: day, Value: 915.86},
			{Code: models.CodeTPM, Name: "Tasa Política Monetaria (TPM)", Unit: "Porcentaje", Value: 5.75},
		}),
		Selection:  sel,
		CanCompare: true,
		Years:      []int{2024, 2023},
		Comparison: &usecase.ComparisonView{Year: 2024, Entries: sel, Phase: models.Ready(rows)},
		Detail:     &usecase.DetailView{Code: models.CodeTPM, Name: "TPM", Year: 2024, Phase: models.Failed[usecase.DetailData](models.MsgDetailFailed)},
	}

	p, err := NewPageBuilder(NewFormatter(time.UTC), ChartSize{}).Build(st)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(p.Cards) != 2 || p.Cards[0].Value != "915,86 CLP" || !p.Cards[0].Selected {
		t.Fatalf("unexpected first card %+v", p.Cards[0])
	}
	if p.Cards[1].Date != models.MsgDateUnavailable || p.Cards[1].Value != "5,75 Porcentaje" {
		t.Fatalf("unexpected second card %+v", p.Cards[1])
	}
	if p.Detail.State != "error" || p.Detail.Message != models.MsgDetailFailed || p.Detail.Chart != "" {
		t.Fatalf("unexpected detail %+v", p.Detail)
	}
	if p.Detail.Title != "Evolución TPM - 2024" {
		t.Fatalf("title %q", p.Detail.Title)
	}
	c := p.Comparison
	if c.State != "ready" || c.Chart == "" || len(c.Rows) != 2 {
		t.Fatalf("unexpected comparison %+v", c)
	}
	if c.Rows[0].Date != "02/06/2024" || c.Rows[0].Cells[1] != "" || c.Rows[1].Cells[1] != "994,2" {
		t.Fatalf("unexpected rows %+v", c.Rows)
	}
}
