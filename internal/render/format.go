package render

import (
	"time"

	"Indicadores/internal/domain/models"
	xutil "Indicadores/pkg/util"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale is the display locale of the dashboard.
var Locale = language.MustParse("es-CL")

// Formatter renders values and dates the way the dashboard shows them.
type Formatter struct {
	printer *message.Printer
	loc     *time.Location
}

// NewFormatter formats numbers for Locale and dates in loc.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{printer: message.NewPrinter(Locale), loc: loc}
}

// Value formats v with locale grouping and at most two decimals: 39250.123 -> "39.250,12".
func (f *Formatter) Value(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Decimal formats d like Value.
func (f *Formatter) Decimal(d decimal.Decimal) string {
	return f.Value(d.InexactFloat64())
}

// Percent formats a signed percentage with two decimals, e.g. "+5,25 %".
func (f *Formatter) Percent(d decimal.Decimal) string {
	s := f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	if d.IsPositive() {
		s = "+" + s
	}
	return s + " %"
}

// UnitLabel shows "Pesos" as "CLP" and any other unit as sent.
func UnitLabel(unit string) string {
	if unit == "Pesos" {
		return "CLP"
	}
	return unit
}

// ValueWithUnit joins Value and UnitLabel.
func (f *Formatter) ValueWithUnit(v float64, unit string) string {
	label := UnitLabel(unit)
	if label == "" {
		return f.Value(v)
	}
	return f.Value(v) + " " + label
}

// Date formats t as dd/MM/yyyy in the dashboard time zone, or the unavailable text for a zero date.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return models.MsgDateUnavailable
	}
	return t.In(f.loc).Format(xutil.DisplayDayLayout)
}

// Day formats an aligned-row day, which is a calendar day held at midnight UTC.
func (f *Formatter) Day(t time.Time) string {
	return t.UTC().Format(xutil.DisplayDayLayout)
}
