package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	xutil "Indicadores/pkg/util"
)

// IndicatorCode identifies an indicator in the mindicador.cl API.
type IndicatorCode string

const (
	CodeUF               IndicatorCode = "uf"
	CodeIVP              IndicatorCode = "ivp"
	CodeDolar            IndicatorCode = "dolar"
	CodeDolarIntercambio IndicatorCode = "dolar_intercambio"
	CodeEuro             IndicatorCode = "euro"
	CodeIPC              IndicatorCode = "ipc"
	CodeUTM              IndicatorCode = "utm"
	CodeIMACEC           IndicatorCode = "imacec"
	CodeTPM              IndicatorCode = "tpm"
	CodeLibraCobre       IndicatorCode = "libra_cobre"
	CodeTasaDesempleo    IndicatorCode = "tasa_desempleo"
	CodeBitcoin          IndicatorCode = "bitcoin"
)

// AllCodes lists the known indicators in upstream order.
var AllCodes = []IndicatorCode{
	CodeUF, CodeIVP, CodeDolar, CodeDolarIntercambio, CodeEuro, CodeIPC,
	CodeUTM, CodeIMACEC, CodeTPM, CodeLibraCobre, CodeTasaDesempleo, CodeBitcoin,
}

var codeColors = map[IndicatorCode]string{
	CodeUF:               "#2563eb",
	CodeIVP:              "#9333ea",
	CodeDolar:            "#16a34a",
	CodeDolarIntercambio: "#65a30d",
	CodeEuro:             "#0891b2",
	CodeIPC:              "#d97706",
	CodeUTM:              "#dc2626",
	CodeIMACEC:           "#db2777",
	CodeTPM:              "#4f46e5",
	CodeLibraCobre:       "#f59e0b",
	CodeTasaDesempleo:    "#7c3aed",
	CodeBitcoin:          "#f97316",
}

// DefaultColor is used for codes outside the table. Only reachable through hand-built values.
const DefaultColor = "#6b7280"

// Valid reports whether c is one of the known codes.
func (c IndicatorCode) Valid() bool {
	_, ok := codeColors[c]
	return ok
}

func (c IndicatorCode) String() string { return string(c) }

// ParseCode validates s as an indicator code.
func ParseCode(s string) (IndicatorCode, error) {
	c := IndicatorCode(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownIndicator, s)
	}
	return c, nil
}

// ValidCode is the string form of Valid, used as a validator tag.
func ValidCode(s string) bool { return IndicatorCode(s).Valid() }

// ColorFor returns the chart color assigned to code.
func ColorFor(code IndicatorCode) string {
	if c, ok := codeColors[code]; ok {
		return c
	}
	return DefaultColor
}

// Date is a calendar value decoded from the API. Upstream sends RFC3339 timestamps,
// a plain yyyy-mm-dd is accepted too. Null or empty decodes to the zero time.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, ok := xutil.ParseTime(s)
	if !ok {
		return fmt.Errorf("date %q: unsupported format", s)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}

// Indicator is the latest value of one indicator.
type Indicator struct {
	Code  IndicatorCode `json:"codigo"`
	Name  string        `json:"nombre"`
	Unit  string        `json:"unidad_medida"`
	Date  Date          `json:"fecha"`
	Value float64       `json:"valor"`
}

// SeriesPoint is one dated value of a history.
type SeriesPoint struct {
	Date  Date    `json:"fecha"`
	Value float64 `json:"valor"`
}

// IndicatorDetail is the history of one indicator.
type IndicatorDetail struct {
	Code   IndicatorCode `json:"codigo"`
	Name   string        `json:"nombre"`
	Unit   string        `json:"unidad_medida"`
	Series []SeriesPoint `json:"serie"`
}

// SortedSeries returns the points ascending by date. The receiver is not modified.
func (d IndicatorDetail) SortedSeries() []SeriesPoint {
	out := make([]SeriesPoint, len(d.Series))
	copy(out, d.Series)
	sortPoints(out)
	return out
}

// LastPoints returns the newest n points ascending by date.
func (d IndicatorDetail) LastPoints(n int) []SeriesPoint {
	sorted := d.SortedSeries()
	if n > 0 && len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

// ValidYear bounds the years accepted for history lookups.
func ValidYear(y int) bool {
	return y >= 1900 && y <= 2100
}
