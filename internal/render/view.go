package render

import (
	"fmt"
	"html/template"

	"Indicadores/internal/domain/models"
	"Indicadores/internal/usecase"
)

// Card is one indicator tile of the grid.
type Card struct {
	Code     models.IndicatorCode
	Name     string
	Value    string
	Date     string
	Selected bool
	// CanAdd is false when the tile is not selected and the selection is full.
	CanAdd bool
}

// DetailVM is the open detail overlay.
type DetailVM struct {
	Code    models.IndicatorCode
	Name    string
	Title   string
	Year    int
	Years   []int
	State   string
	Message string
	Chart   template.HTML
	Summary *SummaryVM
}

// SummaryVM is the formatted detail summary.
type SummaryVM struct {
	Points  int
	From    string
	To      string
	Last    string
	Min     string
	Max     string
	Change  string
	Percent string
}

// ComparisonVM is the open comparison overlay.
type ComparisonVM struct {
	Year    int
	Years   []int
	Entries []models.SelectionEntry
	State   string
	Message string
	Chart   template.HTML
	Rows    []RowVM
}

// RowVM is one aligned day with a formatted cell per entry, empty when the code has no value.
type RowVM struct {
	Date  string
	Cells []string
}

// Page is everything the dashboard template needs.
type Page struct {
	SessionID     string
	Version       uint64
	State         string
	Message       string
	Cards         []Card
	Selection     []models.SelectionEntry
	CanCompare    bool
	SelectionFull bool
	Years         []int
	Detail        *DetailVM
	Comparison    *ComparisonVM
	NoData        string
}

// PageBuilder turns session state into a Page.
type PageBuilder struct {
	fmt  *Formatter
	size ChartSize
}

func NewPageBuilder(f *Formatter, size ChartSize) *PageBuilder {
	return &PageBuilder{fmt: f, size: size}
}

// Build renders st. Chart failures degrade to a page without the chart.
func (b *PageBuilder) Build(st usecase.State) (Page, error) {
	p := Page{
		SessionID:     st.SessionID,
		Version:       st.Version,
		State:         st.Snapshot.Kind().String(),
		Message:       st.Snapshot.Message(),
		Selection:     st.Selection,
		CanCompare:    st.CanCompare,
		SelectionFull: st.SelectionFull,
		Years:         st.Years,
		NoData:        models.MsgNoData,
	}

	selected := make(map[models.IndicatorCode]bool, len(st.Selection))
	for _, e := range st.Selection {
		selected[e.Code] = true
	}
	if inds, ok := st.Snapshot.Value(); ok {
		p.Cards = make([]Card, 0, len(inds))
		for _, ind := range inds {
			p.Cards = append(p.Cards, Card{
				Code:     ind.Code,
				Name:     ind.Name,
				Value:    b.fmt.ValueWithUnit(ind.Value, ind.Unit),
				Date:     b.fmt.Date(ind.Date.Time),
				Selected: selected[ind.Code],
				CanAdd:   selected[ind.Code] || !st.SelectionFull,
			})
		}
	}

	var errs []error
	if st.Detail != nil {
		vm, err := b.detail(st.Detail, st.Years)
		if err != nil {
			errs = append(errs, err)
		}
		p.Detail = vm
	}
	if st.Comparison != nil {
		vm, err := b.comparison(st.Comparison, st.Years)
		if err != nil {
			errs = append(errs, err)
		}
		p.Comparison = vm
	}
	if len(errs) > 0 {
		return p, errs[0]
	}
	return p, nil
}

func (b *PageBuilder) detail(d *usecase.DetailView, years []int) (*DetailVM, error) {
	vm := &DetailVM{
		Code:    d.Code,
		Name:    d.Name,
		Title:   fmt.Sprintf("Evolución %s - %d", d.Name, d.Year),
		Year:    d.Year,
		Years:   years,
		State:   d.Phase.Kind().String(),
		Message: phaseMessage(d.Phase.Kind(), d.Phase.Message()),
	}
	data, ok := d.Phase.Value()
	if !ok {
		return vm, nil
	}

	s := data.Summary
	vm.Summary = &SummaryVM{
		Points: s.Points,
		From:   b.fmt.Date(s.From),
		To:     b.fmt.Date(s.To),
		Last:   b.fmt.ValueWithUnit(s.Last.InexactFloat64(), data.Detail.Unit),
		Min:    b.fmt.Decimal(s.Min),
		Max:    b.fmt.Decimal(s.Max),
		Change: b.fmt.Decimal(s.Change),
	}
	if s.HasChangePct {
		vm.Summary.Percent = b.fmt.Percent(s.ChangePct)
	}

	svg, err := b.fmt.DetailChart(vm.Title, data.Detail.Unit, data.Detail.Series, b.size)
	if err != nil {
		return vm, fmt.Errorf("detail %s: %w", d.Code, err)
	}
	vm.Chart = template.HTML(svg)
	return vm, nil
}

func (b *PageBuilder) comparison(c *usecase.ComparisonView, years []int) (*ComparisonVM, error) {
	vm := &ComparisonVM{
		Year:    c.Year,
		Years:   years,
		Entries: c.Entries,
		State:   c.Phase.Kind().String(),
		Message: phaseMessage(c.Phase.Kind(), c.Phase.Message()),
	}
	rows, ok := c.Phase.Value()
	if !ok {
		return vm, nil
	}

	vm.Rows = make([]RowVM, len(rows))
	for i, r := range rows {
		cells := make([]string, len(c.Entries))
		for j, e := range c.Entries {
			if v, ok := r.Value(e.Code); ok {
				cells[j] = b.fmt.Value(v)
			}
		}
		vm.Rows[i] = RowVM{Date: b.fmt.Day(r.Date), Cells: cells}
	}

	svg, err := b.fmt.ComparisonChart(fmt.Sprintf("Comparación de Indicadores - %d", c.Year), c.Entries, rows, b.size)
	if err != nil {
		return vm, fmt.Errorf("comparison: %w", err)
	}
	vm.Chart = template.HTML(svg)
	return vm, nil
}

// phaseMessage fills in the no-data notice for empty views.
func phaseMessage(kind models.PhaseKind, msg string) string {
	if kind == models.PhaseEmpty {
		return models.MsgNoData
	}
	return msg
}
