package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Indicadores/internal/domain/models"
	drepo "Indicadores/internal/domain/repository"
	xlogger "Indicadores/pkg/logger"
	xutil "Indicadores/pkg/util"
)

// DashboardConfig holds the view settings shared by all sessions.
type DashboardConfig struct {
	YearOptions  int
	DetailPoints int
	Location     *time.Location
	Now          func() time.Time
}

func (c DashboardConfig) withDefaults() DashboardConfig {
	if c.YearOptions <= 0 {
		c.YearOptions = 5
	}
	if c.DetailPoints <= 0 {
		c.DetailPoints = 30
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// DetailData is what the detail view shows: the newest points ascending and their summary.
type DetailData struct {
	Detail  models.IndicatorDetail `json:"detail"`
	Summary models.Summary         `json:"summary"`
}

// DetailView is the open detail overlay.
type DetailView struct {
	Code  models.IndicatorCode     `json:"code"`
	Name  string                   `json:"name"`
	Year  int                      `json:"year"`
	Phase models.Phase[DetailData] `json:"phase"`
}

// ComparisonView is the open comparison overlay. Entries are the indicators the rows were
// requested for.
type ComparisonView struct {
	Year    int                               `json:"year"`
	Entries []models.SelectionEntry           `json:"entries"`
	Phase   models.Phase[[]models.AlignedRow] `json:"phase"`
}

// State is a copy of everything a session shows. Detail and Comparison are nil when closed.
type State struct {
	SessionID     string                           `json:"session_id"`
	Version       uint64                           `json:"version"`
	Snapshot      models.Phase[[]models.Indicator] `json:"snapshot"`
	Selection     []models.SelectionEntry          `json:"selection"`
	CanCompare    bool                             `json:"can_compare"`
	SelectionFull bool                             `json:"selection_full"`
	Years         []int                            `json:"years"`
	Detail        *DetailView                      `json:"detail,omitempty"`
	Comparison    *ComparisonView                  `json:"comparison,omitempty"`
}

type detailState struct {
	open bool
	gen  uint64
	view DetailView
}

type comparisonState struct {
	open bool
	gen  uint64
	view ComparisonView
}

// Dashboard is the view state of one browser session. Every fetch runs between a begin,
// which bumps the view generation, and a commit, which is dropped if the generation moved.
// mu is never held across a fetch.
type Dashboard struct {
	id         string
	cfg        DashboardConfig
	source     drepo.IndicatorSource
	comparator *Comparator
	store      drepo.SessionStore
	metrics    drepo.Metrics
	logger     *xlogger.Logger

	mu            sync.Mutex
	snapshot      models.Snapshot
	snapshotPhase models.Phase[[]models.Indicator]
	snapshotGen   uint64
	selection     models.Selection
	detail        detailState
	comparison    comparisonState
	version       uint64
	lastSeen      time.Time

	subMu        sync.Mutex
	subs         map[int]chan State
	nextSub      int
	lastNotified uint64
	closed       bool
}

// NewDashboard creates the state of session id with an optional restored selection.
func NewDashboard(id string, cfg DashboardConfig, source drepo.IndicatorSource, store drepo.SessionStore, metrics drepo.Metrics, logger *xlogger.Logger, sel models.Selection) *Dashboard {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &Dashboard{
		id:         id,
		cfg:        cfg,
		source:     source,
		comparator: NewComparator(source),
		store:      store,
		metrics:    metrics,
		logger:     logger.With(xlogger.String("session", id)),
		selection:  sel,
		lastSeen:   cfg.Now(),
		subs:       make(map[int]chan State),
	}
}

func (d *Dashboard) ID() string { return d.id }

func (d *Dashboard) currentYear() int {
	return d.cfg.Now().In(d.cfg.Location).Year()
}

// State returns a copy of the current state.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Dashboard) stateLocked() State {
	s := State{
		SessionID:     d.id,
		Version:       d.version,
		Snapshot:      d.snapshotPhase,
		Selection:     d.selection.Entries(),
		CanCompare:    d.selection.CanCompare(),
		SelectionFull: d.selection.Full(),
		Years:         xutil.RecentYears(d.cfg.Now().In(d.cfg.Location), d.cfg.YearOptions),
	}
	if d.detail.open {
		v := d.detail.view
		s.Detail = &v
	}
	if d.comparison.open {
		v := d.comparison.view
		v.Entries = append([]models.SelectionEntry(nil), v.Entries...)
		s.Comparison = &v
	}
	return s
}

// commitLocked bumps the version and returns the state to publish once mu is released.
func (d *Dashboard) commitLocked() State {
	d.version++
	return d.stateLocked()
}

// EnsureSnapshot loads the snapshot unless it is ready or a load is in flight.
func (d *Dashboard) EnsureSnapshot(ctx context.Context) {
	d.mu.Lock()
	inFlight := d.snapshotGen > 0 && d.snapshotPhase.IsLoading()
	ready := d.snapshotPhase.IsReady() || d.snapshotPhase.IsEmpty()
	d.mu.Unlock()
	if inFlight || ready {
		return
	}
	d.LoadSnapshot(ctx)
}

// LoadSnapshot fetches the latest values. A failure is reported through the snapshot phase.
func (d *Dashboard) LoadSnapshot(ctx context.Context) {
	d.metrics.RecordAction(models.ActionRefresh)

	d.mu.Lock()
	d.snapshotGen++
	gen := d.snapshotGen
	d.snapshotPhase = models.Loading[[]models.Indicator]()
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)

	snap, err := d.source.FetchSnapshot(detach(ctx))

	d.mu.Lock()
	if gen != d.snapshotGen {
		d.mu.Unlock()
		d.metrics.RecordStale("snapshot")
		return
	}
	switch {
	case err != nil:
		d.logger.Warn("snapshot load failed", xlogger.Error(err))
		d.snapshotPhase = models.Failed[[]models.Indicator](models.MsgSnapshotFailed)
	case len(snap) == 0:
		d.snapshot = snap
		d.snapshotPhase = models.Empty[[]models.Indicator]()
	default:
		d.snapshot = snap
		d.snapshotPhase = models.Ready(snap.Sorted())
	}
	st = d.commitLocked()
	d.mu.Unlock()
	d.notify(st)
}

// ToggleSelection adds or removes code from the comparison selection. An open comparison is
// refreshed for the new selection, or closed when fewer than two indicators remain.
func (d *Dashboard) ToggleSelection(ctx context.Context, code models.IndicatorCode) error {
	if !code.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownIndicator, code)
	}
	d.metrics.RecordAction(models.ActionToggle)

	d.mu.Lock()
	if !d.selection.Toggle(code, d.snapshot.Name(code)) {
		d.mu.Unlock()
		return nil
	}
	sel := d.selection
	var refetch bool
	var gen uint64
	var entries []models.SelectionEntry
	var year int
	if d.comparison.open {
		if sel.CanCompare() {
			gen, entries, year = d.beginComparisonLocked(d.comparison.view.Year)
			refetch = true
		} else {
			d.closeComparisonLocked()
		}
	}
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)

	if d.store != nil {
		if err := d.store.SaveSelection(detach(ctx), d.id, sel); err != nil {
			d.logger.Warn("save selection failed", xlogger.Error(err))
		}
	}
	if refetch {
		d.runComparison(ctx, gen, entries, year)
	}
	return nil
}

// OpenDetail opens the detail overlay for code on the current year. An empty name is taken
// from the snapshot.
func (d *Dashboard) OpenDetail(ctx context.Context, code models.IndicatorCode, name string) error {
	if !code.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownIndicator, code)
	}
	d.metrics.RecordAction(models.ActionOpenDetail)

	d.mu.Lock()
	if name == "" {
		name = d.snapshot.Name(code)
	}
	d.detail.open = true
	d.detail.view = DetailView{Code: code, Name: name}
	year := d.currentYear()
	gen := d.beginDetailLocked(year)
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)

	d.runDetail(ctx, gen, code, year)
	return nil
}

// SetDetailYear reloads the open detail overlay for year.
func (d *Dashboard) SetDetailYear(ctx context.Context, year int) error {
	if !models.ValidYear(year) {
		return fmt.Errorf("%w: %d", models.ErrInvalidYear, year)
	}
	d.metrics.RecordAction(models.ActionDetailYear)

	d.mu.Lock()
	if !d.detail.open {
		d.mu.Unlock()
		return fmt.Errorf("detail: %w", models.ErrViewClosed)
	}
	gen := d.beginDetailLocked(year)
	code := d.detail.view.Code
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)

	d.runDetail(ctx, gen, code, year)
	return nil
}

// CloseDetail closes the detail overlay and discards its data. Closing a closed view is a no-op.
func (d *Dashboard) CloseDetail() {
	d.metrics.RecordAction(models.ActionCloseDetail)

	d.mu.Lock()
	if !d.detail.open {
		d.mu.Unlock()
		return
	}
	d.detail.open = false
	d.detail.gen++
	d.detail.view = DetailView{}
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)
}

func (d *Dashboard) beginDetailLocked(year int) uint64 {
	d.detail.gen++
	d.detail.view.Year = year
	d.detail.view.Phase = models.Loading[DetailData]()
	return d.detail.gen
}

func (d *Dashboard) runDetail(ctx context.Context, gen uint64, code models.IndicatorCode, year int) {
	detail, err := d.source.FetchHistory(detach(ctx), code, year)

	d.mu.Lock()
	if !d.detail.open || gen != d.detail.gen {
		d.mu.Unlock()
		d.metrics.RecordStale("detail")
		return
	}
	switch {
	case err != nil:
		d.logger.Warn("detail load failed", xlogger.String("code", string(code)), xlogger.Int("year", year), xlogger.Error(err))
		d.detail.view.Phase = models.Failed[DetailData](models.MsgDetailFailed)
	case len(detail.Series) == 0:
		d.detail.view.Phase = models.Empty[DetailData]()
	default:
		d.detail.view.Phase = models.Ready(buildDetailData(detail, d.cfg.DetailPoints))
	}
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)
}

func buildDetailData(detail models.IndicatorDetail, points int) DetailData {
	detail.Series = detail.LastPoints(points)
	summary, _ := models.Summarize(detail.Series)
	return DetailData{Detail: detail, Summary: summary}
}

// OpenComparison opens the comparison overlay for the current selection on the current year.
func (d *Dashboard) OpenComparison(ctx context.Context) error {
	d.metrics.RecordAction(models.ActionOpenComparison)

	d.mu.Lock()
	if !d.selection.CanCompare() {
		d.mu.Unlock()
		return models.ErrComparisonUnavailable
	}
	d.comparison.open = true
	gen, entries, year := d.beginComparisonLocked(d.currentYear())
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)

	d.runComparison(ctx, gen, entries, year)
	return nil
}

// SetComparisonYear reloads the open comparison for year.
func (d *Dashboard) SetComparisonYear(ctx context.Context, year int) error {
	if !models.ValidYear(year) {
		return fmt.Errorf("%w: %d", models.ErrInvalidYear, year)
	}
	d.metrics.RecordAction(models.ActionComparisonYear)

	d.mu.Lock()
	if !d.comparison.open {
		d.mu.Unlock()
		return fmt.Errorf("comparison: %w", models.ErrViewClosed)
	}
	gen, entries, year := d.beginComparisonLocked(year)
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)

	d.runComparison(ctx, gen, entries, year)
	return nil
}

// CloseComparison closes the comparison overlay and discards its rows.
func (d *Dashboard) CloseComparison() {
	d.metrics.RecordAction(models.ActionCloseComparison)

	d.mu.Lock()
	if !d.comparison.open {
		d.mu.Unlock()
		return
	}
	d.closeComparisonLocked()
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)
}

func (d *Dashboard) closeComparisonLocked() {
	d.comparison.open = false
	d.comparison.gen++
	d.comparison.view = ComparisonView{}
}

func (d *Dashboard) beginComparisonLocked(year int) (uint64, []models.SelectionEntry, int) {
	d.comparison.gen++
	entries := d.selection.Entries()
	d.comparison.view = ComparisonView{
		Year:    year,
		Entries: entries,
		Phase:   models.Loading[[]models.AlignedRow](),
	}
	return d.comparison.gen, entries, year
}

func (d *Dashboard) runComparison(ctx context.Context, gen uint64, entries []models.SelectionEntry, year int) {
	codes := make([]models.IndicatorCode, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}
	rows, err := d.comparator.Compare(detach(ctx), codes, year)

	d.mu.Lock()
	if !d.comparison.open || gen != d.comparison.gen {
		d.mu.Unlock()
		d.metrics.RecordStale("comparison")
		return
	}
	switch {
	case err != nil:
		d.logger.Warn("comparison load failed", xlogger.Int("year", year), xlogger.Error(err))
		d.comparison.view.Phase = models.Failed[[]models.AlignedRow](models.MsgComparisonFailed)
	case len(rows) == 0:
		d.comparison.view.Phase = models.Empty[[]models.AlignedRow]()
	default:
		d.comparison.view.Phase = models.Ready(rows)
	}
	st := d.commitLocked()
	d.mu.Unlock()
	d.notify(st)
}

// Subscribe returns a channel receiving the state after every transition. Only the latest
// undelivered state is kept. The cancel func must be called when done.
func (d *Dashboard) Subscribe() (<-chan State, func()) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	ch := make(chan State, 1)
	if d.closed {
		close(ch)
		return ch, func() {}
	}
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch

	return ch, func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		if c, ok := d.subs[id]; ok {
			delete(d.subs, id)
			close(c)
		}
	}
}

func (d *Dashboard) notify(s State) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	if s.Version <= d.lastNotified {
		return
	}
	d.lastNotified = s.Version
	for _, ch := range d.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Close ends all subscriptions.
func (d *Dashboard) Close() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	d.closed = true
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
}

// Touch marks the session as used now. Callers outside the registry, such as a websocket
// connection, call it for every action they run.
func (d *Dashboard) Touch() { d.touch(d.cfg.Now()) }

func (d *Dashboard) touch(now time.Time) {
	d.mu.Lock()
	d.lastSeen = now
	d.mu.Unlock()
}

func (d *Dashboard) hasSubscribers() bool {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	return len(d.subs) > 0
}

func (d *Dashboard) idleSince() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen
}

// detach keeps a fetch running when the request that started it goes away. Superseded
// fetches are not cancelled either, their results are discarded on commit.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
