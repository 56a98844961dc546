package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Indicadores/internal/domain/models"
)

var errUpstream = errors.New("upstream down")

// fakeSource serves canned data. A fetch whose key is in block waits until the channel is
// closed; started receives the key of every fetch as it begins.
type fakeSource struct {
	mu       sync.Mutex
	snapshot models.Snapshot
	snapErr  error
	history  map[string]models.IndicatorDetail
	fail     map[models.IndicatorCode]bool
	block    map[string]chan struct{}
	started  chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		history: make(map[string]models.IndicatorDetail),
		fail:    make(map[models.IndicatorCode]bool),
		block:   make(map[string]chan struct{}),
		started: make(chan string, 64),
	}
}

func historyKey(code models.IndicatorCode, year int) string {
	return fmt.Sprintf("%s/%d", code, year)
}

func (f *fakeSource) setHistory(code models.IndicatorCode, year int, points ...models.SeriesPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[historyKey(code, year)] = models.IndicatorDetail{Code: code, Name: string(code), Unit: "Pesos", Series: points}
}

func (f *fakeSource) hold(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.block[key] = ch
	return ch
}

func (f *fakeSource) wait(ctx context.Context, key string) error {
	f.started <- key
	f.mu.Lock()
	ch := f.block[key]
	f.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	if err := f.wait(ctx, "snapshot"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return f.snapshot, nil
}

func (f *fakeSource) FetchHistory(ctx context.Context, code models.IndicatorCode, year int) (models.IndicatorDetail, error) {
	key := historyKey(code, year)
	if err := f.wait(ctx, key); err != nil {
		return models.IndicatorDetail{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[code] {
		return models.IndicatorDetail{}, errUpstream
	}
	if d, ok := f.history[key]; ok {
		return d, nil
	}
	return models.IndicatorDetail{Code: code, Name: string(code), Series: []models.SeriesPoint{}}, nil
}

func (f *fakeSource) FetchByDate(ctx context.Context, code models.IndicatorCode, day time.Time) (models.IndicatorDetail, error) {
	return f.FetchHistory(ctx, code, day.Year())
}

type fakeStore struct {
	mu   sync.Mutex
	sels map[string]models.Selection
}

func newFakeStore() *fakeStore { return &fakeStore{sels: make(map[string]models.Selection)} }

func (s *fakeStore) LoadSelection(_ context.Context, id string) (models.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sels[id], nil
}

func (s *fakeStore) SaveSelection(_ context.Context, id string, sel models.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sels[id] = sel
	return nil
}

func (s *fakeStore) Touch(context.Context, string) error { return nil }

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sels, id)
	return nil
}

type countingMetrics struct {
	mu    sync.Mutex
	stale map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{stale: make(map[string]int)} }

func (m *countingMetrics) RecordUpstream(string, string, float64) {}
func (m *countingMetrics) RecordError(string)                     {}
func (m *countingMetrics) RecordAction(string)                    {}
func (m *countingMetrics) SetActiveSessions(int)                  {}
func (m *countingMetrics) RecordStale(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale[view]++
}

func (m *countingMetrics) staleCount(view string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale[view]
}

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func testConfig() DashboardConfig {
	return DashboardConfig{YearOptions: 5, DetailPoints: 30, Location: time.UTC, Now: func() time.Time { return testNow }}
}
