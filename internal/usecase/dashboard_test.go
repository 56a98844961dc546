package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"Indicadores/internal/domain/models"
)

func testSnapshot() models.Snapshot {
	day := models.Date{Time: time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC)}
	return models.Snapshot{
		models.CodeUF:      {Code: models.CodeUF, Name: "Unidad de fomento (UF)", Unit: "Pesos", Date: day, Value: 37578.26},
		models.CodeDolar:   {Code: models.CodeDolar, Name: "Dólar observado", Unit: "Pesos", Date: day, Value: 915.86},
		models.CodeEuro:    {Code: models.CodeEuro, Name: "Euro", Unit: "Pesos", Date: day, Value: 994.2},
		models.CodeBitcoin: {Code: models.CodeBitcoin, Name: "Bitcoin", Unit: "Dólar", Date: day, Value: 67000},
	}
}

func newTestDashboard(src *fakeSource) (*Dashboard, *fakeStore, *countingMetrics) {
	store := newFakeStore()
	m := newCountingMetrics()
	return NewDashboard("sid", testConfig(), src, store, m, nil, models.Selection{}), store, m
}

func waitStarted(t *testing.T, src *fakeSource, key string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case k := <-src.started:
			if k == key {
				return
			}
		case <-timeout:
			t.Fatalf("fetch %s never started", key)
		}
	}
}

func TestLoadSnapshotSortsByName(t *testing.T) {
	src := newFakeSource()
	src.snapshot = testSnapshot()
	d, _, _ := newTestDashboard(src)

	d.LoadSnapshot(context.Background())
	cards, ok := d.State().Snapshot.Value()
	if !ok {
		t.Fatalf("snapshot not ready: %v", d.State().Snapshot.Kind())
	}
	want := []string{"Bitcoin", "Dólar observado", "Euro", "Unidad de fomento (UF)"}
	for i, c := range cards {
		if c.Name != want[i] {
			t.Fatalf("card %d: %q want %q", i, c.Name, want[i])
		}
	}
}

func TestLoadSnapshotFailure(t *testing.T) {
	src := newFakeSource()
	src.snapErr = errUpstream
	d, _, _ := newTestDashboard(src)

	d.EnsureSnapshot(context.Background())
	st := d.State()
	if !st.Snapshot.IsError() || st.Snapshot.Message() != models.MsgSnapshotFailed {
		t.Fatalf("expected error phase, got %v %q", st.Snapshot.Kind(), st.Snapshot.Message())
	}

	// not ready, so the next visit retries
	src.snapErr = nil
	src.snapshot = testSnapshot()
	d.EnsureSnapshot(context.Background())
	if !d.State().Snapshot.IsReady() {
		t.Fatalf("expected retry to succeed")
	}
}

func TestToggleSelectionPersistsAndCaps(t *testing.T) {
	src := newFakeSource()
	src.snapshot = testSnapshot()
	d, store, _ := newTestDashboard(src)
	ctx := context.Background()
	d.LoadSnapshot(ctx)

	for _, c := range []models.IndicatorCode{models.CodeDolar, models.CodeEuro, models.CodeUF, models.CodeBitcoin} {
		if err := d.ToggleSelection(ctx, c); err != nil {
			t.Fatalf("toggle %s: %v", c, err)
		}
	}
	st := d.State()
	if len(st.Selection) != 3 || !st.SelectionFull {
		t.Fatalf("expected 3 entries, got %v", st.Selection)
	}
	if st.Selection[0].Name != "Dólar observado" || st.Selection[0].Color != "#16a34a" {
		t.Fatalf("unexpected first entry %+v", st.Selection[0])
	}
	if saved := store.sels["sid"]; saved.Len() != 3 {
		t.Fatalf("selection not persisted: %v", saved.Codes())
	}

	if err := d.ToggleSelection(ctx, "peso"); !errors.Is(err, models.ErrUnknownIndicator) {
		t.Fatalf("expected unknown indicator, got %v", err)
	}
}

func TestOpenComparisonNeedsTwo(t *testing.T) {
	d, _, _ := newTestDashboard(newFakeSource())
	ctx := context.Background()
	_ = d.ToggleSelection(ctx, models.CodeDolar)
	if err := d.OpenComparison(ctx); !errors.Is(err, models.ErrComparisonUnavailable) {
		t.Fatalf("expected ErrComparisonUnavailable, got %v", err)
	}
	if d.State().Comparison != nil {
		t.Fatalf("comparison must stay closed")
	}
}

func TestComparisonWithFailingFetchShowsError(t *testing.T) {
	src := newFakeSource()
	src.setHistory(models.CodeDolar, 2024, pt("2024-06-03", 915.86))
	src.fail[models.CodeEuro] = true
	d, _, _ := newTestDashboard(src)
	ctx := context.Background()

	_ = d.ToggleSelection(ctx, models.CodeDolar)
	_ = d.ToggleSelection(ctx, models.CodeEuro)
	if err := d.OpenComparison(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	cmp := d.State().Comparison
	if cmp == nil || !cmp.Phase.IsError() || cmp.Phase.Message() != models.MsgComparisonFailed {
		t.Fatalf("expected error phase, got %+v", cmp)
	}
	if rows := cmp.Phase.Data(); rows != nil {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestComparisonFollowsSelection(t *testing.T) {
	src := newFakeSource()
	src.setHistory(models.CodeDolar, 2024, pt("2024-06-03", 915.86))
	src.setHistory(models.CodeEuro, 2024, pt("2024-06-03", 994.2))
	src.setHistory(models.CodeUF, 2024, pt("2024-06-02", 37570))
	d, _, _ := newTestDashboard(src)
	ctx := context.Background()

	_ = d.ToggleSelection(ctx, models.CodeDolar)
	_ = d.ToggleSelection(ctx, models.CodeEuro)
	_ = d.OpenComparison(ctx)
	rows, ok := d.State().Comparison.Phase.Value()
	if !ok || len(rows) != 1 {
		t.Fatalf("expected 1 row, got %v", rows)
	}

	_ = d.ToggleSelection(ctx, models.CodeUF)
	cmp := d.State().Comparison
	rows, _ = cmp.Phase.Value()
	if len(cmp.Entries) != 3 || len(rows) != 2 {
		t.Fatalf("comparison not refreshed: entries %d rows %d", len(cmp.Entries), len(rows))
	}

	_ = d.ToggleSelection(ctx, models.CodeUF)
	_ = d.ToggleSelection(ctx, models.CodeEuro)
	if d.State().Comparison != nil {
		t.Fatalf("comparison must close below two selected")
	}
}

func TestComparisonEmpty(t *testing.T) {
	d, _, _ := newTestDashboard(newFakeSource())
	ctx := context.Background()
	_ = d.ToggleSelection(ctx, models.CodeIPC)
	_ = d.ToggleSelection(ctx, models.CodeTPM)
	_ = d.OpenComparison(ctx)
	if !d.State().Comparison.Phase.IsEmpty() {
		t.Fatalf("expected empty phase")
	}
}

func TestDetailKeepsLastPointsAscending(t *testing.T) {
	src := newFakeSource()
	var points []models.SeriesPoint
	start := time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)
	for i := 34; i >= 0; i-- { // newest first, like the API
		points = append(points, models.SeriesPoint{Date: models.Date{Time: start.AddDate(0, 0, i)}, Value: float64(i)})
	}
	src.setHistory(models.CodeDolar, 2024, points...)
	d, _, _ := newTestDashboard(src)

	if err := d.OpenDetail(context.Background(), models.CodeDolar, ""); err != nil {
		t.Fatalf("open: %v", err)
	}
	det := d.State().Detail
	data, ok := det.Phase.Value()
	if !ok {
		t.Fatalf("detail not ready: %v", det.Phase.Kind())
	}
	if det.Year != 2024 {
		t.Fatalf("year %d", det.Year)
	}
	series := data.Detail.Series
	if len(series) != 30 {
		t.Fatalf("expected 30 points, got %d", len(series))
	}
	if series[0].Value != 5 || series[29].Value != 34 {
		t.Fatalf("unexpected window %v..%v", series[0].Value, series[29].Value)
	}
	if data.Summary.Points != 30 || data.Summary.Max.String() != "34" {
		t.Fatalf("unexpected summary %+v", data.Summary)
	}
}

func TestDetailEmptyAndErrors(t *testing.T) {
	src := newFakeSource()
	d, _, _ := newTestDashboard(src)
	ctx := context.Background()

	_ = d.OpenDetail(ctx, models.CodeTPM, "TPM")
	if !d.State().Detail.Phase.IsEmpty() {
		t.Fatalf("expected empty phase")
	}

	src.fail[models.CodeTPM] = true
	_ = d.SetDetailYear(ctx, 2023)
	det := d.State().Detail
	if !det.Phase.IsError() || det.Phase.Message() != models.MsgDetailFailed || det.Year != 2023 {
		t.Fatalf("expected error phase for 2023, got %+v", det)
	}

	if err := d.SetDetailYear(ctx, 1800); !errors.Is(err, models.ErrInvalidYear) {
		t.Fatalf("expected invalid year, got %v", err)
	}
	d.CloseDetail()
	if d.State().Detail != nil {
		t.Fatalf("detail must be closed")
	}
	if err := d.SetDetailYear(ctx, 2023); !errors.Is(err, models.ErrViewClosed) {
		t.Fatalf("expected closed view, got %v", err)
	}
}

func TestStaleDetailResponseIsDiscarded(t *testing.T) {
	src := newFakeSource()
	src.setHistory(models.CodeDolar, 2024, pt("2024-06-03", 2024))
	src.setHistory(models.CodeDolar, 2023, pt("2023-06-03", 2023))
	release := src.hold(historyKey(models.CodeDolar, 2024))
	d, _, m := newTestDashboard(src)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.OpenDetail(ctx, models.CodeDolar, "")
	}()
	waitStarted(t, src, historyKey(models.CodeDolar, 2024))

	if err := d.SetDetailYear(ctx, 2023); err != nil {
		t.Fatalf("set year: %v", err)
	}
	close(release)
	<-done

	det := d.State().Detail
	data, ok := det.Phase.Value()
	if !ok || det.Year != 2023 || data.Detail.Series[0].Value != 2023 {
		t.Fatalf("stale response overwrote newer state: %+v", det)
	}
	if m.staleCount("detail") != 1 {
		t.Fatalf("expected one stale detail, got %d", m.staleCount("detail"))
	}
}

func TestStaleComparisonAfterCloseIsDiscarded(t *testing.T) {
	src := newFakeSource()
	src.setHistory(models.CodeDolar, 2024, pt("2024-06-03", 1))
	src.setHistory(models.CodeEuro, 2024, pt("2024-06-03", 2))
	release := src.hold(historyKey(models.CodeEuro, 2024))
	d, _, m := newTestDashboard(src)
	ctx := context.Background()
	_ = d.ToggleSelection(ctx, models.CodeDolar)
	_ = d.ToggleSelection(ctx, models.CodeEuro)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.OpenComparison(ctx)
	}()
	waitStarted(t, src, historyKey(models.CodeEuro, 2024))

	d.CloseComparison()
	close(release)
	<-done

	if d.State().Comparison != nil {
		t.Fatalf("closed comparison was reopened by a late response")
	}
	if m.staleCount("comparison") != 1 {
		t.Fatalf("expected one stale comparison, got %d", m.staleCount("comparison"))
	}
}

func TestStaleComparisonResponseIsDiscarded(t *testing.T) {
	src := newFakeSource()
	src.setHistory(models.CodeDolar, 2024, pt("2024-06-03", 2024))
	src.setHistory(models.CodeEuro, 2024, pt("2024-06-03", 2024))
	src.setHistory(models.CodeDolar, 2023, pt("2023-06-05", 2023))
	src.setHistory(models.CodeEuro, 2023, pt("2023-06-05", 2023))
	release := src.hold(historyKey(models.CodeEuro, 2024))
	d, _, m := newTestDashboard(src)
	ctx := context.Background()
	_ = d.ToggleSelection(ctx, models.CodeDolar)
	_ = d.ToggleSelection(ctx, models.CodeEuro)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.OpenComparison(ctx)
	}()
	waitStarted(t, src, historyKey(models.CodeEuro, 2024))

	if err := d.SetComparisonYear(ctx, 2023); err != nil {
		t.Fatalf("set year: %v", err)
	}
	close(release)
	<-done

	cmp := d.State().Comparison
	if cmp == nil || cmp.Year != 2023 {
		t.Fatalf("expected the 2023 comparison, got %+v", cmp)
	}
	rows, ok := cmp.Phase.Value()
	if !ok || len(rows) != 1 || rows[0].Date.Year() != 2023 {
		t.Fatalf("stale response overwrote newer rows: %+v", cmp.Phase)
	}
	if v, _ := rows[0].Value(models.CodeEuro); v != 2023 {
		t.Fatalf("euro value %v", v)
	}
	if m.staleCount("comparison") != 1 {
		t.Fatalf("expected one stale comparison, got %d", m.staleCount("comparison"))
	}
}

func TestSubscribersSeeTransitions(t *testing.T) {
	src := newFakeSource()
	src.snapshot = testSnapshot()
	d, _, _ := newTestDashboard(src)
	ch, cancel := d.Subscribe()
	defer cancel()

	d.LoadSnapshot(context.Background())

	select {
	case st := <-ch:
		if !st.Snapshot.IsReady() {
			t.Fatalf("expected latest state to be ready, got %v", st.Snapshot.Kind())
		}
	case <-time.After(time.Second):
		t.Fatalf("no state pushed")
	}

	d.Close()
	if _, open := <-ch; open {
		t.Fatalf("channel should be closed after Close")
	}
}

func TestYearOptions(t *testing.T) {
	d, _, _ := newTestDashboard(newFakeSource())
	got := fmt.Sprint(d.State().Years)
	if got != "[2024 2023 2022 2021 2020]" {
		t.Fatalf("years %s", got)
	}
}
