package repository

import (
	"context"
	"time"

	"Indicadores/internal/domain/models"
)

// IndicatorSource reads indicators from the upstream API.
type IndicatorSource interface {
	FetchSnapshot(ctx context.Context) (models.Snapshot, error)
	// FetchHistory returns the series of code for year, or the full series when year is 0.
	FetchHistory(ctx context.Context, code models.IndicatorCode, year int) (models.IndicatorDetail, error)
	FetchByDate(ctx context.Context, code models.IndicatorCode, day time.Time) (models.IndicatorDetail, error)
}

// SessionStore persists per-session data that outlives process-local state.
type SessionStore interface {
	// LoadSelection returns an empty selection when nothing is stored.
	LoadSelection(ctx context.Context, sessionID string) (models.Selection, error)
	SaveSelection(ctx context.Context, sessionID string, sel models.Selection) error
	Touch(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}

type Metrics interface {
	RecordUpstream(endpoint, outcome string, seconds float64)
	RecordStale(view string)
	RecordError(kind string)
	RecordAction(action string)
	SetActiveSessions(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordUpstream(string, string, float64) {}
func (NopMetrics) RecordStale(string)                     {}
func (NopMetrics) RecordError(string)                     {}
func (NopMetrics) RecordAction(string)                    {}
func (NopMetrics) SetActiveSessions(int)                  {}
