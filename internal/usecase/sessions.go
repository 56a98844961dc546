package usecase

import (
	"context"
	"sync"
	"time"

	"Indicadores/internal/domain/models"
	drepo "Indicadores/internal/domain/repository"
	xlogger "Indicadores/pkg/logger"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "indicadores_sid"

// RegistryConfig configures SessionRegistry.
type RegistryConfig struct {
	TTL        time.Duration
	SweepEvery time.Duration
	Dashboard  DashboardConfig
}

// SessionRegistry keeps the live dashboards keyed by session id and evicts idle ones.
// An evicted or unknown but well-formed id is rebuilt from the session store.
type SessionRegistry struct {
	cfg     RegistryConfig
	source  drepo.IndicatorSource
	store   drepo.SessionStore
	metrics drepo.Metrics
	logger  *xlogger.Logger

	mu       sync.Mutex
	sessions map[string]*Dashboard

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSessionRegistry(cfg RegistryConfig, source drepo.IndicatorSource, store drepo.SessionStore, metrics drepo.Metrics, logger *xlogger.Logger) *SessionRegistry {
	cfg.Dashboard = cfg.Dashboard.withDefaults()
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = time.Minute
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SessionRegistry{
		cfg:      cfg,
		source:   source,
		store:    store,
		metrics:  metrics,
		logger:   logger.With(xlogger.String("component", "sessions")),
		sessions: make(map[string]*Dashboard),
		stop:     make(chan struct{}),
	}
}

// Get returns the dashboard of id, creating it when needed. The returned id differs from
// the argument when the argument was not a valid session id.
func (r *SessionRegistry) Get(ctx context.Context, id string) (*Dashboard, string) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	now := r.cfg.Dashboard.Now()

	r.mu.Lock()
	d, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		d.touch(now)
		r.touchStore(ctx, id)
		return d, id
	}

	sel := r.restoreSelection(ctx, id)
	created := NewDashboard(id, r.cfg.Dashboard, r.source, r.store, r.metrics, r.logger, sel)

	r.mu.Lock()
	if d, ok = r.sessions[id]; !ok {
		d = created
		r.sessions[id] = d
	}
	n := len(r.sessions)
	r.mu.Unlock()

	d.touch(now)
	r.metrics.SetActiveSessions(n)
	return d, id
}

// Lookup returns a live dashboard without creating one.
func (r *SessionRegistry) Lookup(id string) (*Dashboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.sessions[id]
	return d, ok
}

func (r *SessionRegistry) restoreSelection(ctx context.Context, id string) models.Selection {
	if r.store == nil {
		return models.Selection{}
	}
	sel, err := r.store.LoadSelection(ctx, id)
	if err != nil {
		r.logger.Warn("restore selection failed", xlogger.String("session", id), xlogger.Error(err))
		return models.Selection{}
	}
	return sel
}

func (r *SessionRegistry) touchStore(ctx context.Context, id string) {
	if r.store == nil {
		return
	}
	if err := r.store.Touch(ctx, id); err != nil {
		r.logger.Debug("touch session failed", xlogger.String("session", id), xlogger.Error(err))
	}
}

// Len returns the number of live dashboards.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts dashboards idle for longer than the TTL and returns how many were removed.
// A dashboard with a live subscriber is never evicted. The stored selection is left to
// expire on its own.
func (r *SessionRegistry) Sweep() int {
	cutoff := r.cfg.Dashboard.Now().Add(-r.cfg.TTL)

	var evicted []*Dashboard
	r.mu.Lock()
	for id, d := range r.sessions {
		if d.idleSince().Before(cutoff) && !d.hasSubscribers() {
			delete(r.sessions, id)
			evicted = append(evicted, d)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, d := range evicted {
		d.Close()
	}
	if len(evicted) > 0 {
		r.logger.Debug("evicted idle sessions", xlogger.Int("count", len(evicted)), xlogger.Int("live", n))
	}
	r.metrics.SetActiveSessions(n)
	return len(evicted)
}

// Start runs the sweeper until Stop is called.
func (r *SessionRegistry) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cfg.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop ends the sweeper and closes every dashboard.
func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Dashboard)
	r.mu.Unlock()
	for _, d := range sessions {
		d.Close()
	}
}
