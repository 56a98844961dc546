package handlertest

import (
	"testing"
	"time"

	drepo "Indicadores/internal/domain/repository"
	"Indicadores/internal/repository"
	"Indicadores/internal/service/mindicador"
	"Indicadores/internal/usecase"
	"Indicadores/pkg/cache"
	xhttp "Indicadores/pkg/http"
)

// Now is the fixed clock of handler tests, so the current year is 2024.
var Now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// Client returns a mindicador client talking to u.
func Client(u *Upstream) *mindicador.Client {
	return mindicador.New(u.BaseURL(), xhttp.NewClient(xhttp.WithTimeout(2*time.Second)), nil, nil)
}

// Registry builds a session registry over source with an in-memory session store.
func Registry(t testing.TB, source drepo.IndicatorSource) *usecase.SessionRegistry {
	t.Helper()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	store := repository.NewSessionStore(mem, time.Hour)
	return usecase.NewSessionRegistry(usecase.RegistryConfig{
		TTL: time.Hour,
		Dashboard: usecase.DashboardConfig{
			Location: time.UTC,
			Now:      func() time.Time { return Now },
		},
	}, source, store, nil, nil)
}
