package di

import (
	"fmt"

	drepo "Indicadores/internal/domain/repository"
	"Indicadores/internal/handler/api"
	"Indicadores/internal/handler/web"
	"Indicadores/internal/handler/ws"
	"Indicadores/internal/render"
	"Indicadores/internal/repository"
	"Indicadores/internal/service/mindicador"
	"Indicadores/internal/service/ratelimit"
	"Indicadores/internal/usecase"
	"Indicadores/pkg/cache"
	"Indicadores/pkg/config"
	xhttp "Indicadores/pkg/http"
	pkgkafka "Indicadores/pkg/kafka"
	xlogger "Indicadores/pkg/logger"
	"Indicadores/pkg/metrics"
	"Indicadores/pkg/server"
)

// ProvideLogger creates the application logger. With log.collector enabled, error logs are
// aggregated and shipped to Kafka; the cleanup flushes them and closes the producer.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, func(), error) {
	l, err := xlogger.New(&xlogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if !cfg.Log.Collector.Enabled {
		return l, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.AddCollector(&xlogger.CollectionConfig{
		TimeInterval:   cfg.Log.Collector.Interval,
		CountThreshold: cfg.Log.Collector.Threshold,
		Topic:          cfg.Log.Collector.Topic,
		Publisher:      producer,
	})
	l.Info("log collector enabled", xlogger.Strings("brokers", cfg.Kafka.Brokers), xlogger.String("topic", cfg.Log.Collector.Topic))

	cleanup := func() {
		l.RemoveCollector()
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", xlogger.Error(err))
		}
	}
	return l, cleanup, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideHTTPClient creates the upstream HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Upstream.Timeout),
		xhttp.WithUserAgent(cfg.Upstream.UserAgent),
	)
}

// ProvideIndicatorSource creates the mindicador.cl client.
func ProvideIndicatorSource(cfg *config.Config, client *xhttp.Client, l *xlogger.Logger, m drepo.Metrics) drepo.IndicatorSource {
	return mindicador.New(cfg.Upstream.BaseURL, client, l, m)
}

// ProvideCache creates the session cache selected by session.backend.
func ProvideCache(cfg *config.Config, l *xlogger.Logger) (cache.Service, func(), error) {
	var svc cache.Service
	switch cfg.Session.Backend {
	case "memory":
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Session.MaxSize))
	case "redis", "layered":
		r, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Session.Redis.Host),
			cache.WithRedisPort(cfg.Session.Redis.Port),
			cache.WithRedisPassword(cfg.Session.Redis.Password),
			cache.WithRedisDB(cfg.Session.Redis.DB),
			cache.WithRedisPrefix(cfg.Session.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = r
		if cfg.Session.Backend == "layered" {
			svc = cache.NewLayeredCache(r, cache.WithLayeredMemorySize(cfg.Session.MaxSize))
		}
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	l.Info("session cache ready", xlogger.String("backend", cfg.Session.Backend))

	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("session cache close error", xlogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideSessionStore persists selections in the session cache.
func ProvideSessionStore(c cache.Service, cfg *config.Config) drepo.SessionStore {
	return repository.NewSessionStore(c, cfg.Dashboard.SessionTTL)
}

// ProvideRegistry creates the session registry.
func ProvideRegistry(cfg *config.Config, source drepo.IndicatorSource, store drepo.SessionStore, m drepo.Metrics, l *xlogger.Logger) *usecase.SessionRegistry {
	return usecase.NewSessionRegistry(usecase.RegistryConfig{
		TTL:        cfg.Dashboard.SessionTTL,
		SweepEvery: cfg.Dashboard.SweepEvery,
		Dashboard: usecase.DashboardConfig{
			YearOptions:  cfg.Dashboard.YearOptions,
			DetailPoints: cfg.Dashboard.DetailPoints,
			Location:     cfg.Location(),
		},
	}, source, store, m, l)
}

// ProvideLimiter returns the per-client limiter, or nil when rate limiting is disabled.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvidePageBuilder creates the HTML view builder.
func ProvidePageBuilder(cfg *config.Config) *render.PageBuilder {
	return render.NewPageBuilder(
		render.NewFormatter(cfg.Location()),
		render.ChartSize{Width: cfg.Dashboard.ChartWidth, Height: cfg.Dashboard.ChartHeight},
	)
}

// ProvideHandlers collects every route group.
func ProvideHandlers(cfg *config.Config, l *xlogger.Logger, source drepo.IndicatorSource, m drepo.Metrics, reg *usecase.SessionRegistry, pages *render.PageBuilder, rl *ratelimit.Limiter) xhttp.Handler {
	ttl := cfg.Dashboard.SessionTTL
	return xhttp.Handlers{
		web.NewDashboardHandler(l, reg, pages, ttl, rl),
		api.NewIndicatorsHandler(l, source, m, rl),
		api.NewSessionHandler(reg, ttl),
		ws.NewSessionHandler(l, reg, ttl, cfg.Websocket.PingInterval),
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *xlogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp assembles the application.
func ProvideApp(cfg *config.Config, l *xlogger.Logger, srv *xhttp.Server, reg *usecase.SessionRegistry, rl *ratelimit.Limiter) *server.App {
	return server.New(cfg, l, srv, reg, rl)
}
