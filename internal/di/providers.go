package di

import (
	"fmt"

	"ChiliPulse/internal/domain/repository"
	domsvc "ChiliPulse/internal/domain/service"
	"ChiliPulse/internal/handler/api"
	internalrepo "ChiliPulse/internal/repository"
	"ChiliPulse/internal/service/ratelimit"
	analytics "ChiliPulse/internal/services/analytics"
	"ChiliPulse/internal/usecase"
	"ChiliPulse/pkg/cache"
	"ChiliPulse/pkg/config"
	xhttp "ChiliPulse/pkg/http"
	pkgkafka "ChiliPulse/pkg/kafka"
	applogger "ChiliPulse/pkg/logger"
	"ChiliPulse/pkg/metrics"
	"ChiliPulse/pkg/server"
)

const serviceName = "chilipulse"

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NoopMetrics{}
	}
	return metrics.New()
}

// ProvideSessionStore creates the per-session generation and panel store.
func ProvideSessionStore(cfg *config.Config) (cache.Service, error) {
	s := cfg.Sessions
	if s.Backend == "redis" {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(s.Redis.Host),
			cache.WithRedisPort(s.Redis.Port),
			cache.WithRedisPassword(s.Redis.Password),
			cache.WithRedisDB(s.Redis.DB),
			cache.WithRedisPrefix(s.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		return rc, nil
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(s.MaxItems)), nil
}

// ProvideKafkaProducer creates a Kafka producer when events are enabled and
// routes aggregated error logs through it. Returns nil when disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	ev := cfg.Events
	if !ev.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(ev.Brokers),
		pkgkafka.WithCompression(ev.Compression),
		pkgkafka.WithRequiredAcks(ev.RequiredAcks),
		pkgkafka.WithMaxAttempts(ev.MaxAttempts),
		pkgkafka.WithBatchTimeout(ev.BatchTimeout),
		pkgkafka.WithAsync(ev.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   ev.LogFlush,
		CountThreshold: ev.LogThreshold,
		Topic:          ev.LogTopic,
		Publisher:      producer,
	})
	return producer, nil
}

// ProvideEventPublisher publishes evaluation events, or drops them when events are disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic)
}

// ProvideOutlierService creates the inference service client.
func ProvideOutlierService(cfg *config.Config, m repository.Metrics, l *applogger.Logger) domsvc.OutlierService {
	return analytics.NewHTTPOutlierService(cfg, m, l)
}

// ProvideOutlierView creates the evaluation use case.
func ProvideOutlierView(svc domsvc.OutlierService, m repository.Metrics, l *applogger.Logger) *usecase.OutlierView {
	return usecase.NewOutlierView(svc, m, l)
}

// ProvideDashboard creates the session controller.
func ProvideDashboard(
	view *usecase.OutlierView,
	store cache.Service,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Dashboard {
	return usecase.NewDashboard(view, store, events, m, l, cfg.Sessions.TTL)
}

// ProvideRateLimiter creates the per-client evaluation limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(l *applogger.Logger, dash *usecase.Dashboard, rl *ratelimit.Limiter) xhttp.Handler {
	return api.NewOutlierEchoHandler(l, dash, rl)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	store cache.Service,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, handler, store, producer)
}
