package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"exclusioncheck/internal/jwt_token"
	"exclusioncheck/internal/platform/config"
	"exclusioncheck/internal/platform/httpserver"
	"exclusioncheck/internal/platform/logger"
	platformmetrics "exclusioncheck/internal/platform/metrics"
	platformredis "exclusioncheck/internal/platform/redis"
	"exclusioncheck/internal/screening/engine"
	"exclusioncheck/internal/screening/exportguard"
	"exclusioncheck/internal/screening/handler"
	screeningmetrics "exclusioncheck/internal/screening/metrics"
	"exclusioncheck/internal/screening/providers"
	"exclusioncheck/pkg/platform/audit"
	"exclusioncheck/pkg/platform/audit/publisher"
	kafkastore "exclusioncheck/pkg/platform/audit/store/kafka"
	logstore "exclusioncheck/pkg/platform/audit/store/logger"
	"exclusioncheck/pkg/platform/circuit"
	"exclusioncheck/pkg/platform/httputil"
	"exclusioncheck/pkg/platform/middleware/auth"
	"exclusioncheck/pkg/platform/middleware/metadata"
	"exclusioncheck/pkg/platform/middleware/requestid"
	"exclusioncheck/pkg/platform/middleware/requesttime"
)

const (
	jwtIssuer         = "exclusion-check"
	auditBufferSize   = 1024
	healthTimeout     = 2 * time.Second
	dependencyTimeout = 10 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/screening.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := platformmetrics.New(reg)
	screenMetrics := screeningmetrics.New(reg)

	var checks []healthCheck

	auditStore, closeAudit, err := buildAuditStore(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	if pinger, ok := auditStore.(*kafkastore.Store); ok {
		checks = append(checks, healthCheck{name: "kafka", check: pinger.Ping})
	}
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	defer auditor.Close()

	strategy, err := buildStrategy(cfg, log, screenMetrics)
	if err != nil {
		return err
	}
	log.Info("screening strategy selected", "strategy", strategy.Name())

	checkEngine, err := engine.New(
		engine.WithStrategy(strategy),
		engine.WithAuditor(auditor),
		engine.WithLogger(log),
		engine.WithMetrics(screenMetrics),
	)
	if err != nil {
		return fmt.Errorf("build check engine: %w", err)
	}

	guard, redisClient, err := buildExportGuard(ctx, cfg, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		checks = append(checks, healthCheck{name: "redis", check: redisClient.Health})
	}

	screening := handler.New(checkEngine, guard, log,
		handler.WithMetrics(screenMetrics),
		handler.WithAuditor(auditor),
		handler.WithMaxBatchSize(cfg.Export.MaxBatchSize),
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		if requireAuth := apiAuth(cfg.Auth, log); requireAuth != nil {
			r.Use(requireAuth)
		} else {
			log.Warn("api authentication disabled: no signing key configured")
		}
		screening.Register(r)
	})

	srv := httpserver.New(cfg.Server.Addr, r, cfg.Server.ReadHeaderTimeout)
	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}

// apiAuth returns the bearer-token middleware, or nil when no signing key is configured.
func apiAuth(cfg config.AuthConfig, log *slog.Logger) func(http.Handler) http.Handler {
	if cfg.JWTSigningKey == "" {
		return nil
	}
	return auth.RequireAuth(jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer), log)
}

func buildAuditStore(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Info("audit events will be logged", "sink", "log")
		return logstore.New(log), func() {}, nil
	}

	store, err := kafkastore.New(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, fmt.Errorf("build kafka audit store: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("kafka ping: %w", err)
	}
	log.Info("audit events will be published", "sink", "kafka", "topic", cfg.Topic)
	return store, store.Close, nil
}

func buildStrategy(cfg config.Config, log *slog.Logger, m *screeningmetrics.Metrics) (engine.Strategy, error) {
	if cfg.Screening.UseMockData {
		return engine.NewMockStrategy(), nil
	}

	policy, err := providers.ParseMissingStatusPolicy(cfg.Screening.MissingStatus)
	if err != nil {
		return nil, err
	}
	client, err := providers.NewClient(cfg.Screening.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("build registry client: %w", err)
	}

	creds := cfg.Credentials
	all := []providers.Provider{
		providers.NewOIG(client, creds.OIG),
		providers.NewSAM(client, creds.SAM),
		providers.NewNSOPW(client, creds.NSOPW),
		providers.NewMedical(client, creds.FSMB),
	}

	checkers := make([]engine.Checker, 0, len(all))
	for _, p := range all {
		breaker := circuit.New(string(p.ID()),
			circuit.WithFailureThreshold(cfg.Screening.BreakerFailureThreshold),
			circuit.WithSuccessThreshold(cfg.Screening.BreakerSuccessThreshold),
			circuit.WithCooldown(cfg.Screening.BreakerCooldown),
		)
		adapter, err := providers.NewAdapter(p,
			providers.WithTimeout(cfg.Screening.AdapterTimeout),
			providers.WithRateLimit(cfg.Screening.RateLimitPerSecond, cfg.Screening.RateLimitBurst),
			providers.WithBreaker(breaker),
			providers.WithMissingStatusPolicy(policy),
			providers.WithLogger(log),
			providers.WithMetrics(m),
		)
		if err != nil {
			return nil, fmt.Errorf("build %s adapter: %w", p.ID(), err)
		}
		checkers = append(checkers, adapter)
	}
	live, err := engine.NewLiveStrategy(checkers...)
	if err != nil {
		return nil, fmt.Errorf("build live strategy: %w", err)
	}
	return live, nil
}

func buildExportGuard(ctx context.Context, cfg config.Config, log *slog.Logger) (exportguard.Guard, *platformredis.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()
	client, err := platformredis.New(dialCtx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		log.Info("export guard is process-local", "guard", "memory")
		return exportguard.NewMemory(exportguard.WithMemoryTTL(cfg.Export.GuardTTL)), nil, nil
	}

	guard, err := exportguard.NewRedis(client.Client, exportguard.WithRedisTTL(cfg.Export.GuardTTL))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	log.Info("export guard is shared", "guard", "redis")
	return guard, client, nil
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		var failed error
		for _, c := range checks {
			if resp.Dependencies == nil {
				resp.Dependencies = make(map[string]string, len(checks))
			}
			if err := c.check(ctx); err != nil {
				resp.Dependencies[c.name] = "unavailable"
				failed = errors.Join(failed, err)
				continue
			}
			resp.Dependencies[c.name] = "ok"
		}

		status := http.StatusOK
		if failed != nil {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
