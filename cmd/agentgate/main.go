package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/agentgate/agentgate/internal/adapter/filestore"
	aghttp "github.com/agentgate/agentgate/internal/adapter/http"
	agnats "github.com/agentgate/agentgate/internal/adapter/nats"
	"github.com/agentgate/agentgate/internal/adapter/opa"
	agotel "github.com/agentgate/agentgate/internal/adapter/otel"
	"github.com/agentgate/agentgate/internal/adapter/postgres"
	"github.com/agentgate/agentgate/internal/adapter/ristretto"
	"github.com/agentgate/agentgate/internal/adapter/ruleengine"
	"github.com/agentgate/agentgate/internal/config"
	"github.com/agentgate/agentgate/internal/domain/policy"
	"github.com/agentgate/agentgate/internal/logger"
	"github.com/agentgate/agentgate/internal/port/database"
	"github.com/agentgate/agentgate/internal/port/decisionlog"
	"github.com/agentgate/agentgate/internal/port/messagequeue"
	"github.com/agentgate/agentgate/internal/port/observe"
	"github.com/agentgate/agentgate/internal/port/policyeval"
	"github.com/agentgate/agentgate/internal/resilience"
	"github.com/agentgate/agentgate/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"policy_mode", cfg.Policy.Mode,
		"fail_open", cfg.Policy.FailOpen,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	otelShutdown, err := agotel.Init(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	var monitor observe.Monitor
	monitor, err = agotel.NewMonitor()
	if err != nil {
		slog.Warn("metric instruments unavailable, continuing without", "error", err)
		monitor = observe.Nop{}
	}

	// --- Persistence ---
	var (
		store database.TaskStore
		dlog  decisionlog.Log
	)
	switch cfg.Store.Backend {
	case "postgres":
		pool, poolErr := postgres.NewPool(ctx, cfg.Postgres)
		if poolErr != nil {
			return fmt.Errorf("postgres: %w", poolErr)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("postgres connected, migrations applied")

		store = postgres.NewStore(pool)
		dlog = postgres.NewDecisionLog(pool)
	default:
		fs, fsErr := filestore.Open(cfg.Store.Dir)
		if fsErr != nil {
			return fmt.Errorf("filestore: %w", fsErr)
		}
		defer func() { _ = fs.Close() }()
		slog.Info("filestore opened", "dir", cfg.Store.Dir)

		store = fs
		dlog = fs
	}

	// --- Events (optional) ---
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, natsErr := agnats.Connect(ctx, cfg.NATS.URL)
		if natsErr != nil {
			return fmt.Errorf("nats: %w", natsErr)
		}
		defer func() { _ = q.Close() }()
		queue = q
	}

	// --- Cache ---
	cache, err := ristretto.New(cfg.Cache.MaxSizeMB * 1024 * 1024)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	// --- Policy evaluator ---
	var (
		evaluator policyeval.Evaluator
		engine    *ruleengine.Engine
		brk       *resilience.Breaker
	)
	switch cfg.Policy.Mode {
	case "embedded":
		var custom []policy.Profile
		if cfg.Policy.CustomDir != "" {
			custom, err = policy.LoadFromDirectory(cfg.Policy.CustomDir)
			if err != nil {
				return fmt.Errorf("policy profiles: %w", err)
			}
		}
		engine, err = ruleengine.New(cfg.Policy.DefaultProfile, custom)
		if err != nil {
			return fmt.Errorf("rule engine: %w", err)
		}
		evaluator = engine
		slog.Info("embedded policy engine ready",
			"profile", cfg.Policy.DefaultProfile,
			"custom_profiles", len(custom),
		)
	case "remote":
		client := opa.NewClient(cfg.Policy.RemoteURL, cfg.Policy.RemoteTimeout)
		brk = resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
		client.SetBreaker(brk)
		evaluator = client
		slog.Info("remote policy evaluator configured", "url", cfg.Policy.RemoteURL)
	default:
		slog.Warn("policy checking disabled, all tool calls will be allowed")
	}

	// --- Services ---
	taskSvc := service.NewTaskService(store, queue)
	validatorSvc := service.NewValidatorService(evaluator, dlog, monitor, queue, cfg.Policy.FailOpen)
	decisionSvc := service.NewDecisionService(dlog, cache, cfg.Cache.SummaryTTL)

	// --- HTTP ---
	handlers := &aghttp.Handlers{
		Tasks:     taskSvc,
		Validator: validatorSvc,
		Decisions: decisionSvc,
		Engine:    engine,
	}

	r := chi.NewRouter()
	r.Use(aghttp.RequestID)
	r.Use(aghttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(cfg, brk))
	aghttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(r, "agentgate"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthHandler reports the configured backends. brk is nil unless the
// remote evaluator is active.
func healthHandler(cfg *config.Config, brk *resilience.Breaker) http.HandlerFunc {
	type healthStatus struct {
		Status     string `json:"status"`
		Store      string `json:"store"`
		PolicyMode string `json:"policy_mode"`
		Breaker    string `json:"breaker,omitempty"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:     "ok",
			Store:      cfg.Store.Backend,
			PolicyMode: cfg.Policy.Mode,
		}
		if brk != nil {
			status.Breaker = string(brk.State())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
