// Command onboardforge runs the business account onboarding service.
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
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/OnboardForge/internal/adapter/cel"
	cfhttp "github.com/Strob0t/OnboardForge/internal/adapter/http"
	"github.com/Strob0t/OnboardForge/internal/adapter/litellm"
	cfmcp "github.com/Strob0t/OnboardForge/internal/adapter/mcp"
	cfnats "github.com/Strob0t/OnboardForge/internal/adapter/nats"
	cfotel "github.com/Strob0t/OnboardForge/internal/adapter/otel"
	cfristretto "github.com/Strob0t/OnboardForge/internal/adapter/ristretto"
	"github.com/Strob0t/OnboardForge/internal/adapter/ws"
	"github.com/Strob0t/OnboardForge/internal/config"
	"github.com/Strob0t/OnboardForge/internal/domain/communication"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/logger"
	"github.com/Strob0t/OnboardForge/internal/middleware"
	"github.com/Strob0t/OnboardForge/internal/port/cache"
	"github.com/Strob0t/OnboardForge/internal/port/explainer"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
	"github.com/Strob0t/OnboardForge/internal/port/notifier"
	"github.com/Strob0t/OnboardForge/internal/resilience"
	"github.com/Strob0t/OnboardForge/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// idempotencyCacheMB sizes the process-local idempotency cache used when no
// shared cache is configured.
const idempotencyCacheMB = 16

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		err = runMigrate(ctx, os.Args[2:])
	} else {
		err = run(ctx, os.Args[1:])
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"store", cfg.Store.Driver,
		"nats", cfg.NATS.Enabled,
		"explainer", cfg.Explainer.Enabled,
	)

	// --- Observability ---

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	var (
		natsQueue *cfnats.Queue
		queue     messagequeue.Queue
	)
	if cfg.NATS.Enabled {
		natsQueue, err = cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := natsQueue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
		queue = natsQueue
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	stores, err := openBackends(ctx, cfg, natsQueue)
	if err != nil {
		return err
	}
	defer stores.Close()

	// --- Decision engine ---

	var extra []decision.Rule
	if cfg.Decision.RulesFile != "" {
		extra, err = cel.LoadFile(cfg.Decision.RulesFile)
		if err != nil {
			return fmt.Errorf("decision rules: %w", err)
		}
		slog.Info("extra decision rules loaded", "file", cfg.Decision.RulesFile, "count", len(extra))
	}
	engine, err := decision.NewEngine(cfg.Decision.Thresholds(), extra...)
	if err != nil {
		return fmt.Errorf("decision engine: %w", err)
	}

	comms, err := communication.NewGenerator(communication.Bank{
		Name:         cfg.Communication.BankName,
		SupportEmail: cfg.Communication.SupportEmail,
	})
	if err != nil {
		return fmt.Errorf("communication templates: %w", err)
	}

	// --- Explainer ---

	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	breaker.OnStateChange(func(from, to string) {
		slog.Warn("explainer circuit breaker", "from", from, "to", to)
	})
	var gen explainer.Explainer
	if cfg.Explainer.Enabled {
		gen = litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey, litellm.Options{
			Model:       cfg.LiteLLM.Model,
			MaxTokens:   cfg.Explainer.MaxTokens,
			Temperature: cfg.Explainer.Temperature,
		})
	}
	explain := service.NewExplainService(gen, breaker, cfg.Explainer)
	explain.SetMetrics(metrics)

	// --- Services ---

	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()

	onboardingSvc := service.NewOnboardingService(stores.cases, engine, explain, comms, queue, hub, stores.events)
	onboardingSvc.SetMetrics(metrics)
	reviewSvc := service.NewReviewService(stores.cases, comms, queue, hub, stores.events)
	reviewSvc.SetMetrics(metrics)

	alerts, err := reviewAlerter(cfg.Alerts)
	if err != nil {
		return err
	}
	if alerts != nil {
		defer alerts.Wait()
		onboardingSvc.SetAlerts(alerts)
		reviewSvc.SetAlerts(alerts)
	}

	if natsQueue != nil && cfg.NATS.AutoProcess {
		cancels, err := onboardingSvc.StartSubscribers(ctx, natsQueue)
		if err != nil {
			return fmt.Errorf("subscribers: %w", err)
		}
		defer func() {
			for _, cancel := range cancels {
				cancel()
			}
		}()
		slog.Info("auto-processing submitted applications")
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(cfhttp.Logger)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))

	r.Get("/health", healthHandler(cfg, natsQueue, breaker, hub))
	r.Get("/ws", hub.HandleWS)

	if cfg.MCP.Enabled {
		mcpServer := cfmcp.NewServer(cfmcp.ServerConfig{Name: "onboardforge", Version: version}, cfmcp.ServerDeps{
			Pipeline: onboardingSvc,
			Reviews:  reviewSvc,
		})
		r.With(limiter.Handler).Handle("/mcp", mcpServer.Handler())
		slog.Info("mcp server mounted", "path", "/mcp")
	}

	idemCache, err := idempotencyCache(cfg, stores)
	if err != nil {
		return err
	}
	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		if idemCache != nil {
			r.Use(middleware.Idempotency(idemCache, cfg.Idempotency.TTL))
		}
		cfhttp.MountRoutes(r, &cfhttp.Handlers{
			Onboarding: onboardingSvc,
			Reviews:    reviewSvc,
			Version:    version,
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// idempotencyCache prefers the shared cache so retries are deduplicated
// across replicas.
func idempotencyCache(cfg *config.Config, stores *backends) (cache.Cache, error) {
	if !cfg.Idempotency.Enabled {
		return nil, nil
	}
	if stores.shared != nil {
		return stores.shared, nil
	}
	c, err := cfristretto.New(idempotencyCacheMB)
	if err != nil {
		return nil, fmt.Errorf("idempotency cache: %w", err)
	}
	stores.closers = append(stores.closers, c.Close)
	return c, nil
}

// reviewAlerter builds the reviewer alerter from the configured webhook
// targets. It returns nil when alerts are disabled.
func reviewAlerter(cfg config.Alerts) (*service.ReviewAlerter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	notifiers, err := notifier.FromTargets(cfg.Targets)
	if err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}
	names := make([]string, len(notifiers))
	for i, n := range notifiers {
		names[i] = n.Name()
	}
	slog.Info("reviewer alerts enabled", "providers", names, "max_in_flight", cfg.MaxInFlight)
	pool := resilience.NewPool(cfg.MaxInFlight)
	return service.NewReviewAlerter(notifiers, pool, cfg.Timeout, cfg.DashboardURL), nil
}

type healthStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Store       string `json:"store"`
	NATS        string `json:"nats"`
	Explainer   string `json:"explainer"`
	WSListeners int    `json:"ws_listeners"`
}

// healthHandler reports liveness plus the state of optional dependencies.
// A disconnected queue degrades the status but still answers 200.
func healthHandler(cfg *config.Config, queue *cfnats.Queue, breaker *resilience.Breaker, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:      "ok",
			Version:     version,
			Store:       cfg.Store.Driver,
			NATS:        "disabled",
			Explainer:   "disabled",
			WSListeners: hub.ConnectionCount(),
		}
		if queue != nil {
			status.NATS = "connected"
			if !queue.IsConnected() {
				status.NATS = "disconnected"
				status.Status = "degraded"
			}
		}
		if cfg.Explainer.Enabled {
			status.Explainer = "breaker " + breaker.State()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
