// Package app wires together every collaborator the orchestrator needs —
// config, logging, tracing, Postgres, the upstream HTTP engines, the
// Temporal client/worker, and the Gin façade — the way the teacher's
// internal/app package wires its own service, generalized from a single
// monolithic handler set to the plan pipeline's six-stage activity bundle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	navhttp "github.com/takahashiJe/navpack-orchestrator/internal/http"
	"github.com/takahashiJe/navpack-orchestrator/internal/http/handlers"
	"github.com/takahashiJe/navpack-orchestrator/internal/data/db"
	"github.com/takahashiJe/navpack-orchestrator/internal/data/repos/jobrepo"
	"github.com/takahashiJe/navpack-orchestrator/internal/observability"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
	"github.com/takahashiJe/navpack-orchestrator/internal/platform/config"
	"github.com/takahashiJe/navpack-orchestrator/internal/temporalx"
	"github.com/takahashiJe/navpack-orchestrator/internal/workflow"
)

// App bundles every long-lived dependency built once at process startup.
// cmd/main.go decides, based on RUN_SERVER/RUN_WORKER, which of Start's
// two halves (HTTP server, Temporal worker) actually run.
type App struct {
	Log    *logger.Logger
	Cfg    config.Config
	Router *gin.Engine

	pg           *db.PostgresService
	temporal     interface {
		Close()
	}
	workerRunner *workflow.Runner
	otelShutdown func(context.Context) error

	httpServer *http.Server
	closeOnce  sync.Once
}

func New() (*App, error) {
	log, err := logger.New(envOr("LOG_MODE", "production"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := config.Load(log)

	shutdown := observability.Init(context.Background(), log, observability.Config{
		ServiceName: "navpack-orchestrator",
		Environment: envOr("APP_ENV", "development"),
		Version:     envOr("APP_VERSION", "dev"),
		Endpoint:    cfg.OTelExporterEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})

	pg, err := db.NewPostgresService(log, cfg)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("migrate job_run table: %w", err)
	}

	clients, err := wireClients(log, pg.DB(), cfg)
	if err != nil {
		return nil, fmt.Errorf("wire outbound clients: %w", err)
	}
	core := wireCore(log, clients, cfg)

	jobs := jobrepo.New(pg.DB(), log)

	acts := &workflow.Activities{
		Jobs:          jobs,
		Spots:         clients.Spots,
		Route:         core.RouteBuilder,
		Corridor:      core.CorridorFinder,
		Narrate:       core.NarratePlanner,
		Audio:         core.AudioDispatcher,
		Store:         clients.PackStore,
		SynthFormat:   cfg.VoiceFormat,
		SynthBitrate:  cfg.VoiceBitrateKbps,
		SynthSaveText: cfg.VoiceSaveText,
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("init temporal client: %w", err)
	}

	var runner *workflow.Runner
	var starter handlers.WorkflowStarter
	if tc != nil {
		runner, err = workflow.NewRunner(log, tc, acts, &cfg)
		if err != nil {
			return nil, fmt.Errorf("init temporal worker runner: %w", err)
		}
		starter = workflow.NewStarter(tc, cfg.TemporalTaskQueue)
	} else {
		log.Warn("temporal client unavailable; plan submission will fail until TEMPORAL_ADDRESS is configured")
		starter = workflow.NewStarter(nil, cfg.TemporalTaskQueue)
	}

	planHandler := handlers.NewPlanHandler(log, jobs, starter)
	healthHandler := handlers.NewHealthHandler()

	router := navhttp.NewRouter(navhttp.RouterConfig{
		Log:           log,
		HealthHandler: healthHandler,
		PlanHandler:   planHandler,
	})

	a := &App{
		Log:          log,
		Cfg:          cfg,
		Router:       router,
		pg:           pg,
		workerRunner: runner,
		otelShutdown: shutdown,
	}
	if tc != nil {
		a.temporal = tc
	}
	return a, nil
}

// Start launches the requested halves of the service. Both can run in the
// same process (matching the teacher's single-binary RUN_SERVER+RUN_WORKER
// pattern) or be split across separate deployments by toggling the two env
// vars independently; cmd/main.go defaults to the HTTP server only
// (RUN_SERVER=true, RUN_WORKER=false).
func (a *App) Start(ctx context.Context, runServer, runWorker bool) error {
	if runWorker {
		if a.workerRunner == nil {
			return fmt.Errorf("RUN_WORKER=true but Temporal is not configured (set TEMPORAL_ADDRESS)")
		}
		if err := a.workerRunner.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	if runServer {
		a.httpServer = &http.Server{
			Addr:              a.Cfg.HTTPAddress,
			Handler:           a.Router,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return nil
}

// Run blocks serving HTTP until the server stops or errors. Only valid
// after Start was called with runServer=true.
func (a *App) Run() error {
	if a.httpServer == nil {
		return fmt.Errorf("http server not started")
	}
	a.Log.Info("http server listening", "address", a.Cfg.HTTPAddress)
	err := a.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.httpServer.Shutdown(ctx)
		}
		if a.temporal != nil {
			a.temporal.Close()
		}
		if a.otelShutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.otelShutdown(ctx)
		}
		a.Log.Sync()
	})
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
