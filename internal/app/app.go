package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"GTMEngine/internal/config"
	"GTMEngine/internal/connector"
	"GTMEngine/internal/infrastructure/apollo"
	"GTMEngine/internal/infrastructure/attio"
	"GTMEngine/internal/infrastructure/llm"
	"GTMEngine/internal/infrastructure/parser"
	"GTMEngine/internal/infrastructure/resend"
	"GTMEngine/internal/infrastructure/scheduler"
	"GTMEngine/internal/infrastructure/storage"
	"GTMEngine/internal/logging"
	"GTMEngine/internal/metrics"
	"GTMEngine/internal/ratelimit"
	"GTMEngine/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	registry *prometheus.Registry
	limiter  *ratelimit.Window

	Pipeline    *usecase.Pipeline
	Scheduler   *usecase.Scheduler
	Signals     *usecase.SignalService
	Leads       *usecase.LeadService
	Drafts      *usecase.DraftService
	Outreach    *usecase.OutreachService
	CRM         *usecase.CRMService
	ContextDocs *usecase.ContextDocService
}

// New opens and migrates the database, then builds every service on top of it.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db, cfg.Database.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	store := storage.NewStore(db, cfg.Database.Driver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		metrics.NewStatusCollector(store.Signals.CountByStatus, store.Leads.CountByStatus, logging.Component(baseLogger, "metrics")),
	)
	m := metrics.New(reg)

	connectors := connector.NewRegistry(
		parser.NewRSSConnector(nil),
		parser.NewGitHubConnector(cfg.GitHub, nil),
	)
	feeds := parser.NewConfigFeedSource(connectors, cfg.Feeds, logging.Component(baseLogger, "feeds"))
	chat := llm.NewRouterFromConfig(cfg.LLM, m, logging.Component(baseLogger, "llm"))
	limiter := ratelimit.NewWindow(cfg.Email.RateLimit, cfg.Email.Window, nil)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry: connectors,
		Feeds:    feeds,
		Signals:  store.Signals,
		Metrics:  m,
		Logger:   logging.Component(baseLogger, "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		registry: reg,
		limiter:  limiter,

		Pipeline: pipeline,
		Scheduler: usecase.NewScheduler(
			scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location()),
			pipeline,
			logging.Component(baseLogger, "scheduler"),
		),
		Signals: usecase.NewSignalService(store.Signals, logging.Component(baseLogger, "signals")),
		Leads: usecase.NewLeadService(usecase.LeadDeps{
			Leads:       store.Leads,
			Signals:     store.Signals,
			Drafts:      store.Drafts,
			ContextDocs: store.ContextDocs,
			Enricher:    apollo.NewClient(cfg.Apollo),
			Logger:      logging.Component(baseLogger, "leads"),
		}),
		Drafts: usecase.NewDraftService(usecase.DraftDeps{
			Leads:       store.Leads,
			Signals:     store.Signals,
			Drafts:      store.Drafts,
			ContextDocs: store.ContextDocs,
			Chat:        chat,
			Metrics:     m,
			Logger:      logging.Component(baseLogger, "drafts"),
		}),
		Outreach: usecase.NewOutreachService(usecase.OutreachDeps{
			Leads:       store.Leads,
			Signals:     store.Signals,
			Drafts:      store.Drafts,
			Touchpoints: store.Touchpoints,
			ContextDocs: store.ContextDocs,
			Email:       resend.NewSender(cfg.Email.Resend),
			Limiter:     limiter,
			Chat:        chat,
			From:        cfg.Email.From,
			Metrics:     m,
			Logger:      logging.Component(baseLogger, "outreach"),
		}),
		CRM: usecase.NewCRMService(usecase.CRMDeps{
			Leads:       store.Leads,
			Signals:     store.Signals,
			Drafts:      store.Drafts,
			Touchpoints: store.Touchpoints,
			ContextDocs: store.ContextDocs,
			CRM:         attio.NewClient(cfg.Attio),
			Metrics:     m,
			Logger:      logging.Component(baseLogger, "crm"),
		}),
		ContextDocs: usecase.NewContextDocService(store.ContextDocs),
	}, nil
}

// RateLimit reports the current email send budget.
func (a *Application) RateLimit() ratelimit.Status {
	return a.limiter.Status()
}

// MetricsHandler exposes the application registry in the Prometheus text format.
func (a *Application) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
}

// Run starts scheduled feed ingestion and the metrics endpoint, blocking until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.MetricsHandler())
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("metrics endpoint listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := a.Scheduler.Start(ctx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval, "feeds", len(a.cfg.Feeds))

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("serve metrics: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop failed", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("metrics shutdown failed", "error", err)
	}
	return runErr
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
