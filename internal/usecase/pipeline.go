package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"GTMEngine/internal/connector"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/metrics"
	"GTMEngine/internal/ports"
)

// PipelineDeps wires the connectors and the signal store into ingestion.
type PipelineDeps struct {
	Registry *connector.Registry
	Feeds    ports.FeedSource
	Signals  ports.SignalRepository
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Pipeline implements the signal-ingestion workflow.
type Pipeline struct {
	registry *connector.Registry
	feeds    ports.FeedSource
	signals  ports.SignalRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// IngestReport summarizes one connector run.
type IngestReport struct {
	Connector string
	Input     string
	Meta      domain.ConnectorMeta
	Created   []domain.Signal
	Skipped   int
}

// NewPipeline constructs the ingestion component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		registry: deps.Registry,
		feeds:    deps.Feeds,
		signals:  deps.Signals,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Ingest runs one connector and stores every signal whose source is not yet known.
func (p *Pipeline) Ingest(ctx context.Context, connectorName, input string) (IngestReport, error) {
	report := IngestReport{Connector: connectorName, Input: input}
	if p.registry == nil || p.signals == nil {
		return report, errors.New("pipeline misconfigured")
	}

	conn, err := p.registry.Resolve(connectorName)
	if err != nil {
		return report, err
	}

	result, err := conn.Ingest(ctx, input)
	if err != nil {
		return report, fmt.Errorf("ingest %s: %w", connectorName, err)
	}
	report.Meta = result.Meta

	sources := make([]string, 0, len(result.Signals))
	for _, s := range result.Signals {
		sources = append(sources, s.Source)
	}

	skip := map[string]bool{}
	if len(sources) > 0 {
		skip, err = p.signals.ExistingSources(ctx, sources)
		if err != nil {
			return report, fmt.Errorf("load existing sources: %w", err)
		}
	}

	for _, signal := range result.Signals {
		if skip[signal.Source] {
			report.Skipped++
			continue
		}

		signal.Excerpt = domain.TruncateExcerpt(signal.Excerpt)
		if signal.Status == "" {
			signal.Status = domain.SignalPending
		}

		created, err := p.signals.Create(ctx, signal)
		if err != nil {
			return report, fmt.Errorf("persist signal %s: %w", signal.Source, err)
		}
		skip[signal.Source] = true
		report.Created = append(report.Created, created)
	}

	p.metrics.SignalsIngested(connectorName, len(report.Created))
	p.metrics.SignalsSkipped(connectorName, report.Skipped)
	p.debug("ingestion finished", "connector", connectorName, "input", input,
		"fetched", result.Meta.ItemCount, "created", len(report.Created), "skipped", report.Skipped)

	return report, nil
}

// IngestFeeds runs every configured feed. A failing feed is logged and does not stop the others.
func (p *Pipeline) IngestFeeds(ctx context.Context) ([]IngestReport, error) {
	if p.feeds == nil {
		return nil, nil
	}

	feeds, err := p.feeds.Feeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}

	var (
		reports []IngestReport
		errs    []error
	)
	for _, feed := range feeds {
		report, err := p.Ingest(ctx, feed.Connector, feed.Input)
		if err != nil {
			p.warn("feed ingestion failed", "feed", feed.Name, "error", err)
			errs = append(errs, fmt.Errorf("feed %s: %w", feed.Name, err))
			continue
		}
		reports = append(reports, report)
	}

	return reports, errors.Join(errs...)
}

type demoSignal struct {
	source     string
	excerpt    string
	status     domain.SignalStatus
	capturedAt time.Time
}

var demoSignals = []demoSignal{
	{
		source:     "https://twitter.com/example/status/123",
		excerpt:    "Just launched our new API platform! Looking for developers to integrate. #devtools #api",
		status:     domain.SignalPending,
		capturedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	},
	{
		source:     "https://news.ycombinator.com/item?id=456",
		excerpt:    "Show HN: We built an open-source alternative to Segment - We're a small team looking for feedback on our data pipeline tool.",
		status:     domain.SignalPending,
		capturedAt: time.Date(2026, 1, 14, 15, 30, 0, 0, time.UTC),
	},
	{
		source:     "https://linkedin.com/posts/example-789",
		excerpt:    "Excited to announce I'm joining Acme Corp as VP of Engineering! Looking forward to building out the platform team.",
		status:     domain.SignalReviewed,
		capturedAt: time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC),
	},
	{
		source:     "https://blog.example.com/scaling-our-infrastructure",
		excerpt:    "How we scaled from 100 to 10,000 requests per second - lessons learned and tools we evaluated.",
		status:     domain.SignalPending,
		capturedAt: time.Date(2026, 1, 12, 14, 0, 0, 0, time.UTC),
	},
	{
		source:     "https://github.com/example/repo/issues/42",
		excerpt:    "Feature request: We need better integration with CI/CD pipelines. Currently evaluating alternatives.",
		status:     domain.SignalConverted,
		capturedAt: time.Date(2026, 1, 11, 11, 0, 0, 0, time.UTC),
	},
}

// Seed stores the demo signals that are not present yet.
func (p *Pipeline) Seed(ctx context.Context) ([]domain.Signal, error) {
	if p.signals == nil {
		return nil, errors.New("pipeline misconfigured")
	}

	sources := make([]string, 0, len(demoSignals))
	for _, d := range demoSignals {
		sources = append(sources, d.source)
	}
	existing, err := p.signals.ExistingSources(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("load existing sources: %w", err)
	}

	var created []domain.Signal
	for _, d := range demoSignals {
		if existing[d.source] {
			continue
		}
		signal, err := p.signals.Create(ctx, domain.Signal{
			Source:     d.source,
			Excerpt:    d.excerpt,
			Status:     d.status,
			CapturedAt: d.capturedAt,
		})
		if err != nil {
			return created, fmt.Errorf("seed signal %s: %w", d.source, err)
		}
		created = append(created, signal)
	}
	return created, nil
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
