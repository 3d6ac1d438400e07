package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const collectTimeout = 5 * time.Second

var (
	signalStatusDesc = prometheus.NewDesc(
		"gtmengine_signals",
		"Stored signals by review status",
		[]string{"status"},
		nil,
	)
	leadStatusDesc = prometheus.NewDesc(
		"gtmengine_leads",
		"Stored leads by pipeline status",
		[]string{"status"},
		nil,
	)
)

// StatusCounter reports row counts grouped by status.
type StatusCounter func(ctx context.Context) (map[string]int, error)

// StatusCollector is a custom Prometheus collector that reads signal and lead
// status counts from storage on each scrape.
type StatusCollector struct {
	signals StatusCounter
	leads   StatusCounter
	logger  *slog.Logger
}

// NewStatusCollector builds a collector; either counter may be nil.
func NewStatusCollector(signals, leads StatusCounter, logger *slog.Logger) *StatusCollector {
	return &StatusCollector{signals: signals, leads: leads, logger: logger}
}

// Describe sends the metric descriptors to the channel.
func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- signalStatusDesc
	ch <- leadStatusDesc
}

// Collect queries storage and emits the counts as gauges.
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	c.emit(ctx, ch, signalStatusDesc, c.signals)
	c.emit(ctx, ch, leadStatusDesc, c.leads)
}

func (c *StatusCollector) emit(ctx context.Context, ch chan<- prometheus.Metric, desc *prometheus.Desc, counter StatusCounter) {
	if counter == nil {
		return
	}
	counts, err := counter(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("failed to collect status metrics", "metric", desc.String(), "error", err)
		}
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(n), status)
	}
}
