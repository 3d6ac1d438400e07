// Package metrics exposes Prometheus counters for ingestion, drafting and outreach.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gtmengine"

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
	OutcomeLimited  = "rate_limited"
)

// Metrics groups every counter the engine records. A nil *Metrics records nothing.
type Metrics struct {
	signalsIngested *prometheus.CounterVec
	signalsSkipped  *prometheus.CounterVec
	draftsGenerated *prometheus.CounterVec
	llmRequests     *prometheus.CounterVec
	emailsSent      *prometheus.CounterVec
	crmSyncs        *prometheus.CounterVec
}

// New builds the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		signalsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_ingested_total",
			Help:      "Signals persisted by ingestion, by connector.",
		}, []string{"connector"}),
		signalsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_skipped_total",
			Help:      "Signals dropped as duplicates, by connector.",
		}, []string{"connector"}),
		draftsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_generated_total",
			Help:      "Drafts persisted, by generation strategy and channel.",
		}, []string{"strategy", "channel"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Chat completion requests, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Outbound email attempts, by outcome.",
		}, []string{"outcome"}),
		crmSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crm_syncs_total",
			Help:      "CRM lead syncs, by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.signalsIngested,
			m.signalsSkipped,
			m.draftsGenerated,
			m.llmRequests,
			m.emailsSent,
			m.crmSyncs,
		)
	}
	return m
}

// SignalsIngested adds n persisted signals for connector.
func (m *Metrics) SignalsIngested(connector string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.signalsIngested.WithLabelValues(connector).Add(float64(n))
}

// SignalsSkipped adds n duplicate signals for connector.
func (m *Metrics) SignalsSkipped(connector string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.signalsSkipped.WithLabelValues(connector).Add(float64(n))
}

// DraftGenerated counts one persisted draft.
func (m *Metrics) DraftGenerated(strategy, channel string) {
	if m == nil {
		return
	}
	m.draftsGenerated.WithLabelValues(strategy, channel).Inc()
}

// LLMRequest counts one chat completion attempt.
func (m *Metrics) LLMRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, outcome).Inc()
}

// EmailSent counts one send attempt.
func (m *Metrics) EmailSent(outcome string) {
	if m == nil {
		return
	}
	m.emailsSent.WithLabelValues(outcome).Inc()
}

// CRMSync counts one CRM sync attempt.
func (m *Metrics) CRMSync(outcome string) {
	if m == nil {
		return
	}
	m.crmSyncs.WithLabelValues(outcome).Inc()
}
