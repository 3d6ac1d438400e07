package ports

import (
	"context"
	"time"

	"GTMEngine/internal/domain"
)

// Connector pulls raw signals from one upstream source.
type Connector interface {
	Name() string
	Ingest(ctx context.Context, input string) (domain.ConnectorResult, error)
}

// FeedSource enumerates the configured connector inputs for scheduled ingestion.
type FeedSource interface {
	Feeds(ctx context.Context) ([]domain.Feed, error)
}

// SignalRepository persists captured signals.
type SignalRepository interface {
	Create(ctx context.Context, signal domain.Signal) (domain.Signal, error)
	Get(ctx context.Context, id string) (domain.Signal, error)
	List(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
	ExistingSources(ctx context.Context, sources []string) (map[string]bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.SignalStatus) error
	UpdateAngle(ctx context.Context, id string, angle *domain.Angle) error
}

// LeadRepository persists leads.
type LeadRepository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	Get(ctx context.Context, id string) (domain.Lead, error)
	List(ctx context.Context) ([]domain.Lead, error)
	Update(ctx context.Context, lead domain.Lead) (domain.Lead, error)
}

// DraftRepository persists drafts; ListByLead returns newest first.
type DraftRepository interface {
	Create(ctx context.Context, draft domain.Draft) (domain.Draft, error)
	Get(ctx context.Context, id string) (domain.Draft, error)
	Update(ctx context.Context, draft domain.Draft) (domain.Draft, error)
	ListByLead(ctx context.Context, leadID string) ([]domain.Draft, error)
}

// TouchpointRepository persists outreach history; ListByLead returns oldest first.
type TouchpointRepository interface {
	Create(ctx context.Context, tp domain.Touchpoint) (domain.Touchpoint, error)
	Get(ctx context.Context, id string) (domain.Touchpoint, error)
	ListByLead(ctx context.Context, leadID string) ([]domain.Touchpoint, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time, externalID *string) error
}

// ContextDocRepository persists versioned guidance documents.
type ContextDocRepository interface {
	// Create stores doc as the only active document of its type.
	Create(ctx context.Context, doc domain.ContextDoc) (domain.ContextDoc, error)
	List(ctx context.Context, docType domain.ContextDocType) ([]domain.ContextDoc, error)
	Active(ctx context.Context, docType domain.ContextDocType) (domain.ContextDoc, error)
	SetActive(ctx context.Context, id string) error
}

// ChatClient sends chat completions to an LLM provider.
type ChatClient interface {
	Provider() string
	Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatResponse, error)
}

// EmailSender delivers outbound email and returns the provider message id.
type EmailSender interface {
	Send(ctx context.Context, email domain.OutboundEmail) (string, error)
}

// Enricher looks up contact details for a person.
type Enricher interface {
	Enrich(ctx context.Context, query domain.EnrichmentQuery) (domain.EnrichedContact, error)
}

// CRM mirrors leads into an external CRM.
type CRM interface {
	UpsertCompany(ctx context.Context, name string) (string, error)
	UpsertPerson(ctx context.Context, person domain.CRMPerson) (string, error)
	AddNote(ctx context.Context, personID string, note domain.CRMNote) (string, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
