package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/metrics"
	"GTMEngine/internal/ports"
)

// noteDraftLimit caps how many recent drafts are copied into the CRM note.
const noteDraftLimit = 2

// CRMDeps wires the stores and the CRM adapter into lead sync.
type CRMDeps struct {
	Leads       ports.LeadRepository
	Signals     ports.SignalRepository
	Drafts      ports.DraftRepository
	Touchpoints ports.TouchpointRepository
	ContextDocs ports.ContextDocRepository
	CRM         ports.CRM
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Now         func() time.Time
}

// CRMService mirrors leads into the external CRM.
type CRMService struct {
	leads       ports.LeadRepository
	signals     ports.SignalRepository
	drafts      ports.DraftRepository
	touchpoints ports.TouchpointRepository
	docs        ports.ContextDocRepository
	crm         ports.CRM
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// SyncResult holds the CRM record ids touched by a sync.
type SyncResult struct {
	CompanyID string
	PersonID  string
	NoteID    string
	Lead      domain.Lead
}

func NewCRMService(deps CRMDeps) *CRMService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CRMService{
		leads:       deps.Leads,
		signals:     deps.Signals,
		drafts:      deps.Drafts,
		touchpoints: deps.Touchpoints,
		docs:        deps.ContextDocs,
		crm:         deps.CRM,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         now,
	}
}

// SyncLead upserts the company and person, attaches a summary note and stamps the lead.
func (s *CRMService) SyncLead(ctx context.Context, leadID string) (SyncResult, error) {
	if s.crm == nil {
		return SyncResult{}, errors.New("crm misconfigured")
	}

	result, err := s.sync(ctx, leadID)
	if err != nil {
		s.metrics.CRMSync(metrics.OutcomeError)
		if s.logger != nil {
			s.logger.Warn("crm sync failed", "lead", leadID, "error", err)
		}
		return SyncResult{}, err
	}
	s.metrics.CRMSync(metrics.OutcomeSuccess)
	return result, nil
}

func (s *CRMService) sync(ctx context.Context, leadID string) (SyncResult, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return SyncResult{}, err
	}
	signal, err := sourceSignal(ctx, s.signals, lead)
	if err != nil {
		return SyncResult{}, err
	}
	score, err := scoreLead(ctx, s.docs, lead, signal)
	if err != nil {
		return SyncResult{}, err
	}
	drafts, err := s.drafts.ListByLead(ctx, lead.ID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list drafts: %w", err)
	}
	touchpoints, err := s.touchpoints.ListByLead(ctx, lead.ID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list touchpoints: %w", err)
	}

	var result SyncResult
	if lead.Company != nil && *lead.Company != "" {
		if result.CompanyID, err = s.crm.UpsertCompany(ctx, *lead.Company); err != nil {
			return SyncResult{}, fmt.Errorf("upsert company: %w", err)
		}
	}

	result.PersonID, err = s.crm.UpsertPerson(ctx, domain.CRMPerson{
		Name:        lead.Name,
		Email:       lead.Email,
		LinkedInURL: lead.LinkedInURL,
		Title:       lead.Role,
	})
	if err != nil {
		return SyncResult{}, fmt.Errorf("upsert person: %w", err)
	}

	note := BuildCRMNote(lead, signal, score, drafts, touchpoints)
	if result.NoteID, err = s.crm.AddNote(ctx, result.PersonID, note); err != nil {
		return SyncResult{}, fmt.Errorf("add note: %w", err)
	}

	syncedAt := s.now().UTC()
	lead.AttioSyncedAt = &syncedAt
	if result.Lead, err = s.leads.Update(ctx, lead); err != nil {
		return SyncResult{}, fmt.Errorf("stamp sync time: %w", err)
	}
	return result, nil
}

// BuildCRMNote renders the markdown summary attached to the CRM person.
func BuildCRMNote(lead domain.Lead, signal *domain.Signal, score domain.IcpScore, drafts []domain.Draft, touchpoints []domain.Touchpoint) domain.CRMNote {
	var b strings.Builder

	fmt.Fprintf(&b, "## ICP Score: %d/100\n\n", score.Score)
	for _, reason := range score.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}

	if signal != nil {
		b.WriteString("\n## Source Signal\n\n")
		fmt.Fprintf(&b, "> %s\n\n", signal.Excerpt)
		fmt.Fprintf(&b, "Source: %s\n", signal.Source)
		if signal.Angle != nil {
			fmt.Fprintf(&b, "Angle: %s\n", signal.Angle.Label())
		}
	}

	if len(drafts) > 0 {
		b.WriteString("\n## Latest Drafts\n")
		for i, d := range drafts {
			if i == noteDraftLimit {
				break
			}
			fmt.Fprintf(&b, "\n### %s (%s)\n\n", d.VariantKey, d.Channel)
			if d.Subject != nil {
				fmt.Fprintf(&b, "Subject: %s\n\n", *d.Subject)
			}
			b.WriteString(d.Content)
			b.WriteString("\n")
		}
	}

	if len(touchpoints) > 0 {
		b.WriteString("\n## Touchpoints\n\n")
		for _, tp := range touchpoints {
			when := "planned"
			if tp.SentAt != nil {
				when = "sent " + tp.SentAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(&b, "- %s: %s", tp.Channel, when)
			if tp.Subject != nil {
				fmt.Fprintf(&b, " (%s)", *tp.Subject)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nPipeline status: %s\n", lead.PipelineStatus)

	return domain.CRMNote{
		Title:    "GTM Engine: " + lead.Name,
		Markdown: strings.TrimSpace(b.String()),
	}
}
