package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

const enrichmentSourceApollo = "apollo"

// LeadDeps wires the stores and the contact enricher into lead management.
type LeadDeps struct {
	Leads       ports.LeadRepository
	Signals     ports.SignalRepository
	Drafts      ports.DraftRepository
	ContextDocs ports.ContextDocRepository
	Enricher    ports.Enricher
	Logger      *slog.Logger
	Now         func() time.Time
}

// LeadService converts signals into leads and maintains them.
type LeadService struct {
	leads    ports.LeadRepository
	signals  ports.SignalRepository
	drafts   ports.DraftRepository
	docs     ports.ContextDocRepository
	enricher ports.Enricher
	logger   *slog.Logger
	now      func() time.Time
}

// ConvertInput holds the prospect details entered when converting a signal.
type ConvertInput struct {
	Name    string
	Role    *string
	Company *string
}

// OutreachPackage is the exportable bundle of everything known about a lead.
type OutreachPackage struct {
	Lead   PackageLead     `json:"lead"`
	ICP    domain.IcpScore `json:"icp"`
	Signal *PackageSignal  `json:"signal"`
	Drafts []PackageDraft  `json:"drafts"`
}

type PackageLead struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Role    *string `json:"role"`
	Company *string `json:"company"`
}

type PackageSignal struct {
	ID         string        `json:"id"`
	Angle      *domain.Angle `json:"angle"`
	Excerpt    string        `json:"excerpt"`
	SourceURL  string        `json:"sourceUrl"`
	CapturedAt time.Time     `json:"capturedAt"`
}

type PackageDraft struct {
	ID         string         `json:"id"`
	Channel    domain.Channel `json:"channel"`
	Subject    *string        `json:"subject"`
	Content    string         `json:"content"`
	Angle      *domain.Angle  `json:"angle"`
	VariantKey string         `json:"variantKey"`
	Hypothesis *string        `json:"hypothesis"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func NewLeadService(deps LeadDeps) *LeadService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &LeadService{
		leads:    deps.Leads,
		signals:  deps.Signals,
		drafts:   deps.Drafts,
		docs:     deps.ContextDocs,
		enricher: deps.Enricher,
		logger:   deps.Logger,
		now:      now,
	}
}

// ConvertSignal creates a lead from a signal and marks the signal converted.
func (s *LeadService) ConvertSignal(ctx context.Context, signalID string, in ConvertInput) (domain.Lead, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Lead{}, domain.ErrNameRequired
	}

	if _, err := s.signals.Get(ctx, signalID); err != nil {
		return domain.Lead{}, err
	}

	lead, err := s.leads.Create(ctx, domain.Lead{
		SignalID:       &signalID,
		Name:           name,
		Role:           trimmed(in.Role),
		Company:        trimmed(in.Company),
		PipelineStatus: domain.PipelineNew,
	})
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}

	if err := s.signals.UpdateStatus(ctx, signalID, domain.SignalConverted); err != nil {
		return domain.Lead{}, fmt.Errorf("mark signal converted: %w", err)
	}
	return lead, nil
}

func (s *LeadService) List(ctx context.Context) ([]domain.Lead, error) {
	return s.leads.List(ctx)
}

func (s *LeadService) Get(ctx context.Context, id string) (domain.Lead, error) {
	return s.leads.Get(ctx, id)
}

// UpdateContactInfo replaces email and LinkedIn URL; blank values clear them.
func (s *LeadService) UpdateContactInfo(ctx context.Context, id string, email, linkedinURL *string) (domain.Lead, error) {
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.Email = trimmed(email)
	lead.LinkedInURL = trimmed(linkedinURL)

	updated, err := s.leads.Update(ctx, lead)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update contact info: %w", err)
	}
	return updated, nil
}

// UpdatePipelineStatus validates and stores the outreach stage.
func (s *LeadService) UpdatePipelineStatus(ctx context.Context, id string, status domain.PipelineStatus) (domain.Lead, error) {
	if _, err := domain.ParsePipelineStatus(string(status)); err != nil {
		return domain.Lead{}, err
	}

	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.PipelineStatus = status

	updated, err := s.leads.Update(ctx, lead)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update pipeline status: %w", err)
	}
	return updated, nil
}

// Score recomputes the ICP score on every call.
func (s *LeadService) Score(ctx context.Context, id string) (domain.IcpScore, error) {
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return domain.IcpScore{}, err
	}
	signal, err := sourceSignal(ctx, s.signals, lead)
	if err != nil {
		return domain.IcpScore{}, err
	}
	return scoreLead(ctx, s.docs, lead, signal)
}

// Enrich looks up the lead's contact details and keeps what the provider returned.
func (s *LeadService) Enrich(ctx context.Context, id string) (domain.Lead, error) {
	if s.enricher == nil {
		return domain.Lead{}, errors.New("enricher misconfigured")
	}

	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.Company == nil {
		return domain.Lead{}, domain.ErrMissingCompany
	}

	contact, err := s.enricher.Enrich(ctx, domain.EnrichmentQuery{
		Company: *lead.Company,
		Name:    domain.StringPtr(lead.Name),
		Title:   lead.Role,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("enrichment failed", "lead", id, "error", err)
		}
		return domain.Lead{}, fmt.Errorf("enrich lead: %w", err)
	}

	if contact.Email != nil {
		lead.Email = contact.Email
	}
	if contact.LinkedInURL != nil {
		lead.LinkedInURL = contact.LinkedInURL
	}
	enrichedAt := s.now().UTC()
	lead.EnrichedAt = &enrichedAt
	lead.EnrichmentSource = domain.StringPtr(enrichmentSourceApollo)

	updated, err := s.leads.Update(ctx, lead)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("store enrichment: %w", err)
	}
	return updated, nil
}

// OutreachPackage bundles the lead, its live ICP score, its signal and its drafts.
func (s *LeadService) OutreachPackage(ctx context.Context, id string) (OutreachPackage, error) {
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return OutreachPackage{}, err
	}
	signal, err := sourceSignal(ctx, s.signals, lead)
	if err != nil {
		return OutreachPackage{}, err
	}
	score, err := scoreLead(ctx, s.docs, lead, signal)
	if err != nil {
		return OutreachPackage{}, err
	}
	drafts, err := s.drafts.ListByLead(ctx, lead.ID)
	if err != nil {
		return OutreachPackage{}, fmt.Errorf("list drafts: %w", err)
	}

	pkg := OutreachPackage{
		Lead:   PackageLead{ID: lead.ID, Name: lead.Name, Role: lead.Role, Company: lead.Company},
		ICP:    score,
		Drafts: make([]PackageDraft, 0, len(drafts)),
	}
	if signal != nil {
		pkg.Signal = &PackageSignal{
			ID:         signal.ID,
			Angle:      signal.Angle,
			Excerpt:    signal.Excerpt,
			SourceURL:  signal.Source,
			CapturedAt: signal.CapturedAt,
		}
	}
	for _, d := range drafts {
		pkg.Drafts = append(pkg.Drafts, PackageDraft{
			ID:         d.ID,
			Channel:    d.Channel,
			Subject:    d.Subject,
			Content:    d.Content,
			Angle:      d.Angle,
			VariantKey: d.VariantKey,
			Hypothesis: d.Hypothesis,
			CreatedAt:  d.CreatedAt,
		})
	}
	return pkg, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return domain.StringPtr(strings.TrimSpace(*s))
}
