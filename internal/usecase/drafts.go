package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/drafting"
	"GTMEngine/internal/metrics"
	"GTMEngine/internal/ports"
	"GTMEngine/internal/prompt"
)

// Draft strategies reported to metrics.
const (
	strategyTemplate = "template"
	strategyAngle    = "angle"
	strategyLLM      = "llm"
)

var llmFramings = []domain.Framing{domain.FramingMetric, domain.FramingRisk}

// DraftDeps wires the stores and the chat client into draft generation.
type DraftDeps struct {
	Leads       ports.LeadRepository
	Signals     ports.SignalRepository
	Drafts      ports.DraftRepository
	ContextDocs ports.ContextDocRepository
	Chat        ports.ChatClient
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// DraftService generates, stores and edits outreach drafts.
type DraftService struct {
	leads   ports.LeadRepository
	signals ports.SignalRepository
	drafts  ports.DraftRepository
	docs    ports.ContextDocRepository
	chat    ports.ChatClient
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// LLMDraftResult reports which generator produced the drafts.
type LLMDraftResult struct {
	Drafts  []domain.Draft
	UsedLLM bool
}

func NewDraftService(deps DraftDeps) *DraftService {
	return &DraftService{
		leads:   deps.Leads,
		signals: deps.Signals,
		drafts:  deps.Drafts,
		docs:    deps.ContextDocs,
		chat:    deps.Chat,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// CreateTemplateDraft renders one non-angle template for the lead's signal.
func (s *DraftService) CreateTemplateDraft(ctx context.Context, leadID string, channel domain.Channel, variant domain.Variant) (domain.Draft, error) {
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return domain.Draft{}, err
	}
	if _, err := domain.ParseVariant(string(variant)); err != nil {
		return domain.Draft{}, err
	}

	lead, signal, err := s.leadWithSignal(ctx, leadID)
	if err != nil {
		return domain.Draft{}, err
	}

	generated := drafting.GenerateDraft(drafting.FromLead(lead), drafting.FromSignal(signal), channel, variant)
	drafts, err := s.persist(ctx, lead.ID, strategyTemplate, generated)
	if err != nil {
		return domain.Draft{}, err
	}
	return drafts[0], nil
}

// CreateAngleDrafts renders the metric and risk framings of the signal's angle.
func (s *DraftService) CreateAngleDrafts(ctx context.Context, leadID string, channel domain.Channel) ([]domain.Draft, error) {
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return nil, err
	}

	lead, signal, err := s.leadWithSignal(ctx, leadID)
	if err != nil {
		return nil, err
	}
	score, err := scoreLead(ctx, s.docs, lead, &signal)
	if err != nil {
		return nil, err
	}

	pair := drafting.GenerateAngleDrafts(drafting.FromLead(lead), drafting.FromSignal(signal), channel, &score)
	return s.persist(ctx, lead.ID, strategyAngle, pair[:]...)
}

// CreateLLMDrafts asks the chat model for one draft per framing. Without an API key it
// falls back to the angle templates.
func (s *DraftService) CreateLLMDrafts(ctx context.Context, leadID string, channel domain.Channel) (LLMDraftResult, error) {
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return LLMDraftResult{}, err
	}
	if s.chat == nil {
		return LLMDraftResult{}, errors.New("chat client misconfigured")
	}

	lead, signal, err := s.leadWithSignal(ctx, leadID)
	if err != nil {
		return LLMDraftResult{}, err
	}
	score, err := scoreLead(ctx, s.docs, lead, &signal)
	if err != nil {
		return LLMDraftResult{}, err
	}
	tone, err := activeDoc(ctx, s.docs, domain.ContextTone)
	if err != nil {
		return LLMDraftResult{}, err
	}

	promptLead, promptSignal := prompt.FromDomain(lead, &signal)
	generated := make([]domain.GeneratedDraft, 0, len(llmFramings))
	for i, framing := range llmFramings {
		messages := prompt.BuildDraft(prompt.DraftRequest{
			Lead:          promptLead,
			Signal:        promptSignal,
			Channel:       channel,
			Tone:          domain.Deref(tone),
			VariantNumber: i + 1,
			Framing:       &framing,
			ICP:           &score,
		})

		resp, err := s.chat.Chat(ctx, messages)
		if domain.IsLLMError(err, domain.LLMMissingAPIKey) {
			s.warn("llm unavailable, using angle templates", "lead", leadID, "error", err)
			pair := drafting.GenerateAngleDrafts(drafting.FromLead(lead), drafting.FromSignal(signal), channel, &score)
			drafts, err := s.persist(ctx, lead.ID, strategyAngle, pair[:]...)
			if err != nil {
				return LLMDraftResult{}, err
			}
			return LLMDraftResult{Drafts: drafts}, nil
		}
		if err != nil {
			return LLMDraftResult{}, fmt.Errorf("generate %s draft: %w", framing, err)
		}

		out, err := prompt.ParseDraftResponse(resp.Content)
		if err != nil {
			return LLMDraftResult{}, fmt.Errorf("parse %s draft: %w", framing, err)
		}
		generated = append(generated, fromDraftOutput(out, channel, signal.Angle))
	}

	drafts, err := s.persist(ctx, lead.ID, strategyLLM, generated...)
	if err != nil {
		return LLMDraftResult{}, err
	}
	return LLMDraftResult{Drafts: drafts, UsedLLM: true}, nil
}

// Update stores a manual edit of subject and content.
func (s *DraftService) Update(ctx context.Context, id string, subject *string, content string) (domain.Draft, error) {
	if content == "" {
		return domain.Draft{}, domain.ErrEmptyContent
	}

	draft, err := s.drafts.Get(ctx, id)
	if err != nil {
		return domain.Draft{}, err
	}
	draft.Subject = subject
	if draft.Channel == domain.ChannelLinkedIn {
		draft.Subject = nil
	}
	draft.Content = content

	updated, err := s.drafts.Update(ctx, draft)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("update draft: %w", err)
	}
	return updated, nil
}

// ListForLead returns the lead's drafts, newest first.
func (s *DraftService) ListForLead(ctx context.Context, leadID string) ([]domain.Draft, error) {
	return s.drafts.ListByLead(ctx, leadID)
}

func (s *DraftService) Get(ctx context.Context, id string) (domain.Draft, error) {
	return s.drafts.Get(ctx, id)
}

// LatestLinkedIn returns the newest LinkedIn draft of a lead or domain.ErrDraftNotFound.
func (s *DraftService) LatestLinkedIn(ctx context.Context, leadID string) (domain.Draft, error) {
	drafts, err := s.drafts.ListByLead(ctx, leadID)
	if err != nil {
		return domain.Draft{}, err
	}
	for _, d := range drafts {
		if d.Channel == domain.ChannelLinkedIn {
			return d, nil
		}
	}
	return domain.Draft{}, domain.ErrDraftNotFound
}

func (s *DraftService) leadWithSignal(ctx context.Context, leadID string) (domain.Lead, domain.Signal, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return domain.Lead{}, domain.Signal{}, err
	}
	signal, err := sourceSignal(ctx, s.signals, lead)
	if err != nil {
		return domain.Lead{}, domain.Signal{}, err
	}
	if signal == nil {
		return domain.Lead{}, domain.Signal{}, domain.ErrLeadWithoutSignal
	}
	return lead, *signal, nil
}

func (s *DraftService) persist(ctx context.Context, leadID, strategy string, generated ...domain.GeneratedDraft) ([]domain.Draft, error) {
	drafts := make([]domain.Draft, 0, len(generated))
	for _, g := range generated {
		d, err := s.drafts.Create(ctx, domain.NewDraft(leadID, g))
		if err != nil {
			return nil, fmt.Errorf("store draft: %w", err)
		}
		s.metrics.DraftGenerated(strategy, string(g.Channel))
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func (s *DraftService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// fromDraftOutput keeps the model's angle only when it names a known one.
func fromDraftOutput(out prompt.DraftOutput, channel domain.Channel, signalAngle *domain.Angle) domain.GeneratedDraft {
	draftAngle := signalAngle
	if out.Angle != nil {
		if a, err := domain.ParseAngle(*out.Angle); err == nil {
			draftAngle = &a
		}
	}

	subject := out.Subject
	if channel == domain.ChannelLinkedIn {
		subject = nil
	}

	return domain.GeneratedDraft{
		Channel:    channel,
		Subject:    subject,
		Content:    out.Content,
		VariantKey: out.VariantKey,
		Angle:      draftAngle,
		Hypothesis: out.Hypothesis,
	}
}
