package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/drafting"
	"GTMEngine/internal/metrics"
	"GTMEngine/internal/ports"
	"GTMEngine/internal/prompt"
	"GTMEngine/internal/ratelimit"
)

// RateLimiter gates outbound email. Reserve takes budget atomically; Cancel returns it.
type RateLimiter interface {
	Reserve() ratelimit.Decision
	Cancel(at time.Time)
}

// OutreachDeps wires delivery, history and follow-up generation.
type OutreachDeps struct {
	Leads       ports.LeadRepository
	Signals     ports.SignalRepository
	Drafts      ports.DraftRepository
	Touchpoints ports.TouchpointRepository
	ContextDocs ports.ContextDocRepository
	Email       ports.EmailSender
	Limiter     RateLimiter
	Chat        ports.ChatClient
	From        string
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Now         func() time.Time
}

// OutreachService sends drafts, records touchpoints and plans follow-ups.
type OutreachService struct {
	leads       ports.LeadRepository
	signals     ports.SignalRepository
	drafts      ports.DraftRepository
	touchpoints ports.TouchpointRepository
	docs        ports.ContextDocRepository
	email       ports.EmailSender
	limiter     RateLimiter
	chat        ports.ChatClient
	from        string
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// FollowUpResult carries the generated sequence and the planned touchpoints that hold it.
type FollowUpResult struct {
	FollowUps   drafting.FollowUps
	UsedLLM     bool
	Touchpoints []domain.Touchpoint
}

func NewOutreachService(deps OutreachDeps) *OutreachService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &OutreachService{
		leads:       deps.Leads,
		signals:     deps.Signals,
		drafts:      deps.Drafts,
		touchpoints: deps.Touchpoints,
		docs:        deps.ContextDocs,
		email:       deps.Email,
		limiter:     deps.Limiter,
		chat:        deps.Chat,
		from:        deps.From,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         now,
	}
}

// SendEmailDraft emails a draft to its lead and records a sent touchpoint.
func (s *OutreachService) SendEmailDraft(ctx context.Context, draftID string) (domain.Touchpoint, error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return domain.Touchpoint{}, err
	}
	if draft.Channel != domain.ChannelEmail {
		return domain.Touchpoint{}, fmt.Errorf("%w: draft %s is a %s draft", domain.ErrInvalidChannel, draft.ID, draft.Channel)
	}

	lead, err := s.leads.Get(ctx, draft.LeadID)
	if err != nil {
		return domain.Touchpoint{}, err
	}

	externalID, err := s.deliver(ctx, lead, draft.Subject, draft.Content)
	if err != nil {
		return domain.Touchpoint{}, err
	}

	sentAt := s.now().UTC()
	tp, err := s.touchpoints.Create(ctx, domain.Touchpoint{
		LeadID:     lead.ID,
		DraftID:    &draft.ID,
		Channel:    domain.ChannelEmail,
		Status:     domain.TouchpointSent,
		Subject:    draft.Subject,
		Content:    &draft.Content,
		SentAt:     &sentAt,
		ExternalID: &externalID,
	})
	if err != nil {
		return domain.Touchpoint{}, fmt.Errorf("record touchpoint: %w", err)
	}

	if err := s.markContacted(ctx, lead); err != nil {
		return domain.Touchpoint{}, err
	}
	return tp, nil
}

// MarkDraftSent records a draft delivered outside the engine, on any channel.
func (s *OutreachService) MarkDraftSent(ctx context.Context, draftID string) (domain.Touchpoint, error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return domain.Touchpoint{}, err
	}

	sentAt := s.now().UTC()
	tp, err := s.touchpoints.Create(ctx, domain.Touchpoint{
		LeadID:  draft.LeadID,
		DraftID: &draft.ID,
		Channel: draft.Channel,
		Status:  domain.TouchpointSent,
		Subject: draft.Subject,
		Content: &draft.Content,
		SentAt:  &sentAt,
	})
	if err != nil {
		return domain.Touchpoint{}, fmt.Errorf("record touchpoint: %w", err)
	}
	return tp, nil
}

// Touchpoints returns the outreach history of a lead, oldest first.
func (s *OutreachService) Touchpoints(ctx context.Context, leadID string) ([]domain.Touchpoint, error) {
	return s.touchpoints.ListByLead(ctx, leadID)
}

// GenerateFollowUps plans a two-step email sequence. The chat model writes it when
// configured; otherwise the fixed templates are used.
func (s *OutreachService) GenerateFollowUps(ctx context.Context, leadID string) (FollowUpResult, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return FollowUpResult{}, err
	}
	if lead.PipelineStatus.IsPaused() {
		return FollowUpResult{}, fmt.Errorf("%w (status %s)", domain.ErrFollowUpsPaused, lead.PipelineStatus)
	}

	signal, err := sourceSignal(ctx, s.signals, lead)
	if err != nil {
		return FollowUpResult{}, err
	}

	result := FollowUpResult{}
	followUps, err := s.llmFollowUps(ctx, lead, signal)
	switch {
	case err == nil:
		result.FollowUps, result.UsedLLM = followUps, true
	case domain.IsLLMError(err, domain.LLMMissingAPIKey):
		s.warn("llm unavailable, using follow-up templates", "lead", leadID, "error", err)
		result.FollowUps = templateFollowUps(lead, signal)
	default:
		return FollowUpResult{}, fmt.Errorf("generate follow-ups: %w", err)
	}

	for _, f := range []drafting.FollowUp{result.FollowUps.First, result.FollowUps.Second} {
		tp, err := s.touchpoints.Create(ctx, domain.Touchpoint{
			LeadID:  lead.ID,
			Channel: domain.ChannelEmail,
			Status:  domain.TouchpointPlanned,
			Subject: domain.StringPtr(f.Subject),
			Content: domain.StringPtr(f.Content),
		})
		if err != nil {
			return FollowUpResult{}, fmt.Errorf("plan follow-up: %w", err)
		}
		result.Touchpoints = append(result.Touchpoints, tp)
	}
	return result, nil
}

// SendPlannedTouchpoint emails a planned follow-up and marks it sent.
func (s *OutreachService) SendPlannedTouchpoint(ctx context.Context, touchpointID string) (domain.Touchpoint, error) {
	tp, err := s.touchpoints.Get(ctx, touchpointID)
	if err != nil {
		return domain.Touchpoint{}, err
	}
	if tp.Status != domain.TouchpointPlanned {
		return domain.Touchpoint{}, domain.ErrAlreadySent
	}
	if tp.Channel != domain.ChannelEmail {
		return domain.Touchpoint{}, fmt.Errorf("%w: touchpoint %s is a %s touchpoint", domain.ErrInvalidChannel, tp.ID, tp.Channel)
	}

	lead, err := s.leads.Get(ctx, tp.LeadID)
	if err != nil {
		return domain.Touchpoint{}, err
	}

	externalID, err := s.deliver(ctx, lead, tp.Subject, domain.Deref(tp.Content))
	if err != nil {
		return domain.Touchpoint{}, err
	}

	if err := s.touchpoints.MarkSent(ctx, tp.ID, s.now().UTC(), &externalID); err != nil {
		return domain.Touchpoint{}, fmt.Errorf("mark touchpoint sent: %w", err)
	}
	if err := s.markContacted(ctx, lead); err != nil {
		return domain.Touchpoint{}, err
	}
	return s.touchpoints.Get(ctx, tp.ID)
}

// deliver reserves send budget, sends and releases the reservation when the send fails.
func (s *OutreachService) deliver(ctx context.Context, lead domain.Lead, subject *string, content string) (string, error) {
	if s.email == nil || s.limiter == nil {
		return "", errors.New("email delivery misconfigured")
	}
	if lead.Email == nil || *lead.Email == "" {
		return "", domain.ErrMissingEmail
	}
	if subject == nil || *subject == "" {
		return "", domain.ErrMissingSubject
	}

	decision := s.limiter.Reserve()
	if !decision.Allowed {
		s.metrics.EmailSent(metrics.OutcomeLimited)
		return "", fmt.Errorf("%w: retry in %s", domain.ErrRateLimited, decision.RetryAfter.Round(time.Second))
	}

	id, err := s.email.Send(ctx, domain.OutboundEmail{
		From:    s.from,
		To:      *lead.Email,
		Subject: *subject,
		Text:    content,
	})
	if err != nil {
		s.limiter.Cancel(decision.At)
		s.metrics.EmailSent(metrics.OutcomeError)
		return "", fmt.Errorf("send email: %w", err)
	}

	s.metrics.EmailSent(metrics.OutcomeSuccess)
	if s.logger != nil {
		s.logger.Info("email sent", "lead", lead.ID, "message_id", id, "remaining", decision.Remaining)
	}
	return id, nil
}

func (s *OutreachService) markContacted(ctx context.Context, lead domain.Lead) error {
	if lead.PipelineStatus != domain.PipelineNew {
		return nil
	}
	lead.PipelineStatus = domain.PipelineContacted
	if _, err := s.leads.Update(ctx, lead); err != nil {
		return fmt.Errorf("mark lead contacted: %w", err)
	}
	return nil
}

func (s *OutreachService) llmFollowUps(ctx context.Context, lead domain.Lead, signal *domain.Signal) (drafting.FollowUps, error) {
	if s.chat == nil {
		return drafting.FollowUps{}, &domain.LLMError{Code: domain.LLMMissingAPIKey, Message: "no chat client configured"}
	}

	tone, err := activeDoc(ctx, s.docs, domain.ContextTone)
	if err != nil {
		return drafting.FollowUps{}, err
	}
	score, err := scoreLead(ctx, s.docs, lead, signal)
	if err != nil {
		return drafting.FollowUps{}, err
	}
	history, err := s.touchpoints.ListByLead(ctx, lead.ID)
	if err != nil {
		return drafting.FollowUps{}, fmt.Errorf("load touchpoints: %w", err)
	}

	var previous []string
	for _, tp := range history {
		if tp.Status == domain.TouchpointSent && tp.Content != nil && *tp.Content != "" {
			previous = append(previous, *tp.Content)
		}
	}

	promptLead, promptSignal := prompt.FromDomain(lead, signal)
	resp, err := s.chat.Chat(ctx, prompt.BuildFollowUp(prompt.FollowUpRequest{
		Lead:             promptLead,
		Signal:           promptSignal,
		Tone:             domain.Deref(tone),
		ICP:              &score,
		PreviousMessages: previous,
	}))
	if err != nil {
		return drafting.FollowUps{}, err
	}
	return prompt.ParseFollowUpResponse(resp.Content)
}

func templateFollowUps(lead domain.Lead, signal *domain.Signal) drafting.FollowUps {
	var s drafting.Signal
	if signal != nil {
		s = drafting.FromSignal(*signal)
	}
	return drafting.GenerateFollowUps(drafting.FromLead(lead), s)
}

func (s *OutreachService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
