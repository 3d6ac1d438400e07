package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
	"GTMEngine/internal/ratelimit"
)

// memStore is an in-memory backing for every repository port. Each write advances the clock by a second.
type memStore struct {
	mu          sync.Mutex
	seq         int
	clock       time.Time
	signals     []domain.Signal
	leads       []domain.Lead
	drafts      []domain.Draft
	touchpoints []domain.Touchpoint
	docs        []domain.ContextDoc
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) next(prefix string) (string, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Second)
	return fmt.Sprintf("%s-%d", prefix, m.seq), m.clock
}

type memSignals struct{ *memStore }
type memLeads struct{ *memStore }
type memDrafts struct{ *memStore }
type memTouchpoints struct{ *memStore }
type memDocs struct{ *memStore }

var (
	_ ports.SignalRepository     = memSignals{}
	_ ports.LeadRepository       = memLeads{}
	_ ports.DraftRepository      = memDrafts{}
	_ ports.TouchpointRepository = memTouchpoints{}
	_ ports.ContextDocRepository = memDocs{}
)

func (r memSignals) Create(_ context.Context, s domain.Signal) (domain.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID, s.CreatedAt = r.next("sig")
	if s.Status == "" {
		s.Status = domain.SignalPending
	}
	r.signals = append(r.signals, s)
	return s, nil
}

func (r memSignals) Get(_ context.Context, id string) (domain.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.signals {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Signal{}, domain.ErrSignalNotFound
}

func (r memSignals) List(_ context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Signal
	for i := len(r.signals) - 1; i >= 0; i-- {
		s := r.signals[i]
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		out = append(out, s)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r memSignals) ExistingSources(_ context.Context, sources []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, s := range r.signals {
		for _, src := range sources {
			if s.Source == src {
				out[src] = true
			}
		}
	}
	return out, nil
}

func (r memSignals) UpdateStatus(_ context.Context, id string, status domain.SignalStatus) error {
	return r.mutate(id, func(s *domain.Signal) { s.Status = status })
}

func (r memSignals) UpdateAngle(_ context.Context, id string, a *domain.Angle) error {
	return r.mutate(id, func(s *domain.Signal) { s.Angle = a })
}

func (r memSignals) mutate(id string, fn func(*domain.Signal)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.signals {
		if r.signals[i].ID == id {
			fn(&r.signals[i])
			return nil
		}
	}
	return domain.ErrSignalNotFound
}

func (r memLeads) Create(_ context.Context, l domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID, l.CreatedAt = r.next("lead")
	l.UpdatedAt = l.CreatedAt
	if l.PipelineStatus == "" {
		l.PipelineStatus = domain.PipelineNew
	}
	r.leads = append(r.leads, l)
	return l, nil
}

func (r memLeads) Get(_ context.Context, id string) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Lead{}, domain.ErrLeadNotFound
}

func (r memLeads) List(_ context.Context) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]domain.Lead(nil), r.leads...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memLeads) Update(_ context.Context, l domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.leads {
		if r.leads[i].ID == l.ID {
			_, l.UpdatedAt = r.next("tick")
			l.CreatedAt = r.leads[i].CreatedAt
			r.leads[i] = l
			return l, nil
		}
	}
	return domain.Lead{}, domain.ErrLeadNotFound
}

func (r memDrafts) Create(_ context.Context, d domain.Draft) (domain.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID, d.CreatedAt = r.next("draft")
	d.UpdatedAt = d.CreatedAt
	r.drafts = append(r.drafts, d)
	return d, nil
}

func (r memDrafts) Get(_ context.Context, id string) (domain.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Draft{}, domain.ErrDraftNotFound
}

func (r memDrafts) Update(_ context.Context, d domain.Draft) (domain.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.drafts {
		if r.drafts[i].ID == d.ID {
			r.drafts[i].Subject = d.Subject
			r.drafts[i].Content = d.Content
			_, r.drafts[i].UpdatedAt = r.next("tick")
			return r.drafts[i], nil
		}
	}
	return domain.Draft{}, domain.ErrDraftNotFound
}

func (r memDrafts) ListByLead(_ context.Context, leadID string) ([]domain.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Draft
	for i := len(r.drafts) - 1; i >= 0; i-- {
		if r.drafts[i].LeadID == leadID {
			out = append(out, r.drafts[i])
		}
	}
	return out, nil
}

func (r memTouchpoints) Create(_ context.Context, tp domain.Touchpoint) (domain.Touchpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tp.ID, tp.CreatedAt = r.next("tp")
	if tp.Status == "" {
		tp.Status = domain.TouchpointPlanned
	}
	r.touchpoints = append(r.touchpoints, tp)
	return tp, nil
}

func (r memTouchpoints) Get(_ context.Context, id string) (domain.Touchpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tp := range r.touchpoints {
		if tp.ID == id {
			return tp, nil
		}
	}
	return domain.Touchpoint{}, domain.ErrTouchpointNotFound
}

func (r memTouchpoints) ListByLead(_ context.Context, leadID string) ([]domain.Touchpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Touchpoint
	for _, tp := range r.touchpoints {
		if tp.LeadID == leadID {
			out = append(out, tp)
		}
	}
	return out, nil
}

func (r memTouchpoints) MarkSent(_ context.Context, id string, sentAt time.Time, externalID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.touchpoints {
		if r.touchpoints[i].ID == id {
			r.touchpoints[i].Status = domain.TouchpointSent
			r.touchpoints[i].SentAt = &sentAt
			r.touchpoints[i].ExternalID = externalID
			return nil
		}
	}
	return domain.ErrTouchpointNotFound
}

func (r memDocs) Create(_ context.Context, doc domain.ContextDoc) (domain.ContextDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.docs {
		if r.docs[i].Type == doc.Type {
			r.docs[i].IsActive = false
		}
	}
	doc.ID, doc.CreatedAt = r.next("doc")
	doc.IsActive = true
	r.docs = append(r.docs, doc)
	return doc, nil
}

func (r memDocs) List(_ context.Context, docType domain.ContextDocType) ([]domain.ContextDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ContextDoc
	for i := len(r.docs) - 1; i >= 0; i-- {
		if r.docs[i].Type == docType {
			out = append(out, r.docs[i])
		}
	}
	return out, nil
}

func (r memDocs) Active(_ context.Context, docType domain.ContextDocType) (domain.ContextDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.Type == docType && d.IsActive {
			return d, nil
		}
	}
	return domain.ContextDoc{}, domain.ErrContextDocNotFound
}

func (r memDocs) SetActive(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i := range r.docs {
		if r.docs[i].ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return domain.ErrContextDocNotFound
	}
	for i := range r.docs {
		if r.docs[i].Type == r.docs[idx].Type {
			r.docs[i].IsActive = i == idx
		}
	}
	return nil
}

type fakeConnector struct {
	name   string
	result domain.ConnectorResult
	err    error
	inputs []string
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Ingest(_ context.Context, input string) (domain.ConnectorResult, error) {
	f.inputs = append(f.inputs, input)
	return f.result, f.err
}

type staticFeeds []domain.Feed

func (f staticFeeds) Feeds(context.Context) ([]domain.Feed, error) { return f, nil }

// fakeChat replays replies in order; err is returned for every call when set.
type fakeChat struct {
	replies []string
	err     error
	calls   [][]domain.ChatMessage
}

func (f *fakeChat) Provider() string { return "fake" }

func (f *fakeChat) Chat(_ context.Context, messages []domain.ChatMessage) (domain.ChatResponse, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return domain.ChatResponse{}, f.err
	}
	if len(f.replies) == 0 {
		return domain.ChatResponse{}, errors.New("no scripted reply")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return domain.ChatResponse{Content: reply}, nil
}

func missingKeyChat() *fakeChat {
	return &fakeChat{err: &domain.LLMError{Code: domain.LLMMissingAPIKey, Message: "OPENAI_API_KEY is not set"}}
}

type fakeSender struct {
	sent []domain.OutboundEmail
	err  error
}

func (f *fakeSender) Send(_ context.Context, email domain.OutboundEmail) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, email)
	return fmt.Sprintf("msg_%d", len(f.sent)), nil
}

type fakeEnricher struct {
	contact domain.EnrichedContact
	err     error
	queries []domain.EnrichmentQuery
}

func (f *fakeEnricher) Enrich(_ context.Context, q domain.EnrichmentQuery) (domain.EnrichedContact, error) {
	f.queries = append(f.queries, q)
	return f.contact, f.err
}

type fakeCRM struct {
	companies []string
	people    []domain.CRMPerson
	notes     map[string]domain.CRMNote
}

func (f *fakeCRM) UpsertCompany(_ context.Context, name string) (string, error) {
	f.companies = append(f.companies, name)
	return "company-1", nil
}

func (f *fakeCRM) UpsertPerson(_ context.Context, p domain.CRMPerson) (string, error) {
	f.people = append(f.people, p)
	return "person-1", nil
}

func (f *fakeCRM) AddNote(_ context.Context, personID string, note domain.CRMNote) (string, error) {
	if f.notes == nil {
		f.notes = map[string]domain.CRMNote{}
	}
	f.notes[personID] = note
	return "note-1", nil
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newLimiter(limit int) *ratelimit.Window {
	return ratelimit.NewWindow(limit, time.Minute, fixedClock)
}

// seedLead stores a signal and a lead converted from it.
func seedLead(store *memStore, excerpt string, a *domain.Angle, lead domain.Lead) (domain.Signal, domain.Lead) {
	ctx := context.Background()
	signal, _ := memSignals{store}.Create(ctx, domain.Signal{
		Source:     "https://blog.example.com/post",
		Excerpt:    excerpt,
		Angle:      a,
		CapturedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	lead.SignalID = &signal.ID
	created, _ := memLeads{store}.Create(ctx, lead)
	return signal, created
}
