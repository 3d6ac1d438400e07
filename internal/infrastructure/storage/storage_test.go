package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
)

// newTestStore migrates a fresh sqlite file and ticks the clock one second per timestamp.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "gtm.db") + "?_pragma=foreign_keys(1)"
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db, config.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var (
		mu      sync.Mutex
		current = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	)
	store := NewStore(db, config.DriverSQLite)
	store.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	})
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := Migrate(store.db, config.DriverSQLite); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := Migrate(store.db, "oracle"); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestSignalRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestStore(t).Signals
	captured := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, domain.Signal{Source: "https://a.example.com", Excerpt: "outage", CapturedAt: captured})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" || first.Status != domain.SignalPending || !first.CapturedAt.Equal(captured) {
		t.Fatalf("unexpected created signal: %+v", first)
	}
	if first.Angle != nil {
		t.Fatalf("expected nil angle, got %v", *first.Angle)
	}

	second, err := repo.Create(ctx, domain.Signal{Source: "https://b.example.com", Excerpt: "policy gate"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if err := repo.UpdateAngle(ctx, first.ID, domain.AnglePtr(domain.AngleIncidentReduction)); err != nil {
		t.Fatalf("update angle: %v", err)
	}
	if err := repo.UpdateStatus(ctx, second.ID, domain.SignalReviewed); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Angle == nil || *got.Angle != domain.AngleIncidentReduction {
		t.Fatalf("angle not stored: %+v", got)
	}

	if err := repo.UpdateAngle(ctx, first.ID, nil); err != nil {
		t.Fatalf("clear angle: %v", err)
	}
	if got, _ := repo.Get(ctx, first.ID); got.Angle != nil {
		t.Fatalf("angle not cleared: %v", *got.Angle)
	}

	all, err := repo.List(ctx, domain.SignalFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}

	pending := domain.SignalPending
	filtered, err := repo.List(ctx, domain.SignalFilter{Status: &pending, Limit: 10})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != first.ID {
		t.Fatalf("unexpected pending signals: %+v", filtered)
	}

	existing, err := repo.ExistingSources(ctx, []string{"https://a.example.com", "https://new.example.com"})
	if err != nil {
		t.Fatalf("existing sources: %v", err)
	}
	if !existing["https://a.example.com"] || existing["https://new.example.com"] {
		t.Fatalf("unexpected existing sources: %v", existing)
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["pending"] != 1 || counts["reviewed"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrSignalNotFound) {
		t.Fatalf("expected ErrSignalNotFound, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, "missing", domain.SignalReviewed); !errors.Is(err, domain.ErrSignalNotFound) {
		t.Fatalf("expected ErrSignalNotFound on update, got %v", err)
	}
}

func TestLeadRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	signal, err := store.Signals.Create(ctx, domain.Signal{Source: "https://a.example.com", Excerpt: "outage"})
	if err != nil {
		t.Fatalf("create signal: %v", err)
	}

	lead, err := store.Leads.Create(ctx, domain.Lead{
		SignalID: &signal.ID,
		Name:     "Jane Doe",
		Role:     domain.StringPtr("VP Engineering"),
		Company:  domain.StringPtr("Acme"),
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if lead.PipelineStatus != domain.PipelineNew || lead.Email != nil || lead.EnrichedAt != nil {
		t.Fatalf("unexpected lead: %+v", lead)
	}

	enrichedAt := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	lead.Email = domain.StringPtr("jane@acme.io")
	lead.PipelineStatus = domain.PipelineContacted
	lead.EnrichedAt = &enrichedAt
	lead.EnrichmentSource = domain.StringPtr("apollo")

	updated, err := store.Leads.Update(ctx, lead)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if domain.Deref(updated.Email) != "jane@acme.io" || updated.PipelineStatus != domain.PipelineContacted {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.EnrichedAt == nil || !updated.EnrichedAt.Equal(enrichedAt) {
		t.Fatalf("unexpected enrichedAt: %v", updated.EnrichedAt)
	}
	if !updated.UpdatedAt.After(lead.UpdatedAt) {
		t.Fatalf("updated_at not bumped: %s <= %s", updated.UpdatedAt, lead.UpdatedAt)
	}

	leads, err := store.Leads.List(ctx)
	if err != nil || len(leads) != 1 {
		t.Fatalf("list leads: %v %+v", err, leads)
	}

	counts, err := store.Leads.CountByStatus(ctx)
	if err != nil || counts["contacted"] != 1 {
		t.Fatalf("unexpected lead counts: %v %v", counts, err)
	}

	if _, err := store.Leads.Update(ctx, domain.Lead{ID: "missing", Name: "x", PipelineStatus: domain.PipelineNew}); !errors.Is(err, domain.ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestDraftAndTouchpointRepositories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	lead, err := store.Leads.Create(ctx, domain.Lead{Name: "Jane"})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}

	older, err := store.Drafts.Create(ctx, domain.Draft{
		LeadID:     lead.ID,
		Channel:    domain.ChannelLinkedIn,
		Content:    "hello",
		VariantKey: "short_cold_opener",
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	newer, err := store.Drafts.Create(ctx, domain.Draft{
		LeadID:     lead.ID,
		Channel:    domain.ChannelEmail,
		Subject:    domain.StringPtr("Quick question"),
		Content:    "body",
		VariantKey: "angle_metric",
		Angle:      domain.AnglePtr(domain.AngleMigrationRisk),
		Hypothesis: domain.StringPtr("Angle=Migration Risk"),
	})
	if err != nil {
		t.Fatalf("create second draft: %v", err)
	}

	drafts, err := store.Drafts.ListByLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 2 || drafts[0].ID != newer.ID || drafts[1].ID != older.ID {
		t.Fatalf("expected newest first: %+v", drafts)
	}
	if drafts[0].Angle == nil || *drafts[0].Angle != domain.AngleMigrationRisk || drafts[1].Subject != nil {
		t.Fatalf("unexpected optional fields: %+v", drafts)
	}

	older.Content = "edited"
	older.Subject = domain.StringPtr("New subject")
	edited, err := store.Drafts.Update(ctx, older)
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if edited.Content != "edited" || domain.Deref(edited.Subject) != "New subject" {
		t.Fatalf("draft not updated: %+v", edited)
	}

	planned, err := store.Touchpoints.Create(ctx, domain.Touchpoint{
		LeadID:  lead.ID,
		Channel: domain.ChannelEmail,
		Subject: domain.StringPtr("Following up"),
		Content: domain.StringPtr("ping"),
	})
	if err != nil {
		t.Fatalf("create touchpoint: %v", err)
	}
	if planned.Status != domain.TouchpointPlanned || planned.SentAt != nil {
		t.Fatalf("unexpected planned touchpoint: %+v", planned)
	}

	sentAt := time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)
	sent, err := store.Touchpoints.Create(ctx, domain.Touchpoint{
		LeadID:  lead.ID,
		DraftID: &newer.ID,
		Channel: domain.ChannelEmail,
		Status:  domain.TouchpointSent,
		SentAt:  &sentAt,
	})
	if err != nil {
		t.Fatalf("create sent touchpoint: %v", err)
	}

	if err := store.Touchpoints.MarkSent(ctx, planned.ID, sentAt, domain.StringPtr("msg_1")); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	touchpoints, err := store.Touchpoints.ListByLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("list touchpoints: %v", err)
	}
	if len(touchpoints) != 2 || touchpoints[0].ID != planned.ID || touchpoints[1].ID != sent.ID {
		t.Fatalf("expected oldest first: %+v", touchpoints)
	}
	if touchpoints[0].Status != domain.TouchpointSent || domain.Deref(touchpoints[0].ExternalID) != "msg_1" {
		t.Fatalf("mark sent not applied: %+v", touchpoints[0])
	}
	if domain.Deref(touchpoints[1].DraftID) != newer.ID {
		t.Fatalf("draft id not stored: %+v", touchpoints[1])
	}

	if err := store.Touchpoints.MarkSent(ctx, "missing", sentAt, nil); !errors.Is(err, domain.ErrTouchpointNotFound) {
		t.Fatalf("expected ErrTouchpointNotFound, got %v", err)
	}
	if _, err := store.Drafts.Get(ctx, "missing"); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestContextDocRepositoryKeepsOneActivePerType(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestStore(t).ContextDocs

	if _, err := repo.Active(ctx, domain.ContextICP); !errors.Is(err, domain.ErrContextDocNotFound) {
		t.Fatalf("expected ErrContextDocNotFound, got %v", err)
	}

	v1, err := repo.Create(ctx, domain.ContextDoc{Type: domain.ContextICP, Title: domain.StringPtr("v1"), Content: "a"})
	if err != nil {
		t.Fatalf("create v1: %v", err)
	}
	v2, err := repo.Create(ctx, domain.ContextDoc{Type: domain.ContextICP, Content: "b"})
	if err != nil {
		t.Fatalf("create v2: %v", err)
	}
	tone, err := repo.Create(ctx, domain.ContextDoc{Type: domain.ContextTone, Content: "friendly"})
	if err != nil {
		t.Fatalf("create tone: %v", err)
	}

	active, err := repo.Active(ctx, domain.ContextICP)
	if err != nil || active.ID != v2.ID {
		t.Fatalf("expected v2 active, got %+v (%v)", active, err)
	}

	if err := repo.SetActive(ctx, v1.ID); err != nil {
		t.Fatalf("set active: %v", err)
	}

	docs, err := repo.List(ctx, domain.ContextICP)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != v2.ID {
		t.Fatalf("expected newest first: %+v", docs)
	}
	if docs[0].IsActive || !docs[1].IsActive {
		t.Fatalf("expected only v1 active: %+v", docs)
	}

	if active, err := repo.Active(ctx, domain.ContextTone); err != nil || active.ID != tone.ID {
		t.Fatalf("tone doc should stay active: %+v (%v)", active, err)
	}

	if err := repo.SetActive(ctx, "missing"); !errors.Is(err, domain.ErrContextDocNotFound) {
		t.Fatalf("expected ErrContextDocNotFound, got %v", err)
	}
}
