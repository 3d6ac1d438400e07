package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"GTMEngine/internal/domain"
)

func TestCRMServiceSyncLead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	crm := &fakeCRM{}
	svc := NewCRMService(CRMDeps{
		Leads:       memLeads{store},
		Signals:     memSignals{store},
		Drafts:      memDrafts{store},
		Touchpoints: memTouchpoints{store},
		ContextDocs: memDocs{store},
		CRM:         crm,
		Now:         fixedClock,
	})

	_, lead := seedLead(store, "Our outage", domain.AnglePtr(domain.AngleIncidentReduction), domain.Lead{
		Name:    "Jane Doe",
		Role:    domain.StringPtr("VP Engineering"),
		Company: domain.StringPtr("Acme"),
		Email:   domain.StringPtr("jane@acme.io"),
	})
	_, _ = memDrafts{store}.Create(ctx, domain.Draft{
		LeadID:     lead.ID,
		Channel:    domain.ChannelEmail,
		Subject:    domain.StringPtr("Quick note"),
		Content:    "Hey Jane",
		VariantKey: "short_cold_opener_v1",
	})

	res, err := svc.SyncLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.CompanyID != "company-1" || res.PersonID != "person-1" || res.NoteID != "note-1" {
		t.Fatalf("unexpected ids: %+v", res)
	}
	if len(crm.companies) != 1 || crm.companies[0] != "Acme" {
		t.Fatalf("unexpected companies: %v", crm.companies)
	}
	if p := crm.people[0]; p.Name != "Jane Doe" || domain.Deref(p.Email) != "jane@acme.io" || domain.Deref(p.Title) != "VP Engineering" {
		t.Fatalf("unexpected person: %+v", p)
	}

	note := crm.notes["person-1"]
	for _, want := range []string{"## ICP Score: 60/100", "> Our outage", "Angle: Incident Reduction", "### short_cold_opener_v1 (email)", "Pipeline status: new"} {
		if !strings.Contains(note.Markdown, want) {
			t.Fatalf("note missing %q:\n%s", want, note.Markdown)
		}
	}
	if note.Title != "GTM Engine: Jane Doe" {
		t.Fatalf("unexpected note title: %q", note.Title)
	}

	stored, _ := memLeads{store}.Get(ctx, lead.ID)
	if stored.AttioSyncedAt == nil || !stored.AttioSyncedAt.Equal(fixedClock()) {
		t.Fatalf("sync time not stamped: %v", stored.AttioSyncedAt)
	}
}

func TestCRMServiceSkipsCompanyWhenMissing(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	crm := &fakeCRM{}
	svc := NewCRMService(CRMDeps{
		Leads:       memLeads{store},
		Signals:     memSignals{store},
		Drafts:      memDrafts{store},
		Touchpoints: memTouchpoints{store},
		CRM:         crm,
	})
	lead, _ := memLeads{store}.Create(context.Background(), domain.Lead{Name: "Solo"})

	res, err := svc.SyncLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.CompanyID != "" || len(crm.companies) != 0 {
		t.Fatalf("company should not be upserted: %+v", res)
	}
}

func TestBuildCRMNoteListsTouchpoints(t *testing.T) {
	t.Parallel()

	sentAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	note := BuildCRMNote(
		domain.Lead{Name: "Jane", PipelineStatus: domain.PipelineContacted},
		nil,
		domain.IcpScore{Score: 0, Reasons: []string{"No strong ICP match"}},
		nil,
		[]domain.Touchpoint{
			{Channel: domain.ChannelEmail, SentAt: &sentAt, Subject: domain.StringPtr("Quick note")},
			{Channel: domain.ChannelEmail},
		},
	)

	want := "- email: sent 2024-05-01T09:00:00Z (Quick note)\n- email: planned"
	if !strings.Contains(note.Markdown, want) {
		t.Fatalf("touchpoint lines missing:\n%s", note.Markdown)
	}
	if strings.Contains(note.Markdown, "## Source Signal") {
		t.Fatal("no signal section expected without a signal")
	}
}
