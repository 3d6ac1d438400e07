package attio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
)

func ptr(s string) *string { return &s }

func TestClientSyncFlow(t *testing.T) {
	t.Parallel()

	var personMatch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at_test" {
			t.Errorf("unexpected authorization: %q", r.Header.Get("Authorization"))
		}
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/v2/objects/companies/records":
			_, _ = w.Write([]byte(`{"data":{"id":{"record_id":"comp_1"}}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/v2/objects/people/records":
			personMatch = r.URL.Query().Get("matching_attribute")
			_, _ = w.Write([]byte(`{"data":{"id":{"record_id":"pers_1"}}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v2/notes":
			var body struct {
				Data map[string]string `json:"data"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Data["parent_record_id"] != "pers_1" || body.Data["content"] != "# note" {
				t.Errorf("unexpected note payload: %v", body.Data)
			}
			_, _ = w.Write([]byte(`{"data":{"id":{"note_id":"note_1"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(config.AttioConfig{BaseURL: srv.URL + "/v2/", APIKey: "at_test"})
	c.http = srv.Client()
	ctx := context.Background()

	companyID, err := c.UpsertCompany(ctx, "Acme")
	if err != nil || companyID != "comp_1" {
		t.Fatalf("upsert company: %s %v", companyID, err)
	}

	personID, err := c.UpsertPerson(ctx, domain.CRMPerson{Name: "Ada", LinkedInURL: ptr("https://linkedin.com/in/ada")})
	if err != nil || personID != "pers_1" {
		t.Fatalf("upsert person: %s %v", personID, err)
	}
	if personMatch != "linkedin" {
		t.Fatalf("expected linkedin matching, got %q", personMatch)
	}

	if _, err := c.UpsertPerson(ctx, domain.CRMPerson{Name: "Ada", Email: ptr("ada@acme.io"), LinkedInURL: ptr("x")}); err != nil {
		t.Fatalf("upsert person: %v", err)
	}
	if personMatch != "email_addresses" {
		t.Fatalf("expected email matching, got %q", personMatch)
	}

	noteID, err := c.AddNote(ctx, personID, domain.CRMNote{Title: "sync", Markdown: "# note"})
	if err != nil || noteID != "note_1" {
		t.Fatalf("add note: %s %v", noteID, err)
	}
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.AttioConfig{BaseURL: "http://unused"}).UpsertCompany(context.Background(), "Acme"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(config.AttioConfig{BaseURL: srv.URL, APIKey: "at_test"})
	c.http = srv.Client()
	if _, err := c.UpsertPerson(context.Background(), domain.CRMPerson{Name: "Ada"}); err == nil {
		t.Fatal("expected API error")
	}
}
