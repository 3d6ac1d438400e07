package attio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ATTIO_API_KEY is not configured")

type value struct {
	Value string `json:"value"`
}

// Client upserts companies and people and attaches notes through the Attio v2 API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ports.CRM = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.AttioConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// UpsertCompany asserts a company record matched by name and returns its record id.
func (c *Client) UpsertCompany(ctx context.Context, name string) (string, error) {
	body := map[string]any{
		"data": map[string]any{
			"values": map[string][]value{"name": {{Value: name}}},
		},
	}

	var resp recordResponse
	if err := c.do(ctx, http.MethodPut, "/objects/companies/records?matching_attribute=name", body, &resp); err != nil {
		return "", fmt.Errorf("upsert company: %w", err)
	}
	return resp.Data.ID.RecordID, nil
}

// UpsertPerson asserts a person record matched by email, then linkedin, then name.
func (c *Client) UpsertPerson(ctx context.Context, person domain.CRMPerson) (string, error) {
	values := map[string][]value{"name": {{Value: person.Name}}}
	matching := "name"

	if v := domain.Deref(person.Title); v != "" {
		values["job_title"] = []value{{Value: v}}
	}
	if v := domain.Deref(person.LinkedInURL); v != "" {
		values["linkedin"] = []value{{Value: v}}
		matching = "linkedin"
	}
	if v := domain.Deref(person.Email); v != "" {
		values["email_addresses"] = []value{{Value: v}}
		matching = "email_addresses"
	}

	body := map[string]any{"data": map[string]any{"values": values}}
	path := "/objects/people/records?matching_attribute=" + url.QueryEscape(matching)

	var resp recordResponse
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		return "", fmt.Errorf("upsert person: %w", err)
	}
	return resp.Data.ID.RecordID, nil
}

// AddNote attaches a markdown note to a person record and returns the note id.
func (c *Client) AddNote(ctx context.Context, personID string, note domain.CRMNote) (string, error) {
	body := map[string]any{
		"data": map[string]any{
			"parent_object":    "people",
			"parent_record_id": personID,
			"title":            note.Title,
			"format":           "markdown",
			"content":          note.Markdown,
		},
	}

	var resp struct {
		Data struct {
			ID struct {
				NoteID string `json:"note_id"`
			} `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/notes", body, &resp); err != nil {
		return "", fmt.Errorf("add note: %w", err)
	}
	return resp.Data.ID.NoteID, nil
}

type recordResponse struct {
	Data struct {
		ID struct {
			RecordID string `json:"record_id"`
		} `json:"id"`
	} `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, payload, v any) error {
	if c == nil || c.http == nil || c.baseURL == "" {
		return fmt.Errorf("attio client misconfigured")
	}
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("attio API error: %s %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
