package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("APOLLO_API_KEY is not configured, enter contact info manually")
	// ErrCompanyRequired is returned when the query has no organization.
	ErrCompanyRequired = errors.New("company name is required for Apollo enrichment")
	// ErrNoMatch is returned when Apollo knows no matching person.
	ErrNoMatch = errors.New("no matching person found in Apollo")
)

// Client talks to the Apollo people-match API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Enricher = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.ApolloConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Enrich matches a person by name (or title when no name is known) within a company.
func (c *Client) Enrich(ctx context.Context, query domain.EnrichmentQuery) (domain.EnrichedContact, error) {
	if c == nil || c.http == nil {
		return domain.EnrichedContact{}, fmt.Errorf("apollo client misconfigured")
	}
	if c.apiKey == "" {
		return domain.EnrichedContact{}, ErrNotConfigured
	}
	if strings.TrimSpace(query.Company) == "" {
		return domain.EnrichedContact{}, ErrCompanyRequired
	}

	payload := map[string]string{"organization_name": query.Company}
	if name := domain.Deref(query.Name); strings.TrimSpace(name) != "" {
		first, last := splitName(name)
		payload["first_name"] = first
		if last != "" {
			payload["last_name"] = last
		}
	} else if title := domain.Deref(query.Title); title != "" {
		payload["title"] = title
	}

	var resp struct {
		Person *struct {
			Email       string `json:"email"`
			LinkedInURL string `json:"linkedin_url"`
		} `json:"person"`
	}
	if err := c.post(ctx, payload, &resp); err != nil {
		return domain.EnrichedContact{}, err
	}
	if resp.Person == nil {
		return domain.EnrichedContact{}, ErrNoMatch
	}

	return domain.EnrichedContact{
		Email:       domain.StringPtr(resp.Person.Email),
		LinkedInURL: domain.StringPtr(resp.Person.LinkedInURL),
	}, nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (c *Client) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("apollo API error: unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
