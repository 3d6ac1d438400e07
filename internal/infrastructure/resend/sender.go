package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("RESEND_API_KEY is not configured")

// Sender delivers plain-text email through the Resend API.
type Sender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ ports.EmailSender = (*Sender)(nil)

// NewSender registers the API endpoint and key.
func NewSender(cfg config.ResendConfig) *Sender {
	return &Sender{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the email and returns the Resend message id.
func (s *Sender) Send(ctx context.Context, email domain.OutboundEmail) (string, error) {
	if s == nil || s.client == nil || s.endpoint == "" {
		return "", fmt.Errorf("resend sender misconfigured")
	}
	if s.apiKey == "" {
		return "", ErrNotConfigured
	}
	if err := validate(email); err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{
		"from":    email.From,
		"to":      []string{email.To},
		"subject": email.Subject,
		"text":    email.Text,
	})
	if err != nil {
		return "", fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)

	if resp.StatusCode >= http.StatusBadRequest {
		if decodeErr == nil && decoded.Message != "" {
			return "", fmt.Errorf("resend error %s: %s", resp.Status, decoded.Message)
		}
		return "", fmt.Errorf("resend error: %s", resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}

	return decoded.ID, nil
}

func validate(email domain.OutboundEmail) error {
	switch {
	case email.To == "":
		return fmt.Errorf("recipient email address is required")
	case email.From == "":
		return fmt.Errorf("sender email address is required")
	case email.Subject == "":
		return fmt.Errorf("email subject is required")
	case email.Text == "":
		return fmt.Errorf("email content is required")
	}
	return nil
}
