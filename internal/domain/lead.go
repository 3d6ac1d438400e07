package domain

import (
	"fmt"
	"time"
)

// PipelineStatus is the outreach stage of a lead.
type PipelineStatus string

const (
	PipelineNew           PipelineStatus = "new"
	PipelineContacted     PipelineStatus = "contacted"
	PipelineReplied       PipelineStatus = "replied"
	PipelineMeetingBooked PipelineStatus = "meeting_booked"
	PipelineNotInterested PipelineStatus = "not_interested"
)

// ParsePipelineStatus validates a raw pipeline status.
func ParsePipelineStatus(value string) (PipelineStatus, error) {
	switch s := PipelineStatus(value); s {
	case PipelineNew, PipelineContacted, PipelineReplied, PipelineMeetingBooked, PipelineNotInterested:
		return s, nil
	}
	return "", fmt.Errorf("%w: pipeline status %q", ErrInvalidStatus, value)
}

// IsPaused reports whether follow-ups must stop for this stage.
func (s PipelineStatus) IsPaused() bool {
	switch s {
	case PipelineReplied, PipelineMeetingBooked, PipelineNotInterested:
		return true
	}
	return false
}

// Lead is a named prospect derived from a signal.
type Lead struct {
	ID               string
	SignalID         *string
	Name             string
	Role             *string
	Company          *string
	Email            *string
	LinkedInURL      *string
	PipelineStatus   PipelineStatus
	EnrichedAt       *time.Time
	EnrichmentSource *string
	AttioSyncedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IcpScore is computed on demand and never stored.
type IcpScore struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// IcpConfig overrides the default scoring keyword lists.
type IcpConfig struct {
	Keywords     []string
	UrgencyTerms []string
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed value or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
