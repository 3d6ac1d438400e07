package domain

import (
	"fmt"
	"time"
)

// TouchpointStatus distinguishes scheduled from delivered contacts.
type TouchpointStatus string

const (
	TouchpointPlanned TouchpointStatus = "planned"
	TouchpointSent    TouchpointStatus = "sent"
)

// Touchpoint records one outreach contact with a lead.
type Touchpoint struct {
	ID         string
	LeadID     string
	DraftID    *string
	Channel    Channel
	Status     TouchpointStatus
	Subject    *string
	Content    *string
	SentAt     *time.Time
	ExternalID *string
	CreatedAt  time.Time
}

// ContextDocType is the kind of guidance a context document provides.
type ContextDocType string

const (
	ContextSignals ContextDocType = "signals"
	ContextICP     ContextDocType = "icp"
	ContextTone    ContextDocType = "tone"
)

// ParseContextDocType validates a raw document type.
func ParseContextDocType(value string) (ContextDocType, error) {
	switch t := ContextDocType(value); t {
	case ContextSignals, ContextICP, ContextTone:
		return t, nil
	}
	return "", fmt.Errorf("unknown context doc type %q", value)
}

// ContextDoc is a versioned markdown document; at most one per type is active.
type ContextDoc struct {
	ID        string
	Type      ContextDocType
	Title     *string
	Content   string
	IsActive  bool
	CreatedAt time.Time
}
