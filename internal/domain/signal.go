package domain

import (
	"fmt"
	"time"
)

// MaxExcerptLength caps excerpts produced by connectors.
const MaxExcerptLength = 500

// SignalStatus tracks the review lifecycle of a signal.
type SignalStatus string

const (
	SignalPending   SignalStatus = "pending"
	SignalReviewed  SignalStatus = "reviewed"
	SignalConverted SignalStatus = "converted"
	SignalDiscarded SignalStatus = "discarded"
)

// ParseSignalStatus validates a raw status string.
func ParseSignalStatus(value string) (SignalStatus, error) {
	switch s := SignalStatus(value); s {
	case SignalPending, SignalReviewed, SignalConverted, SignalDiscarded:
		return s, nil
	}
	return "", fmt.Errorf("%w: signal status %q", ErrInvalidStatus, value)
}

// Terminal reports whether no further review is expected.
func (s SignalStatus) Terminal() bool {
	return s == SignalConverted || s == SignalDiscarded
}

// Signal is a captured piece of public evidence.
type Signal struct {
	ID         string
	Source     string
	Excerpt    string
	Status     SignalStatus
	Angle      *Angle
	CapturedAt time.Time
	CreatedAt  time.Time
}

// ConnectorMeta describes a single ingestion run.
type ConnectorMeta struct {
	Source    string
	FetchedAt time.Time
	ItemCount int
}

// ConnectorResult is what a connector hands back to the ingestion pipeline.
type ConnectorResult struct {
	Signals []Signal
	Meta    ConnectorMeta
}

// TruncateExcerpt cuts text to MaxExcerptLength runes.
func TruncateExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxExcerptLength {
		return text
	}
	return string(runes[:MaxExcerptLength])
}

// SignalFilter narrows signal listings. Zero values match everything.
type SignalFilter struct {
	Status *SignalStatus
	Limit  int
}

// Feed is a configured connector input for scheduled ingestion.
type Feed struct {
	Name      string
	Connector string
	Input     string
}
