package domain

import (
	"fmt"
	"time"
)

// Channel is the outreach medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelLinkedIn Channel = "linkedin"
)

// ParseChannel validates a raw channel.
func ParseChannel(value string) (Channel, error) {
	switch c := Channel(value); c {
	case ChannelEmail, ChannelLinkedIn:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChannel, value)
}

// Variant selects a non-angle template.
type Variant string

const (
	VariantShortColdOpener Variant = "short_cold_opener"
	VariantValueFirst      Variant = "value_first"
)

// ParseVariant validates a raw template variant.
func ParseVariant(value string) (Variant, error) {
	switch v := Variant(value); v {
	case VariantShortColdOpener, VariantValueFirst:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVariant, value)
}

// Framing is the rhetorical hook used by angle drafts.
type Framing string

const (
	FramingMetric Framing = "metric"
	FramingRisk   Framing = "risk"
)

// GeneratedDraft is the output of a generator before persistence assigns identity.
type GeneratedDraft struct {
	Channel    Channel `json:"channel"`
	Subject    *string `json:"subject"`
	Content    string  `json:"content"`
	VariantKey string  `json:"variantKey"`
	Angle      *Angle  `json:"angle"`
	Hypothesis *string `json:"hypothesis"`
}

// Draft is a persisted outreach message.
type Draft struct {
	ID         string
	LeadID     string
	Channel    Channel
	Subject    *string
	Content    string
	VariantKey string
	Angle      *Angle
	Hypothesis *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewDraft binds a generated draft to a lead.
func NewDraft(leadID string, g GeneratedDraft) Draft {
	return Draft{
		LeadID:     leadID,
		Channel:    g.Channel,
		Subject:    g.Subject,
		Content:    g.Content,
		VariantKey: g.VariantKey,
		Angle:      g.Angle,
		Hypothesis: g.Hypothesis,
	}
}
