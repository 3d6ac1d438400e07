// Package prompt builds LLM chat prompts for outreach drafting and parses the structured replies.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"GTMEngine/internal/domain"
)

const (
	defaultDraftTone    = "short, technical, direct"
	defaultFollowUpTone = "short, professional, friendly"
	noLeadDetails       = "No lead details available - use a generic greeting"
	isoMillis           = "2006-01-02T15:04:05.000Z"
)

const draftSystemPrompt = `You are a professional outreach message writer. Your job is to write personalized, evidence-based messages for sales outreach.

CRITICAL RULES:
1. ONLY use facts from the provided lead and signal information
2. NEVER invent, assume, or hallucinate any facts about the person or company
3. ALWAYS cite the source when referencing the signal
4. If information is missing, either omit that line or ask a safe question
5. Keep messages concise and professional
6. For LinkedIn: max 80 words
7. For Email: max 120 words

ANGLE-BASED FRAMING:
When an angle is provided, use it to frame your message:
- incident_reduction: Focus on reducing incidents/outages
- speed_vs_safety: Balance between moving fast and staying safe
- policy_enforcement: Automated policy and governance
- migration_risk: Safe migrations and modernization
- developer_experience: Improving developer productivity
- compliance_auditability: Meeting compliance requirements

Create a hypothesis explaining why this angle will resonate, based ONLY on the signal excerpt and ICP information provided.

OUTPUT FORMAT:
You must respond with valid JSON in this exact format:
{
  "subject": "string or null (required for email, null for LinkedIn)",
  "content": "string (the message body)",
  "variantKey": "string (unique identifier for this variant)",
  "citations_used": ["array of strings referencing excerpt/sourceUrl used"],
  "angle": "string or null (the angle used)",
  "hypothesis": "string or null (why this angle will resonate, based on signal/ICP)"
}

Do NOT include any text outside the JSON object.`

// Lead is the lead context exposed to the model.
type Lead struct {
	Name    *string
	Role    *string
	Company *string
}

// Signal is the signal context exposed to the model.
type Signal struct {
	Excerpt    string
	SourceURL  string
	CapturedAt time.Time
	Angle      *domain.Angle
}

// FromDomain adapts a lead and its optional source signal.
func FromDomain(lead domain.Lead, signal *domain.Signal) (Lead, Signal) {
	l := Lead{Name: domain.StringPtr(lead.Name), Role: lead.Role, Company: lead.Company}
	if signal == nil {
		return l, Signal{}
	}
	return l, Signal{
		Excerpt:    signal.Excerpt,
		SourceURL:  signal.Source,
		CapturedAt: signal.CapturedAt,
		Angle:      signal.Angle,
	}
}

// DraftRequest describes one draft variant to request from the model.
type DraftRequest struct {
	Lead          Lead
	Signal        Signal
	Channel       domain.Channel
	Tone          string
	VariantNumber int
	Framing       *domain.Framing
	ICP           *domain.IcpScore
}

// DraftOutput is a validated draft reply.
type DraftOutput struct {
	Subject       *string
	Content       string
	VariantKey    string
	CitationsUsed []string
	Angle         *string
	Hypothesis    *string
}

// BuildDraft returns the system and user messages for one draft variant.
func BuildDraft(req DraftRequest) []domain.ChatMessage {
	tone := req.Tone
	if tone == "" {
		tone = defaultDraftTone
	}

	var angleInfo string
	if req.Signal.Angle != nil && req.Signal.Angle.Valid() {
		angleInfo = fmt.Sprintf("\nANGLE: %s (%s)", *req.Signal.Angle, req.Signal.Angle.Label())
	}

	var framingInfo string
	if req.Framing != nil {
		benefit := "risk-based concerns"
		if *req.Framing == domain.FramingMetric {
			benefit = "metric-based benefits"
		}
		framingInfo = fmt.Sprintf("\nFRAMING: %s (use %s in your hook)", *req.Framing, benefit)
	}

	var icpInfo string
	if req.ICP != nil && len(req.ICP.Reasons) > 0 {
		icpInfo = "\nICP SCORING REASONS:\n" + bulletList(req.ICP.Reasons)
	}

	lengthRule := "Keep under 120 words. Include a subject line."
	if req.Channel == domain.ChannelLinkedIn {
		lengthRule = "Keep under 80 words. No subject needed."
	}

	var angleRule string
	if req.Signal.Angle != nil && *req.Signal.Angle != "" {
		angleRule = fmt.Sprintf("Use the %s angle to frame your message. Generate a hypothesis explaining why this angle will resonate based on the signal excerpt and ICP reasons above.", *req.Signal.Angle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s outreach message (variant %d) with the following context:\n\n", req.Channel, req.VariantNumber)
	fmt.Fprintf(&b, "LEAD INFORMATION:\n%s\n\n", leadInfo(req.Lead))
	fmt.Fprintf(&b, "SIGNAL INFORMATION:\nExcerpt: \"%s\"\nSource URL: %s\nCaptured: %s%s%s\n\n",
		req.Signal.Excerpt, req.Signal.SourceURL, req.Signal.CapturedAt.UTC().Format(isoMillis), angleInfo, icpInfo)
	fmt.Fprintf(&b, "CHANNEL: %s\nTONE: %s%s\nVARIANT: %d (create a unique angle/approach)\n\n", req.Channel, tone, framingInfo, req.VariantNumber)
	fmt.Fprintf(&b, "%s\n\n%s\n\n", lengthRule, angleRule)
	b.WriteString("Remember: ONLY reference facts from the lead/signal above. Do not make up any details.")

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: draftSystemPrompt},
		{Role: domain.RoleUser, Content: b.String()},
	}
}

type draftReply struct {
	Subject       *string  `json:"subject"`
	Content       *string  `json:"content"`
	VariantKey    *string  `json:"variantKey"`
	CitationsUsed []string `json:"citations_used"`
	Angle         *string  `json:"angle"`
	Hypothesis    *string  `json:"hypothesis"`
}

// ParseDraftResponse extracts the outermost JSON object of a reply and validates the draft fields.
func ParseDraftResponse(response string) (DraftOutput, error) {
	raw, err := extractJSON(response)
	if err != nil {
		return DraftOutput{}, err
	}

	var reply draftReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return DraftOutput{}, invalid("invalid JSON", err)
	}
	if reply.Content == nil || *reply.Content == "" {
		return DraftOutput{}, invalid("missing or invalid 'content' field", nil)
	}
	if reply.VariantKey == nil || *reply.VariantKey == "" {
		return DraftOutput{}, invalid("missing or invalid 'variantKey' field", nil)
	}
	if reply.CitationsUsed == nil {
		return DraftOutput{}, invalid("missing or invalid 'citations_used' field", nil)
	}

	return DraftOutput{
		Subject:       nonEmpty(reply.Subject),
		Content:       *reply.Content,
		VariantKey:    *reply.VariantKey,
		CitationsUsed: reply.CitationsUsed,
		Angle:         nonEmpty(reply.Angle),
		Hypothesis:    nonEmpty(reply.Hypothesis),
	}, nil
}

func leadInfo(l Lead) string {
	var lines []string
	if l.Name != nil && *l.Name != "" {
		lines = append(lines, "Name: "+*l.Name)
	}
	if l.Role != nil && *l.Role != "" {
		lines = append(lines, "Role: "+*l.Role)
	}
	if l.Company != nil && *l.Company != "" {
		lines = append(lines, "Company: "+*l.Company)
	}
	if len(lines) == 0 {
		return noLeadDetails
	}
	return strings.Join(lines, "\n")
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// extractJSON returns the span from the first '{' to the last '}'.
func extractJSON(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return "", invalid("no JSON found", nil)
	}
	return response[start : end+1], nil
}

func invalid(msg string, err error) error {
	return &domain.LLMError{Code: domain.LLMInvalidResponse, Message: "parse llm response: " + msg, Err: err}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
