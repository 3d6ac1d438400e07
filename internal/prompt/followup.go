package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/drafting"
)

const followUpSystemPrompt = `You are a professional sales follow-up writer. Your job is to write brief, personalized follow-up messages for outreach sequences.

CRITICAL RULES:
1. ONLY use facts from the provided lead, signal, and previous message information
2. NEVER invent, assume, or hallucinate any facts about the person or company
3. Keep follow-ups SHORT and to the point
4. Reference the previous outreach naturally without being pushy
5. Be professional but human

FOLLOW-UP TYPES:
1. Short Bump (max 50 words): Brief check-in that references the previous message
2. Value-Add Bump (max 80 words): Provide an additional insight or value point

OUTPUT FORMAT:
You must respond with valid JSON in this exact format:
{
  "followUp1": {
    "subject": "string (email subject for short bump)",
    "content": "string (the short bump message body, max 50 words)"
  },
  "followUp2": {
    "subject": "string (email subject for value-add bump)",
    "content": "string (the value-add message body, max 80 words)"
  }
}

Do NOT include any text outside the JSON object.`

// FollowUpRequest is the context for generating a follow-up sequence.
type FollowUpRequest struct {
	Lead             Lead
	Signal           Signal
	Tone             string
	ICP              *domain.IcpScore
	PreviousMessages []string
}

// BuildFollowUp returns the system and user messages for a two-step follow-up sequence.
func BuildFollowUp(req FollowUpRequest) []domain.ChatMessage {
	tone := req.Tone
	if tone == "" {
		tone = defaultFollowUpTone
	}

	var angleInfo string
	if req.Signal.Angle != nil && req.Signal.Angle.Valid() {
		angleInfo = fmt.Sprintf("\nAngle: %s (%s)", *req.Signal.Angle, req.Signal.Angle.Label())
	}

	var icpInfo string
	if req.ICP != nil && len(req.ICP.Reasons) > 0 {
		icpInfo = fmt.Sprintf("\nICP Score: %d/100\nReasons:\n%s", req.ICP.Score, bulletList(req.ICP.Reasons))
	}

	previous := "\nNo previous messages sent yet (assume this is after the initial outreach)."
	if len(req.PreviousMessages) > 0 {
		blocks := make([]string, len(req.PreviousMessages))
		for i, m := range req.PreviousMessages {
			blocks[i] = fmt.Sprintf("Message %d:\n%s", i+1, m)
		}
		previous = "\nPREVIOUS MESSAGES SENT:\n" + strings.Join(blocks, "\n\n")
	}

	var b strings.Builder
	b.WriteString("Generate 2 email follow-up messages for this lead:\n\n")
	fmt.Fprintf(&b, "LEAD INFORMATION:\n%s\n\n", leadInfo(req.Lead))
	fmt.Fprintf(&b, "SIGNAL CONTEXT:\nExcerpt: \"%s\"\nSource URL: %s%s\n\n", req.Signal.Excerpt, req.Signal.SourceURL, angleInfo)
	fmt.Fprintf(&b, "%s\n%s\n\n", icpInfo, previous)
	fmt.Fprintf(&b, "TONE: %s\n\n", tone)
	b.WriteString("Generate:\n")
	b.WriteString("1. Short Bump (max 50 words): A brief, friendly check-in referencing the previous outreach\n")
	b.WriteString("2. Value-Add Bump (max 80 words): Provide additional insight or value, reference the signal context\n\n")
	b.WriteString("Remember: ONLY use facts provided above. Do not invent details.")

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: followUpSystemPrompt},
		{Role: domain.RoleUser, Content: b.String()},
	}
}

type followUpReply struct {
	Subject *string `json:"subject"`
	Content *string `json:"content"`
}

// ParseFollowUpResponse validates a follow-up reply, defaulting missing subjects.
func ParseFollowUpResponse(response string) (drafting.FollowUps, error) {
	raw, err := extractJSON(response)
	if err != nil {
		return drafting.FollowUps{}, err
	}

	var reply struct {
		First  *followUpReply `json:"followUp1"`
		Second *followUpReply `json:"followUp2"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return drafting.FollowUps{}, invalid("invalid JSON", err)
	}
	if reply.First == nil || reply.Second == nil {
		return drafting.FollowUps{}, invalid("missing followUp1 or followUp2", nil)
	}
	if reply.First.Content == nil || reply.Second.Content == nil {
		return drafting.FollowUps{}, invalid("missing content in follow-up messages", nil)
	}

	return drafting.FollowUps{
		First:  drafting.FollowUp{Subject: subjectOr(reply.First.Subject, "Following up"), Content: *reply.First.Content},
		Second: drafting.FollowUp{Subject: subjectOr(reply.Second.Subject, "One more thought"), Content: *reply.Second.Content},
	}, nil
}

func subjectOr(subject *string, fallback string) string {
	if subject == nil || *subject == "" {
		return fallback
	}
	return *subject
}
