package drafting

import (
	"fmt"
	"strings"

	"GTMEngine/internal/domain"
)

const followUpExcerptLength = 60

var angleTopics = map[domain.Angle]string{
	domain.AngleIncidentReduction:      "incident reduction",
	domain.AngleSpeedVsSafety:          "balancing speed and safety",
	domain.AnglePolicyEnforcement:      "policy enforcement",
	domain.AngleMigrationRisk:          "migration challenges",
	domain.AngleDeveloperExperience:    "developer experience",
	domain.AngleComplianceAuditability: "compliance and auditability",
}

// FollowUp is a single planned email after the first touch.
type FollowUp struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// FollowUps holds the two-step follow-up sequence.
type FollowUps struct {
	First  FollowUp `json:"followUp1"`
	Second FollowUp `json:"followUp2"`
}

// GenerateFollowUps renders the template follow-up sequence used when no LLM is configured.
func GenerateFollowUps(lead Lead, signal Signal) FollowUps {
	first := firstName(lead.Name)
	company, ok := present(lead.Company)
	if !ok {
		company = "your company"
	}

	return FollowUps{
		First: FollowUp{
			Subject: "Following up",
			Content: strings.Join([]string{
				"Hi " + first + ",",
				fmt.Sprintf("Wanted to quickly follow up on my previous message about %s. Would love to hear your thoughts when you have a moment.", angleTopic(signal.Angle)),
				"Best",
			}, "\n\n"),
		},
		Second: FollowUp{
			Subject: "One more thought for " + company,
			Content: strings.Join([]string{
				"Hi " + first + ",",
				fmt.Sprintf("Following up on my earlier outreach regarding \"%s\".", shortExcerpt(signal.Excerpt)),
				company + " seems like a great fit for what we're building. Happy to share more specifics if helpful.",
				"Let me know if you'd like to connect.",
				"Best",
			}, "\n\n"),
		},
	}
}

func firstName(name *string) string {
	n, ok := present(name)
	if !ok {
		return "there"
	}
	first, _, _ := strings.Cut(n, " ")
	return first
}

func angleTopic(angle *domain.Angle) string {
	if angle == nil {
		return "your recent activity"
	}
	if topic, ok := angleTopics[*angle]; ok {
		return topic
	}
	return "your recent activity"
}

func shortExcerpt(excerpt string) string {
	if len([]rune(excerpt)) <= followUpExcerptLength {
		return excerpt
	}
	return strings.TrimSpace(truncateRunes(excerpt, followUpExcerptLength)) + "..."
}
