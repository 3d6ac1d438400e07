// Package angle maps signal excerpts to an outreach angle by keyword priority.
package angle

import (
	"fmt"
	"sort"
	"strings"

	"GTMEngine/internal/domain"
)

const noMatchReason = "No matching keywords found"

// Result is the winning angle (nil when nothing matched) plus one reason per matching rule.
type Result struct {
	Angle   *domain.Angle `json:"angle"`
	Reasons []string      `json:"reasons"`
}

type rule struct {
	angle    domain.Angle
	keywords []string
	priority int
}

// rules are checked in this order; keyword order inside a rule decides which hit is reported.
var rules = []rule{
	{
		angle:    domain.AngleIncidentReduction,
		keywords: []string{"incident", "rollback", "outage", "downtime", "failure", "crash", "alert"},
		priority: 1,
	},
	{
		angle:    domain.AnglePolicyEnforcement,
		keywords: []string{"policy", "enforce", "review", "approval", "gate", "governance"},
		priority: 2,
	},
	{
		angle:    domain.AngleMigrationRisk,
		keywords: []string{"migrate", "microservices", "auth", "legacy", "modernize", "rewrite", "refactor"},
		priority: 3,
	},
	{
		angle:    domain.AngleDeveloperExperience,
		keywords: []string{"developer experience", "devex", "productivity", "friction", "onboarding", "dx", "velocity"},
		priority: 4,
	},
	{
		angle:    domain.AngleComplianceAuditability,
		keywords: []string{"compliance", "audit", "regulation", "soc2", "gdpr", "hipaa", "security"},
		priority: 5,
	},
	{
		angle:    domain.AngleSpeedVsSafety,
		keywords: []string{"speed", "velocity", "fast", "safe", "safety", "trade-off", "tradeoff", "balance"},
		priority: 6,
	},
}

type match struct {
	angle    domain.Angle
	keyword  string
	priority int
}

// Classify returns the highest-priority angle whose keywords appear in excerpt.
func Classify(excerpt string) Result {
	lower := strings.ToLower(excerpt)

	var matches []match
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				matches = append(matches, match{angle: r.angle, keyword: kw, priority: r.priority})
				break
			}
		}
	}

	if len(matches) == 0 {
		return Result{Reasons: []string{noMatchReason}}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].priority < matches[j].priority
	})

	reasons := make([]string, 0, len(matches))
	for _, m := range matches {
		reasons = append(reasons, fmt.Sprintf("Matched %q → %s", m.keyword, m.angle))
	}

	winner := matches[0].angle
	return Result{Angle: &winner, Reasons: reasons}
}
