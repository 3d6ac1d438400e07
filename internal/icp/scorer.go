// Package icp scores how well a lead fits the Ideal Customer Profile.
package icp

import (
	"fmt"
	"strings"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/markdown"
)

const (
	rolePoints    = 30
	companyPoints = 20
	urgencyPoints = 10
	maxScore      = 100

	noMatchReason = "No strong ICP match"
)

// DefaultRoleKeywords apply when the active ICP document does not override them.
var DefaultRoleKeywords = []string{
	"platform",
	"security",
	"devex",
	"developer experience",
	"infrastructure",
	"devops",
	"sre",
	"engineering",
	"architect",
	"cto",
	"vp engineering",
	"head of",
	"director",
}

// DefaultUrgencyTerms apply when the active ICP document does not override them.
var DefaultUrgencyTerms = []string{
	"incident",
	"rollback",
	"policy",
	"outage",
	"urgent",
	"critical",
	"breaking",
	"failed",
	"failure",
	"downtime",
	"breach",
	"vulnerability",
}

// Lead is the subset of lead fields the scorer reads.
type Lead struct {
	Role    *string
	Company *string
}

// Signal is the subset of signal fields the scorer reads.
type Signal struct {
	Excerpt string
}

// FromLead adapts a domain lead.
func FromLead(l domain.Lead) Lead {
	return Lead{Role: l.Role, Company: l.Company}
}

// FromSignal adapts an optional domain signal.
func FromSignal(s *domain.Signal) *Signal {
	if s == nil {
		return nil
	}
	return &Signal{Excerpt: s.Excerpt}
}

// Score computes the fit score. icpDoc is the raw active ICP document, if any; a document
// whose frontmatter lists keywords or urgencyTerms replaces the matching default list.
func Score(lead Lead, signal *Signal, icpDoc *string) domain.IcpScore {
	roleKeywords, urgencyTerms := resolveKeywords(icpDoc)

	var (
		score   int
		reasons []string
	)

	if lead.Role != nil {
		if kw, ok := firstContained(strings.ToLower(*lead.Role), roleKeywords); ok {
			score += rolePoints
			reasons = append(reasons, fmt.Sprintf("Role contains \"%s\" (+%d)", kw, rolePoints))
		}
	}

	if lead.Company != nil && *lead.Company != "" {
		score += companyPoints
		reasons = append(reasons, fmt.Sprintf("Company present: \"%s\" (+%d)", *lead.Company, companyPoints))
	}

	if signal != nil && signal.Excerpt != "" {
		if term, ok := firstContained(strings.ToLower(signal.Excerpt), urgencyTerms); ok {
			score += urgencyPoints
			reasons = append(reasons, fmt.Sprintf("Signal contains urgency term \"%s\" (+%d)", term, urgencyPoints))
		}
	}

	if len(reasons) == 0 {
		reasons = []string{noMatchReason}
	}

	return domain.IcpScore{Score: clampScore(score), Reasons: reasons}
}

func clampScore(score int) int {
	return max(0, min(score, maxScore))
}

func resolveKeywords(icpDoc *string) (roles, urgency []string) {
	roles, urgency = DefaultRoleKeywords, DefaultUrgencyTerms
	if icpDoc == nil || *icpDoc == "" {
		return roles, urgency
	}

	cfg := markdown.ExtractIcpConfig(*icpDoc)
	if cfg == nil {
		return roles, urgency
	}
	if len(cfg.Keywords) > 0 {
		roles = cfg.Keywords
	}
	if len(cfg.UrgencyTerms) > 0 {
		urgency = cfg.UrgencyTerms
	}
	return roles, urgency
}

func firstContained(text string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.Contains(text, c) {
			return c, true
		}
	}
	return "", false
}
