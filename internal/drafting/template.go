// Package drafting renders deterministic outreach drafts from lead and signal context.
//
// Every generator here is pure: identical inputs always produce byte-identical drafts.
package drafting

import (
	"fmt"
	"regexp"
	"strings"

	"GTMEngine/internal/domain"
)

const (
	hypothesisExcerptLength = 50
	signoff                 = "Best regards"
)

var pointsSuffix = regexp.MustCompile(`\s*\(\+\d+\)$`)

// Lead is the lead context a template needs.
type Lead struct {
	Name    *string
	Role    *string
	Company *string
}

// Signal is the signal context a template needs.
type Signal struct {
	Excerpt string
	Source  string
	Angle   *domain.Angle
}

// FromLead adapts a domain lead.
func FromLead(l domain.Lead) Lead {
	return Lead{Name: domain.StringPtr(l.Name), Role: l.Role, Company: l.Company}
}

// FromSignal adapts a domain signal.
func FromSignal(s domain.Signal) Signal {
	return Signal{Excerpt: s.Excerpt, Source: s.Source, Angle: s.Angle}
}

// GenerateDraft renders one of the fixed non-angle templates.
func GenerateDraft(lead Lead, signal Signal, channel domain.Channel, variant domain.Variant) domain.GeneratedDraft {
	switch variant {
	case domain.VariantShortColdOpener:
		return shortColdOpener(lead, signal, channel)
	case domain.VariantValueFirst:
		return valueFirst(lead, signal, channel)
	}
	return valueFirst(lead, signal, channel)
}

// GenerateAngleDrafts renders the metric and risk framings for the signal's angle, in that order.
// Without an angle both drafts degrade to the value-first template.
func GenerateAngleDrafts(lead Lead, signal Signal, channel domain.Channel, icp *domain.IcpScore) [2]domain.GeneratedDraft {
	return [2]domain.GeneratedDraft{
		angleDraft(lead, signal, channel, domain.FramingMetric, icp),
		angleDraft(lead, signal, channel, domain.FramingRisk, icp),
	}
}

func shortColdOpener(lead Lead, signal Signal, channel domain.Channel) domain.GeneratedDraft {
	var mention string
	if role, ok := present(lead.Role); ok {
		mention += " as " + role
	}
	company, hasCompany := present(lead.Company)
	if hasCompany {
		mention += " at " + company
	}

	body := render(channel, signal.Source,
		[]string{
			greeting(lead.Name) + ",",
			"I came across this and thought of you" + mention + ":",
			quote(signal.Excerpt),
		},
		"Would love to connect and hear your thoughts.",
		"Would love to connect and hear your thoughts.",
	)

	subject := "Quick note"
	if hasCompany {
		subject += " re: " + company
	}

	return domain.GeneratedDraft{
		Channel:    channel,
		Subject:    emailSubject(channel, subject),
		Content:    body,
		VariantKey: "short_cold_opener_v1",
		Angle:      signal.Angle,
	}
}

func valueFirst(lead Lead, signal Signal, channel domain.Channel) domain.GeneratedDraft {
	company := companyOrTeam(lead.Company)
	role, ok := present(lead.Role)
	if !ok {
		role = "professional"
	}

	interest := fmt.Sprintf("As a %s, you might find this interesting. I'd love to share some ideas on how to leverage this.", role)
	body := render(channel, signal.Source,
		[]string{
			greeting(lead.Name) + ",",
			"I noticed something that might be relevant to " + company + ":",
			quote(signal.Excerpt),
		},
		interest+"\n\nOpen to a quick chat?",
		interest+"\n\nWould you be open to a quick chat?",
	)

	return domain.GeneratedDraft{
		Channel:    channel,
		Subject:    emailSubject(channel, "Insight for "+company),
		Content:    body,
		VariantKey: "value_first_v1",
		Angle:      signal.Angle,
	}
}

func angleDraft(lead Lead, signal Signal, channel domain.Channel, framing domain.Framing, icp *domain.IcpScore) domain.GeneratedDraft {
	if signal.Angle == nil {
		return valueFirst(lead, signal, channel)
	}
	angle := *signal.Angle

	company := companyOrTeam(lead.Company)
	hook := AngleHook(angle, framing)
	hypothesis := Hypothesis(angle, signal.Excerpt, icp)

	body := render(channel, signal.Source,
		[]string{
			greeting(lead.Name) + ",",
			"I noticed this about " + company + ":",
			quote(signal.Excerpt),
		},
		hook+"\n\nWould love to share how we help teams address this. Open to a quick chat?",
		hook+"\n\nWould love to share how we help teams address this. Are you open to a quick chat?",
	)

	label := "Metric"
	if framing == domain.FramingRisk {
		label = "Risk"
	}

	return domain.GeneratedDraft{
		Channel:    channel,
		Subject:    emailSubject(channel, label+"-based insight for "+company),
		Content:    body,
		VariantKey: fmt.Sprintf("%s_%s_v1", angle, framing),
		Angle:      &angle,
		Hypothesis: &hypothesis,
	}
}

// Hypothesis explains why an angle should resonate, citing the excerpt and the top ICP reason.
func Hypothesis(angle domain.Angle, excerpt string, icp *domain.IcpScore) string {
	summary := strings.TrimSpace(truncateRunes(excerpt, hypothesisExcerptLength))
	reason := fmt.Sprintf("the signal mentions \"%s...\"", summary)

	if icp != nil && len(icp.Reasons) > 0 {
		icpReason := pointsSuffix.ReplaceAllString(icp.Reasons[0], "")
		reason += " and " + strings.ToLower(icpReason)
	}

	return fmt.Sprintf("Angle=%s will resonate because %s", angle.Label(), reason)
}

// render joins paragraphs; email adds the source line after the opening and a signoff.
func render(channel domain.Channel, source string, opening []string, linkedinClose, emailClose string) string {
	paragraphs := append([]string{}, opening...)
	if channel == domain.ChannelLinkedIn {
		paragraphs = append(paragraphs, linkedinClose)
	} else {
		paragraphs = append(paragraphs, "Source: "+source, emailClose, signoff)
	}
	return strings.Join(paragraphs, "\n\n")
}

func emailSubject(channel domain.Channel, subject string) *string {
	if channel != domain.ChannelEmail {
		return nil
	}
	return &subject
}

func greeting(name *string) string {
	if n, ok := present(name); ok {
		return "Hey " + n
	}
	return "Hey there"
}

func companyOrTeam(company *string) string {
	if c, ok := present(company); ok {
		return c
	}
	return "your team"
}

func quote(excerpt string) string {
	return `"` + excerpt + `"`
}

func present(s *string) (string, bool) {
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
