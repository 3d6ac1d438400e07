package drafting

import "GTMEngine/internal/domain"

type hookPair struct {
	metric string
	risk   string
}

var angleHooks = map[domain.Angle]hookPair{
	domain.AngleIncidentReduction: {
		metric: "Teams using our approach see 40% fewer incidents within the first quarter.",
		risk:   "Without proper safeguards, incidents can cascade into major outages.",
	},
	domain.AngleSpeedVsSafety: {
		metric: "Companies balance speed and safety, shipping 2x faster with fewer rollbacks.",
		risk:   "Rushing releases without guardrails often leads to costly mistakes.",
	},
	domain.AnglePolicyEnforcement: {
		metric: "Automated policy checks reduce review cycles by 60% while maintaining compliance.",
		risk:   "Manual policy enforcement creates bottlenecks and inconsistencies.",
	},
	domain.AngleMigrationRisk: {
		metric: "Structured migrations complete 30% faster with built-in validation.",
		risk:   "Unplanned migrations can disrupt services for weeks.",
	},
	domain.AngleDeveloperExperience: {
		metric: "Developer productivity improves 25% when friction is systematically reduced.",
		risk:   "Poor developer experience leads to attrition and slower delivery.",
	},
	domain.AngleComplianceAuditability: {
		metric: "Automated audit trails reduce compliance prep time by 50%.",
		risk:   "Gaps in audit trails can result in failed compliance reviews.",
	},
}

// AngleHook returns the fixed hook sentence for an angle and framing.
func AngleHook(angle domain.Angle, framing domain.Framing) string {
	pair := angleHooks[angle]
	if framing == domain.FramingRisk {
		return pair.risk
	}
	return pair.metric
}

// Option is a selectable generation strategy with its display label.
type Option[T ~string] struct {
	Key   T
	Label string
}

// Variants lists the non-angle templates.
func Variants() []Option[domain.Variant] {
	return []Option[domain.Variant]{
		{Key: domain.VariantShortColdOpener, Label: "Short Cold Opener"},
		{Key: domain.VariantValueFirst, Label: "Value-First"},
	}
}

// Framings lists the angle framings in generation order.
func Framings() []Option[domain.Framing] {
	return []Option[domain.Framing]{
		{Key: domain.FramingMetric, Label: "Metric Framing"},
		{Key: domain.FramingRisk, Label: "Risk Framing"},
	}
}

// Channels lists the supported outreach channels.
func Channels() []Option[domain.Channel] {
	return []Option[domain.Channel]{
		{Key: domain.ChannelEmail, Label: "Email"},
		{Key: domain.ChannelLinkedIn, Label: "LinkedIn"},
	}
}
