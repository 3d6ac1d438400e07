package domain

import "fmt"

// Angle is one of the six fixed outreach framing categories.
type Angle string

const (
	AngleSpeedVsSafety          Angle = "speed_vs_safety"
	AnglePolicyEnforcement      Angle = "policy_enforcement"
	AngleMigrationRisk          Angle = "migration_risk"
	AngleIncidentReduction      Angle = "incident_reduction"
	AngleDeveloperExperience    Angle = "developer_experience"
	AngleComplianceAuditability Angle = "compliance_auditability"
)

type angleInfo struct {
	angle    Angle
	label    string
	priority int
}

// angleTable lists angles in display order; priority 1 wins classifier ties.
var angleTable = []angleInfo{
	{AngleSpeedVsSafety, "Speed vs Safety", 6},
	{AnglePolicyEnforcement, "Policy Enforcement", 2},
	{AngleMigrationRisk, "Migration Risk", 3},
	{AngleIncidentReduction, "Incident Reduction", 1},
	{AngleDeveloperExperience, "Developer Experience", 4},
	{AngleComplianceAuditability, "Compliance & Auditability", 5},
}

// Angles returns every angle in display order.
func Angles() []Angle {
	out := make([]Angle, 0, len(angleTable))
	for _, info := range angleTable {
		out = append(out, info.angle)
	}
	return out
}

// ParseAngle validates a raw key.
func ParseAngle(value string) (Angle, error) {
	for _, info := range angleTable {
		if string(info.angle) == value {
			return info.angle, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAngle, value)
}

// Valid reports whether a is one of the known angles.
func (a Angle) Valid() bool {
	_, ok := a.info()
	return ok
}

// Label is the human readable name; unknown angles fall back to the raw key.
func (a Angle) Label() string {
	if info, ok := a.info(); ok {
		return info.label
	}
	return string(a)
}

// Priority is the classifier precedence, 1 being the highest. Unknown angles return 0.
func (a Angle) Priority() int {
	if info, ok := a.info(); ok {
		return info.priority
	}
	return 0
}

func (a Angle) info() (angleInfo, bool) {
	for _, info := range angleTable {
		if info.angle == a {
			return info, true
		}
	}
	return angleInfo{}, false
}

// AnglePtr is a small helper for optional angle fields.
func AnglePtr(a Angle) *Angle {
	return &a
}
