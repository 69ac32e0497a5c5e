package domain

import dErrors "engageflow/pkg/domain-errors"

// RiskLevel scales how many hierarchical approvals a procedure needs.
type RiskLevel string

const (
	RiskLow         RiskLevel = "low"
	RiskMedium      RiskLevel = "medium"
	RiskHigh        RiskLevel = "high"
	RiskSignificant RiskLevel = "significant"
)

// requiredSignoffs is the single source of truth for the chain per risk level.
var requiredSignoffs = map[RiskLevel][]SignoffRole{
	RiskLow:    {SignoffRolePreparer, SignoffRoleReviewer},
	RiskMedium: {SignoffRolePreparer, SignoffRoleReviewer},
	RiskHigh:   {SignoffRolePreparer, SignoffRoleReviewer, SignoffRoleManager},
	RiskSignificant: {
		SignoffRolePreparer,
		SignoffRoleReviewer,
		SignoffRoleSeniorReviewer,
		SignoffRoleManager,
		SignoffRolePartner,
	},
}

// ParseRiskLevel constructs a RiskLevel from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unknown.
func ParseRiskLevel(s string) (RiskLevel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "risk level cannot be empty")
	}
	r := RiskLevel(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid risk level")
	}
	return r, nil
}

func (r RiskLevel) IsValid() bool {
	_, ok := requiredSignoffs[r]
	return ok
}

// RequiredSignoffRoles returns a copy of the ordered chain for r. Unknown levels
// return nil.
func (r RiskLevel) RequiredSignoffRoles() []SignoffRole {
	roles := requiredSignoffs[r]
	if roles == nil {
		return nil
	}
	out := make([]SignoffRole, len(roles))
	copy(out, roles)
	return out
}

func (r RiskLevel) String() string {
	return string(r)
}
