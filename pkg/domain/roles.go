package domain

import dErrors "engageflow/pkg/domain-errors"

// FirmRole is a user's staff level inside the audit firm.
// Invariant: the value must be one of the five firm roles below.
//
// Usage: construct via ParseFirmRole at trust boundaries; the identity provider is
// the only source of a user's role.
type FirmRole string

const (
	FirmRoleStaff      FirmRole = "staff"
	FirmRoleSenior     FirmRole = "senior"
	FirmRoleSupervisor FirmRole = "supervisor"
	FirmRoleManager    FirmRole = "manager"
	FirmRolePartner    FirmRole = "partner"
)

// SignoffRole is a slot in a procedure's sign-off chain.
type SignoffRole string

const (
	SignoffRolePreparer       SignoffRole = "preparer"
	SignoffRoleReviewer       SignoffRole = "reviewer"
	SignoffRoleSeniorReviewer SignoffRole = "senior_reviewer"
	SignoffRoleManager        SignoffRole = "manager"
	SignoffRolePartner        SignoffRole = "partner"
)

// SignoffRoleOrder is the full hierarchy from lowest to highest.
var SignoffRoleOrder = []SignoffRole{
	SignoffRolePreparer,
	SignoffRoleReviewer,
	SignoffRoleSeniorReviewer,
	SignoffRoleManager,
	SignoffRolePartner,
}

// ParseFirmRole constructs a FirmRole from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unknown.
func ParseFirmRole(s string) (FirmRole, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := FirmRole(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks the role against the closed set. It goes through SignoffRole so
// that adding a FirmRole without classifying it fails here as well.
func (r FirmRole) IsValid() bool {
	_, ok := r.SignoffRole()
	return ok
}

// SignoffRole maps a firm role to the single sign-off slot it may fill.
// This is the only place the mapping lives; every FirmRole must appear in the switch.
func (r FirmRole) SignoffRole() (SignoffRole, bool) {
	switch r {
	case FirmRoleStaff:
		return SignoffRolePreparer, true
	case FirmRoleSenior:
		return SignoffRoleReviewer, true
	case FirmRoleSupervisor:
		return SignoffRoleSeniorReviewer, true
	case FirmRoleManager:
		return SignoffRoleManager, true
	case FirmRolePartner:
		return SignoffRolePartner, true
	}
	return "", false
}

// CanReview reports whether the role may begin a review or request changes.
func (r FirmRole) CanReview() bool {
	switch r {
	case FirmRoleSenior, FirmRoleSupervisor, FirmRoleManager, FirmRolePartner:
		return true
	}
	return false
}

// HasOverride reports whether the role may act on procedures it is not assigned to,
// mark them not applicable, and revoke sign-offs.
func (r FirmRole) HasOverride() bool {
	return r == FirmRoleManager || r == FirmRolePartner
}

func (r FirmRole) String() string {
	return string(r)
}

// ParseSignoffRole constructs a SignoffRole from external input.
func ParseSignoffRole(s string) (SignoffRole, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "signoff role cannot be empty")
	}
	r := SignoffRole(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid signoff role")
	}
	return r, nil
}

func (r SignoffRole) IsValid() bool {
	for _, known := range SignoffRoleOrder {
		if r == known {
			return true
		}
	}
	return false
}

func (r SignoffRole) String() string {
	return string(r)
}
