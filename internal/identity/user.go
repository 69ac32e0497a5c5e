// Package identity resolves the acting user and their firm role.
//
// Roles always come from the user directory; tokens carry only the subject.
package identity

import (
	"strings"
	"time"

	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
	"engageflow/pkg/email"
)

// User is a member of the audit firm.
type User struct {
	ID        id.UserID   `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      id.FirmRole `json:"firm_role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUser validates and constructs an active user.
func NewUser(userID id.UserID, emailAddr, name string, role id.FirmRole, now time.Time) (*User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user ID cannot be nil")
	}
	addr, ok := email.Normalize(emailAddr)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "valid email is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email.DisplayName(addr)
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid firm role")
	}
	return &User{
		ID:        userID,
		Email:     addr,
		Name:      name,
		Role:      role,
		Active:    true,
		CreatedAt: now,
	}, nil
}
