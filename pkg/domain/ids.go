package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "engageflow/pkg/domain-errors"
)

// Typed identifiers. Distinct named types keep a UserID from being passed where a
// ProcedureID is expected; construct them with the Parse functions at trust boundaries.
type (
	UserID       uuid.UUID
	ProcedureID  uuid.UUID
	EngagementID uuid.UUID
	SignoffID    uuid.UUID
	TransitionID uuid.UUID
)

// maxIDLength bounds raw input before uuid.Parse sees it.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func ParseProcedureID(s string) (ProcedureID, error) {
	u, err := parseUUID("procedure id", s)
	return ProcedureID(u), err
}

func ParseEngagementID(s string) (EngagementID, error) {
	u, err := parseUUID("engagement id", s)
	return EngagementID(u), err
}

func ParseSignoffID(s string) (SignoffID, error) {
	u, err := parseUUID("signoff id", s)
	return SignoffID(u), err
}

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id ProcedureID) String() string  { return uuid.UUID(id).String() }
func (id EngagementID) String() string { return uuid.UUID(id).String() }
func (id SignoffID) String() string    { return uuid.UUID(id).String() }
func (id TransitionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ProcedureID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EngagementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SignoffID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id ProcedureID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id EngagementID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id SignoffID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id TransitionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ProcedureID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EngagementID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SignoffID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TransitionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
