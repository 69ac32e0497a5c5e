package models

// ProcedureView is a procedure with its computed sign-off and permission summary.
// Nothing here is stored; every field is derived on read.
type ProcedureView struct {
	Procedure        *Procedure           `json:"procedure"`
	Signoffs         []SignoffRequirement `json:"signoffs"`
	NextSignoff      *SignoffRequirement  `json:"next_signoff,omitempty"`
	Progress         int                  `json:"progress"`
	AvailableActions []Action             `json:"available_actions"`
	Integrity        *IntegrityWarning    `json:"integrity_warning,omitempty"`
}

// IntegrityReport is the result of re-verifying a procedure's content hash.
type IntegrityReport struct {
	Procedure   *Procedure `json:"-"`
	Valid       bool       `json:"valid"`
	StoredHash  string     `json:"stored_hash"`
	CurrentHash string     `json:"current_hash"`
}

// History is the full audit trail of a procedure.
type History struct {
	Transitions   []TransitionLogEntry `json:"transitions"`
	SignoffEvents []SignoffEvent       `json:"signoff_events"`
}
