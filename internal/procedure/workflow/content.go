package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	id "engageflow/pkg/domain"

	"engageflow/internal/procedure/models"
)

// reviewableContent is the canonical form that gets hashed. Field order is the sorted
// key order and must not change, or every stored hash becomes a mismatch.
type reviewableContent struct {
	Conclusion    string `json:"conclusion"`
	WorkPerformed string `json:"work_performed"`
}

// ComputeContentHash digests the reviewable fields as lowercase hex SHA-256.
func ComputeContentHash(p models.Procedure) (string, error) {
	raw, err := json.Marshal(reviewableContent{
		Conclusion:    p.Conclusion,
		WorkPerformed: p.WorkPerformed,
	})
	if err != nil {
		return "", fmt.Errorf("encode reviewable content: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// ValidateContentIntegrity reports whether the content still matches the hash stored at
// the last sign-off. A procedure that was never signed is valid.
func ValidateContentIntegrity(p models.Procedure) (bool, error) {
	warning, err := CheckIntegrity(p)
	if err != nil {
		return false, err
	}
	return warning == nil, nil
}

// CheckIntegrity returns a warning describing a mismatch, or nil.
func CheckIntegrity(p models.Procedure) (*models.IntegrityWarning, error) {
	if p.ContentHash == "" {
		return nil, nil
	}
	current, err := ComputeContentHash(p)
	if err != nil {
		return nil, err
	}
	if current == p.ContentHash {
		return nil, nil
	}
	return &models.IntegrityWarning{StoredHash: p.ContentHash, CurrentHash: current}, nil
}

// CheckAttestations extends CheckIntegrity to every active sign-off record: each must
// have attested the current content.
func CheckAttestations(snap Snapshot) (*models.IntegrityWarning, error) {
	warning, err := CheckIntegrity(snap.Procedure)
	if err != nil || warning != nil {
		return warning, err
	}
	if len(snap.Signoffs) == 0 {
		return nil, nil
	}
	current, err := ComputeContentHash(snap.Procedure)
	if err != nil {
		return nil, err
	}
	for _, req := range RequiredSignoffs(snap) {
		if req.Record != nil && req.Record.ContentHash != current {
			return &models.IntegrityWarning{
				StoredHash:  req.Record.ContentHash,
				CurrentHash: current,
				Role:        req.Role,
			}, nil
		}
	}
	return nil, nil
}

// UpdateContent edits the reviewable fields. The stored hash is left as attested, so
// edits after a sign-off surface as integrity mismatches.
func UpdateContent(snap Snapshot, actor models.Actor, workPerformed, conclusion string, now time.Time) (*models.Change, error) {
	p := snap.Procedure
	if p.State.IsTerminal() {
		return nil, &models.TransitionError{Action: models.ActionUpdateContent, State: p.State}
	}
	if !p.IsAssignedTo(actor.UserID) && !actor.Role.HasOverride() {
		return nil, &models.AuthorizationError{Action: models.ActionUpdateContent, Reason: "actor is not the assignee"}
	}
	if err := models.ValidateNarrative(workPerformed, conclusion); err != nil {
		return nil, err
	}
	next := p
	next.WorkPerformed = workPerformed
	next.Conclusion = conclusion
	next.UpdatedAt = now
	if ReconcileState(p.State, snap.completedRoles(), next.HasWorkPerformed(), next.HasConclusion()) != p.State {
		return nil, &models.TransitionError{
			Action: models.ActionUpdateContent,
			State:  p.State,
			Reason: "work performed and conclusion cannot be cleared after submission",
		}
	}
	return &models.Change{
		Procedure:       next,
		ExpectedVersion: p.Version,
		ExpectedState:   p.State,
		Action:          models.ActionUpdateContent,
	}, nil
}

// Assign changes the assignee. Only override roles may assign, only before review, and
// never to someone already holding a reviewing slot on the procedure.
func Assign(snap Snapshot, actor models.Actor, assignee id.UserID, now time.Time) (*models.Change, error) {
	p := snap.Procedure
	switch p.State {
	case models.StateNotStarted, models.StateInProgress, models.StateChangesRequested:
	default:
		return nil, &models.TransitionError{Action: models.ActionAssign, State: p.State}
	}
	if !actor.Role.HasOverride() {
		return nil, &models.AuthorizationError{Action: models.ActionAssign, Reason: "requires manager or partner"}
	}
	if assignee.IsNil() {
		return nil, &models.AuthorizationError{Action: models.ActionAssign, Reason: "assignee is required"}
	}
	if p.ReviewerID == assignee {
		return nil, &models.AuthorizationError{Action: models.ActionAssign, Reason: "assignee already reviews this procedure"}
	}
	next := p
	next.AssignedTo = assignee
	next.UpdatedAt = now
	return &models.Change{
		Procedure:       next,
		ExpectedVersion: p.Version,
		ExpectedState:   p.State,
		Action:          models.ActionAssign,
	}, nil
}
