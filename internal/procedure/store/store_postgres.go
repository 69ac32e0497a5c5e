package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/sentinel"
	txcontext "engageflow/pkg/platform/tx"
)

// PostgresStore persists procedures in PostgreSQL.
// This store is pure I/O; every workflow decision belongs to the engine and service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

const procedureColumns = `id, engagement_id, name, description, risk_level, state, assigned_to, reviewer_id,
	work_performed, conclusion, content_hash, version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, procedure *models.Procedure) error {
	if procedure == nil {
		return fmt.Errorf("procedure is required")
	}
	query := `
		INSERT INTO procedures (` + procedureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(procedure.ID),
		uuid.UUID(procedure.EngagementID),
		procedure.Name,
		procedure.Description,
		string(procedure.RiskLevel),
		string(procedure.State),
		nullUUID(uuid.UUID(procedure.AssignedTo)),
		nullUUID(uuid.UUID(procedure.ReviewerID)),
		procedure.WorkPerformed,
		procedure.Conclusion,
		procedure.ContentHash,
		procedure.Version,
		procedure.CreatedAt,
		procedure.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create procedure: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	query := `SELECT ` + procedureColumns + ` FROM procedures WHERE id = $1`
	p, err := scanProcedure(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(procedureID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find procedure: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByEngagement(ctx context.Context, engagementID id.EngagementID, states []models.State) ([]*models.Procedure, error) {
	filter := make([]string, 0, len(states))
	for _, st := range states {
		filter = append(filter, string(st))
	}
	query := `
		SELECT ` + procedureColumns + `
		FROM procedures
		WHERE engagement_id = $1
		  AND (cardinality($2::text[]) = 0 OR state = ANY($2::text[]))
		ORDER BY created_at, id
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(engagementID), pq.Array(filter))
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	defer rows.Close()

	out := []*models.Procedure{}
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan procedure: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate procedures: %w", err)
	}
	return out, nil
}

// ApplyChange runs the compare-and-swap and writes the transition log entry, sign-off
// rows and sign-off history in one transaction. Zero rows updated means another writer
// got there first: sentinel.ErrConflict.
func (s *PostgresStore) ApplyChange(ctx context.Context, change *models.Change) (*models.Procedure, error) {
	if change == nil {
		return nil, fmt.Errorf("change is required")
	}
	if err := change.Validate(); err != nil {
		return nil, fmt.Errorf("apply change: %w", err)
	}

	var updated *models.Procedure
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		exec := txcontext.Exec(ctx, s.db)
		p := change.Procedure
		query := `
			UPDATE procedures SET
				state = $4,
				assigned_to = $5,
				reviewer_id = $6,
				work_performed = $7,
				conclusion = $8,
				content_hash = $9,
				updated_at = $10,
				version = version + 1
			WHERE id = $1 AND version = $2 AND state = $3
			RETURNING ` + procedureColumns
		var err error
		updated, err = scanProcedure(exec.QueryRowContext(ctx, query,
			uuid.UUID(p.ID),
			change.ExpectedVersion,
			string(change.ExpectedState),
			string(p.State),
			nullUUID(uuid.UUID(p.AssignedTo)),
			nullUUID(uuid.UUID(p.ReviewerID)),
			p.WorkPerformed,
			p.Conclusion,
			p.ContentHash,
			p.UpdatedAt,
		))
		if errors.Is(err, sql.ErrNoRows) {
			return s.missOrConflict(ctx, exec, p.ID)
		}
		if err != nil {
			return fmt.Errorf("update procedure: %w", err)
		}

		if len(change.RemoveSignoffs) > 0 {
			roles := make([]string, 0, len(change.RemoveSignoffs))
			for _, role := range change.RemoveSignoffs {
				roles = append(roles, string(role))
			}
			if _, err := exec.ExecContext(ctx,
				`DELETE FROM procedure_signoffs WHERE procedure_id = $1 AND role = ANY($2::text[])`,
				uuid.UUID(p.ID), pq.Array(roles),
			); err != nil {
				return fmt.Errorf("delete signoffs: %w", err)
			}
		}
		for _, rec := range change.AddSignoffs {
			if _, err := exec.ExecContext(ctx, `
				INSERT INTO procedure_signoffs (id, procedure_id, role, signed_by, signed_at, content_hash)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.UUID(rec.ID), uuid.UUID(rec.ProcedureID), string(rec.Role),
				uuid.UUID(rec.SignedBy), rec.SignedAt, rec.ContentHash,
			); err != nil {
				return fmt.Errorf("insert signoff: %w", err)
			}
		}
		if t := change.Transition; t != nil {
			if _, err := exec.ExecContext(ctx, `
				INSERT INTO procedure_transitions (id, procedure_id, from_state, to_state, action, performed_by, performed_at, comment)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.UUID(t.ID), uuid.UUID(t.ProcedureID), string(t.FromState), string(t.ToState),
				string(t.Action), uuid.UUID(t.PerformedBy), t.PerformedAt, t.Comment,
			); err != nil {
				return fmt.Errorf("insert transition: %w", err)
			}
		}
		for _, evt := range change.SignoffEvents {
			if _, err := exec.ExecContext(ctx, `
				INSERT INTO procedure_signoff_events (procedure_id, signoff_id, role, kind, actor_id, content_hash, occurred_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.UUID(evt.ProcedureID), uuid.UUID(evt.SignoffID), string(evt.Role), string(evt.Kind),
				uuid.UUID(evt.ActorID), evt.ContentHash, evt.OccurredAt,
			); err != nil {
				return fmt.Errorf("insert signoff event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) missOrConflict(ctx context.Context, exec txcontext.Executor, procedureID id.ProcedureID) error {
	var exists bool
	err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM procedures WHERE id = $1)`, uuid.UUID(procedureID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check procedure: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) ListSignoffs(ctx context.Context, procedureID id.ProcedureID) ([]models.SignoffRecord, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, procedure_id, role, signed_by, signed_at, content_hash
		FROM procedure_signoffs
		WHERE procedure_id = $1
		ORDER BY signed_at, id
	`, uuid.UUID(procedureID))
	if err != nil {
		return nil, fmt.Errorf("list signoffs: %w", err)
	}
	defer rows.Close()

	out := []models.SignoffRecord{}
	for rows.Next() {
		var (
			rec                     models.SignoffRecord
			recID, procID, signedBy uuid.UUID
			role                    string
		)
		if err := rows.Scan(&recID, &procID, &role, &signedBy, &rec.SignedAt, &rec.ContentHash); err != nil {
			return nil, fmt.Errorf("scan signoff: %w", err)
		}
		rec.ID = id.SignoffID(recID)
		rec.ProcedureID = id.ProcedureID(procID)
		rec.Role = id.SignoffRole(role)
		rec.SignedBy = id.UserID(signedBy)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signoffs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListTransitions(ctx context.Context, procedureID id.ProcedureID) ([]models.TransitionLogEntry, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, procedure_id, from_state, to_state, action, performed_by, performed_at, comment
		FROM procedure_transitions
		WHERE procedure_id = $1
		ORDER BY seq
	`, uuid.UUID(procedureID))
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	out := []models.TransitionLogEntry{}
	for rows.Next() {
		var (
			entry                    models.TransitionLogEntry
			entryID, procID, actorID uuid.UUID
			from, to, action         string
		)
		if err := rows.Scan(&entryID, &procID, &from, &to, &action, &actorID, &entry.PerformedAt, &entry.Comment); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		entry.ID = id.TransitionID(entryID)
		entry.ProcedureID = id.ProcedureID(procID)
		entry.FromState = models.State(from)
		entry.ToState = models.State(to)
		entry.Action = models.Action(action)
		entry.PerformedBy = id.UserID(actorID)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListSignoffEvents(ctx context.Context, procedureID id.ProcedureID) ([]models.SignoffEvent, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT procedure_id, signoff_id, role, kind, actor_id, content_hash, occurred_at
		FROM procedure_signoff_events
		WHERE procedure_id = $1
		ORDER BY seq
	`, uuid.UUID(procedureID))
	if err != nil {
		return nil, fmt.Errorf("list signoff events: %w", err)
	}
	defer rows.Close()

	out := []models.SignoffEvent{}
	for rows.Next() {
		var (
			evt                        models.SignoffEvent
			procID, signoffID, actorID uuid.UUID
			role, kind                 string
		)
		if err := rows.Scan(&procID, &signoffID, &role, &kind, &actorID, &evt.ContentHash, &evt.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan signoff event: %w", err)
		}
		evt.ProcedureID = id.ProcedureID(procID)
		evt.SignoffID = id.SignoffID(signoffID)
		evt.Role = id.SignoffRole(role)
		evt.Kind = models.SignoffEventKind(kind)
		evt.ActorID = id.UserID(actorID)
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signoff events: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProcedure(row scanner) (*models.Procedure, error) {
	var (
		p                    models.Procedure
		procID, engagementID uuid.UUID
		assignedTo, reviewer uuid.NullUUID
		risk, state          string
	)
	if err := row.Scan(
		&procID,
		&engagementID,
		&p.Name,
		&p.Description,
		&risk,
		&state,
		&assignedTo,
		&reviewer,
		&p.WorkPerformed,
		&p.Conclusion,
		&p.ContentHash,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ID = id.ProcedureID(procID)
	p.EngagementID = id.EngagementID(engagementID)
	p.RiskLevel = id.RiskLevel(risk)
	p.State = models.State(state)
	if assignedTo.Valid {
		p.AssignedTo = id.UserID(assignedTo.UUID)
	}
	if reviewer.Valid {
		p.ReviewerID = id.UserID(reviewer.UUID)
	}
	return &p, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
