package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/sentinel"
	txcontext "engageflow/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresDirectory reads users from the users table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// Save inserts or updates a user keyed by ID. A duplicate email returns sentinel.ErrAlreadyUsed.
func (d *PostgresDirectory) Save(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	query := `
		INSERT INTO users (id, email, name, firm_role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			firm_role = EXCLUDED.firm_role,
			active = EXCLUDED.active
	`
	_, err := txcontext.Exec(ctx, d.db).ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Email,
		user.Name,
		string(user.Role),
		user.Active,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (d *PostgresDirectory) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	query := `SELECT id, email, name, firm_role, active, created_at FROM users WHERE id = $1`
	var (
		rawID uuid.UUID
		role  string
		user  User
	)
	err := txcontext.Exec(ctx, d.db).QueryRowContext(ctx, query, uuid.UUID(userID)).Scan(
		&rawID, &user.Email, &user.Name, &role, &user.Active, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.ID = id.UserID(rawID)
	user.Role = id.FirmRole(role)
	return &user, nil
}
