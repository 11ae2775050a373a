package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresUserStore is the credential store on PostgreSQL, selected with
// USER_BACKEND=postgres. Listings stay in MongoDB either way.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresUserStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(100) NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			avatar     TEXT         NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

const userColumns = `id, username, email, password, avatar, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresUserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u.Email == "" || u.Password == "" {
		return nil, apperr.New(apperr.Validation, "email and password are required")
	}
	created, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password, avatar)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		u.Username, u.Email, u.Password, u.Avatar,
	))
	if err != nil {
		return nil, mapPgError("create user", err)
	}
	return created, nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	))
	if err != nil {
		return nil, mapPgError("get user by email", err)
	}
	return u, nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err != nil {
		return nil, mapPgError("get user by id", err)
	}
	return u, nil
}

// UpdateByID applies only the non-nil fields of upd; NULL parameters keep
// the current column value.
func (s *PostgresUserStore) UpdateByID(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET
			username   = COALESCE($2, username),
			email      = COALESCE($3, email),
			password   = COALESCE($4, password),
			avatar     = COALESCE($5, avatar),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, upd.Username, upd.Email, upd.Password, upd.Avatar,
	))
	if err != nil {
		return nil, mapPgError("update user", err)
	}
	return u, nil
}

func (s *PostgresUserStore) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapPgError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "User not found!")
	}
	return nil
}

func mapPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.Wrap(apperr.DuplicateEmail, "Email already exists!", err)
	}
	return apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("%s: %w", op, err))
}
