package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
)

const uniqueViolation = "23505"

// wrapWrite turns a unique-constraint failure into repository.ErrDuplicate
// so services can answer Conflict without knowing about Postgres codes.
func wrapWrite(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

const userColumns = `id, username, email, password_hash, role, approved, name, location, contact, created_at`

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Approved,
		&u.Name,
		&u.Location,
		&u.Contact,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// getOne runs a single-row user query. No row is (nil, nil).
func (s *UserStore) getOne(ctx context.Context, op, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Create inserts a new user row. Postgres generates the UUID and timestamp.
func (s *UserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, role, approved, name, location, contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	created, err := scanUser(s.pool.QueryRow(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Approved, u.Name, u.Location, u.Contact,
	))
	if err != nil {
		return nil, wrapWrite("insert user", err)
	}
	return created, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx, "get user", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

// GetByLogin lets people sign in with either their email or their
// username. Email wins if one user's username equals another's email.
func (s *UserStore) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1) OR username = $1
		ORDER BY (lower(email) = lower($1)) DESC
		LIMIT 1`
	return s.getOne(ctx, "get user by login", query, identifier)
}

func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, name = $5, location = $6, contact = $7
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.Name, u.Location, u.Contact)
	if err != nil {
		return wrapWrite("update user", err)
	}
	return nil
}

func (s *UserStore) ListOwners(ctx context.Context, approved *bool) ([]models.User, error) {
	// $1 IS NULL turns the approval filter off without a second query.
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = 'owner' AND ($1::boolean IS NULL OR approved = $1)
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, approved)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return users, nil
}

// ApproveOwner only matches a row that is still unapproved, so two
// admins clicking approve at once produce exactly one "true".
func (s *UserStore) ApproveOwner(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE users
		SET approved = true
		WHERE id = $1 AND role = 'owner' AND approved = false`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("approve owner: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *UserStore) DeleteOwner(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1 AND role = 'owner'`, id)
	if err != nil {
		return false, fmt.Errorf("delete owner: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
