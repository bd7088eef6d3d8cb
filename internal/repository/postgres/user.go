package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Create(ctx context.Context, id, email, passwordHash string, role models.Role) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, email, role, password_hash, created_at`

	var u models.User
	err := s.pool.QueryRow(ctx, query, id, email, role, passwordHash).Scan(
		&u.ID,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, role, password_hash, created_at
		FROM users
		WHERE id = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, role, password_hash, created_at
		FROM users
		WHERE email = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListNonAdmin returns the directory as the admin dashboard shows it:
// grouped by role, newest first within a role.
func (s *UserStore) ListNonAdmin(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, email, role, password_hash, created_at
		FROM users
		WHERE role <> 'admin'
		ORDER BY role, created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Role,
			&u.PasswordHash,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (s *UserStore) SetRole(ctx context.Context, userID string, role models.Role) error {
	query := `
		UPDATE users
		SET role = $2
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set role: no such user %q", userID)
	}
	return nil
}

func (s *UserStore) CountByRole(ctx context.Context, role models.Role) (int, error) {
	query := `SELECT count(*) FROM users WHERE role = $1`

	var n int
	if err := s.pool.QueryRow(ctx, query, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count by role: %w", err)
	}
	return n, nil
}
