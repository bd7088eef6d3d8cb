package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AwardStore struct {
	pool *pgxpool.Pool
}

func NewAwardStore(pool *pgxpool.Pool) *AwardStore {
	return &AwardStore{pool: pool}
}

// Save upserts the award for its month key ("yyyy-MM"). Re-awarding within
// the same month replaces the earlier pick — one award per month, by key.
func (s *AwardStore) Save(ctx context.Context, award models.MonthlyAward) (*models.MonthlyAward, error) {
	query := `
		INSERT INTO monthly_awards (id, employee_id, employee_email, reason, month, awarded_by_email, awarded_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE
		SET employee_id = EXCLUDED.employee_id,
		    employee_email = EXCLUDED.employee_email,
		    reason = EXCLUDED.reason,
		    month = EXCLUDED.month,
		    awarded_by_email = EXCLUDED.awarded_by_email,
		    awarded_at = now()
		RETURNING id, employee_id, employee_email, reason, month, awarded_by_email, awarded_at`

	var a models.MonthlyAward
	err := s.pool.QueryRow(ctx, query,
		award.ID,
		award.EmployeeID,
		award.EmployeeEmail,
		award.Reason,
		award.Month,
		award.AwardedByEmail,
	).Scan(
		&a.ID,
		&a.EmployeeID,
		&a.EmployeeEmail,
		&a.Reason,
		&a.Month,
		&a.AwardedByEmail,
		&a.AwardedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save award: %w", err)
	}
	return &a, nil
}

func (s *AwardStore) GetByMonth(ctx context.Context, monthKey string) (*models.MonthlyAward, error) {
	query := `
		SELECT id, employee_id, employee_email, reason, month, awarded_by_email, awarded_at
		FROM monthly_awards
		WHERE id = $1`

	var a models.MonthlyAward
	err := s.pool.QueryRow(ctx, query, monthKey).Scan(
		&a.ID,
		&a.EmployeeID,
		&a.EmployeeEmail,
		&a.Reason,
		&a.Month,
		&a.AwardedByEmail,
		&a.AwardedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get award: %w", err)
	}
	return &a, nil
}

func (s *AwardStore) ListHistory(ctx context.Context, limit int) ([]models.MonthlyAward, error) {
	query := `
		SELECT id, employee_id, employee_email, reason, month, awarded_by_email, awarded_at
		FROM monthly_awards
		ORDER BY awarded_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}
	defer rows.Close()

	awards := make([]models.MonthlyAward, 0)
	for rows.Next() {
		var a models.MonthlyAward
		if err := rows.Scan(
			&a.ID,
			&a.EmployeeID,
			&a.EmployeeEmail,
			&a.Reason,
			&a.Month,
			&a.AwardedByEmail,
			&a.AwardedAt,
		); err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}
		awards = append(awards, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate awards: %w", err)
	}

	return awards, nil
}
