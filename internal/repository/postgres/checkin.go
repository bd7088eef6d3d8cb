package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckInStore struct {
	pool *pgxpool.Pool
}

func NewCheckInStore(pool *pgxpool.Pool) *CheckInStore {
	return &CheckInStore{pool: pool}
}

func (s *CheckInStore) GetForDay(ctx context.Context, userID, dateKey string) (*models.DailyCheckIn, error) {
	query := `
		SELECT id, user_id, mood, note, date_key, created_at
		FROM check_ins
		WHERE user_id = $1 AND date_key = $2
		LIMIT 1`

	var c models.DailyCheckIn
	err := s.pool.QueryRow(ctx, query, userID, dateKey).Scan(
		&c.ID,
		&c.UserID,
		&c.Mood,
		&c.Note,
		&c.DateKey,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get check-in: %w", err)
	}
	return &c, nil
}

// Create inserts a check-in. ON CONFLICT DO NOTHING against the
// (user_id, date_key) unique index makes the one-per-day rule a store
// guarantee: two near-simultaneous submissions cannot both land, and the
// loser sees nil, nil rather than an error. RETURNING yields no row on
// the conflict path, which is how we detect it.
func (s *CheckInStore) Create(ctx context.Context, checkIn models.DailyCheckIn) (*models.DailyCheckIn, error) {
	query := `
		INSERT INTO check_ins (id, user_id, mood, note, date_key, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, now())
		ON CONFLICT (user_id, date_key) DO NOTHING
		RETURNING id, user_id, mood, note, date_key, created_at`

	var c models.DailyCheckIn
	err := s.pool.QueryRow(ctx, query,
		checkIn.UserID,
		checkIn.Mood,
		checkIn.Note,
		checkIn.DateKey,
	).Scan(
		&c.ID,
		&c.UserID,
		&c.Mood,
		&c.Note,
		&c.DateKey,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("insert check-in: %w", err)
	}
	return &c, nil
}

func (s *CheckInStore) ListRecent(ctx context.Context, userID string, limit int) ([]models.DailyCheckIn, error) {
	query := `
		SELECT id, user_id, mood, note, date_key, created_at
		FROM check_ins
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := make([]models.DailyCheckIn, 0)
	for rows.Next() {
		var c models.DailyCheckIn
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Mood,
			&c.Note,
			&c.DateKey,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		checkIns = append(checkIns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check-ins: %w", err)
	}

	return checkIns, nil
}
