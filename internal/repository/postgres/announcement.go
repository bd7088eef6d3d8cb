package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnnouncementStore struct {
	pool *pgxpool.Pool
}

func NewAnnouncementStore(pool *pgxpool.Pool) *AnnouncementStore {
	return &AnnouncementStore{pool: pool}
}

func (s *AnnouncementStore) Create(ctx context.Context, ann models.Announcement) (*models.Announcement, error) {
	query := `
		INSERT INTO announcements (id, title, body, priority, target_uid, type, task_id, credentials, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, title, body, priority, target_uid, type, task_id, credentials, created_at`

	var a models.Announcement
	err := s.pool.QueryRow(ctx, query,
		ann.Title,
		ann.Body,
		ann.Priority,
		ann.TargetUID,
		ann.Type,
		ann.TaskID,
		ann.Credentials,
	).Scan(
		&a.ID,
		&a.Title,
		&a.Body,
		&a.Priority,
		&a.TargetUID,
		&a.Type,
		&a.TaskID,
		&a.Credentials,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert announcement: %w", err)
	}
	return &a, nil
}

// ListOrdered is the primary read path: ordering done by the store.
func (s *AnnouncementStore) ListOrdered(ctx context.Context) ([]models.Announcement, error) {
	return s.list(ctx, `
		SELECT id, title, body, priority, target_uid, type, task_id, credentials, created_at
		FROM announcements
		ORDER BY created_at DESC, id DESC`)
}

// ListUnordered backs the fallback path that sorts client-side. Kept as a
// separate method so the equivalence of the two paths is testable.
func (s *AnnouncementStore) ListUnordered(ctx context.Context) ([]models.Announcement, error) {
	return s.list(ctx, `
		SELECT id, title, body, priority, target_uid, type, task_id, credentials, created_at
		FROM announcements`)
}

func (s *AnnouncementStore) list(ctx context.Context, query string) ([]models.Announcement, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	announcements, err := scanAnnouncements(rows)
	if err != nil {
		return nil, err
	}
	return announcements, nil
}

func scanAnnouncements(rows pgx.Rows) ([]models.Announcement, error) {
	announcements := make([]models.Announcement, 0)
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Body,
			&a.Priority,
			&a.TargetUID,
			&a.Type,
			&a.TaskID,
			&a.Credentials,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}
	return announcements, nil
}

func (s *AnnouncementStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM announcements WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}
