package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskStore struct {
	pool *pgxpool.Pool
}

func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

func (s *TaskStore) Create(ctx context.Context, task models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (id, community_id, community_name, title, description,
		                   assigned_to_id, assigned_to_email, assigned_by_email,
		                   priority, status, due_date, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING id, community_id, community_name, title, description,
		          assigned_to_id, assigned_to_email, assigned_by_email,
		          priority, status, due_date, completed_at, created_at`

	var t models.Task
	err := s.pool.QueryRow(ctx, query,
		task.CommunityID,
		task.CommunityName,
		task.Title,
		task.Description,
		task.AssignedToID,
		task.AssignedToEmail,
		task.AssignedByEmail,
		task.Priority,
		task.Status,
		task.DueDate,
	).Scan(
		&t.ID,
		&t.CommunityID,
		&t.CommunityName,
		&t.Title,
		&t.Description,
		&t.AssignedToID,
		&t.AssignedToEmail,
		&t.AssignedByEmail,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.CompletedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &t, nil
}

func (s *TaskStore) GetByID(ctx context.Context, communityID, taskID uuid.UUID) (*models.Task, error) {
	query := `
		SELECT id, community_id, community_name, title, description,
		       assigned_to_id, assigned_to_email, assigned_by_email,
		       priority, status, due_date, completed_at, created_at
		FROM tasks
		WHERE id = $1 AND community_id = $2`

	var t models.Task
	err := s.pool.QueryRow(ctx, query, taskID, communityID).Scan(
		&t.ID,
		&t.CommunityID,
		&t.CommunityName,
		&t.Title,
		&t.Description,
		&t.AssignedToID,
		&t.AssignedToEmail,
		&t.AssignedByEmail,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.CompletedAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

func (s *TaskStore) ListByCommunity(ctx context.Context, communityID uuid.UUID) ([]models.Task, error) {
	query := `
		SELECT id, community_id, community_name, title, description,
		       assigned_to_id, assigned_to_email, assigned_by_email,
		       priority, status, due_date, completed_at, created_at
		FROM tasks
		WHERE community_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID,
			&t.CommunityID,
			&t.CommunityName,
			&t.Title,
			&t.Description,
			&t.AssignedToID,
			&t.AssignedToEmail,
			&t.AssignedByEmail,
			&t.Priority,
			&t.Status,
			&t.DueDate,
			&t.CompletedAt,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateStatus rewrites status and completed_at in one statement so the
// pair can never disagree, whatever order concurrent updates land in.
func (s *TaskStore) UpdateStatus(ctx context.Context, communityID, taskID uuid.UUID, status models.TaskStatus, completedAt *time.Time) error {
	query := `
		UPDATE tasks
		SET status = $3, completed_at = $4
		WHERE id = $1 AND community_id = $2`

	tag, err := s.pool.Exec(ctx, query, taskID, communityID, status, completedAt)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update task status: no such task %s", taskID)
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, communityID, taskID uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND community_id = $2`

	_, err := s.pool.Exec(ctx, query, taskID, communityID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
