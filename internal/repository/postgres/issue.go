package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IssueStore struct {
	pool *pgxpool.Pool
}

func NewIssueStore(pool *pgxpool.Pool) *IssueStore {
	return &IssueStore{pool: pool}
}

// Create inserts the report keyed by its case ID. A plain INSERT, not an
// upsert: if the generated case ID ever collides with an existing one,
// the unique violation surfaces as an error instead of silently replacing
// a stranger's report.
//
// Note what is NOT here: no user ID, no email, no session reference.
// The row carries nothing that could identify the reporter.
func (s *IssueStore) Create(ctx context.Context, issue models.IssueReport) (*models.IssueReport, error) {
	query := `
		INSERT INTO issues (id, category, title, description, status, admin_response, created_at)
		VALUES ($1, $2, $3, $4, $5, '', now())
		RETURNING id, category, title, description, status, admin_response, created_at`

	var i models.IssueReport
	err := s.pool.QueryRow(ctx, query,
		issue.ID,
		issue.Category,
		issue.Title,
		issue.Description,
		issue.Status,
	).Scan(
		&i.ID,
		&i.Category,
		&i.Title,
		&i.Description,
		&i.Status,
		&i.AdminResponse,
		&i.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	return &i, nil
}

func (s *IssueStore) GetByID(ctx context.Context, caseID string) (*models.IssueReport, error) {
	query := `
		SELECT id, category, title, description, status, admin_response, created_at
		FROM issues
		WHERE id = $1`

	var i models.IssueReport
	err := s.pool.QueryRow(ctx, query, caseID).Scan(
		&i.ID,
		&i.Category,
		&i.Title,
		&i.Description,
		&i.Status,
		&i.AdminResponse,
		&i.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return &i, nil
}

func (s *IssueStore) List(ctx context.Context) ([]models.IssueReport, error) {
	query := `
		SELECT id, category, title, description, status, admin_response, created_at
		FROM issues
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	issues := make([]models.IssueReport, 0)
	for rows.Next() {
		var i models.IssueReport
		if err := rows.Scan(
			&i.ID,
			&i.Category,
			&i.Title,
			&i.Description,
			&i.Status,
			&i.AdminResponse,
			&i.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}

	return issues, nil
}

// Respond overwrites the response and status. Last write wins; the ledger
// keeps no history of earlier responses.
func (s *IssueStore) Respond(ctx context.Context, caseID, response string, status models.IssueStatus) (bool, error) {
	query := `
		UPDATE issues
		SET admin_response = $2, status = $3
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, caseID, response, status)
	if err != nil {
		return false, fmt.Errorf("respond to issue: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
