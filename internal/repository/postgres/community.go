package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommunityStore struct {
	pool *pgxpool.Pool
}

func NewCommunityStore(pool *pgxpool.Pool) *CommunityStore {
	return &CommunityStore{pool: pool}
}

// The member list is a jsonb column holding [{user_id, email}, ...].
// pgx marshals []models.Member through encoding/json on the way in and
// back out, so the scan targets below are the slice itself.

func (s *CommunityStore) Create(ctx context.Context, name, description, project string, members []models.Member) (*models.Community, error) {
	if members == nil {
		members = make([]models.Member, 0)
	}

	query := `
		INSERT INTO communities (id, name, description, project, members, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, now())
		RETURNING id, name, description, project, members,
		          project_lead_id, project_lead_email, lead_temp_password, created_at`

	var c models.Community
	err := s.pool.QueryRow(ctx, query, name, description, project, members).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Project,
		&c.Members,
		&c.ProjectLeadID,
		&c.ProjectLeadEmail,
		&c.LeadTempPassword,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert community: %w", err)
	}
	return &c, nil
}

func (s *CommunityStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	query := `
		SELECT id, name, description, project, members,
		       project_lead_id, project_lead_email, lead_temp_password, created_at
		FROM communities
		WHERE id = $1`

	var c models.Community
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Project,
		&c.Members,
		&c.ProjectLeadID,
		&c.ProjectLeadEmail,
		&c.LeadTempPassword,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get community: %w", err)
	}
	return &c, nil
}

// List returns communities newest first. The id tiebreak keeps the order
// stable when two communities share a creation timestamp.
func (s *CommunityStore) List(ctx context.Context) ([]models.Community, error) {
	query := `
		SELECT id, name, description, project, members,
		       project_lead_id, project_lead_email, lead_temp_password, created_at
		FROM communities
		ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	defer rows.Close()

	communities := make([]models.Community, 0)
	for rows.Next() {
		var c models.Community
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.Project,
			&c.Members,
			&c.ProjectLeadID,
			&c.ProjectLeadEmail,
			&c.LeadTempPassword,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		communities = append(communities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate communities: %w", err)
	}

	return communities, nil
}

// UpdateMembers replaces the entire member list. One row, one write —
// this is the single-document atomicity the membership logic leans on.
func (s *CommunityStore) UpdateMembers(ctx context.Context, id uuid.UUID, members []models.Member) error {
	if members == nil {
		members = make([]models.Member, 0)
	}

	query := `
		UPDATE communities
		SET members = $2
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, members)
	if err != nil {
		return fmt.Errorf("update members: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update members: no such community %s", id)
	}
	return nil
}

func (s *CommunityStore) SetLead(ctx context.Context, id uuid.UUID, leadID, leadEmail string) error {
	query := `
		UPDATE communities
		SET project_lead_id = $2, project_lead_email = $3
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, leadID, leadEmail)
	if err != nil {
		return fmt.Errorf("set lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set lead: no such community %s", id)
	}
	return nil
}

func (s *CommunityStore) SetLeadTempPassword(ctx context.Context, id uuid.UUID, password string) error {
	query := `
		UPDATE communities
		SET lead_temp_password = $2
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id, password)
	if err != nil {
		return fmt.Errorf("set lead temp password: %w", err)
	}
	return nil
}

// ClearLead empties the lead slot and the one-time credential together.
func (s *CommunityStore) ClearLead(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE communities
		SET project_lead_id = '', project_lead_email = '', lead_temp_password = ''
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clear lead: %w", err)
	}
	return nil
}

func (s *CommunityStore) Delete(ctx context.Context, id uuid.UUID) error {
	// Deliberately no cascade: tasks and feed messages under the community
	// are left orphaned, matching the documented lifecycle.
	query := `DELETE FROM communities WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete community: %w", err)
	}
	return nil
}
