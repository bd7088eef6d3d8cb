package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FeedStore struct {
	pool *pgxpool.Pool
}

func NewFeedStore(pool *pgxpool.Pool) *FeedStore {
	return &FeedStore{pool: pool}
}

func (s *FeedStore) Create(ctx context.Context, msg models.FeedMessage) (*models.FeedMessage, error) {
	query := `
		INSERT INTO feed_messages (id, community_id, sender_email, sender_id, body, is_admin_post, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, now())
		RETURNING id, community_id, sender_email, sender_id, body, is_admin_post, created_at`

	var m models.FeedMessage
	err := s.pool.QueryRow(ctx, query,
		msg.CommunityID,
		msg.SenderEmail,
		msg.SenderID,
		msg.Body,
		msg.IsAdminPost,
	).Scan(
		&m.ID,
		&m.CommunityID,
		&m.SenderEmail,
		&m.SenderID,
		&m.Body,
		&m.IsAdminPost,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert feed message: %w", err)
	}
	return &m, nil
}

// ListOrdered returns the log oldest first — a chat feed reads top-down.
func (s *FeedStore) ListOrdered(ctx context.Context, communityID uuid.UUID) ([]models.FeedMessage, error) {
	return s.list(ctx, `
		SELECT id, community_id, sender_email, sender_id, body, is_admin_post, created_at
		FROM feed_messages
		WHERE community_id = $1
		ORDER BY created_at ASC, id ASC`, communityID)
}

// ListUnordered backs the client-side-sort fallback path.
func (s *FeedStore) ListUnordered(ctx context.Context, communityID uuid.UUID) ([]models.FeedMessage, error) {
	return s.list(ctx, `
		SELECT id, community_id, sender_email, sender_id, body, is_admin_post, created_at
		FROM feed_messages
		WHERE community_id = $1`, communityID)
}

func (s *FeedStore) list(ctx context.Context, query string, communityID uuid.UUID) ([]models.FeedMessage, error) {
	rows, err := s.pool.Query(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("list feed messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanFeedMessages(rows)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func scanFeedMessages(rows pgx.Rows) ([]models.FeedMessage, error) {
	messages := make([]models.FeedMessage, 0)
	for rows.Next() {
		var m models.FeedMessage
		if err := rows.Scan(
			&m.ID,
			&m.CommunityID,
			&m.SenderEmail,
			&m.SenderID,
			&m.Body,
			&m.IsAdminPost,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan feed message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed messages: %w", err)
	}
	return messages, nil
}

func (s *FeedStore) Delete(ctx context.Context, communityID, messageID uuid.UUID) error {
	query := `DELETE FROM feed_messages WHERE id = $1 AND community_id = $2`

	_, err := s.pool.Exec(ctx, query, messageID, communityID)
	if err != nil {
		return fmt.Errorf("delete feed message: %w", err)
	}
	return nil
}
