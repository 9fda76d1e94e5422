package assistant

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres. Messages cascade when their
// conversation is deleted.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) CreateConversation(ctx context.Context, conv Conversation) error {
	const query = `
INSERT INTO conversations (id, user_id, title, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		conv.ID,
		conv.UserID,
		conv.Title,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetConversation(ctx context.Context, userID, convID string) (Conversation, error) {
	const query = `
SELECT id, user_id, title, created_at, updated_at
FROM conversations
WHERE id = $1 AND user_id = $2`

	var conv Conversation
	err := r.DB.QueryRowContext(ctx, query, convID, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

func (r *PGRepo) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	const query = `
SELECT id, user_id, title, created_at, updated_at
FROM conversations
WHERE user_id = $1
ORDER BY updated_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (r *PGRepo) TouchConversation(ctx context.Context, convID string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE conversations SET updated_at = $2 WHERE id = $1`, convID, at)
	return err
}

func (r *PGRepo) DeleteConversation(ctx context.Context, userID, convID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`, convID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) DeleteAllConversations(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM conversations WHERE user_id = $1`, userID)
	return err
}

func (r *PGRepo) AddMessage(ctx context.Context, msg Message) error {
	const query = `
INSERT INTO messages (id, conversation_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.CreatedAt,
	)
	return err
}

func (r *PGRepo) ListMessages(ctx context.Context, convID string) ([]Message, error) {
	const query = `
SELECT id, conversation_id, role, content, created_at
FROM messages
WHERE conversation_id = $1
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
