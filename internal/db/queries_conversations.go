package db

import (
	"context"
	"fmt"
	"time"
)

// RegisterConversation records that reminders are set up for a conversation.
// It reports true only for the call that created the record.
func (d *DB) RegisterConversation(ctx context.Context, conversationID string, at time.Time) (bool, error) {
	res, err := d.conn.ExecContext(ctx,
		"INSERT INTO conversations (conversation_id, registered_at) VALUES (?, ?) ON CONFLICT(conversation_id) DO NOTHING",
		conversationID, formatTime(at),
	)
	if err != nil {
		return false, fmt.Errorf("registering conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("registering conversation: %w", err)
	}
	return n > 0, nil
}

// ListConversations returns all registered conversations, oldest first.
func (d *DB) ListConversations(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT conversation_id FROM conversations ORDER BY registered_at ASC, conversation_id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
