package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chris/nudge/internal/model"
)

// Timestamps are stored as fixed-width UTC text so string comparison in SQL
// matches chronological order.
const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	// Rows written before the fixed layout carry an ISO-8601 offset.
	if t, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
}

// InsertTask creates an open task and returns its ID.
func (d *DB) InsertTask(ctx context.Context, conversationID string, section model.Section, body string, createdAt time.Time) (int64, error) {
	res, err := d.conn.ExecContext(ctx,
		"INSERT INTO tasks (conversation_id, section, body, created_at, done) VALUES (?, ?, ?, ?, 0)",
		conversationID, section.String(), body, formatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}
	return res.LastInsertId()
}

// ListOpenTasks returns every open task of a conversation, in no particular order.
func (d *DB) ListOpenTasks(ctx context.Context, conversationID string) ([]model.Task, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, conversation_id, section, body, created_at, done, COALESCE(done_at,'')
		 FROM tasks WHERE conversation_id = ? AND done = 0`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing open tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListDoneInRange returns tasks completed in [start, end), oldest completion first.
func (d *DB) ListDoneInRange(ctx context.Context, conversationID string, start, end time.Time) ([]model.Task, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, conversation_id, section, body, created_at, done, COALESCE(done_at,'')
		 FROM tasks
		 WHERE conversation_id = ? AND done = 1 AND done_at IS NOT NULL
		   AND done_at >= ? AND done_at < ?
		 ORDER BY done_at ASC, id ASC`,
		conversationID, formatTime(start), formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("listing done tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// MarkDone completes an open task. It reports false when the task does not
// exist, belongs to another conversation, or is already done.
func (d *DB) MarkDone(ctx context.Context, conversationID string, id int64, doneAt time.Time) (bool, error) {
	res, err := d.conn.ExecContext(ctx,
		"UPDATE tasks SET done = 1, done_at = ? WHERE conversation_id = ? AND id = ? AND done = 0",
		formatTime(doneAt), conversationID, id,
	)
	if err != nil {
		return false, fmt.Errorf("marking task %d done: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking task %d done: %w", id, err)
	}
	return n > 0, nil
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	var out []model.Task
	for rows.Next() {
		var (
			t                 model.Task
			section           string
			createdAt, doneAt string
			done              int
		)
		if err := rows.Scan(&t.ID, &t.ConversationID, &section, &t.Body, &createdAt, &done, &doneAt); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.Section = model.ParseSection(section)
		t.Done = done == 1

		var err error
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if doneAt != "" {
			at, err := parseTime(doneAt)
			if err != nil {
				return nil, err
			}
			t.DoneAt = &at
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
