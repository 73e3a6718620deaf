// Package pgdb is the PostgreSQL task store. It satisfies the same contract
// as the SQLite store in internal/db.
package pgdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chris/nudge/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id              BIGSERIAL PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    section         TEXT NOT NULL DEFAULT 'General',
    body            TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    done            BOOLEAN NOT NULL DEFAULT FALSE,
    done_at         TIMESTAMPTZ
);
ALTER TABLE tasks ADD COLUMN IF NOT EXISTS section TEXT NOT NULL DEFAULT 'General';
ALTER TABLE tasks ADD COLUMN IF NOT EXISTS done_at TIMESTAMPTZ;
CREATE INDEX IF NOT EXISTS idx_tasks_conversation_done ON tasks(conversation_id, done);
CREATE TABLE IF NOT EXISTS conversations (
    conversation_id TEXT PRIMARY KEY,
    registered_at   TIMESTAMPTZ NOT NULL
);`

const pingTimeout = 10 * time.Second

type DB struct {
	pool *pgxpool.Pool
}

// Open connects to url, pings, and applies the schema.
func Open(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &DB{pool: pool}, nil
}

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

func (d *DB) InsertTask(ctx context.Context, conversationID string, section model.Section, body string, createdAt time.Time) (int64, error) {
	var id int64
	err := d.pool.QueryRow(ctx,
		"INSERT INTO tasks (conversation_id, section, body, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		conversationID, section.String(), body, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}
	return id, nil
}

func (d *DB) ListOpenTasks(ctx context.Context, conversationID string) ([]model.Task, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, conversation_id, section, body, created_at, done, done_at
		 FROM tasks WHERE conversation_id = $1 AND NOT done`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing open tasks: %w", err)
	}
	return collectTasks(rows)
}

func (d *DB) ListDoneInRange(ctx context.Context, conversationID string, start, end time.Time) ([]model.Task, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, conversation_id, section, body, created_at, done, done_at
		 FROM tasks
		 WHERE conversation_id = $1 AND done AND done_at IS NOT NULL
		   AND done_at >= $2 AND done_at < $3
		 ORDER BY done_at ASC, id ASC`,
		conversationID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("listing done tasks: %w", err)
	}
	return collectTasks(rows)
}

func (d *DB) MarkDone(ctx context.Context, conversationID string, id int64, doneAt time.Time) (bool, error) {
	tag, err := d.pool.Exec(ctx,
		"UPDATE tasks SET done = TRUE, done_at = $1 WHERE conversation_id = $2 AND id = $3 AND NOT done",
		doneAt, conversationID, id,
	)
	if err != nil {
		return false, fmt.Errorf("marking task %d done: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (d *DB) RegisterConversation(ctx context.Context, conversationID string, at time.Time) (bool, error) {
	tag, err := d.pool.Exec(ctx,
		"INSERT INTO conversations (conversation_id, registered_at) VALUES ($1, $2) ON CONFLICT (conversation_id) DO NOTHING",
		conversationID, at,
	)
	if err != nil {
		return false, fmt.Errorf("registering conversation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (d *DB) ListConversations(ctx context.Context) ([]string, error) {
	rows, err := d.pool.Query(ctx, "SELECT conversation_id FROM conversations ORDER BY registered_at ASC, conversation_id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning conversations: %w", err)
	}
	return ids, nil
}

func collectTasks(rows pgx.Rows) ([]model.Task, error) {
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Task, error) {
		var (
			t       model.Task
			section string
		)
		if err := row.Scan(&t.ID, &t.ConversationID, &section, &t.Body, &t.CreatedAt, &t.Done, &t.DoneAt); err != nil {
			return model.Task{}, err
		}
		t.Section = model.ParseSection(section)
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning tasks: %w", err)
	}
	return tasks, nil
}
