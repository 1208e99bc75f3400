// Package audit records the outcome of every topic lookup.
package audit

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// Event is one resolved (or unresolved) lookup.
type Event struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	ModuleSlug string    `json:"module_slug"`
	Query      string    `json:"query"`
	Found      bool      `json:"found"`
	Score      float64   `json:"score"`
	SubtopicID string    `json:"subtopic_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Logger records lookup events.
type Logger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopLogger ignores all events.
type NopLogger struct{}

func (NopLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryLogger stores events in memory for tests.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{
		events: []Event{},
	}
}

func (l *MemoryLogger) LogEvent(_ context.Context, event Event) error {
	if err := prepare(&event); err != nil {
		return err
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresLogger inserts events into the match_events table.
type PostgresLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresLogger(pool *pgxpool.Pool) *PostgresLogger {
	return &PostgresLogger{pool: pool}
}

// EnsureSchema creates the match_events table if it does not exist.
func (l *PostgresLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := l.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func (l *PostgresLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if err := prepare(&event); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := l.pool.Exec(ctx,
		`INSERT INTO match_events (id, request_id, module_slug, query, found, score, subtopic_id, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID,
		event.RequestID,
		event.ModuleSlug,
		event.Query,
		event.Found,
		event.Score,
		event.SubtopicID,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match event: %w", err)
	}

	slog.Debug("match event logged",
		"id", event.ID,
		"module", event.ModuleSlug,
		"found", event.Found,
	)
	return nil
}

// Recent returns the latest events for a module, newest first.
func (l *PostgresLogger) Recent(ctx context.Context, moduleSlug string, limit int) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT id::text, request_id, module_slug, query, found, score, subtopic_id, created_at
		 FROM match_events
		 WHERE module_slug = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		moduleSlug, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query match events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.RequestID, &e.ModuleSlug, &e.Query, &e.Found, &e.Score, &e.SubtopicID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match events: %w", err)
	}
	return events, nil
}

func prepare(event *Event) error {
	if event.ModuleSlug == "" {
		return fmt.Errorf("module_slug is required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return nil
}
