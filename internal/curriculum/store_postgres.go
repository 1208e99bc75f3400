package curriculum

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// PostgresStore keeps module documents as jsonb rows in curriculum_modules.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed module store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the curriculum_modules table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create curriculum schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetModule(ctx context.Context, key ModuleKey) (*Module, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var document []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM curriculum_modules WHERE slug = $1`,
		key.Slug(),
	).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, key.Slug())
		}
		return nil, fmt.Errorf("get module: %w", err)
	}

	return ParseJSON(document)
}

// PutModule inserts or replaces the module stored for key.
func (s *PostgresStore) PutModule(ctx context.Context, key ModuleKey, m *Module) error {
	if m == nil {
		return fmt.Errorf("module is nil")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal module: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO curriculum_modules (slug, country, grade, subject, document, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, NOW())
		 ON CONFLICT (slug) DO UPDATE
		 SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		key.Slug(),
		key.Country,
		key.Grade,
		key.Subject,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("put module: %w", err)
	}
	return nil
}
