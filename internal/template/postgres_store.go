package template

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/utasoy/market-reconciler/internal/db"
)

// PostgresStore persists templates as rows instead of one-file-per-name
// on local disk, so a pool of API replicas all see the same template
// set without a shared filesystem.
type PostgresStore struct {
	db *db.DB
}

// NewPostgresStore ensures the templates table exists and returns a
// PostgresStore backed by conn.
func NewPostgresStore(ctx context.Context, conn *db.DB) (*PostgresStore, error) {
	const schema = `
CREATE TABLE IF NOT EXISTS templates (
	name       TEXT PRIMARY KEY,
	config     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("template: create table: %w", err)
	}
	return &PostgresStore{db: conn}, nil
}

// Load returns name's mapping, or an empty Mapping if none is stored.
func (s *PostgresStore) Load(name string) (Mapping, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT config FROM templates WHERE name = $1`, name)
	if err != nil {
		return Mapping{}, nil
	}

	mapping := Mapping{}
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("template: decode %q: %w", name, err)
	}
	return mapping, nil
}

// Save upserts name's mapping.
func (s *PostgresStore) Save(name string, m Mapping) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("template: encode %q: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const upsert = `
INSERT INTO templates (name, config, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()
`
	if _, err := s.db.ExecContext(ctx, upsert, name, raw); err != nil {
		return fmt.Errorf("template: save %q: %w", name, err)
	}
	return nil
}

// List returns every stored template name.
func (s *PostgresStore) List() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM templates ORDER BY name`); err != nil {
		return nil, fmt.Errorf("template: list: %w", err)
	}
	return names, nil
}

var _ Store = (*PostgresStore)(nil)
