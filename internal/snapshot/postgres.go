package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/postgres"
)

const createSnapshotTable = `
CREATE TABLE IF NOT EXISTS word_snapshots (
	name       TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the snapshot as one row of the word_snapshots table.
type PostgresStore struct {
	client *postgres.Client
	name   string
}

// NewPostgresStore creates the table if needed.
func NewPostgresStore(ctx context.Context, client *postgres.Client, name string) (*PostgresStore, error) {
	if _, err := client.DB.ExecContext(ctx, createSnapshotTable); err != nil {
		return nil, fmt.Errorf("creating word_snapshots table: %w", err)
	}
	return &PostgresStore{client: client, name: name}, nil
}

func (s *PostgresStore) Name() string {
	return "postgres:" + s.name
}

func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT data FROM word_snapshots WHERE name = $1`, s.name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading snapshot %s: %w", s.name, err)
	}
	return data, nil
}

func (s *PostgresStore) Save(ctx context.Context, data []byte) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO word_snapshots (name, data, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			s.name, data,
		)
		return err
	})
	if err != nil {
		return writeFailure("storing snapshot "+s.name, err)
	}
	return nil
}
