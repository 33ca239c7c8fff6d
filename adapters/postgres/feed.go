package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/factlog/factlog/adapters"
)

// LoadFromSeq loads facts with seq > fromSeq in sequence order.
// This serves followers and relays catching up on the global feed.
func (a *PostgresAdapter) LoadFromSeq(ctx context.Context, fromSeq uint64, limit int) ([]adapters.StoredFact, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}

	limit = adapters.DefaultLimit(limit, 1000)

	query := fmt.Sprintf(`
		SELECT seq, fact_id, entity, attribute, value_type, value, fact_time, operation
		FROM %s.facts
		WHERE seq > $1
		ORDER BY seq ASC
		LIMIT $2`, a.schema)

	rows, err := a.db.QueryContext(ctx, query, fromSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("factlog/postgres: failed to load feed: %w", err)
	}
	defer rows.Close()

	return scanFacts(rows)
}

// GetCheckpoint returns the last processed sequence for a follower.
// Returns 0 if no checkpoint exists.
func (a *PostgresAdapter) GetCheckpoint(ctx context.Context, name string) (uint64, error) {
	if a.closed {
		return 0, ErrAdapterClosed
	}

	query := fmt.Sprintf(`SELECT seq FROM %s.checkpoints WHERE name = $1`, a.schema)

	var seq uint64
	err := a.db.QueryRowContext(ctx, query, name).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("factlog/postgres: failed to read checkpoint %q: %w", name, err)
	}
	return seq, nil
}

// SetCheckpoint stores the last processed sequence for a follower.
func (a *PostgresAdapter) SetCheckpoint(ctx context.Context, name string, seq uint64) error {
	if a.closed {
		return ErrAdapterClosed
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.checkpoints (name, seq, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET seq = EXCLUDED.seq, updated_at = EXCLUDED.updated_at`, a.schema)

	if _, err := a.db.ExecContext(ctx, query, name, seq, time.Now()); err != nil {
		return fmt.Errorf("factlog/postgres: failed to set checkpoint %q: %w", name, err)
	}
	return nil
}
