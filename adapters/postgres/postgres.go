// Package postgres provides a PostgreSQL implementation of the fact log adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/factlog/factlog/adapters"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Sentinel errors for the postgres adapter.
// These are aliases to the adapters package errors for compatibility with errors.Is().
var (
	ErrAdapterClosed = adapters.ErrAdapterClosed
	ErrEmptyEntity   = adapters.ErrEmptyEntity
	ErrNoFacts       = adapters.ErrNoFacts
	ErrMalformedFact = adapters.ErrMalformedFact
)

// Ensure PostgresAdapter implements required interfaces.
var (
	_ adapters.FactLogAdapter    = (*PostgresAdapter)(nil)
	_ adapters.FeedAdapter       = (*PostgresAdapter)(nil)
	_ adapters.CheckpointAdapter = (*PostgresAdapter)(nil)
	_ adapters.HealthChecker     = (*PostgresAdapter)(nil)
)

// PostgresAdapter is a PostgreSQL implementation of FactLogAdapter.
// The BIGSERIAL seq column provides the monotonic tie-break sequence the
// replay order depends on.
type PostgresAdapter struct {
	db     *sql.DB
	schema string
	closed bool
}

// Option configures a PostgresAdapter.
type Option func(*PostgresAdapter)

// WithSchema sets the database schema name.
func WithSchema(schema string) Option {
	return func(a *PostgresAdapter) {
		a.schema = schema
	}
}

// WithMaxConnections sets the maximum number of open connections.
func WithMaxConnections(n int) Option {
	return func(a *PostgresAdapter) {
		a.db.SetMaxOpenConns(n)
	}
}

// WithConnectionMaxLifetime sets the maximum connection lifetime.
func WithConnectionMaxLifetime(d time.Duration) Option {
	return func(a *PostgresAdapter) {
		a.db.SetConnMaxLifetime(d)
	}
}

// NewAdapter creates a new PostgreSQL fact log adapter using the pgx driver.
func NewAdapter(connStr string, opts ...Option) (*PostgresAdapter, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("factlog/postgres: failed to open database: %w", err)
	}

	adapter := &PostgresAdapter{
		db:     db,
		schema: "factlog",
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter, nil
}

// NewAdapterWithDB creates a new adapter with an existing database
// connection. Any database/sql driver speaking PostgreSQL works, including
// lib/pq.
func NewAdapterWithDB(db *sql.DB, opts ...Option) *PostgresAdapter {
	adapter := &PostgresAdapter{
		db:     db,
		schema: "factlog",
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// Schema returns the DDL for the fact log tables.
// Exposed so tooling can print or apply it independently.
func Schema(schema string) string {
	return fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[1]s.facts (
	seq         BIGSERIAL PRIMARY KEY,
	fact_id     UUID NOT NULL DEFAULT gen_random_uuid(),
	entity      VARCHAR(500) NOT NULL,
	attribute   VARCHAR(500) NOT NULL,
	value_type  VARCHAR(500),
	value       BYTEA,
	fact_time   TIMESTAMPTZ NOT NULL,
	operation   VARCHAR(10) NOT NULL CHECK (operation IN ('assert', 'retract')),
	appended_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_facts_entity_time
	ON %[1]s.facts (entity, fact_time, seq);

CREATE TABLE IF NOT EXISTS %[1]s.checkpoints (
	name       VARCHAR(250) PRIMARY KEY,
	seq        BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`, schema)
}

// Initialize creates the required database schema and tables.
func (a *PostgresAdapter) Initialize(ctx context.Context) error {
	if a.closed {
		return ErrAdapterClosed
	}

	if _, err := a.db.ExecContext(ctx, Schema(a.schema)); err != nil {
		return fmt.Errorf("factlog/postgres: failed to initialize schema: %w", err)
	}
	return nil
}

// AppendFacts durably stores the records in one transaction.
// Seq assignment is left to BIGSERIAL, which linearizes appends.
func (a *PostgresAdapter) AppendFacts(ctx context.Context, records []adapters.FactRecord) ([]adapters.StoredFact, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}

	if len(records) == 0 {
		return nil, ErrNoFacts
	}

	for _, record := range records {
		if err := adapters.ValidateRecord(record); err != nil {
			return nil, err
		}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("factlog/postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	insert := fmt.Sprintf(`
		INSERT INTO %s.facts (entity, attribute, value_type, value, fact_time, operation)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, fact_id`, a.schema)

	stored := make([]adapters.StoredFact, len(records))
	for i, record := range records {
		op := "retract"
		if record.Assert {
			op = "assert"
		}

		var seq uint64
		var factID string
		err := tx.QueryRowContext(ctx, insert,
			record.Entity, record.Attribute, nullString(record.ValueType),
			record.Value, record.Time, op,
		).Scan(&seq, &factID)
		if err != nil {
			return nil, fmt.Errorf("factlog/postgres: failed to insert fact %d: %w", i, err)
		}

		stored[i] = adapters.StoredFact{
			ID:        factID,
			Entity:    record.Entity,
			Attribute: record.Attribute,
			ValueType: record.ValueType,
			Value:     record.Value,
			Time:      record.Time,
			Assert:    record.Assert,
			Seq:       seq,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("factlog/postgres: failed to commit append: %w", err)
	}

	return stored, nil
}

// FactsFor returns the entity's facts with fact_time <= upto, ordered by
// (fact_time, seq) ascending.
func (a *PostgresAdapter) FactsFor(ctx context.Context, entity string, upto time.Time) ([]adapters.StoredFact, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}

	if entity == "" {
		return nil, ErrEmptyEntity
	}

	query := fmt.Sprintf(`
		SELECT seq, fact_id, entity, attribute, value_type, value, fact_time, operation
		FROM %s.facts
		WHERE entity = $1 AND fact_time <= $2
		ORDER BY fact_time ASC, seq ASC`, a.schema)

	rows, err := a.db.QueryContext(ctx, query, entity, upto)
	if err != nil {
		return nil, fmt.Errorf("factlog/postgres: failed to load facts: %w", err)
	}
	defer rows.Close()

	return scanFacts(rows)
}

// Head returns the sequence number of the most recent fact.
func (a *PostgresAdapter) Head(ctx context.Context) (uint64, error) {
	if a.closed {
		return 0, ErrAdapterClosed
	}

	query := fmt.Sprintf(`SELECT COALESCE(MAX(seq), 0) FROM %s.facts`, a.schema)

	var head uint64
	if err := a.db.QueryRowContext(ctx, query).Scan(&head); err != nil {
		return 0, fmt.Errorf("factlog/postgres: failed to read head: %w", err)
	}
	return head, nil
}

// GetLogInfo returns metadata about the log.
func (a *PostgresAdapter) GetLogInfo(ctx context.Context) (*adapters.LogInfo, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*), COUNT(DISTINCT entity), COALESCE(MAX(seq), 0),
		       COALESCE(MIN(appended_at), 'epoch'::timestamptz),
		       COALESCE(MAX(appended_at), 'epoch'::timestamptz)
		FROM %s.facts`, a.schema)

	info := &adapters.LogInfo{}
	err := a.db.QueryRowContext(ctx, query).Scan(
		&info.FactCount, &info.EntityCount, &info.Head,
		&info.FirstAppendedAt, &info.LastAppendedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("factlog/postgres: failed to read log info: %w", err)
	}
	return info, nil
}

// Ping checks the database connection.
func (a *PostgresAdapter) Ping(ctx context.Context) error {
	if a.closed {
		return ErrAdapterClosed
	}
	return a.db.PingContext(ctx)
}

// Close closes the database connection.
func (a *PostgresAdapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}

func scanFacts(rows *sql.Rows) ([]adapters.StoredFact, error) {
	facts := make([]adapters.StoredFact, 0)
	for rows.Next() {
		var sf adapters.StoredFact
		var valueType sql.NullString
		var value []byte
		var op string

		err := rows.Scan(&sf.Seq, &sf.ID, &sf.Entity, &sf.Attribute, &valueType, &value, &sf.Time, &op)
		if err != nil {
			return nil, fmt.Errorf("factlog/postgres: failed to scan fact: %w", err)
		}

		sf.ValueType = valueType.String
		sf.Value = value
		sf.Assert = op == "assert"
		facts = append(facts, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("factlog/postgres: row iteration failed: %w", err)
	}
	return facts, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
