package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/ports"
)

const resultsTable = "analysis_results"

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

const schema = `CREATE TABLE IF NOT EXISTS analysis_results (
    id         TEXT PRIMARY KEY,
    result     JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists raw analysis results into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ResultRepository = (*PostgresRepository)(nil)

// Open connects to Postgres through the pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the results table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadResult returns the stored payload or domain.ErrMissingResult.
func (r *PostgresRepository) LoadResult(ctx context.Context, id string) (domain.RawAnalysisResult, error) {
	query, args, err := selectResultQuery(id)
	if err != nil {
		return domain.RawAnalysisResult{}, fmt.Errorf("build select: %w", err)
	}

	var payload []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.RawAnalysisResult{}, domain.ErrMissingResult
	case err != nil:
		return domain.RawAnalysisResult{}, fmt.Errorf("query result %s: %w", id, describe(err))
	}

	var raw domain.RawAnalysisResult
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.RawAnalysisResult{}, fmt.Errorf("decode result %s: %w", id, err)
	}
	return raw, nil
}

// SaveResult upserts the raw payload under id.
func (r *PostgresRepository) SaveResult(ctx context.Context, id string, raw domain.RawAnalysisResult) error {
	query, args, err := upsertResultQuery(id, raw)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert result %s: %w", id, describe(err))
	}
	return nil
}

func selectResultQuery(id string) (string, []any, error) {
	return psql.Select("result").
		From(resultsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
}

func upsertResultQuery(id string, raw domain.RawAnalysisResult) (string, []any, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return "", nil, fmt.Errorf("encode result: %w", err)
	}

	return psql.Insert(resultsTable).
		Columns("id", "result").
		Values(id, string(payload)).
		Suffix("ON CONFLICT (id) DO UPDATE SET result = EXCLUDED.result, updated_at = NOW()").
		ToSql()
}

// describe adds a hint to driver errors that usually mean a missing migration.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%w (run with schema creation enabled)", err)
	}
	return err
}
