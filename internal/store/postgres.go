package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Postgres stores incidence records in a single table:
//
//	CREATE TABLE incidences (
//	    id_incidence BIGINT PRIMARY KEY,
//	    sector       TEXT NOT NULL DEFAULT '',
//	    fields       JSONB NOT NULL DEFAULT '{}'::jsonb,
//	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	)
//
// Merge-vs-replace is decided in SQL (jsonb || vs overwrite) so each Upsert
// is one atomic statement with no read-modify-write window.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps a pool or transaction.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

const getRecordSQL = `
SELECT sector, fields, updated_at
FROM incidences
WHERE id_incidence = $1`

func (p *Postgres) Get(ctx context.Context, id int64) (*Record, error) {
	if id <= 0 {
		return nil, fault.New(fault.KindValidationError, "identity key must be positive, got %d", id)
	}

	var (
		sector    string
		rawFields []byte
		updatedAt time.Time
	)
	err := p.db.QueryRow(ctx, getRecordSQL, id).Scan(&sector, &rawFields, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyPgError(err, "get incidence %d", id)
	}

	fields := map[string]string{}
	if len(rawFields) > 0 {
		if err := json.Unmarshal(rawFields, &fields); err != nil {
			return nil, fault.Wrap(fault.KindDatabaseError, err, "decode stored fields for incidence %d", id)
		}
	}
	return &Record{ID: id, Sector: sector, Fields: fields, UpdatedAt: updatedAt}, nil
}

const mergeRecordSQL = `
INSERT INTO incidences (id_incidence, sector, fields, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id_incidence) DO UPDATE SET
    sector     = CASE WHEN EXCLUDED.sector <> '' THEN EXCLUDED.sector ELSE incidences.sector END,
    fields     = incidences.fields || EXCLUDED.fields,
    updated_at = now()`

const replaceRecordSQL = `
INSERT INTO incidences (id_incidence, sector, fields, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id_incidence) DO UPDATE SET
    sector     = CASE WHEN EXCLUDED.sector <> '' THEN EXCLUDED.sector ELSE incidences.sector END,
    fields     = EXCLUDED.fields,
    updated_at = now()`

func (p *Postgres) Upsert(ctx context.Context, id int64, sector string, fields map[string]string, replace bool) error {
	if id <= 0 {
		return fault.New(fault.KindValidationError, "identity key must be positive, got %d", id)
	}
	if replace && len(fields) == 0 {
		return fault.New(fault.KindValidationError, "refusing to replace incidence %d with an empty field payload", id)
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return fault.Wrap(fault.KindValidationError, err, "encode fields for incidence %d", id)
	}

	sql := mergeRecordSQL
	if replace {
		sql = replaceRecordSQL
	}
	if _, err := p.db.Exec(ctx, sql, id, sector, encoded); err != nil {
		return classifyPgError(err, "upsert incidence %d", id)
	}
	return nil
}

// classifyPgError maps Postgres failures onto the taxonomy. Integrity
// violations and connectivity problems are both database_error; the
// SQLSTATE is kept in the wrapped cause for support diagnosis.
// validation_error is reserved for business rules checked before the
// statement runs.
func classifyPgError(err error, format string, args ...any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fault.Wrap(fault.KindDatabaseError, err, format+" (SQLSTATE %s)", append(args, pgErr.Code)...)
	}
	return fault.Wrap(fault.KindDatabaseError, err, format, args...)
}
