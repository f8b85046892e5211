// Package store persists incidence records keyed by a positive-integer
// identity. The Postgres implementation is the production path; Memory backs
// tests and dry-run tooling.
package store

import (
	"context"
	"time"
)

// Record is one stored incidence: the identity key, its sector label, and
// the flattened field payload in canonical-string form.
type Record struct {
	ID        int64
	Sector    string
	Fields    map[string]string
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can mutate freely.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &Record{ID: r.ID, Sector: r.Sector, Fields: fields, UpdatedAt: r.UpdatedAt}
}

// Store is the record-store contract the pipeline consumes. Both methods
// issue at most one statement; failures surface instead of retrying, since
// a silent retry risks double-applying a field write.
type Store interface {
	// Get returns the record for id, or (nil, nil) when absent.
	Get(ctx context.Context, id int64) (*Record, error)

	// Upsert writes fields for id. With replace=false only the given
	// fields change (merge); with replace=true the stored field payload
	// is replaced wholesale. Business-rule rejections carry
	// validation_error; integrity and connectivity failures carry
	// database_error.
	Upsert(ctx context.Context, id int64, sector string, fields map[string]string, replace bool) error
}
