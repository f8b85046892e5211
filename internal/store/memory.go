package store

import (
	"context"
	"sync"
	"time"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
)

// Memory is an in-process Store with the same merge/replace semantics as
// the Postgres implementation. Used by tests and dry-run tooling.
type Memory struct {
	mu      sync.RWMutex
	records map[int64]*Record

	// FailNextUpsert, when set, makes the next Upsert fail with the given
	// error and clears itself. Lets tests exercise rollback paths.
	FailNextUpsert error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[int64]*Record)}
}

func (m *Memory) Get(ctx context.Context, id int64) (*Record, error) {
	if id <= 0 {
		return nil, fault.New(fault.KindValidationError, "identity key must be positive, got %d", id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (m *Memory) Upsert(ctx context.Context, id int64, sector string, fields map[string]string, replace bool) error {
	if id <= 0 {
		return fault.New(fault.KindValidationError, "identity key must be positive, got %d", id)
	}
	if replace && len(fields) == 0 {
		return fault.New(fault.KindValidationError, "refusing to replace incidence %d with an empty field payload", id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNextUpsert != nil {
		err := m.FailNextUpsert
		m.FailNextUpsert = nil
		return err
	}

	rec, ok := m.records[id]
	if !ok || replace {
		merged := make(map[string]string, len(fields))
		for k, v := range fields {
			merged[k] = v
		}
		// Merge onto an existing record when not replacing.
		if ok && !replace {
			for k, v := range rec.Fields {
				if _, set := merged[k]; !set {
					merged[k] = v
				}
			}
		}
		next := &Record{ID: id, Sector: sector, Fields: merged, UpdatedAt: time.Now().UTC()}
		if sector == "" && ok {
			next.Sector = rec.Sector
		}
		m.records[id] = next
		return nil
	}

	for k, v := range fields {
		rec.Fields[k] = v
	}
	if sector != "" {
		rec.Sector = sector
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
