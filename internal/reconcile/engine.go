package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/staging"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/store"
)

// State is the per-artifact reconciliation state, driven by repeated
// uploads and partial confirmations.
type State string

const (
	// StatePending: the staged artifact has unconfirmed diff entries and
	// nothing has been applied from it yet.
	StatePending State = "pending"

	// StatePartiallyConfirmed: a strict subset of entries was accepted
	// and written; the recomputed diff is still non-empty.
	StatePartiallyConfirmed State = "partially_confirmed"

	// StateConverged: the recomputed diff against the current store is
	// empty. Terminal for this artifact; the artifact is removed.
	StateConverged State = "converged"
)

// Outcome reports the result of an Apply or Status call.
type Outcome struct {
	IDIncidence    int64
	State          State
	RemainingDiffs int
	AppliedFields  int
	Message        string
}

// Engine reconciles staged artifacts against the record store, one
// identity key at a time.
type Engine struct {
	Store     store.Store
	Artifacts *staging.ArtifactStore
	Log       *slog.Logger
}

// NewEngine wires an Engine.
func NewEngine(st store.Store, artifacts *staging.ArtifactStore) *Engine {
	return &Engine{Store: st, Artifacts: artifacts, Log: slog.Default()}
}

// Diff computes the outstanding entries for a staged identity key.
// Previously confirmed fields that still differ (the store moved underneath)
// reappear unconfirmed, which is what makes re-upload convergence honest.
func (e *Engine) Diff(ctx context.Context, id int64) ([]Entry, error) {
	artifact, err := e.loadArtifact(id)
	if err != nil {
		return nil, err
	}
	rec, err := e.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Diff(artifact.Fields, rec), nil
}

// Status reports the current state without writing anything.
func (e *Engine) Status(ctx context.Context, id int64) (Outcome, error) {
	artifact, err := e.loadArtifact(id)
	if err != nil {
		return Outcome{}, err
	}
	rec, err := e.Store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	entries := Diff(artifact.Fields, rec)

	out := Outcome{IDIncidence: id, RemainingDiffs: len(entries)}
	switch {
	case len(entries) == 0:
		out.State = StateConverged
		out.Message = "staged payload matches the stored record"
	case len(artifact.ConfirmedFields) > 0:
		out.State = StatePartiallyConfirmed
		out.Message = fmt.Sprintf("%d field(s) still differ", len(entries))
	default:
		out.State = StatePending
		out.Message = fmt.Sprintf("%d field(s) differ", len(entries))
	}
	return out, nil
}

// Apply confirms the accepted fields and writes them to the store in one
// atomic upsert: all accepted fields are written, or none are. Accepted
// names must be a subset of the outstanding diff; unknown names are
// rejected before any write. Afterwards the artifact is regenerated, the
// diff recomputed against the re-read store, and a now-empty diff removes
// the artifact (Converged).
func (e *Engine) Apply(ctx context.Context, id int64, accepted []string) (Outcome, error) {
	artifact, err := e.loadArtifact(id)
	if err != nil {
		return Outcome{}, err
	}
	rec, err := e.Store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	entries := Diff(artifact.Fields, rec)

	if len(entries) == 0 {
		// Already converged; nothing to confirm.
		if err := e.Artifacts.Remove(id); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			IDIncidence: id,
			State:       StateConverged,
			Message:     "staged payload already matches the stored record",
		}, nil
	}

	if len(accepted) == 0 {
		return Outcome{}, fault.New(fault.KindValidationError,
			"incidence %d: no fields accepted; confirm a non-empty subset of the %d outstanding entr(ies)", id, len(entries))
	}

	outstanding := make(map[string]bool, len(entries))
	for _, en := range entries {
		outstanding[en.Field] = true
	}
	writeFields := make(map[string]string, len(accepted))
	for _, field := range accepted {
		if !outstanding[field] {
			return Outcome{}, fault.New(fault.KindValidationError,
				"incidence %d: field %q is not an outstanding diff entry", id, field)
		}
		// Written verbatim from the staged payload; never merged at the
		// sub-value level.
		writeFields[field] = artifact.Fields[field]
	}

	if err := e.Store.Upsert(ctx, id, artifact.Sector, writeFields, false); err != nil {
		return Outcome{}, err
	}
	e.log().Info("confirmed fields applied",
		"id_incidence", id,
		"applied", len(writeFields),
	)

	// Regenerate the artifact with the confirmation recorded, then
	// recompute against the updated store.
	artifact.ConfirmedFields = mergeConfirmed(artifact.ConfirmedFields, accepted)
	if _, err := e.Artifacts.Write(artifact); err != nil {
		return Outcome{}, err
	}

	updated, err := e.Store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	remaining := Diff(artifact.Fields, updated)

	out := Outcome{
		IDIncidence:    id,
		RemainingDiffs: len(remaining),
		AppliedFields:  len(writeFields),
	}
	if len(remaining) == 0 {
		if err := e.Artifacts.Remove(id); err != nil {
			return Outcome{}, err
		}
		out.State = StateConverged
		out.Message = "all differences resolved; artifact removed"
		e.log().Info("artifact converged", "id_incidence", id)
		return out, nil
	}
	out.State = StatePartiallyConfirmed
	out.Message = fmt.Sprintf("%d field(s) still differ", len(remaining))
	return out, nil
}

func (e *Engine) loadArtifact(id int64) (*staging.Artifact, error) {
	artifact, err := e.Artifacts.Load(id)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, fault.New(fault.KindValidationError, "incidence %d has no staged artifact", id)
	}
	return artifact, nil
}

func (e *Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

func mergeConfirmed(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	for _, f := range existing {
		seen[f] = true
	}
	for _, f := range added {
		seen[f] = true
	}
	merged := make([]string, 0, len(seen))
	for f := range seen {
		merged = append(merged, f)
	}
	sort.Strings(merged)
	return merged
}
