// Package router routes an immutable StagedRecord to its persistence
// destinations: direct commit to the record store, a durable staging
// artifact for review, both, or neither (dry run).
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/reconcile"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/staging"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/store"
)

// Config holds the three independent routing switches. Both persistence
// switches may be set simultaneously or neither.
type Config struct {
	// AutoConfirm commits the staged payload to the record store without
	// a review cycle.
	AutoConfirm bool

	// PersistStagingArtifact writes the durable review artifact.
	PersistStagingArtifact bool

	// FullFieldOverwrite makes a direct commit replace the entire stored
	// field payload instead of writing changed fields only.
	FullFieldOverwrite bool
}

// Outcome reports where the record went.
type Outcome struct {
	IDIncidence     int64
	Committed       bool
	CommittedFields int
	ArtifactRef     string
	Message         string
}

// Router fans a StagedRecord out to the configured destinations. It never
// mutates the record; both paths read the same immutable snapshot, so
// running them together is safe.
type Router struct {
	Store     store.Store
	Artifacts *staging.ArtifactStore
	Log       *slog.Logger
}

// New wires a Router.
func New(st store.Store, artifacts *staging.ArtifactStore) *Router {
	return &Router{Store: st, Artifacts: artifacts, Log: slog.Default()}
}

// Route executes the configured persistence paths in a fixed order: direct
// commit first, then the staging artifact. A direct-commit failure keeps
// its store kind (database_error or validation_error); an artifact-write
// failure surfaces file_error. With neither switch set the call is a dry
// run and nothing is persisted.
func (r *Router) Route(ctx context.Context, rec *staging.StagedRecord, cfg Config) (Outcome, error) {
	out := Outcome{IDIncidence: rec.IDIncidence()}
	log := r.Log.With("id_incidence", rec.IDIncidence(), "upload_id", rec.UploadID())

	if cfg.AutoConfirm {
		fields, err := r.commitFields(ctx, rec, cfg.FullFieldOverwrite)
		if err != nil {
			return out, err
		}
		out.Committed = true
		out.CommittedFields = fields
		log.Info("staged record committed",
			"fields", fields,
			"full_overwrite", cfg.FullFieldOverwrite,
		)
	}

	if cfg.PersistStagingArtifact {
		ref, err := r.Artifacts.Write(staging.FromRecord(rec))
		if err != nil {
			if fault.KindOf(err) == fault.KindUnknown {
				err = fault.Wrap(fault.KindFileError, err, "persist staging artifact for incidence %d", rec.IDIncidence())
			}
			return out, err
		}
		out.ArtifactRef = ref
		log.Info("staging artifact written", "artifact", ref)
	}

	switch {
	case out.Committed && out.ArtifactRef != "":
		out.Message = fmt.Sprintf("committed %d field(s) and staged artifact", out.CommittedFields)
	case out.Committed:
		out.Message = fmt.Sprintf("committed %d field(s)", out.CommittedFields)
	case out.ArtifactRef != "":
		out.Message = "staged for review"
	default:
		out.Message = "dry run: no persistence switch set"
	}
	return out, nil
}

// commitFields writes the staged payload to the record store and returns
// how many fields were written. Changed-only commits diff against the
// current stored record so an unchanged upload issues no write at all.
func (r *Router) commitFields(ctx context.Context, rec *staging.StagedRecord, fullOverwrite bool) (int, error) {
	fields := rec.Fields()

	if fullOverwrite {
		if err := r.Store.Upsert(ctx, rec.IDIncidence(), rec.Sector(), fields, true); err != nil {
			return 0, err
		}
		return len(fields), nil
	}

	stored, err := r.Store.Get(ctx, rec.IDIncidence())
	if err != nil {
		return 0, err
	}
	changed := make(map[string]string)
	for _, entry := range reconcile.Diff(fields, stored) {
		changed[entry.Field] = fields[entry.Field]
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := r.Store.Upsert(ctx, rec.IDIncidence(), rec.Sector(), changed, false); err != nil {
		return 0, err
	}
	return len(changed), nil
}
