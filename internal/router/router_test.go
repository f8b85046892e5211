package router

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/extract"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/staging"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/store"
)

func stagedRecord(t *testing.T, id string, fields map[string]string) *staging.StagedRecord {
	t.Helper()
	blobs, err := staging.NewFSBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	assembler := staging.NewAssembler(blobs, &extract.Ingestor{})

	all := map[string]string{staging.IdentityField: id}
	for k, v := range fields {
		all[k] = v
	}
	doc, err := json.Marshal(map[string]any{"sector": "Landfill", "fields": all})
	if err != nil {
		t.Fatal(err)
	}
	rec, _, err := assembler.Assemble("feedback.json", doc)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func newTestRouter(t *testing.T) (*Router, *store.Memory, *staging.ArtifactStore) {
	t.Helper()
	artifacts, err := staging.NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemory()
	return New(mem, artifacts), mem, artifacts
}

// ----------------------------------------------------------------------------
// Route Tests
// ----------------------------------------------------------------------------

func TestRouteDryRun(t *testing.T) {
	r, mem, artifacts := newTestRouter(t)
	rec := stagedRecord(t, "1002001", map[string]string{"facility_name": "Acme"})

	out, err := r.Route(context.Background(), rec, Config{})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if out.Committed || out.ArtifactRef != "" {
		t.Errorf("dry run persisted something: %+v", out)
	}
	if mem.Len() != 0 {
		t.Error("dry run wrote to the store")
	}
	if ids, _ := artifacts.List(); len(ids) != 0 {
		t.Error("dry run wrote an artifact")
	}
}

func TestRouteAutoConfirm(t *testing.T) {
	r, mem, _ := newTestRouter(t)
	rec := stagedRecord(t, "1002001", map[string]string{"facility_name": "Acme"})

	out, err := r.Route(context.Background(), rec, Config{AutoConfirm: true})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Committed || out.CommittedFields == 0 {
		t.Errorf("outcome = %+v", out)
	}

	stored, _ := mem.Get(context.Background(), 1002001)
	if stored == nil || stored.Fields["facility_name"] != "Acme" {
		t.Errorf("stored = %+v", stored)
	}
	if stored.Sector != "Landfill" {
		t.Errorf("sector = %q", stored.Sector)
	}
}

func TestRouteChangedOnlySkipsUnchangedUpload(t *testing.T) {
	ctx := context.Background()
	r, mem, _ := newTestRouter(t)
	rec := stagedRecord(t, "7", map[string]string{"facility_name": "Acme"})

	if _, err := r.Route(ctx, rec, Config{AutoConfirm: true}); err != nil {
		t.Fatal(err)
	}
	out, err := r.Route(ctx, rec, Config{AutoConfirm: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.CommittedFields != 0 {
		t.Errorf("unchanged re-upload wrote %d field(s)", out.CommittedFields)
	}
	stored, _ := mem.Get(ctx, 7)
	if stored == nil || stored.Fields["facility_name"] != "Acme" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestRouteFullOverwriteDropsStaleFields(t *testing.T) {
	ctx := context.Background()
	r, mem, _ := newTestRouter(t)

	if err := mem.Upsert(ctx, 7, "Landfill", map[string]string{"obsolete": "x", "facility_name": "Old"}, false); err != nil {
		t.Fatal(err)
	}
	rec := stagedRecord(t, "7", map[string]string{"facility_name": "Acme"})

	if _, err := r.Route(ctx, rec, Config{AutoConfirm: true, FullFieldOverwrite: true}); err != nil {
		t.Fatal(err)
	}
	stored, _ := mem.Get(ctx, 7)
	if _, ok := stored.Fields["obsolete"]; ok {
		t.Errorf("full overwrite kept stale field: %v", stored.Fields)
	}
	if stored.Fields["facility_name"] != "Acme" {
		t.Errorf("fields = %v", stored.Fields)
	}
}

func TestRouteBothPathsShareOneSnapshot(t *testing.T) {
	ctx := context.Background()
	r, mem, artifacts := newTestRouter(t)
	rec := stagedRecord(t, "1002001", map[string]string{"facility_name": "Acme"})

	out, err := r.Route(ctx, rec, Config{AutoConfirm: true, PersistStagingArtifact: true})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Committed || out.ArtifactRef == "" {
		t.Errorf("outcome = %+v", out)
	}
	if _, statErr := os.Stat(out.ArtifactRef); statErr != nil {
		t.Errorf("artifact ref: %v", statErr)
	}

	stored, _ := mem.Get(ctx, 1002001)
	artifact, _ := artifacts.Load(1002001)
	if stored.Fields["facility_name"] != artifact.Fields["facility_name"] {
		t.Error("commit and artifact diverged")
	}
}

func TestRouteCommitFailureKeepsStoreKind(t *testing.T) {
	r, mem, _ := newTestRouter(t)
	rec := stagedRecord(t, "7", map[string]string{"facility_name": "Acme"})
	mem.FailNextUpsert = fault.New(fault.KindDatabaseError, "deadlock detected")

	_, err := r.Route(context.Background(), rec, Config{AutoConfirm: true})
	if fault.KindOf(err) != fault.KindDatabaseError {
		t.Fatalf("kind = %s, want database_error", fault.KindOf(err))
	}
}
