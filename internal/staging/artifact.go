package staging

// artifact.go persists staged records as self-describing JSON documents,
// one per identity key. The artifact alone is sufficient to reconstruct a
// StagedRecord without re-reading the original spreadsheet.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
)

// ArtifactVersion is bumped when the persisted document shape changes.
const ArtifactVersion = 1

// Artifact is the persisted review document for one staged upload.
type Artifact struct {
	ArtifactVersion int               `json:"artifact_version"`
	IDIncidence     int64             `json:"id_incidence"`
	Sector          string            `json:"sector"`
	SourceFilename  string            `json:"source_filename"`
	BlobLocation    string            `json:"blob_location"`
	CapturedAt      time.Time         `json:"captured_at"`
	SizeBytes       int64             `json:"size_bytes"`
	UploadID        string            `json:"upload_id"`
	Fields          map[string]string `json:"fields"`

	// ConfirmedFields records which fields have been applied to the store
	// since this artifact was staged. A superseding upload resets it.
	ConfirmedFields []string `json:"confirmed_fields,omitempty"`
}

// FromRecord snapshots a StagedRecord into its artifact form.
func FromRecord(rec *StagedRecord) *Artifact {
	return &Artifact{
		ArtifactVersion: ArtifactVersion,
		IDIncidence:     rec.IDIncidence(),
		Sector:          rec.Sector(),
		SourceFilename:  rec.SourceFilename(),
		BlobLocation:    rec.BlobLocation(),
		CapturedAt:      rec.CapturedAt(),
		SizeBytes:       rec.SizeBytes(),
		UploadID:        rec.UploadID(),
		Fields:          rec.Fields(),
	}
}

// Record reconstructs the immutable StagedRecord the artifact snapshots.
func (a *Artifact) Record() *StagedRecord {
	fields := make(map[string]string, len(a.Fields))
	for k, v := range a.Fields {
		fields[k] = v
	}
	return &StagedRecord{
		idIncidence:  a.IDIncidence,
		sector:       a.Sector,
		sourceName:   a.SourceFilename,
		blobLocation: a.BlobLocation,
		fields:       fields,
		capturedAt:   a.CapturedAt,
		sizeBytes:    a.SizeBytes,
		uploadID:     a.UploadID,
	}
}

// ArtifactStore keeps at most one artifact per identity key in a single
// directory. Writes take the directory's flock so a new upload supersedes
// the existing artifact for its key in one short-lived operation, with no
// internal multi-step locking.
type ArtifactStore struct {
	dir  string
	lock *flock.Flock
}

// NewArtifactStore creates the staging directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fault.Wrap(fault.KindFileError, err, "create staging directory %s", dir)
	}
	return &ArtifactStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".staging.lock")),
	}, nil
}

func (s *ArtifactStore) path(id int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("incidence_%d.json", id))
}

// Write persists the artifact, replacing any previous artifact for the same
// identity key. Returns the artifact file path as the reviewable reference.
func (s *ArtifactStore) Write(a *Artifact) (string, error) {
	if err := s.lock.Lock(); err != nil {
		return "", fault.Wrap(fault.KindFileError, err, "lock staging directory")
	}
	defer s.lock.Unlock()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fault.Wrap(fault.KindFileError, err, "encode artifact for incidence %d", a.IDIncidence)
	}

	// Write to a temp name first so readers never see a torn artifact.
	path := s.path(a.IDIncidence)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fault.Wrap(fault.KindFileError, err, "write artifact for incidence %d", a.IDIncidence)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fault.Wrap(fault.KindFileError, err, "publish artifact for incidence %d", a.IDIncidence)
	}
	return path, nil
}

// Load reads the artifact for an identity key. Absence is (nil, nil).
func (s *ArtifactStore) Load(id int64) (*Artifact, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindFileError, err, "read artifact for incidence %d", id)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fault.Wrap(fault.KindFileError, err, "decode artifact for incidence %d", id)
	}
	if a.Fields == nil {
		a.Fields = map[string]string{}
	}
	return &a, nil
}

// Remove deletes the artifact for an identity key (converged, or review
// abandoned). Removing an absent artifact is not an error.
func (s *ArtifactStore) Remove(id int64) error {
	if err := s.lock.Lock(); err != nil {
		return fault.Wrap(fault.KindFileError, err, "lock staging directory")
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fault.Wrap(fault.KindFileError, err, "remove artifact for incidence %d", id)
	}
	return nil
}

// List returns the identity keys with a staged artifact, ascending.
func (s *ArtifactStore) List() ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fault.Wrap(fault.KindFileError, err, "read staging directory %s", s.dir)
	}
	var ids []int64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "incidence_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "incidence_"), ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
