package staging

import (
	"time"
)

// StagedRecord is the immutable output of a successful Assemble: one
// upload's extracted payload plus capture-time audit metadata. It is
// created once, consumed exactly once by the persistence router, and never
// mutated; accessors hand out copies.
type StagedRecord struct {
	idIncidence  int64
	sector       string
	sourceName   string
	blobLocation string
	fields       map[string]string
	capturedAt   time.Time
	sizeBytes    int64
	uploadID     string
}

// IDIncidence is the positive-integer identity key.
func (r *StagedRecord) IDIncidence() int64 { return r.idIncidence }

// Sector is the sector label resolved from metadata or the payload.
func (r *StagedRecord) Sector() string { return r.sector }

// SourceFilename is the original upload filename.
func (r *StagedRecord) SourceFilename() string { return r.sourceName }

// BlobLocation is where the raw upload bytes were saved.
func (r *StagedRecord) BlobLocation() string { return r.blobLocation }

// CapturedAt is the UTC capture timestamp.
func (r *StagedRecord) CapturedAt() time.Time { return r.capturedAt }

// SizeBytes is the raw upload size.
func (r *StagedRecord) SizeBytes() int64 { return r.sizeBytes }

// UploadID is the uuid assigned at capture time.
func (r *StagedRecord) UploadID() string { return r.uploadID }

// Fields returns a copy of the flattened canonical field payload. Absent
// fields were already omitted at extraction time.
func (r *StagedRecord) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}
