package staging

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/extract"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/workbook"
)

// IdentityField is the payload field carrying the identity key.
const IdentityField = "id_incidence"

// SectorKey is the metadata (or payload) key carrying the sector label.
const SectorKey = "sector"

// Assembler runs the short-circuiting staging pipeline: persist the raw
// upload, convert it to a normalized payload, validate the identity key.
// Each stage has its own failure kind and any failure aborts the rest; no
// partial StagedRecord is ever produced.
type Assembler struct {
	Blobs    BlobStore
	Ingestor *extract.Ingestor
	Log      *slog.Logger
}

// NewAssembler wires an Assembler.
func NewAssembler(blobs BlobStore, ing *extract.Ingestor) *Assembler {
	return &Assembler{Blobs: blobs, Ingestor: ing, Log: slog.Default()}
}

// Assemble stages one raw upload. Returns the immutable StagedRecord plus
// the non-fatal extraction diagnostics. Failure kinds per stage:
// file_error (persist), conversion_failed / schema_manifest_missing /
// compound_field_invalid (convert), missing_id / invalid_id (identify).
func (a *Assembler) Assemble(filename string, data []byte) (*StagedRecord, []extract.Diagnostic, error) {
	uploadID := uuid.New().String()
	log := a.Log.With("upload_id", uploadID, "file", filename)

	// Stage (a): persist the raw upload durably.
	location, err := a.Blobs.Save(data, filename)
	if err != nil {
		if fault.KindOf(err) == fault.KindUnknown {
			err = fault.Wrap(fault.KindFileError, err, "persist upload %s", filename)
		}
		return nil, nil, err
	}
	log.Debug("upload persisted", "location", location, "bytes", len(data))

	// Stage (b): convert to a normalized payload.
	payload, err := a.normalize(data)
	if err != nil {
		if fault.KindOf(err) == fault.KindUnknown {
			err = fault.Wrap(fault.KindConversionFailed, err, "convert upload %s", filename)
		}
		return nil, nil, err
	}

	// Stage (c): extract and validate the identity key.
	fields := payload.CanonicalFields()
	rawID, ok := fields[IdentityField]
	if !ok || rawID == "" {
		return nil, payload.Diags, fault.New(fault.KindMissingID,
			"upload %s has no %s field", filename, IdentityField)
	}
	id, parseErr := strconv.ParseInt(rawID, 10, 64)
	if parseErr != nil || id <= 0 {
		return nil, payload.Diags, fault.New(fault.KindInvalidID,
			"upload %s: %s %q is not a positive integer", filename, IdentityField, rawID)
	}

	sector := payload.Metadata[SectorKey]
	if sector == "" {
		sector = fields[SectorKey]
	}

	rec := &StagedRecord{
		idIncidence:  id,
		sector:       sector,
		sourceName:   filename,
		blobLocation: location,
		fields:       fields,
		capturedAt:   time.Now().UTC(),
		sizeBytes:    int64(len(data)),
		uploadID:     uploadID,
	}
	log.Info("upload staged",
		"id_incidence", id,
		"sector", sector,
		"fields", len(fields),
		"diagnostics", len(payload.Diags),
	)
	return rec, payload.Diags, nil
}

// normalize converts upload bytes to a payload. A JSON document in the
// artifact shape passes through structurally; anything else is read as an
// XLSX workbook and ingested against the catalog.
func (a *Assembler) normalize(data []byte) (*extract.Payload, error) {
	if doc, ok := decodeNormalized(data); ok {
		return doc, nil
	}

	wb, err := workbook.OpenXLSX(data)
	if err != nil {
		return nil, fault.Wrap(fault.KindConversionFailed, err, "upload is neither a workbook nor a normalized payload")
	}
	defer wb.Close()

	return a.Ingestor.Ingest(wb)
}

// decodeNormalized recognizes an already-normalized payload: a JSON object
// with a fields map (the staging-artifact shape). The identity key is still
// re-validated downstream.
func decodeNormalized(data []byte) (*extract.Payload, bool) {
	trimmed := 0
	for trimmed < len(data) && (data[trimmed] == ' ' || data[trimmed] == '\t' || data[trimmed] == '\n' || data[trimmed] == '\r') {
		trimmed++
	}
	if trimmed >= len(data) || data[trimmed] != '{' {
		return nil, false
	}

	var doc Artifact
	if err := json.Unmarshal(data, &doc); err != nil || doc.Fields == nil {
		return nil, false
	}

	payload := &extract.Payload{Metadata: map[string]string{}}
	if doc.Sector != "" {
		payload.Metadata[SectorKey] = doc.Sector
	}
	tab := extract.NewCanonicalTab("normalized", doc.Fields)
	payload.Tabs = append(payload.Tabs, tab)
	return payload, true
}
