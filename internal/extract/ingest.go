package extract

// ingest.go discovers data tabs through the workbook's own schema manifest
// and runs the Extractor per declared tab.
//
// Two reserved tabs drive ingestion:
//
//	Metadata — flat key/value pairs (key in column A, value in column B)
//	           from the anchor row down to the first blank key.
//	Schema   — the manifest: data tab name in column A, schema version
//	           name in column B, same anchor and termination rule.
//
// A workbook without a Schema tab cannot be safely extracted at all; a
// single stale manifest entry only skips that tab.

import (
	"log/slog"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/cell"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/workbook"
)

// Reserved tab names. Everything else is a candidate data tab.
const (
	MetadataTab       = "Metadata"
	SchemaManifestTab = "Schema"
)

// listAnchor is where both reserved tabs start their rows; row 1 is a
// human-facing header.
var listAnchor = cell.MustParse("$A$2")

// Payload is the normalized result of ingesting one workbook.
type Payload struct {
	// Metadata holds the reserved metadata tab's key/value pairs.
	Metadata map[string]string

	// Tabs are the extracted data tabs in manifest order.
	Tabs []*Tab

	// Diags accumulates every non-fatal issue met during ingestion.
	Diags []Diagnostic
}

// Fields flattens all tabs into one field_name -> typed value map,
// iterating tabs in manifest order; a later tab wins a duplicated name.
func (p *Payload) Fields() map[string]Value {
	out := make(map[string]Value)
	for _, tab := range p.Tabs {
		for _, name := range tab.FieldNames() {
			v, _ := tab.Value(name)
			out[name] = v
		}
	}
	return out
}

// CanonicalFields flattens all tabs to canonical strings, omitting absent
// fields.
func (p *Payload) CanonicalFields() map[string]string {
	out := make(map[string]string)
	for _, tab := range p.Tabs {
		for name, v := range tab.Canonical() {
			out[name] = v
		}
	}
	return out
}

// Ingestor converts a workbook into a Payload using an injected catalog.
type Ingestor struct {
	Catalog   *schema.Catalog
	Extractor *Extractor
	Log       *slog.Logger
}

// NewIngestor wires an Ingestor with the default extractor.
func NewIngestor(catalog *schema.Catalog) *Ingestor {
	return &Ingestor{
		Catalog:   catalog,
		Extractor: NewExtractor(),
		Log:       slog.Default(),
	}
}

// Ingest reads the reserved tabs, then extracts every manifest-declared
// data tab whose schema resolves. A missing manifest tab is fatal
// (schema_manifest_missing); a tab with an unresolvable schema or a missing
// worksheet is skipped with a diagnostic so stale tabs do not block the
// supported ones. Compound-field failures abort the whole ingest.
func (ing *Ingestor) Ingest(r workbook.Reader) (*Payload, error) {
	payload := &Payload{Metadata: map[string]string{}}

	if r.HasSheet(MetadataTab) {
		md, err := readPairs(r, MetadataTab)
		if err != nil {
			return nil, fault.Wrap(fault.KindConversionFailed, err, "read metadata tab")
		}
		for _, kv := range md {
			payload.Metadata[kv[0]] = kv[1]
		}
	}

	if !r.HasSheet(SchemaManifestTab) {
		return nil, fault.New(fault.KindSchemaManifestMissing,
			"workbook has no %q tab; nothing can be safely extracted", SchemaManifestTab)
	}
	manifest, err := readPairs(r, SchemaManifestTab)
	if err != nil {
		return nil, fault.Wrap(fault.KindConversionFailed, err, "read schema manifest tab")
	}

	for _, entry := range manifest {
		tabName, schemaName := entry[0], entry[1]

		if !r.HasSheet(tabName) {
			payload.Diags = append(payload.Diags, Diagnostic{
				Code:    DiagTabSkipped,
				Tab:     tabName,
				Message: "manifest declares tab but workbook has no such sheet",
			})
			ing.Log.Warn("skipping manifest tab: sheet missing", "tab", tabName)
			continue
		}

		ver, err := ing.Catalog.Resolve(schemaName)
		if err != nil {
			if fault.IsKind(err, fault.KindSchemaNotFound) {
				payload.Diags = append(payload.Diags, Diagnostic{
					Code:    DiagTabSkipped,
					Tab:     tabName,
					Message: "declared schema " + quote(schemaName) + " is unresolvable",
				})
				ing.Log.Warn("skipping manifest tab: schema unresolvable",
					"tab", tabName,
					"schema", schemaName,
				)
				continue
			}
			return nil, err
		}

		tab, diags, err := ing.Extractor.ExtractTab(r, tabName, ver)
		payload.Diags = append(payload.Diags, diags...)
		if err != nil {
			if fault.KindOf(err) != fault.KindUnknown {
				return nil, err
			}
			return nil, fault.Wrap(fault.KindConversionFailed, err, "extract tab %s", tabName)
		}
		payload.Tabs = append(payload.Tabs, tab)
	}

	return payload, nil
}

// readPairs scans a reserved tab from the anchor row down, returning
// [key, value] pairs until the first blank key.
func readPairs(r workbook.Reader, sheet string) ([][2]string, error) {
	var pairs [][2]string
	keyCol := listAnchor.Column
	for row := listAnchor.Row; ; row++ {
		keyAddr := cell.Address{Column: keyCol, Row: row}
		key, err := r.CellValue(sheet, keyAddr.Ref())
		if err != nil {
			return nil, err
		}
		key = CleanCell(key)
		if key == "" {
			break
		}
		valAddr := cell.Address{Column: nextColumn(keyCol), Row: row}
		val, err := r.CellValue(sheet, valAddr.Ref())
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{key, CleanCell(val)})
	}
	return pairs, nil
}

// nextColumn returns the column letter immediately right of col.
func nextColumn(col string) string {
	b := []byte(col)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 'Z' {
			b[i]++
			return string(b)
		}
		b[i] = 'A'
	}
	return "A" + string(b)
}
