package extract

import (
	"testing"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/workbook"
)

func testCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	alias := &schema.Source{Name: schema.AliasFileName, Data: []byte(`
[aliases]
"feedback_landfill_v00_00" = "feedback_landfill_v01_00"
`)}
	cat, err := schema.LoadSources([]schema.Source{{Name: "t.toml", Data: []byte(testSchema)}}, alias)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func feedbackWorkbook() *workbook.MapReader {
	r := &workbook.MapReader{}
	r.AddSheet(MetadataTab, map[string]string{
		"A2": "sector", "B2": "Landfill",
		"A3": "portal_version", "B3": "v3",
	})
	r.AddSheet(SchemaManifestTab, map[string]string{
		"A2": "Feedback Form", "B2": "feedback_landfill_v01_00",
	})
	r.AddSheet("Feedback Form", landfillSheet())
	return r
}

// ----------------------------------------------------------------------------
// Ingest Tests
// ----------------------------------------------------------------------------

func TestIngest(t *testing.T) {
	ing := NewIngestor(testCatalog(t))

	payload, err := ing.Ingest(feedbackWorkbook())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if payload.Metadata["sector"] != "Landfill" {
		t.Errorf("metadata sector = %q", payload.Metadata["sector"])
	}
	if payload.Metadata["portal_version"] != "v3" {
		t.Errorf("metadata portal_version = %q", payload.Metadata["portal_version"])
	}
	if len(payload.Tabs) != 1 {
		t.Fatalf("tabs = %d, want 1", len(payload.Tabs))
	}

	fields := payload.CanonicalFields()
	if fields["id_incidence"] != "1002001" || fields["facility_name"] != "Acme" {
		t.Errorf("flattened fields = %v", fields)
	}
	if fields["lat_arb"] != "34.05" || fields["long_arb"] != "-118.25" {
		t.Errorf("compound parts not flattened: %v", fields)
	}
}

func TestIngestResolvesAliasedSchema(t *testing.T) {
	r := feedbackWorkbook()
	r.AddSheet(SchemaManifestTab, map[string]string{
		"A2": "Feedback Form", "B2": "feedback_landfill_v00_00", // retired name
	})

	payload, err := NewIngestor(testCatalog(t)).Ingest(r)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(payload.Tabs) != 1 || payload.Tabs[0].SchemaID != "feedback_landfill_v01_00" {
		t.Fatalf("tabs = %+v, want one tab under the current schema id", payload.Tabs)
	}
}

func TestIngestMissingManifestIsFatal(t *testing.T) {
	r := &workbook.MapReader{}
	r.AddSheet("Feedback Form", landfillSheet())

	_, err := NewIngestor(testCatalog(t)).Ingest(r)
	if fault.KindOf(err) != fault.KindSchemaManifestMissing {
		t.Fatalf("kind = %s, want schema_manifest_missing", fault.KindOf(err))
	}
}

// TestIngestSkipsStaleTabs: one manifest entry declares a schema the catalog
// no longer knows; the supported tab still extracts.
func TestIngestSkipsStaleTabs(t *testing.T) {
	r := feedbackWorkbook()
	r.AddSheet(SchemaManifestTab, map[string]string{
		"A2": "Old Form", "B2": "feedback_dairy_v09_99",
		"A3": "Feedback Form", "B3": "feedback_landfill_v01_00",
	})
	r.AddSheet("Old Form", map[string]string{"B4": "whatever"})

	payload, err := NewIngestor(testCatalog(t)).Ingest(r)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(payload.Tabs) != 1 || payload.Tabs[0].Name != "Feedback Form" {
		t.Fatalf("tabs = %+v, want only Feedback Form", payload.Tabs)
	}

	skipped := false
	for _, d := range payload.Diags {
		if d.Code == DiagTabSkipped && d.Tab == "Old Form" {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("missing tab_skipped diagnostic: %v", payload.Diags)
	}
}

func TestIngestMissingDeclaredSheetSkipped(t *testing.T) {
	r := feedbackWorkbook()
	r.AddSheet(SchemaManifestTab, map[string]string{
		"A2": "Feedback Form", "B2": "feedback_landfill_v01_00",
		"A3": "Ghost Tab", "B3": "feedback_landfill_v01_00",
	})

	payload, err := NewIngestor(testCatalog(t)).Ingest(r)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(payload.Tabs) != 1 {
		t.Fatalf("tabs = %d, want 1", len(payload.Tabs))
	}
}

func TestIngestCompoundFailureAborts(t *testing.T) {
	r := feedbackWorkbook()
	cells := landfillSheet()
	cells["B9"] = "34.05" // no comma
	r.AddSheet("Feedback Form", cells)

	_, err := NewIngestor(testCatalog(t)).Ingest(r)
	if fault.KindOf(err) != fault.KindCompoundFieldInvalid {
		t.Fatalf("kind = %s, want compound_field_invalid", fault.KindOf(err))
	}
}

func TestIngestMetadataStopsAtBlankKey(t *testing.T) {
	r := feedbackWorkbook()
	r.AddSheet(MetadataTab, map[string]string{
		"A2": "sector", "B2": "Landfill",
		// row 3 blank key terminates the scan
		"A4": "ignored", "B4": "ignored",
	})

	payload, err := NewIngestor(testCatalog(t)).Ingest(r)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, ok := payload.Metadata["ignored"]; ok {
		t.Error("metadata scan did not stop at first blank key")
	}
	if payload.Metadata["sector"] != "Landfill" {
		t.Errorf("metadata = %v", payload.Metadata)
	}
}
