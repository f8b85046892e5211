package extract

import (
	"reflect"
	"testing"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/workbook"
)

const testSchema = `
id = "feedback_landfill_v01_00"

[[fields]]
name = "id_incidence"
value_cell = "$B$4"
label_cell = "$A$4"
label = "Incidence ID"
type = "integer"

[[fields]]
name = "facility_name"
value_cell = "$B$5"
type = "string"

[[fields]]
name = "lat_long_arb"
value_cell = "$B$9"
type = "string"

[[fields]]
name = "inspection_date"
value_cell = "$B$6"
type = "datetime"
`

func testVersion(t *testing.T) *schema.Version {
	t.Helper()
	cat, err := schema.LoadSources([]schema.Source{{Name: "t.toml", Data: []byte(testSchema)}}, nil)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	ver, err := cat.Resolve("feedback_landfill_v01_00")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return ver
}

func landfillSheet() map[string]string {
	return map[string]string{
		"A4": "Incidence ID",
		"B4": "1002001",
		"B5": "Acme",
		"B6": "2025-03-14",
		"B9": "34.05,-118.25",
	}
}

// ----------------------------------------------------------------------------
// ExtractTab Tests
// ----------------------------------------------------------------------------

func TestExtractTab(t *testing.T) {
	r := workbook.NewMapReader(map[string]map[string]string{"Feedback Form": landfillSheet()})

	tab, diags, err := NewExtractor().ExtractTab(r, "Feedback Form", testVersion(t))
	if err != nil {
		t.Fatalf("ExtractTab: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	wantOrder := []string{"id_incidence", "facility_name", "lat_arb", "long_arb", "inspection_date"}
	if got := tab.FieldNames(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("field order = %v, want %v", got, wantOrder)
	}

	wantCanonical := map[string]string{
		"id_incidence":    "1002001",
		"facility_name":   "Acme",
		"lat_arb":         "34.05",
		"long_arb":        "-118.25",
		"inspection_date": "2025-03-14T00:00:00",
	}
	if got := tab.Canonical(); !reflect.DeepEqual(got, wantCanonical) {
		t.Errorf("canonical = %v, want %v", got, wantCanonical)
	}

	id, _ := tab.Value("id_incidence")
	if id.Kind() != KindInteger || id.Int() != 1002001 {
		t.Errorf("id_incidence = %+v", id)
	}
}

// TestExtractTabDeterministic: same worksheet, same schema, byte-identical
// output both times.
func TestExtractTabDeterministic(t *testing.T) {
	r := workbook.NewMapReader(map[string]map[string]string{"Feedback Form": landfillSheet()})
	ver := testVersion(t)
	e := NewExtractor()

	first, _, err := e.ExtractTab(r, "Feedback Form", ver)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := e.ExtractTab(r, "Feedback Form", ver)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.FieldNames(), second.FieldNames()) {
		t.Error("field order differs between runs")
	}
	if !reflect.DeepEqual(first.Canonical(), second.Canonical()) {
		t.Error("canonical output differs between runs")
	}
}

func TestExtractTabLabelMismatchIsNonFatal(t *testing.T) {
	cells := landfillSheet()
	cells["A4"] = "Incident Number" // drifted label
	r := workbook.NewMapReader(map[string]map[string]string{"Feedback Form": cells})

	tab, diags, err := NewExtractor().ExtractTab(r, "Feedback Form", testVersion(t))
	if err != nil {
		t.Fatalf("ExtractTab: %v", err)
	}
	if len(diags) != 1 || diags[0].Code != DiagLabelMismatch || diags[0].Field != "id_incidence" {
		t.Fatalf("diags = %v, want one label_mismatch on id_incidence", diags)
	}
	// Value still extracted despite the drifted label.
	if id, _ := tab.Value("id_incidence"); id.Int() != 1002001 {
		t.Errorf("id_incidence = %+v", id)
	}
}

func TestExtractTabUnsafeCoercionBecomesAbsent(t *testing.T) {
	cells := landfillSheet()
	cells["B6"] = "mid March"
	r := workbook.NewMapReader(map[string]map[string]string{"Feedback Form": cells})

	tab, diags, err := NewExtractor().ExtractTab(r, "Feedback Form", testVersion(t))
	if err != nil {
		t.Fatalf("ExtractTab: %v", err)
	}
	v, ok := tab.Value("inspection_date")
	if !ok || !v.IsAbsent() {
		t.Errorf("inspection_date = %+v, want absent", v)
	}
	found := false
	for _, d := range diags {
		if d.Code == DiagCoercedToAbsent && d.Field == "inspection_date" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing coerced_to_absent diagnostic, got %v", diags)
	}
	// Absent fields are omitted from the canonical map.
	if _, present := tab.Canonical()["inspection_date"]; present {
		t.Error("absent field leaked into canonical map")
	}
}

// ----------------------------------------------------------------------------
// Compound Expansion Tests
// ----------------------------------------------------------------------------

func TestCompoundMalformedFailsTab(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "missing comma", value: "34.05"},
		{name: "too many parts", value: "34.05,-118.25,12"},
		{name: "non-numeric part", value: "north,west"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := landfillSheet()
			cells["B9"] = tt.value
			r := workbook.NewMapReader(map[string]map[string]string{"Feedback Form": cells})

			_, _, err := NewExtractor().ExtractTab(r, "Feedback Form", testVersion(t))
			if fault.KindOf(err) != fault.KindCompoundFieldInvalid {
				t.Fatalf("kind = %s (err=%v), want compound_field_invalid", fault.KindOf(err), err)
			}
		})
	}
}

func TestCompoundAbsentYieldsAbsentParts(t *testing.T) {
	cells := landfillSheet()
	cells["B9"] = ""
	r := workbook.NewMapReader(map[string]map[string]string{"Feedback Form": cells})

	tab, _, err := NewExtractor().ExtractTab(r, "Feedback Form", testVersion(t))
	if err != nil {
		t.Fatalf("ExtractTab: %v", err)
	}
	lat, ok := tab.Value("lat_arb")
	if !ok || !lat.IsAbsent() {
		t.Errorf("lat_arb = %+v, want absent", lat)
	}
	if _, ok := tab.Value("lat_long_arb"); ok {
		t.Error("synthetic key survived expansion")
	}
}
