// Package extract turns worksheet cells into typed, named field values.
//
// The Extractor handles one tab against one resolved schema version; the
// Ingestor (ingest.go) discovers tabs through the workbook's own schema
// manifest and dispatches the Extractor per tab.
package extract

import (
	"sort"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/workbook"
)

// Tab is the extraction result for one worksheet: an ordered field_name ->
// typed value mapping. Order follows schema declaration order, with
// compound parts substituted in place of their synthetic key.
type Tab struct {
	Name     string
	SchemaID string

	names  []string
	values map[string]Value
}

// FieldNames returns field names in output order.
func (t *Tab) FieldNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Value returns the typed value for a field name.
func (t *Tab) Value(name string) (Value, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Canonical returns the canonical-string rendering of every non-absent
// field. Absent fields are omitted: a payload silent about a field must
// never cause a stored value to change.
func (t *Tab) Canonical() map[string]string {
	out := make(map[string]string, len(t.names))
	for _, name := range t.names {
		if v := t.values[name]; !v.IsAbsent() {
			out[name] = v.Canonical()
		}
	}
	return out
}

// NewCanonicalTab builds a Tab from already-canonical string fields. Used
// for the structural passthrough of payloads that arrive normalized; field
// order is sorted since the source order is gone.
func NewCanonicalTab(name string, fields map[string]string) *Tab {
	tab := &Tab{Name: name, values: make(map[string]Value, len(fields))}
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if fields[n] == "" {
			tab.put(n, Absent())
			continue
		}
		tab.put(n, String(fields[n]))
	}
	return tab
}

func (t *Tab) put(name string, v Value) {
	if _, exists := t.values[name]; !exists {
		t.names = append(t.names, name)
	}
	t.values[name] = v
}

// Extractor extracts tabs per resolved schema versions. Zero value uses no
// compound rules; NewExtractor installs the defaults.
type Extractor struct {
	compounds map[string]CompoundRule
}

// NewExtractor builds an Extractor with the default compound rules.
func NewExtractor() *Extractor {
	return NewExtractorWithRules(DefaultCompoundRules())
}

// NewExtractorWithRules builds an Extractor with an explicit rule set.
func NewExtractorWithRules(rules []CompoundRule) *Extractor {
	e := &Extractor{compounds: make(map[string]CompoundRule, len(rules))}
	for _, r := range rules {
		e.compounds[r.Key] = r
	}
	return e
}

// ExtractTab reads every field the schema declares from one worksheet.
// Label mismatches and unsafe coercions are recoverable diagnostics; a
// malformed compound value fails the whole tab with compound_field_invalid.
func (e *Extractor) ExtractTab(r workbook.Reader, sheet string, ver *schema.Version) (*Tab, []Diagnostic, error) {
	tab := &Tab{
		Name:     sheet,
		SchemaID: ver.ID,
		values:   make(map[string]Value, ver.Len()),
	}
	var diags []Diagnostic

	for _, spec := range ver.Fields() {
		if spec.HasLabel {
			gotLabel, err := r.CellValue(sheet, spec.LabelCell.Ref())
			if err != nil {
				return nil, diags, err
			}
			if CleanCell(gotLabel) != spec.Label {
				diags = append(diags, Diagnostic{
					Code:    DiagLabelMismatch,
					Tab:     sheet,
					Field:   spec.Name,
					Message: "label cell " + spec.LabelCell.String() + " reads " + quote(gotLabel) + ", schema expects " + quote(spec.Label),
				})
			}
		}

		raw, err := r.CellValue(sheet, spec.ValueCell.Ref())
		if err != nil {
			return nil, diags, err
		}
		v, warn := Coerce(raw, spec.Type)
		if warn != "" {
			diags = append(diags, Diagnostic{
				Code:    DiagCoercedToAbsent,
				Tab:     sheet,
				Field:   spec.Name,
				Message: warn,
			})
		}
		tab.put(spec.Name, v)
	}

	if err := e.expandCompounds(tab); err != nil {
		return nil, diags, err
	}

	return tab, diags, nil
}

// expandCompounds replaces each synthetic key by its atomic parts, keeping
// the key's position in the field order.
func (e *Extractor) expandCompounds(tab *Tab) error {
	if len(e.compounds) == 0 {
		return nil
	}

	var names []string
	for _, name := range tab.names {
		rule, ok := e.compounds[name]
		if !ok {
			names = append(names, name)
			continue
		}
		parts, err := rule.expand(tab.Name, tab.values[name])
		if err != nil {
			return err
		}
		delete(tab.values, name)
		for i, partName := range rule.Parts {
			tab.values[partName] = parts[i]
			names = append(names, partName)
		}
	}
	tab.names = names
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
