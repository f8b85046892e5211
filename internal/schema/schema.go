// Package schema loads and resolves versioned cell-to-field schemas.
//
// A schema version declares, for one worksheet tab layout, which cells hold
// which named, typed fields. Versions are authored as TOML documents, loaded
// once into an immutable Catalog, and resolved by name with single-hop alias
// support for retired version names.
package schema

import (
	"github.com/tony-held-carb/feedback-portal-sub001/internal/cell"
)

// ValueType is the expected type of a field's cell value.
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeInteger  ValueType = "integer"
	TypeFloat    ValueType = "float"
	TypeDateTime ValueType = "datetime"
	TypeBoolean  ValueType = "boolean"
)

// knownValueTypes is the closed set accepted at load time.
var knownValueTypes = map[ValueType]bool{
	TypeString:   true,
	TypeInteger:  true,
	TypeFloat:    true,
	TypeDateTime: true,
	TypeBoolean:  true,
}

// FieldSpec declares one extractable field: where its value lives, what type
// it should coerce to, and optionally where its on-sheet label lives so
// extraction can detect schema/workbook drift.
type FieldSpec struct {
	// Name is the output field name. Unique within a version.
	Name string

	// ValueCell is the parsed anchored address of the value cell.
	ValueCell cell.Address

	// LabelCell is the address of the label cell, if the schema declares
	// one. Zero value means no label check.
	LabelCell cell.Address

	// HasLabel reports whether LabelCell/Label are set.
	HasLabel bool

	// Label is the expected label text at LabelCell.
	Label string

	// Type is the expected value type.
	Type ValueType

	// DropDown marks fields populated from a dropdown widget. The
	// pipeline treats dropdown placeholder text as a regular value;
	// the flag is carried for presentation-layer policy.
	DropDown bool
}

// Version is one immutable schema version: an id plus its fields in
// declaration order.
type Version struct {
	ID       string
	Metadata map[string]string

	fields []FieldSpec
	byName map[string]int
}

// Fields returns the field specs in declaration order. The returned slice
// is a copy; a Version never changes after load.
func (v *Version) Fields() []FieldSpec {
	out := make([]FieldSpec, len(v.fields))
	copy(out, v.fields)
	return out
}

// Field looks up a spec by field name.
func (v *Version) Field(name string) (FieldSpec, bool) {
	i, ok := v.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return v.fields[i], true
}

// FieldNames returns the field names in declaration order.
func (v *Version) FieldNames() []string {
	names := make([]string, len(v.fields))
	for i, f := range v.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (v *Version) Len() int { return len(v.fields) }
