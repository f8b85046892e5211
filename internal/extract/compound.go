package extract

import (
	"strings"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
)

// CompoundRule declares one synthetic field whose single cell value encodes
// several atomic output fields. After per-field extraction the synthetic key
// is removed and replaced, in place, by its parts.
type CompoundRule struct {
	// Key is the synthetic field name as declared in the schema.
	Key string

	// Parts are the atomic output field names, in encoded order.
	Parts []string

	// Types gives the expected type per part, parallel to Parts.
	Types []schema.ValueType

	// Sep separates the encoded parts. Defaults to ",".
	Sep string
}

func (r CompoundRule) sep() string {
	if r.Sep == "" {
		return ","
	}
	return r.Sep
}

// DefaultCompoundRules returns the rules the feedback workbooks use today:
// one coordinate-pair cell decomposed into latitude and longitude.
func DefaultCompoundRules() []CompoundRule {
	return []CompoundRule{
		{
			Key:   "lat_long_arb",
			Parts: []string{"lat_arb", "long_arb"},
			Types: []schema.ValueType{schema.TypeFloat, schema.TypeFloat},
		},
	}
}

// expand decomposes one synthetic value into its atomic parts. An absent
// synthetic value yields absent parts; any malformed encoding is fatal for
// the whole tab, because silently omitting derived fields would be worse
// than rejecting the tab.
func (r CompoundRule) expand(tab string, v Value) ([]Value, error) {
	if v.IsAbsent() {
		parts := make([]Value, len(r.Parts))
		for i := range parts {
			parts[i] = Absent()
		}
		return parts, nil
	}
	if v.Kind() != KindString {
		return nil, fault.New(fault.KindCompoundFieldInvalid,
			"tab %s: compound field %s must be a string cell, got %s", tab, r.Key, v.Kind())
	}

	raw := strings.Split(v.Text(), r.sep())
	if len(raw) != len(r.Parts) {
		return nil, fault.New(fault.KindCompoundFieldInvalid,
			"tab %s: compound field %s: want %d part(s) separated by %q, got %d in %q",
			tab, r.Key, len(r.Parts), r.sep(), len(raw), v.Text())
	}

	parts := make([]Value, len(r.Parts))
	for i, piece := range raw {
		pv, warn := Coerce(piece, r.Types[i])
		if pv.IsAbsent() {
			if warn == "" {
				warn = "empty part"
			}
			return nil, fault.New(fault.KindCompoundFieldInvalid,
				"tab %s: compound field %s part %s: %s", tab, r.Key, r.Parts[i], warn)
		}
		parts[i] = pv
	}
	return parts, nil
}
