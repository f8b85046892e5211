package extract

// value.go provides the typed field value and coercion from raw cell text.
//
// Spreadsheet cells arrive as strings shaped by whatever the reporting
// facility typed into them:
//   - Currency symbols and thousand separators in numbers
//   - Accounting-format negatives "(123.45)"
//   - Various boolean spellings (yes/no, true/false, 1/0)
//   - Dates in a dozen layouts, occasionally with a timezone suffix
//
// Coercion is lenient but never fabricates data: a value that cannot be
// converted safely becomes Absent with a warning, and an empty cell is
// Absent with no warning at all.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
)

// Kind discriminates the Value union.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindInteger
	KindFloat
	KindDateTime
	KindBool
)

// String returns the lowercase kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDateTime:
		return "datetime"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a tagged union over the types a worksheet cell can carry.
// Absence is an explicit variant, not a nil or a caught exception.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	t    time.Time
	b    bool
}

// Absent is the explicit no-value variant.
func Absent() Value { return Value{kind: KindAbsent} }

// String wraps a non-empty string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Integer wraps an integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Float wraps a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// DateTime wraps a civil (timezone-naive) datetime.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is the Absent variant.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Int returns the integer payload; valid only for KindInteger.
func (v Value) Int() int64 { return v.i }

// Float64 returns the float payload; valid only for KindFloat.
func (v Value) Float64() float64 { return v.f }

// Time returns the datetime payload; valid only for KindDateTime.
func (v Value) Time() time.Time { return v.t }

// Text returns the string payload; valid only for KindString.
func (v Value) Text() string { return v.str }

// CanonicalTimeLayout is the one reference civil-time rendering used for
// storage and diff comparison.
const CanonicalTimeLayout = "2006-01-02T15:04:05"

// Canonical renders the single canonical string for each variant, so two
// values that differ only in source serialization compare equal. Absent
// renders as the empty string.
func (v Value) Canonical() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDateTime:
		return v.t.Format(CanonicalTimeLayout)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// numericRegex validates a numeric string after cleanup. Matches integers,
// decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// tzSuffixRegex detects timezone-aware datetime strings: a trailing Z, or a
// numeric UTC offset following a time component. The offset alternative
// requires a preceding ":mm" so date layouts like "1-2-2006" do not trip it.
var tzSuffixRegex = regexp.MustCompile(`(:\d{2}(Z|[+-]\d{2}:?\d{2})|\dZ)$`)

// civilTimeLayouts are the accepted timezone-naive datetime layouts, most
// specific first. None of them carry a zone.
var civilTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Coerce converts raw cell text to a Value of the expected type. The second
// return is a non-empty warning when the value was dropped to Absent because
// it could not be converted safely. Empty input is Absent with no warning.
func Coerce(raw string, want schema.ValueType) (Value, string) {
	s := CleanCell(raw)
	if s == "" {
		return Absent(), ""
	}

	switch want {
	case schema.TypeString:
		return String(s), ""

	case schema.TypeInteger:
		n := cleanNumeric(s)
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return Integer(i), ""
		}
		// Spreadsheets frequently render integers as floats ("1002001.0").
		if f, err := strconv.ParseFloat(n, 64); err == nil && f == float64(int64(f)) {
			return Integer(int64(f)), ""
		}
		return Absent(), "cannot coerce " + strconv.Quote(raw) + " to integer"

	case schema.TypeFloat:
		n := cleanNumeric(s)
		if !numericRegex.MatchString(n) {
			return Absent(), "cannot coerce " + strconv.Quote(raw) + " to float"
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return Absent(), "cannot coerce " + strconv.Quote(raw) + " to float"
		}
		return Float(f), ""

	case schema.TypeDateTime:
		if tzSuffixRegex.MatchString(s) {
			return Absent(), "datetime " + strconv.Quote(raw) + " carries a timezone; civil time required"
		}
		for _, layout := range civilTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return DateTime(t), ""
			}
		}
		return Absent(), "cannot coerce " + strconv.Quote(raw) + " to datetime"

	case schema.TypeBoolean:
		switch strings.ToLower(s) {
		case "true", "t", "yes", "y", "1":
			return Bool(true), ""
		case "false", "f", "no", "n", "0":
			return Bool(false), ""
		}
		return Absent(), "cannot coerce " + strconv.Quote(raw) + " to boolean"

	default:
		return Absent(), "unknown expected type " + strconv.Quote(string(want))
	}
}

// cleanNumeric strips currency symbols, thousand separators, and accounting
// negatives so "$1,234.56" and "(42)" parse.
func cleanNumeric(s string) string {
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}
	return s
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, a formula-escape prefix (="..."), and stray
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
