// Package cell parses and compares spreadsheet cell addresses.
//
// Schemas address worksheet cells in the fully anchored absolute form only
// ($B$4, $AA$15). The anchored form is what schema authors copy out of the
// formula bar, and rejecting every other shape catches hand-edited schema
// files early instead of silently reading the wrong cell.
package cell

import (
	"strings"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/fault"
)

// Address is a parsed cell address. Column is the base-26 letter encoding
// (A..Z, AA, AB, ...); Row is 1-based.
type Address struct {
	Column string
	Row    int
}

// By selects the axis Compare orders on first.
type By int

const (
	// ByRow orders row-major: row first, then column.
	ByRow By = iota
	// ByColumn orders column-major: column first, then row.
	ByColumn
)

// Parse converts a fully anchored address like "$AA$15" into an Address.
// Any other shape (unanchored, lowercase letters, zero or negative row,
// trailing garbage) fails with kind malformed_address.
func Parse(s string) (Address, error) {
	orig := s
	if len(s) < 4 || s[0] != '$' {
		return Address{}, fault.New(fault.KindMalformedAddress, "address %q: want anchored form like $A$1", orig)
	}
	s = s[1:]

	sep := strings.IndexByte(s, '$')
	if sep <= 0 {
		return Address{}, fault.New(fault.KindMalformedAddress, "address %q: want anchored form like $A$1", orig)
	}

	col := s[:sep]
	for i := 0; i < len(col); i++ {
		if col[i] < 'A' || col[i] > 'Z' {
			return Address{}, fault.New(fault.KindMalformedAddress, "address %q: column %q must be uppercase A-Z", orig, col)
		}
	}

	rowPart := s[sep+1:]
	if rowPart == "" {
		return Address{}, fault.New(fault.KindMalformedAddress, "address %q: missing row", orig)
	}
	row := 0
	for i := 0; i < len(rowPart); i++ {
		c := rowPart[i]
		if c < '0' || c > '9' {
			return Address{}, fault.New(fault.KindMalformedAddress, "address %q: row %q is not a number", orig, rowPart)
		}
		row = row*10 + int(c-'0')
		if row > 1<<30 {
			return Address{}, fault.New(fault.KindMalformedAddress, "address %q: row out of range", orig)
		}
	}
	if row < 1 || rowPart[0] == '0' {
		return Address{}, fault.New(fault.KindMalformedAddress, "address %q: row must be a positive integer", orig)
	}

	return Address{Column: col, Row: row}, nil
}

// MustParse is Parse for addresses known valid at compile time (fixed
// anchors, tests). It panics on malformed input.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the anchored form back, e.g. "$AA$15".
func (a Address) String() string {
	return "$" + a.Column + "$" + itoa(a.Row)
}

// Ref renders the unanchored form ("AA15") used by the workbook reader.
func (a Address) Ref() string {
	return a.Column + itoa(a.Row)
}

// ColumnIndex returns the 1-based numeric index of the column letters:
// A=1, Z=26, AA=27. There is no enforced upper bound beyond positivity.
func (a Address) ColumnIndex() int {
	n := 0
	for i := 0; i < len(a.Column); i++ {
		n = n*26 + int(a.Column[i]-'A'+1)
	}
	return n
}

// Compare orders two addresses by worksheet position along the chosen axis.
// Returns a negative value when a precedes b, zero when equal, positive
// otherwise. Used to sort fields for diagnostics and default payloads.
func Compare(a, b Address, by By) int {
	rowDelta := a.Row - b.Row
	colDelta := a.ColumnIndex() - b.ColumnIndex()
	if by == ByColumn {
		if colDelta != 0 {
			return colDelta
		}
		return rowDelta
	}
	if rowDelta != 0 {
		return rowDelta
	}
	return colDelta
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [12]byte
	n := len(b)
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	return string(b[n:])
}
