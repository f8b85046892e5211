// Package workbook abstracts reading last-computed cell values from an
// uploaded spreadsheet. Formulas are never evaluated; only the cached value
// a spreadsheet application last wrote is visible through Reader.
package workbook

import "sort"

// Reader is the minimal surface the extraction pipeline needs from a
// workbook. Implementations must be safe for repeated reads of the same
// cell and must return "" (not an error) for cells that exist but are empty.
type Reader interface {
	// Sheets lists worksheet names in workbook order.
	Sheets() []string

	// HasSheet reports whether a worksheet with the given name exists.
	HasSheet(name string) bool

	// CellValue returns the cached value at an unanchored reference like
	// "B4" on the named sheet. Missing sheets are an error; empty cells
	// are "".
	CellValue(sheet, ref string) (string, error)
}

// MapReader is an in-memory Reader backed by sheet -> ref -> value maps.
// It backs tests and the structural passthrough for payloads that arrive
// already normalized.
type MapReader struct {
	sheets map[string]map[string]string
	order  []string
}

// NewMapReader builds a MapReader. Sheet order follows the lexical order of
// sheet names unless AddSheet is used to control it.
func NewMapReader(sheets map[string]map[string]string) *MapReader {
	r := &MapReader{sheets: make(map[string]map[string]string, len(sheets))}
	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.AddSheet(name, sheets[name])
	}
	return r
}

// AddSheet appends a sheet, replacing any existing sheet of the same name.
func (r *MapReader) AddSheet(name string, cells map[string]string) {
	if r.sheets == nil {
		r.sheets = make(map[string]map[string]string)
	}
	if _, exists := r.sheets[name]; !exists {
		r.order = append(r.order, name)
	}
	copied := make(map[string]string, len(cells))
	for ref, v := range cells {
		copied[ref] = v
	}
	r.sheets[name] = copied
}

func (r *MapReader) Sheets() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *MapReader) HasSheet(name string) bool {
	_, ok := r.sheets[name]
	return ok
}

func (r *MapReader) CellValue(sheet, ref string) (string, error) {
	cells, ok := r.sheets[sheet]
	if !ok {
		return "", &MissingSheetError{Sheet: sheet}
	}
	return cells[ref], nil
}

// MissingSheetError reports a read against a worksheet that does not exist.
type MissingSheetError struct {
	Sheet string
}

func (e *MissingSheetError) Error() string {
	return "workbook has no sheet " + e.Sheet
}
