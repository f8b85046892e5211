package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX reads an .xlsx workbook through excelize. GetCellValue returns the
// last-computed cached value for formula cells, which is exactly the
// non-evaluating semantics the pipeline wants.
type XLSX struct {
	file *excelize.File
}

// OpenXLSX opens workbook bytes. The caller owns the returned reader and
// must Close it.
func OpenXLSX(data []byte) (*XLSX, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	return &XLSX{file: f}, nil
}

// Close releases the underlying excelize file.
func (x *XLSX) Close() error {
	return x.file.Close()
}

func (x *XLSX) Sheets() []string {
	return x.file.GetSheetList()
}

func (x *XLSX) HasSheet(name string) bool {
	idx, err := x.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (x *XLSX) CellValue(sheet, ref string) (string, error) {
	if !x.HasSheet(sheet) {
		return "", &MissingSheetError{Sheet: sheet}
	}
	v, err := x.file.GetCellValue(sheet, ref)
	if err != nil {
		return "", fmt.Errorf("read cell %s!%s: %w", sheet, ref, err)
	}
	return v, nil
}
