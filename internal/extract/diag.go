package extract

import "fmt"

// DiagCode classifies a non-fatal extraction diagnostic.
type DiagCode string

const (
	// DiagLabelMismatch: the worksheet label cell does not match the
	// schema's expected label text (schema/workbook drift).
	DiagLabelMismatch DiagCode = "label_mismatch"

	// DiagCoercedToAbsent: a cell value could not be converted safely and
	// was dropped to Absent.
	DiagCoercedToAbsent DiagCode = "coerced_to_absent"

	// DiagTabSkipped: a manifest-declared tab was skipped (missing sheet
	// or unresolvable schema).
	DiagTabSkipped DiagCode = "tab_skipped"
)

// Diagnostic is one recoverable extraction issue, attached to the result
// rather than aborting it.
type Diagnostic struct {
	Code    DiagCode
	Tab     string
	Field   string
	Message string
}

func (d Diagnostic) String() string {
	where := d.Tab
	if d.Field != "" {
		where += "." + d.Field
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, where, d.Message)
}
