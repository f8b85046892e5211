// Package fault defines the error taxonomy shared across component boundaries.
//
// Every fallible operation in the ingestion and reconciliation pipeline
// returns an error carrying exactly one Kind plus a human-readable message.
// Presentation-layer callers map kinds to user copy; the kinds themselves are
// stable identifiers and never change wording for cosmetic reasons.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that branch on failure category.
type Kind string

const (
	// KindUnknown is the zero value; errors without a kind report it.
	KindUnknown Kind = "unknown"

	// KindFileError covers durable file I/O failures: saving the raw
	// upload, writing or reading a staging artifact.
	KindFileError Kind = "file_error"

	// KindConversionFailed covers failures turning an uploaded workbook
	// into a normalized payload.
	KindConversionFailed Kind = "conversion_failed"

	// KindMissingID means the payload carries no identity field at all.
	KindMissingID Kind = "missing_id"

	// KindInvalidID means the identity field is present but is not a
	// positive integer.
	KindInvalidID Kind = "invalid_id"

	// KindSchemaNotFound means a schema name and all of its aliases are
	// unresolvable in the loaded catalog.
	KindSchemaNotFound Kind = "schema_not_found"

	// KindSchemaInvalid means one or more schema sources failed
	// validation at load time. The message lists every violation.
	KindSchemaInvalid Kind = "schema_invalid"

	// KindSchemaManifestMissing means the workbook has no schema-manifest
	// tab, so no data tab can be safely extracted.
	KindSchemaManifestMissing Kind = "schema_manifest_missing"

	// KindCompoundFieldInvalid means a synthetic compound cell could not
	// be decomposed into its atomic fields; the whole tab is rejected.
	KindCompoundFieldInvalid Kind = "compound_field_invalid"

	// KindMalformedAddress means a cell address is not in the fully
	// anchored $COL$ROW form.
	KindMalformedAddress Kind = "malformed_address"

	// KindValidationError covers business-rule rejections by the record
	// store or the reconciliation engine.
	KindValidationError Kind = "validation_error"

	// KindDatabaseError covers integrity and connectivity failures in the
	// record store.
	KindDatabaseError Kind = "database_error"
)

// Error is an error with a Kind. Wrapped causes are preserved for errors.Is
// and errors.As chains.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with a formatted message and no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around an existing cause. If err is already an
// *Error its kind is preserved unless kind is non-empty.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from an error chain. Errors outside the taxonomy
// report KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
