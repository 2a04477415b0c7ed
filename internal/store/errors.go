package store

import "errors"

// Error taxonomy for store operations.
//
// These sentinels are wrapped with context by the operation that failed and
// can be checked with errors.Is():
//
//	if errors.Is(err, store.ErrNotFound) {
//	    // referenced project or task does not exist
//	}
var (
	// ErrNotFound is returned when a referenced project or task id does
	// not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write would violate a uniqueness
	// invariant, such as a duplicate project slug. Duplicate plan dates
	// are handled as upserts and do not produce this error.
	ErrConflict = errors.New("record conflict")

	// ErrValidation is returned for malformed input: an empty
	// description, a malformed date, or a done task without its
	// completion date. Validation failures are never partially applied.
	ErrValidation = errors.New("validation failed")

	// ErrIntegrity is returned when an operation would orphan a record.
	// Cascade rules prevent this under normal operation.
	ErrIntegrity = errors.New("integrity violation")
)
