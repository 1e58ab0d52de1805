package importer

import "errors"

// Error kinds surfaced to callers. Wrap with %w and test with errors.Is.
var (
	// ErrInput: the upload is missing or unreadable.
	ErrInput = errors.New("importer: input unreadable")

	// ErrSchemaMismatch: the header/column contract of the selected import
	// kind is violated. The whole batch aborts before any insert.
	ErrSchemaMismatch = errors.New("importer: schema mismatch")

	// ErrMalformedDate: the rainfall date reconstruction cannot parse a
	// cell. The cell is skipped; reconstruction continues.
	ErrMalformedDate = errors.New("importer: malformed date")
)
