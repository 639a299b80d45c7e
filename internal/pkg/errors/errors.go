package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPanelUnknown means an operation command named a panel outside
	// the currently enabled set.
	ErrPanelUnknown = errors.New("panel not in enabled set")
	// ErrColumnOutOfRange means a column number fell outside 1..|subItems|.
	ErrColumnOutOfRange = errors.New("column out of range")
	// ErrRowInvalid means a row number was not a positive integer after normalization.
	ErrRowInvalid = errors.New("row invalid")
	// ErrForbiddenFormat means the response body matched a disallowed
	// legacy/JSON/XML syntax and the whole block must be rejected.
	ErrForbiddenFormat = errors.New("forbidden response format")
	// ErrNoDataBlock means no <infobar_data> span could be located.
	ErrNoDataBlock = errors.New("no infobar_data block found")
)
