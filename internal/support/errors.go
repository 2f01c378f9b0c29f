package support

import "errors"

var (
	// ErrCompletion wraps any failure of the completion service call.
	ErrCompletion = errors.New("completion failed")

	ErrEmptyMessage  = errors.New("message is required")
	ErrMissingUserID = errors.New("user id is required")
	ErrInvalidStatus = errors.New("invalid ticket status")
)
