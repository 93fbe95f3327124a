package domain

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector does not match the store's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrCorruptRecord is returned when stored state is missing or cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt stored record")

	// ErrEmptyQuery is returned when a retrieval is requested for blank text.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrUnknownProvider is returned for an unsupported generation provider name.
	ErrUnknownProvider = errors.New("unknown generation provider")

	// ErrMalformedOutput is returned when a backend reply cannot be decoded.
	ErrMalformedOutput = errors.New("malformed backend output")
)
