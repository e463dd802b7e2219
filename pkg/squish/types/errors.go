package types

import "errors"

// Error kinds surfaced by transform, archive, and config operations.
// Callers classify failures with errors.Is; wrapping sites add context
// with fmt.Errorf and keep the kind (and underlying cause, when there is
// one) reachable through the chain.
var (
	// ErrNotFound indicates the source path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates the source or target format is not
	// in the supported set.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrCodec indicates a decode or encode failure.
	ErrCodec = errors.New("codec failure")

	// ErrIO indicates a create/copy/remove/read failure during staging
	// or commit.
	ErrIO = errors.New("io failure")

	// ErrConfig indicates the persisted settings could not be read or
	// written. Config failures are non-fatal: callers fall back to
	// defaults or skip the write.
	ErrConfig = errors.New("config failure")
)
