package domain

import "errors"

// Error kinds for a product run. All are fatal: the run aborts, a failure
// notification goes out unless suppressed, and the process exits nonzero.
// Callers match with errors.Is.
var (
	// ErrNoMatchingFile means no input grid in the data directory matches
	// today's date token (or no current-vector pair exists within the
	// backward-search bound).
	ErrNoMatchingFile = errors.New("no matching input file")

	// ErrFileNotFound means an explicitly named input file is absent.
	ErrFileNotFound = errors.New("input file not found")

	// ErrMalformedFilename means a filename does not match the naming schema
	// or its embedded tokens do not form valid calendar dates.
	ErrMalformedFilename = errors.New("malformed grid filename")

	// ErrMissingOutput means an external stage reported success but its
	// declared output file does not exist.
	ErrMissingOutput = errors.New("expected output file missing")

	// ErrToolFailure means an external tool exited nonzero or timed out.
	ErrToolFailure = errors.New("external tool failed")
)
