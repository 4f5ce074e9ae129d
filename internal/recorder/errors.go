package recorder

import "errors"

// Sentinel errors for the recorder package. Using sentinels instead of
// ad-hoc fmt.Errorf allows callers to match with errors.Is for reliable
// error handling.
var (
	// ErrEmptyID is returned when a run is recorded without an entity id.
	ErrEmptyID = errors.New("entity id is required")

	// ErrEmptyInputFingerprint is returned when a run is recorded without
	// an input fingerprint.
	ErrEmptyInputFingerprint = errors.New("input fingerprint is required")
)
