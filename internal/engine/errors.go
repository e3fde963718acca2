package engine

import "errors"

var (
	// ErrFetch wraps a fetch that failed on every attempt.
	ErrFetch = errors.New("fetch failed")

	// ErrExtractionDegraded marks a cycle whose rendered page yielded no
	// slots. It is reported through Result.Degraded, never returned.
	ErrExtractionDegraded = errors.New("slot extraction degraded")

	// ErrPersistence wraps state store failures.
	ErrPersistence = errors.New("state persistence failed")

	// ErrCycleInProgress is returned by Trigger when the target is already
	// being checked.
	ErrCycleInProgress = errors.New("cycle already in progress")

	// ErrUnknownTarget is returned by Trigger for unconfigured target IDs.
	ErrUnknownTarget = errors.New("unknown target")
)
