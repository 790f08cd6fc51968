package services

import "errors"

var (
	// ErrParseFailure marks a file whose name matched no pattern. The file is
	// quarantined and the pass continues.
	ErrParseFailure = errors.New("filename did not match any known pattern")

	// ErrUnresolvedSeries marks a series with no confident tracker match.
	ErrUnresolvedSeries = errors.New("no tracker match for series")

	// ErrRunInProgress is returned when another pass holds the run lock.
	ErrRunInProgress = errors.New("another ingest pass is already running")
)
