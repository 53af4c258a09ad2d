package providers

import "errors"

var (
	// ErrUnexpectedStatus is returned when a provider responds with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrNoSubmissionID is returned when a scan submission yields no job identifier
	ErrNoSubmissionID = errors.New("submission returned no id")
	// ErrNoScreenshot is returned when no screenshot reference materialized
	ErrNoScreenshot = errors.New("no screenshot available")
)
