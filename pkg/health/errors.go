package health

import "errors"

var (
	// ErrCheckFailed is the root of every Report.Err.
	ErrCheckFailed = errors.New("health: dependency not ready")
	// ErrCheckTimeout is joined to checks still running at the probe deadline.
	ErrCheckTimeout = errors.New("health: probe deadline exceeded")
)
