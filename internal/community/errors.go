package community

import "errors"

var (
	// ErrLookupFailure is returned when an identity reachable through the
	// friendship structure has no user record. It means the store let an edge
	// outlive one of its endpoints.
	ErrLookupFailure = errors.New("identity has no user record")

	// ErrSearchBudget is returned by the isolated path search when it expands
	// more frames than Analyzer.MaxExpansions allows.
	ErrSearchBudget = errors.New("path search budget exhausted")

	// ErrUnknownPathMode is returned by ParsePathMode for unsupported values.
	ErrUnknownPathMode = errors.New("unknown path mode")
)
