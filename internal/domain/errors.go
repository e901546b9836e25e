package domain

import "errors"

var (
	// ErrInvalidArgument marks caller input that cannot be processed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAccountRequired is returned when no account could be resolved for a request.
	ErrAccountRequired = errors.New("account id is required")

	// ErrRunInProgress is returned when another run already holds the account lock.
	ErrRunInProgress = errors.New("auto-action run in progress")
)
