package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound    = errors.New("competitor not found")
	ErrDuplicateID = errors.New("duplicate id")
)
