package store

import "errors"

// Sentinel errors, checked with errors.Is. Records owned by another user
// are reported as ErrNotFound so their existence is never revealed.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)
