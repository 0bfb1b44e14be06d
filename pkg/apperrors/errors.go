package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrInvalidEntry  = errors.New("invalid travel entry")
	ErrGroupResolved = errors.New("duplicate group already resolved")
)
