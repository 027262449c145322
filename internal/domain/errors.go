package domain

import "errors"

// Sentinel errors shared by repositories and services. Callers wrap them
// with fmt.Errorf("...: %w", err) so the HTTP layer can map with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidTarget   = errors.New("invalid target stage")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTenantNotFound  = errors.New("tenant not found")
)
