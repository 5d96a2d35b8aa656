package model

import "errors"

// Domain errors. Callers compare with errors.Is; store functions wrap them
// with context.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrConflict          = errors.New("conflict")
	ErrPersistence       = errors.New("persistence error")
	ErrForbidden         = errors.New("forbidden")
	ErrNotImplemented    = errors.New("not implemented")
)
