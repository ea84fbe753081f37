package domain

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidCursor   = errors.New("invalid cursor")
	ErrPANDetected     = errors.New("card number pattern detected")
	ErrInternal        = errors.New("internal error")
)
