package service

import "errors"

var (
	ErrInvalid           = errors.New("invalid request")
	ErrBrokenReference   = errors.New("broken reference")
	ErrForbidden         = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthenticated   = errors.New("invalid credentials")
)
