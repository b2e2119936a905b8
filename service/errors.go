package service

import "errors"

var (
	ErrNonRetryable = errors.New("non-retryable error")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("caller not authenticated")
	ErrForbidden    = errors.New("caller not authorized")
	ErrNotFound     = errors.New("record not found")
)
