package domain

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTenantAlreadyExists = errors.New("tenant already exists")
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("access forbidden")
)
