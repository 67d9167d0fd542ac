package service

import "github.com/pkg/errors"

// Sentinel errors mapped to transport status codes by the API layers.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
	ErrLimitReached = errors.New("limit reached")
	ErrInvalidInput = errors.New("invalid input")
)
