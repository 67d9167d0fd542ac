// Package cache stores short-lived generated values such as AI campaign
// names. Redis backs it when configured, an in-process store otherwise.
package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrMiss is returned by Get when no live entry exists.
var ErrMiss = errors.New("cache miss")

// Cache is a string key-value cache with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
