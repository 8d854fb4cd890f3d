package service

import (
	"context"
	"time"
)

// resultCache is the slice of the redis cache repository the services need.
type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}
