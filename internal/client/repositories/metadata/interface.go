// Package metadata is the durable client-local key/value area, stored in the
// metadata table of the local SQLite database.
package metadata

import "context"

// Repository stores small binary values by key.
//
// Get returns (nil, nil) when the key does not exist.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}
