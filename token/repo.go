package token

import (
	"context"
	"fmt"
)

// DefaultKeyPrefix is the first segment of the storage key used by the
// bundled store implementations.
const DefaultKeyPrefix = "efactura"

// Store is the keyed persistence contract the token service consumes.
// Implementations own the physical persistence (process memory, sealed
// cookie, database row); the token service owns the decision of when to
// read, write, refresh, or remove a record.
//
// Get returns (nil, nil) when nothing is stored under the key or the
// stored record is malformed; absence is not an error. Remove is
// idempotent. Set is an upsert.
type Store interface {
	Set(ctx context.Context, userKey string, tok *Token) error
	Get(ctx context.Context, userKey string) (*Token, error)
	Remove(ctx context.Context, userKey string) error
	HasValid(ctx context.Context, userKey string) bool
}

// StorageKey composes the record key used by the bundled store backends:
// "{prefix}:{userKey}:{scope}". Scope is part of the key so that grants
// with different scopes never overwrite each other.
func StorageKey(prefix, userKey, scope string) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return fmt.Sprintf("%s:%s:%s", prefix, userKey, scope)
}
