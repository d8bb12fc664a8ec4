// Package session holds the cached login record of each user and the stores
// that keep it. One record exists per user name, under Key(prefix, name).
package session

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the lifetime of a freshly created session (10 days).
const DefaultTTL = 864000 * time.Second

var (
	// ErrCacheUnavailable wraps failures of the backing store.
	ErrCacheUnavailable = errors.New("session: cache unavailable")
	// ErrSessionNotFound indicates that no session is cached for the key.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrMailboxClosed is returned by calls issued after Mailbox.Close.
	ErrMailboxClosed = errors.New("session: mailbox closed")
)

// Record is the cached snapshot of a logged in user.
type Record struct {
	UserID        int32  `json:"id"`
	UserName      string `json:"name"`
	Auth          uint64 `json:"auth"`
	LastLoginTime int64  `json:"last_login_time"`
}

// Key builds the cache key for a user name.
func Key(prefix, userName string) string {
	return prefix + "_" + userName
}

// Cache is the contract every session store satisfies. Each call is atomic on
// its own; sequences of calls are not.
type Cache interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Get returns nil without error when the key is absent or expired.
	Get(ctx context.Context, key string) (*Record, error)
	// Set inserts or overwrites the record and resets its TTL.
	Set(ctx context.Context, key string, rec Record, ttl time.Duration) error
	// Update overwrites an existing record without touching its TTL.
	Update(ctx context.Context, key string, rec Record) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

type recordContextKey struct{}

// ContextWithRecord stores a verified record in context.
func ContextWithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, recordContextKey{}, rec)
}

// RecordFromContext extracts the verified record from context.
func RecordFromContext(ctx context.Context) *Record {
	rec, _ := ctx.Value(recordContextKey{}).(*Record)
	return rec
}
