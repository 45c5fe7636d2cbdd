// Package revocation is the durable, shared record of which tokens are still live.
package revocation

import (
	"context"
	"net/http"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
)

// ErrStoreUnavailable the durable store failed or timed out. Callers fail closed.
var ErrStoreUnavailable = errcode.Register(errcode.New(errcode.ModuleRevocation, 1, "revocation",
	"error.revocation.store_unavailable", "Revocation store unavailable", http.StatusServiceUnavailable))

// Writer queues writes inside an Atomic batch
type Writer interface {
	PutWithTTL(key, value string, ttl time.Duration)
	SetAdd(setKey string, members ...string)
	Expire(key string, ttl time.Duration)
}

// Store is the shared TTL key/value and set store.
// Every error returned is ErrStoreUnavailable (wrapping the cause).
type Store interface {
	PutWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error

	// Increment adds one and returns the new value. A key created by the
	// increment gets ttlIfCreated so counters never outlive their token.
	Increment(ctx context.Context, key string, ttlIfCreated time.Duration) (int64, error)

	// GetInt reports found=false for an absent key
	GetInt(ctx context.Context, key string) (value int64, found bool, err error)

	SetAdd(ctx context.Context, setKey string, members ...string) error
	SetRemove(ctx context.Context, setKey string, members ...string) error
	SetMembers(ctx context.Context, setKey string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Scan calls fn for each key matching pattern; fn errors stop the scan
	Scan(ctx context.Context, pattern string, fn func(key string) error) error

	// Atomic applies every write queued by fn in one transaction
	Atomic(ctx context.Context, fn func(w Writer)) error
}
