// Package cache stores serialized reports keyed by the content they were
// computed from.
//
// Backends: [FileCache] for the CLI, [RedisCache] and [MemoryCache] for the
// HTTP service, and [NullCache] when caching is disabled. Keys come from a
// [Keyer] so that services can scope them per tenant ([ScopedKeyer]).
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long reports stay cached. Reports are keyed by archive
// digest, so entries never go stale; the TTL only bounds storage.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// ReportKeyOpts are the analysis options that change a report's content.
type ReportKeyOpts struct {
	DevDependencies string   `json:"dev_dependencies"`
	MaxDepth        int      `json:"max_depth"`
	Checkers        []string `json:"checkers"`
	Manifests       []string `json:"manifests,omitempty"` // digests of custom replacement manifests
}

// Keyer derives cache keys.
type Keyer interface {
	// ReportKey keys a report by the digest of the analyzed archive.
	ReportKey(digest string, opts ReportKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ReportKey returns "report:<sha256(digest, opts)>".
func (DefaultKeyer) ReportKey(digest string, opts ReportKeyOpts) string {
	return reportKey("report", digest, opts)
}
