package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends. Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// found; expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A TTL of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per cached stage. Package files change when assets are
// re-exported, so they age out; rendered artifacts are keyed by content hash
// and can live longer.
const (
	PackageTTL  = 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// ArtifactKeyOpts captures the parameters that affect a rendered artifact.
type ArtifactKeyOpts struct {
	Format string
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// PackageKey generates a key for raw package bytes loaded from a store.
	PackageKey(source string, fileID int64) string

	// ArtifactKey generates a key for a rendered reference-graph artifact,
	// derived from the hash of the trace it was rendered from.
	ArtifactKey(traceHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates deterministic, collision-resistant keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PackageKey generates a key for package bytes.
func (k *DefaultKeyer) PackageKey(source string, fileID int64) string {
	return hashKey("pkg", source, fileID)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(traceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", traceHash, opts.Format)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
