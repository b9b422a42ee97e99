package cache

// ScopedKeyer wraps a Keyer with a prefix so separate stores or tenants get
// isolated cache namespaces.
//
// Example usage:
//
//	// Keys scoped to one asset store
//	storeKeyer := NewScopedKeyer(NewDefaultKeyer(), "store:prod:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PackageKey generates a prefixed key for package bytes.
func (k *ScopedKeyer) PackageKey(source string, fileID int64) string {
	return k.prefix + k.inner.PackageKey(source, fileID)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(traceHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(traceHash, opts)
}
