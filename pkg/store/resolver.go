package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mwolter/assetdump/pkg/cache"
	"github.com/mwolter/assetdump/pkg/object"
	"github.com/mwolter/assetdump/pkg/observability"
)

// Resolver resolves external pointers against a package backend. Loaded
// packages are memoized for the resolver's lifetime and the raw bytes go
// through the configured cache, so a dump touching one file many times loads
// it once.
//
// Resolver.Resolve satisfies the dump writer's resolver contract: a missing
// file surfaces the loader's ASSET_NOT_FOUND error, a missing class inside a
// loaded file returns (nil, nil).
type Resolver struct {
	loader PackageLoader
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger

	mu       sync.Mutex
	packages map[int64]*Package
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache sets the byte cache for loaded packages.
func WithCache(c cache.Cache, k cache.Keyer) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
		if k != nil {
			r.keyer = k
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver over the given backend. Without options it
// uses a null cache and the default logger.
func NewResolver(loader PackageLoader, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		loader:   loader,
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		logger:   log.Default(),
		packages: make(map[int64]*Package),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches and decodes the package for a file ID.
func (r *Resolver) Load(ctx context.Context, fileID int64) (*Package, error) {
	r.mu.Lock()
	pkg, ok := r.packages[fileID]
	r.mu.Unlock()
	if ok {
		return pkg, nil
	}

	data, err := r.loadBytes(ctx, fileID)
	if err != nil {
		return nil, err
	}
	pkg, err = DecodePackage(data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.packages[fileID] = pkg
	r.mu.Unlock()
	return pkg, nil
}

func (r *Resolver) loadBytes(ctx context.Context, fileID int64) ([]byte, error) {
	key := r.keyer.PackageKey(r.loader.Source(), fileID)

	data, hit, err := r.cache.Get(ctx, key)
	if err != nil {
		// Cache trouble is not fatal, fall through to the loader.
		r.logger.Warn("package cache read failed", "file", fileID, "error", err)
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, "pkg")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "pkg")

	data, err = r.loader.LoadPackage(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, data, cache.PackageTTL); err != nil {
		r.logger.Warn("package cache write failed", "file", fileID, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "pkg", len(data))
	}
	return data, nil
}

// Resolve resolves an external pointer to its target object.
func (r *Resolver) Resolve(ctx context.Context, fileID, classID int64) (object.Node, error) {
	start := time.Now()

	pkg, err := r.Load(ctx, fileID)
	if err != nil {
		observability.Store().OnResolveError(ctx, fileID, classID, err)
		return nil, err
	}

	target, ok := pkg.Object(classID)
	observability.Store().OnResolve(ctx, fileID, classID, ok, time.Since(start))
	if !ok {
		// The file exists but the class does not. The writer skips the
		// field; leave a trail for debugging stripped assets.
		r.logger.Debug("class not in package", "file", fileID, "class", classID)
		return nil, nil
	}
	return target, nil
}
