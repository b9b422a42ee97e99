package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mwolter/assetdump/pkg/cache"
	"github.com/mwolter/assetdump/pkg/dump"
	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/filter"
	"github.com/mwolter/assetdump/pkg/object"
	"github.com/mwolter/assetdump/pkg/observability"
	"github.com/mwolter/assetdump/pkg/render/refgraph"
	"github.com/mwolter/assetdump/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → dump → render pipeline.
//
// The document itself is never cached: the unmatched-entry warning has to be
// recomputed on every run or a stale cache would silently mask profile typos.
// Only package bytes (inside the store resolver) and rendered SVG artifacts
// go through the cache.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	profile, err := r.buildProfile(opts)
	if err != nil {
		return nil, err
	}

	loader, cleanup, err := r.buildLoader(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	tracked := &trackingLoader{PackageLoader: loader}

	pkgCache := r.Cache
	if opts.Refresh {
		pkgCache = cache.NewNullCache()
	}
	resolver := store.NewResolver(tracked,
		store.WithCache(pkgCache, r.Keyer),
		store.WithLogger(opts.Logger))

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.File)
	pkg, err := resolver.Load(ctx, opts.File)
	result.Stats.LoadTime = time.Since(loadStart)
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, opts.File, 0, result.Stats.LoadTime, err)
		return nil, fmt.Errorf("load: %w", err)
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.File, pkg.Len(), result.Stats.LoadTime, nil)
	result.CacheInfo.PackageHit = tracked.loads == 0

	opts.Logger.Info("loaded package",
		"file", opts.File,
		"objects", pkg.Len(),
		"duration", result.Stats.LoadTime)

	root, err := pickRoot(pkg, opts)
	if err != nil {
		return nil, err
	}

	// Stage 2: Dump
	dumpStart := time.Now()
	observability.Pipeline().OnDumpStart(ctx, opts.File)

	writerOpts := []dump.Option{
		dump.WithResolver(resolver.Resolve),
		dump.WithLogger(opts.Logger),
		dump.WithMaxDepth(opts.MaxDepth),
	}
	if opts.RefTokens {
		writerOpts = append(writerOpts, dump.WithReferenceTokens())
	}
	writer := dump.NewWriter(profile, writerOpts...)

	var buf bytes.Buffer
	res, err := writer.WriteObjects(ctx, &buf, root)
	result.Stats.DumpTime = time.Since(dumpStart)
	if err != nil {
		observability.Pipeline().OnDumpComplete(ctx, opts.File, 0, result.Stats.DumpTime, err)
		return nil, fmt.Errorf("dump: %w", err)
	}
	observability.Pipeline().OnDumpComplete(ctx, opts.File, res.Objects, result.Stats.DumpTime, nil)

	result.Document = buf.Bytes()
	result.Unmatched = res.Unmatched
	result.Trace = res.Trace
	result.Stats.Objects = res.Objects

	opts.Logger.Info("dumped object graph",
		"objects", res.Objects,
		"bytes", len(result.Document),
		"duration", result.Stats.DumpTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	err = r.render(ctx, result, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// render fills result.Artifacts for every requested format. The document and
// DOT text are cheap and recomputed every run; SVG rendering goes through
// Graphviz and is cached by trace content.
func (r *Runner) render(ctx context.Context, result *Result, opts Options) error {
	var dot string
	needsDOT := opts.WantsFormat(FormatDOT) || opts.WantsFormat(FormatSVG)
	if needsDOT {
		dot = refgraph.ToDOT(result.Trace, refgraph.Options{Detailed: opts.Detailed})
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			result.Artifacts[FormatJSON] = result.Document
		case FormatDOT:
			result.Artifacts[FormatDOT] = []byte(dot)
		case FormatSVG:
			svg, hit, err := r.renderSVG(ctx, dot)
			if err != nil {
				return err
			}
			result.Artifacts[FormatSVG] = svg
			result.CacheInfo.RenderHit = hit
		}
	}
	return nil
}

func (r *Runner) renderSVG(ctx context.Context, dot string) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{Format: FormatSVG})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	svg, err := refgraph.RenderSVG(dot)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, svg, cache.ArtifactTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(svg))
	}
	return svg, false, nil
}

// buildProfile merges inline field entries with a TOML profile file.
func (r *Runner) buildProfile(opts Options) (*filter.Profile, error) {
	entries := append([]string(nil), opts.Fields...)
	if opts.ProfilePath != "" {
		fromFile, err := filter.Load(opts.ProfilePath)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFile.Entries()...)
	}
	return filter.New(entries)
}

// buildLoader picks the package backend from the options.
func (r *Runner) buildLoader(ctx context.Context, opts Options) (store.PackageLoader, func(), error) {
	noop := func() {}
	if opts.Loader != nil {
		return opts.Loader, noop, nil
	}
	if opts.StoreDir != "" {
		s, err := store.NewDirStore(opts.StoreDir)
		return s, noop, err
	}
	s, err := store.NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
	if err != nil {
		return nil, noop, err
	}
	return s, func() { _ = s.Close(context.Background()) }, nil
}

func pickRoot(pkg *store.Package, opts Options) (object.Node, error) {
	if opts.Root != 0 {
		root, ok := pkg.Object(opts.Root)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"class %d not in file %d", opts.Root, opts.File)
		}
		return root, nil
	}
	root, ok := pkg.Root()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"file %d has no root object", opts.File)
	}
	return root, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// trackingLoader counts backend loads so Execute can report package cache hits.
type trackingLoader struct {
	store.PackageLoader
	loads int
}

func (l *trackingLoader) LoadPackage(ctx context.Context, fileID int64) ([]byte, error) {
	l.loads++
	return l.PackageLoader.LoadPackage(ctx, fileID)
}
