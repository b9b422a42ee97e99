package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwolter/assetdump/internal/web"
	"github.com/mwolter/assetdump/pkg/cache"
	"github.com/mwolter/assetdump/pkg/pipeline"
)

// serveCommand creates the serve command for running the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		storeDir        string
		mongoURI        string
		mongoDatabase   string
		mongoCollection string
		addr            string
		redisURL        string
		noCache         bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dump pipeline as an HTTP service",
		Long: `Run the dump pipeline as an HTTP service.

The serve command exposes the dump pipeline over HTTP: POST /v1/dump runs a
dump against the store configured here, and GET /v1/files/{fileID} returns
raw package bytes. The store backend is fixed at startup; requests choose
only the file, filter, and output options.

Package bytes are cached on disk by default. With --redis the cache is
shared across instances.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), serveOpts{
				storeDir:        storeDir,
				mongoURI:        mongoURI,
				mongoDatabase:   mongoDatabase,
				mongoCollection: mongoCollection,
				addr:            addr,
				redisURL:        redisURL,
				noCache:         noCache,
			})
		},
	}

	cmd.Flags().StringVarP(&storeDir, "store", "s", "", "directory of <fileID>.json packages")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string (alternative to --store)")
	cmd.Flags().StringVar(&mongoDatabase, "mongo-db", "", "MongoDB database name")
	cmd.Flags().StringVar(&mongoCollection, "mongo-collection", "", "MongoDB collection holding packages")
	cmd.Flags().StringVar(&addr, "addr", web.DefaultConfig().Address, "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for a shared package cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

type serveOpts struct {
	storeDir        string
	mongoURI        string
	mongoDatabase   string
	mongoCollection string
	addr            string
	redisURL        string
	noCache         bool
}

// runServe wires the store, cache, and runner into the HTTP server and blocks
// until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	loader, closeLoader, err := newLoader(ctx, opts.storeDir, opts.mongoURI, opts.mongoDatabase, opts.mongoCollection)
	if err != nil {
		return err
	}
	defer closeLoader()

	srvCache, err := newServeCache(opts)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	runner := pipeline.NewRunner(srvCache, nil, c.Logger)
	defer runner.Close() // closes the cache

	cfg := web.DefaultConfig()
	cfg.Address = opts.addr

	c.Logger.Info("Starting server", "addr", cfg.Address, "store", loader.Source())
	return web.New(runner, loader, c.Logger, cfg).ListenAndServe(ctx)
}

func newServeCache(opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL != "" {
		return cache.NewRedisCacheURL(opts.redisURL)
	}
	return newCache(false)
}
