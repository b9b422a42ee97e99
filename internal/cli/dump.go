package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwolter/assetdump/pkg/pipeline"
)

// dumpCommand creates the dump command for writing filtered documents.
func (c *CLI) dumpCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write a filtered JSON document for an object graph",
		Long: `Write a filtered JSON document for an object graph.

The dump command loads the package for --file from the configured store,
walks the object graph starting at its root, and writes a JSON document
containing only the fields allowed by --fields or --profile. Pointers to
objects in other packages are resolved through the store.

Package bytes are cached locally for faster subsequent runs; the document
itself is recomputed every time so filter warnings stay accurate.

With --format dot or svg the reference structure discovered during the dump
is rendered as a graph.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runDump(cmd.Context(), opts, output, noCache)
		},
	}

	// Store flags
	cmd.Flags().StringVarP(&opts.StoreDir, "store", "s", "", "directory of <fileID>.json packages")
	cmd.Flags().StringVar(&opts.MongoURI, "mongo-uri", "", "MongoDB connection string (alternative to --store)")
	cmd.Flags().StringVar(&opts.MongoDatabase, "mongo-db", "", "MongoDB database name")
	cmd.Flags().StringVar(&opts.MongoCollection, "mongo-collection", "", "MongoDB collection holding packages")

	// Input flags
	cmd.Flags().Int64Var(&opts.File, "file", 0, "file ID of the package to dump")
	cmd.Flags().Int64Var(&opts.Root, "root", 0, "class ID of the root object (default: the package's declared root)")
	_ = cmd.MarkFlagRequired("file")

	// Filter flags
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, `allowed "Type.field" entries (comma-separated or repeated)`)
	cmd.Flags().StringVar(&opts.ProfilePath, "profile", "", "TOML profile listing allowed fields")

	// Dump flags
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum expansion depth (0 uses the default)")
	cmd.Flags().BoolVar(&opts.RefTokens, "ref-tokens", false, "emit {\"$ref\": token} for objects seen before")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the package cache for this run")

	// Output flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include reference tokens in graph labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runDump executes the pipeline and writes the requested artifacts.
func (c *CLI) runDump(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Dumping file %d...", opts.File))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Dump failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, entry := range result.Unmatched {
		printWarning("No field matched %q", entry)
	}

	// A plain json dump with no output path goes to stdout so it can be piped.
	if output == "" && len(opts.Formats) == 1 && opts.Formats[0] == pipeline.FormatJSON {
		fmt.Print(string(result.Document))
		return nil
	}

	paths, err := writeArtifacts(result.Artifacts, opts, output)
	if err != nil {
		return err
	}

	printSuccess("Dump complete")
	for _, path := range paths {
		printFile(path)
	}
	printStats(result.Stats.Objects, len(result.Unmatched), result.CacheInfo.PackageHit)

	return nil
}

// writeArtifacts writes each requested artifact next to the output path and
// returns the paths written, in format order.
func writeArtifacts(artifacts map[string][]byte, opts pipeline.Options, output string) ([]string, error) {
	base := basePath(output, opts.File)
	single := len(opts.Formats) == 1

	var paths []string
	for _, format := range opts.Formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if single && output != "" {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write output %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the base output path from the output flag and file ID.
// If output is empty, the file ID is used.
// If output has a format extension (.json, .svg, etc.), that extension is
// stripped so multiple formats share the base.
func basePath(output string, fileID int64) string {
	if output == "" {
		return fmt.Sprintf("file-%d", fileID)
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
