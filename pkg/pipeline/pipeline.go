// Package pipeline provides the core dump pipeline for assetdump.
//
// This package implements the complete load → dump → render pipeline that
// can be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Fetch the root package from an asset store and decode it
//  2. Dump: Walk the object graph and write the filtered JSON document
//  3. Render: Generate reference graph views (DOT, SVG) alongside the document
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    StoreDir: "./assets",
//	    File:     7,
//	    Fields:   []string{"Foo.name", "Baz.x"},
//	    Formats:  []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc := result.Artifacts["json"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mwolter/assetdump/pkg/dump"
	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/store"
)

// DefaultMaxDepth bounds graph traversal for pipeline runs. It matches the
// dump writer's default; API users can override it per request.
const DefaultMaxDepth = dump.DefaultMaxDepth

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options contains all configuration for the dump pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Store options. Exactly one backend: a package directory, a MongoDB
	// collection, or an injected Loader.
	StoreDir        string `json:"store_dir,omitempty"`
	MongoURI        string `json:"mongo_uri,omitempty"`
	MongoDatabase   string `json:"mongo_database,omitempty"`
	MongoCollection string `json:"mongo_collection,omitempty"`

	// Input selection
	File int64 `json:"file"`
	Root int64 `json:"root,omitempty"` // class ID override; zero means the package's declared root

	// Filter options. Fields lists "Type.field" entries inline; ProfilePath
	// points at a TOML profile. When both are set the entries are merged.
	Fields      []string `json:"fields,omitempty"`
	ProfilePath string   `json:"profile,omitempty"`

	// Dump options
	MaxDepth  int  `json:"max_depth,omitempty"`
	RefTokens bool `json:"ref_tokens,omitempty"` // emit {"$ref": token} for revisited objects
	Refresh   bool `json:"refresh,omitempty"`    // bypass the package cache

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // include tokens in graph labels

	// Runtime options (not serialized)
	Logger *log.Logger         `json:"-"`
	Loader store.PackageLoader `json:"-"` // overrides the store options when set

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution for logs and API responses.
	RunID string

	// Document is the filtered JSON document.
	Document []byte

	// Unmatched lists profile entries that matched no field.
	Unmatched []string

	// Trace is the reference structure discovered during the dump.
	Trace *dump.Trace

	// Artifacts contains rendered outputs keyed by format. The "json" entry
	// is the document itself.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Objects    int // distinct objects tracked during the dump
	LoadTime   time.Duration
	DumpTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PackageHit bool // Whether the root package came from cache
	RenderHit  bool // Whether all rendered artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.File == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "file is required")
	}
	if o.Loader == nil && o.StoreDir == "" && o.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidInput, "store_dir or mongo_uri is required")
	}
	if o.StoreDir != "" && o.MongoURI != "" {
		return errors.New(errors.ErrCodeInvalidInput, "store_dir and mongo_uri are mutually exclusive")
	}
	if o.MongoURI != "" && (o.MongoDatabase == "" || o.MongoCollection == "") {
		return errors.New(errors.ErrCodeInvalidInput, "mongo_database and mongo_collection are required with mongo_uri")
	}
	if len(o.Fields) == 0 && o.ProfilePath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "fields or profile is required")
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// WantsFormat reports whether a format was requested.
func (o *Options) WantsFormat(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}
