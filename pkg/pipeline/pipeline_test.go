package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/mwolter/assetdump/pkg/cache"
	"github.com/mwolter/assetdump/pkg/errors"
)

func writeStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	pkg := `{
  "file": 7,
  "roots": [1],
  "objects": [
    {
      "class": 1,
      "type": "Foo",
      "fields": [
        {"name": "name", "value": "bar"},
        {"name": "target", "pointer": {"kind": "internal", "class": 2}},
        {"name": "icon", "pointer": {"kind": "external", "file": 8, "file_class": 1}}
      ]
    },
    {
      "class": 2,
      "type": "Baz",
      "fields": [{"name": "x", "value": 1}]
    }
  ]
}`
	external := `{
  "file": 8,
  "objects": [
    {
      "class": 1,
      "type": "Texture",
      "fields": [{"name": "path", "value": "t.png"}]
    }
  ]
}`
	for name, data := range map[string]string{"7.json": pkg, "8.json": external} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestExecute(t *testing.T) {
	r := testRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		StoreDir: writeStore(t),
		File:     7,
		Fields:   []string{"Foo.name", "Baz.x", "Texture.path"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	doc := string(result.Document)
	if !strings.Contains(doc, `"name": "bar"`) {
		t.Errorf("document missing scalar field:\n%s", doc)
	}
	if !strings.Contains(doc, `"x": 1`) {
		t.Errorf("document missing internal target:\n%s", doc)
	}
	if !strings.Contains(doc, `"path": "t.png"`) {
		t.Errorf("document missing resolved external target:\n%s", doc)
	}
	if len(result.Unmatched) != 0 {
		t.Errorf("Unmatched = %v, want empty", result.Unmatched)
	}
	if result.Stats.Objects != 3 {
		t.Errorf("Objects = %d, want 3", result.Stats.Objects)
	}
	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if string(result.Artifacts[FormatJSON]) != doc {
		t.Error("json artifact should be the document")
	}
}

func TestExecuteDOTFormat(t *testing.T) {
	r := testRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		StoreDir: writeStore(t),
		File:     7,
		Fields:   []string{"Foo.name", "Baz.x"},
		Formats:  []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, "digraph refs") {
		t.Errorf("dot artifact missing header:\n%s", dot)
	}
	if !strings.Contains(dot, `label="target"`) {
		t.Errorf("dot artifact missing traversal edge:\n%s", dot)
	}
	// The external Texture was never expanded (not interesting) so it must
	// not appear in the reference graph.
	if strings.Contains(dot, "Texture") {
		t.Errorf("uninteresting target leaked into trace:\n%s", dot)
	}
}

func TestExecuteReportsUnmatched(t *testing.T) {
	r := testRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		StoreDir: writeStore(t),
		File:     7,
		Fields:   []string{"Foo.name", "Gone.field"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0] != "Gone.field" {
		t.Errorf("Unmatched = %v, want [Gone.field]", result.Unmatched)
	}
}

func TestExecuteRootOverride(t *testing.T) {
	r := testRunner(nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		StoreDir: writeStore(t),
		File:     7,
		Root:     2,
		Fields:   []string{"Baz.x"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(string(result.Document), `"x": 1`) {
		t.Errorf("document should start at Baz:\n%s", result.Document)
	}
	if strings.Contains(string(result.Document), "bar") {
		t.Errorf("Foo should not appear when dumping from Baz:\n%s", result.Document)
	}

	_, err = r.Execute(context.Background(), Options{
		StoreDir: writeStore(t),
		File:     7,
		Root:     42,
		Fields:   []string{"Baz.x"},
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestExecutePackageCacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(c)
	defer r.Close()

	opts := Options{
		StoreDir: writeStore(t),
		File:     7,
		Fields:   []string{"Foo.name"},
	}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.PackageHit {
		t.Error("first run should miss the package cache")
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !second.CacheInfo.PackageHit {
		t.Error("second run should hit the package cache")
	}

	// Refresh bypasses the cache.
	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if third.CacheInfo.PackageHit {
		t.Error("refresh run should reload from the store")
	}
}

func TestExecuteProfileFile(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.toml")
	if err := os.WriteFile(profile, []byte("fields = [\"Baz.x\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := testRunner(nil)
	defer r.Close()

	// Inline fields and the profile file are merged.
	result, err := r.Execute(context.Background(), Options{
		StoreDir:    writeStore(t),
		File:        7,
		Fields:      []string{"Foo.name"},
		ProfilePath: profile,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	doc := string(result.Document)
	if !strings.Contains(doc, `"name": "bar"`) || !strings.Contains(doc, `"x": 1`) {
		t.Errorf("merged profile should include both entries:\n%s", doc)
	}
}

func TestExecuteMissingFile(t *testing.T) {
	r := testRunner(nil)
	defer r.Close()

	_, err := r.Execute(context.Background(), Options{
		StoreDir: writeStore(t),
		File:     99,
		Fields:   []string{"Foo.name"},
	})
	if !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("error = %v, want ASSET_NOT_FOUND", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing file", Options{StoreDir: "/tmp", Fields: []string{"A.b"}}},
		{"missing store", Options{File: 1, Fields: []string{"A.b"}}},
		{"both stores", Options{File: 1, StoreDir: "/tmp", MongoURI: "mongodb://x", MongoDatabase: "d", MongoCollection: "c", Fields: []string{"A.b"}}},
		{"mongo without collection", Options{File: 1, MongoURI: "mongodb://x", Fields: []string{"A.b"}}},
		{"missing fields", Options{File: 1, StoreDir: "/tmp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}

	opts := Options{File: 1, StoreDir: "/tmp", Fields: []string{"A.b"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth default = %d, want %d", opts.MaxDepth, DefaultMaxDepth)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats default = %v, want [json]", opts.Formats)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{FormatJSON, FormatDOT, FormatSVG} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("png"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}
