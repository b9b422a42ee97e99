package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/mwolter/assetdump/pkg/cache"
	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/object"
)

func samplePackage(t *testing.T) []byte {
	t.Helper()
	data, err := EncodePackage(PackageDoc{
		File:  7,
		Roots: []int64{1},
		Objects: []ObjectDoc{
			{
				Class: 1,
				Type:  "Foo",
				Fields: []FieldDoc{
					ScalarField("name", "bar"),
					InternalField("target", 2),
					NullField("next"),
					ExternalField("icon", 8, 3),
					EnumField("mode", "Active", 2),
				},
			},
			{
				Class: 2,
				Type:  "Baz",
				Fields: []FieldDoc{
					ScalarField("x", 1),
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("EncodePackage: %v", err)
	}
	return data
}

func TestDecodePackage(t *testing.T) {
	pkg, err := DecodePackage(samplePackage(t))
	if err != nil {
		t.Fatalf("DecodePackage: %v", err)
	}
	if pkg.File != 7 {
		t.Errorf("File = %d, want 7", pkg.File)
	}
	if pkg.Len() != 2 {
		t.Errorf("Len = %d, want 2", pkg.Len())
	}

	root, ok := pkg.Root()
	if !ok {
		t.Fatal("package should have a root")
	}
	if root.TypeName() != "Foo" {
		t.Errorf("root type = %s, want Foo", root.TypeName())
	}

	fields := root.Fields()
	if len(fields) != 5 {
		t.Fatalf("root has %d fields, want 5", len(fields))
	}

	// Internal pointer links to the decoded Baz object by identity.
	target := fields[1].Value.(object.Pointer)
	if target.Kind != object.PointerInternal {
		t.Fatalf("target kind = %s, want internal", target.Kind)
	}
	baz, _ := pkg.Object(2)
	if target.Target != baz {
		t.Error("internal pointer should link to the package's own Baz instance")
	}

	if next := fields[2].Value.(object.Pointer); next.Kind != object.PointerNull {
		t.Errorf("next kind = %s, want null", next.Kind)
	}
	icon := fields[3].Value.(object.Pointer)
	if icon.Kind != object.PointerExternal || icon.FileID != 8 || icon.ClassID != 3 {
		t.Errorf("icon pointer = %+v", icon)
	}
	if mode := fields[4].Value.(object.Enum); mode.Name != "Active" || mode.Value != 2 {
		t.Errorf("mode enum = %+v", mode)
	}
}

func TestDecodePackageDefaultsRootToFirstObject(t *testing.T) {
	data, err := EncodePackage(PackageDoc{
		File: 1,
		Objects: []ObjectDoc{
			{Class: 5, Type: "Foo"},
			{Class: 6, Type: "Baz"},
		},
	})
	if err != nil {
		t.Fatalf("EncodePackage: %v", err)
	}
	pkg, err := DecodePackage(data)
	if err != nil {
		t.Fatalf("DecodePackage: %v", err)
	}
	root, ok := pkg.Root()
	if !ok || root.TypeName() != "Foo" {
		t.Errorf("default root should be the first declared object, got %v", root)
	}
}

func TestDecodePackageRejectsBrokenInput(t *testing.T) {
	tests := []struct {
		name string
		doc  PackageDoc
	}{
		{"duplicate class", PackageDoc{Objects: []ObjectDoc{
			{Class: 1, Type: "Foo"}, {Class: 1, Type: "Baz"},
		}}},
		{"missing type", PackageDoc{Objects: []ObjectDoc{{Class: 1}}}},
		{"dangling internal pointer", PackageDoc{Objects: []ObjectDoc{
			{Class: 1, Type: "Foo", Fields: []FieldDoc{InternalField("target", 9)}},
		}}},
		{"unknown pointer kind", PackageDoc{Objects: []ObjectDoc{
			{Class: 1, Type: "Foo", Fields: []FieldDoc{
				{Name: "p", Pointer: &PointerDoc{Kind: "weak"}},
			}},
		}}},
		{"undeclared root", PackageDoc{Roots: []int64{4}, Objects: []ObjectDoc{
			{Class: 1, Type: "Foo"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePackage(tt.doc)
			if err != nil {
				t.Fatalf("EncodePackage: %v", err)
			}
			if _, err := DecodePackage(data); !errors.Is(err, errors.ErrCodeInvalidPackage) {
				t.Errorf("error = %v, want INVALID_PACKAGE", err)
			}
		})
	}

	if _, err := DecodePackage([]byte("not json")); !errors.Is(err, errors.ErrCodeInvalidPackage) {
		t.Errorf("error = %v, want INVALID_PACKAGE", err)
	}
}

func TestDirStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "7.json"), samplePackage(t), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewDirStore(dir)
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}

	data, err := s.LoadPackage(context.Background(), 7)
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty package bytes")
	}

	_, err = s.LoadPackage(context.Background(), 8)
	if !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("error = %v, want ASSET_NOT_FOUND", err)
	}
}

func TestNewDirStoreRejectsMissingDir(t *testing.T) {
	if _, err := NewDirStore("/does/not/exist"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error = %v, want INVALID_PATH", err)
	}
}

// countingLoader counts backend loads to verify memoization and caching.
type countingLoader struct {
	data  map[int64][]byte
	loads int
}

func (l *countingLoader) LoadPackage(ctx context.Context, fileID int64) ([]byte, error) {
	l.loads++
	data, ok := l.data[fileID]
	if !ok {
		return nil, errors.New(errors.ErrCodeAssetNotFound, "no package for file %d", fileID)
	}
	return data, nil
}

func (l *countingLoader) Source() string { return "test" }

func TestResolver(t *testing.T) {
	loader := &countingLoader{data: map[int64][]byte{7: samplePackage(t)}}
	r := NewResolver(loader, WithLogger(log.New(io.Discard)))
	ctx := context.Background()

	target, err := r.Resolve(ctx, 7, 2)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if target.TypeName() != "Baz" {
		t.Errorf("target type = %s, want Baz", target.TypeName())
	}

	// Missing class in an existing file resolves to nothing.
	target, err = r.Resolve(ctx, 7, 42)
	if err != nil {
		t.Fatalf("Resolve missing class: %v", err)
	}
	if target != nil {
		t.Error("missing class should resolve to nil")
	}

	// Missing file is a hard error.
	if _, err := r.Resolve(ctx, 9, 1); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("error = %v, want ASSET_NOT_FOUND", err)
	}

	// Same file resolved repeatedly loads once.
	if _, err := r.Resolve(ctx, 7, 1); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loader.loads != 2 { // file 7 once, file 9 once
		t.Errorf("loads = %d, want 2", loader.loads)
	}
}

func TestResolverUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	loader := &countingLoader{data: map[int64][]byte{7: samplePackage(t)}}
	ctx := context.Background()

	// First resolver populates the cache.
	r1 := NewResolver(loader, WithCache(c, nil), WithLogger(log.New(io.Discard)))
	if _, err := r1.Load(ctx, 7); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loader.loads != 1 {
		t.Fatalf("loads = %d, want 1", loader.loads)
	}

	// Second resolver hits the cache, not the backend.
	r2 := NewResolver(loader, WithCache(c, nil), WithLogger(log.New(io.Discard)))
	if _, err := r2.Load(ctx, 7); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loader.loads != 1 {
		t.Errorf("loads = %d after cached load, want 1", loader.loads)
	}
}

func TestStaticResolver(t *testing.T) {
	baz := object.New("Baz").Set("x", 1)
	r := NewStaticResolver().Add(7, 2, baz).AddFile(8)
	ctx := context.Background()

	got, err := r.Resolve(ctx, 7, 2)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != baz {
		t.Error("Resolve should return the registered node")
	}

	// Known file, unknown class
	got, err = r.Resolve(ctx, 8, 1)
	if err != nil || got != nil {
		t.Errorf("Resolve(8, 1) = (%v, %v), want (nil, nil)", got, err)
	}

	// Unknown file
	if _, err := r.Resolve(ctx, 9, 1); !errors.Is(err, errors.ErrCodeAssetNotFound) {
		t.Errorf("error = %v, want ASSET_NOT_FOUND", err)
	}
}

func TestRootsOrder(t *testing.T) {
	doc := PackageDoc{File: 1, Roots: []int64{3, 1}}
	for _, class := range []int64{1, 2, 3} {
		doc.Objects = append(doc.Objects, ObjectDoc{
			Class: class,
			Type:  "Foo",
			Fields: []FieldDoc{
				ScalarField("id", strconv.FormatInt(class, 10)),
			},
		})
	}
	data, err := EncodePackage(doc)
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := DecodePackage(data)
	if err != nil {
		t.Fatal(err)
	}

	roots := pkg.Roots()
	if len(roots) != 2 {
		t.Fatalf("Roots() = %d entries, want 2", len(roots))
	}
	if roots[0].Fields()[0].Value != "3" || roots[1].Fields()[0].Value != "1" {
		t.Error("Roots() should preserve declaration order")
	}
}

func TestClasses(t *testing.T) {
	doc := PackageDoc{File: 1}
	for _, class := range []int64{9, 2, 5} {
		doc.Objects = append(doc.Objects, ObjectDoc{
			Class:  class,
			Type:   "Foo",
			Fields: []FieldDoc{ScalarField("x", 1)},
		})
	}
	data, err := EncodePackage(doc)
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := DecodePackage(data)
	if err != nil {
		t.Fatal(err)
	}

	got := pkg.Classes()
	want := []int64{2, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("Classes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Classes() = %v, want %v", got, want)
		}
	}
}
