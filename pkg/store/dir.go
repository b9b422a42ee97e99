package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwolter/assetdump/pkg/errors"
)

// PackageLoader fetches raw package bytes by file ID.
type PackageLoader interface {
	// LoadPackage returns the package bytes for a file ID. A missing file is
	// an error with code ASSET_NOT_FOUND.
	LoadPackage(ctx context.Context, fileID int64) ([]byte, error)

	// Source identifies the backend for cache key namespacing.
	Source() string
}

// DirStore loads packages from a directory of <fileID>.json files. This is
// the CLI's default backend.
type DirStore struct {
	dir string
}

// NewDirStore creates a directory-backed store.
func NewDirStore(dir string) (*DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "asset store %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "asset store %s is not a directory", dir)
	}
	return &DirStore{dir: dir}, nil
}

// LoadPackage reads <dir>/<fileID>.json.
func (s *DirStore) LoadPackage(ctx context.Context, fileID int64) ([]byte, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%d.json", fileID))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeAssetNotFound, "no package for file %d in %s", fileID, s.dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read package %d", fileID)
	}
	return data, nil
}

// Source identifies this store in cache keys.
func (s *DirStore) Source() string { return "dir:" + s.dir }

// Ensure DirStore implements PackageLoader.
var _ PackageLoader = (*DirStore)(nil)
