package store

import (
	"context"

	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/object"
)

type assetKey struct {
	file  int64
	class int64
}

// StaticResolver resolves external pointers from an in-memory table. Useful
// for tests and for embedding pre-built graphs without a backing store.
type StaticResolver struct {
	objects map[assetKey]object.Node
	files   map[int64]struct{}
}

// NewStaticResolver creates an empty static resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		objects: make(map[assetKey]object.Node),
		files:   make(map[int64]struct{}),
	}
}

// Add registers a node under a (file, class) address. Registering any class
// of a file marks the whole file as present.
func (r *StaticResolver) Add(fileID, classID int64, n object.Node) *StaticResolver {
	r.objects[assetKey{fileID, classID}] = n
	r.files[fileID] = struct{}{}
	return r
}

// AddFile marks a file as present without registering any classes.
func (r *StaticResolver) AddFile(fileID int64) *StaticResolver {
	r.files[fileID] = struct{}{}
	return r
}

// Resolve looks up the (file, class) address. Unknown files are
// ASSET_NOT_FOUND errors; known files with unknown classes resolve to nothing.
func (r *StaticResolver) Resolve(ctx context.Context, fileID, classID int64) (object.Node, error) {
	if _, ok := r.files[fileID]; !ok {
		return nil, errors.New(errors.ErrCodeAssetNotFound, "no package for file %d", fileID)
	}
	n, ok := r.objects[assetKey{fileID, classID}]
	if !ok {
		return nil, nil
	}
	return n, nil
}
