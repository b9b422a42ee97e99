package object

import "fmt"

// PointerKind tags the three shapes a pointer field can take.
type PointerKind int

const (
	// PointerNull is a null/missing reference.
	PointerNull PointerKind = iota

	// PointerInternal references a node already in the current graph.
	PointerInternal

	// PointerExternal references an object in another asset file, identified
	// by (FileID, ClassID) and resolvable only through an asset store.
	PointerExternal
)

// String returns the kind's name for diagnostics.
func (k PointerKind) String() string {
	switch k {
	case PointerNull:
		return "null"
	case PointerInternal:
		return "internal"
	case PointerExternal:
		return "external"
	default:
		return fmt.Sprintf("PointerKind(%d)", int(k))
	}
}

// Pointer is a tagged reference to another node. Exactly one shape is
// meaningful per kind: Target for internal pointers, (FileID, ClassID) for
// external ones, nothing for null.
type Pointer struct {
	Kind    PointerKind
	Target  Node  // internal pointers only; may be nil
	FileID  int64 // external pointers only
	ClassID int64 // external pointers only
}

// Null returns a null pointer.
func Null() Pointer {
	return Pointer{Kind: PointerNull}
}

// Internal returns a pointer to a node in the current graph.
func Internal(target Node) Pointer {
	return Pointer{Kind: PointerInternal, Target: target}
}

// External returns a pointer into another asset file.
func External(fileID, classID int64) Pointer {
	return Pointer{Kind: PointerExternal, FileID: fileID, ClassID: classID}
}
