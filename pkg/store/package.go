package store

import (
	"encoding/json"
	"sort"

	"github.com/mwolter/assetdump/pkg/errors"
	"github.com/mwolter/assetdump/pkg/object"
)

// Pointer kinds on the wire.
const (
	KindNull     = "null"
	KindInternal = "internal"
	KindExternal = "external"
)

// PackageDoc is the canonical serialization format for an asset package.
// Used for file storage, MongoDB documents, and API payloads.
type PackageDoc struct {
	File    int64       `json:"file" bson:"file"`
	Roots   []int64     `json:"roots,omitempty" bson:"roots,omitempty"`
	Objects []ObjectDoc `json:"objects" bson:"objects"`
}

// ObjectDoc is one object in a package, addressed by class ID.
type ObjectDoc struct {
	Class  int64      `json:"class" bson:"class"`
	Type   string     `json:"type" bson:"type"`
	Fields []FieldDoc `json:"fields" bson:"fields"`
}

// FieldDoc carries exactly one of Value, Pointer, or Enum.
type FieldDoc struct {
	Name string `json:"name" bson:"name"`
	// Type is the declaring type; empty means the owning object's type.
	Type    string      `json:"type,omitempty" bson:"type,omitempty"`
	Value   any         `json:"value,omitempty" bson:"value,omitempty"`
	Pointer *PointerDoc `json:"pointer,omitempty" bson:"pointer,omitempty"`
	Enum    *EnumDoc    `json:"enum,omitempty" bson:"enum,omitempty"`
}

// PointerDoc is the wire form of a tagged pointer.
type PointerDoc struct {
	Kind string `json:"kind" bson:"kind"`
	// Class is the in-package target for internal pointers.
	Class int64 `json:"class,omitempty" bson:"class,omitempty"`
	// File and FileClass address the target of external pointers.
	File      int64 `json:"file,omitempty" bson:"file,omitempty"`
	FileClass int64 `json:"file_class,omitempty" bson:"file_class,omitempty"`
}

// EnumDoc is the wire form of an enum value: the symbolic name plus the
// numeric encoding it round-trips from.
type EnumDoc struct {
	Name  string `json:"name" bson:"name"`
	Value int64  `json:"value" bson:"value"`
}

// Package is a decoded asset package: a file's objects indexed by class ID,
// with internal pointers already linked.
type Package struct {
	File    int64
	roots   []int64
	byClass map[int64]*object.Object
}

// Object returns the object with the given class ID.
func (p *Package) Object(classID int64) (object.Node, bool) {
	o, ok := p.byClass[classID]
	if !ok {
		return nil, false
	}
	return o, true
}

// Root returns the package's first root object. Packages without an explicit
// root list fall back to the first declared object.
func (p *Package) Root() (object.Node, bool) {
	if len(p.roots) == 0 {
		return nil, false
	}
	return p.Object(p.roots[0])
}

// Roots returns all declared root objects, in declaration order.
func (p *Package) Roots() []object.Node {
	out := make([]object.Node, 0, len(p.roots))
	for _, id := range p.roots {
		if o, ok := p.Object(id); ok {
			out = append(out, o)
		}
	}
	return out
}

// Len returns the number of objects in the package.
func (p *Package) Len() int { return len(p.byClass) }

// Classes returns the class IDs of all objects in the package, in ascending
// order.
func (p *Package) Classes() []int64 {
	out := make([]int64, 0, len(p.byClass))
	for id := range p.byClass {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DecodePackage parses package bytes and links internal pointers. Linking is
// two-pass so objects may reference classes declared later in the file.
func DecodePackage(data []byte) (*Package, error) {
	var doc PackageDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPackage, err, "parse package")
	}

	pkg := &Package{
		File:    doc.File,
		byClass: make(map[int64]*object.Object, len(doc.Objects)),
	}

	// First pass: create every object so internal pointers can link forward.
	for _, od := range doc.Objects {
		if od.Type == "" {
			return nil, errors.New(errors.ErrCodeInvalidPackage,
				"object class %d has no type", od.Class)
		}
		if _, dup := pkg.byClass[od.Class]; dup {
			return nil, errors.New(errors.ErrCodeInvalidPackage,
				"duplicate class %d", od.Class)
		}
		pkg.byClass[od.Class] = object.New(od.Type)
	}

	// Second pass: populate fields.
	for _, od := range doc.Objects {
		obj := pkg.byClass[od.Class]
		for _, fd := range od.Fields {
			val, err := pkg.decodeField(od, fd)
			if err != nil {
				return nil, err
			}
			if fd.Type != "" && fd.Type != od.Type {
				obj.SetAs(fd.Type, fd.Name, val)
			} else {
				obj.Set(fd.Name, val)
			}
		}
	}

	// Default root: first declared object.
	pkg.roots = doc.Roots
	if len(pkg.roots) == 0 && len(doc.Objects) > 0 {
		pkg.roots = []int64{doc.Objects[0].Class}
	}
	for _, id := range pkg.roots {
		if _, ok := pkg.byClass[id]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidPackage,
				"root class %d not declared", id)
		}
	}

	return pkg, nil
}

func (p *Package) decodeField(od ObjectDoc, fd FieldDoc) (any, error) {
	switch {
	case fd.Pointer != nil:
		return p.decodePointer(od, fd)
	case fd.Enum != nil:
		return object.Enum{Name: fd.Enum.Name, Value: fd.Enum.Value}, nil
	default:
		return fd.Value, nil
	}
}

func (p *Package) decodePointer(od ObjectDoc, fd FieldDoc) (any, error) {
	pd := fd.Pointer
	switch pd.Kind {
	case KindNull:
		return object.Null(), nil
	case KindInternal:
		target, ok := p.byClass[pd.Class]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPackage,
				"field %s.%s points at undeclared class %d", od.Type, fd.Name, pd.Class)
		}
		return object.Internal(target), nil
	case KindExternal:
		return object.External(pd.File, pd.FileClass), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidPackage,
			"field %s.%s has unknown pointer kind %q", od.Type, fd.Name, pd.Kind)
	}
}

// EncodePackage is the inverse of DecodePackage, used by tests and tooling
// that synthesize packages.
func EncodePackage(doc PackageDoc) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPackage, err, "encode package")
	}
	return data, nil
}

// ScalarField builds a plain value field.
func ScalarField(name string, value any) FieldDoc {
	return FieldDoc{Name: name, Value: value}
}

// EnumField builds an enum field.
func EnumField(name, symbol string, value int64) FieldDoc {
	return FieldDoc{Name: name, Enum: &EnumDoc{Name: symbol, Value: value}}
}

// NullField builds a null pointer field.
func NullField(name string) FieldDoc {
	return FieldDoc{Name: name, Pointer: &PointerDoc{Kind: KindNull}}
}

// InternalField builds an internal pointer field.
func InternalField(name string, class int64) FieldDoc {
	return FieldDoc{Name: name, Pointer: &PointerDoc{Kind: KindInternal, Class: class}}
}

// ExternalField builds an external pointer field.
func ExternalField(name string, file, fileClass int64) FieldDoc {
	return FieldDoc{Name: name, Pointer: &PointerDoc{Kind: KindExternal, File: file, FileClass: fileClass}}
}
