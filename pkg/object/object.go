package object

// Node is an object in the asset graph. It exposes its dynamic type name and
// an ordered sequence of fields.
//
// Implementations must be identity-comparable (use pointer types): the
// reference tracker keys on Node values directly.
type Node interface {
	// TypeName returns the dynamic type name of the node, e.g. "Baz".
	// Interesting-class filtering matches against this name.
	TypeName() string

	// Fields returns the node's fields in declaration order.
	Fields() []Field
}

// Field is one (declaringType, name, value) triple of a node.
//
// DeclaringType may differ from the node's dynamic type for inherited fields;
// filter profiles match on the declaring type.
type Field struct {
	DeclaringType string
	Name          string
	Value         any
}

// Enum is a symbolic enumerated value. Documents always carry the symbolic
// name, never the numeric encoding, so output stays stable across engine
// versions that renumber enums.
type Enum struct {
	Name  string
	Value int64
}

// String returns the symbolic name.
func (e Enum) String() string { return e.Name }

// Object is a generic Node backed by an ordered field list. Asset stores
// decode package documents into Objects; tests build fixture graphs from
// them.
type Object struct {
	typeName string
	fields   []Field
}

// New creates an empty object with the given dynamic type name.
func New(typeName string) *Object {
	return &Object{typeName: typeName}
}

// TypeName returns the object's dynamic type name.
func (o *Object) TypeName() string { return o.typeName }

// Fields returns the object's fields in the order they were added.
func (o *Object) Fields() []Field { return o.fields }

// Set appends a field declared by the object's own type.
func (o *Object) Set(name string, value any) *Object {
	return o.SetAs(o.typeName, name, value)
}

// SetAs appends a field with an explicit declaring type. Use this for fields
// inherited from a parent class.
func (o *Object) SetAs(declaringType, name string, value any) *Object {
	o.fields = append(o.fields, Field{
		DeclaringType: declaringType,
		Name:          name,
		Value:         value,
	})
	return o
}

// Ensure Object implements Node.
var _ Node = (*Object)(nil)
