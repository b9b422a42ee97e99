// Package object defines the in-memory asset object model that assetdump
// traverses: nodes with named, typed fields, tagged pointers between nodes,
// and symbolic enum values.
//
// Nodes are visited by identity, never by structural equality. Two nodes with
// identical field content are still two distinct nodes. All Node
// implementations must therefore be comparable by identity; in practice this
// means pointer receivers, as [Object] does.
//
// Field enumeration is a capability of the node itself rather than runtime
// reflection. This keeps the traversal testable with hand-built graphs and
// lets asset stores materialize nodes from package documents without any
// concrete Go struct per asset class.
package object
