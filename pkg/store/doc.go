// Package store loads asset packages and resolves external pointers.
//
// A package is the unit of storage: one file ID mapping to a set of objects,
// each addressable by class ID. Two backends are provided, a directory of
// JSON package files for local use and a MongoDB collection for the hosted
// service. The [Resolver] sits in front of a backend and adds caching,
// per-run memoization, and the resolution semantics the dump writer expects:
// a missing file is a hard error, a missing class inside an existing file
// resolves to nothing.
package store
