// Package dump walks asset object graphs and writes filtered, human-readable
// JSON documents.
//
// The writer drives a single depth-first pass over the graph. Two pure
// decision services are consulted along the way: the field profile
// ([filter.Profile]) decides which scalar fields are emitted, and the
// reference tracker ([refs.Tracker]) assigns per-write tokens to every
// expanded pointer target. External pointers are resolved through an injected
// resolver function; resolution failures at the file level abort the whole
// write so a half-written document is never handed to downstream tooling.
//
// # Filtering
//
// Scalar fields are emitted only when their "Type.field" key is in the
// profile, and exclusion is structural: nothing under an excluded field is
// visited. Pointer fields are instead gated by the target's dynamic type —
// a pointer may reference any subtype, and only targets whose type appears
// as a prefix in the profile are expanded. Null pointers always emit a JSON
// null.
//
// # Cycles and shared references
//
// By default every internal pointer target is expanded inline, every time,
// matching the historical format. Shared nodes are therefore duplicated in
// the output, and a true cycle among internal pointers runs into the
// recursion depth guard and fails with MAX_DEPTH_EXCEEDED. The
// [WithReferenceTokens] option switches revisited nodes to a lightweight
// {"$ref": token} marker instead, which both deduplicates shared subtrees and
// makes cyclic graphs writable.
//
// # Usage
//
//	profile, _ := filter.New([]string{"Foo.name", "Baz.x"})
//	w := dump.NewWriter(profile,
//	    dump.WithResolver(store.Resolve),
//	    dump.WithLogger(logger))
//	res, err := w.WriteFile(ctx, "foo.json", root)
package dump
