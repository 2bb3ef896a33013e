// Package selector focuses on a subset of a compiled document's
// operations, identified structurally by a pattern route tree.
//
// A pattern is an ordinary route tree that must be embeddable in the
// target tree: every union branch it picks must exist in the target in
// the same relative position, with identical qualifiers along the way.
// Select resolves the pattern's leaves to (path, method) identities in
// pattern declaration order; ApplyOver then updates exactly those
// operations, copy-on-write, leaving everything else shared:
//
//	sub := routetree.Under(
//	    routetree.Endpoint("GET", 200, User{}),
//	    routetree.Static("users"), routetree.Capture("id", int64(0)),
//	)
//	refs, err := selector.Select(sub, api)
//	if err != nil {
//	    // pattern was not embeddable; the document is untouched
//	}
//	doc = selector.ApplyOver(doc, refs, selector.Chain(
//	    selector.AddTags("users"),
//	    selector.SetSummary("Fetch a single user"),
//	))
//
// When the compiled document has merged several tree positions into one
// operation, a selection naming that identity more than once still
// applies its transform exactly once.
package selector
