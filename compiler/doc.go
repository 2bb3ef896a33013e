// Package compiler folds a route tree into an OpenAPI v3.0 Document.
//
// Compile is a structural fold carrying a qualifier stack: Seq pushes its
// qualifier for the duration of its subtree, Alt folds both branches
// against independent copies of the stack and merges the results, and
// each Leaf materializes an Operation by applying the stacked qualifiers
// outermost first.
//
//	doc, err := compiler.New(openapi.Info{Title: "Users", Version: "1.0.0"}).
//	    Compile(api)
//
// # Inferred responses
//
// Each endpoint receives mechanically derived error responses alongside
// its declared success response: a 400 naming every required decodable
// parameter (query, header, body) and a 404 naming every path capture.
// Declaring a response for the same status code on the leaf replaces the
// inferred one.
//
// # Merge policy
//
// Two endpoints with the same identity (normalized path template plus
// method) are merge candidates, not errors. Their response maps union
// with the later declaration winning a colliding status code; tags and
// security requirements union preserving declaration order. Parameter
// declarations must agree on name, location, required flag and schema —
// a mismatch fails compilation with a *ConflictError, never a silent
// pick. Overrides (not errors) are reported through the logger passed to
// WithLogger.
package compiler
