// Package routetree describes an HTTP API as an immutable tree of
// combinators: Seq prepends a qualifier (path segment, parameter, body,
// security requirement, tag or summary) to everything beneath it, Alt
// unions two subtrees in declaration order, and Leaf is a single endpoint
// awaiting qualifiers.
//
// Trees are built once and never mutated. The compiler, selector and
// conformance packages all consume them read-only through Walk.
//
//	api := routetree.Under(
//	    routetree.OneOf(
//	        routetree.Endpoint("GET", 200, []User{}),
//	        routetree.Under(
//	            routetree.Endpoint("POST", 201, UserID{}),
//	            routetree.Body(User{}),
//	        ),
//	        routetree.Under(
//	            routetree.Endpoint("GET", 200, User{}),
//	            routetree.Capture("id", int64(0)),
//	        ),
//	    ),
//	    routetree.Static("users"),
//	    routetree.Tagged("users"),
//	)
//
// describes GET /users, POST /users and GET /users/{id}, all tagged
// "users".
//
// An endpoint's identity is its normalized path template (capture names
// erased) plus its method: PathKey and KeyForTemplate derive identity
// keys, Path derives the display template.
package routetree
