package routetree

import (
	"fmt"
	"strings"
)

// Tree is an immutable description of an API as nested combinators.
// A tree is one of Seq (qualifier prepended to a subtree), Alt (ordered
// union of two subtrees) or Leaf (a single endpoint awaiting qualifiers).
type Tree interface {
	isTree()
}

// Seq prepends a qualifier to every endpoint reachable in Sub.
type Seq struct {
	Qualifier Qualifier
	Sub       Tree
}

// Alt unions the endpoint sets of both operands, Left before Right.
type Alt struct {
	Left  Tree
	Right Tree
}

// Leaf is a single endpoint template: an HTTP method plus its success
// response, awaiting path and parameter qualifiers from enclosing Seq
// nodes.
type Leaf struct {
	Method string

	// Status is the declared success status code; zero means 200.
	Status int

	// ContentType defaults to application/json when Body is non-nil.
	ContentType string

	// Body is the response payload prototype; nil means no content.
	Body any

	// ResponseDescription overrides the status-text description of the
	// success response.
	ResponseDescription string

	// OperationID names the operation in the compiled document.
	OperationID string

	// Extra lists explicitly declared additional responses. A declared
	// status code overrides any mechanically inferred response with the
	// same code.
	Extra []ExtraResponse
}

// ExtraResponse is an explicitly declared non-success response on a leaf.
type ExtraResponse struct {
	Status      int
	ContentType string
	Body        any
	Description string
}

func (*Seq) isTree()  {}
func (*Alt) isTree()  {}
func (*Leaf) isTree() {}

// Endpoint returns a leaf for the given method, success status and
// response body prototype. Pass status 0 for the default 200; pass a nil
// body for a response without content.
func Endpoint(method string, status int, body any) *Leaf {
	return &Leaf{Method: method, Status: status, Body: body}
}

// As sets the success response content type (default application/json).
func (l *Leaf) As(contentType string) *Leaf {
	l.ContentType = contentType
	return l
}

// Describe sets the success response description, overriding the
// HTTP status text.
func (l *Leaf) Describe(text string) *Leaf {
	l.ResponseDescription = text
	return l
}

// Named sets the operation id.
func (l *Leaf) Named(id string) *Leaf {
	l.OperationID = id
	return l
}

// Also declares an additional response on the leaf.
func (l *Leaf) Also(status int, body any, description string) *Leaf {
	l.Extra = append(l.Extra, ExtraResponse{
		Status:      status,
		ContentType: "application/json",
		Body:        body,
		Description: description,
	})
	return l
}

// Equal reports whether two leaves are structurally identical: same
// method, status, content type, body type and declared extra responses.
func (l *Leaf) Equal(other *Leaf) bool {
	if l.Method != other.Method || l.Status != other.Status ||
		l.ContentType != other.ContentType ||
		PrototypeType(l.Body) != PrototypeType(other.Body) ||
		len(l.Extra) != len(other.Extra) {
		return false
	}
	for i := range l.Extra {
		a, b := l.Extra[i], other.Extra[i]
		if a.Status != b.Status || a.ContentType != b.ContentType ||
			a.Description != b.Description ||
			PrototypeType(a.Body) != PrototypeType(b.Body) {
			return false
		}
	}
	return true
}

// Under wraps sub in Seq nodes, outermost qualifier first:
//
//	Under(leaf, Static("users"), Capture("id", int64(0)))
//
// describes /users/{id} with the static segment applied first.
func Under(sub Tree, qualifiers ...Qualifier) Tree {
	for i := len(qualifiers) - 1; i >= 0; i-- {
		sub = &Seq{Qualifier: qualifiers[i], Sub: sub}
	}
	return sub
}

// OneOf unions the given subtrees in declaration order, right-nested:
// OneOf(a, b, c) is Alt(a, Alt(b, c)).
func OneOf(trees ...Tree) Tree {
	if len(trees) == 0 {
		return nil
	}
	t := trees[len(trees)-1]
	for i := len(trees) - 2; i >= 0; i-- {
		t = &Alt{Left: trees[i], Right: t}
	}
	return t
}

// Walk visits every leaf in left-to-right declaration order, passing the
// qualifier stack accumulated from enclosing Seq nodes, outermost first.
// Qualifier stacking is strictly LIFO: sibling Alt branches never observe
// each other's qualifiers. Walk stops at the first error.
func Walk(t Tree, fn func(stack []Qualifier, leaf *Leaf) error) error {
	return walk(t, nil, fn)
}

func walk(t Tree, stack []Qualifier, fn func([]Qualifier, *Leaf) error) error {
	switch n := t.(type) {
	case nil:
		return nil
	case *Seq:
		// The full slice expression forces append to copy, so the two
		// branches of an enclosing Alt cannot share a backing array.
		return walk(n.Sub, append(stack[:len(stack):len(stack)], n.Qualifier), fn)
	case *Alt:
		if err := walk(n.Left, stack, fn); err != nil {
			return err
		}
		return walk(n.Right, stack, fn)
	case *Leaf:
		return fn(stack, n)
	}
	return fmt.Errorf("routetree: unknown tree node %T", t)
}

// Path derives the display path template from a qualifier stack:
// "/users/{id}" for Static("users") then Capture("id", ...). A stack
// with no path segments yields "/".
func Path(stack []Qualifier) string {
	var b strings.Builder
	for _, q := range stack {
		switch seg := q.(type) {
		case StaticSegment:
			b.WriteByte('/')
			b.WriteString(seg.Literal)
		case CaptureSegment:
			b.WriteString("/{")
			b.WriteString(seg.Name)
			b.WriteByte('}')
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// PathKey derives the path identity key from a qualifier stack. Capture
// names are erased ("/users/{}"), so two templates differing only in
// capture naming share an identity.
func PathKey(stack []Qualifier) string {
	var b strings.Builder
	for _, q := range stack {
		switch seg := q.(type) {
		case StaticSegment:
			b.WriteByte('/')
			b.WriteString(seg.Literal)
		case CaptureSegment:
			b.WriteString("/{}")
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// KeyForTemplate converts a display path template to its identity key by
// erasing capture names.
func KeyForTemplate(template string) string {
	var b strings.Builder
	inCapture := false
	for i := 0; i < len(template); i++ {
		switch c := template[i]; {
		case c == '{':
			inCapture = true
			b.WriteString("{}")
		case c == '}':
			inCapture = false
		case !inCapture:
			b.WriteByte(c)
		}
	}
	return b.String()
}
