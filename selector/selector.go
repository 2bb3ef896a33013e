package selector

import (
	"fmt"

	"github.com/georgefst/routedoc/openapi"
	"github.com/georgefst/routedoc/routetree"
)

// OpRef identifies a single operation in a compiled document by its
// path template and HTTP method. Identity ignores capture names: two
// refs whose templates differ only in capture naming denote the same
// operation.
type OpRef struct {
	Path   string
	Method string
}

func (r OpRef) identity() [2]string {
	return [2]string{routetree.KeyForTemplate(r.Path), r.Method}
}

// EmbedError reports a pattern that is not structurally embeddable in
// its target tree. It is raised before any document is touched; there is
// no partial or best-effort match.
type EmbedError struct {
	Detail string
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("selector: pattern not embeddable: %s", e.Detail)
}

// Embeds checks that pattern is structurally embeddable in target:
// every Alt branch chosen by the pattern corresponds to an existing Alt
// branch of the target in the same relative position, every Seq
// qualifier is identical to the corresponding target qualifier, and
// every pattern leaf is structurally identical to a target leaf.
func Embeds(pattern, target routetree.Tree) error {
	if embeds(pattern, target) {
		return nil
	}
	return &EmbedError{Detail: describe(pattern)}
}

func embeds(pattern, target routetree.Tree) bool {
	// A pattern union embeds only when both halves embed.
	if p, ok := pattern.(*routetree.Alt); ok {
		return embeds(p.Left, target) && embeds(p.Right, target)
	}
	switch t := target.(type) {
	case *routetree.Alt:
		// A non-union pattern picks one branch; left is tried first so
		// relative positions are preserved.
		return embeds(pattern, t.Left) || embeds(pattern, t.Right)
	case *routetree.Seq:
		p, ok := pattern.(*routetree.Seq)
		return ok && p.Qualifier.Equal(t.Qualifier) && embeds(p.Sub, t.Sub)
	case *routetree.Leaf:
		p, ok := pattern.(*routetree.Leaf)
		return ok && p.Equal(t)
	}
	return false
}

func describe(pattern routetree.Tree) string {
	var first string
	_ = routetree.Walk(pattern, func(stack []routetree.Qualifier, leaf *routetree.Leaf) error {
		if first == "" {
			first = leaf.Method + " " + routetree.Path(stack)
		}
		return nil
	})
	if first == "" {
		return "empty pattern"
	}
	return fmt.Sprintf("no target position matches the pattern containing %s", first)
}

// Select computes the exact ordered set of operation identities denoted
// by pattern within tree, in left-to-right declaration order of the
// pattern. Identities that several pattern leaves collapse to (because
// the compiled document merges same-identity endpoints) appear once. A
// non-embeddable pattern returns an *EmbedError and no selection.
func Select(pattern, tree routetree.Tree) ([]OpRef, error) {
	if err := Embeds(pattern, tree); err != nil {
		return nil, err
	}

	var refs []OpRef
	seen := make(map[[2]string]bool)
	_ = routetree.Walk(pattern, func(stack []routetree.Qualifier, leaf *routetree.Leaf) error {
		ref := OpRef{Path: routetree.Path(stack), Method: leaf.Method}
		if id := ref.identity(); !seen[id] {
			seen[id] = true
			refs = append(refs, ref)
		}
		return nil
	})
	return refs, nil
}

// ApplyOver returns a new document in which transform has been applied
// to every operation in selection, exactly once per identity. All other
// entries are shared with the input document, which is never mutated.
func ApplyOver(doc *openapi.Document, selection []OpRef, transform Transform) *openapi.Document {
	out := *doc
	out.Paths = make(map[string]*openapi.PathItem, len(doc.Paths))
	for template, item := range doc.Paths {
		out.Paths[template] = item
	}

	applied := make(map[[2]string]bool)
	for _, ref := range selection {
		id := ref.identity()
		if applied[id] {
			continue
		}
		for template, item := range out.Paths {
			if routetree.KeyForTemplate(template) != id[0] {
				continue
			}
			op := item.Operation(ref.Method)
			if op == nil {
				break
			}
			updated := transform(*op.Clone())
			clone := *item
			clone.SetOperation(ref.Method, &updated)
			out.Paths[template] = &clone
			applied[id] = true
			break
		}
	}

	return &out
}

// Annotate selects the operations denoted by pattern and applies
// transform over doc in one step.
func Annotate(doc *openapi.Document, pattern, tree routetree.Tree, transform Transform) (*openapi.Document, error) {
	selection, err := Select(pattern, tree)
	if err != nil {
		return nil, err
	}
	return ApplyOver(doc, selection, transform), nil
}
