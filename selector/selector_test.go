package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgefst/routedoc/compiler"
	"github.com/georgefst/routedoc/openapi"
	"github.com/georgefst/routedoc/routetree"
)

type Pet struct {
	Name string `json:"name"`
}

type PetID struct {
	ID int64 `json:"id"`
}

var testInfo = openapi.Info{Title: "Pets", Version: "1.0.0"}

func listLeaf() *routetree.Leaf { return routetree.Endpoint("GET", 0, []Pet{}) }
func createLeaf() *routetree.Leaf {
	return routetree.Endpoint("POST", 0, PetID{})
}

// petAPI is /pets (GET, POST) plus /pets/{id} (GET).
func petAPI() routetree.Tree {
	return routetree.Under(
		routetree.OneOf(
			listLeaf(),
			routetree.Under(createLeaf(), routetree.Body(Pet{})),
			routetree.Under(routetree.Endpoint("GET", 0, Pet{}),
				routetree.Capture("id", int64(0))),
		),
		routetree.Static("pets"),
	)
}

func TestEmbeds(t *testing.T) {
	t.Run("whole tree embeds in itself", func(t *testing.T) {
		assert.NoError(t, Embeds(petAPI(), petAPI()))
	})

	t.Run("single branch embeds", func(t *testing.T) {
		pattern := routetree.Under(listLeaf(), routetree.Static("pets"))
		assert.NoError(t, Embeds(pattern, petAPI()))
	})

	t.Run("pattern union needs both halves", func(t *testing.T) {
		ok := routetree.Under(listLeaf(), routetree.Static("pets"))
		bad := routetree.Under(listLeaf(), routetree.Static("animals"))
		err := Embeds(routetree.OneOf(ok, bad), petAPI())

		var embedErr *EmbedError
		assert.ErrorAs(t, err, &embedErr)
	})

	t.Run("qualifier mismatch is not embeddable", func(t *testing.T) {
		pattern := routetree.Under(listLeaf(), routetree.Static("animals"))
		assert.Error(t, Embeds(pattern, petAPI()))
	})

	t.Run("leaf mismatch is not embeddable", func(t *testing.T) {
		pattern := routetree.Under(
			routetree.Endpoint("GET", 0, Pet{}), // wrong body type for the list
			routetree.Static("pets"),
		)
		assert.Error(t, Embeds(pattern, petAPI()))
	})

	t.Run("missing body qualifier is not embeddable", func(t *testing.T) {
		pattern := routetree.Under(createLeaf(), routetree.Static("pets"))
		assert.Error(t, Embeds(pattern, petAPI()))
	})
}

func TestSelect(t *testing.T) {
	t.Run("resolves refs in pattern order", func(t *testing.T) {
		pattern := routetree.Under(
			routetree.OneOf(
				routetree.Under(routetree.Endpoint("GET", 0, Pet{}),
					routetree.Capture("id", int64(0))),
				listLeaf(),
			),
			routetree.Static("pets"),
		)
		refs, err := Select(pattern, petAPI())
		require.NoError(t, err)

		assert.Equal(t, []OpRef{
			{Path: "/pets/{id}", Method: "GET"},
			{Path: "/pets", Method: "GET"},
		}, refs)
	})

	t.Run("non-embeddable pattern yields no selection", func(t *testing.T) {
		pattern := routetree.Under(listLeaf(), routetree.Static("animals"))
		refs, err := Select(pattern, petAPI())

		var embedErr *EmbedError
		require.ErrorAs(t, err, &embedErr)
		assert.Nil(t, refs)
	})

	t.Run("merged identities appear once", func(t *testing.T) {
		// Two tree positions with the same (path, method) identity: the
		// compiler merges them, so a selection naming both resolves to one.
		target := routetree.OneOf(
			routetree.Endpoint("GET", 200, Pet{}),
			routetree.Endpoint("GET", 200, Pet{}),
		)
		refs, err := Select(target, target)
		require.NoError(t, err)
		assert.Len(t, refs, 1)
	})
}

func TestApplyOver(t *testing.T) {
	compile := func(t *testing.T) *openapi.Document {
		doc, err := compiler.Compile(petAPI(), testInfo)
		require.NoError(t, err)
		return doc
	}

	t.Run("transforms exactly the selection", func(t *testing.T) {
		doc := compile(t)
		pattern := routetree.Under(listLeaf(), routetree.Static("pets"))
		refs, err := Select(pattern, petAPI())
		require.NoError(t, err)

		out := ApplyOver(doc, refs, Chain(
			AddTags("pets"),
			SetSummary("List pets"),
		))

		assert.Equal(t, []string{"pets"}, out.Paths["/pets"].Get.Tags)
		assert.Equal(t, "List pets", out.Paths["/pets"].Get.Summary)

		assert.Empty(t, out.Paths["/pets"].Post.Tags)
		assert.Empty(t, out.Paths["/pets/{id}"].Get.Tags)
	})

	t.Run("never mutates the source document", func(t *testing.T) {
		doc := compile(t)
		refs := []OpRef{{Path: "/pets", Method: "GET"}}

		_ = ApplyOver(doc, refs, Chain(
			SetSummary("changed"),
			Deprecate(),
			AddResponse(410, &openapi.Response{Description: "Gone"}),
		))

		op := doc.Paths["/pets"].Get
		assert.Empty(t, op.Summary)
		assert.False(t, op.Deprecated)
		assert.NotContains(t, op.Responses, "410")
	})

	t.Run("untouched entries are shared", func(t *testing.T) {
		doc := compile(t)
		refs := []OpRef{{Path: "/pets", Method: "GET"}}
		out := ApplyOver(doc, refs, SetSummary("changed"))

		assert.Same(t, doc.Paths["/pets/{id}"], out.Paths["/pets/{id}"])
		assert.NotSame(t, doc.Paths["/pets"], out.Paths["/pets"])
		assert.Same(t, doc.Paths["/pets"].Post, out.Paths["/pets"].Post)
	})

	t.Run("identity ignores capture names", func(t *testing.T) {
		doc := compile(t)
		refs := []OpRef{{Path: "/pets/{petId}", Method: "GET"}}
		out := ApplyOver(doc, refs, SetSummary("Fetch one pet"))

		assert.Equal(t, "Fetch one pet", out.Paths["/pets/{id}"].Get.Summary)
	})

	t.Run("duplicate refs apply once", func(t *testing.T) {
		doc := compile(t)
		refs := []OpRef{
			{Path: "/pets", Method: "GET"},
			{Path: "/pets", Method: "GET"},
		}
		out := ApplyOver(doc, refs, AddTags("pets"))
		assert.Equal(t, []string{"pets"}, out.Paths["/pets"].Get.Tags)
	})

	t.Run("SetSecurity with no arguments marks public", func(t *testing.T) {
		doc := compile(t)
		refs := []OpRef{{Path: "/pets", Method: "GET"}}
		out := ApplyOver(doc, refs, SetSecurity())

		assert.NotNil(t, out.Paths["/pets"].Get.Security)
		assert.Empty(t, out.Paths["/pets"].Get.Security)
	})
}

func TestAnnotate(t *testing.T) {
	doc, err := compiler.Compile(petAPI(), testInfo)
	require.NoError(t, err)

	t.Run("select and apply in one step", func(t *testing.T) {
		pattern := routetree.Under(listLeaf(), routetree.Static("pets"))
		out, annErr := Annotate(doc, pattern, petAPI(), SetOperationID("listPets"))
		require.NoError(t, annErr)
		assert.Equal(t, "listPets", out.Paths["/pets"].Get.OperationID)
	})

	t.Run("embed failure leaves the document untouched", func(t *testing.T) {
		pattern := routetree.Under(listLeaf(), routetree.Static("animals"))
		out, annErr := Annotate(doc, pattern, petAPI(), Deprecate())

		var embedErr *EmbedError
		require.ErrorAs(t, annErr, &embedErr)
		assert.Nil(t, out)
		assert.False(t, doc.Paths["/pets"].Get.Deprecated)
	})
}
