package compiler

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgefst/routedoc/openapi"
	"github.com/georgefst/routedoc/routetree"
)

type User struct {
	Name string `json:"name"`
	Age  int64  `json:"age"`
}

type UserID struct {
	ID int64 `json:"id"`
}

var testInfo = openapi.Info{Title: "Test API", Version: "1.0.0"}

// The canonical two-endpoint API: list users and create one, both
// rooted at "/".
func userAPI() routetree.Tree {
	return routetree.OneOf(
		routetree.Endpoint("GET", 0, []User{}),
		routetree.Under(
			routetree.Endpoint("POST", 0, UserID{}),
			routetree.Body(User{}),
		),
	)
}

func TestCompileUserAPI(t *testing.T) {
	doc, err := Compile(userAPI(), testInfo)
	require.NoError(t, err)

	t.Run("document header", func(t *testing.T) {
		assert.Equal(t, "3.0.0", doc.OpenAPI)
		assert.Equal(t, testInfo, doc.Info)
	})

	t.Run("both operations live at the root path", func(t *testing.T) {
		require.Len(t, doc.Paths, 1)
		item := doc.Paths["/"]
		require.NotNil(t, item)
		assert.NotNil(t, item.Get)
		assert.NotNil(t, item.Post)
	})

	t.Run("registry holds exactly the reachable types", func(t *testing.T) {
		require.NotNil(t, doc.Components)
		assert.Len(t, doc.Components.Schemas, 2)
		assert.Contains(t, doc.Components.Schemas, "User")
		assert.Contains(t, doc.Components.Schemas, "UserID")
	})

	t.Run("list response is an array of refs", func(t *testing.T) {
		resp := doc.Paths["/"].Get.Responses["200"]
		require.NotNil(t, resp)
		assert.Equal(t, "OK", resp.Description)
		schema := resp.Content["application/json"].Schema
		assert.Equal(t, "array", schema.Type)
		assert.Equal(t, "#/components/schemas/User", schema.Items.Ref)
	})

	t.Run("create accepts a user body and infers a 400", func(t *testing.T) {
		post := doc.Paths["/"].Post
		require.NotNil(t, post.RequestBody)
		assert.True(t, post.RequestBody.Required)
		assert.Equal(t, "#/components/schemas/User",
			post.RequestBody.Content["application/json"].Schema.Ref)

		require.Contains(t, post.Responses, "400")
		assert.Equal(t, "Invalid `body`", post.Responses["400"].Description)
		assert.NotContains(t, post.Responses, "404")
	})

	t.Run("list has no inferred error responses", func(t *testing.T) {
		get := doc.Paths["/"].Get
		assert.NotContains(t, get.Responses, "400")
		assert.NotContains(t, get.Responses, "404")
	})
}

func TestCompilePathsAndParameters(t *testing.T) {
	t.Run("capture becomes a required path parameter with a 404", func(t *testing.T) {
		tree := routetree.Under(
			routetree.Endpoint("GET", 0, User{}),
			routetree.Static("users"), routetree.Capture("id", int64(0)),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)

		op := doc.Paths["/users/{id}"].Get
		require.Len(t, op.Parameters, 1)
		p := op.Parameters[0]
		assert.Equal(t, "id", p.Name)
		assert.Equal(t, "path", p.In)
		assert.True(t, p.Required)
		assert.Equal(t, "integer", p.Schema.Type)

		require.Contains(t, op.Responses, "404")
		assert.Equal(t, "`id` not found", op.Responses["404"].Description)
	})

	t.Run("inferred descriptions chain with or", func(t *testing.T) {
		tree := routetree.Under(
			routetree.Endpoint("POST", 0, nil),
			routetree.Static("search"),
			routetree.Query("q", "", true),
			routetree.Header("X-Trace", "", true),
			routetree.Body(User{}),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)

		op := doc.Paths["/search"].Post
		assert.Equal(t, "Invalid `q` or `X-Trace` or `body`",
			op.Responses["400"].Description)
	})

	t.Run("optional parameters do not feed the 400", func(t *testing.T) {
		tree := routetree.Under(
			routetree.Endpoint("GET", 0, nil),
			routetree.Static("items"), routetree.Query("page", 0, false),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)
		assert.NotContains(t, doc.Paths["/items"].Get.Responses, "400")
	})

	t.Run("declared response overrides the inferred one", func(t *testing.T) {
		tree := routetree.Under(
			routetree.Endpoint("GET", 0, User{}).Also(404, nil, "No such user"),
			routetree.Static("users"), routetree.Capture("id", int64(0)),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)

		assert.Equal(t, "No such user",
			doc.Paths["/users/{id}"].Get.Responses["404"].Description)
	})

	t.Run("capture names erase for identity, first template displays", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Under(routetree.Endpoint("GET", 0, User{}),
				routetree.Static("users"), routetree.Capture("id", int64(0))),
			routetree.Under(routetree.Endpoint("DELETE", 204, nil),
				routetree.Static("users"), routetree.Capture("userId", int64(0))),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)

		require.Len(t, doc.Paths, 1)
		item := doc.Paths["/users/{id}"]
		require.NotNil(t, item)
		assert.NotNil(t, item.Get)
		assert.NotNil(t, item.Delete)
		assert.Equal(t, "No Content", item.Delete.Responses["204"].Description)
	})
}

func TestCompileMetadataQualifiers(t *testing.T) {
	tree := routetree.Under(
		routetree.Endpoint("GET", 0, []User{}).Named("listUsers"),
		routetree.Tagged("users"),
		routetree.Summary("List users"),
		routetree.Description("Returns every known user."),
		routetree.Static("users"),
	)
	doc, err := New(testInfo, WithTag(openapi.Tag{
		Name:        "users",
		Description: "User management",
	})).Compile(tree)
	require.NoError(t, err)

	op := doc.Paths["/users"].Get

	t.Run("operation metadata", func(t *testing.T) {
		assert.Equal(t, []string{"users"}, op.Tags)
		assert.Equal(t, "List users", op.Summary)
		assert.Equal(t, "Returns every known user.", op.Description)
		assert.Equal(t, "listUsers", op.OperationID)
	})

	t.Run("user-defined tag metadata wins", func(t *testing.T) {
		require.Len(t, doc.Tags, 1)
		assert.Equal(t, "User management", doc.Tags[0].Description)
	})

	t.Run("innermost summary wins", func(t *testing.T) {
		nested := routetree.Under(
			routetree.Under(routetree.Endpoint("GET", 0, nil), routetree.Summary("inner")),
			routetree.Summary("outer"),
		)
		doc, err := Compile(nested, testInfo)
		require.NoError(t, err)
		assert.Equal(t, "inner", doc.Paths["/"].Get.Summary)
	})
}

func TestCompileSecurity(t *testing.T) {
	bearer := &openapi.SecurityScheme{Type: "http", Scheme: "bearer"}

	t.Run("registered scheme is attached", func(t *testing.T) {
		tree := routetree.Under(
			routetree.Endpoint("GET", 0, nil),
			routetree.Static("private"), routetree.Secure("bearer", "read"),
		)
		doc, err := New(testInfo, WithSecurityScheme("bearer", bearer)).Compile(tree)
		require.NoError(t, err)

		op := doc.Paths["/private"].Get
		require.Len(t, op.Security, 1)
		assert.Equal(t, []string{"read"}, op.Security[0]["bearer"])
		assert.Same(t, bearer, doc.Components.SecuritySchemes["bearer"])
	})

	t.Run("scopeless requirement serializes as empty list", func(t *testing.T) {
		tree := routetree.Under(routetree.Endpoint("GET", 0, nil), routetree.Secure("bearer"))
		doc, err := New(testInfo, WithSecurityScheme("bearer", bearer)).Compile(tree)
		require.NoError(t, err)
		assert.Equal(t, []string{}, doc.Paths["/"].Get.Security[0]["bearer"])
	})

	t.Run("unknown scheme fails compilation", func(t *testing.T) {
		tree := routetree.Under(routetree.Endpoint("GET", 0, nil), routetree.Secure("missing"))
		_, err := Compile(tree, testInfo)
		assert.ErrorIs(t, err, ErrUnknownSecurityScheme)
	})
}

func TestCompileUnknownMethod(t *testing.T) {
	t.Run("non-canonical method fails instead of vanishing", func(t *testing.T) {
		tree := routetree.Under(
			routetree.Endpoint("PURGE", 204, nil),
			routetree.Static("cache"),
		)
		doc, err := Compile(tree, testInfo)

		require.ErrorIs(t, err, ErrUnknownMethod)
		assert.Contains(t, err.Error(), `"PURGE"`)
		assert.Contains(t, err.Error(), "/cache")
		assert.Nil(t, doc)
	})

	t.Run("lowercase method fails", func(t *testing.T) {
		tree := routetree.Under(routetree.Endpoint("get", 0, nil), routetree.Static("users"))
		_, err := Compile(tree, testInfo)
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("one bad leaf fails the whole compile", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Under(routetree.Endpoint("GET", 0, []User{}), routetree.Static("users")),
			routetree.Under(routetree.Endpoint("PURGE", 204, nil), routetree.Static("cache")),
		)
		doc, err := Compile(tree, testInfo)
		assert.ErrorIs(t, err, ErrUnknownMethod)
		assert.Nil(t, doc)
	})

}

func TestCompileMerge(t *testing.T) {
	t.Run("response maps union", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Endpoint("GET", 200, User{}),
			routetree.Endpoint("GET", 200, User{}).Also(410, nil, "Gone for good"),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)

		op := doc.Paths["/"].Get
		assert.Contains(t, op.Responses, "200")
		assert.Equal(t, "Gone for good", op.Responses["410"].Description)
	})

	t.Run("later declaration wins a colliding status", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Endpoint("GET", 200, User{}).Describe("first"),
			routetree.Endpoint("GET", 200, User{}).Describe("second"),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)
		assert.Equal(t, "second", doc.Paths["/"].Get.Responses["200"].Description)
	})

	t.Run("override is reported through the logger", func(t *testing.T) {
		logger, hook := logtest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)

		tree := routetree.OneOf(
			routetree.Endpoint("GET", 200, User{}),
			routetree.Endpoint("GET", 200, User{}),
		)
		_, err := New(testInfo, WithLogger(logger)).Compile(tree)
		require.NoError(t, err)

		require.NotEmpty(t, hook.Entries)
		entry := hook.LastEntry()
		assert.Equal(t, "response override: later declaration wins", entry.Message)
		assert.Equal(t, "200", entry.Data["status"])
	})

	t.Run("tags and summary merge", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Under(routetree.Endpoint("GET", 0, nil), routetree.Tagged("a")),
			routetree.Under(routetree.Endpoint("GET", 0, nil),
				routetree.Tagged("a", "b"), routetree.Summary("from the right")),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)

		op := doc.Paths["/"].Get
		assert.Equal(t, []string{"a", "b"}, op.Tags)
		assert.Equal(t, "from the right", op.Summary)
	})

	t.Run("alternation is associative", func(t *testing.T) {
		a := func() routetree.Tree {
			return routetree.Under(routetree.Endpoint("GET", 0, []User{}), routetree.Static("users"))
		}
		b := func() routetree.Tree {
			return routetree.Under(routetree.Endpoint("POST", 0, UserID{}), routetree.Static("users"))
		}
		c := func() routetree.Tree {
			return routetree.Under(routetree.Endpoint("GET", 0, nil), routetree.Static("health"))
		}

		left, err := Compile(routetree.OneOf(routetree.OneOf(a(), b()), c()), testInfo)
		require.NoError(t, err)
		right, err := Compile(routetree.OneOf(a(), routetree.OneOf(b(), c())), testInfo)
		require.NoError(t, err)

		assert.Equal(t, left, right)
	})
}

func TestCompileConflicts(t *testing.T) {
	t.Run("inconsistent parameter schemas", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Under(routetree.Endpoint("GET", 0, nil), routetree.Query("q", "", false)),
			routetree.Under(routetree.Endpoint("GET", 0, nil), routetree.Query("q", 0, false)),
		)
		_, err := Compile(tree, testInfo)

		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "/", conflict.Path)
		assert.Equal(t, "GET", conflict.Method)
	})

	t.Run("body on only one branch", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Under(routetree.Endpoint("POST", 0, nil), routetree.Body(User{})),
			routetree.Endpoint("POST", 0, nil),
		)
		_, err := Compile(tree, testInfo)

		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("structurally different bodies", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Under(routetree.Endpoint("POST", 0, nil), routetree.Body(User{})),
			routetree.Under(routetree.Endpoint("POST", 0, nil), routetree.Body(UserID{})),
		)
		_, err := Compile(tree, testInfo)

		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("two body qualifiers on one endpoint", func(t *testing.T) {
		tree := routetree.Under(
			routetree.Endpoint("POST", 0, nil),
			routetree.Body(User{}), routetree.Body(UserID{}),
		)
		_, err := Compile(tree, testInfo)

		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("agreeing parameters are not a conflict", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Under(routetree.Endpoint("GET", 200, User{}), routetree.Query("q", "", false)),
			routetree.Under(routetree.Endpoint("GET", 200, User{}).Also(410, nil, "Gone"),
				routetree.Query("q", "", false)),
		)
		doc, err := Compile(tree, testInfo)
		require.NoError(t, err)
		assert.Len(t, doc.Paths["/"].Get.Parameters, 1)
	})
}

func TestCompileDocumentOptions(t *testing.T) {
	tree := routetree.Endpoint("GET", 0, nil)
	doc, err := New(testInfo,
		WithServers(openapi.Server{URL: "https://api.example.com", Description: "Production"}),
		WithExternalDocs("https://docs.example.com", "Reference"),
	).Compile(tree)
	require.NoError(t, err)

	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://api.example.com", doc.Servers[0].URL)
	require.NotNil(t, doc.ExternalDocs)
	assert.Equal(t, "https://docs.example.com", doc.ExternalDocs.URL)
	assert.Nil(t, doc.Components)
}
