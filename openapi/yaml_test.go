package openapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func yamlDoc() *Document {
	return &Document{
		OpenAPI: "3.0.0",
		Info:    Info{Title: "Test API", Version: "1.0.0"},
		Paths: map[string]*PathItem{
			"/users": {
				Get: &Operation{
					OperationID: "listUsers",
					Responses: map[string]*Response{
						"200": {Description: "OK"},
					},
				},
			},
		},
		Components: &Components{
			Schemas: map[string]*Schema{
				"ID": {
					Type:    "integer",
					Minimum: Number("-9223372036854775808"),
					Maximum: Number("9223372036854775807"),
				},
			},
		},
	}
}

func TestDocumentMarshalYAML(t *testing.T) {
	data, err := yaml.Marshal(yamlDoc())
	require.NoError(t, err)
	out := string(data)

	t.Run("keys keep their JSON spelling", func(t *testing.T) {
		assert.Contains(t, out, "operationId: listUsers")
		assert.NotContains(t, out, "operationid")
	})

	t.Run("int64 bounds survive the bridge", func(t *testing.T) {
		assert.Contains(t, out, "maximum: 9223372036854775807")
		assert.Contains(t, out, "minimum: -9223372036854775808")
	})

	t.Run("round-trips as generic YAML", func(t *testing.T) {
		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		assert.Equal(t, "3.0.0", decoded["openapi"])
	})
}

func TestDocumentJSONSerialization(t *testing.T) {
	data, err := yamlDoc().JSON()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "{\n"))
	assert.Contains(t, string(data), `"operationId": "listUsers"`)
}
