// Package openapi provides the OpenAPI v3.0 object model and a
// reflection-based schema registry used by the route tree compiler.
//
// The package targets the OpenAPI Specification v3.0.3. Field names,
// nesting and array-vs-object distinctions follow the specification's
// object model exactly, since downstream consumers (UI renderers, code
// generators) depend on the structural shape of the serialized document.
//
// See: https://spec.openapis.org/oas/v3.0.3
//
// # Schema Registry
//
// Registry converts Go types to Schema Objects and deduplicates named
// struct types by reflect.Type identity into component schemas:
//
//	reg := openapi.NewRegistry()
//	s := reg.SchemaFor(User{})        // -> {"$ref": "#/components/schemas/User"}
//	defs := reg.Schemas()             // -> {"User": {...}}
//
// Parameter-bound types use ParamSchemaFor, which always inlines:
//
//	reg.ParamSchemaFor(int64(0))      // -> {"type": "integer", ...}
//
// Integer types receive the exact bounds of their bit width; an int64
// schema carries minimum -9223372036854775808 and maximum
// 9223372036854775807. The Number type stores such bounds as literal
// text so they serialize exactly in both JSON and YAML.
//
// # Struct Tags
//
// Use the "openapi" struct tag to enrich generated schemas:
//
//	type CreateUserInput struct {
//	    Name  string `json:"name" openapi:"description=User name,minLength=1,maxLength=100"`
//	    Email string `json:"email" openapi:"format=email"`
//	    Age   int    `json:"age,omitempty" openapi:"minimum=0,maximum=150"`
//	    Role  string `json:"role" openapi:"enum=admin|user|guest"`
//	}
//
// # Serialization
//
// Document marshals to JSON with encoding/json and to YAML with
// gopkg.in/yaml.v3; the YAML path bridges through the JSON field names:
//
//	data, _ := json.MarshalIndent(doc, "", "  ")
//	data, _ = yaml.Marshal(doc)
package openapi
