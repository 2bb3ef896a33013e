package openapi

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Exampler can be implemented by types to provide an example value for
// the generated schema. The returned value is set as the "example" field
// on the registry entry.
//
//	func (u User) OpenAPIExample() any {
//	    return User{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "Alice"}
//	}
type Exampler interface {
	OpenAPIExample() any
}

// Registry derives OpenAPI 3.0 schemas from Go types and deduplicates
// named struct types by their reflect.Type identity. Two structurally
// identical types declared in different places remain distinct entries;
// the same type reached twice yields a single entry. Entries are keyed by
// a stable schema name and referenced via "#/components/schemas/<name>".
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object
type Registry struct {
	schemas   map[string]*Schema
	visited   map[reflect.Type]bool
	typeNames map[reflect.Type]string // type -> chosen schema name
	nameTypes map[string]reflect.Type // schema name -> type that claimed it
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:   make(map[string]*Schema),
		visited:   make(map[reflect.Type]bool),
		typeNames: make(map[reflect.Type]string),
		nameTypes: make(map[string]reflect.Type),
	}
}

// Schemas returns the collected named schemas, keyed by schema name.
func (r *Registry) Schemas() map[string]*Schema {
	return r.schemas
}

// Definition returns the named schema previously registered under name,
// or nil.
func (r *Registry) Definition(name string) *Schema {
	return r.schemas[name]
}

// NameFor returns the registry name assigned to the given type, if the
// type has been registered.
func (r *Registry) NameFor(t reflect.Type) (string, bool) {
	name, ok := r.typeNames[t]
	return name, ok
}

// SchemaFor produces a schema for the given prototype value. Named struct
// types are stored in the registry and referenced via $ref; primitives,
// slices, maps and anonymous structs are inlined.
func (r *Registry) SchemaFor(v any) *Schema {
	if v == nil {
		return nil
	}
	return r.SchemaForType(reflect.TypeOf(v))
}

// SchemaForType is SchemaFor for an already-reflected type.
func (r *Registry) SchemaForType(t reflect.Type) *Schema {
	return r.generate(t, false)
}

// ParamSchemaFor produces an inline schema for a path, query or header
// bound prototype. Parameter schemas never reference the registry: the
// registry holds payload types only.
func (r *Registry) ParamSchemaFor(v any) *Schema {
	if v == nil {
		return nil
	}
	return r.generate(reflect.TypeOf(v), true)
}

func (r *Registry) generate(t reflect.Type, inline bool) *Schema {
	// Unwrap pointer and mark nullable (3.0 keyword).
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	// Named struct types become registry entries, except time.Time.
	if !inline && t.Kind() == reflect.Struct && t != timeType {
		if name := r.register(t); name != "" {
			ref := &Schema{Ref: "#/components/schemas/" + name}
			if nullable {
				// A bare $ref cannot carry sibling keywords in 3.0,
				// so nullable refs are wrapped in a one-element allOf.
				return &Schema{AllOf: []*Schema{ref}, Nullable: true}
			}
			return ref
		}
	}

	schema := r.inlineSchema(t, inline)
	if nullable && schema != nil {
		schema.Nullable = true
	}
	return schema
}

// register stores the schema for a named struct type under a unique name
// and returns that name. Unnamed types return "".
func (r *Registry) register(t reflect.Type) string {
	name := r.schemaName(t)
	if name == "" {
		return ""
	}
	if !r.visited[t] {
		r.visited[t] = true
		schema := r.structSchema(t, false)
		if ex, ok := reflect.New(t).Interface().(Exampler); ok {
			schema.Example = ex.OpenAPIExample()
		}
		r.schemas[name] = schema
	}
	return name
}

var timeType = reflect.TypeOf(time.Time{})

// inlineSchema maps Go primitive and composite types to 3.0 schemas.
// Integer kinds receive the exact bounds of their bit width, matching
// what consumers of the document rely on for wire compatibility.
func (r *Registry) inlineSchema(t reflect.Type, inline bool) *Schema {
	if t == timeType {
		return &Schema{Type: "string", Format: "date-time"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int64:
		return intSchema(math.MinInt64, math.MaxInt64)
	case reflect.Int8:
		return intSchema(math.MinInt8, math.MaxInt8)
	case reflect.Int16:
		return intSchema(math.MinInt16, math.MaxInt16)
	case reflect.Int32:
		return intSchema(math.MinInt32, math.MaxInt32)

	case reflect.Uint, reflect.Uint64:
		return uintSchema(math.MaxUint64)
	case reflect.Uint8:
		return uintSchema(math.MaxUint8)
	case reflect.Uint16:
		return uintSchema(math.MaxUint16)
	case reflect.Uint32:
		return uintSchema(math.MaxUint32)

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: "string", Format: "byte"}
		}
		return &Schema{Type: "array", Items: r.generate(t.Elem(), inline)}

	case reflect.Array:
		n := t.Len()
		return &Schema{
			Type:     "array",
			Items:    r.generate(t.Elem(), inline),
			MinItems: &n,
			MaxItems: &n,
		}

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: "object"}
		}
		return &Schema{
			Type:                 "object",
			AdditionalProperties: r.generate(t.Elem(), inline),
		}

	case reflect.Struct:
		return r.structSchema(t, inline)

	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

func intSchema(minVal, maxVal int64) *Schema {
	return &Schema{
		Type:    "integer",
		Minimum: Int64Number(minVal),
		Maximum: Int64Number(maxVal),
	}
}

func uintSchema(maxVal uint64) *Schema {
	return &Schema{
		Type:    "integer",
		Minimum: Int64Number(0),
		Maximum: Uint64Number(maxVal),
	}
}

// structSchema builds an object schema from struct fields.
func (r *Registry) structSchema(t reflect.Type, inline bool) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}

	r.collectFields(t, schema, inline, false)

	if len(schema.Properties) == 0 {
		schema.Properties = nil
	}

	return schema
}

// collectFields recursively collects struct fields into the schema. When
// allOptional is true, all fields are treated as optional regardless of
// their json tags; this is used for pointer-embedded structs where the
// whole embedded value can be nil.
func (r *Registry) collectFields(t reflect.Type, schema *Schema, inline, allOptional bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		// Embedded structs inline their fields unless the field carries
		// an explicit json tag name, matching encoding/json.
		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					r.collectFields(ft, schema, inline, allOptional || isPtr)
					continue
				}
			}
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fieldSchema := r.generate(field.Type, inline)
		if fieldSchema == nil {
			continue
		}

		applyOpenAPITag(fieldSchema, field.Tag.Get("openapi"))

		// The encoding/json ",string" option encodes numeric and boolean
		// values as JSON strings.
		if opts.stringEncode && fieldSchema.Ref == "" && len(fieldSchema.AllOf) == 0 {
			fieldSchema.Type = "string"
			fieldSchema.Minimum = ""
			fieldSchema.Maximum = ""
		}

		schema.Properties[name] = fieldSchema

		if !opts.omitempty && !allOptional {
			schema.Required = append(schema.Required, name)
		}
	}
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool // encoding/json ",string" option
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

// applyOpenAPITag parses the `openapi` struct tag and applies constraints
// to the schema. Tag keys map to Schema Object keywords.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
func applyOpenAPITag(schema *Schema, tag string) {
	if tag == "" {
		return
	}

	for _, part := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if hasValue {
			value = strings.TrimSpace(value)
		}

		switch key {
		case "description":
			schema.Description = value
		case "example":
			schema.Example = parseTagValue(schema, value)
		case "format":
			schema.Format = value
		case "title":
			schema.Title = value
		case "minimum":
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Minimum = Number(value)
			}
		case "maximum":
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Maximum = Number(value)
			}
		case "exclusiveMinimum":
			schema.ExclusiveMinimum = true
		case "exclusiveMaximum":
			schema.ExclusiveMaximum = true
		case "multipleOf":
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				schema.MultipleOf = Number(value)
			}
		case "minLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinLength = &v
			}
		case "maxLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxLength = &v
			}
		case "pattern":
			schema.Pattern = value
		case "enum":
			values := strings.Split(value, "|")
			schema.Enum = make([]any, len(values))
			for i, v := range values {
				schema.Enum[i] = parseTagValue(schema, v)
			}
		case "minItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinItems = &v
			}
		case "maxItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxItems = &v
			}
		case "uniqueItems":
			schema.UniqueItems = true
		case "minProperties":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinProperties = &v
			}
		case "maxProperties":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxProperties = &v
			}
		case "deprecated":
			schema.Deprecated = true
		case "readOnly":
			schema.ReadOnly = true
		case "writeOnly":
			schema.WriteOnly = true
		}
	}
}

// parseTagValue converts a string tag value to the Go type matching the
// schema's declared type.
func parseTagValue(schema *Schema, value string) any {
	switch schema.Type {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns a unique registry name for the given type. When two
// types from different packages share a simple name, the second gets a
// package-prefixed name; a numeric suffix resolves any remaining clash.
// Unnamed types return "".
func (r *Registry) schemaName(t reflect.Type) string {
	simple := sanitizeSchemaName(t.Name())
	if simple == "" || t.PkgPath() == "" {
		return ""
	}

	if name, ok := r.typeNames[t]; ok {
		return name
	}

	name := simple
	if existing, ok := r.nameTypes[name]; ok && existing != t {
		name = pkgPrefix(t.PkgPath()) + simple
		if existing, ok := r.nameTypes[name]; ok && existing != t {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := r.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	r.typeNames[t] = name
	r.nameTypes[name] = t
	return name
}

// pkgPrefix extracts the last segment of a package path and capitalizes
// it for use as a schema name prefix (e.g. "net/http" -> "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if len(pkgPath) == 0 {
		return ""
	}
	pkgPath = strings.ReplaceAll(pkgPath, "-", "_")
	pkgPath = strings.ReplaceAll(pkgPath, ".", "_")
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// sanitizeSchemaName cleans up Go type names for use as registry keys.
// Generic names like "Page[User]" become "PageUser"; "Page[[]User]"
// becomes "PageUserList". Package paths in type parameters are stripped.
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")

	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	result := base + inner
	if isList {
		result += "List"
	}

	return result
}
