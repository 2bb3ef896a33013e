package conformance

import (
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/georgefst/routedoc/openapi"
)

// checker walks a decoded JSON value against a schema, resolving named
// references through the registry definitions.
type checker struct {
	defs     map[string]*openapi.Schema
	matcher  PatternMatcher
	patterns map[string]*regexp.Regexp
}

func newChecker(defs map[string]*openapi.Schema, matcher PatternMatcher) *checker {
	return &checker{
		defs:     defs,
		matcher:  matcher,
		patterns: make(map[string]*regexp.Regexp),
	}
}

func violation(path, constraint, format string, args ...any) *Violation {
	return &Violation{Path: path, Constraint: constraint, Detail: fmt.Sprintf(format, args...)}
}

func (c *checker) check(value any, schema *openapi.Schema, path string) *Violation {
	if schema == nil {
		return nil
	}

	if schema.Ref != "" {
		name := strings.TrimPrefix(schema.Ref, "#/components/schemas/")
		target, ok := c.defs[name]
		if !ok {
			return violation(path, "$ref", "dangling reference %s", schema.Ref)
		}
		if v := c.check(value, target, path); v != nil {
			return v
		}
		return nil
	}

	if value == nil {
		if schema.Nullable || emptySchema(schema) {
			return nil
		}
		return violation(path, "type", "null value for non-nullable %s schema", schemaKind(schema))
	}

	for _, sub := range schema.AllOf {
		if v := c.check(value, sub, path); v != nil {
			return v
		}
	}
	if len(schema.AnyOf) > 0 {
		if c.countMatches(value, schema.AnyOf, path) == 0 {
			return violation(path, "anyOf", "value matches none of the alternatives")
		}
	}
	if len(schema.OneOf) > 0 {
		if n := c.countMatches(value, schema.OneOf, path); n != 1 {
			return violation(path, "oneOf", "value matches %d alternatives, want exactly 1", n)
		}
	}
	if schema.Not != nil {
		if c.check(value, schema.Not, path) == nil {
			return violation(path, "not", "value matches the excluded schema")
		}
	}

	if len(schema.Enum) > 0 && !enumContains(schema.Enum, value) {
		return violation(path, "enum", "%v is not a member of the enum", value)
	}

	switch schema.Type {
	case "":
		return nil
	case "boolean":
		if _, ok := value.(bool); !ok {
			return c.typeViolation(path, "boolean", value)
		}
	case "integer":
		num, ok := value.(json.Number)
		if !ok {
			return c.typeViolation(path, "integer", value)
		}
		rat, ok := numberRat(num)
		if !ok || !rat.IsInt() {
			return violation(path, "type", "%s is not an integer", num)
		}
		return c.checkBounds(rat, schema, path)
	case "number":
		num, ok := value.(json.Number)
		if !ok {
			return c.typeViolation(path, "number", value)
		}
		rat, ok := numberRat(num)
		if !ok {
			return violation(path, "type", "%s is not a number", num)
		}
		return c.checkBounds(rat, schema, path)
	case "string":
		s, ok := value.(string)
		if !ok {
			return c.typeViolation(path, "string", value)
		}
		return c.checkString(s, schema, path)
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return c.typeViolation(path, "array", value)
		}
		return c.checkArray(arr, schema, path)
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return c.typeViolation(path, "object", value)
		}
		return c.checkObject(obj, schema, path)
	default:
		return violation(path, "type", "unknown schema type %q", schema.Type)
	}

	return nil
}

func (c *checker) typeViolation(path, want string, value any) *Violation {
	return violation(path, "type", "want %s, got %T", want, value)
}

func (c *checker) countMatches(value any, alternatives []*openapi.Schema, path string) int {
	n := 0
	for _, sub := range alternatives {
		if c.check(value, sub, path) == nil {
			n++
		}
	}
	return n
}

// checkBounds verifies minimum/maximum with their exclusive modifiers.
// Comparison is exact: the schema bound literal and the encoded number
// literal are both lifted to rationals, so an int64 at the edge of its
// bit width is not blurred by a float64 round-trip.
func (c *checker) checkBounds(rat *big.Rat, schema *openapi.Schema, path string) *Violation {
	if minRat, ok := schema.Minimum.Rat(); ok {
		cmp := rat.Cmp(minRat)
		if cmp < 0 || (cmp == 0 && schema.ExclusiveMinimum) {
			return violation(path, "minimum", "%s is below the minimum %s", rat.RatString(), schema.Minimum)
		}
	}
	if maxRat, ok := schema.Maximum.Rat(); ok {
		cmp := rat.Cmp(maxRat)
		if cmp > 0 || (cmp == 0 && schema.ExclusiveMaximum) {
			return violation(path, "maximum", "%s is above the maximum %s", rat.RatString(), schema.Maximum)
		}
	}
	if multiple, ok := schema.MultipleOf.Rat(); ok && multiple.Sign() != 0 {
		if !new(big.Rat).Quo(rat, multiple).IsInt() {
			return violation(path, "multipleOf", "%s is not a multiple of %s", rat.RatString(), schema.MultipleOf)
		}
	}
	return nil
}

func (c *checker) checkString(s string, schema *openapi.Schema, path string) *Violation {
	n := utf8.RuneCountInString(s)
	if schema.MinLength != nil && n < *schema.MinLength {
		return violation(path, "minLength", "length %d is below %d", n, *schema.MinLength)
	}
	if schema.MaxLength != nil && n > *schema.MaxLength {
		return violation(path, "maxLength", "length %d is above %d", n, *schema.MaxLength)
	}

	constrained := schema.Pattern != "" || schema.Format != ""
	if constrained && c.matcher != nil {
		// The type's registered matcher takes over the whole
		// pattern/format judgement for its strings.
		if !c.matcher(s) {
			return violation(path, "pattern", "%q rejected by the registered matcher", s)
		}
		return nil
	}

	if schema.Pattern != "" {
		re, ok := c.patterns[schema.Pattern]
		if !ok {
			var err error
			re, err = regexp.Compile(schema.Pattern)
			if err != nil {
				return violation(path, "pattern", "invalid pattern %q: %v", schema.Pattern, err)
			}
			c.patterns[schema.Pattern] = re
		}
		if !re.MatchString(s) {
			return violation(path, "pattern", "%q does not match %q", s, schema.Pattern)
		}
	}

	if schema.Format != "" {
		if err := checkFormat(schema.Format, s); err != nil {
			return violation(path, "format", "%q: %v", s, err)
		}
	}

	return nil
}

func (c *checker) checkArray(arr []any, schema *openapi.Schema, path string) *Violation {
	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		return violation(path, "minItems", "%d items, want at least %d", len(arr), *schema.MinItems)
	}
	if schema.MaxItems != nil && len(arr) > *schema.MaxItems {
		return violation(path, "maxItems", "%d items, want at most %d", len(arr), *schema.MaxItems)
	}
	if schema.UniqueItems {
		for i := range arr {
			for j := i + 1; j < len(arr); j++ {
				if reflect.DeepEqual(arr[i], arr[j]) {
					return violation(path, "uniqueItems", "items %d and %d are equal", i, j)
				}
			}
		}
	}
	for i, item := range arr {
		if v := c.check(item, schema.Items, path+"["+strconv.Itoa(i)+"]"); v != nil {
			return v
		}
	}
	return nil
}

func (c *checker) checkObject(obj map[string]any, schema *openapi.Schema, path string) *Violation {
	for _, name := range schema.Required {
		if _, ok := obj[name]; !ok {
			return violation(path, "required", "property %q is missing", name)
		}
	}
	if schema.MinProperties != nil && len(obj) < *schema.MinProperties {
		return violation(path, "minProperties", "%d properties, want at least %d", len(obj), *schema.MinProperties)
	}
	if schema.MaxProperties != nil && len(obj) > *schema.MaxProperties {
		return violation(path, "maxProperties", "%d properties, want at most %d", len(obj), *schema.MaxProperties)
	}
	for name, value := range obj {
		sub, declared := schema.Properties[name]
		switch {
		case declared:
			if v := c.check(value, sub, path+"."+name); v != nil {
				return v
			}
		case schema.AdditionalProperties != nil:
			if v := c.check(value, schema.AdditionalProperties, path+"."+name); v != nil {
				return v
			}
		}
	}
	return nil
}

func numberRat(n json.Number) (*big.Rat, bool) {
	return new(big.Rat).SetString(n.String())
}

// enumContains compares the decoded value against enum members supplied
// as Go values. Numbers compare numerically, everything else by
// canonical text.
func enumContains(enum []any, value any) bool {
	for _, member := range enum {
		if canonical(member) == canonical(value) {
			return true
		}
	}
	return false
}

func canonical(v any) string {
	switch val := v.(type) {
	case json.Number:
		if rat, ok := numberRat(val); ok {
			return "n:" + rat.RatString()
		}
		return "n:" + val.String()
	case int:
		return "n:" + strconv.Itoa(val)
	case int64:
		return "n:" + strconv.FormatInt(val, 10)
	case float64:
		if rat := new(big.Rat).SetFloat64(val); rat != nil {
			return "n:" + rat.RatString()
		}
		return fmt.Sprintf("n:%v", val)
	case string:
		return "s:" + val
	case bool:
		return "b:" + strconv.FormatBool(val)
	default:
		return fmt.Sprintf("v:%v", val)
	}
}

func emptySchema(s *openapi.Schema) bool {
	return s.Type == "" && s.Ref == "" && len(s.AllOf) == 0 &&
		len(s.AnyOf) == 0 && len(s.OneOf) == 0 && len(s.Enum) == 0
}

func schemaKind(s *openapi.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	return "composite"
}
