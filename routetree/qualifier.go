package routetree

import "reflect"

// Qualifier is a path segment, parameter, body, security requirement or
// metadata annotation attached by a Seq node to everything nested
// beneath it.
type Qualifier interface {
	isQualifier()

	// Equal reports whether two qualifiers are structurally identical.
	// Prototype values compare by their reflect.Type, not by value.
	Equal(other Qualifier) bool
}

// StaticSegment is a fixed path segment ("users" in /users/{id}).
type StaticSegment struct {
	Literal string
}

// CaptureSegment is a variable path segment ({id} in /users/{id}). The
// prototype value supplies the parameter schema. Capture names do not
// participate in path identity; captures match positionally.
type CaptureSegment struct {
	Name      string
	Prototype any
}

// QueryParam declares a query parameter for every endpoint beneath it.
type QueryParam struct {
	Name        string
	Prototype   any
	Required    bool
	Description string
}

// HeaderParam declares a header parameter for every endpoint beneath it.
type HeaderParam struct {
	Name        string
	Prototype   any
	Required    bool
	Description string
}

// BodyParam declares the request body for every endpoint beneath it.
// At most one body qualifier may apply to any endpoint.
type BodyParam struct {
	ContentType string
	Prototype   any
	Required    bool
	Description string
}

// SecurityQualifier attaches a security requirement referencing a scheme
// registered on the compiler.
type SecurityQualifier struct {
	Scheme string
	Scopes []string
}

// TagQualifier attaches tags to every endpoint beneath it.
type TagQualifier struct {
	Names []string
}

// SummaryQualifier attaches a summary to every endpoint beneath it.
type SummaryQualifier struct {
	Text string
}

// DescriptionQualifier attaches a description to every endpoint beneath it.
type DescriptionQualifier struct {
	Text string
}

// Static returns a fixed path segment qualifier.
func Static(literal string) StaticSegment {
	return StaticSegment{Literal: literal}
}

// Capture returns a variable path segment qualifier. The prototype value
// determines the parameter schema (e.g. int64(0) for an integer capture).
func Capture(name string, prototype any) CaptureSegment {
	return CaptureSegment{Name: name, Prototype: prototype}
}

// Query returns a query parameter qualifier.
func Query(name string, prototype any, required bool) QueryParam {
	return QueryParam{Name: name, Prototype: prototype, Required: required}
}

// Header returns a header parameter qualifier.
func Header(name string, prototype any, required bool) HeaderParam {
	return HeaderParam{Name: name, Prototype: prototype, Required: required}
}

// Body returns a required application/json request body qualifier.
func Body(prototype any) BodyParam {
	return BodyParam{ContentType: "application/json", Prototype: prototype, Required: true}
}

// BodyAs returns a required request body qualifier with an explicit
// content type.
func BodyAs(contentType string, prototype any) BodyParam {
	return BodyParam{ContentType: contentType, Prototype: prototype, Required: true}
}

// Secure returns a security requirement qualifier for the named scheme.
func Secure(scheme string, scopes ...string) SecurityQualifier {
	return SecurityQualifier{Scheme: scheme, Scopes: scopes}
}

// Tagged returns a tag qualifier.
func Tagged(names ...string) TagQualifier {
	return TagQualifier{Names: names}
}

// Summary returns a summary qualifier.
func Summary(text string) SummaryQualifier {
	return SummaryQualifier{Text: text}
}

// Description returns a description qualifier.
func Description(text string) DescriptionQualifier {
	return DescriptionQualifier{Text: text}
}

func (StaticSegment) isQualifier()        {}
func (CaptureSegment) isQualifier()       {}
func (QueryParam) isQualifier()           {}
func (HeaderParam) isQualifier()          {}
func (BodyParam) isQualifier()            {}
func (SecurityQualifier) isQualifier()    {}
func (TagQualifier) isQualifier()         {}
func (SummaryQualifier) isQualifier()     {}
func (DescriptionQualifier) isQualifier() {}

// PrototypeType returns the reflect.Type of a prototype value, or nil.
func PrototypeType(v any) reflect.Type {
	if v == nil {
		return nil
	}
	return reflect.TypeOf(v)
}

// Equal implementations. Schema-bearing qualifiers compare prototypes by
// type identity: two qualifiers naming the same Go type are identical
// regardless of the prototype's value.

func (q StaticSegment) Equal(other Qualifier) bool {
	o, ok := other.(StaticSegment)
	return ok && q.Literal == o.Literal
}

func (q CaptureSegment) Equal(other Qualifier) bool {
	o, ok := other.(CaptureSegment)
	return ok && q.Name == o.Name && PrototypeType(q.Prototype) == PrototypeType(o.Prototype)
}

func (q QueryParam) Equal(other Qualifier) bool {
	o, ok := other.(QueryParam)
	return ok && q.Name == o.Name && q.Required == o.Required &&
		PrototypeType(q.Prototype) == PrototypeType(o.Prototype)
}

func (q HeaderParam) Equal(other Qualifier) bool {
	o, ok := other.(HeaderParam)
	return ok && q.Name == o.Name && q.Required == o.Required &&
		PrototypeType(q.Prototype) == PrototypeType(o.Prototype)
}

func (q BodyParam) Equal(other Qualifier) bool {
	o, ok := other.(BodyParam)
	return ok && q.ContentType == o.ContentType && q.Required == o.Required &&
		PrototypeType(q.Prototype) == PrototypeType(o.Prototype)
}

func (q SecurityQualifier) Equal(other Qualifier) bool {
	o, ok := other.(SecurityQualifier)
	if !ok || q.Scheme != o.Scheme || len(q.Scopes) != len(o.Scopes) {
		return false
	}
	for i := range q.Scopes {
		if q.Scopes[i] != o.Scopes[i] {
			return false
		}
	}
	return true
}

func (q TagQualifier) Equal(other Qualifier) bool {
	o, ok := other.(TagQualifier)
	if !ok || len(q.Names) != len(o.Names) {
		return false
	}
	for i := range q.Names {
		if q.Names[i] != o.Names[i] {
			return false
		}
	}
	return true
}

func (q SummaryQualifier) Equal(other Qualifier) bool {
	o, ok := other.(SummaryQualifier)
	return ok && q.Text == o.Text
}

func (q DescriptionQualifier) Equal(other Qualifier) bool {
	o, ok := other.(DescriptionQualifier)
	return ok && q.Text == o.Text
}
