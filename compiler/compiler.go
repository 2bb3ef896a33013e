package compiler

import (
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/georgefst/routedoc/openapi"
	"github.com/georgefst/routedoc/routetree"
)

// Compiler folds a route tree into an OpenAPI Document.
type Compiler struct {
	info            openapi.Info
	servers         []openapi.Server
	securitySchemes map[string]*openapi.SecurityScheme
	tags            []openapi.Tag
	externalDocs    *openapi.ExternalDocs
	logger          *logrus.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithServers sets the document-level servers.
func WithServers(servers ...openapi.Server) Option {
	return func(c *Compiler) { c.servers = append(c.servers, servers...) }
}

// WithSecurityScheme registers a reusable security scheme in components.
// Security qualifiers in the tree must reference a registered scheme.
func WithSecurityScheme(name string, scheme *openapi.SecurityScheme) Option {
	return func(c *Compiler) {
		if c.securitySchemes == nil {
			c.securitySchemes = make(map[string]*openapi.SecurityScheme)
		}
		c.securitySchemes[name] = scheme
	}
}

// WithTag adds a user-defined tag with description and external docs.
// User-defined tags take precedence over tags collected from operations.
func WithTag(tag openapi.Tag) Option {
	return func(c *Compiler) { c.tags = append(c.tags, tag) }
}

// WithExternalDocs sets the document-level external documentation link.
func WithExternalDocs(url, description string) Option {
	return func(c *Compiler) {
		c.externalDocs = &openapi.ExternalDocs{URL: url, Description: description}
	}
}

// WithLogger sets the logger used to report merge overrides. The
// compiler is silent by default.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// New creates a compiler with the given API info.
func New(info openapi.Info, opts ...Option) *Compiler {
	c := &Compiler{info: info}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile is a convenience for New(info).Compile(tree).
func Compile(tree routetree.Tree, info openapi.Info) (*openapi.Document, error) {
	return New(info).Compile(tree)
}

// Compile folds the route tree into a complete Document. The document's
// path set is exactly the set of path templates reachable from the tree;
// its schema registry holds exactly the parameter, body and response
// types reachable from the tree, deduplicated by type identity.
//
// Endpoints sharing a (path, method) identity are merged: response maps
// union with the later declaration winning a colliding status code (an
// override, reported through the logger), tags and security requirements
// union, and parameter declarations must agree or Compile returns a
// *ConflictError before producing any document.
func (c *Compiler) Compile(tree routetree.Tree) (*openapi.Document, error) {
	reg := openapi.NewRegistry()
	doc := &openapi.Document{
		OpenAPI:      "3.0.0",
		Info:         c.info,
		Servers:      c.servers,
		Paths:        make(map[string]*openapi.PathItem),
		ExternalDocs: c.externalDocs,
	}

	// Path identity ignores capture names; the first-declared template
	// becomes the display template for all endpoints sharing the key.
	templates := make(map[string]string)

	err := routetree.Walk(tree, func(stack []routetree.Qualifier, leaf *routetree.Leaf) error {
		op, err := c.materialize(reg, stack, leaf)
		if err != nil {
			return err
		}

		key := routetree.PathKey(stack)
		template, ok := templates[key]
		if !ok {
			template = routetree.Path(stack)
			templates[key] = template
			doc.Paths[template] = &openapi.PathItem{}
		}

		item := doc.Paths[template]
		if existing := item.Operation(leaf.Method); existing != nil {
			merged, err := c.merge(template, leaf.Method, existing, op)
			if err != nil {
				return err
			}
			op = merged
		}
		if !item.SetOperation(leaf.Method, op) {
			return fmt.Errorf("%w: %q at %s", ErrUnknownMethod, leaf.Method, template)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc.Components = c.components(reg)
	doc.Tags = c.collectTags(doc.Paths)

	return doc, nil
}

// materialize builds an Operation by applying every qualifier on the
// stack, outermost first, to the leaf's endpoint template.
func (c *Compiler) materialize(reg *openapi.Registry, stack []routetree.Qualifier, leaf *routetree.Leaf) (*openapi.Operation, error) {
	path := routetree.Path(stack)

	op := &openapi.Operation{OperationID: leaf.OperationID}

	var body *openapi.RequestBody
	var bodyRequired bool
	var invalid []string  // parameter names feeding the inferred 400
	var notFound []string // capture names feeding the inferred 404

	for _, q := range stack {
		switch qual := q.(type) {
		case routetree.StaticSegment:
			// Path identity only; nothing on the operation.

		case routetree.CaptureSegment:
			op.Parameters = append(op.Parameters, &openapi.Parameter{
				Name:     qual.Name,
				In:       "path",
				Required: true,
				Schema:   reg.ParamSchemaFor(qual.Prototype),
			})
			notFound = append(notFound, qual.Name)

		case routetree.QueryParam:
			op.Parameters = append(op.Parameters, &openapi.Parameter{
				Name:        qual.Name,
				In:          "query",
				Description: qual.Description,
				Required:    qual.Required,
				Schema:      reg.ParamSchemaFor(qual.Prototype),
			})
			if qual.Required {
				invalid = append(invalid, qual.Name)
			}

		case routetree.HeaderParam:
			op.Parameters = append(op.Parameters, &openapi.Parameter{
				Name:        qual.Name,
				In:          "header",
				Description: qual.Description,
				Required:    qual.Required,
				Schema:      reg.ParamSchemaFor(qual.Prototype),
			})
			if qual.Required {
				invalid = append(invalid, qual.Name)
			}

		case routetree.BodyParam:
			if body != nil {
				return nil, conflictf(path, leaf.Method, "more than one request body qualifier")
			}
			body = &openapi.RequestBody{
				Description: qual.Description,
				Required:    qual.Required,
				Content: map[string]*openapi.MediaType{
					qual.ContentType: {Schema: reg.SchemaFor(qual.Prototype)},
				},
			}
			bodyRequired = qual.Required

		case routetree.SecurityQualifier:
			if _, ok := c.securitySchemes[qual.Scheme]; !ok {
				return nil, fmt.Errorf("%w: %q at %s %s", ErrUnknownSecurityScheme, qual.Scheme, leaf.Method, path)
			}
			scopes := qual.Scopes
			if scopes == nil {
				scopes = []string{}
			}
			op.Security = append(op.Security, openapi.SecurityRequirement{qual.Scheme: scopes})

		case routetree.TagQualifier:
			op.Tags = appendUnique(op.Tags, qual.Names...)

		case routetree.SummaryQualifier:
			op.Summary = qual.Text

		case routetree.DescriptionQualifier:
			op.Description = qual.Text
		}
	}
	op.RequestBody = body

	op.Responses = make(map[string]*openapi.Response)

	// Mechanically inferred error responses. These are advisory: a
	// declared response for the same status code replaces them below.
	if bodyRequired {
		invalid = append(invalid, "body")
	}
	if len(invalid) > 0 {
		op.Responses["400"] = &openapi.Response{Description: invalidDescription(invalid)}
	}
	if len(notFound) > 0 {
		op.Responses["404"] = &openapi.Response{Description: notFoundDescription(notFound)}
	}

	// Declared success response.
	status := leaf.Status
	if status == 0 {
		status = http.StatusOK
	}
	success := &openapi.Response{Description: leaf.ResponseDescription}
	if success.Description == "" {
		success.Description = responseDescription(status)
	}
	if leaf.Body != nil {
		contentType := leaf.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		success.Content = map[string]*openapi.MediaType{
			contentType: {Schema: reg.SchemaFor(leaf.Body)},
		}
	}
	op.Responses[strconv.Itoa(status)] = success

	// Declared extra responses, overriding inferred ones per status code.
	for _, extra := range leaf.Extra {
		resp := &openapi.Response{Description: extra.Description}
		if resp.Description == "" {
			resp.Description = responseDescription(extra.Status)
		}
		if extra.Body != nil {
			resp.Content = map[string]*openapi.MediaType{
				extra.ContentType: {Schema: reg.SchemaFor(extra.Body)},
			}
		}
		op.Responses[strconv.Itoa(extra.Status)] = resp
	}

	return op, nil
}

// merge combines two operations that share a (path, method) identity.
func (c *Compiler) merge(path, method string, left, right *openapi.Operation) (*openapi.Operation, error) {
	out := left.Clone()

	// Parameters must be declared consistently across branches: a
	// parameter present in both must agree on required flag and schema.
	index := make(map[[2]string]*openapi.Parameter, len(left.Parameters))
	for _, p := range left.Parameters {
		index[[2]string{p.Name, p.In}] = p
	}
	for _, p := range right.Parameters {
		existing, ok := index[[2]string{p.Name, p.In}]
		if !ok {
			out.Parameters = append(out.Parameters, p)
			continue
		}
		if existing.Required != p.Required || !reflect.DeepEqual(existing.Schema, p.Schema) {
			return nil, conflictf(path, method, "parameter %q in %s declared inconsistently", p.Name, p.In)
		}
	}

	// Request bodies must agree structurally; anything else is the
	// unresolved-merge case and fails compilation.
	switch {
	case left.RequestBody == nil && right.RequestBody != nil,
		left.RequestBody != nil && right.RequestBody == nil:
		return nil, conflictf(path, method, "request body declared on only one branch")
	case left.RequestBody != nil && !reflect.DeepEqual(left.RequestBody, right.RequestBody):
		return nil, conflictf(path, method, "request bodies are structurally incompatible")
	}

	// Response maps union; a colliding status code resolves to the
	// later-applied declaration. That is an override, not an error.
	for code, resp := range right.Responses {
		if _, collides := out.Responses[code]; collides && c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"path":   path,
				"method": method,
				"status": code,
			}).Debug("response override: later declaration wins")
		}
		out.Responses[code] = resp
	}

	out.Tags = appendUnique(out.Tags, right.Tags...)

	for _, req := range right.Security {
		duplicate := false
		for _, have := range out.Security {
			if reflect.DeepEqual(have, req) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out.Security = append(out.Security, req)
		}
	}

	if out.Summary == "" {
		out.Summary = right.Summary
	}
	if out.Description == "" {
		out.Description = right.Description
	}
	if out.OperationID == "" {
		out.OperationID = right.OperationID
	}
	out.Deprecated = out.Deprecated || right.Deprecated

	return out, nil
}

// components assembles the Components object from the registry and the
// configured security schemes.
func (c *Compiler) components(reg *openapi.Registry) *openapi.Components {
	schemas := reg.Schemas()
	if len(schemas) == 0 && len(c.securitySchemes) == 0 {
		return nil
	}
	comp := &openapi.Components{}
	if len(schemas) > 0 {
		comp.Schemas = schemas
	}
	if len(c.securitySchemes) > 0 {
		comp.SecuritySchemes = c.securitySchemes
	}
	return comp
}

// collectTags combines tags collected from operations with user-defined
// tags. User-defined tags take precedence; ones not used by any
// operation are still included. The result is sorted alphabetically.
func (c *Compiler) collectTags(paths map[string]*openapi.PathItem) []openapi.Tag {
	userTags := make(map[string]openapi.Tag, len(c.tags))
	for _, tag := range c.tags {
		userTags[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []openapi.Tag

	for _, item := range paths {
		item.EachOperation(func(_ string, op *openapi.Operation) {
			for _, name := range op.Tags {
				if seen[name] {
					continue
				}
				seen[name] = true
				if userTag, ok := userTags[name]; ok {
					tags = append(tags, userTag)
				} else {
					tags = append(tags, openapi.Tag{Name: name})
				}
			}
		})
	}

	for _, tag := range c.tags {
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}

// invalidDescription renders the inferred 400 description, chaining
// every failing parameter name.
func invalidDescription(names []string) string {
	s := "Invalid " + backtick(names[0])
	for _, name := range names[1:] {
		s += " or " + backtick(name)
	}
	return s
}

// notFoundDescription renders the inferred 404 description for captures.
func notFoundDescription(names []string) string {
	s := backtick(names[0]) + " not found"
	for _, name := range names[1:] {
		s += " or " + backtick(name) + " not found"
	}
	return s
}

func backtick(s string) string {
	return "`" + s + "`"
}

// responseDescription returns the HTTP status text for a code, or the
// code itself for unassigned codes.
func responseDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return strconv.Itoa(status)
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, have := range dst {
			if have == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
