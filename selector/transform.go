package selector

import (
	"strconv"

	"github.com/georgefst/routedoc/openapi"
)

// Transform is a pure update of a single operation. The argument is a
// private copy: a transform may modify and return it freely without
// affecting the source document.
type Transform func(openapi.Operation) openapi.Operation

// Chain composes transforms left to right.
func Chain(transforms ...Transform) Transform {
	return func(op openapi.Operation) openapi.Operation {
		for _, t := range transforms {
			op = t(op)
		}
		return op
	}
}

// AddTags appends tags not already present on the operation.
func AddTags(tags ...string) Transform {
	return func(op openapi.Operation) openapi.Operation {
		for _, tag := range tags {
			found := false
			for _, have := range op.Tags {
				if have == tag {
					found = true
					break
				}
			}
			if !found {
				op.Tags = append(op.Tags, tag)
			}
		}
		return op
	}
}

// SetSummary replaces the operation summary.
func SetSummary(summary string) Transform {
	return func(op openapi.Operation) openapi.Operation {
		op.Summary = summary
		return op
	}
}

// SetDescription replaces the operation description.
func SetDescription(description string) Transform {
	return func(op openapi.Operation) openapi.Operation {
		op.Description = description
		return op
	}
}

// SetOperationID replaces the operation id.
func SetOperationID(id string) Transform {
	return func(op openapi.Operation) openapi.Operation {
		op.OperationID = id
		return op
	}
}

// SetSecurity replaces the operation-level security requirements. Call
// with no arguments to mark the operation as public.
func SetSecurity(reqs ...openapi.SecurityRequirement) Transform {
	if reqs == nil {
		reqs = []openapi.SecurityRequirement{}
	}
	return func(op openapi.Operation) openapi.Operation {
		op.Security = reqs
		return op
	}
}

// AddResponse registers a response for the given status code, replacing
// any existing response with that code.
func AddResponse(status int, resp *openapi.Response) Transform {
	return func(op openapi.Operation) openapi.Operation {
		if op.Responses == nil {
			op.Responses = make(map[string]*openapi.Response)
		}
		op.Responses[strconv.Itoa(status)] = resp
		return op
	}
}

// Deprecate marks the operation as deprecated.
func Deprecate() Transform {
	return func(op openapi.Operation) openapi.Operation {
		op.Deprecated = true
		return op
	}
}
