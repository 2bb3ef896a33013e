package compiler

import (
	"errors"
	"fmt"
)

// ErrUnknownSecurityScheme is returned when a route tree references a
// security scheme that was not registered on the compiler.
var ErrUnknownSecurityScheme = errors.New("compiler: security scheme not registered")

// ErrUnknownMethod is returned when a leaf declares an HTTP method the
// document model cannot carry. Methods are the eight uppercase names of
// the path item object; "get" is not "GET".
var ErrUnknownMethod = errors.New("compiler: unsupported HTTP method")

// ConflictError reports a structural conflict: two endpoints with the
// same (path, method) identity declare incompatible parameters or
// request bodies, or a single endpoint is qualified inconsistently.
// A conflict is always fatal; Compile returns it before producing any
// document.
type ConflictError struct {
	Path   string
	Method string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("compiler: structural conflict at %s %s: %s", e.Method, e.Path, e.Detail)
}

func conflictf(path, method, format string, args ...any) *ConflictError {
	return &ConflictError{Path: path, Method: method, Detail: fmt.Sprintf(format, args...)}
}
