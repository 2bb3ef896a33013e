package conformance

import (
	"fmt"
	"testing"

	json "github.com/goccy/go-json"
)

// Violation records a single conformance failure: an encoded sample that
// does not satisfy its type's schema, with the violated constraint and
// the location inside the encoded value.
type Violation struct {
	// Sample is the encoded value that failed.
	Sample json.RawMessage

	// Path locates the failing element, e.g. "$.items[2].age".
	Path string

	// Constraint names the violated schema rule ("type", "required",
	// "minimum", "enum", "pattern", "format", ...).
	Constraint string

	Detail string
}

func (v *Violation) String() string {
	return fmt.Sprintf("%s: %s constraint violated: %s (sample: %s)",
		v.Path, v.Constraint, v.Detail, string(v.Sample))
}

// Section is the validation outcome for one payload type. Every
// reachable type produces exactly one section, and every section records
// at least one example even on success, keeping the report auditable.
type Section struct {
	// Type is the payload type's name.
	Type string

	// Samples is the number of samples checked before the section
	// settled (all of them on success, the failing prefix otherwise).
	Samples int

	// Example is the first encoded sample. When the encoder fails
	// before producing one, it holds a best-effort rendering of the
	// first generated sample instead.
	Example json.RawMessage

	// Failure is nil when every sample conformed. Sections fail fast:
	// the first violation ends the section's sampling.
	Failure *Violation
}

// Passed reports whether the section recorded no violation.
func (s *Section) Passed() bool {
	return s.Failure == nil
}

// Report is the outcome of ValidateAll: one section per distinct
// reachable payload type, in first-reach order. A failing type never
// hides the others.
type Report struct {
	Sections []Section
}

// Passed reports whether every section passed.
func (r *Report) Passed() bool {
	for i := range r.Sections {
		if !r.Sections[i].Passed() {
			return false
		}
	}
	return true
}

// Failed returns the failing sections.
func (r *Report) Failed() []Section {
	var out []Section
	for _, s := range r.Sections {
		if !s.Passed() {
			out = append(out, s)
		}
	}
	return out
}

// Subtests registers one subtest per section, named after the payload
// type, so a report plugs directly into the standard test runner:
//
//	report, err := v.ValidateAll(api)
//	require.NoError(t, err)
//	report.Subtests(t)
func (r *Report) Subtests(t *testing.T) {
	for _, s := range r.Sections {
		t.Run(s.Type, func(t *testing.T) {
			if s.Failure != nil {
				t.Errorf("encoding does not conform to schema: %s", s.Failure)
			}
		})
	}
}
