package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"time"

	json "github.com/goccy/go-json"

	"github.com/georgefst/routedoc/openapi"
	"github.com/georgefst/routedoc/routetree"
)

var (
	// ErrGeneratorUnavailable is returned by ValidateAll when a reachable
	// payload type cannot be sampled reflectively and no generator was
	// registered for it.
	ErrGeneratorUnavailable = errors.New("conformance: no sample generator available")

	// ErrEncoderUnavailable is returned by ValidateAll when a reachable
	// payload type cannot be encoded as JSON and no encoder was
	// registered for it.
	ErrEncoderUnavailable = errors.New("conformance: no encoder available")
)

// Generator produces one random sample value of a payload type.
type Generator func(r *rand.Rand) any

// Encoder serialises a sample value to the bytes the API would put on
// the wire.
type Encoder func(v any) ([]byte, error)

// PatternMatcher judges pattern- and format-constrained strings of one
// payload type, replacing the schema's own pattern and format rules.
type PatternMatcher func(s string) bool

// Validator checks that a route tree's payload encodings conform to the
// schemas its compiled document would declare for them. The zero
// configuration samples every reachable type reflectively and encodes
// with the same JSON encoder the generated schemas assume.
type Validator struct {
	samples    int
	seed       int64
	seedSet    bool
	generators map[reflect.Type]Generator
	encoders   map[reflect.Type]Encoder
	matchers   map[reflect.Type]PatternMatcher
}

// Option configures a Validator.
type Option func(*Validator)

// WithSamples sets how many samples to draw per payload type
// (default 100).
func WithSamples(n int) Option {
	return func(v *Validator) { v.samples = n }
}

// WithSeed fixes the random seed, making a run reproducible. Without it
// every run draws fresh samples.
func WithSeed(seed int64) Option {
	return func(v *Validator) {
		v.seed = seed
		v.seedSet = true
	}
}

// WithGenerator registers a custom sampler for the prototype's type,
// overriding reflective sampling.
func WithGenerator(prototype any, g Generator) Option {
	return func(v *Validator) { v.generators[reflect.TypeOf(prototype)] = g }
}

// WithEncoder registers a custom encoder for the prototype's type,
// overriding the default JSON encoding.
func WithEncoder(prototype any, e Encoder) Option {
	return func(v *Validator) { v.encoders[reflect.TypeOf(prototype)] = e }
}

// WithPatternMatcher registers a matcher for the prototype's type. When
// present it takes over the pattern and format judgement for every
// string the type's schema constrains.
func WithPatternMatcher(prototype any, m PatternMatcher) Option {
	return func(v *Validator) { v.matchers[reflect.TypeOf(prototype)] = m }
}

// New returns a Validator with the given options applied.
func New(opts ...Option) *Validator {
	v := &Validator{
		samples:    100,
		generators: make(map[reflect.Type]Generator),
		encoders:   make(map[reflect.Type]Encoder),
		matchers:   make(map[reflect.Type]PatternMatcher),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateAll samples, encodes and schema-checks every payload type
// reachable from the tree's request and response bodies. It returns a
// report with one section per distinct type in first-reach order.
//
// Configuration problems — a type that can be neither sampled nor
// encoded — surface as an error before any sampling happens, so a nil
// error means the report covers every reachable type. Schema violations
// are never an error: they are the report's content.
func (v *Validator) ValidateAll(tree routetree.Tree) (*Report, error) {
	reg := openapi.NewRegistry()
	types, err := reachableTypes(tree, reg)
	if err != nil {
		return nil, err
	}

	plans := make([]samplePlan, 0, len(types))
	for _, t := range types {
		gen, ok := v.generators[t]
		if !ok {
			var genErr error
			gen, genErr = defaultGenerator(t)
			if genErr != nil {
				return nil, fmt.Errorf("%w for %s: %v", ErrGeneratorUnavailable, t, genErr)
			}
		}
		enc, ok := v.encoders[t]
		if !ok {
			if err := sampleable(t, make(map[reflect.Type]bool)); err != nil {
				return nil, fmt.Errorf("%w for %s: %v", ErrEncoderUnavailable, t, err)
			}
			enc = json.Marshal
		}
		plans = append(plans, samplePlan{typ: t, gen: gen, enc: enc})
	}

	seed := v.seed
	if !v.seedSet {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))

	report := &Report{}
	for _, plan := range plans {
		report.Sections = append(report.Sections, v.runSection(plan, reg, r))
	}
	return report, nil
}

type samplePlan struct {
	typ reflect.Type
	gen Generator
	enc Encoder
}

func (v *Validator) runSection(plan samplePlan, reg *openapi.Registry, r *rand.Rand) Section {
	section := Section{Type: typeName(plan.typ, reg)}
	schema := reg.SchemaForType(plan.typ)
	c := newChecker(reg.Schemas(), v.matchers[plan.typ])

	for i := 0; i < v.samples; i++ {
		value := plan.gen(r)
		data, err := plan.enc(value)
		if err != nil {
			section.Samples++
			if section.Example == nil {
				section.Example = fallbackExample(value)
			}
			section.Failure = violation("$", "encoding", "encoder failed: %v", err)
			break
		}
		if section.Example == nil {
			section.Example = json.RawMessage(bytes.Clone(data))
		}
		section.Samples++

		decoded, err := decodeSample(data)
		if err != nil {
			section.Failure = violation("$", "encoding", "output is not valid JSON: %v", err)
			section.Failure.Sample = json.RawMessage(bytes.Clone(data))
			break
		}
		if fail := c.check(decoded, schema, "$"); fail != nil {
			fail.Sample = json.RawMessage(bytes.Clone(data))
			section.Failure = fail
			break
		}
	}

	return section
}

// fallbackExample renders a sample the registered encoder could not
// handle, so a section whose encoder fails on the first draw still
// records what was fed to it.
func fallbackExample(value any) json.RawMessage {
	if data, err := json.Marshal(value); err == nil {
		return json.RawMessage(data)
	}
	data, err := json.Marshal(fmt.Sprintf("%+v", value))
	if err != nil {
		return json.RawMessage(`"<unrenderable sample>"`)
	}
	return json.RawMessage(data)
}

func decodeSample(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// reachableTypes collects the distinct request and response body types
// of every endpoint, in first-reach order, registering each with the
// schema registry as it goes.
func reachableTypes(tree routetree.Tree, reg *openapi.Registry) ([]reflect.Type, error) {
	var types []reflect.Type
	seen := make(map[reflect.Type]bool)

	add := func(prototype any) {
		t := routetree.PrototypeType(prototype)
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		reg.SchemaForType(t)
		types = append(types, t)
	}

	err := routetree.Walk(tree, func(stack []routetree.Qualifier, leaf *routetree.Leaf) error {
		for _, q := range stack {
			if body, ok := q.(routetree.BodyParam); ok {
				add(body.Prototype)
			}
		}
		add(leaf.Body)
		for _, extra := range leaf.Extra {
			add(extra.Body)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return types, nil
}

func typeName(t reflect.Type, reg *openapi.Registry) string {
	if name, ok := reg.NameFor(t); ok {
		return name
	}
	return t.String()
}
