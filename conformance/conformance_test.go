package conformance

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgefst/routedoc/routetree"
)

type Account struct {
	Name    string   `json:"name"`
	Balance int64    `json:"balance"`
	Labels  []string `json:"labels,omitempty"`
}

type AccountID struct {
	ID int64 `json:"id"`
}

func accountAPI() routetree.Tree {
	return routetree.Under(
		routetree.OneOf(
			routetree.Endpoint("GET", 0, []Account{}),
			routetree.Under(routetree.Endpoint("POST", 0, AccountID{}),
				routetree.Body(Account{})),
		),
		routetree.Static("accounts"),
	)
}

func TestValidateAllPasses(t *testing.T) {
	v := New(WithSamples(50), WithSeed(1))
	report, err := v.ValidateAll(accountAPI())
	require.NoError(t, err)

	t.Run("report covers every reachable type once", func(t *testing.T) {
		require.Len(t, report.Sections, 3)
		assert.Equal(t, "[]conformance.Account", report.Sections[0].Type)
		assert.Equal(t, "Account", report.Sections[1].Type)
		assert.Equal(t, "AccountID", report.Sections[2].Type)
	})

	t.Run("well-behaved types conform", func(t *testing.T) {
		assert.True(t, report.Passed())
		assert.Empty(t, report.Failed())
	})

	t.Run("every section keeps an example", func(t *testing.T) {
		for _, s := range report.Sections {
			assert.NotEmpty(t, s.Example, "section %s", s.Type)
			assert.Equal(t, 50, s.Samples, "section %s", s.Type)
		}
	})

	t.Run("plugs into the test runner", func(t *testing.T) {
		report.Subtests(t)
	})
}

func TestValidateAllReproducible(t *testing.T) {
	run := func() *Report {
		report, err := New(WithSamples(10), WithSeed(42)).ValidateAll(accountAPI())
		require.NoError(t, err)
		return report
	}
	assert.Equal(t, run(), run())
}

type StrictCode struct {
	Code string `json:"code" openapi:"minLength=50"`
}

func TestValidateAllDetectsViolations(t *testing.T) {
	t.Run("constraint violation fails fast", func(t *testing.T) {
		tree := routetree.Endpoint("GET", 0, StrictCode{})
		report, err := New(WithSamples(100), WithSeed(1)).ValidateAll(tree)
		require.NoError(t, err)

		require.Len(t, report.Sections, 1)
		section := report.Sections[0]
		assert.False(t, section.Passed())
		assert.Equal(t, 1, section.Samples)

		require.NotNil(t, section.Failure)
		assert.Equal(t, "minLength", section.Failure.Constraint)
		assert.Equal(t, "$.code", section.Failure.Path)
		assert.NotEmpty(t, section.Failure.Sample)
	})

	t.Run("a failing type never hides the others", func(t *testing.T) {
		tree := routetree.OneOf(
			routetree.Endpoint("GET", 0, StrictCode{}),
			routetree.Endpoint("GET", 0, Account{}),
		)
		report, err := New(WithSamples(20), WithSeed(1)).ValidateAll(tree)
		require.NoError(t, err)

		require.Len(t, report.Sections, 2)
		assert.False(t, report.Sections[0].Passed())
		assert.True(t, report.Sections[1].Passed())
		assert.Len(t, report.Failed(), 1)
	})

	t.Run("encoder output that breaks the schema is caught", func(t *testing.T) {
		tree := routetree.Endpoint("GET", 0, Account{})
		v := New(WithSamples(5), WithSeed(1),
			WithEncoder(Account{}, func(any) ([]byte, error) {
				return []byte(`{"name": "x"}`), nil // balance missing
			}))
		report, err := v.ValidateAll(tree)
		require.NoError(t, err)

		require.NotNil(t, report.Sections[0].Failure)
		assert.Equal(t, "required", report.Sections[0].Failure.Constraint)
	})

	t.Run("encoder errors end the section", func(t *testing.T) {
		tree := routetree.Endpoint("GET", 0, Account{})
		v := New(WithSamples(5), WithSeed(1),
			WithEncoder(Account{}, func(any) ([]byte, error) {
				return nil, errors.New("marshal exploded")
			}))
		report, err := v.ValidateAll(tree)
		require.NoError(t, err)

		require.NotNil(t, report.Sections[0].Failure)
		assert.Equal(t, "encoding", report.Sections[0].Failure.Constraint)
		assert.Equal(t, 1, report.Sections[0].Samples)
		assert.NotEmpty(t, report.Sections[0].Example)
	})
}

type CachedView struct {
	Name   string      `json:"name"`
	Events chan string `json:"-"`
}

func TestValidateAllSkipsUnserializedFields(t *testing.T) {
	// The schema generator and the encoder both ignore json:"-" fields,
	// so the sampler must too: the channel never reaches the wire.
	tree := routetree.Endpoint("GET", 0, CachedView{})
	report, err := New(WithSamples(10), WithSeed(1)).ValidateAll(tree)
	require.NoError(t, err)
	assert.True(t, report.Passed())
}

type Unportable struct {
	Events chan string `json:"events"`
}

func TestValidateAllConfiguration(t *testing.T) {
	tree := routetree.Endpoint("GET", 0, Unportable{})

	t.Run("unsampleable type surfaces before any sampling", func(t *testing.T) {
		_, err := New(WithSeed(1)).ValidateAll(tree)
		assert.ErrorIs(t, err, ErrGeneratorUnavailable)
	})

	t.Run("custom generator alone still needs an encoder", func(t *testing.T) {
		v := New(WithSeed(1), WithGenerator(Unportable{}, func(*rand.Rand) any {
			return Unportable{}
		}))
		_, err := v.ValidateAll(tree)
		assert.ErrorIs(t, err, ErrEncoderUnavailable)
	})

	t.Run("generator and encoder together unblock the type", func(t *testing.T) {
		v := New(WithSamples(3), WithSeed(1),
			WithGenerator(Unportable{}, func(*rand.Rand) any {
				return Unportable{}
			}),
			WithEncoder(Unportable{}, func(any) ([]byte, error) {
				return []byte(`{}`), nil
			}))
		report, err := v.ValidateAll(tree)
		require.NoError(t, err)
		assert.True(t, report.Passed())
	})
}

type TrackingNumber struct {
	Code string `json:"code" openapi:"pattern=^TRK-[0-9]+$"`
}

func TestValidateAllPatternMatcher(t *testing.T) {
	tree := routetree.Endpoint("GET", 0, TrackingNumber{})

	t.Run("matcher replaces the schema pattern", func(t *testing.T) {
		v := New(WithSamples(20), WithSeed(1),
			WithPatternMatcher(TrackingNumber{}, func(string) bool { return true }))
		report, err := v.ValidateAll(tree)
		require.NoError(t, err)
		assert.True(t, report.Passed())
	})

	t.Run("rejecting matcher fails the section", func(t *testing.T) {
		v := New(WithSamples(20), WithSeed(1),
			WithPatternMatcher(TrackingNumber{}, func(string) bool { return false }))
		report, err := v.ValidateAll(tree)
		require.NoError(t, err)

		require.NotNil(t, report.Sections[0].Failure)
		assert.Equal(t, "pattern", report.Sections[0].Failure.Constraint)
	})
}
