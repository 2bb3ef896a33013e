package openapi

import (
	"fmt"
	"math/big"
	"strconv"
)

// Number holds a JSON number as its literal text. Schema bounds such as
// the int64 limits (±2^63) are not exactly representable as float64, so
// storing the literal is the only way to keep the serialized document
// byte-exact. The zero value is "no number" and is omitted from output.
type Number string

// Int64Number returns the Number for a signed integer value.
func Int64Number(v int64) Number {
	return Number(strconv.FormatInt(v, 10))
}

// Uint64Number returns the Number for an unsigned integer value.
func Uint64Number(v uint64) Number {
	return Number(strconv.FormatUint(v, 10))
}

// Float64Number returns the Number for a floating point value, using the
// shortest representation that round-trips.
func Float64Number(v float64) Number {
	return Number(strconv.FormatFloat(v, 'g', -1, 64))
}

// IsZero reports whether the number is unset. It implements the yaml.v3
// IsZeroer interface so omitempty correctly omits unset bounds.
func (n Number) IsZero() bool {
	return n == ""
}

// Rat returns the exact rational value of the number. The second result
// is false when the number is unset or not a valid decimal literal.
func (n Number) Rat() (*big.Rat, bool) {
	if n == "" {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(string(n))
	return r, ok
}

// Float64 returns the nearest float64 to the number, for callers that do
// not need exactness.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// MarshalJSON writes the stored literal verbatim.
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	if _, ok := n.Rat(); !ok {
		return nil, fmt.Errorf("openapi: invalid number literal %q", string(n))
	}
	return []byte(n), nil
}

// UnmarshalJSON accepts any JSON number literal.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*n = ""
		return nil
	}
	if _, ok := new(big.Rat).SetString(s); !ok {
		return fmt.Errorf("openapi: invalid number literal %q", s)
	}
	*n = Number(s)
	return nil
}

// MarshalYAML emits the number as a native YAML scalar: an integer when
// the literal is integral and fits in int64, otherwise a float.
func (n Number) MarshalYAML() (any, error) {
	if n == "" {
		return nil, nil
	}
	if v, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return v, nil
	}
	if v, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return v, nil
	}
	if v, err := strconv.ParseFloat(string(n), 64); err == nil {
		return v, nil
	}
	return nil, fmt.Errorf("openapi: invalid number literal %q", string(n))
}
