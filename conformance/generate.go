package conformance

import (
	"fmt"
	"math/rand"
	"reflect"
	"time"
)

// maxSampleDepth caps recursion through nested containers so samples of
// recursive types stay finite.
const maxSampleDepth = 4

var timeType = reflect.TypeOf(time.Time{})

const sampleAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// defaultGenerator builds a reflective sampler for t, or reports why no
// sample can be produced. Channels, functions, complex numbers and
// interface-typed fields have no JSON representation and need a
// registered generator instead.
func defaultGenerator(t reflect.Type) (Generator, error) {
	if err := sampleable(t, make(map[reflect.Type]bool)); err != nil {
		return nil, err
	}
	return func(r *rand.Rand) any {
		return sample(t, r, 0).Interface()
	}, nil
}

func sampleable(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return sampleable(t.Elem(), seen)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("map key type %s is not a string", t.Key())
		}
		return sampleable(t.Elem(), seen)
	case reflect.Struct:
		if t == timeType {
			return nil
		}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() || field.Tag.Get("json") == "-" {
				continue
			}
			if err := sampleable(field.Type, seen); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("kind %s cannot be sampled", t.Kind())
	}
}

func sample(t reflect.Type, r *rand.Rand, depth int) reflect.Value {
	v := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.Bool:
		v.SetBool(r.Intn(2) == 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Shift down and back up to sign-extend a random value of the
		// field's exact bit width.
		shift := 64 - t.Bits()
		v.SetInt(int64(r.Uint64()) << shift >> shift)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := r.Uint64()
		if bits := t.Bits(); bits < 64 {
			n &= 1<<bits - 1
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		v.SetFloat(float64(r.NormFloat64() * 1000))
	case reflect.String:
		v.SetString(sampleString(r))
	case reflect.Pointer:
		if depth < maxSampleDepth && r.Intn(4) != 0 {
			p := reflect.New(t.Elem())
			p.Elem().Set(sample(t.Elem(), r, depth+1))
			v.Set(p)
		}
	case reflect.Slice:
		if depth < maxSampleDepth {
			n := r.Intn(4)
			s := reflect.MakeSlice(t, n, n)
			for i := 0; i < n; i++ {
				s.Index(i).Set(sample(t.Elem(), r, depth+1))
			}
			v.Set(s)
		} else {
			v.Set(reflect.MakeSlice(t, 0, 0))
		}
	case reflect.Array:
		for i := 0; i < t.Len(); i++ {
			v.Index(i).Set(sample(t.Elem(), r, depth+1))
		}
	case reflect.Map:
		m := reflect.MakeMap(t)
		if depth < maxSampleDepth {
			for i, k := 0, r.Intn(4); i < k; i++ {
				key := reflect.ValueOf(sampleString(r)).Convert(t.Key())
				m.SetMapIndex(key, sample(t.Elem(), r, depth+1))
			}
		}
		v.Set(m)
	case reflect.Struct:
		if t == timeType {
			v.Set(reflect.ValueOf(time.Unix(r.Int63n(4_102_444_800), 0).UTC()))
			break
		}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Tag.Get("json") == "-" {
				continue
			}
			if f := v.Field(i); f.CanSet() {
				f.Set(sample(field.Type, r, depth+1))
			}
		}
	}

	return v
}

func sampleString(r *rand.Rand) string {
	b := make([]byte, 1+r.Intn(12))
	for i := range b {
		b[i] = sampleAlphabet[r.Intn(len(sampleAlphabet))]
	}
	return string(b)
}
