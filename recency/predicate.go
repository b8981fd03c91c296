package recency

import (
	"fmt"
	"reflect"
)

// Predicate decides whether an instance qualifies for recency caching.
// Predicates configured for an entity type are OR-combined: an instance is
// cached when any one of them matches.
type Predicate interface {
	Match(instance any) (bool, error)
}

// FieldMatch matches an instance when every listed field equals the given
// value. Fields are resolved by exported struct field name using reflection.
// This is the declarative variant; it can be expressed in a YAML config file.
type FieldMatch map[string]any

// Match implements Predicate.
func (m FieldMatch) Match(instance any) (bool, error) {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return false, fmt.Errorf("recency: cannot match fields on nil instance")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return false, fmt.Errorf("recency: field match requires a struct, got %T", instance)
	}

	for field, want := range m {
		fv := v.FieldByName(field)
		if !fv.IsValid() || !fv.CanInterface() {
			return false, fmt.Errorf("recency: instance %T has no field %q", instance, field)
		}
		if !looseEqual(fv.Interface(), want) {
			return false, nil
		}
	}
	return true, nil
}

// PredicateFunc adapts an ordinary function to Predicate. This is the
// programmatic variant for conditions a field/value map cannot express.
type PredicateFunc func(instance any) bool

// Match implements Predicate.
func (f PredicateFunc) Match(instance any) (bool, error) {
	return f(instance), nil
}

// matchesAny reports whether any predicate matches. An empty predicate list
// qualifies everything. Predicate evaluation errors count as non-matches;
// the caller is expected to log them.
func matchesAny(instance any, predicates []Predicate) (bool, error) {
	if len(predicates) == 0 {
		return true, nil
	}

	var firstErr error
	for _, p := range predicates {
		ok, err := p.Match(instance)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, firstErr
}

// looseEqual compares a struct field value against a configured value.
// Values decoded from YAML arrive as int/bool/string/float64 and rarely line
// up exactly with the field's Go type, so numeric kinds are compared by value
// rather than by type.
func looseEqual(got, want any) bool {
	if reflect.DeepEqual(got, want) {
		return true
	}

	gv, wv := reflect.ValueOf(got), reflect.ValueOf(want)
	if !gv.IsValid() || !wv.IsValid() {
		return false
	}
	if isNumeric(gv.Kind()) && isNumeric(wv.Kind()) {
		return toFloat(gv) == toFloat(wv)
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
