package recency

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// EntityNamer lets an instance declare its entity type explicitly. Without
// it the type name is derived from the reflected struct name, snake_cased.
type EntityNamer interface {
	EntityType() string
}

// Keyer lets an instance expose its backing-store primary key explicitly.
// Without it the identifier is pulled from an ID field via reflection.
type Keyer interface {
	PrimaryKey() string
}

// EntityTypeOf derives the entity type for an instance. A *User value maps
// to "user", *OrderLine to "order_line". The derived name is what config
// blocks and tier records are keyed by, so it must be stable across runs.
func EntityTypeOf(instance any) string {
	if namer, ok := instance.(EntityNamer); ok {
		return namer.EntityType()
	}
	t := reflect.TypeOf(instance)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return toSnake(t.Name())
}

// Identify extracts the backing-store identifier from an instance. It checks
// the Keyer interface first, then falls back to reflecting over common ID
// field names.
func Identify(instance any) (string, error) {
	if keyer, ok := instance.(Keyer); ok {
		return keyer.PrimaryKey(), nil
	}

	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", fmt.Errorf("recency: cannot identify nil instance")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", fmt.Errorf("recency: cannot identify %T: not a struct", instance)
	}

	for _, name := range []string{"ID", "Id", "PK", "Pk"} {
		field := v.FieldByName(name)
		if field.IsValid() && field.CanInterface() {
			return fmt.Sprintf("%v", field.Interface()), nil
		}
	}
	return "", fmt.Errorf("recency: no identifier field found in %T", instance)
}

// toSnake converts an exported Go type name to snake_case. Punctuation that
// can show up in reflected names (pointers, generic suffixes) is collapsed
// into underscores so the result stays usable as a tier key segment.
func toSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (nextLower && prev != '_') {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}
