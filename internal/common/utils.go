package common

import (
	"reflect"
	"strings"
	"unicode"
)

// IsStructPtr checks if the provided value is a pointer to a struct.
func IsStructPtr(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// GetStructType returns the reflect.Type of the underlying struct pointer.
func GetStructType(v any) reflect.Type {
	return reflect.TypeOf(v).Elem()
}

// KebabCase converts a CamelCase field name to its kebab-cased command-line
// form, e.g. "OptionalStr" -> "optional-str". Runs of upper-case letters are
// kept together: "HTTPAddr" -> "http-addr".
func KebabCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			boundary := i > 0 && runes[i-1] != '_' && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1])))
			if boundary {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '_' {
			b.WriteByte('-')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SnakeUpper converts a command-line name to its metavar form,
// e.g. "foo-bar" -> "FOO_BAR".
func SnakeUpper(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Field is a struct field paired with its index path from the root record
// type, usable with reflect.Value.FieldByIndex after embedded flattening.
type Field struct {
	reflect.StructField
	Path      []int
	Inherited bool
}

// FlattenFields collects the argument-bearing fields of a record type.
// Anonymous embedded structs act as inherited bases: their fields are emitted
// first, innermost first, and a field declared on the outer struct supersedes
// an inherited field of the same name in place.
func FlattenFields(t reflect.Type) []Field {
	var inherited, own []Field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			// Unexported fields cannot hold arguments. Embedded bases of
			// unexported types still contribute theirs.
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("arc") == "" {
			for _, base := range FlattenFields(f.Type) {
				base.Path = append([]int{i}, base.Path...)
				base.Inherited = true
				inherited = append(inherited, base)
			}
			continue
		}
		own = append(own, Field{StructField: f, Path: []int{i}})
	}

	fields := inherited
	for _, f := range own {
		if idx := indexByName(fields, f.Name); idx >= 0 {
			fields[idx] = f
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

func indexByName(fields []Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
