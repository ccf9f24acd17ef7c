package core

import (
	"encoding"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"github.com/Kuba314/arcparse/errors"
	"github.com/Kuba314/arcparse/internal/common"
)

// Enumerated is implemented by argument types with a closed set of valid
// string forms. The choices are registered with the engine for help rendering
// and input outside the set is rejected with an InvalidChoiceError.
type Enumerated interface {
	Choices() []string
}

var (
	regexpType      = reflect.TypeOf((*regexp.Regexp)(nil))
	durationType    = reflect.TypeOf(time.Duration(0))
	enumeratedType  = reflect.TypeOf((*Enumerated)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// resolveField derives an argument spec from a field's declared type and its
// tag settings. The explicit converter, if any, overrides converter
// derivation; arity derivation from the type is unaffected.
func resolveField(f common.Field, s *fieldSettings, explicit ConvertFunc) (*ArgumentSpec, error) {
	t := f.Type
	display := s.displayName(f.Name)

	spec := &ArgumentSpec{
		Field:     f.Name,
		Path:      f.Path,
		Display:   display,
		Short:     s.short,
		ShortOnly: s.shortOnly,
		Help:      s.help,
		MxGroup:   s.mxGroup,
		Choices:   s.choices,
		Type:      t,
	}

	// Flag kinds never yield a value and resolve without a converter.
	switch s.kind {
	case "flag", "noflag":
		if t.Kind() != reflect.Bool {
			return nil, errors.NewUnsupportedType(f.Name, t.String()+" (flags must be bool)")
		}
		if s.hasDefault {
			return nil, errors.NewDeclaration("field %s: defaults don't make sense for flags", f.Name)
		}
		spec.Kind = KindFlag
		spec.Negated = s.kind == "noflag"
		spec.HasDefault = true
		spec.Default = reflect.ValueOf(spec.Negated)
		return spec, nil
	case "triflag":
		if t != reflect.PointerTo(reflect.TypeOf(false)) {
			return nil, errors.NewUnsupportedType(f.Name, t.String()+" (tri-state flags must be *bool)")
		}
		if s.hasDefault {
			return nil, errors.NewDeclaration("field %s: defaults don't make sense for flags", f.Name)
		}
		spec.Kind = KindFlag
		spec.TriState = true
		return spec, nil
	case "", "option", "positional":
	default:
		return nil, errors.NewDeclaration("field %s: unknown kind %q", f.Name, s.kind)
	}

	// Bare bool and *bool fields are flags, not value arguments.
	if s.kind == "" {
		if t.Kind() == reflect.Bool {
			if s.hasDefault {
				return nil, errors.NewDeclaration("field %s: defaults don't make sense for flags", f.Name)
			}
			spec.Kind = KindFlag
			spec.HasDefault = true
			spec.Default = reflect.ValueOf(false)
			return spec, nil
		}
		if t == reflect.PointerTo(reflect.TypeOf(false)) {
			if s.hasDefault {
				return nil, errors.NewDeclaration("field %s: defaults don't make sense for flags", f.Name)
			}
			spec.Kind = KindFlag
			spec.TriState = true
			return spec, nil
		}
	}

	if s.kind == "positional" {
		spec.Kind = KindPositional
	} else {
		spec.Kind = KindOption
	}

	optional := false
	multiple := false
	elem := t

	// *regexp.Regexp is a value type in its own right; any other pointer is
	// an optionality wrapper around its pointee.
	if elem.Kind() == reflect.Pointer && elem != regexpType && !elem.Implements(unmarshalerType) {
		optional = true
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Slice && elem != reflect.TypeOf([]byte(nil)) {
		if optional {
			return nil, errors.NewUnsupportedType(f.Name, t.String()+" (pointer to slice)")
		}
		multiple = true
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Bool {
		return nil, errors.NewUnsupportedType(f.Name, t.String()+" (arguments yielding a value cannot be bool)")
	}
	spec.Elem = elem

	if err := resolveConverter(spec, f.Name, elem, explicit); err != nil {
		return nil, err
	}

	if len(spec.Choices) > 0 && spec.Convert == nil && elem.Kind() != reflect.String {
		return nil, errors.NewUnsupportedType(f.Name, t.String()+" (choices without a converter require a string kind)")
	}

	switch {
	case multiple && s.appendMode:
		if spec.Kind == KindPositional {
			return nil, errors.NewDeclaration("field %s: append is only valid for options", f.Name)
		}
		spec.Arity = ArityAppend
	case multiple && s.atLeastOne:
		spec.Arity = ArityOneOrMore
		spec.Required = true
	case multiple:
		spec.Arity = ArityZeroOrMore
	case optional || s.hasDefault:
		spec.Arity = ArityOptionalSingle
	default:
		spec.Arity = AritySingle
		spec.Required = true
	}
	if s.appendMode && !multiple {
		return nil, errors.NewDeclaration("field %s: append requires a slice type", f.Name)
	}
	if s.atLeastOne && !multiple {
		return nil, errors.NewDeclaration("field %s: at-least-one requires a slice type", f.Name)
	}

	// Collection arguments parse to an empty collection when absent, unless
	// at least one value is demanded.
	if (spec.Arity == ArityZeroOrMore || spec.Arity == ArityAppend) && !s.hasDefault {
		spec.HasDefault = true
		spec.Default = reflect.MakeSlice(reflect.SliceOf(elem), 0, 0)
	}

	spec.Metavar = s.metavar
	if spec.Metavar == "" {
		spec.Metavar = common.SnakeUpper(spec.Display)
	}
	return spec, nil
}

// resolveConverter fills in the converter and implicit choices for the
// element type, in derivation-rule order.
func resolveConverter(spec *ArgumentSpec, field string, elem reflect.Type, explicit ConvertFunc) error {
	if explicit != nil {
		spec.Convert = explicit
		return nil
	}

	// Closed-set types: register choices; conversion falls through to the
	// unmarshaler if implemented, or to raw string storage.
	if enum := enumChoices(elem); enum != nil && len(spec.Choices) == 0 {
		spec.Choices = enum
	}

	switch {
	case elem == regexpType:
		spec.Convert = func(raw string) (reflect.Value, error) {
			re, err := regexp.Compile(raw)
			if err != nil {
				return reflect.Value{}, errors.NewInvalidValue(spec.Display, raw, err.Error())
			}
			return reflect.ValueOf(re), nil
		}
	case reflect.PointerTo(elem).Implements(unmarshalerType) || elem.Implements(unmarshalerType):
		spec.Convert = unmarshalConverter(spec, elem)
	case elem.Kind() == reflect.String:
		// Identity conversion; named string types are converted in place.
		spec.Convert = func(raw string) (reflect.Value, error) {
			return reflect.ValueOf(raw).Convert(elem), nil
		}
	case elem == durationType:
		spec.Convert = func(raw string) (reflect.Value, error) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return reflect.Value{}, errors.NewInvalidValue(spec.Display, raw, err.Error())
			}
			return reflect.ValueOf(d), nil
		}
	case elem.Kind() >= reflect.Int && elem.Kind() <= reflect.Int64:
		spec.Convert = func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseInt(raw, 10, elem.Bits())
			if err != nil {
				return reflect.Value{}, errors.NewInvalidValue(spec.Display, raw, fmt.Sprintf("invalid integer %q", raw))
			}
			return reflect.ValueOf(n).Convert(elem), nil
		}
	case elem.Kind() >= reflect.Uint && elem.Kind() <= reflect.Uint64:
		spec.Convert = func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseUint(raw, 10, elem.Bits())
			if err != nil {
				return reflect.Value{}, errors.NewInvalidValue(spec.Display, raw, fmt.Sprintf("invalid unsigned integer %q", raw))
			}
			return reflect.ValueOf(n).Convert(elem), nil
		}
	case elem.Kind() == reflect.Float32 || elem.Kind() == reflect.Float64:
		spec.Convert = func(raw string) (reflect.Value, error) {
			x, err := strconv.ParseFloat(raw, elem.Bits())
			if err != nil {
				return reflect.Value{}, errors.NewInvalidValue(spec.Display, raw, fmt.Sprintf("invalid number %q", raw))
			}
			return reflect.ValueOf(x).Convert(elem), nil
		}
	default:
		return errors.NewUnsupportedType(field, spec.Type.String())
	}
	return nil
}

func unmarshalConverter(spec *ArgumentSpec, elem reflect.Type) ConvertFunc {
	// Either elem itself is a pointer type implementing TextUnmarshaler or
	// the unmarshaler has a pointer receiver on elem.
	if elem.Kind() == reflect.Pointer {
		return func(raw string) (reflect.Value, error) {
			v := reflect.New(elem.Elem())
			if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return reflect.Value{}, errors.NewInvalidValue(spec.Display, raw, err.Error())
			}
			return v, nil
		}
	}
	return func(raw string) (reflect.Value, error) {
		v := reflect.New(elem)
		if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, errors.NewInvalidValue(spec.Display, raw, err.Error())
		}
		return v.Elem(), nil
	}
}

// enumChoices returns the closed value set of an Enumerated element type, or
// nil if the type does not declare one.
func enumChoices(elem reflect.Type) []string {
	probe := elem
	if probe.Kind() == reflect.Pointer {
		probe = probe.Elem()
	}
	if probe.Implements(enumeratedType) {
		return reflect.Zero(probe).Interface().(Enumerated).Choices()
	}
	if reflect.PointerTo(probe).Implements(enumeratedType) {
		return reflect.New(probe).Interface().(Enumerated).Choices()
	}
	return nil
}
