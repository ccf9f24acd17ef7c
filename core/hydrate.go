package core

import (
	"reflect"

	"github.com/Kuba314/arcparse/errors"
)

// Hydrate builds the typed outcome of a parse: every argument's raw tokens
// are converted and assigned, absent arguments fall back to parse-time
// overrides, then compiled defaults, then the zero value. v must be an
// addressable zero value of the record type.
func Hydrate(spec *RecordSpec, res *ParseResult, v reflect.Value) error {
	return hydrate(spec, res, v, res.selected)
}

func hydrate(rs *RecordSpec, res *ParseResult, v reflect.Value, chain []*Variant) error {
	for _, spec := range rs.Args {
		if err := hydrateArg(spec, res, v); err != nil {
			return err
		}
	}
	if len(chain) > 0 {
		variant := chain[0]
		inner := reflect.New(variant.Type)
		if err := hydrate(variant.Spec, res, inner.Elem(), chain[1:]); err != nil {
			return err
		}
		v.FieldByIndex(variant.Path).Set(inner)
	}
	return nil
}

func hydrateArg(spec *ArgumentSpec, res *ParseResult, v reflect.Value) error {
	field := v.FieldByIndex(spec.Path)
	b := res.binding(spec)

	if spec.Kind == KindFlag {
		return hydrateFlag(spec, res, b, field)
	}

	if len(b.raw) > 0 {
		for _, raw := range b.raw {
			if len(spec.Choices) > 0 && !containsString(spec.Choices, raw) {
				return errors.NewInvalidChoice(spec.Display, raw, spec.Choices)
			}
		}
		if spec.Arity.Multiple() {
			slice := reflect.MakeSlice(reflect.SliceOf(spec.Elem), 0, len(b.raw))
			for _, raw := range b.raw {
				item, err := spec.Convert(raw)
				if err != nil {
					return err
				}
				slice = reflect.Append(slice, item)
			}
			setField(field, slice)
			return nil
		}
		// Repeated single options overwrite; the last occurrence wins.
		item, err := spec.Convert(b.raw[len(b.raw)-1])
		if err != nil {
			return err
		}
		setField(field, item)
		return nil
	}

	if ov, ok := res.override(spec); ok {
		setField(field, ov)
		return nil
	}
	if spec.HasDefault {
		setField(field, spec.Default)
	}
	return nil
}

func hydrateFlag(spec *ArgumentSpec, res *ParseResult, b *binding, field reflect.Value) error {
	// Hydration reads the parsed bool values, not mere flag presence, so the
	// explicit --flag=false spelling keeps its meaning.
	if spec.TriState {
		switch {
		case b.posFlag != nil && b.posFlag.Changed:
			setField(field, reflect.ValueOf(b.posVal))
		case b.negFlag != nil && b.negFlag.Changed:
			setField(field, reflect.ValueOf(!b.negVal))
		default:
			if ov, ok := res.override(spec); ok {
				setField(field, ov)
			}
		}
		return nil
	}

	if b.supplied() {
		if spec.Negated {
			// A store-false flag clears the field when supplied true.
			setField(field, reflect.ValueOf(!b.negVal))
		} else {
			setField(field, reflect.ValueOf(b.posVal))
		}
		return nil
	}
	if ov, ok := res.override(spec); ok {
		setField(field, ov)
		return nil
	}
	if spec.HasDefault {
		setField(field, spec.Default)
	}
	return nil
}

// setField assigns a value to a record field, taking the address for
// optional pointer fields and converting across named types.
func setField(field reflect.Value, v reflect.Value) {
	t := field.Type()
	switch {
	case v.Type() == t:
		field.Set(v)
	case t.Kind() == reflect.Pointer && v.Type() == t.Elem():
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		field.Set(p)
	case t.Kind() == reflect.Pointer && v.Type().ConvertibleTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v.Convert(t.Elem()))
		field.Set(p)
	default:
		field.Set(v.Convert(t))
	}
}

// ResolveOverrides matches parse-time default overrides against the spec
// tree by field name and adapts each value to its argument. Names matching
// no field at any level are rejected.
func ResolveOverrides(root *RecordSpec, defaults map[string]any) (map[*ArgumentSpec]reflect.Value, error) {
	if len(defaults) == 0 {
		return nil, nil
	}
	out := map[*ArgumentSpec]reflect.Value{}
	matched := map[string]bool{}

	var walk func(rs *RecordSpec) error
	walk = func(rs *RecordSpec) error {
		for _, spec := range rs.Args {
			dv, ok := defaults[spec.Field]
			if !ok {
				continue
			}
			matched[spec.Field] = true
			v, err := overrideValue(spec, dv)
			if err != nil {
				return err
			}
			out[spec] = v
		}
		if rs.Sub != nil {
			for _, variant := range rs.Sub.Variants {
				if err := walk(variant.Spec); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	for name := range defaults {
		if !matched[name] {
			return nil, errors.NewParseError("default override for unknown field %s", name)
		}
	}
	return out, nil
}

// overrideValue adapts one override to the argument's field type. Typed
// values must be assignable to the field or its element type; strings go
// through the argument's converter like a command-line token would.
func overrideValue(spec *ArgumentSpec, dv any) (reflect.Value, error) {
	v := reflect.ValueOf(dv)
	if !v.IsValid() {
		return reflect.Value{}, errors.NewParseError("default override for field %s is nil", spec.Field)
	}

	switch {
	case v.Type() == spec.Type:
		return v, nil
	case v.Type().AssignableTo(spec.Type):
		return v.Convert(spec.Type), nil
	case spec.Elem != nil && v.Type().AssignableTo(spec.Elem):
		return wrapValue(v.Convert(spec.Elem), spec.Type), nil
	case spec.Type.Kind() == reflect.Pointer && v.Type().AssignableTo(spec.Type.Elem()):
		// Tri-state flags and other optional fields accept the pointee type.
		return wrapValue(v.Convert(spec.Type.Elem()), spec.Type), nil
	}

	if raw, ok := dv.(string); ok && spec.Convert != nil {
		if len(spec.Choices) > 0 && !containsString(spec.Choices, raw) {
			return reflect.Value{}, errors.NewInvalidChoice(spec.Display, raw, spec.Choices)
		}
		item, err := spec.Convert(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if spec.Arity.Multiple() {
			slice := reflect.MakeSlice(reflect.SliceOf(spec.Elem), 0, 1)
			return reflect.Append(slice, item).Convert(spec.Type), nil
		}
		return wrapValue(item, spec.Type), nil
	}

	return reflect.Value{}, errors.NewParseError(
		"default override of type %T is not assignable to field %s (%s)", dv, spec.Field, spec.Type)
}
