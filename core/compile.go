package core

import (
	"reflect"
	"sort"
	"strings"

	"github.com/Kuba314/arcparse/errors"
	"github.com/Kuba314/arcparse/internal/common"
)

// Options carries per-field compile-time customizations that cannot be
// expressed in struct tags: explicit converters, dict-helper mappings and
// typed defaults.
type Options struct {
	Converters map[string]ConvertFunc
	Dicts      map[string]map[string]any
	Defaults   map[string]any
}

func (o *Options) empty() bool {
	return o == nil || (len(o.Converters) == 0 && len(o.Dicts) == 0 && len(o.Defaults) == 0)
}

// CompileRecord compiles a declared record type into its RecordSpec. The
// result is immutable; compiling the same type twice yields an equivalent
// spec. All declaration problems are reported here, never at parse time.
func CompileRecord(t reflect.Type, opts *Options) (*RecordSpec, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.NewDeclaration("record type must be a struct, got %s", t)
	}
	if opts == nil {
		opts = &Options{}
	}
	if err := checkOptionFields(t, opts); err != nil {
		return nil, err
	}
	return compileRecord(t, opts, nil, map[string]bool{})
}

// compileRecord does the work of CompileRecord, carrying the subcommand
// names and argument display names of all ancestor records for cross-level
// collision checks.
func compileRecord(t reflect.Type, opts *Options, ancestorSubs []string, ancestorDisplays map[string]bool) (*RecordSpec, error) {
	rs := &RecordSpec{Type: t}

	type variantField struct {
		name     string
		optional bool
		field    common.Field
	}
	var variants []variantField

	displays := map[string]string{} // command-line spelling -> field
	shorts := map[string]string{}

	for _, f := range common.FlattenFields(t) {
		s, err := parseFieldTags(f)
		if err != nil {
			return nil, err
		}
		if s.skip {
			continue
		}

		if s.kind == "subcommand" {
			if f.Type.Kind() != reflect.Pointer || f.Type.Elem().Kind() != reflect.Struct {
				return nil, errors.NewUnsupportedType(f.Name, f.Type.String()+" (subcommand fields must be pointers to structs)")
			}
			variants = append(variants, variantField{name: s.subName, optional: s.optional, field: f})
			continue
		}

		spec, err := resolveField(f, s, fieldConverter(f.Name, opts))
		if err != nil {
			return nil, err
		}
		if err := applyDefaults(spec, s, opts); err != nil {
			return nil, err
		}

		for _, flag := range spec.Flags() {
			if flag == "--help" {
				return nil, errors.NewDeclaration("field %s: --help is reserved", f.Name)
			}
			if prev, ok := displays[flag]; ok {
				return nil, errors.NewDeclaration("fields %s and %s both register %s", prev, f.Name, flag)
			}
			if ancestorDisplays[flag] {
				return nil, errors.NewDeclaration("field %s registers %s, already used by an ancestor record", f.Name, flag)
			}
			displays[flag] = f.Name
		}
		if spec.Short != "" {
			if spec.Short == "h" {
				return nil, errors.NewDeclaration("field %s: short form -h is reserved", f.Name)
			}
			if prev, ok := shorts[spec.Short]; ok {
				return nil, errors.NewDeclaration("fields %s and %s both register short form -%s", prev, f.Name, spec.Short)
			}
			shorts[spec.Short] = f.Name
		}

		if spec.MxGroup != "" {
			if err := checkMxMember(spec); err != nil {
				return nil, err
			}
			g := rs.group(spec.MxGroup)
			if g == nil {
				g = &MutexGroup{Name: spec.MxGroup}
				rs.Groups = append(rs.Groups, g)
			}
			g.Members = append(g.Members, f.Name)
			if s.mxRequired {
				g.Required = true
			}
		}

		rs.Args = append(rs.Args, spec)
	}

	if err := checkPositionals(rs); err != nil {
		return nil, err
	}

	if len(variants) > 0 {
		if len(rs.Positionals()) > 0 {
			return nil, errors.NewDeclaration("%s: positional arguments cannot be combined with subcommands", t)
		}
		sub := &SubcommandSpec{}
		nextDisplays := map[string]bool{}
		for k := range ancestorDisplays {
			nextDisplays[k] = true
		}
		for k := range displays {
			nextDisplays[k] = true
		}
		nextSubs := append([]string{}, ancestorSubs...)
		for _, vf := range variants {
			if vf.optional {
				sub.Optional = true
			}
			if vf.name == "help" {
				return nil, errors.NewDeclaration("%s: subcommand name %q is reserved", t, vf.name)
			}
			if sub.variantNamed(vf.name) != nil {
				return nil, errors.NewDeclaration("%s: duplicate subcommand name %q", t, vf.name)
			}
			for _, anc := range nextSubs {
				if anc == vf.name {
					return nil, errors.NewDeclaration("%s: subcommand name %q is already used at an ancestor level", t, vf.name)
				}
			}
			vt := vf.field.Type.Elem()
			vspec, err := compileRecord(vt, opts, append(nextSubs, vf.name), nextDisplays)
			if err != nil {
				return nil, err
			}
			sub.Variants = append(sub.Variants, &Variant{
				Name: vf.name,
				Path: vf.field.Path,
				Type: vt,
				Spec: vspec,
			})
		}
		rs.Sub = sub
	}

	return rs, nil
}

// fieldConverter builds the explicit converter for a field from the compile
// options, if one was declared.
func fieldConverter(field string, opts *Options) ConvertFunc {
	if conv, ok := opts.Converters[field]; ok {
		return conv
	}
	if dict, ok := opts.Dicts[field]; ok {
		return dictConverter(field, dict)
	}
	return nil
}

func dictConverter(field string, dict map[string]any) ConvertFunc {
	keys := dictKeys(dict)
	return func(raw string) (reflect.Value, error) {
		v, ok := dict[raw]
		if !ok {
			return reflect.Value{}, errors.NewInvalidChoice(field, raw, keys)
		}
		return reflect.ValueOf(v), nil
	}
}

func dictKeys(dict map[string]any) []string {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// applyDefaults validates and attaches the tag default and the typed default
// from compile options. A defaulted argument is never also required.
func applyDefaults(spec *ArgumentSpec, s *fieldSettings, opts *Options) error {
	if dict, ok := opts.Dicts[spec.Field]; ok {
		if len(spec.Choices) == 0 {
			spec.Choices = dictKeys(dict)
		}
		if s.hasDefault {
			return errors.NewDeclaration("field %s: dict arguments take defaults via WithDefault, not a default tag", spec.Field)
		}
	}

	if s.hasDefault {
		if spec.Arity.Multiple() {
			return errors.NewDeclaration("field %s: default tags are not supported on collection arguments, use WithDefault", spec.Field)
		}
		if len(spec.Choices) > 0 && !containsString(spec.Choices, s.defaultStr) {
			return errors.NewDeclaration("field %s: default %q is not one of the declared choices", spec.Field, s.defaultStr)
		}
		v, err := spec.Convert(s.defaultStr)
		if err != nil {
			return errors.NewDeclaration("field %s: invalid default %q: %v", spec.Field, s.defaultStr, err)
		}
		spec.HasDefault = true
		spec.Default = wrapValue(v, spec.Type)
		spec.Required = false
	}

	if dv, ok := opts.Defaults[spec.Field]; ok {
		v := reflect.ValueOf(dv)
		if dict, isDict := opts.Dicts[spec.Field]; isDict && !dictHasValue(dict, dv) {
			return errors.NewDeclaration("field %s: default %v is not a value of the declared dict", spec.Field, dv)
		}
		switch {
		case v.Type() == spec.Type:
		case v.Type().AssignableTo(spec.Type):
			v = v.Convert(spec.Type)
		case spec.Elem != nil && v.Type().AssignableTo(spec.Elem):
			v = wrapValue(v.Convert(spec.Elem), spec.Type)
		default:
			return errors.NewDeclaration("field %s: default of type %T is not assignable to %s", spec.Field, dv, spec.Type)
		}
		spec.HasDefault = true
		spec.Default = v
		spec.Required = false
		if spec.Arity == AritySingle {
			spec.Arity = ArityOptionalSingle
		}
	}
	return nil
}

func dictHasValue(dict map[string]any, v any) bool {
	for _, dv := range dict {
		if dv == v {
			return true
		}
	}
	return false
}

// wrapValue adapts a converted element value to the declared field type,
// taking the address for optional pointer fields.
func wrapValue(v reflect.Value, fieldType reflect.Type) reflect.Value {
	if v.Type() == fieldType {
		return v
	}
	if fieldType.Kind() == reflect.Pointer && v.Type() == fieldType.Elem() {
		p := reflect.New(fieldType.Elem())
		p.Elem().Set(v)
		return p
	}
	return v.Convert(fieldType)
}

// checkMxMember enforces that every mutex group member is satisfiable when
// absent: flags carry implicit defaults, value arguments need an explicit
// default or an arity that permits absence.
func checkMxMember(spec *ArgumentSpec) error {
	if spec.Kind == KindPositional {
		return errors.NewDeclaration("field %s: positional arguments cannot join mutually exclusive groups", spec.Field)
	}
	if spec.Kind == KindFlag {
		return nil
	}
	switch {
	case spec.HasDefault:
	case spec.Arity == ArityOptionalSingle || spec.Arity == ArityZeroOrMore || spec.Arity == ArityAppend:
	default:
		return errors.NewDeclaration("field %s: arguments in mutually exclusive groups have to have a default", spec.Field)
	}
	return nil
}

// checkPositionals rejects ambiguous positional layouts: more than one
// variable-arity positional, or a required positional following one that may
// be absent.
func checkPositionals(rs *RecordSpec) error {
	positionals := rs.Positionals()
	variable := 0
	for _, p := range positionals {
		if p.Arity != AritySingle {
			variable++
		}
	}
	if variable > 1 {
		return errors.NewDeclaration("%s: at most one positional argument may have variable arity", rs.Type)
	}
	seenOptional := false
	for _, p := range positionals {
		if !p.Required && p.Arity != ArityZeroOrMore {
			seenOptional = true
		} else if p.Required && seenOptional {
			return errors.NewDeclaration(
				"%s: required positional %s cannot follow a non-required positional", rs.Type, p.Field)
		}
	}
	return nil
}

// checkOptionFields rejects compile options that reference fields the record
// (or its subcommand variants) does not declare.
func checkOptionFields(t reflect.Type, opts *Options) error {
	known := map[string]bool{}
	var walk func(t reflect.Type)
	walk = func(t reflect.Type) {
		for _, f := range common.FlattenFields(t) {
			known[f.Name] = true
			if f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct &&
				strings.HasPrefix(f.Tag.Get("arc"), "subcommand=") {
				walk(f.Type.Elem())
			}
		}
	}
	walk(t)

	check := func(names []string, what string) error {
		for _, n := range names {
			if !known[n] {
				return errors.NewDeclaration("%s for unknown field %s on %s", what, n, t)
			}
		}
		return nil
	}
	if err := check(mapFields(opts.Converters), "converter"); err != nil {
		return err
	}
	if err := check(mapFields(opts.Dicts), "dict"); err != nil {
		return err
	}
	return check(mapFields(opts.Defaults), "default")
}

func mapFields[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	return names
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
