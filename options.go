package arcparse

import (
	"reflect"

	"github.com/Kuba314/arcparse/core"
	"github.com/Kuba314/arcparse/errors"
)

type config struct {
	prog        string
	description string
	version     string
	hasVersion  bool
	opts        core.Options
}

// CompileOption customizes parser compilation.
type CompileOption func(*config)

// WithProg overrides the program name shown in usage and version output. The
// default is the process executable name.
func WithProg(name string) CompileOption {
	return func(c *config) { c.prog = name }
}

// WithDescription sets the program description rendered above the help text.
func WithDescription(desc string) CompileOption {
	return func(c *config) { c.description = desc }
}

// WithVersion enables the --version flag. An empty version string reports the
// main module's build version.
func WithVersion(version string) CompileOption {
	return func(c *config) {
		c.version = version
		c.hasVersion = true
	}
}

// WithConverter attaches an explicit converter to the named field, overriding
// converter derivation from its type. Conversion failures surface as
// InvalidValueError carrying the converter's message.
func WithConverter[V any](field string, conv func(string) (V, error)) CompileOption {
	return func(c *config) {
		if c.opts.Converters == nil {
			c.opts.Converters = map[string]core.ConvertFunc{}
		}
		c.opts.Converters[field] = func(raw string) (reflect.Value, error) {
			v, err := conv(raw)
			if err != nil {
				return reflect.Value{}, errors.NewInvalidValue(field, raw, err.Error())
			}
			return reflect.ValueOf(v), nil
		}
	}
}

// WithDict constrains the named field to the dict's keys and converts each
// key to its mapped value. The keys become the field's choices.
func WithDict[V any](field string, dict map[string]V) CompileOption {
	return func(c *config) {
		if c.opts.Dicts == nil {
			c.opts.Dicts = map[string]map[string]any{}
		}
		m := make(map[string]any, len(dict))
		for k, v := range dict {
			m[k] = v
		}
		c.opts.Dicts[field] = m
	}
}

// WithDefault attaches a typed default to the named field, lifting its
// required constraint. For dict fields the value must be one of the dict's
// mapped values.
func WithDefault(field string, value any) CompileOption {
	return func(c *config) {
		if c.opts.Defaults == nil {
			c.opts.Defaults = map[string]any{}
		}
		c.opts.Defaults[field] = value
	}
}

type parseConfig struct {
	defaults map[string]any
}

// ParseOption customizes a single parse invocation.
type ParseOption func(*parseConfig)

// WithDefaults overrides argument defaults for one invocation, keyed by
// field name. Overridden arguments are no longer required; string values go
// through the field's converter, other values must be assignable to the
// field.
func WithDefaults(defaults map[string]any) ParseOption {
	return func(c *parseConfig) {
		if c.defaults == nil {
			c.defaults = map[string]any{}
		}
		for k, v := range defaults {
			c.defaults[k] = v
		}
	}
}
