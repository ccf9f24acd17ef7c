package arcparse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/Kuba314/arcparse/core"
)

// osExit is swapped out in tests.
var osExit = os.Exit

// Parser is a compiled command-line parser for the record type T. Parsers are
// immutable and safe for concurrent use; every Parse invocation produces a
// fresh instance of T.
type Parser[T any] struct {
	spec *core.RecordSpec
	cfg  config
}

// Compile derives a parser from the record type's field declarations. All
// declaration problems are reported here; a parser that compiles cannot fail
// for structural reasons at parse time.
func Compile[T any](opts ...CompileOption) (*Parser[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.prog == "" {
		cfg.prog = filepath.Base(os.Args[0])
	}

	var (
		spec *core.RecordSpec
		err  error
	)
	if cfg.opts.Converters == nil && cfg.opts.Dicts == nil && cfg.opts.Defaults == nil {
		spec, err = core.CachedRecord(t)
	} else {
		spec, err = core.CompileRecord(t, &cfg.opts)
	}
	if err != nil {
		return nil, err
	}
	return &Parser[T]{spec: spec, cfg: cfg}, nil
}

// MustCompile is Compile, panicking on declaration errors. Suitable for
// package-level parser variables where a bad declaration should fail fast.
func MustCompile[T any](opts ...CompileOption) *Parser[T] {
	p, err := Compile[T](opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse runs the parser over the token sequence and returns a hydrated
// record. A nil args slice parses the process arguments. Help and version
// requests write their output and return ErrHelp or ErrVersion.
func (p *Parser[T]) Parse(args []string, opts ...ParseOption) (*T, error) {
	if args == nil {
		args = os.Args[1:]
	}
	pc := parseConfig{}
	for _, o := range opts {
		o(&pc)
	}

	overrides, err := core.ResolveOverrides(p.spec, pc.defaults)
	if err != nil {
		return nil, err
	}

	engine := &core.Engine{
		Spec:        p.spec,
		Prog:        p.cfg.prog,
		Description: p.cfg.description,
		Version:     p.cfg.version,
		HasVersion:  p.cfg.hasVersion,
	}
	res, err := engine.Run(args, overrides)
	if err != nil {
		return nil, err
	}

	out := reflect.New(p.spec.Type)
	if err := core.Hydrate(p.spec, res, out.Elem()); err != nil {
		return nil, err
	}
	return out.Interface().(*T), nil
}

// MustParse is Parse for program entry points: parse failures are written to
// stderr and exit the process with status 2, help and version requests exit
// with status 0.
func (p *Parser[T]) MustParse(args []string, opts ...ParseOption) *T {
	result, err := p.Parse(args, opts...)
	if err != nil {
		if errors.Is(err, ErrHelp) || errors.Is(err, ErrVersion) {
			osExit(0)
			return nil
		}
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", p.cfg.prog, err)
		osExit(2)
		return nil
	}
	return result
}

// Parse compiles the record type with default options and parses args in one
// step. The compiled spec is cached per type, so repeated calls do not
// recompile.
func Parse[T any](args []string, opts ...ParseOption) (*T, error) {
	p, err := Compile[T]()
	if err != nil {
		return nil, err
	}
	return p.Parse(args, opts...)
}

// MustParse is the entry-point form of Parse.
func MustParse[T any](args []string, opts ...ParseOption) *T {
	p, err := Compile[T]()
	if err != nil {
		panic(err)
	}
	return p.MustParse(args, opts...)
}
