package core

import (
	stderrs "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Kuba314/arcparse/display"
	"github.com/Kuba314/arcparse/errors"
)

// ErrHelp is returned from an embedded parse when the user requested help.
// The help text has already been written to the engine's output stream.
var ErrHelp = stderrs.New("help requested")

// ErrVersion is returned when the user requested the version banner, which
// has already been written to the engine's output stream.
var ErrVersion = stderrs.New("version requested")

// Engine adapts a compiled RecordSpec onto the cobra/pflag parsing engine.
// A fresh engine command tree is built for every parse invocation; the spec
// itself is never mutated, so one Engine may serve concurrent parses.
type Engine struct {
	Spec        *RecordSpec
	Prog        string
	Description string
	Version     string
	HasVersion  bool
}

// binding holds the raw parse state of one argument for a single invocation.
type binding struct {
	spec *ArgumentSpec

	raw []string // value tokens in supply order

	posVal  bool // --x storage for flags
	negVal  bool // --no-x storage for negated and tri-state flags
	posFlag *pflag.Flag
	negFlag *pflag.Flag
	valFlag *pflag.Flag
}

// supplied reports whether the user provided the argument on the command
// line.
func (b *binding) supplied() bool {
	if b.spec.Kind == KindPositional {
		return len(b.raw) > 0
	}
	if b.spec.Kind == KindFlag {
		return (b.posFlag != nil && b.posFlag.Changed) || (b.negFlag != nil && b.negFlag.Changed)
	}
	return b.valFlag != nil && b.valFlag.Changed
}

// ParseResult is the engine's flat outcome of one invocation: raw values per
// argument spec plus the chain of selected subcommand variants, root first.
type ParseResult struct {
	bindings  map[*ArgumentSpec]*binding
	selected  []*Variant
	overrides map[*ArgumentSpec]reflect.Value
	help      bool
}

func (r *ParseResult) binding(spec *ArgumentSpec) *binding {
	b, ok := r.bindings[spec]
	if !ok {
		b = &binding{spec: spec}
		r.bindings[spec] = b
	}
	return b
}

func (r *ParseResult) override(spec *ArgumentSpec) (reflect.Value, bool) {
	v, ok := r.overrides[spec]
	return v, ok
}

// satisfiableAbsent reports whether an argument may be left out of this
// invocation without error.
func (r *ParseResult) satisfiableAbsent(spec *ArgumentSpec) bool {
	if _, ok := r.override(spec); ok {
		return true
	}
	return !spec.Required
}

// rawValue is the pflag.Value registered for every value argument: it
// captures tokens verbatim, conversion happens after the engine finishes.
type rawValue struct {
	b   *binding
	def string
}

func (r *rawValue) Set(s string) error { r.b.raw = append(r.b.raw, s); return nil }
func (r *rawValue) String() string     { return r.def }
func (r *rawValue) Type() string       { return r.b.spec.Metavar }

// Run executes the engine against the token sequence. Overrides replace
// compiled defaults prior to parsing and lift the required constraint from
// the arguments they cover.
func (e *Engine) Run(args []string, overrides map[*ArgumentSpec]reflect.Value) (*ParseResult, error) {
	res := &ParseResult{
		bindings:  map[*ArgumentSpec]*binding{},
		overrides: overrides,
	}

	root := e.build(e.Spec, e.Prog, nil, res)
	root.CompletionOptions.DisableDefaultCmd = true
	if e.Description != "" {
		short := e.Description
		if idx := strings.IndexByte(short, '.'); idx > 0 {
			short = short[:idx]
		}
		root.Short = short
		root.Long = e.Description
	}
	if e.HasVersion {
		root.Version = e.Version
		root.SetVersionTemplate(display.Version(e.Prog, e.Version) + "\n")
	}
	root.SetHelpFunc(func(c *cobra.Command, _ []string) {
		res.help = true
		if c.Long != "" {
			fmt.Fprintln(c.OutOrStdout(), c.Long)
			fmt.Fprintln(c.OutOrStdout())
		}
		fmt.Fprint(c.OutOrStdout(), c.UsageString())
	})

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		// Flags are parsed before the engine reports group violations, so
		// our own group check can produce the typed error directly. Required
		// groups are left out here: an unrelated engine failure must not be
		// masked by a group that was legitimately left empty.
		if mxErr := e.checkGroups(res, false); mxErr != nil {
			return nil, mxErr
		}
		return nil, translateEngineError(err)
	}
	if res.help {
		return nil, ErrHelp
	}
	if f := root.Flags().Lookup("version"); f != nil && f.Changed {
		return nil, ErrVersion
	}
	if err := e.checkGroups(res, true); err != nil {
		return nil, err
	}
	return res, nil
}

// build constructs the engine-native command for one record, recursing into
// subcommand variants. chain is the variant path from the root to this
// record.
func (e *Engine) build(rs *RecordSpec, name string, chain []*Variant, res *ParseResult) *cobra.Command {
	posArgs := displayArgs(rs, res)

	cmd := &cobra.Command{
		Use:           display.UseLine(name, posArgs, rs.Sub != nil, rs.Sub != nil && rs.Sub.Optional),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,

		SuggestionsMinimumDistance: 2,

		RunE: func(c *cobra.Command, args []string) error {
			res.selected = chain
			return e.consume(rs, res, c, args)
		},
	}
	cmd.SetUsageTemplate(display.UsageTemplate(posArgs))

	for _, spec := range rs.Args {
		if spec.Kind != KindPositional {
			e.register(cmd, spec, res)
		}
	}
	for _, g := range rs.Groups {
		names := make([]string, 0, len(g.Members))
		for _, member := range g.Members {
			names = append(names, flagName(rs.argByField(member)))
		}
		cmd.MarkFlagsMutuallyExclusive(names...)
		if g.Required {
			cmd.MarkFlagsOneRequired(names...)
		}
	}

	if rs.Sub != nil {
		for _, v := range rs.Sub.Variants {
			child := e.build(v.Spec, v.Name, append(append([]*Variant{}, chain...), v), res)
			cmd.AddCommand(child)
		}
	}
	return cmd
}

// flagName is the long spelling an argument registers under: its display
// name, the negated form for store-false flags, or the short form when the
// argument is short-only.
func flagName(spec *ArgumentSpec) string {
	switch {
	case spec.Negated:
		return "no-" + spec.Display
	case spec.ShortOnly:
		return spec.Short
	default:
		return spec.Display
	}
}

// register adds one option or flag to the command's persistent flag set.
// Persistent registration lets the engine accept ancestor arguments on
// either side of a subcommand token.
func (e *Engine) register(cmd *cobra.Command, spec *ArgumentSpec, res *ParseResult) {
	fs := cmd.PersistentFlags()
	b := res.binding(spec)
	name := flagName(spec)

	if spec.Kind == KindFlag {
		if spec.TriState {
			fs.BoolVarP(&b.posVal, spec.Display, spec.Short, false, spec.Help)
			fs.BoolVar(&b.negVal, "no-"+spec.Display, false, spec.Help)
			b.posFlag = fs.Lookup(spec.Display)
			b.negFlag = fs.Lookup("no-" + spec.Display)
			cmd.MarkFlagsMutuallyExclusive(spec.Display, "no-"+spec.Display)
			return
		}
		if spec.Negated {
			fs.BoolVarP(&b.negVal, name, spec.Short, false, spec.Help)
			b.negFlag = fs.Lookup(name)
			return
		}
		fs.BoolVarP(&b.posVal, name, spec.Short, false, spec.Help)
		b.posFlag = fs.Lookup(name)
		return
	}

	fs.VarP(&rawValue{b: b, def: defaultText(spec)}, name, spec.Short, optionHelp(spec))
	b.valFlag = fs.Lookup(name)
	if spec.Required {
		if _, overridden := res.override(spec); !overridden {
			cmd.MarkPersistentFlagRequired(name)
		}
	}
}

// optionHelp composes the help string the engine renders for an option,
// appending the choice set since the engine does not know about choices.
func optionHelp(spec *ArgumentSpec) string {
	help := spec.Help
	if len(spec.Choices) > 0 {
		note := fmt.Sprintf("(one of: %s)", strings.Join(spec.Choices, ", "))
		if help == "" {
			return note
		}
		return help + " " + note
	}
	return help
}

// defaultText is the default the engine shows in flag usage listings.
func defaultText(spec *ArgumentSpec) string {
	if !spec.HasDefault || spec.Arity.Multiple() {
		return ""
	}
	v := spec.Default
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	return fmt.Sprintf("%v", v.Interface())
}

// consume runs after the engine parsed flags and dispatched subcommands: it
// distributes the remaining tokens over the record's positionals, or rejects
// them when the record expected a subcommand instead.
func (e *Engine) consume(rs *RecordSpec, res *ParseResult, c *cobra.Command, args []string) error {
	if rs.Sub != nil {
		if len(args) > 0 {
			var suggestion string
			if s := c.SuggestionsFor(args[0]); len(s) > 0 {
				suggestion = s[0]
			}
			return errors.NewUnknownSubcommand(args[0], suggestion)
		}
		if !rs.Sub.Optional {
			return errors.NewMissingArgument("command")
		}
		return nil
	}
	return e.distribute(rs, res, args)
}

// distribute assigns positional tokens by arity: fixed positionals before a
// variable-arity one take one token each, the variable one takes what
// remains up to the trailing fixed positionals.
func (e *Engine) distribute(rs *RecordSpec, res *ParseResult, args []string) error {
	pos := rs.Positionals()

	varIdx := -1
	fixed := 0
	for i, p := range pos {
		if p.Arity == AritySingle && !posOptional(p, res) {
			fixed++
		} else if varIdx == -1 {
			varIdx = i
		}
	}

	extra := len(args) - fixed
	if extra < 0 {
		// Name the first positional that cannot be satisfied.
		avail := len(args)
		for i, p := range pos {
			if i == varIdx {
				continue
			}
			if avail == 0 {
				return errors.NewMissingArgument(p.Metavar)
			}
			avail--
		}
		return errors.NewMissingArgument(pos[len(pos)-1].Metavar)
	}

	idx := 0
	for i, p := range pos {
		b := res.binding(p)
		if i != varIdx {
			if idx < len(args) {
				b.raw = args[idx : idx+1]
				idx++
			}
			continue
		}
		switch p.Arity {
		case ArityZeroOrMore, ArityOneOrMore:
			b.raw = args[idx : idx+extra]
			idx += extra
			if p.Arity == ArityOneOrMore && len(b.raw) == 0 && !res.satisfiableAbsent(p) {
				return errors.NewMissingArgument(p.Metavar)
			}
		default: // a single positional that may be absent
			if extra > 0 {
				b.raw = args[idx : idx+1]
				idx++
				extra--
			}
		}
		extra = len(args) - idx - remainingFixed(pos[i+1:], res)
	}
	if idx < len(args) {
		return errors.NewParseError("unrecognized arguments: %s", strings.Join(args[idx:], " "))
	}
	return nil
}

func posOptional(p *ArgumentSpec, res *ParseResult) bool {
	if p.Arity != AritySingle {
		return true
	}
	return res.satisfiableAbsent(p)
}

func remainingFixed(pos []*ArgumentSpec, res *ParseResult) int {
	n := 0
	for _, p := range pos {
		if p.Arity == AritySingle && !posOptional(p, res) {
			n++
		}
	}
	return n
}

// checkGroups enforces mutual exclusion and required groups over every
// record level involved in the invocation, including tri-state flag pairs.
func (e *Engine) checkGroups(res *ParseResult, required bool) error {
	for _, rs := range e.activeRecords(res) {
		for _, spec := range rs.Args {
			if !spec.TriState {
				continue
			}
			b := res.binding(spec)
			if b.posFlag != nil && b.posFlag.Changed && b.negFlag != nil && b.negFlag.Changed {
				return errors.NewMutuallyExclusive("--"+spec.Display, "--no-"+spec.Display)
			}
		}
		for _, g := range rs.Groups {
			var set []string
			for _, member := range g.Members {
				spec := rs.argByField(member)
				if res.binding(spec).supplied() {
					set = append(set, "--"+flagName(spec))
				}
			}
			if len(set) > 1 {
				return errors.NewMutuallyExclusive(set...)
			}
			if required && g.Required && len(set) == 0 {
				names := make([]string, 0, len(g.Members))
				for _, member := range g.Members {
					names = append(names, "--"+flagName(rs.argByField(member)))
				}
				return errors.NewParseError("one of the arguments %s is required", strings.Join(names, ", "))
			}
		}
	}
	return nil
}

// activeRecords returns the record specs touched by this invocation: the
// root and the selected variant chain.
func (e *Engine) activeRecords(res *ParseResult) []*RecordSpec {
	records := []*RecordSpec{e.Spec}
	for _, v := range res.selected {
		records = append(records, v.Spec)
	}
	return records
}

// translateEngineError maps the engine's parse failures onto the error
// taxonomy, passing our own typed errors through untouched.
func translateEngineError(err error) error {
	var (
		decl    errors.DeclarationError
		unsupp  errors.UnsupportedTypeError
		value   errors.InvalidValueError
		choice  errors.InvalidChoiceError
		mutex   errors.MutuallyExclusiveViolationError
		missing errors.MissingArgumentError
		unknown errors.UnknownSubcommandError
		parse   errors.ParseError
	)
	switch {
	case stderrs.As(err, &decl), stderrs.As(err, &unsupp), stderrs.As(err, &value),
		stderrs.As(err, &choice), stderrs.As(err, &mutex), stderrs.As(err, &missing),
		stderrs.As(err, &unknown), stderrs.As(err, &parse):
		return err
	}

	msg := err.Error()

	// pflag: flag.go: fmt.Errorf("required flag(s) \"x\" not set")
	if strings.Contains(msg, "required flag(s)") {
		if name := firstQuoted(msg); name != "" {
			return errors.NewMissingArgument("--" + name)
		}
		return errors.NewMissingArgument(msg)
	}

	return errors.NewParseError("%s", msg)
}

func firstQuoted(s string) string {
	if i := strings.IndexByte(s, '"'); i >= 0 {
		if j := strings.IndexByte(s[i+1:], '"'); j >= 0 {
			return s[i+1 : i+1+j]
		}
	}
	return ""
}

// displayArgs converts a record's positionals to their display shape.
func displayArgs(rs *RecordSpec, res *ParseResult) []display.Argument {
	var out []display.Argument
	for _, p := range rs.Positionals() {
		out = append(out, display.Argument{
			Metavar:  p.Metavar,
			Required: !posOptional(p, res),
			Multiple: p.Arity.Multiple(),
			AtLeast1: p.Arity == ArityOneOrMore,
			Help:     p.Help,
			Choices:  p.Choices,
		})
	}
	return out
}
