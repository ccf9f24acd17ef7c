package core

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind discriminates how an argument is supplied on the command line.
type Kind int

const (
	KindPositional Kind = iota
	KindOption
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindPositional:
		return "positional"
	case KindOption:
		return "option"
	case KindFlag:
		return "flag"
	}
	return "unknown"
}

// Arity describes how many tokens or occurrences an argument consumes.
type Arity int

const (
	AritySingle Arity = iota
	ArityOptionalSingle
	ArityZeroOrMore
	ArityOneOrMore
	ArityAppend
)

func (a Arity) String() string {
	switch a {
	case AritySingle:
		return "single"
	case ArityOptionalSingle:
		return "optional-single"
	case ArityZeroOrMore:
		return "zero-or-more"
	case ArityOneOrMore:
		return "one-or-more"
	case ArityAppend:
		return "append"
	}
	return "unknown"
}

// Multiple reports whether the arity yields a slice of values.
func (a Arity) Multiple() bool {
	return a == ArityZeroOrMore || a == ArityOneOrMore || a == ArityAppend
}

// ConvertFunc converts a single raw token into a value of the argument's
// element type.
type ConvertFunc func(string) (reflect.Value, error)

// ArgumentSpec describes one declared argument. Specs are immutable once
// compiled and shared by every parse invocation of the record type.
type ArgumentSpec struct {
	// Field is the declared Go field name; Path locates it in the record
	// struct after embedded-base flattening.
	Field string
	Path  []int

	Kind  Kind
	Arity Arity

	// Display is the command-line name without dashes: the kebab-cased field
	// name or an explicit override. Options and flags are supplied as
	// "--<Display>".
	Display string
	Metavar string

	Short     string
	ShortOnly bool

	// Negated marks a store-false flag registered as "--no-<Display>".
	// TriState marks a *bool argument registering both "--x" and "--no-x".
	Negated  bool
	TriState bool

	Required   bool
	HasDefault bool
	Default    reflect.Value

	Choices []string
	Convert ConvertFunc

	Help    string
	MxGroup string

	// Type is the declared field type; Elem the element type values are
	// converted to (slice element or pointee for optional scalars).
	Type reflect.Type
	Elem reflect.Type
}

// Flags returns the command-line spellings of the argument, e.g.
// ["--clone" "--no-clone"] for a tri-state flag.
func (a *ArgumentSpec) Flags() []string {
	switch {
	case a.Kind == KindPositional:
		return nil
	case a.TriState:
		return []string{"--" + a.Display, "--no-" + a.Display}
	case a.Negated:
		return []string{"--no-" + a.Display}
	default:
		return []string{"--" + a.Display}
	}
}

// MutexGroup identifies a set of arguments that are mutually exclusive at the
// engine level. Membership validity (every member satisfiable absent) is
// enforced at compile time.
type MutexGroup struct {
	Name     string
	Required bool
	Members  []string // field names in declaration order
}

// Variant is one alternative record type of a subcommand group, bound to a
// command-line name.
type Variant struct {
	Name string
	Path []int
	Type reflect.Type // the variant struct type (pointee of the field)
	Spec *RecordSpec
}

// SubcommandSpec is the compiled shape of a record's subcommand group: every
// field declared as `arc:"subcommand=<name>"`. At most one variant is
// selected per parse; omission is permitted only when Optional.
type SubcommandSpec struct {
	Optional bool
	Variants []*Variant
}

func (s *SubcommandSpec) variantNamed(name string) *Variant {
	for _, v := range s.Variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Names returns the variant names in declaration order.
func (s *SubcommandSpec) Names() []string {
	names := make([]string, len(s.Variants))
	for i, v := range s.Variants {
		names[i] = v.Name
	}
	return names
}

// RecordSpec is the compiled shape of one declared record type: its argument
// specs in declaration order (inherited before own), mutex groups, and an
// optional subcommand group.
type RecordSpec struct {
	Type   reflect.Type
	Args   []*ArgumentSpec
	Groups []*MutexGroup
	Sub    *SubcommandSpec
}

func (r *RecordSpec) group(name string) *MutexGroup {
	for _, g := range r.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (r *RecordSpec) argByField(field string) *ArgumentSpec {
	for _, a := range r.Args {
		if a.Field == field {
			return a
		}
	}
	return nil
}

// Positionals returns the positional argument specs in consumption order.
func (r *RecordSpec) Positionals() []*ArgumentSpec {
	var out []*ArgumentSpec
	for _, a := range r.Args {
		if a.Kind == KindPositional {
			out = append(out, a)
		}
	}
	return out
}

// Describe renders a stable, converter-free summary of the compiled spec.
// Two compilations of the same record type produce identical descriptions;
// tests rely on this for equivalence checks.
func (r *RecordSpec) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "record %s\n", r.Type)
	for _, a := range r.Args {
		fmt.Fprintf(&b, "  %s %s kind=%s arity=%s", a.Field, a.Display, a.Kind, a.Arity)
		if a.Short != "" {
			fmt.Fprintf(&b, " short=%s", a.Short)
		}
		if a.ShortOnly {
			b.WriteString(" short-only")
		}
		if a.Negated {
			b.WriteString(" negated")
		}
		if a.TriState {
			b.WriteString(" tri-state")
		}
		if a.Required {
			b.WriteString(" required")
		}
		if a.HasDefault {
			fmt.Fprintf(&b, " default=%v", a.Default)
		}
		if len(a.Choices) > 0 {
			fmt.Fprintf(&b, " choices=%s", strings.Join(a.Choices, "|"))
		}
		if a.MxGroup != "" {
			fmt.Fprintf(&b, " mx=%s", a.MxGroup)
		}
		b.WriteByte('\n')
	}
	groups := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		req := ""
		if g.Required {
			req = " required"
		}
		groups = append(groups, fmt.Sprintf("  group %s%s: %s\n", g.Name, req, strings.Join(g.Members, ", ")))
	}
	sort.Strings(groups)
	for _, g := range groups {
		b.WriteString(g)
	}
	if r.Sub != nil {
		opt := ""
		if r.Sub.Optional {
			opt = " optional"
		}
		fmt.Fprintf(&b, "  subcommands%s:\n", opt)
		for _, v := range r.Sub.Variants {
			fmt.Fprintf(&b, "   %s ->\n", v.Name)
			for _, line := range strings.Split(v.Spec.Describe(), "\n") {
				if line != "" {
					fmt.Fprintf(&b, "    %s\n", line)
				}
			}
		}
	}
	return b.String()
}
