package errors

import (
	"fmt"
	"strings"
)

// DeclarationError is a programmer error in a record declaration: conflicting
// positional ordering, duplicate short forms, invalid mutex group membership,
// subcommand name collisions and the like. It is reported when the record is
// compiled, never at parse time.
type DeclarationError struct{ Msg string }

func (e DeclarationError) Error() string { return e.Msg }

// UnsupportedTypeError indicates that no arity or converter could be derived
// for a declared field type.
type UnsupportedTypeError struct{ Field, Type string }

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type for field %s: %s", e.Field, e.Type)
}

// InvalidValueError indicates user input that a converter rejected. It carries
// the original conversion failure message.
type InvalidValueError struct {
	Arg   string
	Value string
	Msg   string
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Arg, e.Msg)
}

// InvalidChoiceError indicates user input outside an argument's closed set of
// permitted values.
type InvalidChoiceError struct {
	Arg     string
	Value   string
	Choices []string
}

func (e InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %q for %s (choose from %s)", e.Value, e.Arg, strings.Join(e.Choices, ", "))
}

// MutuallyExclusiveViolationError indicates that more than one member of a
// mutually exclusive group was supplied.
type MutuallyExclusiveViolationError struct{ Args []string }

func (e MutuallyExclusiveViolationError) Error() string {
	return fmt.Sprintf("arguments %s are mutually exclusive", strings.Join(e.Args, ", "))
}

// MissingArgumentError indicates a required argument was not provided.
type MissingArgumentError struct{ Arg string }

func (e MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument: %s", e.Arg)
}

// UnknownSubcommandError indicates the user invoked a subcommand that does not
// exist. Suggestion, if present, is a close match the user may have intended.
type UnknownSubcommandError struct{ Name, Suggestion string }

func (e UnknownSubcommandError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown subcommand: %s (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown subcommand: %s", e.Name)
}

// ParseError is a generic run-time parsing error surfaced by the engine, e.g.
// an unknown flag. It is intended for user-facing messages.
type ParseError struct{ Msg string }

func (e ParseError) Error() string { return e.Msg }

// Helper constructors
func NewDeclaration(format string, args ...any) error {
	return DeclarationError{Msg: fmt.Sprintf(format, args...)}
}
func NewUnsupportedType(field, typ string) error {
	return UnsupportedTypeError{Field: field, Type: typ}
}
func NewInvalidValue(arg, value, msg string) error {
	return InvalidValueError{Arg: arg, Value: value, Msg: msg}
}
func NewInvalidChoice(arg, value string, choices []string) error {
	return InvalidChoiceError{Arg: arg, Value: value, Choices: choices}
}
func NewMutuallyExclusive(args ...string) error {
	return MutuallyExclusiveViolationError{Args: args}
}
func NewMissingArgument(arg string) error { return MissingArgumentError{Arg: arg} }
func NewUnknownSubcommand(name, suggestion string) error {
	return UnknownSubcommandError{Name: name, Suggestion: suggestion}
}
func NewParseError(format string, args ...any) error {
	return ParseError{Msg: fmt.Sprintf(format, args...)}
}
