// Package arcparse derives command-line parsers from struct declarations.
//
// A record struct describes the full argument surface of a program: field
// types pick the argument shape (a plain field is a required value, a
// pointer is optional, a slice repeats, a bool is a flag) and `arc` struct
// tags refine it with short forms, choices, mutual exclusion groups and
// subcommands. Compiling the record yields a reusable parser whose results
// are typed instances of the same struct:
//
//	type Args struct {
//	    Path  string   `arc:"positional" help:"input file"`
//	    Depth int      `arc:"short=d" default:"3"`
//	    Tags  []string `help:"tags to apply"`
//	    Quiet bool     `arc:"short=q"`
//	}
//
//	args, err := arcparse.Parse[Args](os.Args[1:])
//
// Subcommands are pointer fields tagged `arc:"subcommand=<name>"`; exactly
// one of them is non-nil after a parse, inspectable with Selected. Embedded
// structs contribute their fields to the record, letting related programs
// share common argument blocks.
package arcparse
