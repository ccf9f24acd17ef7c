package arcparse

import "github.com/Kuba314/arcparse/core"

// Enumerated is implemented by argument types with a closed set of valid
// string forms; see the core package.
type Enumerated = core.Enumerated

// Sentinel results of MustParse-style entry points; see the core package.
var (
	ErrHelp    = core.ErrHelp
	ErrVersion = core.ErrVersion
)

// Selected reports which subcommand variant a parsed record carries: the
// variant's declared name and its non-nil value. ok is false when the record
// declares no subcommands or none was selected.
func Selected(record any) (name string, cmd any, ok bool) {
	return core.Selected(record)
}
