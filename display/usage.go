package display

import (
	"fmt"
	"strings"
)

// Argument is the display shape of one positional argument. Rendering of
// options and flags is left entirely to the engine; positionals are the one
// section the engine does not know about.
type Argument struct {
	Metavar  string
	Required bool
	Multiple bool
	AtLeast1 bool
	Help     string
	Choices  []string
}

// Token renders the argument's occurrence in the usage line, argparse-style:
// PATH, [PATH], TAGS [TAGS ...] or [TAGS ...].
func (a Argument) Token() string {
	switch {
	case a.Multiple && a.AtLeast1:
		return fmt.Sprintf("%s [%s ...]", a.Metavar, a.Metavar)
	case a.Multiple:
		return fmt.Sprintf("[%s ...]", a.Metavar)
	case a.Required:
		return a.Metavar
	default:
		return fmt.Sprintf("[%s]", a.Metavar)
	}
}

// UseLine builds the engine's Use string for a command: its name followed by
// the positional signature, or a command placeholder when variants exist.
func UseLine(name string, args []Argument, subcommands bool, subOptional bool) string {
	parts := []string{name}
	for _, a := range args {
		parts = append(parts, a.Token())
	}
	if subcommands {
		if subOptional {
			parts = append(parts, "[command]")
		} else {
			parts = append(parts, "<command>")
		}
	}
	return strings.Join(parts, " ")
}

// usageTemplate is the engine's stock usage template with an Arguments
// section spliced in between the usage line and the command listing.
const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}%s{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

// UsageTemplate renders the usage template for a command with the given
// positional arguments. The argument lines are embedded literally; the rest
// of the rendering stays with the engine.
func UsageTemplate(args []Argument) string {
	return fmt.Sprintf(usageTemplate, argumentsSection(args))
}

func argumentsSection(args []Argument) string {
	if len(args) == 0 {
		return ""
	}

	lines := make([][2]string, 0, len(args))
	maxLen := 0
	for _, a := range args {
		help := a.Help
		if len(a.Choices) > 0 {
			note := fmt.Sprintf("(one of: %s)", strings.Join(a.Choices, ", "))
			if help == "" {
				help = note
			} else {
				help += " " + note
			}
		}
		if len(a.Token()) > maxLen {
			maxLen = len(a.Token())
		}
		lines = append(lines, [2]string{a.Token(), help})
	}

	var b strings.Builder
	b.WriteString("\n\nArguments:")
	for _, line := range lines {
		padding := strings.Repeat(" ", maxLen-len(line[0]))
		b.WriteString(fmt.Sprintf("\n  %s%s  %s", line[0], padding, strings.TrimRight(line[1], " ")))
	}
	return b.String()
}
