package core

import (
	"strings"

	"github.com/Kuba314/arcparse/errors"
	"github.com/Kuba314/arcparse/internal/common"
)

// fieldSettings is the parsed form of a field's `arc`, `help` and `default`
// struct tags, before type resolution.
type fieldSettings struct {
	kind    string // "", "positional", "option", "flag", "noflag", "triflag", "subcommand"
	subName string

	short        string
	shortOnly    bool
	nameOverride string
	metavar      string

	appendMode bool
	atLeastOne bool

	choices []string

	mxGroup    string
	mxRequired bool

	optional bool // subcommand groups only
	skip     bool

	help       string
	defaultStr string
	hasDefault bool
}

var argKinds = map[string]bool{
	"positional": true,
	"option":     true,
	"flag":       true,
	"noflag":     true,
	"triflag":    true,
	"subcommand": true,
}

// parseFieldTags interprets a field's struct tags. The `arc` tag holds a
// comma-separated list whose first item may name the argument kind; `help`
// and `default` are separate tags as they commonly carry free-form text.
func parseFieldTags(f common.Field) (*fieldSettings, error) {
	s := &fieldSettings{help: f.Tag.Get("help")}
	if d, ok := f.Tag.Lookup("default"); ok {
		s.defaultStr = d
		s.hasDefault = true
	}

	tag := f.Tag.Get("arc")
	if tag == "-" {
		s.skip = true
		return s, nil
	}
	if tag == "" {
		return s, nil
	}

	for i, item := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		if i == 0 && argKinds[key] {
			s.kind = key
			if key == "subcommand" {
				if !hasValue || value == "" {
					return nil, errors.NewDeclaration("field %s: subcommand requires a name, e.g. `arc:\"subcommand=sync\"`", f.Name)
				}
				s.subName = value
			} else if hasValue {
				return nil, errors.NewDeclaration("field %s: kind %q takes no value", f.Name, key)
			}
			continue
		}

		switch key {
		case "short":
			if len(value) != 1 {
				return nil, errors.NewDeclaration("field %s: short form must be a single character, got %q", f.Name, value)
			}
			s.short = value
		case "short-only":
			s.shortOnly = true
		case "name":
			s.nameOverride = value
		case "metavar":
			s.metavar = value
		case "append":
			s.appendMode = true
		case "at-least-one":
			s.atLeastOne = true
		case "choices":
			s.choices = strings.Split(value, "|")
		case "mx":
			if value == "" {
				return nil, errors.NewDeclaration("field %s: mx requires a group name", f.Name)
			}
			s.mxGroup = value
		case "mx-required":
			s.mxRequired = true
		case "optional":
			s.optional = true
		default:
			return nil, errors.NewDeclaration("field %s: unrecognized arc tag item %q", f.Name, item)
		}
	}

	if s.shortOnly && s.short == "" {
		return nil, errors.NewDeclaration("field %s: short-only cannot be set without short", f.Name)
	}
	if s.appendMode && s.atLeastOne {
		return nil, errors.NewDeclaration("field %s: append is incompatible with at-least-one", f.Name)
	}
	if s.mxRequired && s.mxGroup == "" {
		return nil, errors.NewDeclaration("field %s: mx-required requires mx", f.Name)
	}
	return s, nil
}

// displayName computes the command-line name of an argument: the explicit
// override if given, otherwise the kebab-cased field name.
func (s *fieldSettings) displayName(fieldName string) string {
	if s.nameOverride != "" {
		return s.nameOverride
	}
	return common.KebabCase(fieldName)
}
