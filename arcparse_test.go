package arcparse_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuba314/arcparse"
	arcerrors "github.com/Kuba314/arcparse/errors"
)

func TestRoundTrip(t *testing.T) {
	type args struct {
		Path string `arc:"positional"`
		Opt  string `default:"foo"`
	}

	got, err := arcparse.Parse[args]([]string{"input.txt"})
	require.NoError(t, err)
	assert.Equal(t, "input.txt", got.Path)
	assert.Equal(t, "foo", got.Opt)

	got, err = arcparse.Parse[args]([]string{"input.txt", "--opt", "bar"})
	require.NoError(t, err)
	assert.Equal(t, "bar", got.Opt)
}

func TestRequiredOptionMissing(t *testing.T) {
	type args struct {
		Out string
	}
	_, err := arcparse.Parse[args]([]string{})
	var missing arcerrors.MissingArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "--out", missing.Arg)
}

func TestRequiredPositionalMissing(t *testing.T) {
	type args struct {
		Path string `arc:"positional"`
	}
	_, err := arcparse.Parse[args]([]string{})
	var missing arcerrors.MissingArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "PATH", missing.Arg)
}

func TestUnknownFlag(t *testing.T) {
	type args struct {
		Verbose bool
	}
	_, err := arcparse.Parse[args]([]string{"--nope"})
	var parseErr arcerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestExtraPositionalsRejected(t *testing.T) {
	type args struct {
		A string `arc:"positional"`
	}
	_, err := arcparse.Parse[args]([]string{"a", "b"})
	var parseErr arcerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "unrecognized arguments: b")
}

func TestOptionalValue(t *testing.T) {
	type args struct {
		Num *int
	}

	got, err := arcparse.Parse[args]([]string{})
	require.NoError(t, err)
	assert.Nil(t, got.Num)

	got, err = arcparse.Parse[args]([]string{"--num", "4"})
	require.NoError(t, err)
	require.NotNil(t, got.Num)
	assert.Equal(t, 4, *got.Num)
}

func TestFlagShortForm(t *testing.T) {
	type args struct {
		Verbose bool `arc:"short=v"`
	}

	got, err := arcparse.Parse[args]([]string{"-v"})
	require.NoError(t, err)
	assert.True(t, got.Verbose)

	got, err = arcparse.Parse[args]([]string{})
	require.NoError(t, err)
	assert.False(t, got.Verbose)
}

func TestFlagExplicitValue(t *testing.T) {
	type args struct {
		Verbose bool
		Cache   bool `arc:"noflag"`
	}

	got, err := arcparse.Parse[args]([]string{"--verbose=false"})
	require.NoError(t, err)
	assert.False(t, got.Verbose)

	got, err = arcparse.Parse[args]([]string{"--verbose=true"})
	require.NoError(t, err)
	assert.True(t, got.Verbose)

	// Explicitly negating a store-false flag leaves the field set.
	got, err = arcparse.Parse[args]([]string{"--no-cache=false"})
	require.NoError(t, err)
	assert.True(t, got.Cache)

	got, err = arcparse.Parse[args]([]string{"--no-cache=true"})
	require.NoError(t, err)
	assert.False(t, got.Cache)
}

func TestStoreFalseFlag(t *testing.T) {
	type args struct {
		Cache bool `arc:"noflag"`
	}

	got, err := arcparse.Parse[args]([]string{})
	require.NoError(t, err)
	assert.True(t, got.Cache)

	got, err = arcparse.Parse[args]([]string{"--no-cache"})
	require.NoError(t, err)
	assert.False(t, got.Cache)
}

func TestTriStateFlag(t *testing.T) {
	type args struct {
		Clone *bool
	}

	got, err := arcparse.Parse[args]([]string{})
	require.NoError(t, err)
	assert.Nil(t, got.Clone)

	got, err = arcparse.Parse[args]([]string{"--clone"})
	require.NoError(t, err)
	require.NotNil(t, got.Clone)
	assert.True(t, *got.Clone)

	got, err = arcparse.Parse[args]([]string{"--no-clone"})
	require.NoError(t, err)
	require.NotNil(t, got.Clone)
	assert.False(t, *got.Clone)

	got, err = arcparse.Parse[args]([]string{"--clone=false"})
	require.NoError(t, err)
	require.NotNil(t, got.Clone)
	assert.False(t, *got.Clone)

	got, err = arcparse.Parse[args]([]string{"--no-clone=false"})
	require.NoError(t, err)
	require.NotNil(t, got.Clone)
	assert.True(t, *got.Clone)

	_, err = arcparse.Parse[args]([]string{"--clone", "--no-clone"})
	var mx arcerrors.MutuallyExclusiveViolationError
	require.ErrorAs(t, err, &mx)
	assert.ElementsMatch(t, []string{"--clone", "--no-clone"}, mx.Args)

	// Overrides fill a tri-state flag the user left untouched.
	got, err = arcparse.Parse[args]([]string{}, arcparse.WithDefaults(map[string]any{"Clone": true}))
	require.NoError(t, err)
	require.NotNil(t, got.Clone)
	assert.True(t, *got.Clone)
}

func TestRepeatableOption(t *testing.T) {
	type args struct {
		Tags []string
	}

	got, err := arcparse.Parse[args]([]string{})
	require.NoError(t, err)
	require.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)

	got, err = arcparse.Parse[args]([]string{"--tags", "a", "--tags", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
}

func TestAppendOption(t *testing.T) {
	type args struct {
		Vals []int `arc:"append"`
	}
	got, err := arcparse.Parse[args]([]string{"--vals", "1", "--vals", "2"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.Vals)
}

func TestAtLeastOnePositional(t *testing.T) {
	type args struct {
		Files []string `arc:"positional,at-least-one"`
	}

	_, err := arcparse.Parse[args]([]string{})
	var missing arcerrors.MissingArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "FILES", missing.Arg)

	got, err := arcparse.Parse[args]([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Files)
}

func TestPositionalDistribution(t *testing.T) {
	type args struct {
		First  string   `arc:"positional"`
		Middle []string `arc:"positional"`
		Last   string   `arc:"positional"`
	}

	got, err := arcparse.Parse[args]([]string{"1", "2", "3", "4"})
	require.NoError(t, err)
	assert.Equal(t, "1", got.First)
	assert.Equal(t, []string{"2", "3"}, got.Middle)
	assert.Equal(t, "4", got.Last)

	got, err = arcparse.Parse[args]([]string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, "1", got.First)
	assert.Empty(t, got.Middle)
	assert.Equal(t, "2", got.Last)
}

func TestDoubleDashTerminator(t *testing.T) {
	type args struct {
		A string `arc:"positional"`
	}
	got, err := arcparse.Parse[args]([]string{"--", "--weird"})
	require.NoError(t, err)
	assert.Equal(t, "--weird", got.A)
}

func TestRepeatedSingleOptionLastWins(t *testing.T) {
	type args struct {
		Out string
	}
	got, err := arcparse.Parse[args]([]string{"--out", "a", "--out", "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", got.Out)
}

func TestMutuallyExclusiveGroup(t *testing.T) {
	type args struct {
		JSON bool `arc:"flag,mx=format"`
		YAML bool `arc:"flag,mx=format"`
	}

	got, err := arcparse.Parse[args]([]string{"--json"})
	require.NoError(t, err)
	assert.True(t, got.JSON)
	assert.False(t, got.YAML)

	_, err = arcparse.Parse[args]([]string{"--json", "--yaml"})
	var mx arcerrors.MutuallyExclusiveViolationError
	require.ErrorAs(t, err, &mx)
	assert.ElementsMatch(t, []string{"--json", "--yaml"}, mx.Args)
}

func TestRequiredMutexGroup(t *testing.T) {
	type args struct {
		JSON bool `arc:"flag,mx=format,mx-required"`
		YAML bool `arc:"flag,mx=format"`
	}

	_, err := arcparse.Parse[args]([]string{})
	var parseErr arcerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "required")

	got, err := arcparse.Parse[args]([]string{"--yaml"})
	require.NoError(t, err)
	assert.True(t, got.YAML)
}

func TestChoicesTag(t *testing.T) {
	type args struct {
		Mode string `arc:"choices=client|server"`
	}

	got, err := arcparse.Parse[args]([]string{"--mode", "client"})
	require.NoError(t, err)
	assert.Equal(t, "client", got.Mode)

	_, err = arcparse.Parse[args]([]string{"--mode", "proxy"})
	var choice arcerrors.InvalidChoiceError
	require.ErrorAs(t, err, &choice)
	assert.Equal(t, "proxy", choice.Value)
	assert.Equal(t, []string{"client", "server"}, choice.Choices)
}

type color string

func (color) Choices() []string { return []string{"red", "green", "blue"} }

func TestEnumeratedArgument(t *testing.T) {
	type args struct {
		Color color `default:"green"`
	}

	got, err := arcparse.Parse[args]([]string{"--color", "red"})
	require.NoError(t, err)
	assert.Equal(t, color("red"), got.Color)

	got, err = arcparse.Parse[args]([]string{})
	require.NoError(t, err)
	assert.Equal(t, color("green"), got.Color)

	_, err = arcparse.Parse[args]([]string{"--color", "pink"})
	var choice arcerrors.InvalidChoiceError
	require.ErrorAs(t, err, &choice)
	assert.Equal(t, []string{"red", "green", "blue"}, choice.Choices)
}

func TestDerivedValueTypes(t *testing.T) {
	type args struct {
		Wait    time.Duration `default:"1s"`
		Pattern *regexp.Regexp
	}

	got, err := arcparse.Parse[args]([]string{"--wait", "2s", "--pattern", "a+b"})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, got.Wait)
	assert.True(t, got.Pattern.MatchString("aaab"))

	_, err = arcparse.Parse[args]([]string{"--pattern", "("})
	var invalid arcerrors.InvalidValueError
	require.ErrorAs(t, err, &invalid)
}

func TestShortOnlyOption(t *testing.T) {
	type args struct {
		Config string `arc:"short=c,short-only" default:"default.yml"`
	}
	got, err := arcparse.Parse[args]([]string{"-c", "custom.yml"})
	require.NoError(t, err)
	assert.Equal(t, "custom.yml", got.Config)
}

func TestNameOverride(t *testing.T) {
	type args struct {
		Out string `arc:"name=output,short=o" default:"-"`
	}

	got, err := arcparse.Parse[args]([]string{"--output", "file"})
	require.NoError(t, err)
	assert.Equal(t, "file", got.Out)

	got, err = arcparse.Parse[args]([]string{"-o", "file"})
	require.NoError(t, err)
	assert.Equal(t, "file", got.Out)
}

func TestInheritedArguments(t *testing.T) {
	type common struct {
		Debug bool
	}
	type args struct {
		common
		Foo bool
	}
	got, err := arcparse.Parse[args]([]string{"--debug", "--foo"})
	require.NoError(t, err)
	assert.True(t, got.Debug)
	assert.True(t, got.Foo)
}

type fooCmd struct {
	Arg2 int `arc:"positional"`
}

type barCmd struct {
	Loud bool
}

func TestSubcommands(t *testing.T) {
	type args struct {
		Verbose bool
		Foo     *fooCmd `arc:"subcommand=foo"`
		Bar     *barCmd `arc:"subcommand=bar"`
	}

	got, err := arcparse.Parse[args]([]string{"foo", "5"})
	require.NoError(t, err)
	require.NotNil(t, got.Foo)
	assert.Nil(t, got.Bar)
	assert.Equal(t, 5, got.Foo.Arg2)

	name, cmd, ok := arcparse.Selected(got)
	require.True(t, ok)
	assert.Equal(t, "foo", name)
	assert.Same(t, got.Foo, cmd)

	got, err = arcparse.Parse[args]([]string{"bar", "--loud"})
	require.NoError(t, err)
	require.NotNil(t, got.Bar)
	assert.True(t, got.Bar.Loud)

	_, err = arcparse.Parse[args]([]string{})
	var missing arcerrors.MissingArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "command", missing.Arg)
}

func TestUnknownSubcommand(t *testing.T) {
	type args struct {
		Foo *fooCmd `arc:"subcommand=foo"`
		Bar *barCmd `arc:"subcommand=bar"`
	}
	_, err := arcparse.Parse[args]([]string{"fop"})
	var unknown arcerrors.UnknownSubcommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "fop", unknown.Name)
	assert.Equal(t, "foo", unknown.Suggestion)
}

func TestOptionalSubcommand(t *testing.T) {
	type args struct {
		Foo *fooCmd `arc:"subcommand=foo,optional"`
		Bar *barCmd `arc:"subcommand=bar"`
	}
	got, err := arcparse.Parse[args]([]string{})
	require.NoError(t, err)
	assert.Nil(t, got.Foo)
	assert.Nil(t, got.Bar)

	_, _, ok := arcparse.Selected(got)
	assert.False(t, ok)
}

func TestParentOptionsAroundSubcommand(t *testing.T) {
	type args struct {
		Verbose bool
		Foo     *fooCmd `arc:"subcommand=foo"`
	}

	got, err := arcparse.Parse[args]([]string{"--verbose", "foo", "5"})
	require.NoError(t, err)
	assert.True(t, got.Verbose)
	require.NotNil(t, got.Foo)

	got, err = arcparse.Parse[args]([]string{"foo", "5", "--verbose"})
	require.NoError(t, err)
	assert.True(t, got.Verbose)
}

func TestNestedSubcommands(t *testing.T) {
	type leaf struct {
		Name string `arc:"positional"`
	}
	type mid struct {
		Add *leaf `arc:"subcommand=add"`
	}
	type args struct {
		Remote *mid `arc:"subcommand=remote"`
	}

	got, err := arcparse.Parse[args]([]string{"remote", "add", "origin"})
	require.NoError(t, err)
	require.NotNil(t, got.Remote)
	require.NotNil(t, got.Remote.Add)
	assert.Equal(t, "origin", got.Remote.Add.Name)
}

func TestWithConverter(t *testing.T) {
	type args struct {
		Level int
	}
	p, err := arcparse.Compile[args](arcparse.WithConverter("Level", func(raw string) (int, error) {
		switch raw {
		case "low":
			return 1, nil
		case "high":
			return 10, nil
		}
		return 0, assert.AnError
	}))
	require.NoError(t, err)

	got, err := p.Parse([]string{"--level", "high"})
	require.NoError(t, err)
	assert.Equal(t, 10, got.Level)

	_, err = p.Parse([]string{"--level", "medium"})
	var invalid arcerrors.InvalidValueError
	require.ErrorAs(t, err, &invalid)
}

func TestWithDict(t *testing.T) {
	type args struct {
		Mode int
	}
	dict := map[string]int{"fast": 1, "slow": 2}

	p, err := arcparse.Compile[args](arcparse.WithDict("Mode", dict))
	require.NoError(t, err)

	got, err := p.Parse([]string{"--mode", "fast"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Mode)

	_, err = p.Parse([]string{"--mode", "medium"})
	var choice arcerrors.InvalidChoiceError
	require.ErrorAs(t, err, &choice)
	assert.Equal(t, []string{"fast", "slow"}, choice.Choices)

	p, err = arcparse.Compile[args](arcparse.WithDict("Mode", dict), arcparse.WithDefault("Mode", 2))
	require.NoError(t, err)
	got, err = p.Parse([]string{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Mode)

	_, err = arcparse.Compile[args](arcparse.WithDict("Mode", dict), arcparse.WithDefault("Mode", 9))
	var decl arcerrors.DeclarationError
	require.ErrorAs(t, err, &decl)
}

func TestParseTimeDefaults(t *testing.T) {
	type args struct {
		Out   string
		Count int `default:"1"`
	}
	p, err := arcparse.Compile[args]()
	require.NoError(t, err)

	got, err := p.Parse([]string{}, arcparse.WithDefaults(map[string]any{"Out": "fallback"}))
	require.NoError(t, err)
	assert.Equal(t, "fallback", got.Out)
	assert.Equal(t, 1, got.Count)

	// Supplied arguments win over overrides.
	got, err = p.Parse([]string{"--out", "cli"}, arcparse.WithDefaults(map[string]any{"Out": "fallback"}))
	require.NoError(t, err)
	assert.Equal(t, "cli", got.Out)

	// String overrides run through the field's converter.
	got, err = p.Parse([]string{}, arcparse.WithDefaults(map[string]any{"Out": "x", "Count": "7"}))
	require.NoError(t, err)
	assert.Equal(t, 7, got.Count)

	_, err = p.Parse([]string{}, arcparse.WithDefaults(map[string]any{"Nope": 1}))
	var parseErr arcerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "Nope")
}

func TestDefaultOverrideSatisfiesRequiredPositional(t *testing.T) {
	type args struct {
		Path string `arc:"positional"`
	}
	p, err := arcparse.Compile[args]()
	require.NoError(t, err)

	got, err := p.Parse([]string{}, arcparse.WithDefaults(map[string]any{"Path": "implicit"}))
	require.NoError(t, err)
	assert.Equal(t, "implicit", got.Path)
}

func TestOverridesNeverViolateMutex(t *testing.T) {
	type args struct {
		A *string `arc:"mx=g"`
		B *string `arc:"mx=g"`
	}
	p, err := arcparse.Compile[args]()
	require.NoError(t, err)

	got, err := p.Parse([]string{"--b", "x"}, arcparse.WithDefaults(map[string]any{"A": "y"}))
	require.NoError(t, err)
	require.NotNil(t, got.A)
	require.NotNil(t, got.B)
	assert.Equal(t, "y", *got.A)
	assert.Equal(t, "x", *got.B)
}

func TestHelpRequest(t *testing.T) {
	type args struct {
		Path string `arc:"positional"`
	}
	_, err := arcparse.Parse[args]([]string{"--help"})
	assert.ErrorIs(t, err, arcparse.ErrHelp)

	_, err = arcparse.Parse[args]([]string{"-h"})
	assert.ErrorIs(t, err, arcparse.ErrHelp)
}

func TestVersionRequest(t *testing.T) {
	type args struct {
		Path string `arc:"positional"`
	}
	p, err := arcparse.Compile[args](arcparse.WithProg("demo"), arcparse.WithVersion("1.2.3"))
	require.NoError(t, err)

	_, err = p.Parse([]string{"--version"})
	assert.ErrorIs(t, err, arcparse.ErrVersion)
}

func TestCompileDeclarationError(t *testing.T) {
	type args struct {
		A []string `arc:"positional"`
		B []string `arc:"positional"`
	}
	_, err := arcparse.Compile[args]()
	var decl arcerrors.DeclarationError
	require.ErrorAs(t, err, &decl)

	assert.Panics(t, func() { arcparse.MustCompile[args]() })
}
