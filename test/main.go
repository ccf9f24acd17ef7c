// A demo program exercising the library end to end. Try:
//
//	go run ./test sync ./src ./dst --workers 8
//	go run ./test check ./src --format json
//	go run ./test --help
package main

import (
	"fmt"

	"github.com/Kuba314/arcparse"
)

type syncCmd struct {
	Src     string `arc:"positional" help:"source directory"`
	Dst     string `arc:"positional" help:"destination directory"`
	Workers int    `arc:"short=w" default:"4" help:"parallel workers"`
	Delete  *bool  `help:"delete extraneous files from destination"`
}

type checkCmd struct {
	Paths  []string `arc:"positional,at-least-one" help:"paths to check"`
	Format string   `arc:"choices=text|json" default:"text"`
}

type rootArgs struct {
	Verbose bool      `arc:"short=v" help:"chatty output"`
	Sync    *syncCmd  `arc:"subcommand=sync"`
	Check   *checkCmd `arc:"subcommand=check"`
}

func main() {
	parser := arcparse.MustCompile[rootArgs](
		arcparse.WithProg("demo"),
		arcparse.WithDescription("Synchronize and check directory trees."),
		arcparse.WithVersion("0.1.0"),
	)
	args := parser.MustParse(nil)

	if args.Verbose {
		fmt.Println("verbose mode on")
	}
	switch name, cmd, _ := arcparse.Selected(args); name {
	case "sync":
		sync := cmd.(*syncCmd)
		fmt.Printf("syncing %s -> %s with %d workers\n", sync.Src, sync.Dst, sync.Workers)
		if sync.Delete != nil {
			fmt.Println("delete extraneous:", *sync.Delete)
		}
	case "check":
		check := cmd.(*checkCmd)
		fmt.Printf("checking %v as %s\n", check.Paths, check.Format)
	}
}
