package main

import (
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/repr"
	"github.com/urfave/cli/v2"

	llvmgen "github.com/kartiknair/kalc/pkg/gen/llvm"
	"github.com/kartiknair/kalc/pkg/lexer"
	"github.com/kartiknair/kalc/pkg/parser"
	"github.com/kartiknair/kalc/pkg/span"
)

func compile(c *cli.Context) error {
	infile := c.String("in")
	if infile == "" {
		infile = c.Args().First()
	}

	llPath := c.String("ll")
	objPath := c.String("obj")

	if infile == "" || (llPath == "" && objPath == "") {
		cli.ShowAppHelp(c)
		return cli.Exit("", 1)
	}

	code, err := os.ReadFile(infile)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read source file: %s", err), 1)
	}

	sources := span.NewSourceMap()
	sources.AddFile(infile, string(code))

	machine, err := llvmgen.NewTargetMachine(c.String("target"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	p := parser.New(lexer.New(infile, string(code)))
	g := llvmgen.New(infile, machine)

	// Declarations that fail to parse or lower are reported and skipped;
	// the rest of the file still compiles.
	failed := false
	report := func(err error) {
		failed = true
		if d, ok := err.(*span.Diagnostic); ok {
			sources.Render(os.Stderr, d)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	for !p.AtEnd() {
		decl, err := p.Parse()
		if err != nil {
			report(err)
			continue
		}

		if c.Bool("ast") {
			repr.Println(decl)
		}

		if err := g.Declaration(decl); err != nil {
			report(err)
		}
	}

	if llPath != "" {
		out, err := os.Create(llPath)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer out.Close()

		if err := g.EmitIR(out); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if objPath != "" {
		out, err := os.OpenFile(objPath, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer out.Close()

		if err := g.EmitObject(out); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:      "kalc",
		Usage:     "Compiler for the Kaleidoscope language.",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "in",
				Usage: "source file to compile (also accepted positionally)",
			},
			&cli.StringFlag{
				Name:  "ll",
				Usage: "emit textual LLVM IR to this path",
			},
			&cli.StringFlag{
				Name:  "obj",
				Usage: "emit a relocatable object file to this path",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "target triple (defaults to the host)",
			},
			&cli.BoolFlag{
				Name:  "ast",
				Usage: "dump parsed declarations",
			},
		},
		Action: compile,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
