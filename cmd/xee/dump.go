package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/midbel/cli"
	"github.com/midbel/xee/xpath"
)

var dumpCmd = cli.Command{
	Name:    "dump",
	Alias:   []string{"debug"},
	Summary: "print the compiled form of an expression",
	Handler: DumpCmd{},
}

type DumpCmd struct {
	Tokens  bool
	Version int
}

func (d DumpCmd) Run(args []string) error {
	var (
		set     = flag.NewFlagSet("dump", flag.ContinueOnError)
		options []xpath.Option
	)
	set.BoolVar(&d.Tokens, "tokens", false, "print the token stream instead of the expression tree")
	set.IntVar(&d.Version, "version", 0, "xpath version accepted by the compiler")
	set.Func("config", "context configuration", func(file string) error {
		all, err := getCompilerOptions(file, ParserOptions{})
		if err == nil {
			options = all
		}
		return err
	})
	if err := set.Parse(args); err != nil {
		return err
	}
	expr := set.Arg(0)
	if expr == "" {
		return fmt.Errorf("no expression given")
	}
	if d.Tokens {
		return dumpTokens(expr)
	}
	if d.Version != 0 {
		options = append(options, xpath.WithVersion(d.Version))
	}
	query, err := xpath.BuildWith(expr, options...)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, query.Debug())
	return nil
}

func dumpTokens(expr string) error {
	scan := xpath.Scan(strings.NewReader(expr))
	for {
		tok := scan.Scan()
		fmt.Fprintf(os.Stdout, "%d:%d\t%s", tok.Line, tok.Column, tok)
		fmt.Fprintln(os.Stdout)
		if tok.Type == xpath.EOF || tok.Type == xpath.Invalid {
			break
		}
	}
	return nil
}
