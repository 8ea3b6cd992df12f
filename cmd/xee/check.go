package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/midbel/cli"
	"github.com/midbel/xee/cmd/spin"
	"github.com/midbel/xee/schema"
	"github.com/midbel/xee/xpath"
)

var checkCmd = cli.Command{
	Name:    "check",
	Summary: "compile expressions and report the ones that fail",
	Handler: CheckCmd{},
}

type CheckCmd struct {
	Schema   string
	FailFast bool
	Version  int
}

type checkResult struct {
	Expr string
	Err  error
}

func (c CheckCmd) Run(args []string) error {
	var (
		set     = flag.NewFlagSet("check", flag.ContinueOnError)
		options []xpath.Option
		list    []string
	)
	set.StringVar(&c.Schema, "schema", "", "check paths against elements declared in schema")
	set.BoolVar(&c.FailFast, "fail-fast", false, "stop at the first expression that fails")
	set.IntVar(&c.Version, "version", 0, "xpath version accepted by the compiler")
	set.Func("e", "expression to check - can be repeated", func(expr string) error {
		list = append(list, expr)
		return nil
	})
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
	if c.Version != 0 {
		options = append(options, xpath.WithVersion(c.Version))
	}
	if c.Schema != "" {
		s, err := schema.Open(c.Schema)
		if err != nil {
			return err
		}
		options = append(options, xpath.WithSchema(s))
	}
	for _, f := range set.Args() {
		more, err := readExpressions(f)
		if err != nil {
			return err
		}
		list = append(list, more...)
	}
	if len(list) == 0 {
		return fmt.Errorf("no expression given")
	}
	var results []checkResult
	sp := spin.New("checking expressions")
	sp.Run(func() error {
		for _, expr := range list {
			_, err := xpath.BuildWith(expr, options...)
			results = append(results, checkResult{Expr: expr, Err: err})
			if err != nil && c.FailFast {
				break
			}
		}
		return nil
	})
	var fail int
	for _, r := range results {
		if r.Err != nil {
			fail++
			fmt.Fprintf(os.Stdout, "%s %s: %s", color.RedString("fail"), r.Expr, r.Err)
		} else {
			fmt.Fprintf(os.Stdout, "%s   %s", color.GreenString("ok"), r.Expr)
		}
		fmt.Fprintln(os.Stdout)
	}
	fmt.Fprintf(os.Stdout, "%d expression(s) checked - %d failed", len(results), fail)
	fmt.Fprintln(os.Stdout)
	if fail > 0 {
		return errFail
	}
	return nil
}

func readExpressions(file string) ([]string, error) {
	r, err := openFile(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var list []string
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	return list, scan.Err()
}
