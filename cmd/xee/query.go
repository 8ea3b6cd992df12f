package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/midbel/cli"
	"github.com/midbel/xee/xpath"
)

var queryCmd = cli.Command{
	Name:    "query",
	Alias:   []string{"exec", "execute"},
	Summary: "evaluate an expression against xml documents",
	Handler: QueryCmd{},
}

type QueryCmd struct {
	Limit   int
	Noout   bool
	Text    bool
	Trace   bool
	Version int
	ParserOptions
}

const queryInfo = "query took %s - %s matching %q"

func (q QueryCmd) Run(args []string) error {
	var (
		set     = flag.NewFlagSet("query", flag.ContinueOnError)
		options []xpath.Option
	)
	set.IntVar(&q.Limit, "limit", 0, "limit number of results returned by query")
	set.BoolVar(&q.Noout, "quiet", false, "suppress output - default is to print the result nodes")
	set.BoolVar(&q.Text, "text", false, "print only value of node")
	set.BoolVar(&q.Trace, "trace", false, "trace compilation and evaluation")
	set.BoolVar(&q.KeepSpace, "keep-space", false, "keep whitespace only text nodes")
	set.BoolVar(&q.Strict, "strict-ns", false, "reject documents using undefined namespace prefixes")
	set.IntVar(&q.Version, "version", 0, "xpath version accepted by the compiler")
	set.Func("config", "context configuration", func(file string) error {
		all, err := getCompilerOptions(file, q.ParserOptions)
		if err == nil {
			options = all
		}
		return err
	})
	if err := set.Parse(args); err != nil {
		return err
	}
	if q.Version != 0 {
		options = append(options, xpath.WithVersion(q.Version))
	}
	if q.Trace {
		options = append(options, xpath.WithTracer(xpath.TraceStderr()))
	}
	query, err := xpath.BuildWith(set.Arg(0), options...)
	if err != nil {
		return err
	}
	files := set.Args()
	if len(files) > 0 {
		files = files[1:]
	}
	if len(files) == 0 {
		files = []string{"-"}
	}
	var fail bool
	for doc, err := range iterDocuments(files, q.ParserOptions) {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			fail = true
			continue
		}
		if err := q.runQuery(query, doc, set.Arg(0)); err != nil {
			fail = true
		}
	}
	if fail {
		return errFail
	}
	return nil
}

func (q QueryCmd) runQuery(query *xpath.Query, doc *Document, expr string) error {
	now := time.Now()
	results, err := query.Find(doc.Document)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s", doc.File, err)
		fmt.Fprintln(os.Stderr)
		return err
	}
	elapsed := time.Since(now)
	if !q.Noout {
		if q.Text {
			printValues(results, q.Limit)
		} else {
			printNodes(results, q.Limit)
		}
	}
	count := color.GreenString("%d nodes", results.Len())
	if results.Empty() {
		count = color.RedString("no nodes")
	}
	fmt.Fprintf(os.Stdout, queryInfo, elapsed, count, expr)
	fmt.Fprintln(os.Stdout)
	if results.Empty() {
		return errFail
	}
	return nil
}
