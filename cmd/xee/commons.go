package main

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/midbel/xee/xml"
	"github.com/midbel/xee/xpath"
)

var ErrDocument = errors.New("bad xml document")

type ParserOptions struct {
	KeepSpace bool
	Strict    bool
}

type Document struct {
	File string
	*xml.Document
}

func iterDocuments(files []string, options ParserOptions) iter.Seq2[*Document, error] {
	get := func(file string, doc *xml.Document) *Document {
		return &Document{
			File:     file,
			Document: doc,
		}
	}

	parse := func(file string) (*Document, error) {
		doc, err := parseDocument(file, options)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %s", ErrDocument, file, err)
		}
		return get(file, doc), nil
	}

	fn := func(yield func(*Document, error) bool) {
		for _, f := range files {
			if s, err := os.Stat(f); err == nil && s.IsDir() {
				es, err := os.ReadDir(f)
				if err != nil {
					yield(nil, err)
					return
				}
				for _, e := range es {
					doc, err := parse(filepath.Join(f, e.Name()))
					if !yield(doc, err) {
						return
					}
				}
			} else {
				doc, err := parse(f)
				if !yield(doc, err) {
					return
				}
			}
		}
	}
	return fn
}

func parseDocument(file string, options ParserOptions) (*xml.Document, error) {
	r, err := openFile(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := xml.NewParser(r)
	p.OmitProlog = true
	p.TrimSpace = !options.KeepSpace
	p.StrictNS = options.Strict
	return p.Parse()
}

func openFile(file string) (io.ReadCloser, error) {
	if file == "" || file == "-" {
		return os.Stdin, nil
	}
	u, err := url.Parse(file)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequest(http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("accept", "text/xml")
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fail to retrieve remote file")
		}
		return res.Body, nil
	default:
		return os.Open(file)
	}
}

func printValues(results xpath.Sequence, limit int) {
	for i, str := range results.Strings() {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Fprintln(os.Stdout, str)
	}
}

func printNodes(results xpath.Sequence, limit int) {
	values := results.Strings()
	for i := range results {
		if limit > 0 && i >= limit {
			break
		}
		switch n := results[i].Node().(type) {
		case *xpath.ElementNode:
			fmt.Fprintln(os.Stdout, xml.WriteNode(n.Element()))
		case *xpath.DocumentNode:
			if d := n.Document(); d != nil && d.Root() != nil {
				fmt.Fprintln(os.Stdout, xml.WriteNode(d.Root()))
				break
			}
			fmt.Fprintln(os.Stdout, values[i])
		case *xpath.AttributeNode:
			fmt.Fprintf(os.Stdout, "%s=%q", n.Name().QualifiedName(), n.Value())
			fmt.Fprintln(os.Stdout)
		default:
			fmt.Fprintln(os.Stdout, values[i])
		}
	}
}
