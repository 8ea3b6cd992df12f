package xpath

import (
	"testing"
	"time"

	"github.com/midbel/xee/schema"
	"github.com/midbel/xee/xml"
)

func TestQueryVariables(t *testing.T) {
	tests := []struct {
		Expr     string
		Options  []Option
		Expected []string
	}{
		{
			Expr:     "$x + 1",
			Options:  []Option{WithVariable("x", 2)},
			Expected: []string{"3"},
		},
		{
			Expr:     "$name",
			Options:  []Option{WithVariable("name", "abc")},
			Expected: []string{"abc"},
		},
		{
			Expr:     "$a * $b",
			Options:  []Option{WithVariable("a", 3), WithVariable("b", 4)},
			Expected: []string{"12"},
		},
	}
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	for _, c := range tests {
		q, err := BuildWith(c.Expr, c.Options...)
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		seq, err := q.Find(doc)
		if err != nil {
			t.Errorf("%s: error evaluating expression: %s", c.Expr, err)
			continue
		}
		if !compareValues(seq, c.Expected) {
			t.Errorf("%s: items mismatched! want %s, got %v", c.Expr, c.Expected, seq)
		}
	}
}

func TestQueryNamespaces(t *testing.T) {
	doc, err := parseDocument(described)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	tests := []struct {
		Expr     string
		Prefix   string
		Uri      string
		Expected []string
	}{
		{
			Expr:     "//p:item",
			Prefix:   "p",
			Uri:      "urn:demo",
			Expected: []string{"spaced  text"},
		},
		{
			Expr:     "//q:item",
			Prefix:   "q",
			Uri:      "urn:demo",
			Expected: []string{"spaced  text"},
		},
		{
			Expr:     "//p:item",
			Prefix:   "p",
			Uri:      "urn:other",
			Expected: []string{},
		},
		{
			Expr:     "count(//q:*)",
			Prefix:   "q",
			Uri:      "urn:demo",
			Expected: []string{"1"},
		},
	}
	for _, c := range tests {
		q, err := BuildWith(c.Expr, WithNamespace(c.Prefix, c.Uri))
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		seq, err := q.Find(doc)
		if err != nil {
			t.Errorf("%s: error evaluating expression: %s", c.Expr, err)
			continue
		}
		if seq.Len() != len(c.Expected) {
			t.Errorf("%s: number of items mismatched! want %d, got %d", c.Expr, len(c.Expected), seq.Len())
			continue
		}
		if !compareValues(seq, c.Expected) {
			t.Errorf("%s: items mismatched! want %s, got %v", c.Expr, c.Expected, seq)
		}
	}
}

func TestQueryDefaultNamespace(t *testing.T) {
	doc, err := parseDocument(`<?xml version="1.0"?><root xmlns="urn:demo"><item id="i-1">first</item></root>`)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	tests := []struct {
		Expr     string
		Options  []Option
		Expected []string
	}{
		{
			Expr:     "//item",
			Expected: []string{},
		},
		{
			Expr:     "//item",
			Options:  []Option{WithNamespace("", "urn:demo")},
			Expected: []string{"first"},
		},
		{
			Expr:     "//@id",
			Expected: []string{"i-1"},
		},
		{
			Expr:     "//item/@id",
			Options:  []Option{WithNamespace("", "urn:demo")},
			Expected: []string{"i-1"},
		},
	}
	for _, c := range tests {
		q, err := BuildWith(c.Expr, c.Options...)
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		seq, err := q.Find(doc)
		if err != nil {
			t.Errorf("%s: error evaluating expression: %s", c.Expr, err)
			continue
		}
		if seq.Len() != len(c.Expected) {
			t.Errorf("%s: number of items mismatched! want %d, got %d", c.Expr, len(c.Expected), seq.Len())
			continue
		}
		if !compareValues(seq, c.Expected) {
			t.Errorf("%s: items mismatched! want %s, got %v", c.Expr, c.Expected, seq)
		}
	}
}

func TestQueryVersions(t *testing.T) {
	if _, err := BuildWith("1 idiv 2", WithVersion(1)); ErrorCode(err) != CodeSyntax {
		t.Errorf("idiv accepted by version 1: %s", ErrorCode(err))
	}
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	q, err := BuildWith("2 > 1", WithVersion(1))
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	seq, err := q.Find(doc)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"true"}) {
		t.Errorf("comparison mismatched! got %v", seq)
	}
	if _, err := BuildWith("1 + 1", WithVersion(3)); err == nil {
		t.Errorf("version 3 accepted")
	}
}

func TestQuerySchema(t *testing.T) {
	s := schema.New()
	book := schema.Element{Name: xml.LocalName("book")}
	book.Append(&schema.Element{
		Name:     xml.LocalName("title"),
		TypeName: xml.QualifiedName("string", "xs"),
	})
	s.Register(&book)

	if _, err := BuildWith("/book/title", WithSchema(s)); err != nil {
		t.Errorf("valid path rejected: %s", err)
	}
	if _, err := BuildWith("//title", WithSchema(s)); err != nil {
		t.Errorf("valid descendant path rejected: %s", err)
	}
	if _, err := BuildWith("/book/nosuch", WithSchema(s)); ErrorCode(err) != CodeEmptySelect {
		t.Errorf("dead path: want %s, got %s", CodeEmptySelect, ErrorCode(err))
	}
	if _, err := BuildWith("/book/nosuch[1]", WithSchema(s)); err != nil {
		t.Errorf("predicated path checked against the schema: %s", err)
	}
}

func TestQueryDocuments(t *testing.T) {
	main, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	ext, err := parseDocument(`<?xml version="1.0"?><ext><val>42</val></ext>`)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	q, err := BuildWith("doc('urn:ext')/ext/val", WithDocument("urn:ext", ext))
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	seq, err := q.Find(main)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"42"}) {
		t.Errorf("items mismatched! got %v", seq)
	}
	q, err = BuildWith("/root << doc('urn:ext')/ext", WithDocument("urn:ext", ext))
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	if _, err := q.Find(main); ErrorCode(err) != CodeInvalidLexical {
		t.Errorf("ordering across trees: want %s, got %s", CodeInvalidLexical, ErrorCode(err))
	}
}

func TestQueryCollections(t *testing.T) {
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	tests := []struct {
		Expr     string
		Options  []Option
		Expected []string
	}{
		{
			Expr:     "collection('c')",
			Options:  []Option{WithCollection("c", 1, 2, 3)},
			Expected: []string{"1", "2", "3"},
		},
		{
			Expr:     "sum(collection('c'))",
			Options:  []Option{WithCollection("c", 1, 2, 3)},
			Expected: []string{"6"},
		},
		{
			Expr:     "collection()",
			Options:  []Option{WithCollection("", 5)},
			Expected: []string{"5"},
		},
	}
	for _, c := range tests {
		q, err := BuildWith(c.Expr, c.Options...)
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		seq, err := q.Find(doc)
		if err != nil {
			t.Errorf("%s: error evaluating expression: %s", c.Expr, err)
			continue
		}
		if !compareValues(seq, c.Expected) {
			t.Errorf("%s: items mismatched! want %s, got %v", c.Expr, c.Expected, seq)
		}
	}
}

func TestQueryNow(t *testing.T) {
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	var (
		want = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		loc  = time.FixedZone("offset", 3600)
	)
	q, err := BuildWith("current-dateTime()", WithNow(want), WithTimezone(loc))
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	seq, err := q.Find(doc)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if seq.Len() != 1 {
		t.Errorf("want 1 item, got %d", seq.Len())
		return
	}
	got, ok := seq[0].Value().(time.Time)
	if !ok {
		t.Errorf("want a dateTime value, got %T", seq[0].Value())
		return
	}
	if !got.Equal(want) {
		t.Errorf("instant mismatched! want %s, got %s", want, got)
	}
	if got.Location() != loc {
		t.Errorf("timezone not applied! got %s", got.Location())
	}
	q, err = BuildWith("current-dateTime() lt xs:dateTime('2030-01-01T00:00:00')", WithNow(want))
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	seq, err = q.Find(doc)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"true"}) {
		t.Errorf("comparison mismatched! got %v", seq)
	}
}

func TestQueryContext(t *testing.T) {
	q, err := Build("position() * 10")
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	ctx := NewContext(nil)
	ctx.Pos = 3
	ctx.Size = 5
	seq, err := q.FindContext(ctx)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"30"}) {
		t.Errorf("items mismatched! got %v", seq)
	}
	q, err = Build("position() = last()")
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	ctx.Pos = 5
	seq, err = q.FindContext(ctx)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"true"}) {
		t.Errorf("items mismatched! got %v", seq)
	}
	q, err = Build("$v + 1")
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	ctx.Define("v", Singleton(createInt(4)))
	seq, err = q.FindContext(ctx)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"5"}) {
		t.Errorf("items mismatched! got %v", seq)
	}
	if _, err := q.FindContext(nil); ErrorCode(err) != CodeNoContext {
		t.Errorf("nil context: want %s, got %s", CodeNoContext, ErrorCode(err))
	}
}

func TestContextCopy(t *testing.T) {
	q, err := Build("$v")
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	ctx := NewContext(nil)
	ctx.Define("v", Singleton(createString("original")))
	clone := ctx.Copy()
	clone.Define("v", Singleton(createString("shadowed")))
	seq, err := q.FindContext(clone)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"shadowed"}) {
		t.Errorf("items mismatched! got %v", seq)
	}
	seq, err = q.FindContext(ctx)
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"original"}) {
		t.Errorf("binding leaked into the original context! got %v", seq)
	}
}

func TestFindShorthand(t *testing.T) {
	doc, err := parseDocument(described)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	seq, err := Find(doc, "count(//*)")
	if err != nil {
		t.Errorf("error evaluating expression: %s", err)
		return
	}
	if !compareValues(seq, []string{"3"}) {
		t.Errorf("items mismatched! got %v", seq)
	}
	var count int
	for _, err := range Select(doc, "1 to 3") {
		if err != nil {
			t.Errorf("error selecting items: %s", err)
			return
		}
		count++
	}
	if count != 3 {
		t.Errorf("number of items mismatched! want 3, got %d", count)
	}
	for _, err := range Select(doc, "1 +") {
		if err == nil {
			t.Errorf("invalid expression selected items")
		}
		break
	}
}
