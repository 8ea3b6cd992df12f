package xpath

import (
	"testing"

	"github.com/midbel/xee/schema"
	"github.com/midbel/xee/xml"
)

const positioned = `<?xml version="1.0" encoding="UTF-8"?>
<root a="1" b="2"><child><leaf>text</leaf></child></root>
`

const namespaced = `<?xml version="1.0" encoding="UTF-8"?>
<root xmlns:p="urn:demo"><p:item>x</p:item></root>
`

func TestBuildPositions(t *testing.T) {
	doc, err := parseDocument(positioned)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	node, err := BuildTree(doc)
	if err != nil {
		t.Errorf("fail to build tree: %s", err)
		return
	}
	if node.Kind() != KindDocument || node.Position() != 1 {
		t.Errorf("want document node at position 1, got %s at %d", node.Kind(), node.Position())
		return
	}
	root, ok := node.Children()[0].(*ElementNode)
	if !ok {
		t.Errorf("want element under document, got %T", node.Children()[0])
		return
	}
	if root.Position() != 2 {
		t.Errorf("root element: want position 2, got %d", root.Position())
	}
	spaces := root.Namespaces()
	if len(spaces) != 1 {
		t.Errorf("root element: want 1 namespace node, got %d", len(spaces))
		return
	}
	if spaces[0].Name().Name != "xml" || spaces[0].Value() != xmlNamespace {
		t.Errorf("implicit namespace mismatched! got %s=%s", spaces[0].Name().Name, spaces[0].Value())
	}
	if spaces[0].Position() != 3 {
		t.Errorf("implicit namespace: want position 3, got %d", spaces[0].Position())
	}
	attrs := root.Attributes()
	if len(attrs) != 2 {
		t.Errorf("root element: want 2 attribute nodes, got %d", len(attrs))
		return
	}
	for i, want := range []struct {
		Name     string
		Value    string
		Position int
	}{
		{Name: "a", Value: "1", Position: 4},
		{Name: "b", Value: "2", Position: 5},
	} {
		a := attrs[i]
		if a.Name().Name != want.Name || a.Value() != want.Value || a.Position() != want.Position {
			t.Errorf("attribute %d mismatched! want %s=%s at %d, got %s=%s at %d",
				i, want.Name, want.Value, want.Position, a.Name().Name, a.Value(), a.Position())
		}
	}
	child := root.Children()[0]
	if child.Position() != 6 {
		t.Errorf("child element: want position 6, got %d", child.Position())
	}
	leaf := child.Children()[0]
	if leaf.Position() != 8 {
		t.Errorf("leaf element: want position 8, got %d", leaf.Position())
	}
	text := leaf.Children()[0]
	if text.Kind() != KindText || text.Position() != 10 || text.Value() != "text" {
		t.Errorf("text node mismatched! want text at 10, got %s at %d (%q)", text.Kind(), text.Position(), text.Value())
	}
}

func TestBuildNamespaces(t *testing.T) {
	doc, err := parseDocument(namespaced)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	node, err := BuildTree(doc)
	if err != nil {
		t.Errorf("fail to build tree: %s", err)
		return
	}
	root := node.Children()[0].(*ElementNode)
	spaces := root.Namespaces()
	if len(spaces) != 2 {
		t.Errorf("root element: want 2 namespace nodes, got %d", len(spaces))
		return
	}
	if spaces[0].Name().Name != "p" || spaces[0].Value() != "urn:demo" {
		t.Errorf("declared namespace mismatched! got %s=%s", spaces[0].Name().Name, spaces[0].Value())
	}
	if spaces[1].Name().Name != "xml" {
		t.Errorf("implicit namespace missing, got %s", spaces[1].Name().Name)
	}
	if len(root.Attributes()) != 0 {
		t.Errorf("namespace declaration kept as attribute node")
	}
	item := root.Children()[0].(*ElementNode)
	name := item.Name()
	if name.Space != "p" || name.Name != "item" || name.Uri != "urn:demo" {
		t.Errorf("element name not resolved! got %s:%s in %q", name.Space, name.Name, name.Uri)
	}
	if len(item.Namespaces()) != 2 {
		t.Errorf("inner element: want 2 inherited namespace nodes, got %d", len(item.Namespaces()))
	}
}

func TestBuildOrder(t *testing.T) {
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	node, err := BuildTree(doc)
	if err != nil {
		t.Errorf("fail to build tree: %s", err)
		return
	}
	var positions []int
	collectPositions(node, &positions)
	for i := 1; i < len(positions); i++ {
		if positions[i] <= positions[i-1] {
			t.Errorf("positions not strictly increasing at %d: %v", i, positions)
			return
		}
	}
}

func collectPositions(n Node, out *[]int) {
	*out = append(*out, n.Position())
	if el, ok := n.(*ElementNode); ok {
		for _, s := range el.Namespaces() {
			*out = append(*out, s.Position())
		}
		for _, a := range el.Attributes() {
			*out = append(*out, a.Position())
		}
	}
	for _, c := range n.Children() {
		collectPositions(c, out)
	}
}

func TestBuildFragments(t *testing.T) {
	doc, err := parseDocument(positioned)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	keep, err := BuildTree(doc)
	if err != nil {
		t.Errorf("fail to build tree: %s", err)
		return
	}
	if keep.Kind() != KindDocument {
		t.Errorf("document source: want document root, got %s", keep.Kind())
	}
	never, err := BuildTree(doc, WithFragment(DocumentNever))
	if err != nil {
		t.Errorf("fail to build tree: %s", err)
		return
	}
	if never.Kind() != KindElement || never.Parent() != nil || never.Position() != 1 {
		t.Errorf("dropped document: want parentless element at 1, got %s at %d", never.Kind(), never.Position())
	}
	q, err := Build("/")
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	if _, err := q.Find(never); ErrorCode(err) != CodeTreatAs {
		t.Errorf("root lookup on fragment: want %s, got %s", CodeTreatAs, ErrorCode(err))
	}
	elem, ok := doc.Root().(*xml.Element)
	if !ok {
		t.Errorf("document has no root element")
		return
	}
	bare, err := BuildTree(elem)
	if err != nil {
		t.Errorf("fail to build tree: %s", err)
		return
	}
	if bare.Kind() != KindElement {
		t.Errorf("element source: want element root, got %s", bare.Kind())
	}
	always, err := BuildTree(elem, WithFragment(DocumentAlways))
	if err != nil {
		t.Errorf("fail to build tree: %s", err)
		return
	}
	if always.Kind() != KindDocument || always.Position() != 1 {
		t.Errorf("wrapped element: want document root at 1, got %s at %d", always.Kind(), always.Position())
		return
	}
	seq, err := q.Find(always)
	if err != nil {
		t.Errorf("root lookup on wrapped element: %s", err)
		return
	}
	if seq.Len() != 1 || seq[0].Node().Kind() != KindDocument {
		t.Errorf("root lookup on wrapped element: want the document node, got %v", seq)
	}
}

func TestBuildSchemaGraph(t *testing.T) {
	s := schema.New()
	book := schema.Element{
		Name:     xml.LocalName("book"),
		TypeName: xml.QualifiedName("bookType", ""),
	}
	book.Attrs = append(book.Attrs, schema.Attribute{Name: xml.LocalName("id")})
	book.Append(&schema.Element{
		Name:     xml.LocalName("title"),
		TypeName: xml.QualifiedName("string", "xs"),
	})
	book.Append(&schema.Element{Ref: &book})
	s.Register(&book)

	node, err := BuildSchemaTree(s)
	if err != nil {
		t.Errorf("fail to build schema graph: %s", err)
		return
	}
	if node.Kind() != KindDocument || node.Position() != 1 {
		t.Errorf("want document root at 1, got %s at %d", node.Kind(), node.Position())
		return
	}
	if len(node.Children()) != 1 {
		t.Errorf("want 1 global element, got %d", len(node.Children()))
		return
	}
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{
			Expr:     "count(//book)",
			Expected: []string{"1"},
		},
		{
			Expr:     "count(//title)",
			Expected: []string{"1"},
		},
		{
			Expr:     "count(//book/@id)",
			Expected: []string{"1"},
		},
		{
			Expr:     "local-name(//book/book)",
			Expected: []string{"book"},
		},
		{
			Expr:     "local-name(//title/parent::*)",
			Expected: []string{"book"},
		},
	}
	for _, c := range tests {
		q, err := Build(c.Expr)
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		seq, err := q.Find(node)
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
