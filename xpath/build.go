package xpath

import (
	"maps"
	"slices"

	"github.com/midbel/xee/schema"
	"github.com/midbel/xee/xml"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// FragmentMode tells BuildTree what to do with the document node when
// the source is a bare element or a full document.
type FragmentMode int8

const (
	// DocumentPreserve keeps what the source has: documents get a
	// document node, bare elements do not.
	DocumentPreserve FragmentMode = iota
	// DocumentAlways wraps bare elements in a synthesized document
	// node.
	DocumentAlways
	// DocumentNever drops the document node and roots the tree at
	// the document element.
	DocumentNever
)

type BuildOption func(*builder)

// WithBuildNamespaces declares namespaces in scope on every element
// of the tree, as if they were declared on its root.
func WithBuildNamespaces(ns map[string]string) BuildOption {
	return func(b *builder) {
		if b.namespaces == nil {
			b.namespaces = make(map[string]string, len(ns))
		}
		maps.Copy(b.namespaces, ns)
	}
}

// WithBuildURI sets the document URI recorded on the root node.
func WithBuildURI(uri string) BuildOption {
	return func(b *builder) {
		b.uri = uri
	}
}

func WithFragment(mode FragmentMode) BuildOption {
	return func(b *builder) {
		b.fragment = mode
	}
}

// BuildTree prepares a tree for evaluation. The source can be a
// parsed document, a bare element, a schema or a schema element
// declaration. A value that already is a Node is returned unchanged.
//
// Positions are assigned in document order starting at 1. An element
// reserves one position for itself, one for each namespace in scope
// (plus the implicit xml namespace when it is not declared) and one
// for each attribute. Text nodes, comments and processing
// instructions take one position each.
func BuildTree(root any, opts ...BuildOption) (Node, error) {
	b := newBuilder(opts)
	switch root := root.(type) {
	case Node:
		return root, nil
	case *xml.Document:
		if b.fragment == DocumentNever {
			el, ok := root.Root().(*xml.Element)
			if !ok {
				return nil, errorf(CodeInvalidValue, "document has no root element")
			}
			return b.element(el, nil)
		}
		return b.document(root)
	case *xml.Element:
		if b.fragment == DocumentAlways {
			return b.wrap(root)
		}
		return b.element(root, nil)
	case *schema.Schema, *schema.Element:
		return buildSchema(b, root)
	case nil:
		return nil, errorf(CodeInvalidValue, "can not build a tree from nil")
	default:
		return nil, typeErrorf("%T can not be the root of a tree", root)
	}
}

// BuildSchemaTree prepares the graph of a schema for evaluation. Each
// element declaration becomes a single node shared by every place
// that references it, so the graph may contain cycles where the
// schema recurses.
func BuildSchemaTree(root any, opts ...BuildOption) (Node, error) {
	return buildSchema(newBuilder(opts), root)
}

func buildSchema(b *builder, root any) (Node, error) {
	b.elements = make(map[*schema.Element]*SchemaElementNode)
	switch root := root.(type) {
	case *schema.Schema:
		return b.schemaGraph(root), nil
	case *schema.Element:
		return b.schemaElement(root, nil), nil
	case nil:
		return nil, errorf(CodeInvalidValue, "can not build a tree from nil")
	default:
		return nil, typeErrorf("%T can not be the root of a schema graph", root)
	}
}

type builder struct {
	namespaces map[string]string
	uri        string
	fragment   FragmentMode
	position   int
	elements   map[*schema.Element]*SchemaElementNode
}

func newBuilder(opts []BuildOption) *builder {
	b := builder{
		position: 1,
	}
	for _, o := range opts {
		o(&b)
	}
	return &b
}

func (b *builder) document(doc *xml.Document) (Node, error) {
	d := DocumentNode{
		doc:      doc,
		uri:      b.uri,
		position: b.position,
	}
	b.position++
	for _, child := range doc.Nodes {
		switch child := child.(type) {
		case *xml.Element:
			el, err := b.element(child, &d)
			if err != nil {
				return nil, err
			}
			d.nodes = append(d.nodes, el)
		case *xml.Comment:
			d.nodes = append(d.nodes, b.comment(child, &d))
		case *xml.Instruction:
			d.nodes = append(d.nodes, b.instruction(child, &d))
		}
	}
	return &d, nil
}

func (b *builder) wrap(el *xml.Element) (Node, error) {
	d := DocumentNode{
		uri:      b.uri,
		position: b.position,
	}
	b.position++
	root, err := b.element(el, &d)
	if err != nil {
		return nil, err
	}
	d.nodes = append(d.nodes, root)
	return &d, nil
}

type buildFrame struct {
	node *ElementNode
	raw  []xml.Node
	idx  int
	ns   map[string]string
}

func (b *builder) element(root *xml.Element, parent Node) (*ElementNode, error) {
	top, ns := b.newElement(root, parent, b.namespaces)
	stack := []buildFrame{{node: top, raw: root.Nodes, ns: ns}}
	for len(stack) > 0 {
		fr := &stack[len(stack)-1]
		if fr.idx >= len(fr.raw) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := fr.raw[fr.idx]
		fr.idx++
		switch child := child.(type) {
		case *xml.Element:
			node, ns := b.newElement(child, fr.node, fr.ns)
			fr.node.nodes = append(fr.node.nodes, node)
			stack = append(stack, buildFrame{node: node, raw: child.Nodes, ns: ns})
		case *xml.Text:
			if child.Content != "" {
				fr.node.nodes = append(fr.node.nodes, b.text(child, fr.node))
			}
		case *xml.Comment:
			fr.node.nodes = append(fr.node.nodes, b.comment(child, fr.node))
		case *xml.Instruction:
			fr.node.nodes = append(fr.node.nodes, b.instruction(child, fr.node))
		}
	}
	return top, nil
}

// newElement assigns the element position and its reserved block: the
// namespace nodes in scope, the implicit xml namespace when absent
// and the attribute nodes.
func (b *builder) newElement(el *xml.Element, parent Node, inherited map[string]string) (*ElementNode, map[string]string) {
	ns := inherited
	if decls := el.Namespaces(); len(decls) > 0 {
		ns = make(map[string]string, len(inherited)+len(decls))
		maps.Copy(ns, inherited)
		for _, d := range decls {
			ns[d.Prefix] = d.Uri
		}
	}
	node := ElementNode{
		elem:     el,
		name:     resolveName(el.QName, ns, true),
		parent:   parent,
		position: b.position,
	}
	b.position++
	for _, prefix := range slices.Sorted(maps.Keys(ns)) {
		node.spaces = append(node.spaces, b.space(prefix, ns[prefix], &node))
	}
	if _, ok := ns["xml"]; !ok {
		node.spaces = append(node.spaces, b.space("xml", xmlNamespace, &node))
	}
	for _, a := range el.Attrs {
		if isNamespaceDecl(a) {
			continue
		}
		attr := AttributeNode{
			name:     resolveName(a.QName, ns, false),
			value:    a.Value(),
			parent:   &node,
			position: b.position,
		}
		b.position++
		node.attrs = append(node.attrs, &attr)
	}
	return &node, ns
}

// resolveName fills in the namespace URI of a name from the in scope
// declarations. The default namespace applies to elements only.
func resolveName(name xml.QName, ns map[string]string, element bool) xml.QName {
	if name.Uri != "" {
		return name
	}
	if name.Space == "" {
		if element {
			name.Uri = ns[""]
		}
		return name
	}
	if name.Space == "xml" {
		name.Uri = xmlNamespace
		return name
	}
	name.Uri = ns[name.Space]
	return name
}

func (b *builder) space(prefix, uri string, parent Node) *NamespaceNode {
	n := NamespaceNode{
		prefix:   prefix,
		uri:      uri,
		parent:   parent,
		position: b.position,
	}
	b.position++
	return &n
}

func (b *builder) text(t *xml.Text, parent Node) *TextNode {
	n := TextNode{
		content:  t.Content,
		parent:   parent,
		position: b.position,
	}
	b.position++
	return &n
}

func (b *builder) comment(c *xml.Comment, parent Node) *CommentNode {
	n := CommentNode{
		content:  c.Content,
		parent:   parent,
		position: b.position,
	}
	b.position++
	return &n
}

func (b *builder) instruction(i *xml.Instruction, parent Node) *InstructionNode {
	n := InstructionNode{
		name:     i.QName,
		content:  i.Value(),
		parent:   parent,
		position: b.position,
	}
	b.position++
	return &n
}

func (b *builder) schemaGraph(s *schema.Schema) Node {
	root := SchemaNode{
		schema:   s,
		uri:      b.uri,
		position: b.position,
		elements: b.elements,
	}
	b.position++
	for _, el := range s.Elements {
		root.nodes = append(root.nodes, b.schemaElement(el, &root))
	}
	return &root
}

// schemaElement builds the node of one declaration. Declarations
// already present in the shared map are linked, not rebuilt, which
// both deduplicates diamonds and terminates recursive schemas.
func (b *builder) schemaElement(decl *schema.Element, parent Node) *SchemaElementNode {
	decl = decl.Definition()
	if node, ok := b.elements[decl]; ok {
		return node
	}
	node := SchemaElementNode{
		decl:     decl,
		name:     decl.Name,
		typeName: decl.TypeName,
		parent:   parent,
		position: b.position,
	}
	b.position++
	b.elements[decl] = &node
	for _, a := range decl.Attrs {
		attr := AttributeNode{
			name:     a.Name,
			parent:   &node,
			position: b.position,
		}
		b.position++
		node.attrs = append(node.attrs, &attr)
	}
	for _, child := range decl.Nodes {
		node.nodes = append(node.nodes, b.schemaElement(child, &node))
	}
	return &node
}

func isNamespaceDecl(a xml.Attribute) bool {
	return a.Space == xml.AttrXmlNS || (a.Space == "" && a.Name == xml.AttrXmlNS)
}
