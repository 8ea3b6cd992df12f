package xpath

import (
	"strings"

	"github.com/midbel/xee/schema"
	"github.com/midbel/xee/xml"
)

// NodeKind identifies the kind of a node in the data model. Kinds are
// bit flags so a node test can accept several kinds at once.
type NodeKind uint16

const (
	KindDocument NodeKind = 1 << iota
	KindElement
	KindAttribute
	KindText
	KindComment
	KindInstruction
	KindNamespace

	KindNode = KindDocument | KindElement | KindAttribute | KindText |
		KindComment | KindInstruction | KindNamespace
)

func (k NodeKind) String() string {
	switch k {
	case KindDocument:
		return "document-node"
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindInstruction:
		return "processing-instruction"
	case KindNamespace:
		return "namespace"
	case KindNode:
		return "node"
	default:
		return "unknown"
	}
}

// Node is one node of a tree prepared by BuildTree. Positions give
// total document order inside one tree: every node holds a distinct
// position and an ancestor always precedes its descendants.
type Node interface {
	Kind() NodeKind
	Position() int
	Parent() Node
	Children() []Node
	Name() xml.QName
	Value() string
	Root() Node
}

// DocumentNode is the root of a tree built from a document. Trees
// built from a bare element get one only when the builder is told to
// wrap fragments.
type DocumentNode struct {
	doc      *xml.Document
	uri      string
	position int
	nodes    []Node
}

func (d *DocumentNode) Kind() NodeKind   { return KindDocument }
func (d *DocumentNode) Position() int    { return d.position }
func (d *DocumentNode) Parent() Node     { return nil }
func (d *DocumentNode) Children() []Node { return d.nodes }
func (d *DocumentNode) Name() xml.QName  { return xml.QName{} }
func (d *DocumentNode) Root() Node       { return d }
func (d *DocumentNode) DocumentURI() string {
	return d.uri
}

func (d *DocumentNode) Value() string {
	return textValue(d)
}

// Document returns the parsed document behind the node. It is nil
// when the tree was built from a bare element.
func (d *DocumentNode) Document() *xml.Document {
	return d.doc
}

type ElementNode struct {
	elem     *xml.Element
	name     xml.QName
	parent   Node
	position int
	nodes    []Node
	attrs    []*AttributeNode
	spaces   []*NamespaceNode
}

func (e *ElementNode) Kind() NodeKind   { return KindElement }
func (e *ElementNode) Position() int    { return e.position }
func (e *ElementNode) Parent() Node     { return e.parent }
func (e *ElementNode) Children() []Node { return e.nodes }
func (e *ElementNode) Name() xml.QName  { return e.name }
func (e *ElementNode) Root() Node       { return rootOf(e) }

func (e *ElementNode) Value() string {
	return textValue(e)
}

// Element returns the parsed element behind the node.
func (e *ElementNode) Element() *xml.Element {
	return e.elem
}

// Attributes returns the attribute nodes of the element. They are not
// part of Children and are only reachable through the attribute axis.
func (e *ElementNode) Attributes() []*AttributeNode {
	return e.attrs
}

// Namespaces returns the namespace nodes in scope on the element.
func (e *ElementNode) Namespaces() []*NamespaceNode {
	return e.spaces
}

// MatchName reports whether the element name matches the given
// pattern. Supported patterns are "*", "local", "prefix:local",
// "{uri}local", "{uri}*" and "{*}local". Unprefixed local names match
// against defaultNS.
func (e *ElementNode) MatchName(pattern, defaultNS string) bool {
	return matchName(e.name, pattern, defaultNS)
}

type AttributeNode struct {
	name     xml.QName
	value    string
	parent   Node
	position int
}

func (a *AttributeNode) Kind() NodeKind   { return KindAttribute }
func (a *AttributeNode) Position() int    { return a.position }
func (a *AttributeNode) Parent() Node     { return a.parent }
func (a *AttributeNode) Children() []Node { return nil }
func (a *AttributeNode) Name() xml.QName  { return a.name }
func (a *AttributeNode) Value() string    { return a.value }
func (a *AttributeNode) Root() Node       { return rootOf(a) }

func (a *AttributeNode) MatchName(pattern, defaultNS string) bool {
	return matchName(a.name, pattern, defaultNS)
}

type TextNode struct {
	content  string
	parent   Node
	position int
}

func (t *TextNode) Kind() NodeKind   { return KindText }
func (t *TextNode) Position() int    { return t.position }
func (t *TextNode) Parent() Node     { return t.parent }
func (t *TextNode) Children() []Node { return nil }
func (t *TextNode) Name() xml.QName  { return xml.QName{} }
func (t *TextNode) Value() string    { return t.content }
func (t *TextNode) Root() Node       { return rootOf(t) }

type CommentNode struct {
	content  string
	parent   Node
	position int
}

func (c *CommentNode) Kind() NodeKind   { return KindComment }
func (c *CommentNode) Position() int    { return c.position }
func (c *CommentNode) Parent() Node     { return c.parent }
func (c *CommentNode) Children() []Node { return nil }
func (c *CommentNode) Name() xml.QName  { return xml.QName{} }
func (c *CommentNode) Value() string    { return c.content }
func (c *CommentNode) Root() Node       { return rootOf(c) }

type InstructionNode struct {
	name     xml.QName
	content  string
	parent   Node
	position int
}

func (i *InstructionNode) Kind() NodeKind   { return KindInstruction }
func (i *InstructionNode) Position() int    { return i.position }
func (i *InstructionNode) Parent() Node     { return i.parent }
func (i *InstructionNode) Children() []Node { return nil }
func (i *InstructionNode) Name() xml.QName  { return i.name }
func (i *InstructionNode) Value() string    { return i.content }
func (i *InstructionNode) Root() Node       { return rootOf(i) }

// NamespaceNode binds a prefix to a namespace URI on one element. The
// node name is the prefix and the value is the URI.
type NamespaceNode struct {
	prefix   string
	uri      string
	parent   Node
	position int
}

func (n *NamespaceNode) Kind() NodeKind   { return KindNamespace }
func (n *NamespaceNode) Position() int    { return n.position }
func (n *NamespaceNode) Parent() Node     { return n.parent }
func (n *NamespaceNode) Children() []Node { return nil }
func (n *NamespaceNode) Name() xml.QName  { return xml.LocalName(n.prefix) }
func (n *NamespaceNode) Value() string    { return n.uri }
func (n *NamespaceNode) Root() Node       { return rootOf(n) }

// SchemaNode is the root of a graph built from a schema. It plays the
// document role for the global element declarations and carries the
// map that keeps shared declarations unique across the graph.
type SchemaNode struct {
	schema   *schema.Schema
	uri      string
	position int
	nodes    []Node
	elements map[*schema.Element]*SchemaElementNode
}

func (s *SchemaNode) Kind() NodeKind   { return KindDocument }
func (s *SchemaNode) Position() int    { return s.position }
func (s *SchemaNode) Parent() Node     { return nil }
func (s *SchemaNode) Children() []Node { return s.nodes }
func (s *SchemaNode) Name() xml.QName  { return xml.QName{} }
func (s *SchemaNode) Value() string    { return "" }
func (s *SchemaNode) Root() Node       { return s }

// SchemaElementNode stands for every element an element declaration
// can validate. Declarations referenced from several places share one
// node, so the graph can contain cycles where the schema recurses.
type SchemaElementNode struct {
	decl     *schema.Element
	name     xml.QName
	typeName xml.QName
	parent   Node
	position int
	nodes    []Node
	attrs    []*AttributeNode
}

func (s *SchemaElementNode) Kind() NodeKind   { return KindElement }
func (s *SchemaElementNode) Position() int    { return s.position }
func (s *SchemaElementNode) Parent() Node     { return s.parent }
func (s *SchemaElementNode) Children() []Node { return s.nodes }
func (s *SchemaElementNode) Name() xml.QName  { return s.name }
func (s *SchemaElementNode) Value() string    { return "" }
func (s *SchemaElementNode) Root() Node       { return rootOf(s) }

func (s *SchemaElementNode) Decl() *schema.Element {
	return s.decl
}

func (s *SchemaElementNode) TypeName() xml.QName {
	return s.typeName
}

func (s *SchemaElementNode) Attributes() []*AttributeNode {
	return s.attrs
}

func (s *SchemaElementNode) MatchName(pattern, defaultNS string) bool {
	return matchName(s.name, pattern, defaultNS)
}

func rootOf(n Node) Node {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// textValue concatenates the text descendants of n in document order.
func textValue(n Node) string {
	var (
		str   strings.Builder
		stack = [][]Node{n.Children()}
	)
	for len(stack) > 0 {
		list := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, c := range list {
			if c.Kind() == KindText {
				str.WriteString(c.Value())
			} else if c.Kind() == KindElement {
				stack = append(stack, list[i+1:], c.Children())
				break
			}
		}
	}
	return str.String()
}

func matchName(name xml.QName, pattern, defaultNS string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "{") {
		end := strings.Index(pattern, "}")
		if end < 0 {
			return false
		}
		uri, local := pattern[1:end], pattern[end+1:]
		if uri != "*" && name.Uri != uri {
			return false
		}
		return local == "*" || name.Name == local
	}
	if prefix, local, ok := strings.Cut(pattern, ":"); ok {
		if name.Space != prefix {
			return false
		}
		return local == "*" || name.Name == local
	}
	return name.Name == pattern && name.Uri == defaultNS
}

// compareOrder orders two nodes of the same tree by document order.
// Nodes from different trees have no defined order.
func compareOrder(a, b Node) (int, error) {
	if rootOf(a) != rootOf(b) {
		return 0, errorf(CodeInvalidLexical, "nodes belong to different trees")
	}
	switch pa, pb := a.Position(), b.Position(); {
	case pa < pb:
		return -1, nil
	case pa > pb:
		return 1, nil
	default:
		return 0, nil
	}
}
