package xml

import (
	"fmt"
	"strings"
)

type NodeType int8

const (
	TypeDocument NodeType = 1 << iota
	TypeElement
	TypeAttribute
	TypeText
	TypeComment
	TypeInstruction
)

func (n NodeType) String() string {
	switch n {
	case TypeDocument:
		return "document"
	case TypeElement:
		return "element"
	case TypeAttribute:
		return "attribute"
	case TypeText:
		return "text"
	case TypeComment:
		return "comment"
	case TypeInstruction:
		return "pi"
	default:
		return "<>"
	}
}

type Node interface {
	Type() NodeType
	LocalName() string
	QualifiedName() string
	Value() string
	Parent() Node
	Leaf() bool

	setParent(Node)
}

type QName struct {
	Uri   string
	Space string
	Name  string
}

func LocalName(name string) QName {
	return QName{
		Name: name,
	}
}

func QualifiedName(name, space string) QName {
	return QName{
		Name:  name,
		Space: space,
	}
}

func ParseName(name string) (QName, error) {
	var qn QName
	if name == "" {
		return qn, fmt.Errorf("empty name")
	}
	parts := strings.Split(name, ":")
	switch len(parts) {
	case 1:
		qn.Name = parts[0]
	case 2:
		qn.Space = parts[0]
		qn.Name = parts[1]
		if qn.Space == "" || qn.Name == "" {
			return qn, fmt.Errorf("%s: invalid name", name)
		}
	default:
		return qn, fmt.Errorf("%s: invalid name", name)
	}
	return qn, nil
}

func (q QName) LocalName() string {
	return q.Name
}

func (q QName) QualifiedName() string {
	if q.Space == "" {
		return q.Name
	}
	return fmt.Sprintf("%s:%s", q.Space, q.Name)
}

func (q QName) ExpandedName() string {
	if q.Uri == "" {
		return q.Name
	}
	return fmt.Sprintf("Q{%s}%s", q.Uri, q.Name)
}

func (q QName) Zero() bool {
	return q.Name == ""
}

type NS struct {
	Prefix string
	Uri    string
}

func (n NS) Default() bool {
	return n.Prefix == ""
}

const (
	SupportedVersion  = "1.0"
	SupportedEncoding = "UTF-8"
)

type Document struct {
	Version    string
	Encoding   string
	Standalone string

	Nodes []Node
}

func NewDocument(root Node) *Document {
	doc := EmptyDocument()
	doc.attach(root)
	return doc
}

func EmptyDocument() *Document {
	doc := Document{
		Version:  SupportedVersion,
		Encoding: SupportedEncoding,
	}
	return &doc
}

func (d *Document) Root() Node {
	for i := range d.Nodes {
		if d.Nodes[i].Type() == TypeElement {
			return d.Nodes[i]
		}
	}
	return nil
}

func (d *Document) Type() NodeType {
	return TypeDocument
}

func (d *Document) LocalName() string {
	return ""
}

func (d *Document) QualifiedName() string {
	return ""
}

func (d *Document) Value() string {
	var str strings.Builder
	for i := range d.Nodes {
		if d.Nodes[i].Type() == TypeElement || d.Nodes[i].Type() == TypeText {
			str.WriteString(d.Nodes[i].Value())
		}
	}
	return str.String()
}

func (d *Document) Parent() Node {
	return nil
}

func (d *Document) Leaf() bool {
	return false
}

func (d *Document) attach(node Node) {
	node.setParent(d)
	d.Nodes = append(d.Nodes, node)
}

func (d *Document) setParent(_ Node) {}

type Element struct {
	QName
	Attrs []Attribute
	Nodes []Node

	parent Node
}

func NewElement(name QName) *Element {
	return &Element{
		QName: name,
	}
}

func (e *Element) Append(node Node) {
	node.setParent(e)
	e.Nodes = append(e.Nodes, node)
}

func (e *Element) SetAttribute(attr Attribute) {
	attr.parent = e
	for i := range e.Attrs {
		if e.Attrs[i].QualifiedName() == attr.QualifiedName() {
			e.Attrs[i] = attr
			return
		}
	}
	e.Attrs = append(e.Attrs, attr)
}

func (e *Element) GetAttribute(name string) (Attribute, bool) {
	for i := range e.Attrs {
		if e.Attrs[i].QualifiedName() == name {
			return e.Attrs[i], true
		}
	}
	return Attribute{}, false
}

func (e *Element) AttributeValue(name string) string {
	attr, ok := e.GetAttribute(name)
	if !ok {
		return ""
	}
	return attr.Value()
}

func (e *Element) Namespaces() []NS {
	var all []NS
	for _, a := range e.Attrs {
		switch {
		case a.Space == "" && a.Name == AttrXmlNS:
			all = append(all, NS{Uri: a.Value()})
		case a.Space == AttrXmlNS:
			all = append(all, NS{Prefix: a.Name, Uri: a.Value()})
		}
	}
	return all
}

func (e *Element) Type() NodeType {
	return TypeElement
}

func (e *Element) Value() string {
	var str strings.Builder
	for i := range e.Nodes {
		switch e.Nodes[i].Type() {
		case TypeText, TypeElement:
			str.WriteString(e.Nodes[i].Value())
		default:
		}
	}
	return str.String()
}

func (e *Element) Parent() Node {
	return e.parent
}

func (e *Element) Leaf() bool {
	for i := range e.Nodes {
		if e.Nodes[i].Type() != TypeText {
			return false
		}
	}
	return len(e.Nodes) > 0
}

func (e *Element) setParent(node Node) {
	e.parent = node
}

type Attribute struct {
	QName
	Datum string

	parent Node
}

func NewAttribute(name QName, value string) Attribute {
	return Attribute{
		QName: name,
		Datum: value,
	}
}

func (a *Attribute) Type() NodeType {
	return TypeAttribute
}

func (a *Attribute) Value() string {
	return a.Datum
}

func (a *Attribute) Parent() Node {
	return a.parent
}

func (a *Attribute) Leaf() bool {
	return true
}

func (a *Attribute) setParent(node Node) {
	a.parent = node
}

type Text struct {
	Content string
	CData   bool

	parent Node
}

func NewText(content string) *Text {
	return &Text{
		Content: content,
	}
}

func NewCharData(content string) *Text {
	return &Text{
		Content: content,
		CData:   true,
	}
}

func (t *Text) Type() NodeType {
	return TypeText
}

func (t *Text) LocalName() string {
	return ""
}

func (t *Text) QualifiedName() string {
	return ""
}

func (t *Text) Value() string {
	return t.Content
}

func (t *Text) Parent() Node {
	return t.parent
}

func (t *Text) Leaf() bool {
	return true
}

func (t *Text) setParent(node Node) {
	t.parent = node
}

type Comment struct {
	Content string

	parent Node
}

func NewComment(content string) *Comment {
	return &Comment{
		Content: content,
	}
}

func (c *Comment) Type() NodeType {
	return TypeComment
}

func (c *Comment) LocalName() string {
	return ""
}

func (c *Comment) QualifiedName() string {
	return ""
}

func (c *Comment) Value() string {
	return c.Content
}

func (c *Comment) Parent() Node {
	return c.parent
}

func (c *Comment) Leaf() bool {
	return true
}

func (c *Comment) setParent(node Node) {
	c.parent = node
}

type Instruction struct {
	QName
	Attrs []Attribute

	parent Node
}

func NewInstruction(name QName) *Instruction {
	return &Instruction{
		QName: name,
	}
}

func (i *Instruction) Type() NodeType {
	return TypeInstruction
}

func (i *Instruction) Value() string {
	var str strings.Builder
	for j, a := range i.Attrs {
		if j > 0 {
			str.WriteRune(' ')
		}
		fmt.Fprintf(&str, "%s=%q", a.QualifiedName(), a.Value())
	}
	return str.String()
}

func (i *Instruction) Parent() Node {
	return i.parent
}

func (i *Instruction) Leaf() bool {
	return true
}

func (i *Instruction) setParent(node Node) {
	i.parent = node
}
