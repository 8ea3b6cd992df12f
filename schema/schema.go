package schema

import (
	"github.com/midbel/xee/xml"
)

// Schema holds the element declarations of one schema document. Top level
// declarations are registered by local name and can be the target of ref
// attributes anywhere in the content models.
type Schema struct {
	TargetNS   string
	Namespaces map[string]string
	Types      map[string]string
	Elements   []*Element

	globals map[string]*Element
}

func New() *Schema {
	s := Schema{
		Namespaces: make(map[string]string),
		Types:      make(map[string]string),
		globals:    make(map[string]*Element),
	}
	return &s
}

func (s *Schema) Global(name string) (*Element, bool) {
	el, ok := s.globals[name]
	return el, ok
}

func (s *Schema) Register(el *Element) {
	s.Elements = append(s.Elements, el)
	if !el.Name.Zero() && el.Ref == nil {
		s.globals[el.Name.LocalName()] = el
	}
}

func (s *Schema) Len() int {
	return len(s.Elements)
}

// Element is an element declaration. A declaration with Ref set is a local
// reference to a global declaration; its own Nodes and Attrs stay empty.
// Content models may be cyclic.
type Element struct {
	Name     xml.QName
	TypeName xml.QName
	Ref      *Element
	Nodes    []*Element
	Attrs    []Attribute
}

func (e *Element) LocalName() string {
	return e.Name.LocalName()
}

func (e *Element) QualifiedName() string {
	return e.Name.QualifiedName()
}

// Definition resolves a reference to the declaration it points at.
func (e *Element) Definition() *Element {
	if e.Ref != nil {
		return e.Ref
	}
	return e
}

func (e *Element) Append(child *Element) {
	e.Nodes = append(e.Nodes, child)
}

func (e *Element) Leaf() bool {
	return len(e.Definition().Nodes) == 0
}

type Attribute struct {
	Name     xml.QName
	TypeName xml.QName
}
