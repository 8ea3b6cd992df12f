package xpath

import (
	"fmt"

	"github.com/midbel/xee/xml"
)

// nodeTest filters the nodes an axis step yields. The principal kind
// comes from the axis: a name selects elements everywhere except on
// the attribute axis where it selects attributes.
type nodeTest interface {
	matches(Node, NodeKind) bool
	fmt.Stringer
}

type nameTest struct {
	name      xml.QName
	anyName   bool
	anyLocal  bool
	anySpace  bool
	defaultNS string
}

func (t nameTest) matches(n Node, principal NodeKind) bool {
	if n.Kind()&principal == 0 {
		return false
	}
	name := n.Name()
	switch {
	case t.anyName:
		return true
	case t.anyLocal:
		return name.Uri == t.name.Uri
	case t.anySpace:
		return name.Name == t.name.Name
	default:
		uri := t.name.Uri
		if uri == "" && t.name.Space == "" && principal == KindElement {
			uri = t.defaultNS
		}
		return name.Name == t.name.Name && name.Uri == uri
	}
}

func (t nameTest) String() string {
	switch {
	case t.anyName:
		return "*"
	case t.anyLocal:
		return fmt.Sprintf("{%s}*", t.name.Uri)
	case t.anySpace:
		return fmt.Sprintf("*:%s", t.name.Name)
	default:
		return t.name.QualifiedName()
	}
}

// kindTest selects nodes by kind. Unlike a name test it carries its
// own kind and ignores the principal kind of the axis.
type kindTest struct {
	kind  NodeKind
	name  string
	typ   xml.QName
	inner *kindTest
}

func (t kindTest) matches(n Node, _ NodeKind) bool {
	if n.Kind()&t.kind == 0 {
		return false
	}
	switch t.kind {
	case KindElement, KindAttribute:
		if t.name != "" && t.name != "*" && n.Name().Name != t.name {
			return false
		}
		if !t.typ.Zero() {
			s, ok := n.(*SchemaElementNode)
			if !ok || s.TypeName().Name != t.typ.Name {
				return false
			}
		}
	case KindInstruction:
		if t.name != "" && n.Name().Name != t.name {
			return false
		}
	case KindDocument:
		if t.inner != nil {
			for _, c := range n.Children() {
				if c.Kind() == KindElement {
					return t.inner.matches(c, KindElement)
				}
			}
			return false
		}
	}
	return true
}

func (t kindTest) String() string {
	var args string
	switch {
	case t.inner != nil:
		args = t.inner.String()
	case t.name != "" && !t.typ.Zero():
		args = fmt.Sprintf("%s, %s", t.name, t.typ.QualifiedName())
	case t.name != "":
		args = t.name
	}
	return fmt.Sprintf("%s(%s)", t.kind, args)
}
