package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/midbel/xee/xml"
)

// Load reads an XSD subset: xs:schema, xs:element, xs:complexType with
// sequence/choice/all groups, xs:attribute, xs:simpleType restrictions,
// plus ref and type attributes. Everything else is skipped.
func Load(r io.Reader) (*Schema, error) {
	doc, err := xml.ParseReader(r)
	if err != nil {
		return nil, err
	}
	root, ok := doc.Root().(*xml.Element)
	if !ok || root.LocalName() != "schema" {
		return nil, fmt.Errorf("schema element expected at root")
	}
	ld := loader{
		schema: New(),
	}
	return ld.load(root)
}

func Open(file string) (*Schema, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Load(r)
}

type loader struct {
	schema  *Schema
	pending []*Element
}

func (ld *loader) load(root *xml.Element) (*Schema, error) {
	ld.schema.TargetNS = root.AttributeValue("targetNamespace")
	for _, ns := range root.Namespaces() {
		ld.schema.Namespaces[ns.Prefix] = ns.Uri
	}
	for _, n := range root.Nodes {
		el, ok := n.(*xml.Element)
		if !ok {
			continue
		}
		switch el.LocalName() {
		case "element":
			if el.AttributeValue("ref") != "" {
				return nil, fmt.Errorf("top level element requires a name")
			}
			e, err := ld.loadElement(el)
			if err != nil {
				return nil, err
			}
			ld.schema.Register(e)
		case "simpleType":
			if err := ld.loadSimpleType(el); err != nil {
				return nil, err
			}
		default:
		}
	}
	return ld.schema, ld.link()
}

func (ld *loader) loadElement(el *xml.Element) (*Element, error) {
	var e Element
	if ref := el.AttributeValue("ref"); ref != "" {
		name, err := xml.ParseName(ref)
		if err != nil {
			return nil, err
		}
		e.Name = name
		ld.pending = append(ld.pending, &e)
		return &e, nil
	}
	name := el.AttributeValue("name")
	if name == "" {
		return nil, fmt.Errorf("element requires a name or a ref")
	}
	e.Name = xml.LocalName(name)
	e.Name.Uri = ld.schema.TargetNS
	if typ := el.AttributeValue("type"); typ != "" {
		tn, err := xml.ParseName(typ)
		if err != nil {
			return nil, err
		}
		e.TypeName = tn
	}
	for _, n := range el.Nodes {
		sub, ok := n.(*xml.Element)
		if !ok {
			continue
		}
		if sub.LocalName() == "complexType" {
			if err := ld.loadComplexType(sub, &e); err != nil {
				return nil, err
			}
		}
	}
	return &e, nil
}

func (ld *loader) loadComplexType(ct *xml.Element, parent *Element) error {
	for _, n := range ct.Nodes {
		sub, ok := n.(*xml.Element)
		if !ok {
			continue
		}
		switch sub.LocalName() {
		case "sequence", "choice", "all":
			if err := ld.loadGroup(sub, parent); err != nil {
				return err
			}
		case "attribute":
			attr, err := loadAttribute(sub)
			if err != nil {
				return err
			}
			parent.Attrs = append(parent.Attrs, attr)
		default:
		}
	}
	return nil
}

func (ld *loader) loadGroup(group *xml.Element, parent *Element) error {
	for _, n := range group.Nodes {
		sub, ok := n.(*xml.Element)
		if !ok {
			continue
		}
		switch sub.LocalName() {
		case "element":
			e, err := ld.loadElement(sub)
			if err != nil {
				return err
			}
			parent.Append(e)
		case "sequence", "choice", "all":
			if err := ld.loadGroup(sub, parent); err != nil {
				return err
			}
		default:
		}
	}
	return nil
}

func (ld *loader) loadSimpleType(el *xml.Element) error {
	name := el.AttributeValue("name")
	if name == "" {
		return fmt.Errorf("simpleType requires a name")
	}
	base := "xs:anySimpleType"
	for _, n := range el.Nodes {
		sub, ok := n.(*xml.Element)
		if ok && sub.LocalName() == "restriction" {
			if b := sub.AttributeValue("base"); b != "" {
				base = b
			}
		}
	}
	ld.schema.Types[name] = base
	return nil
}

func (ld *loader) link() error {
	for _, e := range ld.pending {
		ref, ok := ld.schema.Global(e.Name.LocalName())
		if !ok {
			return fmt.Errorf("%s: reference to undefined element", e.Name.QualifiedName())
		}
		e.Ref = ref
	}
	return nil
}

func loadAttribute(el *xml.Element) (Attribute, error) {
	var attr Attribute
	name := el.AttributeValue("name")
	if name == "" {
		return attr, fmt.Errorf("attribute requires a name")
	}
	attr.Name = xml.LocalName(name)
	if typ := el.AttributeValue("type"); typ != "" {
		tn, err := xml.ParseName(typ)
		if err != nil {
			return attr, err
		}
		attr.TypeName = tn
	}
	return attr, nil
}
