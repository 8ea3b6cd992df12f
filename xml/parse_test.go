package xml_test

import (
	"strings"
	"testing"

	"github.com/midbel/xee/xml"
)

const prolog = `<?xml version="1.0" encoding="UTF-8"?>`

func TestParseDocument(t *testing.T) {
	const str = prolog + `
<catalog xmlns:bk="urn:books">
	<!-- books on stock -->
	<bk:book id="bk-101">
		<title>XML in a nutshell</title>
		<price>39.95</price>
	</bk:book>
	<bk:book id="bk-102">
		<title>Learning &amp; teaching</title>
		<blurb><![CDATA[a < b]]></blurb>
	</bk:book>
	<?render mode="draft"?>
</catalog>`

	doc, err := xml.ParseString(str)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	root, ok := doc.Root().(*xml.Element)
	if !ok {
		t.Fatalf("root element expected, got %T", doc.Root())
	}
	if root.LocalName() != "catalog" {
		t.Errorf("root name mismatched! want catalog, got %s", root.LocalName())
	}
	var books int
	for _, n := range root.Nodes {
		if n.QualifiedName() == "bk:book" {
			books++
		}
	}
	if books != 2 {
		t.Errorf("want 2 book elements, got %d", books)
	}
	ns := root.Namespaces()
	if len(ns) != 1 || ns[0].Prefix != "bk" || ns[0].Uri != "urn:books" {
		t.Errorf("namespaces mismatched! got %+v", ns)
	}
}

func TestParseDefaultNamespace(t *testing.T) {
	const str = prolog + `<root xmlns="urn:demo" id="r-1"><child/></root>`
	doc, err := xml.ParseString(str)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	root, ok := doc.Root().(*xml.Element)
	if !ok {
		t.Fatalf("root element expected, got %T", doc.Root())
	}
	if root.Uri != "urn:demo" {
		t.Errorf("root namespace mismatched! want urn:demo, got %q", root.Uri)
	}
	child, ok := root.Nodes[0].(*xml.Element)
	if !ok {
		t.Fatalf("child element expected, got %T", root.Nodes[0])
	}
	if child.Uri != "urn:demo" {
		t.Errorf("child namespace mismatched! want urn:demo, got %q", child.Uri)
	}
	for _, a := range root.Attrs {
		if a.Name == "id" && a.Uri != "" {
			t.Errorf("unprefixed attribute should have no namespace, got %q", a.Uri)
		}
	}
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		Xml  string
		Want string
	}{
		{
			Xml:  `<root>hello</root>`,
			Want: "hello",
		},
		{
			Xml:  `<root>fish &amp; chips</root>`,
			Want: "fish & chips",
		},
		{
			Xml:  `<root><a>1</a><b>2</b></root>`,
			Want: "12",
		},
		{
			Xml:  `<root><![CDATA[x < y]]></root>`,
			Want: "x < y",
		},
		{
			Xml:  `<root attr='single'>ok</root>`,
			Want: "ok",
		},
	}
	for _, tt := range tests {
		doc, err := xml.ParseString(prolog + tt.Xml)
		if err != nil {
			t.Errorf("%s: fail to parse: %s", tt.Xml, err)
			continue
		}
		if got := doc.Root().Value(); got != tt.Want {
			t.Errorf("%s: value mismatched! want %q, got %q", tt.Xml, tt.Want, got)
		}
	}
}

func TestParseInvalidDocument(t *testing.T) {
	tests := []struct {
		Xml        string
		Cause      string
		OmitProlog bool
	}{
		{
			Xml:   ``,
			Cause: "document without root element",
		},
		{
			Xml:        `<root></root>`,
			Cause:      "document without prolog",
			OmitProlog: true,
		},
		{
			Xml:   `<root empty-attr></root>`,
			Cause: "attribute without value",
		},
		{
			Xml:   `<root id="id-1" id="id-2"></root>`,
			Cause: "duplicate attribute",
		},
		{
			Xml:   `<root><child></root>`,
			Cause: "unclosed child element",
		},
		{
			Xml:   `<ns:root></other:root>`,
			Cause: "namespace mismatched",
		},
	}
	for _, tt := range tests {
		if !tt.OmitProlog {
			tt.Xml = prolog + tt.Xml
		}
		_, err := xml.ParseString(tt.Xml)
		if err == nil {
			t.Errorf("%s: invalid document parsed properly!", tt.Cause)
		}
	}
}

func TestParseStrictNS(t *testing.T) {
	const str = prolog + `<root><bad:child xmlns:other="urn:other"/></root>`
	p := xml.NewParser(strings.NewReader(str))
	p.StrictNS = true
	if _, err := p.Parse(); err == nil {
		t.Errorf("undefined namespace accepted in strict mode")
	}
}
