package schema_test

import (
	"strings"
	"testing"

	"github.com/midbel/xee/schema"
)

const doc = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:books">
	<xs:element name="catalog">
		<xs:complexType>
			<xs:sequence>
				<xs:element ref="book"/>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
	<xs:element name="book">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="title" type="xs:string"/>
				<xs:element name="price" type="xs:decimal"/>
				<xs:element ref="book"/>
			</xs:sequence>
			<xs:attribute name="id" type="xs:string"/>
		</xs:complexType>
	</xs:element>
	<xs:simpleType name="isbn">
		<xs:restriction base="xs:string"/>
	</xs:simpleType>
</xs:schema>`

func TestLoad(t *testing.T) {
	sc, err := schema.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("fail to load schema: %s", err)
	}
	if sc.TargetNS != "urn:books" {
		t.Errorf("target namespace mismatched! want urn:books, got %s", sc.TargetNS)
	}
	if sc.Len() != 2 {
		t.Fatalf("want 2 global elements, got %d", sc.Len())
	}

	catalog, ok := sc.Global("catalog")
	if !ok {
		t.Fatalf("catalog element not registered")
	}
	book, ok := sc.Global("book")
	if !ok {
		t.Fatalf("book element not registered")
	}

	if len(catalog.Nodes) != 1 {
		t.Fatalf("want 1 child in catalog, got %d", len(catalog.Nodes))
	}
	ref := catalog.Nodes[0]
	if ref.Ref != book {
		t.Errorf("catalog child should reference the book declaration")
	}
	if ref.Definition() != book {
		t.Errorf("definition should resolve to the book declaration")
	}

	if len(book.Nodes) != 3 {
		t.Fatalf("want 3 children in book, got %d", len(book.Nodes))
	}
	title := book.Nodes[0]
	if title.LocalName() != "title" || title.TypeName.QualifiedName() != "xs:string" {
		t.Errorf("unexpected first child: %s (%s)", title.QualifiedName(), title.TypeName.QualifiedName())
	}
	if cycle := book.Nodes[2]; cycle.Definition() != book {
		t.Errorf("recursive reference should resolve to the book declaration")
	}
	if len(book.Attrs) != 1 || book.Attrs[0].Name.LocalName() != "id" {
		t.Errorf("book attribute not loaded")
	}

	if base := sc.Types["isbn"]; base != "xs:string" {
		t.Errorf("simple type base mismatched! want xs:string, got %s", base)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []string{
		`<?xml version="1.0" encoding="UTF-8"?><root/>`,
		`<?xml version="1.0" encoding="UTF-8"?><xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element/></xs:schema>`,
		`<?xml version="1.0" encoding="UTF-8"?><xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element ref="missing"/></xs:schema>`,
		`<?xml version="1.0" encoding="UTF-8"?><xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"><xs:complexType><xs:sequence><xs:element ref="missing"/></xs:sequence></xs:complexType></xs:element></xs:schema>`,
	}
	for _, str := range tests {
		_, err := schema.Load(strings.NewReader(str))
		if err == nil {
			t.Errorf("invalid schema accepted: %s", str)
		}
	}
}
