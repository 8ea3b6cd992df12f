package xpath

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/midbel/xee/xml"
)

const document = `<?xml version="1.0" encoding="UTF-8"?>

<root>
	<item id="first">element-1</item>
	<item id="second">element-2</item>
	<group>
		<item lang="en">sub-element-1</item>
		<item lang="en">sub-element-2</item>
		<test ignore="true"/>
	</group>
	<price>10.50</price>
	<price>4.50</price>
</root>
`

func TestFind(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{
			Expr:     "/root/item",
			Expected: []string{"element-1", "element-2"},
		},
		{
			Expr:     "/root/item[1]",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "/root/item[last()]",
			Expected: []string{"element-2"},
		},
		{
			Expr:     "/root/item[position() > 1]",
			Expected: []string{"element-2"},
		},
		{
			Expr:     "//item",
			Expected: []string{"element-1", "element-2", "sub-element-1", "sub-element-2"},
		},
		{
			Expr:     "//group/item[1]",
			Expected: []string{"sub-element-1"},
		},
		{
			Expr:     "/root/item[1] | /root/item[2]",
			Expected: []string{"element-1", "element-2"},
		},
		{
			Expr:     "/root/item[2] | /root/item[1]",
			Expected: []string{"element-1", "element-2"},
		},
		{
			Expr:     "//item[@id = 'first']",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "//item[@id eq 'first']",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "//item[@lang]",
			Expected: []string{"sub-element-1", "sub-element-2"},
		},
		{
			Expr:     "//@ignore",
			Expected: []string{"true"},
		},
		{
			Expr:     "//item[text() = 'element-1']",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "//item[. = 'element-2']",
			Expected: []string{"element-2"},
		},
		{
			Expr:     "count(//item)",
			Expected: []string{"4"},
		},
		{
			Expr:     "//item[2]/@id",
			Expected: []string{"second"},
		},
		{
			Expr:     "name(//*[@ignore])",
			Expected: []string{"test"},
		},
		{
			Expr:     "string(/root/price[1])",
			Expected: []string{"10.50"},
		},
		{
			Expr:     "sum(/root/price)",
			Expected: []string{"15"},
		},
		{
			Expr:     "sum(/root/price) * 2",
			Expected: []string{"30"},
		},
		{
			Expr:     "/root/price[. > 5]",
			Expected: []string{"10.50"},
		},
		{
			Expr:     "(//item)[3]",
			Expected: []string{"sub-element-1"},
		},
		{
			Expr:     "/root/*[3]/item",
			Expected: []string{"sub-element-1", "sub-element-2"},
		},
		{
			Expr:     "/root/group/item[2]/preceding-sibling::item",
			Expected: []string{"sub-element-1"},
		},
		{
			Expr:     "/root/group/item[1]/following-sibling::*",
			Expected: []string{"sub-element-2", ""},
		},
		{
			Expr:     "local-name(//test/ancestor::*[1])",
			Expected: []string{"group"},
		},
		{
			Expr:     "count(//test/ancestor::*)",
			Expected: []string{"2"},
		},
		{
			Expr:     "count(//test/ancestor-or-self::*)",
			Expected: []string{"3"},
		},
		{
			Expr:     "//price/text()",
			Expected: []string{"10.50", "4.50"},
		},
		{
			Expr:     "count(//text())",
			Expected: []string{"6"},
		},
		{
			Expr:     "//item[starts-with(@id, 'f')]",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "boolean(//missing)",
			Expected: []string{"false"},
		},
		{
			Expr:     "boolean(//item)",
			Expected: []string{"true"},
		},
		{
			Expr:     "//group except //group",
			Expected: []string{},
		},
		{
			Expr:     "//item intersect //group/item",
			Expected: []string{"sub-element-1", "sub-element-2"},
		},
		{
			Expr:     "//item except //group/item",
			Expected: []string{"element-1", "element-2"},
		},
		{
			Expr:     "/root/item[1] is (//item)[1]",
			Expected: []string{"true"},
		},
		{
			Expr:     "/root/item[1] << /root/item[2]",
			Expected: []string{"true"},
		},
		{
			Expr:     "/root/item[1] >> /root/item[2]",
			Expected: []string{"false"},
		},
	}
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	for _, c := range tests {
		q, err := Build(c.Expr)
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

func TestFindValues(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{
			Expr:     "1 + 2",
			Expected: []string{"3"},
		},
		{
			Expr:     "1 + 2.5",
			Expected: []string{"3.5"},
		},
		{
			Expr:     "2 + 3 * 4",
			Expected: []string{"14"},
		},
		{
			Expr:     "(2 + 3) * 4",
			Expected: []string{"20"},
		},
		{
			Expr:     "1 div 2",
			Expected: []string{"0.5"},
		},
		{
			Expr:     "10 div 5",
			Expected: []string{"2"},
		},
		{
			Expr:     "5 idiv 2",
			Expected: []string{"2"},
		},
		{
			Expr:     "-5 idiv 2",
			Expected: []string{"-2"},
		},
		{
			Expr:     "5 mod 2",
			Expected: []string{"1"},
		},
		{
			Expr:     "5.5 mod 2",
			Expected: []string{"1.5"},
		},
		{
			Expr:     "7 mod -3",
			Expected: []string{"1"},
		},
		{
			Expr:     "2e1 * 2",
			Expected: []string{"40"},
		},
		{
			Expr:     "2e0 div 0",
			Expected: []string{"INF"},
		},
		{
			Expr:     "1 to 4",
			Expected: []string{"1", "2", "3", "4"},
		},
		{
			Expr:     "4 to 2",
			Expected: []string{},
		},
		{
			Expr:     "(1 to 100)[3]",
			Expected: []string{"3"},
		},
		{
			Expr:     "(1, 2, 3)[. > 1]",
			Expected: []string{"2", "3"},
		},
		{
			Expr:     "'a' || 'b' || 'c'",
			Expected: []string{"abc"},
		},
		{
			Expr:     "concat('x', 'y', 'z')",
			Expected: []string{"xyz"},
		},
		{
			Expr:     "1 = 1",
			Expected: []string{"true"},
		},
		{
			Expr:     "1 eq 2",
			Expected: []string{"false"},
		},
		{
			Expr:     "(1, 2) = (2, 3)",
			Expected: []string{"true"},
		},
		{
			Expr:     "(1, 2) != (1, 2)",
			Expected: []string{"true"},
		},
		{
			Expr:     "'b' > 'a'",
			Expected: []string{"true"},
		},
		{
			Expr:     "number('abc')",
			Expected: []string{"NaN"},
		},
		{
			Expr:     "number('abc') = number('abc')",
			Expected: []string{"false"},
		},
		{
			Expr:     "number('abc') != number('abc')",
			Expected: []string{"true"},
		},
		{
			Expr:     "xs:double('NaN') eq xs:double('NaN')",
			Expected: []string{"false"},
		},
		{
			Expr:     "xs:double('NaN') ne xs:double('NaN')",
			Expected: []string{"true"},
		},
		{
			Expr:     "not(1 > 2)",
			Expected: []string{"true"},
		},
		{
			Expr:     "true() and false()",
			Expected: []string{"false"},
		},
		{
			Expr:     "true() or false()",
			Expected: []string{"true"},
		},
		{
			Expr:     "1 = 1 or 2 = 3",
			Expected: []string{"true"},
		},
		{
			Expr:     "if (1 < 2) then 'yes' else 'no'",
			Expected: []string{"yes"},
		},
		{
			Expr:     "if (//missing) then 'yes' else 'no'",
			Expected: []string{"no"},
		},
		{
			Expr:     "for $x in (1, 2), $y in (1, 2) return $x * $y",
			Expected: []string{"1", "2", "2", "4"},
		},
		{
			Expr:     "for $i in 1 to 3 return $i * 10",
			Expected: []string{"10", "20", "30"},
		},
		{
			Expr:     "let $v := 5 return $v * $v",
			Expected: []string{"25"},
		},
		{
			Expr:     "let $v := 5, $w := $v + 1 return $w * 2",
			Expected: []string{"12"},
		},
		{
			Expr:     "some $x in (1, 2, 3) satisfies $x > 2",
			Expected: []string{"true"},
		},
		{
			Expr:     "every $x in (1, 2, 3) satisfies $x > 2",
			Expected: []string{"false"},
		},
		{
			Expr:     "some $x in () satisfies true()",
			Expected: []string{"false"},
		},
		{
			Expr:     "every $x in () satisfies false()",
			Expected: []string{"true"},
		},
		{
			Expr:     "string-length('hello')",
			Expected: []string{"5"},
		},
		{
			Expr:     "substring('motor car', 6)",
			Expected: []string{" car"},
		},
		{
			Expr:     "substring('metadata', 4, 3)",
			Expected: []string{"ada"},
		},
		{
			Expr:     "substring('12345', 1.5, 2.6)",
			Expected: []string{"234"},
		},
		{
			Expr:     "contains('banana', 'ana')",
			Expected: []string{"true"},
		},
		{
			Expr:     "starts-with('banana', 'ban')",
			Expected: []string{"true"},
		},
		{
			Expr:     "normalize-space('  a   b  ')",
			Expected: []string{"a b"},
		},
		{
			Expr:     "round(2.5)",
			Expected: []string{"3"},
		},
		{
			Expr:     "round(-2.5)",
			Expected: []string{"-2"},
		},
		{
			Expr:     "floor(-1.5)",
			Expected: []string{"-2"},
		},
		{
			Expr:     "ceiling(-1.5)",
			Expected: []string{"-1"},
		},
		{
			Expr:     "abs(-3.5)",
			Expected: []string{"3.5"},
		},
		{
			Expr:     "min((3, 1, 2))",
			Expected: []string{"1"},
		},
		{
			Expr:     "max((3, 1.5, 2))",
			Expected: []string{"3"},
		},
		{
			Expr:     "min(())",
			Expected: []string{},
		},
		{
			Expr:     "sum(())",
			Expected: []string{"0"},
		},
		{
			Expr:     "empty(())",
			Expected: []string{"true"},
		},
		{
			Expr:     "exists(())",
			Expected: []string{"false"},
		},
		{
			Expr:     "head((1, 2, 3))",
			Expected: []string{"1"},
		},
		{
			Expr:     "tail((1, 2, 3))",
			Expected: []string{"2", "3"},
		},
		{
			Expr:     "reverse((1, 2, 3))",
			Expected: []string{"3", "2", "1"},
		},
		{
			Expr:     "subsequence((1, 2, 3, 4, 5), 2, 3)",
			Expected: []string{"2", "3", "4"},
		},
		{
			Expr:     "string-join(('a', 'b', 'c'), '-')",
			Expected: []string{"a-b-c"},
		},
		{
			Expr:     "count(distinct-values((1, 2.0, 2, 'a', 'a')))",
			Expected: []string{"3"},
		},
		{
			Expr:     "xs:integer('42')",
			Expected: []string{"42"},
		},
		{
			Expr:     "'1.5' cast as xs:double",
			Expected: []string{"1.5"},
		},
		{
			Expr:     "'42' castable as xs:integer",
			Expected: []string{"true"},
		},
		{
			Expr:     "'abc' castable as xs:integer",
			Expected: []string{"false"},
		},
		{
			Expr:     "() castable as xs:integer?",
			Expected: []string{"true"},
		},
		{
			Expr:     "() castable as xs:integer",
			Expected: []string{"false"},
		},
		{
			Expr:     "5 instance of xs:integer",
			Expected: []string{"true"},
		},
		{
			Expr:     "5 instance of xs:decimal",
			Expected: []string{"true"},
		},
		{
			Expr:     "5 instance of xs:string",
			Expected: []string{"false"},
		},
		{
			Expr:     "(1, 2) instance of xs:integer+",
			Expected: []string{"true"},
		},
		{
			Expr:     "(1, 2) instance of xs:integer",
			Expected: []string{"false"},
		},
		{
			Expr:     "() instance of xs:integer?",
			Expected: []string{"true"},
		},
		{
			Expr:     "() instance of empty-sequence()",
			Expected: []string{"true"},
		},
		{
			Expr:     "//item[1] instance of element()",
			Expected: []string{"true"},
		},
		{
			Expr:     "'5' treat as xs:string",
			Expected: []string{"5"},
		},
		{
			Expr:     "xs:date('2024-03-05') lt xs:date('2024-04-01')",
			Expected: []string{"true"},
		},
	}
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	for _, c := range tests {
		q, err := Build(c.Expr)
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

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		Expr string
		Code string
	}{
		{Expr: "1 div 0", Code: CodeDivByZero},
		{Expr: "1 idiv 0", Code: CodeDivByZero},
		{Expr: "1 mod 0", Code: CodeDivByZero},
		{Expr: "1.5 idiv 0", Code: CodeDivByZero},
		{Expr: "1.5 div 0", Code: CodeDivByZero},
		{Expr: "1.5 mod 0", Code: CodeDivByZero},
		{Expr: "number('x') idiv 1", Code: CodeNumeric},
		{Expr: "1 + 'a'", Code: CodeType},
		{Expr: "('a', 'b') eq 'a'", Code: CodeType},
		{Expr: "string((1, 2))", Code: CodeType},
		{Expr: "1 to 2.5", Code: CodeType},
		{Expr: "1 is 2", Code: CodeType},
		{Expr: "(1, 2) union (3)", Code: CodeType},
		{Expr: "xs:integer('abc')", Code: CodeInvalidValue},
		{Expr: "5 treat as xs:string", Code: CodeTreatAs},
	}
	for _, c := range tests {
		_, err := Build(c.Expr)
		if err == nil {
			t.Errorf("%s: expression built, expected %s", c.Expr, c.Code)
			continue
		}
		if code := ErrorCode(err); code != c.Code {
			t.Errorf("%s: want %s, got %s (%s)", c.Expr, c.Code, code, err)
		}
	}
}

func TestFindErrors(t *testing.T) {
	tests := []struct {
		Expr string
		Code string
	}{
		{Expr: "$missing", Code: CodeUndefinedVar},
		{Expr: "//item is //item", Code: CodeType},
		{Expr: "sum(//item)", Code: CodeInvalidValue},
		{Expr: "doc('unknown')", Code: CodeResource},
	}
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	for _, c := range tests {
		q, err := Build(c.Expr)
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		_, err = q.Find(doc)
		if err == nil {
			t.Errorf("%s: evaluation succeeded, expected %s", c.Expr, c.Code)
			continue
		}
		if code := ErrorCode(err); code != c.Code {
			t.Errorf("%s: want %s, got %s (%s)", c.Expr, c.Code, code, err)
		}
	}
}

func TestSelect(t *testing.T) {
	doc, err := parseDocument(document)
	if err != nil {
		t.Errorf("fail to parse document: %s", err)
		return
	}
	q, err := Build("//item")
	if err != nil {
		t.Errorf("fail to compile expression: %s", err)
		return
	}
	var first Item
	for it, err := range q.Select(doc) {
		if err != nil {
			t.Errorf("error selecting first item: %s", err)
			return
		}
		first = it
		break
	}
	if first == nil || first.Node() == nil {
		t.Errorf("no item selected")
		return
	}
	if got := first.Node().Value(); got != "element-1" {
		t.Errorf("first item mismatched! want element-1, got %s", got)
	}
	var count int
	for _, err := range q.Select(doc) {
		if err != nil {
			t.Errorf("error draining selection: %s", err)
			return
		}
		count++
	}
	if count != 4 {
		t.Errorf("number of items mismatched! want 4, got %d", count)
	}
}

func compareValues(seq Sequence, values []string) bool {
	if seq.Len() != len(values) {
		return false
	}
	for i := range seq {
		var (
			val = seq[i].Value()
			str string
		)
		switch v := val.(type) {
		case time.Time:
			str = v.Format("2006-01-02")
		case float64:
			str = strconv.FormatFloat(v, 'f', -1, 64)
		case int64:
			str = strconv.FormatInt(v, 10)
		case bool:
			str = strconv.FormatBool(v)
		case string:
			str = v
		}
		if str != values[i] {
			return false
		}
	}
	return true
}

func parseDocument(doc string) (*xml.Document, error) {
	p := xml.NewParser(strings.NewReader(doc))
	return p.Parse()
}
