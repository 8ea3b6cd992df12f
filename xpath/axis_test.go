package xpath

import "testing"

const nested = `<?xml version="1.0" encoding="UTF-8"?>
<a>
	<b1>
		<c1>one</c1>
		<c2>two</c2>
	</b1>
	<b2 id="x">three</b2>
	<b3>
		<c3>four</c3>
	</b3>
</a>
`

func TestAxes(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{
			Expr:     "count(//c2/ancestor::*)",
			Expected: []string{"2"},
		},
		{
			Expr:     "local-name(//c2/ancestor::*[1])",
			Expected: []string{"b1"},
		},
		{
			Expr:     "local-name(//c2/ancestor::*[2])",
			Expected: []string{"a"},
		},
		{
			Expr:     "count(//c2/ancestor-or-self::*)",
			Expected: []string{"3"},
		},
		{
			Expr:     "local-name(//c2/ancestor-or-self::*[1])",
			Expected: []string{"c2"},
		},
		{
			Expr:     "count(//c3/preceding::*)",
			Expected: []string{"4"},
		},
		{
			Expr:     "local-name(//c3/preceding::*[1])",
			Expected: []string{"b2"},
		},
		{
			Expr:     "//c3/preceding::*",
			Expected: []string{"onetwo", "one", "two", "three"},
		},
		{
			Expr:     "//c3/preceding::*[position() = 2]",
			Expected: []string{"two"},
		},
		{
			Expr:     "count(//c1/following::*)",
			Expected: []string{"4"},
		},
		{
			Expr:     "local-name(//c1/following::*[1])",
			Expected: []string{"c2"},
		},
		{
			Expr:     "//c1/following::*",
			Expected: []string{"two", "three", "four", "four"},
		},
		{
			Expr:     "//b2/following-sibling::*",
			Expected: []string{"four"},
		},
		{
			Expr:     "//b2/preceding-sibling::*",
			Expected: []string{"onetwo"},
		},
		{
			Expr:     "local-name(//c3/parent::*)",
			Expected: []string{"b3"},
		},
		{
			Expr:     "//c3/..",
			Expected: []string{"four"},
		},
		{
			Expr:     "count(//b1/descendant::*)",
			Expected: []string{"2"},
		},
		{
			Expr:     "count(//b1/descendant-or-self::*)",
			Expected: []string{"3"},
		},
		{
			Expr:     "count(//b2/self::*)",
			Expected: []string{"1"},
		},
		{
			Expr:     "count(//b2/self::b3)",
			Expected: []string{"0"},
		},
		{
			Expr:     "//b2/attribute::id",
			Expected: []string{"x"},
		},
		{
			Expr:     "count(//b2/@*)",
			Expected: []string{"1"},
		},
		{
			Expr:     "count(/descendant-or-self::node())",
			Expected: []string{"12"},
		},
		{
			Expr:     "(//c3/preceding::*)[1]",
			Expected: []string{"onetwo"},
		},
		{
			Expr:     "//b1/child::c2",
			Expected: []string{"two"},
		},
	}
	doc, err := parseDocument(nested)
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
