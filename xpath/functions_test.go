package xpath

import "testing"

const described = `<?xml version="1.0" encoding="UTF-8"?>
<doc xmlns:p="urn:demo">
	<p:item>  spaced  text </p:item>
	<plain attr="val">second</plain>
</doc>
`

func TestFunctions(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{
			Expr:     "name(/doc/*[1])",
			Expected: []string{"p:item"},
		},
		{
			Expr:     "local-name(/doc/*[1])",
			Expected: []string{"item"},
		},
		{
			Expr:     "namespace-uri(/doc/*[1])",
			Expected: []string{"urn:demo"},
		},
		{
			Expr:     "name(/doc/*[2])",
			Expected: []string{"plain"},
		},
		{
			Expr:     "namespace-uri(/doc/*[2])",
			Expected: []string{""},
		},
		{
			Expr:     "name(//@attr)",
			Expected: []string{"attr"},
		},
		{
			Expr:     "name(//missing)",
			Expected: []string{""},
		},
		{
			Expr:     "//*[local-name() = 'item']",
			Expected: []string{"spaced  text"},
		},
		{
			Expr:     "//*[normalize-space() = 'spaced text']",
			Expected: []string{"spaced  text"},
		},
		{
			Expr:     "string(/doc/plain)",
			Expected: []string{"second"},
		},
		{
			Expr:     "string-length(/doc/plain)",
			Expected: []string{"6"},
		},
		{
			Expr:     "root(/doc/*[1]) is /",
			Expected: []string{"true"},
		},
		{
			Expr:     "count(root(//missing))",
			Expected: []string{"0"},
		},
		{
			Expr:     "number('12')",
			Expected: []string{"12"},
		},
		{
			Expr:     "number(//missing)",
			Expected: []string{"NaN"},
		},
		{
			Expr:     "substring('hello', 0)",
			Expected: []string{"hello"},
		},
		{
			Expr:     "substring('hello', 1.5)",
			Expected: []string{"ello"},
		},
		{
			Expr:     "substring('motor car', -1, 4)",
			Expected: []string{"mo"},
		},
		{
			Expr:     "substring('12345', number('NaN'), 3)",
			Expected: []string{""},
		},
		{
			Expr:     "substring('12345', number('INF'))",
			Expected: []string{""},
		},
		{
			Expr:     "substring(//missing, 1)",
			Expected: []string{""},
		},
		{
			Expr:     "sum((1, 2, 3))",
			Expected: []string{"6"},
		},
		{
			Expr:     "sum((), 'none')",
			Expected: []string{"none"},
		},
		{
			Expr:     "min((1, number('NaN')))",
			Expected: []string{"NaN"},
		},
		{
			Expr:     "max((1, number('NaN')))",
			Expected: []string{"NaN"},
		},
		{
			Expr:     "max(('a', 'c', 'b'))",
			Expected: []string{"c"},
		},
		{
			Expr:     "min((2.5, 2))",
			Expected: []string{"2"},
		},
		{
			Expr:     "head(())",
			Expected: []string{},
		},
		{
			Expr:     "tail(())",
			Expected: []string{},
		},
		{
			Expr:     "tail((1))",
			Expected: []string{},
		},
		{
			Expr:     "subsequence((1, 2, 3), 10)",
			Expected: []string{},
		},
		{
			Expr:     "subsequence((1, 2, 3), -1)",
			Expected: []string{"1", "2", "3"},
		},
		{
			Expr:     "subsequence((1, 2, 3), 2)",
			Expected: []string{"2", "3"},
		},
		{
			Expr:     "count(distinct-values((number('NaN'), number('NaN'), 1)))",
			Expected: []string{"2"},
		},
		{
			Expr:     "floor(())",
			Expected: []string{},
		},
		{
			Expr:     "abs(())",
			Expected: []string{},
		},
		{
			Expr:     "concat('a', (), 'b')",
			Expected: []string{"ab"},
		},
		{
			Expr:     "string-join((), '-')",
			Expected: []string{""},
		},
	}
	doc, err := parseDocument(described)
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

func TestFunctionErrors(t *testing.T) {
	tests := []struct {
		Expr string
		Code string
	}{
		{Expr: "min((1, 'a'))", Code: CodeInvalidArg},
		{Expr: "max((1, 'a'))", Code: CodeInvalidArg},
		{Expr: "string-join((1, 2), '-')", Code: CodeType},
		{Expr: "boolean((1, 2))", Code: CodeInvalidArg},
		{Expr: "floor('a')", Code: CodeType},
		{Expr: "sum((1, 'a'))", Code: CodeInvalidArg},
		{Expr: "substring(('a', 'b'), 1)", Code: CodeType},
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
