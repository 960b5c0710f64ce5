package xpath

import (
	"testing"

	"github.com/arcxq/arcxq/xpath/xmltree"
)

func mustParseDoc(t *testing.T, xml string) *xmltree.Tree {
	t.Helper()
	tree, err := xmltree.ParseString(xml)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return tree
}

func evalString(t *testing.T, doc Document, expr string) string {
	t.Helper()
	ast, err := Compile(expr)
	if err != nil {
		t.Fatalf("Compile(%q): %v", expr, err)
	}
	v, e := Evaluate(doc, ast, nil, EvaluateOptions{})
	if e.Failed() {
		t.Fatalf("Evaluate(%q): %s", expr, e.ErrMsg())
	}
	return v.AsString()
}

func TestChildAxisAndPredicate(t *testing.T) {
	doc := mustParseDoc(t, `<catalog><book id="1"><title>Go</title></book><book id="2"><title>Rust</title></book></catalog>`)
	got := evalString(t, doc, "count(/catalog/book)")
	if got != "2" {
		t.Fatalf("count(/catalog/book) = %s, want 2", got)
	}
	got = evalString(t, doc, "/catalog/book[2]/title")
	if got != "Rust" {
		t.Fatalf("book[2]/title = %q, want Rust", got)
	}
}

func TestAttributeAxisAndEquality(t *testing.T) {
	doc := mustParseDoc(t, `<r><item price="10"/><item price="20"/></r>`)
	got := evalString(t, doc, "count(/r/item[@price = 20])")
	if got != "1" {
		t.Fatalf("got %s, want 1", got)
	}
	got = evalString(t, doc, "/r/item[1]/@price")
	if got != "10" {
		t.Fatalf("@price = %q, want 10", got)
	}
}

func TestDescendantAndWildcard(t *testing.T) {
	doc := mustParseDoc(t, `<a><b><c>x</c></b><c>y</c></a>`)
	got := evalString(t, doc, "count(//c)")
	if got != "2" {
		t.Fatalf("got %s, want 2", got)
	}
	got = evalString(t, doc, "count(/a/*)")
	if got != "2" {
		t.Fatalf("got %s, want 2", got)
	}
}

func TestUnionIntersectExcept(t *testing.T) {
	doc := mustParseDoc(t, `<a><b/><c/><d/></a>`)
	got := evalString(t, doc, "count(/a/b | /a/c)")
	if got != "2" {
		t.Fatalf("union: got %s, want 2", got)
	}
	got = evalString(t, doc, "count((/a/b | /a/c) intersect (/a/c | /a/d))")
	if got != "1" {
		t.Fatalf("intersect: got %s, want 1", got)
	}
	got = evalString(t, doc, "count((/a/b | /a/c | /a/d) except /a/c)")
	if got != "2" {
		t.Fatalf("except: got %s, want 2", got)
	}
}

func TestFlworForLetWhereOrderBy(t *testing.T) {
	doc := mustParseDoc(t, `<r><item n="3"/><item n="1"/><item n="2"/></r>`)
	ast, err := Compile(`for $i in /r/item where $i/@n != "2" order by $i/@n return $i/@n`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, e := Evaluate(doc, ast, nil, EvaluateOptions{})
	if e.Failed() {
		t.Fatalf("Evaluate: %s", e.ErrMsg())
	}
	if v.Kind != KindNodeSet {
		t.Fatalf("result kind = %v, want node-set", v.Kind)
	}
	got := v.NodeSet.Strings
	want := []string{"1", "3"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFlworGroupBy(t *testing.T) {
	doc := mustParseDoc(t, `<r><item cat="a"/><item cat="b"/><item cat="a"/></r>`)
	got := evalString(t, doc, `count(for $i in /r/item group by $i/@cat return $i/@cat)`)
	if got != "3" {
		t.Fatalf("grouped count = %s, want 3 (group a yields both members' @cat)", got)
	}
}

func TestFlworGroupByUnionsMembers(t *testing.T) {
	doc := mustParseDoc(t, `<r><i k="x" v="1"/><i k="y" v="2"/><i k="x" v="3"/></r>`)
	ast, err := Compile(`for $i in /r/i let $k := $i/@k group by $k order by $k return <g k="{$k}">{count($i)}</g>`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, e := Evaluate(doc, ast, nil, EvaluateOptions{})
	if e.Failed() {
		t.Fatalf("Evaluate: %s", e.ErrMsg())
	}
	if v.Kind != KindNodeSet || v.NodeSet.Len() != 2 {
		t.Fatalf("expected 2 groups, got %v", v)
	}
	xGroup := v.NodeSet.Nodes[0].Node
	if attrStringValue(xGroup, "k") != "x" {
		t.Fatalf("first group key = %q, want x", attrStringValue(xGroup, "k"))
	}
	if nodeStringValue(xGroup) != "2" {
		t.Fatalf("count($i) for group x = %q, want 2", nodeStringValue(xGroup))
	}
}

func TestQuantified(t *testing.T) {
	doc := mustParseDoc(t, `<r><item n="1"/><item n="2"/></r>`)
	got := evalString(t, doc, `some $i in /r/item satisfies $i/@n = "2"`)
	if got != "true" {
		t.Fatalf("some: got %s", got)
	}
	got = evalString(t, doc, `every $i in /r/item satisfies $i/@n = "2"`)
	if got != "false" {
		t.Fatalf("every: got %s", got)
	}
}

func TestComputedElementConstructor(t *testing.T) {
	doc := mustParseDoc(t, `<r/>`)
	got := evalString(t, doc, `element greeting { "hello" }`)
	if got != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
}

func TestDirectElementConstructorWithAVT(t *testing.T) {
	doc := mustParseDoc(t, `<r val="42"/>`)
	ast, err := Compile(`<wrap n="{/r/@val}">body</wrap>`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, e := Evaluate(doc, ast, nil, EvaluateOptions{})
	if e.Failed() {
		t.Fatalf("Evaluate: %s", e.ErrMsg())
	}
	if v.Kind != KindNodeSet || v.NodeSet.Len() != 1 {
		t.Fatalf("expected singleton node-set, got %v", v)
	}
	n := v.NodeSet.Nodes[0].Node
	if tagName(n) != "wrap" {
		t.Fatalf("tag name = %q, want wrap", tagName(n))
	}
	if attrStringValue(n, "n") != "42" {
		t.Fatalf("attr n = %q, want 42", attrStringValue(n, "n"))
	}
}

func TestStringFunctions(t *testing.T) {
	doc := mustParseDoc(t, `<r/>`)
	cases := map[string]string{
		`concat("a", "b", "c")`:              "abc",
		`substring("hello world", 7)`:        "world",
		`substring("hello world", 1, 5)`:     "hello",
		`starts-with("hello", "he")`:         "true",
		`upper-case("abc")`:                  "ABC",
		`translate("abcd", "bd", "BD")`:      "aBcD",
		`substring-before("a-b-c", "-")`:     "a",
		`substring-after("a-b-c", "-")`:      "b-c",
	}
	for expr, want := range cases {
		if got := evalString(t, doc, expr); got != want {
			t.Errorf("%s = %q, want %q", expr, got, want)
		}
	}
}

func TestNumericAggregates(t *testing.T) {
	doc := mustParseDoc(t, `<r><n>1</n><n>2</n><n>3</n></r>`)
	if got := evalString(t, doc, "sum(/r/n)"); got != "6" {
		t.Fatalf("sum = %s, want 6", got)
	}
	if got := evalString(t, doc, "avg(/r/n)"); got != "2" {
		t.Fatalf("avg = %s, want 2", got)
	}
	if got := evalString(t, doc, "max(/r/n)"); got != "3" {
		t.Fatalf("max = %s, want 3", got)
	}
}

func TestUndefinedVariableFails(t *testing.T) {
	doc := mustParseDoc(t, `<r/>`)
	ast, err := Compile("$nope")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, e := Evaluate(doc, ast, nil, EvaluateOptions{})
	if !e.Failed() {
		t.Fatalf("expected evaluation to fail on undefined variable")
	}
}

func TestNamespaceAxisInheritsAncestorBinding(t *testing.T) {
	doc := mustParseDoc(t, `<r xmlns:foo="urn:foo"><child/></r>`)
	got := evalString(t, doc, `count(/r/child/namespace::*)`)
	if got != "2" {
		t.Fatalf("namespace::* on child = %s, want 2 (xml + foo)", got)
	}
	got = evalString(t, doc, `/r/child/namespace::foo`)
	if got != "urn:foo" {
		t.Fatalf("namespace::foo = %q, want urn:foo", got)
	}
}

func TestRegexFunctions(t *testing.T) {
	doc := mustParseDoc(t, `<r/>`)
	if got := evalString(t, doc, `matches("foo123", "[0-9]+")`); got != "true" {
		t.Fatalf("matches = %s", got)
	}
	if got := evalString(t, doc, `replace("foo123", "[0-9]+", "X")`); got != "fooX" {
		t.Fatalf("replace = %s", got)
	}
}

func TestSequenceFunctions(t *testing.T) {
	doc := mustParseDoc(t, `<r><n>3</n><n>1</n><n>3</n><n>2</n></r>`)
	if got := evalString(t, doc, `count(distinct-values(/r/n))`); got != "3" {
		t.Fatalf("distinct-values count = %s, want 3", got)
	}
	if got := evalString(t, doc, `exists(/r/n)`); got != "true" {
		t.Fatalf("exists = %s, want true", got)
	}
	if got := evalString(t, doc, `empty(/r/nope)`); got != "true" {
		t.Fatalf("empty = %s, want true", got)
	}
	if got := evalString(t, doc, `string-join(/r/n, ",")`); got != "3,1,3,2" {
		t.Fatalf("string-join = %q, want 3,1,3,2", got)
	}
	if got := evalString(t, doc, `deep-equal((1, 2, 3), (1, 2, 3))`); got != "true" {
		t.Fatalf("deep-equal = %s, want true", got)
	}
}

func TestDocFunctionsFailHonestly(t *testing.T) {
	doc := mustParseDoc(t, `<r/>`)
	ast, err := Compile(`doc("foo.xml")`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, e := Evaluate(doc, ast, nil, EvaluateOptions{})
	if !e.Failed() {
		t.Fatalf("expected doc() to fail evaluation")
	}
	if got := evalString(t, doc, `doc-available("foo.xml")`); got != "false" {
		t.Fatalf("doc-available = %s, want false", got)
	}
}

func TestIDAndIDref(t *testing.T) {
	doc := mustParseDoc(t, `<r><item id="a"/><ref target="a"/></r>`)
	got := evalString(t, doc, `count(id("a"))`)
	if got != "1" {
		t.Fatalf("id(a) count = %s, want 1", got)
	}
	got = evalString(t, doc, `count(idref("a"))`)
	if got != "1" {
		t.Fatalf("idref(a) count = %s, want 1", got)
	}
}

func TestDateTimeAccessors(t *testing.T) {
	doc := mustParseDoc(t, `<r/>`)
	if got := evalString(t, doc, `year-from-date("2024-03-05")`); got != "2024" {
		t.Fatalf("year-from-date = %s, want 2024", got)
	}
}

func TestCollationErrorsHard(t *testing.T) {
	doc := mustParseDoc(t, `<r><i n="2"/><i n="1"/></r>`)
	ast, err := Compile(`for $i in /r/i order by $i/@n collation "bogus://nope" return $i`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, e := Evaluate(doc, ast, nil, EvaluateOptions{})
	if !e.Failed() {
		t.Fatalf("expected an unsupported collation to fail evaluation")
	}
}
