package xpath

import (
	"net/url"
	"strings"
)

// Misc functions. unparsed-text* require a text-file resolver this
// engine doesn't have (it evaluates against a single in-memory host
// document), so they fail/report-unavailable the same way doc() does.
func init() {
	functionTable["lang"] = fnLang
	functionTable["resolve-uri"] = fnResolveURI
	functionTable["unparsed-text"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return e.fail("unparsed-text() is not supported: this engine has no external text resolver")
	}
	functionTable["unparsed-text-available"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(false)
	}
	functionTable["unparsed-text-lines"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return e.fail("unparsed-text-lines() is not supported: this engine has no external text resolver")
	}
}

// fnLang reports whether the nearest ancestor-or-self xml:lang
// declaration for the argument node (or the context node) matches the
// requested language, by exact match or prefix-before-hyphen per
// fn:lang's subtag rule.
func fnLang(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	testLang := strings.ToLower(args[0].AsString())
	node := ctx.Node
	if len(args) > 1 && args[1].Kind == KindNodeSet && args[1].NodeSet.Len() > 0 {
		node = args[1].NodeSet.Nodes[0].Node
	}
	if node == nil || ctx.Doc == nil {
		return boolValue(false)
	}
	for _, anc := range ancestorsOf(ctx.Doc, node, true) {
		for i := 1; i < anc.AttrCount(); i++ {
			if anc.AttrName(i) != "xml:lang" {
				continue
			}
			declared := strings.ToLower(anc.AttrValue(i))
			return boolValue(declared == testLang || strings.HasPrefix(declared, testLang+"-"))
		}
	}
	return boolValue(false)
}

func fnResolveURI(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	rel := args[0].AsString()
	if len(args) < 2 || args[1].AsString() == "" {
		u, err := url.Parse(rel)
		if err != nil || !u.IsAbs() {
			return e.fail("resolve-uri() requires an absolute base URI when none is supplied")
		}
		return stringValue(rel)
	}
	base, err := url.Parse(args[1].AsString())
	if err != nil {
		return e.fail("invalid base URI: " + args[1].AsString())
	}
	ref, err := url.Parse(rel)
	if err != nil {
		return e.fail("invalid relative URI: " + rel)
	}
	return stringValue(base.ResolveReference(ref).String())
}
