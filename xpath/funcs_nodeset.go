package xpath

// Node-set functions. This engine evaluates against a single in-memory
// host document with no external document-loading layer, so the
// functions that name other documents are scoped to what that can
// honestly support: doc-available always reports false, and doc/
// collection/uri-collection fail evaluation instead of pretending to
// fetch something.
func init() {
	functionTable["count"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		v := argOr(args, 0, ctx)
		if v.Kind != KindNodeSet {
			return e.fail("count() requires a node-set")
		}
		return numberValue(float64(v.NodeSet.Len()))
	}
	functionTable["id"] = fnID
	functionTable["idref"] = fnIDref
	functionTable["root"] = fnRoot
	functionTable["doc"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return e.fail("doc() is not supported: this engine has no external document loader")
	}
	functionTable["doc-available"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(false)
	}
	functionTable["collection"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return e.fail("collection() is not supported: this engine has no document collection resolver")
	}
	functionTable["uri-collection"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return e.fail("uri-collection() is not supported: this engine has no document collection resolver")
	}
}

// fnID implements fn:id by walking every element under the document
// root and matching any attribute literally named "id" against one of
// the whitespace-separated tokens in the argument — an approximation
// of DTD/XSD ID-typed attribute declarations, which this engine does
// not parse.
func fnID(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	if ctx.Doc == nil {
		return nodeSetValue(&NodeSet{})
	}
	tokens := splitTokens(argOr(args, 0, ctx).AsString())
	want := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		want[t] = true
	}
	ns := &NodeSet{}
	walkTree(ctx.Doc.Root(), func(n Tag) {
		for i := 1; i < n.AttrCount(); i++ {
			if n.AttrName(i) == "id" && want[n.AttrValue(i)] {
				ns.Nodes = append(ns.Nodes, NodeRef{Node: n})
				ns.Strings = append(ns.Strings, nodeStringValue(n))
				return
			}
		}
	})
	return nodeSetValue(sortDedupNodeSet(ctx.Doc, ns))
}

// fnIDref implements fn:idref the same way fnID approximates fn:id:
// any attribute other than "id" whose value contains one of the
// requested tokens is treated as an IDREF pointing at it.
func fnIDref(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	if ctx.Doc == nil {
		return nodeSetValue(&NodeSet{})
	}
	tokens := splitTokens(argOr(args, 0, ctx).AsString())
	want := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		want[t] = true
	}
	ns := &NodeSet{}
	walkTree(ctx.Doc.Root(), func(n Tag) {
		for i := 1; i < n.AttrCount(); i++ {
			if n.AttrName(i) == "id" {
				continue
			}
			for _, tok := range splitTokens(n.AttrValue(i)) {
				if want[tok] {
					ns.Nodes = append(ns.Nodes, NodeRef{Node: n})
					ns.Strings = append(ns.Strings, nodeStringValue(n))
					return
				}
			}
		}
	})
	return nodeSetValue(sortDedupNodeSet(ctx.Doc, ns))
}

func fnRoot(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	if len(args) > 0 {
		v := args[0]
		if v.Kind != KindNodeSet || v.NodeSet.Len() == 0 {
			return nodeSetValue(&NodeSet{})
		}
		n := v.NodeSet.Nodes[0].Node
		for p := parentOf(ctx.Doc, n); p != nil; p = parentOf(ctx.Doc, n) {
			n = p
		}
		return nodeSetValue(singletonNodeSet(n, "", nodeStringValue(n)))
	}
	if ctx.Doc == nil {
		return nodeSetValue(&NodeSet{})
	}
	root := ctx.Doc.Root()
	return nodeSetValue(singletonNodeSet(root, "", nodeStringValue(root)))
}

func walkTree(n Tag, visit func(Tag)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < n.ChildCount(); i++ {
		walkTree(n.Child(i), visit)
	}
}

func splitTokens(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = nil
		}
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			flush()
			continue
		}
		cur = append(cur, r)
	}
	flush()
	return out
}
