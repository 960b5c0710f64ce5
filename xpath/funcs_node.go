package xpath

import "strings"

// Node accessor functions. QName values are represented as plain
// strings throughout this engine (the same simplification name() and
// local-name() already make), so QName/resolve-QName are identity-ish
// helpers over that string representation rather than a distinct typed
// value.
func init() {
	functionTable["name"] = fnNodeName
	functionTable["local-name"] = fnLocalName
	functionTable["node-name"] = fnNodeName
	functionTable["namespace-uri"] = fnNamespaceURI
	functionTable["nilled"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(false)
	}
	functionTable["base-uri"] = fnBaseURI
	functionTable["document-uri"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return nodeSetValue(&NodeSet{})
	}
	functionTable["data"] = fnData
	functionTable["in-scope-prefixes"] = fnInScopePrefixes
	functionTable["namespace-uri-for-prefix"] = fnNamespaceURIForPrefix
	functionTable["QName"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		if len(args) < 2 {
			return stringValue("")
		}
		return stringValue(args[1].AsString())
	}
	functionTable["resolve-QName"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(args[0].AsString())
	}
	functionTable["prefix-from-QName"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		s := args[0].AsString()
		if i := strings.Index(s, ":"); i >= 0 {
			return stringValue(s[:i])
		}
		return stringValue("")
	}
	functionTable["local-name-from-QName"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		s := args[0].AsString()
		if i := strings.Index(s, ":"); i >= 0 {
			return stringValue(s[i+1:])
		}
		return stringValue(s)
	}
	functionTable["namespace-uri-from-QName"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue("")
	}
}

func fnNodeName(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	v := argOr(args, 0, ctx)
	if v.Kind != KindNodeSet || v.NodeSet.Len() == 0 {
		return stringValue("")
	}
	r := v.NodeSet.Nodes[0]
	if r.Attr != "" {
		return stringValue(r.Attr)
	}
	return stringValue(tagName(r.Node))
}

func fnLocalName(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	v := fnNodeName(e, ctx, args)
	s := v.AsString()
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return stringValue(s[i+1:])
	}
	return stringValue(s)
}

func fnNamespaceURI(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	v := argOr(args, 0, ctx)
	if v.Kind != KindNodeSet || v.NodeSet.Len() == 0 || ctx.Doc == nil {
		return stringValue("")
	}
	n := v.NodeSet.Nodes[0].Node
	if n == nil {
		return stringValue("")
	}
	return stringValue(ctx.Doc.NamespaceURI(n.NamespaceID()))
}

// fnBaseURI reports the nearest xml:base attribute value walking from
// the argument node toward the root, or "" when none is declared.
func fnBaseURI(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	v := argOr(args, 0, ctx)
	if v.Kind != KindNodeSet || v.NodeSet.Len() == 0 || ctx.Doc == nil {
		return stringValue("")
	}
	for _, anc := range ancestorsOf(ctx.Doc, v.NodeSet.Nodes[0].Node, true) {
		for i := 1; i < anc.AttrCount(); i++ {
			if anc.AttrName(i) == "xml:base" {
				return stringValue(anc.AttrValue(i))
			}
		}
	}
	return stringValue("")
}

// fnData atomizes its argument: a node-set becomes the sequence of its
// members' string values, an atomic value passes through unchanged.
func fnData(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	v := argOr(args, 0, ctx)
	if v.Kind != KindNodeSet {
		return v
	}
	ns := &NodeSet{PreserveOrder: true}
	for _, s := range v.NodeSet.Strings {
		ns.Nodes = append(ns.Nodes, NodeRef{})
		ns.Strings = append(ns.Strings, s)
	}
	return nodeSetValue(ns)
}

func fnInScopePrefixes(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	v := argOr(args, 0, ctx)
	if v.Kind != KindNodeSet || v.NodeSet.Len() == 0 || ctx.Doc == nil {
		return nodeSetValue(&NodeSet{})
	}
	bindings := namespaceBindings(ctx.Doc, v.NodeSet.Nodes[0].Node)
	ns := &NodeSet{PreserveOrder: true}
	for p := range bindings {
		ns.Nodes = append(ns.Nodes, NodeRef{})
		ns.Strings = append(ns.Strings, p)
	}
	return nodeSetValue(ns)
}

func fnNamespaceURIForPrefix(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	if len(args) < 2 || args[1].Kind != KindNodeSet || args[1].NodeSet.Len() == 0 || ctx.Doc == nil {
		return nodeSetValue(&NodeSet{})
	}
	bindings := namespaceBindings(ctx.Doc, args[1].NodeSet.Nodes[0].Node)
	uri, ok := bindings[args[0].AsString()]
	if !ok {
		return nodeSetValue(&NodeSet{})
	}
	return stringValue(uri)
}
