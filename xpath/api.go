package xpath

// EvaluateOptions configures one Evaluate/Query call: trace logging
// and its verbosity, plus initial variable bindings available to the
// query as "$name".
type EvaluateOptions struct {
	Trace      bool
	TraceLevel string // "warning", "info" (default, also for unrecognized values), "detail", "trace"
	Variables  map[string]Value
}

// Evaluate runs ast against doc's root, in the given node's context
// when ctxNode is non-nil, and returns the result. Call e.Failed()/
// e.ErrMsg() for error detail when the returned Value is the zero
// value and the evaluation was actually attempted against non-trivial
// input.
func Evaluate(doc Document, ast *Node, ctxNode Tag, opts EvaluateOptions) (Value, *Evaluator) {
	e := NewEvaluator(opts.Trace, opts.TraceLevel)
	if ctxNode == nil {
		ctxNode = doc.Root()
	}
	ctx := EvaluationContext{
		Doc:  doc,
		Node: ctxNode,
		Pos:  1,
		Size: 1,
		Vars: opts.Variables,
	}
	v := e.Eval(ctx, ast)
	return v, e
}

// NodeStringValue returns the string-value of a match as reported to a
// Query callback: an attribute's value, or an element/text node's
// string-value.
func NodeStringValue(node Tag, attr string) string {
	if attr != "" {
		return attrStringValue(node, attr)
	}
	return nodeStringValue(node)
}

// NodeLabel returns a short human-readable label for a match: the
// attribute name prefixed with '@', or the element/text/comment name.
func NodeLabel(node Tag, attr string) string {
	if attr != "" {
		return "@" + attr
	}
	return tagName(node)
}

// Query evaluates ast and, if it yields a node-set, invokes callback
// once per match in document order, updating doc's cursor before each
// call the way a streaming XML host would report matches. Traversal
// stops early if callback returns CallbackTerminate.
func Query(doc Document, ast *Node, ctxNode Tag, opts EvaluateOptions, callback Callback) *Evaluator {
	v, e := Evaluate(doc, ast, ctxNode, opts)
	if e.Failed() || v.Kind != KindNodeSet {
		return e
	}
	for _, r := range v.NodeSet.Nodes {
		doc.SetCursor(r.Node, r.Attr)
		if callback(doc, r.Node, r.Attr) == CallbackTerminate {
			break
		}
	}
	return e
}
