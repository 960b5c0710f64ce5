package xpath

import (
	"math"
	"strings"
)

// Eval walks ast under ctx, returning its value. On any unsupported
// construct or type error it latches e.Failed() and returns an empty
// Value rather than panicking or returning a Go error.
func (e *Evaluator) Eval(ctx EvaluationContext, ast *Node) Value {
	if e.unsupported || ast == nil {
		return Value{}
	}
	switch ast.Type {
	case NLiteral:
		return stringValue(ast.Value)
	case NNumber:
		return numberValue(parseXPathNumber(ast.Value))
	case NVariableRef:
		if v, ok := ctx.Vars[ast.Value]; ok {
			return v
		}
		return e.fail("undefined variable $" + ast.Value)
	case NRoot:
		return nodeSetValue(singletonNodeSet(ctx.Doc.Root(), "", tagText(ctx.Doc.Root())))
	case NContext:
		return e.contextValue(ctx)
	case NParent:
		p := parentOf(ctx.Doc, ctx.Node)
		if p == nil {
			return nodeSetValue(&NodeSet{})
		}
		return nodeSetValue(singletonNodeSet(p, "", nodeStringValue(p)))
	case NStep:
		return e.evalStep(ctx, ast)
	case NPath:
		return e.evalPath(ctx, ast)
	case NPredicate:
		return e.evalPredicate(ctx, ast)
	case NBinaryOp:
		return e.evalBinaryOp(ctx, ast)
	case NUnaryOp:
		v := e.Eval(ctx, ast.Children[0])
		return numberValue(-v.AsNumber())
	case NUnion:
		return e.evalSetOp(ctx, ast, setUnion)
	case NIntersect:
		return e.evalSetOp(ctx, ast, setIntersect)
	case NExcept:
		return e.evalSetOp(ctx, ast, setExcept)
	case NFunctionCall:
		return e.callFunction(ctx, ast)
	case NIf:
		cond := e.Eval(ctx, ast.Children[0])
		if e.unsupported {
			return Value{}
		}
		if cond.EffectiveBoolean() {
			return e.Eval(ctx, ast.Children[1])
		}
		return e.Eval(ctx, ast.Children[2])
	case NQuantified:
		return e.evalQuantified(ctx, ast)
	case NFlwor:
		return e.evalFlwor(ctx, ast)
	case NElementConstructor, NAttributeConstructor, NTextConstructor,
		NCommentConstructor, NPIConstructor, NDocumentConstructor:
		return e.construct(ctx, ast)
	}
	return e.fail("unsupported expression form")
}

func (e *Evaluator) contextValue(ctx EvaluationContext) Value {
	if ctx.Attr != "" {
		return stringValue(attrStringValue(ctx.Node, ctx.Attr))
	}
	if ctx.Node == nil {
		return nodeSetValue(&NodeSet{})
	}
	return nodeSetValue(singletonNodeSet(ctx.Node, "", nodeStringValue(ctx.Node)))
}

func attrStringValue(n Tag, attr string) string {
	for i := 1; i < n.AttrCount(); i++ {
		if n.AttrName(i) == attr {
			return n.AttrValue(i)
		}
	}
	return ""
}

// nodeStringValue computes the string-value of an element/document
// node as the concatenation of its descendant text, or the slot-0
// value for text/comment/PI leaf nodes.
func nodeStringValue(n Tag) string {
	if n == nil {
		return ""
	}
	if n.ChildCount() == 0 {
		return tagText(n)
	}
	var b strings.Builder
	var walk func(Tag)
	walk = func(t Tag) {
		if t.ChildCount() == 0 {
			name := tagName(t)
			if name == "#text" {
				b.WriteString(tagText(t))
			}
			return
		}
		for i := 0; i < t.ChildCount(); i++ {
			walk(t.Child(i))
		}
	}
	walk(n)
	return b.String()
}

// evalStep evaluates a single axis step against the current context
// node, producing a node-set.
func (e *Evaluator) evalStep(ctx EvaluationContext, ast *Node) Value {
	if ctx.Node == nil {
		return nodeSetValue(&NodeSet{})
	}
	doc := ctx.Doc
	if ast.Step.Axis == AxisNamespace {
		// Namespace nodes are synthetic and must be allocated through
		// the constructed-node pool so they resolve back through
		// TagByID for document-order comparison.
		doc = newConstructDoc(ctx.Doc)
	}
	refs := evalAxis(doc, ctx.Node, ast.Step.Axis)
	ns := &NodeSet{}
	for _, r := range refs {
		if !matchesNodeTest(doc, r, ast.Step) {
			continue
		}
		var s string
		switch {
		case ast.Step.Axis == AxisNamespace:
			s = nodeStringValue(r.Node)
		case r.Attr != "":
			s = attrStringValue(r.Node, r.Attr)
		default:
			s = nodeStringValue(r.Node)
		}
		ns.Nodes = append(ns.Nodes, r)
		ns.Strings = append(ns.Strings, s)
	}
	return nodeSetValue(sortDedupNodeSet(doc, ns))
}

func matchesNodeTest(doc Document, r NodeRef, step *StepInfo) bool {
	if step.Axis == AxisAttribute || step.Axis == AxisNamespace {
		if step.NodeTest == "*" {
			return true
		}
		return r.Attr == step.NodeTest
	}
	if r.Attr != "" {
		return false
	}
	if step.IsNodeTypeTest {
		name := tagName(r.Node)
		switch step.NodeTest {
		case "node()":
			return true
		case "text()":
			return name == "#text"
		case "comment()":
			return name == "#comment"
		case "processing-instruction()":
			return len(name) > 0 && name[0] == '?'
		}
		return false
	}
	name := tagName(r.Node)
	if isSyntheticName(name) {
		return false
	}
	if step.NodeTest == "*" {
		return true
	}
	return name == step.NodeTest
}

// evalPath evaluates a sequence of steps, threading the result of each
// step as the context node-set for the next.
func (e *Evaluator) evalPath(ctx EvaluationContext, ast *Node) Value {
	var current *NodeSet
	first := true
	for _, step := range ast.Children {
		if first {
			v := e.Eval(ctx, step)
			if e.unsupported {
				return Value{}
			}
			if v.Kind != KindNodeSet {
				return e.fail("path step did not produce a node-set")
			}
			current = v.NodeSet
			first = false
			continue
		}
		next := &NodeSet{}
		for i, r := range current.Nodes {
			if r.Node == nil {
				continue
			}
			childCtx := ctx.child(r.Node, r.Attr, i+1, current.Len())
			v := e.Eval(childCtx, step)
			if e.unsupported {
				return Value{}
			}
			if v.Kind != KindNodeSet {
				return e.fail("path step did not produce a node-set")
			}
			next.Nodes = append(next.Nodes, v.NodeSet.Nodes...)
			next.Strings = append(next.Strings, v.NodeSet.Strings...)
		}
		current = sortDedupNodeSet(ctx.Doc, next)
	}
	if current == nil {
		current = &NodeSet{}
	}
	return nodeSetValue(current)
}

// evalPredicate filters a node-set or sequence by a predicate
// expression, applying the numeric-position shorthand.
func (e *Evaluator) evalPredicate(ctx EvaluationContext, ast *Node) Value {
	base := e.Eval(ctx, ast.Children[0])
	if e.unsupported {
		return Value{}
	}
	if base.Kind != KindNodeSet {
		return e.fail("predicate applied to a non-node-set")
	}
	src := base.NodeSet
	out := &NodeSet{PreserveOrder: src.PreserveOrder}
	size := src.Len()
	for i, r := range src.Nodes {
		itemCtx := ctx.child(r.Node, r.Attr, i+1, size)
		pv := e.Eval(itemCtx, ast.Children[1])
		if e.unsupported {
			return Value{}
		}
		var keep bool
		if pv.Kind == KindNumber {
			keep = int(pv.Num) == i+1
		} else {
			keep = pv.EffectiveBoolean()
		}
		if keep {
			out.Nodes = append(out.Nodes, r)
			out.Strings = append(out.Strings, src.Strings[i])
		}
	}
	return nodeSetValue(out)
}

type setOp func(a, b *NodeSet) *NodeSet

func (e *Evaluator) evalSetOp(ctx EvaluationContext, ast *Node, op setOp) Value {
	a := e.Eval(ctx, ast.Children[0])
	if e.unsupported {
		return Value{}
	}
	b := e.Eval(ctx, ast.Children[1])
	if e.unsupported {
		return Value{}
	}
	if a.Kind != KindNodeSet || b.Kind != KindNodeSet {
		return e.fail("set operator applied to a non-node-set")
	}
	return nodeSetValue(sortDedupNodeSet(ctx.Doc, op(a.NodeSet, b.NodeSet)))
}

func setUnion(a, b *NodeSet) *NodeSet {
	out := &NodeSet{}
	out.Nodes = append(out.Nodes, a.Nodes...)
	out.Strings = append(out.Strings, a.Strings...)
	out.Nodes = append(out.Nodes, b.Nodes...)
	out.Strings = append(out.Strings, b.Strings...)
	return out
}

func setIntersect(a, b *NodeSet) *NodeSet {
	bset := make(map[string]bool, b.Len())
	for _, r := range b.Nodes {
		bset[nodeRefKey(r)] = true
	}
	out := &NodeSet{}
	for i, r := range a.Nodes {
		if bset[nodeRefKey(r)] {
			out.Nodes = append(out.Nodes, r)
			out.Strings = append(out.Strings, a.Strings[i])
		}
	}
	return out
}

func setExcept(a, b *NodeSet) *NodeSet {
	bset := make(map[string]bool, b.Len())
	for _, r := range b.Nodes {
		bset[nodeRefKey(r)] = true
	}
	out := &NodeSet{}
	for i, r := range a.Nodes {
		if !bset[nodeRefKey(r)] {
			out.Nodes = append(out.Nodes, r)
			out.Strings = append(out.Strings, a.Strings[i])
		}
	}
	return out
}

func (e *Evaluator) evalBinaryOp(ctx EvaluationContext, ast *Node) Value {
	switch ast.Value {
	case "and":
		l := e.Eval(ctx, ast.Children[0])
		if e.unsupported {
			return Value{}
		}
		if !l.EffectiveBoolean() {
			return boolValue(false)
		}
		r := e.Eval(ctx, ast.Children[1])
		if e.unsupported {
			return Value{}
		}
		return boolValue(r.EffectiveBoolean())
	case "or":
		l := e.Eval(ctx, ast.Children[0])
		if e.unsupported {
			return Value{}
		}
		if l.EffectiveBoolean() {
			return boolValue(true)
		}
		r := e.Eval(ctx, ast.Children[1])
		if e.unsupported {
			return Value{}
		}
		return boolValue(r.EffectiveBoolean())
	case ",":
		// Sequence construction: concatenate node-sets, or fall back to
		// treating the result as an opaque multi-value via the last item
		// when non-node-set operands are mixed in.
		return e.evalSequence(ctx, ast)
	}

	l := e.Eval(ctx, ast.Children[0])
	if e.unsupported {
		return Value{}
	}
	r := e.Eval(ctx, ast.Children[1])
	if e.unsupported {
		return Value{}
	}

	switch ast.Value {
	case "+":
		return numberValue(l.AsNumber() + r.AsNumber())
	case "-":
		return numberValue(l.AsNumber() - r.AsNumber())
	case "*":
		return numberValue(l.AsNumber() * r.AsNumber())
	case "div":
		return numberValue(l.AsNumber() / r.AsNumber())
	case "mod":
		return numberValue(math.Mod(l.AsNumber(), r.AsNumber()))
	case "to":
		return e.evalRange(l, r)
	case "is":
		return boolValue(sameNode(l, r))
	case "=", "!=", "<", "<=", ">", ">=":
		return generalComparison(ast.Value, l, r)
	case "eq", "ne", "lt", "le", "gt", "ge":
		return valueComparison(ast.Value, l, r)
	}
	return e.fail("unsupported operator " + ast.Value)
}

func (e *Evaluator) evalSequence(ctx EvaluationContext, ast *Node) Value {
	out := &NodeSet{PreserveOrder: true}
	allNodeSets := true
	for _, c := range ast.Children {
		v := e.Eval(ctx, c)
		if e.unsupported {
			return Value{}
		}
		if v.Kind != KindNodeSet {
			allNodeSets = false
			continue
		}
		out.Nodes = append(out.Nodes, v.NodeSet.Nodes...)
		out.Strings = append(out.Strings, v.NodeSet.Strings...)
	}
	if !allNodeSets {
		// Mixed atomic sequence: surface as the last evaluated value,
		// the common case being a singleton typed expression.
		return e.Eval(ctx, ast.Children[len(ast.Children)-1])
	}
	return nodeSetValue(out)
}

func (e *Evaluator) evalRange(l, r Value) Value {
	lo, hi := int(l.AsNumber()), int(r.AsNumber())
	ns := &NodeSet{PreserveOrder: true}
	for i := lo; i <= hi; i++ {
		ns.Nodes = append(ns.Nodes, NodeRef{})
		ns.Strings = append(ns.Strings, formatXPathNumber(float64(i)))
	}
	return nodeSetValue(ns)
}

func sameNode(l, r Value) bool {
	if l.Kind != KindNodeSet || r.Kind != KindNodeSet {
		return false
	}
	if l.NodeSet.Len() != 1 || r.NodeSet.Len() != 1 {
		return false
	}
	a, b := l.NodeSet.Nodes[0], r.NodeSet.Nodes[0]
	if a.Node == nil || b.Node == nil {
		return a.Node == b.Node
	}
	return a.Node.ID() == b.Node.ID() && a.Attr == b.Attr
}

// generalComparison implements the XPath 1.0-style "=" family: a
// node-set operand compares true if ANY of its string values satisfies
// the comparison against the other (possibly coerced) operand.
func generalComparison(op string, l, r Value) Value {
	if l.Kind == KindNodeSet && r.Kind == KindNodeSet {
		for _, ls := range l.NodeSet.Strings {
			for _, rs := range r.NodeSet.Strings {
				if compareAtomic(op, stringValue(ls), stringValue(rs)) {
					return boolValue(true)
				}
			}
		}
		return boolValue(false)
	}
	if l.Kind == KindNodeSet {
		for _, ls := range l.NodeSet.Strings {
			if compareAtomic(op, inferAtomic(ls, r), r) {
				return boolValue(true)
			}
		}
		return boolValue(false)
	}
	if r.Kind == KindNodeSet {
		for _, rs := range r.NodeSet.Strings {
			if compareAtomic(op, l, inferAtomic(rs, l)) {
				return boolValue(true)
			}
		}
		return boolValue(false)
	}
	return boolValue(compareAtomic(op, l, r))
}

// inferAtomic builds a Value from a node-set's string member typed
// like other, so "price > 10" compares price's text numerically.
func inferAtomic(s string, other Value) Value {
	switch other.Kind {
	case KindNumber:
		return numberValue(parseXPathNumber(s))
	case KindBoolean:
		return boolValue(s != "")
	default:
		return stringValue(s)
	}
}

func compareAtomic(op string, l, r Value) bool {
	if l.Kind == KindNumber || r.Kind == KindNumber {
		a, b := l.AsNumber(), r.AsNumber()
		switch op {
		case "=", "eq":
			return a == b
		case "!=", "ne":
			return a != b
		case "<", "lt":
			return a < b
		case "<=", "le":
			return a <= b
		case ">", "gt":
			return a > b
		case ">=", "ge":
			return a >= b
		}
	}
	if l.Kind == KindBoolean || r.Kind == KindBoolean {
		a, b := l.EffectiveBoolean(), r.EffectiveBoolean()
		switch op {
		case "=", "eq":
			return a == b
		case "!=", "ne":
			return a != b
		}
	}
	a, b := l.AsString(), r.AsString()
	switch op {
	case "=", "eq":
		return a == b
	case "!=", "ne":
		return a != b
	case "<", "lt":
		return a < b
	case "<=", "le":
		return a <= b
	case ">", "gt":
		return a > b
	case ">=", "ge":
		return a >= b
	}
	return false
}

// valueComparison implements the XPath 2.0 "eq"/"lt"/... family: both
// operands must already be singleton atomics (node-sets are reduced to
// their first value, matching this engine's lenient coercion model).
func valueComparison(op string, l, r Value) Value {
	return boolValue(compareAtomic(op, l, r))
}

func (e *Evaluator) evalQuantified(ctx EvaluationContext, ast *Node) Value {
	some := ast.Value == "some"
	var rec func(i int, c EvaluationContext) bool
	rec = func(i int, c EvaluationContext) bool {
		if i == len(ast.ForLet) {
			v := e.Eval(c, ast.Return)
			if e.unsupported {
				return false
			}
			return v.EffectiveBoolean()
		}
		binding := ast.ForLet[i]
		seq := e.Eval(c, binding.Children[0])
		if e.unsupported {
			return false
		}
		if seq.Kind != KindNodeSet {
			c2 := c.withVar(binding.Value, seq)
			return rec(i+1, c2)
		}
		for j, r := range seq.NodeSet.Nodes {
			item := nodeRefValue(r, seq.NodeSet.Strings[j])
			c2 := c.withVar(binding.Value, item)
			ok := rec(i+1, c2)
			if e.unsupported {
				return false
			}
			if some && ok {
				return true
			}
			if !some && !ok {
				return false
			}
		}
		return !some
	}
	result := rec(0, ctx)
	if e.unsupported {
		return Value{}
	}
	return boolValue(result)
}

func nodeRefValue(r NodeRef, s string) Value {
	if r.Node == nil && r.Attr == "" {
		return stringValue(s)
	}
	return nodeSetValue(&NodeSet{Nodes: []NodeRef{r}, Strings: []string{s}})
}
