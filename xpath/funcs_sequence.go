package xpath

import "github.com/google/go-cmp/cmp"

func init() {
	functionTable["exists"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(seqLen(args[0]) > 0)
	}
	functionTable["empty"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(seqLen(args[0]) == 0)
	}
	functionTable["distinct-values"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		strs := seqStrings(args[0])
		seen := make(map[string]bool, len(strs))
		ns := &NodeSet{PreserveOrder: true}
		for _, s := range strs {
			if seen[s] {
				continue
			}
			seen[s] = true
			ns.Nodes = append(ns.Nodes, NodeRef{})
			ns.Strings = append(ns.Strings, s)
		}
		return nodeSetValue(ns)
	}
	functionTable["index-of"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		target := args[1].AsString()
		ns := &NodeSet{PreserveOrder: true}
		for i, s := range seqStrings(args[0]) {
			if s == target {
				ns.Nodes = append(ns.Nodes, NodeRef{})
				ns.Strings = append(ns.Strings, formatXPathNumber(float64(i+1)))
			}
		}
		return nodeSetValue(ns)
	}
	functionTable["insert-before"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		base := seqStrings(args[0])
		pos := int(args[1].AsNumber()) - 1
		insert := seqStrings(args[2])
		if pos < 0 {
			pos = 0
		}
		if pos > len(base) {
			pos = len(base)
		}
		out := append([]string{}, base[:pos]...)
		out = append(out, insert...)
		out = append(out, base[pos:]...)
		return stringsToNodeSet(out)
	}
	functionTable["remove"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		base := seqStrings(args[0])
		pos := int(args[1].AsNumber()) - 1
		if pos < 0 || pos >= len(base) {
			return stringsToNodeSet(base)
		}
		out := append([]string{}, base[:pos]...)
		out = append(out, base[pos+1:]...)
		return stringsToNodeSet(out)
	}
	functionTable["reverse"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		base := seqStrings(args[0])
		out := make([]string, len(base))
		for i, s := range base {
			out[len(base)-1-i] = s
		}
		return stringsToNodeSet(out)
	}
	functionTable["subsequence"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		base := seqStrings(args[0])
		start := int(args[1].AsNumber()) - 1
		length := len(base) - start
		if len(args) > 2 {
			length = int(args[2].AsNumber())
		}
		if start < 0 {
			length += start
			start = 0
		}
		if start >= len(base) || length <= 0 {
			return nodeSetValue(&NodeSet{PreserveOrder: true})
		}
		end := start + length
		if end > len(base) {
			end = len(base)
		}
		return stringsToNodeSet(base[start:end])
	}
	functionTable["unordered"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return args[0]
	}
	functionTable["deep-equal"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(cmp.Equal(seqStrings(args[0]), seqStrings(args[1])))
	}
	functionTable["zero-or-one"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		if seqLen(args[0]) > 1 {
			return e.fail("zero-or-one() called with a sequence of more than one item")
		}
		return args[0]
	}
	functionTable["one-or-more"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		if seqLen(args[0]) == 0 {
			return e.fail("one-or-more() called with an empty sequence")
		}
		return args[0]
	}
	functionTable["exactly-one"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		if seqLen(args[0]) != 1 {
			return e.fail("exactly-one() called with a sequence that is not of length one")
		}
		return args[0]
	}
}

func seqLen(v Value) int {
	if v.Kind == KindNodeSet {
		return v.NodeSet.Len()
	}
	return 1
}

func seqStrings(v Value) []string {
	if v.Kind == KindNodeSet {
		return v.NodeSet.Strings
	}
	return []string{v.AsString()}
}

func stringsToNodeSet(strs []string) Value {
	ns := &NodeSet{PreserveOrder: true}
	for _, s := range strs {
		ns.Nodes = append(ns.Nodes, NodeRef{})
		ns.Strings = append(ns.Strings, s)
	}
	return nodeSetValue(ns)
}
