package xpath

import "sort"

// tuple is one row flowing through the FLWOR pipeline: the variable
// bindings accumulated so far.
type tuple struct {
	ctx EvaluationContext
}

// evalFlwor runs the For/Let/Where/GroupBy/OrderBy/Count/Return
// pipeline described for FLWOR expressions: each clause transforms a
// stream of tuples, threading variable bindings forward.
func (e *Evaluator) evalFlwor(ctx EvaluationContext, ast *Node) Value {
	tuples := []tuple{{ctx: ctx}}

	for _, binding := range ast.ForLet {
		var next []tuple
		for _, t := range tuples {
			seq := e.Eval(t.ctx, binding.Children[0])
			if e.unsupported {
				return Value{}
			}
			if binding.Type == NLet {
				next = append(next, tuple{ctx: t.ctx.withVar(binding.Value, seq)})
				continue
			}
			// For: iterate each item of seq, binding one at a time.
			if seq.Kind != KindNodeSet {
				next = append(next, tuple{ctx: t.ctx.withVar(binding.Value, seq)})
				continue
			}
			for i, r := range seq.NodeSet.Nodes {
				item := nodeRefValue(r, seq.NodeSet.Strings[i])
				next = append(next, tuple{ctx: t.ctx.withVar(binding.Value, item)})
			}
		}
		tuples = next
	}

	if ast.Where != nil {
		var kept []tuple
		for _, t := range tuples {
			v := e.Eval(t.ctx, ast.Where)
			if e.unsupported {
				return Value{}
			}
			if v.EffectiveBoolean() {
				kept = append(kept, t)
			}
		}
		tuples = kept
	}

	if len(ast.GroupBy) > 0 {
		tuples = e.groupTuples(tuples, ast.GroupBy)
		if e.unsupported {
			return Value{}
		}
	}

	if len(ast.OrderBy) > 0 {
		tuples = e.orderTuples(tuples, ast.OrderBy)
		if e.unsupported {
			return Value{}
		}
	}

	if ast.Count != "" {
		for i := range tuples {
			tuples[i].ctx = tuples[i].ctx.withVar(ast.Count, numberValue(float64(i+1)))
		}
	}

	out := &NodeSet{PreserveOrder: true}
	allNodeSets := true
	var lastAtomic Value
	for _, t := range tuples {
		v := e.Eval(t.ctx, ast.Return)
		if e.unsupported {
			return Value{}
		}
		if v.Kind != KindNodeSet {
			allNodeSets = false
			lastAtomic = v
			continue
		}
		out.Nodes = append(out.Nodes, v.NodeSet.Nodes...)
		out.Strings = append(out.Strings, v.NodeSet.Strings...)
	}
	if !allNodeSets && len(tuples) <= 1 {
		return lastAtomic
	}
	return nodeSetValue(out)
}

// groupTuples partitions tuples by the string-joined value of their
// group-by keys, binding each key variable once per group (to the
// shared key value) the way XQuery group-by re-scopes grouping
// variables as singletons. Every other in-scope variable is re-bound
// to the sequence union of its per-member bindings across the group.
func (e *Evaluator) groupTuples(tuples []tuple, keys []*Node) []tuple {
	type group struct {
		keyStr string
		tuples []tuple
	}
	var order []string
	groups := make(map[string]*group)
	for _, t := range tuples {
		var keyParts []string
		for _, k := range keys {
			v := e.Eval(t.ctx, k)
			if e.unsupported {
				return nil
			}
			keyParts = append(keyParts, v.AsString())
		}
		keyStr := stringsJoin(keyParts)
		g, ok := groups[keyStr]
		if !ok {
			g = &group{keyStr: keyStr}
			groups[keyStr] = g
			order = append(order, keyStr)
		}
		g.tuples = append(g.tuples, t)
	}

	keyVars := make(map[string]bool)
	for _, k := range keys {
		if k.Type == NVariableRef {
			keyVars[k.Value] = true
		}
	}

	var out []tuple
	for _, ks := range order {
		out = append(out, e.mergeGroup(groups[ks].tuples, keyVars))
	}
	return out
}

// mergeGroup collapses a group's member tuples into the single
// representative tuple that flows into order-by/count/return: key
// variables keep the shared value they were grouped on, and every
// other variable becomes the sequence union of its bindings across
// the group's members, preserving member order.
func (e *Evaluator) mergeGroup(tuples []tuple, keyVars map[string]bool) tuple {
	if len(tuples) == 1 {
		return tuples[0]
	}
	names := make(map[string]bool)
	for _, t := range tuples {
		for name := range t.ctx.Vars {
			names[name] = true
		}
	}
	merged := make(map[string]Value, len(names))
	for name := range names {
		if keyVars[name] {
			merged[name] = tuples[0].ctx.Vars[name]
			continue
		}
		ns := &NodeSet{PreserveOrder: true}
		for _, t := range tuples {
			v, ok := t.ctx.Vars[name]
			if !ok {
				continue
			}
			if v.Kind == KindNodeSet {
				ns.Nodes = append(ns.Nodes, v.NodeSet.Nodes...)
				ns.Strings = append(ns.Strings, v.NodeSet.Strings...)
				continue
			}
			ns.Nodes = append(ns.Nodes, NodeRef{})
			ns.Strings = append(ns.Strings, v.AsString())
		}
		merged[name] = nodeSetValue(ns)
	}
	ctx := tuples[0].ctx
	ctx.Vars = merged
	return tuple{ctx: ctx}
}

func stringsJoin(parts []string) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "\x00"
		}
		s += p
	}
	return s
}

// orderTuples stable-sorts tuples per the order-by clause's spec list,
// honoring collation, ascending/descending, and empty-greatest/least.
// An unrecognized collation URI is a hard evaluation error, checked up
// front so it aborts before any comparisons run.
func (e *Evaluator) orderTuples(tuples []tuple, specs []*Node) []tuple {
	for _, spec := range specs {
		if spec.OrderSpec.Collation == "" {
			continue
		}
		if _, ok := e.collators.resolve(spec.OrderSpec.Collation); !ok {
			e.fail("unsupported collation: " + spec.OrderSpec.Collation)
			return nil
		}
	}

	keyed := make([][]Value, len(tuples))
	for i, t := range tuples {
		vals := make([]Value, len(specs))
		for j, spec := range specs {
			v := e.Eval(t.ctx, spec.Children[0])
			if e.unsupported {
				return nil
			}
			vals[j] = v
		}
		keyed[i] = vals
	}
	idx := make([]int, len(tuples))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		for j, spec := range specs {
			cmp := e.compareOrderKey(keyed[ia][j], keyed[ib][j], spec.OrderSpec)
			if cmp != 0 {
				if spec.OrderSpec.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
	out := make([]tuple, len(tuples))
	for i, id := range idx {
		out[i] = tuples[id]
	}
	return out
}

func (e *Evaluator) compareOrderKey(a, b Value, spec *OrderSpecInfo) int {
	aEmpty := a.Kind == KindNodeSet && a.NodeSet.Len() == 0
	bEmpty := b.Kind == KindNodeSet && b.NodeSet.Len() == 0
	if aEmpty || bEmpty {
		if aEmpty && bEmpty {
			return 0
		}
		less := spec.EmptyLeast
		if aEmpty {
			if less {
				return -1
			}
			return 1
		}
		if less {
			return 1
		}
		return -1
	}
	if spec.Collation != "" {
		cmp, _ := e.collators.resolve(spec.Collation)
		return cmp(a.AsString(), b.AsString())
	}
	switch {
	case a.Kind == KindNumber || b.Kind == KindNumber:
		an, bn := a.AsNumber(), b.AsNumber()
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	default:
		as, bs := a.AsString(), b.AsString()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
}
