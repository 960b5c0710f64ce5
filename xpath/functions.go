package xpath

import "strings"

// callFunction dispatches a function-call AST node by its (possibly
// prefixed) name, evaluating arguments first.
func (e *Evaluator) callFunction(ctx EvaluationContext, ast *Node) Value {
	args := make([]Value, len(ast.Children))
	for i, c := range ast.Children {
		args[i] = e.Eval(ctx, c)
		if e.unsupported {
			return Value{}
		}
	}
	name := localFunctionName(ast.Value)
	fn, ok := functionTable[name]
	if !ok {
		return e.fail("unknown function " + ast.Value)
	}
	return fn(e, ctx, args)
}

func localFunctionName(qname string) string {
	if i := strings.LastIndex(qname, ":"); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

type xfunc func(e *Evaluator, ctx EvaluationContext, args []Value) Value

// argOr returns args[i], or the context item as a singleton node-set
// when the argument was omitted — the convention most node-set and
// string functions use for their optional "defaults to context" arg.
func argOr(args []Value, i int, ctx EvaluationContext) Value {
	if i < len(args) {
		return args[i]
	}
	if ctx.Node == nil {
		return nodeSetValue(&NodeSet{})
	}
	return nodeSetValue(singletonNodeSet(ctx.Node, ctx.Attr, nodeStringValue(ctx.Node)))
}

// functionTable holds every callable function, keyed by local name.
// Each group lives in its own funcs_*.go file and registers its
// entries via its own init().
var functionTable = map[string]xfunc{}
