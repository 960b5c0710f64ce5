package xpath

// EvaluationContext is the per-evaluation scope: the context item,
// position/size within the current sequence, and the lexical variable
// bindings in effect.
type EvaluationContext struct {
	Doc     Document
	Node    Tag
	Attr    string // non-empty when the context item is an attribute
	Pos     int
	Size    int
	Vars    map[string]Value
}

// child returns a copy of ctx with the given context item/position/
// size, sharing the same variable map (callers that add bindings must
// clone it first via withVar).
func (ctx EvaluationContext) child(node Tag, attr string, pos, size int) EvaluationContext {
	c := ctx
	c.Node, c.Attr, c.Pos, c.Size = node, attr, pos, size
	return c
}

// withVar returns a copy of ctx with name bound to val, restoring the
// outer scope's binding (or absence of one) is the caller's
// responsibility once the copy goes out of scope — Go's value-copy
// semantics make this automatic as long as callers don't mutate ctx.Vars
// in place.
func (ctx EvaluationContext) withVar(name string, val Value) EvaluationContext {
	c := ctx
	next := make(map[string]Value, len(ctx.Vars)+1)
	for k, v := range ctx.Vars {
		next[k] = v
	}
	next[name] = val
	c.Vars = next
	return c
}

// Evaluator holds the state shared across one compiled query's
// evaluation: the "unsupported" latch and last error message described
// in the concurrency model, plus optional trace logging.
type Evaluator struct {
	unsupported bool
	errMsg      string
	log         *traceLogger
	collators   *collationRegistry
	schema      *SchemaRegistry
}

// NewEvaluator returns an Evaluator. level selects trace verbosity;
// unrecognized values fall back to a safe mid-verbosity default.
func NewEvaluator(traceEnabled bool, level string) *Evaluator {
	return &Evaluator{
		log:       newTraceLogger(traceEnabled, level),
		collators: newCollationRegistry(),
		schema:    NewSchemaRegistry(),
	}
}

// reset clears the unsupported latch and error message at the start of
// a top-level evaluation boundary.
func (e *Evaluator) reset() {
	e.unsupported = false
	e.errMsg = ""
}

// fail latches the unsupported flag and records msg, the only way
// evaluation signals failure — it never panics or returns a Go error
// from the walker itself.
func (e *Evaluator) fail(msg string) Value {
	e.unsupported = true
	e.errMsg = msg
	return Value{}
}

// Failed reports whether the most recent evaluation hit the
// unsupported latch, and ErrMsg returns its message.
func (e *Evaluator) Failed() bool   { return e.unsupported }
func (e *Evaluator) ErrMsg() string { return e.errMsg }
