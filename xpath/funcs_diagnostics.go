package xpath

func init() {
	functionTable["error"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		msg := "error()"
		if len(args) > 0 {
			msg = args[0].AsString()
		}
		return e.fail(msg)
	}
	functionTable["trace"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		e.log.info("trace: %s", args[0].AsString())
		return args[0]
	}
}
