package xpath

func init() {
	functionTable["boolean"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(argOr(args, 0, ctx).EffectiveBoolean())
	}
	functionTable["not"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(!args[0].EffectiveBoolean())
	}
	functionTable["true"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value { return boolValue(true) }
	functionTable["false"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value { return boolValue(false) }
}
