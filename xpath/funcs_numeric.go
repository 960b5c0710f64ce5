package xpath

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Numeric functions. Aggregates are backed by gonum/floats and
// gonum/stat over a []float64 view of the sequence, same as the
// teacher's scientific-compute aggregation style elsewhere in the pack.
func init() {
	functionTable["number"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return numberValue(argOr(args, 0, ctx).AsNumber())
	}
	functionTable["sum"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		seq := numericSeq(args[0])
		if len(seq) == 0 {
			if len(args) > 1 {
				return args[1]
			}
			return numberValue(0)
		}
		return numberValue(floats.Sum(seq))
	}
	functionTable["avg"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		seq := numericSeq(args[0])
		if len(seq) == 0 {
			return e.fail("avg() of empty sequence")
		}
		return numberValue(stat.Mean(seq, nil))
	}
	functionTable["min"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		seq := numericSeq(args[0])
		if len(seq) == 0 {
			return e.fail("min() of empty sequence")
		}
		return numberValue(floats.Min(seq))
	}
	functionTable["max"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		seq := numericSeq(args[0])
		if len(seq) == 0 {
			return e.fail("max() of empty sequence")
		}
		return numberValue(floats.Max(seq))
	}
	functionTable["abs"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return numberValue(math.Abs(args[0].AsNumber()))
	}
	functionTable["floor"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return numberValue(math.Floor(args[0].AsNumber()))
	}
	functionTable["ceiling"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return numberValue(math.Ceil(args[0].AsNumber()))
	}
	functionTable["round"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return numberValue(math.Round(args[0].AsNumber()))
	}
	functionTable["round-half-to-even"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		precision := 0.0
		if len(args) > 1 {
			precision = args[1].AsNumber()
		}
		scale := math.Pow(10, precision)
		return numberValue(math.RoundToEven(args[0].AsNumber()*scale) / scale)
	}
}

// numericSeq flattens a node-set's string members (or a single atomic
// value) into a []float64 for gonum's floats/stat helpers.
func numericSeq(v Value) []float64 {
	if v.Kind == KindNodeSet {
		out := make([]float64, 0, v.NodeSet.Len())
		for _, s := range v.NodeSet.Strings {
			out = append(out, parseXPathNumber(s))
		}
		return out
	}
	return []float64{v.AsNumber()}
}
