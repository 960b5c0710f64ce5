package xpath

import (
	"fmt"
	"time"
)

// Context functions: position/size within the current sequence, the
// implementation-fixed "now" and timezone, and the static context
// values (base URI, default collation) a host never overrides.
func init() {
	functionTable["position"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return numberValue(float64(ctx.Pos))
	}
	functionTable["last"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return numberValue(float64(ctx.Size))
	}
	functionTable["current-date"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return Value{Kind: KindDate, Time: truncateToDate(time.Now())}
	}
	functionTable["current-time"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return Value{Kind: KindTime, Time: time.Now()}
	}
	functionTable["current-dateTime"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return Value{Kind: KindDateTime, Time: time.Now()}
	}
	functionTable["implicit-timezone"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		_, offset := time.Now().Zone()
		return stringValue(formatTimezoneOffset(offset))
	}
	functionTable["static-base-uri"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return nodeSetValue(&NodeSet{})
	}
	functionTable["default-collation"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(defaultCollationURI)
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// formatTimezoneOffset renders a UTC offset in seconds as xs:dayTimeDuration-
// flavored "+HH:MM"/"-HH:MM"/"Z" the way the date/time accessors report it.
func formatTimezoneOffset(offsetSeconds int) string {
	if offsetSeconds == 0 {
		return "Z"
	}
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	h := offsetSeconds / 3600
	m := (offsetSeconds % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}
