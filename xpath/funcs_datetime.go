package xpath

import (
	"strconv"
	"strings"
	"time"
)

// Date/time accessor functions, coercing their argument through the
// same SchemaRegistry the typed-comparison and constructor paths use
// rather than re-parsing date/time lexical forms by hand.
func init() {
	functionTable["year-from-dateTime"] = temporalField(TypeDateTime, func(t time.Time) float64 { return float64(t.Year()) })
	functionTable["month-from-dateTime"] = temporalField(TypeDateTime, func(t time.Time) float64 { return float64(t.Month()) })
	functionTable["day-from-dateTime"] = temporalField(TypeDateTime, func(t time.Time) float64 { return float64(t.Day()) })
	functionTable["hours-from-dateTime"] = temporalField(TypeDateTime, func(t time.Time) float64 { return float64(t.Hour()) })
	functionTable["minutes-from-dateTime"] = temporalField(TypeDateTime, func(t time.Time) float64 { return float64(t.Minute()) })
	functionTable["seconds-from-dateTime"] = temporalField(TypeDateTime, func(t time.Time) float64 { return float64(t.Second()) })
	functionTable["timezone-from-dateTime"] = temporalTimezone(TypeDateTime)

	functionTable["year-from-date"] = temporalField(TypeDate, func(t time.Time) float64 { return float64(t.Year()) })
	functionTable["month-from-date"] = temporalField(TypeDate, func(t time.Time) float64 { return float64(t.Month()) })
	functionTable["day-from-date"] = temporalField(TypeDate, func(t time.Time) float64 { return float64(t.Day()) })
	functionTable["timezone-from-date"] = temporalTimezone(TypeDate)

	functionTable["hours-from-time"] = temporalField(TypeTime, func(t time.Time) float64 { return float64(t.Hour()) })
	functionTable["minutes-from-time"] = temporalField(TypeTime, func(t time.Time) float64 { return float64(t.Minute()) })
	functionTable["seconds-from-time"] = temporalField(TypeTime, func(t time.Time) float64 { return float64(t.Second()) })
	functionTable["timezone-from-time"] = temporalTimezone(TypeTime)

	functionTable["adjust-dateTime-to-timezone"] = adjustToTimezone(TypeDateTime, KindDateTime)
	functionTable["adjust-date-to-timezone"] = adjustToTimezone(TypeDate, KindDate)
	functionTable["adjust-time-to-timezone"] = adjustToTimezone(TypeTime, KindTime)
}

// temporalField builds a function that coerces its argument to
// schemaType and projects one numeric field out of it.
func temporalField(schemaType SchemaType, field func(time.Time) float64) xfunc {
	return func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		t, ok := coerceTemporal(e, args[0], schemaType)
		if !ok {
			return e.fail("invalid lexical value for " + string(schemaType))
		}
		return numberValue(field(t))
	}
}

func temporalTimezone(schemaType SchemaType) xfunc {
	return func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		t, ok := coerceTemporal(e, args[0], schemaType)
		if !ok {
			return e.fail("invalid lexical value for " + string(schemaType))
		}
		_, offset := t.Zone()
		return stringValue(formatTimezoneOffset(offset))
	}
}

// adjustToTimezone re-expresses a date/time/dateTime value in the
// timezone named by the second argument ("+HH:MM"/"-HH:MM"/"Z"), or in
// the implementation's local zone when the argument is omitted.
func adjustToTimezone(schemaType SchemaType, kind ValueKind) xfunc {
	return func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		t, ok := coerceTemporal(e, args[0], schemaType)
		if !ok {
			return e.fail("invalid lexical value for " + string(schemaType))
		}
		loc := time.Local
		if len(args) > 1 && args[1].AsString() != "" {
			l, ok := parseTimezoneOffset(args[1].AsString())
			if !ok {
				return e.fail("invalid timezone: " + args[1].AsString())
			}
			loc = l
		}
		return Value{Kind: kind, Time: t.In(loc)}
	}
}

func coerceTemporal(e *Evaluator, v Value, schemaType SchemaType) (time.Time, bool) {
	cv, ok := e.schema.CoerceValue(v, schemaType)
	if !ok {
		return time.Time{}, false
	}
	return cv.Time, true
}

func parseTimezoneOffset(s string) (*time.Location, bool) {
	if s == "Z" {
		return time.UTC, true
	}
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return nil, false
	}
	h, errH := strconv.Atoi(s[1:3])
	m, errM := strconv.Atoi(s[4:6])
	if errH != nil || errM != nil {
		return nil, false
	}
	offset := h*3600 + m*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(strings.TrimPrefix(s, "+"), offset), true
}
