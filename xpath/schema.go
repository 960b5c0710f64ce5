package xpath

import (
	"strconv"
	"strings"
	"time"
)

// SchemaType names a coercion target: one of the XML Schema builtins
// this engine supports plus the seven XPath value kinds.
type SchemaType string

const (
	TypeInteger           SchemaType = "xs:integer"
	TypeDecimal           SchemaType = "xs:decimal"
	TypeDouble            SchemaType = "xs:double"
	TypeBoolean           SchemaType = "xs:boolean"
	TypeString            SchemaType = "xs:string"
	TypeDate              SchemaType = "xs:date"
	TypeTime              SchemaType = "xs:time"
	TypeDateTime          SchemaType = "xs:dateTime"
	TypeDayTimeDuration   SchemaType = "xs:dayTimeDuration"
	TypeYearMonthDuration SchemaType = "xs:yearMonthDuration"
	TypeAnyURI            SchemaType = "xs:anyURI"
	TypeQName             SchemaType = "xs:QName"

	TypeNumber   SchemaType = "Number"
	TypeXString  SchemaType = "String"
	TypeXBoolean SchemaType = "Boolean"
	TypeXDate    SchemaType = "Date"
	TypeXTime    SchemaType = "Time"
	TypeXDateTime SchemaType = "DateTime"
	TypeNodeSet  SchemaType = "NodeSet"
)

// descriptor is the per-type entry: what it coerces to and how.
type descriptor struct {
	coerce func(v Value) (Value, bool)
}

// SchemaRegistry supplies CoerceValue/CanCoerceTo used by typed
// comparisons and constructor coercion.
type SchemaRegistry struct {
	types map[SchemaType]descriptor
}

// NewSchemaRegistry builds the registry of built-in types.
func NewSchemaRegistry() *SchemaRegistry {
	r := &SchemaRegistry{types: make(map[SchemaType]descriptor)}

	numeric := func(v Value) (Value, bool) {
		n := v.AsNumber()
		return numberValue(n), true
	}
	stringer := func(v Value) (Value, bool) { return stringValue(v.AsString()), true }
	boolean := func(v Value) (Value, bool) { return boolValue(v.EffectiveBoolean()), true }

	for _, t := range []SchemaType{TypeInteger, TypeDecimal, TypeDouble, TypeNumber} {
		r.types[t] = descriptor{coerce: numeric}
	}
	for _, t := range []SchemaType{TypeString, TypeXString, TypeAnyURI, TypeQName} {
		r.types[t] = descriptor{coerce: stringer}
	}
	for _, t := range []SchemaType{TypeBoolean, TypeXBoolean} {
		r.types[t] = descriptor{coerce: boolean}
	}
	r.types[TypeDate] = descriptor{coerce: dateCoerce("2006-01-02", KindDate)}
	r.types[TypeXDate] = r.types[TypeDate]
	r.types[TypeTime] = descriptor{coerce: dateCoerce("15:04:05", KindTime)}
	r.types[TypeXTime] = r.types[TypeTime]
	r.types[TypeDateTime] = descriptor{coerce: dateCoerce(time.RFC3339, KindDateTime)}
	r.types[TypeXDateTime] = r.types[TypeDateTime]
	r.types[TypeDayTimeDuration] = descriptor{coerce: stringer}
	r.types[TypeYearMonthDuration] = descriptor{coerce: stringer}
	r.types[TypeNodeSet] = descriptor{coerce: func(v Value) (Value, bool) {
		if v.Kind != KindNodeSet {
			return Value{}, false
		}
		return v, true
	}}
	return r
}

func dateCoerce(layout string, kind ValueKind) func(Value) (Value, bool) {
	return func(v Value) (Value, bool) {
		if v.Kind == kind {
			return v, true
		}
		s := v.AsString()
		t, err := time.Parse(layout, s)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: kind, Time: t}, true
	}
}

// CanCoerceTo reports whether v can be coerced to target.
func (r *SchemaRegistry) CanCoerceTo(v Value, target SchemaType) bool {
	d, ok := r.types[target]
	if !ok {
		return false
	}
	_, ok = d.coerce(v)
	return ok
}

// CoerceValue coerces v to target, returning ok=false when the type is
// unknown or the value is not convertible.
func (r *SchemaRegistry) CoerceValue(v Value, target SchemaType) (Value, bool) {
	d, ok := r.types[target]
	if !ok {
		return Value{}, false
	}
	return d.coerce(v)
}

// isInteger reports whether s parses as an xs:integer lexical form.
func isInteger(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
