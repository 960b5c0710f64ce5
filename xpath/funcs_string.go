package xpath

import (
	"math"
	"net/url"
	"strings"
)

func init() {
	functionTable["string"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(argOr(args, 0, ctx).AsString())
	}
	functionTable["concat"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(a.AsString())
		}
		return stringValue(b.String())
	}
	functionTable["starts-with"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(strings.HasPrefix(args[0].AsString(), args[1].AsString()))
	}
	functionTable["ends-with"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(strings.HasSuffix(args[0].AsString(), args[1].AsString()))
	}
	functionTable["contains"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(strings.Contains(args[0].AsString(), args[1].AsString()))
	}
	functionTable["substring"] = fnSubstring
	functionTable["substring-before"] = fnSubstringBefore
	functionTable["substring-after"] = fnSubstringAfter
	functionTable["string-length"] = fnStringLength
	functionTable["upper-case"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(strings.ToUpper(args[0].AsString()))
	}
	functionTable["lower-case"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(strings.ToLower(args[0].AsString()))
	}
	functionTable["normalize-space"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(strings.Join(strings.Fields(argOr(args, 0, ctx).AsString()), " "))
	}
	functionTable["normalize-unicode"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		form := ""
		if len(args) > 1 {
			form = args[1].AsString()
		}
		return stringValue(normalizeUnicode(args[0].AsString(), form))
	}
	functionTable["translate"] = fnTranslate
	functionTable["compare"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		cmp, ok := e.collators.resolve(collationArg(args, 2))
		if !ok {
			return e.fail("unsupported collation: " + collationArg(args, 2))
		}
		return numberValue(float64(cmp(args[0].AsString(), args[1].AsString())))
	}
	functionTable["codepoint-equal"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return boolValue(args[0].AsString() == args[1].AsString())
	}
	functionTable["codepoints-to-string"] = fnCodepointsToString
	functionTable["string-to-codepoints"] = fnStringToCodepoints
	functionTable["string-join"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		sep := ""
		if len(args) > 1 {
			sep = args[1].AsString()
		}
		if args[0].Kind != KindNodeSet {
			return stringValue(args[0].AsString())
		}
		return stringValue(strings.Join(args[0].NodeSet.Strings, sep))
	}
	functionTable["iri-to-uri"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(escapeReserved(args[0].AsString(), false))
	}
	functionTable["escape-html-uri"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(escapeReserved(args[0].AsString(), false))
	}
	functionTable["encode-for-uri"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		return stringValue(url.QueryEscape(args[0].AsString()))
	}
}

func collationArg(args []Value, i int) string {
	if i < len(args) {
		return args[i].AsString()
	}
	return ""
}

func fnStringLength(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	return numberValue(float64(len([]rune(argOr(args, 0, ctx).AsString()))))
}

func fnSubstring(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	s := []rune(args[0].AsString())
	start := int(math.Round(args[1].AsNumber())) - 1
	length := len(s) - start
	if len(args) > 2 {
		length = int(math.Round(args[2].AsNumber()))
	}
	if start < 0 {
		length += start
		start = 0
	}
	if start >= len(s) || length <= 0 {
		return stringValue("")
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return stringValue(string(s[start:end]))
}

func fnSubstringBefore(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	s, sep := args[0].AsString(), args[1].AsString()
	idx := strings.Index(s, sep)
	if idx < 0 {
		return stringValue("")
	}
	return stringValue(s[:idx])
}

func fnSubstringAfter(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	s, sep := args[0].AsString(), args[1].AsString()
	idx := strings.Index(s, sep)
	if idx < 0 {
		return stringValue("")
	}
	return stringValue(s[idx+len(sep):])
}

func fnTranslate(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	src, from, to := []rune(args[0].AsString()), []rune(args[1].AsString()), []rune(args[2].AsString())
	var b strings.Builder
	for _, r := range src {
		idx := -1
		for i, f := range from {
			if f == r {
				idx = i
				break
			}
		}
		if idx < 0 {
			b.WriteRune(r)
			continue
		}
		if idx < len(to) {
			b.WriteRune(to[idx])
		}
	}
	return stringValue(b.String())
}

func fnCodepointsToString(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	seq := numericSeq(args[0])
	var b strings.Builder
	for _, n := range seq {
		b.WriteRune(rune(int(n)))
	}
	return stringValue(b.String())
}

func fnStringToCodepoints(e *Evaluator, ctx EvaluationContext, args []Value) Value {
	ns := &NodeSet{PreserveOrder: true}
	for _, r := range args[0].AsString() {
		ns.Nodes = append(ns.Nodes, NodeRef{})
		ns.Strings = append(ns.Strings, formatXPathNumber(float64(r)))
	}
	return nodeSetValue(ns)
}

// escapeReserved percent-encodes everything outside the URI-allowed set
// that iri-to-uri and escape-html-uri both leave untouched (RFC 3986
// reserved/unreserved characters), while never re-encoding an existing
// "%XX" triplet.
func escapeReserved(s string, _ bool) string {
	const safe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" +
		"-_.~!*'();:@&=+$,/?#[]%"
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(safe, r) {
			b.WriteRune(r)
			continue
		}
		for _, bb := range []byte(string(r)) {
			b.WriteString("%")
			b.WriteString(strings.ToUpper(hexByte(bb)))
		}
	}
	return b.String()
}

func hexByte(b byte) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xf]})
}
