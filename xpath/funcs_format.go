package xpath

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Formatting functions. The XSLT/XPath picture-string language is
// large (calendar names, grouping separators, ordinal suffixes,
// numbering-sequence negotiation); this engine supports a subset:
// decimal, zero-padded decimal, lower/upper-case alphabetic and
// lower/upper-case roman sequences for format-integer, and the
// bracketed component codes Y/M/D/H/m/s for
// format-date/format-time/format-dateTime. Any other format-integer
// picture renders as plain decimal, and any other date/time component
// renders as an empty string.
func init() {
	functionTable["format-integer"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		n := int64(args[0].AsNumber())
		picture := args[1].AsString()
		return stringValue(formatInteger(n, picture))
	}
	functionTable["format-date"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		t, ok := coerceTemporal(e, args[0], TypeDate)
		if !ok {
			return e.fail("invalid lexical value for xs:date")
		}
		return stringValue(formatPicture(t, args[1].AsString()))
	}
	functionTable["format-time"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		t, ok := coerceTemporal(e, args[0], TypeTime)
		if !ok {
			return e.fail("invalid lexical value for xs:time")
		}
		return stringValue(formatPicture(t, args[1].AsString()))
	}
	functionTable["format-dateTime"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		t, ok := coerceTemporal(e, args[0], TypeDateTime)
		if !ok {
			return e.fail("invalid lexical value for xs:dateTime")
		}
		return stringValue(formatPicture(t, args[1].AsString()))
	}
}

func formatInteger(n int64, picture string) string {
	switch {
	case picture == "" || picture == "1":
		return strconv.FormatInt(n, 10)
	case strings.Trim(picture, "0") == "" && len(picture) > 0:
		return fmt.Sprintf("%0*d", len(picture), n)
	case picture == "a":
		return alphabeticSequence(n, false)
	case picture == "A":
		return alphabeticSequence(n, true)
	case picture == "i":
		return strings.ToLower(romanNumeral(n))
	case picture == "I":
		return romanNumeral(n)
	}
	return strconv.FormatInt(n, 10)
}

// alphabeticSequence renders n (1-based) as a spreadsheet-column-style
// letter sequence: 1=a, 2=b, ..., 26=z, 27=aa, ...
func alphabeticSequence(n int64, upper bool) string {
	if n <= 0 {
		return strconv.FormatInt(n, 10)
	}
	var letters []byte
	for n > 0 {
		n--
		letters = append([]byte{byte('a' + n%26)}, letters...)
		n /= 26
	}
	s := string(letters)
	if upper {
		return strings.ToUpper(s)
	}
	return s
}

func romanNumeral(n int64) string {
	if n <= 0 {
		return strconv.FormatInt(n, 10)
	}
	vals := []int64{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	syms := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}

func formatPicture(t time.Time, picture string) string {
	var b strings.Builder
	i := 0
	for i < len(picture) {
		if picture[i] != '[' {
			b.WriteByte(picture[i])
			i++
			continue
		}
		end := strings.IndexByte(picture[i:], ']')
		if end < 0 {
			b.WriteString(picture[i:])
			break
		}
		component := picture[i+1 : i+end]
		b.WriteString(renderComponent(t, component))
		i += end + 1
	}
	return b.String()
}

func renderComponent(t time.Time, spec string) string {
	name := spec
	if i := strings.IndexAny(spec, "01"); i > 0 {
		name = spec[:i]
	}
	switch strings.TrimSpace(name) {
	case "Y", "Y0001":
		return fmt.Sprintf("%04d", t.Year())
	case "M", "M01":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "D", "D01":
		return fmt.Sprintf("%02d", t.Day())
	case "H", "H01":
		return fmt.Sprintf("%02d", t.Hour())
	case "m", "m01":
		return fmt.Sprintf("%02d", t.Minute())
	case "s", "s01":
		return fmt.Sprintf("%02d", t.Second())
	}
	return ""
}
