package xpath

import (
	"regexp"
	"strings"
)

func init() {
	functionTable["matches"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		re, err := compileXPathRegex(args[1].AsString(), regexFlags(args, 2))
		if err != nil {
			return e.fail(err.Error())
		}
		return boolValue(re.MatchString(args[0].AsString()))
	}
	functionTable["replace"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		re, err := compileXPathRegex(args[1].AsString(), regexFlags(args, 3))
		if err != nil {
			return e.fail(err.Error())
		}
		repl := translateReplacement(args[2].AsString())
		return stringValue(re.ReplaceAllString(args[0].AsString(), repl))
	}
	functionTable["tokenize"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		re, err := compileXPathRegex(args[1].AsString(), regexFlags(args, 2))
		if err != nil {
			return e.fail(err.Error())
		}
		parts := re.Split(args[0].AsString(), -1)
		ns := &NodeSet{PreserveOrder: true}
		for _, p := range parts {
			ns.Nodes = append(ns.Nodes, NodeRef{})
			ns.Strings = append(ns.Strings, p)
		}
		return nodeSetValue(ns)
	}
	functionTable["analyze-string"] = func(e *Evaluator, ctx EvaluationContext, args []Value) Value {
		re, err := compileXPathRegex(args[1].AsString(), regexFlags(args, 2))
		if err != nil {
			return e.fail(err.Error())
		}
		input := args[0].AsString()
		matches := re.FindAllString(input, -1)
		ns := &NodeSet{PreserveOrder: true}
		pos := 0
		for _, m := range matches {
			idx := strings.Index(input[pos:], m)
			if idx > 0 {
				ns.Nodes = append(ns.Nodes, NodeRef{})
				ns.Strings = append(ns.Strings, input[pos:pos+idx])
			}
			ns.Nodes = append(ns.Nodes, NodeRef{})
			ns.Strings = append(ns.Strings, m)
			pos += idx + len(m)
		}
		if pos < len(input) {
			ns.Nodes = append(ns.Nodes, NodeRef{})
			ns.Strings = append(ns.Strings, input[pos:])
		}
		return nodeSetValue(ns)
	}
}

func regexFlags(args []Value, i int) string {
	if i < len(args) {
		return args[i].AsString()
	}
	return ""
}

// compileXPathRegex translates the XPath "flags" string into Go's
// regexp inline flag syntax and compiles pattern.
func compileXPathRegex(pattern, flags string) (*regexp.Regexp, error) {
	var goFlags string
	if strings.Contains(flags, "i") {
		goFlags += "i"
	}
	if strings.Contains(flags, "s") {
		goFlags += "s"
	}
	if strings.Contains(flags, "x") {
		goFlags += "x"
	}
	if strings.Contains(flags, "m") {
		goFlags += "m"
	}
	if goFlags != "" {
		pattern = "(?" + goFlags + ")" + pattern
	}
	return regexp.Compile(pattern)
}

// translateReplacement converts XPath's "$1"-style backreferences,
// already valid for Go's ReplaceAllString, while escaping a literal
// "$" the XPath function spells as "\$".
func translateReplacement(repl string) string {
	return strings.ReplaceAll(repl, `\$`, `$$`)
}
