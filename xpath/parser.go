package xpath

import (
	"fmt"
	"strings"
)

// Parser is a recursive-descent parser over a Lexer's token stream,
// with one token of lookahead.
type Parser struct {
	lex  *Lexer
	tok  Token
	diag []string
}

// Compile tokenizes and parses query, returning its AST. Parse errors
// are non-fatal: they're recorded on the root node's Diagnostics and
// parsing recovers where it can, consistent with the engine never
// returning a hard Go error from evaluation itself.
func Compile(query string) (*Node, error) {
	p := &Parser{lex: NewLexer(query)}
	p.advance()
	expr := p.parseExpr()
	if p.tok.Type != EOF {
		p.errorf("unexpected trailing input %q", p.tok.Value)
	}
	if expr == nil {
		expr = newNode(NLiteral)
	}
	expr.Diagnostics = append(expr.Diagnostics, p.diag...)
	if len(p.diag) > 0 {
		return expr, fmt.Errorf("xpath: %s", strings.Join(p.diag, "; "))
	}
	return expr, nil
}

func (p *Parser) advance() { p.tok = p.lex.Next() }

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diag = append(p.diag, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(t TokenType, what string) bool {
	if p.tok.Type != t {
		p.errorf("expected %s, got %q", what, p.tok.Value)
		return false
	}
	p.advance()
	return true
}

// atName reports whether the current token is Name with the given text.
func (p *Parser) atName(s string) bool {
	return p.tok.Type == Name && p.tok.Value == s
}

func (p *Parser) eatName(s string) bool {
	if p.atName(s) {
		p.advance()
		return true
	}
	return false
}

// parseExpr parses the top-level comma-separated expression sequence,
// which also covers a bare FLWOR/OrExpr when there's only one term.
func (p *Parser) parseExpr() *Node {
	first := p.parseExprSingle()
	if p.tok.Type != Comma {
		return first
	}
	n := newNode(NBinaryOp, first)
	n.Value = ","
	for p.tok.Type == Comma {
		p.advance()
		n.Children = append(n.Children, p.parseExprSingle())
	}
	return n
}

func (p *Parser) parseExprSingle() *Node {
	switch {
	case p.atName("for"):
		return p.parseFlwor()
	case p.atName("let"):
		return p.parseFlwor()
	case p.atName("some"), p.atName("every"):
		return p.parseQuantified()
	case p.atName("if"):
		return p.parseIf()
	}
	return p.parseOrExpr()
}

// --- FLWOR ---

func (p *Parser) parseFlwor() *Node {
	flwor := newNode(NFlwor)
	for p.atName("for") || p.atName("let") {
		if p.atName("for") {
			p.advance()
			for {
				flwor.ForLet = append(flwor.ForLet, p.parseForBinding())
				if p.tok.Type != Comma {
					break
				}
				p.advance()
			}
		} else {
			p.advance()
			for {
				flwor.ForLet = append(flwor.ForLet, p.parseLetBinding())
				if p.tok.Type != Comma {
					break
				}
				p.advance()
			}
		}
	}
	if p.eatName("where") {
		flwor.Where = p.parseExprSingle()
	}
	if p.atName("group") {
		p.advance()
		p.eatName("by")
		for {
			flwor.GroupBy = append(flwor.GroupBy, p.parseExprSingle())
			if p.tok.Type != Comma {
				break
			}
			p.advance()
		}
	}
	if p.atName("stable") {
		p.advance()
		p.eatName("order")
		p.eatName("by")
		flwor.OrderBy = p.parseOrderSpecList()
	} else if p.atName("order") {
		p.advance()
		p.eatName("by")
		flwor.OrderBy = p.parseOrderSpecList()
	}
	if p.atName("count") {
		p.advance()
		if p.tok.Type == Dollar {
			p.advance()
			flwor.Count = p.tok.Value
			p.advance()
		}
	}
	p.eatName("return")
	flwor.Return = p.parseExprSingle()
	return flwor
}

func (p *Parser) parseForBinding() *Node {
	n := newNode(NFor)
	if !p.expect(Dollar, "'$'") {
		return n
	}
	n.Value = p.tok.Value
	p.advance()
	p.eatName("in")
	n.Children = append(n.Children, p.parseExprSingle())
	return n
}

func (p *Parser) parseLetBinding() *Node {
	n := newNode(NLet)
	if !p.expect(Dollar, "'$'") {
		return n
	}
	n.Value = p.tok.Value
	p.advance()
	p.expect(Assign, "':='")
	n.Children = append(n.Children, p.parseExprSingle())
	return n
}

func (p *Parser) parseOrderSpecList() []*Node {
	var out []*Node
	for {
		spec := &OrderSpecInfo{EmptyLeast: true}
		n := newNode(NOrderSpec, p.parseExprSingle())
		if p.atName("ascending") {
			p.advance()
		} else if p.atName("descending") {
			spec.Descending = true
			p.advance()
		}
		if p.atName("empty") {
			p.advance()
			if p.atName("greatest") {
				spec.EmptyLeast = false
				p.advance()
			} else if p.atName("least") {
				spec.EmptyLeast = true
				p.advance()
			}
			spec.EmptySet = true
		}
		if p.atName("collation") {
			p.advance()
			if p.tok.Type == String {
				spec.Collation = p.tok.Value
				p.advance()
			}
		}
		n.OrderSpec = spec
		out = append(out, n)
		if p.tok.Type != Comma {
			break
		}
		p.advance()
	}
	return out
}

func (p *Parser) parseQuantified() *Node {
	n := newNode(NQuantified)
	n.Value = p.tok.Value // "some" or "every"
	p.advance()
	for {
		b := newNode(NFor)
		p.expect(Dollar, "'$'")
		b.Value = p.tok.Value
		p.advance()
		p.eatName("in")
		b.Children = append(b.Children, p.parseExprSingle())
		n.ForLet = append(n.ForLet, b)
		if p.tok.Type != Comma {
			break
		}
		p.advance()
	}
	p.eatName("satisfies")
	n.Return = p.parseExprSingle()
	return n
}

func (p *Parser) parseIf() *Node {
	n := newNode(NIf)
	p.advance()
	p.expect(LParen, "'('")
	n.Children = append(n.Children, p.parseExpr())
	p.expect(RParen, "')'")
	p.eatName("then")
	n.Children = append(n.Children, p.parseExprSingle())
	p.eatName("else")
	n.Children = append(n.Children, p.parseExprSingle())
	return n
}

// --- operator precedence chain ---

func (p *Parser) parseOrExpr() *Node {
	left := p.parseAndExpr()
	for p.atName("or") {
		p.advance()
		right := p.parseAndExpr()
		left = &Node{Type: NBinaryOp, Value: "or", Children: []*Node{left, right}}
	}
	return left
}

func (p *Parser) parseAndExpr() *Node {
	left := p.parseComparisonExpr()
	for p.atName("and") {
		p.advance()
		right := p.parseComparisonExpr()
		left = &Node{Type: NBinaryOp, Value: "and", Children: []*Node{left, right}}
	}
	return left
}

var comparisonOps = map[TokenType]string{
	Eq: "=", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=",
}

func (p *Parser) parseComparisonExpr() *Node {
	left := p.parseRangeExpr()
	if op, ok := comparisonOps[p.tok.Type]; ok {
		p.advance()
		right := p.parseRangeExpr()
		return &Node{Type: NBinaryOp, Value: op, Children: []*Node{left, right}}
	}
	for p.tok.Type == Name {
		switch p.tok.Value {
		case "eq", "ne", "lt", "le", "gt", "ge":
			op := p.tok.Value
			p.advance()
			right := p.parseRangeExpr()
			return &Node{Type: NBinaryOp, Value: op, Children: []*Node{left, right}}
		case "is":
			p.advance()
			right := p.parseRangeExpr()
			return &Node{Type: NBinaryOp, Value: "is", Children: []*Node{left, right}}
		}
		break
	}
	return left
}

func (p *Parser) parseRangeExpr() *Node {
	left := p.parseAdditiveExpr()
	if p.atName("to") {
		p.advance()
		right := p.parseAdditiveExpr()
		return &Node{Type: NBinaryOp, Value: "to", Children: []*Node{left, right}}
	}
	return left
}

func (p *Parser) parseAdditiveExpr() *Node {
	left := p.parseMultiplicativeExpr()
	for p.tok.Type == Plus || p.tok.Type == Minus {
		op := "+"
		if p.tok.Type == Minus {
			op = "-"
		}
		p.advance()
		right := p.parseMultiplicativeExpr()
		left = &Node{Type: NBinaryOp, Value: op, Children: []*Node{left, right}}
	}
	return left
}

func (p *Parser) parseMultiplicativeExpr() *Node {
	left := p.parseUnionExpr()
	for {
		if p.tok.Type == Star && !p.tok.Wildcard {
			p.advance()
			right := p.parseUnionExpr()
			left = &Node{Type: NBinaryOp, Value: "*", Children: []*Node{left, right}}
			continue
		}
		if p.atName("div") || p.atName("mod") {
			op := p.tok.Value
			p.advance()
			right := p.parseUnionExpr()
			left = &Node{Type: NBinaryOp, Value: op, Children: []*Node{left, right}}
			continue
		}
		break
	}
	return left
}

func (p *Parser) parseUnionExpr() *Node {
	left := p.parseIntersectExpr()
	for p.tok.Type == Pipe || p.atName("union") {
		p.advance()
		right := p.parseIntersectExpr()
		left = &Node{Type: NUnion, Children: []*Node{left, right}}
	}
	return left
}

func (p *Parser) parseIntersectExpr() *Node {
	left := p.parseUnaryExpr()
	for p.atName("intersect") || p.atName("except") {
		isExcept := p.tok.Value == "except"
		p.advance()
		right := p.parseUnaryExpr()
		t := NIntersect
		if isExcept {
			t = NExcept
		}
		left = &Node{Type: t, Children: []*Node{left, right}}
	}
	return left
}

func (p *Parser) parseUnaryExpr() *Node {
	neg := false
	for p.tok.Type == Minus || p.tok.Type == Plus {
		if p.tok.Type == Minus {
			neg = !neg
		}
		p.advance()
	}
	operand := p.parsePathExpr()
	if neg {
		return &Node{Type: NUnaryOp, Value: "-", Children: []*Node{operand}}
	}
	return operand
}

// --- path expressions ---

func (p *Parser) parsePathExpr() *Node {
	if p.tok.Type == SlashSlash {
		p.advance()
		rel := p.parseRelativePathExpr()
		root := newNode(NRoot)
		return &Node{Type: NPath, Children: []*Node{root, descendantOrSelfShim(), rel}}
	}
	if p.tok.Type == Slash {
		p.advance()
		if p.atPathEnd() {
			return newNode(NRoot)
		}
		rel := p.parseRelativePathExpr()
		return &Node{Type: NPath, Children: []*Node{newNode(NRoot), rel}}
	}
	return p.parseRelativePathExpr()
}

// descendantOrSelfShim builds the implicit "descendant-or-self::node()"
// step that '//' expands to at the start of a path.
func descendantOrSelfShim() *Node {
	s := newNode(NStep)
	s.Step = &StepInfo{Axis: AxisDescendantOrSelf, NodeTest: "node()", IsNodeTypeTest: true}
	return s
}

func (p *Parser) atPathEnd() bool {
	switch p.tok.Type {
	case EOF, RParen, RBracket, Comma, RBrace:
		return true
	}
	if p.tok.Type == Name && isKeyword(p.tok.Value) {
		switch p.tok.Value {
		case "for", "let", "where", "return", "order", "group", "some", "every",
			"if", "then", "else", "and", "or", "div", "mod", "eq", "ne", "lt", "le",
			"gt", "ge", "union", "intersect", "except", "satisfies", "in", "to",
			"by", "stable", "collation", "ascending", "descending", "empty",
			"greatest", "least", "count":
			return true
		}
	}
	return false
}

func (p *Parser) parseRelativePathExpr() *Node {
	first := p.parseStepExpr()
	steps := []*Node{first}
	for p.tok.Type == Slash || p.tok.Type == SlashSlash {
		if p.tok.Type == SlashSlash {
			p.advance()
			steps = append(steps, descendantOrSelfShim())
			steps = append(steps, p.parseStepExpr())
		} else {
			p.advance()
			steps = append(steps, p.parseStepExpr())
		}
	}
	if len(steps) == 1 {
		return steps[0]
	}
	return &Node{Type: NPath, Children: steps}
}

func (p *Parser) parseStepExpr() *Node {
	if p.tok.Type == Name && !p.peekIsAxis() {
		// A bare name is a node-type test only when followed by '(';
		// otherwise it is a function call, a computed constructor or a
		// child name test, all of which parsePrimaryExpr handles.
		save := *p.lex
		next := p.lex.Next()
		*p.lex = save
		switch p.tok.Value {
		case "node", "text", "comment", "processing-instruction":
			if next.Type == LParen {
				return p.parseAxisStep()
			}
		}
		return p.parseFilterExpr()
	}
	if isAxisStepStart(p.tok) {
		return p.parseAxisStep()
	}
	return p.parseFilterExpr()
}

func isAxisStepStart(t Token) bool {
	switch t.Type {
	case At, Dot, DotDot, Star:
		return true
	case Name:
		return true
	}
	return false
}

func (p *Parser) parseAxisStep() *Node {
	if p.tok.Type == Dot {
		p.advance()
		n := newNode(NContext)
		return p.parsePredicates(n)
	}
	if p.tok.Type == DotDot {
		p.advance()
		n := newNode(NParent)
		return p.parsePredicates(n)
	}
	info := &StepInfo{Axis: AxisChild}
	if p.tok.Type == At {
		p.advance()
		info.Axis = AxisAttribute
	} else if p.tok.Type == Name && p.peekIsAxis() {
		info.Axis = axisFromName(p.tok.Value)
		p.advance() // name
		p.advance() // '::'
	}
	switch {
	case p.tok.Type == Star:
		info.NodeTest = "*"
		p.advance()
	case p.atName("node") || p.atName("text") || p.atName("comment") || p.atName("processing-instruction"):
		name := p.tok.Value
		p.advance()
		p.expect(LParen, "'('")
		p.expect(RParen, "')'")
		info.NodeTest = name + "()"
		info.IsNodeTypeTest = true
	case p.tok.Type == Name:
		info.NodeTest = p.tok.Value
		p.advance()
	default:
		p.errorf("expected node test, got %q", p.tok.Value)
	}
	n := &Node{Type: NStep, Step: info}
	return p.parsePredicates(n)
}

// peekIsAxis reports whether the current Name token is followed by
// '::', the axis-specifier form, without consuming either token.
func (p *Parser) peekIsAxis() bool {
	save := *p.lex
	next := p.lex.Next()
	*p.lex = save
	return next.Type == ColonColon
}

func axisFromName(name string) Axis {
	switch name {
	case "child":
		return AxisChild
	case "descendant":
		return AxisDescendant
	case "descendant-or-self":
		return AxisDescendantOrSelf
	case "parent":
		return AxisParent
	case "ancestor":
		return AxisAncestor
	case "ancestor-or-self":
		return AxisAncestorOrSelf
	case "following-sibling":
		return AxisFollowingSibling
	case "preceding-sibling":
		return AxisPrecedingSibling
	case "following":
		return AxisFollowing
	case "preceding":
		return AxisPreceding
	case "self":
		return AxisSelf
	case "attribute":
		return AxisAttribute
	case "namespace":
		return AxisNamespace
	}
	return AxisChild
}

func (p *Parser) parsePredicates(n *Node) *Node {
	for p.tok.Type == LBracket {
		p.advance()
		pred := p.parseExpr()
		p.expect(RBracket, "']'")
		n = &Node{Type: NPredicate, Children: []*Node{n, pred}}
	}
	return n
}

// parseFilterExpr handles a PrimaryExpr possibly followed by
// predicates, e.g. "$x[1]" or "func()[2]"; a following "/step" is
// picked up by parseRelativePathExpr.
func (p *Parser) parseFilterExpr() *Node {
	n := p.parsePrimaryExpr()
	n = p.parsePredicates(n)
	return n
}

func (p *Parser) parsePrimaryExpr() *Node {
	switch p.tok.Type {
	case Number:
		n := newNode(NNumber)
		n.Value = p.tok.Value
		p.advance()
		return n
	case String:
		n := newNode(NLiteral)
		n.Value = p.tok.Value
		p.advance()
		return n
	case Dollar:
		p.advance()
		n := newNode(NVariableRef)
		n.Value = p.tok.Value
		p.advance()
		return n
	case LParen:
		p.advance()
		if p.tok.Type == RParen {
			p.advance()
			return newNode(NLiteral) // empty sequence
		}
		inner := p.parseExpr()
		p.expect(RParen, "')'")
		return inner
	case TagOpen:
		return p.parseDirectConstructor()
	case Name:
		switch p.tok.Value {
		case "element", "attribute", "text", "comment", "processing-instruction", "document":
			if p.peekIsComputedConstructor() {
				return p.parseComputedConstructor()
			}
		}
		return p.parseFunctionCallOrName()
	}
	p.errorf("unexpected token %q", p.tok.Value)
	p.advance()
	return newNode(NLiteral)
}

func (p *Parser) peekIsComputedConstructor() bool {
	save := *p.lex
	savedTok := p.tok
	next := p.lex.Next()
	*p.lex = save
	_ = savedTok
	return next.Type == LBrace || next.Type == Name || next.Type == LParen
}

func (p *Parser) parseFunctionCallOrName() *Node {
	name := p.tok.Value
	p.advance()
	for p.tok.Type == Colon {
		p.advance()
		if p.tok.Type == Name {
			name = name + ":" + p.tok.Value
			p.advance()
		}
	}
	if p.tok.Type == LParen {
		p.advance()
		call := newNode(NFunctionCall)
		call.Value = name
		if p.tok.Type != RParen {
			for {
				call.Children = append(call.Children, p.parseExprSingle())
				if p.tok.Type != Comma {
					break
				}
				p.advance()
			}
		}
		p.expect(RParen, "')'")
		return call
	}
	n := &Node{Type: NStep, Step: &StepInfo{Axis: AxisChild, NodeTest: name}}
	return n
}

// --- constructors ---

func (p *Parser) parseDirectConstructor() *Node {
	name := p.tok.Value // set by TagOpen
	p.advance()
	info := &ConstructorInfo{Name: name}
	for p.tok.Type == AttrName {
		attrName := p.tok.Value
		p.advance()
		p.expect(Eq, "'='")
		parts := p.parseAVT()
		info.Attrs = append(info.Attrs, AttrSpec{Name: attrName, Parts: parts})
	}
	n := &Node{Type: NElementConstructor, Constructor: info}
	if p.tok.Type == TagSelfClose {
		info.SelfClosing = true
		p.advance()
		return n
	}
	p.expect(TagClose, "'>'")
	for {
		switch p.tok.Type {
		case ConstrText:
			if p.tok.Value != "" {
				child := newNode(NTextConstructor)
				child.Value = p.tok.Value
				n.Children = append(n.Children, child)
			}
			p.advance()
		case EnclosedStart:
			p.advance()
			expr := p.parseExpr()
			p.expect(RBrace, "'}'")
			p.lex.EndEnclosed()
			n.Children = append(n.Children, expr)
		case TagOpen:
			n.Children = append(n.Children, p.parseDirectConstructor())
		case TagEndOpen:
			p.advance()
			return n
		case EOF:
			p.errorf("unterminated element constructor <%s>", name)
			return n
		default:
			p.advance()
		}
	}
}

// parseAVT reads a quoted attribute-value-template string and splits
// it into literal/expression parts, since the lexer hands the parser
// the raw quoted text for attribute values.
func (p *Parser) parseAVT() []AVTPart {
	raw := p.tok.Value
	p.advance()
	var parts []AVTPart
	var lit strings.Builder
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '{' && i+1 < len(raw) && raw[i+1] == '{' {
			lit.WriteByte('{')
			i += 2
			continue
		}
		if c == '}' && i+1 < len(raw) && raw[i+1] == '}' {
			lit.WriteByte('}')
			i += 2
			continue
		}
		if c == '{' {
			if lit.Len() > 0 {
				parts = append(parts, AVTPart{Literal: lit.String()})
				lit.Reset()
			}
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				} else if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			sub := raw[i+1 : j]
			exprAST, _ := Compile(sub)
			parts = append(parts, AVTPart{Expr: exprAST})
			i = j + 1
			continue
		}
		lit.WriteByte(c)
		i++
	}
	if lit.Len() > 0 {
		parts = append(parts, AVTPart{Literal: lit.String()})
	}
	return parts
}

func (p *Parser) parseComputedConstructor() *Node {
	kind := p.tok.Value
	p.advance()
	info := &ConstructorInfo{}
	var t NodeType
	switch kind {
	case "element":
		t = NElementConstructor
	case "attribute":
		t = NAttributeConstructor
	case "text":
		t = NTextConstructor
	case "comment":
		t = NCommentConstructor
	case "processing-instruction":
		t = NPIConstructor
	case "document":
		t = NDocumentConstructor
	}
	if t != NTextConstructor && t != NCommentConstructor && t != NDocumentConstructor {
		if p.tok.Type == Name {
			info.Name = p.tok.Value
			p.advance()
		} else if p.tok.Type == LBrace {
			p.advance()
			info.NameExpr = p.parseExpr()
			p.expect(RBrace, "'}'")
		}
	}
	n := &Node{Type: t, Constructor: info}
	p.expect(LBrace, "'{'")
	if p.tok.Type != RBrace {
		n.Children = append(n.Children, p.parseExpr())
	}
	p.expect(RBrace, "'}'")
	return n
}
