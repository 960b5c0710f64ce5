package xpath

// NodeType enumerates the fixed set of AST node kinds the parser emits.
type NodeType int

const (
	NLiteral NodeType = iota
	NNumber
	NVariableRef
	NPath
	NStep
	NPredicate
	NBinaryOp
	NUnaryOp
	NFunctionCall
	NIf
	NQuantified
	NFor
	NLet
	NFlwor
	NOrderSpec
	NGroupKey
	NUnion
	NIntersect
	NExcept
	NElementConstructor
	NAttributeConstructor
	NTextConstructor
	NCommentConstructor
	NPIConstructor
	NDocumentConstructor
	NComputedName
	NAVTLiteral
	NAVTExpr
	NRoot    // leading '/'
	NContext // '.'
	NParent  // '..'
)

// Axis enumerates the thirteen XPath axes.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisDescendantOrSelf
	AxisParent
	AxisAncestor
	AxisAncestorOrSelf
	AxisFollowingSibling
	AxisPrecedingSibling
	AxisFollowing
	AxisPreceding
	AxisSelf
	AxisAttribute
	AxisNamespace
)

// ConstructorInfo carries the payload for a direct or computed
// constructor node: the static name or computed name expression (a
// non-nil NameExpr marks a computed-name constructor), declared
// attributes, and whether a direct element was written self-closing.
type ConstructorInfo struct {
	Name         string // static name, empty when NameExpr is set
	NameExpr     *Node  // computed name expression, for element/attribute/PI
	Attrs        []AttrSpec
	SelfClosing  bool
}

// AttrSpec is one attribute on a direct element constructor: a name and
// its attribute-value-template parts.
type AttrSpec struct {
	Name  string
	Parts []AVTPart
}

// AVTPart is one literal-or-expression segment of an attribute value
// template.
type AVTPart struct {
	Literal string // set when Expr is nil
	Expr    *Node
}

// OrderSpecInfo carries order-by modifiers for one OrderSpec AST node.
type OrderSpecInfo struct {
	Descending bool
	EmptyLeast bool
	EmptySet   bool
	Collation  string
}

// StepInfo carries axis/name-test payload for a Step AST node.
type StepInfo struct {
	Axis     Axis
	NodeTest string // "*" for wildcard, "node()"/"text()"/etc, or a name
	IsNodeTypeTest bool
}

// Node is the AST: tagged type, literal/operator value, children, and
// an optional typed payload.
type Node struct {
	Type     NodeType
	Value    string // operator text, function/variable name, literal text
	Children []*Node

	Step        *StepInfo
	Constructor *ConstructorInfo
	OrderSpec   *OrderSpecInfo

	// Clauses used by FLWOR (NFlwor): each is itself a Node of type
	// NFor/NLet/NOrderSpec/NGroupKey, or a bare Expr for Where/Return.
	ForLet   []*Node
	Where    *Node
	GroupBy  []*Node
	OrderBy  []*Node
	Count    string
	Return   *Node

	Diagnostics []string
}

func newNode(t NodeType, children ...*Node) *Node {
	return &Node{Type: t, Children: children}
}
