package xpath

// synthNode is a constructed node: the product of an element,
// attribute, text, comment, processing-instruction, or document
// constructor. It carries a negative ID so it never collides with the
// host document's node IDs, letting constructed trees be navigated by
// the same axis code as host nodes.
type synthNode struct {
	id       int
	parentID int
	attrs    []attr
	children []Tag
}

type attr struct {
	name, value string
}

func (n *synthNode) ID() int          { return n.id }
func (n *synthNode) ParentID() int    { return n.parentID }
func (n *synthNode) NamespaceID() int { return -1 }
func (n *synthNode) AttrCount() int   { return len(n.attrs) }
func (n *synthNode) AttrName(i int) string  { return n.attrs[i].name }
func (n *synthNode) AttrValue(i int) string { return n.attrs[i].value }
func (n *synthNode) ChildCount() int        { return len(n.children) }
func (n *synthNode) Child(i int) Tag        { return n.children[i] }

// constructDoc wraps a host Document so constructed nodes (negative
// IDs) and host nodes (positive IDs) resolve through the same
// TagByID, letting a constructed tree be stepped into exactly like a
// parsed one.
type constructDoc struct {
	host     Document
	synth    map[int]Tag
	nextID   int
	cursorN  Tag
	cursorA  string
}

func newConstructDoc(host Document) *constructDoc {
	if cd, ok := host.(*constructDoc); ok {
		return cd
	}
	return &constructDoc{host: host, synth: make(map[int]Tag), nextID: -1}
}

func (c *constructDoc) allocID() int {
	id := c.nextID
	c.nextID--
	return id
}

func (c *constructDoc) register(n *synthNode) { c.synth[n.id] = n }

func (c *constructDoc) TagByID(id int) Tag {
	if id < 0 {
		return c.synth[id]
	}
	return c.host.TagByID(id)
}
func (c *constructDoc) RegisterNamespace(uri string) int { return c.host.RegisterNamespace(uri) }
func (c *constructDoc) NamespaceURI(id int) string        { return c.host.NamespaceURI(id) }
func (c *constructDoc) ResolvePrefix(prefix string, scopeNodeID int) int {
	if scopeNodeID < 0 {
		return -1
	}
	return c.host.ResolvePrefix(prefix, scopeNodeID)
}
func (c *constructDoc) Root() Tag                        { return c.host.Root() }
func (c *constructDoc) SetCursor(t Tag, attr string)     { c.host.SetCursor(t, attr) }

// construct evaluates a constructor AST node into a node-set value
// containing the single freshly built node.
func (e *Evaluator) construct(ctx EvaluationContext, ast *Node) Value {
	cd := newConstructDoc(ctx.Doc)
	childCtx := ctx
	childCtx.Doc = cd

	switch ast.Type {
	case NElementConstructor:
		return e.constructElement(childCtx, cd, ast, -1)
	case NAttributeConstructor:
		name := e.buildAttributeName(childCtx, ast)
		if e.unsupported {
			return Value{}
		}
		value := e.constructorTextContent(childCtx, ast)
		if e.unsupported {
			return Value{}
		}
		return nodeSetValue(&NodeSet{Nodes: []NodeRef{{Attr: name}}, Strings: []string{value}})
	case NTextConstructor:
		text := ast.Value
		if text == "" {
			text = e.constructorTextContent(childCtx, ast)
			if e.unsupported {
				return Value{}
			}
		}
		n := &synthNode{id: cd.allocID(), parentID: -1, attrs: []attr{{name: "#text", value: text}}}
		cd.register(n)
		return nodeSetValue(singletonNodeSet(n, "", text))
	case NCommentConstructor:
		text := e.constructorTextContent(childCtx, ast)
		if e.unsupported {
			return Value{}
		}
		n := &synthNode{id: cd.allocID(), parentID: -1, attrs: []attr{{name: "#comment", value: text}}}
		cd.register(n)
		return nodeSetValue(singletonNodeSet(n, "", text))
	case NPIConstructor:
		name := ast.Constructor.Name
		if ast.Constructor.NameExpr != nil {
			v := e.Eval(childCtx, ast.Constructor.NameExpr)
			if e.unsupported {
				return Value{}
			}
			name = v.AsString()
		}
		text := e.constructorTextContent(childCtx, ast)
		if e.unsupported {
			return Value{}
		}
		n := &synthNode{id: cd.allocID(), parentID: -1, attrs: []attr{{name: "?" + name, value: text}}}
		cd.register(n)
		return nodeSetValue(singletonNodeSet(n, "", text))
	case NDocumentConstructor:
		n := &synthNode{id: cd.allocID(), parentID: -1, attrs: []attr{{name: "#document"}}}
		cd.register(n)
		for _, child := range ast.Children {
			e.appendConstructedChildren(childCtx, cd, n, child)
			if e.unsupported {
				return Value{}
			}
		}
		return nodeSetValue(singletonNodeSet(n, "", nodeStringValue(n)))
	}
	return e.fail("unsupported constructor")
}

func (e *Evaluator) buildAttributeName(ctx EvaluationContext, ast *Node) string {
	name := ast.Constructor.Name
	if ast.Constructor.NameExpr != nil {
		v := e.Eval(ctx, ast.Constructor.NameExpr)
		if e.unsupported {
			return ""
		}
		name = v.AsString()
	}
	return name
}

// constructorTextContent evaluates a constructor's single content
// expression (text/comment/PI/attribute bodies) to its string value.
func (e *Evaluator) constructorTextContent(ctx EvaluationContext, ast *Node) string {
	if len(ast.Children) == 0 {
		return ""
	}
	v := e.Eval(ctx, ast.Children[0])
	if e.unsupported {
		return ""
	}
	return v.AsString()
}

// constructElement builds an element constructor (direct or computed):
// it creates the element node wired to parentID, then evaluates and
// appends its attributes (with AVT evaluation), then its children.
func (e *Evaluator) constructElement(ctx EvaluationContext, cd *constructDoc, ast *Node, parentID int) Value {
	name := ast.Constructor.Name
	if ast.Constructor.NameExpr != nil {
		v := e.Eval(ctx, ast.Constructor.NameExpr)
		if e.unsupported {
			return Value{}
		}
		name = v.AsString()
	}

	n := &synthNode{id: cd.allocID(), parentID: parentID, attrs: []attr{{name: name}}}
	cd.register(n)

	for _, as := range ast.Constructor.Attrs {
		val := e.evalAVT(ctx, as.Parts)
		if e.unsupported {
			return Value{}
		}
		n.attrs = append(n.attrs, attr{name: as.Name, value: val})
	}

	for _, child := range ast.Children {
		e.appendConstructedChildren(ctx, cd, n, child)
		if e.unsupported {
			return Value{}
		}
	}

	return nodeSetValue(singletonNodeSet(n, "", nodeStringValue(n)))
}

// appendConstructedChildren evaluates one child-constructor-content
// node and appends whatever it produces (text, nested element,
// enclosed-expression node-set) to parent's children, or as an
// attribute if the evaluated expression yields one.
func (e *Evaluator) appendConstructedChildren(ctx EvaluationContext, cd *constructDoc, parent *synthNode, child *Node) {
	if child.Type == NTextConstructor && child.Value != "" {
		n := &synthNode{id: cd.allocID(), parentID: parent.id, attrs: []attr{{name: "#text", value: child.Value}}}
		cd.register(n)
		parent.children = append(parent.children, n)
		return
	}
	if child.Type == NElementConstructor {
		v := e.constructElement(ctx, cd, child, parent.id)
		if e.unsupported || v.Kind != KindNodeSet || v.NodeSet.Len() == 0 {
			return
		}
		parent.children = append(parent.children, v.NodeSet.Nodes[0].Node)
		return
	}

	v := e.Eval(ctx, child)
	if e.unsupported {
		return
	}
	if v.Kind == KindNodeSet {
		for _, r := range v.NodeSet.Nodes {
			if r.Attr != "" && r.Node == nil {
				parent.attrs = append(parent.attrs, attr{name: r.Attr, value: v.NodeSet.First()})
				continue
			}
			if r.Node != nil {
				reparented := reparent(cd, r.Node, parent.id)
				parent.children = append(parent.children, reparented)
			}
		}
		return
	}
	text := v.AsString()
	if text == "" {
		return
	}
	n := &synthNode{id: cd.allocID(), parentID: parent.id, attrs: []attr{{name: "#text", value: text}}}
	cd.register(n)
	parent.children = append(parent.children, n)
}

// reparent copies a node (constructed or host) into a fresh synthNode
// with a new ID and parentID, so a node inserted via an enclosed
// expression gets its own identity under its new parent rather than
// aliasing its original position in the source tree.
func reparent(cd *constructDoc, src Tag, parentID int) Tag {
	n := &synthNode{id: cd.allocID(), parentID: parentID}
	for i := 0; i < src.AttrCount(); i++ {
		n.attrs = append(n.attrs, attr{name: src.AttrName(i), value: src.AttrValue(i)})
	}
	cd.register(n)
	for i := 0; i < src.ChildCount(); i++ {
		n.children = append(n.children, reparent(cd, src.Child(i), n.id))
	}
	return n
}

// evalAVT evaluates an attribute-value-template's parts and joins
// them, coercing expression results to strings.
func (e *Evaluator) evalAVT(ctx EvaluationContext, parts []AVTPart) string {
	if len(parts) == 0 {
		return ""
	}
	out := ""
	for _, p := range parts {
		if p.Expr == nil {
			out += p.Literal
			continue
		}
		v := e.Eval(ctx, p.Expr)
		if e.unsupported {
			return ""
		}
		out += v.AsString()
	}
	return out
}
