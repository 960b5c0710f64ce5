// Package xmltree is a reference host tree for the xpath package,
// parsing a document with encoding/xml and exposing it through
// xpath.Tag/xpath.Document.
package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/arcxq/arcxq/xpath"
)

// Node is one tag in the parsed tree: element, text, comment, or PI.
type Node struct {
	id       int
	parentID int
	nsID     int
	attrs    []attr // slot 0 is the name/content slot
	children []*Node
}

type attr struct {
	name, value string
}

func (n *Node) ID() int          { return n.id }
func (n *Node) ParentID() int    { return n.parentID }
func (n *Node) NamespaceID() int { return n.nsID }
func (n *Node) AttrCount() int   { return len(n.attrs) }
func (n *Node) AttrName(i int) string  { return n.attrs[i].name }
func (n *Node) AttrValue(i int) string { return n.attrs[i].value }
func (n *Node) ChildCount() int  { return len(n.children) }
func (n *Node) Child(i int) xpath.Tag { return n.children[i] }

// Tree is a parsed document: the node-by-ID index, namespace registry,
// and root node.
type Tree struct {
	byID       map[int]*Node
	namespaces []string // index -> URI
	nsByURI    map[string]int
	root       *Node
	nextID     int
	cursorNode xpath.Tag
	cursorAttr string
}

var _ xpath.Document = (*Tree)(nil)

// Parse reads a full XML document from r into a Tree.
func Parse(r io.Reader) (*Tree, error) {
	t := &Tree{byID: make(map[int]*Node), nsByURI: make(map[string]int)}
	dec := xml.NewDecoder(r)

	root := &Node{id: t.allocID(), parentID: -1, attrs: []attr{{name: "#document"}}}
	t.byID[root.id] = root
	t.root = root

	stack := []*Node{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: %w", err)
		}
		switch tk := tok.(type) {
		case xml.StartElement:
			n := &Node{id: t.allocID(), parentID: stack[len(stack)-1].id}
			name := tk.Name.Local
			if tk.Name.Space != "" {
				name = tk.Name.Space + ":" + name
			}
			n.attrs = append(n.attrs, attr{name: name})
			for _, a := range tk.Attr {
				an := a.Name.Local
				if a.Name.Space != "" {
					an = a.Name.Space + ":" + an
				}
				n.attrs = append(n.attrs, attr{name: an, value: a.Value})
			}
			t.byID[n.id] = n
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			text := string(tk)
			if strings.TrimSpace(text) == "" {
				continue
			}
			parent := stack[len(stack)-1]
			n := &Node{id: t.allocID(), parentID: parent.id, attrs: []attr{{name: "#text", value: text}}}
			t.byID[n.id] = n
			parent.children = append(parent.children, n)
		case xml.Comment:
			parent := stack[len(stack)-1]
			n := &Node{id: t.allocID(), parentID: parent.id, attrs: []attr{{name: "#comment", value: string(tk)}}}
			t.byID[n.id] = n
			parent.children = append(parent.children, n)
		case xml.ProcInst:
			parent := stack[len(stack)-1]
			n := &Node{id: t.allocID(), parentID: parent.id, attrs: []attr{{name: "?" + tk.Target, value: string(tk.Inst)}}}
			t.byID[n.id] = n
			parent.children = append(parent.children, n)
		}
	}
	return t, nil
}

// ParseString is a convenience wrapper around Parse for in-memory XML.
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

func (t *Tree) allocID() int {
	t.nextID++
	return t.nextID
}

func (t *Tree) TagByID(id int) xpath.Tag {
	n, ok := t.byID[id]
	if !ok {
		return nil
	}
	return n
}

func (t *Tree) RegisterNamespace(uri string) int {
	if id, ok := t.nsByURI[uri]; ok {
		return id
	}
	t.namespaces = append(t.namespaces, uri)
	id := len(t.namespaces) - 1
	t.nsByURI[uri] = id
	return id
}

func (t *Tree) NamespaceURI(id int) string {
	if id < 0 || id >= len(t.namespaces) {
		return ""
	}
	return t.namespaces[id]
}

// ResolvePrefix looks up a namespace prefix against any xmlns
// declarations visible from scopeNodeID, walking toward the root.
func (t *Tree) ResolvePrefix(prefix string, scopeNodeID int) int {
	want := "xmlns"
	if prefix != "" {
		want = "xmlns:" + prefix
	}
	for id := scopeNodeID; id > 0; {
		n, ok := t.byID[id]
		if !ok {
			break
		}
		for i := 1; i < len(n.attrs); i++ {
			if n.attrs[i].name == want {
				return t.RegisterNamespace(n.attrs[i].value)
			}
		}
		if n.parentID <= 0 {
			break
		}
		id = n.parentID
	}
	return -1
}

func (t *Tree) Root() xpath.Tag { return t.root }

func (t *Tree) SetCursor(n xpath.Tag, attr string) {
	t.cursorNode = n
	t.cursorAttr = attr
}

// Cursor returns the node/attribute last reported to SetCursor.
func (t *Tree) Cursor() (xpath.Tag, string) { return t.cursorNode, t.cursorAttr }
