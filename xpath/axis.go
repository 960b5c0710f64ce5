package xpath

import (
	"sort"
	"strconv"
	"strings"
)

// idCache memoizes ancestor-chain walks (built from TagByID) for one
// evaluation, since document-order comparison and several axes repeat
// the same walk-to-root many times over a single query.
type idCache struct {
	doc     Document
	ancestr map[int][]int // node ID -> ancestor ID chain, root-first, self last
}

func newIDCache(doc Document) *idCache {
	return &idCache{doc: doc, ancestr: make(map[int][]int)}
}

// chain returns the ancestor-or-self ID chain for id, root first.
func (c *idCache) chain(id int) []int {
	if chain, ok := c.ancestr[id]; ok {
		return chain
	}
	var rev []int
	for cur := id; cur > 0; {
		rev = append(rev, cur)
		t := c.doc.TagByID(cur)
		if t == nil || t.ParentID() <= 0 {
			break
		}
		cur = t.ParentID()
	}
	chain := make([]int, len(rev))
	for i, id := range rev {
		chain[len(rev)-1-i] = id
	}
	c.ancestr[id] = chain
	return chain
}

// compare returns -1/0/1 comparing a and b in document order. Element
// nodes compare by ID chain; when a and b are the same element, an
// attribute ref sorts after the element itself, and two attributes on
// the same element compare by declaration order.
func (c *idCache) compare(a, b NodeRef) int {
	if a.Node == nil || b.Node == nil {
		return 0
	}
	if a.Node.ID() == b.Node.ID() {
		if a.Attr == b.Attr {
			return 0
		}
		if a.Attr == "" {
			return -1
		}
		if b.Attr == "" {
			return 1
		}
		ai, bi := attrIndex(a.Node, a.Attr), attrIndex(b.Node, b.Attr)
		if ai == bi {
			return 0
		}
		if ai < bi {
			return -1
		}
		return 1
	}
	ca, cb := c.chain(a.Node.ID()), c.chain(b.Node.ID())
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] == cb[i] {
			continue
		}
		return compareSiblingOrder(c.doc, ca[i], cb[i])
	}
	if len(ca) < len(cb) {
		return -1
	}
	return 1
}

func attrIndex(t Tag, name string) int {
	for i := 1; i < t.AttrCount(); i++ {
		if t.AttrName(i) == name {
			return i
		}
	}
	return -1
}

// compareSiblingOrder orders two distinct IDs that share a parent by
// their position among the parent's children; siblings sharing no
// common parent (shouldn't happen given both came from the same
// chain-divergence point) fall back to ID order.
func compareSiblingOrder(doc Document, idA, idB int) int {
	a, b := doc.TagByID(idA), doc.TagByID(idB)
	if a == nil || b == nil || a.ParentID() != b.ParentID() {
		if idA < idB {
			return -1
		}
		return 1
	}
	parent := doc.TagByID(a.ParentID())
	if parent == nil {
		if idA < idB {
			return -1
		}
		return 1
	}
	for i := 0; i < parent.ChildCount(); i++ {
		ch := parent.Child(i)
		if ch.ID() == idA {
			return -1
		}
		if ch.ID() == idB {
			return 1
		}
	}
	if idA < idB {
		return -1
	}
	return 1
}

// sortDedupNodeSet sorts ns into document order and removes duplicate
// (node, attr) pairs, unless ns.PreserveOrder is set (a FLWOR return
// clause explicitly built its own sequence order).
func sortDedupNodeSet(doc Document, ns *NodeSet) *NodeSet {
	if ns == nil || ns.PreserveOrder || len(ns.Nodes) < 2 {
		return ns
	}
	c := newIDCache(doc)
	type entry struct {
		ref NodeRef
		str string
	}
	entries := make([]entry, len(ns.Nodes))
	for i := range ns.Nodes {
		entries[i] = entry{ref: ns.Nodes[i], str: ns.Strings[i]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return c.compare(entries[i].ref, entries[j].ref) < 0
	})
	out := &NodeSet{}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		key := nodeRefKey(e.ref)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Nodes = append(out.Nodes, e.ref)
		out.Strings = append(out.Strings, e.str)
	}
	if ns.FirstValue != nil {
		out.FirstValue = ns.FirstValue
	}
	return out
}

func nodeRefKey(r NodeRef) string {
	if r.Node == nil {
		return "@" + r.Attr
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(r.Node.ID()))
	b.WriteByte('\x00')
	b.WriteString(r.Attr)
	return b.String()
}

// isNamespaceDecl reports whether attr name is an xmlns declaration,
// which the attribute axis excludes and the namespace axis includes.
func isNamespaceDecl(name string) bool {
	return name == "xmlns" || strings.HasPrefix(name, "xmlns:")
}

const xmlNamespaceURI = "http://www.w3.org/XML/1998/namespace"

// namespaceBindings collects the in-scope prefix->URI bindings visible
// from node, walking ancestor-or-self toward the root: the nearest
// declaration for a given prefix wins, and the default "xml" binding
// is always present even when never declared explicitly.
func namespaceBindings(doc Document, node Tag) map[string]string {
	bindings := make(map[string]string)
	for _, anc := range ancestorsOf(doc, node, true) {
		for i := 1; i < anc.AttrCount(); i++ {
			name := anc.AttrName(i)
			if !isNamespaceDecl(name) {
				continue
			}
			prefix := ""
			if name != "xmlns" {
				prefix = name[len("xmlns:"):]
			}
			if _, ok := bindings[prefix]; !ok {
				bindings[prefix] = anc.AttrValue(i)
			}
		}
	}
	if _, ok := bindings["xml"]; !ok {
		bindings["xml"] = xmlNamespaceURI
	}
	return bindings
}

// namespaceAxisNodes builds one synthetic node per in-scope binding
// visible from node, sorted by prefix, registered into cd's pool so
// they resolve back through TagByID like any other constructed node.
func namespaceAxisNodes(cd *constructDoc, node Tag) []NodeRef {
	bindings := namespaceBindings(cd, node)
	prefixes := make([]string, 0, len(bindings))
	for p := range bindings {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	out := make([]NodeRef, 0, len(prefixes))
	for _, p := range prefixes {
		n := &synthNode{id: cd.allocID(), parentID: node.ID(), attrs: []attr{{name: p, value: bindings[p]}}}
		cd.register(n)
		out = append(out, NodeRef{Node: n, Attr: p})
	}
	return out
}

// evalAxis returns the raw (unfiltered by name test) members of axis
// starting from node, in the axis's natural order (document order for
// forward axes, reverse document order for reverse axes, per the
// principal-node-type rule each axis follows).
func evalAxis(doc Document, node Tag, axis Axis) []NodeRef {
	switch axis {
	case AxisSelf:
		return []NodeRef{{Node: node}}

	case AxisChild:
		var out []NodeRef
		for i := 0; i < node.ChildCount(); i++ {
			out = append(out, NodeRef{Node: node.Child(i)})
		}
		return out

	case AxisAttribute:
		var out []NodeRef
		for i := 1; i < node.AttrCount(); i++ {
			name := node.AttrName(i)
			if isNamespaceDecl(name) {
				continue
			}
			out = append(out, NodeRef{Node: node, Attr: name})
		}
		return out

	case AxisNamespace:
		cd, ok := doc.(*constructDoc)
		if !ok {
			cd = newConstructDoc(doc)
		}
		return namespaceAxisNodes(cd, node)

	case AxisParent:
		if p := parentOf(doc, node); p != nil {
			return []NodeRef{{Node: p}}
		}
		return nil

	case AxisAncestor:
		return wrapRefs(ancestorsOf(doc, node, false))

	case AxisAncestorOrSelf:
		return wrapRefs(ancestorsOf(doc, node, true))

	case AxisDescendant:
		var out []NodeRef
		collectDescendants(node, false, &out)
		return out

	case AxisDescendantOrSelf:
		var out []NodeRef
		collectDescendants(node, true, &out)
		return out

	case AxisFollowingSibling:
		return wrapRefs(siblings(doc, node, true))

	case AxisPrecedingSibling:
		return wrapRefs(siblings(doc, node, false))

	case AxisFollowing:
		return followingOrPreceding(doc, node, true)

	case AxisPreceding:
		return followingOrPreceding(doc, node, false)
	}
	return nil
}

func wrapRefs(tags []Tag) []NodeRef {
	out := make([]NodeRef, len(tags))
	for i, t := range tags {
		out[i] = NodeRef{Node: t}
	}
	return out
}

func parentOf(doc Document, node Tag) Tag {
	pid := node.ParentID()
	if pid <= 0 {
		return nil
	}
	return doc.TagByID(pid)
}

// ancestorsOf returns ancestors nearest-first; includeSelf prepends node.
func ancestorsOf(doc Document, node Tag, includeSelf bool) []Tag {
	var out []Tag
	if includeSelf {
		out = append(out, node)
	}
	for cur := parentOf(doc, node); cur != nil; cur = parentOf(doc, cur) {
		out = append(out, cur)
	}
	return out
}

func collectDescendants(node Tag, includeSelf bool, out *[]NodeRef) {
	if includeSelf {
		*out = append(*out, NodeRef{Node: node})
	}
	for i := 0; i < node.ChildCount(); i++ {
		collectDescendants(node.Child(i), true, out)
	}
}

// siblings returns the node's following (document order) or preceding
// (reverse document order, nearest-first) siblings.
func siblings(doc Document, node Tag, following bool) []Tag {
	parent := parentOf(doc, node)
	if parent == nil {
		return nil
	}
	idx := -1
	for i := 0; i < parent.ChildCount(); i++ {
		if parent.Child(i).ID() == node.ID() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var out []Tag
	if following {
		for i := idx + 1; i < parent.ChildCount(); i++ {
			out = append(out, parent.Child(i))
		}
	} else {
		for i := idx - 1; i >= 0; i-- {
			out = append(out, parent.Child(i))
		}
	}
	return out
}

// followingOrPreceding walks the whole tree from the root, excluding
// node's own ancestors and descendants, partitioning by document order
// relative to node.
func followingOrPreceding(doc Document, node Tag, following bool) []NodeRef {
	root := doc.Root()
	ancestorIDs := make(map[int]bool)
	for _, a := range ancestorsOf(doc, node, true) {
		ancestorIDs[a.ID()] = true
	}
	var all []Tag
	var walk func(Tag)
	walk = func(t Tag) {
		all = append(all, t)
		for i := 0; i < t.ChildCount(); i++ {
			walk(t.Child(i))
		}
	}
	walk(root)

	var out []NodeRef
	pastNode := false
	for _, t := range all {
		if t.ID() == node.ID() {
			pastNode = true
			continue
		}
		if ancestorIDs[t.ID()] {
			continue
		}
		isDescendant := false
		for cur := parentOf(doc, t); cur != nil; cur = parentOf(doc, cur) {
			if cur.ID() == node.ID() {
				isDescendant = true
				break
			}
		}
		if isDescendant {
			continue
		}
		if following && pastNode {
			out = append(out, NodeRef{Node: t})
		} else if !following && !pastNode {
			out = append(out, NodeRef{Node: t})
		}
	}
	if !following {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
