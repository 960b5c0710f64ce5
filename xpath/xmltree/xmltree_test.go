package xmltree

import "testing"

func TestParseBuildsChildrenAndAttrs(t *testing.T) {
	tree, err := ParseString(`<root a="1"><child>text</child><!--note--></root>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	root := tree.Root()
	if root.ChildCount() != 1 {
		t.Fatalf("document root child count = %d, want 1", root.ChildCount())
	}
	elem := root.Child(0)
	if elem.AttrName(0) != "root" {
		t.Fatalf("element name = %q, want root", elem.AttrName(0))
	}
	if elem.AttrCount() != 2 || elem.AttrName(1) != "a" || elem.AttrValue(1) != "1" {
		t.Fatalf("unexpected attrs on root: count=%d", elem.AttrCount())
	}
	if elem.ChildCount() != 2 {
		t.Fatalf("root element child count = %d, want 2 (child + comment)", elem.ChildCount())
	}
	child := elem.Child(0)
	if child.AttrName(0) != "child" {
		t.Fatalf("first child name = %q, want child", child.AttrName(0))
	}
	if child.ChildCount() != 1 || child.Child(0).AttrValue(0) != "text" {
		t.Fatalf("expected text node with value 'text'")
	}
	comment := elem.Child(1)
	if comment.AttrName(0) != "#comment" || comment.AttrValue(0) != "note" {
		t.Fatalf("expected comment node, got %+v", comment)
	}
}

func TestResolvePrefix(t *testing.T) {
	tree, err := ParseString(`<root xmlns:x="urn:example"><child/></root>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	root := tree.Root().Child(0)
	child := root.Child(0)
	nsID := tree.ResolvePrefix("x", child.ID())
	if nsID < 0 {
		t.Fatalf("expected to resolve prefix x")
	}
	if tree.NamespaceURI(nsID) != "urn:example" {
		t.Fatalf("got %q, want urn:example", tree.NamespaceURI(nsID))
	}
}
