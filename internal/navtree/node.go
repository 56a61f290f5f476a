package navtree

import "slices"

// ChildrenKind tags how a node's children are stored.
type ChildrenKind int

const (
	ChildrenNone ChildrenKind = iota
	ChildrenInline
	ChildrenDeferred
)

func (k ChildrenKind) String() string {
	switch k {
	case ChildrenInline:
		return "inline"
	case ChildrenDeferred:
		return "deferred"
	default:
		return "none"
	}
}

// Children is either an inline list of nodes, the name of a deferred list
// held in a Registry, or nothing.
type Children struct {
	kind  ChildrenKind
	nodes []Node
	ref   string
}

// NoChildren marks a leaf node.
var NoChildren = Children{}

// Inline returns children stored directly in the node. An empty list is
// still inline, matching `[ ]` in the data file.
func Inline(nodes ...Node) Children {
	if len(nodes) == 0 {
		return Children{kind: ChildrenInline}
	}
	return Children{kind: ChildrenInline, nodes: slices.Clone(nodes)}
}

// Deferred returns children that must be looked up by name.
func Deferred(name string) Children {
	return Children{kind: ChildrenDeferred, ref: name}
}

func (c Children) Kind() ChildrenKind { return c.kind }

// Nodes returns a copy of the inline children, nil otherwise.
func (c Children) Nodes() []Node {
	if c.kind != ChildrenInline {
		return nil
	}
	return slices.Clone(c.nodes)
}

// Ref returns the deferred list name, empty otherwise.
func (c Children) Ref() string {
	if c.kind != ChildrenDeferred {
		return ""
	}
	return c.ref
}

// Node is one entry of the navigation tree.
type Node struct {
	Label    string   // Text shown in the tree
	Target   string   // Relative URL; empty for a non-navigable grouping node
	Children Children // Inline, deferred or none
}

// HasTarget reports whether the node links somewhere.
func (n Node) HasTarget() bool {
	return n.Target != ""
}

// Leaf builds a node without children.
func Leaf(label, target string) Node {
	return Node{Label: label, Target: target}
}

// Branch builds a node with inline children.
func Branch(label, target string, children ...Node) Node {
	return Node{Label: label, Target: target, Children: Inline(children...)}
}

// Ref builds a node whose children live in the registry under name.
func Ref(label, target, name string) Node {
	return Node{Label: label, Target: target, Children: Deferred(name)}
}
