package tree

import (
	"iter"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/treegrep/pkg/safeconv"
)

// Node is a handle to a single syntax-tree node. It borrows from its
// Root and is only valid while the Root is alive. The zero Node is the
// null node.
type Node struct {
	root  *Root
	inner sitter.Node
}

// IsNull reports whether the handle refers to no node.
func (n Node) IsNull() bool {
	return n.root == nil || n.inner.IsNull()
}

// Root returns the owning Root.
func (n Node) Root() *Root {
	return n.root
}

// Kind returns the grammar kind name of the node, e.g.
// "lexical_declaration".
func (n Node) Kind() string {
	return n.inner.Type()
}

// KindID returns the grammar symbol id of the node. Symbol ids are the
// cheap identity used for kind pruning.
func (n Node) KindID() sitter.Symbol {
	return n.inner.Symbol()
}

// IsNamed reports whether the node is a named grammar node rather than
// an anonymous token.
func (n Node) IsNamed() bool {
	return n.inner.IsNamed()
}

// IsMissing reports whether the node was fabricated by the parser to
// stand in for a grammatically expected but absent token.
func (n Node) IsMissing() bool {
	return n.inner.IsMissing()
}

// IsLeaf reports whether the node has no children at all.
func (n Node) IsLeaf() bool {
	return n.inner.ChildCount() == 0
}

// StartByte returns the byte offset where the node's span starts.
func (n Node) StartByte() int {
	return safeconv.MustUintToInt(n.inner.StartByte())
}

// EndByte returns the byte offset just past the node's span.
func (n Node) EndByte() int {
	return safeconv.MustUintToInt(n.inner.EndByte())
}

// Text returns the exact source text covered by the node. Out-of-range
// spans (possible on detached trees) yield the empty string.
func (n Node) Text() string {
	start := n.inner.StartByte()
	end := n.inner.EndByte()

	if end <= uint(len(n.root.source)) && start <= end {
		return string(n.root.source[start:end])
	}

	return ""
}

// ChildCount returns the number of children, anonymous tokens included.
func (n Node) ChildCount() int {
	return safeconv.MustUintToInt(uint(n.inner.ChildCount()))
}

// Child returns the idx-th child, anonymous tokens included. The
// result is null when idx is out of range.
func (n Node) Child(idx int) Node {
	return Node{root: n.root, inner: n.inner.Child(uint32(safeconv.MustIntToUint(idx)))}
}

// Children returns all non-null children in order.
func (n Node) Children() []Node {
	count := n.ChildCount()
	children := make([]Node, 0, count)

	for idx := range count {
		child := n.Child(idx)
		if !child.IsNull() {
			children = append(children, child)
		}
	}

	return children
}

// Parent returns the parent node, or null for the tree root.
func (n Node) Parent() Node {
	return Node{root: n.root, inner: n.inner.Parent()}
}

// Next returns the following sibling, or null.
func (n Node) Next() Node {
	return Node{root: n.root, inner: n.inner.NextSibling()}
}

// NextAll returns every following sibling in source order.
func (n Node) NextAll() []Node {
	var siblings []Node

	for sibling := n.Next(); !sibling.IsNull(); sibling = sibling.Next() {
		siblings = append(siblings, sibling)
	}

	return siblings
}

// Descendants yields the node and every descendant in depth-first
// preorder. Traversal uses an explicit stack, so arbitrarily deep trees
// cannot exhaust the call stack.
func (n Node) Descendants() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if n.IsNull() {
			return
		}

		stack := []Node{n}

		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(current) {
				return
			}

			children := current.Children()
			for idx := len(children) - 1; idx >= 0; idx-- {
				stack = append(stack, children[idx])
			}
		}
	}
}

// Sexp returns the grammar-tree textual dump of the node's subtree.
func (n Node) Sexp() string {
	return n.inner.String()
}
