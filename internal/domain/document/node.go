package document

// Kind discriminates the three shapes a parsed node can take.
type Kind int

const (
	// KindScalar is a leaf carrying text content.
	KindScalar Kind = iota
	// KindMap is an element with named children (attributes merged in).
	KindMap
	// KindList is a run of repeated sibling elements with the same tag.
	KindList
)

// TextKey is the child name under which an element's own text content is
// stored when the element also carries attributes or child elements
// (e.g. <State Description="New Jersey">NJ</State> exposes the code at
// "State._").
const TextKey = "_"

// Node is one node of a NormalizedDocument. A repeated sibling tag collapses
// to a KindList node; a single occurrence stays a bare KindMap or KindScalar
// node. Callers that tolerate both shapes go through AsList.
type Node struct {
	kind     Kind
	text     string
	items    []*Node
	children map[string]*Node
}

// NewScalar returns a scalar node holding the given text.
func NewScalar(text string) *Node {
	return &Node{kind: KindScalar, text: text}
}

// NewMap returns a map node over the given children.
func NewMap(children map[string]*Node) *Node {
	if children == nil {
		children = make(map[string]*Node)
	}
	return &Node{kind: KindMap, children: children}
}

// NewList returns a list node over the given items.
func NewList(items []*Node) *Node {
	return &Node{kind: KindList, items: items}
}

// Kind reports the node's shape.
func (n *Node) Kind() Kind {
	return n.kind
}

// Text returns the scalar text of the node. For a map node it returns the
// merged text child if present; otherwise empty.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	switch n.kind {
	case KindScalar:
		return n.text
	case KindMap:
		if t, ok := n.children[TextKey]; ok {
			return t.Text()
		}
	}
	return ""
}

// Child returns the named child of a map node.
func (n *Node) Child(name string) (*Node, bool) {
	if n == nil || n.kind != KindMap {
		return nil, false
	}
	c, ok := n.children[name]
	return c, ok
}

// Index returns the i-th item of a list node. Indexing a non-list node or an
// out-of-range position reports false.
func (n *Node) Index(i int) (*Node, bool) {
	if n == nil || n.kind != KindList || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Len returns the number of items of a list node, zero otherwise.
func (n *Node) Len() int {
	if n == nil || n.kind != KindList {
		return 0
	}
	return len(n.items)
}

// Items returns the ordered items of a list node. A bare map or scalar node
// is returned as a single-item slice, so a tag that occurred once and a tag
// that occurred many times read identically. A nil node yields nil.
func (n *Node) Items() []*Node {
	if n == nil {
		return nil
	}
	if n.kind == KindList {
		return n.items
	}
	return []*Node{n}
}
