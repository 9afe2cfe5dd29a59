package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformed indicates the input was not well-formed XML or had no root
// element.
var ErrMalformed = errors.New("document: malformed XML")

// Parse reads raw XML into a NormalizedDocument rooted at a map node keyed by
// the root element's local name. Attributes are merged into their element's
// field set, so a value encoded as an attribute and one encoded as a child
// element read the same way. Namespace declarations are dropped; tags and
// attribute names are compared by local name.
func Parse(raw []byte) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return NewMap(map[string]*Node{root.Tag: fromElement(root)}), nil
}

// fromElement converts one element subtree. An element with neither
// attributes nor child elements becomes a scalar holding its text; anything
// richer becomes a map node, with its own text (if any) stored under TextKey
// and repeated child tags collapsed into list nodes.
func fromElement(el *etree.Element) *Node {
	attrs := mergeableAttrs(el)
	childEls := el.ChildElements()

	if len(attrs) == 0 && len(childEls) == 0 {
		return NewScalar(strings.TrimSpace(el.Text()))
	}

	children := make(map[string]*Node, len(attrs)+len(childEls))
	for k, v := range attrs {
		children[k] = NewScalar(v)
	}

	// Group repeated sibling tags in encounter order.
	order := make([]string, 0, len(childEls))
	grouped := make(map[string][]*Node, len(childEls))
	for _, c := range childEls {
		if _, seen := grouped[c.Tag]; !seen {
			order = append(order, c.Tag)
		}
		grouped[c.Tag] = append(grouped[c.Tag], fromElement(c))
	}
	for _, tag := range order {
		nodes := grouped[tag]
		if len(nodes) == 1 {
			children[tag] = nodes[0]
		} else {
			children[tag] = NewList(nodes)
		}
	}

	if text := strings.TrimSpace(el.Text()); text != "" {
		children[TextKey] = NewScalar(text)
	}

	return NewMap(children)
}

// mergeableAttrs returns the element's attributes keyed by local name,
// excluding namespace declarations.
func mergeableAttrs(el *etree.Element) map[string]string {
	out := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		out[a.Key] = a.Value
	}
	return out
}
