package document

import (
	"strconv"
	"strings"
)

// Resolve walks a dotted path with optional [i] indices
// (e.g. "Shipment.OrganizationAddressCollection.OrganizationAddress[0].City")
// and returns the node it lands on. Absence is data, not an error: any
// missing segment, index into a non-list, or out-of-range index reports
// false. Resolve never fails for any input.
func Resolve(n *Node, path string) (*Node, bool) {
	cur := n
	for _, seg := range strings.Split(path, ".") {
		name, indices, ok := splitSegment(seg)
		if !ok {
			return nil, false
		}
		if name != "" {
			child, ok := cur.Child(name)
			if !ok {
				return nil, false
			}
			cur = child
		}
		for _, i := range indices {
			item, ok := cur.Index(i)
			if !ok {
				return nil, false
			}
			cur = item
		}
	}
	return cur, true
}

// String resolves path to a scalar and returns its text, or def if the path
// is absent or lands on a non-scalar node.
func String(n *Node, path, def string) string {
	target, ok := Resolve(n, path)
	if !ok || target == nil {
		return def
	}
	switch target.Kind() {
	case KindScalar:
		return target.Text()
	case KindMap:
		// An element that carried attributes still exposes its text content.
		if t, ok := target.Child(TextKey); ok {
			return t.Text()
		}
	}
	return def
}

// Float resolves path to a scalar and parses it as a float, or returns def
// when absent or unparsable.
func Float(n *Node, path string, def float64) float64 {
	s := String(n, path, "")
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

// List resolves path and normalizes the result to an ordered slice: a list
// node yields its items, a bare node yields itself, absence yields nil.
func List(n *Node, path string) []*Node {
	target, ok := Resolve(n, path)
	if !ok {
		return nil
	}
	return target.Items()
}

// splitSegment splits "Name[1][2]" into the name and its index chain.
// Reports false on malformed index syntax.
func splitSegment(seg string) (string, []int, bool) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, nil, true
	}
	name := seg[:open]
	var indices []int
	rest := seg[open:]
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		close := strings.IndexByte(rest, ']')
		if close < 0 {
			return "", nil, false
		}
		i, err := strconv.Atoi(rest[1:close])
		if err != nil || i < 0 {
			return "", nil, false
		}
		indices = append(indices, i)
		rest = rest[close+1:]
	}
	return name, indices, true
}
