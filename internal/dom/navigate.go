package dom

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// ChildrenOf returns the children of parent grouped by namespace. A parent
// without children, or an unknown id, yields an empty map.
func ChildrenOf(d *Dom, parent NodeID) Children {
	return indexOf(d).childrenOf(parent)
}

// NodeIDByName returns the id of the node with the given name.
func NodeIDByName(d *Dom, name string) (NodeID, bool) {
	id, ok := indexOf(d).nameMap()[name]
	return id, ok
}

// NodeByName is NodeIDByName followed by a lookup.
func NodeByName(d *Dom, name string) (*Node, bool) {
	id, ok := NodeIDByName(d, name)
	if !ok {
		return nil, false
	}
	return d.Lookup(id)
}

// Resolve finds a node by id, then by name.
func Resolve(d *Dom, ref string) (*Node, error) {
	if n, ok := d.Lookup(NodeID(ref)); ok {
		return n, nil
	}
	if n, ok := NodeByName(d, ref); ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

// ParentOf returns the parent of n, or nil for the root and detached nodes.
func ParentOf(d *Dom, n *Node) (*Node, error) {
	if !n.IsAttached() {
		return nil, nil
	}
	p, err := d.Get(n.ParentID)
	if err != nil {
		return nil, fmt.Errorf("parent of %q: %w", n.ID, err)
	}
	return p, nil
}

// SiblingsOf returns the other children in n's bucket, in order.
func SiblingsOf(d *Dom, n *Node) []*Node {
	if !n.IsAttached() {
		return nil
	}
	bucket := indexOf(d).childrenOf(n.ParentID)[n.ParentProp]
	out := make([]*Node, 0, len(bucket))
	for _, s := range bucket {
		if s.ID != n.ID {
			out = append(out, s)
		}
	}
	return out
}

// AncestorsOf returns the ancestors of n ordered from the root down to n's
// parent.
func AncestorsOf(d *Dom, n *Node) []*Node {
	var out []*Node
	seen := map[NodeID]bool{n.ID: true}
	for cur := n; cur.IsAttached(); {
		p, ok := d.Lookup(cur.ParentID)
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		out = append(out, p)
		cur = p
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// PageAncestorsOf returns the unbroken chain of element and page nodes above
// n, root first. The walk stops at the first parent of any other kind.
func PageAncestorsOf(d *Dom, n *Node) []*Node {
	var out []*Node
	seen := map[NodeID]bool{n.ID: true}
	for cur := n; cur.IsAttached(); {
		p, ok := d.Lookup(cur.ParentID)
		if !ok || seen[p.ID] || (p.Kind != KindElement && p.Kind != KindPage) {
			break
		}
		seen[p.ID] = true
		out = append(out, p)
		cur = p
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NearestPageAncestor returns n itself when it is a page, otherwise the
// closest page above it.
func NearestPageAncestor(d *Dom, n *Node) (*Node, bool) {
	seen := map[NodeID]bool{}
	for cur := n; cur != nil && !seen[cur.ID]; {
		if cur.Kind == KindPage {
			return cur, true
		}
		seen[cur.ID] = true
		if !cur.IsAttached() {
			break
		}
		p, ok := d.Lookup(cur.ParentID)
		if !ok {
			break
		}
		cur = p
	}
	return nil, false
}

// DescendantsOf returns every node below n in pre-order. Namespaces are
// visited in name order, siblings in bucket order.
func DescendantsOf(d *Dom, n *Node) []*Node {
	idx := indexOf(d)
	visited := roaring.New()
	if o, ok := idx.ordinal(n.ID); ok {
		visited.Add(o)
	}
	var out []*Node
	var walk func(id NodeID)
	walk = func(id NodeID) {
		children := idx.childrenOf(id)
		namespaces := make([]string, 0, len(children))
		for ns := range children {
			namespaces = append(namespaces, ns)
		}
		sort.Strings(namespaces)
		for _, ns := range namespaces {
			for _, c := range children[ns] {
				o, _ := idx.ordinal(c.ID)
				if !visited.CheckedAdd(o) {
					continue
				}
				out = append(out, c)
				walk(c.ID)
			}
		}
	}
	walk(n.ID)
	return out
}

// NodesOfKind returns every node of kind k ordered by id.
func NodesOfKind(d *Dom, k Kind) []*Node {
	return indexOf(d).ofKind(k)
}
