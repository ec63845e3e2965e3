package dom

// renderKinds is the allow-list of kinds shipped to the client renderer.
var renderKinds = map[Kind]bool{
	KindApplication:   true,
	KindTheme:         true,
	KindPage:          true,
	KindElement:       true,
	KindCodeComponent: true,
	KindQuery:         true,
}

// Renderable reports whether nodes of kind k are part of the render tree.
func Renderable(k Kind) bool {
	return renderKinds[k]
}

// Project returns the render tree of d: the same root with every node of a
// non-renderable kind removed. Renderable nodes are shared unchanged. Kinds
// left out own no children, so the result is still a single tree.
func Project(d *Dom) *Dom {
	m := d.nodes
	itr := d.nodes.Iterator()
	for !itr.Done() {
		id, n, _ := itr.Next()
		if !Renderable(n.Kind) {
			m = m.Delete(id)
		}
	}
	return d.derive(m)
}
