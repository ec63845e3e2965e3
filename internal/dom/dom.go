// Package dom models an application document as an immutable tree of typed
// nodes, with pure mutations and derived navigation indexes.
package dom

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"github.com/cespare/xxhash/v2"
)

// RootName is the name given to the application root of a new document.
const RootName = "Application"

// Revision identifies one snapshot. Every snapshot produced by a constructor
// or a mutation gets a fresh revision, unique within the process.
type Revision uint64

var lastRevision atomic.Uint64

func nextRevision() Revision {
	return Revision(lastRevision.Add(1))
}

// idHasher hashes node ids for the persistent node map.
type idHasher struct{}

func (idHasher) Hash(id NodeID) uint32 {
	return uint32(xxhash.Sum64String(string(id)))
}

func (idHasher) Equal(a, b NodeID) bool {
	return a == b
}

// Dom is an immutable snapshot of an application document: a single-rooted
// tree of nodes keyed by id. Mutations return new snapshots that share all
// untouched nodes with their input; a snapshot never changes once built.
type Dom struct {
	nodes *immutable.Map[NodeID, *Node]
	root  NodeID
	rev   Revision

	// cache is the index cache of the session the snapshot is bound to, if
	// any. Unbound snapshots rebuild their index on demand.
	cache *indexCache
}

// CreateDom returns a document holding only an application root.
func CreateDom() *Dom {
	root := &Node{
		ID:         NewNodeID(),
		Kind:       KindApplication,
		Name:       RootName,
		Attributes: ApplicationAttributes{},
	}
	m := immutable.NewMap[NodeID, *Node](idHasher{})
	return &Dom{
		nodes: m.Set(root.ID, root),
		root:  root.ID,
		rev:   nextRevision(),
	}
}

// FromNodes assembles a snapshot from a flat node list, as read back from
// persistence, and validates it.
func FromNodes(root NodeID, nodes []*Node) (*Dom, error) {
	b := immutable.NewMapBuilder[NodeID, *Node](idHasher{})
	for _, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("nil node in node list")
		}
		if _, dup := b.Get(n.ID); dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		b.Set(n.ID, n)
	}
	d := &Dom{nodes: b.Map(), root: root, rev: nextRevision()}
	if errs := Validate(d); len(errs) > 0 {
		return nil, errs[0]
	}
	return d, nil
}

// Root returns the id of the application root.
func (d *Dom) Root() NodeID { return d.root }

// Revision returns the snapshot revision.
func (d *Dom) Revision() Revision { return d.rev }

// Len returns the number of nodes in the snapshot.
func (d *Dom) Len() int { return d.nodes.Len() }

// Lookup returns the node with the given id, if present.
func (d *Dom) Lookup(id NodeID) (*Node, bool) {
	return d.nodes.Get(id)
}

// Get returns the node with the given id or ErrNotFound.
func (d *Dom) Get(id NodeID) (*Node, error) {
	n, ok := d.nodes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return n, nil
}

// GetAs returns the node with the given id, requiring it to be of kind k.
func (d *Dom) GetAs(id NodeID, k Kind) (*Node, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, err
	}
	if n.Kind != k {
		return nil, fmt.Errorf("%w: %q is a %s, not a %s", ErrTypeMismatch, id, n.Kind, k)
	}
	return n, nil
}

// LookupAs is the non-failing form of GetAs for absence. A present node of
// another kind is still an error.
func (d *Dom) LookupAs(id NodeID, k Kind) (*Node, bool, error) {
	n, ok := d.nodes.Get(id)
	if !ok {
		return nil, false, nil
	}
	if n.Kind != k {
		return nil, false, fmt.Errorf("%w: %q is a %s, not a %s", ErrTypeMismatch, id, n.Kind, k)
	}
	return n, true, nil
}

// Nodes returns every node ordered by id.
func (d *Dom) Nodes() []*Node {
	out := make([]*Node, 0, d.nodes.Len())
	itr := d.nodes.Iterator()
	for !itr.Done() {
		_, n, _ := itr.Next()
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// App returns the application root.
func App(d *Dom) (*Node, error) {
	return d.GetAs(d.root, KindApplication)
}

// derive returns a new snapshot over m, bound to the same session as d.
func (d *Dom) derive(m *immutable.Map[NodeID, *Node]) *Dom {
	return &Dom{nodes: m, root: d.root, rev: nextRevision(), cache: d.cache}
}

func (d *Dom) put(n *Node) *Dom {
	return d.derive(d.nodes.Set(n.ID, n))
}
