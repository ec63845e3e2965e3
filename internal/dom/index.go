package dom

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hiramhuang/mui-toolpad/internal/fracindex"
)

// Children groups the children of one parent by namespace. Every slice is
// sorted by parent index, ties broken by id. Callers must not modify it.
type Children map[string][]*Node

// index holds the structures derived from one snapshot. Each part is built
// once on first use; an index is safe for concurrent readers.
type index struct {
	d *Dom

	childrenOnce sync.Once
	children     map[NodeID]Children

	namesOnce sync.Once
	names     map[string]NodeID

	// Ordinals number nodes by ascending id so kind and visited sets can be
	// roaring bitmaps.
	ordinalsOnce sync.Once
	ordinals     map[NodeID]uint32
	byOrdinal    []*Node
	byKind       map[Kind]*roaring.Bitmap
}

func newIndex(d *Dom) *index {
	return &index{d: d}
}

func (idx *index) childMap() map[NodeID]Children {
	idx.childrenOnce.Do(func() {
		children := make(map[NodeID]Children)
		itr := idx.d.nodes.Iterator()
		for !itr.Done() {
			_, n, _ := itr.Next()
			if !n.IsAttached() {
				continue
			}
			c := children[n.ParentID]
			if c == nil {
				c = make(Children)
				children[n.ParentID] = c
			}
			c[n.ParentProp] = append(c[n.ParentProp], n)
		}
		for _, c := range children {
			for _, bucket := range c {
				sort.Slice(bucket, func(i, j int) bool {
					if cmp := fracindex.Compare(bucket[i].ParentIndex, bucket[j].ParentIndex); cmp != 0 {
						return cmp < 0
					}
					return bucket[i].ID < bucket[j].ID
				})
			}
		}
		idx.children = children
	})
	return idx.children
}

func (idx *index) childrenOf(id NodeID) Children {
	if c := idx.childMap()[id]; c != nil {
		return c
	}
	return Children{}
}

func (idx *index) nameMap() map[string]NodeID {
	idx.namesOnce.Do(func() {
		names := make(map[string]NodeID, idx.d.nodes.Len())
		itr := idx.d.nodes.Iterator()
		for !itr.Done() {
			id, n, _ := itr.Next()
			names[n.Name] = id
		}
		idx.names = names
	})
	return idx.names
}

func (idx *index) ordinalMap() {
	idx.ordinalsOnce.Do(func() {
		nodes := idx.d.Nodes()
		idx.byOrdinal = nodes
		idx.ordinals = make(map[NodeID]uint32, len(nodes))
		idx.byKind = make(map[Kind]*roaring.Bitmap)
		for i, n := range nodes {
			idx.ordinals[n.ID] = uint32(i)
			bm, ok := idx.byKind[n.Kind]
			if !ok {
				bm = roaring.New()
				idx.byKind[n.Kind] = bm
			}
			bm.Add(uint32(i))
		}
	})
}

func (idx *index) ordinal(id NodeID) (uint32, bool) {
	idx.ordinalMap()
	o, ok := idx.ordinals[id]
	return o, ok
}

func (idx *index) ofKind(k Kind) []*Node {
	idx.ordinalMap()
	bm, ok := idx.byKind[k]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, idx.byOrdinal[it.Next()])
	}
	return out
}

// indexCache maps snapshot revisions to their derived index.
type indexCache struct {
	entries *lru.Cache[Revision, *index]
}

func newIndexCache(size int) (*indexCache, error) {
	c, err := lru.New[Revision, *index](size)
	if err != nil {
		return nil, err
	}
	return &indexCache{entries: c}, nil
}

// indexOf returns the derived index of d, memoized per revision when d is
// bound to a session.
func indexOf(d *Dom) *index {
	if d.cache == nil {
		return newIndex(d)
	}
	if idx, ok := d.cache.entries.Get(d.rev); ok {
		return idx
	}
	idx := newIndex(d)
	d.cache.entries.Add(d.rev, idx)
	return idx
}
