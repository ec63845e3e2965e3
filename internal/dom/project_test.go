package dom

import (
	"testing"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_DropsConnections(t *testing.T) {
	f := newFixture(t)
	tree := Project(f.d)

	assert.Equal(t, f.d.Len()-1, tree.Len())
	assert.Equal(t, f.d.Root(), tree.Root())
	_, ok := tree.Lookup(f.conn.ID)
	assert.False(t, ok)
	assert.NotContains(t, ChildrenOf(tree, tree.Root()), "connections")
	assert.Empty(t, Validate(tree))

	// the input is untouched
	_, ok = f.d.Lookup(f.conn.ID)
	assert.True(t, ok)
}

func TestProject_SharesRenderableNodes(t *testing.T) {
	f := newFixture(t)
	tree := Project(f.d)

	for _, n := range f.d.Nodes() {
		if !Renderable(n.Kind) {
			continue
		}
		got, ok := tree.Lookup(n.ID)
		require.True(t, ok, "%s %s", n.Kind, n.Name)
		assert.Same(t, n, got)
	}
}

func TestProject_HasNoSecrets(t *testing.T) {
	f := newFixture(t)
	for _, n := range Project(f.d).Nodes() {
		for _, b := range n.Bindings() {
			assert.False(t, b.Value.IsSecret(), "%s.%s.%s", n.Name, b.Namespace, b.Property)
		}
	}
}

func TestProject_Idempotent(t *testing.T) {
	f := newFixture(t)
	d, err := SetNamespacedProperty(f.d, f.a.ID, NamespaceProps, "label", api.Const("Save"))
	require.NoError(t, err)

	once := Project(d)
	twice := Project(once)
	assert.Equal(t, ids(once.Nodes()), ids(twice.Nodes()))
}
