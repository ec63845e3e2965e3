package domquery

import (
	"testing"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDom(t *testing.T) (*dom.Dom, *dom.Node, []*dom.Node) {
	t.Helper()
	d := dom.CreateDom()
	page, err := dom.Create(d, dom.KindPage, dom.Init{Name: "Home"})
	require.NoError(t, err)
	d, err = dom.Attach(d, page, d.Root(), "pages", "")
	require.NoError(t, err)

	var elements []*dom.Node
	for _, c := range []string{"Button", "Text", "Button"} {
		el, err := dom.CreateElement(d, c, api.BindableValues{"label": api.Const(c + " label")}, "")
		require.NoError(t, err)
		d, err = dom.Attach(d, el, page.ID, "children", "")
		require.NoError(t, err)
		stored, _ := d.Lookup(el.ID)
		elements = append(elements, stored)
	}
	return d, page, elements
}

func TestSelect(t *testing.T) {
	d, _, _ := buildDom(t)

	t.Run("names", func(t *testing.T) {
		names, err := Select(d, "$.nodes[*].name")
		require.NoError(t, err)
		assert.ElementsMatch(t, []any{"Application", "Home", "Button", "Text", "Button1"}, names)
	})

	t.Run("root id", func(t *testing.T) {
		root, err := Select(d, "$.root")
		require.NoError(t, err)
		assert.Equal(t, []any{string(d.Root())}, root)
	})

	t.Run("primitive values are wrapped", func(t *testing.T) {
		root, err := Select(d, "$.root")
		require.NoError(t, err)
		require.Len(t, root, 1)
		assert.Equal(t, map[string]any{"value": string(d.Root())}, Values(root[0]))
	})

	t.Run("invalid selector", func(t *testing.T) {
		_, err := Select(d, "$.nodes[?(@.kind ==")
		assert.Error(t, err)
	})
}

func TestSelectNodes(t *testing.T) {
	d, page, elements := buildDom(t)

	got, err := SelectNodes(d, "$.nodes[?(@.kind == 'element')]")
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].ID, got[i].ID)
	}

	buttons, err := SelectNodes(d, "$.nodes[?(@.attributes.component.value == 'Button')]")
	require.NoError(t, err)
	require.Len(t, buttons, 2)
	assert.ElementsMatch(t, []dom.NodeID{elements[0].ID, elements[2].ID}, []dom.NodeID{buttons[0].ID, buttons[1].ID})

	children, err := SelectNodes(d, "$.nodes[?(@.parentId == '"+string(page.ID)+"')]")
	require.NoError(t, err)
	assert.Len(t, children, 3)

	// non-node matches are ignored
	none, err := SelectNodes(d, "$.nodes[*].name")
	require.NoError(t, err)
	assert.Empty(t, none)
}
