package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiramhuang/mui-toolpad/internal/config"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/hiramhuang/mui-toolpad/internal/store"
)

// project is a temp directory holding a project file and its store.
type project struct {
	t       *testing.T
	dir     string
	backend string
}

func newProject(t *testing.T, backend string) *project {
	t.Helper()
	p := &project{t: t, dir: t.TempDir(), backend: backend}
	out, err := p.run("init")
	require.NoError(t, err, out)
	return p
}

func (p *project) storePath() string {
	if p.backend == "file" {
		return filepath.Join(p.dir, "docs")
	}
	return filepath.Join(p.dir, "toolpad.db")
}

func (p *project) run(args ...string) (string, error) {
	p.t.Helper()
	args = append(args,
		"--config", filepath.Join(p.dir, config.DefaultFile),
		"--backend", p.backend,
		"--store", p.storePath(),
	)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (p *project) mustRun(args ...string) string {
	p.t.Helper()
	out, err := p.run(args...)
	require.NoError(p.t, err, out)
	return out
}

func (p *project) load() *dom.Dom {
	p.t.Helper()
	st, err := store.Open(p.backend, p.storePath())
	require.NoError(p.t, err)
	defer func() { _ = st.Close() }()
	d, _, err := st.Load(context.Background(), config.DefaultDocument)
	require.NoError(p.t, err)
	return d
}

func (p *project) node(d *dom.Dom, name string) *dom.Node {
	p.t.Helper()
	n, ok := dom.NodeByName(d, name)
	require.True(p.t, ok, "no node named %s", name)
	return n
}

func childNames(d *dom.Dom, parent dom.NodeID, ns string) []string {
	var out []string
	for _, c := range dom.ChildrenOf(d, parent)[ns] {
		out = append(out, c.Name)
	}
	return out
}

func TestInit(t *testing.T) {
	p := newProject(t, "sqlite")

	src, err := os.ReadFile(filepath.Join(p.dir, config.DefaultFile))
	require.NoError(t, err)
	cfg, err := config.Parse(config.DefaultFile, src)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)

	d := p.load()
	assert.Equal(t, 1, d.Len())

	_, err = p.run("init")
	assert.Error(t, err, "existing document is kept")

	p.mustRun("add", "page", "Application", "--name", "Home")
	p.mustRun("init", "--force")
	assert.Equal(t, 1, p.load().Len())
}

func TestEditCommands(t *testing.T) {
	for _, backend := range []string{"sqlite", "file"} {
		t.Run(backend, func(t *testing.T) {
			p := newProject(t, backend)

			p.mustRun("add", "page", "Application", "--name", "Orders")
			p.mustRun("add", "element", "Orders", "--component", "Button", "--set", `props.label="Buy"`)
			p.mustRun("add", "element", "Orders", "--component", "Text", "--before", "Button")
			p.mustRun("add", "query", "Orders", "--name", "orders")

			d := p.load()
			page := p.node(d, "Orders")
			assert.Equal(t, []string{"Text", "Button"}, childNames(d, page.ID, "children"))
			assert.Equal(t, []string{"orders"}, childNames(d, page.ID, "queries"))
			label, err := p.node(d, "Button").Props["label"].Unbox()
			require.NoError(t, err)
			assert.Equal(t, "Buy", label)

			p.mustRun("mv", "Text", "Orders", "--after", "Button")
			d = p.load()
			assert.Equal(t, []string{"Button", "Text"}, childNames(d, page.ID, "children"))

			p.mustRun("mv", "Text", "Button", "--namespace", "content")
			d = p.load()
			assert.Equal(t, []string{"Text"}, childNames(d, p.node(d, "Button").ID, "content"))

			p.mustRun("rename", "Button", "checkout button")
			p.node(p.load(), "checkoutButton")

			p.mustRun("set", "checkoutButton", "props.disabled", "--expr", "orders.data.length === 0")
			p.mustRun("set", "checkoutButton", "props.label", "--unset")
			d = p.load()
			btn := p.node(d, "checkoutButton")
			assert.NotContains(t, btn.Props, "label")
			assert.Equal(t, "orders.data.length === 0", btn.Props["disabled"].Source)

			out := p.mustRun("rm", "checkoutButton")
			assert.Contains(t, out, "Removed 2 node(s)")
			d = p.load()
			_, ok := dom.NodeByName(d, "Text")
			assert.False(t, ok, "subtree is removed with its root")
		})
	}
}

func TestEditErrors(t *testing.T) {
	p := newProject(t, "sqlite")
	p.mustRun("add", "page", "Application", "--name", "Home")

	for _, args := range [][]string{
		{"add", "element", "Home"},
		{"add", "application", "Application"},
		{"add", "page", "Home"},
		{"add", "widget", "Home"},
		{"add", "page", "Nowhere"},
		{"rm", "Application"},
		{"mv", "Application", "Home"},
		{"set", "Home", "props.title", `"x"`},
		{"set", "Home", "attributes.title", `"x"`, "--secret"},
		{"set", "Home", "title"},
	} {
		_, err := p.run(args...)
		assert.Error(t, err, "%v", args)
	}
	assert.Equal(t, 2, p.load().Len(), "failed edits are not saved")
}

func TestTreeAndRender(t *testing.T) {
	p := newProject(t, "sqlite")
	p.mustRun("add", "page", "Application", "--name", "Home")
	p.mustRun("add", "element", "Home", "--component", "Button")
	p.mustRun("add", "connection", "Application", "--name", "db")
	p.mustRun("set", "db", "attributes.params", `{"password":"hunter2"}`, "--secret")

	out := p.mustRun("tree")
	assert.Contains(t, out, "Application (application)")
	assert.Contains(t, out, "pages")
	assert.Contains(t, out, "Button (Button)")
	assert.Contains(t, out, "db (connection)")

	out = p.mustRun("tree", "--render")
	assert.NotContains(t, out, "db (connection)")

	out = p.mustRun("render")
	assert.NotContains(t, out, "hunter2")
	var rendered dom.Dom
	require.NoError(t, json.Unmarshal([]byte(out), &rendered))
	assert.Equal(t, 3, rendered.Len())
}

func TestQueryAndLint(t *testing.T) {
	p := newProject(t, "sqlite")
	p.mustRun("add", "page", "Application", "--name", "Home")
	p.mustRun("add", "element", "Home", "--component", "Button")
	p.mustRun("add", "element", "Home", "--component", "Text")

	out := p.mustRun("query", "$.nodes[?(@.kind == 'element')].name")
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.ElementsMatch(t, []string{"Button", "Text"}, names)

	out = p.mustRun("query", "--nodes", "$.nodes[?(@.attributes.component.value == 'Text')]")
	assert.Contains(t, out, "\telement\tText")

	_, err := p.run("query", "$.nodes[?(")
	assert.Error(t, err)

	out = p.mustRun("lint")
	assert.Contains(t, out, "No problems found")

	p.mustRun("set", "Button", "props.onClick", "--expr", "a +")
	out, err = p.run("lint")
	assert.Error(t, err)
	assert.Contains(t, out, "props.onClick")
}

func TestExportImport(t *testing.T) {
	src := newProject(t, "sqlite")
	src.mustRun("add", "page", "Application", "--name", "Home")
	src.mustRun("add", "element", "Home", "--component", "Button")

	file := filepath.Join(t.TempDir(), "snapshot.json")
	src.mustRun("export", file)

	dst := newProject(t, "file")
	out := dst.mustRun("import", file)
	assert.Contains(t, out, "Imported 3 nodes")

	want, got := src.load(), dst.load()
	assert.Equal(t, want.Root(), got.Root())
	assert.Equal(t, want.Len(), got.Len())
	for _, n := range want.Nodes() {
		m, ok := got.Lookup(n.ID)
		require.True(t, ok)
		assert.Equal(t, n.Name, m.Name)
		assert.Equal(t, n.ParentIndex, m.ParentIndex)
	}

	require.NoError(t, os.WriteFile(file, []byte(`{"root":"x","nodes":{}}`), 0o644))
	_, err := dst.run("import", file)
	assert.Error(t, err)
}

func TestStoreSource(t *testing.T) {
	p := newProject(t, "sqlite")
	st, err := store.Open(p.backend, p.storePath())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	sess, err := dom.NewSession(4)
	require.NoError(t, err)
	src := storeSource(st, config.DefaultDocument, sess)

	ctx := context.Background()
	first, err := src(ctx)
	require.NoError(t, err)
	again, err := src(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again, "unchanged version keeps the snapshot")

	p.mustRun("add", "page", "Application", "--name", "Home")
	next, err := src(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Len())
}
