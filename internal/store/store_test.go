package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDom(t *testing.T) *dom.Dom {
	t.Helper()
	d := dom.CreateDom()
	page, err := dom.Create(d, dom.KindPage, dom.Init{Name: "Home"})
	require.NoError(t, err)
	d, err = dom.Attach(d, page, d.Root(), "pages", "")
	require.NoError(t, err)
	btn, err := dom.CreateElement(d, "Button", api.BindableValues{"label": api.Expression("page.title")}, "")
	require.NoError(t, err)
	d, err = dom.Attach(d, btn, page.ID, "children", "")
	require.NoError(t, err)
	conn, err := dom.Create(d, dom.KindConnection, dom.Init{
		Attributes: dom.ConnectionAttributes{Params: api.Secret(map[string]any{"apiKey": "k"})},
	})
	require.NoError(t, err)
	d, err = dom.Attach(d, conn, d.Root(), "connections", "")
	require.NoError(t, err)
	return d
}

func backends(t *testing.T) map[string]Store {
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"sqlite": sq,
		"file":   NewFileStore(memfs.New()),
	}
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := sampleDom(t)

			v, err := s.Save(ctx, "app", d, 0)
			require.NoError(t, err)
			assert.Equal(t, Version(1), v)

			back, v, err := s.Load(ctx, "app")
			require.NoError(t, err)
			assert.Equal(t, Version(1), v)
			assert.Equal(t, d.Root(), back.Root())
			require.Equal(t, d.Len(), back.Len())
			for _, n := range d.Nodes() {
				got, err := back.Get(n.ID)
				require.NoError(t, err)
				assert.Equal(t, n, got)
			}
			assert.Empty(t, dom.Validate(back))
		})
	}
}

func TestStore_VersionConflict(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := sampleDom(t)
			_, err := s.Save(ctx, "app", d, 0)
			require.NoError(t, err)

			// a second writer that loaded before the first save
			_, err = s.Save(ctx, "app", d, 0)
			assert.ErrorIs(t, err, ErrVersionConflict)

			back, v, err := s.Load(ctx, "app")
			require.NoError(t, err)
			next, err := dom.Rename(back, back.Root(), "Shop")
			require.NoError(t, err)
			v2, err := s.Save(ctx, "app", next, v)
			require.NoError(t, err)
			assert.Equal(t, v+1, v2)

			_, err = s.Save(ctx, "app", d, v)
			assert.ErrorIs(t, err, ErrVersionConflict)
		})
	}
}

func TestStore_ListDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(ctx, "beta", sampleDom(t), 0)
			require.NoError(t, err)
			_, err = s.Save(ctx, "alpha", sampleDom(t), 0)
			require.NoError(t, err)

			docs, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha", "beta"}, docs)

			require.NoError(t, s.Delete(ctx, "alpha"))
			docs, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"beta"}, docs)

			assert.ErrorIs(t, s.Delete(ctx, "alpha"), ErrNotFound)
			_, _, err = s.Load(ctx, "alpha")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_InvalidDocID(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Load(ctx, "../etc/passwd")
			assert.ErrorIs(t, err, ErrInvalidDocID)
			_, err = s.Save(ctx, "", sampleDom(t), 0)
			assert.ErrorIs(t, err, ErrInvalidDocID)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("sqlite", filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open("file", filepath.Join(dir, "docs"))
	require.NoError(t, err)
	_, err = s.Save(context.Background(), "app", sampleDom(t), 0)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "docs", "app.json"))

	_, err = Open("redis", dir)
	assert.Error(t, err)
}

func TestSnapshotExportImport(t *testing.T) {
	fs := memfs.New()
	d := sampleDom(t)

	require.NoError(t, ExportSnapshot(fs, "snap.json", d))
	back, err := ImportSnapshot(fs, "snap.json")
	require.NoError(t, err)
	assert.Equal(t, d.Len(), back.Len())

	_, err = fs.Stat("snap.json.tmp")
	assert.Error(t, err, "temp file is renamed away")

	_, err = ImportSnapshot(fs, "missing.json")
	assert.Error(t, err)
}
