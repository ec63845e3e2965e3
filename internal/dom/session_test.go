package dom

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Apply(t *testing.T) {
	s, err := NewSession(4)
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Current())
	d := s.New()
	assert.Same(t, d, s.Current())

	page, err := Create(d, KindPage, Init{Name: "Home"})
	require.NoError(t, err)
	next, err := s.Apply(func(d *Dom) (*Dom, error) {
		return Attach(d, page, d.Root(), "pages", "")
	})
	require.NoError(t, err)
	assert.Same(t, next, s.Current())
	assert.Len(t, ChildrenOf(next, next.Root())["pages"], 1)
	assert.Equal(t, 2, s.CachedRevisions())

	// a failed step keeps the current snapshot
	kept, err := s.Apply(func(d *Dom) (*Dom, error) {
		return Remove(d, d.Root())
	})
	assert.ErrorIs(t, err, ErrRootRemoval)
	assert.Same(t, next, kept)
	assert.Same(t, next, s.Current())
}

func TestSession_ApplyWithoutDocument(t *testing.T) {
	s, err := NewSession(0)
	require.NoError(t, err)
	_, err = s.Apply(func(d *Dom) (*Dom, error) { return d, nil })
	assert.Error(t, err)
}

func TestSession_CacheIsBounded(t *testing.T) {
	s, err := NewSession(4)
	require.NoError(t, err)

	d := s.New()
	for i := 0; i < 10; i++ {
		page, err := Create(d, KindPage, Init{})
		require.NoError(t, err)
		d, err = Attach(d, page, d.Root(), "pages", "")
		require.NoError(t, err)
		ChildrenOf(d, d.Root())
	}
	assert.LessOrEqual(t, s.CachedRevisions(), 4)
	assert.Len(t, ChildrenOf(d, d.Root())["pages"], 10)

	s.Close()
	assert.Zero(t, s.CachedRevisions())
	// snapshots outlive the cache
	assert.Len(t, ChildrenOf(d, d.Root())["pages"], 10)
}

func TestSession_Bind(t *testing.T) {
	s, err := NewSession(8)
	require.NoError(t, err)

	free := CreateDom()
	bound := s.Bind(free)
	assert.Equal(t, free.Revision(), bound.Revision())
	assert.Equal(t, free.Root(), bound.Root())
	assert.Same(t, bound, s.Bind(bound))

	// derived snapshots stay bound
	page, err := Create(bound, KindPage, Init{})
	require.NoError(t, err)
	next, err := Attach(bound, page, bound.Root(), "pages", "")
	require.NoError(t, err)
	ChildrenOf(next, next.Root())
	assert.Equal(t, 2, s.CachedRevisions())

	s.Swap(free)
	assert.Equal(t, free.Revision(), s.Current().Revision())
}

func TestSession_ConcurrentReaders(t *testing.T) {
	s, err := NewSession(8)
	require.NoError(t, err)
	f := newFixture(t)
	d := s.Bind(f.d)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, NodesOfKind(d, KindElement), 4)
			assert.Len(t, ChildrenOf(d, f.page.ID)["children"], 3)
			_, ok := NodeIDByName(d, "Text1")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.CachedRevisions())
}
