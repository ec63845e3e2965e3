package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
)

const docExt = ".json"

// FileStore keeps one JSON file per document on a billy filesystem. Version
// checks are serialized within the process only.
type FileStore struct {
	fs billy.Filesystem
	mu sync.Mutex
}

var _ Store = (*FileStore)(nil)

type fileRecord struct {
	Version  Version  `json:"version"`
	Document *dom.Dom `json:"document"`
}

// NewFileStore returns a store rooted at fs.
func NewFileStore(fs billy.Filesystem) *FileStore {
	return &FileStore{fs: fs}
}

// OpenDir returns a FileStore on the host directory dir, creating it.
func OpenDir(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return NewFileStore(osfs.New(dir)), nil
}

func (s *FileStore) read(doc string) (*fileRecord, error) {
	data, err := util.ReadFile(s.fs, doc+docExt)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", doc, err)
	}
	if rec.Document == nil {
		return nil, fmt.Errorf("decode %s: no document", doc)
	}
	return &rec, nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, doc string) (*dom.Dom, Version, error) {
	if err := checkDocID(doc); err != nil {
		return nil, 0, err
	}
	rec, err := s.read(doc)
	if err != nil {
		return nil, 0, err
	}
	return rec.Document, rec.Version, nil
}

// Save implements Store. The file is replaced through a rename so readers
// never see a partial write.
func (s *FileStore) Save(_ context.Context, doc string, d *dom.Dom, base Version) (Version, error) {
	if err := checkDocID(doc); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current Version
	rec, err := s.read(doc)
	switch {
	case err == nil:
		current = rec.Version
	case !errors.Is(err, ErrNotFound):
		return 0, err
	}
	if current != base {
		return 0, fmt.Errorf("%w: %s is at version %d, base is %d", ErrVersionConflict, doc, current, base)
	}

	next := base + 1
	data, err := json.Marshal(fileRecord{Version: next, Document: d})
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", doc, err)
	}
	if err := writeAtomic(s.fs, doc+docExt, data); err != nil {
		return 0, err
	}
	log.Printf("Store: saved %s v%d (%d nodes)", doc, next, d.Len())
	return next, nil
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	infos, err := s.fs.ReadDir("/")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var out []string
	for _, fi := range infos {
		name := fi.Name()
		if fi.IsDir() || !strings.HasSuffix(name, docExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, docExt))
	}
	sort.Strings(out)
	return out, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, doc string) error {
	if err := checkDocID(doc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.Remove(doc + docExt); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, doc)
		}
		return fmt.Errorf("delete %s: %w", doc, err)
	}
	log.Printf("Store: deleted %s", doc)
	return nil
}

// Close implements Store. Nothing is held open between calls.
func (s *FileStore) Close() error { return nil }

func writeAtomic(fs billy.Filesystem, name string, data []byte) error {
	tmp := name + ".tmp"
	if err := util.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, name); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// ExportSnapshot writes d as an indented JSON file.
func ExportSnapshot(fs billy.Filesystem, name string, d *dom.Dom) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeAtomic(fs, name, append(data, '\n'))
}

// ImportSnapshot reads and validates a snapshot written by ExportSnapshot.
func ImportSnapshot(fs billy.Filesystem, name string) (*dom.Dom, error) {
	data, err := util.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	d := new(dom.Dom)
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return d, nil
}
