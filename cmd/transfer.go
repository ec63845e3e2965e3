package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/hiramhuang/mui-toolpad/internal/mcpserver"
	"github.com/hiramhuang/mui-toolpad/internal/store"
)

func newExportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.json>",
		Short: "Write the document to a JSON snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, version, err := o.load(cmd)
			if err != nil {
				return err
			}
			fs, name := snapshotFS(args[0])
			if err := store.ExportSnapshot(fs, name, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s v%d (%d nodes) to %s\n", o.cfg.Document, version, d.Len(), args[0])
			return nil
		},
	}
}

func newImportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Replace the document with a JSON snapshot file",
		Long:  "Validate a snapshot written by export and store it as the next version of the document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, name := snapshotFS(args[0])
			d, err := store.ImportSnapshot(fs, name)
			if err != nil {
				return err
			}

			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx := cmd.Context()
			_, base, err := st.Load(ctx, o.cfg.Document)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			version, err := st.Save(ctx, o.cfg.Document, d, base)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d nodes into %s v%d\n", d.Len(), o.cfg.Document, version)
			return nil
		},
	}
}

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only document tools over MCP on stdio",
		Long: `Serve the render tree of the document to MCP clients on stdin/stdout.
Every call reads the latest stored version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			sess, err := dom.NewSession(o.cfg.Session.CacheRevisions)
			if err != nil {
				return err
			}
			defer sess.Close()

			src := storeSource(st, o.cfg.Document, sess)
			if _, err := src(cmd.Context()); err != nil {
				return err
			}
			return mcpserver.New(src, Version).ServeStdio()
		},
	}
}

// storeSource reads doc on every call and keeps the session's snapshot while
// the stored version is unchanged, so its index stays cached.
func storeSource(st store.Store, doc string, sess *dom.Session) mcpserver.Source {
	var (
		mu   sync.Mutex
		last store.Version
	)
	return func(ctx context.Context) (*dom.Dom, error) {
		d, version, err := st.Load(ctx, doc)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		defer mu.Unlock()
		if cur := sess.Current(); cur != nil && version == last {
			return cur, nil
		}
		last = version
		sess.Swap(d)
		return sess.Current(), nil
	}
}

// snapshotFS splits path into a filesystem rooted at its directory and the
// file name within it.
func snapshotFS(path string) (billy.Filesystem, string) {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return osfs.New(dir), name
}
