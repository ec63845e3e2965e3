package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hiramhuang/mui-toolpad/internal/config"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/hiramhuang/mui-toolpad/internal/store"
)

// Version is reported by the MCP server.
var Version = "dev"

// options holds the persistent flags and the configuration they resolve to.
type options struct {
	configPath string
	backend    string
	storePath  string
	doc        string
	verbose    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "toolpad",
		Short:         "Toolpad: edit application documents from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve(cmd, false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", config.DefaultFile, "Path to the project file")
	pf.StringVar(&o.backend, "backend", "", "Store backend, sqlite or file (overrides the project file)")
	pf.StringVar(&o.storePath, "store", "", "Database file or document directory (overrides the project file)")
	pf.StringVarP(&o.doc, "doc", "d", "", "Document id (overrides the project file)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Log store and server activity to stderr")

	root.AddCommand(
		newInitCmd(o),
		newAddCmd(o),
		newMoveCmd(o),
		newRemoveCmd(o),
		newRenameCmd(o),
		newSetCmd(o),
		newTreeCmd(o),
		newRenderCmd(o),
		newQueryCmd(o),
		newLintCmd(o),
		newExportCmd(o),
		newImportCmd(o),
		newServeCmd(o),
	)
	return root
}

// resolve loads the project file and applies flag overrides. With
// allowMissing, a missing file yields the defaults.
func (o *options) resolve(cmd *cobra.Command, allowMissing bool) error {
	if o.verbose {
		log.SetOutput(cmd.ErrOrStderr())
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		if !allowMissing || !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = config.Default()
	}
	if o.backend != "" && o.backend != cfg.Store.Backend {
		// the configured path belongs to the other backend
		cfg.Store.Backend = o.backend
		cfg.Store.Path = config.DefaultDBPath
		if o.backend == "file" {
			cfg.Store.Path = config.DefaultDir
		}
	}
	if o.storePath != "" {
		cfg.Store.Path = o.storePath
	}
	if o.doc != "" {
		cfg.Document = o.doc
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func (o *options) openStore() (store.Store, error) {
	return store.Open(o.cfg.Store.Backend, o.cfg.Store.Path)
}

// load returns the configured document and its stored version.
func (o *options) load(cmd *cobra.Command) (*dom.Dom, store.Version, error) {
	st, err := o.openStore()
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = st.Close() }()
	return st.Load(cmd.Context(), o.cfg.Document)
}

// edit applies fn to the stored document inside a session and saves the
// result with the loaded version as base. A result with the loaded revision
// is not saved.
func (o *options) edit(cmd *cobra.Command, fn func(*dom.Dom) (*dom.Dom, error)) (*dom.Dom, error) {
	ctx := cmd.Context()
	st, err := o.openStore()
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	d, version, err := st.Load(ctx, o.cfg.Document)
	if err != nil {
		return nil, err
	}

	sess, err := dom.NewSession(o.cfg.Session.CacheRevisions)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	sess.Swap(d)

	next, err := sess.Apply(fn)
	if err != nil {
		return nil, err
	}
	if next.Revision() == d.Revision() {
		return next, nil
	}
	if _, err := st.Save(ctx, o.cfg.Document, next, version); err != nil {
		return nil, err
	}
	return next, nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
