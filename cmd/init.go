package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hiramhuang/mui-toolpad/internal/config"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/hiramhuang/mui-toolpad/internal/store"
)

func newInitCmd(o *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a project file and create an empty document",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve(cmd, true)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(o.configPath); err == nil && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Keeping existing %s\n", o.configPath)
			} else {
				if err := os.WriteFile(o.configPath, config.Encode(o.cfg), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", o.configPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", o.configPath)
			}

			st, err := o.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx := cmd.Context()
			_, version, err := st.Load(ctx, o.cfg.Document)
			switch {
			case err == nil && !force:
				return fmt.Errorf("document %s already exists at version %d (use --force to reset it)", o.cfg.Document, version)
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return err
			}

			d := dom.CreateDom()
			if _, err := st.Save(ctx, o.cfg.Document, d, version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created document %s (%s store at %s)\n",
				o.cfg.Document, o.cfg.Store.Backend, o.cfg.Store.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite the project file and reset the document")
	return cmd
}
