package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/hiramhuang/mui-toolpad/internal/domquery"
	"github.com/hiramhuang/mui-toolpad/internal/lint"
)

func label(n *dom.Node) string {
	if n.Kind == dom.KindElement {
		if c, err := n.Attributes.Get("component").Unbox(); err == nil && c != nil {
			return fmt.Sprintf("%s (%v)", n.Name, c)
		}
	}
	return fmt.Sprintf("%s (%s)", n.Name, n.Kind)
}

// renderTree draws the hierarchy under n with one branch per namespace.
func renderTree(d *dom.Dom, n *dom.Node, showIDs bool) gotree.Tree {
	text := label(n)
	if showIDs {
		text += " " + string(n.ID)
	}
	t := gotree.New(text)
	addChildren(d, t, n, showIDs)
	return t
}

func addChildren(d *dom.Dom, t gotree.Tree, n *dom.Node, showIDs bool) {
	children := dom.ChildrenOf(d, n.ID)
	namespaces := make([]string, 0, len(children))
	for ns := range children {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	for _, ns := range namespaces {
		branch := t.Add(ns)
		for _, c := range children[ns] {
			text := label(c)
			if showIDs {
				text += " " + string(c.ID)
			}
			addChildren(d, branch.Add(text), c, showIDs)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTreeCmd(o *options) *cobra.Command {
	var (
		render  bool
		showIDs bool
	)
	cmd := &cobra.Command{
		Use:   "tree [node]",
		Short: "Print the document hierarchy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := o.load(cmd)
			if err != nil {
				return err
			}
			if render {
				d = dom.Project(d)
			}
			start, err := dom.App(d)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if start, err = dom.Resolve(d, args[0]); err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTree(d, start, showIDs).Print())
			return nil
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Show the render tree only")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
	return cmd
}

func newRenderCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the render tree as JSON",
		Long:  "Print the client-safe projection of the document: connections and their secrets are left out.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := o.load(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), dom.Project(d))
		},
	}
}

func newQueryCmd(o *options) *cobra.Command {
	var nodes bool
	cmd := &cobra.Command{
		Use:   "query <jsonpath>",
		Short: "Evaluate a JSONPath selector over the document",
		Long: `Evaluate a JSONPath selector over the serialized document
({"root": id, "nodes": {id: node}}).

  toolpad query "$.nodes[?(@.kind == 'page')].name"
  toolpad query --nodes "$.nodes[?(@.attributes.component.value == 'Button')]"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := o.load(cmd)
			if err != nil {
				return err
			}
			if !nodes {
				results, err := domquery.Select(d, args[0])
				if err != nil {
					return err
				}
				if results == nil {
					results = []any{}
				}
				return writeJSON(cmd.OutOrStdout(), results)
			}
			matched, err := domquery.SelectNodes(d, args[0])
			if err != nil {
				return err
			}
			for _, n := range matched {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", n.ID, n.Kind, n.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&nodes, "nodes", false, "List matched nodes instead of raw values")
	return cmd
}

func newLintCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Syntax-check expression bindings and code components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := o.load(cmd)
			if err != nil {
				return err
			}
			diags, err := lint.Lint(cmd.Context(), d)
			if err != nil {
				return err
			}
			errs := 0
			for _, dg := range diags {
				fmt.Fprintln(cmd.OutOrStdout(), dg.Error())
				if dg.Severity == lint.SeverityError {
					errs++
				}
			}
			if errs > 0 {
				return fmt.Errorf("lint: %d error(s)", errs)
			}
			if len(diags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No problems found")
			}
			return nil
		},
	}
}
