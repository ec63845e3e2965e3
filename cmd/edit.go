package cmd

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/hiramhuang/mui-toolpad/internal/fracindex"
)

// parseLiteral reads s as JSON, falling back to the plain string.
func parseLiteral(s string) any {
	v, err := oj.ParseString(s)
	if err != nil {
		return s
	}
	return v
}

// parseAssignment splits "namespace.key=value".
func parseAssignment(s string) (namespace, key, value string, err error) {
	lhs, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", "", fmt.Errorf("expected namespace.key=value, got %q", s)
	}
	namespace, key, ok = strings.Cut(lhs, ".")
	if !ok || namespace == "" || key == "" {
		return "", "", "", fmt.Errorf("expected namespace.key=value, got %q", s)
	}
	return namespace, key, value, nil
}

// defaultNamespace picks the first namespace of parent that accepts kind.
func defaultNamespace(parent dom.Kind, kind dom.Kind) (string, error) {
	for _, ns := range dom.ChildNamespaces(parent) {
		if dom.AllowsChild(parent, ns, kind) {
			return ns, nil
		}
	}
	if dom.AllowsChild(parent, "children", kind) {
		return "children", nil
	}
	return "", fmt.Errorf("%w: %s takes no %s children", dom.ErrInvalidChild, parent, kind)
}

// position computes the index for a node placed relative to a sibling.
// moving is excluded from the bucket so a node can be moved next to its
// current neighbours.
func position(d *dom.Dom, parent dom.NodeID, namespace string, moving dom.NodeID, before, after string) (fracindex.Key, error) {
	if before == "" && after == "" {
		return "", nil
	}
	ref := before
	if ref == "" {
		ref = after
	}
	target, err := dom.Resolve(d, ref)
	if err != nil {
		return "", err
	}
	if target.ParentID != parent || target.ParentProp != namespace {
		return "", fmt.Errorf("%s is not in %s.%s", target.Name, parent, namespace)
	}

	var bucket []*dom.Node
	for _, s := range dom.ChildrenOf(d, parent)[namespace] {
		if s.ID != moving {
			bucket = append(bucket, s)
		}
	}
	for i, s := range bucket {
		if s.ID != target.ID {
			continue
		}
		if before != "" {
			var lo fracindex.Key
			if i > 0 {
				lo = bucket[i-1].ParentIndex
			}
			return fracindex.Between(lo, s.ParentIndex)
		}
		var hi fracindex.Key
		if i+1 < len(bucket) {
			hi = bucket[i+1].ParentIndex
		}
		return fracindex.Between(s.ParentIndex, hi)
	}
	return "", fmt.Errorf("%s cannot be placed relative to itself", target.Name)
}

func newAddCmd(o *options) *cobra.Command {
	var (
		namespace string
		name      string
		component string
		before    string
		after     string
		sets      []string
	)
	cmd := &cobra.Command{
		Use:   "add <kind> <parent>",
		Short: "Create a node and attach it under parent",
		Long: `Create a node of the given kind and attach it under parent (an id or a
name). Kinds: connection, theme, page, element, codeComponent, query.

  toolpad add page Application --name Orders
  toolpad add element Orders --component Button --set props.label='"Buy"'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := dom.ParseKind(args[0])
			if err != nil {
				return err
			}
			if kind == dom.KindApplication {
				return fmt.Errorf("a document has exactly one application node")
			}
			if kind == dom.KindElement && component == "" {
				return fmt.Errorf("elements need --component")
			}

			var created *dom.Node
			_, err = o.edit(cmd, func(d *dom.Dom) (*dom.Dom, error) {
				parent, err := dom.Resolve(d, args[1])
				if err != nil {
					return nil, err
				}
				ns := namespace
				if ns == "" {
					if ns, err = defaultNamespace(parent.Kind, kind); err != nil {
						return nil, err
					}
				}

				var n *dom.Node
				if kind == dom.KindElement {
					n, err = dom.CreateElement(d, component, nil, name)
				} else {
					n, err = dom.Create(d, kind, dom.Init{Name: name})
				}
				if err != nil {
					return nil, err
				}
				index, err := position(d, parent.ID, ns, n.ID, before, after)
				if err != nil {
					return nil, err
				}
				if d, err = dom.Attach(d, n, parent.ID, ns, index); err != nil {
					return nil, err
				}
				for _, s := range sets {
					space, key, value, err := parseAssignment(s)
					if err != nil {
						return nil, err
					}
					if d, err = dom.SetNamespacedProperty(d, n.ID, space, key, api.Const(parseLiteral(value))); err != nil {
						return nil, err
					}
				}
				created, err = d.Get(n.ID)
				return d, err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", created.Kind, created.Name, created.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&namespace, "namespace", "n", "", "Child namespace under parent (default: the first that accepts the kind)")
	f.StringVar(&name, "name", "", "Name candidate; made unique in the document")
	f.StringVar(&component, "component", "", "Component of an element")
	f.StringVar(&before, "before", "", "Place before this sibling")
	f.StringVar(&after, "after", "", "Place after this sibling")
	f.StringArrayVar(&sets, "set", nil, "Set a const property, namespace.key=value (value read as JSON when it parses)")
	cmd.MarkFlagsMutuallyExclusive("before", "after")
	return cmd
}

func newMoveCmd(o *options) *cobra.Command {
	var (
		namespace string
		before    string
		after     string
	)
	cmd := &cobra.Command{
		Use:   "mv <node> <parent>",
		Short: "Move a node under another parent or within its bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var moved *dom.Node
			_, err := o.edit(cmd, func(d *dom.Dom) (*dom.Dom, error) {
				n, err := dom.Resolve(d, args[0])
				if err != nil {
					return nil, err
				}
				parent, err := dom.Resolve(d, args[1])
				if err != nil {
					return nil, err
				}
				ns := namespace
				if ns == "" {
					if n.ParentID == parent.ID {
						ns = n.ParentProp
					} else if ns, err = defaultNamespace(parent.Kind, n.Kind); err != nil {
						return nil, err
					}
				}
				index, err := position(d, parent.ID, ns, n.ID, before, after)
				if err != nil {
					return nil, err
				}
				if d, err = dom.Move(d, n.ID, parent.ID, ns, index); err != nil {
					return nil, err
				}
				moved, err = d.Get(n.ID)
				return d, err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s.%s at %s\n", moved.Name, moved.ParentID, moved.ParentProp, moved.ParentIndex)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&namespace, "namespace", "n", "", "Child namespace under parent")
	f.StringVar(&before, "before", "", "Place before this sibling")
	f.StringVar(&after, "after", "", "Place after this sibling")
	cmd.MarkFlagsMutuallyExclusive("before", "after")
	return cmd
}

func newRemoveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <node>",
		Short: "Remove a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int
			_, err := o.edit(cmd, func(d *dom.Dom) (*dom.Dom, error) {
				n, err := dom.Resolve(d, args[0])
				if err != nil {
					return nil, err
				}
				next, err := dom.Remove(d, n.ID)
				if err != nil {
					return nil, err
				}
				removed = d.Len() - next.Len()
				return next, nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d node(s)\n", removed)
			return nil
		},
	}
}

func newRenameCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <node> <name>",
		Short: "Rename a node; the name is slugified and made unique",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var renamed *dom.Node
			_, err := o.edit(cmd, func(d *dom.Dom) (*dom.Dom, error) {
				n, err := dom.Resolve(d, args[0])
				if err != nil {
					return nil, err
				}
				if d, err = dom.Rename(d, n.ID, args[1]); err != nil {
					return nil, err
				}
				renamed, err = d.Get(n.ID)
				return d, err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", renamed.ID, renamed.Name)
			return nil
		},
	}
}

func newSetCmd(o *options) *cobra.Command {
	var (
		expression bool
		secret     bool
		unset      bool
	)
	cmd := &cobra.Command{
		Use:   "set <node> <namespace.key> [value]",
		Short: "Set or clear one bindable property of a node",
		Long: `Set one property in a bindable namespace (attributes, props, params or
theme). The value is stored as a constant and read as JSON when it parses;
--expr stores it as expression source and --secret as a secret.

  toolpad set Button1 props.label '"Checkout"'
  toolpad set Button1 props.disabled --expr 'cart.items.length === 0'
  toolpad set Button1 props.label --unset`,
		Args: func(cmd *cobra.Command, args []string) error {
			if unset {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, key, ok := strings.Cut(args[1], ".")
			if !ok || ns == "" || key == "" {
				return fmt.Errorf("expected namespace.key, got %q", args[1])
			}
			var v *api.BindableValue
			switch {
			case unset:
			case expression:
				v = api.Expression(args[2])
			case secret:
				v = api.Secret(parseLiteral(args[2]))
			default:
				v = api.Const(parseLiteral(args[2]))
			}

			_, err := o.edit(cmd, func(d *dom.Dom) (*dom.Dom, error) {
				n, err := dom.Resolve(d, args[0])
				if err != nil {
					return nil, err
				}
				return dom.SetNamespacedProperty(d, n.ID, ns, key, v)
			})
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s on %s\n", args[1], args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s on %s (%s)\n", args[1], args[0], v.Kind)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&expression, "expr", false, "Store the value as expression source")
	f.BoolVar(&secret, "secret", false, "Store the value as a secret")
	f.BoolVar(&unset, "unset", false, "Remove the property")
	cmd.MarkFlagsMutuallyExclusive("expr", "secret", "unset")
	return cmd
}
