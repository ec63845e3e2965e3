package dom

import (
	"fmt"
	"sort"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/fracindex"
	"github.com/oklog/ulid/v2"
)

// NodeID identifies a node within a document. The empty id is the null id.
type NodeID string

// NewNodeID returns a fresh, lexically sortable id.
func NewNodeID() NodeID {
	return NodeID(ulid.Make().String())
}

// Node is the universal document primitive. Nodes held by a Dom are shared
// between snapshots and must be treated as read-only; mutations copy them.
type Node struct {
	ID   NodeID
	Kind Kind
	Name string // unique within the document

	// Parent linkage. All three are empty for the root and for nodes created
	// but not yet attached; all three are set otherwise.
	ParentID    NodeID
	ParentProp  string
	ParentIndex fracindex.Key

	Attributes Attributes
	Props      api.BindableValues // element only
	Params     api.BindableValues // query only
	Theme      api.BindableValues // theme only
}

// IsAttached reports whether n has a parent.
func (n *Node) IsAttached() bool {
	return n.ParentID != ""
}

// Namespace returns the bindable values stored under ns. The returned map
// must not be modified.
func (n *Node) Namespace(ns string) (api.BindableValues, error) {
	if !hasBindableNamespace(n.Kind, ns) {
		return nil, fmt.Errorf("%w: %s has no namespace %q", ErrUnknownProperty, n.Kind, ns)
	}
	switch ns {
	case NamespaceAttributes:
		if n.Attributes == nil {
			return api.BindableValues{}, nil
		}
		return n.Attributes.Values(), nil
	case NamespaceProps:
		return n.Props, nil
	case NamespaceParams:
		return n.Params, nil
	default:
		return n.Theme, nil
	}
}

func (n *Node) setNamespace(ns string, values api.BindableValues) {
	switch ns {
	case NamespaceProps:
		n.Props = values
	case NamespaceParams:
		n.Params = values
	case NamespaceTheme:
		n.Theme = values
	}
}

// Binding is one bindable value of a node, addressed by namespace and
// property name.
type Binding struct {
	Namespace string
	Property  string
	Value     *api.BindableValue
}

// Bindings returns every non-nil bindable value of n, ordered by namespace
// then property.
func (n *Node) Bindings() []Binding {
	var out []Binding
	for _, ns := range BindableNamespaces(n.Kind) {
		values, err := n.Namespace(ns)
		if err != nil {
			continue
		}
		keys := make([]string, 0, len(values))
		for k, v := range values {
			if v != nil {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, Binding{Namespace: ns, Property: k, Value: values[k]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Namespace < out[j].Namespace })
	return out
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

// checkContent verifies that n only carries namespaces and attributes its
// kind declares, and no secrets unless its kind stays server side.
func (n *Node) checkContent() error {
	if n.Attributes == nil {
		return fmt.Errorf("%w: %s %q has no attributes", ErrUnknownProperty, n.Kind, n.ID)
	}
	if n.Attributes.Kind() != n.Kind {
		return fmt.Errorf("%w: %s attributes on %s node %q",
			ErrTypeMismatch, n.Attributes.Kind(), n.Kind, n.ID)
	}
	for ns, values := range map[string]api.BindableValues{
		NamespaceProps:  n.Props,
		NamespaceParams: n.Params,
		NamespaceTheme:  n.Theme,
	} {
		if len(values) > 0 && !hasBindableNamespace(n.Kind, ns) {
			return fmt.Errorf("%w: %s has no namespace %q", ErrUnknownProperty, n.Kind, ns)
		}
	}
	if !Renderable(n.Kind) {
		return nil
	}
	for _, b := range n.Bindings() {
		if b.Value.IsSecret() {
			return fmt.Errorf("%w: %s.%s.%s", ErrSecretNotAllowed, n.ID, b.Namespace, b.Property)
		}
	}
	return nil
}
