package dom

import (
	"fmt"
	"sort"
)

// Kind enumerates the node kinds of an application document.
type Kind int

const (
	KindApplication   Kind = iota + 1 // document root
	KindConnection                    // data source credentials
	KindTheme                         // theme overrides
	KindPage                          // routable page
	KindElement                       // component instance
	KindCodeComponent                 // user-authored component source
	KindQuery                         // data query bound to a page
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindApplication,
	KindConnection,
	KindTheme,
	KindPage,
	KindElement,
	KindCodeComponent,
	KindQuery,
}

func (k Kind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindConnection:
		return "connection"
	case KindTheme:
		return "theme"
	case KindPage:
		return "page"
	case KindElement:
		return "element"
	case KindCodeComponent:
		return "codeComponent"
	case KindQuery:
		return "query"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindApplication && k <= KindQuery
}

// ---------------------------------------------------------------------------
// Child namespaces
// ---------------------------------------------------------------------------

// anyNamespace matches every identifier-like namespace name.
const anyNamespace = "*"

// allowedChildren declares, per parent kind, the child namespaces it owns and
// the kinds each namespace accepts. Kinds absent here own no children.
var allowedChildren = map[Kind]map[string][]Kind{
	KindApplication: {
		"pages":          {KindPage},
		"connections":    {KindConnection},
		"themes":         {KindTheme},
		"codeComponents": {KindCodeComponent},
	},
	KindPage: {
		"children": {KindElement},
		"queries":  {KindQuery},
	},
	// elements accept nested elements under any slot prop
	KindElement: {
		anyNamespace: {KindElement},
	},
}

// ChildNamespaces returns the named child namespaces declared for k, sorted.
// Element nodes accept arbitrary slot names on top of these.
func ChildNamespaces(k Kind) []string {
	var out []string
	for ns := range allowedChildren[k] {
		if ns != anyNamespace {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}

// AllowsChild reports whether a node of kind child may sit under a parent of
// kind parent in the given namespace.
func AllowsChild(parent Kind, namespace string, child Kind) bool {
	rules := allowedChildren[parent]
	if rules == nil {
		return false
	}
	kinds, ok := rules[namespace]
	if !ok {
		if !isIdentifier(namespace) {
			return false
		}
		kinds = rules[anyNamespace]
	}
	for _, k := range kinds {
		if k == child {
			return true
		}
	}
	return false
}

func checkChild(parent *Node, namespace string, child Kind) error {
	if !AllowsChild(parent.Kind, namespace, child) {
		return fmt.Errorf("%w: %s can't be placed in %s %q under namespace %q",
			ErrInvalidChild, child, parent.Kind, parent.ID, namespace)
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Bindable namespaces
// ---------------------------------------------------------------------------

// Namespaces of bindable values a node may own.
const (
	NamespaceAttributes = "attributes"
	NamespaceProps      = "props"
	NamespaceParams     = "params"
	NamespaceTheme      = "theme"
)

// BindableNamespaces returns the bindable-value namespaces owned by kind k.
func BindableNamespaces(k Kind) []string {
	switch k {
	case KindElement:
		return []string{NamespaceAttributes, NamespaceProps}
	case KindQuery:
		return []string{NamespaceAttributes, NamespaceParams}
	case KindTheme:
		return []string{NamespaceAttributes, NamespaceTheme}
	case KindApplication, KindConnection, KindPage, KindCodeComponent:
		return []string{NamespaceAttributes}
	default:
		return nil
	}
}

func hasBindableNamespace(k Kind, namespace string) bool {
	for _, ns := range BindableNamespaces(k) {
		if ns == namespace {
			return true
		}
	}
	return false
}
