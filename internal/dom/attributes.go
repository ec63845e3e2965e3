package dom

import (
	"fmt"
	"sort"

	"github.com/hiramhuang/mui-toolpad/api"
)

// Attributes is the kind-specific attribute record of a node. The set of
// implementations is closed: one struct per Kind.
type Attributes interface {
	// Kind returns the node kind this record belongs to.
	Kind() Kind
	// Get returns the value stored under key, or nil.
	Get(key string) *api.BindableValue
	// Values returns the non-nil values keyed by attribute name.
	Values() api.BindableValues

	// with returns a copy with key set to v (nil clears it).
	with(key string, v *api.BindableValue) (Attributes, error)
}

type field struct {
	name string
	ptr  **api.BindableValue
}

type fielder interface {
	fields() []field
}

func getField(f fielder, key string) *api.BindableValue {
	for _, fd := range f.fields() {
		if fd.name == key {
			return *fd.ptr
		}
	}
	return nil
}

func setField(f fielder, kind Kind, key string, v *api.BindableValue) error {
	for _, fd := range f.fields() {
		if fd.name == key {
			*fd.ptr = v
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no attribute %q", ErrUnknownProperty, kind, key)
}

func valuesOf(f fielder) api.BindableValues {
	out := make(api.BindableValues)
	for _, fd := range f.fields() {
		if *fd.ptr != nil {
			out[fd.name] = *fd.ptr
		}
	}
	return out
}

// AttributeKeys returns the attribute names declared for kind k, sorted.
func AttributeKeys(k Kind) []string {
	var keys []string
	switch a := newAttributes(k).(type) {
	case ApplicationAttributes:
		keys = names(&a)
	case ConnectionAttributes:
		keys = names(&a)
	case ThemeAttributes:
		keys = names(&a)
	case PageAttributes:
		keys = names(&a)
	case ElementAttributes:
		keys = names(&a)
	case CodeComponentAttributes:
		keys = names(&a)
	case QueryAttributes:
		keys = names(&a)
	}
	sort.Strings(keys)
	return keys
}

func names(f fielder) []string {
	var out []string
	for _, fd := range f.fields() {
		out = append(out, fd.name)
	}
	return out
}

// newAttributes returns the empty attribute record for k, or nil for an
// undeclared kind.
func newAttributes(k Kind) Attributes {
	switch k {
	case KindApplication:
		return ApplicationAttributes{}
	case KindConnection:
		return ConnectionAttributes{}
	case KindTheme:
		return ThemeAttributes{}
	case KindPage:
		return PageAttributes{}
	case KindElement:
		return ElementAttributes{}
	case KindCodeComponent:
		return CodeComponentAttributes{}
	case KindQuery:
		return QueryAttributes{}
	default:
		return nil
	}
}

// attributesFromValues builds the record for k from a namespace map.
func attributesFromValues(k Kind, values api.BindableValues) (Attributes, error) {
	attrs := newAttributes(k)
	if attrs == nil {
		return nil, fmt.Errorf("unknown node kind %s", k)
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var err error
		if attrs, err = attrs.with(key, values[key]); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// ---------------------------------------------------------------------------
// Application
// ---------------------------------------------------------------------------

// ApplicationAttributes belongs to the root node. It declares no attributes.
type ApplicationAttributes struct{}

func (ApplicationAttributes) Kind() Kind                     { return KindApplication }
func (*ApplicationAttributes) fields() []field               { return nil }
func (a ApplicationAttributes) Get(string) *api.BindableValue { return nil }
func (a ApplicationAttributes) Values() api.BindableValues    { return valuesOf(&a) }
func (a ApplicationAttributes) with(key string, v *api.BindableValue) (Attributes, error) {
	if err := setField(&a, KindApplication, key, v); err != nil {
		return nil, err
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Connection
// ---------------------------------------------------------------------------

// ConnectionAttributes configures a data source. Params usually holds a
// secret-wrapped value.
type ConnectionAttributes struct {
	DataSource *api.BindableValue
	Params     *api.BindableValue
	Status     *api.BindableValue
}

func (ConnectionAttributes) Kind() Kind { return KindConnection }

func (a *ConnectionAttributes) fields() []field {
	return []field{
		{"dataSource", &a.DataSource},
		{"params", &a.Params},
		{"status", &a.Status},
	}
}

func (a ConnectionAttributes) Get(key string) *api.BindableValue { return getField(&a, key) }
func (a ConnectionAttributes) Values() api.BindableValues        { return valuesOf(&a) }

func (a ConnectionAttributes) with(key string, v *api.BindableValue) (Attributes, error) {
	if err := setField(&a, KindConnection, key, v); err != nil {
		return nil, err
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Theme
// ---------------------------------------------------------------------------

// ThemeAttributes declares no attributes; theme values live in the theme
// namespace of the node.
type ThemeAttributes struct{}

func (ThemeAttributes) Kind() Kind                     { return KindTheme }
func (*ThemeAttributes) fields() []field               { return nil }
func (a ThemeAttributes) Get(string) *api.BindableValue { return nil }
func (a ThemeAttributes) Values() api.BindableValues    { return valuesOf(&a) }
func (a ThemeAttributes) with(key string, v *api.BindableValue) (Attributes, error) {
	if err := setField(&a, KindTheme, key, v); err != nil {
		return nil, err
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Page
// ---------------------------------------------------------------------------

// PageAttributes describes a page.
type PageAttributes struct {
	Title      *api.BindableValue
	Parameters *api.BindableValue // const [][2]string of URL query parameters
	Module     *api.BindableValue
}

func (PageAttributes) Kind() Kind { return KindPage }

func (a *PageAttributes) fields() []field {
	return []field{
		{"title", &a.Title},
		{"parameters", &a.Parameters},
		{"module", &a.Module},
	}
}

func (a PageAttributes) Get(key string) *api.BindableValue { return getField(&a, key) }
func (a PageAttributes) Values() api.BindableValues        { return valuesOf(&a) }

func (a PageAttributes) with(key string, v *api.BindableValue) (Attributes, error) {
	if err := setField(&a, KindPage, key, v); err != nil {
		return nil, err
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Element
// ---------------------------------------------------------------------------

// ElementAttributes names the component an element instantiates.
type ElementAttributes struct {
	Component *api.BindableValue
}

func (ElementAttributes) Kind() Kind { return KindElement }

func (a *ElementAttributes) fields() []field {
	return []field{{"component", &a.Component}}
}

func (a ElementAttributes) Get(key string) *api.BindableValue { return getField(&a, key) }
func (a ElementAttributes) Values() api.BindableValues        { return valuesOf(&a) }

func (a ElementAttributes) with(key string, v *api.BindableValue) (Attributes, error) {
	if err := setField(&a, KindElement, key, v); err != nil {
		return nil, err
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Code component
// ---------------------------------------------------------------------------

// CodeComponentAttributes holds the component source.
type CodeComponentAttributes struct {
	Code *api.BindableValue
}

func (CodeComponentAttributes) Kind() Kind { return KindCodeComponent }

func (a *CodeComponentAttributes) fields() []field {
	return []field{{"code", &a.Code}}
}

func (a CodeComponentAttributes) Get(key string) *api.BindableValue { return getField(&a, key) }
func (a CodeComponentAttributes) Values() api.BindableValues        { return valuesOf(&a) }

func (a CodeComponentAttributes) with(key string, v *api.BindableValue) (Attributes, error) {
	if err := setField(&a, KindCodeComponent, key, v); err != nil {
		return nil, err
	}
	return a, nil
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

// QueryAttributes configures a data query.
type QueryAttributes struct {
	DataSource           *api.BindableValue
	ConnectionID         *api.BindableValue // const NodeID of a connection node
	Query                *api.BindableValue
	Transform            *api.BindableValue
	TransformEnabled     *api.BindableValue
	RefetchOnWindowFocus *api.BindableValue
	RefetchOnReconnect   *api.BindableValue
	RefetchInterval      *api.BindableValue
}

func (QueryAttributes) Kind() Kind { return KindQuery }

func (a *QueryAttributes) fields() []field {
	return []field{
		{"dataSource", &a.DataSource},
		{"connectionId", &a.ConnectionID},
		{"query", &a.Query},
		{"transform", &a.Transform},
		{"transformEnabled", &a.TransformEnabled},
		{"refetchOnWindowFocus", &a.RefetchOnWindowFocus},
		{"refetchOnReconnect", &a.RefetchOnReconnect},
		{"refetchInterval", &a.RefetchInterval},
	}
}

func (a QueryAttributes) Get(key string) *api.BindableValue { return getField(&a, key) }
func (a QueryAttributes) Values() api.BindableValues        { return valuesOf(&a) }

func (a QueryAttributes) with(key string, v *api.BindableValue) (Attributes, error) {
	if err := setField(&a, KindQuery, key, v); err != nil {
		return nil, err
	}
	return a, nil
}
