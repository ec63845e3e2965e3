package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnboxNonConstant is returned when a bindable value is read as a
// constant while it holds an expression or a secret.
var ErrUnboxNonConstant = errors.New("trying to unbox a non-constant value")

// BindingKind tags the variant held by a BindableValue.
type BindingKind int

const (
	// BindingConst holds a literal value.
	BindingConst BindingKind = iota + 1
	// BindingSecret holds a literal value that must never reach a client.
	BindingSecret
	// BindingExpression holds source text resolved by an external evaluator.
	BindingExpression
)

func (k BindingKind) String() string {
	switch k {
	case BindingConst:
		return "const"
	case BindingSecret:
		return "secret"
	case BindingExpression:
		return "expression"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// ParseBindingKind is the inverse of BindingKind.String.
func ParseBindingKind(s string) (BindingKind, error) {
	switch s {
	case "const":
		return BindingConst, nil
	case "secret":
		return BindingSecret, nil
	case "expression":
		return BindingExpression, nil
	default:
		return 0, fmt.Errorf("unknown binding kind %q", s)
	}
}

// BindableValue is an attribute value as exchanged with the expression
// evaluator and with persistence. On the wire it is one of:
//
//	{"kind": "const", "value": ...}
//	{"kind": "secret", "value": ...}
//	{"kind": "expression", "source": "..."}
type BindableValue struct {
	// Kind selects the variant.
	Kind BindingKind
	// Value is set for const and secret bindings.
	Value any
	// Source is set for expression bindings.
	Source string
}

// BindableValues is a namespace of bindable values keyed by property name.
type BindableValues map[string]*BindableValue

// Const wraps a literal.
func Const(v any) *BindableValue {
	return &BindableValue{Kind: BindingConst, Value: v}
}

// Secret wraps a literal that is excluded from client-safe projections.
func Secret(v any) *BindableValue {
	return &BindableValue{Kind: BindingSecret, Value: v}
}

// Expression wraps unevaluated source text.
func Expression(source string) *BindableValue {
	return &BindableValue{Kind: BindingExpression, Source: source}
}

// IsSecret reports whether b carries a secret. A nil value is not secret.
func (b *BindableValue) IsSecret() bool {
	return b != nil && b.Kind == BindingSecret
}

// Unbox returns the literal held by a const binding. A nil binding unboxes
// to nil.
func (b *BindableValue) Unbox() (any, error) {
	if b == nil {
		return nil, nil
	}
	if b.Kind != BindingConst {
		return nil, fmt.Errorf("%w: holds %s", ErrUnboxNonConstant, b.Kind)
	}
	return b.Value, nil
}

// FromConst unboxes a const binding into T. A nil binding yields the zero T.
func FromConst[T any](b *BindableValue) (T, error) {
	var zero T
	v, err := b.Unbox()
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("const value is %T, want %T", v, zero)
	}
	return t, nil
}

// FromConstValues unboxes every binding of a namespace.
func FromConstValues(values BindableValues) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, b := range values {
		if b == nil {
			continue
		}
		v, err := b.Unbox()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Clone returns a shallow copy of the namespace. Nil stays nil.
func (v BindableValues) Clone() BindableValues {
	if v == nil {
		return nil
	}
	out := make(BindableValues, len(v))
	for k, b := range v {
		out[k] = b
	}
	return out
}

type bindableJSON struct {
	Kind   string `json:"kind"`
	Value  any    `json:"value,omitempty"`
	Source string `json:"source,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (b BindableValue) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BindingConst, BindingSecret:
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Value any    `json:"value"`
		}{b.Kind.String(), b.Value})
	case BindingExpression:
		return json.Marshal(bindableJSON{Kind: b.Kind.String(), Source: b.Source})
	default:
		return nil, fmt.Errorf("marshal bindable value: unknown kind %d", int(b.Kind))
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BindableValue) UnmarshalJSON(data []byte) error {
	var raw bindableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseBindingKind(raw.Kind)
	if err != nil {
		return err
	}
	*b = BindableValue{Kind: kind}
	if kind == BindingExpression {
		b.Source = raw.Source
	} else {
		b.Value = raw.Value
	}
	return nil
}
