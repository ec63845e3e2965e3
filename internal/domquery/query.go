// Package domquery evaluates JSONPath selectors over the serialized form of a
// document snapshot.
package domquery

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hiramhuang/mui-toolpad/internal/dom"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Document returns the generic JSON tree of d: {"root": id, "nodes": {...}}.
func Document(d *dom.Dom) (any, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return doc, nil
}

// Select returns every value the selector matches in the serialized d.
func Select(d *dom.Dom, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	doc, err := Document(d)
	if err != nil {
		return nil, err
	}
	return x.Get(doc), nil
}

// SelectNodes returns the nodes whose serialized objects the selector
// matches, ordered by id. Matches that are not node objects are skipped.
func SelectNodes(d *dom.Dom, selector string) ([]*dom.Node, error) {
	results, err := Select(d, selector)
	if err != nil {
		return nil, err
	}
	seen := make(map[dom.NodeID]bool)
	var out []*dom.Node
	for _, r := range results {
		n, ok := asNode(d, r)
		if !ok || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func asNode(d *dom.Dom, v any) (*dom.Node, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	id, ok := obj["id"].(string)
	if !ok {
		return nil, false
	}
	if _, isNode := obj["kind"].(string); !isNode {
		return nil, false
	}
	return d.Lookup(dom.NodeID(id))
}

// Values normalizes a match for display: objects keep their nesting, any
// other value is wrapped as {"value": v}.
func Values(match any) map[string]any {
	switch v := match.(type) {
	case map[string]any:
		return v
	default:
		return map[string]any{"value": v}
	}
}
