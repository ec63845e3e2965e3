package dom

import (
	"encoding/json"
	"fmt"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/fracindex"
)

type nodeJSON struct {
	ID          NodeID             `json:"id"`
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	ParentID    *NodeID            `json:"parentId"`
	ParentProp  *string            `json:"parentProp"`
	ParentIndex *fracindex.Key     `json:"parentIndex"`
	Attributes  api.BindableValues `json:"attributes"`
	Props       api.BindableValues `json:"props,omitempty"`
	Params      api.BindableValues `json:"params,omitempty"`
	Theme       api.BindableValues `json:"theme,omitempty"`
}

// MarshalJSON encodes the node. Parent linkage fields are null when unset.
func (n Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		ID:         n.ID,
		Kind:       n.Kind.String(),
		Name:       n.Name,
		Attributes: api.BindableValues{},
		Props:      n.Props,
		Params:     n.Params,
		Theme:      n.Theme,
	}
	if n.Attributes != nil {
		out.Attributes = n.Attributes.Values()
	}
	if n.ParentID != "" {
		out.ParentID = &n.ParentID
	}
	if n.ParentProp != "" {
		out.ParentProp = &n.ParentProp
	}
	if n.ParentIndex != "" {
		out.ParentIndex = &n.ParentIndex
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a node, rejecting unknown kinds and attributes.
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}
	attrs, err := attributesFromValues(kind, in.Attributes)
	if err != nil {
		return fmt.Errorf("node %q: %w", in.ID, err)
	}
	*n = Node{
		ID:         in.ID,
		Kind:       kind,
		Name:       in.Name,
		Attributes: attrs,
		Props:      in.Props,
		Params:     in.Params,
		Theme:      in.Theme,
	}
	if in.ParentID != nil {
		n.ParentID = *in.ParentID
	}
	if in.ParentProp != nil {
		n.ParentProp = *in.ParentProp
	}
	if in.ParentIndex != nil {
		n.ParentIndex = *in.ParentIndex
	}
	return nil
}

type domJSON struct {
	Root  NodeID           `json:"root"`
	Nodes map[NodeID]*Node `json:"nodes"`
}

// MarshalJSON encodes the snapshot as {"root": id, "nodes": {id: node}}.
func (d *Dom) MarshalJSON() ([]byte, error) {
	out := domJSON{Root: d.root, Nodes: make(map[NodeID]*Node, d.Len())}
	for _, n := range d.Nodes() {
		out.Nodes[n.ID] = n
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates a snapshot. The result gets a fresh
// revision and is not bound to any session.
func (d *Dom) UnmarshalJSON(data []byte) error {
	var in domJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	nodes := make([]*Node, 0, len(in.Nodes))
	for id, n := range in.Nodes {
		if n == nil {
			return fmt.Errorf("node %q is null", id)
		}
		if n.ID != id {
			return fmt.Errorf("node keyed %q has id %q", id, n.ID)
		}
		nodes = append(nodes, n)
	}
	decoded, err := FromNodes(in.Root, nodes)
	if err != nil {
		return err
	}
	*d = *decoded
	return nil
}
