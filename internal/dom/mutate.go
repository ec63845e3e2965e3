package dom

import (
	"fmt"

	"github.com/hiramhuang/mui-toolpad/api"
	"github.com/hiramhuang/mui-toolpad/internal/fracindex"
)

// ReservedProperties are the node fields Save never takes from its argument.
var ReservedProperties = []string{"id", "kind", "name", "parentId", "parentProp", "parentIndex"}

// Init carries the optional content of a node being created.
type Init struct {
	// Name is a naming candidate; it is slugified and made unique. Empty
	// falls back to the kind name.
	Name       string
	Attributes Attributes
	Props      api.BindableValues
	Params     api.BindableValues
	Theme      api.BindableValues
}

// Create builds a detached node of kind k with a fresh id and a name that is
// unique in d. The node joins the document through Attach.
func Create(d *Dom, k Kind, init Init) (*Node, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("create: unknown node kind %s", k)
	}
	attrs := init.Attributes
	if attrs == nil {
		attrs = newAttributes(k)
	}
	n := &Node{
		ID:         NewNodeID(),
		Kind:       k,
		Attributes: attrs,
		Props:      init.Props.Clone(),
		Params:     init.Params.Clone(),
		Theme:      init.Theme.Clone(),
	}
	if err := n.checkContent(); err != nil {
		return nil, fmt.Errorf("create %s: %w", k, err)
	}
	n.Name = uniqueName(slugifyName(init.Name, k.String()), nameTaken(indexOf(d), ""))
	return n, nil
}

// CreateElement creates an element instantiating component.
func CreateElement(d *Dom, component string, props api.BindableValues, name string) (*Node, error) {
	if name == "" {
		name = component
	}
	return Create(d, KindElement, Init{
		Name:       name,
		Attributes: ElementAttributes{Component: api.Const(component)},
		Props:      props,
	})
}

// Attach inserts a detached node under parent in namespace. An empty index
// places it after the last sibling of that namespace. The node's name is
// disambiguated again against d.
func Attach(d *Dom, n *Node, parent NodeID, namespace string, index fracindex.Key) (*Dom, error) {
	if n.IsAttached() {
		return nil, fmt.Errorf("attach %q: %w to %q", n.ID, ErrAlreadyAttached, n.ParentID)
	}
	if _, exists := d.Lookup(n.ID); exists {
		return nil, fmt.Errorf("attach %q: %w: id already in document", n.ID, ErrAlreadyAttached)
	}
	if n.ParentProp != "" || n.ParentIndex != "" {
		return nil, fmt.Errorf("attach %q: partially set parent linkage", n.ID)
	}
	if err := n.checkContent(); err != nil {
		return nil, fmt.Errorf("attach %q: %w", n.ID, err)
	}
	idx := indexOf(d)
	child := n.clone()
	child.Name = uniqueName(slugifyName(n.Name, n.Kind.String()), nameTaken(idx, ""))
	next, err := placeUnder(d, idx, child, parent, namespace, index)
	if err != nil {
		return nil, fmt.Errorf("attach %q: %w", n.ID, err)
	}
	return next, nil
}

// Move relocates an attached node, with its subtree, under a new parent. An
// empty index places it last in the target namespace.
func Move(d *Dom, id NodeID, parent NodeID, namespace string, index fracindex.Key) (*Dom, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, fmt.Errorf("move: %w", err)
	}
	// walking up from the target parent must not reach the moved node
	for cur, steps := parent, 0; cur != "" && steps <= d.Len(); steps++ {
		if cur == id {
			return nil, fmt.Errorf("move %q under %q: %w", id, parent, ErrCyclicParent)
		}
		p, ok := d.Lookup(cur)
		if !ok {
			break
		}
		cur = p.ParentID
	}
	next, err := placeUnder(d, indexOf(d), n.clone(), parent, namespace, index)
	if err != nil {
		return nil, fmt.Errorf("move %q: %w", id, err)
	}
	return next, nil
}

// placeUnder sets the parent linkage of child, a private copy, and stores it.
func placeUnder(d *Dom, idx *index, child *Node, parentID NodeID, namespace string, index fracindex.Key) (*Dom, error) {
	parent, err := d.Get(parentID)
	if err != nil {
		return nil, err
	}
	if err := checkChild(parent, namespace, child.Kind); err != nil {
		return nil, err
	}
	var last fracindex.Key
	for _, s := range idx.childrenOf(parentID)[namespace] {
		if s.ID == child.ID {
			continue
		}
		if index != "" && s.ParentIndex == index {
			return nil, fmt.Errorf("%w: %q is used by %q", ErrIndexConflict, index, s.ID)
		}
		last = s.ParentIndex
	}
	if index == "" {
		if index, err = fracindex.After(last); err != nil {
			return nil, err
		}
	} else if err := fracindex.Validate(index); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}
	child.ParentID = parentID
	child.ParentProp = namespace
	child.ParentIndex = index
	return d.put(child), nil
}

// Remove deletes a node and its whole subtree.
func Remove(d *Dom, id NodeID) (*Dom, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}
	if !n.IsAttached() {
		return nil, fmt.Errorf("remove %q: %w", id, ErrRootRemoval)
	}
	m := d.nodes.Delete(id)
	for _, desc := range DescendantsOf(d, n) {
		m = m.Delete(desc.ID)
	}
	return d.derive(m), nil
}

// Save replaces the content of an existing node: its attributes and its
// props, params and theme namespaces. Id, kind, name and parent linkage are
// kept from the stored node.
func Save(d *Dom, n *Node) (*Dom, error) {
	stored, err := d.Get(n.ID)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	if n.Kind != stored.Kind {
		return nil, fmt.Errorf("save %q: %w: stored %s, got %s", n.ID, ErrTypeMismatch, stored.Kind, n.Kind)
	}
	updated := stored.clone()
	updated.Attributes = n.Attributes
	if updated.Attributes == nil {
		updated.Attributes = newAttributes(stored.Kind)
	}
	updated.Props = n.Props.Clone()
	updated.Params = n.Params.Clone()
	updated.Theme = n.Theme.Clone()
	if err := updated.checkContent(); err != nil {
		return nil, fmt.Errorf("save %q: %w", n.ID, err)
	}
	return d.put(updated), nil
}

// SetProperty sets an attribute of a node. A nil value clears it.
func SetProperty(d *Dom, id NodeID, key string, v *api.BindableValue) (*Dom, error) {
	return SetNamespacedProperty(d, id, NamespaceAttributes, key, v)
}

// SetNamespacedProperty sets one property in a bindable namespace of a node.
// A nil value deletes the property.
func SetNamespacedProperty(d *Dom, id NodeID, namespace, key string, v *api.BindableValue) (*Dom, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, fmt.Errorf("set property: %w", err)
	}
	if !hasBindableNamespace(n.Kind, namespace) {
		return nil, fmt.Errorf("set %s.%s on %q: %w: %s has no namespace %q",
			namespace, key, id, ErrUnknownProperty, n.Kind, namespace)
	}
	if v.IsSecret() && Renderable(n.Kind) {
		return nil, fmt.Errorf("set %s.%s on %q: %w", namespace, key, id, ErrSecretNotAllowed)
	}
	updated := n.clone()
	if namespace == NamespaceAttributes {
		if updated.Attributes, err = n.Attributes.with(key, v); err != nil {
			return nil, fmt.Errorf("set %s.%s on %q: %w", namespace, key, id, err)
		}
		return d.put(updated), nil
	}
	values, _ := n.Namespace(namespace)
	values = values.Clone()
	if values == nil {
		values = make(api.BindableValues)
	}
	if v == nil {
		delete(values, key)
	} else {
		values[key] = v
	}
	updated.setNamespace(namespace, values)
	return d.put(updated), nil
}

// SetNamespace replaces a whole bindable namespace of a node. Nil empties
// it.
func SetNamespace(d *Dom, id NodeID, namespace string, values api.BindableValues) (*Dom, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, fmt.Errorf("set namespace: %w", err)
	}
	if !hasBindableNamespace(n.Kind, namespace) {
		return nil, fmt.Errorf("set namespace %q on %q: %w", namespace, id, ErrUnknownProperty)
	}
	updated := n.clone()
	if namespace == NamespaceAttributes {
		if updated.Attributes, err = attributesFromValues(n.Kind, values); err != nil {
			return nil, fmt.Errorf("set namespace %q on %q: %w", namespace, id, err)
		}
	} else {
		values = values.Clone()
		if values == nil {
			values = make(api.BindableValues)
		}
		updated.setNamespace(namespace, values)
	}
	if err := updated.checkContent(); err != nil {
		return nil, fmt.Errorf("set namespace %q on %q: %w", namespace, id, err)
	}
	return d.put(updated), nil
}

// Rename gives a node a new name derived from candidate, unique in d. An
// unchanged name returns d itself.
func Rename(d *Dom, id NodeID, candidate string) (*Dom, error) {
	n, err := d.Get(id)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	if candidate == n.Name {
		return d, nil
	}
	name := uniqueName(slugifyName(candidate, n.Kind.String()), nameTaken(indexOf(d), id))
	if name == n.Name {
		return d, nil
	}
	updated := n.clone()
	updated.Name = name
	return d.put(updated), nil
}
