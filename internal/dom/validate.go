package dom

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hiramhuang/mui-toolpad/internal/fracindex"
)

// ErrInvalidDocument classifies structural problems found by Validate that
// no mutation error covers.
var ErrInvalidDocument = errors.New("invalid document")

// ValidationError describes a single structural problem of a snapshot.
type ValidationError struct {
	NodeID  NodeID // offending node, empty for document-level problems
	Err     error  // sentinel classifying the problem
	Message string
}

func (e ValidationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Message)
	}
	return fmt.Sprintf("%v: node %s: %s", e.Err, e.NodeID, e.Message)
}

func (e ValidationError) Unwrap() error { return e.Err }

// Validate checks every structural invariant of d and returns the problems
// found, ordered by node id. An empty result means d is well formed.
func Validate(d *Dom) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRoot(d)...)
	errs = append(errs, validateNodes(d)...)
	errs = append(errs, validateBuckets(d)...)
	errs = append(errs, validateAcyclic(d)...)
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].NodeID < errs[j].NodeID })
	return errs
}

func validateRoot(d *Dom) []ValidationError {
	root, ok := d.Lookup(d.root)
	if !ok {
		return []ValidationError{{Err: ErrNotFound, Message: fmt.Sprintf("root %q is missing", d.root)}}
	}
	var errs []ValidationError
	if root.Kind != KindApplication {
		errs = append(errs, ValidationError{root.ID, ErrTypeMismatch, "root must be an application node"})
	}
	if root.IsAttached() || root.ParentProp != "" || root.ParentIndex != "" {
		errs = append(errs, ValidationError{root.ID, ErrInvalidDocument, "root must have no parent"})
	}
	return errs
}

func validateNodes(d *Dom) []ValidationError {
	var errs []ValidationError
	names := make(map[string]NodeID)
	for _, n := range d.Nodes() {
		if !n.Kind.Valid() {
			errs = append(errs, ValidationError{n.ID, ErrInvalidDocument, fmt.Sprintf("unknown kind %s", n.Kind)})
			continue
		}
		if n.Name == "" {
			errs = append(errs, ValidationError{n.ID, ErrInvalidDocument, "empty name"})
		} else if other, dup := names[n.Name]; dup {
			errs = append(errs, ValidationError{n.ID, ErrInvalidDocument,
				fmt.Sprintf("name %q is already used by %s", n.Name, other)})
		} else {
			names[n.Name] = n.ID
		}
		if err := n.checkContent(); err != nil {
			errs = append(errs, ValidationError{n.ID, errors.Unwrap(err), err.Error()})
		}
		if n.ID == d.root {
			continue
		}
		if !n.IsAttached() || n.ParentProp == "" || n.ParentIndex == "" {
			errs = append(errs, ValidationError{n.ID, ErrInvalidDocument, "parent linkage must be fully set on non-root nodes"})
			continue
		}
		parent, ok := d.Lookup(n.ParentID)
		if !ok {
			errs = append(errs, ValidationError{n.ID, ErrNotFound, fmt.Sprintf("parent %q is missing", n.ParentID)})
			continue
		}
		if err := checkChild(parent, n.ParentProp, n.Kind); err != nil {
			errs = append(errs, ValidationError{n.ID, ErrInvalidChild, err.Error()})
		}
		if err := fracindex.Validate(n.ParentIndex); err != nil {
			errs = append(errs, ValidationError{n.ID, ErrInvalidIndex, err.Error()})
		}
	}
	return errs
}

func validateBuckets(d *Dom) []ValidationError {
	var errs []ValidationError
	for parent, children := range indexOf(d).childMap() {
		for ns, bucket := range children {
			for i := 1; i < len(bucket); i++ {
				if bucket[i].ParentIndex == bucket[i-1].ParentIndex {
					errs = append(errs, ValidationError{bucket[i].ID, ErrIndexConflict,
						fmt.Sprintf("index %q repeats in %s.%s", bucket[i].ParentIndex, parent, ns)})
				}
			}
		}
	}
	return errs
}

// validateAcyclic walks parent pointers with three-colour marking and
// reports the nodes that close a cycle.
func validateAcyclic(d *Dom) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	colour := make(map[NodeID]int, d.Len())
	var errs []ValidationError
	for _, start := range d.Nodes() {
		var path []NodeID
		cur := start
		for {
			c := colour[cur.ID]
			if c == black {
				break
			}
			if c == gray {
				errs = append(errs, ValidationError{cur.ID, ErrCyclicParent, "node is its own ancestor"})
				break
			}
			colour[cur.ID] = gray
			path = append(path, cur.ID)
			if !cur.IsAttached() {
				break
			}
			p, ok := d.Lookup(cur.ParentID)
			if !ok {
				break
			}
			cur = p
		}
		for _, id := range path {
			colour[id] = black
		}
	}
	return errs
}
