package dom

import (
	"errors"

	"github.com/hiramhuang/mui-toolpad/api"
)

// Lookup errors.
var (
	// ErrNotFound is returned when an id has no node in the snapshot.
	ErrNotFound = errors.New("node not found")

	// ErrTypeMismatch is returned when a node exists but has another kind
	// than the one asked for.
	ErrTypeMismatch = errors.New("node kind mismatch")
)

// Structural errors returned by mutations.
var (
	// ErrAlreadyAttached is returned when attaching a node that already has a
	// parent or whose id is already part of the snapshot.
	ErrAlreadyAttached = errors.New("node is already attached")

	// ErrInvalidChild is returned when a parent kind doesn't accept the child
	// kind in the requested namespace.
	ErrInvalidChild = errors.New("invalid child")

	// ErrRootRemoval is returned when removing the application root.
	ErrRootRemoval = errors.New("root node can't be removed")

	// ErrCyclicParent is returned when moving a node under itself or one of
	// its descendants.
	ErrCyclicParent = errors.New("node can't be moved under itself or its descendants")

	// ErrIndexConflict is returned when an explicit parent index is already
	// used by a sibling in the same bucket.
	ErrIndexConflict = errors.New("parent index already used by a sibling")

	// ErrInvalidIndex is returned for an explicit parent index that is not a
	// well-formed fractional key.
	ErrInvalidIndex = errors.New("invalid parent index")
)

// Property errors.
var (
	// ErrUnknownProperty is returned for an attribute key or namespace the
	// node kind doesn't declare.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrSecretNotAllowed is returned when a secret binding is stored on a
	// node kind that reaches the render tree.
	ErrSecretNotAllowed = errors.New("secret values are only allowed on connection nodes")

	// ErrUnboxNonConstant aliases api.ErrUnboxNonConstant.
	ErrUnboxNonConstant = api.ErrUnboxNonConstant
)
