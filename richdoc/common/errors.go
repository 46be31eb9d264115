package common

import (
	"fmt"
)

// ErrUnknownNodeType is returned when a node type was never registered.
type ErrUnknownNodeType struct {
	Type string
}

func (e ErrUnknownNodeType) Error() string {
	return fmt.Sprintf("unknown node type: %q", e.Type)
}

// Is matches any ErrUnknownNodeType regardless of its fields.
func (e ErrUnknownNodeType) Is(target error) bool {
	_, ok := target.(ErrUnknownNodeType)
	return ok
}

// ErrDuplicateKey is returned when a key is already present in a tree, or
// was retired from it.
type ErrDuplicateKey struct {
	Key Key
}

func (e ErrDuplicateKey) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Key)
}

func (e ErrDuplicateKey) Is(target error) bool {
	_, ok := target.(ErrDuplicateKey)
	return ok
}

// ErrNodeNotFound is returned when a node with the specified key is not found.
type ErrNodeNotFound struct {
	Key Key
}

func (e ErrNodeNotFound) Error() string {
	return fmt.Sprintf("node not found: %s", e.Key)
}

func (e ErrNodeNotFound) Is(target error) bool {
	_, ok := target.(ErrNodeNotFound)
	return ok
}

// ErrInvalidPosition is returned for out-of-range indexes and offsets, and
// for positions inside a node of the wrong kind.
type ErrInvalidPosition struct {
	Message string
}

func (e ErrInvalidPosition) Error() string {
	return fmt.Sprintf("invalid position: %s", e.Message)
}

func (e ErrInvalidPosition) Is(target error) bool {
	_, ok := target.(ErrInvalidPosition)
	return ok
}

// ErrNoActiveSelection is returned by selection-relative operations when
// the selection is empty.
type ErrNoActiveSelection struct {
	Op string
}

func (e ErrNoActiveSelection) Error() string {
	if e.Op == "" {
		return "no active selection"
	}
	return fmt.Sprintf("%s: no active selection", e.Op)
}

func (e ErrNoActiveSelection) Is(target error) bool {
	_, ok := target.(ErrNoActiveSelection)
	return ok
}

// ErrNotAStructuralNode is returned when a block operation targets a leaf,
// or would turn a node with children into a leaf.
type ErrNotAStructuralNode struct {
	Key  Key
	Type string
}

func (e ErrNotAStructuralNode) Error() string {
	return fmt.Sprintf("not a structural node: %s (%s)", e.Key, e.Type)
}

func (e ErrNotAStructuralNode) Is(target error) bool {
	_, ok := target.(ErrNotAStructuralNode)
	return ok
}

// ErrInvalidFields is returned when a node factory rejects a field payload.
type ErrInvalidFields struct {
	Type    string
	Message string
}

func (e ErrInvalidFields) Error() string {
	return fmt.Sprintf("invalid fields for %q: %s", e.Type, e.Message)
}

func (e ErrInvalidFields) Is(target error) bool {
	_, ok := target.(ErrInvalidFields)
	return ok
}

// ErrMalformedNode is returned when serialized input is not a serialized node.
type ErrMalformedNode struct {
	Message string
}

func (e ErrMalformedNode) Error() string {
	return fmt.Sprintf("malformed node: %s", e.Message)
}

func (e ErrMalformedNode) Is(target error) bool {
	_, ok := target.(ErrMalformedNode)
	return ok
}

// ErrInvariantViolation is returned when a tree fails validation.
type ErrInvariantViolation struct {
	Message string
}

func (e ErrInvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Message)
}

func (e ErrInvariantViolation) Is(target error) bool {
	_, ok := target.(ErrInvariantViolation)
	return ok
}

// ErrNestedTransaction is returned when an update is started from inside
// another update.
type ErrNestedTransaction struct{}

func (e ErrNestedTransaction) Error() string {
	return "nested transaction"
}

// ErrTransactionClosed is returned when a transaction handle is used after
// its update returned.
type ErrTransactionClosed struct{}

func (e ErrTransactionClosed) Error() string {
	return "transaction closed"
}
