package taxonomy

import (
	"errors"
	"fmt"
)

// ErrInvalidState matches any *InvalidStateError.
var ErrInvalidState = errors.New("invalid taxonomy state")

// Errors returned by tree mutations.
var (
	ErrNotFound      = errors.New("taxonomy node not found")
	ErrDuplicateName = errors.New("sibling with the same name already exists")
	ErrCycle         = errors.New("move would create a circular reference")
	ErrEmptyName     = errors.New("taxonomy node name is empty")
)

// InvalidStateError reports a tree that violates the taxonomy invariants:
// unique ids, existing parents, no cycles, depth equal to parent depth + 1,
// and case-insensitively unique sibling names.
type InvalidStateError struct {
	NodeID int64
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid taxonomy state at node %d: %s", e.NodeID, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidState) hold.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
