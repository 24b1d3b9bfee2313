package relationship

import (
	"errors"
	"fmt"
)

// Domain outcomes. Callers branch on these with errors.Is.
var (
	// ErrNotFound indicates the referenced relationship does not exist.
	ErrNotFound = errors.New("relationship not found")

	// ErrForbidden indicates the caller is not allowed to act on the relationship.
	ErrForbidden = errors.New("not allowed to modify this relationship")

	// ErrAlreadyFriends indicates an accepted relationship already exists for the pair.
	ErrAlreadyFriends = errors.New("already friends")

	// ErrRequestAlreadyPending indicates a pending request exists for the pair, in either direction.
	ErrRequestAlreadyPending = errors.New("friend request already pending")

	// ErrSelfRequest indicates a user tried to befriend themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")

	// ErrDuplicatePair is returned by a Store when an insert collides with the
	// unordered-pair uniqueness constraint.
	ErrDuplicatePair = errors.New("relationship already exists for this pair")
)

// StoreError wraps an unexpected persistence failure. It is never retried by the service.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("relationship store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
