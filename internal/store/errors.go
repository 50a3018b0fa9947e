package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every "not found" error returned by a store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write would violate a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the database rejects a row that passed
	// domain validation (a violated foreign key, check or not-null constraint).
	ErrInvalidEntity = errors.New("invalid entity")

	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound covers both a missing task and a task owned by another
	// user.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	ErrAvatarNotFound = fmt.Errorf("%w: avatar", ErrNotFound)

	// ErrEmailExists is returned when registering or updating a user would
	// reuse another user's email.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError reports whether err is any store "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
