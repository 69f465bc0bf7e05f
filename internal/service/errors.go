package service

import "errors"

var (
	// ErrPermissionDenied is returned when the actor lacks the required role
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidDependency is returned when a chosen dependency would create
	// a cycle or a parent/dependency contradiction
	ErrInvalidDependency = errors.New("invalid dependency")

	// ErrParentNotFound is returned when a subtask names a missing or
	// deleted parent
	ErrParentNotFound = errors.New("parent task not found")

	// ErrInvalidParent is returned when re-parenting would move a task under
	// itself or one of its own descendants
	ErrInvalidParent = errors.New("invalid parent")
)
