package engine

import "errors"

var (
	// ErrAlreadyExists is returned when creating an instance whose id is taken.
	ErrAlreadyExists = errors.New("ontology: instance already exists")

	// ErrVersionConflict is returned when an update loses its optimistic
	// version check. The caller must re-read and retry.
	ErrVersionConflict = errors.New("ontology: instance was modified concurrently")

	// ErrActionNotPermitted is returned when an action invocation falls
	// outside its declared contract (deprecated action, mutating a property
	// not listed in modifiesProperties, creating without canCreateNew).
	ErrActionNotPermitted = errors.New("ontology: action not permitted")
)
