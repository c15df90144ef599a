package registry

import "errors"

var (
	// ErrAlreadyExists is returned when a type definition slug is taken.
	ErrAlreadyExists = errors.New("ontology: type definition already exists")

	// ErrUnknownObjectType is returned when an object type slug doesn't resolve.
	ErrUnknownObjectType = errors.New("ontology: unknown object type")

	// ErrUnknownLinkType is returned when a link type slug doesn't resolve.
	ErrUnknownLinkType = errors.New("ontology: unknown link type")

	// ErrUnknownActionType is returned when an action type slug doesn't resolve.
	ErrUnknownActionType = errors.New("ontology: unknown action type")

	// ErrInvalidSchema is returned when a property schema definition is
	// malformed (unrecognized type, enum without values).
	ErrInvalidSchema = errors.New("ontology: invalid property schema")

	// ErrInvalidSlug is returned when a slug is not kebab-case.
	ErrInvalidSlug = errors.New("ontology: invalid slug")

	// ErrInvalidDefinition is returned when a type definition violates a
	// structural rule (unknown cardinality, bidirectional without inverse).
	ErrInvalidDefinition = errors.New("ontology: invalid type definition")

	// ErrVersionConflict is returned when a metadata update loses its
	// optimistic version check.
	ErrVersionConflict = errors.New("ontology: type definition was modified concurrently")

	// ErrBuiltin is returned on attempts to mutate a built-in type.
	ErrBuiltin = errors.New("ontology: built-in types are immutable")
)
