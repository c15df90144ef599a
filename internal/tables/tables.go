// Package tables provides deterministic physical table naming for ontology types.
package tables

import (
	"fmt"
	"regexp"
)

// Registry record kinds, each backed by a fixed well-known table.
const (
	KindObjectType = "object-type"
	KindLinkType   = "link-type"
	KindActionType = "action-type"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a well-formed kebab-case slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Registry returns the table name for a registry record kind,
// e.g. Registry("captify", "object-type") -> "captify-ontology-object-type".
func Registry(namespace, kind string) string {
	return fmt.Sprintf("%s-ontology-%s", namespace, kind)
}

// Instance returns the table name holding instances of an object type,
// e.g. Instance("captify", "pmbook", "contract") -> "captify-pmbook-contract".
func Instance(namespace, app, slug string) string {
	return fmt.Sprintf("%s-%s-%s", namespace, app, slug)
}

// IsRegistryKind reports whether slug names one of the built-in registry types.
func IsRegistryKind(slug string) bool {
	switch slug {
	case KindObjectType, KindLinkType, KindActionType:
		return true
	}
	return false
}

// Index returns the conventional GSI name for a single-attribute index,
// e.g. Index("contractId") -> "contractId-index".
func Index(attr string) string {
	return attr + "-index"
}
