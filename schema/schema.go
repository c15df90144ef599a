// Package schema defines runtime property schemas for ontology object types
// and validates instance payloads against them.
package schema

// PropertyType is the tagged variant of value types a property may declare.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeEnum    PropertyType = "enum"
	TypeArray   PropertyType = "array"
	TypeObject  PropertyType = "object"
)

// Known reports whether t is a recognized property type.
func (t PropertyType) Known() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeEnum, TypeArray, TypeObject:
		return true
	}
	return false
}

// Property describes one property of an object type.
type Property struct {
	Type        PropertyType `json:"type"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required,omitempty"`

	// Enum lists the allowed values. A string property with a non-empty Enum
	// behaves like an enum property.
	Enum []string `json:"enum,omitempty"`

	// Default is applied when the property is absent at create time.
	Default any `json:"default,omitempty"`

	// Items declares the element type for array properties.
	// When nil, any element type is accepted.
	Items *Property `json:"items,omitempty"`
}

// Properties maps property name to its definition.
type Properties map[string]Property
