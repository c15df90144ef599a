package registry

import (
	"github.com/captify-io/ontology/internal/tables"
	"github.com/captify-io/ontology/schema"
)

// The registry stores its own records as instances of three built-in object
// types, so type metadata can be queried through the same machinery as any
// user-defined type. Built-ins live in code, not in the store, and are
// immutable.

func commonRecordProperties() schema.Properties {
	return schema.Properties{
		"slug":        {Type: schema.TypeString, Description: "Unique kebab-case identifier", Required: true},
		"name":        {Type: schema.TypeString, Description: "Display name", Required: true},
		"description": {Type: schema.TypeString, Description: "Human-readable description"},
		"status": {
			Type:     schema.TypeEnum,
			Enum:     []string{string(StatusActive), string(StatusDeprecated)},
			Required: true,
		},
		"version":   {Type: schema.TypeNumber, Description: "Metadata revision, starts at 1", Required: true},
		"createdAt": {Type: schema.TypeString, Required: true},
		"updatedAt": {Type: schema.TypeString, Required: true},
		"createdBy": {Type: schema.TypeString, Required: true},
		"updatedBy": {Type: schema.TypeString, Required: true},
	}
}

func builtinObjectType() ObjectType {
	props := commonRecordProperties()
	props["app"] = schema.Property{Type: schema.TypeString, Description: "Owning namespace", Required: true}
	props["properties"] = schema.Property{Type: schema.TypeObject, Description: "Property name to definition mapping", Required: true}
	return ObjectType{
		Slug:        tables.KindObjectType,
		App:         "ontology",
		Name:        "Object Type",
		Description: "A runtime entity type definition",
		Properties:  props,
		Status:      StatusActive,
		Version:     1,
	}
}

func builtinLinkType() ObjectType {
	props := commonRecordProperties()
	props["sourceObjectType"] = schema.Property{Type: schema.TypeString, Description: "Source object type slug", Required: true}
	props["targetObjectType"] = schema.Property{Type: schema.TypeString, Description: "Target object type slug", Required: true}
	props["cardinality"] = schema.Property{
		Type:     schema.TypeEnum,
		Enum:     []string{string(OneToOne), string(OneToMany), string(ManyToOne), string(ManyToMany)},
		Required: true,
	}
	props["bidirectional"] = schema.Property{Type: schema.TypeBoolean}
	props["inverseName"] = schema.Property{Type: schema.TypeString, Description: "Traversal label from target back to source"}
	props["foreignKey"] = schema.Property{Type: schema.TypeString, Description: "Property holding the reference", Required: true}
	return ObjectType{
		Slug:        tables.KindLinkType,
		App:         "ontology",
		Name:        "Link Type",
		Description: "A typed relationship between two object types",
		Properties:  props,
		Status:      StatusActive,
		Version:     1,
	}
}

func builtinActionType() ObjectType {
	props := commonRecordProperties()
	props["objectType"] = schema.Property{Type: schema.TypeString, Description: "Bound object type slug", Required: true}
	props["parameters"] = schema.Property{Type: schema.TypeObject, Description: "Parameter name to definition mapping"}
	props["modifiesProperties"] = schema.Property{
		Type:  schema.TypeArray,
		Items: &schema.Property{Type: schema.TypeString},
	}
	props["canCreateNew"] = schema.Property{Type: schema.TypeBoolean}
	return ObjectType{
		Slug:        tables.KindActionType,
		App:         "ontology",
		Name:        "Action Type",
		Description: "A parameterized operation bound to one object type",
		Properties:  props,
		Status:      StatusActive,
		Version:     1,
	}
}

// Builtins returns the built-in object types in a stable order.
func Builtins() []ObjectType {
	return []ObjectType{builtinObjectType(), builtinLinkType(), builtinActionType()}
}

func builtin(slug string) (ObjectType, bool) {
	for _, ot := range Builtins() {
		if ot.Slug == slug {
			return ot, true
		}
	}
	return ObjectType{}, false
}
