package engine

import (
	"github.com/captify-io/ontology/store"
)

// System fields managed by the engine. They are set on every instance and
// cannot be written through payloads.
const (
	FieldID         = "id"
	FieldObjectType = "objectType"
	FieldVersion    = "version"
	FieldCreatedAt  = "createdAt"
	FieldUpdatedAt  = "updatedAt"
	FieldCreatedBy  = "createdBy"
	FieldUpdatedBy  = "updatedBy"
)

// IsSystemField reports whether name is an engine-managed instance field.
func IsSystemField(name string) bool {
	switch name {
	case FieldID, FieldObjectType, FieldVersion, FieldCreatedAt, FieldUpdatedAt, FieldCreatedBy, FieldUpdatedBy:
		return true
	}
	return false
}

// Instance is a concrete record of some object type. Instances reference
// their type by slug only; they never embed the type definition.
type Instance struct {
	ID         string `json:"id"`
	ObjectType string `json:"objectType"`

	// Version starts at 1 and increments on every successful update. It is
	// the engine's only ordering primitive.
	Version int64 `json:"version"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	CreatedBy string `json:"createdBy"`
	UpdatedBy string `json:"updatedBy"`

	// Properties holds the user payload, validated against the object type's
	// property schema.
	Properties map[string]any `json:"properties"`
}

// fromStoreItem splits a stored item into system fields and user properties.
func fromStoreItem(item store.Item) *Instance {
	inst := &Instance{Properties: make(map[string]any)}
	for k, v := range item {
		switch k {
		case FieldID:
			inst.ID, _ = v.(string)
		case FieldObjectType:
			inst.ObjectType, _ = v.(string)
		case FieldVersion:
			if n, ok := v.(float64); ok {
				inst.Version = int64(n)
			} else if n, ok := v.(int64); ok {
				inst.Version = n
			}
		case FieldCreatedAt:
			inst.CreatedAt, _ = v.(string)
		case FieldUpdatedAt:
			inst.UpdatedAt, _ = v.(string)
		case FieldCreatedBy:
			inst.CreatedBy, _ = v.(string)
		case FieldUpdatedBy:
			inst.UpdatedBy, _ = v.(string)
		default:
			inst.Properties[k] = v
		}
	}
	return inst
}
