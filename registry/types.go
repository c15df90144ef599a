package registry

import (
	"encoding/json"
	"fmt"

	"github.com/captify-io/ontology/schema"
	"github.com/captify-io/ontology/store"
)

// Status is the lifecycle state of a type definition. Definitions are never
// physically deleted while instances exist, only deprecated.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Cardinality is the multiplicity constraint of a link type.
type Cardinality string

const (
	OneToOne   Cardinality = "ONE_TO_ONE"
	OneToMany  Cardinality = "ONE_TO_MANY"
	ManyToOne  Cardinality = "MANY_TO_ONE"
	ManyToMany Cardinality = "MANY_TO_MANY"
)

// Known reports whether c is a recognized cardinality.
func (c Cardinality) Known() bool {
	switch c {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}

// ForeignKeyOnTarget reports whether the foreign key property lives on target
// instances. The key lives on the side with multiplicity <= 1 toward the
// other side; MANY_TO_MANY stores an id array on the source instance.
func (c Cardinality) ForeignKeyOnTarget() bool {
	switch c {
	case OneToOne, OneToMany:
		return true
	}
	return false
}

// Direction selects which end of a link type an object type occupies.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// ObjectType defines a runtime entity type.
type ObjectType struct {
	Slug        string            `json:"slug"`
	App         string            `json:"app"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Properties  schema.Properties `json:"properties"`
	Status      Status            `json:"status"`

	Version   int64  `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	CreatedBy string `json:"createdBy"`
	UpdatedBy string `json:"updatedBy"`
}

// LinkType defines a typed relationship between two object types.
type LinkType struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	SourceObjectType string      `json:"sourceObjectType"`
	TargetObjectType string      `json:"targetObjectType"`
	Cardinality      Cardinality `json:"cardinality"`
	Bidirectional    bool        `json:"bidirectional"`

	// InverseName labels traversal from target back to source.
	// Required when Bidirectional is true.
	InverseName string `json:"inverseName,omitempty"`

	// ForeignKey is the property holding the reference; see
	// Cardinality.ForeignKeyOnTarget for its placement.
	ForeignKey string `json:"foreignKey"`

	Status Status `json:"status"`

	Version   int64  `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	CreatedBy string `json:"createdBy"`
	UpdatedBy string `json:"updatedBy"`
}

// ActionType defines a parameterized operation bound to one object type.
type ActionType struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	ObjectType string            `json:"objectType"`
	Parameters schema.Properties `json:"parameters,omitempty"`

	// ModifiesProperties lists the instance properties the action may mutate.
	ModifiesProperties []string `json:"modifiesProperties,omitempty"`

	// CanCreateNew permits the action to create an instance instead of
	// mutating an existing one.
	CanCreateNew bool `json:"canCreateNew"`

	Status Status `json:"status"`

	Version   int64  `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	CreatedBy string `json:"createdBy"`
	UpdatedBy string `json:"updatedBy"`
}

// toItem converts a metadata record to its stored form via its JSON shape.
func toItem(v any) (store.Item, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return store.Item(m), nil
}

func fromItem(item store.Item, v any) error {
	b, err := json.Marshal(map[string]any(item))
	if err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}
