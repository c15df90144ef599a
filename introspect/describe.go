// Package introspect aggregates an object type's schema, links, actions and
// storage location into a single describe result, so UI builders and agents
// can discover what they can do with a type without hardcoded knowledge.
package introspect

import (
	"context"

	"github.com/captify-io/ontology/internal/tables"
	"github.com/captify-io/ontology/registry"
)

// Service composes describe results from registry reads. It has no state and
// no side effects; repeated calls with no intervening registry mutation
// return identical results.
type Service struct {
	registry *registry.Registry
}

// New creates an introspection service over a registry.
func New(reg *registry.Registry) *Service {
	return &Service{registry: reg}
}

// Links lists the link types touching an object type, by direction.
type Links struct {
	Outgoing []registry.LinkType `json:"outgoing"`
	Incoming []registry.LinkType `json:"incoming"`
}

// TableInfo describes the physical storage location of a type's instances.
type TableInfo struct {
	TableName    string `json:"tableName"`
	Namespace    string `json:"namespace"`
	PartitionKey string `json:"partitionKey"`
}

// APIInfo describes the remote-callable surface for a type.
type APIInfo struct {
	BasePath     string `json:"basePath"`
	DescribePath string `json:"describePath"`
}

// Description is the full introspection result for one object type.
type Description struct {
	ObjectType registry.ObjectType   `json:"objectType"`
	Links      Links                 `json:"links"`
	Actions    []registry.ActionType `json:"actions"`
	TableInfo  TableInfo             `json:"tableInfo"`
	APIInfo    APIInfo               `json:"apiInfo"`
}

// Describe aggregates schema, links, actions and storage location for an
// object type. Incoming links are listed only when their link type declares
// an inverse (bidirectional); unidirectional links stay hidden from the
// reverse direction.
func (s *Service) Describe(ctx context.Context, objectTypeSlug string) (*Description, error) {
	ot, err := s.registry.GetObjectType(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}

	outgoing, err := s.registry.ListLinkTypesForObjectType(ctx, objectTypeSlug, registry.DirectionOutgoing)
	if err != nil {
		return nil, err
	}
	incoming, err := s.registry.ListLinkTypesForObjectType(ctx, objectTypeSlug, registry.DirectionIncoming)
	if err != nil {
		return nil, err
	}
	visible := incoming[:0]
	for _, lt := range incoming {
		if lt.Bidirectional {
			visible = append(visible, lt)
		}
	}

	actions, err := s.registry.ListActionTypesForObjectType(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}

	table, err := s.registry.ResolvePhysicalTable(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}
	partitionKey := "id"
	if tables.IsRegistryKind(objectTypeSlug) {
		partitionKey = "slug"
	}

	return &Description{
		ObjectType: *ot,
		Links:      Links{Outgoing: outgoing, Incoming: visible},
		Actions:    actions,
		TableInfo: TableInfo{
			TableName:    table,
			Namespace:    s.registry.Namespace(),
			PartitionKey: partitionKey,
		},
		APIInfo: APIInfo{
			BasePath:     "/api/items/" + objectTypeSlug,
			DescribePath: "/api/object-types/" + objectTypeSlug + "/describe",
		},
	}, nil
}
