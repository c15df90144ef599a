package introspect_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/captify-io/ontology/introspect"
	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/schema"
	"github.com/captify-io/ontology/store"
)

func newTestService(t *testing.T) (*introspect.Service, *registry.Registry) {
	t.Helper()
	reg := registry.New(store.NewMemory(), registry.Config{Namespace: "captify"})
	ctx := context.Background()

	for _, ot := range []registry.ObjectType{
		{
			Slug: "contract", App: "pmbook", Name: "Contract",
			Properties: schema.Properties{
				"title":    {Type: schema.TypeString, Required: true},
				"status":   {Type: schema.TypeEnum, Enum: []string{"draft", "approved"}},
				"vendorId": {Type: schema.TypeString},
			},
			CreatedBy: "tester",
		},
		{
			Slug: "clin", App: "pmbook", Name: "CLIN",
			Properties: schema.Properties{
				"number":     {Type: schema.TypeString, Required: true},
				"contractId": {Type: schema.TypeString},
			},
			CreatedBy: "tester",
		},
		{
			Slug: "vendor", App: "pmbook", Name: "Vendor",
			Properties: schema.Properties{"name": {Type: schema.TypeString, Required: true}},
			CreatedBy:  "tester",
		},
	} {
		if _, err := reg.CreateObjectType(ctx, ot); err != nil {
			t.Fatalf("create %s: %v", ot.Slug, err)
		}
	}

	for _, lt := range []registry.LinkType{
		{
			Slug: "contract-has-clin", Name: "Contract has CLIN",
			SourceObjectType: "contract", TargetObjectType: "clin",
			Cardinality: registry.OneToMany, Bidirectional: true,
			InverseName: "belongs-to-contract", ForeignKey: "contractId",
			CreatedBy: "tester",
		},
		{
			Slug: "contract-from-vendor", Name: "Contract from Vendor",
			SourceObjectType: "contract", TargetObjectType: "vendor",
			Cardinality: registry.ManyToOne, ForeignKey: "vendorId",
			CreatedBy: "tester",
		},
	} {
		if _, err := reg.CreateLinkType(ctx, lt); err != nil {
			t.Fatalf("create %s: %v", lt.Slug, err)
		}
	}

	if _, err := reg.CreateActionType(ctx, registry.ActionType{
		Slug: "approve-contract", Name: "Approve Contract",
		ObjectType:         "contract",
		Parameters:         schema.Properties{"status": {Type: schema.TypeEnum, Enum: []string{"approved"}}},
		ModifiesProperties: []string{"status"},
		CreatedBy:          "tester",
	}); err != nil {
		t.Fatalf("create action: %v", err)
	}

	return introspect.New(reg), reg
}

func TestDescribe(t *testing.T) {
	svc, _ := newTestService(t)
	desc, err := svc.Describe(context.Background(), "contract")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}

	if desc.ObjectType.Slug != "contract" {
		t.Errorf("expected contract, got %q", desc.ObjectType.Slug)
	}
	if len(desc.Links.Outgoing) != 2 {
		t.Errorf("expected 2 outgoing link types, got %d", len(desc.Links.Outgoing))
	}
	if len(desc.Links.Incoming) != 0 {
		t.Errorf("expected no incoming link types for contract, got %d", len(desc.Links.Incoming))
	}
	if len(desc.Actions) != 1 || desc.Actions[0].Slug != "approve-contract" {
		t.Errorf("expected the approve-contract action, got %v", desc.Actions)
	}
	if desc.TableInfo.TableName != "captify-pmbook-contract" {
		t.Errorf("expected table 'captify-pmbook-contract', got %q", desc.TableInfo.TableName)
	}
	if desc.TableInfo.PartitionKey != "id" {
		t.Errorf("expected partition key 'id', got %q", desc.TableInfo.PartitionKey)
	}
	if desc.APIInfo.BasePath != "/api/items/contract" {
		t.Errorf("unexpected base path %q", desc.APIInfo.BasePath)
	}
	if desc.APIInfo.DescribePath != "/api/object-types/contract/describe" {
		t.Errorf("unexpected describe path %q", desc.APIInfo.DescribePath)
	}
}

func TestDescribe_IncomingOnlyBidirectional(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// clin is the target of the bidirectional contract-has-clin link.
	desc, err := svc.Describe(ctx, "clin")
	if err != nil {
		t.Fatalf("describe clin: %v", err)
	}
	if len(desc.Links.Incoming) != 1 || desc.Links.Incoming[0].Slug != "contract-has-clin" {
		t.Errorf("expected contract-has-clin incoming, got %v", desc.Links.Incoming)
	}

	// vendor is the target of a unidirectional link; it sees nothing.
	desc, err = svc.Describe(ctx, "vendor")
	if err != nil {
		t.Fatalf("describe vendor: %v", err)
	}
	if len(desc.Links.Incoming) != 0 {
		t.Errorf("expected unidirectional incoming links hidden, got %v", desc.Links.Incoming)
	}
}

func TestDescribe_RegistryKind(t *testing.T) {
	svc, _ := newTestService(t)
	desc, err := svc.Describe(context.Background(), "object-type")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if desc.TableInfo.TableName != "captify-ontology-object-type" {
		t.Errorf("expected the registry table, got %q", desc.TableInfo.TableName)
	}
	if desc.TableInfo.PartitionKey != "slug" {
		t.Errorf("expected partition key 'slug', got %q", desc.TableInfo.PartitionKey)
	}
}

func TestDescribe_Unknown(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Describe(context.Background(), "ghost")
	if !errors.Is(err, registry.ErrUnknownObjectType) {
		t.Errorf("expected ErrUnknownObjectType, got %v", err)
	}
}

func TestDescribe_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Describe(ctx, "contract")
	if err != nil {
		t.Fatalf("first describe: %v", err)
	}
	second, err := svc.Describe(ctx, "contract")
	if err != nil {
		t.Fatalf("second describe: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical results with no intervening registry mutation")
	}
}
