package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/schema"
)

func registerAction(t *testing.T, e *engine.Engine, def registry.ActionType) {
	t.Helper()
	def.CreatedBy = "tester"
	if _, err := e.Registry().CreateActionType(context.Background(), def); err != nil {
		t.Fatalf("create action type: %v", err)
	}
}

func TestExecuteAction_Update(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	registerAction(t, e, registry.ActionType{
		Slug:               "approve-contract",
		Name:               "Approve Contract",
		ObjectType:         "contract",
		Parameters:         schema.Properties{"status": {Type: schema.TypeEnum, Enum: []string{"approved"}, Required: true}},
		ModifiesProperties: []string{"status"},
	})

	inst, err := e.CreateItem(ctx, "contract", map[string]any{"title": "x"}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := e.ExecuteAction(ctx, "approve-contract", inst.ID, map[string]any{"status": "approved"}, "bob")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Properties["status"] != "approved" {
		t.Errorf("expected status approved, got %v", result.Properties["status"])
	}
	if result.Version != 2 {
		t.Errorf("expected version bump to 2, got %d", result.Version)
	}
	if result.UpdatedBy != "bob" {
		t.Errorf("expected updatedBy bob, got %q", result.UpdatedBy)
	}
}

func TestExecuteAction_ParameterValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	registerAction(t, e, registry.ActionType{
		Slug:               "approve-contract",
		Name:               "Approve Contract",
		ObjectType:         "contract",
		Parameters:         schema.Properties{"status": {Type: schema.TypeEnum, Enum: []string{"approved"}, Required: true}},
		ModifiesProperties: []string{"status"},
	})

	inst, err := e.CreateItem(ctx, "contract", map[string]any{"title": "x"}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = e.ExecuteAction(ctx, "approve-contract", inst.ID, map[string]any{}, "bob")
	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected *ValidationError for missing required parameter, got %v", err)
	}

	_, err = e.ExecuteAction(ctx, "approve-contract", inst.ID, map[string]any{"status": "cancelled"}, "bob")
	if !errors.As(err, &ve) {
		t.Errorf("expected *ValidationError for invalid enum value, got %v", err)
	}
}

func TestExecuteAction_UndeclaredModification(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	// The action's parameter schema names an instance property that is not in
	// modifiesProperties.
	registerAction(t, e, registry.ActionType{
		Slug:               "retitle-contract",
		Name:               "Retitle Contract",
		ObjectType:         "contract",
		Parameters:         schema.Properties{"title": {Type: schema.TypeString, Required: true}},
		ModifiesProperties: []string{"status"},
	})

	inst, err := e.CreateItem(ctx, "contract", map[string]any{"title": "x"}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = e.ExecuteAction(ctx, "retitle-contract", inst.ID, map[string]any{"title": "y"}, "bob")
	if !errors.Is(err, engine.ErrActionNotPermitted) {
		t.Errorf("expected ErrActionNotPermitted, got %v", err)
	}
}

func TestExecuteAction_CreateNew(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	registerAction(t, e, registry.ActionType{
		Slug:               "draft-contract",
		Name:               "Draft Contract",
		ObjectType:         "contract",
		Parameters:         schema.Properties{"title": {Type: schema.TypeString, Required: true}},
		ModifiesProperties: []string{"title"},
		CanCreateNew:       true,
	})

	inst, err := e.ExecuteAction(ctx, "draft-contract", "", map[string]any{"title": "New One"}, "alice")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if inst.ID == "" || inst.Version != 1 {
		t.Errorf("expected fresh instance at version 1, got %+v", inst)
	}
	if inst.Properties["title"] != "New One" {
		t.Errorf("expected title from parameters, got %v", inst.Properties["title"])
	}
	// Defaults still apply on the action's create path.
	if inst.Properties["status"] != "draft" {
		t.Errorf("expected default status, got %v", inst.Properties["status"])
	}
}

func TestExecuteAction_CreateWithoutPermission(t *testing.T) {
	e := newTestEngine(t)
	registerAction(t, e, registry.ActionType{
		Slug:               "approve-contract",
		Name:               "Approve Contract",
		ObjectType:         "contract",
		Parameters:         schema.Properties{"status": {Type: schema.TypeEnum, Enum: []string{"approved"}}},
		ModifiesProperties: []string{"status"},
	})

	_, err := e.ExecuteAction(context.Background(), "approve-contract", "", map[string]any{"status": "approved"}, "alice")
	if !errors.Is(err, engine.ErrActionNotPermitted) {
		t.Errorf("expected ErrActionNotPermitted without canCreateNew, got %v", err)
	}
}

func TestExecuteAction_DeprecatedAction(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	registerAction(t, e, registry.ActionType{
		Slug:               "approve-contract",
		Name:               "Approve Contract",
		ObjectType:         "contract",
		ModifiesProperties: []string{"status"},
		Status:             registry.StatusDeprecated,
	})

	_, err := e.ExecuteAction(ctx, "approve-contract", "some-id", map[string]any{}, "alice")
	if !errors.Is(err, engine.ErrActionNotPermitted) {
		t.Errorf("expected ErrActionNotPermitted for deprecated action, got %v", err)
	}
}

func TestExecuteAction_Unknown(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecuteAction(context.Background(), "ghost-action", "", nil, "alice")
	if !errors.Is(err, registry.ErrUnknownActionType) {
		t.Errorf("expected ErrUnknownActionType, got %v", err)
	}
}

func TestExecuteAction_PureParametersDropped(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	// "reason" is an action input, not an instance property; it must not leak
	// into the stored instance.
	registerAction(t, e, registry.ActionType{
		Slug:       "approve-contract",
		Name:       "Approve Contract",
		ObjectType: "contract",
		Parameters: schema.Properties{
			"status": {Type: schema.TypeEnum, Enum: []string{"approved"}, Required: true},
			"reason": {Type: schema.TypeString},
		},
		ModifiesProperties: []string{"status"},
	})

	inst, err := e.CreateItem(ctx, "contract", map[string]any{"title": "x"}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	result, err := e.ExecuteAction(ctx, "approve-contract", inst.ID,
		map[string]any{"status": "approved", "reason": "budget cleared"}, "bob")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := result.Properties["reason"]; ok {
		t.Error("expected pure action parameter to be dropped from the instance")
	}
}
