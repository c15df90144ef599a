package engine

import (
	"context"
	"fmt"

	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/schema"
)

// ExecuteAction invokes a registered action type. Parameters are validated
// against the action's parameter schema; parameters that name instance
// properties are applied as a property patch, and the patch may touch only
// the properties the action declares in modifiesProperties. With an empty
// itemID the action creates a new instance, which requires canCreateNew.
func (e *Engine) ExecuteAction(ctx context.Context, actionSlug, itemID string, params map[string]any, actorID string) (*Instance, error) {
	at, err := e.registry.GetActionType(ctx, actionSlug)
	if err != nil {
		return nil, err
	}
	if at.Status != registry.StatusActive {
		return nil, fmt.Errorf("%w: action %q is %s", ErrActionNotPermitted, actionSlug, at.Status)
	}
	ot, err := e.registry.GetObjectType(ctx, at.ObjectType)
	if err != nil {
		return nil, err
	}

	if errs := schema.Validate(at.Parameters, params, false); len(errs) > 0 {
		return nil, schema.AsError(errs)
	}

	permitted := make(map[string]bool, len(at.ModifiesProperties))
	for _, prop := range at.ModifiesProperties {
		permitted[prop] = true
	}

	// Parameters naming instance properties become the patch; the rest are
	// pure action inputs and are dropped.
	patch := make(map[string]any)
	for k, v := range params {
		if _, declared := ot.Properties[k]; !declared {
			continue
		}
		if !permitted[k] {
			return nil, fmt.Errorf("%w: action %q may not modify property %q", ErrActionNotPermitted, actionSlug, k)
		}
		patch[k] = v
	}

	if itemID == "" {
		if !at.CanCreateNew {
			return nil, fmt.Errorf("%w: action %q cannot create instances", ErrActionNotPermitted, actionSlug)
		}
		return e.CreateItem(ctx, at.ObjectType, patch, actorID)
	}
	return e.UpdateItem(ctx, at.ObjectType, itemID, patch, actorID)
}
