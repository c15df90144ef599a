// Package engine performs generic, schema-validated CRUD over instances of
// any registered object type.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/captify-io/ontology/internal/tables"
	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/schema"
	"github.com/captify-io/ontology/store"
)

// Engine is the generic entity CRUD engine. It owns instance lifecycle and
// consults the registry (read-only, cached) for validation and table
// resolution.
type Engine struct {
	store    store.Adapter
	registry *registry.Registry
}

// New creates an Engine on top of a store adapter and a type registry.
func New(adapter store.Adapter, reg *registry.Registry) *Engine {
	return &Engine{store: adapter, registry: reg}
}

// Registry returns the type registry the engine consults.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateItem validates payload against the object type's schema and writes a
// new instance with version 1. An "id" entry in the payload is honored;
// otherwise an id is generated. The write is conditional on the id being
// free, so an id collision surfaces as ErrAlreadyExists instead of a silent
// overwrite.
func (e *Engine) CreateItem(ctx context.Context, objectTypeSlug string, payload map[string]any, actorID string) (*Instance, error) {
	ot, err := e.registry.GetObjectType(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}
	table, err := e.registry.ResolvePhysicalTable(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}

	id, props, errs := splitPayload(payload)
	props = schema.ApplyDefaults(ot.Properties, props)
	errs = append(errs, schema.Validate(ot.Properties, props, false)...)
	if err := schema.AsError(errs); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	now := nowISO()
	item := store.Item{
		FieldID:         id,
		FieldObjectType: objectTypeSlug,
		FieldVersion:    int64(1),
		FieldCreatedAt:  now,
		FieldUpdatedAt:  now,
		FieldCreatedBy:  actorID,
		FieldUpdatedBy:  actorID,
	}
	for k, v := range props {
		item[k] = v
	}

	err = e.store.Put(ctx, table, item, &store.Condition{NotExists: FieldID})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return fromStoreItem(item), nil
}

// GetItem retrieves an instance by id, returning store.ErrNotFound if absent.
func (e *Engine) GetItem(ctx context.Context, objectTypeSlug, id string) (*Instance, error) {
	table, err := e.registry.ResolvePhysicalTable(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}
	item, err := e.store.Get(ctx, table, store.Key{FieldID: id})
	if err != nil {
		return nil, err
	}
	return fromStoreItem(item), nil
}

// UpdateItem applies a partial payload under optimistic concurrency: the
// current version is read, the payload re-validated against the current
// schema, and the write is conditional on the version still matching.
// A concurrent writer surfaces as ErrVersionConflict; the caller retries
// with a fresh read. Losers are rejected, never merged.
func (e *Engine) UpdateItem(ctx context.Context, objectTypeSlug, id string, partial map[string]any, actorID string) (*Instance, error) {
	ot, err := e.registry.GetObjectType(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}
	table, err := e.registry.ResolvePhysicalTable(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}

	var errs []schema.FieldError
	props := make(map[string]any, len(partial))
	for k, v := range partial {
		if IsSystemField(k) {
			errs = append(errs, schema.FieldError{
				Code:    schema.CodeReadOnlyField,
				Field:   k,
				Message: "system field " + k + " cannot be written",
			})
			continue
		}
		props[k] = v
	}
	errs = append(errs, schema.Validate(ot.Properties, props, true)...)
	if err := schema.AsError(errs); err != nil {
		return nil, err
	}

	current, err := e.GetItem(ctx, objectTypeSlug, id)
	if err != nil {
		return nil, err
	}

	patch := store.Item{
		FieldVersion:   current.Version + 1,
		FieldUpdatedAt: nowISO(),
		FieldUpdatedBy: actorID,
	}
	for k, v := range props {
		patch[k] = v
	}

	updated, err := e.store.Update(ctx, table, store.Key{FieldID: id}, patch,
		&store.Condition{Equals: map[string]any{FieldVersion: current.Version}})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return fromStoreItem(updated), nil
}

// DeleteItem hard-deletes an instance. Links referencing it are left in
// place: dangling references are a read-time concern surfaced by the link
// resolver, never a write-time cascade.
func (e *Engine) DeleteItem(ctx context.Context, objectTypeSlug, id string) error {
	table, err := e.registry.ResolvePhysicalTable(ctx, objectTypeSlug)
	if err != nil {
		return err
	}
	err = e.store.Delete(ctx, table, store.Key{FieldID: id}, &store.Condition{Exists: FieldID})
	if errors.Is(err, store.ErrConditionFailed) {
		return store.ErrNotFound
	}
	return err
}

// ListOptions configures ListItems.
type ListOptions struct {
	// Filter is an equality filter on instance properties.
	Filter map[string]any

	// Limit caps the page size (0 = store default).
	Limit int32

	// NextToken resumes a previous page.
	NextToken string
}

// ListResult is one page of instances.
type ListResult struct {
	Items     []*Instance `json:"items"`
	Count     int         `json:"count"`
	NextToken string      `json:"nextToken,omitempty"`

	// FullScan flags that no secondary index covered the filter, so the page
	// was produced by a table scan. Callers use it to detect expensive
	// queries.
	FullScan bool `json:"fullScan"`
}

// ListItems lists instances of an object type. When a filter property is
// backed by a foreign-key index the page is served by an index query;
// otherwise the table is scanned and the result flagged as a full scan.
func (e *Engine) ListItems(ctx context.Context, objectTypeSlug string, opts ListOptions) (*ListResult, error) {
	table, err := e.registry.ResolvePhysicalTable(ctx, objectTypeSlug)
	if err != nil {
		return nil, err
	}

	indexProp := ""
	if len(opts.Filter) > 0 {
		indexed, err := e.registry.ForeignKeyProperties(ctx, objectTypeSlug)
		if err != nil {
			return nil, err
		}
		for _, prop := range indexed {
			if _, ok := opts.Filter[prop]; ok {
				indexProp = prop
				break
			}
		}
	}

	var page *store.Page
	if indexProp != "" {
		filter := make(map[string]any, len(opts.Filter))
		for k, v := range opts.Filter {
			if k != indexProp {
				filter[k] = v
			}
		}
		page, err = e.store.Query(ctx, store.QueryInput{
			Table:      table,
			Index:      tables.Index(indexProp),
			Key:        map[string]any{indexProp: opts.Filter[indexProp]},
			Filter:     filter,
			Limit:      opts.Limit,
			StartToken: opts.NextToken,
		})
	} else {
		page, err = e.store.Scan(ctx, store.ScanInput{
			Table:      table,
			Filter:     opts.Filter,
			Limit:      opts.Limit,
			StartToken: opts.NextToken,
		})
	}
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Count:     page.Count,
		NextToken: page.NextToken,
		FullScan:  len(opts.Filter) > 0 && indexProp == "",
	}
	for _, item := range page.Items {
		result.Items = append(result.Items, fromStoreItem(item))
	}
	return result, nil
}

// splitPayload separates an optional caller-supplied id from user properties
// and rejects writes to the remaining system fields.
func splitPayload(payload map[string]any) (string, map[string]any, []schema.FieldError) {
	var errs []schema.FieldError
	id := ""
	props := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == FieldID {
			id, _ = v.(string)
			continue
		}
		if IsSystemField(k) {
			errs = append(errs, schema.FieldError{
				Code:    schema.CodeReadOnlyField,
				Field:   k,
				Message: "system field " + k + " cannot be written",
			})
			continue
		}
		props[k] = v
	}
	return id, props, errs
}
