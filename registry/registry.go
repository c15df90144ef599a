// Package registry stores and resolves ObjectType, LinkType and ActionType
// definitions, the runtime type system of the ontology engine.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/captify-io/ontology/internal/tables"
	"github.com/captify-io/ontology/schema"
	"github.com/captify-io/ontology/store"
)

const systemActor = "system"

// Registry provides CRUD over type metadata and resolves logical slugs to
// physical table names. Metadata reads go through a TTL-bounded cache that
// every registry write invalidates.
type Registry struct {
	store  store.Adapter
	config Config
	cache  *cache
}

// New creates a Registry on top of a store adapter.
func New(adapter store.Adapter, config Config) *Registry {
	config.validate()
	return &Registry{
		store:  adapter,
		config: config,
		cache:  newCache(config.CacheTTL),
	}
}

// Namespace returns the multi-tenant partitioning prefix.
func (r *Registry) Namespace() string {
	return r.config.Namespace
}

func (r *Registry) table(kind string) string {
	return tables.Registry(r.config.Namespace, kind)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// stamp fills the system fields of a fresh metadata record.
func stamp(version *int64, createdAt, updatedAt, createdBy, updatedBy *string, actor string) {
	if actor == "" {
		actor = systemActor
	}
	now := nowISO()
	*version = 1
	*createdAt = now
	*updatedAt = now
	*createdBy = actor
	*updatedBy = actor
}

// --- ObjectType ---

// CreateObjectType registers a new object type. The definition's slug must be
// free, kebab-case, and every property entry must declare a recognized type.
func (r *Registry) CreateObjectType(ctx context.Context, def ObjectType) (*ObjectType, error) {
	if !tables.ValidSlug(def.Slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, def.Slug)
	}
	if tables.IsRegistryKind(def.Slug) {
		return nil, fmt.Errorf("%w: %q", ErrBuiltin, def.Slug)
	}
	if !tables.ValidSlug(def.App) {
		return nil, fmt.Errorf("%w: app %q", ErrInvalidSlug, def.App)
	}
	if errs := schema.CheckDefinition(def.Properties); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, schema.AsError(errs))
	}
	if def.Status == "" {
		def.Status = StatusActive
	}
	stamp(&def.Version, &def.CreatedAt, &def.UpdatedAt, &def.CreatedBy, &def.UpdatedBy, def.CreatedBy)

	if err := r.putRecord(ctx, tables.KindObjectType, def, def.Slug); err != nil {
		return nil, err
	}
	r.cache.invalidate(cacheKey(tables.KindObjectType, def.Slug))
	return &def, nil
}

// GetObjectType resolves an object type by slug. Built-in types resolve from
// code; everything else is a cached store read.
func (r *Registry) GetObjectType(ctx context.Context, slug string) (*ObjectType, error) {
	if ot, ok := builtin(slug); ok {
		return &ot, nil
	}
	key := cacheKey(tables.KindObjectType, slug)
	if v, ok := r.cache.get(key); ok {
		ot := v.(ObjectType)
		return &ot, nil
	}

	item, err := r.store.Get(ctx, r.table(tables.KindObjectType), store.Key{"slug": slug})
	if err != nil {
		return nil, mapGetError(err, ErrUnknownObjectType, slug)
	}
	var ot ObjectType
	if err := fromItem(item, &ot); err != nil {
		return nil, err
	}
	r.cache.set(key, ot)
	return &ot, nil
}

// ListObjectTypes returns the built-in types followed by every registered one.
func (r *Registry) ListObjectTypes(ctx context.Context) ([]ObjectType, error) {
	out := Builtins()
	items, err := r.scanAll(ctx, tables.KindObjectType)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		var ot ObjectType
		if err := fromItem(item, &ot); err != nil {
			return nil, err
		}
		out = append(out, ot)
	}
	return out, nil
}

// UpdateObjectTypeProperties evolves an object type's property schema.
// Properties can be added or redefined, never removed; the metadata version
// is bumped under an optimistic check so concurrent evolutions can't silently
// overwrite each other.
func (r *Registry) UpdateObjectTypeProperties(ctx context.Context, slug string, props schema.Properties, actor string) (*ObjectType, error) {
	if tables.IsRegistryKind(slug) {
		return nil, fmt.Errorf("%w: %q", ErrBuiltin, slug)
	}
	if errs := schema.CheckDefinition(props); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, schema.AsError(errs))
	}

	current, err := r.GetObjectType(ctx, slug)
	if err != nil {
		return nil, err
	}

	merged := make(schema.Properties, len(current.Properties)+len(props))
	for k, v := range current.Properties {
		merged[k] = v
	}
	for k, v := range props {
		merged[k] = v
	}

	mergedItem, err := toItem(merged)
	if err != nil {
		return nil, err
	}
	return r.patchObjectType(ctx, current, store.Item{"properties": map[string]any(mergedItem)}, actor)
}

// SetObjectTypeStatus transitions an object type between active and
// deprecated. Physical deletion is not offered.
func (r *Registry) SetObjectTypeStatus(ctx context.Context, slug string, status Status, actor string) (*ObjectType, error) {
	if tables.IsRegistryKind(slug) {
		return nil, fmt.Errorf("%w: %q", ErrBuiltin, slug)
	}
	if status != StatusActive && status != StatusDeprecated {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidDefinition, status)
	}
	current, err := r.GetObjectType(ctx, slug)
	if err != nil {
		return nil, err
	}
	return r.patchObjectType(ctx, current, store.Item{"status": string(status)}, actor)
}

func (r *Registry) patchObjectType(ctx context.Context, current *ObjectType, patch store.Item, actor string) (*ObjectType, error) {
	if actor == "" {
		actor = systemActor
	}
	patch["version"] = current.Version + 1
	patch["updatedAt"] = nowISO()
	patch["updatedBy"] = actor

	updated, err := r.store.Update(ctx, r.table(tables.KindObjectType), store.Key{"slug": current.Slug}, patch,
		&store.Condition{Equals: map[string]any{"version": current.Version}})
	if err != nil {
		r.cache.invalidate(cacheKey(tables.KindObjectType, current.Slug))
		return nil, mapWriteError(err, current.Slug)
	}

	r.cache.invalidate(cacheKey(tables.KindObjectType, current.Slug))
	var ot ObjectType
	if err := fromItem(updated, &ot); err != nil {
		return nil, err
	}
	return &ot, nil
}

// --- LinkType ---

// CreateLinkType registers a relationship definition. Source and target must
// resolve to existing, active object types.
func (r *Registry) CreateLinkType(ctx context.Context, def LinkType) (*LinkType, error) {
	if !tables.ValidSlug(def.Slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, def.Slug)
	}
	if !def.Cardinality.Known() {
		return nil, fmt.Errorf("%w: cardinality %q", ErrInvalidDefinition, def.Cardinality)
	}
	if def.ForeignKey == "" {
		return nil, fmt.Errorf("%w: link type %q declares no foreign key", ErrInvalidDefinition, def.Slug)
	}
	if def.Bidirectional && def.InverseName == "" {
		return nil, fmt.Errorf("%w: bidirectional link type %q requires inverseName", ErrInvalidDefinition, def.Slug)
	}
	for _, slug := range []string{def.SourceObjectType, def.TargetObjectType} {
		ot, err := r.GetObjectType(ctx, slug)
		if err != nil {
			return nil, err
		}
		if ot.Status != StatusActive {
			return nil, fmt.Errorf("%w: %q is not active", ErrUnknownObjectType, slug)
		}
	}
	if def.Status == "" {
		def.Status = StatusActive
	}
	stamp(&def.Version, &def.CreatedAt, &def.UpdatedAt, &def.CreatedBy, &def.UpdatedBy, def.CreatedBy)

	if err := r.putRecord(ctx, tables.KindLinkType, def, def.Slug); err != nil {
		return nil, err
	}
	r.cache.invalidate(cacheKey(tables.KindLinkType, def.Slug))
	return &def, nil
}

// GetLinkType resolves a link type by slug.
func (r *Registry) GetLinkType(ctx context.Context, slug string) (*LinkType, error) {
	key := cacheKey(tables.KindLinkType, slug)
	if v, ok := r.cache.get(key); ok {
		lt := v.(LinkType)
		return &lt, nil
	}

	item, err := r.store.Get(ctx, r.table(tables.KindLinkType), store.Key{"slug": slug})
	if err != nil {
		return nil, mapGetError(err, ErrUnknownLinkType, slug)
	}
	var lt LinkType
	if err := fromItem(item, &lt); err != nil {
		return nil, err
	}
	r.cache.set(key, lt)
	return &lt, nil
}

// SetLinkTypeStatus transitions a link type between active and deprecated.
func (r *Registry) SetLinkTypeStatus(ctx context.Context, slug string, status Status, actor string) (*LinkType, error) {
	if status != StatusActive && status != StatusDeprecated {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidDefinition, status)
	}
	current, err := r.GetLinkType(ctx, slug)
	if err != nil {
		return nil, err
	}
	if actor == "" {
		actor = systemActor
	}
	patch := store.Item{
		"status":    string(status),
		"version":   current.Version + 1,
		"updatedAt": nowISO(),
		"updatedBy": actor,
	}
	updated, err := r.store.Update(ctx, r.table(tables.KindLinkType), store.Key{"slug": slug}, patch,
		&store.Condition{Equals: map[string]any{"version": current.Version}})
	r.cache.invalidate(cacheKey(tables.KindLinkType, slug))
	if err != nil {
		return nil, mapWriteError(err, slug)
	}
	var lt LinkType
	if err := fromItem(updated, &lt); err != nil {
		return nil, err
	}
	return &lt, nil
}

// ListLinkTypesForObjectType returns the link types where the object type
// occupies the given end, via the relationship-direction secondary indexes.
func (r *Registry) ListLinkTypesForObjectType(ctx context.Context, slug string, direction Direction) ([]LinkType, error) {
	var keyAttr string
	switch direction {
	case DirectionOutgoing:
		keyAttr = "sourceObjectType"
	case DirectionIncoming:
		keyAttr = "targetObjectType"
	default:
		return nil, fmt.Errorf("%w: direction %q", ErrInvalidDefinition, direction)
	}

	var out []LinkType
	token := ""
	for {
		page, err := r.store.Query(ctx, store.QueryInput{
			Table:      r.table(tables.KindLinkType),
			Index:      tables.Index(keyAttr),
			Key:        map[string]any{keyAttr: slug},
			StartToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			var lt LinkType
			if err := fromItem(item, &lt); err != nil {
				return nil, err
			}
			out = append(out, lt)
		}
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

// --- ActionType ---

// CreateActionType registers an operation definition bound to one object type.
func (r *Registry) CreateActionType(ctx context.Context, def ActionType) (*ActionType, error) {
	if !tables.ValidSlug(def.Slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, def.Slug)
	}
	ot, err := r.GetObjectType(ctx, def.ObjectType)
	if err != nil {
		return nil, err
	}
	if errs := schema.CheckDefinition(def.Parameters); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, schema.AsError(errs))
	}
	for _, prop := range def.ModifiesProperties {
		if _, ok := ot.Properties[prop]; !ok {
			return nil, fmt.Errorf("%w: action %q modifies undeclared property %q", ErrInvalidDefinition, def.Slug, prop)
		}
	}
	if def.Status == "" {
		def.Status = StatusActive
	}
	stamp(&def.Version, &def.CreatedAt, &def.UpdatedAt, &def.CreatedBy, &def.UpdatedBy, def.CreatedBy)

	if err := r.putRecord(ctx, tables.KindActionType, def, def.Slug); err != nil {
		return nil, err
	}
	r.cache.invalidate(cacheKey(tables.KindActionType, def.Slug))
	return &def, nil
}

// GetActionType resolves an action type by slug.
func (r *Registry) GetActionType(ctx context.Context, slug string) (*ActionType, error) {
	key := cacheKey(tables.KindActionType, slug)
	if v, ok := r.cache.get(key); ok {
		at := v.(ActionType)
		return &at, nil
	}

	item, err := r.store.Get(ctx, r.table(tables.KindActionType), store.Key{"slug": slug})
	if err != nil {
		return nil, mapGetError(err, ErrUnknownActionType, slug)
	}
	var at ActionType
	if err := fromItem(item, &at); err != nil {
		return nil, err
	}
	r.cache.set(key, at)
	return &at, nil
}

// ListActionTypesForObjectType returns the actions bound to an object type.
func (r *Registry) ListActionTypesForObjectType(ctx context.Context, slug string) ([]ActionType, error) {
	var out []ActionType
	token := ""
	for {
		page, err := r.store.Query(ctx, store.QueryInput{
			Table:      r.table(tables.KindActionType),
			Index:      tables.Index("objectType"),
			Key:        map[string]any{"objectType": slug},
			StartToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			var at ActionType
			if err := fromItem(item, &at); err != nil {
				return nil, err
			}
			out = append(out, at)
		}
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

// --- Resolution ---

// ResolvePhysicalTable maps an object type slug to a physical table name.
// Registry kinds resolve to the fixed well-known tables; everything else to
// the deterministic {namespace}-{app}-{slug} mapping. Callers never hardcode
// table names.
func (r *Registry) ResolvePhysicalTable(ctx context.Context, slug string) (string, error) {
	if tables.IsRegistryKind(slug) {
		return r.table(slug), nil
	}
	ot, err := r.GetObjectType(ctx, slug)
	if err != nil {
		return "", err
	}
	return tables.Instance(r.config.Namespace, ot.App, ot.Slug), nil
}

// ForeignKeyProperties returns the properties of an object type that hold
// link foreign keys backed by a conventional {property}-index. These are the
// filterable-by-index properties of the type's instance table.
func (r *Registry) ForeignKeyProperties(ctx context.Context, slug string) ([]string, error) {
	seen := map[string]bool{}
	var out []string

	// FK on target for ONE_TO_ONE / ONE_TO_MANY.
	incoming, err := r.ListLinkTypesForObjectType(ctx, slug, DirectionIncoming)
	if err != nil {
		return nil, err
	}
	for _, lt := range incoming {
		if lt.Status == StatusActive && lt.Cardinality.ForeignKeyOnTarget() && !seen[lt.ForeignKey] {
			seen[lt.ForeignKey] = true
			out = append(out, lt.ForeignKey)
		}
	}

	// FK on source for MANY_TO_ONE. MANY_TO_MANY keys are arrays and have no index.
	outgoing, err := r.ListLinkTypesForObjectType(ctx, slug, DirectionOutgoing)
	if err != nil {
		return nil, err
	}
	for _, lt := range outgoing {
		if lt.Status == StatusActive && lt.Cardinality == ManyToOne && !seen[lt.ForeignKey] {
			seen[lt.ForeignKey] = true
			out = append(out, lt.ForeignKey)
		}
	}

	return out, nil
}

// --- helpers ---

func (r *Registry) putRecord(ctx context.Context, kind string, def any, slug string) error {
	item, err := toItem(def)
	if err != nil {
		return err
	}
	meta, _ := builtin(kind)
	if errs := schema.Validate(meta.Properties, item, false); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, schema.AsError(errs))
	}

	err = r.store.Put(ctx, r.table(kind), item, &store.Condition{NotExists: "slug"})
	if errors.Is(err, store.ErrConditionFailed) {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, slug)
	}
	return err
}

func (r *Registry) scanAll(ctx context.Context, kind string) ([]store.Item, error) {
	var out []store.Item
	token := ""
	for {
		page, err := r.store.Scan(ctx, store.ScanInput{
			Table:      r.table(kind),
			StartToken: token,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

func cacheKey(kind, slug string) string {
	return kind + "/" + slug
}

func mapGetError(err, unknown error, slug string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %q", unknown, slug)
	}
	return err
}

func mapWriteError(err error, slug string) error {
	if errors.Is(err, store.ErrConditionFailed) {
		return fmt.Errorf("%w: %q", ErrVersionConflict, slug)
	}
	return err
}
