// Package links resolves and traverses relationships between object-type
// instances according to link-type cardinality and bidirectionality rules.
package links

import (
	"context"
	"errors"
	"sort"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/store"
)

// Resolver traverses link types for a given instance. Link integrity is
// eventually consistent: a reference whose target no longer exists is
// reported in-band as a broken link, never as an error.
type Resolver struct {
	engine   *engine.Engine
	registry *registry.Registry
}

// New creates a Resolver sharing the engine's registry.
func New(eng *engine.Engine) *Resolver {
	return &Resolver{engine: eng, registry: eng.Registry()}
}

// BrokenLink reports a dangling foreign key discovered during resolution.
type BrokenLink struct {
	LinkType   string `json:"linkType"`
	ForeignKey string `json:"foreignKey"`
	MissingID  string `json:"missingId"`
}

// Resolution is the resolved far side of one link type for one instance.
type Resolution struct {
	LinkType registry.LinkType  `json:"linkType"`
	Targets  []*engine.Instance `json:"targets"`
	Broken   []BrokenLink       `json:"broken,omitempty"`
}

// ResolveOutgoing resolves every active link type where the instance's
// object type is the source. Multi-target results are ordered by createdAt
// ascending.
func (r *Resolver) ResolveOutgoing(ctx context.Context, objectTypeSlug, instanceID string) ([]Resolution, error) {
	self, err := r.engine.GetItem(ctx, objectTypeSlug, instanceID)
	if err != nil {
		return nil, err
	}

	linkTypes, err := r.registry.ListLinkTypesForObjectType(ctx, objectTypeSlug, registry.DirectionOutgoing)
	if err != nil {
		return nil, err
	}

	var out []Resolution
	for _, lt := range linkTypes {
		if lt.Status != registry.StatusActive {
			continue
		}
		res := Resolution{LinkType: lt}
		switch {
		case lt.Cardinality.ForeignKeyOnTarget():
			// The "one" side: every target instance carries this id in its
			// foreign-key property.
			res.Targets, err = r.collectByForeignKey(ctx, lt.TargetObjectType, lt.ForeignKey, instanceID)
			if err != nil {
				return nil, err
			}
		case lt.Cardinality == registry.ManyToOne:
			if err := r.followReference(ctx, &res, self.Properties[lt.ForeignKey], lt.TargetObjectType, lt); err != nil {
				return nil, err
			}
		case lt.Cardinality == registry.ManyToMany:
			for _, ref := range idList(self.Properties[lt.ForeignKey]) {
				if err := r.followReference(ctx, &res, ref, lt.TargetObjectType, lt); err != nil {
					return nil, err
				}
			}
		}
		sortByCreatedAt(res.Targets)
		out = append(out, res)
	}
	return out, nil
}

// ResolveIncoming resolves active link types where the instance's object type
// is the target. Only bidirectional link types are traversable backwards;
// unidirectional ones are hidden from incoming resolution.
func (r *Resolver) ResolveIncoming(ctx context.Context, objectTypeSlug, instanceID string) ([]Resolution, error) {
	self, err := r.engine.GetItem(ctx, objectTypeSlug, instanceID)
	if err != nil {
		return nil, err
	}

	linkTypes, err := r.registry.ListLinkTypesForObjectType(ctx, objectTypeSlug, registry.DirectionIncoming)
	if err != nil {
		return nil, err
	}

	var out []Resolution
	for _, lt := range linkTypes {
		if lt.Status != registry.StatusActive || !lt.Bidirectional {
			continue
		}
		res := Resolution{LinkType: lt}
		switch {
		case lt.Cardinality.ForeignKeyOnTarget():
			// This instance carries the source reference.
			if err := r.followReference(ctx, &res, self.Properties[lt.ForeignKey], lt.SourceObjectType, lt); err != nil {
				return nil, err
			}
		case lt.Cardinality == registry.ManyToOne:
			res.Targets, err = r.collectByForeignKey(ctx, lt.SourceObjectType, lt.ForeignKey, instanceID)
			if err != nil {
				return nil, err
			}
		case lt.Cardinality == registry.ManyToMany:
			// Id arrays have no index; membership is checked client-side.
			res.Targets, err = r.collectByMembership(ctx, lt.SourceObjectType, lt.ForeignKey, instanceID)
			if err != nil {
				return nil, err
			}
		}
		sortByCreatedAt(res.Targets)
		out = append(out, res)
	}
	return out, nil
}

// followReference fetches one referenced instance, recording a broken link
// when the reference dangles. Only the dangling case stays in-band; any
// other store failure propagates.
func (r *Resolver) followReference(ctx context.Context, res *Resolution, ref any, farType string, lt registry.LinkType) error {
	id, ok := ref.(string)
	if !ok || id == "" {
		return nil
	}
	inst, err := r.engine.GetItem(ctx, farType, id)
	if errors.Is(err, store.ErrNotFound) {
		res.Broken = append(res.Broken, BrokenLink{
			LinkType:   lt.Slug,
			ForeignKey: lt.ForeignKey,
			MissingID:  id,
		})
		return nil
	}
	if err != nil {
		return err
	}
	res.Targets = append(res.Targets, inst)
	return nil
}

// collectByForeignKey gathers every instance of slug whose foreign-key
// property equals id, paging through the foreign-key index.
func (r *Resolver) collectByForeignKey(ctx context.Context, slug, foreignKey, id string) ([]*engine.Instance, error) {
	var out []*engine.Instance
	token := ""
	for {
		page, err := r.engine.ListItems(ctx, slug, engine.ListOptions{
			Filter:    map[string]any{foreignKey: id},
			NextToken: token,
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

// collectByMembership gathers every instance of slug whose foreign-key id
// array contains id.
func (r *Resolver) collectByMembership(ctx context.Context, slug, foreignKey, id string) ([]*engine.Instance, error) {
	var out []*engine.Instance
	token := ""
	for {
		page, err := r.engine.ListItems(ctx, slug, engine.ListOptions{NextToken: token})
		if err != nil {
			return nil, err
		}
		for _, inst := range page.Items {
			for _, ref := range idList(inst.Properties[foreignKey]) {
				if ref == id {
					out = append(out, inst)
					break
				}
			}
		}
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

func idList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, elem := range arr {
		if s, ok := elem.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortByCreatedAt(items []*engine.Instance) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt < items[j].CreatedAt
	})
}
