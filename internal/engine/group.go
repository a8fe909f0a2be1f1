package engine

import (
	"context"

	"github.com/mesh-intelligence/facets/internal/resolver"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// QueryEntitiesGroupedBy runs QueryEntities without any filter on the
// grouping property and buckets the result by that property's value.
//
// Option groups come first in definition order, then groups for values that
// match no option in the order they are met, then the no-value group, which
// is always present. A list value places the entity in the group of every
// element. Grouping reads inherited values when IncludeInherited is set.
func (s *Service) QueryEntitiesGroupedBy(ctx context.Context, p types.QueryEntitiesParams, groupBy string) ([]types.GroupedEntitiesResult, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if groupBy == "" {
		return nil, types.Invalidf("A property to group by is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, p.WorkspaceID); err != nil {
		return nil, err
	}
	def, err := s.definitionIn(ctx, p.WorkspaceID, groupBy)
	if err != nil {
		return nil, err
	}

	stripped := p
	stripped.Properties = nil
	for _, f := range p.Properties {
		if f.PropertyDefinitionID != groupBy {
			stripped.Properties = append(stripped.Properties, f)
		}
	}
	matched, err := s.queryEntities(ctx, stripped)
	if err != nil {
		return nil, err
	}

	values := make(map[types.EntityType]resolvedValues)
	for t, ids := range idsByType(matched) {
		vals, err := s.resolveValues(ctx, t, ids, []string{def.ID}, p.IncludeInherited)
		if err != nil {
			return nil, err
		}
		values[t] = vals
	}

	g := newGrouper(def)
	for _, e := range matched {
		v, _ := values[e.Type].value(e.ID, def.ID)
		g.assign(e, v)
	}
	return g.result(), nil
}

// idsByType splits entity ids by type, keeping their order within a type.
func idsByType(entities []resolver.Entity) map[types.EntityType][]string {
	out := make(map[types.EntityType][]string)
	for _, e := range entities {
		out[e.Type] = append(out[e.Type], e.ID)
	}
	return out
}

// grouper accumulates entities into groups keyed by value.
type grouper struct {
	def     *types.PropertyDefinition
	order   []string
	groups  map[string]*types.GroupedEntitiesResult
	noValue *types.GroupedEntitiesResult
}

func newGrouper(def *types.PropertyDefinition) *grouper {
	g := &grouper{
		def:    def,
		groups: make(map[string]*types.GroupedEntitiesResult),
		noValue: &types.GroupedEntitiesResult{
			GroupKey:   types.NoValueGroupKey,
			GroupLabel: def.NoValueLabel(),
			Entities:   []types.EntityReference{},
		},
	}
	if def.Type.HasOptions() {
		for _, o := range def.Options {
			g.add(o.ID, o.Label)
		}
	}
	return g
}

func (g *grouper) add(key, label string) *types.GroupedEntitiesResult {
	grp := &types.GroupedEntitiesResult{GroupKey: key, GroupLabel: label, Entities: []types.EntityReference{}}
	g.groups[key] = grp
	g.order = append(g.order, key)
	return grp
}

// assign places e into the groups named by v.
func (g *grouper) assign(e resolver.Entity, v any) {
	if types.IsEmptyValue(v) {
		g.noValue.Entities = append(g.noValue.Entities, e.EntityReference)
		return
	}
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case []string:
		for _, s := range x {
			items = append(items, s)
		}
	default:
		items = []any{v}
	}

	seen := make(map[string]bool, len(items))
	placed := false
	for _, item := range items {
		if types.IsEmptyValue(item) {
			continue
		}
		grp := g.group(item)
		if seen[grp.GroupKey] {
			continue
		}
		seen[grp.GroupKey] = true
		grp.Entities = append(grp.Entities, e.EntityReference)
		placed = true
	}
	if !placed {
		g.noValue.Entities = append(g.noValue.Entities, e.EntityReference)
	}
}

// group returns the group for one scalar value, creating an ad-hoc group
// for values that name no option.
func (g *grouper) group(item any) *types.GroupedEntitiesResult {
	key := groupKey(item)
	if grp, ok := g.groups[key]; ok {
		return grp
	}
	if g.def.Type.HasOptions() {
		if o, ok := g.def.Option(key); ok {
			if grp, ok := g.groups[o.ID]; ok {
				return grp
			}
		}
	}
	return g.add(key, key)
}

func (g *grouper) result() []types.GroupedEntitiesResult {
	out := make([]types.GroupedEntitiesResult, 0, len(g.order)+1)
	for _, key := range g.order {
		out = append(out, *g.groups[key])
	}
	return append(out, *g.noValue)
}
