package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/internal/resolver"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// QueryEntities lists the entities of a workspace that match every filter.
// Results follow the requested type order, then store order within a type.
// A listing failure for any type fails the whole query.
func (s *Service) QueryEntities(ctx context.Context, p types.QueryEntitiesParams) ([]types.EntityReference, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, p.WorkspaceID); err != nil {
		return nil, err
	}
	matched, err := s.queryEntities(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]types.EntityReference, len(matched))
	for i, e := range matched {
		out[i] = e.EntityReference
	}
	return out, nil
}

// queryEntities runs a validated, authorized query.
func (s *Service) queryEntities(ctx context.Context, p types.QueryEntitiesParams) ([]resolver.Entity, error) {
	defs, err := s.filterDefinitions(ctx, p.WorkspaceID, p.Properties)
	if err != nil {
		return nil, err
	}
	scope := p.ResolvedScope()

	results := []resolver.Entity{}
	for _, t := range p.Types() {
		candidates, err := s.resolver.ListCandidates(ctx, t, p.WorkspaceID, scope)
		if err != nil {
			return nil, fmt.Errorf("listing %s candidates: %w", t, err)
		}
		kept, err := s.filterByProperties(ctx, t, candidates, p.Properties, defs, p.IncludeInherited)
		if err != nil {
			return nil, err
		}
		results = append(results, kept...)
	}
	s.logger.Debug("entities queried",
		zap.String("workspace_id", p.WorkspaceID),
		zap.Int("filters", len(p.Properties)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// filterDefinitions loads the definition of every filtered property. Each
// must belong to the workspace.
func (s *Service) filterDefinitions(ctx context.Context, workspaceID string, filters []types.PropertyFilter) (map[string]*types.PropertyDefinition, error) {
	defs := make(map[string]*types.PropertyDefinition, len(filters))
	for _, f := range filters {
		if _, ok := defs[f.PropertyDefinitionID]; ok {
			continue
		}
		def, err := s.definitionIn(ctx, workspaceID, f.PropertyDefinitionID)
		if err != nil {
			return nil, err
		}
		defs[def.ID] = def
	}
	return defs, nil
}

// filterByProperties keeps the candidates that satisfy every filter.
func (s *Service) filterByProperties(ctx context.Context, t types.EntityType, candidates []resolver.Entity, filters []types.PropertyFilter, defs map[string]*types.PropertyDefinition, includeInherited bool) ([]resolver.Entity, error) {
	if len(filters) == 0 || len(candidates) == 0 {
		return candidates, nil
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	propertyIDs := make([]string, 0, len(defs))
	for id := range defs {
		propertyIDs = append(propertyIDs, id)
	}
	values, err := s.resolveValues(ctx, t, ids, propertyIDs, includeInherited)
	if err != nil {
		return nil, err
	}

	kept := make([]resolver.Entity, 0, len(candidates))
	for _, c := range candidates {
		if matchesAll(c.ID, values, filters, defs) {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func matchesAll(id string, values resolvedValues, filters []types.PropertyFilter, defs map[string]*types.PropertyDefinition) bool {
	for _, f := range filters {
		v, present := values.value(id, f.PropertyDefinitionID)
		if !matchesFilter(defs[f.PropertyDefinitionID], v, present, f) {
			return false
		}
	}
	return true
}
