package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// EntityProperty is one stored value after canonicalization.
type EntityProperty struct {
	EntityType           types.EntityType `json:"entity_type"`
	EntityID             string           `json:"entity_id"`
	PropertyDefinitionID string           `json:"property_definition_id"`
	Value                any              `json:"value"`
}

// SetEntityProperty validates value against the definition's type and
// stores its canonical form on the entity. The definition must belong to the
// entity's workspace.
func (s *Service) SetEntityProperty(ctx context.Context, key types.EntityKey, propertyID string, value any) (*EntityProperty, error) {
	e, err := s.authorizeEntity(ctx, key)
	if err != nil {
		return nil, err
	}
	def, err := s.definitionIn(ctx, e.WorkspaceID, propertyID)
	if err != nil {
		return nil, err
	}
	canonical, err := types.CanonicalValue(def, value)
	if err != nil {
		return nil, err
	}
	if err := s.props.SetValue(ctx, key, def.ID, canonical); err != nil {
		return nil, err
	}
	s.logger.Debug("entity property set",
		zap.String("workspace_id", e.WorkspaceID),
		zap.Stringer("entity", key),
		zap.String("property_id", def.ID),
	)
	return &EntityProperty{
		EntityType:           key.Type,
		EntityID:             key.ID,
		PropertyDefinitionID: def.ID,
		Value:                canonical,
	}, nil
}

// RemoveEntityProperty deletes a value. Removing an absent value succeeds.
func (s *Service) RemoveEntityProperty(ctx context.Context, key types.EntityKey, propertyID string) error {
	e, err := s.authorizeEntity(ctx, key)
	if err != nil {
		return err
	}
	if propertyID == "" {
		return types.Invalidf("Property definition id is required")
	}
	if err := s.props.RemoveValue(ctx, key, propertyID); err != nil {
		return err
	}
	s.logger.Debug("entity property removed",
		zap.String("workspace_id", e.WorkspaceID),
		zap.Stringer("entity", key),
		zap.String("property_id", propertyID),
	)
	return nil
}

// GetEntityProperties returns the direct values of one entity keyed by
// property definition id.
func (s *Service) GetEntityProperties(ctx context.Context, key types.EntityKey) (map[string]any, error) {
	if _, err := s.authorizeEntity(ctx, key); err != nil {
		return nil, err
	}
	return s.props.Values(ctx, key)
}

// GetEntitiesProperties returns direct values for many entities of one type,
// keyed by entity id. Every entity must resolve to a workspace the caller
// belongs to; entities that no longer exist are omitted.
func (s *Service) GetEntitiesProperties(ctx context.Context, entityType types.EntityType, ids []string) (map[string]map[string]any, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if !entityType.Valid() {
		return nil, types.Invalidf("Unknown entity type %q", entityType)
	}
	authorized := make(map[string]bool)
	var found []string
	for _, id := range ids {
		e, err := s.resolver.Lookup(ctx, types.EntityKey{Type: entityType, ID: id})
		if err != nil {
			if types.Kind(err) == types.ErrNotFound {
				continue
			}
			return nil, err
		}
		if !authorized[e.WorkspaceID] {
			if _, err := s.guard.Authorize(ctx, e.WorkspaceID); err != nil {
				return nil, err
			}
			authorized[e.WorkspaceID] = true
		}
		found = append(found, id)
	}
	vals, err := s.props.BatchValues(ctx, entityType, found, nil)
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		if vals[id] == nil {
			vals[id] = map[string]any{}
		}
	}
	return vals, nil
}

// GetEntityPropertiesWithInheritance returns the entity's direct values
// merged with values inherited from entities linking to it. Direct values
// always win; inherited values hidden on the entity are left out.
func (s *Service) GetEntityPropertiesWithInheritance(ctx context.Context, key types.EntityKey) (map[string]any, error) {
	if _, err := s.authorizeEntity(ctx, key); err != nil {
		return nil, err
	}
	resolved, err := s.resolveValues(ctx, key.Type, []string{key.ID}, nil, true)
	if err != nil {
		return nil, err
	}
	hidden, err := s.props.HiddenInherited(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	for pid, v := range resolved.inherited[key.ID] {
		if !hidden[pid] {
			out[pid] = v
		}
	}
	for pid, v := range resolved.direct[key.ID] {
		out[pid] = v
	}
	return out, nil
}

// SetInheritedPropertyVisibility shows or hides the inherited value of one
// property on an entity. It does not affect direct values, filtering or
// grouping.
func (s *Service) SetInheritedPropertyVisibility(ctx context.Context, key types.EntityKey, propertyID string, visible bool) error {
	e, err := s.authorizeEntity(ctx, key)
	if err != nil {
		return err
	}
	if _, err := s.definitionIn(ctx, e.WorkspaceID, propertyID); err != nil {
		return err
	}
	if err := s.props.SetInheritedHidden(ctx, key, propertyID, !visible); err != nil {
		return err
	}
	s.logger.Debug("inherited visibility set",
		zap.Stringer("entity", key),
		zap.String("property_id", propertyID),
		zap.Bool("visible", visible),
	)
	return nil
}
