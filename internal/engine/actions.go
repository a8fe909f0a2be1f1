package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/types"
)

const tracerName = "facets.engine"

// Actions exposes every Service operation as a types.Result. Errors and
// panics never cross this boundary; they become the result's error message.
type Actions struct {
	svc    *Service
	logger *zap.Logger
}

// NewActions wraps svc.
func NewActions(svc *Service) *Actions {
	return &Actions{svc: svc, logger: svc.logger}
}

// call runs fn inside a span named after op and converts its outcome.
func call[T any](ctx context.Context, a *Actions, op string, attrs []attribute.KeyValue, fn func(context.Context) (T, error)) (res types.Result[T]) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, tracerName+"/"+op, trace.WithAttributes(attrs...))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s panicked: %v", types.ErrStore, op, r)
			a.fail(span, op, attrs, err)
			res = types.Fail[T](err)
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		a.fail(span, op, attrs, err)
		return types.Fail[T](err)
	}
	return types.OK(v)
}

func (a *Actions) fail(span trace.Span, op string, attrs []attribute.KeyValue, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, types.Message(err))
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	for _, kv := range attrs {
		fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
	}
	a.logger.Warn("engine call failed", fields...)
}

func workspaceAttr(id string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("workspace_id", id)}
}

func entityAttr(key types.EntityKey) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("entity_type", string(key.Type)),
		attribute.String("entity_id", key.ID),
	}
}

func propertyAttr(id string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("property_id", id)}
}

// done adapts an error-only operation to a boolean result.
func done(err error) (bool, error) {
	if err != nil {
		return false, err
	}
	return true, nil
}

// Definitions

// CreatePropertyDefinition creates a definition and warns about similar names.
func (a *Actions) CreatePropertyDefinition(ctx context.Context, p CreateDefinitionParams) types.Result[*DefinitionCreated] {
	return call(ctx, a, "createPropertyDefinition", workspaceAttr(p.WorkspaceID), func(ctx context.Context) (*DefinitionCreated, error) {
		return a.svc.CreatePropertyDefinition(ctx, p)
	})
}

// GetPropertyDefinition returns one definition with its options.
func (a *Actions) GetPropertyDefinition(ctx context.Context, id string) types.Result[*types.PropertyDefinition] {
	return call(ctx, a, "getPropertyDefinition", propertyAttr(id), func(ctx context.Context) (*types.PropertyDefinition, error) {
		return a.svc.GetPropertyDefinition(ctx, id)
	})
}

// GetPropertyDefinitions lists a workspace's definitions.
func (a *Actions) GetPropertyDefinitions(ctx context.Context, workspaceID string) types.Result[[]types.PropertyDefinition] {
	return call(ctx, a, "getPropertyDefinitions", workspaceAttr(workspaceID), func(ctx context.Context) ([]types.PropertyDefinition, error) {
		return a.svc.GetPropertyDefinitions(ctx, workspaceID)
	})
}

// UpdatePropertyDefinition applies the non-nil fields of u.
func (a *Actions) UpdatePropertyDefinition(ctx context.Context, id string, u types.PropertyDefinitionUpdate) types.Result[*types.PropertyDefinition] {
	return call(ctx, a, "updatePropertyDefinition", propertyAttr(id), func(ctx context.Context) (*types.PropertyDefinition, error) {
		return a.svc.UpdatePropertyDefinition(ctx, id, u)
	})
}

// DeletePropertyDefinition deletes a definition and its values.
func (a *Actions) DeletePropertyDefinition(ctx context.Context, id string) types.Result[bool] {
	return call(ctx, a, "deletePropertyDefinition", propertyAttr(id), func(ctx context.Context) (bool, error) {
		return done(a.svc.DeletePropertyDefinition(ctx, id))
	})
}

// MergePropertyOptions adds the options whose labels are new.
func (a *Actions) MergePropertyOptions(ctx context.Context, id string, options []types.PropertyOption) types.Result[*types.PropertyDefinition] {
	return call(ctx, a, "mergePropertyOptions", propertyAttr(id), func(ctx context.Context) (*types.PropertyDefinition, error) {
		return a.svc.MergePropertyOptions(ctx, id, options)
	})
}

// AddPropertyOption appends one option.
func (a *Actions) AddPropertyOption(ctx context.Context, id string, option types.PropertyOption) types.Result[*types.PropertyDefinition] {
	return call(ctx, a, "addPropertyOption", propertyAttr(id), func(ctx context.Context) (*types.PropertyDefinition, error) {
		return a.svc.AddPropertyOption(ctx, id, option)
	})
}

// UpdatePropertyOption changes an option's label or color.
func (a *Actions) UpdatePropertyOption(ctx context.Context, id, optionID string, u OptionUpdate) types.Result[*types.PropertyDefinition] {
	return call(ctx, a, "updatePropertyOption", propertyAttr(id), func(ctx context.Context) (*types.PropertyDefinition, error) {
		return a.svc.UpdatePropertyOption(ctx, id, optionID, u)
	})
}

// RemovePropertyOption removes one option.
func (a *Actions) RemovePropertyOption(ctx context.Context, id, optionID string) types.Result[*types.PropertyDefinition] {
	return call(ctx, a, "removePropertyOption", propertyAttr(id), func(ctx context.Context) (*types.PropertyDefinition, error) {
		return a.svc.RemovePropertyOption(ctx, id, optionID)
	})
}

// Properties

// SetEntityProperty validates and stores one value.
func (a *Actions) SetEntityProperty(ctx context.Context, key types.EntityKey, propertyID string, value any) types.Result[*EntityProperty] {
	return call(ctx, a, "setEntityProperty", entityAttr(key), func(ctx context.Context) (*EntityProperty, error) {
		return a.svc.SetEntityProperty(ctx, key, propertyID, value)
	})
}

// RemoveEntityProperty deletes one value; absent values succeed.
func (a *Actions) RemoveEntityProperty(ctx context.Context, key types.EntityKey, propertyID string) types.Result[bool] {
	return call(ctx, a, "removeEntityProperty", entityAttr(key), func(ctx context.Context) (bool, error) {
		return done(a.svc.RemoveEntityProperty(ctx, key, propertyID))
	})
}

// GetEntityProperties returns an entity's own values.
func (a *Actions) GetEntityProperties(ctx context.Context, key types.EntityKey) types.Result[map[string]any] {
	return call(ctx, a, "getEntityProperties", entityAttr(key), func(ctx context.Context) (map[string]any, error) {
		return a.svc.GetEntityProperties(ctx, key)
	})
}

// GetEntitiesProperties returns the own values of several entities of one type.
func (a *Actions) GetEntitiesProperties(ctx context.Context, entityType types.EntityType, ids []string) types.Result[map[string]map[string]any] {
	attrs := []attribute.KeyValue{attribute.String("entity_type", string(entityType)), attribute.Int("entities", len(ids))}
	return call(ctx, a, "getEntitiesProperties", attrs, func(ctx context.Context) (map[string]map[string]any, error) {
		return a.svc.GetEntitiesProperties(ctx, entityType, ids)
	})
}

// GetEntityPropertiesWithInheritance returns own values merged with values inherited through incoming links.
func (a *Actions) GetEntityPropertiesWithInheritance(ctx context.Context, key types.EntityKey) types.Result[map[string]any] {
	return call(ctx, a, "getEntityPropertiesWithInheritance", entityAttr(key), func(ctx context.Context) (map[string]any, error) {
		return a.svc.GetEntityPropertiesWithInheritance(ctx, key)
	})
}

// SetInheritedPropertyVisibility shows or hides one inherited property on an entity.
func (a *Actions) SetInheritedPropertyVisibility(ctx context.Context, key types.EntityKey, propertyID string, visible bool) types.Result[bool] {
	return call(ctx, a, "setInheritedPropertyVisibility", entityAttr(key), func(ctx context.Context) (bool, error) {
		return done(a.svc.SetInheritedPropertyVisibility(ctx, key, propertyID, visible))
	})
}

// Links

// CreateEntityLink links source to target.
func (a *Actions) CreateEntityLink(ctx context.Context, source, target types.EntityKey) types.Result[*types.EntityLink] {
	return call(ctx, a, "createEntityLink", entityAttr(source), func(ctx context.Context) (*types.EntityLink, error) {
		return a.svc.CreateEntityLink(ctx, source, target)
	})
}

// RemoveEntityLink removes the link from source to target; absent links succeed.
func (a *Actions) RemoveEntityLink(ctx context.Context, source, target types.EntityKey) types.Result[bool] {
	return call(ctx, a, "removeEntityLink", entityAttr(source), func(ctx context.Context) (bool, error) {
		return done(a.svc.RemoveEntityLink(ctx, source, target))
	})
}

// GetEntityLinks returns an entity's outgoing and incoming links.
func (a *Actions) GetEntityLinks(ctx context.Context, key types.EntityKey) types.Result[*types.EntityLinks] {
	return call(ctx, a, "getEntityLinks", entityAttr(key), func(ctx context.Context) (*types.EntityLinks, error) {
		return a.svc.GetEntityLinks(ctx, key)
	})
}

// GetLinkedEntities describes the targets of an entity's outgoing links.
func (a *Actions) GetLinkedEntities(ctx context.Context, key types.EntityKey) types.Result[[]types.EntityReference] {
	return call(ctx, a, "getLinkedEntities", entityAttr(key), func(ctx context.Context) ([]types.EntityReference, error) {
		return a.svc.GetLinkedEntities(ctx, key)
	})
}

// GetLinkingEntities describes the sources of an entity's incoming links.
func (a *Actions) GetLinkingEntities(ctx context.Context, key types.EntityKey) types.Result[[]types.EntityReference] {
	return call(ctx, a, "getLinkingEntities", entityAttr(key), func(ctx context.Context) ([]types.EntityReference, error) {
		return a.svc.GetLinkingEntities(ctx, key)
	})
}

// SearchLinkableEntities finds link targets by title.
func (a *Actions) SearchLinkableEntities(ctx context.Context, p SearchParams) types.Result[[]types.EntityReference] {
	return call(ctx, a, "searchLinkableEntities", workspaceAttr(p.WorkspaceID), func(ctx context.Context) ([]types.EntityReference, error) {
		return a.svc.SearchLinkableEntities(ctx, p)
	})
}

// Query

// QueryEntities returns the entities matching every filter.
func (a *Actions) QueryEntities(ctx context.Context, p types.QueryEntitiesParams) types.Result[[]types.EntityReference] {
	return call(ctx, a, "queryEntities", workspaceAttr(p.WorkspaceID), func(ctx context.Context) ([]types.EntityReference, error) {
		return a.svc.QueryEntities(ctx, p)
	})
}

// QueryEntitiesGroupedBy groups the matching entities by one property.
func (a *Actions) QueryEntitiesGroupedBy(ctx context.Context, p types.QueryEntitiesParams, groupBy string) types.Result[[]types.GroupedEntitiesResult] {
	attrs := append(workspaceAttr(p.WorkspaceID), attribute.String("group_by", groupBy))
	return call(ctx, a, "queryEntitiesGroupedBy", attrs, func(ctx context.Context) ([]types.GroupedEntitiesResult, error) {
		return a.svc.QueryEntitiesGroupedBy(ctx, p, groupBy)
	})
}
