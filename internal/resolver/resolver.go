// Package resolver maps (entity type, entity id) pairs to workspaces and
// display references. Each entity type has one Handler; Registry dispatches
// to it so callers never switch on the entity type themselves.
package resolver

import (
	"context"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Entity is a resolved entity: its display reference and owning workspace.
type Entity struct {
	types.EntityReference
	WorkspaceID string
}

// Handler resolves entities of one type.
type Handler interface {
	// Type is the entity type the handler serves.
	Type() types.EntityType

	// Lookup resolves one entity. Missing records return ErrNotFound.
	Lookup(ctx context.Context, id string) (Entity, error)

	// ListCandidates lists the entities of a workspace within scope, in
	// store order.
	ListCandidates(ctx context.Context, workspaceID string, scope types.Scope) ([]Entity, error)
}

// Registry dispatches to the handler registered for each entity type.
type Registry struct {
	handlers map[types.EntityType]Handler
}

// NewRegistry registers a handler for every entity type over records.
func NewRegistry(records types.RecordStore) *Registry {
	r := &Registry{handlers: make(map[types.EntityType]Handler)}
	r.Register(blockHandler{records})
	r.Register(taskHandler{records})
	r.Register(subtaskHandler{records})
	r.Register(timelineEventHandler{records})
	r.Register(tableRowHandler{records})
	return r
}

// Register adds or replaces the handler for h.Type().
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Handler returns the handler for t, or a validation error for unknown types.
func (r *Registry) Handler(t types.EntityType) (Handler, error) {
	h, ok := r.handlers[t]
	if !ok {
		return nil, types.Invalidf("Unknown entity type %q", t)
	}
	return h, nil
}

// Lookup resolves key through its type's handler.
func (r *Registry) Lookup(ctx context.Context, key types.EntityKey) (Entity, error) {
	h, err := r.Handler(key.Type)
	if err != nil {
		return Entity{}, err
	}
	if key.ID == "" {
		return Entity{}, types.Invalidf("Entity id is required")
	}
	return h.Lookup(ctx, key.ID)
}

// ResolveWorkspace returns the workspace key belongs to.
func (r *Registry) ResolveWorkspace(ctx context.Context, key types.EntityKey) (string, error) {
	e, err := r.Lookup(ctx, key)
	if err != nil {
		return "", err
	}
	return e.WorkspaceID, nil
}

// ListCandidates lists entities of type t in a workspace within scope.
func (r *Registry) ListCandidates(ctx context.Context, t types.EntityType, workspaceID string, scope types.Scope) ([]Entity, error) {
	h, err := r.Handler(t)
	if err != nil {
		return nil, err
	}
	return h.ListCandidates(ctx, workspaceID, scope)
}
