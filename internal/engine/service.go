// Package engine implements workspace-scoped property definitions, typed
// entity property values, the entity link graph, single-hop property
// inheritance along links, and the filter/group query engine.
//
// Service exposes every operation in (T, error) form. Actions wraps the same
// operations in types.Result values for callers that want the {data}|{error}
// envelope.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/internal/access"
	"github.com/mesh-intelligence/facets/internal/resolver"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// Stores bundles the persistence the engine depends on.
type Stores struct {
	Definitions types.DefinitionStore
	Properties  types.PropertyStore
	Links       types.LinkStore
	Members     types.MembershipStore
	Records     types.RecordStore
}

// Service runs engine operations on behalf of the caller carried in the
// context (see access.WithCaller).
type Service struct {
	defs     types.DefinitionStore
	props    types.PropertyStore
	links    types.LinkStore
	resolver *resolver.Registry
	guard    *access.Guard
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver replaces the entity resolver built from Stores.Records.
func WithResolver(r *resolver.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// New creates a Service over stores.
func New(stores Stores, opts ...Option) *Service {
	s := &Service{
		defs:   stores.Definitions,
		props:  stores.Properties,
		links:  stores.Links,
		guard:  access.NewGuard(stores.Members),
		logger: zap.NewNop(),
	}
	if stores.Records != nil {
		s.resolver = resolver.NewRegistry(stores.Records)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireCaller fails with ErrUnauthorized before any lookup when ctx
// carries no caller.
func requireCaller(ctx context.Context) error {
	if access.CallerFrom(ctx) == "" {
		return types.ErrUnauthorized
	}
	return nil
}

// authorizeEntity resolves key's workspace and authorizes the caller for it.
func (s *Service) authorizeEntity(ctx context.Context, key types.EntityKey) (resolver.Entity, error) {
	if err := requireCaller(ctx); err != nil {
		return resolver.Entity{}, err
	}
	if err := key.Validate(); err != nil {
		return resolver.Entity{}, err
	}
	e, err := s.resolver.Lookup(ctx, key)
	if err != nil {
		return resolver.Entity{}, err
	}
	if _, err := s.guard.Authorize(ctx, e.WorkspaceID); err != nil {
		return resolver.Entity{}, err
	}
	return e, nil
}

// authorizeDefinition loads a definition and authorizes the caller for its
// workspace.
func (s *Service) authorizeDefinition(ctx context.Context, id string) (*types.PropertyDefinition, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	def, err := s.defs.Definition(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, def.WorkspaceID); err != nil {
		return nil, err
	}
	return def, nil
}

// definitionIn loads a definition and requires it to belong to workspaceID.
// Definitions of other workspaces are reported as not found.
func (s *Service) definitionIn(ctx context.Context, workspaceID, id string) (*types.PropertyDefinition, error) {
	if id == "" {
		return nil, types.Invalidf("Property definition id is required")
	}
	def, err := s.defs.Definition(ctx, id)
	if err != nil {
		return nil, err
	}
	if def.WorkspaceID != workspaceID {
		return nil, types.NotFoundf("Property definition not found")
	}
	return def, nil
}
