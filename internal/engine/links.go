package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/internal/resolver"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// DefaultSearchLimit caps SearchLinkableEntities when no limit is given.
const DefaultSearchLimit = 20

// SearchParams selects linkable entities by title.
type SearchParams struct {
	WorkspaceID string             `json:"workspace_id"`
	Query       string             `json:"query"`
	EntityTypes []types.EntityType `json:"entity_types,omitempty"`
	Limit       int                `json:"limit,omitempty"`
}

// CreateEntityLink links source to target. Both must live in the caller's
// workspace; a pair can be linked once in each direction.
func (s *Service) CreateEntityLink(ctx context.Context, source, target types.EntityKey) (*types.EntityLink, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if source == target {
		return nil, types.ErrSelfReference
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	src, err := s.authorizeEntity(ctx, source)
	if err != nil {
		return nil, err
	}
	targetWS, err := s.resolver.ResolveWorkspace(ctx, target)
	if err != nil {
		return nil, err
	}
	if targetWS != src.WorkspaceID {
		return nil, types.ErrCrossWorkspace
	}

	link := &types.EntityLink{
		SourceEntityType: source.Type,
		SourceEntityID:   source.ID,
		TargetEntityType: target.Type,
		TargetEntityID:   target.ID,
		WorkspaceID:      src.WorkspaceID,
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	s.logger.Debug("entity link created",
		zap.String("workspace_id", link.WorkspaceID),
		zap.Stringer("source", source),
		zap.Stringer("target", target),
	)
	return link, nil
}

// RemoveEntityLink deletes the link from source to target. Removing a link
// that does not exist succeeds.
func (s *Service) RemoveEntityLink(ctx context.Context, source, target types.EntityKey) error {
	if _, err := s.authorizeEntity(ctx, source); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	if err := s.links.DeleteLink(ctx, source, target); err != nil {
		return err
	}
	s.logger.Debug("entity link removed", zap.Stringer("source", source), zap.Stringer("target", target))
	return nil
}

// GetEntityLinks returns the raw outgoing and incoming edges of an entity.
func (s *Service) GetEntityLinks(ctx context.Context, key types.EntityKey) (*types.EntityLinks, error) {
	if _, err := s.authorizeEntity(ctx, key); err != nil {
		return nil, err
	}
	out, err := s.links.Outgoing(ctx, key)
	if err != nil {
		return nil, err
	}
	in, err := s.links.Incoming(ctx, key)
	if err != nil {
		return nil, err
	}
	return &types.EntityLinks{Outgoing: out, Incoming: in}, nil
}

// GetLinkedEntities resolves the targets of an entity's outgoing links.
// Targets that no longer resolve are dropped.
func (s *Service) GetLinkedEntities(ctx context.Context, key types.EntityKey) ([]types.EntityReference, error) {
	e, err := s.authorizeEntity(ctx, key)
	if err != nil {
		return nil, err
	}
	links, err := s.links.Outgoing(ctx, key)
	if err != nil {
		return nil, err
	}
	keys := make([]types.EntityKey, len(links))
	for i, l := range links {
		keys[i] = l.Target()
	}
	return s.describeAll(ctx, e.WorkspaceID, keys), nil
}

// GetLinkingEntities resolves the sources of an entity's incoming links.
// Sources that no longer resolve are dropped.
func (s *Service) GetLinkingEntities(ctx context.Context, key types.EntityKey) ([]types.EntityReference, error) {
	e, err := s.authorizeEntity(ctx, key)
	if err != nil {
		return nil, err
	}
	links, err := s.links.Incoming(ctx, key)
	if err != nil {
		return nil, err
	}
	keys := make([]types.EntityKey, len(links))
	for i, l := range links {
		keys[i] = l.Source()
	}
	return s.describeAll(ctx, e.WorkspaceID, keys), nil
}

// describeAll resolves keys to references, skipping any that fail to
// resolve or that belong to another workspace.
func (s *Service) describeAll(ctx context.Context, workspaceID string, keys []types.EntityKey) []types.EntityReference {
	refs := make([]types.EntityReference, 0, len(keys))
	for _, k := range keys {
		e, err := s.resolver.Lookup(ctx, k)
		if err != nil {
			s.logger.Debug("dropping unresolvable linked entity", zap.Stringer("entity", k), zap.Error(err))
			continue
		}
		if e.WorkspaceID != workspaceID {
			continue
		}
		refs = append(refs, e.EntityReference)
	}
	return refs
}

// SearchLinkableEntities finds entities whose title contains the query,
// case-insensitively. Types are searched in order and share one limit:
// each type only fills what earlier types left, so a prolific early type
// can leave nothing for later ones.
func (s *Service) SearchLinkableEntities(ctx context.Context, p SearchParams) ([]types.EntityReference, error) {
	if err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, p.WorkspaceID); err != nil {
		return nil, err
	}
	order := p.EntityTypes
	if len(order) == 0 {
		order = types.AllEntityTypes
	}
	for _, t := range order {
		if !t.Valid() {
			return nil, types.Invalidf("Unknown entity type %q", t)
		}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(strings.TrimSpace(p.Query))

	results := []types.EntityReference{}
	for _, t := range order {
		budget := limit - len(results)
		if budget <= 0 {
			break
		}
		candidates, err := s.resolver.ListCandidates(ctx, t, p.WorkspaceID, types.Scope{Kind: types.ScopeAll})
		if err != nil {
			return nil, err
		}
		results = append(results, matchTitles(candidates, needle, budget)...)
	}
	return results, nil
}

func matchTitles(candidates []resolver.Entity, needle string, budget int) []types.EntityReference {
	var out []types.EntityReference
	for _, c := range candidates {
		if len(out) >= budget {
			break
		}
		if needle == "" || strings.Contains(strings.ToLower(c.Title), needle) {
			out = append(out, c.EntityReference)
		}
	}
	return out
}
