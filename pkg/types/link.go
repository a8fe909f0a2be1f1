package types

import "time"

// EntityLink is a directed "mentions/references" edge between two entities of
// the same workspace. Links are never updated in place.
type EntityLink struct {
	ID               string     `json:"id"`
	SourceEntityType EntityType `json:"source_entity_type"`
	SourceEntityID   string     `json:"source_entity_id"`
	TargetEntityType EntityType `json:"target_entity_type"`
	TargetEntityID   string     `json:"target_entity_id"`
	WorkspaceID      string     `json:"workspace_id"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Source returns the key of the link's source entity.
func (l EntityLink) Source() EntityKey {
	return EntityKey{Type: l.SourceEntityType, ID: l.SourceEntityID}
}

// Target returns the key of the link's target entity.
func (l EntityLink) Target() EntityKey {
	return EntityKey{Type: l.TargetEntityType, ID: l.TargetEntityID}
}

// EntityLinks holds the raw edges touching one entity.
type EntityLinks struct {
	Outgoing []EntityLink `json:"outgoing"`
	Incoming []EntityLink `json:"incoming"`
}
