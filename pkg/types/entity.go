package types

import "fmt"

// EntityType names one of the record kinds that can carry properties and links.
type EntityType string

// Entity types.
const (
	EntityBlock         EntityType = "block"
	EntityTask          EntityType = "task"
	EntitySubtask       EntityType = "subtask"
	EntityTimelineEvent EntityType = "timeline_event"
	EntityTableRow      EntityType = "table_row"
)

// AllEntityTypes lists every entity type in canonical order. Queries and
// searches that do not name types use this order.
var AllEntityTypes = []EntityType{
	EntityBlock,
	EntityTask,
	EntitySubtask,
	EntityTimelineEvent,
	EntityTableRow,
}

// Valid reports whether t is a recognized entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityBlock, EntityTask, EntitySubtask, EntityTimelineEvent, EntityTableRow:
		return true
	}
	return false
}

// EntityKey identifies one entity.
type EntityKey struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s:%s", k.Type, k.ID)
}

// Validate checks that the key names a known type and a non-empty id.
func (k EntityKey) Validate() error {
	if !k.Type.Valid() {
		return Invalidf("Unknown entity type %q", k.Type)
	}
	if k.ID == "" {
		return Invalidf("Entity id is required")
	}
	return nil
}

// EntityReference is a display projection of an entity. It is computed on
// demand from the record stores and never persisted.
type EntityReference struct {
	Type    EntityType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Context string     `json:"context"`
}

// Key returns the entity key of the reference.
func (r EntityReference) Key() EntityKey {
	return EntityKey{Type: r.Type, ID: r.ID}
}
