package types

import "context"

// DefinitionStore persists property definitions and their option sets.
type DefinitionStore interface {
	// CreateDefinition inserts def with its options, assigning ids and
	// timestamps. Returns ErrAlreadyExists when the normalized name is taken
	// in the workspace.
	CreateDefinition(ctx context.Context, def *PropertyDefinition) error

	// Definition returns the definition with its options in order.
	// Returns ErrNotFound if absent.
	Definition(ctx context.Context, id string) (*PropertyDefinition, error)

	// Definitions lists a workspace's definitions, oldest first.
	Definitions(ctx context.Context, workspaceID string) ([]PropertyDefinition, error)

	// UpdateDefinition writes name, type and empty label. Returns ErrNotFound
	// if absent and ErrAlreadyExists on a normalized name clash.
	UpdateDefinition(ctx context.Context, def *PropertyDefinition) error

	// DeleteDefinition removes the definition together with its options, its
	// stored values and visibility rows. Returns ErrNotFound if absent.
	DeleteDefinition(ctx context.Context, id string) error

	// SaveOptions replaces the option set of a definition with options, in
	// order. Options with an empty ID get a new one; the slice is updated in
	// place.
	SaveOptions(ctx context.Context, propertyID string, options []PropertyOption) error
}

// PropertyStore persists (entity, property) -> value rows.
type PropertyStore interface {
	// SetValue upserts one value; the last write wins.
	SetValue(ctx context.Context, key EntityKey, propertyID string, value any) error

	// RemoveValue deletes one value. Removing an absent value succeeds.
	RemoveValue(ctx context.Context, key EntityKey, propertyID string) error

	// Values returns the direct values of one entity keyed by property id.
	Values(ctx context.Context, key EntityKey) (map[string]any, error)

	// BatchValues returns direct values for many entities of one type, keyed
	// by entity id then property id. A nil propertyIDs loads every property.
	BatchValues(ctx context.Context, entityType EntityType, ids []string, propertyIDs []string) (map[string]map[string]any, error)

	// CountValues returns how many entities hold a value for propertyID.
	CountValues(ctx context.Context, propertyID string) (int, error)

	// SetInheritedHidden records whether the inherited value of propertyID is
	// hidden on the entity.
	SetInheritedHidden(ctx context.Context, key EntityKey, propertyID string, hidden bool) error

	// HiddenInherited returns the property ids whose inherited values are
	// hidden on the entity.
	HiddenInherited(ctx context.Context, key EntityKey) (map[string]bool, error)
}

// LinkStore persists directed entity links.
type LinkStore interface {
	// CreateLink inserts link, assigning id and timestamp. Returns
	// ErrAlreadyExists when the (source, target) pair is already linked.
	CreateLink(ctx context.Context, link *EntityLink) error

	// DeleteLink removes the link between source and target. Deleting an
	// absent link succeeds.
	DeleteLink(ctx context.Context, source, target EntityKey) error

	// Outgoing lists links whose source is key.
	Outgoing(ctx context.Context, key EntityKey) ([]EntityLink, error)

	// Incoming lists links whose target is key.
	Incoming(ctx context.Context, key EntityKey) ([]EntityLink, error)

	// IncomingBatch lists links targeting any of ids of targetType, ordered
	// by creation time then link id.
	IncomingBatch(ctx context.Context, targetType EntityType, ids []string) ([]EntityLink, error)
}

// MembershipStore answers workspace membership questions.
type MembershipStore interface {
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
}

// RecordStore is the read-only view of the block, task, subtask, timeline
// and table stores the engine depends on. Single-record lookups return
// ErrNotFound for missing records; list calls return records of one
// workspace restricted to scope, ordered by creation time then id.
type RecordStore interface {
	Block(ctx context.Context, id string) (*Block, error)
	Task(ctx context.Context, id string) (*Task, error)
	Subtask(ctx context.Context, id string) (*Subtask, error)
	TimelineEvent(ctx context.Context, id string) (*TimelineEvent, error)
	TableRow(ctx context.Context, id string) (*TableRow, error)
	TableFields(ctx context.Context, tableID string) ([]TableField, error)

	Blocks(ctx context.Context, workspaceID string, scope Scope) ([]Block, error)
	Tasks(ctx context.Context, workspaceID string, scope Scope) ([]Task, error)
	Subtasks(ctx context.Context, workspaceID string, scope Scope) ([]Subtask, error)
	TimelineEvents(ctx context.Context, workspaceID string, scope Scope) ([]TimelineEvent, error)
	TableRows(ctx context.Context, workspaceID string, scope Scope) ([]TableRow, error)
}
