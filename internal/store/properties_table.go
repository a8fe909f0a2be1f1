// This file implements the entity property value table and the inherited
// visibility flags.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var _ types.PropertyStore = (*propertiesTable)(nil)

type propertiesTable struct {
	backend *Backend
}

// SetValue upserts the JSON encoding of value.
func (pt *propertiesTable) SetValue(ctx context.Context, key types.EntityKey, propertyID string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return types.Invalidf("Value cannot be stored: %v", err)
	}
	r, err := pt.backend.conn()
	if err != nil {
		return err
	}
	_, err = r.exec(ctx,
		`INSERT INTO entity_properties (entity_type, entity_id, property_id, value, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (entity_type, entity_id, property_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(key.Type), key.ID, propertyID, string(encoded), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("setting property value: %w", err)
	}
	return nil
}

// RemoveValue deletes one value; absent values are not an error.
func (pt *propertiesTable) RemoveValue(ctx context.Context, key types.EntityKey, propertyID string) error {
	r, err := pt.backend.conn()
	if err != nil {
		return err
	}
	_, err = r.exec(ctx,
		"DELETE FROM entity_properties WHERE entity_type = ? AND entity_id = ? AND property_id = ?",
		string(key.Type), key.ID, propertyID,
	)
	if err != nil {
		return fmt.Errorf("removing property value: %w", err)
	}
	return nil
}

// Values returns the direct values of one entity.
func (pt *propertiesTable) Values(ctx context.Context, key types.EntityKey) (map[string]any, error) {
	all, err := pt.BatchValues(ctx, key.Type, []string{key.ID}, nil)
	if err != nil {
		return nil, err
	}
	if vals, ok := all[key.ID]; ok {
		return vals, nil
	}
	return map[string]any{}, nil
}

// CountValues counts the stored values of one property across all entities.
func (pt *propertiesTable) CountValues(ctx context.Context, propertyID string) (int, error) {
	r, err := pt.backend.conn()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.queryRow(ctx, "SELECT COUNT(*) FROM entity_properties WHERE property_id = ?", propertyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting property values: %w", err)
	}
	return n, nil
}

// BatchValues loads values for many entities of one type in a single query.
func (pt *propertiesTable) BatchValues(ctx context.Context, entityType types.EntityType, ids []string, propertyIDs []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any, len(ids))
	if len(ids) == 0 || (propertyIDs != nil && len(propertyIDs) == 0) {
		return out, nil
	}
	r, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT entity_id, property_id, value FROM entity_properties WHERE entity_type = ? AND entity_id IN (" +
		placeholders(len(ids)) + ")"
	args := append([]any{string(entityType)}, stringArgs(ids)...)
	if propertyIDs != nil {
		query += " AND property_id IN (" + placeholders(len(propertyIDs)) + ")"
		args = append(args, stringArgs(propertyIDs)...)
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading property values: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entityID, propertyID, raw string
		if err := rows.Scan(&entityID, &propertyID, &raw); err != nil {
			return nil, fmt.Errorf("scanning property value: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decoding value of %s on %s: %w", propertyID, entityID, err)
		}
		if out[entityID] == nil {
			out[entityID] = make(map[string]any)
		}
		out[entityID][propertyID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating property values: %w", err)
	}
	return out, nil
}

// SetInheritedHidden inserts or deletes the visibility row.
func (pt *propertiesTable) SetInheritedHidden(ctx context.Context, key types.EntityKey, propertyID string, hidden bool) error {
	r, err := pt.backend.conn()
	if err != nil {
		return err
	}
	if hidden {
		_, err = r.exec(ctx,
			`INSERT INTO inherited_visibility (entity_type, entity_id, property_id) VALUES (?, ?, ?)
ON CONFLICT (entity_type, entity_id, property_id) DO NOTHING`,
			string(key.Type), key.ID, propertyID,
		)
	} else {
		_, err = r.exec(ctx,
			"DELETE FROM inherited_visibility WHERE entity_type = ? AND entity_id = ? AND property_id = ?",
			string(key.Type), key.ID, propertyID,
		)
	}
	if err != nil {
		return fmt.Errorf("setting inherited visibility: %w", err)
	}
	return nil
}

// HiddenInherited returns the hidden property ids of one entity.
func (pt *propertiesTable) HiddenInherited(ctx context.Context, key types.EntityKey) (map[string]bool, error) {
	r, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}
	rows, err := r.query(ctx,
		"SELECT property_id FROM inherited_visibility WHERE entity_type = ? AND entity_id = ?",
		string(key.Type), key.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading inherited visibility: %w", err)
	}
	defer rows.Close()
	hidden := make(map[string]bool)
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("scanning inherited visibility: %w", err)
		}
		hidden[pid] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inherited visibility: %w", err)
	}
	return hidden, nil
}
