// This file implements the property definitions table and its option sets.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var _ types.DefinitionStore = (*definitionsTable)(nil)

type definitionsTable struct {
	backend *Backend
}

const definitionColumns = "property_id, workspace_id, name, property_type, empty_label, created_at, updated_at"

// CreateDefinition inserts def and its options in one transaction.
func (dt *definitionsTable) CreateDefinition(ctx context.Context, def *types.PropertyDefinition) error {
	if def == nil || def.WorkspaceID == "" {
		return types.Invalidf("Workspace id is required")
	}
	now := time.Now().UTC()
	def.ID = newID()
	def.CreatedAt = now
	def.UpdatedAt = now
	if def.Options == nil {
		def.Options = []types.PropertyOption{}
	}

	return dt.backend.withTx(ctx, func(r runner) error {
		taken, err := nameTaken(ctx, r, def.WorkspaceID, def.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return types.Errorf(types.ErrAlreadyExists, "A property named %q already exists in this workspace", def.Name)
		}
		_, err = r.exec(ctx,
			"INSERT INTO property_definitions ("+definitionColumns+", normalized_name) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			def.ID, def.WorkspaceID, def.Name, string(def.Type), def.EmptyLabel,
			formatTime(def.CreatedAt), formatTime(def.UpdatedAt), types.NormalizeName(def.Name),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return types.Errorf(types.ErrAlreadyExists, "A property named %q already exists in this workspace", def.Name)
			}
			return fmt.Errorf("inserting property definition: %w", err)
		}
		return writeOptions(ctx, r, def.ID, def.Options)
	})
}

// Definition retrieves a definition and its options.
func (dt *definitionsTable) Definition(ctx context.Context, id string) (*types.PropertyDefinition, error) {
	if id == "" {
		return nil, types.NotFoundf("Property definition not found")
	}
	r, err := dt.backend.conn()
	if err != nil {
		return nil, err
	}
	def, err := hydrateDefinition(r.queryRow(ctx,
		"SELECT "+definitionColumns+" FROM property_definitions WHERE property_id = ?", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NotFoundf("Property definition not found")
		}
		return nil, fmt.Errorf("getting property definition %s: %w", id, err)
	}
	opts, err := loadOptions(ctx, r, []string{id})
	if err != nil {
		return nil, err
	}
	def.Options = nonNilOptions(opts[id])
	return def, nil
}

// Definitions lists a workspace's definitions, oldest first.
func (dt *definitionsTable) Definitions(ctx context.Context, workspaceID string) ([]types.PropertyDefinition, error) {
	r, err := dt.backend.conn()
	if err != nil {
		return nil, err
	}
	rows, err := r.query(ctx,
		"SELECT "+definitionColumns+" FROM property_definitions WHERE workspace_id = ? ORDER BY created_at, property_id",
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing property definitions: %w", err)
	}
	var defs []types.PropertyDefinition
	for rows.Next() {
		def, err := hydrateDefinition(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning property definition: %w", err)
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating property definitions: %w", err)
	}
	rows.Close()

	ids := make([]string, len(defs))
	for i := range defs {
		ids[i] = defs[i].ID
	}
	opts, err := loadOptions(ctx, r, ids)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		defs[i].Options = nonNilOptions(opts[defs[i].ID])
	}
	if defs == nil {
		defs = []types.PropertyDefinition{}
	}
	return defs, nil
}

// UpdateDefinition writes the mutable columns of def and bumps updated_at.
func (dt *definitionsTable) UpdateDefinition(ctx context.Context, def *types.PropertyDefinition) error {
	def.UpdatedAt = time.Now().UTC()
	return dt.backend.withTx(ctx, func(r runner) error {
		taken, err := nameTaken(ctx, r, def.WorkspaceID, def.Name, def.ID)
		if err != nil {
			return err
		}
		if taken {
			return types.Errorf(types.ErrAlreadyExists, "A property named %q already exists in this workspace", def.Name)
		}
		res, err := r.exec(ctx,
			"UPDATE property_definitions SET name = ?, normalized_name = ?, property_type = ?, empty_label = ?, updated_at = ? WHERE property_id = ?",
			def.Name, types.NormalizeName(def.Name), string(def.Type), def.EmptyLabel, formatTime(def.UpdatedAt), def.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return types.Errorf(types.ErrAlreadyExists, "A property named %q already exists in this workspace", def.Name)
			}
			return fmt.Errorf("updating property definition: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return types.NotFoundf("Property definition not found")
		}
		return nil
	})
}

// DeleteDefinition removes the definition, its options, every stored value
// and every visibility row that references it.
func (dt *definitionsTable) DeleteDefinition(ctx context.Context, id string) error {
	return dt.backend.withTx(ctx, func(r runner) error {
		res, err := r.exec(ctx, "DELETE FROM property_definitions WHERE property_id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting property definition: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return types.NotFoundf("Property definition not found")
		}
		for _, table := range []string{"property_options", "entity_properties", "inherited_visibility"} {
			if _, err := r.exec(ctx, "DELETE FROM "+table+" WHERE property_id = ?", id); err != nil {
				return fmt.Errorf("deleting %s rows: %w", table, err)
			}
		}
		return nil
	})
}

// SaveOptions replaces the option set of propertyID. New options get ids
// assigned in place.
func (dt *definitionsTable) SaveOptions(ctx context.Context, propertyID string, options []types.PropertyOption) error {
	return dt.backend.withTx(ctx, func(r runner) error {
		var exists int
		err := r.queryRow(ctx, "SELECT 1 FROM property_definitions WHERE property_id = ?", propertyID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return types.NotFoundf("Property definition not found")
		}
		if err != nil {
			return fmt.Errorf("checking property definition: %w", err)
		}
		if _, err := r.exec(ctx, "DELETE FROM property_options WHERE property_id = ?", propertyID); err != nil {
			return fmt.Errorf("clearing options: %w", err)
		}
		if err := writeOptions(ctx, r, propertyID, options); err != nil {
			return err
		}
		_, err = r.exec(ctx, "UPDATE property_definitions SET updated_at = ? WHERE property_id = ?",
			formatTime(time.Now()), propertyID)
		if err != nil {
			return fmt.Errorf("touching property definition: %w", err)
		}
		return nil
	})
}

// nameTaken reports whether another definition in the workspace has the
// same normalized name. exceptID excludes the definition being renamed.
func nameTaken(ctx context.Context, r runner, workspaceID, name, exceptID string) (bool, error) {
	var dup string
	err := r.queryRow(ctx,
		"SELECT property_id FROM property_definitions WHERE workspace_id = ? AND normalized_name = ? AND property_id <> ?",
		workspaceID, types.NormalizeName(name), exceptID,
	).Scan(&dup)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("checking property name uniqueness: %w", err)
}

func writeOptions(ctx context.Context, r runner, propertyID string, options []types.PropertyOption) error {
	for i := range options {
		if options[i].ID == "" {
			options[i].ID = newID()
		}
		_, err := r.exec(ctx,
			"INSERT INTO property_options (option_id, property_id, label, color, ordinal) VALUES (?, ?, ?, ?, ?)",
			options[i].ID, propertyID, options[i].Label, options[i].Color, i,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return types.Errorf(types.ErrAlreadyExists, "Option id %q is already in use", options[i].ID)
			}
			return fmt.Errorf("inserting option: %w", err)
		}
	}
	return nil
}

// loadOptions returns the ordered options of each property id.
func loadOptions(ctx context.Context, r runner, propertyIDs []string) (map[string][]types.PropertyOption, error) {
	out := make(map[string][]types.PropertyOption, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return out, nil
	}
	rows, err := r.query(ctx,
		"SELECT property_id, option_id, label, color FROM property_options WHERE property_id IN ("+
			placeholders(len(propertyIDs))+") ORDER BY property_id, ordinal",
		stringArgs(propertyIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("loading options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pid string
		var o types.PropertyOption
		if err := rows.Scan(&pid, &o.ID, &o.Label, &o.Color); err != nil {
			return nil, fmt.Errorf("scanning option: %w", err)
		}
		out[pid] = append(out[pid], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating options: %w", err)
	}
	return out, nil
}

func nonNilOptions(opts []types.PropertyOption) []types.PropertyOption {
	if opts == nil {
		return []types.PropertyOption{}
	}
	return opts
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateDefinition(s scanner) (*types.PropertyDefinition, error) {
	var (
		def                  types.PropertyDefinition
		propType             string
		createdAt, updatedAt string
	)
	if err := s.Scan(&def.ID, &def.WorkspaceID, &def.Name, &propType, &def.EmptyLabel, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	def.Type = types.PropertyType(propType)
	var err error
	if def.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if def.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &def, nil
}
