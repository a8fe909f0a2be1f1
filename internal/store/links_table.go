// This file implements the entity links table.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var _ types.LinkStore = (*linksTable)(nil)

type linksTable struct {
	backend *Backend
}

const linkColumns = "link_id, source_entity_type, source_entity_id, target_entity_type, target_entity_id, workspace_id, created_at"

// CreateLink inserts link. The unique index on (source, target) turns a
// duplicate into ErrAlreadyExists.
func (lt *linksTable) CreateLink(ctx context.Context, link *types.EntityLink) error {
	r, err := lt.backend.conn()
	if err != nil {
		return err
	}
	link.ID = newID()
	link.CreatedAt = time.Now().UTC()
	_, err = r.exec(ctx,
		"INSERT INTO entity_links ("+linkColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		link.ID, string(link.SourceEntityType), link.SourceEntityID,
		string(link.TargetEntityType), link.TargetEntityID, link.WorkspaceID, formatTime(link.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Errorf(types.ErrAlreadyExists, "This link already exists")
		}
		return fmt.Errorf("inserting link: %w", err)
	}
	return nil
}

// DeleteLink removes the link from source to target if present.
func (lt *linksTable) DeleteLink(ctx context.Context, source, target types.EntityKey) error {
	r, err := lt.backend.conn()
	if err != nil {
		return err
	}
	_, err = r.exec(ctx,
		`DELETE FROM entity_links WHERE source_entity_type = ? AND source_entity_id = ?
AND target_entity_type = ? AND target_entity_id = ?`,
		string(source.Type), source.ID, string(target.Type), target.ID,
	)
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	return nil
}

// Outgoing lists links whose source is key.
func (lt *linksTable) Outgoing(ctx context.Context, key types.EntityKey) ([]types.EntityLink, error) {
	return lt.list(ctx,
		"SELECT "+linkColumns+" FROM entity_links WHERE source_entity_type = ? AND source_entity_id = ? ORDER BY created_at, link_id",
		string(key.Type), key.ID,
	)
}

// Incoming lists links whose target is key.
func (lt *linksTable) Incoming(ctx context.Context, key types.EntityKey) ([]types.EntityLink, error) {
	return lt.list(ctx,
		"SELECT "+linkColumns+" FROM entity_links WHERE target_entity_type = ? AND target_entity_id = ? ORDER BY created_at, link_id",
		string(key.Type), key.ID,
	)
}

// IncomingBatch lists links targeting any of ids.
func (lt *linksTable) IncomingBatch(ctx context.Context, targetType types.EntityType, ids []string) ([]types.EntityLink, error) {
	if len(ids) == 0 {
		return []types.EntityLink{}, nil
	}
	args := append([]any{string(targetType)}, stringArgs(ids)...)
	return lt.list(ctx,
		"SELECT "+linkColumns+" FROM entity_links WHERE target_entity_type = ? AND target_entity_id IN ("+
			placeholders(len(ids))+") ORDER BY created_at, link_id",
		args...,
	)
}

func (lt *linksTable) list(ctx context.Context, query string, args ...any) ([]types.EntityLink, error) {
	r, err := lt.backend.conn()
	if err != nil {
		return nil, err
	}
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	links := []types.EntityLink{}
	for rows.Next() {
		link, err := hydrateLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}

func hydrateLink(s scanner) (*types.EntityLink, error) {
	var (
		link                   types.EntityLink
		sourceType, targetType string
		createdAt              string
	)
	err := s.Scan(&link.ID, &sourceType, &link.SourceEntityID, &targetType, &link.TargetEntityID,
		&link.WorkspaceID, &createdAt)
	if err != nil {
		return nil, err
	}
	link.SourceEntityType = types.EntityType(sourceType)
	link.TargetEntityType = types.EntityType(targetType)
	if link.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &link, nil
}
