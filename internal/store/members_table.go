// This file implements the workspace membership table.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var _ types.MembershipStore = (*MembersTable)(nil)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// MembersTable answers and records workspace membership.
type MembersTable struct {
	backend *Backend
}

// IsMember reports whether userID belongs to workspaceID.
func (mt *MembersTable) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	if workspaceID == "" || userID == "" {
		return false, nil
	}
	r, err := mt.backend.conn()
	if err != nil {
		return false, err
	}
	var one int
	err = r.queryRow(ctx,
		"SELECT 1 FROM workspace_members WHERE workspace_id = ? AND user_id = ?",
		workspaceID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return true, nil
}

// AddMember grants userID access to workspaceID. Adding an existing member
// updates the role.
func (mt *MembersTable) AddMember(ctx context.Context, workspaceID, userID, role string) error {
	if userID == "" {
		return types.Invalidf("User id is required")
	}
	if role == "" {
		role = RoleMember
	}
	return mt.backend.withTx(ctx, func(r runner) error {
		if err := mustExist(ctx, r, "workspaces", "workspace_id", workspaceID, "Workspace"); err != nil {
			return err
		}
		_, err := r.exec(ctx,
			`INSERT INTO workspace_members (workspace_id, user_id, role, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = excluded.role`,
			workspaceID, userID, role, formatTime(time.Now()),
		)
		if err != nil {
			return fmt.Errorf("adding member: %w", err)
		}
		return nil
	})
}

// RemoveMember revokes access. Removing a non-member succeeds.
func (mt *MembersTable) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	r, err := mt.backend.conn()
	if err != nil {
		return err
	}
	_, err = r.exec(ctx,
		"DELETE FROM workspace_members WHERE workspace_id = ? AND user_id = ?",
		workspaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}

// Workspaces lists the workspaces userID belongs to, oldest first.
func (mt *MembersTable) Workspaces(ctx context.Context, userID string) ([]types.Workspace, error) {
	r, err := mt.backend.conn()
	if err != nil {
		return nil, err
	}
	rows, err := r.query(ctx,
		`SELECT w.workspace_id, w.name, w.created_at FROM workspaces w
JOIN workspace_members m ON m.workspace_id = w.workspace_id
WHERE m.user_id = ? ORDER BY w.created_at, w.workspace_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}
	defer rows.Close()
	out := []types.Workspace{}
	for rows.Next() {
		var ws types.Workspace
		var createdAt string
		if err := rows.Scan(&ws.ID, &ws.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning workspace: %w", err)
		}
		if ws.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workspaces: %w", err)
	}
	return out, nil
}

// mustExist returns a not-found error naming label when no row of table has
// column = id.
func mustExist(ctx context.Context, r runner, table, column, id, label string) error {
	var one int
	err := r.queryRow(ctx, "SELECT 1 FROM "+table+" WHERE "+column+" = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NotFoundf("%s not found", label)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", table, err)
	}
	return nil
}
