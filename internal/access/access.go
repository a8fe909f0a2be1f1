// Package access carries the caller identity through a context and checks
// workspace membership before the engine touches workspace data.
package access

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/facets/pkg/types"
)

type contextKey string

const callerKey contextKey = "caller"

// WithCaller returns a context that identifies userID as the caller.
func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey, userID)
}

// CallerFrom returns the caller set by WithCaller, or "" when none is set.
func CallerFrom(ctx context.Context) string {
	userID, _ := ctx.Value(callerKey).(string)
	return userID
}

// Grant proves the caller was authorized for one workspace.
type Grant struct {
	UserID      string
	WorkspaceID string
}

// Guard authorizes callers against workspace membership.
type Guard struct {
	members types.MembershipStore
}

// NewGuard creates a guard backed by members.
func NewGuard(members types.MembershipStore) *Guard {
	return &Guard{members: members}
}

// Authorize returns a Grant when the caller in ctx belongs to workspaceID.
// It fails with ErrUnauthorized when ctx carries no caller and with
// ErrAccessDenied when the caller is not a member.
func (g *Guard) Authorize(ctx context.Context, workspaceID string) (Grant, error) {
	userID := CallerFrom(ctx)
	if userID == "" {
		return Grant{}, types.ErrUnauthorized
	}
	ok, err := g.members.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return Grant{}, fmt.Errorf("checking workspace membership: %w", err)
	}
	if !ok {
		return Grant{}, types.ErrAccessDenied
	}
	return Grant{UserID: userID, WorkspaceID: workspaceID}, nil
}
