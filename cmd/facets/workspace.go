// Workspace commands for the facets CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/access"
	"github.com/mesh-intelligence/facets/internal/store"
	"github.com/mesh-intelligence/facets/pkg/types"
)

var memberRole string

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage workspaces and their members",
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace owned by the current user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			user := access.CallerFrom(s.ctx)
			if user == "" {
				return printResult(cmd.OutOrStdout(), types.Fail[*types.Workspace](types.ErrUnauthorized))
			}
			ws, err := s.backend.Records().CreateWorkspace(s.ctx, args[0], user)
			return printOutcome(cmd.OutOrStdout(), ws, err)
		})
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the current user's workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			user := access.CallerFrom(s.ctx)
			if user == "" {
				return printResult(cmd.OutOrStdout(), types.Fail[[]types.Workspace](types.ErrUnauthorized))
			}
			list, err := s.backend.Members().Workspaces(s.ctx, user)
			return printOutcome(cmd.OutOrStdout(), list, err)
		})
	},
}

var workspaceAddMemberCmd = &cobra.Command{
	Use:   "add-member <workspace-id> <user-id>",
	Short: "Add a member to a workspace the current user belongs to",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			err := authorizeWorkspace(s, args[0])
			if err == nil {
				err = s.backend.Members().AddMember(s.ctx, args[0], args[1], memberRole)
			}
			return printOutcome(cmd.OutOrStdout(), err == nil, err)
		})
	},
}

var workspaceRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member <workspace-id> <user-id>",
	Short: "Remove a member from a workspace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			err := authorizeWorkspace(s, args[0])
			if err == nil {
				err = s.backend.Members().RemoveMember(s.ctx, args[0], args[1])
			}
			return printOutcome(cmd.OutOrStdout(), err == nil, err)
		})
	},
}

// authorizeWorkspace checks that the session user belongs to workspaceID.
func authorizeWorkspace(s *session, workspaceID string) error {
	_, err := access.NewGuard(s.backend.Members()).Authorize(s.ctx, workspaceID)
	return err
}

func init() {
	workspaceAddMemberCmd.Flags().StringVar(&memberRole, "role", store.RoleMember, "member role (owner or member)")

	workspaceCmd.AddCommand(workspaceCreateCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceAddMemberCmd)
	workspaceCmd.AddCommand(workspaceRemoveMemberCmd)
}
