// Entity link commands for the facets CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/engine"
)

var (
	searchTypes string
	searchLimit int
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage directed links between entities",
}

// linkPair builds a command that acts on a source and a target entity.
func linkPair(use, short string, run func(s *session, cmd *cobra.Command, src, dst string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <source type:id> <target type:id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				return run(s, cmd, args[0], args[1])
			})
		},
	}
}

var linkCreateCmd = linkPair("create", "Link source to target", func(s *session, cmd *cobra.Command, src, dst string) error {
	source, err := parseEntityKey(src)
	if err != nil {
		return err
	}
	target, err := parseEntityKey(dst)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), s.actions.CreateEntityLink(s.ctx, source, target))
})

var linkRemoveCmd = linkPair("remove", "Remove the link from source to target", func(s *session, cmd *cobra.Command, src, dst string) error {
	source, err := parseEntityKey(src)
	if err != nil {
		return err
	}
	target, err := parseEntityKey(dst)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), s.actions.RemoveEntityLink(s.ctx, source, target))
})

var linkListCmd = &cobra.Command{
	Use:   "list <type:id>",
	Short: "Show an entity's outgoing and incoming links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetEntityLinks(s.ctx, key))
		})
	},
}

var linkLinkedCmd = &cobra.Command{
	Use:   "linked <type:id>",
	Short: "Show the entities this entity links to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetLinkedEntities(s.ctx, key))
		})
	},
}

var linkLinkingCmd = &cobra.Command{
	Use:   "linking <type:id>",
	Short: "Show the entities that link to this entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetLinkingEntities(s.ctx, key))
		})
	},
}

var linkSearchCmd = &cobra.Command{
	Use:   "search <workspace-id> <query>",
	Short: "Find entities by title to use as link targets",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := engine.SearchParams{
			WorkspaceID: args[0],
			Query:       args[1],
			EntityTypes: parseEntityTypes(searchTypes),
			Limit:       searchLimit,
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.SearchLinkableEntities(s.ctx, p))
		})
	},
}

func init() {
	linkSearchCmd.Flags().StringVar(&searchTypes, "types", "", "comma-separated entity types to search")
	linkSearchCmd.Flags().IntVar(&searchLimit, "limit", engine.DefaultSearchLimit, "maximum number of results")

	linkCmd.AddCommand(linkCreateCmd)
	linkCmd.AddCommand(linkRemoveCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkLinkedCmd)
	linkCmd.AddCommand(linkLinkingCmd)
	linkCmd.AddCommand(linkSearchCmd)
}
