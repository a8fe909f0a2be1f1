// Entity property commands for the facets CLI.
package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var propCmd = &cobra.Command{
	Use:   "prop",
	Short: "Read and write property values on entities",
}

var propSetCmd = &cobra.Command{
	Use:   "set <type:id> <definition-id> <value>",
	Short: "Set a property value",
	Long: `Set a property value. The value is parsed as JSON when it is valid JSON
and taken as a plain string otherwise.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		value := parseValue(args[2])
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.SetEntityProperty(s.ctx, key, args[1], value))
		})
	},
}

var propRemoveCmd = &cobra.Command{
	Use:   "remove <type:id> <definition-id>",
	Short: "Remove a property value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.RemoveEntityProperty(s.ctx, key, args[1]))
		})
	},
}

var propGetCmd = &cobra.Command{
	Use:   "get <type:id>",
	Short: "Show an entity's own property values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetEntityProperties(s.ctx, key))
		})
	},
}

var propBatchCmd = &cobra.Command{
	Use:   "batch <type> <id>...",
	Short: "Show the property values of several entities of one type",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType := types.EntityType(args[0])
		ids := args[1:]
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetEntitiesProperties(s.ctx, entityType, ids))
		})
	},
}

var propInheritedCmd = &cobra.Command{
	Use:   "inherited <type:id>",
	Short: "Show property values including those inherited through links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetEntityPropertiesWithInheritance(s.ctx, key))
		})
	},
}

var propVisibilityCmd = &cobra.Command{
	Use:   "visibility <type:id> <definition-id> <true|false>",
	Short: "Show or hide an inherited property on an entity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		visible, err := strconv.ParseBool(args[2])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.SetInheritedPropertyVisibility(s.ctx, key, args[1], visible))
		})
	},
}

func init() {
	propCmd.AddCommand(propSetCmd)
	propCmd.AddCommand(propRemoveCmd)
	propCmd.AddCommand(propGetCmd)
	propCmd.AddCommand(propBatchCmd)
	propCmd.AddCommand(propInheritedCmd)
	propCmd.AddCommand(propVisibilityCmd)
}
