// Property definition commands for the facets CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/engine"
	"github.com/mesh-intelligence/facets/pkg/types"
)

var (
	defType       string
	defEmptyLabel string
	defName       string
	optionLabel   string
	optionColor   string
)

var defCmd = &cobra.Command{
	Use:   "def",
	Short: "Manage property definitions",
}

var defCreateCmd = &cobra.Command{
	Use:   "create <workspace-id> <name> [option[=color]...]",
	Short: "Create a property definition",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := engine.CreateDefinitionParams{
			WorkspaceID: args[0],
			Name:        args[1],
			Type:        types.PropertyType(defType),
			Options:     parseOptions(args[2:]),
			EmptyLabel:  defEmptyLabel,
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.CreatePropertyDefinition(s.ctx, p))
		})
	},
}

var defGetCmd = &cobra.Command{
	Use:   "get <definition-id>",
	Short: "Show a property definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetPropertyDefinition(s.ctx, args[0]))
		})
	},
}

var defListCmd = &cobra.Command{
	Use:   "list <workspace-id>",
	Short: "List a workspace's property definitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.GetPropertyDefinitions(s.ctx, args[0]))
		})
	},
}

var defUpdateCmd = &cobra.Command{
	Use:   "update <definition-id>",
	Short: "Rename, retype or relabel a property definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u types.PropertyDefinitionUpdate
		if cmd.Flags().Changed("name") {
			u.Name = &defName
		}
		if cmd.Flags().Changed("type") {
			t := types.PropertyType(defType)
			u.Type = &t
		}
		if cmd.Flags().Changed("empty-label") {
			u.EmptyLabel = &defEmptyLabel
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.UpdatePropertyDefinition(s.ctx, args[0], u))
		})
	},
}

var defDeleteCmd = &cobra.Command{
	Use:   "delete <definition-id>",
	Short: "Delete a property definition and every value set for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.DeletePropertyDefinition(s.ctx, args[0]))
		})
	},
}

var defOptionCmd = &cobra.Command{
	Use:   "option",
	Short: "Manage the options of a select, multi-select or status definition",
}

var defOptionAddCmd = &cobra.Command{
	Use:   "add <definition-id> <label>",
	Short: "Append an option",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := types.PropertyOption{Label: args[1], Color: optionColor}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.AddPropertyOption(s.ctx, args[0], opt))
		})
	},
}

var defOptionUpdateCmd = &cobra.Command{
	Use:   "update <definition-id> <option-id>",
	Short: "Change an option's label or color",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u engine.OptionUpdate
		if cmd.Flags().Changed("label") {
			u.Label = &optionLabel
		}
		if cmd.Flags().Changed("color") {
			u.Color = &optionColor
		}
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.UpdatePropertyOption(s.ctx, args[0], args[1], u))
		})
	},
}

var defOptionRemoveCmd = &cobra.Command{
	Use:   "remove <definition-id> <option-id>",
	Short: "Remove an option",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.RemovePropertyOption(s.ctx, args[0], args[1]))
		})
	},
}

var defOptionMergeCmd = &cobra.Command{
	Use:   "merge <definition-id> <option[=color]>...",
	Short: "Add the options whose labels are not already present",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := parseOptions(args[1:])
		return withSession(cmd.Context(), func(s *session) error {
			return printResult(cmd.OutOrStdout(), s.actions.MergePropertyOptions(s.ctx, args[0], opts))
		})
	},
}

func init() {
	defCreateCmd.Flags().StringVar(&defType, "type", string(types.PropertyText), "property type")
	defCreateCmd.Flags().StringVar(&defEmptyLabel, "empty-label", "", "label of the no-value group")

	defUpdateCmd.Flags().StringVar(&defName, "name", "", "new name")
	defUpdateCmd.Flags().StringVar(&defType, "type", "", "new property type")
	defUpdateCmd.Flags().StringVar(&defEmptyLabel, "empty-label", "", "new no-value label")

	defOptionAddCmd.Flags().StringVar(&optionColor, "color", "", "option color")
	defOptionUpdateCmd.Flags().StringVar(&optionLabel, "label", "", "new label")
	defOptionUpdateCmd.Flags().StringVar(&optionColor, "color", "", "new color")

	defOptionCmd.AddCommand(defOptionAddCmd)
	defOptionCmd.AddCommand(defOptionUpdateCmd)
	defOptionCmd.AddCommand(defOptionRemoveCmd)
	defOptionCmd.AddCommand(defOptionMergeCmd)

	defCmd.AddCommand(defCreateCmd)
	defCmd.AddCommand(defGetCmd)
	defCmd.AddCommand(defListCmd)
	defCmd.AddCommand(defUpdateCmd)
	defCmd.AddCommand(defDeleteCmd)
	defCmd.AddCommand(defOptionCmd)
}
