// Record commands for the facets CLI. Records are the host entities that
// properties and links attach to.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var (
	recordProject string
	recordTab     string
	recordStart   string
	recordEnd     string
	recordPrimary bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Create and delete host records",
}

var recordProjectCmd = &cobra.Command{
	Use:   "project <workspace-id> <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			if err := authorizeWorkspace(s, args[0]); err != nil {
				return printOutcome[*types.Project](cmd.OutOrStdout(), nil, err)
			}
			p, err := s.backend.Records().CreateProject(s.ctx, args[0], args[1])
			return printOutcome(cmd.OutOrStdout(), p, err)
		})
	},
}

var recordTabCmd = &cobra.Command{
	Use:   "tab <project-id> <name>",
	Short: "Create a tab in a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			tab, err := s.backend.Records().CreateTab(s.ctx, args[0], args[1])
			return printOutcome(cmd.OutOrStdout(), tab, err)
		})
	},
}

var recordBlockCmd = &cobra.Command{
	Use:   "block <tab-id> <block-type> <content-json>",
	Short: "Create a block in a tab",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content map[string]any
		if err := json.Unmarshal([]byte(args[2]), &content); err != nil {
			return fmt.Errorf("block content must be a JSON object: %w", err)
		}
		return withSession(cmd.Context(), func(s *session) error {
			id, err := s.backend.Records().CreateBlock(s.ctx, args[0], args[1], content)
			return printOutcome(cmd.OutOrStdout(), id, err)
		})
	},
}

var recordTaskCmd = &cobra.Command{
	Use:   "task <tab-id> <title>",
	Short: "Create a task in a tab",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			id, err := s.backend.Records().CreateTask(s.ctx, args[0], args[1])
			return printOutcome(cmd.OutOrStdout(), id, err)
		})
	},
}

var recordSubtaskCmd = &cobra.Command{
	Use:   "subtask <task-id> <title>",
	Short: "Create a subtask under a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			id, err := s.backend.Records().CreateSubtask(s.ctx, args[0], args[1])
			return printOutcome(cmd.OutOrStdout(), id, err)
		})
	},
}

var recordEventCmd = &cobra.Command{
	Use:   "event <tab-id> <title>",
	Short: "Create a timeline event in a tab",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			id, err := s.backend.Records().CreateTimelineEvent(s.ctx, args[0], args[1], recordStart, recordEnd)
			return printOutcome(cmd.OutOrStdout(), id, err)
		})
	},
}

var recordTableCmd = &cobra.Command{
	Use:   "table <workspace-id> <name>",
	Short: "Create a table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			if err := authorizeWorkspace(s, args[0]); err != nil {
				return printOutcome[*types.Table](cmd.OutOrStdout(), nil, err)
			}
			table, err := s.backend.Records().CreateTable(s.ctx, args[0], recordProject, recordTab, args[1])
			return printOutcome(cmd.OutOrStdout(), table, err)
		})
	},
}

var recordFieldCmd = &cobra.Command{
	Use:   "field <table-id> <name> <field-type>",
	Short: "Add a field to a table",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			field, err := s.backend.Records().CreateTableField(s.ctx, args[0], args[1], args[2], recordPrimary)
			return printOutcome(cmd.OutOrStdout(), field, err)
		})
	},
}

var recordRowCmd = &cobra.Command{
	Use:   "row <table-id> <data-json>",
	Short: "Add a row to a table",
	Long:  "Add a row to a table. data-json maps field ids to cell values.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data map[string]any
		if err := json.Unmarshal([]byte(args[1]), &data); err != nil {
			return fmt.Errorf("row data must be a JSON object: %w", err)
		}
		return withSession(cmd.Context(), func(s *session) error {
			id, err := s.backend.Records().CreateTableRow(s.ctx, args[0], data)
			return printOutcome(cmd.OutOrStdout(), id, err)
		})
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <type:id>",
	Short: "Delete a record with its property values and links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseEntityKey(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			err := s.backend.Records().DeleteRecord(s.ctx, key)
			return printOutcome(cmd.OutOrStdout(), err == nil, err)
		})
	},
}

func init() {
	recordEventCmd.Flags().StringVar(&recordStart, "start", "", "start date (YYYY-MM-DD)")
	recordEventCmd.Flags().StringVar(&recordEnd, "end", "", "end date (YYYY-MM-DD)")
	recordTableCmd.Flags().StringVar(&recordProject, "project", "", "project the table belongs to")
	recordTableCmd.Flags().StringVar(&recordTab, "tab", "", "tab the table is shown in")
	recordFieldCmd.Flags().BoolVar(&recordPrimary, "primary", false, "use this field as the row title")

	recordCmd.AddCommand(recordProjectCmd)
	recordCmd.AddCommand(recordTabCmd)
	recordCmd.AddCommand(recordBlockCmd)
	recordCmd.AddCommand(recordTaskCmd)
	recordCmd.AddCommand(recordSubtaskCmd)
	recordCmd.AddCommand(recordEventCmd)
	recordCmd.AddCommand(recordTableCmd)
	recordCmd.AddCommand(recordFieldCmd)
	recordCmd.AddCommand(recordRowCmd)
	recordCmd.AddCommand(recordDeleteCmd)
}
