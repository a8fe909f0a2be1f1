// Export command for the facets CLI.
package main

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write every table to JSONL files in dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			stats, err := s.backend.Export(s.ctx, args[0])
			if err != nil {
				return sysErr(err)
			}
			return printOutcome(cmd.OutOrStdout(), stats, nil)
		})
	},
}
