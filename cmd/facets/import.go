// Import command for the facets CLI.
package main

import (
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Load JSONL files written by export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			stats, err := s.backend.Import(s.ctx, args[0])
			if err != nil {
				return sysErr(err)
			}
			return printOutcome(cmd.OutOrStdout(), stats, nil)
		})
	},
}
