// Init command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration and the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return sysErr(err)
		}
		cfg, err := backendConfig(settings)
		if err != nil {
			return sysErr(err)
		}
		return withSession(cmd.Context(), func(s *session) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "facets initialized")
			fmt.Fprintln(out, "  config: ", configDir)
			fmt.Fprintln(out, "  backend:", cfg.Backend)
			if cfg.DataDir != "" {
				fmt.Fprintln(out, "  data:   ", cfg.DataDir)
			}
			return nil
		})
	},
}
