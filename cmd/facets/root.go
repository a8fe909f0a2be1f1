// Root command for the facets CLI.
package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/facets/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagUser      string
	flagJSON      bool
)

// settings is the configuration loaded by PersistentPreRunE.
var settings *viper.Viper

var rootCmd = &cobra.Command{
	Use:           "facets",
	Short:         "Typed properties and links for workspace records",
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return sysErr(err)
		}
		v, err := loadConfig(configDir)
		if err != nil {
			return sysErr(err)
		}
		settings = v
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.facets)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "user id the command acts as")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print compact JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(defCmd)
	rootCmd.AddCommand(propCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// systemError marks failures of the environment rather than of the request.
type systemError struct{ err error }

func (e systemError) Error() string { return e.err.Error() }
func (e systemError) Unwrap() error { return e.err }

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return systemError{err}
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se systemError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
