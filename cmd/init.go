package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/tclean/clean"
)

// initCmd: tclean init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = clean.DefaultConfigPath
		}
		if err := clean.SaveConfig(path, clean.DefaultConfig()); err != nil {
			return fmt.Errorf("initializing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", path)
		return nil
	},
}
