package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/tclean/clean"
	"github.com/gnolang/tclean/formatter"
	"github.com/gnolang/tclean/internal/options"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List every option key with its current value",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCatalog(options.Catalog(), config.OptionSnapshot()))
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show a before/after sample of every enabled rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := clean.New(config, getLogger(), nil)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPreview(engine.Preview(config.OptionSnapshot())))
		return nil
	},
}
