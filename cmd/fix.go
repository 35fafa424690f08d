package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tclean/clean"
	"github.com/gnolang/tclean/formatter"
)

var dryRun bool

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Clean up Go files in place",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return runFix(ctx, cmd.OutOrStdout(), getLogger(), args, dryRun)
	},
}

func init() {
	fixCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run in dry-run mode (show changes without applying them)")
}

func runFix(ctx context.Context, out io.Writer, logger *zap.Logger, paths []string, dryRun bool) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := clean.New(config, logger, nil)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	report, err := clean.ProcessPaths(ctx, logger, engine, config.OptionSnapshot(), paths, !dryRun)
	if err != nil {
		return err
	}

	changed := report.Changed()
	if dryRun {
		fmt.Fprint(out, formatter.GenerateFormattedChanges(changed))
	}
	fmt.Fprint(out, formatter.GenerateSummary(report, !dryRun))

	if len(report.Failures) > 0 {
		return fmt.Errorf("%d file(s) could not be cleaned", len(report.Failures))
	}
	if dryRun && len(changed) > 0 {
		return ErrPending
	}
	return nil
}
