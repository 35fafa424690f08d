package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tclean/clean"
	"github.com/gnolang/tclean/formatter"
	"github.com/gnolang/tclean/internal"
)

var watchDryRun bool

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Clean up Go files as they are saved",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		config, err := loadConfig()
		if err != nil {
			return err
		}
		logger := getLogger()
		engine, err := clean.New(config, logger, nil)
		if err != nil {
			return fmt.Errorf("initializing engine: %w", err)
		}

		out := cmd.OutOrStdout()
		src := internal.NewFileSource()
		handle := func(path string, c *internal.Change, err error) {
			switch {
			case err != nil:
				logger.Error("Error cleaning file", zap.String("file", path), zap.Error(err))
			case c == nil:
			case watchDryRun:
				fmt.Fprint(out, formatter.GenerateFormattedChange(c))
			default:
				if err := src.Write(c); err != nil {
					if errors.Is(err, internal.ErrModelAccess) {
						logger.Warn("File changed while cleaning, skipped", zap.String("file", path))
						return
					}
					logger.Error("Error writing file", zap.String("file", path), zap.Error(err))
					return
				}
				fmt.Fprint(out, formatter.GenerateFormattedChange(c))
			}
		}

		logger.Info("Watching for changes", zap.Strings("dirs", args))
		return engine.Watch(ctx, config.OptionSnapshot(), args, handle)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "Print changes without writing them")
}
