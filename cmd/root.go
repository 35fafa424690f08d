package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tclean/clean"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile   string
	timeout   time.Duration
	verbose   bool
	jobs      int
	colorMode string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:               "tclean [paths...]",
	Short:             "tclean - rule-based clean-up of Go source files",
	TraverseChildren:  true, // Prioritize subcommands
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// no subcommand
		if len(args) == 0 {
			return cmd.Help()
		}
		// Format: tclean [path1 path2 ...] => behaves like the fix subcommand
		return fixCmd.RunE(fixCmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file (default "+clean.DefaultConfigPath+" when present)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Timeout for the whole run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "Number of files cleaned in parallel (default GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Colorize output (auto|on|off)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	switch colorMode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
	default:
		return fmt.Errorf("invalid --color value %q", colorMode)
	}

	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	return err
}

// loadConfig reads the file named by --config, or the default file when it
// exists. Flags override the file.
func loadConfig() (clean.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(clean.DefaultConfigPath); err == nil {
			path = clean.DefaultConfigPath
		}
	}

	config := clean.DefaultConfig()
	if path != "" {
		var err error
		config, err = clean.LoadConfig(path)
		if err != nil {
			return config, err
		}
	}
	if jobs > 0 {
		config.Jobs = jobs
	}
	return config, nil
}

func getLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// ErrPending is returned by a dry run that found files to clean.
var ErrPending = errors.New("some files need cleaning")
