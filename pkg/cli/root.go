package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/ttdb/pkg/config"
)

const (
	// Version is the current version of ttdb
	Version = "1.0.0"
)

// Options holds the global flags for the ttdb CLI
type Options struct {
	ConfigDir string
	Debug     bool
}

// GlobalOptions is the shared flag instance
var GlobalOptions = &Options{}

// Settings is the configuration loaded by the root command
var Settings = config.Default()

// NewRootCommand creates the root cobra command for ttdb
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ttdb",
		Short: "ttdb - time-travel debugger for scripts",
		Long: `ttdb runs a script one statement at a time, records every step, and lets
you rewind to any earlier step to inspect variables and the call stack
without re-running the program.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging
			if GlobalOptions.Debug {
				log.SetOutput(os.Stderr)
				log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
			} else {
				log.SetOutput(io.Discard)
			}

			if err := initConfig(); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
	}

	// Persistent flags (available to all subcommands)
	cmd.PersistentFlags().BoolVar(&GlobalOptions.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&GlobalOptions.ConfigDir, "config-dir", "", "Configuration directory (default: ~/.ttdb)")

	cmd.AddCommand(NewDebugCommand())
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewConfigCommand())

	return cmd
}

// initConfig creates the config directory and default file if needed, then
// loads the settings.
func initConfig() error {
	dir, err := config.Dir(GlobalOptions.ConfigDir)
	if err != nil {
		return err
	}
	GlobalOptions.ConfigDir = dir

	path, err := config.Init(dir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	Settings = cfg
	return nil
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
