package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeusync/snapshot/internal/config"
	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/injector"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	// App is built by the root command before any subcommand runs.
	App *injector.App
}

// NewRootCommand creates the root command of the snapshot tool.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, inspect and move entity snapshots",
		Long: `Save the marked entities of a world into a type-keyed JSON document and
load them back with fresh identities and rewritten references.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewArchiveCommand(opts))

	return cmd
}

func (o *RootOptions) setup() error {
	cfg, err := config.LoadFile(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		if _, err = log.ParseLevel(o.LogLevel); err != nil {
			return err
		}
		cfg.Log.Level = o.LogLevel
	}
	o.App, err = injector.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to a file, or to the command output when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		if _, err := cmd.OutOrStdout().Write(append(data, '\n')); err != nil {
			return err
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
