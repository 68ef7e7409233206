// Package cli implements the opf command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openpatterns/opf/pkg/opf"
	"github.com/openpatterns/opf/pkg/opf/config"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version    string
	configPath string
	archiveDB  string
	verbose    bool
	silent     bool
	comp       *config.Components
	rootCmd    *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "opf",
		Short:         "Open Pattern Format translator for ASTM/AAMA DXF drawings",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initApp(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to YAML config file")
	c.rootCmd.PersistentFlags().StringVar(&c.archiveDB, "db", "", "Pattern archive database (overrides archive.path)")
	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	c.rootCmd.AddCommand(c.newParseCommand())
	c.rootCmd.AddCommand(c.newBatchCommand())
	c.rootCmd.AddCommand(c.newArchiveCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := c.rootCmd.ExecuteContext(ctx)
	if c.comp != nil {
		if cerr := c.comp.Close(); cerr != nil && err == nil {
			err = cerr
		}
		c.comp = nil
	}
	if err != nil {
		fmt.Fprintf(c.rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// initApp loads configuration and builds the logger, archive and metrics.
func (c *CLI) initApp(cmd *cobra.Command) error {
	if c.comp != nil {
		return nil
	}

	loader := config.Loader{
		ConfigPath:  c.configPath,
		ArchivePath: c.archiveDB,
	}
	if c.verbose {
		loader.Level = "debug"
	}
	if c.silent {
		loader.Level = "fatal"
	}

	comp, err := loader.Load(cmd.Context())
	if err != nil {
		return err
	}
	c.comp = comp
	c.comp.Logger.Debug("configuration loaded",
		zap.String("config", c.configPath),
		zap.String("archive", comp.Config.Archive.Path),
	)
	return nil
}

// parser builds a Parser over the loaded components.
func (c *CLI) parser(archive bool) *opf.Parser {
	return opf.New(opf.Options{
		Logger:  c.comp.Logger,
		Store:   c.comp.Store,
		Metrics: c.comp.Metrics,
		Archive: archive,
	})
}

// requireArchive rejects archive operations without a database, since the
// in-memory fallback would drop the data on exit.
func (c *CLI) requireArchive() error {
	if c.comp.Config.Archive.Path == "" {
		return fmt.Errorf("no archive configured: set archive.path or --db")
	}
	return nil
}

// pretty resolves the --pretty flag against output.pretty.
func (c *CLI) pretty(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("pretty") {
		return flag
	}
	return c.comp.Config.Output.Pretty
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
