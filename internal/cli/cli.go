// Package cli implements the pullwave command-line interface.
//
// This package provides commands for replaying scenario files against an
// incremental graph, exporting graphs as Graphviz DOT or rendered images,
// and serving a live graph over HTTP for inspection. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - run: Replay a scenario file and print the outputs after each commit
//   - dot: Export a scenario's dependency graph as DOT, SVG, or PNG
//   - serve: Serve a scenario's graph over an HTTP inspection API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pullwave/pullwave/pkg/buildinfo"
)

// appName is the application name used for display.
const appName = "pullwave"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pullwave replays and inspects incremental dataflow graphs",
		Long:         `Pullwave is a CLI for incremental computation: it builds dependency graphs from declarative scenario files, replays transactions against them, and shows which nodes recompute and which are served from cache.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.runCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
