package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pullwave/pullwave/pkg/cache"
	"github.com/pullwave/pullwave/pkg/render"
	"github.com/pullwave/pullwave/pkg/scenario"
	"github.com/pullwave/pullwave/pkg/snapshot"
)

// dotCommand creates the dot command for exporting graphs.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "dot [scenario.toml]",
		Short: "Export a scenario's dependency graph as DOT, SVG, or PNG",
		Long: `Export the dependency graph of a scenario.

Dependency edges are discovered by evaluation, so the command pulls every
declared output once before taking the snapshot. Without --output the DOT
text is written to stdout; SVG and PNG always require --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDot(args[0], output, format, detailed, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout, DOT only)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot (default), svg, png")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node kinds in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runDot(path, output, format string, detailed, noCache bool) error {
	if format == "" {
		format = formatFromPath(output)
	}
	switch format {
	case "dot", "svg", "png":
	default:
		return fmt.Errorf("unsupported format %q (want dot, svg, or png)", format)
	}
	// Reject an impossible destination before doing any work.
	if output == "" && format != "dot" {
		return fmt.Errorf("format %s requires --output", format)
	}

	s, err := scenario.Load(path)
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", path, err)
	}
	p, err := scenario.Build(s)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	// Populate edges before snapshotting.
	if _, err := p.Outputs(); err != nil {
		return fmt.Errorf("evaluate outputs: %w", err)
	}
	printDetail("%d nodes · %d edges", p.Graph.NodeCount(), p.Graph.EdgeCount())

	dot := render.ToDOT(snapshot.FromGraph(p.Graph), render.Options{Detailed: detailed})

	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg", "png":
		if data, err = c.renderCached(dot, format, noCache); err != nil {
			return err
		}
	}

	if output == "" {
		fmt.Print(dot)
		return nil
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printFile(output)
	return nil
}

// renderCached renders DOT to the requested format, serving identical
// inputs from the on-disk render cache.
func (c *CLI) renderCached(dot, format string, noCache bool) ([]byte, error) {
	store := newRenderCache(noCache)
	key := cache.Key(dot, format)
	if data, ok, err := store.Get(key); err == nil && ok {
		c.Logger.Debug("render cache hit", "format", format)
		return data, nil
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "svg":
		data, err = render.RenderSVG(dot)
	case "png":
		data, err = render.RenderPNG(dot)
	}
	if err != nil {
		return nil, err
	}
	if err := store.Set(key, data); err != nil {
		c.Logger.Debug("render cache write failed", "err", err)
	}
	return data, nil
}

// newRenderCache returns the file cache under the XDG cache directory,
// falling back to a no-op cache when disabled or unavailable.
func newRenderCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir, 30*24*time.Hour)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/pullwave/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// formatFromPath infers the output format from the file extension,
// defaulting to DOT.
func formatFromPath(output string) string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".svg":
		return "svg"
	case ".png":
		return "png"
	default:
		return "dot"
	}
}
