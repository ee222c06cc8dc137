// Package cli is the storyblocks command line.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storyblocks/internal/app"
	"storyblocks/internal/config"
)

// shutdownGrace bounds how long Close waits for in-flight publishes.
const shutdownGrace = 5 * time.Second

// NewRootCommand builds the storyblocks command tree.
func NewRootCommand(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "storyblocks",
		Short: "Block-based story editor with MCP, import and static publishing",
		Long: `storyblocks keeps stories as ordered content blocks (text, headings,
images, bullet lists and dividers) in SQLite, Postgres, MySQL or MongoDB.

Agents edit stories through the MCP server; people can import Markdown or
JSON, preview in the terminal and publish static HTML.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")

	run := func(fn func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := app.Load(ctx, configPath)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				a.Close(closeCtx)
			}()
			return fn(ctx, cmd, a, args)
		}
	}

	root.AddCommand(
		newCreateCommand(run),
		newListCommand(run),
		newDeleteCommand(run),
		newRenderCommand(run),
		newExportCommand(run),
		newImportCommand(run),
		newPublishCommand(run),
		newWatchCommand(run),
		newMCPCommand(run, version),
	)
	return root
}

// runner wraps a command body with app setup and teardown.
type runner func(fn func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
