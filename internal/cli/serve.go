package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyblocks/internal/app"
)

func newPublishCommand(run runner) *cobra.Command {
	var story string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write stories to the publish directory as static HTML",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if story != "" {
				st, err := a.Stories.ResolveStory(ctx, story)
				if err != nil {
					return err
				}
				path, err := a.Publisher.PublishStory(ctx, st.ID)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n", path)
				return nil
			}
			paths, err := a.Publisher.PublishAll(ctx)
			for _, p := range paths {
				printf(cmd, "%s\n", p)
			}
			return err
		}),
	}
	cmd.Flags().StringVarP(&story, "story", "s", "", "Publish only this story (id or slug)")
	return cmd
}

func newWatchCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Import files dropped into the inbox directory until interrupted",
		Long: `Watch imports every .md, .markdown and .json file in the inbox directory
(watch.dir, default <data_dir>/inbox) and re-imports a file each time it is
saved. When publish.schedule is set, stories are also published on that
cron schedule.`,
		Args: cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if expr := a.Config.Publish.Schedule; expr != "" {
				if err := a.Publisher.Schedule(ctx, expr); err != nil {
					return err
				}
			}
			printf(cmd, "Watching %s (Ctrl+C to stop)\n", a.Config.WatchDir())
			return a.Watcher().Run(ctx)
		}),
	}
}

func newMCPCommand(run runner, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tool surface on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			return a.ServeMCP(ctx, version)
		}),
	}
}
