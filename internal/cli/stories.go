package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"storyblocks/internal/app"
)

func newCreateCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:     "new <title>",
		Short:   "Create an empty story",
		Example: `  storyblocks new "Weekend in Porto"`,
		Args:    cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			st, err := a.Stories.CreateStory(ctx, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "%s\t%s\n", st.ID, st.Slug)
			return nil
		}),
	}
}

func newListCommand(run runner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories, newest first",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			stories, err := a.Stories.ListStories(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stories)
			}
			if len(stories) == 0 {
				printf(cmd, "No stories yet. Create one with `storyblocks new <title>`.\n")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tTITLE\tUPDATED")
			for _, st := range stories {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", st.Slug, st.Title, humanize.Time(st.UpdatedAt))
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newDeleteCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <story>",
		Short: "Delete a story by id or slug",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			st, err := a.Stories.ResolveStory(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.Stories.DeleteStory(ctx, st.ID); err != nil {
				return err
			}
			printf(cmd, "Deleted %s\n", st.Slug)
			return nil
		}),
	}
}
