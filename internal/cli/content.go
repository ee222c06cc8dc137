package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"storyblocks/internal/app"
	"storyblocks/internal/service"
)

func newRenderCommand(run runner) *cobra.Command {
	var (
		format string
		width  int
	)
	cmd := &cobra.Command{
		Use:   "render <story>",
		Short: "Render a story as html, markdown, terminal or json",
		Example: `  storyblocks render weekend-in-porto
  storyblocks render weekend-in-porto --format html > porto.html`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			st, err := a.Stories.ResolveStory(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := a.Stories.Render(ctx, st.ID, format, width)
			if err != nil {
				return err
			}
			printf(cmd, "%s", out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", service.FormatTerminal, "Output format: html, markdown, terminal, json")
	cmd.Flags().IntVarP(&width, "width", "w", 80, "Wrap width for terminal output")
	return cmd
}

func newExportCommand(run runner) *cobra.Command {
	var toFile string
	cmd := &cobra.Command{
		Use:   "export <story>",
		Short: "Export a story as JSON that import accepts",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			st, err := a.Stories.ResolveStory(ctx, args[0])
			if err != nil {
				return err
			}
			data, err := a.Stories.Export(ctx, st.ID)
			if err != nil {
				return err
			}
			if toFile == "" {
				printf(cmd, "%s\n", data)
				return nil
			}
			if err := os.WriteFile(toFile, append(data, '\n'), 0644); err != nil {
				return fmt.Errorf("write %s: %w", toFile, err)
			}
			printf(cmd, "Exported %s to %s\n", st.Slug, toFile)
			return nil
		}),
	}
	cmd.Flags().StringVar(&toFile, "file", "", "Write to file instead of stdout")
	return cmd
}

func newImportCommand(run runner) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "import <file.md|file.json>...",
		Short: "Import Markdown or JSON files, one story per file",
		Long: `Import replaces the blocks of the story whose title matches the file
name (without extension), creating it on first import. A JSON export
carries its own title, which wins.`,
		Args: cobra.MinimumNArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if title != "" && len(args) > 1 {
				return fmt.Errorf("--title needs exactly one file")
			}
			w := a.Watcher()
			for _, path := range args {
				if !service.Importable(path) {
					return fmt.Errorf("%s: only .md, .markdown and .json files can be imported", filepath.Base(path))
				}
				if title != "" {
					st, err := importTitled(ctx, a, path, title)
					if err != nil {
						return err
					}
					printf(cmd, "Imported %s as %s\n", path, st)
					continue
				}
				st, err := w.ImportFile(ctx, path)
				if err != nil {
					return err
				}
				printf(cmd, "Imported %s as %s\n", path, st.Slug)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Story title (defaults to the file name)")
	return cmd
}

func importTitled(ctx context.Context, a *app.App, path, title string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if filepath.Ext(path) == ".json" {
		st, err := a.Stories.ImportJSON(ctx, title, data)
		if err != nil {
			return "", err
		}
		return st.Slug, nil
	}
	st, err := a.Stories.ImportMarkdown(ctx, title, data)
	if err != nil {
		return "", err
	}
	return st.Slug, nil
}
