package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/markdown"
	"github.com/conneroisu/tabsidian/internal/preview"
)

type previewOptions struct {
	serve bool
	html  bool
}

func newPreviewCmd() *cobra.Command {
	opts := &previewOptions{}

	previewCmd := &cobra.Command{
		Use:   "preview [template-file]",
		Short: "Render a template against sample tabs",
		Long: `Render a template against a built-in sample window and print the result.

With --serve, start a local web server that shows the rendered document and
reloads the page whenever the template file changes.

Examples:
  tabsidian preview template.md
  tabsidian preview --preset builtin:groups
  tabsidian preview --serve --port 9000 template.md`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: bindOnRun(mergeKeys(templateFlagKeys, map[string]string{
			"host": "preview.host",
			"port": "preview.port",
		})),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreviewCommand(cmd, args, opts)
		},
	}

	flags := previewCmd.Flags()
	addTemplateFlags(flags)
	flags.BoolVarP(&opts.serve, "serve", "s", false, "serve a live preview in the browser")
	flags.BoolVar(&opts.html, "html", false, "print rendered HTML instead of Markdown")
	flags.String("host", "", "preview server host")
	flags.Int("port", 0, "preview server port")

	return previewCmd
}

func runPreviewCommand(cmd *cobra.Command, args []string, opts *previewOptions) error {
	ctx := cmd.Context()
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	var piped *string
	if len(args) == 1 && args[0] == "-" {
		data, err := readInput(cmd, "-")
		if err != nil {
			return err
		}
		tpl := string(data)
		piped = &tpl
	}

	source := func() (string, error) {
		if piped != nil {
			return *piped, nil
		}
		if len(args) == 1 {
			data, err := readInput(cmd, args[0])
			return string(data), err
		}
		tpl, _, err := e.resolveTemplate()
		return tpl, err
	}

	renderer := preview.NewRenderer(
		markdown.NewFormatter(e.logger),
		frontmatter.NewComposer(e.cfg.FrontmatterSettings(), e.logger),
		nil,
	)

	if !opts.serve {
		tpl, err := source()
		if err != nil {
			return err
		}
		page, err := renderer.Render(ctx, tpl)
		if err != nil {
			return err
		}
		return printPage(cmd.OutOrStdout(), cmd.ErrOrStderr(), page, opts.html)
	}

	pc := preview.Config{Host: e.cfg.Preview.Host, Port: e.cfg.Preview.Port}
	server := preview.NewServer(pc, source, renderer, e.logger)

	path := e.cfg.Export.TemplateFile
	if len(args) == 1 {
		path = args[0]
	}
	if path != "" && path != "-" {
		fw, err := e.startWatch(ctx, path, func(ctx context.Context) {
			server.Notify(ctx)
		})
		if err != nil {
			return err
		}
		defer fw.Stop()
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Preview at http://%s (Ctrl-C to stop)\n", pc.Addr())
	return server.ListenAndServe(ctx)
}

func printPage(out, errOut io.Writer, page preview.Page, html bool) error {
	if page.Fallback {
		fmt.Fprintln(errOut, "The template failed to render; showing the default template.")
	}
	for _, msg := range page.Diagnostics.Errors {
		fmt.Fprintf(errOut, "error: %s\n", msg)
	}
	for _, msg := range page.Diagnostics.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", msg)
	}
	if html {
		_, err := io.WriteString(out, page.HTML)
		return err
	}
	_, err := io.WriteString(out, page.Markdown)
	return err
}
