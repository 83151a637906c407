package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
	"github.com/conneroisu/tabsidian/internal/export"
	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/markdown"
	"github.com/conneroisu/tabsidian/internal/template"
	"github.com/conneroisu/tabsidian/internal/watcher"
)

type validateOptions struct {
	format  string
	preview bool
	watch   bool
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	validateCmd := &cobra.Command{
		Use:   "validate [template-file|-]",
		Short: "Check a template for errors",
		Long: `Parse a template and report errors and warnings.

The template is read from the named file ("-" for stdin), or else from the
configured template, template file or preset. With --preview the template
is also rendered against sample tabs.

Examples:
  tabsidian validate template.md
  tabsidian validate --preview --format json template.md
  tabsidian validate --watch template.md`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: bindOnRun(templateFlagKeys),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateCommand(cmd, args, opts)
		},
	}

	flags := validateCmd.Flags()
	addTemplateFlags(flags)
	flags.StringVar(&opts.format, "format", "text", "output format (text, json)")
	flags.BoolVar(&opts.preview, "preview", false, "render the template against sample tabs")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "re-validate the template file whenever it changes")

	return validateCmd
}

func runValidateCommand(cmd *cobra.Command, args []string, opts *validateOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q: expected text or json", opts.format)
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	load := func() (string, error) {
		if len(args) == 1 {
			data, err := readInput(cmd, args[0])
			return string(data), err
		}
		tpl, _, err := e.resolveTemplate()
		return tpl, err
	}

	if !opts.watch {
		return e.validateOnce(cmd, load, opts)
	}

	path := e.cfg.Export.TemplateFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" || path == "-" {
		return fmt.Errorf("--watch needs a template file")
	}
	handler := tserrors.NewErrorHandler(e.logger)
	return e.watchTemplate(cmd.Context(), path, func(ctx context.Context) {
		handler.Handle(ctx, e.validateOnce(cmd, load, opts))
	})
}

func (e *env) validateOnce(cmd *cobra.Command, load func() (string, error), opts *validateOptions) error {
	tpl, err := load()
	if err != nil {
		return err
	}
	tpl = markdown.Normalize(tpl)

	var report template.Diagnostics
	if opts.preview {
		composer := frontmatter.NewComposer(e.cfg.FrontmatterSettings(), e.logger)
		sample := export.SampleContext(cmd.Context(), time.Now(), composer)
		report = template.Diagnose(tpl, sample.Values())
	} else {
		report = template.Diagnostics{Result: template.Validate(tpl)}
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		if err := writeReportJSON(out, report, opts.preview); err != nil {
			return err
		}
	} else {
		writeReportText(out, report, opts.preview)
	}

	if !report.OK() {
		return fmt.Errorf("template has %d error(s)", len(report.Errors))
	}
	return nil
}

func writeReportJSON(w io.Writer, report template.Diagnostics, preview bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if preview {
		return enc.Encode(report)
	}
	return enc.Encode(report.Result)
}

func writeReportText(w io.Writer, report template.Diagnostics, preview bool) {
	for _, msg := range report.Errors {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
	for _, msg := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	if report.OK() && len(report.Warnings) == 0 {
		fmt.Fprintln(w, "Template is valid.")
	}
	if preview {
		fmt.Fprintln(w, "--- preview ---")
		fmt.Fprintln(w, report.Preview)
	}
}

// watchTemplate runs onChange once and again after every change to path,
// until ctx is done.
func (e *env) watchTemplate(ctx context.Context, path string, onChange func(ctx context.Context)) error {
	fw, err := e.startWatch(ctx, path, onChange)
	if err != nil {
		return err
	}
	defer fw.Stop()

	onChange(ctx)
	e.logger.Info(ctx, "Watching template", "path", path)
	<-ctx.Done()
	return nil
}

// startWatch calls onChange after every change to path until ctx is done.
// The caller stops the returned watcher.
func (e *env) startWatch(ctx context.Context, path string, onChange func(ctx context.Context)) (*watcher.FileWatcher, error) {
	fw, err := watcher.New(watcher.DefaultDelay, e.logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(watcher.NonEmptyFilter)
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		onChange(ctx)
		return nil
	})
	if err := fw.WatchFile(path); err != nil {
		fw.Stop()
		return nil, err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return nil, err
	}
	return fw, nil
}
