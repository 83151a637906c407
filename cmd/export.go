package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tabsidian/internal/delivery"
	"github.com/conneroisu/tabsidian/internal/export"
	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/markdown"
	"github.com/conneroisu/tabsidian/internal/tabs"
	"github.com/conneroisu/tabsidian/internal/template"
)

// deliverers builds the Deliverer for a run; tests replace it.
var deliverers = delivery.New

func newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export [snapshot.json|-]",
		Short: "Export a window's tabs to Markdown",
		Long: `Render a tab snapshot to Markdown and deliver it.

The snapshot is JSON: {"window": {...}, "tabs": [...], "groups": [...]} or a
bare array of tabs. It is read from the named file, or from stdin when the
argument is "-" or missing.

Pinned tabs, browser-internal pages and restricted URLs are skipped. When
more than one tab is highlighted only highlighted tabs are exported (see
--only-selected).

Examples:
  tabsidian export tabs.json
  tabsidian export --target stdout --preset builtin:list < tabs.json
  tabsidian export --target obsidian --vault Notes tabs.json`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: bindOnRun(mergeKeys(templateFlagKeys, map[string]string{
			"target":         "export.target",
			"output-dir":     "export.output_dir",
			"only-selected":  "export.only_selected",
			"restricted-url": "export.restricted_urls",
			"vault":          "obsidian.vault",
			"note-path":      "obsidian.note_path",
		})),
		RunE: runExportCommand,
	}

	flags := exportCmd.Flags()
	addTemplateFlags(flags)
	flags.String("target", "", "delivery target (auto, file, stdout, clipboard, obsidian)")
	flags.StringP("output-dir", "o", "", "directory for exported files")
	flags.String("only-selected", "", "export only highlighted tabs (auto, always, never)")
	flags.StringSlice("restricted-url", nil, "skip tabs whose URL contains this text or matches this glob (replaces the configured list)")
	flags.String("vault", "", "Obsidian vault name")
	flags.String("note-path", "", "note path inside the vault ({timestamp} is replaced)")

	return exportCmd
}

func runExportCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	op := e.logger.StartOperation("export")
	snap, err := readSnapshot(cmd, args)
	if err != nil {
		op.EndWithError(ctx, err)
		return err
	}

	matcher, err := tabs.NewMatcher(e.cfg.Export.RestrictedURLs)
	if err != nil {
		return err
	}
	selected := matcher.Select(snap.Tabs, e.cfg.SelectionMode())
	if len(selected) == 0 {
		e.logger.Info(ctx, "No tabs to export", "tabs", len(snap.Tabs))
		fmt.Fprintln(cmd.ErrOrStderr(), "No tabs to export.")
		return nil
	}

	tpl, source, err := e.resolveTemplate()
	if err != nil {
		return err
	}

	target, err := delivery.ParseTarget(e.cfg.DeliveryTarget())
	if err != nil {
		return err
	}
	note, err := e.cfg.NoteTarget()
	if err != nil {
		return err
	}

	res := markdown.NewFormatter(e.logger).Format(ctx, selected, tpl, export.Options{
		Window:   snap.Window,
		Groups:   snap.Groups,
		Composer: frontmatter.NewComposer(e.cfg.FrontmatterSettings(), e.logger),
	})
	if res.Fallback {
		fmt.Fprintf(cmd.ErrOrStderr(), "Template failed (%s); used the default template.\n", template.Describe(res.TemplateError))
	}

	d := deliverers(e.cfg.Export.OutputDir, note, e.logger)
	d.Stdout = cmd.OutOrStdout()
	outcome, err := d.Deliver(ctx, target, delivery.Document{Markdown: res.Markdown, Timestamp: res.Timestamp})
	if err != nil {
		op.EndWithError(ctx, err)
		return err
	}
	op.End(ctx, "bytes", len(res.Markdown))

	e.logger.Info(ctx, "Export complete",
		"tabs", len(selected),
		"skipped", len(snap.Tabs)-len(selected),
		"template", source,
		"target", string(outcome.Target),
		"fallback_template", res.Fallback,
	)
	reportOutcome(cmd, outcome, len(selected))
	return nil
}

func readSnapshot(cmd *cobra.Command, args []string) (*tabs.Snapshot, error) {
	if len(args) == 1 && args[0] != "-" {
		return tabs.Load(args[0])
	}
	data, err := readInput(cmd, "-")
	if err != nil {
		return nil, fmt.Errorf("reading snapshot from stdin: %w", err)
	}
	return tabs.Parse(data)
}

func reportOutcome(cmd *cobra.Command, outcome delivery.Outcome, count int) {
	out := cmd.ErrOrStderr()
	noun := "tabs"
	if count == 1 {
		noun = "tab"
	}
	if outcome.Fallback {
		fmt.Fprintf(out, "Note delivery failed: %v\n", outcome.Reason)
	}
	switch outcome.Target {
	case delivery.TargetFile:
		fmt.Fprintf(out, "Exported %d %s to %s\n", count, noun, outcome.Path)
	case delivery.TargetClipboard:
		fmt.Fprintf(out, "Copied %d %s to the clipboard\n", count, noun)
	case delivery.TargetObsidian:
		fmt.Fprintf(out, "Sent %d %s to Obsidian\n", count, noun)
	}
}
