package cmd

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tabsidian/internal/presets"
)

func newPresetsCmd() *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage template presets",
		Long: `List, inspect, save, delete, import and export template presets.

Built-in presets have ids starting with "builtin:"; saved presets start with
"custom:" and live in the presets file (presets.file, default
.tabsidian/presets.yml).`,
	}

	presetsCmd.AddCommand(
		newPresetsListCmd(),
		newPresetsShowCmd(),
		newPresetsSaveCmd(),
		newPresetsDeleteCmd(),
		newPresetsImportCmd(),
		newPresetsExportCmd(),
	)
	return presetsCmd
}

func openLibrary(cmd *cobra.Command) (*env, *presets.Library, error) {
	e, err := loadEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	lib, err := presets.Open(e.cfg.Presets.File)
	if err != nil {
		return nil, nil, err
	}
	return e, lib, nil
}

func newPresetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, p := range lib.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Description)
			}
			return w.Flush()
		},
	}
}

func newPresetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Print a preset's template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			p, ok := lib.Find(args[0])
			if !ok {
				return fmt.Errorf("no preset with id or name %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Template)
			return nil
		},
	}
}

func newPresetsSaveCmd() *cobra.Command {
	var (
		id           string
		templateFile string
		inline       string
	)

	saveCmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a template as a preset",
		Long: `Save a template under a name. An existing saved preset with the same id
(--id) or name is updated; otherwise a new preset is created. Templates with
errors are refused.

The template comes from --template, --template-file, or stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			tpl := inline
			if tpl == "" {
				data, err := readInput(cmd, templateFile)
				if err != nil {
					return err
				}
				tpl = string(data)
			}

			p, err := lib.Save(args[0], tpl, id)
			if err != nil {
				return err
			}
			e.logger.Info(cmd.Context(), "Preset saved", "id", p.ID, "path", lib.Path())
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	flags := saveCmd.Flags()
	flags.StringVar(&id, "id", "", "id of the saved preset to update")
	flags.StringVarP(&templateFile, "template-file", "f", "", "read the template from a file")
	flags.StringVarP(&inline, "template", "t", "", "inline template")
	return saveCmd
}

func newPresetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			if err := lib.Delete(args[0]); err != nil {
				return err
			}
			e.logger.Info(cmd.Context(), "Preset deleted", "id", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newPresetsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import presets from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := lib.Import(data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message())
			if res.Imported == 0 {
				return fmt.Errorf("nothing imported")
			}
			return nil
		},
	}
}

func newPresetsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file|-]",
		Short: "Export saved presets as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 || args[0] == "-" {
				return lib.Export(cmd.OutOrStdout(), time.Now())
			}
			return exportToFile(lib, args[0])
		},
	}
}

func exportToFile(lib *presets.Library, path string) error {
	var buf bytes.Buffer
	if err := lib.Export(&buf, time.Now()); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
