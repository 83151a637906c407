package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tabsidian/internal/version"
)

type versionOptions struct {
	format   string
	short    bool
	detailed bool
}

func newVersionCmd() *cobra.Command {
	opts := &versionOptions{}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for tabsidian including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  tabsidian version              # Show version
  tabsidian version --detailed   # Show detailed version info
  tabsidian version --format json # Output as JSON`,
		Args: cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionCommand(cmd.OutOrStdout(), opts)
		},
	}

	versionCmd.Flags().StringVar(&opts.format, "format", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&opts.short, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&opts.detailed, "detailed", false, "Show detailed version information")

	return versionCmd
}

func runVersionCommand(w io.Writer, opts *versionOptions) error {
	switch opts.format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(version.GetBuildInfo())
	case "text":
		switch {
		case opts.short:
			fmt.Fprintln(w, version.GetShortVersion())
		case opts.detailed:
			fmt.Fprintln(w, version.GetDetailedVersion())
		default:
			writeVersionDefault(w)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", opts.format)
	}
}

func writeVersionDefault(w io.Writer) {
	info := version.GetBuildInfo()

	fmt.Fprintf(w, "tabsidian %s", info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(w, " (%s)", info.GitCommit[:7])
	}
	if info.Dirty {
		fmt.Fprint(w, " (dirty)")
	}
	fmt.Fprintln(w)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(w, "Built: %s\n", info.BuildTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform: %s\n", info.Platform)
}
