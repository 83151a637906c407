// Package cmd provides the command-line interface for tabsidian with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --target, etc.) - highest priority
//	2. TABSIDIAN_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (TABSIDIAN_EXPORT_TARGET, etc.)
//	4. Configuration files (.tabsidian.yml) - lowest priority
//
// Environment Variables:
//
//	TABSIDIAN_CONFIG_FILE: Path to custom configuration file
//	TABSIDIAN_EXPORT_TARGET: Override the delivery target
//	TABSIDIAN_OBSIDIAN_VAULT: Vault that receives note exports
//	And the rest following the TABSIDIAN_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/tabsidian/internal/config"
	"github.com/conneroisu/tabsidian/internal/logging"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tabsidian",
		Short: "Export browser tabs to Markdown",
		Long: `tabsidian turns a snapshot of a browser window's tabs into a Markdown
document using a small logic-less template language, and delivers it to a
file, stdout, the clipboard or an Obsidian vault.

Quick Start:
  tabsidian export tabs.json                  Write <timestamp>_OpenTabs.md
  tabsidian export --target stdout < tabs.json
  tabsidian validate template.md              Check a template
  tabsidian preview --serve template.md       Live preview in the browser
  tabsidian presets list                      Show available presets

Template syntax:
  {{name}}  {{{name}}}  {{& name}}  {{#section}}...{{/section}}
  {{^inverted}}...{{/inverted}}  {{! comment }}  {{.}}`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .tabsidian.yml, can also use TABSIDIAN_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")

	rootCmd.AddCommand(
		newExportCmd(),
		newValidateCmd(),
		newPreviewCmd(),
		newPresetsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree against os.Args. Interrupts cancel the
// command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. TABSIDIAN_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .tabsidian.yml in current directory
//
// A missing default config file is not an error; an explicit one that cannot
// be read is.
func initConfig(cmd *cobra.Command, cfgFile string) error {
	explicit := true
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tabsidian")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := bindFlags(cmd.Flags(), map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
	}); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && !explicit {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// env bundles what every command needs after configuration has loaded.
type env struct {
	cfg    *config.Config
	logger *logging.TabsidianLogger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	logger := logging.NewLogger(lc)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	return &env{cfg: cfg, logger: logger}, nil
}
