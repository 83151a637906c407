package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds the named flags to viper keys. Flags bound this way only
// override configuration when set on the command line.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag --%s", name)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// bindOnRun returns a PreRunE that binds keys for the command being run, so
// commands sharing a key do not overwrite each other's binding.
func bindOnRun(keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), keys)
	}
}

// addTemplateFlags adds the flags that choose a template.
func addTemplateFlags(flags *pflag.FlagSet) {
	flags.StringP("template", "t", "", "inline template")
	flags.StringP("template-file", "f", "", "read the template from a file")
	flags.StringP("preset", "p", "", "use a preset by id or name")
}

var templateFlagKeys = map[string]string{
	"template":      "export.template",
	"template-file": "export.template_file",
	"preset":        "export.preset",
}

func mergeKeys(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// readInput reads a named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
