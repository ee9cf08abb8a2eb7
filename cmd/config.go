package cmd

import (
	"context"
	"os"

	"github.com/mise-en-place/cli/internal/config"
	"github.com/mise-en-place/cli/pkg/table"
	"github.com/mise-en-place/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ConfigCmd shows and changes settings.
type ConfigCmd struct {
	// cfg is the resolved configuration, flags and environment included.
	cfg config.Config
	// path is the config file that set writes to.
	path string
}

// ConfigShowInput holds input for config show.
type ConfigShowInput struct {
	Output string
}

// Show prints every setting with its resolved value.
func (c ConfigCmd) Show(ctx context.Context, in ConfigShowInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}
	values := make(map[string]string, len(config.Keys()))
	rows := pterm.TableData{{"Setting", "Value"}}
	for _, k := range config.Keys() {
		v, err := c.cfg.Get(k)
		if err != nil {
			return err
		}
		values[k] = v
		rows = append(rows, []string{k, util.OrDash(v)})
	}
	if in.Output == "json" {
		return util.PrintPrettyJSON(values)
	}
	table.PrintTableNoPad(rows, true)
	pterm.Info.Printf("Config file: %s\n", c.path)
	return nil
}

// ConfigSetInput holds input for config set.
type ConfigSetInput struct {
	Key   string
	Value string
}

// Set changes one setting in the config file. Environment variables and
// flags are not written.
func (c ConfigCmd) Set(ctx context.Context, in ConfigSetInput) error {
	fileCfg, err := config.LoadFile(c.path)
	if err != nil {
		return err
	}
	if err := fileCfg.Set(in.Key, in.Value); err != nil {
		return err
	}
	if err := config.Save(c.path, fileCfg); err != nil {
		return err
	}
	v, _ := fileCfg.Get(in.Key)
	pterm.Success.Printf("Set %s to %s\n", in.Key, v)
	return nil
}

// --- Cobra wiring ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Change a setting in the config file",
	Example:   "  mep config set credential_backend file\n  mep config set batch_delay 1s",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE:      runConfigSet,
}

func init() {
	addOutputFlag(configShowCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	if p := os.Getenv(config.EnvConfig); p != "" {
		return p
	}
	return config.DefaultPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	c := ConfigCmd{cfg: getApp(cmd).cfg, path: configPath(cmd)}
	return c.Show(cmd.Context(), ConfigShowInput{Output: getOutput(cmd)})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	c := ConfigCmd{path: configPath(cmd)}
	return c.Set(cmd.Context(), ConfigSetInput{Key: args[0], Value: args[1]})
}
