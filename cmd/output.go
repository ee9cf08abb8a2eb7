package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// outputFlag is the -o/--output value. "json" is the only format besides
// the default human-readable one.
type outputFlag string

var _ pflag.Value = (*outputFlag)(nil)

func (o *outputFlag) String() string { return string(*o) }

func (o *outputFlag) Set(v string) error {
	if err := checkOutput(v); err != nil {
		return err
	}
	*o = outputFlag(v)
	return nil
}

func (o *outputFlag) Type() string { return "format" }

func checkOutput(v string) error {
	if v != "" && v != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}
	return nil
}

func addOutputFlag(cmd *cobra.Command) {
	var o outputFlag
	cmd.Flags().VarP(&o, "output", "o", "Output format (json)")
}

func getOutput(cmd *cobra.Command) string {
	f := cmd.Flags().Lookup("output")
	if f == nil {
		return ""
	}
	return f.Value.String()
}
