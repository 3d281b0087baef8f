package cmd

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/commands"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the builtin commands.
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands with their input and output types.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, b := range commands.ListBuiltinCommands() {
			var pairs []string
			for _, io := range b.Cmd.Signature().InputOutput {
				pairs = append(pairs, fmt.Sprintf("%s -> %s", io.In, io.Out))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", b.Name, strings.Join(pairs, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
