package cmd

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/cobra"
)

// helpCmd replaces cobra's help command so builtins can be looked up too.
var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any subcommand or builtin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return rootCmd.Help()
		}
		if sub, _, err := rootCmd.Find(args); err == nil && sub != rootCmd {
			return sub.Help()
		}

		cmd.SilenceUsage = true
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")
		builtin, ok := s.es.FindCommand(name)
		if !ok {
			return protocol.CommandNotFoundError(name, s.es.Suggest(name), protocol.UnknownSpan)
		}
		fmt.Fprint(cmd.OutOrStdout(), engine.GetFullHelp(s.es, builtin))
		return nil
	},
}

func init() {
	rootCmd.SetHelpCommand(helpCmd)
}
