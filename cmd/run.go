package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var runCommand string

// runCmd evaluates a script or a single line and exits with its status.
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a script, a line given with -c, or standard input.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true

		name, src, err := runSource(cmd, args)
		if err != nil {
			return err
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.eval(name, src); err != nil {
			return &exitError{code: 1}
		}
		if code := s.exitCode(); code != 0 {
			return &exitError{code: code}
		}
		return nil
	},
}

func runSource(cmd *cobra.Command, args []string) (name, src string, err error) {
	switch {
	case cmd.Flags().Changed("command"):
		return "command", runCommand, nil
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return args[0], string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", "", err
	}
	return "stdin", string(data), nil
}

func init() {
	runCmd.Flags().StringVarP(&runCommand, "command", "c", "", "run the given line instead of a file")
	rootCmd.AddCommand(runCmd)
}
