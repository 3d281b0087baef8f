package cmd

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/spf13/cobra"
)

// EnvPrompt holds the prompt template. \w is replaced with the working
// directory.
const EnvPrompt = "PROMPT"

const defaultPrompt = `\w> `

func (s *session) prompt() string {
	env := s.stack.Env()
	prompt, ok := env.LookupEnv(EnvPrompt)
	if !ok {
		prompt = defaultPrompt
	}

	pwd := s.stack.Cwd()
	if home := env.Getenv(engine.EnvHome); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	return strings.ReplaceAll(prompt, `\w`, pwd)
}

// replCmd runs an interactive session.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		cfg := &readline.Config{
			Stdin:        readline.NewCancelableStdin(os.Stdin),
			Stdout:       cmd.OutOrStdout(),
			Stderr:       cmd.ErrOrStderr(),
			HistoryFile:  s.cfg.HistoryPath(),
			HistoryLimit: s.cfg.History.MaxSize,
		}
		if err := cfg.Init(); err != nil {
			return err
		}
		rl, err := readline.NewEx(cfg)
		if err != nil {
			return err
		}
		defer rl.Close()

		return s.repl(rl)
	},
}

func (s *session) repl(rl *readline.Instance) error {
	sigs := make(chan os.Signal, 1)
	defer signal.Stop(sigs)

	for {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()

		switch {
		case errors.Is(err, io.EOF):
			return nil // Input closed, quit.

		case errors.Is(err, readline.ErrInterrupt):
			continue // Discard the line.

		case err != nil:
			return err

		case strings.TrimSpace(line) == "":
			continue

		case strings.TrimSpace(line) == "exit":
			return nil
		}

		// Readline only sees Ctrl-C while reading, while a pipeline runs
		// the signal stops it instead.
		signal.Notify(sigs, os.Interrupt)
		done := make(chan struct{})
		go func() {
			select {
			case <-sigs:
				s.es.Logger.Debug("interrupt requested")
				s.es.Interrupt.Trigger()
			case <-done:
			}
		}()

		_ = s.eval("repl", line)

		close(done)
		signal.Stop(sigs)
		s.es.Interrupt.Reset()
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
