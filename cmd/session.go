package cmd

import (
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/josephlewis42/pipesh/commands"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/diag"
	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/frontend"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/spf13/cobra"
)

// session is an engine holding every builtin and the frame commands typed
// at the top level run in.
type session struct {
	es     *engine.State
	stack  *engine.Stack
	cfg    *config.Configuration
	out    io.Writer
	errOut io.Writer
}

func newSession(cmd *cobra.Command, opts ...engine.Option) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return nil, err
	}

	opts = append([]engine.Option{
		engine.WithConfig(cfg),
		engine.WithLogger(log),
		engine.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}, opts...)
	es, err := engine.NewState(opts...)
	if err != nil {
		return nil, err
	}
	if err := commands.RegisterAll(es); err != nil {
		return nil, err
	}

	env := engine.NewEnvFromList(os.Environ())
	if _, ok := env.LookupEnv(engine.EnvPwd); !ok {
		if wd, err := os.Getwd(); err == nil {
			env.Setenv(engine.EnvPwd, wd)
		}
	}

	return &session{
		es:     es,
		stack:  engine.NewStack(env),
		cfg:    cfg,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// eval parses and runs src, printing its output. Failures are rendered
// against src and returned.
func (s *session) eval(name, src string) error {
	err := s.evalQuiet(src)
	if err != nil {
		r := diag.Renderer{Color: !color.NoColor, Name: name}
		r.Render(s.errOut, src, err)
	}
	return err
}

func (s *session) evalQuiet(src string) error {
	block, err := frontend.Parse(s.es, src)
	if err != nil {
		return err
	}
	out, err := s.es.EvalBlock(s.stack, block, protocol.Empty{})
	if err != nil {
		return err
	}
	if out.IsSignal() {
		return protocol.SignalEscapedError(out.Signal)
	}
	return printData(s.es, s.stack, s.out, out.Data)
}

// exitCode is the status of the last external command.
func (s *session) exitCode() int {
	code, err := strconv.Atoi(s.stack.Env().Getenv(engine.EnvLastExitCode))
	if err != nil {
		return 0
	}
	return code
}
