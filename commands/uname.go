package commands

import (
	"os"
	"runtime"

	"github.com/josephlewis42/pipesh/core/engine"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Uname describes the host the shell runs on.
func Uname() engine.Command {
	return &SimpleCommand{
		Sig: protocol.NewSignature("uname").
			Describe("Return a record with system information.").
			InCategory(protocol.CategorySystem).
			Search("system", "info", "os").
			IO(protocol.NothingType, protocol.RecordType),
		Fn: func(es *engine.State, stack *engine.Stack, call *engine.Call, input protocol.PipelineData) (protocol.PipelineData, error) {
			span := call.Span()
			nodename, err := os.Hostname()
			if err != nil {
				es.Logger.Debug("couldn't read hostname", "err", err)
			}
			rec := (&protocol.RecordBuilder{}).
				Set("kernel-name", protocol.NewString(runtime.GOOS, span)).
				Set("nodename", protocol.NewString(nodename, span)).
				Set("machine", protocol.NewString(runtime.GOARCH, span)).
				Set("cpus", protocol.NewInt(int64(runtime.NumCPU()), span)).
				Build(span)
			return protocol.NewValueData(rec), nil
		},
		Ex: []engine.Example{
			{
				Description: "Get the name of the operating system.",
				Usage:       "uname | get kernel-name",
				Result:      protocol.NewString(runtime.GOOS, protocol.UnknownSpan),
			},
		},
	}
}

func init() {
	addCommand(Uname)
}
