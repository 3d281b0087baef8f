package engine

import (
	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Command is the contract every builtin, custom and plugin command meets.
type Command interface {
	// Signature describes the command. It must be pure and return the same
	// value for every call.
	Signature() *protocol.Signature

	// Run executes the command. Arguments in call are already evaluated
	// and bound against the signature.
	Run(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.PipelineData, error)
}

// Keyword is a command that controls its own evaluation order, such as a
// conditional or a loop. It receives its arguments unevaluated through
// Call.Raw and may emit control signals.
type Keyword interface {
	Command

	RunKeyword(es *State, stack *Stack, call *Call, input protocol.PipelineData) (protocol.Outcome, error)
}

// Example is a documented use of a command that doubles as a test.
type Example struct {
	Description string
	// Usage is the example as a user would type it.
	Usage string
	// Input is piped into the command, nil for no input.
	Input protocol.Value
	Args  []ast.Argument
	// Result is the expected output, nil if it can't be checked.
	Result protocol.Value
}

// Exampler is implemented by commands that document examples.
type Exampler interface {
	Examples() []Example
}
