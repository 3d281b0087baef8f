package engine

import (
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Well known variable names.
const (
	// InVariable holds the input of a closure or expression stage.
	InVariable = "in"
	// EnvVariable reads the environment as a record.
	EnvVariable = "env"
)

// Stack is one lexical frame of execution state: variables plus the
// environment table (which includes the working directory as PWD).
//
// A frame made by Push shares its environment with its parent and can read
// the parent's variables. A frame made by CalleeFrame or Snapshot is
// isolated: it sees only what was copied into it.
type Stack struct {
	parent *Stack
	vars   map[string]protocol.Value
	env    *Env
	depth  int
}

// NewStack creates a root frame over env.
func NewStack(env *Env) *Stack {
	if env == nil {
		env = NewEnv()
	}
	return &Stack{env: env}
}

// Push creates a child frame for a block body. Variable writes stay in the
// child; environment changes are shared.
func (s *Stack) Push() *Stack {
	return &Stack{parent: s, env: s.env, depth: s.depth}
}

// CalleeFrame creates an isolated frame for a closure or custom command
// call. The environment is copied and variables aren't visible.
func (s *Stack) CalleeFrame() *Stack {
	return &Stack{env: s.env.Clone(), depth: s.depth + 1}
}

// Snapshot returns a frozen, flattened copy of the visible variables and
// environment. Snapshots share nothing mutable with s.
func (s *Stack) Snapshot() *Stack {
	out := &Stack{
		vars:  make(map[string]protocol.Value),
		env:   s.env.Clone(),
		depth: s.depth,
	}
	var frames []*Stack
	for cur := s; cur != nil; cur = cur.parent {
		frames = append(frames, cur)
	}
	for i := len(frames) - 1; i >= 0; i-- {
		for k, v := range frames[i].vars {
			out.vars[k] = v
		}
	}
	return out
}

// Depth is the number of nested callee frames.
func (s *Stack) Depth() int {
	return s.depth
}

// AddVar binds a variable in this frame.
func (s *Stack) AddVar(name string, v protocol.Value) {
	if s.vars == nil {
		s.vars = make(map[string]protocol.Value)
	}
	s.vars[name] = v
}

// GetVar looks a variable up through the parent frames.
func (s *Stack) GetVar(name string) (protocol.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Env returns the environment table of the frame.
func (s *Stack) Env() *Env {
	return s.env
}

// Cwd is the working directory.
func (s *Stack) Cwd() string {
	if pwd := s.env.Getenv(EnvPwd); pwd != "" {
		return pwd
	}
	return "/"
}

// SetCwd changes the working directory.
func (s *Stack) SetCwd(dir string) {
	s.env.Setenv(EnvPwd, dir)
}

// ExpandPath resolves p against the working directory and home.
func (s *Stack) ExpandPath(p string) string {
	return ExpandPath(p, s.Cwd(), s.env.Getenv(EnvHome))
}

// RedirectEnvFrom copies the environment of a callee frame back, so a
// callee marked as environment-persisting can change the caller's
// environment, working directory included.
func (s *Stack) RedirectEnvFrom(callee *Stack) {
	s.env.ReplaceWith(callee.env)
}

// EnvRecord returns the environment as a record value.
func (s *Stack) EnvRecord(span protocol.Span) protocol.Value {
	b := &protocol.RecordBuilder{}
	for _, k := range s.env.Keys() {
		b.Set(k, protocol.NewString(s.env.Getenv(k), span))
	}
	return b.Build(span)
}
