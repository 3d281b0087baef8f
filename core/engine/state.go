package engine

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/josephlewis42/pipesh/core/process"
	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/afero"
)

// State is the process-wide engine state: the command registry, compiled
// blocks and the collaborators commands use. Commands are registered while
// the shell starts up; after that the registry is only read, so it isn't
// locked.
type State struct {
	commands map[string]Command
	blocks   []*ast.Block

	Config    *config.Configuration
	Fs        afero.Fs
	Interrupt *protocol.Interrupt
	Logger    *log.Logger
	// Stdout receives output written directly by commands such as print.
	Stdout io.Writer
	// Stderr receives the error output of external commands in inherit
	// mode.
	Stderr io.Writer
	Format protocol.Format

	killGrace time.Duration
}

// Option configures a new State.
type Option func(*State)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Configuration) Option {
	return func(s *State) { s.Config = cfg }
}

// WithFs sets the filesystem commands read and write.
func WithFs(fs afero.Fs) Option {
	return func(s *State) { s.Fs = fs }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *State) { s.Logger = l }
}

// WithInterrupt shares an interrupt flag, e.g. one raised by a signal
// handler.
func WithInterrupt(i *protocol.Interrupt) Option {
	return func(s *State) { s.Interrupt = i }
}

// WithOutput sets the writers for direct output and external stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *State) {
		s.Stdout = stdout
		s.Stderr = stderr
	}
}

// NewState creates an engine with an empty registry.
func NewState(opts ...Option) (*State, error) {
	s := &State{commands: make(map[string]Command)}
	for _, opt := range opts {
		opt(s)
	}

	if s.Config == nil {
		s.Config = config.Default()
	}
	if s.Fs == nil {
		s.Fs = afero.NewOsFs()
	}
	if s.Interrupt == nil {
		s.Interrupt = protocol.NewInterrupt()
	}
	if s.Logger == nil {
		s.Logger = logger.Discard()
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}

	enc, err := s.Config.TextEncoding()
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	s.Format = protocol.Format{
		Encoding:     enc,
		DecimalSizes: s.Config.FileSize.Format == "decimal",
	}

	grace, err := s.Config.KillGraceDuration()
	if err != nil {
		return nil, fmt.Errorf("external.kill_grace: %w", err)
	}
	s.killGrace = grace

	return s, nil
}

// Register adds commands to the registry. It must only be called during
// startup.
func (s *State) Register(cmds ...Command) error {
	for _, cmd := range cmds {
		name := cmd.Signature().Name
		if _, ok := s.commands[name]; ok {
			return fmt.Errorf("command %q registered twice", name)
		}
		s.commands[name] = cmd
	}
	return nil
}

// FindCommand looks up a registered command.
func (s *State) FindCommand(name string) (Command, bool) {
	cmd, ok := s.commands[name]
	return cmd, ok
}

// Commands returns every registered command sorted by name.
func (s *State) Commands() []Command {
	out := make([]Command, 0, len(s.commands))
	for _, c := range s.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Signature().Name < out[j].Signature().Name
	})
	return out
}

// AddBlock stores a block and returns its id.
func (s *State) AddBlock(b *ast.Block) int {
	s.blocks = append(s.blocks, b)
	return len(s.blocks) - 1
}

// Block returns a stored block.
func (s *State) Block(id int) (*ast.Block, error) {
	if id < 0 || id >= len(s.blocks) {
		return nil, protocol.GenericError(fmt.Sprintf("unknown block %d", id), protocol.UnknownSpan)
	}
	return s.blocks[id], nil
}

// Suggest returns the registered command name closest to name, or "".
func (s *State) Suggest(name string) string {
	var cmdNames []string
	owner := make(map[string]string)
	for n, cmd := range s.commands {
		cmdNames = append(cmdNames, n)
		owner[n] = n
		for _, term := range cmd.Signature().SearchTerms {
			if _, ok := owner[term]; !ok {
				owner[term] = n
			}
		}
	}
	sort.Strings(cmdNames)

	candidates := make([]string, 0, len(owner))
	for term := range owner {
		candidates = append(candidates, term)
	}
	sort.Strings(candidates)

	if ranks := fuzzy.RankFindFold(name, candidates); len(ranks) > 0 {
		sort.Stable(ranks)
		return owner[ranks[0].Target]
	}

	// Typos rarely form a subsequence; fall back to edit distance.
	best, bestDist := "", len(name)/2+1
	for _, n := range cmdNames {
		if d := fuzzy.LevenshteinDistance(name, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// ParallelThreads is the default worker count for parallel evaluation.
func (s *State) ParallelThreads() int {
	if n := s.Config.Parallel.Threads; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// RecursionLimit is the deepest allowed nesting of callee frames.
func (s *State) RecursionLimit() int {
	if s.Config.RecursionLimit > 0 {
		return s.Config.RecursionLimit
	}
	return 50
}

// StderrMode is the configured handling for external stderr.
func (s *State) StderrMode() process.StderrMode {
	switch s.Config.External.Stderr {
	case config.StderrCapture:
		return process.StderrCapture
	case config.StderrMerge:
		return process.StderrMerge
	default:
		return process.StderrInherit
	}
}
