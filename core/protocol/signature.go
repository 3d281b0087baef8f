package protocol

import (
	"strings"
)

// Category groups commands in help output.
type Category string

const (
	CategoryCore       Category = "core"
	CategoryFilters    Category = "filters"
	CategoryMath       Category = "math"
	CategoryEnv        Category = "env"
	CategoryStrings    Category = "strings"
	CategoryFormats    Category = "formats"
	CategoryConversion Category = "conversions"
	CategoryFilesystem Category = "filesystem"
	CategoryHash       Category = "hash"
	CategorySystem     Category = "system"
	CategoryCustom     Category = "custom"
)

// PositionalArg describes one positional parameter.
type PositionalArg struct {
	Name string
	Desc string
	Type Type
	// Default is used for an omitted optional parameter. Nil means Nothing.
	Default Value
}

// Flag describes a named parameter. A flag without a Type is a switch whose
// presence means true.
type Flag struct {
	Long  string
	Short rune
	Desc  string
	// Type is nil for switches.
	Type     *Type
	Required bool
	Default  Value
}

// IsSwitch reports whether the flag takes no value.
func (f Flag) IsSwitch() bool {
	return f.Type == nil
}

// InOut is one accepted input type and the output it produces.
type InOut struct {
	In  Type
	Out Type
}

// Signature declares the parameters and the input/output contract of a
// command. It's built once when the command is registered and only read
// afterwards.
type Signature struct {
	Name        string
	Usage       string
	ExtraUsage  string
	Category    Category
	SearchTerms []string

	Required []PositionalArg
	Optional []PositionalArg
	Rest     *PositionalArg
	Flags    []Flag

	InputOutput []InOut

	// AllowUnknownArgs passes unparsed arguments through, used by commands
	// that forward their arguments to a process.
	AllowUnknownArgs bool
	// RedirectEnv copies environment changes made by a custom command back
	// to the caller.
	RedirectEnv bool
}

// HelpFlag is the switch every signature gets.
const HelpFlag = "help"

// NewSignature starts a signature. Every signature gets a --help switch.
func NewSignature(name string) *Signature {
	return (&Signature{Name: name, Category: CategoryCore}).
		Switch(HelpFlag, 'h', "display the help message for this command")
}

// Describe sets the one line usage.
func (s *Signature) Describe(usage string) *Signature {
	s.Usage = usage
	return s
}

// Extra sets the long form description.
func (s *Signature) Extra(text string) *Signature {
	s.ExtraUsage = text
	return s
}

// InCategory sets the help category.
func (s *Signature) InCategory(c Category) *Signature {
	s.Category = c
	return s
}

// Search adds extra terms for command lookup suggestions.
func (s *Signature) Search(terms ...string) *Signature {
	s.SearchTerms = append(s.SearchTerms, terms...)
	return s
}

// Req adds a required positional parameter.
func (s *Signature) Req(name string, t Type, desc string) *Signature {
	s.Required = append(s.Required, PositionalArg{Name: name, Type: t, Desc: desc})
	return s
}

// Opt adds an optional positional parameter.
func (s *Signature) Opt(name string, t Type, desc string) *Signature {
	s.Optional = append(s.Optional, PositionalArg{Name: name, Type: t, Desc: desc})
	return s
}

// OptDefault adds an optional positional parameter with a default.
func (s *Signature) OptDefault(name string, t Type, def Value, desc string) *Signature {
	s.Optional = append(s.Optional, PositionalArg{Name: name, Type: t, Desc: desc, Default: def})
	return s
}

// RestArgs collects the remaining positional arguments.
func (s *Signature) RestArgs(name string, t Type, desc string) *Signature {
	s.Rest = &PositionalArg{Name: name, Type: t, Desc: desc}
	return s
}

// Switch adds a boolean presence flag. Use 0 for no short name.
func (s *Signature) Switch(long string, short rune, desc string) *Signature {
	s.Flags = append(s.Flags, Flag{Long: long, Short: short, Desc: desc})
	return s
}

// Named adds a flag taking a value.
func (s *Signature) Named(long string, t Type, short rune, desc string) *Signature {
	typ := t
	s.Flags = append(s.Flags, Flag{Long: long, Short: short, Desc: desc, Type: &typ})
	return s
}

// NamedDefault adds a flag taking a value with a default.
func (s *Signature) NamedDefault(long string, t Type, short rune, def Value, desc string) *Signature {
	typ := t
	s.Flags = append(s.Flags, Flag{Long: long, Short: short, Desc: desc, Type: &typ, Default: def})
	return s
}

// IO declares an accepted input type and the output it produces.
func (s *Signature) IO(in, out Type) *Signature {
	s.InputOutput = append(s.InputOutput, InOut{In: in, Out: out})
	return s
}

// PassThroughArgs allows arguments the signature doesn't declare.
func (s *Signature) PassThroughArgs() *Signature {
	s.AllowUnknownArgs = true
	return s
}

// FindFlag looks up a named flag by its long name or its short name.
func (s *Signature) FindFlag(name string) (Flag, bool) {
	name = strings.TrimLeft(name, "-")
	for _, f := range s.Flags {
		if f.Long == name {
			return f, true
		}
		if f.Short != 0 && len([]rune(name)) == 1 && []rune(name)[0] == f.Short {
			return f, true
		}
	}
	return Flag{}, false
}

// Positional returns the i-th positional parameter, falling back to the
// rest parameter.
func (s *Signature) Positional(i int) (PositionalArg, bool) {
	switch {
	case i < len(s.Required):
		return s.Required[i], true
	case i < len(s.Required)+len(s.Optional):
		return s.Optional[i-len(s.Required)], true
	case s.Rest != nil:
		return *s.Rest, true
	}
	return PositionalArg{}, false
}

// NumPositionals is the number of required plus optional parameters.
func (s *Signature) NumPositionals() int {
	return len(s.Required) + len(s.Optional)
}

// OutputsFor returns the outputs declared for inputs compatible with in.
// ok is false when no declared input accepts in. Signatures without any
// declared pairs accept anything and produce anything.
func (s *Signature) OutputsFor(in Type) (outs []Type, ok bool) {
	if len(s.InputOutput) == 0 {
		return []Type{AnyType}, true
	}
	for _, io := range s.InputOutput {
		if in.Compatible(io.In) {
			outs = append(outs, io.Out)
		}
	}
	return outs, len(outs) > 0
}

// AcceptedInputs lists the declared input types.
func (s *Signature) AcceptedInputs() []Type {
	var out []Type
	for _, io := range s.InputOutput {
		out = append(out, io.In)
	}
	return out
}
