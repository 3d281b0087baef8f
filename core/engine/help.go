package engine

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/pborman/getopt/v2"
)

// FlagSet builds a getopt set mirroring the flags of sig. Switches are
// bools, valued flags are strings holding their default.
func FlagSet(sig *protocol.Signature) (*getopt.Set, map[string]*string, map[string]*bool) {
	set := getopt.New()
	set.SetProgram(sig.Name)

	values := make(map[string]*string)
	switches := make(map[string]*bool)
	for _, f := range sig.Flags {
		if f.IsSwitch() {
			b := new(bool)
			set.FlagLong(b, f.Long, f.Short, f.Desc)
			switches[f.Long] = b
			continue
		}

		s := new(string)
		if f.Default != nil {
			def, err := protocol.CoerceString(f.Default)
			if err == nil {
				*s = def
			}
		}
		set.FlagLong(s, f.Long, f.Short, f.Desc, f.Type.String())
		values[f.Long] = s
	}
	return set, values, switches
}

// usageLine is the one line synopsis of a command, e.g.
// "first {flags} (rows)".
func usageLine(sig *protocol.Signature) string {
	parts := []string{sig.Name}
	if len(sig.Flags) > 0 {
		parts = append(parts, "{flags}")
	}
	for _, p := range sig.Required {
		parts = append(parts, "<"+p.Name+">")
	}
	for _, p := range sig.Optional {
		parts = append(parts, "("+p.Name+")")
	}
	if sig.Rest != nil {
		parts = append(parts, "..."+sig.Rest.Name)
	}
	return strings.Join(parts, " ")
}

// GetFullHelp renders the help text of a command: description, usage,
// flags, parameters, input/output types and examples.
func GetFullHelp(es *State, cmd Command) string {
	sig := cmd.Signature()
	var b strings.Builder

	if sig.Usage != "" {
		b.WriteString(sig.Usage + "\n\n")
	}
	if sig.ExtraUsage != "" {
		b.WriteString(sig.ExtraUsage + "\n\n")
	}
	if len(sig.SearchTerms) > 0 {
		fmt.Fprintf(&b, "Search terms: %s\n\n", strings.Join(sig.SearchTerms, ", "))
	}

	fmt.Fprintf(&b, "Usage:\n  > %s\n\n", usageLine(sig))

	if len(sig.Flags) > 0 {
		b.WriteString("Flags:\n")
		set, _, _ := FlagSet(sig)
		set.PrintOptions(&b)
		b.WriteString("\n")
	}

	if sig.NumPositionals() > 0 || sig.Rest != nil {
		b.WriteString("Parameters:\n")
		for _, p := range sig.Required {
			fmt.Fprintf(&b, "  %s <%s>: %s\n", p.Name, p.Type, p.Desc)
		}
		for _, p := range sig.Optional {
			suffix := "(optional)"
			if p.Default != nil {
				if def, err := es.Format.String(p.Default); err == nil {
					suffix = fmt.Sprintf("(optional, default: %s)", def)
				}
			}
			fmt.Fprintf(&b, "  %s <%s>: %s %s\n", p.Name, p.Type, p.Desc, suffix)
		}
		if sig.Rest != nil {
			fmt.Fprintf(&b, "  ...%s <%s>: %s\n", sig.Rest.Name, sig.Rest.Type, sig.Rest.Desc)
		}
		b.WriteString("\n")
	}

	if len(sig.InputOutput) > 0 {
		width := len("input")
		for _, io := range sig.InputOutput {
			if n := len(io.In.String()); n > width {
				width = n
			}
		}
		b.WriteString("Input/output types:\n")
		fmt.Fprintf(&b, "  %-*s | %s\n", width, "input", "output")
		for _, io := range sig.InputOutput {
			fmt.Fprintf(&b, "  %-*s | %s\n", width, io.In, io.Out)
		}
		b.WriteString("\n")
	}

	if ex, ok := cmd.(Exampler); ok && len(ex.Examples()) > 0 {
		b.WriteString("Examples:\n")
		for _, e := range ex.Examples() {
			fmt.Fprintf(&b, "  %s\n  > %s\n", e.Description, e.Usage)
			if e.Result != nil {
				if out, err := es.Format.String(e.Result); err == nil && out != "" {
					fmt.Fprintf(&b, "  %s\n", out)
				}
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
