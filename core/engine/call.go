package engine

import (
	"fmt"

	"github.com/josephlewis42/pipesh/core/ast"
	"github.com/josephlewis42/pipesh/core/protocol"
)

// Call is a command invocation with its arguments bound against the
// command's signature.
//
// For ordinary commands every argument is already evaluated. Keywords get
// the same shape checks but no values; they read Raw and evaluate what
// they need themselves.
type Call struct {
	Head     string
	HeadSpan protocol.Span
	Raw      *ast.Call

	sig        *protocol.Signature
	positional []protocol.Value
	named      map[string]protocol.Value
	extra      []protocol.Value
}

// Span covers the whole call.
func (c *Call) Span() protocol.Span {
	if c.Raw == nil {
		return c.HeadSpan
	}
	return c.Raw.Span()
}

// Signature is the signature the call was bound against.
func (c *Call) Signature() *protocol.Signature {
	return c.sig
}

// Positional returns the i-th positional value. Omitted optional
// parameters hold their default or Nothing.
func (c *Call) Positional(i int) (protocol.Value, bool) {
	if i < 0 || i >= len(c.positional) {
		return nil, false
	}
	return c.positional[i], true
}

// Provided returns the i-th positional value unless it was omitted.
// Binding fills omitted optionals with Nothing, so Nothing counts as
// omitted.
func (c *Call) Provided(i int) (protocol.Value, bool) {
	v, ok := c.Positional(i)
	if !ok || protocol.IsNothing(v) {
		return nil, false
	}
	return v, true
}

// Req returns the i-th positional value, which binding guarantees for
// required parameters.
func (c *Call) Req(i int) protocol.Value {
	if v, ok := c.Positional(i); ok {
		return v
	}
	return protocol.Nothing{Loc: c.Span()}
}

// Rest returns positional values from start onwards, e.g. the values bound
// to the rest parameter.
func (c *Call) Rest(start int) []protocol.Value {
	if start >= len(c.positional) {
		return nil
	}
	return c.positional[start:]
}

// Extra returns arguments passed through to a command that accepts
// unknown arguments.
func (c *Call) Extra() []protocol.Value {
	return c.extra
}

// HasFlag reports whether a switch was given, or a boolean flag is true.
func (c *Call) HasFlag(long string) bool {
	v, ok := c.named[long]
	if !ok {
		return false
	}
	b, ok := v.(protocol.Bool)
	return ok && b.Val
}

// GetFlag returns the value of a flag, its default if it wasn't given.
// ok is false if neither exists.
func (c *Call) GetFlag(long string) (protocol.Value, bool) {
	v, ok := c.named[long]
	if !ok || protocol.IsNothing(v) {
		return nil, false
	}
	return v, true
}

// String returns a positional string argument.
func (c *Call) String(i int) (string, error) {
	return asString(c.Req(i))
}

// OptString returns a positional string argument or def if it was omitted.
func (c *Call) OptString(i int, def string) (string, error) {
	v, ok := c.Provided(i)
	if !ok {
		return def, nil
	}
	return asString(v)
}

// Int returns a positional int argument.
func (c *Call) Int(i int) (int64, error) {
	return asInt(c.Req(i))
}

// OptInt returns a positional int argument or def if it was omitted.
func (c *Call) OptInt(i int, def int64) (int64, error) {
	v, ok := c.Provided(i)
	if !ok {
		return def, nil
	}
	return asInt(v)
}

// Closure returns a positional closure argument.
func (c *Call) Closure(i int) (protocol.Closure, error) {
	v := c.Req(i)
	cl, ok := v.(protocol.Closure)
	if !ok {
		return protocol.Closure{}, protocol.TypeMismatchError(
			fmt.Sprintf("expected closure, found %s", protocol.TypeOf(v)), v.Span())
	}
	return cl, nil
}

// FlagString returns a string flag or def.
func (c *Call) FlagString(long, def string) (string, error) {
	v, ok := c.GetFlag(long)
	if !ok {
		return def, nil
	}
	return asString(v)
}

// FlagInt returns an int flag or def.
func (c *Call) FlagInt(long string, def int64) (int64, error) {
	v, ok := c.GetFlag(long)
	if !ok {
		return def, nil
	}
	return asInt(v)
}

// FlagClosure returns a closure flag. ok is false if it wasn't given.
func (c *Call) FlagClosure(long string) (cl protocol.Closure, ok bool, err error) {
	v, ok := c.GetFlag(long)
	if !ok {
		return protocol.Closure{}, false, nil
	}
	cl, ok = v.(protocol.Closure)
	if !ok {
		return protocol.Closure{}, false, protocol.TypeMismatchError(
			fmt.Sprintf("expected closure, found %s", protocol.TypeOf(v)), v.Span())
	}
	return cl, true, nil
}

func asString(v protocol.Value) (string, error) {
	switch val := v.(type) {
	case protocol.String:
		return val.Val, nil
	case protocol.Int, protocol.Float, protocol.Bool:
		return protocol.CoerceString(val)
	}
	return "", protocol.TypeMismatchError(
		fmt.Sprintf("expected string, found %s", protocol.TypeOf(v)), v.Span())
}

func asInt(v protocol.Value) (int64, error) {
	if n, ok := v.(protocol.Int); ok {
		return n.Val, nil
	}
	return 0, protocol.TypeMismatchError(
		fmt.Sprintf("expected int, found %s", protocol.TypeOf(v)), v.Span())
}
