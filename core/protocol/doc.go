// Package protocol defines the data that flows between pipeline stages: the
// closed set of value kinds, the pipeline carriers (empty, value, list stream,
// byte stream), command signatures, the error taxonomy, cooperative interrupts
// and control signals.
//
// Nothing in this package executes commands; see the engine package for that.
package protocol
