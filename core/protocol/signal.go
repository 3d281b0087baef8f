package protocol

// SignalKind names a control transfer.
type SignalKind int

const (
	BreakSignal SignalKind = iota
	ContinueSignal
	ReturnSignal
)

func (k SignalKind) String() string {
	switch k {
	case BreakSignal:
		return "break"
	case ContinueSignal:
		return "continue"
	default:
		return "return"
	}
}

// Signal is an intentional, non-error transfer of control.
type Signal struct {
	Kind SignalKind
	// Value is the returned value, only used by ReturnSignal.
	Value Value
	Span  Span
}

// Outcome is what running a block, pipeline or keyword produces when it
// doesn't fail: either data or a control signal.
type Outcome struct {
	Data   PipelineData
	Signal *Signal
}

// DataOutcome wraps pipeline data.
func DataOutcome(pd PipelineData) Outcome {
	return Outcome{Data: pd}
}

// SignalOutcome wraps a control signal.
func SignalOutcome(sig *Signal) Outcome {
	return Outcome{Data: Empty{Loc: sig.Span}, Signal: sig}
}

// IsSignal reports whether the outcome is a control transfer.
func (o Outcome) IsSignal() bool {
	return o.Signal != nil
}

// SignalError carries a control signal through code paths that only have
// an error channel, such as evaluating a subexpression argument. The
// engine turns it back into an Outcome at the next pipeline boundary.
type SignalError struct {
	Signal *Signal
}

func (e *SignalError) Error() string {
	return SignalEscapedError(e.Signal).Error()
}
