package protocol

import (
	"context"
	"sync"
	"sync/atomic"
)

// Interrupt is a cooperative cancellation flag shared by everything running
// on behalf of one shell. Raising it never preempts work; code observes it
// between stages, between stream elements and through Context.
type Interrupt struct {
	flag atomic.Bool

	mu     sync.Mutex
	nextID int
	hooks  map[int]func()
}

// NewInterrupt creates a lowered flag.
func NewInterrupt() *Interrupt {
	return &Interrupt{}
}

// Trigger raises the flag and runs registered hooks once.
func (i *Interrupt) Trigger() {
	if i == nil || i.flag.Swap(true) {
		return
	}

	i.mu.Lock()
	hooks := make([]func(), 0, len(i.hooks))
	for _, h := range i.hooks {
		hooks = append(hooks, h)
	}
	i.mu.Unlock()

	for _, h := range hooks {
		h()
	}
}

// Triggered reports whether the flag is raised. A nil Interrupt is never
// triggered.
func (i *Interrupt) Triggered() bool {
	return i != nil && i.flag.Load()
}

// Reset lowers the flag so the next top-level pipeline can run.
func (i *Interrupt) Reset() {
	if i != nil {
		i.flag.Store(false)
	}
}

// Check returns an Interrupted error if the flag is raised.
func (i *Interrupt) Check(span Span) error {
	if i.Triggered() {
		return InterruptedError(span)
	}
	return nil
}

// OnTrigger registers fn to run when the flag is raised. If the flag is
// already raised fn runs immediately. fn may run more than once. The
// returned func unregisters it.
func (i *Interrupt) OnTrigger(fn func()) (unregister func()) {
	if i == nil {
		return func() {}
	}

	i.mu.Lock()
	if i.hooks == nil {
		i.hooks = make(map[int]func())
	}
	id := i.nextID
	i.nextID++
	i.hooks[id] = fn
	i.mu.Unlock()

	if i.Triggered() {
		fn()
	}

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.hooks, id)
	}
}

// Context derives a context that is cancelled when the flag is raised.
func (i *Interrupt) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	unregister := i.OnTrigger(cancel)
	return ctx, func() {
		unregister()
		cancel()
	}
}
