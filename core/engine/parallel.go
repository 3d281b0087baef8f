package engine

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/josephlewis42/pipesh/core/protocol"
	"golang.org/x/sync/errgroup"
)

// MapFunc computes the output for one element of a parallel map. frame is a
// private snapshot of the caller's stack.
type MapFunc func(frame *Stack, index int, v protocol.Value) (protocol.Value, error)

// ParMap applies fn to every element of stream on up to threads workers
// and returns the results as a list in input order. threads <= 0 uses the
// configured default.
//
// The first failure stops dispatching. Once running workers are done, the
// error of the lowest failed index is returned.
// An interrupt stops dispatching and fails with Interrupted.
func (es *State) ParMap(stack *Stack, stream *protocol.ListStream, threads int, fn MapFunc) (protocol.Value, error) {
	if threads <= 0 {
		threads = es.ParallelThreads()
	}
	span := stream.Span()
	base := stack.Snapshot()

	ctx, cancel := es.Interrupt.Context(context.Background())
	defer cancel()
	// stop ends dispatching once any worker fails.
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	var (
		mu      sync.Mutex
		results []protocol.Value
		errs    []error
		failed  bool
		pullErr error
	)
	grow := func(n int) {
		mu.Lock()
		defer mu.Unlock()
		for len(results) < n {
			results = append(results, nil)
			errs = append(errs, nil)
		}
	}

	count := 0
	for ctx.Err() == nil {
		v, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			pullErr = err
			break
		}

		index := count
		count++
		grow(count)

		group.Go(func() error {
			if err := es.Interrupt.Check(span); err != nil {
				return err
			}
			out, err := fn(base.Snapshot(), index, v)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Workers already running finish, so a lower index can
				// still report its own error.
				errs[index] = err
				failed = true
				stop()
				return nil
			}
			results[index] = out
			return nil
		})
	}
	if ctx.Err() != nil || pullErr != nil {
		stream.Close()
	}

	es.Logger.Debug("parallel map", "workers", threads, "elements", count)

	waitErr := group.Wait()
	if es.Interrupt.Triggered() {
		return nil, protocol.InterruptedError(span)
	}
	if failed {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	if pullErr != nil {
		return nil, pullErr
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return protocol.NewList(results, span), nil
}
