package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/josephlewis42/pipesh/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(frame *Stack, index int, v protocol.Value) (protocol.Value, error) {
	n := v.(protocol.Int).Val
	// Later elements finish first.
	time.Sleep(time.Duration(5-n) * time.Millisecond)
	return protocol.NewInt(n*n, v.Span()), nil
}

func TestParMap_Order(t *testing.T) {
	f := newFixture(t)

	stream := protocol.FromValues(protocol.UnknownSpan, ints(1, 2, 3, 4, 5), f.es.Interrupt)
	out, err := f.es.ParMap(f.stack, stream, 4, square)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 4, 9, 16, 25}, intVals(out))
}

func TestParMap_LowestIndexError(t *testing.T) {
	f := newFixture(t)

	stream := protocol.FromValues(protocol.UnknownSpan, ints(1, 2, 3, 4, 5), f.es.Interrupt)
	_, err := f.es.ParMap(f.stack, stream, 3, func(frame *Stack, index int, v protocol.Value) (protocol.Value, error) {
		if n := v.(protocol.Int).Val; n >= 3 {
			return nil, fmt.Errorf("element %d", n)
		}
		return v, nil
	})
	require.Error(t, err)
	assert.Equal(t, "element 3", err.Error())
}

func TestParMap_FailureStopsEndlessInput(t *testing.T) {
	f := newFixture(t)

	var pulled atomic.Int64
	stream := protocol.NewListStream(protocol.UnknownSpan, f.es.Interrupt, func() (protocol.Value, error) {
		n := pulled.Add(1)
		if n > 100000 {
			return nil, fmt.Errorf("still pulling after %d elements", n)
		}
		return protocol.NewInt(n, protocol.UnknownSpan), nil
	})
	_, err := f.es.ParMap(f.stack, stream, 4, func(frame *Stack, index int, v protocol.Value) (protocol.Value, error) {
		if v.(protocol.Int).Val == 3 {
			return nil, errors.New("boom on 3")
		}
		return v, nil
	})
	require.Error(t, err)
	assert.Equal(t, "boom on 3", err.Error())
	assert.Less(t, pulled.Load(), int64(1000))
}

func TestParMap_PrivateFrames(t *testing.T) {
	f := newFixture(t)
	f.stack.AddVar("x", protocol.NewInt(1, protocol.UnknownSpan))

	stream := protocol.FromValues(protocol.UnknownSpan, ints(10, 20, 30), f.es.Interrupt)
	out, err := f.es.ParMap(f.stack, stream, 0, func(frame *Stack, index int, v protocol.Value) (protocol.Value, error) {
		frame.AddVar("x", v)
		frame.Env().Setenv("WORKER", "yes")
		got, _ := frame.GetVar("x")
		return got, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 20, 30}, intVals(out))
	x, _ := f.stack.GetVar("x")
	assert.EqualValues(t, 1, x.(protocol.Int).Val)
	_, found := f.stack.Env().LookupEnv("WORKER")
	assert.False(t, found)
}

func TestParMap_Interrupt(t *testing.T) {
	f := newFixture(t)

	stream := protocol.FromValues(protocol.UnknownSpan, ints(1, 2, 3, 4, 5, 6, 7, 8), f.es.Interrupt)
	_, err := f.es.ParMap(f.stack, stream, 2, func(frame *Stack, index int, v protocol.Value) (protocol.Value, error) {
		if index == 1 {
			f.es.Interrupt.Trigger()
		}
		return v, nil
	})
	assert.True(t, errors.Is(err, protocol.ErrInterrupted))
}

func TestParMap_Empty(t *testing.T) {
	f := newFixture(t)

	out, err := f.es.ParMap(f.stack, protocol.FromValues(protocol.UnknownSpan, nil, f.es.Interrupt), 2, square)
	require.NoError(t, err)
	assert.Empty(t, out.(protocol.List).Vals)
}

func ints(n ...int64) []protocol.Value {
	out := make([]protocol.Value, len(n))
	for i, v := range n {
		out[i] = protocol.NewInt(v, protocol.UnknownSpan)
	}
	return out
}

func intVals(v protocol.Value) []int64 {
	var out []int64
	for _, item := range v.(protocol.List).Vals {
		out = append(out, item.(protocol.Int).Val)
	}
	return out
}
