package invoke

import "context"

// Future is the handle of an invocation started with Go. The result is
// written exactly once before the done channel closes; Wait may be
// called from any number of goroutines.
type Future struct {
	done   chan struct{}
	result *Result
	err    error
}

// Go starts the invocation in a background goroutine and returns
// immediately. The supplied context governs the invocation itself, so
// cancelling it aborts the background work; the context handed to Wait
// only bounds the waiting.
func (c *Client) Go(ctx context.Context, operation, group string, args Args) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		f.result, f.err = c.Invoke(ctx, operation, group, args)
		close(f.done)
	}()
	return f
}

// Done returns a channel that closes when the invocation finishes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the invocation finishes or ctx is cancelled. On
// cancellation the invocation keeps running; a later Wait can still
// collect its result.
func (f *Future) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
