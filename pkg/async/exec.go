package async

import (
	"context"
	"time"
)

// ExecFuture is the completion handle for a function started with Exec.
type ExecFuture struct {
	err  error
	done chan struct{}
}

// Await blocks until the function finishes and returns its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout blocks until the function finishes or the timeout elapses,
// returning ErrTimeout in the latter case. The function keeps running either
// way.
func (f *ExecFuture) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// Exec runs fn(ctx, param) on its own goroutine and returns a future for its
// error. A context that is already done short-circuits without invoking fn,
// so no work is started for an abandoned caller.
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := &ExecFuture{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.err = fn(ctx, param)
	}()

	return f
}
