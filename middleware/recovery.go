package middleware

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
)

// captureStack returns the current goroutine's stack, truncated to size.
func captureStack(size int) []byte {
	stack := make([]byte, size)
	return stack[:runtime.Stack(stack, false)]
}

// Recovery turns a handler panic into a *RecoveryError, printing the stack
// to stderr when enabled.
func Recovery(options ...MiddlewareOption) Middleware {
	return RecoveryWithWriter(os.Stderr, options...)
}

// RecoveryWithWriter is Recovery with the stack report sent to w.
func RecoveryWithWriter(w io.Writer, options ...MiddlewareOption) Middleware {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var stack []byte
				if config.PrintStack {
					stack = captureStack(config.StackSize)
				}
				recoveryErr := &RecoveryError{
					Panic:   r,
					Pattern: patternText(ctx),
					Stack:   stack,
				}
				if len(stack) > 0 {
					fmt.Fprintf(w, "PANIC in pattern '%s': %v\n", recoveryErr.Pattern, r)
					fmt.Fprintf(w, "Stack trace:\n%s\n", stack)
				}
				err = recoveryErr
			}()

			return next(ctx)
		}
	}
}

// RecoveryWithHandler hands recovered panics to handler, whose result
// becomes the handler error.
func RecoveryWithHandler(
	handler func(panicVal any, pattern string, stack []byte) error,
	options ...MiddlewareOption,
) Middleware {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack []byte
					if config.PrintStack {
						stack = captureStack(config.StackSize)
					}
					err = handler(r, patternText(ctx), stack)
				}
			}()

			return next(ctx)
		}
	}
}

// RecoveryToError converts panics to errors without printing anything.
func RecoveryToError() Middleware {
	return Recovery(WithStackTrace(false))
}

// RecoveryWithStack always prints stack traces.
func RecoveryWithStack() Middleware {
	return Recovery(WithStackTrace(true))
}

// NoopRecovery lets panics propagate.
func NoopRecovery() Middleware {
	return func(next ActionFunc) ActionFunc {
		return next
	}
}

// SafeRecovery captures the stack without printing it and stores the panic
// in the context metadata under "panic_stack" and "panic_value".
func SafeRecovery() Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := captureStack(4096)
					err = &RecoveryError{
						Panic:   r,
						Pattern: patternText(ctx),
						Stack:   stack,
					}
					ctx.Set("panic_stack", string(stack))
					ctx.Set("panic_value", r)
				}
			}()

			return next(ctx)
		}
	}
}

// RecoveryStats counts recovered panics per pattern.
type RecoveryStats struct {
	mu            sync.Mutex
	TotalPanics   int
	PatternPanics map[string]int
	LastPanic     *RecoveryError
}

// NewRecoveryStats creates an empty tracker.
func NewRecoveryStats() *RecoveryStats {
	return &RecoveryStats{
		PatternPanics: make(map[string]int),
	}
}

func (s *RecoveryStats) record(e *RecoveryError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalPanics++
	s.PatternPanics[e.Pattern]++
	s.LastPanic = e
}

// RecoveryWithStats recovers panics and records them in stats.
func RecoveryWithStats(stats *RecoveryStats, options ...MiddlewareOption) Middleware {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var stack []byte
				if config.PrintStack {
					stack = captureStack(config.StackSize)
				}
				recoveryErr := &RecoveryError{
					Panic:   r,
					Pattern: patternText(ctx),
					Stack:   stack,
				}
				stats.record(recoveryErr)
				err = recoveryErr
			}()

			return next(ctx)
		}
	}
}
