package middleware

import (
	"context"
	"time"
)

// parentContext returns the context.Context behind ctx when it exposes one.
func parentContext(ctx Context) context.Context {
	if c, ok := any(ctx).(interface{ Context() context.Context }); ok {
		return c.Context()
	}
	return context.Background()
}

// runAsync starts next in a goroutine and returns the channel its result,
// or a recovered panic, is delivered on.
func runAsync(ctx Context, next ActionFunc) <-chan error {
	resultChan := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- &RecoveryError{
					Panic:   r,
					Pattern: patternText(ctx),
				}
			}
		}()
		resultChan <- next(ctx)
	}()
	return resultChan
}

// Timeout fails the dispatch with *TimeoutError when the handler runs longer
// than duration, canceling the handler's context.
func Timeout(duration time.Duration) Middleware {
	return TimeoutWithCallback(duration, nil)
}

// TimeoutWithDefault uses the configured default timeout.
func TimeoutWithDefault(options ...MiddlewareOption) Middleware {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return Timeout(config.DefaultTimeout)
}

// TimeoutWithGracefulShutdown cancels the handler after timeout and waits up
// to gracePeriod more for it to return.
func TimeoutWithGracefulShutdown(timeout, gracePeriod time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			parent := parentContext(ctx)
			timeoutCtx, timeoutCancel := context.WithTimeout(parent, timeout)
			defer timeoutCancel()

			result := runAsync(ctx, next)

			select {
			case err := <-result:
				return err
			case <-timeoutCtx.Done():
				ctx.Cancel()
				grace := time.NewTimer(gracePeriod)
				defer grace.Stop()
				select {
				case err := <-result:
					return err
				case <-grace.C:
					return &TimeoutError{
						Duration: timeout + gracePeriod,
						Pattern:  patternText(ctx),
					}
				}
			case <-ctx.Done():
				return context.Canceled
			}
		}
	}
}

// TimeoutPerPattern picks the timeout by pattern text, falling back to
// defaultTimeout.
func TimeoutPerPattern(timeouts map[string]time.Duration, defaultTimeout time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			timeout, ok := timeouts[patternText(ctx)]
			if !ok {
				timeout = defaultTimeout
			}
			return Timeout(timeout)(next)(ctx)
		}
	}
}

// TimeoutWithCallback is Timeout that calls onTimeout, when non-nil, before
// returning the *TimeoutError.
func TimeoutWithCallback(duration time.Duration, onTimeout func(pattern string, duration time.Duration)) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			timeoutCtx, cancel := context.WithTimeout(parentContext(ctx), duration)
			defer cancel()

			result := runAsync(ctx, next)

			select {
			case err := <-result:
				return err
			case <-timeoutCtx.Done():
				pattern := patternText(ctx)
				if onTimeout != nil {
					onTimeout(pattern, duration)
				}
				ctx.Cancel()
				return &TimeoutError{
					Duration: duration,
					Pattern:  pattern,
				}
			case <-ctx.Done():
				return context.Canceled
			}
		}
	}
}
