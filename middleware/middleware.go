// Package middleware provides built-in middleware for pattern handlers:
// Logger, Recovery, Timeout and Validator.
package middleware

import (
	"time"
)

// Middleware is declared against interfaces so the snap package can import
// it without a cycle. *snap.Context satisfies Context.

// Context describes what middleware can see of a dispatched pattern. It is
// implemented by *snap.Context.
type Context interface {
	// Done returns a channel that is closed when the handler's context is
	// canceled or times out.
	Done() <-chan struct{}

	// Cancel requests cancellation of the handler's context. It is
	// idempotent.
	Cancel()

	// Args returns the arguments the application was run with. Treat the
	// slice as read-only.
	Args() []string

	// Values returns the texts bound to the pattern's value slots, in
	// pattern order.
	Values() []string

	// Option returns the argument of the last invocation of the option
	// named by form ("-x" or "--name") and whether the option was invoked
	// at all.
	Option(form string) (string, bool)

	// Count returns how many times the option named by form was invoked.
	Count(form string) int

	// Set stores a value in the context metadata. Keys should be namespaced,
	// e.g. "logger.request_id".
	Set(key string, value any)

	// Get retrieves a value stored via Set, or nil.
	Get(key string) any

	// Pattern describes the pattern being dispatched.
	Pattern() PatternInfo
}

// PatternInfo is satisfied by the pattern view snap hands to middleware.
type PatternInfo interface {
	Text() string
	Description() string
}

// ActionFunc is the handler signature middleware wraps.
type ActionFunc func(ctx Context) error

// Middleware wraps an ActionFunc.
type Middleware func(next ActionFunc) ActionFunc

// MiddlewareChain is an ordered list of middleware.
type MiddlewareChain []Middleware

// Apply wraps action so that chain[0] runs outermost.
func (chain MiddlewareChain) Apply(action ActionFunc) ActionFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		action = chain[i](action)
	}
	return action
}

// Use returns a new chain with middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	return append(chain, middleware...)
}

// Chain creates a chain from middleware, preserving order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// ValidationError is returned when a validator rejects a dispatch.
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// TimeoutError is returned when a handler outlives its deadline.
type TimeoutError struct {
	Duration time.Duration
	Pattern  string
}

func (e *TimeoutError) Error() string {
	return "pattern '" + e.Pattern + "' timed out after " + e.Duration.String()
}

// RecoveryError carries a recovered handler panic.
type RecoveryError struct {
	Panic   any
	Pattern string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return "pattern '" + e.Pattern + "' panicked: " + toString(e.Panic)
}

// MiddlewareConfig configures the built-in middleware.
type MiddlewareConfig struct {
	LogLevel         LogLevel
	LogOutput        LogOutput
	LogFormat        LogFormat
	IncludeArgs      bool
	PrintStack       bool
	StackSize        int
	DefaultTimeout   time.Duration
	CustomValidators map[string]ValidatorFunc
}

// LogLevel represents logging levels
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// LogOutput represents log output destinations
type LogOutput int

const (
	LogOutputStderr LogOutput = iota
	LogOutputStdout
	LogOutputNone
)

// LogFormat represents log formats
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// RequestInfo describes one dispatch for the logger.
type RequestInfo struct {
	Pattern   string
	Args      []string
	Values    []string
	StartTime time.Time
	Duration  time.Duration
	Error     error
	Metadata  map[string]any
}

type MiddlewareOption func(config *MiddlewareConfig)

func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		LogLevel:         LogLevelInfo,
		LogOutput:        LogOutputStderr,
		LogFormat:        LogFormatText,
		IncludeArgs:      true,
		PrintStack:       true,
		StackSize:        4096,
		DefaultTimeout:   30 * time.Second,
		CustomValidators: make(map[string]ValidatorFunc),
	}
}

func WithLogLevel(level LogLevel) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogLevel = level
	}
}

func WithLogFormat(format LogFormat) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogFormat = format
	}
}

func WithArgs(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.IncludeArgs = enabled
	}
}

func WithTimeout(timeout time.Duration) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.DefaultTimeout = timeout
	}
}

func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.PrintStack = enabled
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case error:
		return t.Error()
	default:
		return "<unknown>"
	}
}

// patternText names the dispatched pattern for logs and errors.
func patternText(ctx Context) string {
	p := ctx.Pattern()
	if p == nil {
		return "unknown"
	}
	if t := p.Text(); t != "" {
		return t
	}
	return "<empty>"
}
