package snap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dzonerzy/snap-patterns/internal/fuzzy"
)

// ErrorType is the stable identifier of a failure. Compile-time types come
// from registering patterns and options; match-time types from processing a
// command line. The string values are surfaced verbatim to callers.
type ErrorType string

const (
	// Compile time.
	ErrorTypeBadPatternSyntax                   ErrorType = "bad_pattern_syntax"
	ErrorTypeBadOptionFormsSyntax               ErrorType = "bad_option_forms_syntax"
	ErrorTypeBadOptionArgSyntax                 ErrorType = "bad_option_arg_syntax"
	ErrorTypeAmbiguousOptionality               ErrorType = "ambiguous_optionality"
	ErrorTypeAmbiguousRepetition                ErrorType = "ambiguous_repetition"
	ErrorTypeAmbiguousAlternativesMultiNullable ErrorType = "ambiguous_alternatives_multi_nullable"
	ErrorTypeAmbiguousRepetitionOfRepeating     ErrorType = "ambiguous_repetition_of_repeating"
	ErrorTypeDelegatingPatternHasValues         ErrorType = "delegating_pattern_has_values"
	ErrorTypeActionArityMismatch                ErrorType = "action_arity_mismatch"

	// Match time.
	ErrorTypeBadOption             ErrorType = "bad_option"
	ErrorTypeBadOptionArg          ErrorType = "bad_option_arg"
	ErrorTypeNoPatternMatch        ErrorType = "no_pattern_match"
	ErrorTypeCrossPatternAmbiguity ErrorType = "cross_pattern_ambiguity"

	// Dispatch.
	ErrorTypeInternal ErrorType = "internal_error"
)

// IsMatchError reports whether t is produced while matching a command line,
// i.e. a user error rather than a specification error.
func (t ErrorType) IsMatchError() bool {
	switch t {
	case ErrorTypeBadOption, ErrorTypeBadOptionArg, ErrorTypeNoPatternMatch, ErrorTypeCrossPatternAmbiguity:
		return true
	default:
		return false
	}
}

// ErrRegistrySealed is returned when registering after the first match.
var ErrRegistrySealed = errors.New("snap: registry is sealed; patterns and options must be registered before matching")

// CompileError reports a rejected pattern or option. Index is the 1-based
// ordinal of the registration within its kind (0 when compiled outside a
// registry); Offset is the 0-based byte offset in Text, or -1.
type CompileError struct {
	Type    ErrorType
	Index   int
	Offset  int
	Text    string
	Message string
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.Index > 0 {
		fmt.Fprintf(&b, " (#%d)", e.Index)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Text != "" {
		fmt.Fprintf(&b, " in %q", e.Text)
		if e.Offset >= 0 {
			fmt.Fprintf(&b, " at offset %d", e.Offset)
		}
	}
	return b.String()
}

func newCompileError(err error, index int, text string) *CompileError {
	var cf *compileFailure
	if errors.As(err, &cf) {
		return &CompileError{Type: cf.code, Index: index, Offset: cf.off, Text: text, Message: cf.msg}
	}
	var se *syntaxError
	if errors.As(err, &se) {
		return &CompileError{Type: ErrorTypeBadPatternSyntax, Index: index, Offset: se.off, Text: text, Message: se.msg}
	}
	return &CompileError{Type: ErrorTypeInternal, Index: index, Offset: -1, Text: text, Message: err.Error()}
}

// MatchError is a recoverable failure to process one command line.
type MatchError struct {
	Type        ErrorType
	Message     string
	Token       string // offending argument, if any
	Patterns    []int  // candidate patterns for cross_pattern_ambiguity
	Suggestions []string
	Cause       error
	Context     map[string]any

	formatted string
}

func (e *MatchError) Error() string {
	if e.formatted != "" {
		return e.formatted
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *MatchError) Unwrap() error { return e.Cause }

// NewError creates a MatchError with the given type and message.
func NewError(typ ErrorType, message string) *MatchError {
	return &MatchError{
		Type:    typ,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithSuggestion adds a suggestion to the error.
func (e *MatchError) WithSuggestion(suggestion string) *MatchError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithCause records an underlying cause.
func (e *MatchError) WithCause(cause error) *MatchError {
	e.Cause = cause
	return e
}

// WithContext adds context information to the error.
func (e *MatchError) WithContext(key string, value any) *MatchError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorHandler decorates match errors with fuzzy "did you mean" hints.
type ErrorHandler struct {
	suggestKeywords bool
	suggestOptions  bool
	maxDistance     int
	maxSuggestions  int
	customHandlers  map[ErrorType]func(*MatchError) *MatchError
}

// NewErrorHandler creates an error handler with suggestions enabled.
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		suggestKeywords: true,
		suggestOptions:  true,
		maxDistance:     2,
		maxSuggestions:  3,
		customHandlers:  make(map[ErrorType]func(*MatchError) *MatchError),
	}
}

// SuggestKeywords enables/disables keyword suggestions for no_pattern_match.
func (eh *ErrorHandler) SuggestKeywords(enabled bool) *ErrorHandler {
	eh.suggestKeywords = enabled
	return eh
}

// SuggestOptions enables/disables option suggestions for bad_option.
func (eh *ErrorHandler) SuggestOptions(enabled bool) *ErrorHandler {
	eh.suggestOptions = enabled
	return eh
}

// MaxDistance sets the maximum edit distance for suggestions.
func (eh *ErrorHandler) MaxDistance(distance int) *ErrorHandler {
	eh.maxDistance = distance
	return eh
}

// MaxSuggestions caps the number of suggestions per error.
func (eh *ErrorHandler) MaxSuggestions(n int) *ErrorHandler {
	eh.maxSuggestions = n
	return eh
}

// Handle registers a custom handler for a specific error type.
func (eh *ErrorHandler) Handle(typ ErrorType, handler func(*MatchError) *MatchError) *ErrorHandler {
	eh.customHandlers[typ] = handler
	return eh
}

// ProcessError applies custom handlers, adds suggestions drawn from reg and
// formats the final message.
func (eh *ErrorHandler) ProcessError(err *MatchError, reg *Registry) *MatchError {
	if handler, exists := eh.customHandlers[err.Type]; exists {
		// A handler returning nil keeps the original error.
		if handled := handler(err); handled != nil {
			err = handled
		}
	}

	switch err.Type {
	case ErrorTypeBadOption:
		if eh.suggestOptions && err.Token != "" {
			name, _, _ := strings.Cut(err.Token, "=")
			for _, s := range fuzzy.FindOptionSuggestions(name, reg.optionFormNames(), eh.maxDistance, eh.maxSuggestions) {
				_ = err.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", s))
			}
		}
	case ErrorTypeNoPatternMatch:
		if eh.suggestKeywords && err.Token != "" {
			if _, known := reg.store.KeywordID(err.Token); !known {
				for _, s := range fuzzy.FindSuggestions(err.Token, reg.keywordNames(), eh.maxDistance, eh.maxSuggestions) {
					_ = err.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", s))
				}
			}
		}
	case ErrorTypeCrossPatternAmbiguity:
		for _, p := range err.Patterns {
			_ = err.WithSuggestion(fmt.Sprintf("matches pattern #%d: %s", p+1, reg.Pattern(p).Text))
		}
	}

	return eh.formatError(err)
}

// formatError renders the message followed by one suggestion per line.
func (eh *ErrorHandler) formatError(err *MatchError) *MatchError {
	var builder strings.Builder
	builder.WriteString("Error: ")
	builder.WriteString(err.Message)
	for _, suggestion := range err.Suggestions {
		builder.WriteString("\n  ")
		builder.WriteString(suggestion)
	}
	err.formatted = builder.String()
	return err
}
