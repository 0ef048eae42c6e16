package snap

import (
	"errors"
	"reflect"

	"github.com/dzonerzy/snap-patterns/middleware"
)

// ExitError requests a specific exit code from inside a handler.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeDefaults holds common default codes.
type ExitCodeDefaults struct {
	Success         int // default: 0
	GeneralError    int // default: 1
	MisusageError   int // default: 2
	ValidationError int // default: 3
}

func defaultExitDefaults() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, ValidationError: 3}
}

// ExitCodeManager maps errors to process exit codes.
type ExitCodeManager struct {
	codesByName  map[string]int
	codesByType  map[reflect.Type]int
	codesByMatch map[ErrorType]int
	defaults     ExitCodeDefaults
}

func newExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codesByName:  make(map[string]int),
		codesByType:  make(map[reflect.Type]int),
		codesByMatch: make(map[ErrorType]int),
		defaults:     defaultExitDefaults(),
	}
	for _, t := range []ErrorType{
		ErrorTypeBadOption, ErrorTypeBadOptionArg, ErrorTypeNoPatternMatch, ErrorTypeCrossPatternAmbiguity,
	} {
		m.codesByMatch[t] = m.defaults.MisusageError
	}

	m.codesByType[reflect.TypeOf(&middleware.TimeoutError{})] = m.defaults.GeneralError
	m.codesByType[reflect.TypeOf(&middleware.ValidationError{})] = m.defaults.ValidationError
	m.codesByType[reflect.TypeOf(&middleware.RecoveryError{})] = m.defaults.GeneralError
	m.codesByType[reflect.TypeOf(&CompileError{})] = m.defaults.GeneralError
	return m
}

// Define registers a named exit code for documentation purposes; it does not
// take part in resolution.
func (e *ExitCodeManager) Define(name string, code int) *ExitCodeManager {
	e.codesByName[name] = code
	return e
}

// Code returns a code registered with Define.
func (e *ExitCodeManager) Code(name string) (int, bool) {
	code, ok := e.codesByName[name]
	return code, ok
}

// DefineError maps the dynamic type of err to an exit code.
func (e *ExitCodeManager) DefineError(err error, code int) *ExitCodeManager {
	if err == nil {
		return e
	}
	e.codesByType[reflect.TypeOf(err)] = code
	return e
}

// DefineMatch overrides the exit code for a match error type.
func (e *ExitCodeManager) DefineMatch(typ ErrorType, code int) *ExitCodeManager {
	e.codesByMatch[typ] = code
	return e
}

// Default replaces the default codes. Match-error mappings that still use the
// previous misusage code follow the new one.
func (e *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	for t, code := range e.codesByMatch {
		if code == e.defaults.MisusageError {
			e.codesByMatch[t] = d.MisusageError
		}
	}
	e.defaults = d
	return e
}

// Resolve converts err to an exit code.
//
// Precedence:
//  1. ExitError (requested code)
//  2. MatchError type mapping (DefineMatch)
//  3. Concrete error type mapping (DefineError)
//  4. Defaults
func (e *ExitCodeManager) Resolve(err error) int {
	if err == nil {
		return e.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var matchErr *MatchError
	if errors.As(err, &matchErr) {
		if code, ok := e.codesByMatch[matchErr.Type]; ok {
			return code
		}
		return e.defaults.MisusageError
	}

	for t, code := range e.codesByType {
		if errors.As(err, reflect.New(t).Interface()) {
			return code
		}
	}

	return e.defaults.GeneralError
}
