package snap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	snapio "github.com/dzonerzy/snap-patterns/io"
	"github.com/dzonerzy/snap-patterns/middleware"
)

// ErrNoHandler is returned when the selected pattern or short-circuit
// option has an action App cannot run.
var ErrNoHandler = errors.New("no handler for matched pattern")

// App is a pattern-dispatched command-line application: a registry of
// patterns and options plus the handlers, middleware and IO around them.
type App struct {
	name        string
	description string

	reg  *Registry
	proc *Processor
	// err is the first registration failure; Run reports it.
	err error

	beforeAction ActionFunc
	afterAction  ActionFunc

	errorHandler *ErrorHandler
	middleware   []middleware.Middleware
	ioManager    *snapio.IOManager
	exitCodes    *ExitCodeManager
}

// New creates an application with an empty registry.
func New(name, description string) *App {
	return &App{
		name:         name,
		description:  description,
		reg:          NewRegistry(),
		errorHandler: NewErrorHandler(),
		middleware:   make([]middleware.Middleware, 0),
		ioManager:    snapio.New(),
	}
}

func (a *App) Name() string        { return a.name }
func (a *App) Description() string { return a.description }

// Registry returns the app's registry.
func (a *App) Registry() *Registry { return a.reg }

// Pattern registers a pattern. A compile failure is kept and returned by
// Err and by every Run.
func (a *App) Pattern(text, description string, action Action, attrs ...PatternAttr) *App {
	var mask PatternAttr
	for _, attr := range attrs {
		mask |= attr
	}
	if _, err := a.reg.AddPattern(text, mask, description, action); err != nil {
		a.fail(err)
	}
	return a
}

// Option registers an option, see Registry.AddOption.
func (a *App) Option(forms, arg, description string, action Action, attrs ...OptionAttr) *App {
	var mask OptionAttr
	for _, attr := range attrs {
		mask |= attr
	}
	if _, err := a.reg.AddOption(forms, arg, mask, description, action); err != nil {
		a.fail(err)
	}
	return a
}

// Policy sets the ambiguity policy.
func (a *App) Policy(p Policy) *App {
	if err := a.reg.SetPolicy(p); err != nil {
		a.fail(err)
	}
	return a
}

func (a *App) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// Err returns the first registration error.
func (a *App) Err() error { return a.err }

// Use appends middleware around pattern handlers.
func (a *App) Use(middleware ...middleware.Middleware) *App {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// Before runs fn after matching and before any handler.
func (a *App) Before(fn ActionFunc) *App {
	a.beforeAction = fn
	return a
}

// After runs fn once the handlers returned.
func (a *App) After(fn ActionFunc) *App {
	a.afterAction = fn
	return a
}

// IO returns the app's IO manager.
func (a *App) IO() *snapio.IOManager {
	if a.ioManager == nil {
		a.ioManager = snapio.New()
	}
	return a.ioManager
}

// ErrorHandler returns the app's error decorator for configuration.
func (a *App) ErrorHandler() *ErrorHandler { return a.errorHandler }

// ExitCodes returns the exit-code manager. Resolution precedence is
// ExitError > match error type (DefineMatch) > concrete error type
// (DefineError) > defaults.
func (a *App) ExitCodes() *ExitCodeManager {
	if a.exitCodes == nil {
		a.exitCodes = newExitCodeManager()
	}
	return a.exitCodes
}

// processor seals the registry on first use.
func (a *App) processor() *Processor {
	if a.proc == nil {
		a.proc = NewProcessor(a.reg).WithErrorHandler(a.errorHandler)
	}
	return a.proc
}

// Run runs the app with os.Args[1:].
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext runs the app with os.Args[1:] under ctx.
func (a *App) RunContext(ctx context.Context) error {
	return a.RunWithArgs(ctx, os.Args[1:])
}

// RunWithArgs processes args and dispatches the outcome.
//
// A matched pattern first runs the handlers of the recognised option
// invocations in encounter order, then its own handler through the
// middleware chain. A short-circuited command line runs only the option's
// handler. A delegated one runs the option handlers before the delegation
// point, then the nested app with the remaining arguments.
func (a *App) RunWithArgs(ctx context.Context, args []string) error {
	return a.run(ctx, args, nil)
}

func (a *App) run(ctx context.Context, args []string, parent *Context) error {
	if a.err != nil {
		return a.err
	}

	if runtime.GOOS == "windows" && a.IO().IsTTY() && os.Getenv("SNAP_DISABLE_VT") == "" {
		_ = a.IO().EnableVirtualTerminal()
	}

	outcome, err := a.processor().Process(args)
	if err != nil {
		fmt.Fprintln(a.IO().Err(), err.Error())
		return err
	}

	ctxWithCancel, cancel := context.WithCancel(ctx)
	defer cancel()
	execCtx := &Context{
		App:        a,
		Outcome:    outcome,
		ctx:        ctxWithCancel,
		parent:     parent,
		cancel:     cancel,
		metadata:   make(map[string]any),
		invocation: -1,
	}

	if a.beforeAction != nil {
		if beforeErr := a.beforeAction(execCtx); beforeErr != nil {
			return beforeErr
		}
	}

	actionErr := a.dispatch(execCtx)

	if ee, ok := execCtx.Get(exitKey).(*ExitError); ok && ee != nil {
		actionErr = ee
	}

	if a.afterAction != nil {
		if afterErr := a.afterAction(execCtx); afterErr != nil && actionErr == nil {
			actionErr = afterErr
		}
	}
	return actionErr
}

func (a *App) dispatch(ctx *Context) error {
	outcome := ctx.Outcome

	if outcome.Kind == ResultShortCircuited {
		h, ok := a.reg.Option(outcome.Option).Action.(Handler)
		if !ok {
			return ErrNoHandler
		}
		return h.Handle(ctx.forInvocation(outcome.Invocation))
	}

	pat := a.reg.Pattern(outcome.Pattern)
	if !pat.Attrs.Has(PatternShortCircuit) {
		if err := a.runOptionHandlers(ctx); err != nil {
			return err
		}
		if ctx.Get(exitKey) != nil {
			return nil
		}
	}

	switch action := pat.Action.(type) {
	case nil:
		return nil
	case Delegator:
		nested := action.Delegate()
		if nested == nil {
			return ErrNoHandler
		}
		return nested.run(ctx.ctx, outcome.Remaining, ctx)
	case Forwarder:
		return action.Forward(ctx, outcome.Remaining)
	case Handler:
		return a.wrapActionWithMiddleware(action)(ctx)
	default:
		return ErrNoHandler
	}
}

// runOptionHandlers runs the handler of every invocation whose option has
// one, in encounter order, stopping at the first error or exit request.
func (a *App) runOptionHandlers(ctx *Context) error {
	for i, inv := range ctx.Outcome.Invocations {
		h, ok := a.reg.Option(inv.Option).Action.(Handler)
		if !ok {
			continue
		}
		if err := h.Handle(ctx.forInvocation(i)); err != nil {
			return err
		}
		if ctx.Get(exitKey) != nil {
			return nil
		}
	}
	return nil
}

// RunAndGetExitCode runs the app and returns the mapped exit code.
func (a *App) RunAndGetExitCode() int {
	return a.ExitCodes().Resolve(a.Run())
}

// RunAndExit runs the app and exits the process with the mapped code.
func (a *App) RunAndExit() {
	os.Exit(a.RunAndGetExitCode())
}

// wrapActionWithMiddleware applies the app's middleware to h.
func (a *App) wrapActionWithMiddleware(h Handler) ActionFunc {
	if len(a.middleware) == 0 {
		return h.Handle
	}

	wrapped := middleware.Chain(a.middleware...).Apply(func(ctx middleware.Context) error {
		snapCtx, ok := ctx.(*Context)
		if !ok {
			return NewError(ErrorTypeInternal, "invalid middleware context type")
		}
		return h.Handle(snapCtx)
	})

	return func(ctx *Context) error {
		return wrapped(ctx)
	}
}
