package snap

// AnyArity is returned by ExpectedParamArity when an action accepts any
// number of parameters.
const AnyArity = -1

// Action is what the registry needs to know about the code attached to a
// pattern or option. Invocation itself belongs to Handler.
type Action interface {
	// ExpectedParamArity is the number of top-level parameters the action
	// expects, or AnyArity. A non-negative value is checked against the
	// pattern when it is registered.
	ExpectedParamArity() int
	// IsDelegating reports whether a matched pattern hands the rest of the
	// command line to a nested registry.
	IsDelegating() bool
}

// Handler is an Action that App can run.
type Handler interface {
	Action
	Handle(ctx *Context) error
}

// Delegator is a delegating Action that names the App receiving the rest of
// the command line.
type Delegator interface {
	Action
	Delegate() *App
}

// Forwarder is a delegating Action that hands the remaining arguments to
// something other than an App, such as an external program.
type Forwarder interface {
	Action
	Forward(ctx *Context, args []string) error
}

// ActionFunc adapts a function to Handler with AnyArity.
type ActionFunc func(ctx *Context) error

func (f ActionFunc) ExpectedParamArity() int  { return AnyArity }
func (f ActionFunc) IsDelegating() bool       { return false }
func (f ActionFunc) Handle(ctx *Context) error { return f(ctx) }

type arityAction struct {
	arity int
	fn    ActionFunc
}

func (a *arityAction) ExpectedParamArity() int  { return a.arity }
func (a *arityAction) IsDelegating() bool       { return false }
func (a *arityAction) Handle(ctx *Context) error { return a.fn(ctx) }

// WithArity wraps fn in a Handler that declares n top-level parameters.
func WithArity(n int, fn ActionFunc) Handler {
	return &arityAction{arity: n, fn: fn}
}

type delegateAction struct {
	app *App
}

func (d *delegateAction) ExpectedParamArity() int { return AnyArity }
func (d *delegateAction) IsDelegating() bool      { return true }
func (d *delegateAction) Delegate() *App          { return d.app }

// DelegateTo returns an action that passes the remaining arguments to app.
// Patterns using it may not contain value slots.
func DelegateTo(app *App) Delegator {
	return &delegateAction{app: app}
}

// Marker is an action with no behaviour, useful for registries that are
// only matched and never dispatched.
type Marker struct {
	Arity      int
	Delegating bool
}

func (m Marker) ExpectedParamArity() int { return m.Arity }
func (m Marker) IsDelegating() bool      { return m.Delegating }
