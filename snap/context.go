package snap

import (
	"context"
	stdio "io"
	"time"

	snapio "github.com/dzonerzy/snap-patterns/io"
	"github.com/dzonerzy/snap-patterns/middleware"
)

// exitKey is the metadata key holding an exit request.
const exitKey = "__exit_error__"

// Context is what a Handler sees: the processed command line, metadata
// shared with middleware, cancellation and exit requests.
type Context struct {
	App     *App
	Outcome *Outcome

	ctx      context.Context
	parent   *Context
	cancel   context.CancelFunc
	metadata map[string]any

	// invocation is the index in Outcome.Invocations of the option whose
	// handler is running, or -1.
	invocation int
}

// Context returns the underlying Go context.
func (c *Context) Context() context.Context { return c.ctx }

// WithContext returns a copy of c bound to ctx. Metadata is shared.
func (c *Context) WithContext(ctx context.Context) *Context {
	cp := *c
	cp.ctx = ctx
	cp.cancel = nil
	return &cp
}

func (c *Context) Deadline() (time.Time, bool) { return c.ctx.Deadline() }
func (c *Context) Done() <-chan struct{}       { return c.ctx.Done() }
func (c *Context) Err() error                  { return c.ctx.Err() }

// Set stores a key-value pair in the context metadata.
func (c *Context) Set(key string, value any) {
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

// Get retrieves a value from the context metadata.
func (c *Context) Get(key string) any {
	return c.metadata[key]
}

// Exit requests exit code code once the handler returns, and cancels the
// context.
func (c *Context) Exit(code int) {
	c.Set(exitKey, &ExitError{Code: code})
	c.Cancel()
}

// ExitWithError is Exit carrying err.
func (c *Context) ExitWithError(err error, code int) {
	c.Set(exitKey, &ExitError{Code: code, Err: err})
	c.Cancel()
}

// ExitOnError requests the exit code the app maps err to. A nil err does
// nothing.
func (c *Context) ExitOnError(err error) {
	if err == nil {
		return
	}
	c.ExitWithError(err, c.App.ExitCodes().Resolve(err))
}

// Cancel cancels the context.
func (c *Context) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Parent returns the context of the app that delegated to this one.
func (c *Context) Parent() *Context { return c.parent }

func (c *Context) IO() *snapio.IOManager { return c.App.IO() }
func (c *Context) Stdout() stdio.Writer  { return c.App.IO().Out() }
func (c *Context) Stderr() stdio.Writer  { return c.App.IO().Err() }
func (c *Context) Stdin() stdio.Reader   { return c.App.IO().In() }

// Args returns the arguments the app was run with.
func (c *Context) Args() []string { return c.Outcome.Args }

// Remaining returns the arguments a delegating pattern left for the nested
// app.
func (c *Context) Remaining() []string { return c.Outcome.Remaining }

// PatternID returns the matched pattern, or -1 when an option
// short-circuited.
func (c *Context) PatternID() int { return c.Outcome.Pattern }

// Pattern describes the matched pattern for middleware; nil when an option
// short-circuited.
func (c *Context) Pattern() middleware.PatternInfo {
	if c.Outcome.Pattern < 0 {
		return nil
	}
	return patternInfo{c.App.reg.Pattern(c.Outcome.Pattern)}
}

// Descriptor returns the descriptor bound to the matched pattern.
func (c *Context) Descriptor() Descriptor { return c.Outcome.Descriptor }

// Value returns the text bound to a value descriptor.
func (c *Context) Value(d Descriptor) string { return c.Outcome.Value(d) }

// Values returns every bound value text in pattern order.
func (c *Context) Values() []string {
	if c.Outcome.Kind == ResultShortCircuited {
		return nil
	}
	return c.Outcome.Values(c.Outcome.Descriptor)
}

// Invocation returns the option invocation whose handler is running.
func (c *Context) Invocation() (Invocation, bool) {
	if c.invocation < 0 {
		return Invocation{}, false
	}
	return c.Outcome.Invocations[c.invocation], true
}

// Invocations returns every invocation of the option named by form.
func (c *Context) Invocations(form string) []Invocation {
	id, ok := c.App.reg.LookupOption(form)
	if !ok {
		return nil
	}
	var out []Invocation
	for _, inv := range c.Outcome.Invocations {
		if inv.Option == id {
			out = append(out, inv)
		}
	}
	return out
}

// Option returns the argument of the last invocation of the option named by
// form, and whether it was invoked.
func (c *Context) Option(form string) (string, bool) {
	invs := c.Invocations(form)
	if len(invs) == 0 {
		return "", false
	}
	return invs[len(invs)-1].Arg, true
}

// Count returns how many times the option named by form was invoked.
func (c *Context) Count(form string) int { return len(c.Invocations(form)) }

// Has reports whether the option named by form was invoked.
func (c *Context) Has(form string) bool { return c.Count(form) > 0 }

// forInvocation returns a view of c for running option handler i.
func (c *Context) forInvocation(i int) *Context {
	cp := *c
	cp.invocation = i
	return &cp
}

type patternInfo struct {
	p *Pattern
}

func (pi patternInfo) Text() string        { return pi.p.Text }
func (pi patternInfo) Description() string { return pi.p.Description }
