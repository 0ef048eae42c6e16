//nolint:testpackage // using package name 'snap' to access unexported fields for testing
package snap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dzonerzy/snap-patterns/middleware"
)

func quietApp(name string) (*App, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	app := New(name, "test application")
	app.IO().WithOut(&out).WithErr(&errOut).NoColor()
	return app, &out, &errOut
}

func TestProcessOutcome(t *testing.T) {
	reg := buildRegistry(t, regSpec{
		options:  []optSpec{{forms: "-f, --force"}},
		patterns: []patSpec{{text: "copy <src> <dst>"}},
	})

	out, err := NewProcessor(reg).Process([]string{"copy", "-f", "a.txt", "b.txt"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Kind != ResultMatched || out.Pattern != 0 {
		t.Fatalf("unexpected outcome %s %d", out.Kind, out.Pattern)
	}
	if !out.Descriptor.Equal(Tuple(Value(1), Value(2))) {
		t.Errorf("descriptor: %s", out.Descriptor)
	}
	if got := out.Values(out.Descriptor); !slices.Equal(got, []string{"a.txt", "b.txt"}) {
		t.Errorf("values: %v", got)
	}
	if out.Value(out.Descriptor.Items[0]) != "a.txt" || out.Value(out.Descriptor) != "" {
		t.Errorf("Value mismatch")
	}
	if len(out.Invocations) != 1 || out.Invocations[0].Raw != 1 {
		t.Errorf("invocations: %+v", out.Invocations)
	}
}

func TestProcessDelegatedOutcome(t *testing.T) {
	reg := buildRegistry(t, regSpec{
		options:  []optSpec{{forms: "-v"}},
		patterns: []patSpec{{text: "remote", action: Marker{Arity: AnyArity, Delegating: true}}},
	})

	out, err := NewProcessor(reg).Process([]string{"-v", "remote", "add", "-v", "x"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Kind != ResultDelegated || out.Offset != 2 {
		t.Fatalf("unexpected outcome %s offset %d", out.Kind, out.Offset)
	}
	if len(out.Invocations) != 1 || out.Invocations[0].Raw != 0 {
		t.Errorf("only invocations before the delegation point belong here: %+v", out.Invocations)
	}
	if len(out.Tokens) != 1 || out.Tokens[0].Text != "remote" {
		t.Errorf("tokens: %+v", out.Tokens)
	}
	if !slices.Equal(out.Remaining, []string{"add", "-v", "x"}) {
		t.Errorf("remaining: %v", out.Remaining)
	}
	if !out.Descriptor.Equal(Tuple()) {
		t.Errorf("descriptor: %s", out.Descriptor)
	}
}

func TestAppPatternHandler(t *testing.T) {
	app, _, _ := quietApp("cp")

	var got []string
	app.Option("-f, --force", "", "overwrite", nil).
		Pattern("copy <src> <dst>", "copy a file", WithArity(2, func(ctx *Context) error {
			got = ctx.Values()
			if !ctx.Has("--force") || ctx.Count("-f") != 1 {
				t.Errorf("force not visible to handler")
			}
			if ctx.Pattern().Text() != "copy <src> <dst>" || ctx.Pattern().Description() != "copy a file" {
				t.Errorf("pattern info: %q", ctx.Pattern().Text())
			}
			return nil
		}))

	if err := app.RunWithArgs(context.Background(), []string{"copy", "-f", "a", "b"}); err != nil {
		t.Fatalf("RunWithArgs: %v", err)
	}
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("values: %v", got)
	}
}

func TestAppOptionHandlersRunInOrder(t *testing.T) {
	app, _, _ := quietApp("order")

	var calls []string
	record := func(name string) ActionFunc {
		return func(ctx *Context) error {
			inv, ok := ctx.Invocation()
			if !ok {
				t.Errorf("%s: no invocation in context", name)
			}
			calls = append(calls, name+"="+inv.Arg)
			return nil
		}
	}

	app.Option("-a", "", "", record("a")).
		Option("-b", "<n>", "", record("b")).
		Pattern("run", "", ActionFunc(func(ctx *Context) error {
			if _, ok := ctx.Invocation(); ok {
				t.Errorf("pattern handler sees an invocation")
			}
			calls = append(calls, "run")
			return nil
		}))

	if err := app.RunWithArgs(context.Background(), []string{"-b", "1", "run", "-a", "-b2"}); err != nil {
		t.Fatalf("RunWithArgs: %v", err)
	}
	want := []string{"b=1", "a=", "b=2", "run"}
	if !slices.Equal(calls, want) {
		t.Fatalf("calls: %v, want %v", calls, want)
	}
}

func TestAppShortCircuitPatternSkipsOptionHandlers(t *testing.T) {
	app, _, _ := quietApp("sc")

	optionRan := false
	helpRan := false
	app.Option("-v", "", "", ActionFunc(func(*Context) error { optionRan = true; return nil })).
		Pattern("help", "", ActionFunc(func(*Context) error { helpRan = true; return nil }), PatternShortCircuit)

	if err := app.RunWithArgs(context.Background(), []string{"help", "-v"}); err != nil {
		t.Fatalf("RunWithArgs: %v", err)
	}
	if !helpRan || optionRan {
		t.Fatalf("help=%v option=%v", helpRan, optionRan)
	}
}

func TestAppShortCircuitOption(t *testing.T) {
	app, out, _ := quietApp("ver")

	patternRan := false
	app.Option("--version", "", "print version", ActionFunc(func(ctx *Context) error {
		if ctx.PatternID() != -1 || ctx.Pattern() != nil || ctx.Values() != nil {
			t.Errorf("short-circuited context exposes a pattern")
		}
		fmt.Fprintln(ctx.Stdout(), "ver 1.0.0")
		return nil
	}), OptionShortCircuit).
		Option("--about", "", "", nil, OptionShortCircuit).
		Pattern("run <x>", "", ActionFunc(func(*Context) error { patternRan = true; return nil }))

	if err := app.RunWithArgs(context.Background(), []string{"run", "--version"}); err != nil {
		t.Fatalf("RunWithArgs: %v", err)
	}
	if patternRan || strings.TrimSpace(out.String()) != "ver 1.0.0" {
		t.Fatalf("pattern=%v output=%q", patternRan, out.String())
	}

	if err := app.RunWithArgs(context.Background(), []string{"--about"}); !errors.Is(err, ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}

func TestAppDelegation(t *testing.T) {
	child, _, _ := quietApp("remote")
	var added string
	var parentSeen bool
	child.Option("-v", "", "", nil).
		Pattern("add <name> [-v]", "", ActionFunc(func(ctx *Context) error {
			added = ctx.Value(ctx.Descriptor().Items[0])
			parentSeen = ctx.Parent() != nil && ctx.Parent().Has("--verbose")
			return nil
		}))

	parent, _, _ := quietApp("git")
	verbose := 0
	parent.Option("-v, --verbose", "", "", ActionFunc(func(*Context) error { verbose++; return nil })).
		Pattern("remote", "", DelegateTo(child))

	if err := parent.RunWithArgs(context.Background(), []string{"-v", "remote", "add", "origin", "-v"}); err != nil {
		t.Fatalf("RunWithArgs: %v", err)
	}
	if added != "origin" || !parentSeen {
		t.Fatalf("added=%q parentSeen=%v", added, parentSeen)
	}
	if verbose != 1 {
		t.Fatalf("parent option handler ran %d times", verbose)
	}
}

func TestAppExitRequests(t *testing.T) {
	app, _, _ := quietApp("exit")

	patternRan := false
	app.Option("--fail", "", "", ActionFunc(func(ctx *Context) error {
		ctx.Exit(4)
		return nil
	})).
		Pattern("run", "", ActionFunc(func(ctx *Context) error {
			patternRan = true
			ctx.ExitWithError(errors.New("boom"), 9)
			return nil
		}))

	err := app.RunWithArgs(context.Background(), []string{"run"})
	var ee *ExitError
	if !errors.As(err, &ee) || ee.Code != 9 || ee.Error() != "boom" {
		t.Fatalf("expected exit 9, got %v", err)
	}
	if app.ExitCodes().Resolve(err) != 9 {
		t.Fatalf("resolve: %d", app.ExitCodes().Resolve(err))
	}

	patternRan = false
	err = app.RunWithArgs(context.Background(), []string{"run", "--fail"})
	if !errors.As(err, &ee) || ee.Code != 4 {
		t.Fatalf("expected exit 4, got %v", err)
	}
	if patternRan {
		t.Fatalf("pattern handler ran after an exit request")
	}
}

func TestAppHooksAndErrors(t *testing.T) {
	app, _, errOut := quietApp("hooks")

	var order []string
	app.Before(func(*Context) error { order = append(order, "before"); return nil }).
		After(func(*Context) error { order = append(order, "after"); return nil }).
		Pattern("run", "", ActionFunc(func(*Context) error {
			order = append(order, "run")
			return errors.New("handler failed")
		}))

	err := app.RunWithArgs(context.Background(), []string{"run"})
	if err == nil || err.Error() != "handler failed" {
		t.Fatalf("handler error lost: %v", err)
	}
	if !slices.Equal(order, []string{"before", "run", "after"}) {
		t.Fatalf("order: %v", order)
	}
	if app.ExitCodes().Resolve(err) != 1 {
		t.Fatalf("generic error should map to 1")
	}

	err = app.RunWithArgs(context.Background(), []string{"runn"})
	var me *MatchError
	if !errors.As(err, &me) || me.Type != ErrorTypeNoPatternMatch {
		t.Fatalf("expected no_pattern_match, got %v", err)
	}
	if !strings.Contains(errOut.String(), "Did you mean 'run'?") {
		t.Fatalf("match error not printed: %q", errOut.String())
	}
	if app.ExitCodes().Resolve(err) != 2 {
		t.Fatalf("match errors map to misusage")
	}
}

func TestAppRegistrationErrors(t *testing.T) {
	app, _, _ := quietApp("bad")
	app.Pattern("ok", "", nil).
		Pattern("[[a]]", "", nil).
		Pattern("run --missing", "", nil)

	var ce *CompileError
	if !errors.As(app.Err(), &ce) || ce.Type != ErrorTypeAmbiguousOptionality || ce.Index != 2 {
		t.Fatalf("expected the first registration error, got %v", app.Err())
	}
	if err := app.RunWithArgs(context.Background(), []string{"ok"}); !errors.Is(err, app.Err()) {
		t.Fatalf("Run must report the registration error, got %v", err)
	}
}

func TestAppMiddleware(t *testing.T) {
	app, _, _ := quietApp("mw")

	var trace []string
	tracer := func(name string) middleware.Middleware {
		return func(next middleware.ActionFunc) middleware.ActionFunc {
			return func(ctx middleware.Context) error {
				trace = append(trace, name+":"+ctx.Pattern().Text())
				ctx.Set(name, true)
				return next(ctx)
			}
		}
	}

	app.Option("-a", "", "", nil).
		Option("-b", "", "", nil).
		Use(tracer("outer"), tracer("inner")).
		Use(middleware.Validate(middleware.Custom("exclusive", middleware.MutuallyExclusive("-a", "-b")))).
		Use(middleware.RecoveryWithWriter(&bytes.Buffer{})).
		Pattern("run", "", ActionFunc(func(ctx *Context) error {
			if ctx.Get("outer") != true || ctx.Get("inner") != true {
				t.Errorf("middleware metadata not visible")
			}
			return nil
		})).
		Pattern("crash", "", ActionFunc(func(*Context) error { panic("kaboom") }))

	if err := app.RunWithArgs(context.Background(), []string{"run", "-a"}); err != nil {
		t.Fatalf("RunWithArgs: %v", err)
	}
	if !slices.Equal(trace, []string{"outer:run", "inner:run"}) {
		t.Fatalf("trace: %v", trace)
	}

	err := app.RunWithArgs(context.Background(), []string{"run", "-a", "-b"})
	var ve *middleware.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if app.ExitCodes().Resolve(err) != 3 {
		t.Fatalf("validation errors map to 3")
	}

	err = app.RunWithArgs(context.Background(), []string{"crash"})
	var re *middleware.RecoveryError
	if !errors.As(err, &re) || re.Panic != "kaboom" || re.Pattern != "crash" {
		t.Fatalf("expected recovered panic, got %v", err)
	}
}

func TestAppTimeoutMiddleware(t *testing.T) {
	app, _, _ := quietApp("slow")
	app.Use(middleware.Timeout(20*time.Millisecond)).
		Pattern("wait", "", ActionFunc(func(ctx *Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		}))

	err := app.RunWithArgs(context.Background(), []string{"wait"})
	var te *middleware.TimeoutError
	if !errors.As(err, &te) || te.Pattern != "wait" {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestExitCodeResolution(t *testing.T) {
	m := newExitCodeManager()

	matchErr := NewError(ErrorTypeBadOption, "unknown option")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"exit error", &ExitError{Code: 42}, 42},
		{"match error", matchErr, 2},
		{"wrapped match error", fmt.Errorf("processing: %w", matchErr), 2},
		{"compile error", &CompileError{Type: ErrorTypeBadPatternSyntax}, 1},
		{"validation error", &middleware.ValidationError{Message: "bad"}, 3},
		{"timeout error", &middleware.TimeoutError{Duration: time.Second}, 1},
		{"plain error", errors.New("x"), 1},
	}
	for _, tt := range tests {
		if got := m.Resolve(tt.err); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}

	m.DefineMatch(ErrorTypeBadOption, 64).DefineError(&customError{}, 7).Define("usage", 64)
	if got := m.Resolve(matchErr); got != 64 {
		t.Errorf("DefineMatch: got %d", got)
	}
	if got := m.Resolve(fmt.Errorf("wrapped: %w", &customError{})); got != 7 {
		t.Errorf("DefineError: got %d", got)
	}
	if code, ok := m.Code("usage"); !ok || code != 64 {
		t.Errorf("Code: %d %v", code, ok)
	}

	m.Default(ExitCodeDefaults{Success: 0, GeneralError: 10, MisusageError: 20, ValidationError: 30})
	if got := m.Resolve(NewError(ErrorTypeNoPatternMatch, "")); got != 20 {
		t.Errorf("misusage default not followed: %d", got)
	}
	if got := m.Resolve(matchErr); got != 64 {
		t.Errorf("explicit mapping overridden by defaults: %d", got)
	}
	if got := m.Resolve(errors.New("x")); got != 10 {
		t.Errorf("general default: %d", got)
	}
}

type customError struct{}

func (*customError) Error() string { return "custom" }

func TestContextOptionAccess(t *testing.T) {
	app, _, _ := quietApp("ctx")

	app.Option("-o, --output", "<file>", "", nil).
		Option("-v", "", "", nil).
		Pattern("run", "", ActionFunc(func(ctx *Context) error {
			if v, ok := ctx.Option("--output"); !ok || v != "b.txt" {
				t.Errorf("Option(--output) = %q, %v", v, ok)
			}
			if invs := ctx.Invocations("-o"); len(invs) != 2 || invs[0].Arg != "a.txt" {
				t.Errorf("Invocations: %+v", invs)
			}
			if ctx.Count("-v") != 2 || ctx.Has("--missing") {
				t.Errorf("Count/Has mismatch")
			}
			if _, ok := ctx.Option("-q"); ok {
				t.Errorf("unknown option reported as invoked")
			}
			if !slices.Equal(ctx.Args(), []string{"-vv", "run", "-o", "a.txt", "--output=b.txt"}) {
				t.Errorf("Args: %v", ctx.Args())
			}

			ctx.Set("k", 1)
			sub := ctx.WithContext(context.WithValue(ctx.Context(), struct{}{}, "x"))
			if sub.Get("k") != 1 {
				t.Errorf("metadata not shared with derived context")
			}
			return nil
		}))

	if err := app.RunWithArgs(context.Background(), []string{"-vv", "run", "-o", "a.txt", "--output=b.txt"}); err != nil {
		t.Fatalf("RunWithArgs: %v", err)
	}
}
