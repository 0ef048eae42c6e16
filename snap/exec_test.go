//nolint:testpackage // using package name 'snap' to access unexported fields for testing
package snap

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("exec tests use /bin/echo and /bin/sh")
	}
}

func TestExecForwardsRemainingArgs(t *testing.T) {
	skipWithoutShell(t)

	app, out, _ := quietApp("wr")
	app.Pattern("echo", "wrap /bin/echo", Exec("/bin/echo").InjectArgsPre("wrapped:"))

	if err := app.RunWithArgs(context.Background(), []string{"echo", "hello", "--world"}); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "wrapped: hello --world" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestExecCapture(t *testing.T) {
	skipWithoutShell(t)

	app, out, _ := quietApp("wr")
	var res *ExecResult
	app.Pattern("say", "", Exec("echo").Capture().ReplaceArg("hi", "hello", "there")).
		After(func(ctx *Context) error {
			res, _ = ctx.ExecResult()
			return nil
		})

	if err := app.RunWithArgs(context.Background(), []string{"say", "hi"}); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("captured output leaked: %q", out.String())
	}
	if res == nil || strings.TrimSpace(string(res.Stdout)) != "hello there" || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExecExitCodeMapping(t *testing.T) {
	skipWithoutShell(t)

	app, _, _ := quietApp("wr")
	app.Pattern("fail", "exit 7", Exec("/bin/sh").InjectArgsPre("-c", "exit 7"))

	err := app.RunWithArgs(context.Background(), []string{"fail"})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if code := app.ExitCodes().Resolve(err); code != 7 {
		t.Fatalf("expected exit code 7, got %d", code)
	}
}

func TestExecEnvAndTee(t *testing.T) {
	skipWithoutShell(t)

	app, out, _ := quietApp("wr")
	var tee bytes.Buffer
	app.Pattern("env", "", Exec("/bin/sh").
		InheritEnv(false).
		Env("SNAP_EXEC_TEST", "42").
		InjectArgsPre("-c", `echo "$SNAP_EXEC_TEST"`).
		TeeTo(&tee, nil))

	if err := app.RunWithArgs(context.Background(), []string{"env"}); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "42" || strings.TrimSpace(tee.String()) != "42" {
		t.Fatalf("out=%q tee=%q", out.String(), tee.String())
	}
}

func TestExecRejectsValueSlots(t *testing.T) {
	_, err := NewRegistry().AddPattern("run <cmd>", 0, "", Exec("/bin/true"))
	if ce := compileError(t, err); ce.Type != ErrorTypeDelegatingPatternHasValues {
		t.Fatalf("expected delegating_pattern_has_values, got %s", ce.Type)
	}
}

func TestExecMissingBinary(t *testing.T) {
	app, _, _ := quietApp("wr")
	app.Pattern("nothing", "", Exec("snap-definitely-not-installed"))

	err := app.RunWithArgs(context.Background(), []string{"nothing"})
	var ee *ExitError
	if !errors.As(err, &ee) || ee.Code != 1 {
		t.Fatalf("expected exit 1 for a missing program, got %v", err)
	}
}
