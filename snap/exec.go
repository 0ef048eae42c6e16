package snap

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecResult describes a finished external program.
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Error    error
}

const execResultKey = "__exec_result__"

type execMode int

const (
	execPassthrough execMode = iota
	execCapture
)

// ExecAction is a delegating action that runs an external program with the
// arguments left after the delegation point, like "app git status" running
// "git status".
type ExecAction struct {
	binary         string
	discoverOnPATH bool
	workingDir     string
	env            map[string]string
	inheritEnv     bool
	preArgs        []string
	postArgs       []string
	transform      func(*Context, []string) ([]string, error)
	mode           execMode
	teeOut         io.Writer
	teeErr         io.Writer
	captureAlso    bool
}

// Exec returns an action forwarding the remaining arguments to binary,
// looked up on PATH, with the parent environment and stdio.
func Exec(binary string) *ExecAction {
	return &ExecAction{
		binary:         binary,
		discoverOnPATH: true,
		inheritEnv:     true,
		env:            make(map[string]string),
	}
}

func (e *ExecAction) ExpectedParamArity() int { return AnyArity }
func (e *ExecAction) IsDelegating() bool      { return true }

func (e *ExecAction) DiscoverOnPATH(enable bool) *ExecAction { e.discoverOnPATH = enable; return e }
func (e *ExecAction) WorkingDir(dir string) *ExecAction      { e.workingDir = dir; return e }
func (e *ExecAction) InheritEnv(enable bool) *ExecAction     { e.inheritEnv = enable; return e }

// Env sets one variable in the child environment.
func (e *ExecAction) Env(key, value string) *ExecAction {
	e.env[key] = value
	return e
}

// InjectArgsPre inserts args before the forwarded ones. "${SELF}" expands
// to the running executable.
func (e *ExecAction) InjectArgsPre(args ...string) *ExecAction {
	e.preArgs = append(e.preArgs, args...)
	return e
}

// InjectArgsPost appends args after the forwarded ones.
func (e *ExecAction) InjectArgsPost(args ...string) *ExecAction {
	e.postArgs = append(e.postArgs, args...)
	return e
}

// TransformArgs rewrites the final argument vector.
func (e *ExecAction) TransformArgs(fn func(*Context, []string) ([]string, error)) *ExecAction {
	e.transform = fn
	return e
}

// ReplaceArg substitutes every forwarded occurrence of find with repl.
func (e *ExecAction) ReplaceArg(find string, repl ...string) *ExecAction {
	prev := e.transform
	e.transform = func(ctx *Context, argv []string) ([]string, error) {
		if prev != nil {
			var err error
			if argv, err = prev(ctx, argv); err != nil {
				return nil, err
			}
		}
		out := make([]string, 0, len(argv))
		for _, a := range argv {
			if a == find {
				out = append(out, repl...)
				continue
			}
			out = append(out, a)
		}
		return out, nil
	}
	return e
}

// Passthrough streams the child's output to the app's IO (the default).
func (e *ExecAction) Passthrough() *ExecAction { e.mode = execPassthrough; return e }

// Capture buffers the child's output into the ExecResult instead.
func (e *ExecAction) Capture() *ExecAction { e.mode = execCapture; return e }

// TeeTo additionally copies streamed output to out and err.
func (e *ExecAction) TeeTo(out, err io.Writer) *ExecAction {
	e.teeOut, e.teeErr = out, err
	return e
}

// CaptureAlso records streamed output in the ExecResult as well.
func (e *ExecAction) CaptureAlso() *ExecAction { e.captureAlso = true; return e }

// Forward runs the program with args. A non-zero exit becomes *ExitError
// carrying the child's code.
func (e *ExecAction) Forward(ctx *Context, args []string) error {
	bin := e.binary
	if bin == "" {
		return NewError(ErrorTypeInternal, "missing program to execute")
	}
	if e.discoverOnPATH && !filepath.IsAbs(bin) {
		if p, err := exec.LookPath(bin); err == nil {
			bin = p
		}
	}

	argv := make([]string, 0, len(e.preArgs)+len(args)+len(e.postArgs))
	argv = append(argv, substituteTokens(e.preArgs)...)
	argv = append(argv, args...)
	argv = append(argv, substituteTokens(e.postArgs)...)
	if e.transform != nil {
		var err error
		if argv, err = e.transform(ctx, argv); err != nil {
			return err
		}
	}

	cmd := exec.CommandContext(ctx.Context(), bin, argv...)
	cmd.Dir = e.workingDir
	cmd.Env = make([]string, 0, len(e.env))
	if e.inheritEnv {
		cmd.Env = append(cmd.Env, os.Environ()...)
	}
	for k, v := range e.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = ctx.Stdin()

	var outBuf, errBuf bytes.Buffer
	switch e.mode {
	case execCapture:
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	default:
		outs := []io.Writer{ctx.Stdout()}
		errs := []io.Writer{ctx.Stderr()}
		if e.teeOut != nil {
			outs = append(outs, e.teeOut)
		}
		if e.teeErr != nil {
			errs = append(errs, e.teeErr)
		}
		if e.captureAlso {
			outs = append(outs, &outBuf)
			errs = append(errs, &errBuf)
		}
		cmd.Stdout = io.MultiWriter(outs...)
		cmd.Stderr = io.MultiWriter(errs...)
	}

	runErr := cmd.Run()
	res := &ExecResult{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes(), Error: runErr}
	ee := toExitError(runErr)
	if ee != nil {
		res.ExitCode = ee.Code
	}
	ctx.Set(execResultKey, res)
	if ee != nil {
		return ee
	}
	return nil
}

// ExecResult returns the result of an ExecAction run in this context.
func (c *Context) ExecResult() (*ExecResult, bool) {
	res, ok := c.Get(execResultKey).(*ExecResult)
	return res, ok
}

func toExitError(err error) *ExitError {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Code: ee.ExitCode(), Err: err}
	}
	return &ExitError{Code: 1, Err: err}
}

func substituteTokens(args []string) []string {
	if len(args) == 0 {
		return args
	}
	self, _ := os.Executable()
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, "${SELF}", self)
	}
	return out
}
