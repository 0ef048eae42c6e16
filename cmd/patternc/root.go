package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	snapio "github.com/dzonerzy/snap-patterns/io"
	"github.com/dzonerzy/snap-patterns/snap"
	"github.com/dzonerzy/snap-patterns/specfile"
)

// errReported is returned by commands that already logged their failure.
var errReported = errors.New("failed")

type globalOptions struct {
	noColor bool
	verbose bool
}

func (o *globalOptions) register(fs *pflag.FlagSet) {
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Log debug messages")
}

// env is what every subcommand works with once flags are parsed.
type env struct {
	opts   *globalOptions
	io     *snapio.IOManager
	log    *snapio.Logger
	stdout io.Writer
}

func (e *env) setup() {
	if e.opts.noColor {
		e.io.NoColor()
	}
	e.log = snapio.NewLogger(e.io).WithLevel(snapio.LevelInfo)
	if e.opts.verbose {
		e.log.WithLevel(snapio.LevelDebug)
	}
}

// load reads a spec and compiles it. Named actions become markers so any
// spec can be checked without its handlers.
func (e *env) load(path string) (*specfile.Spec, *snap.Registry, []error, error) {
	spec, err := specfile.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	e.log.Debug("loaded %s: %d options, %d patterns", path, len(spec.Options), len(spec.Patterns))

	reg, errs := spec.Registry(placeholderHandlers(spec))
	return spec, reg, errs, nil
}

// compiled is load for commands that need a usable registry.
func (e *env) compiled(path string) (*snap.Registry, error) {
	_, reg, errs, err := e.load(path)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		for _, ce := range errs {
			e.log.Error("%v", ce)
		}
		return nil, errReported
	}
	return reg, nil
}

func placeholderHandlers(spec *specfile.Spec) specfile.Handlers {
	h := make(specfile.Handlers)
	for _, o := range spec.Options {
		if o.Action != "" {
			h[o.Action] = snap.Marker{Arity: snap.AnyArity}
		}
	}
	for _, p := range spec.Patterns {
		if p.Action != "" {
			h[p.Action] = snap.Marker{Arity: snap.AnyArity}
		}
	}
	return h
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	e := &env{
		opts:   &globalOptions{},
		io:     snapio.New().WithIn(in).WithOut(out).WithErr(errOut),
		stdout: out,
	}

	root := &cobra.Command{
		Use:   "patternc",
		Short: "Compile, inspect and try out command-line pattern specs",
		Long: `patternc works on spec files (YAML or JSON) listing options and
command-line patterns such as "remote add <name> <url>".

Examples:
  patternc check git.yaml
  patternc match git.yaml -- remote add origin https://example.com/repo.git
  patternc dump git.yaml
  patternc complete git.yaml -- remote ""`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			e.setup()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	e.opts.register(root.PersistentFlags())

	root.AddCommand(
		newCheckCmd(e),
		newMatchCmd(e),
		newDumpCmd(e),
		newCompleteCmd(e),
	)
	return root
}

// execute runs patternc and maps the outcome to an exit code: 2 for
// command lines the spec rejects, 1 for everything else.
func execute(args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd(in, out, errOut)
	root.SetArgs(args)

	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errReported):
		return 1
	}

	var me *snap.MatchError
	if errors.As(err, &me) {
		return 2
	}
	fmt.Fprintln(errOut, "Error:", err)
	return 1
}
