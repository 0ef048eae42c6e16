package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dzonerzy/snap-patterns/snap"
)

func newCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check <spec-file>",
		Short: "Compile a spec and report every error",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, reg, errs, err := e.load(args[0])
			if err != nil {
				return err
			}
			for _, ce := range errs {
				e.log.Error("%v", ce)
			}
			if len(errs) > 0 {
				e.log.Error("%s: %d error(s)", args[0], len(errs))
				return errReported
			}
			e.log.Success("%s: %d patterns, %d options", args[0], reg.NumPatterns(), reg.NumOptions())
			return nil
		},
	}
}

func newMatchCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "match <spec-file> -- [args...]",
		Short: "Process a command line against a spec",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := e.compiled(args[0])
			if err != nil {
				return err
			}
			line := args[1:]
			e.log.Debug("matching %q", line)

			out, err := snap.NewProcessor(reg).Process(line)
			if err != nil {
				var me *snap.MatchError
				if !errors.As(err, &me) {
					return err
				}
				if asJSON {
					if werr := writeJSON(e.stdout, newErrorReport(me)); werr != nil {
						return werr
					}
				} else {
					e.log.Error("%s: %s", me.Type, me.Message)
					for _, s := range me.Suggestions {
						fmt.Fprintln(e.io.Err(), "  "+s)
					}
				}
				return me
			}

			if asJSON {
				return writeJSON(e.stdout, newMatchReport(reg, out))
			}
			e.writeOutcome(reg, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}

func (e *env) writeOutcome(reg *snap.Registry, out *snap.Outcome) {
	w := e.stdout
	theme := e.log.Theme()

	fmt.Fprintf(w, "kind:        %s\n", out.Kind)
	if out.Kind == snap.ResultShortCircuited {
		fmt.Fprintf(w, "option:      %s\n", theme.Option.Sprint(e.io, reg.Option(out.Option).Name()))
	} else {
		p := reg.Pattern(out.Pattern)
		fmt.Fprintf(w, "pattern:     #%d %s\n", out.Pattern, snap.Highlight(p.Text, theme, e.io))
		fmt.Fprintf(w, "descriptor:  %s\n", out.Descriptor)
		if vals := out.Values(out.Descriptor); len(vals) > 0 {
			fmt.Fprintf(w, "values:      %s\n", strings.Join(vals, " "))
		}
		if out.Ambiguous {
			fmt.Fprintf(w, "ambiguous:   %s\n", theme.Warning.Sprint(e.io, "yes"))
		}
	}

	for i, inv := range out.Invocations {
		label := "invocations:"
		if i > 0 {
			label = ""
		}
		name := theme.Option.Sprint(e.io, reg.Option(inv.Option).Name())
		if inv.HasArg {
			fmt.Fprintf(w, "%-12s %s=%s (arg %d)\n", label, name, inv.Arg, inv.Raw)
		} else {
			fmt.Fprintf(w, "%-12s %s (arg %d)\n", label, name, inv.Raw)
		}
	}
	if out.Kind == snap.ResultDelegated {
		fmt.Fprintf(w, "remaining:   %s\n", strings.Join(out.Remaining, " "))
	}
}

func newDumpCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <spec-file>",
		Short: "Print the compiled structure of every pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := e.compiled(args[0])
			if err != nil {
				return err
			}
			w := e.stdout
			theme := e.log.Theme()

			for i, n := 0, reg.NumOptions(); i < n; i++ {
				o := reg.Option(i)
				forms := make([]string, len(o.Forms))
				for j, f := range o.Forms {
					forms[j] = theme.Option.Sprint(e.io, f.String())
				}
				fmt.Fprintf(w, "option #%d %s", i, strings.Join(forms, ", "))
				if arg := o.Arg.String(); arg != "" {
					fmt.Fprintf(w, " %s", theme.Value.Sprint(e.io, arg))
				}
				if o.Attrs.Has(snap.OptionShortCircuit) {
					fmt.Fprint(w, " short_circuit")
				}
				if o.Attrs.Has(snap.OptionUnlisted) {
					fmt.Fprint(w, " unlisted")
				}
				fmt.Fprintln(w)
			}

			if reg.NumPatterns() == 0 {
				e.log.Warning("no patterns; every command line must be empty")
				return nil
			}
			for i, n := 0, reg.NumPatterns(); i < n; i++ {
				p := reg.Pattern(i)
				fmt.Fprintf(w, "pattern #%d %s", i, snap.Highlight(p.Text, theme, e.io))
				if p.Attrs != 0 {
					fmt.Fprintf(w, " [%s]", p.Attrs)
				}
				if p.IsDelegating() {
					fmt.Fprint(w, " delegating")
				}
				fmt.Fprintln(w)
				if err := reg.Store().WriteTree(w, p.Seq); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newCompleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <spec-file> -- [args...] <partial>",
		Short: "List completions for the last word of a command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := e.compiled(args[0])
			if err != nil {
				return err
			}
			words, partial := args[1:], ""
			if len(words) > 0 {
				words, partial = words[:len(words)-1], words[len(words)-1]
			}
			e.log.Debug("completing %q after %q", partial, words)

			for _, c := range snap.NewCompleter(reg).Complete(words, partial) {
				fmt.Fprintln(e.stdout, c)
			}
			return nil
		},
	}
}
