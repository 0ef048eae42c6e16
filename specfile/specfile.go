// Package specfile loads pattern registries from YAML or JSON documents.
//
// A spec file lists options before patterns, since patterns may only
// reference options that are already registered:
//
//	name: git-lite
//	policy:
//	  allow_cross_pattern_ambiguity: false
//	options:
//	  - forms: "-v, --verbose"
//	  - forms: "-C"
//	    arg: "<path>"
//	patterns:
//	  - text: "remote add <name> <url>"
//	    action: remote-add
//	  - text: "exec"
//	    exec: git
package specfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dzonerzy/snap-patterns/snap"
)

// Format is the encoding of a spec document.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unsupported spec format %q (want .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// Spec is a registry definition.
type Spec struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Policy      Policy    `yaml:"policy" json:"policy"`
	Options     []Option  `yaml:"options" json:"options"`
	Patterns    []Pattern `yaml:"patterns" json:"patterns"`
}

// Policy mirrors snap.Policy.
type Policy struct {
	AllowCrossPatternAmbiguity    bool `yaml:"allow_cross_pattern_ambiguity" json:"allow_cross_pattern_ambiguity"`
	AllowPatternInternalAmbiguity bool `yaml:"allow_pattern_internal_ambiguity" json:"allow_pattern_internal_ambiguity"`
}

// Option is one option entry. Attrs takes "short_circuit" and "unlisted".
type Option struct {
	Forms       string   `yaml:"forms" json:"forms"`
	Arg         string   `yaml:"arg,omitempty" json:"arg,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Attrs       []string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	Action      string   `yaml:"action,omitempty" json:"action,omitempty"`
}

// Pattern is one pattern entry. Action names a handler supplied by the
// caller; Exec forwards the rest of the command line to a program; Delegate
// marks the pattern as delegating without attaching behaviour.
type Pattern struct {
	Text        string   `yaml:"text" json:"text"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Attrs       []string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	Action      string   `yaml:"action,omitempty" json:"action,omitempty"`
	Exec        string   `yaml:"exec,omitempty" json:"exec,omitempty"`
	Delegate    bool     `yaml:"delegate,omitempty" json:"delegate,omitempty"`
	Arity       *int     `yaml:"arity,omitempty" json:"arity,omitempty"`
}

// Load reads and decodes the spec at path.
func Load(path string) (*Spec, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	spec, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse decodes data. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Spec, error) {
	var spec Spec
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF.
		if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	return &spec, nil
}

// Encode writes spec in the given format.
func (s *Spec) Encode(format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(s, "", "  ")
	}
	return yaml.Marshal(s)
}

// Handlers resolves action names to snap actions.
type Handlers map[string]snap.Action

// EntryError ties a failure to the spec entry that caused it.
type EntryError struct {
	Kind  string // "option" or "pattern"
	Index int    // 1-based position in the spec
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Registry compiles the spec into a fresh registry. Every failing entry is reported; failed entries are skipped so
// later ones are still checked.
func (s *Spec) Registry(handlers Handlers) (*snap.Registry, []error) {
	reg := snap.NewRegistry()
	errs := s.register(reg, handlers)
	return reg, errs
}

// App builds an application from the spec. The first failure is returned.
func (s *Spec) App(handlers Handlers) (*snap.App, error) {
	app := snap.New(s.Name, s.Description)
	if errs := s.register(app.Registry(), handlers); len(errs) > 0 {
		return nil, errs[0]
	}
	return app, nil
}

func (s *Spec) register(reg *snap.Registry, handlers Handlers) []error {
	var errs []error
	if err := reg.SetPolicy(snap.Policy{
		AllowCrossPatternAmbiguity:    s.Policy.AllowCrossPatternAmbiguity,
		AllowPatternInternalAmbiguity: s.Policy.AllowPatternInternalAmbiguity,
	}); err != nil {
		errs = append(errs, err)
	}

	for i, o := range s.Options {
		attrs, err := optionAttrs(o.Attrs)
		if err == nil {
			var action snap.Action
			if action, err = lookup(handlers, o.Action); err == nil {
				_, err = reg.AddOption(o.Forms, o.Arg, attrs, o.Description, action)
			}
		}
		if err != nil {
			errs = append(errs, &EntryError{Kind: "option", Index: i + 1, Err: reindex(err, i+1)})
		}
	}

	for i, p := range s.Patterns {
		attrs, err := patternAttrs(p.Attrs)
		if err == nil {
			var action snap.Action
			if action, err = p.action(handlers); err == nil {
				_, err = reg.AddPattern(p.Text, attrs, p.Description, action)
			}
		}
		if err != nil {
			errs = append(errs, &EntryError{Kind: "pattern", Index: i + 1, Err: reindex(err, i+1)})
		}
	}
	return errs
}

func (p *Pattern) action(handlers Handlers) (snap.Action, error) {
	set := 0
	for _, on := range []bool{p.Action != "", p.Exec != "", p.Delegate} {
		if on {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("action, exec and delegate are mutually exclusive")
	}

	switch {
	case p.Exec != "":
		return snap.Exec(p.Exec), nil
	case p.Action != "":
		return lookup(handlers, p.Action)
	case p.Delegate || p.Arity != nil:
		arity := snap.AnyArity
		if p.Arity != nil {
			arity = *p.Arity
		}
		return snap.Marker{Arity: arity, Delegating: p.Delegate}, nil
	}
	return nil, nil
}

func lookup(handlers Handlers, name string) (snap.Action, error) {
	if name == "" {
		return nil, nil
	}
	a, ok := handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", name)
	}
	return a, nil
}

// reindex makes compile-error ordinals refer to spec positions, which differ
// from registry ordinals once an earlier entry was skipped.
func reindex(err error, index int) error {
	var ce *snap.CompileError
	if !errors.As(err, &ce) {
		return err
	}
	cp := *ce
	cp.Index = index
	return &cp
}

func patternAttrs(names []string) (snap.PatternAttr, error) {
	var mask snap.PatternAttr
	for _, n := range names {
		attr, ok := snap.ParsePatternAttr(n)
		if !ok {
			return 0, fmt.Errorf("unknown pattern attribute %q", n)
		}
		mask |= attr
	}
	return mask, nil
}

func optionAttrs(names []string) (snap.OptionAttr, error) {
	var mask snap.OptionAttr
	for _, n := range names {
		switch n {
		case "short_circuit":
			mask |= snap.OptionShortCircuit
		case "unlisted":
			mask |= snap.OptionUnlisted
		default:
			return 0, fmt.Errorf("unknown option attribute %q", n)
		}
	}
	return mask, nil
}
