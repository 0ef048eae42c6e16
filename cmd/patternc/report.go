package main

import (
	"encoding/json"
	"io"

	"github.com/dzonerzy/snap-patterns/snap"
)

type matchReport struct {
	Kind        string             `json:"kind"`
	Pattern     *patternReport     `json:"pattern,omitempty"`
	Option      string             `json:"option,omitempty"`
	Ambiguous   bool               `json:"ambiguous,omitempty"`
	Descriptor  *descriptorReport  `json:"descriptor,omitempty"`
	Invocations []invocationReport `json:"invocations"`
	Remaining   []string           `json:"remaining,omitempty"`
}

type patternReport struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type invocationReport struct {
	Option string  `json:"option"`
	Arg    *string `json:"arg,omitempty"`
	Raw    int     `json:"raw"`
}

// descriptorReport is a Descriptor with bound token texts filled in.
type descriptorReport struct {
	Kind     string             `json:"kind"`
	Position *int               `json:"position,omitempty"`
	Value    *string            `json:"value,omitempty"`
	Items    []descriptorReport `json:"items,omitempty"`
	Present  *bool              `json:"present,omitempty"`
	Index    *int               `json:"index,omitempty"`
	Count    *int               `json:"count,omitempty"`
	Sub      *descriptorReport  `json:"sub,omitempty"`
}

type errorReport struct {
	Error struct {
		Type        snap.ErrorType `json:"type"`
		Message     string         `json:"message"`
		Token       string         `json:"token,omitempty"`
		Patterns    []int          `json:"patterns,omitempty"`
		Suggestions []string       `json:"suggestions,omitempty"`
	} `json:"error"`
}

func newMatchReport(reg *snap.Registry, out *snap.Outcome) *matchReport {
	r := &matchReport{
		Kind:        out.Kind.String(),
		Ambiguous:   out.Ambiguous,
		Invocations: make([]invocationReport, 0, len(out.Invocations)),
		Remaining:   out.Remaining,
	}
	for _, inv := range out.Invocations {
		ir := invocationReport{Option: reg.Option(inv.Option).Name(), Raw: inv.Raw}
		if inv.HasArg {
			arg := inv.Arg
			ir.Arg = &arg
		}
		r.Invocations = append(r.Invocations, ir)
	}

	if out.Kind == snap.ResultShortCircuited {
		r.Option = reg.Option(out.Option).Name()
		return r
	}
	r.Pattern = &patternReport{Index: out.Pattern, Text: reg.Pattern(out.Pattern).Text}
	d := newDescriptorReport(out, out.Descriptor)
	r.Descriptor = &d
	return r
}

func newDescriptorReport(out *snap.Outcome, d snap.Descriptor) descriptorReport {
	r := descriptorReport{Kind: d.Kind.String()}
	switch d.Kind {
	case snap.DescValue:
		pos, text := d.Position, out.Value(d)
		r.Position, r.Value = &pos, &text
	case snap.DescTuple, snap.DescRepeated:
		r.Items = make([]descriptorReport, len(d.Items))
		for i, item := range d.Items {
			r.Items[i] = newDescriptorReport(out, item)
		}
	case snap.DescOptional, snap.DescFlag:
		present := d.Present
		r.Present = &present
	case snap.DescVariant, snap.DescIndex:
		index := d.Index
		r.Index = &index
	case snap.DescCount:
		count := d.Count
		r.Count = &count
	}
	if d.Sub != nil {
		sub := newDescriptorReport(out, *d.Sub)
		r.Sub = &sub
	}
	return r
}

func newErrorReport(me *snap.MatchError) *errorReport {
	r := &errorReport{}
	r.Error.Type = me.Type
	r.Error.Message = me.Message
	r.Error.Token = me.Token
	r.Error.Patterns = me.Patterns
	r.Error.Suggestions = me.Suggestions
	return r
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
