//nolint:testpackage // using package name 'snap' to access unexported fields for testing
package snap

import (
	"testing"
)

func ptr(d Descriptor) *Descriptor { return &d }

func TestBindDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		options []optSpec
		pattern string
		args    []string
		want    Descriptor
	}{
		{
			name:    "value with absent optional",
			pattern: "<a> [<b>]",
			args:    []string{"x"},
			want:    Tuple(Value(0), Optional(false, nil)),
		},
		{
			name:    "value with present optional",
			pattern: "<a> [<b>]",
			args:    []string{"x", "y"},
			want:    Tuple(Value(0), Optional(true, ptr(Value(1)))),
		},
		{
			name:    "collapsed optional option",
			options: []optSpec{{forms: "-a"}},
			pattern: "[-a]",
			args:    nil,
			want:    Flag(false),
		},
		{
			name:    "collapsed optional option present",
			options: []optSpec{{forms: "-a"}},
			pattern: "[-a]",
			args:    []string{"-a"},
			want:    Flag(true),
		},
		{
			name:    "keywords and free options carry nothing",
			options: []optSpec{{forms: "-f, --force"}},
			pattern: "copy <src> <dst>",
			args:    []string{"copy", "-f", "a.txt", "b.txt"},
			want:    Tuple(Value(1), Value(2)),
		},
		{
			name:    "no parameters",
			pattern: "status",
			args:    []string{"status"},
			want:    Tuple(),
		},
		{
			name:    "single value is not wrapped",
			pattern: "show <id>",
			args:    []string{"show", "7"},
			want:    Value(1),
		},
		{
			name:    "repeated values",
			pattern: "cat <file>...",
			args:    []string{"cat", "a", "b", "c"},
			want:    Repeated(Value(1), Value(2), Value(3)),
		},
		{
			name:    "counted option",
			options: []optSpec{{forms: "-v"}},
			pattern: "run -v...",
			args:    []string{"-vvv", "run"},
			want:    Count(3),
		},
		{
			name:    "collapsed alternatives",
			pattern: "(add | remove) <name>",
			args:    []string{"remove", "x"},
			want:    Tuple(Index(1), Value(1)),
		},
		{
			name:    "variant with values",
			pattern: "(add <name> | list)",
			args:    []string{"add", "x"},
			want:    Variant(0, ptr(Value(1))),
		},
		{
			name:    "variant without values",
			pattern: "(add <name> | list)",
			args:    []string{"list"},
			want:    Variant(1, nil),
		},
		{
			name:    "nested optionals",
			pattern: "push [<remote> [<branch>]]",
			args:    []string{"push", "origin"},
			want:    Optional(true, ptr(Tuple(Value(1), Optional(false, nil)))),
		},
		{
			name:    "repeated tuples",
			pattern: "set (<key> <value>)...",
			args:    []string{"set", "a", "1", "b", "2"},
			want:    Repeated(Tuple(Value(1), Value(2)), Tuple(Value(3), Value(4))),
		},
		{
			name:    "repeated group without values",
			pattern: "(up | down)... go",
			args:    []string{"up", "up", "down", "go"},
			want:    Count(3),
		},
		{
			name:    "greedy repetition leaves the last value",
			pattern: "mv <src>... <dst>",
			args:    []string{"mv", "a", "b", "dir"},
			want:    Tuple(Repeated(Value(1), Value(2)), Value(3)),
		},
		{
			name:    "optional repetition of values",
			pattern: "run [<arg>...]",
			args:    []string{"run"},
			want:    Optional(false, nil),
		},
		{
			name:    "alternatives with nullable branch",
			options: []optSpec{{forms: "-q"}},
			pattern: "log (-q | [<n>])",
			args:    []string{"log"},
			want:    Variant(1, ptr(Optional(false, nil))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := buildRegistry(t, regSpec{options: tt.options, patterns: []patSpec{{text: tt.pattern}}})
			res := match(t, reg, tt.args...)
			if res.Kind != ResultMatched {
				t.Fatalf("no match: %s %v", res.Kind, res.Err)
			}
			got := Bind(reg, res.Pattern, res.Positions, res.Choices)
			if !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBindPanicsOnBadTrace(t *testing.T) {
	reg := buildRegistry(t, regSpec{patterns: []patSpec{{text: "get [<a>] <b>"}}})
	NewMatcher(reg)

	cases := []struct {
		name      string
		positions []int32
		choices   []int32
	}{
		{"missing choice", []int32{0}, nil},
		{"bad choice", []int32{0, 1}, []int32{2}},
		{"missing position", nil, []int32{0}},
		{"trailing choice", []int32{1}, []int32{0, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			Bind(reg, 0, c.positions, c.choices)
		})
	}
}

func TestDescriptorString(t *testing.T) {
	d := Tuple(Value(0), Optional(true, ptr(Repeated(Value(1), Value(2)))), Variant(1, nil), Flag(true), Count(2), Index(3))
	want := "Tuple[Value(0), Optional(true, Repeated[Value(1), Value(2)]), Variant(1), Flag(true), Count(2), Index(3)]"
	if d.String() != want {
		t.Fatalf("got %s\nwant %s", d, want)
	}
	if got := d.Values(); len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("Values() = %v", got)
	}
	if d.Equal(Tuple(Value(0))) {
		t.Fatalf("different tuples compare equal")
	}
	if Optional(true, ptr(Value(1))).Equal(Optional(true, nil)) {
		t.Fatalf("sub descriptors ignored by Equal")
	}
}
