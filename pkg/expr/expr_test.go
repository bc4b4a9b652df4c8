package expr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	reads []string
}

func (r *recordingTracker) Observe(_ Object, key string) {
	r.reads = append(r.reads, key)
}

func TestParseAndEvaluate(t *testing.T) {
	ctx := MapObject{
		"name":  "arbor",
		"count": 3.0,
		"flag":  true,
		"user":  map[string]any{"first": "Ada"},
		"items": []any{"x", "y", "z"},
	}
	scope := NewScope(ctx)

	tests := []struct {
		input string
		want  any
	}{
		{"name", "arbor"},
		{"count + 2", 5.0},
		{"count * 2 - 1", 5.0},
		{"(count + 1) * 2", 8.0},
		{"count % 2", 1.0},
		{"'hi ' + name", "hi arbor"},
		{"name + count", "arbor3"},
		{"user.first", "Ada"},
		{"items[1]", "y"},
		{"items[count - 1]", "z"},
		{"items[9]", nil},
		{"missing.deep", nil},
		{"!flag", false},
		{"-count", -3.0},
		{"count > 2 && flag", true},
		{"count < 2 || name", "arbor"},
		{"count == 3", true},
		{"count === 3", true},
		{"name != 'arbor'", false},
		{"flag ? 'yes' : 'no'", "yes"},
		{"count > 5 ? 'big' : count > 2 ? 'mid' : 'small'", "mid"},
		{"null", nil},
		{"'a' < 'b'", true},
		{"\"quoted \\\" string\"", "quoted \" string"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			require.NoError(t, err)
			got, err := e.Evaluate(scope, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{"", "a +", "(a", "a ? b", "'open", "a.", "a #", "a b"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			var syn *SyntaxError
			assert.True(t, errors.As(err, &syn), "expected SyntaxError, got %T", err)
		})
	}
}

func TestParentScope(t *testing.T) {
	outer := MapObject{"title": "outer", "shared": "from-outer"}
	inner := MapObject{"title": "inner"}
	scope := NewScope(outer).Child(inner)

	tests := []struct {
		input string
		want  any
	}{
		{"title", "inner"},
		{"shared", "from-outer"},
		{"$parent.title", "outer"},
		{"$this.title", "inner"},
	}
	for _, tt := range tests {
		got, err := MustParse(tt.input).Evaluate(scope, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.input)
	}

	parent, err := MustParse("$parent").Evaluate(scope, nil)
	require.NoError(t, err)
	assert.Equal(t, outer, parent)

	grand, err := MustParse("$parent.$parent").Evaluate(scope, nil)
	require.NoError(t, err)
	assert.Nil(t, grand)
}

func TestAssign(t *testing.T) {
	type profile struct {
		Age int
	}
	p := &profile{}
	ctx := MapObject{"user": map[string]any{}, "list": []any{1.0, 2.0}, "profile": p}
	scope := NewScope(ctx)

	assign := func(input string, v any) error {
		a, ok := MustParse(input).(Assignable)
		require.True(t, ok, "%s should be assignable", input)
		return a.Assign(scope, v)
	}

	require.NoError(t, assign("value", "v"))
	assert.Equal(t, "v", ctx["value"])

	require.NoError(t, assign("user.name", "Ada"))
	assert.Equal(t, "Ada", ctx["user"].(map[string]any)["name"])

	require.NoError(t, assign("list[1]", 5.0))
	assert.Equal(t, 5.0, ctx["list"].([]any)[1])

	require.NoError(t, assign("profile.Age", 42.0))
	assert.Equal(t, 42, p.Age)

	err := assign("missing.name", "x")
	assert.ErrorIs(t, err, ErrNotAssignable)

	_, ok := MustParse("a + b").(Assignable)
	assert.False(t, ok)
}

func TestTrackedReads(t *testing.T) {
	ctx := MapObject{"a": false, "b": 1.0, "c": 2.0}
	tr := &recordingTracker{}

	_, err := MustParse("a && b").Evaluate(NewScope(ctx), tr)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tr.reads, "right side of && must not be read when left is falsy")

	tr.reads = nil
	_, err = MustParse("a ? b : c").Evaluate(NewScope(ctx), tr)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, tr.reads)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(1, 1.0))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, 0.0))
	assert.True(t, Equal([]any{"a"}, []any{"a"}))
	assert.False(t, Equal("1", 1.0))

	type tagged struct {
		Name string
		Data any
	}
	assert.NotPanics(t, func() {
		assert.True(t, Equal(tagged{"a", []int{1}}, tagged{"a", []int{1}}))
		assert.False(t, Equal(tagged{"a", map[string]int{"x": 1}}, tagged{"a", map[string]int{"x": 2}}))
		assert.True(t, Equal([1]any{[]string{"x"}}, [1]any{[]string{"x"}}))
	})

	nan := math.NaN()
	assert.False(t, Equal(nan, nan), "NaN is never == NaN")
	assert.True(t, Same(nan, nan))
	assert.False(t, Same(nan, 1.0))
	assert.True(t, Same(1, 1.0))
}

func TestString(t *testing.T) {
	assert.Equal(t, "(a + b.c)", MustParse("a+b.c").String())
	assert.Equal(t, "$parent.x", MustParse("$parent.x").String())
	assert.Equal(t, `(x ? "y" : null)`, MustParse("x ? 'y' : null").String())
}
