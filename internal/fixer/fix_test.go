package fixer

import (
	"errors"
	"testing"

	tt "github.com/gnolang/tclean/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(start, end int) tt.Range { return tt.Range{Start: start, End: end} }

func TestConflict(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b Operation
		want bool
	}{
		{"disjoint", Delete(rng(0, 3), ""), Delete(rng(5, 8), ""), false},
		{"touching", Delete(rng(0, 3), ""), Delete(rng(3, 8), ""), false},
		{"overlapping", Delete(rng(0, 4), ""), Delete(rng(3, 8), ""), true},
		{"nested", Delete(rng(0, 10), ""), Replace(rng(3, 4), "x", ""), true},
		{"insert at start", Insert(0, "x", ""), Delete(rng(0, 3), ""), false},
		{"insert at end", Insert(3, "x", ""), Delete(rng(0, 3), ""), false},
		{"insert inside", Insert(2, "x", ""), Delete(rng(0, 3), ""), true},
		{"two inserts same offset", Insert(2, "x", ""), Insert(2, "y", ""), true},
		{"two inserts apart", Insert(2, "x", ""), Insert(3, "y", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Conflict(tt.a, tt.b))
			assert.Equal(t, tt.want, Conflict(tt.b, tt.a))
		})
	}
}

func TestComposeEmpty(t *testing.T) {
	t.Parallel()
	fix, err := Compose("a.go", nil)
	require.NoError(t, err)
	assert.Nil(t, fix)

	fix, err = Compose("a.go", []RuleOperations{{Rule: "r", Step: "s"}})
	require.NoError(t, err)
	assert.Nil(t, fix)
}

func TestComposeOrderAndSteps(t *testing.T) {
	t.Parallel()
	fix, err := Compose("a.go", []RuleOperations{
		{Rule: "first", Step: "step one", Operations: []Operation{Delete(rng(10, 12), "g1"), Delete(rng(0, 2), "g1")}},
		{Rule: "idle", Step: "never shown"},
		{Rule: "second", Step: "step two", Operations: []Operation{Insert(5, "x", "g2")}},
	})
	require.NoError(t, err)
	require.NotNil(t, fix)

	assert.Equal(t, []string{"step one", "step two"}, fix.Steps)
	require.Len(t, fix.Operations, 3)
	assert.Equal(t, rng(10, 12), fix.Operations[0].Range)
	assert.Equal(t, "first", fix.Operations[0].Rule)
	assert.Equal(t, rng(0, 2), fix.Operations[1].Range)
	assert.Equal(t, "second", fix.Operations[2].Rule)
}

func TestComposeDeduplicates(t *testing.T) {
	t.Parallel()
	op := Replace(rng(4, 6), "[]", "g")
	fix, err := Compose("a.go", []RuleOperations{
		{Rule: "a", Step: "a", Operations: []Operation{op, op}},
		{Rule: "b", Step: "b", Operations: []Operation{op}},
	})
	require.NoError(t, err)
	require.NotNil(t, fix)
	assert.Len(t, fix.Operations, 1)
	assert.Equal(t, "a", fix.Operations[0].Rule)
}

func TestComposeOverlap(t *testing.T) {
	t.Parallel()
	_, err := Compose("a.go", []RuleOperations{
		{Rule: "a", Step: "a", Operations: []Operation{Replace(rng(0, 5), "x", "")}},
		{Rule: "b", Step: "b", Operations: []Operation{Replace(rng(4, 6), "y", "")}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrComposition))

	var ce *CompositionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a", ce.First.Rule)
	assert.Equal(t, "b", ce.Second.Rule)
	assert.Equal(t, "a.go", ce.Unit)
	assert.Equal(t, "[0,5) (rule a) overlaps [4,6) (rule b)", err.Error())
}

func TestFixApply(t *testing.T) {
	t.Parallel()
	src := []byte("a := []T{T{1}, T{2}}")
	fix, err := Compose("a.go", []RuleOperations{{
		Rule: "simplify",
		Step: "simplify",
		Operations: []Operation{
			Delete(rng(9, 10), "elide"),
			Delete(rng(15, 16), "elide"),
		},
	}})
	require.NoError(t, err)

	out, err := fix.Apply(src)
	require.NoError(t, err)
	assert.Equal(t, "a := []T{{1}, {2}}", string(out))

	assert.Equal(t, []Edit{
		{Range: rng(9, 10), NewText: "", Label: "elide"},
		{Range: rng(15, 16), NewText: "", Label: "elide"},
	}, fix.Edits())
}

func TestBuffer(t *testing.T) {
	t.Parallel()
	b := NewBuffer([]byte("hello world"))
	b.Add(Replace(rng(6, 11), "gopher", ""))
	b.Add(Insert(0, ">> ", ""))
	b.Add(Delete(rng(5, 6), ""))
	out, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, ">> hellogopher", string(out))

	b = NewBuffer([]byte("abc"))
	b.Add(Insert(1, "x", ""))
	b.Add(Replace(rng(1, 2), "B", ""))
	out, err = b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "axBc", string(out))

	b = NewBuffer([]byte("abc"))
	b.Add(Delete(rng(2, 9), ""))
	_, err = b.Bytes()
	assert.Error(t, err)

	b = NewBuffer([]byte("abcdef"))
	b.Add(Delete(rng(0, 4), ""))
	b.Add(Delete(rng(2, 5), ""))
	_, err = b.Bytes()
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	t.Parallel()
	out, err := Format("a.go", []byte("package a\nfunc f( ) {\nreturn\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, "package a\n\nfunc f() {\n\treturn\n}\n", string(out))

	_, err = Format("a.go", []byte("package a\nfunc {"))
	assert.Error(t, err)
}
