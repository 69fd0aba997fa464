package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/compiler"
	"github.com/tacit-lang/tacit/internal/memory"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

// newTestCompiler builds a fresh VM + Compiler pair with the builtin
// dictionary seeded, the shape every real entry point (internal/repl,
// cmd/tacit) sets up before handing source to Parse.
func newTestCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	v := vm.New(memory.DefaultLayout, nil)
	c := compiler.New(v)
	require.NoError(t, compiler.Bootstrap(c))
	return c
}

func topNumber(t *testing.T, c *compiler.Compiler) float32 {
	t.Helper()
	top, err := c.VM.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.Equal(t, value.Number, d.Tag)
	return d.Number
}

func TestLiteralsRunImmediately(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, "3 4 +"))
	require.Equal(t, float32(7), topNumber(t, c))
}

func TestWordDefinitionAndCall(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, ": sq dup * ; 3 sq"))
	require.Equal(t, float32(9), topNumber(t, c))
}

func TestIfElse(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, ": abs dup 0 < if -1 * else ; ; -5 abs"))
	require.Equal(t, float32(5), topNumber(t, c))
}

func TestIfElseFalseBranch(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, ": abs dup 0 < if -1 * else ; ; 5 abs"))
	require.Equal(t, float32(5), topNumber(t, c))
}

func TestGlobalDeclarationAndFetch(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, "10 global limit limit 1 +"))
	require.Equal(t, float32(11), topNumber(t, c))
}

func TestLocalVarAndArrowStore(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, ": bump 0 var n 1 -> n n ; bump"))
	require.Equal(t, float32(1), topNumber(t, c))
}

func TestAugmentedStoreOnGlobal(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, "0 global total 5 +> total 3 +> total total"))
	require.Equal(t, float32(8), topNumber(t, c))
}

func TestBlockIsDeferred(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, "{ 1 2 + }"))
	top, err := c.VM.Peek()
	require.NoError(t, err)
	require.Equal(t, value.Code, value.Decode(top).Tag)
}

func TestListLiteral(t *testing.T) {
	c := newTestCompiler(t)
	require.NoError(t, Parse(c, "( 1 2 3 ) length"))
	require.Equal(t, float32(3), topNumber(t, c))
}

// TestCapsuleCounter reproduces the canonical make-counter scenario: a
// capsule constructed with one migrated instance var, dispatched three
// times across "inc"/"inc"/"get".
func TestCapsuleCounter(t *testing.T) {
	c := newTestCompiler(t)
	err := Parse(c, `
		: make-counter
			0 var count
			capsule case
				"inc" of 1 +> count ;
				"get" of count ;
			;
		make-counter global c
		"inc" &c dispatch
		"inc" &c dispatch
		"get" &c dispatch
	`)
	require.NoError(t, err)
	require.Equal(t, float32(2), topNumber(t, c))
}

func TestUndefinedWordErrors(t *testing.T) {
	c := newTestCompiler(t)
	err := Parse(c, "nope")
	require.ErrorAs(t, err, &vm.UndefinedWordError{})
}
