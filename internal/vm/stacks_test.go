package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/memory"
	"github.com/tacit-lang/tacit/internal/value"
)

func newTestVM(t *testing.T) *VM {
	t.Helper()
	return New(memory.DefaultLayout, nil)
}

func TestPushPopRoundTrip(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.Push(42))
	got, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(42), got)
}

func TestPopUnderflow(t *testing.T) {
	v := newTestVM(t)
	_, err := v.Pop()
	require.ErrorAs(t, err, &StackUnderflowError{})
}

func TestPushOverflow(t *testing.T) {
	layout := memory.DefaultLayout
	layout.StackCells = 2
	v := New(layout, nil)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	err := v.Push(3)
	require.ErrorAs(t, err, &StackOverflowError{})
}

func TestPeekAtAndSetAt(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	require.NoError(t, v.Push(3))

	top, err := v.Peek()
	require.NoError(t, err)
	require.Equal(t, float32(3), top)

	second, err := v.PeekAt(1)
	require.NoError(t, err)
	require.Equal(t, float32(2), second)

	require.NoError(t, v.SetAt(1, 99))
	second, err = v.PeekAt(1)
	require.NoError(t, err)
	require.Equal(t, float32(99), second)
}

func TestReturnStackRoundTrip(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.RPush(7))
	got, err := v.RPop()
	require.NoError(t, err)
	require.Equal(t, float32(7), got)

	_, err = v.RPop()
	require.ErrorAs(t, err, &StackUnderflowError{})
}

func TestStackData(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	data, err := v.StackData()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, data)
}

func TestStackDataIncludesTaggedValues(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.Push(value.NilValue))
	data, err := v.StackData()
	require.NoError(t, err)
	require.Len(t, data, 1)
	require.True(t, value.IsNil(data[0]))
}
