package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/value"
)

func pushNumber(t *testing.T, v *VM, f float32) {
	t.Helper()
	enc, err := value.EncodeNumber(f)
	require.NoError(t, err)
	require.NoError(t, v.Push(enc))
}

func TestAddScalars(t *testing.T) {
	v := newTestVM(t)
	pushNumber(t, v, 3)
	pushNumber(t, v, 4)
	require.NoError(t, v.binaryBroadcastOp("add", addFn)(v))
	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(7), top)
}

func TestAddScalarBroadcastsOverList(t *testing.T) {
	v := newTestVM(t)
	// push list (1 2 3)
	require.NoError(t, v.opOpenList(v))
	pushNumber(t, v, 1)
	pushNumber(t, v, 2)
	pushNumber(t, v, 3)
	require.NoError(t, v.opCloseList(v))
	pushNumber(t, v, 10)

	require.NoError(t, v.binaryBroadcastOp("add", addFn)(v))

	top, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.Equal(t, value.List, d.Tag)
	require.EqualValues(t, 3, d.Payload)
}

func TestNegUnary(t *testing.T) {
	v := newTestVM(t)
	pushNumber(t, v, 5)
	require.NoError(t, v.unaryBroadcastOp(negFn)(v))
	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(-5), top)
}
