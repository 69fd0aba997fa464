package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/value"
)

func TestSlotAndFetchLocal(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.EnterFrame(0))
	require.NoError(t, v.Reserve(1))
	require.NoError(t, v.Mem.WriteCell(v.LocalAddr(0), 42))

	pushNumber(t, v, 0)
	require.NoError(t, v.opSlot(v))
	require.NoError(t, v.opFetch(v))

	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(42), top)
}

func TestStoreThroughLocalRef(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.EnterFrame(0))
	require.NoError(t, v.Reserve(1))
	require.NoError(t, v.Mem.WriteCell(v.LocalAddr(0), 1))

	pushNumber(t, v, 99)
	pushNumber(t, v, 0)
	require.NoError(t, v.opSlot(v))
	require.NoError(t, v.opStore(v))

	got, err := v.Mem.ReadCell(v.LocalAddr(0))
	require.NoError(t, err)
	require.Equal(t, float32(99), got)
}

func TestStoreShapeMismatch(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.EnterFrame(0))
	require.NoError(t, v.Reserve(1))
	require.NoError(t, v.Mem.WriteCell(v.LocalAddr(0), 1))

	pushList(t, v, 1, 2)
	pushNumber(t, v, 0)
	require.NoError(t, v.opSlot(v))
	err := v.opStore(v)
	require.ErrorAs(t, err, &AssignmentShapeError{})
}

func TestElemOnList(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 10, 20, 30)
	pushNumber(t, v, 1)
	require.NoError(t, v.opElem(v))
	require.NoError(t, v.opFetch(v))

	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(20), top)
}

func TestSelectPath(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.opOpenList(v))
	pushList(t, v, 1, 2)
	pushList(t, v, 3, 4)
	require.NoError(t, v.opCloseList(v)) // ((1 2) (3 4))

	pushList(t, v, 1, 1) // path [1 1]: second element, second element -> 4

	require.NoError(t, v.opSelect(v))
	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(4), top)
}

func TestSelectMissReturnsNil(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2)
	pushList(t, v, 9)

	require.NoError(t, v.opSelect(v))
	top, err := v.Pop()
	require.NoError(t, err)
	require.True(t, value.IsNil(top))
}
