package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/value"
)

// pushList builds (n1 n2 ... nk) on the data stack using open_list/close_list.
func pushList(t *testing.T, v *VM, nums ...float32) {
	t.Helper()
	require.NoError(t, v.opOpenList(v))
	for _, n := range nums {
		pushNumber(t, v, n)
	}
	require.NoError(t, v.opCloseList(v))
}

func TestListConstructionLayout(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2, 3)

	top, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.Equal(t, value.List, d.Tag)
	require.EqualValues(t, 3, d.Payload)

	data, err := v.StackData()
	require.NoError(t, err)
	require.Len(t, data, 4)
	// physical payload (low to high) is the reverse of construction order.
	require.Equal(t, float32(3), data[0])
	require.Equal(t, float32(2), data[1])
	require.Equal(t, float32(1), data[2])
}

func TestHeadOfConstructedList(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2, 3)
	require.NoError(t, v.opHead(v))
	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(1), top, "head is the first element in construction order")
}

func TestTailOfConstructedList(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2, 3)
	require.NoError(t, v.opTail(v))

	top, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.Equal(t, value.List, d.Tag)
	require.EqualValues(t, 2, d.Payload)

	require.NoError(t, v.opHead(v))
	head, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(2), head)
}

func TestUnconsConsRoundTrip(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2, 3)
	require.NoError(t, v.opUncons(v)) // -- tail head
	head, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(1), head)

	require.NoError(t, v.Push(head))
	require.NoError(t, v.opCons(v)) // tail head -- list'

	require.NoError(t, v.opHead(v))
	h2, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(1), h2)
}

func TestReverseIsInvolution(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2, 3)
	require.NoError(t, v.opReverse(v))

	require.NoError(t, v.opHead(v))
	head, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(3), head, "reverse flips logical order: head becomes 3")
}

func TestReverseTwiceRestoresOriginal(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2, 3)
	before, err := v.StackData()
	require.NoError(t, err)

	require.NoError(t, v.opReverse(v))
	require.NoError(t, v.opReverse(v))

	after, err := v.StackData()
	require.NoError(t, err)
	// compare bit patterns: the NaN-boxed header never compares equal as a float.
	require.Len(t, after, len(before))
	for i := range before {
		require.Equal(t, math.Float32bits(before[i]), math.Float32bits(after[i]))
	}
}

func TestPackUnpack(t *testing.T) {
	v := newTestVM(t)
	pushNumber(t, v, 1)
	pushNumber(t, v, 2)
	pushNumber(t, v, 3)
	pushNumber(t, v, 3) // count

	require.NoError(t, v.opPack(v))
	top, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.Equal(t, value.List, d.Tag)
	require.EqualValues(t, 3, d.Payload)

	require.NoError(t, v.opUnpack(v))
	data, err := v.StackData()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, data)
}

func TestConcat(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2)
	pushList(t, v, 3, 4)
	require.NoError(t, v.opConcat(v))

	require.NoError(t, v.opUnpack(v))
	data, err := v.StackData()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3, 4}, data)
}

func TestEnlist(t *testing.T) {
	v := newTestVM(t)
	pushNumber(t, v, 5)
	require.NoError(t, v.opEnlist(v))
	top, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.Equal(t, value.List, d.Tag)
	require.EqualValues(t, 1, d.Payload)
}

func TestEnlistIsIdempotentOnLists(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2)
	require.NoError(t, v.opEnlist(v))
	top, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.EqualValues(t, 2, d.Payload)
}

func TestDupSwapDropOverOnLists(t *testing.T) {
	v := newTestVM(t)
	pushList(t, v, 1, 2)
	pushNumber(t, v, 9)

	require.NoError(t, v.opSwap(v)) // 9 (1 2) on stack now, list on top
	top, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(top)
	require.Equal(t, value.List, d.Tag)

	require.NoError(t, v.opDrop(v))
	top, err = v.Peek()
	require.NoError(t, err)
	require.Equal(t, float32(9), top)
}

func TestNestedListRoundTrip(t *testing.T) {
	v := newTestVM(t)
	require.NoError(t, v.opOpenList(v))
	pushList(t, v, 1, 2)
	pushNumber(t, v, 3)
	require.NoError(t, v.opCloseList(v))

	require.NoError(t, v.opHead(v))
	inner, err := v.Peek()
	require.NoError(t, err)
	d := value.Decode(inner)
	require.Equal(t, value.List, d.Tag)
	require.EqualValues(t, 2, d.Payload)

	require.NoError(t, v.opHead(v))
	innerHead, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(1), innerHead)
}
