package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/value"
)

// pushPair builds a [key value] 2-element list.
func pushPair(t *testing.T, v *VM, key, val float32) {
	t.Helper()
	require.NoError(t, v.opOpenList(v))
	pushNumber(t, v, key)
	pushNumber(t, v, val)
	require.NoError(t, v.opCloseList(v))
}

// pushMaplist builds a maplist from (key,value) pairs.
func pushMaplist(t *testing.T, v *VM, pairs ...[2]float32) {
	t.Helper()
	require.NoError(t, v.opOpenList(v))
	for _, p := range pairs {
		pushPair(t, v, p[0], p[1])
	}
	require.NoError(t, v.opCloseList(v))
}

func TestFindHit(t *testing.T) {
	v := newTestVM(t)
	pushMaplist(t, v, [2]float32{1, 100}, [2]float32{2, 200})
	pushNumber(t, v, 2)
	require.NoError(t, v.opFind(v))

	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(200), top)
}

func TestFindMiss(t *testing.T) {
	v := newTestVM(t)
	pushMaplist(t, v, [2]float32{1, 100})
	pushNumber(t, v, 99)
	require.NoError(t, v.opFind(v))

	top, err := v.Pop()
	require.NoError(t, err)
	require.True(t, value.IsDefault(top))
}

func TestKeysAndValues(t *testing.T) {
	v := newTestVM(t)
	pushMaplist(t, v, [2]float32{1, 100}, [2]float32{2, 200})
	require.NoError(t, v.opKeys(v))

	require.NoError(t, v.opUnpack(v))
	data, err := v.StackData()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, data)

	v.Reset()
	pushMaplist(t, v, [2]float32{1, 100}, [2]float32{2, 200})
	require.NoError(t, v.opValues(v))
	require.NoError(t, v.opUnpack(v))
	data, err = v.StackData()
	require.NoError(t, err)
	require.Equal(t, []float32{100, 200}, data)
}
