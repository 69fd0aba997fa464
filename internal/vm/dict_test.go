package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDictionaryDefineAndLookup(t *testing.T) {
	v := newTestVM(t)
	_, err := v.Dict.Define("square", 42)
	require.NoError(t, err)

	payload, _, found, err := v.Dict.Lookup("square")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, float32(42), payload)
}

func TestDictionaryLookupMiss(t *testing.T) {
	v := newTestVM(t)
	_, _, found, err := v.Dict.Lookup("nope")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDictionaryShadowing(t *testing.T) {
	v := newTestVM(t)
	_, err := v.Dict.Define("x", 1)
	require.NoError(t, err)
	_, err = v.Dict.Define("x", 2)
	require.NoError(t, err)

	payload, _, found, err := v.Dict.Lookup("x")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, float32(2), payload, "later definitions shadow earlier ones")
}

func TestDictionaryMarkForget(t *testing.T) {
	v := newTestVM(t)
	_, err := v.Dict.Define("keep", 1)
	require.NoError(t, err)
	mark := v.Dict.Mark()

	_, err = v.Dict.Define("temp", 2)
	require.NoError(t, err)
	_, _, found, err := v.Dict.Lookup("temp")
	require.NoError(t, err)
	require.True(t, found)

	v.Dict.Forget(mark)

	_, _, found, err = v.Dict.Lookup("temp")
	require.NoError(t, err)
	require.False(t, found, "forget should roll back definitions made after mark")

	_, _, found, err = v.Dict.Lookup("keep")
	require.NoError(t, err)
	require.True(t, found, "forget must not remove entries from before mark")
}
