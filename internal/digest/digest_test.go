package digest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/digest"
)

func TestInterningSharesAddress(t *testing.T) {
	var d digest.Digest
	a1, err := d.Add("hello")
	require.NoError(t, err)
	a2, err := d.Add("hello")
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	a3, err := d.Add("world")
	require.NoError(t, err)
	assert.NotEqual(t, a1, a3)

	s, err := d.Get(a1)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, len("hello"), d.Length(a1))
}

func TestLookupMiss(t *testing.T) {
	var d digest.Digest
	_, ok := d.Lookup("nope")
	assert.False(t, ok)
}
