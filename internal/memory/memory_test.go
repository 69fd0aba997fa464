package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/memory"
)

func TestCellRoundTrip(t *testing.T) {
	m := memory.New(memory.DefaultLayout)
	require.NoError(t, m.WriteCell(m.StackBase(), 3.5))
	v, err := m.ReadCell(m.StackBase())
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), v)
}

func TestRegionBasesAreOrdered(t *testing.T) {
	m := memory.New(memory.DefaultLayout)
	assert.Less(t, m.StackBase(), m.RStackBase())
	assert.Less(t, m.RStackBase(), m.DataBase())
	assert.Equal(t, m.StackBase()+memory.DefaultLayout.StackCells, m.RStackBase())
}

func TestOutOfBoundsIsFault(t *testing.T) {
	m := memory.New(memory.DefaultLayout)
	_, err := m.ReadCell(-1)
	assert.Error(t, err)
	_, err = m.ReadCell(m.DataEnd() + 1000)
	assert.Error(t, err)
	var fault memory.Fault
	require.ErrorAs(t, err, &fault)
}

func TestByteAndWordAccess(t *testing.T) {
	m := memory.New(memory.DefaultLayout)
	require.NoError(t, m.Write8(5, 0xAB))
	b, err := m.Read8(5)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), b)

	require.NoError(t, m.Write16(10, 0x1234))
	w, err := m.Read16(10)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), w)
}
