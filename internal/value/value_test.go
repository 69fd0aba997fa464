package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/value"
)

func TestRoundTrip(t *testing.T) {
	tags := []value.Tag{
		value.Sentinel, value.Code, value.String, value.Local,
		value.Builtin, value.List, value.StackRef, value.RStackRef,
		value.GlobalRef, value.DataRef,
	}
	for _, tag := range tags {
		tag := tag
		t.Run(tag.String(), func(t *testing.T) {
			payloads := []int32{0, 1, 65535}
			if tag == value.Sentinel {
				payloads = []int32{-32768, -1, 0, 1, 32767}
			}
			for _, p := range payloads {
				for _, m := range []uint8{0, 1} {
					v, err := value.Encode(tag, p, m)
					require.NoError(t, err)
					d := value.Decode(v)
					assert.Equal(t, tag, d.Tag)
					assert.Equal(t, p, d.Payload)
					assert.Equal(t, m, d.Meta)
				}
			}
		})
	}
}

func TestNumberIdentity(t *testing.T) {
	for _, f := range []float32{0, -0, 1, -1, 3.14, 1e30, float32(math.Inf(1)), float32(math.Inf(-1))} {
		v, err := value.EncodeNumber(f)
		require.NoError(t, err)
		assert.Equal(t, f, v)
		d := value.Decode(v)
		assert.Equal(t, value.Number, d.Tag)
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	_, err := value.Encode(value.List, -1, 0)
	assert.Error(t, err)
	_, err = value.Encode(value.List, 65536, 0)
	assert.Error(t, err)
	_, err = value.Encode(value.Sentinel, 32768, 0)
	assert.Error(t, err)
	_, err = value.Encode(value.Sentinel, -32769, 0)
	assert.Error(t, err)
}

func TestEncodeNumberRejectsNaN(t *testing.T) {
	_, err := value.EncodeNumber(float32(math.NaN()))
	assert.Error(t, err)
}

func TestNilAndDefault(t *testing.T) {
	assert.True(t, value.IsNil(value.NilValue))
	assert.False(t, value.IsDefault(value.NilValue))
	assert.True(t, value.IsDefault(value.DefaultValue))
	assert.False(t, value.IsNil(value.DefaultValue))
}

func TestTruthy(t *testing.T) {
	assert.False(t, value.Truthy(0))
	assert.True(t, value.Truthy(1))
	assert.True(t, value.Truthy(-1))
	assert.False(t, value.Truthy(value.NilValue))
	v, _ := value.Encode(value.List, 0, 0)
	assert.False(t, value.Truthy(v))
}
