package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
)

// emit writes op followed by raw operand bytes at ip, returning the next
// free ip.
func emit(t *testing.T, v *VM, ip int, op bytecode.Op, operand []byte) int {
	t.Helper()
	require.NoError(t, v.Mem.Write8(ip, byte(op)))
	ip++
	for _, b := range operand {
		require.NoError(t, v.Mem.Write8(ip, b))
		ip++
	}
	return ip
}

func f32bytes(f float32) []byte {
	bits := math.Float32bits(f)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}

func TestDispatchCallsBoundMethod(t *testing.T) {
	v := newTestVM(t)

	entry := 0
	entry = emit(t, v, entry, bytecode.LiteralNumber, f32bytes(7))
	entry = emit(t, v, entry, bytecode.Exit, nil)

	codeV := value.MustEncode(value.Code, 0, 0)
	require.Equal(t, 0, int(value.Decode(codeV).Payload))

	greetAddr, err := v.Digest.Add("greet")
	require.NoError(t, err)
	keyV := value.MustEncode(value.String, int32(greetAddr), 0)

	pushPairForDispatchTest(t, v, keyV, codeV)
	capsuleAddr := v.SP - 1
	refV := value.MustEncode(value.StackRef, int32(capsuleAddr), 0)

	require.NoError(t, v.Push(keyV))
	require.NoError(t, v.Push(refV))

	returnIP := 1000
	v.IP = returnIP
	require.NoError(t, v.opDispatch(v))
	require.Equal(t, 0, v.IP, "dispatch must jump into the bound entry point")

	require.NoError(t, v.Run(returnIP))
	top, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(7), top)
}

func TestDispatchUnknownMethod(t *testing.T) {
	v := newTestVM(t)
	greetAddr, err := v.Digest.Add("greet")
	require.NoError(t, err)
	keyV := value.MustEncode(value.String, int32(greetAddr), 0)
	codeV := value.MustEncode(value.Code, 0, 0)

	pushPairForDispatchTest(t, v, keyV, codeV)
	capsuleAddr := v.SP - 1
	refV := value.MustEncode(value.StackRef, int32(capsuleAddr), 0)

	missAddr, err := v.Digest.Add("missing")
	require.NoError(t, err)
	require.NoError(t, v.Push(value.MustEncode(value.String, int32(missAddr), 0)))
	require.NoError(t, v.Push(refV))

	err = v.opDispatch(v)
	require.ErrorAs(t, err, &DispatchError{})
}

func pushPairForDispatchTest(t *testing.T, v *VM, key, val float32) {
	t.Helper()
	require.NoError(t, v.opOpenList(v))
	require.NoError(t, v.opOpenList(v))
	require.NoError(t, v.Push(key))
	require.NoError(t, v.Push(val))
	require.NoError(t, v.opCloseList(v))
	require.NoError(t, v.opCloseList(v))
}
