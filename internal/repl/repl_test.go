package repl

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacit-lang/tacit/internal/compiler"
	"github.com/tacit-lang/tacit/internal/logio"
	"github.com/tacit-lang/tacit/internal/memory"
	"github.com/tacit-lang/tacit/internal/vm"
)

func newHost(t *testing.T) (*Host, *strings.Builder) {
	t.Helper()
	v := vm.New(memory.DefaultLayout, nil)
	c := compiler.New(v)
	require.NoError(t, compiler.Bootstrap(c))
	var out strings.Builder
	log := &logio.Logger{}
	log.SetOutput(nopCloser{io.Discard})
	return New(v, c, &out, log, nil), &out
}

func TestHostRunsCommandsLineByLine(t *testing.T) {
	h, out := newHost(t)
	require.NoError(t, h.RunFile("test", strings.NewReader(": square dup mul ;\n3 square .\n")))
	require.Equal(t, "9\n", out.String())
}

func TestHostRecoversAfterError(t *testing.T) {
	h, out := newHost(t)
	require.NoError(t, h.RunFile("test", strings.NewReader("drop\n3 4 + .\n")))
	require.Equal(t, "7\n", out.String())
}

func TestHostAbortsHalfOpenDefinition(t *testing.T) {
	h, out := newHost(t)
	require.NoError(t, h.RunFile("test", strings.NewReader(
		": broken undefinedword ;\n3 4 + .\n")))
	require.Equal(t, "7\n", out.String())
	require.False(t, h.Compiler.Defining())
}

type stubInclude struct{ files map[string]string }

func (s stubInclude) ResolveInclude(path, _ string) (string, io.Reader, error) {
	src, ok := s.files[path]
	if !ok {
		return "", nil, io.ErrUnexpectedEOF
	}
	return path, strings.NewReader(src), nil
}

func TestHostInclude(t *testing.T) {
	h, out := newHost(t)
	h.Include = stubInclude{files: map[string]string{"lib.tacit": "5 5 + .\n"}}
	require.NoError(t, h.RunFile("test", strings.NewReader(`include "lib.tacit"`+"\n")))
	require.Equal(t, "10\n", out.String())
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
