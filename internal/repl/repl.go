// Package repl drives a VM/Compiler pair through a stream of top-level
// commands read from a file or interactive input, the external "REPL and
// CLI entry points" collaborator spec.md section 1 carves out of the core
// (§6.3/§6.4). It is the direct analogue of gothird's own `main.go` run
// loop plus its `io.go` line tracking, generalized from FIRST/THIRD's
// single rune-stream input to Tacit's named-region VM.
package repl

import (
	"io"
	"strconv"
	"strings"

	"github.com/tacit-lang/tacit/internal/compiler"
	"github.com/tacit-lang/tacit/internal/fileinput"
	"github.com/tacit-lang/tacit/internal/flushio"
	"github.com/tacit-lang/tacit/internal/logio"
	"github.com/tacit-lang/tacit/internal/panicerr"
	"github.com/tacit-lang/tacit/internal/parser"
	"github.com/tacit-lang/tacit/internal/printer"
	"github.com/tacit-lang/tacit/internal/vm"
)

// IncludeHost resolves a source-relative include path to its canonical
// name and contents (spec.md section 6.3): "resolve_include(path, from)
// returning {canonical_path, source}".
type IncludeHost interface {
	ResolveInclude(path, from string) (canonical string, source io.Reader, err error)
}

// Host runs top-level commands one at a time against a shared VM and
// Compiler, isolating each one in its own goroutine via
// internal/panicerr.Recover the way gothird's isolate() isolates a whole
// run -- except here one failing command never takes the rest of the
// stream down with it (spec.md section 7's recovery policy).
type Host struct {
	VM       *vm.VM
	Compiler *compiler.Compiler
	Printer  *printer.Printer
	Include  IncludeHost
	Log      *logio.Logger

	out flushio.WriteFlusher
}

// New wires a Host around v/c, writing `.`/`raw` output to out and
// reporting recovered errors through log. include may be nil, in which
// case an `include` line fails with a SyntaxError.
func New(v *vm.VM, c *compiler.Compiler, out io.Writer, log *logio.Logger, include IncludeHost) *Host {
	h := &Host{VM: v, Compiler: c, Include: include, Log: log, out: flushio.NewWriteFlusher(out)}
	h.Printer = printer.New(v, h.writeLine)
	return h
}

func (h *Host) writeLine(s string) error {
	if _, err := io.WriteString(h.out, s+"\n"); err != nil {
		return err
	}
	return h.out.Flush()
}

// RunFile processes r (named name) as a sequence of top-level commands.
// Each command is compiled and executed immediately; a runtime or compile
// error aborts only that command, is reported through Log, and resets the
// VM and Compiler to resume with the next one.
func (h *Host) RunFile(name string, r io.Reader) error {
	return h.run(name, r)
}

func (h *Host) run(name string, r io.Reader) error {
	in := &fileinput.Input{Queue: []io.Reader{namedReader{r, name}}}
	for {
		text, loc, err := readLine(in)
		if err != nil && err != io.EOF {
			return err
		}
		if strings.TrimSpace(text) != "" {
			h.runLine(loc, text)
		}
		if err == io.EOF {
			return nil
		}
	}
}

func (h *Host) runLine(loc fileinput.Location, text string) {
	if path, ok := parseInclude(text); ok {
		h.include(loc, path)
		return
	}
	h.exec(loc, text)
}

func (h *Host) include(loc fileinput.Location, path string) {
	if h.Include == nil {
		h.reportError(loc, vm.SyntaxError{Message: "include: no include host configured"})
		return
	}
	canonical, src, err := h.Include.ResolveInclude(path, loc.Name)
	if err != nil {
		h.reportError(loc, err)
		return
	}
	if rc, ok := src.(io.Closer); ok {
		defer rc.Close()
	}
	if err := h.run(canonical, src); err != nil {
		h.reportError(loc, err)
	}
}

// exec compiles and runs one top-level command, isolated in its own
// goroutine (internal/panicerr.Recover) so a Halt or runtime panic inside
// internal/vm never escapes past this call. On success it syncs BCP so
// the next command's recovery point moves forward; on failure it aborts
// back to the last sync point (spec.md section 7).
func (h *Host) exec(loc fileinput.Location, text string) {
	err := panicerr.Recover("repl", func() error {
		pp := parser.New(h.Compiler, text)
		pp.SetPrintHook(func(raw bool) error {
			if raw {
				return h.Printer.Raw()
			}
			return h.Printer.Dot()
		})
		return pp.Run()
	})
	if err == nil {
		h.Compiler.SyncBCP()
		return
	}
	h.Compiler.Abort()
	h.VM.Reset()
	h.reportError(loc, err)
}

func (h *Host) reportError(loc fileinput.Location, err error) {
	if h.Log != nil {
		h.Log.Errorf("%s %s", loc, err)
	}
}

// readLine accumulates runes from in up to (and not including) the next
// line feed, reporting the completed line's Location the way gothird's
// ioCore rolls scanLine into lastLine on '\n'.
func readLine(in *fileinput.Input) (text string, loc fileinput.Location, rerr error) {
	var b strings.Builder
	for {
		r, _, err := in.ReadRune()
		if r == '\n' {
			return b.String(), in.Last.Location, nil
		}
		if err != nil {
			return b.String(), in.Last.Location, err
		}
		b.WriteRune(r)
	}
}

// parseInclude recognizes a line of the form `include "path"` -- the only
// REPL-level directive that is not itself a Tacit word, since resolving it
// means substituting another source file before anything is parsed at all
// (spec.md section 6.3 keeps include resolution out of the core entirely).
func parseInclude(line string) (path string, ok bool) {
	t := strings.TrimSpace(line)
	rest := strings.TrimPrefix(t, "include")
	if rest == t {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false
	}
	unquoted, err := strconv.Unquote(rest)
	if err != nil {
		return "", false
	}
	return unquoted, true
}

type namedReader struct {
	io.Reader
	name string
}

func (n namedReader) Name() string { return n.name }
