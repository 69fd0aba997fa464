// Package compiler is Tacit's byte-emitting assembler and the home of the
// compile-time immediate words (spec.md section 4.5.5/4.5.6, section 2 item
// 5). It imports internal/vm rather than the reverse: the VM never knows a
// compiler exists, matching gothird's split between core.go's VM and
// third.go's compile-time machinery, which only ever calls down into the VM.
package compiler

import (
	"math"

	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

// Compiler owns the code pointer and the compile-time state needed to
// assemble one definition at a time: the currently-open control-flow
// frames (if/else/case), and the locals of the definition in progress.
type Compiler struct {
	VM *vm.VM

	// CP is the next free byte offset in CODE. BCP is the code pointer at
	// the start of the current top-level command, restored by the REPL's
	// error-recovery policy (spec.md section 7: "compiler.CP := BCP").
	CP  int
	BCP int

	// RanTo is the code pointer up to which previously-compiled top-level
	// code has already been executed. internal/parser advances it via
	// AdvanceRun after each top-level term; it never moves while a `:`
	// definition is open, and Semi moves it past the definition's code when
	// the definition closes, since a definition's body must only ever run
	// through a proper call, not by falling into it from straight-line
	// top-level execution.
	RanTo int

	control      []controlFrame
	capsule      *capsuleScope
	methodSkipAt int
	blockSkips   []int // open `{ ... }` code-block skip-branch patch offsets

	defining         bool
	defName          string
	defEntry         int // byte offset of the Reserve opcode itself
	reserveOperandAt int // byte offset of the Reserve opcode's u16 operand
	localCount       int
	locals           map[string]int
	dictMark         vm.Mark
}

// New creates a Compiler that emits into v's CODE region starting at 0.
func New(v *vm.VM) *Compiler {
	return &Compiler{VM: v, locals: make(map[string]int)}
}

// SyncBCP snapshots CP as the restart point for the next top-level command,
// called by internal/repl after each command completes cleanly.
func (c *Compiler) SyncBCP() { c.BCP = c.CP }

// Abort discards everything compiled since BCP along with any compile-time
// state left open by the command that failed -- an open `:`/`capsule`/`if`/
// `case`, its locals, and any dictionary entries or heap cells it allocated
// along the way. internal/repl calls this as part of spec.md section 7's
// recovery policy ("compiler.CP := BCP"): the spec's own wording only names
// CP, but a half-compiled definition also leaves dangling compile-time
// frames that must not leak into the next top-level command.
func (c *Compiler) Abort() {
	c.CP = c.BCP
	c.RanTo = c.BCP
	if c.defining {
		c.VM.Dict.Forget(c.dictMark)
	}
	c.defining = false
	c.defName = ""
	c.localCount = 0
	for k := range c.locals {
		delete(c.locals, k)
	}
	c.control = nil
	c.capsule = nil
	c.methodSkipAt = 0
	c.blockSkips = nil
}

// AdvanceRun executes whatever top-level bytecode has been compiled since
// the last call (RanTo..CP), immediately -- Tacit, like a classic Forth
// text interpreter, compiles and runs each top-level form one at a time
// rather than buffering a whole line before running any of it; `global`'s
// initializer pop (vars.go) depends on the preceding literal having already
// executed by the time `global` itself is processed. A no-op while a `:`
// definition (or a capsule method table) is open, since that code must only
// ever be entered through a call, never by falling into it here.
func (c *Compiler) AdvanceRun() error {
	if c.defining {
		return nil
	}
	c.VM.IP = c.RanTo
	if err := c.VM.Run(c.CP); err != nil {
		return err
	}
	c.RanTo = c.CP
	return nil
}

// Compile8 emits one byte at CP and advances it.
func (c *Compiler) Compile8(b byte) error {
	if err := c.VM.Mem.Write8(c.CP, b); err != nil {
		return err
	}
	c.CP++
	return nil
}

// Compile16 emits a little-endian 16-bit value.
func (c *Compiler) Compile16(u uint16) error {
	if err := c.Compile8(byte(u)); err != nil {
		return err
	}
	return c.Compile8(byte(u >> 8))
}

// CompileFloat32 emits a little-endian 32-bit float operand.
func (c *Compiler) CompileFloat32(f float32) error {
	bits, err := floatBits(f)
	if err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if err := c.Compile8(byte(bits >> (8 * uint(i)))); err != nil {
			return err
		}
	}
	return nil
}

// CompileOpcode emits a single built-in opcode byte.
func (c *Compiler) CompileOpcode(op bytecode.Op) error {
	return c.Compile8(byte(op))
}

// CompileUserWordCall emits the 2-byte call-marked form of a user word's
// entry address (spec.md section 4.4).
func (c *Compiler) CompileUserWordCall(addr uint16) error {
	return c.Compile16(bytecode.EncodeUserCall(addr))
}

// PatchOpcode16 overwrites a previously-emitted 16-bit operand at byte
// offset at, used to back-patch forward branches once their target is
// known.
func (c *Compiler) PatchOpcode16(at int, u uint16) error {
	if err := c.VM.Mem.Write16(at, u); err != nil {
		return err
	}
	return nil
}

// CompileLiteralNumber emits a LiteralNumber opcode and its operand.
func (c *Compiler) CompileLiteralNumber(f float32) error {
	if err := c.CompileOpcode(bytecode.LiteralNumber); err != nil {
		return err
	}
	return c.CompileFloat32(f)
}

// CompileLiteralString interns s and emits a LiteralString opcode.
func (c *Compiler) CompileLiteralString(s string) error {
	addr, err := c.VM.Digest.Add(s)
	if err != nil {
		return err
	}
	if err := c.CompileOpcode(bytecode.LiteralString); err != nil {
		return err
	}
	return c.Compile16(addr)
}

// CompileSymbolRef resolves name in the dictionary and compiles a literal
// push of its tagged value (BUILTIN or CODE) -- the `@name` sigil (spec.md
// section 6.1: "push CODE or BUILTIN ref to the named word"). The value is
// fixed at compile time (the dictionary binding cannot change underneath a
// running word), but the push itself must happen every time the surrounding
// code runs, so this compiles a literal rather than pushing immediately.
func (c *Compiler) CompileSymbolRef(name string) error {
	payload, _, found, err := c.VM.Dict.Lookup(name)
	if err != nil {
		return err
	}
	if !found {
		return vm.UndefinedWordError{Name: name}
	}
	return c.CompileLiteralValue(payload)
}

// Define creates a dictionary entry binding name to a tagged value, for
// var/global and for `:`'s final link-in on `;`.
func (c *Compiler) Define(name string, payload float32) error {
	_, err := c.VM.Dict.Define(name, payload)
	return err
}

// CompileCall looks up name and emits the right form: a CODE-tagged word
// compiles as a user-word call; a BUILTIN-tagged word compiles as that
// single opcode. Any other tag means name is a `global` binding rather
// than a word -- its payload is compiled as a runtime fetch (GlobalRef +
// Fetch) rather than baked in at compile time, since the global's value
// can change underneath a definition between compile and a later run
// (spec.md section 4.5.3). Locals and capsule vars shadow dictionary
// entries of the same name and are never reached here -- Parser resolves a
// bare identifier against those first.
func (c *Compiler) CompileCall(name string) error {
	payload, header, found, err := c.VM.Dict.Lookup(name)
	if err != nil {
		return err
	}
	if !found {
		return vm.UndefinedWordError{Name: name}
	}
	d := value.Decode(payload)
	switch d.Tag {
	case value.Code:
		return c.CompileUserWordCall(uint16(d.Payload))
	case value.Builtin:
		return c.CompileOpcode(bytecode.Op(d.Payload))
	default:
		return c.CompileGlobalFetch(header - 1)
	}
}

func floatBits(f float32) (uint32, error) {
	if _, err := value.EncodeNumber(f); err != nil {
		return 0, err
	}
	return math.Float32bits(f), nil
}
