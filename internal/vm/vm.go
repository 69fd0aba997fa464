// Package vm implements Tacit's core: unified memory, the data and return
// stacks, call frames, the dictionary, the bytecode interpreter, and the
// full primitive operation set (spec.md sections 2-5). No package outside
// internal/vm ever mutates VM state directly; internal/compiler emits
// bytecode the VM later executes, internal/parser drives compilation, and
// internal/repl is the only caller that may recover from a halt.
package vm

import (
	"io"

	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/digest"
	"github.com/tacit-lang/tacit/internal/memory"
)

// VM is the single-threaded interpreter state: instruction pointer, stack
// pointer, return-stack pointer, base pointer, list-nesting counter, running
// flag, and owning references to memory, the string digest, the dictionary
// and the compiler (spec.md section 2, item 3).
type VM struct {
	Mem    *memory.Memory
	Digest *digest.Digest
	Dict   *Dictionary
	Out    io.Writer

	IP  int // instruction pointer: byte offset into CODE
	SP  int // data stack pointer: absolute cell index, next free cell
	RSP int // return stack pointer: absolute cell index, next free cell
	BP  int // base pointer: absolute cell index of current frame's saved pair

	ListDepth int // open_list/close_list nesting counter

	Running bool

	// openListHeaders records, per nesting level, the absolute cell index
	// of the placeholder LIST header pushed by open_list (spec.md 4.5.2).
	openListHeaders []int

	builtins [bytecodeOpCount]func(*VM) error

	// Trace, when non-nil, is called once per opcode dispatch with a
	// formatted line "op ip:N sp:N rsp:N", or "call user@N sp:N rsp:N" for
	// a user-word call.
	Trace func(line string)
}

const bytecodeOpCount = 256

// New constructs a VM over a freshly allocated Memory with the given
// layout, with sp/rsp/bp initialized to their region bases and the
// dictionary empty.
func New(layout memory.Layout, out io.Writer) *VM {
	m := memory.New(layout)
	v := &VM{
		Mem:    m,
		Digest: &digest.Digest{},
		Out:    out,
		SP:     m.StackBase(),
		RSP:    m.RStackBase(),
		BP:     m.RStackBase(),
	}
	v.Dict = newDictionary(v)
	v.installBuiltins()
	return v
}

// Reset restores registers to their initial state without discarding
// compiled code, the dictionary, or the digest -- used by internal/repl's
// error-recovery policy (spec.md section 7): "sp := stack_base, rsp :=
// rstack_base, bp := rstack_base, compiler.CP := BCP, running true".
func (v *VM) Reset() {
	v.SP = v.Mem.StackBase()
	v.RSP = v.Mem.RStackBase()
	v.BP = v.Mem.RStackBase()
	v.ListDepth = 0
	v.openListHeaders = v.openListHeaders[:0]
	v.Running = true
}

// Halt aborts the currently executing top-level command by panicking with
// a HaltError, caught only by internal/repl (gothird core.go's halt/panic
// pattern). The interpreter loop does not call it: Tacit's primitives
// return errors instead of panicking, and Run returns the first non-nil
// error to its caller.
func (v *VM) Halt(err error) {
	v.Running = false
	panic(HaltError{err})
}

// builtinOp looks up op's dispatch function; interp.go installs the table.
func (v *VM) builtinOp(op bytecode.Op) (func(*VM) error, bool) {
	if int(op) >= len(v.builtins) {
		return nil, false
	}
	fn := v.builtins[op]
	return fn, fn != nil
}
