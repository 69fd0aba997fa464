package compiler

import (
	"math"

	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

func bitsOf(f float32) uint32 { return math.Float32bits(f) }

// frameKind identifies which construct a controlFrame closes. Spec.md's
// design notes (section 9) describe the compile-time control stack as
// living on the VM's own data stack with BUILTIN-tagged closer sentinels;
// Tacit keeps that vocabulary but holds the frames compiler-side, since
// `case` needs a variable-length list of pending exit patches that doesn't
// fit a single tagged cell -- gothird's third.go makes the analogous
// trade-off, keeping its own `[]int` backpatch list alongside the FIRST
// source control words rather than trying to pack it onto a stack.
type frameKind int

const (
	frameIf frameKind = iota
	frameElse
	frameCase
)

type controlFrame struct {
	kind           frameKind
	patchAt        int   // BranchFalse/Branch operand offset to patch to "here"
	exits          []int // case: pending Branch operand offsets to patch to case end
	sawOf          bool  // case: an `of`/`default` is mid-clause, awaiting its closing `;`
	pendingOfPatch int   // case: the open clause's BranchFalse operand offset
	lastWasDefault bool  // case: the most recently closed clause was `default`
}

// If emits a BranchFalse with an unresolved offset and opens an `if` frame
// (spec.md section 4.5.5).
func (c *Compiler) If() error {
	if err := c.CompileOpcode(bytecode.BranchFalse); err != nil {
		return err
	}
	patchAt := c.CP
	if err := c.Compile16(0); err != nil {
		return err
	}
	c.control = append(c.control, controlFrame{kind: frameIf, patchAt: patchAt})
	return nil
}

// Else closes the `if` condition's BranchFalse (jumping here, past the
// else-branch jump about to be emitted) and opens an `else` frame whose
// own Branch will be patched to the matching `;`.
func (c *Compiler) Else() error {
	top, err := c.popControl(frameIf, "`else` without a matching `if`")
	if err != nil {
		return err
	}

	if err := c.CompileOpcode(bytecode.Branch); err != nil {
		return err
	}
	elsePatchAt := c.CP
	if err := c.Compile16(0); err != nil {
		return err
	}

	if err := c.patchBranchHere(top.patchAt); err != nil {
		return err
	}
	c.control = append(c.control, controlFrame{kind: frameElse, patchAt: elsePatchAt})
	return nil
}

// Case pushes a `case` frame; the value under test is expected to already
// be on the data stack, left alone (not consumed) by every `of` compare so
// later clauses can test it too. A matching clause drops it before its body
// runs; the final `;` emits a `drop` that discards it when no clause
// matched (spec.md section 4.5.5).
func (c *Compiler) Case() error {
	c.control = append(c.control, controlFrame{kind: frameCase})
	return nil
}

// Of compiles a predicate-compare-and-skip: copy the case value (Over),
// compare it to the predicate already left on the data stack by the
// preceding literal, consuming the copy and the predicate, and BranchFalse
// over the clause body. A matching clause's body starts by dropping the
// case value.
func (c *Compiler) Of() error {
	frame, ok := c.topControl()
	if !ok || frame.kind != frameCase {
		return vm.SyntaxError{Message: "`of` outside a `case`"}
	}
	if frame.lastWasDefault {
		return vm.SyntaxError{Message: "`of` clause after `default`"}
	}

	if err := c.CompileOpcode(bytecode.Over); err != nil {
		return err
	}
	if err := c.CompileOpcode(bytecode.Eq); err != nil {
		return err
	}
	if err := c.CompileOpcode(bytecode.BranchFalse); err != nil {
		return err
	}
	patchAt := c.CP
	if err := c.Compile16(0); err != nil {
		return err
	}
	if err := c.CompileOpcode(bytecode.Drop); err != nil {
		return err
	}
	c.setTopControl(func(f *controlFrame) { f.pendingOfPatch = patchAt; f.sawOf = true })
	return nil
}

// Default compiles the DEFAULT sentinel literal, which compares equal to
// anything via Of's subsequent Eq (spec.md section 4.5.5: "default ...
// compiles a SENTINEL(DEFAULT) literal that compares true against
// anything"). Eq's broadcasting path treats two non-numeric tags as a type
// mismatch in the general case, so the interpreter's scalar Eq special-
// cases a DEFAULT operand to always compare true; see arith.go.
func (c *Compiler) Default() error {
	frame, ok := c.topControl()
	if !ok || frame.kind != frameCase {
		return vm.SyntaxError{Message: "`default` outside a `case`"}
	}
	if err := c.CompileLiteralValue(value.DefaultValue); err != nil {
		return err
	}
	if err := c.Of(); err != nil {
		return err
	}
	c.setTopControl(func(f *controlFrame) { f.lastWasDefault = true })
	return nil
}

// closeControl ends the clause/construct on top of the control stack; for
// a `case` clause it also opens (or extends) the chain of pending exit
// branches, and a `case`-closing `;` drains that chain plus emits the
// final drop.
func (c *Compiler) closeControl() error {
	frame, _ := c.topControl()
	switch frame.kind {
	case frameIf:
		c.popFrame()
		return c.patchBranchHere(frame.patchAt)
	case frameElse:
		c.popFrame()
		return c.patchBranchHere(frame.patchAt)
	case frameCase:
		return c.closeCaseClauseOrCase()
	default:
		return vm.SyntaxError{Message: "unmatched control construct"}
	}
}

// closeCaseClauseOrCase implements the two-`;` shape of `case`: the first
// `;` after a clause body patches that clause's `of` BranchFalse to the
// next clause and records an unconditional exit Branch; a `;` seen with no
// pending clause (i.e. right after `case` itself, or a second consecutive
// `;`) instead emits the drop of an unmatched case value and patches every
// recorded exit to land just past that drop.
func (c *Compiler) closeCaseClauseOrCase() error {
	frame, _ := c.topControl()
	if frame.sawOf && frame.pendingOfPatch != 0 {
		if err := c.CompileOpcode(bytecode.Branch); err != nil {
			return err
		}
		exitAt := c.CP
		if err := c.Compile16(0); err != nil {
			return err
		}
		if err := c.patchBranchHere(frame.pendingOfPatch); err != nil {
			return err
		}
		c.setTopControl(func(f *controlFrame) {
			f.exits = append(f.exits, exitAt)
			f.pendingOfPatch = 0
			f.sawOf = false
		})
		return nil
	}

	frame, _ = c.topControl()
	c.popFrame()
	if err := c.CompileOpcode(bytecode.Drop); err != nil {
		return err
	}
	for _, at := range frame.exits {
		if err := c.patchBranchHere(at); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) topControl() (controlFrame, bool) {
	if len(c.control) == 0 {
		return controlFrame{}, false
	}
	return c.control[len(c.control)-1], true
}

func (c *Compiler) setTopControl(f func(*controlFrame)) {
	f(&c.control[len(c.control)-1])
}

func (c *Compiler) popFrame() {
	c.control = c.control[:len(c.control)-1]
}

func (c *Compiler) popControl(want frameKind, errMsg string) (controlFrame, error) {
	frame, ok := c.topControl()
	if !ok || frame.kind != want {
		return controlFrame{}, vm.SyntaxError{Message: errMsg}
	}
	c.popFrame()
	return frame, nil
}

// patchBranchHere patches the 16-bit relative-offset operand at byte offset
// patchAt (the operand's own location) so that it jumps to the current CP.
func (c *Compiler) patchBranchHere(patchAt int) error {
	offset := int16(c.CP - (patchAt + 2))
	return c.PatchOpcode16(patchAt, uint16(offset))
}

// CompileLiteralValue emits a LiteralNumber carrying an already-encoded
// tagged value (used for sentinels like DEFAULT, which are not plain
// numbers but still travel through the same opcode -- the interpreter's
// LiteralNumber operand is just four raw bytes, tag or not).
func (c *Compiler) CompileLiteralValue(v float32) error {
	if err := c.CompileOpcode(bytecode.LiteralNumber); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if err := c.Compile8(byte(bitsOf(v) >> (8 * uint(i)))); err != nil {
			return err
		}
	}
	return nil
}
