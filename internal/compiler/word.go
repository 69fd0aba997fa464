package compiler

import (
	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

// Colon begins a definition (spec.md section 4.5.5): records the entry
// point, emits a placeholder Reserve(0), and resets the per-definition
// local-slot table. Nested `:` is a syntax error -- Tacit, like gothird's
// FIRST, has no nested word definitions.
func (c *Compiler) Colon(name string) error {
	if c.defining {
		return vm.SyntaxError{Message: "`:` while already defining " + c.defName}
	}
	c.defining = true
	c.defName = name
	c.localCount = 0
	for k := range c.locals {
		delete(c.locals, k)
	}
	c.dictMark = c.VM.Dict.Mark()

	c.defEntry = c.CP
	if err := c.CompileOpcode(bytecode.Reserve); err != nil {
		return err
	}
	c.reserveOperandAt = c.CP
	return c.Compile16(0)
}

// Semi closes whatever the innermost open construct is: an `if`/`else`
// body, a `case` clause, the whole `case`, or (when the control stack is
// empty) the definition started by `:`. This mirrors spec.md's overloaded
// `;` exactly -- the closer is identified by what is on top of the
// compile-time control stack, not by the token itself.
func (c *Compiler) Semi() error {
	if len(c.control) > 0 {
		return c.closeControl()
	}
	if !c.defining {
		return vm.SyntaxError{Message: "`;` with no matching `:`"}
	}
	if err := c.CompileOpcode(bytecode.Exit); err != nil {
		return err
	}
	if err := c.PatchOpcode16(c.reserveOperandAt, uint16(c.localCount)); err != nil {
		return err
	}
	codeV := value.MustEncode(value.Code, int32(c.defEntry), 0)
	if err := c.Define(c.defName, codeV); err != nil {
		return err
	}
	c.defining = false
	c.defName = ""
	// top-level execution resumes after the definition's code, never in it.
	c.RanTo = c.CP
	return nil
}

// Var declares a local inside the definition in progress (spec.md section
// 4.5.3): it takes the next local slot and compiles a LocalRef to it
// followed by Store, so at run time the initializer on top of the data
// stack is stored into that slot.
//
// Every local is exactly one cell. A scalar or reference initializer fits;
// a list initializer does not -- no extra cells are reserved for a list's
// payload, so its Store fails with AssignmentShapeError.
func (c *Compiler) Var(name string) error {
	if !c.defining {
		return vm.SyntaxError{Message: "`var` outside a definition"}
	}
	if c.InCapsule() {
		return c.CapsuleVar(name)
	}
	slot := c.localCount
	c.localCount++
	c.locals[name] = slot

	if err := c.CompileOpcode(bytecode.LocalRef); err != nil {
		return err
	}
	if err := c.Compile16(uint16(slot)); err != nil {
		return err
	}
	return c.CompileOpcode(bytecode.Store)
}

// LookupLocal reports whether name is a local of the definition currently
// being compiled, and its slot.
func (c *Compiler) LookupLocal(name string) (slot int, ok bool) {
	slot, ok = c.locals[name]
	return slot, ok
}

// CompileLocalRef emits the &name form for a local: push RSTACK_REF(bp +
// slot + 2) at run time.
func (c *Compiler) CompileLocalRef(slot int) error {
	if err := c.CompileOpcode(bytecode.LocalRef); err != nil {
		return err
	}
	return c.Compile16(uint16(slot))
}

// CompileLocalFetch compiles a bare local-name reference: push the local's
// current value (LocalRef then Fetch).
func (c *Compiler) CompileLocalFetch(slot int) error {
	if err := c.CompileLocalRef(slot); err != nil {
		return err
	}
	return c.CompileOpcode(bytecode.Fetch)
}

// Defining reports whether a `:` definition is currently open.
func (c *Compiler) Defining() bool { return c.defining }
