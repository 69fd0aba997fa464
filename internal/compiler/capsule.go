package compiler

import (
	"sort"

	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

func codeValue(entry int) (float32, error) { return value.Encode(value.Code, int32(entry), 0) }

// capsuleScope tracks the state needed while compiling `capsule ... ;` (the
// method-table-building immediate, spec.md section 4.5.6). Only one level
// of capsule nesting is supported -- Tacit's sample programs never nest
// capsule constructors, and neither does gothird's closest analogue (its
// colon-definition nesting is likewise flat).
type capsuleScope struct {
	vars        map[string]int // name -> heap cell address (instance state)
	savedLocals map[string]int // enclosing definition's locals, restored on EndCapsule
}

// BeginCapsule opens the maplist that becomes the capsule value: it must be
// called inside a `:` definition, immediately compiles an OpenList so the
// method table starts accumulating on the data stack at the point the
// enclosing word runs.
//
// Any `var` already declared earlier in this same definition -- the usual
// shape, per spec.md section 8's own scenario ("0 var count capsule case
// ...") -- is migrated from its call-frame local slot into a heap cell: a
// plain local would vanish the instant the constructor returns, but method
// bodies dispatched later still need to read and mutate it. The migration
// copies each local's current value across at the point `capsule` runs, so
// earlier initializers are preserved.
func (c *Compiler) BeginCapsule() error {
	if !c.defining {
		return vm.SyntaxError{Message: "`capsule` outside a definition"}
	}
	if c.capsule != nil {
		return vm.SyntaxError{Message: "nested `capsule` is not supported"}
	}
	names := make([]string, 0, len(c.locals))
	for name := range c.locals {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make(map[string]int, len(c.locals))
	for _, name := range names {
		slot := c.locals[name]
		addr, err := c.VM.Dict.AllocHeapCell()
		if err != nil {
			return err
		}
		vars[name] = addr
		if err := c.CompileLocalFetch(slot); err != nil {
			return err
		}
		if err := c.CompileGlobalRef(addr); err != nil {
			return err
		}
		if err := c.CompileOpcode(bytecode.Store); err != nil {
			return err
		}
	}
	c.capsule = &capsuleScope{vars: vars, savedLocals: c.locals}
	c.locals = make(map[string]int)
	return c.CompileOpcode(bytecode.OpenList)
}

// InCapsule reports whether a `capsule` method table is currently being
// built.
func (c *Compiler) InCapsule() bool { return c.capsule != nil }

// CapsuleVar allocates one persistent heap cell for a `var` declared inside
// a capsule body and compiles its initializer store (TOS -> the cell).
// Unlike an ordinary local, this storage outlives the constructor's call
// frame: method bodies dispatched later still need to read and mutate it.
func (c *Compiler) CapsuleVar(name string) error {
	addr, err := c.VM.Dict.AllocHeapCell()
	if err != nil {
		return err
	}
	c.capsule.vars[name] = addr
	if err := c.CompileGlobalRef(addr); err != nil {
		return err
	}
	return c.CompileOpcode(bytecode.Store)
}

// LookupCapsuleVar resolves a name against the capsule instance state of
// the capsule currently being built (or, inside a method body compiled via
// BeginMethod, of the capsule that body belongs to).
func (c *Compiler) LookupCapsuleVar(name string) (addr int, ok bool) {
	if c.capsule == nil {
		return 0, false
	}
	addr, ok = c.capsule.vars[name]
	return addr, ok
}

// BeginMethod starts compiling one `of`/`default` clause's body as an
// independent code entry rather than inline branch code: it emits a Branch
// placeholder to skip the body in the linear code stream (the same trick
// `{ }` code-block literals use), then records the entry point.
func (c *Compiler) BeginMethod() (entry int, err error) {
	if err := c.CompileOpcode(bytecode.Branch); err != nil {
		return 0, err
	}
	c.methodSkipAt = c.CP
	if err := c.Compile16(0); err != nil {
		return 0, err
	}
	return c.CP, nil
}

// EndMethod closes a method body opened by BeginMethod: emits Exit and
// patches the skip-branch to land just past it.
func (c *Compiler) EndMethod() error {
	if err := c.CompileOpcode(bytecode.Exit); err != nil {
		return err
	}
	return c.patchBranchHere(c.methodSkipAt)
}

// CompileMethodEntry pushes a [key, CODE(entry)] pair into the capsule's
// method table, the moment a method body has finished compiling.
func (c *Compiler) CompileMethodEntry(key string, entry int) error {
	if err := c.CompileOpcode(bytecode.OpenList); err != nil {
		return err
	}
	if err := c.CompileLiteralString(key); err != nil {
		return err
	}
	if err := c.compileCodeLiteral(entry); err != nil {
		return err
	}
	return c.CompileOpcode(bytecode.CloseList)
}

// compileCodeLiteral emits a LiteralNumber carrying a CODE-tagged value
// pointing at entry -- a compile-time constant, not a runtime computation.
func (c *Compiler) compileCodeLiteral(entry int) error {
	v, err := codeValue(entry)
	if err != nil {
		return err
	}
	return c.CompileLiteralValue(v)
}

// EndCapsule closes the method-table list (making it the capsule value left
// on the data stack for the enclosing `:` definition to return) and
// restores the enclosing definition's own locals.
func (c *Compiler) EndCapsule() error {
	if c.capsule == nil {
		return vm.SyntaxError{Message: "`;` closing capsule with no matching `capsule`"}
	}
	if err := c.CompileOpcode(bytecode.CloseList); err != nil {
		return err
	}
	c.locals = c.capsule.savedLocals
	c.capsule = nil
	return nil
}
