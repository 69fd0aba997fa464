package compiler

import (
	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/vm"
)

// BeginBlock opens a `{ ... }` deferred-execution CODE literal (spec.md
// section 6.1): the same skip-branch trick as a capsule method body
// (BeginMethod in capsule.go), generalized to appear anywhere an ordinary
// value can -- a block is just a CODE value the enclosing code pushes and
// some other word later calls.
func (c *Compiler) BeginBlock() (entry int, err error) {
	if err := c.CompileOpcode(bytecode.Branch); err != nil {
		return 0, err
	}
	skipAt := c.CP
	if err := c.Compile16(0); err != nil {
		return 0, err
	}
	c.blockSkips = append(c.blockSkips, skipAt)
	return c.CP, nil
}

// EndBlock closes the innermost open block: emits Exit, patches the
// skip-branch to land just past it, and compiles a literal push of the
// block's CODE value.
func (c *Compiler) EndBlock(entry int) error {
	if len(c.blockSkips) == 0 {
		return vm.SyntaxError{Message: "`}` with no matching `{`"}
	}
	if err := c.CompileOpcode(bytecode.Exit); err != nil {
		return err
	}
	skipAt := c.blockSkips[len(c.blockSkips)-1]
	c.blockSkips = c.blockSkips[:len(c.blockSkips)-1]
	if err := c.patchBranchHere(skipAt); err != nil {
		return err
	}
	v, err := codeValue(entry)
	if err != nil {
		return err
	}
	return c.CompileLiteralValue(v)
}
