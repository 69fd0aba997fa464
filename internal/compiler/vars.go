package compiler

import (
	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/vm"
)

// Global allocates a heap cell, initializes it from TOS (already compiled
// and, for a top-level definition, already executed -- globals are
// evaluated as they're declared, not deferred) and records a dictionary
// entry (spec.md section 4.5.3). Global is only valid outside a `:`
// definition: the surface language declares globals at top level.
func (c *Compiler) Global(name string) error {
	if c.defining {
		return vm.SyntaxError{Message: "`global` inside a definition"}
	}
	top, err := c.VM.Pop()
	if err != nil {
		return err
	}
	addr, err := c.VM.Dict.Define(name, top)
	if err != nil {
		return err
	}
	_ = addr
	return nil
}

// CompileGlobalRef emits the &name form for a global: push DATA_REF(addr).
func (c *Compiler) CompileGlobalRef(addr int) error {
	if err := c.CompileOpcode(bytecode.GlobalRef); err != nil {
		return err
	}
	return c.Compile16(uint16(addr))
}

// GlobalHeaderAddr returns the address of the payload cell of name's
// dictionary entry, used to resolve `&name` and bare-name fetches against a
// global.
func (c *Compiler) GlobalHeaderAddr(name string) (addr int, found bool, err error) {
	_, header, found, err := c.VM.Dict.Lookup(name)
	if err != nil || !found {
		return 0, found, err
	}
	// the payload cell sits one below the dictionary entry's own header.
	return header - 1, true, nil
}

// CompileGlobalFetch compiles a bare global-name reference: push the
// global's current value.
func (c *Compiler) CompileGlobalFetch(addr int) error {
	if err := c.CompileGlobalRef(addr); err != nil {
		return err
	}
	return c.CompileOpcode(bytecode.Fetch)
}

// CompileStorePath compiles `-> name` (no path) or `-> name[i j ...]`
// (bracket path) into: push a ref to name (LocalRef/GlobalRef), then, for a
// bracket path, push the path list and Walk it to a ref to the nested
// element, then Store. Walk indexes by number only, so a string path
// element does not select a map entry. The value being stored is expected
// already on the data stack beneath where this sequence runs (spec.md
// section 4.5.3).
func (c *Compiler) CompileStorePath(isLocal bool, slot int, path []PathElem) error {
	if len(path) == 0 {
		if isLocal {
			if err := c.CompileLocalRef(slot); err != nil {
				return err
			}
		} else if err := c.CompileGlobalRef(slot); err != nil {
			return err
		}
		return c.CompileOpcode(bytecode.Store)
	}

	if isLocal {
		if err := c.CompileLocalRef(slot); err != nil {
			return err
		}
	} else if err := c.CompileGlobalRef(slot); err != nil {
		return err
	}
	if err := c.compilePathList(path); err != nil {
		return err
	}
	if err := c.CompileOpcode(bytecode.Walk); err != nil {
		return err
	}
	return c.CompileOpcode(bytecode.Store)
}

// PathElem is one bracketed index/key in a `-> name[...]` store path.
type PathElem struct {
	IsString bool
	Number   float32
	String   string
}

func (c *Compiler) compilePathList(path []PathElem) error {
	if err := c.CompileOpcode(bytecode.OpenList); err != nil {
		return err
	}
	for _, p := range path {
		if p.IsString {
			if err := c.CompileLiteralString(p.String); err != nil {
				return err
			}
		} else if err := c.CompileLiteralNumber(p.Number); err != nil {
			return err
		}
	}
	return c.CompileOpcode(bytecode.CloseList)
}

// CompileAugmentedStore compiles `+> name` ("load, add, store"): fetch the
// current value, add TOS to it, store the result back.
func (c *Compiler) CompileAugmentedStore(isLocal bool, slot int) error {
	if isLocal {
		if err := c.CompileLocalRef(slot); err != nil {
			return err
		}
	} else if err := c.CompileGlobalRef(slot); err != nil {
		return err
	}
	if err := c.CompileOpcode(bytecode.Fetch); err != nil {
		return err
	}
	// stack: ... delta current -- swap so add sees (current delta) in the
	// order arith expects (a then b popped b first, a second: add pops b
	// then a, computing a+b, order-independent here since addition
	// commutes, so no swap is needed).
	if err := c.CompileOpcode(bytecode.Add); err != nil {
		return err
	}
	if isLocal {
		if err := c.CompileLocalRef(slot); err != nil {
			return err
		}
	} else if err := c.CompileGlobalRef(slot); err != nil {
		return err
	}
	return c.CompileOpcode(bytecode.Store)
}
