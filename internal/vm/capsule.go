package vm

import (
	"github.com/tacit-lang/tacit/internal/value"
)

// A capsule is a maplist of method-name STRING keys to CODE entry points
// (spec.md section 5.1). Building one (the `capsule`/`does` compiler
// immediates) is internal/compiler's job: it lays out a [name, code] pair
// per defined method between OpenList and CloseList, the same way any other
// maplist literal is built. dispatch is the one runtime primitive this
// package owns.

// opDispatch implements `(name receiver -- result...)`: the receiver (top
// of stack, a reference to a capsule -- e.g. produced by `&name`) resolves
// its method table, `find`s the method name (next element down) in it, and
// transfers control into the bound CODE entry point with the receiver
// reference re-pushed so the callee can read its own state back via
// fetch/select (spec.md section 4.5.6).
func (v *VM) opDispatch(vm *VM) error {
	receiverBlock, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	nameBlock, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	receiverV, err := v.Mem.ReadCell(receiverBlock.Start + receiverBlock.Span - 1)
	if err != nil {
		return err
	}
	nameV, err := v.Mem.ReadCell(nameBlock.Start + nameBlock.Span - 1)
	if err != nil {
		return err
	}

	addr, err := v.resolveRef(receiverV)
	if err != nil {
		return TypeError{"dispatch", value.Decode(receiverV).Tag.String()}
	}
	headerCell, err := v.Mem.ReadCell(addr)
	if err != nil {
		return err
	}
	if value.Decode(headerCell).Tag != value.List {
		return TypeError{"dispatch", value.Decode(headerCell).Tag.String()}
	}

	pairs, err := v.pairsOf(addr)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if p[0].isList || !cellsEqual(p[0].scalar, nameV) {
			continue
		}
		if p[1].isList {
			return TypeError{"dispatch", "LIST"}
		}
		cd := value.Decode(p[1].scalar)
		if cd.Tag != value.Code {
			return TypeError{"dispatch", cd.Tag.String()}
		}
		v.SP = nameBlock.Start
		if err := v.Push(receiverV); err != nil {
			return err
		}
		return v.callUserCode(int(cd.Payload))
	}

	name := "?"
	if md := value.Decode(nameV); md.Tag == value.String {
		if s, err := v.Digest.Get(uint16(md.Payload)); err == nil {
			name = s
		}
	}
	return DispatchError{Method: name}
}
