package vm

import (
	"github.com/tacit-lang/tacit/internal/value"
)

// References are tagged values whose payload is an absolute cell address
// (spec.md section 3.2/4.7): StackRef, RStackRef, GlobalRef, DataRef are
// already resolved; Local carries a compile-time frame slot number that
// only becomes an absolute address relative to the *current* bp, since the
// same word's frame moves on every call.

// resolveRef turns any of the reference-shaped tags into an absolute cell
// address in the current frame.
func (v *VM) resolveRef(val float32) (int, error) {
	d := value.Decode(val)
	switch d.Tag {
	case value.Local:
		return v.LocalAddr(int(d.Payload)), nil
	case value.StackRef, value.RStackRef, value.GlobalRef, value.DataRef:
		return int(d.Payload), nil
	default:
		return 0, TypeError{"ref", d.Tag.String()}
	}
}

// opSlot converts a local index into a symbolic Local reference, deferring
// frame-relative address resolution to the point of use.
func (v *VM) opSlot(vm *VM) error {
	idxV, err := v.Pop()
	if err != nil {
		return err
	}
	idx := int(value.Decode(idxV).Number)
	return v.Push(value.MustEncode(value.Local, int32(idx), 0))
}

// opElem converts (list idx) into a StackRef naming the idx-th logical
// element's top cell, consuming the list.
func (v *VM) opElem(vm *VM) error {
	idxV, err := v.Pop()
	if err != nil {
		return err
	}
	idx := int(value.Decode(idxV).Number)
	blocks, n, err := v.listElements()
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(blocks) {
		v.SP -= n + 1
		return v.Push(value.NilValue)
	}
	target := blocks[idx]
	addr := target.Start + target.Span - 1
	v.SP -= n + 1
	return v.Push(value.MustEncode(value.StackRef, int32(addr), 0))
}

// fetchAt reads and pushes the logical element at addr.
func (v *VM) fetchAt(addr int) error {
	node, _, err := v.readNode(addr)
	if err != nil {
		return err
	}
	span := node.span()
	if v.SP+span > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	newSP, err := v.writeNode(v.SP, node)
	if err != nil {
		return err
	}
	v.SP = newSP
	return nil
}

func (v *VM) opFetch(vm *VM) error {
	refV, err := v.Pop()
	if err != nil {
		return err
	}
	addr, err := v.resolveRef(refV)
	if err != nil {
		return err
	}
	return v.fetchAt(addr)
}

// opUnref is Fetch's alias for dereferencing a ref value.
func (v *VM) opUnref(vm *VM) error { return v.opFetch(vm) }

// opRef resolves a symbolic Local reference to a concrete, portable
// RStackRef, leaving already-resolved refs unchanged.
func (v *VM) opRef(vm *VM) error {
	top, err := v.Pop()
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag == value.Local {
		addr := v.LocalAddr(int(d.Payload))
		return v.Push(value.MustEncode(value.RStackRef, int32(addr), 0))
	}
	return v.Push(top)
}

// opStore `(val ref -- )` writes val into the slot named by ref (on top of
// the stack), requiring the new value's span to match the slot's existing
// span (spec.md's AssignmentShapeError).
func (v *VM) opStore(vm *VM) error {
	refV, err := v.Peek()
	if err != nil {
		return err
	}
	addr, err := v.resolveRef(refV)
	if err != nil {
		return err
	}
	valBlock, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	oldSpan, err := v.spanAt(addr)
	if err != nil {
		return err
	}
	if oldSpan != valBlock.Span {
		return AssignmentShapeError{"store shape does not match existing slot"}
	}
	cells, err := v.readCells(valBlock.Start, valBlock.Span)
	if err != nil {
		return err
	}
	v.SP = valBlock.Start // drop val and ref together
	dest := addr - oldSpan + 1
	return v.writeCells(dest, cells)
}

// opWalk repeatedly indexes through nested lists following a flat path of
// numeric indices, producing a ref to the final nested cell.
func (v *VM) opWalk(vm *VM) error {
	pathBlock, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	pathNode, _, err := v.readNode(pathBlock.Start + pathBlock.Span - 1)
	if err != nil {
		return err
	}
	refV, err := v.PeekAt(pathBlock.Span)
	if err != nil {
		return err
	}
	addr, err := v.resolveRef(refV)
	if err != nil {
		return err
	}
	v.SP = pathBlock.Start - 1 // drop path and ref

	for _, step := range pathNode.items {
		idx := int(step.scalar)
		c, err := v.Mem.ReadCell(addr)
		if err != nil {
			return err
		}
		d := value.Decode(c)
		if d.Tag != value.List {
			return v.Push(value.NilValue)
		}
		blocks, err := v.walkElements(addr, int(d.Payload))
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(blocks) {
			return v.Push(value.NilValue)
		}
		addr = blocks[idx].Start + blocks[idx].Span - 1
	}
	return v.Push(value.MustEncode(value.StackRef, int32(addr), 0))
}

// opSelect walks a path of indices through a list VALUE (not a ref),
// returning the nested element by value, or NIL if any step misses.
func (v *VM) opSelect(vm *VM) error {
	pathBlock, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	pathNode, _, err := v.readNode(pathBlock.Start + pathBlock.Span - 1)
	if err != nil {
		return err
	}
	valueBlock, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	valueNode, _, err := v.readNode(valueBlock.Start + valueBlock.Span - 1)
	if err != nil {
		return err
	}
	v.SP = valueBlock.Start

	cur := valueNode
	missed := false
	for _, step := range pathNode.items {
		idx := int(step.scalar)
		if !cur.isList || idx < 0 || idx >= len(cur.items) {
			missed = true
			break
		}
		cur = cur.items[idx]
	}
	if missed {
		return v.Push(value.NilValue)
	}
	span := cur.span()
	if v.SP+span > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	newSP, err := v.writeNode(v.SP, cur)
	if err != nil {
		return err
	}
	v.SP = newSP
	return nil
}
