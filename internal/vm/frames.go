package vm

// Call-frame discipline (spec.md section 4.2): a frame occupies the return
// stack as [savedBP, savedIP, local0, local1, ...]. BP always names the
// absolute cell index of the frame's own savedBP cell, so a local at slot k
// lives at BP+2+k.

// EnterFrame pushes the caller's bp and the given return address, then
// points bp at the new frame's base. The word's own Reserve opcode grows
// rsp past the frame header to make room for its locals.
func (v *VM) EnterFrame(returnIP int) error {
	frameBase := v.RSP
	if err := v.RPush(float32(v.BP)); err != nil {
		return err
	}
	if err := v.RPush(float32(returnIP)); err != nil {
		return err
	}
	v.BP = frameBase
	return nil
}

// Reserve advances rsp by n cells to make room for n local slots,
// zero-initializing them.
func (v *VM) Reserve(n int) error {
	if v.RSP+n > v.Mem.RStackEnd() {
		return StackOverflowError{"return"}
	}
	for i := 0; i < n; i++ {
		if err := v.RPush(0); err != nil {
			return err
		}
	}
	return nil
}

// ExitFrame discards the current frame's locals and its own header,
// restoring bp to the caller's frame and returning the saved return
// address.
func (v *VM) ExitFrame() (returnIP int, err error) {
	if v.BP < v.Mem.RStackBase() || v.BP+1 >= v.RSP {
		return 0, StackUnderflowError{"return"}
	}
	bpCell, err := v.Mem.ReadCell(v.BP)
	if err != nil {
		return 0, err
	}
	ipCell, err := v.Mem.ReadCell(v.BP + 1)
	if err != nil {
		return 0, err
	}
	v.RSP = v.BP
	v.BP = int(bpCell)
	return int(ipCell), nil
}

// LocalAddr resolves a local variable's compile-time slot number to its
// absolute cell address within the current frame.
func (v *VM) LocalAddr(slot int) int { return v.BP + 2 + slot }
