package vm

// Push writes v at SP and advances SP, failing on overflow (spec.md 4.3).
func (v *VM) Push(val float32) error {
	if v.SP >= v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	if err := v.Mem.WriteCell(v.SP, val); err != nil {
		return err
	}
	v.SP++
	return nil
}

// Pop retracts SP and returns the cell that was there, failing on
// underflow (sp < stack base).
func (v *VM) Pop() (float32, error) {
	if v.SP <= v.Mem.StackBase() {
		return 0, StackUnderflowError{"data"}
	}
	v.SP--
	return v.Mem.ReadCell(v.SP)
}

// Peek reads the top cell without popping it.
func (v *VM) Peek() (float32, error) {
	return v.PeekAt(0)
}

// PeekAt reads the cell k below the top (k=0 is TOS).
func (v *VM) PeekAt(k int) (float32, error) {
	addr := v.SP - 1 - k
	if addr < v.Mem.StackBase() || addr >= v.SP {
		return 0, StackUnderflowError{"data"}
	}
	return v.Mem.ReadCell(addr)
}

// SetAt overwrites the cell k below the top.
func (v *VM) SetAt(k int, val float32) error {
	addr := v.SP - 1 - k
	if addr < v.Mem.StackBase() || addr >= v.SP {
		return StackUnderflowError{"data"}
	}
	return v.Mem.WriteCell(addr, val)
}

// RPush/RPop mirror Push/Pop on the return stack.
func (v *VM) RPush(val float32) error {
	if v.RSP >= v.Mem.RStackEnd() {
		return StackOverflowError{"return"}
	}
	if err := v.Mem.WriteCell(v.RSP, val); err != nil {
		return err
	}
	v.RSP++
	return nil
}

func (v *VM) RPop() (float32, error) {
	if v.RSP <= v.Mem.RStackBase() {
		return 0, StackUnderflowError{"return"}
	}
	v.RSP--
	return v.Mem.ReadCell(v.RSP)
}

// StackData returns a snapshot of all live data-stack cells, bottom first
// (get_stack_data, spec.md 4.3), used by the printer and tests.
func (v *VM) StackData() ([]float32, error) {
	out := make([]float32, 0, v.SP-v.Mem.StackBase())
	for addr := v.Mem.StackBase(); addr < v.SP; addr++ {
		c, err := v.Mem.ReadCell(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
