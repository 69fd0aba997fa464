package vm

import (
	"github.com/tacit-lang/tacit/internal/value"
)

// A list is a contiguous run of cells ending in a LIST header whose payload
// is the n cells immediately below it (spec.md section 3.3). These helpers
// are segment-agnostic: every address they take is an absolute cell index
// into the unified Memory, so the same code walks lists on the data stack,
// the return stack, or the heap.

// spanAt returns the number of cells occupied by the logical element whose
// highest cell is at addr: 1 for a simple value, or slotCount+1 if addr
// holds a LIST header.
func (v *VM) spanAt(addr int) (int, error) {
	c, err := v.Mem.ReadCell(addr)
	if err != nil {
		return 0, err
	}
	d := value.Decode(c)
	if d.Tag == value.List {
		return int(d.Payload) + 1, nil
	}
	return 1, nil
}

// elementBlock describes one logical element's cell range [Start, Start+Span).
type elementBlock struct {
	Start, Span int
}

// walkElements enumerates the logical elements of the list whose payload
// occupies the n cells below header (exclusive), in logical order (i.e.
// walking from just-below-header toward lower addresses, per spec.md 3.3).
func (v *VM) walkElements(header, n int) ([]elementBlock, error) {
	blocks := make([]elementBlock, 0, n)
	cursor := header - 1
	remaining := n
	for remaining > 0 {
		span, err := v.spanAt(cursor)
		if err != nil {
			return nil, err
		}
		if span > remaining {
			return nil, TypeError{"list-walk", "corrupt list"}
		}
		start := cursor - span + 1
		blocks = append(blocks, elementBlock{Start: start, Span: span})
		cursor = start - 1
		remaining -= span
	}
	return blocks, nil
}

func (v *VM) readCells(start, span int) ([]float32, error) {
	out := make([]float32, span)
	for i := 0; i < span; i++ {
		c, err := v.Mem.ReadCell(start + i)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (v *VM) writeCells(start int, cells []float32) error {
	for i, c := range cells {
		if err := v.Mem.WriteCell(start+i, c); err != nil {
			return err
		}
	}
	return nil
}

// requireListHeader reads tag/slotCount for the cell at addr, requiring a LIST.
func (v *VM) requireListHeader(addr int, op string) (n int, err error) {
	c, err := v.Mem.ReadCell(addr)
	if err != nil {
		return 0, err
	}
	d := value.Decode(c)
	if d.Tag != value.List {
		return 0, TypeError{op, d.Tag.String()}
	}
	return int(d.Payload), nil
}

// --- Stack manipulation (spec.md section 4.5.1) ---

// topBlock locates the logical element ending at the top of the data
// stack (SP-1).
func (v *VM) topBlock() (elementBlock, error) {
	if v.SP <= v.Mem.StackBase() {
		return elementBlock{}, StackUnderflowError{"data"}
	}
	span, err := v.spanAt(v.SP - 1)
	if err != nil {
		return elementBlock{}, err
	}
	start := v.SP - span
	if start < v.Mem.StackBase() {
		return elementBlock{}, StackUnderflowError{"data"}
	}
	return elementBlock{Start: start, Span: span}, nil
}

// nthBlockFromTop locates the (0-based from top) nth logical element.
func (v *VM) nthBlockFromTop(n int) (elementBlock, error) {
	cursor := v.SP
	for i := 0; i <= n; i++ {
		if cursor <= v.Mem.StackBase() {
			return elementBlock{}, StackUnderflowError{"data"}
		}
		span, err := v.spanAt(cursor - 1)
		if err != nil {
			return elementBlock{}, err
		}
		start := cursor - span
		if i == n {
			return elementBlock{Start: start, Span: span}, nil
		}
		cursor = start
	}
	panic("unreachable")
}

// TopSpan reports the cell range [start, start+span) of the logical
// element on top of the data stack -- span is 1 for a plain value, or
// slotCount+1 when the top is a LIST header -- so that internal/printer can
// consume exactly one logical value, popping a whole list's payload along
// with its header (spec.md section 6.2: "when the top is a list header, it
// also pops its payload").
func (v *VM) TopSpan() (start, span int, err error) {
	b, err := v.topBlock()
	if err != nil {
		return 0, 0, err
	}
	return b.Start, b.Span, nil
}

// ReadSpan returns the span cells starting at start, bottom first, without
// moving SP.
func (v *VM) ReadSpan(start, span int) ([]float32, error) {
	return v.readCells(start, span)
}

// TruncateStack retracts SP to addr, discarding everything at or above it --
// used by internal/printer's `.` after it has located a logical value via
// TopSpan.
func (v *VM) TruncateStack(addr int) { v.SP = addr }

// Span describes one logical element's cell range, exported so
// internal/printer can recurse over nested lists without reaching into
// vm-internal types.
type Span struct{ Start, Count int }

// SpanAt reports the cell span of the logical element whose highest cell
// is addr (1 for a plain value, slotCount+1 for a LIST header).
func (v *VM) SpanAt(addr int) (int, error) { return v.spanAt(addr) }

// ListElements enumerates the n payload cells below a LIST header at
// headerAddr, in the same just-below-header-to-lower-addresses logical
// order spec.md section 3.3 defines for `head`/`tail`/`walk`.
func (v *VM) ListElements(headerAddr, n int) ([]Span, error) {
	blocks, err := v.walkElements(headerAddr, n)
	if err != nil {
		return nil, err
	}
	spans := make([]Span, len(blocks))
	for i, b := range blocks {
		spans[i] = Span{Start: b.Start, Count: b.Span}
	}
	return spans, nil
}

func (v *VM) opDup(vm *VM) error {
	b, err := v.topBlock()
	if err != nil {
		return err
	}
	cells, err := v.readCells(b.Start, b.Span)
	if err != nil {
		return err
	}
	if v.SP+b.Span > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	if err := v.writeCells(v.SP, cells); err != nil {
		return err
	}
	v.SP += b.Span
	return nil
}

func (v *VM) opDrop(vm *VM) error {
	b, err := v.topBlock()
	if err != nil {
		return err
	}
	v.SP -= b.Span
	return nil
}

func (v *VM) opSwap(vm *VM) error {
	top, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	second, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	total := top.Span + second.Span
	base := second.Start
	if err := v.reverseRange(base, base+second.Span); err != nil {
		return err
	}
	if err := v.reverseRange(base+second.Span, base+total); err != nil {
		return err
	}
	return v.reverseRange(base, base+total)
}

func (v *VM) opOver(vm *VM) error {
	top, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	second, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	_ = top
	cells, err := v.readCells(second.Start, second.Span)
	if err != nil {
		return err
	}
	if v.SP+second.Span > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	if err := v.writeCells(v.SP, cells); err != nil {
		return err
	}
	v.SP += second.Span
	return nil
}

func (v *VM) opRot(vm *VM) error {
	// X Y Z -> Y Z X: swap the deepest of the three (X) with the combined
	// block {Y,Z} (spec.md 4.5.1 tie-break: rotate by the sum of the top
	// two elements' sizes).
	z, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	y, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	x, err := v.nthBlockFromTop(2)
	if err != nil {
		return err
	}
	yz := y.Span + z.Span
	total := x.Span + yz
	base := x.Start
	if err := v.reverseRange(base, base+x.Span); err != nil {
		return err
	}
	if err := v.reverseRange(base+x.Span, base+total); err != nil {
		return err
	}
	return v.reverseRange(base, base+total)
}

func (v *VM) opRevRot(vm *VM) error {
	// X Y Z -> Z X Y: swap the combined block {X,Y} with Z.
	z, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	y, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	x, err := v.nthBlockFromTop(2)
	if err != nil {
		return err
	}
	xy := x.Span + y.Span
	total := xy + z.Span
	base := x.Start
	if err := v.reverseRange(base, base+xy); err != nil {
		return err
	}
	if err := v.reverseRange(base+xy, base+total); err != nil {
		return err
	}
	return v.reverseRange(base, base+total)
}

func (v *VM) opNip(vm *VM) error {
	top, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	second, err := v.nthBlockFromTop(1)
	if err != nil {
		return err
	}
	cells, err := v.readCells(top.Start, top.Span)
	if err != nil {
		return err
	}
	if err := v.writeCells(second.Start, cells); err != nil {
		return err
	}
	v.SP = second.Start + top.Span
	return nil
}

func (v *VM) opTuck(vm *VM) error {
	if err := v.opSwap(vm); err != nil {
		return err
	}
	return v.opOver(vm)
}

func (v *VM) opPick(vm *VM) error {
	idxV, err := v.Pop()
	if err != nil {
		return err
	}
	idx := int(value.Decode(idxV).Number)
	if idx < 0 {
		return v.Push(value.NilValue)
	}
	b, err := v.nthBlockFromTop(idx)
	if err != nil {
		return v.Push(value.NilValue)
	}
	cells, err := v.readCells(b.Start, b.Span)
	if err != nil {
		return err
	}
	if v.SP+b.Span > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	if err := v.writeCells(v.SP, cells); err != nil {
		return err
	}
	v.SP += b.Span
	return nil
}

// reverseRange reverses the cells in [lo, hi) in place.
func (v *VM) reverseRange(lo, hi int) error {
	for lo < hi-1 {
		a, err := v.Mem.ReadCell(lo)
		if err != nil {
			return err
		}
		b, err := v.Mem.ReadCell(hi - 1)
		if err != nil {
			return err
		}
		if err := v.Mem.WriteCell(lo, b); err != nil {
			return err
		}
		if err := v.Mem.WriteCell(hi-1, a); err != nil {
			return err
		}
		lo++
		hi--
	}
	return nil
}

// --- List construction (spec.md section 4.5.2) ---

func (v *VM) opOpenList(vm *VM) error {
	header := v.SP
	if err := v.Push(value.MustEncode(value.List, 0, 0)); err != nil {
		return err
	}
	v.openListHeaders = append(v.openListHeaders, header)
	v.ListDepth++
	return nil
}

func (v *VM) opCloseList(vm *VM) error {
	if len(v.openListHeaders) == 0 {
		return SyntaxError{"close-list without matching open-list"}
	}
	header := v.openListHeaders[len(v.openListHeaders)-1]
	v.openListHeaders = v.openListHeaders[:len(v.openListHeaders)-1]

	n := v.SP - header - 1
	hv := value.MustEncode(value.List, int32(n), 0)
	if err := v.Mem.WriteCell(header, hv); err != nil {
		return err
	}
	v.ListDepth--
	if v.ListDepth == 0 {
		if err := v.reverseRange(header, v.SP); err != nil {
			return err
		}
	}
	return nil
}

// --- Queries ---

func (v *VM) opLength(vm *VM) error {
	n, err := v.requireListHeader(v.SP-1, "length")
	if err != nil {
		return err
	}
	v.SP -= n + 1
	lenV, err := value.EncodeNumber(float32(n))
	if err != nil {
		return err
	}
	return v.Push(lenV)
}

func (v *VM) opSize(vm *VM) error {
	b, err := v.topBlock()
	if err != nil {
		return err
	}
	n, err := v.requireListHeader(b.Start+b.Span-1, "size")
	if err != nil {
		v.SP -= b.Span
		return v.Push(value.NilValue)
	}
	blocks, err := v.walkElements(b.Start+b.Span-1, n)
	if err != nil {
		return err
	}
	v.SP -= b.Span
	sizeV, err := value.EncodeNumber(float32(len(blocks)))
	if err != nil {
		return err
	}
	return v.Push(sizeV)
}

func (v *VM) listElements() ([]elementBlock, int, error) {
	top, err := v.Peek()
	if err != nil {
		return nil, 0, err
	}
	d := value.Decode(top)
	if d.Tag != value.List {
		return nil, 0, TypeError{"list-op", d.Tag.String()}
	}
	n := int(d.Payload)
	blocks, err := v.walkElements(v.SP-1, n)
	return blocks, n, err
}

func (v *VM) opHead(vm *VM) error {
	top, err := v.Peek()
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag != value.List {
		v.SP--
		return v.Push(value.NilValue)
	}
	n := int(d.Payload)
	header := v.SP - 1
	blocks, err := v.walkElements(header, n)
	if err != nil {
		return err
	}
	v.SP -= n + 1
	if len(blocks) == 0 {
		return v.Push(value.NilValue)
	}
	e0 := blocks[0]
	cells, err := v.readCells(e0.Start, e0.Span)
	if err != nil {
		return err
	}
	if v.SP+e0.Span > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	if err := v.writeCells(v.SP, cells); err != nil {
		return err
	}
	v.SP += e0.Span
	return nil
}

func (v *VM) opTail(vm *VM) error {
	top, err := v.Peek()
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag != value.List {
		v.SP--
		return v.Push(value.NilValue)
	}
	n := int(d.Payload)
	header := v.SP - 1
	blocks, err := v.walkElements(header, n)
	if err != nil {
		return err
	}
	v.SP -= n + 1
	if len(blocks) == 0 {
		return v.pushEmptyList()
	}
	rest := blocks[1:]
	return v.pushListFromLogicalBlocks(rest)
}

func (v *VM) opUncons(vm *VM) error {
	if err := v.opDup(nil); err != nil {
		return err
	}
	if err := v.opTail(nil); err != nil {
		return err
	}
	// stack: ...list tail ; want ...tail head -- swap tail to bottom then head
	if err := v.opSwap(nil); err != nil {
		return err
	}
	return v.opHead(nil)
}

func (v *VM) opCons(vm *VM) error {
	// (list val -- list'): prepend val as new logical head.
	valBlock, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	top, err := v.PeekAt(valBlock.Span)
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag != value.List {
		return TypeError{"cons", d.Tag.String()}
	}
	n := int(d.Payload)
	header := valBlock.Start - 1
	blocks, err := v.walkElements(header, n)
	if err != nil {
		return err
	}
	valCells, err := v.readCells(valBlock.Start, valBlock.Span)
	if err != nil {
		return err
	}
	newBlocks := append([]elementBlock{{Start: valBlock.Start, Span: valBlock.Span}}, blocks...)
	_ = valCells
	return v.rebuildListFrom(header-n, header+1, newBlocks)
}

func (v *VM) opDropHead(vm *VM) error {
	return v.opTail(nil)
}

// pushEmptyList pushes a LIST header with slot count 0.
func (v *VM) pushEmptyList() error {
	return v.Push(value.MustEncode(value.List, 0, 0))
}

// pushListFromLogicalBlocks builds a brand-new list on top of the stack
// from blocks given in logical order, copying each block's own cells
// verbatim (spec.md reverse-list physical layout: the last logical element
// is written lowest, the first lands just below the header).
func (v *VM) pushListFromLogicalBlocks(blocks []elementBlock) error {
	// Read every source block's cells before writing any of them: the
	// destination range (starting at the current SP) can overlap a block
	// still to be read, since shrinking SP to remove an old list often
	// lands exactly on top of that list's own former payload.
	data := make([][]float32, len(blocks))
	total := 0
	for i, b := range blocks {
		cells, err := v.readCells(b.Start, b.Span)
		if err != nil {
			return err
		}
		data[i] = cells
		total += b.Span
	}
	start := v.SP
	if start+total+1 > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	pos := start
	for i := len(data) - 1; i >= 0; i-- {
		if err := v.writeCells(pos, data[i]); err != nil {
			return err
		}
		pos += len(data[i])
	}
	hv := value.MustEncode(value.List, int32(total), 0)
	if err := v.Mem.WriteCell(pos, hv); err != nil {
		return err
	}
	v.SP = pos + 1
	return nil
}

// rebuildListFrom replaces the stack region [regionStart, regionEnd) (which
// held an old list's payload+header) with a freshly laid out list built
// from blocks in logical order (last logical element lowest, as in
// pushListFromLogicalBlocks), then adjusts SP.
func (v *VM) rebuildListFrom(regionStart, regionEnd int, blocks []elementBlock) error {
	cellBlocks := make([][]float32, len(blocks))
	for i, b := range blocks {
		cells, err := v.readCells(b.Start, b.Span)
		if err != nil {
			return err
		}
		cellBlocks[i] = cells
	}
	pos := regionStart
	for i := len(cellBlocks) - 1; i >= 0; i-- {
		if err := v.writeCells(pos, cellBlocks[i]); err != nil {
			return err
		}
		pos += len(cellBlocks[i])
	}
	total := pos - regionStart
	hv := value.MustEncode(value.List, int32(total), 0)
	if err := v.Mem.WriteCell(pos, hv); err != nil {
		return err
	}
	v.SP = pos + 1
	return nil
}

func (v *VM) opConcat(vm *VM) error {
	bBlock, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	bTop, err := v.Mem.ReadCell(bBlock.Start + bBlock.Span - 1)
	if err != nil {
		return err
	}
	bd := value.Decode(bTop)
	if bd.Tag != value.List {
		return TypeError{"concat", bd.Tag.String()}
	}
	bBlocks, err := v.walkElements(bBlock.Start+bBlock.Span-1, int(bd.Payload))
	if err != nil {
		return err
	}

	aTopAddr := bBlock.Start - 1
	aTop, err := v.Mem.ReadCell(aTopAddr)
	if err != nil {
		return err
	}
	ad := value.Decode(aTop)
	if ad.Tag != value.List {
		return TypeError{"concat", ad.Tag.String()}
	}
	aBlocks, err := v.walkElements(aTopAddr, int(ad.Payload))
	if err != nil {
		return err
	}

	regionStart := aTopAddr - int(ad.Payload)
	all := append(append([]elementBlock{}, aBlocks...), bBlocks...)
	return v.rebuildListFrom(regionStart, v.SP, all)
}

func (v *VM) opReverse(vm *VM) error {
	top, err := v.Peek()
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag != value.List {
		return TypeError{"reverse", d.Tag.String()}
	}
	header := v.SP - 1
	n := int(d.Payload)
	blocks, err := v.walkElements(header, n)
	if err != nil {
		return err
	}
	// new physical low->high = old logical order: write blocks back in the
	// order they were collected, starting at the lowest payload address.
	// Read every block before writing any -- the destination range overlaps
	// the source range here.
	data := make([][]float32, len(blocks))
	for i, b := range blocks {
		cells, err := v.readCells(b.Start, b.Span)
		if err != nil {
			return err
		}
		data[i] = cells
	}
	pos := header - n
	for _, cells := range data {
		if err := v.writeCells(pos, cells); err != nil {
			return err
		}
		pos += len(cells)
	}
	return nil
}

func (v *VM) opPack(vm *VM) error {
	countV, err := v.Pop()
	if err != nil {
		return err
	}
	n := int(value.Decode(countV).Number)
	if n < 0 {
		return TypeError{"pack", "negative count"}
	}
	blocks := make([]elementBlock, n)
	cursor := v.SP
	for i := n - 1; i >= 0; i-- {
		span, err := v.spanAt(cursor - 1)
		if err != nil {
			return err
		}
		start := cursor - span
		blocks[i] = elementBlock{Start: start, Span: span}
		cursor = start
	}
	v.SP = cursor // the packed values are replaced by the new list
	return v.pushListFromLogicalBlocks(blocks)
}

func (v *VM) opUnpack(vm *VM) error {
	blocks, _, err := v.listElements()
	if err != nil {
		return err
	}
	header := v.SP - 1
	n, _ := v.requireListHeader(header, "unpack")
	cells := make([][]float32, len(blocks))
	for i, b := range blocks {
		c, err := v.readCells(b.Start, b.Span)
		if err != nil {
			return err
		}
		cells[i] = c
	}
	v.SP -= n + 1
	// push elements back in original push order: the first logical element
	// was pushed first and ends up deepest.
	for i := 0; i < len(cells); i++ {
		if err := v.writeCells(v.SP, cells[i]); err != nil {
			return err
		}
		v.SP += len(cells[i])
	}
	return nil
}

func (v *VM) opEnlist(vm *VM) error {
	top, err := v.Peek()
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag == value.List {
		return nil
	}
	b, err := v.nthBlockFromTop(0)
	if err != nil {
		return err
	}
	return v.pushListFromLogicalBlocks([]elementBlock{b})
}
