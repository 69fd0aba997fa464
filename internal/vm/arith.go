package vm

import (
	"math"

	"github.com/tacit-lang/tacit/internal/value"
)

// Arithmetic and comparison operators broadcast over lists elementwise,
// cycling the shorter operand and recursing into nested lists (spec.md
// section 4.6). Implemented here over a small decoded tree (elemNode)
// rather than directly over cell spans, since the result's shape generally
// differs from either operand's shape.

type elemNode struct {
	isList bool
	scalar float32
	items  []elemNode // logical order, only when isList
}

func (n elemNode) span() int {
	if !n.isList {
		return 1
	}
	s := 0
	for _, it := range n.items {
		s += it.span()
	}
	return s + 1
}

// readNode decodes the logical element whose top (highest-address) cell is
// at addr into a tree, returning the tree and the number of cells it spans.
// Any non-LIST cell (a number or another tagged value) becomes a scalar
// leaf; the arithmetic operators reject non-number leaves themselves.
func (v *VM) readNode(addr int) (elemNode, int, error) {
	c, err := v.Mem.ReadCell(addr)
	if err != nil {
		return elemNode{}, 0, err
	}
	d := value.Decode(c)
	switch d.Tag {
	case value.Number:
		return elemNode{scalar: c}, 1, nil
	case value.List:
		n := int(d.Payload)
		blocks, err := v.walkElements(addr, n)
		if err != nil {
			return elemNode{}, 0, err
		}
		items := make([]elemNode, len(blocks))
		for i, b := range blocks {
			node, _, err := v.readNode(b.Start + b.Span - 1)
			if err != nil {
				return elemNode{}, 0, err
			}
			items[i] = node
		}
		return elemNode{isList: true, items: items}, n + 1, nil
	default:
		return elemNode{scalar: c}, 1, nil
	}
}

// writeNode serializes a tree back into cells starting at the lowest
// address, returning the next free address after it. A list's items are
// written last logical item lowest, so its first item sits just below the
// header, matching the reverse-list layout walkElements reads.
func (v *VM) writeNode(pos int, n elemNode) (int, error) {
	if !n.isList {
		if err := v.Mem.WriteCell(pos, n.scalar); err != nil {
			return 0, err
		}
		return pos + 1, nil
	}
	cur := pos
	var err error
	for i := len(n.items) - 1; i >= 0; i-- {
		cur, err = v.writeNode(cur, n.items[i])
		if err != nil {
			return 0, err
		}
	}
	total := cur - pos
	hv := value.MustEncode(value.List, int32(total), 0)
	if err := v.Mem.WriteCell(cur, hv); err != nil {
		return 0, err
	}
	return cur + 1, nil
}

func broadcastBinary(a, b elemNode, f func(a, b float32) (float32, error)) (elemNode, error) {
	if !a.isList && !b.isList {
		if value.Decode(a.scalar).Tag != value.Number || value.Decode(b.scalar).Tag != value.Number {
			return elemNode{}, BroadcastTypeMismatchError{"arith"}
		}
		r, err := f(a.scalar, b.scalar)
		if err != nil {
			return elemNode{}, err
		}
		return elemNode{scalar: r}, nil
	}
	if !a.isList {
		return broadcastBinary(elemNode{isList: true, items: []elemNode{a}}.expandTo(len(b.items)), b, f)
	}
	if !b.isList {
		return broadcastBinary(a, elemNode{isList: true, items: []elemNode{b}}.expandTo(len(a.items)), f)
	}
	if len(a.items) == 0 || len(b.items) == 0 {
		return elemNode{isList: true, items: nil}, nil
	}
	n := len(a.items)
	if len(b.items) > n {
		n = len(b.items)
	}
	items := make([]elemNode, n)
	for i := 0; i < n; i++ {
		r, err := broadcastBinary(a.items[i%len(a.items)], b.items[i%len(b.items)], f)
		if err != nil {
			return elemNode{}, err
		}
		items[i] = r
	}
	return elemNode{isList: true, items: items}, nil
}

// expandTo repeats a single-item node's item to fill n slots, used when one
// broadcast operand is a bare scalar standing in for a cycled singleton.
func (n elemNode) expandTo(count int) elemNode {
	if count <= 1 {
		return n
	}
	items := make([]elemNode, count)
	for i := range items {
		items[i] = n.items[0]
	}
	return elemNode{isList: true, items: items}
}

func mapNode(n elemNode, f func(float32) (float32, error)) (elemNode, error) {
	if !n.isList {
		if value.Decode(n.scalar).Tag != value.Number {
			return elemNode{}, BroadcastTypeMismatchError{"arith"}
		}
		r, err := f(n.scalar)
		if err != nil {
			return elemNode{}, err
		}
		return elemNode{scalar: r}, nil
	}
	items := make([]elemNode, len(n.items))
	for i, it := range n.items {
		r, err := mapNode(it, f)
		if err != nil {
			return elemNode{}, err
		}
		items[i] = r
	}
	return elemNode{isList: true, items: items}, nil
}

func (v *VM) binaryBroadcastOp(name string, f func(a, b float32) (float32, error)) func(*VM) error {
	return func(vm *VM) error {
		bBlock, err := v.nthBlockFromTop(0)
		if err != nil {
			return err
		}
		aBlock, err := v.nthBlockFromTop(1)
		if err != nil {
			return err
		}

		// case/of's `default` clause compiles a SENTINEL(DEFAULT) literal
		// that must compare equal to anything (spec.md section 4.5.5),
		// bypassing the usual "only Number/List may broadcast" rule.
		if name == "eq" && (bBlock.Span == 1 || aBlock.Span == 1) {
			if isDefaultCell(v, bBlock) || isDefaultCell(v, aBlock) {
				v.SP = aBlock.Start
				one, err := value.EncodeNumber(1)
				if err != nil {
					return err
				}
				return v.Push(one)
			}
		}

		bNode, _, err := v.readNode(bBlock.Start + bBlock.Span - 1)
		if err != nil {
			return err
		}
		aNode, _, err := v.readNode(aBlock.Start + aBlock.Span - 1)
		if err != nil {
			return err
		}
		result, err := broadcastBinary(aNode, bNode, f)
		if err != nil {
			return err
		}
		span := result.span()
		start := aBlock.Start
		if start+span > v.Mem.StackEnd() {
			return StackOverflowError{"data"}
		}
		newSP, err := v.writeNode(start, result)
		if err != nil {
			return err
		}
		v.SP = newSP
		return nil
	}
}

func (v *VM) unaryBroadcastOp(f func(float32) (float32, error)) func(*VM) error {
	return func(vm *VM) error {
		b, err := v.topBlock()
		if err != nil {
			return err
		}
		node, _, err := v.readNode(b.Start + b.Span - 1)
		if err != nil {
			return err
		}
		result, err := mapNode(node, f)
		if err != nil {
			return err
		}
		span := result.span()
		start := b.Start
		if start+span > v.Mem.StackEnd() {
			return StackOverflowError{"data"}
		}
		newSP, err := v.writeNode(start, result)
		if err != nil {
			return err
		}
		v.SP = newSP
		return nil
	}
}

// isDefaultCell reports whether a single-cell block (span 1) holds the
// DEFAULT sentinel.
func isDefaultCell(v *VM, b elementBlock) bool {
	if b.Span != 1 {
		return false
	}
	c, err := v.Mem.ReadCell(b.Start)
	if err != nil {
		return false
	}
	return value.IsDefault(c)
}

func numOp(op func(a, b float32) float32) func(float32, float32) (float32, error) {
	return func(a, b float32) (float32, error) { return value.EncodeNumber(op(a, b)) }
}

func boolOp(pred func(a, b float32) bool) func(float32, float32) (float32, error) {
	return func(a, b float32) (float32, error) {
		if pred(a, b) {
			return value.EncodeNumber(1)
		}
		return value.EncodeNumber(0)
	}
}

var (
	addFn = numOp(func(a, b float32) float32 { return a + b })
	subFn = numOp(func(a, b float32) float32 { return a - b })
	mulFn = numOp(func(a, b float32) float32 { return a * b })
	divFn = numOp(func(a, b float32) float32 { return a / b })
	powFn = numOp(func(a, b float32) float32 { return float32(math.Pow(float64(a), float64(b))) })
	modFn = numOp(func(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) })
	minFn = numOp(func(a, b float32) float32 {
		if a < b {
			return a
		}
		return b
	})
	maxFn = numOp(func(a, b float32) float32 {
		if a > b {
			return a
		}
		return b
	})
	eqFn = boolOp(func(a, b float32) bool { return a == b })
	ltFn = boolOp(func(a, b float32) bool { return a < b })
	leFn = boolOp(func(a, b float32) bool { return a <= b })
	gtFn = boolOp(func(a, b float32) bool { return a > b })
	geFn = boolOp(func(a, b float32) bool { return a >= b })
)

func unaryNum(op func(float32) float32) func(float32) (float32, error) {
	return func(a float32) (float32, error) { return value.EncodeNumber(op(a)) }
}

var (
	negFn   = unaryNum(func(a float32) float32 { return -a })
	recipFn = unaryNum(func(a float32) float32 { return 1 / a })
	floorFn = unaryNum(func(a float32) float32 { return float32(math.Floor(float64(a))) })
	notFn = unaryNum(func(a float32) float32 {
		if a == 0 {
			return 1
		}
		return 0
	})
	signFn = unaryNum(func(a float32) float32 {
		switch {
		case a > 0:
			return 1
		case a < 0:
			return -1
		default:
			return 0
		}
	})
	sqrtFn = unaryNum(func(a float32) float32 { return float32(math.Sqrt(float64(a))) })
	expFn  = unaryNum(func(a float32) float32 { return float32(math.Exp(float64(a))) })
	lnFn   = unaryNum(func(a float32) float32 { return float32(math.Log(float64(a))) })
	logFn  = unaryNum(func(a float32) float32 { return float32(math.Log10(float64(a))) })
)
