package vm

import (
	"math"

	"github.com/tacit-lang/tacit/internal/value"
)

// A maplist is a list whose elements are each a 2-element [key, value] list
// (spec.md: capsules are "maplists of method-name strings to CODE values").
// find/keys/values treat any list of such pairs this way.

func cellsEqual(a, b float32) bool { return math.Float32bits(a) == math.Float32bits(b) }

// pairsOf decodes a maplist's top cell into its entries, each itself
// decoded as a [key, value] node pair.
func (v *VM) pairsOf(topAddr int) ([][2]elemNode, error) {
	c, err := v.Mem.ReadCell(topAddr)
	if err != nil {
		return nil, err
	}
	d := value.Decode(c)
	if d.Tag != value.List {
		return nil, TypeError{"maplist", d.Tag.String()}
	}
	blocks, err := v.walkElements(topAddr, int(d.Payload))
	if err != nil {
		return nil, err
	}
	pairs := make([][2]elemNode, 0, len(blocks))
	for _, b := range blocks {
		node, _, err := v.readNode(b.Start + b.Span - 1)
		if err != nil {
			return nil, err
		}
		if !node.isList || len(node.items) != 2 {
			return nil, TypeError{"maplist", "entry is not a [key value] pair"}
		}
		pairs = append(pairs, [2]elemNode{node.items[0], node.items[1]})
	}
	return pairs, nil
}

func (v *VM) opFind(vm *VM) error {
	keyV, err := v.Pop()
	if err != nil {
		return err
	}
	top, err := v.Peek()
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag != value.List {
		return TypeError{"find", d.Tag.String()}
	}
	pairs, err := v.pairsOf(v.SP - 1)
	if err != nil {
		return err
	}
	v.SP -= int(d.Payload) + 1

	for _, p := range pairs {
		if !p[0].isList && cellsEqual(p[0].scalar, keyV) {
			span := p[1].span()
			if v.SP+span > v.Mem.StackEnd() {
				return StackOverflowError{"data"}
			}
			newSP, err := v.writeNode(v.SP, p[1])
			if err != nil {
				return err
			}
			v.SP = newSP
			return nil
		}
	}
	return v.Push(value.DefaultValue)
}

func (v *VM) opKeys(vm *VM) error {
	return v.projectPairs(func(p [2]elemNode) elemNode { return p[0] })
}

func (v *VM) opValues(vm *VM) error {
	return v.projectPairs(func(p [2]elemNode) elemNode { return p[1] })
}

func (v *VM) projectPairs(pick func([2]elemNode) elemNode) error {
	top, err := v.Peek()
	if err != nil {
		return err
	}
	d := value.Decode(top)
	if d.Tag != value.List {
		return TypeError{"maplist", d.Tag.String()}
	}
	pairs, err := v.pairsOf(v.SP - 1)
	if err != nil {
		return err
	}
	v.SP -= int(d.Payload) + 1

	items := make([]elemNode, len(pairs))
	for i, p := range pairs {
		items[i] = pick(p)
	}
	result := elemNode{isList: true, items: items}
	span := result.span()
	if v.SP+span > v.Mem.StackEnd() {
		return StackOverflowError{"data"}
	}
	newSP, err := v.writeNode(v.SP, result)
	if err != nil {
		return err
	}
	v.SP = newSP
	return nil
}
