package vm

import (
	"github.com/tacit-lang/tacit/internal/value"
)

// Dictionary is a linked list of heap-resident entries, each a 3-slot list
// [payload, nameRef, prevRef] capped with a LIST(3) header (spec.md section
// 5): "payload, name-string-ref, prev-entry-ref, HEADER(LIST:3)". Entries
// are bump-allocated from the DATA region and never reclaimed individually;
// Forget rewinds both the entry chain and the bump pointer to a checkpoint
// taken by Mark, the way gothird's core.go symbol table is checkpointed
// around nested compiles.
type Dictionary struct {
	vm      *VM
	latest  int // absolute cell address of the most recent entry's header, or 0 if empty
	heapTop int // next free absolute cell index in DATA
}

func newDictionary(v *VM) *Dictionary {
	return &Dictionary{vm: v, latest: 0, heapTop: v.Mem.DataBase()}
}

// AllocHeapCell bump-allocates a single, unnamed heap cell -- used by
// internal/compiler for capsule instance state, which needs a persistent
// storage slot without a dictionary entry (spec.md section 4.5.6: capsule
// state lives alongside the method table, not in the name-lookup chain).
func (d *Dictionary) AllocHeapCell() (int, error) { return d.alloc(1) }

// alloc bump-allocates n cells from the heap.
func (d *Dictionary) alloc(n int) (int, error) {
	if d.heapTop+n > d.vm.Mem.DataEnd() {
		return 0, HeapExhaustedError{Requested: n}
	}
	addr := d.heapTop
	d.heapTop += n
	return addr, nil
}

// Define appends a new entry binding name to payload (a CODE-tagged value
// for a compiled word, or any other tagged value for var/global) and
// returns the entry's header address.
func (d *Dictionary) Define(name string, payload float32) (int, error) {
	nameAddr, err := d.vm.Digest.Add(name)
	if err != nil {
		return 0, err
	}
	nameRef := value.MustEncode(value.String, int32(nameAddr), 0)

	var prevRef float32
	if d.latest == 0 {
		prevRef = value.NilValue
	} else {
		prevRef = value.MustEncode(value.DataRef, int32(d.latest), 0)
	}

	base, err := d.alloc(4)
	if err != nil {
		return 0, err
	}
	// physical low-to-high layout is the reverse of logical (payload,
	// nameRef, prevRef): [prevRef, nameRef, payload, HEADER(3)].
	if err := d.vm.Mem.WriteCell(base, prevRef); err != nil {
		return 0, err
	}
	if err := d.vm.Mem.WriteCell(base+1, nameRef); err != nil {
		return 0, err
	}
	if err := d.vm.Mem.WriteCell(base+2, payload); err != nil {
		return 0, err
	}
	header := base + 3
	if err := d.vm.Mem.WriteCell(header, value.MustEncode(value.List, 3, 0)); err != nil {
		return 0, err
	}
	d.latest = header
	return header, nil
}

func (d *Dictionary) payloadAt(header int) (float32, error)  { return d.vm.Mem.ReadCell(header - 1) }
func (d *Dictionary) nameRefAt(header int) (float32, error)   { return d.vm.Mem.ReadCell(header - 2) }
func (d *Dictionary) prevRefAt(header int) (float32, error)   { return d.vm.Mem.ReadCell(header - 3) }

// entryName reads and interns-resolves an entry's bound name back to a Go
// string, for Lookup and the dump printer.
func (d *Dictionary) entryName(header int) (string, error) {
	nameRefV, err := d.nameRefAt(header)
	if err != nil {
		return "", err
	}
	dec := value.Decode(nameRefV)
	if dec.Tag != value.String {
		return "", TypeError{"dictionary", dec.Tag.String()}
	}
	return d.vm.Digest.Get(uint16(dec.Payload))
}

// Lookup searches from the most recent entry backward (shadowing: a later
// definition of the same name wins) and returns its payload.
func (d *Dictionary) Lookup(name string) (payload float32, header int, found bool, err error) {
	for addr := d.latest; addr != 0; {
		n, err := d.entryName(addr)
		if err != nil {
			return 0, 0, false, err
		}
		if n == name {
			p, err := d.payloadAt(addr)
			if err != nil {
				return 0, 0, false, err
			}
			return p, addr, true, nil
		}
		prevRefV, err := d.prevRefAt(addr)
		if err != nil {
			return 0, 0, false, err
		}
		if value.IsNil(prevRefV) {
			break
		}
		addr = int(value.Decode(prevRefV).Payload)
	}
	return 0, 0, false, nil
}

// Mark records a checkpoint: the entry chain head and heap bump pointer,
// for Forget to rewind to (spec.md's compile-time scoping of capsule
// methods and local definitions).
type Mark struct {
	latest  int
	heapTop int
}

func (d *Dictionary) Mark() Mark { return Mark{latest: d.latest, heapTop: d.heapTop} }

// Forget rewinds the dictionary to a previously taken Mark, discarding
// every entry defined since (and reclaiming their heap cells).
func (d *Dictionary) Forget(m Mark) {
	d.latest = m.latest
	d.heapTop = m.heapTop
}

// Walk visits every entry from most-recently-defined to oldest, the same
// chain-following order Lookup uses, calling fn with each entry's header
// address, bound name and payload. internal/printer's dictionary dump walks
// this way rather than reaching into Dictionary's fields directly, the same
// boundary gothird's dumper.go crosses via exported vm.last/vm.load rather
// than vm-internal helpers.
func (d *Dictionary) Walk(fn func(header int, name string, payload float32) error) error {
	for addr := d.latest; addr != 0; {
		name, err := d.entryName(addr)
		if err != nil {
			return err
		}
		payload, err := d.payloadAt(addr)
		if err != nil {
			return err
		}
		if err := fn(addr, name, payload); err != nil {
			return err
		}
		prevRefV, err := d.prevRefAt(addr)
		if err != nil {
			return err
		}
		if value.IsNil(prevRefV) {
			return nil
		}
		addr = int(value.Decode(prevRefV).Payload)
	}
	return nil
}
