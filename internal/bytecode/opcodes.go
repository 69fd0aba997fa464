// Package bytecode names Tacit's opcode set and the operand widths the
// compiler emits and the interpreter decodes (spec.md section 4.4).
// Grounded on gothird's first.go vmCodeTable/vmCodeNames: a dense, indexable
// opcode enum dispatched through a function-pointer array, not closures.
package bytecode

// Op is one built-in opcode. Built-ins occupy byte values [0, MinUserOp); a
// code-stream byte at or above MinUserOp is instead the first byte of a
// 2-byte little-endian user-word call, whose first byte has its high bit
// set (spec.md section 4.4: "high bit in the first byte marks
// user-word call").
type Op uint8

const (
	// Control / frame
	Nop Op = iota
	LiteralNumber   // f32 operand
	Literal16       // i16 operand (used to patch branch offsets as data)
	LiteralString   // u16 digest address operand
	Branch          // i16 operand: unconditional relative jump
	BranchFalse     // i16 operand: pop, jump if falsy
	Reserve         // u16 operand: advance rsp by N cells for locals
	Exit            // end a user word: restore rsp/bp/ip
	CallBuiltin     // u8 operand: the builtin Op to dispatch (used by @name push + run)

	// Stack
	Dup
	Drop
	Swap
	Over
	Rot
	RevRot
	Nip
	Tuck
	Pick // pops index

	// Lists
	OpenList
	CloseList
	Length
	Size
	Head
	Tail
	Uncons
	Cons
	DropHead
	Concat
	Reverse
	Pack   // pops count
	Unpack
	Enlist

	// Addressing / references
	Slot // pops index
	Elem // pops index
	Fetch
	Store
	Ref
	Unref
	Walk

	// Maplists
	Find
	Keys
	Values

	// Locals / globals
	LocalRef   // u16 operand: slot number
	GlobalRef  // u16 operand: data-segment address
	VarDecl    // reserve+init a local from TOS; compiler-only, never compiled standalone
	GlobalDecl // allocate+init a global from TOS; compiler-only

	// Arithmetic (broadcasting)
	Add
	Sub
	Mul
	Div
	Pow
	Mod
	Min
	Max
	Eq
	Lt
	Le
	Gt
	Ge
	Neg
	Recip
	Floor
	Not
	Sign
	Sqrt
	Exp
	Ln
	Log

	// Capsules / dispatch
	Dispatch

	// Paths
	Select

	// Printing
	Print
	Raw

	// Dictionary
	Mark
	Forget

	opCount
)

// MinUserOp is the first code-stream byte value reserved for user-defined
// word calls: a first byte with its high bit set begins a 2-byte call
// rather than naming a builtin Op.
const MinUserOp = 128

// MaxUserOp is the largest representable user-word entry address: the
// call's first byte carries the marker bit plus the address's low 7 bits
// and its second byte the high 8 bits, leaving 15 bits of address space.
const MaxUserOp = 1<<15 - 1

var names = [opCount]string{
	Nop: "nop", LiteralNumber: "literal", Literal16: "literal16",
	LiteralString: "literal-string", Branch: "branch", BranchFalse: "branch-false",
	Reserve: "reserve", Exit: "exit", CallBuiltin: "call-builtin",
	Dup: "dup", Drop: "drop", Swap: "swap", Over: "over", Rot: "rot",
	RevRot: "revrot", Nip: "nip", Tuck: "tuck", Pick: "pick",
	OpenList: "open-list", CloseList: "close-list", Length: "length", Size: "size",
	Head: "head", Tail: "tail", Uncons: "uncons", Cons: "cons", DropHead: "drop-head",
	Concat: "concat", Reverse: "reverse", Pack: "pack", Unpack: "unpack", Enlist: "enlist",
	Slot: "slot", Elem: "elem", Fetch: "fetch", Store: "store", Ref: "ref",
	Unref: "unref", Walk: "walk", Find: "find", Keys: "keys", Values: "values",
	LocalRef: "local-ref", GlobalRef: "global-ref", VarDecl: "var", GlobalDecl: "global",
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Pow: "pow", Mod: "mod",
	Min: "min", Max: "max", Eq: "eq", Lt: "lt", Le: "le", Gt: "gt", Ge: "ge",
	Neg: "neg", Recip: "recip", Floor: "floor", Not: "not", Sign: "sign",
	Sqrt: "sqrt", Exp: "exp", Ln: "ln", Log: "log",
	Dispatch: "dispatch", Select: "select", Print: "print", Raw: "raw",
	Mark: "mark", Forget: "forget",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "op?"
}

// IsUserCall reports whether word (a 2-byte little-endian code-stream value)
// is a user-word call rather than a builtin Op: its first (low) byte has
// the high bit set.
func IsUserCall(word uint16) bool { return word&0x80 != 0 }

// EncodeUserCall packs a user word's entry address into the 2-byte
// little-endian form: first byte = marker bit | low 7 address bits, second
// byte = the remaining high 8 bits.
func EncodeUserCall(addr uint16) uint16 { return (addr>>7)<<8 | 0x80 | addr&0x7F }

// DecodeUserCall extracts the entry address from an EncodeUserCall result.
func DecodeUserCall(word uint16) uint16 { return (word>>8)<<7 | word&0x7F }
