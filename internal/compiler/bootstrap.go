package compiler

import (
	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
)

// builtinWords lists every opcode reachable by name from source text, along
// with the surface spellings that should resolve to it -- most words use
// their opcode name verbatim (spec.md section 4.2's word list), but the
// arithmetic operators, the comparisons (= < <= > >=) and `-rot` also
// answer to their symbolic spelling.
var builtinWords = []struct {
	op       bytecode.Op
	aliases  []string
}{
	{bytecode.Dup, []string{"dup"}},
	{bytecode.Drop, []string{"drop"}},
	{bytecode.Swap, []string{"swap"}},
	{bytecode.Over, []string{"over"}},
	{bytecode.Rot, []string{"rot"}},
	{bytecode.RevRot, []string{"revrot", "-rot"}},
	{bytecode.Nip, []string{"nip"}},
	{bytecode.Tuck, []string{"tuck"}},
	{bytecode.Pick, []string{"pick"}},

	{bytecode.OpenList, []string{"open-list"}},
	{bytecode.CloseList, []string{"close-list"}},
	{bytecode.Length, []string{"length"}},
	{bytecode.Size, []string{"size"}},
	{bytecode.Head, []string{"head"}},
	{bytecode.Tail, []string{"tail"}},
	{bytecode.Uncons, []string{"uncons"}},
	{bytecode.Cons, []string{"cons"}},
	{bytecode.DropHead, []string{"drop-head"}},
	{bytecode.Concat, []string{"concat"}},
	{bytecode.Reverse, []string{"reverse"}},
	{bytecode.Pack, []string{"pack"}},
	{bytecode.Unpack, []string{"unpack"}},
	{bytecode.Enlist, []string{"enlist"}},

	{bytecode.Slot, []string{"slot"}},
	{bytecode.Elem, []string{"elem"}},
	{bytecode.Fetch, []string{"fetch"}},
	{bytecode.Store, []string{"store"}},
	{bytecode.Ref, []string{"ref"}},
	{bytecode.Unref, []string{"unref"}},
	{bytecode.Walk, []string{"walk"}},
	{bytecode.Select, []string{"select"}},

	{bytecode.Find, []string{"find"}},
	{bytecode.Keys, []string{"keys"}},
	{bytecode.Values, []string{"values"}},

	{bytecode.Add, []string{"add", "+"}},
	{bytecode.Sub, []string{"sub", "-"}},
	{bytecode.Mul, []string{"mul", "*"}},
	{bytecode.Div, []string{"div", "/"}},
	{bytecode.Pow, []string{"pow"}},
	{bytecode.Mod, []string{"mod"}},
	{bytecode.Min, []string{"min"}},
	{bytecode.Max, []string{"max"}},
	{bytecode.Eq, []string{"eq", "="}},
	{bytecode.Lt, []string{"lt", "<"}},
	{bytecode.Le, []string{"le", "<="}},
	{bytecode.Gt, []string{"gt", ">"}},
	{bytecode.Ge, []string{"ge", ">="}},
	{bytecode.Neg, []string{"neg"}},
	{bytecode.Recip, []string{"recip"}},
	{bytecode.Floor, []string{"floor"}},
	{bytecode.Not, []string{"not"}},
	{bytecode.Sign, []string{"sign"}},
	{bytecode.Sqrt, []string{"sqrt"}},
	{bytecode.Exp, []string{"exp"}},
	{bytecode.Ln, []string{"ln"}},
	{bytecode.Log, []string{"log"}},

	{bytecode.Dispatch, []string{"dispatch"}},
}

// Bootstrap seeds the dictionary with a BUILTIN-tagged entry per opcode name
// in builtinWords, so that a bare identifier in source text resolves through
// the ordinary dictionary lookup path (CompileCall/CompileSymbolRef) exactly
// like a user-defined word would -- there is no separate "is this a builtin"
// branch anywhere else in the compiler or parser. Grounded on gothird's
// first.go, which likewise seeds its symbol table with the FIRST primitive
// words before any user input is read.
func Bootstrap(c *Compiler) error {
	for _, w := range builtinWords {
		payload := value.MustEncode(value.Builtin, int32(w.op), 0)
		for _, name := range w.aliases {
			if err := c.Define(name, payload); err != nil {
				return err
			}
		}
	}
	return nil
}
