// Package parser bridges internal/token's lexical stream to
// internal/compiler's byte-emitting assembler (spec.md section 6.1).
// It resolves bare identifiers against locals, capsule instance vars and the
// dictionary, drives the compile-time immediates (`:`, `;`, `if`, `else`,
// `case`, `of`, `default`, `var`, `global`, `capsule`, `does`), and runs each
// top-level form immediately after compiling it -- the classic Forth
// interactive-interpreter shape that gothird's own REPL loop follows.
package parser

import (
	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/compiler"
	"github.com/tacit-lang/tacit/internal/token"
	"github.com/tacit-lang/tacit/internal/vm"
)

// Parser holds one lexer and the shared compiler it feeds. A fresh Parser
// is cheap to construct per REPL command; the Compiler (and the VM it
// drives) persists across commands.
type Parser struct {
	lex *token.Lexer
	c   *compiler.Compiler

	hasBuf bool
	buf    token.Token

	// Print, when non-nil, is invoked for a bare top-level `.`/`raw`
	// identifier instead of the ordinary dictionary lookup (which would
	// otherwise report UndefinedWordError) -- spec.md section 6.2 keeps
	// the printer external to the core, so the core dictionary never
	// names `.`/`raw` as words; internal/repl installs this hook to let
	// the printer consume the stack at exactly the point the REPL line
	// names it. Only consulted outside a `:` definition, since the hook
	// fires immediately rather than compiling -- using `.`/`raw` inside a
	// word body falls through to the ordinary (erroring) lookup.
	Print func(raw bool) error
}

// New creates a Parser over src, compiling into c.
func New(c *compiler.Compiler, src string) *Parser {
	return &Parser{lex: token.New(src), c: c}
}

// SetPrintHook installs fn as the Parser's `.`/`raw` handler.
func (p *Parser) SetPrintHook(fn func(raw bool) error) { p.Print = fn }

// Parse compiles every top-level form in src into c, running each one
// immediately once it compiles cleanly (spec.md section 2: "the parser
// consults the dictionary and either compiles a literal or call opcode ...
// or invokes an immediate word"). Returns on the first error, leaving
// whatever was compiled (and already run) in place -- internal/repl is
// responsible for rewinding compiler.CP to compiler.BCP on error.
func Parse(c *compiler.Compiler, src string) error {
	return New(c, src).Run()
}

// Run is Parse over the Parser's own source, honoring any installed
// PrintHook -- internal/repl uses this instead of the package-level Parse
// so it can call SetPrintHook first.
func (p *Parser) Run() error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			p.consume()
			return nil
		}

		wasDefining := p.c.Defining()
		if err := p.parseTerm(); err != nil {
			return err
		}
		if !wasDefining && !p.c.Defining() {
			if err := p.c.AdvanceRun(); err != nil {
				return err
			}
		}
	}
}

func (p *Parser) next() (token.Token, error) {
	if p.hasBuf {
		p.hasBuf = false
		return p.buf, nil
	}
	return p.lex.Next()
}

func (p *Parser) peek() (token.Token, error) {
	if !p.hasBuf {
		tok, err := p.lex.Next()
		if err != nil {
			return token.Token{}, err
		}
		p.buf = tok
		p.hasBuf = true
	}
	return p.buf, nil
}

func (p *Parser) consume() {
	p.hasBuf = false
}

// parseTerm compiles exactly one surface-syntax form: a literal, a sigil
// reference, a grouping construct, a keyword immediate, or a word call.
func (p *Parser) parseTerm() error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	switch tok.Kind {
	case token.Number:
		return p.c.CompileLiteralNumber(tok.Num)
	case token.String, token.Symbol:
		return p.c.CompileLiteralString(tok.Text)
	case token.At:
		return p.c.CompileSymbolRef(tok.Text)
	case token.Amp:
		return p.compileRef(tok.Text)
	case token.LParen:
		return p.parseList()
	case token.LBrace:
		return p.parseBlock()
	case token.Arrow:
		return p.parseStore()
	case token.PlusArrow:
		return p.parseAugmentedStore()
	case token.Ident:
		return p.parseIdent(tok.Text)
	case token.RParen:
		return vm.SyntaxError{Message: "unexpected `)`"}
	case token.RBrace:
		return vm.SyntaxError{Message: "unexpected `}`"}
	case token.RBracket:
		return vm.SyntaxError{Message: "unexpected `]`"}
	case token.LBracket:
		return vm.SyntaxError{Message: "`[` outside a store path"}
	case token.EOF:
		return vm.SyntaxError{Message: "unexpected end of input"}
	default:
		return vm.SyntaxError{Message: "unexpected token " + tok.String()}
	}
}

// parseList compiles `( ... )`, a list literal built on the data stack at
// the point it runs.
func (p *Parser) parseList() error {
	if err := p.c.CompileOpcode(bytecode.OpenList); err != nil {
		return err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case token.RParen:
			p.consume()
			return p.c.CompileOpcode(bytecode.CloseList)
		case token.EOF:
			return vm.SyntaxError{Message: "unterminated list: missing `)`"}
		default:
			if err := p.parseTerm(); err != nil {
				return err
			}
		}
	}
}

// parseBlock compiles `{ ... }`, a deferred-execution CODE literal.
func (p *Parser) parseBlock() error {
	entry, err := p.c.BeginBlock()
	if err != nil {
		return err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case token.RBrace:
			p.consume()
			return p.c.EndBlock(entry)
		case token.EOF:
			return vm.SyntaxError{Message: "unterminated block: missing `}`"}
		default:
			if err := p.parseTerm(); err != nil {
				return err
			}
		}
	}
}

// expectIdentName reads the next token, requiring it to be a plain
// identifier (the name argument to `:`, `var`, `global`, `->`, `+>`).
func (p *Parser) expectIdentName(construct string) (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	if tok.Kind != token.Ident || token.IsKeyword(tok.Text) {
		return "", vm.SyntaxError{Message: "`" + construct + "` expects a name"}
	}
	return tok.Text, nil
}

// parseIdent dispatches a bare Ident token: a keyword immediate or a word
// reference (local, capsule var, or dictionary call).
func (p *Parser) parseIdent(name string) error {
	switch name {
	case ":":
		defName, err := p.expectIdentName(":")
		if err != nil {
			return err
		}
		return p.c.Colon(defName)
	case ";":
		return p.c.Semi()
	case "var":
		varName, err := p.expectIdentName("var")
		if err != nil {
			return err
		}
		return p.c.Var(varName)
	case "global":
		varName, err := p.expectIdentName("global")
		if err != nil {
			return err
		}
		return p.c.Global(varName)
	case "if":
		return p.c.If()
	case "else":
		return p.c.Else()
	case "case":
		return p.c.Case()
	case "of":
		return p.c.Of()
	case "default":
		return p.c.Default()
	case "capsule", "does":
		return p.parseCapsule()
	case ".", "raw":
		if p.Print != nil && !p.c.Defining() {
			return p.Print(name == "raw")
		}
		return p.compileIdentCall(name)
	default:
		return p.compileIdentCall(name)
	}
}

// compileIdentCall resolves a bare (non-keyword) identifier: a local's
// value, a capsule instance var's value, or a dictionary word call.
func (p *Parser) compileIdentCall(name string) error {
	if slot, ok := p.c.LookupLocal(name); ok {
		return p.c.CompileLocalFetch(slot)
	}
	if addr, ok := p.c.LookupCapsuleVar(name); ok {
		return p.c.CompileGlobalFetch(addr)
	}
	return p.c.CompileCall(name)
}

// compileRef resolves `&name`: a local ref, a capsule var ref, or a global
// ref. Capsule instance vars are plain heap cells, addressed exactly like
// globals.
func (p *Parser) compileRef(name string) error {
	if slot, ok := p.c.LookupLocal(name); ok {
		return p.c.CompileLocalRef(slot)
	}
	if addr, ok := p.c.LookupCapsuleVar(name); ok {
		return p.c.CompileGlobalRef(addr)
	}
	addr, found, err := p.c.GlobalHeaderAddr(name)
	if err != nil {
		return err
	}
	if !found {
		return vm.UndefinedWordError{Name: name}
	}
	return p.c.CompileGlobalRef(addr)
}

// resolveStoreTarget resolves the name on the left of `->`/`+>` to a
// (isLocal, slot) pair addressable by CompileStorePath/CompileAugmentedStore.
func (p *Parser) resolveStoreTarget(name string) (isLocal bool, slot int, err error) {
	if s, ok := p.c.LookupLocal(name); ok {
		return true, s, nil
	}
	if a, ok := p.c.LookupCapsuleVar(name); ok {
		return false, a, nil
	}
	addr, found, err := p.c.GlobalHeaderAddr(name)
	if err != nil {
		return false, 0, err
	}
	if !found {
		return false, 0, vm.UndefinedWordError{Name: name}
	}
	return false, addr, nil
}

// parseStore compiles `-> name` or `-> name[idx ...]`.
func (p *Parser) parseStore() error {
	name, err := p.expectIdentName("->")
	if err != nil {
		return err
	}
	var path []compiler.PathElem
	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.Kind == token.LBracket {
		p.consume()
		path, err = p.parsePathElems()
		if err != nil {
			return err
		}
	}
	isLocal, slot, err := p.resolveStoreTarget(name)
	if err != nil {
		return err
	}
	return p.c.CompileStorePath(isLocal, slot, path)
}

// parsePathElems reads bracket-path elements up to the closing `]`.
func (p *Parser) parsePathElems() ([]compiler.PathElem, error) {
	var elems []compiler.PathElem
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case token.RBracket:
			return elems, nil
		case token.Number:
			elems = append(elems, compiler.PathElem{Number: tok.Num})
		case token.String, token.Symbol:
			elems = append(elems, compiler.PathElem{IsString: true, String: tok.Text})
		case token.EOF:
			return nil, vm.SyntaxError{Message: "unterminated store path: missing `]`"}
		default:
			return nil, vm.SyntaxError{Message: "unexpected token in store path: " + tok.String()}
		}
	}
}

// parseAugmentedStore compiles `+> name` ("load, add, store").
func (p *Parser) parseAugmentedStore() error {
	name, err := p.expectIdentName("+>")
	if err != nil {
		return err
	}
	isLocal, slot, err := p.resolveStoreTarget(name)
	if err != nil {
		return err
	}
	return p.c.CompileAugmentedStore(isLocal, slot)
}
