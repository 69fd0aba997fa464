package parser

import (
	"github.com/tacit-lang/tacit/internal/token"
	"github.com/tacit-lang/tacit/internal/vm"
)

// parseCapsule compiles `capsule case key of body ; key of body ; ; ;`
// (spec.md section 4.5.6). Unlike an ordinary `case`, each clause body
// becomes its own CODE entry rather than inline branch code, since a
// capsule's method table stores CODE references to be looked up later by
// `dispatch`, not values computed once at construction time. This whole
// construct is therefore parsed as one self-contained unit rather than
// through the generic `case`/`of`/`default`/`;` dispatch in parser.go.
//
// The scenario this is grounded on (spec.md section 8) never follows a
// capsule constructor's closing `;` with more body -- a capsule is always
// the tail expression of the `:` definition that builds it, and the
// definition's own closing `;` is never separately typed. So once the last
// clause's closing `;` is seen, this also closes the capsule's method-table
// list and the enclosing definition in one step, matching the source
// exactly (three `;` total for two clauses: one per clause, one final).
func (p *Parser) parseCapsule() error {
	if err := p.c.BeginCapsule(); err != nil {
		return err
	}
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != token.Ident || tok.Text != "case" {
		return vm.SyntaxError{Message: "`capsule` must be followed by `case`"}
	}
	return p.parseCapsuleCase()
}

// parseCapsuleCase consumes one capsule's `key of body ;` clauses until the
// standalone closing `;`, then finalizes both the capsule and the
// enclosing definition.
func (p *Parser) parseCapsuleCase() error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case token.String, token.Symbol:
			if err := p.parseCapsuleClause(tok.Text); err != nil {
				return err
			}
		case token.Ident:
			if tok.Text != ";" {
				return vm.SyntaxError{Message: "expected a string/symbol method key or `;`, got " + tok.Text}
			}
			if err := p.c.EndCapsule(); err != nil {
				return err
			}
			return p.c.Semi()
		default:
			return vm.SyntaxError{Message: "unexpected token in capsule case: " + tok.String()}
		}
	}
}

// parseCapsuleClause compiles one `key of body ;` pair into a standalone
// CODE entry and its [key, CODE] method-table slot.
func (p *Parser) parseCapsuleClause(key string) error {
	ofTok, err := p.next()
	if err != nil {
		return err
	}
	if ofTok.Kind != token.Ident || ofTok.Text != "of" {
		return vm.SyntaxError{Message: "expected `of` after capsule case key " + key}
	}
	entry, err := p.c.BeginMethod()
	if err != nil {
		return err
	}
	if err := p.parseUntilSemi(); err != nil {
		return err
	}
	if err := p.c.EndMethod(); err != nil {
		return err
	}
	return p.c.CompileMethodEntry(key, entry)
}

// parseUntilSemi compiles terms up to (and consuming) a bare `;` token --
// used for a capsule clause body, which manages its own closing `;`
// directly rather than through compiler.Semi (that would try to close a
// `case`/`if` frame or the enclosing definition, neither of which applies
// here).
func (p *Parser) parseUntilSemi() error {
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Kind == token.Ident && tok.Text == ";" {
			p.consume()
			return nil
		}
		if tok.Kind == token.EOF {
			return vm.SyntaxError{Message: "unterminated capsule clause: missing `;`"}
		}
		if err := p.parseTerm(); err != nil {
			return err
		}
	}
}
