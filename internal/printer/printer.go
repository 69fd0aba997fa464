// Package printer implements Tacit's `.` and `raw` console output words
// (spec.md section 6.2): "the core exposes to the printer: the stack
// iterator, the digest getter, and the tagged-value decoder." Neither
// operator is a dictionary word -- internal/parser invokes a Printer
// directly through its Print hook, the same separation gothird keeps
// between first.go's VM and its own vmDumper/dump formatting in dumper.go,
// which never lives inside the VM package either.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

// Printer formats values popped off a VM's data stack and writes them to
// Out, one line per call to Dot or Raw.
type Printer struct {
	VM  *vm.VM
	Out func(string) error
}

// New creates a Printer over v, writing formatted lines through write.
func New(v *vm.VM, write func(string) error) *Printer {
	return &Printer{VM: v, Out: write}
}

// Dot implements `.`: pops exactly one logical value (a whole list's
// payload and header together, when the top is a list) and writes its
// formatted form.
func (p *Printer) Dot() error {
	start, span, err := p.VM.TopSpan()
	if err != nil {
		return err
	}
	s, err := p.formatAt(start + span - 1)
	if err != nil {
		return err
	}
	p.VM.TruncateStack(start)
	return p.Out(s)
}

// Raw implements `raw`: pops exactly one cell (never list-aware) and
// writes its tag/payload/meta verbatim, for debugging the encoding itself
// rather than the value it represents.
func (p *Printer) Raw() error {
	v, err := p.VM.Pop()
	if err != nil {
		return err
	}
	d := value.Decode(v)
	if d.Tag == value.Number {
		return p.Out(fmt.Sprintf("NUMBER %s", formatNumber(d.Number)))
	}
	return p.Out(fmt.Sprintf("%s payload=%d meta=%d", d.Tag, d.Payload, d.Meta))
}

// formatAt renders the logical value whose highest cell is at addr,
// recursing into nested LIST payloads (spec.md section 3.3).
func (p *Printer) formatAt(addr int) (string, error) {
	cell, err := p.VM.Mem.ReadCell(addr)
	if err != nil {
		return "", err
	}
	d := value.Decode(cell)
	switch d.Tag {
	case value.Number:
		return formatNumber(d.Number), nil
	case value.Sentinel:
		switch d.Payload {
		case value.Nil:
			return "nil", nil
		case value.Default:
			return "default", nil
		default:
			return fmt.Sprintf("sentinel(%d)", d.Payload), nil
		}
	case value.String:
		s, err := p.VM.Digest.Get(uint16(d.Payload))
		if err != nil {
			return "", err
		}
		return strconv.Quote(s), nil
	case value.Code:
		return fmt.Sprintf("<code @%d>", d.Payload), nil
	case value.Builtin:
		return bytecode.Op(d.Payload).String(), nil
	case value.List:
		return p.formatList(addr, int(d.Payload))
	case value.Local:
		return fmt.Sprintf("local#%d", d.Payload), nil
	case value.StackRef, value.RStackRef, value.GlobalRef, value.DataRef:
		return fmt.Sprintf("&%s@%d", d.Tag, d.Payload), nil
	default:
		return fmt.Sprintf("?%s(%d)", d.Tag, d.Payload), nil
	}
}

func (p *Printer) formatList(header, n int) (string, error) {
	spans, err := p.VM.ListElements(header, n)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(spans))
	for i, s := range spans {
		str, err := p.formatAt(s.Start + s.Count - 1)
		if err != nil {
			return "", err
		}
		parts[i] = str
	}
	return "(" + strings.Join(parts, " ") + ")", nil
}

func formatNumber(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
