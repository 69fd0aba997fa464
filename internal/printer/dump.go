package printer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"github.com/tacit-lang/tacit/internal/bytecode"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

// DumpDict walks v's dictionary from most-recently-defined to oldest,
// printing one name/tag/payload line per entry -- the `-dump` flag's
// output, grounded on gothird's dumper.go walk of vm.last's chain, but
// over vm.Dictionary.Walk rather than reaching into vm-internal fields.
// Column alignment uses golang.org/x/text/width's display-cell measure
// rather than gothird's "%*v" byte-length padding, so a name containing
// wide (East Asian) runes still lines up.
func DumpDict(out io.Writer, v *vm.VM) error {
	type row struct {
		name  string
		width int
		desc  string
	}
	var rows []row
	maxWidth := 0
	err := v.Dict.Walk(func(header int, name string, payload float32) error {
		w := displayWidth(name)
		if w > maxWidth {
			maxWidth = w
		}
		rows = append(rows, row{name: name, width: w, desc: describePayload(payload)})
		return nil
	})
	if err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(out, "%s%s  %s\n", r.name, strings.Repeat(" ", maxWidth-r.width), r.desc); err != nil {
			return err
		}
	}
	return nil
}

func describePayload(payload float32) string {
	d := value.Decode(payload)
	switch d.Tag {
	case value.Code:
		return fmt.Sprintf("CODE @%d", d.Payload)
	case value.Builtin:
		return fmt.Sprintf("BUILTIN %s", bytecode.Op(d.Payload).String())
	case value.Number:
		return fmt.Sprintf("NUMBER %s", formatNumber(d.Number))
	default:
		return fmt.Sprintf("%s %d", d.Tag, d.Payload)
	}
}

// displayWidth measures s in terminal display cells, counting East
// Asian wide/fullwidth runes as 2 columns and everything else as 1.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
