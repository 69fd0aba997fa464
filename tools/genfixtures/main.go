// Command genfixtures fans spec.md section 8's end-to-end scenario table
// out across worker goroutines, each running one Tacit program to
// completion against a fresh VM and writing a golden ".expected" fixture
// file recording its final data stack. It is adapted from gothird's
// scripts/gen_vm_expects.go: that script fans work out across an
// errgroup.Group bounded by a golang.org/x/net/context timeout; this tool
// keeps the same two dependencies for the same reason (bounded, joined
// concurrent work with a per-item deadline), generalized from gofmt-piping
// source generation to running Tacit programs and diffing their output.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"github.com/tacit-lang/tacit/internal/compiler"
	"github.com/tacit-lang/tacit/internal/memory"
	"github.com/tacit-lang/tacit/internal/parser"
	"github.com/tacit-lang/tacit/internal/value"
	"github.com/tacit-lang/tacit/internal/vm"
)

// scenario is one row of spec.md section 8's end-to-end scenario table.
type scenario struct {
	name    string
	program string
}

// scenarios mirrors spec.md section 8's literal-input rows, in the same
// order the table lists them.
var scenarios = []scenario{
	{"square", `: square dup mul ; 3 square`},
	{"quadruple", `: double 2 mul ; : quadruple double double ; 5 quadruple`},
	{"reverse", `( 1 2 3 ) reverse`},
	{"find-fetch", `( 1 100 2 200 ) 2 find fetch`},
	{"neg-nested-list", `( ( 1 2 ) 3 ) neg`},
	{"if-else-true", `1 0 lt if -1 else 1 ;`},
	{"if-else-false", `-7 0 lt if -1 else 1 ;`},
	{"global-store", `100 global a a 200 -> a a`},
	{"capsule-counter", `: make-counter 0 var count capsule case "inc" of 1 +> count ; "get" of count ; ; ; ` +
		`make-counter var c "inc" &c dispatch "inc" &c dispatch "get" &c dispatch`},
}

func main() {
	outDir := flag.String("out", "testdata/fixtures", "directory to write .expected fixture files into")
	perScenario := flag.Duration("scenario-timeout", 5*time.Second, "per-scenario execution timeout")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()
	eg, ctx := errgroup.WithContext(ctx)

	for _, sc := range scenarios {
		sc := sc
		eg.Go(func() error {
			return writeFixture(ctx, *outDir, sc, *perScenario)
		})
	}

	if err := eg.Wait(); err != nil {
		log.Fatalln(err)
	}
}

func writeFixture(ctx context.Context, outDir string, sc scenario, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan string, 1)
	go func() {
		s, runErr := runScenario(sc.program)
		if runErr != nil {
			result <- fmt.Sprintf("ERROR: %v", runErr)
			return
		}
		result <- s
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("scenario %s: %w", sc.name, ctx.Err())
	case stack := <-result:
		path := filepath.Join(outDir, sc.name+".expected")
		return ioutil.WriteFile(path, []byte(stack+"\n"), 0o644)
	}
}

// runScenario compiles and runs program against a fresh VM, returning its
// final data stack formatted bottom-to-top, the same notation spec.md
// section 8's table uses (e.g. "LIST(3), 1, 2, 3").
func runScenario(program string) (string, error) {
	v := vm.New(memory.DefaultLayout, nil)
	c := compiler.New(v)
	if err := compiler.Bootstrap(c); err != nil {
		return "", err
	}
	if err := parser.Parse(c, program); err != nil {
		return "", err
	}
	cells, err := v.StackData()
	if err != nil {
		return "", err
	}
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = formatCell(cell)
	}
	return strings.Join(parts, ", "), nil
}

func formatCell(cell float32) string {
	d := value.Decode(cell)
	switch d.Tag {
	case value.Number:
		return strconv.FormatFloat(float64(d.Number), 'g', -1, 32)
	case value.List:
		return fmt.Sprintf("LIST(%d)", d.Payload)
	default:
		return fmt.Sprintf("%s(%d)", d.Tag, d.Payload)
	}
}
