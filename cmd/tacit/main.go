// Command tacit is Tacit's process entry point: it wires a VM, a
// Compiler, an optional dictionary dump and opcode trace, and a
// internal/repl.Host around either a source file named on the command
// line or stdin, in gothird main.go's own flag.UintVar/DurationVar/
// BoolVar idiom.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tacit-lang/tacit/internal/compiler"
	"github.com/tacit-lang/tacit/internal/logio"
	"github.com/tacit-lang/tacit/internal/memory"
	"github.com/tacit-lang/tacit/internal/printer"
	"github.com/tacit-lang/tacit/internal/repl"
	"github.com/tacit-lang/tacit/internal/vm"
)

func main() {
	var (
		memLimit  uint
		stackSize uint
		timeout   time.Duration
		trace     bool
		dump      bool
		heapHome  string
	)
	flag.UintVar(&memLimit, "mem-limit", 0, "override the DATA heap region size, in cells")
	flag.UintVar(&stackSize, "stack-size", 0, "override the STACK and RSTACK region sizes, in cells")
	flag.DurationVar(&timeout, "timeout", 0, "abort the run if it exceeds this duration")
	flag.BoolVar(&trace, "trace", false, "log one line per opcode dispatch")
	flag.BoolVar(&dump, "dump", false, "print a dictionary dump after execution")
	flag.StringVar(&heapHome, "heap-home", ".", "root directory for root:-prefixed include paths")
	flag.Parse()

	log := &logio.Logger{}
	log.SetOutput(os.Stderr)
	// Unlike gothird's main.go (which defers os.Exit(log.ExitCode()) and so
	// always evaluates ExitCode() before anything has run), the exit code
	// must be read after every deferred log flush below, so it is wrapped
	// in a closure.
	defer func() { os.Exit(log.ExitCode()) }()

	layout := memory.DefaultLayout
	if memLimit != 0 {
		layout.DataCells = int(memLimit)
	}
	if stackSize != 0 {
		layout.StackCells = int(stackSize)
		layout.RStackCells = int(stackSize)
	}

	v := vm.New(layout, os.Stdout)
	c := compiler.New(v)
	if err := compiler.Bootstrap(c); err != nil {
		log.Errorf("bootstrap: %+v", err)
		return
	}

	if trace {
		tracef := log.Leveledf("TRACE")
		v.Trace = func(line string) { tracef(line) }
	}
	if dump {
		lw := &logio.Writer{Logf: log.Leveledf("DUMP")}
		defer lw.Close()
		defer func() { log.ErrorIf(printer.DumpDict(lw, v)) }()
	}

	host := repl.New(v, c, os.Stdout, log, repl.FSIncludeHost{Root: heapHome})

	name, in, err := openSource(flag.Args())
	if err != nil {
		log.Errorf("%+v", err)
		return
	}
	defer in.Close()

	if timeout == 0 {
		log.ErrorIf(host.RunFile(name, in))
		return
	}

	done := make(chan error, 1)
	go func() { done <- host.RunFile(name, in) }()
	select {
	case err := <-done:
		log.ErrorIf(err)
	case <-time.After(timeout):
		log.Errorf("timed out after %s", timeout)
	}
}

func openSource(args []string) (string, *os.File, error) {
	if len(args) == 0 {
		return "<stdin>", os.Stdin, nil
	}
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	return path, f, nil
}
