// Command aexp is the bundled arithmetic-expression sample: it compiles
// grammars.Aexp once via the native Go bootstrap compiler, then runs the
// resulting program over the AEXP source file named on the command
// line, printing the target-machine instruction listing the program
// emits (for aexp-runtime-header.py's stack machine to execute).
package main

import (
	"context"
	"io"
	"os"

	"github.com/schorre/metacc/compiler"
	"github.com/schorre/metacc/grammars"
	"github.com/schorre/metacc/internal/flushio"
	"github.com/schorre/metacc/internal/logio"
	"github.com/schorre/metacc/internal/runeio"
	"github.com/schorre/metacc/render"
	"github.com/schorre/metacc/vm"
)

func main() {
	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	if len(os.Args) != 2 {
		log.Errorf("usage: aexp <input-file>")
		return
	}

	prog, err := compiler.Compile(grammars.Aexp)
	if err != nil {
		log.Errorf("%+v", err)
		return
	}

	src, err := readRunes(os.Args[1])
	if err != nil {
		log.Errorf("%+v", err)
		return
	}

	var opts []vm.Option
	if os.Getenv("METACC_TRACE") != "" {
		opts = append(opts, vm.WithLogf(log.Leveledf("TRACE")))
		opts = append(opts, vm.WithDumpOnFailure(&logio.Writer{Logf: log.Leveledf("DUMP")}))
	}

	result, err := vm.Run(context.Background(), prog, src, opts...)
	if err != nil {
		log.Errorf("%+v", err)
		return
	}

	out := flushio.NewWriteFlusher(os.Stdout)
	defer out.Flush()
	if err := render.Render(out, result); err != nil {
		log.Errorf("%+v", err)
	}
}

// readRunes reads path's entire contents as a rune slice, decoding it
// through runeio.NewReader the same way gothird wraps its own VM input
// source, rather than converting a byte slice with []rune(string(...)).
func readRunes(path string) ([]rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rr := runeio.NewReader(f)
	var runes []rune
	for {
		r, _, err := rr.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		runes = append(runes, r)
	}
	return runes, nil
}
