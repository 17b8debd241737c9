// Command metacc is the self-hosting demonstration: it compiles the
// metacompiler's own grammar (grammars.Metacc) once via the native Go
// bootstrap compiler, then runs the resulting program over the grammar
// dialect source text named on the command line, printing the textual
// instruction listing that source text translates to.
package main

import (
	"context"
	"io"
	"os"
	"time"

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
		log.Errorf("usage: metacc <input-file>")
		return
	}

	prog, err := compiler.Compile(grammars.Metacc)
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

	ctx := context.Background()
	if d, ok := deadlineFromEnv(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	result, err := vm.Run(ctx, prog, src, opts...)
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

// deadlineFromEnv reads an optional run time limit from METACC_TIMEOUT (a
// duration string, e.g. "5s"), since the CLI accepts no flags.
func deadlineFromEnv() (time.Duration, bool) {
	s := os.Getenv("METACC_TIMEOUT")
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
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
