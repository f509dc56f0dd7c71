package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// isTerminal is a seam for tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type progress struct {
	out   io.Writer
	on    bool
	name  string
	total uint64
	sent  uint64
}

func newProgress(out io.Writer, on bool, name string, total int64) *progress {
	return &progress{out: out, on: on, name: name, total: uint64(total)}
}

func (p *progress) add(n int) {
	p.sent += uint64(n)
	if !p.on {
		return
	}
	fmt.Fprintf(p.out, "\rUploading %s... %s / %s", p.name, humanize.Bytes(p.sent), humanize.Bytes(p.total))
}

func (p *progress) done() {
	if p.on {
		fmt.Fprintln(p.out)
	}
}

func (p *progress) abort() {
	p.done()
}
