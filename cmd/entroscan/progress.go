package entroscan

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"
)

// progressPrinter draws a single-line progress bar on stderr covering all
// devices of a scan.
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	bar   progress.Model
	pos   map[string]int64
	end   map[string]int64
	last  int
	drawn bool
}

func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func newProgressPrinter(w io.Writer, noColor bool) *progressPrinter {
	opts := []progress.Option{progress.WithWidth(40)}
	if noColor {
		opts = append(opts, progress.WithFillCharacters('#', '-'))
	} else {
		opts = append(opts, progress.WithDefaultGradient())
	}
	return &progressPrinter{
		w:    w,
		bar:  progress.New(opts...),
		pos:  map[string]int64{},
		end:  map[string]int64{},
		last: -1,
	}
}

// Update records pos/end for target and redraws when the overall percentage
// changes.
func (p *progressPrinter) Update(target string, pos, end int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos[target] = pos
	p.end[target] = end

	var done, total int64
	for t, e := range p.end {
		done += p.pos[t]
		total += e
	}
	if total <= 0 {
		return
	}
	frac := float64(done) / float64(total)
	pct := int(frac * 100)
	if pct == p.last {
		return
	}
	p.last = pct
	p.drawn = true
	_, _ = fmt.Fprintf(p.w, "\r%s %d device(s)", p.bar.ViewAs(frac), len(p.end))
}

// Done ends the progress line.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		_, _ = fmt.Fprintln(p.w)
	}
}
