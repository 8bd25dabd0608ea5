package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/bubbles/progress"
)

// Tracker renders a progress bar for detail page fetching
type Tracker struct {
	bar       progress.Model
	out       io.Writer
	total     int
	processed int
	failed    int
	mu        sync.Mutex
}

// New creates a Tracker drawing to out. A nil writer disables drawing.
func New(out io.Writer) *Tracker {
	if out == nil {
		out = io.Discard
	}
	return &Tracker{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		out: out,
	}
}

// SetTotal sets the number of pages to process
func (p *Tracker) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

// Done records one finished page and redraws the bar
func (p *Tracker) Done(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if !ok {
		p.failed++
	}

	if p.total > 0 {
		fmt.Fprintf(p.out, "\rProgress: %s %d/%d pages (%d failed)",
			p.bar.ViewAs(float64(p.processed)/float64(p.total)),
			p.processed,
			p.total,
			p.failed)
	}
}

// Finish ends the progress line.
func (p *Tracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		fmt.Fprintln(p.out)
	}
}

// Counts returns processed and failed page counts.
func (p *Tracker) Counts() (processed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.failed
}

// ScrollSpinner shows the live card count while the listing is scrolled.
type ScrollSpinner struct {
	s *spinner.Spinner
}

// NewScrollSpinner creates a spinner writing to out. A nil writer disables it.
func NewScrollSpinner(out io.Writer) *ScrollSpinner {
	if out == nil {
		return &ScrollSpinner{}
	}
	return &ScrollSpinner{
		s: spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out)),
	}
}

// Start begins spinning.
func (sp *ScrollSpinner) Start() {
	if sp.s == nil {
		return
	}
	sp.s.Suffix = " scrolling listing..."
	sp.s.Start()
}

// Update shows the current card count.
func (sp *ScrollSpinner) Update(loaded, target int) {
	if sp.s == nil {
		return
	}
	sp.s.Lock()
	sp.s.Suffix = fmt.Sprintf(" loaded %d/%d companies", loaded, target)
	sp.s.Unlock()
}

// Stop halts the spinner.
func (sp *ScrollSpinner) Stop() {
	if sp.s == nil {
		return
	}
	sp.s.Stop()
}
