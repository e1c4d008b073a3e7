// Package progress shows that a leader instance is alive and prints what it
// receives, as a spinner on a terminal and as plain lines otherwise.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/rescale/singleinstance/internal/constants"
)

// Reporter is the interface for reporting leader activity in the CLI.
type Reporter interface {
	Start(description string)
	Tick()
	Println(line string)
	Finish()
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewReporter returns a spinner on stderr when stderr is a terminal and
// spinner is true, otherwise a reporter that only writes lines to out.
func NewReporter(out io.Writer, spinner bool) Reporter {
	if spinner && IsTerminal(os.Stderr) {
		return NewCLIProgress(out, os.Stderr)
	}
	return NewPlainProgress(out)
}

// CLIProgress renders an indeterminate spinner and prints lines above it.
type CLIProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
	out io.Writer
	tty io.Writer
}

// NewCLIProgress creates a spinner drawn on tty with lines written to out.
func NewCLIProgress(out, tty io.Writer) *CLIProgress {
	return &CLIProgress{out: out, tty: tty}
}

// Start draws the spinner with description.
func (p *CLIProgress) Start(description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.tty),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(constants.SpinnerRefreshInterval),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Tick advances the spinner.
func (p *CLIProgress) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// Println clears the spinner, writes line and redraws.
func (p *CLIProgress) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Clear()
	}
	fmt.Fprintln(p.out, line)
	if p.bar != nil {
		_ = p.bar.RenderBlank()
	}
}

// Finish removes the spinner.
func (p *CLIProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Clear()
		fmt.Fprint(p.tty, "\n")
		p.bar = nil
	}
}

// PlainProgress writes lines only, for pipes, logs and tests.
type PlainProgress struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainProgress creates a line-only reporter.
func NewPlainProgress(out io.Writer) *PlainProgress {
	return &PlainProgress{out: out}
}

// Start prints the description once.
func (p *PlainProgress) Start(description string) {
	p.Println(description)
}

// Tick does nothing.
func (p *PlainProgress) Tick() {}

// Println writes line.
func (p *PlainProgress) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

// Finish does nothing.
func (p *PlainProgress) Finish() {}
