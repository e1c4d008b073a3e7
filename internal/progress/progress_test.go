package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlainProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainProgress(&buf)

	p.Start("Running")
	p.Tick()
	p.Println("activation: a b")
	p.Finish()

	if got, want := buf.String(), "Running\nactivation: a b\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestCLIProgressSeparatesLinesFromSpinner(t *testing.T) {
	var out, tty bytes.Buffer
	p := NewCLIProgress(&out, &tty)

	p.Start("Waiting for other launches")
	p.Tick()
	p.Println("activation: open file.txt")
	p.Finish()
	p.Finish()

	if out.String() != "activation: open file.txt\n" {
		t.Errorf("Unexpected line output %q", out.String())
	}
	if !strings.Contains(tty.String(), "Waiting for other launches") {
		t.Errorf("Spinner description missing from tty output %q", tty.String())
	}
}

func TestCLIProgressBeforeStart(t *testing.T) {
	var out, tty bytes.Buffer
	p := NewCLIProgress(&out, &tty)

	p.Tick()
	p.Println("early")
	p.Finish()

	if out.String() != "early\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
	if tty.Len() != 0 {
		t.Errorf("Nothing should be drawn before Start, got %q", tty.String())
	}
}

func TestNewReporterWithoutSpinner(t *testing.T) {
	var buf bytes.Buffer
	if _, ok := NewReporter(&buf, false).(*PlainProgress); !ok {
		t.Error("Expected a plain reporter when the spinner is disabled")
	}
}
