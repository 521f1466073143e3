package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Info prints an informational message to stdout.
func Info(msg string) {
	_, _ = fmt.Fprintln(os.Stdout, color.CyanString("›")+" "+msg)
}

// Infof prints a formatted informational message to stdout.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message to stderr.
func Warn(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, color.YellowString("!")+" "+msg)
}

// Warnf prints a formatted warning message to stderr.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// Success prints a success message to stdout.
func Success(msg string) {
	_, _ = fmt.Fprintln(os.Stdout, color.GreenString("✓")+" "+msg)
}

// Successf prints a formatted success message to stdout.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// Highlight renders s in the accent color used for addresses and hashes.
func Highlight(s string) string {
	return color.CyanString(s)
}

// Status colors a receipt or submission state.
func Status(s string) string {
	switch s {
	case "success", "confirmed":
		return color.GreenString(s)
	case "pending", "submitted":
		return color.YellowString(s)
	case "failed", "reverted":
		return color.RedString(s)
	default:
		return s
	}
}

// Spinner shows progress while the CLI waits on the wallet or the chain.
// It does nothing when disabled, so JSON output stays clean.
type Spinner struct {
	s       *spinner.Spinner
	enabled bool
}

// NewSpinner creates a spinner writing to w. It is disabled for JSON output.
func NewSpinner(w io.Writer, format Format, suffix string) *Spinner {
	if format == FormatJSON {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	return &Spinner{s: s, enabled: true}
}

// Start begins animating.
func (sp *Spinner) Start() {
	if sp.enabled {
		sp.s.Start()
	}
}

// Update replaces the suffix text.
func (sp *Spinner) Update(suffix string) {
	if sp.enabled {
		sp.s.Lock()
		sp.s.Suffix = " " + suffix
		sp.s.Unlock()
	}
}

// Stop halts animation and clears the line.
func (sp *Spinner) Stop() {
	if sp.enabled {
		sp.s.Stop()
	}
}
