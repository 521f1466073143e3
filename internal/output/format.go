// Package output renders command results, errors, and progress for the
// swapdesk CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format is how command results are written.
type Format string

// Formats. FormatAuto resolves to text on a terminal and JSON elsewhere.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// Formatter writes results in one resolved format.
type Formatter struct {
	format Format
	writer io.Writer
}

// NewFormatter creates a formatter writing format to w.
func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{format: format, writer: w}
}

// Format returns the resolved format.
func (f *Formatter) Format() Format {
	return f.format
}

// IsJSON reports whether results are written as JSON.
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// To returns a formatter with the same format writing to w.
func (f *Formatter) To(w io.Writer) *Formatter {
	return NewFormatter(f.format, w)
}

// Render writes v as JSON, or calls text for text output.
func (f *Formatter) Render(v any, text func(*Formatter) error) error {
	if f.IsJSON() {
		return f.JSON(v)
	}
	return text(f)
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// IsTerminal reports whether v is an *os.File attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}

// DetectFormat resolves FormatAuto against w. Other formats pass through.
func DetectFormat(w io.Writer, explicit Format) Format {
	switch {
	case explicit != FormatAuto:
		return explicit
	case IsTerminal(w):
		return FormatText
	default:
		return FormatJSON
	}
}

// KV prints aligned "label: value" lines. Pairs with an empty value are
// skipped.
func (f *Formatter) KV(pairs ...[2]string) error {
	width := 0
	for _, p := range pairs {
		if p[1] != "" {
			width = max(width, len(p[0]))
		}
	}
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(f.writer, "%-*s  %s\n", width+1, p[0]+":", p[1]); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormat parses a format name. Anything unrecognized means auto.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText:
		return f
	default:
		return FormatAuto
	}
}
