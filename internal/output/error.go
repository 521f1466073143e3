package output

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/mrz1836/swapdesk/internal/provider"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// ErrorOutput is the JSON envelope for a failed command.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure. Wallet fields are set when the chain
// of causes holds an EIP-1193 provider error.
type ErrorDetail struct {
	Code          string            `json:"code"`
	Message       string            `json:"message"`
	Details       map[string]string `json:"details,omitempty"`
	Suggestion    string            `json:"suggestion,omitempty"`
	Cause         string            `json:"cause,omitempty"`
	WalletCode    int               `json:"wallet_code,omitempty"`
	WalletMessage string            `json:"wallet_message,omitempty"`
	ExitCode      int               `json:"exit_code"`
}

// FormatError writes err to w in the given format. A nil err writes nothing.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	d := detailOf(err)
	if format == FormatJSON {
		return NewFormatter(FormatJSON, w).JSON(ErrorOutput{Error: d})
	}
	_, writeErr := io.WriteString(w, d.text())
	return writeErr
}

func detailOf(err error) ErrorDetail {
	d := ErrorDetail{
		Code:     deskerr.ErrGeneral.Code,
		Message:  err.Error(),
		ExitCode: deskerr.ExitGeneral,
	}

	var de *deskerr.DeskError
	if errors.As(err, &de) {
		d.Code = de.Code
		d.Message = de.Message
		d.Details = de.Details
		d.Suggestion = de.Suggestion
		d.ExitCode = de.ExitCode
		if de.Cause != nil {
			d.Cause = de.Cause.Error()
		}
	}

	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		d.WalletCode = pe.Code
		d.WalletMessage = pe.Message
	}
	return d
}

func (d ErrorDetail) text() string {
	var sb strings.Builder
	sb.WriteString(color.New(color.FgRed, color.Bold).Sprint("Error:") + " " + d.Message + "\n")
	switch {
	case d.WalletCode != 0:
		fmt.Fprintf(&sb, "  wallet %d: %s\n", d.WalletCode, d.WalletMessage)
	case d.Cause != "":
		fmt.Fprintf(&sb, "  %s\n", d.Cause)
	}

	if len(d.Details) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, k := range slices.Sorted(maps.Keys(d.Details)) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, d.Details[k])
		}
	}

	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "\n%s %s\n", color.YellowString("Suggestion:"), d.Suggestion)
	}
	return sb.String()
}

// FormatSuccess writes a one-line success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return NewFormatter(FormatJSON, w).JSON(map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
