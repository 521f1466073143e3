package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/mrz1836/swapdesk/internal/output"
)

// promptConfirmFn is swapped out in tests.
//
//nolint:gochecknoglobals // Allows tests to script confirmations
var promptConfirmFn = promptConfirm

// promptConfirm asks a yes/no question on stderr. Without an interactive
// stdin the answer is no.
func promptConfirm(question string) bool {
	if !output.IsTerminal(os.Stdin) {
		return false
	}
	out(os.Stderr, "%s [y/N]: ", question)
	return readYes(os.Stdin)
}

// readYes reads one line and reports whether it is an affirmative answer.
func readYes(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes"
}

// confirmAction returns true when assumeYes is set or the user agrees.
func confirmAction(assumeYes bool, question string) bool {
	return assumeYes || promptConfirmFn(question)
}
