package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/network"
)

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// withNetworkList appends the supported networks to a Long description, so
// help stays current when the registry changes.
func withNetworkList(long string, registry *network.Registry) string {
	var sb strings.Builder
	sb.WriteString(long)
	sb.WriteString("\n\nNetworks:\n")

	for i, n := range registry.All() {
		line := fmt.Sprintf("  %-10s %s (%s)", n.ID, n.Name, n.ChainID)
		if i == 0 {
			line += " [default]"
		}
		sb.WriteString(line + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
