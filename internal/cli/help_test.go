package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/swapdesk/internal/network"
)

// TestAllCommandsHaveShortDescription walks the entire command tree and
// verifies that every command has a non-empty Short description.
func TestAllCommandsHaveShortDescription(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Short, "%s: missing Short description", cmd.CommandPath())
		})
	})
}

// TestAllCommandsHaveLongDescription verifies every command has a Long description.
func TestAllCommandsHaveLongDescription(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Long, "%s: missing Long description", cmd.CommandPath())
		})
	})
}

// TestLeafCommandsHaveExamples verifies that every runnable command has an Example.
func TestLeafCommandsHaveExamples(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		if cmd.RunE == nil && cmd.Run == nil {
			return
		}
		if cmd.Name() == "help" {
			return
		}
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Example, "%s: leaf command missing Example field", cmd.CommandPath())
		})
	})
}

// TestNoEmbeddedExamplesInLong keeps examples in the dedicated Example field.
func TestNoEmbeddedExamplesInLong(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.False(t,
				strings.Contains(cmd.Long, "\nExample:") || strings.Contains(cmd.Long, "\nExamples:"),
				"%s: Long contains embedded examples; move to Example field", cmd.CommandPath())
		})
	})
}

// TestAllFlagsHaveDescriptions verifies every flag has usage text.
func TestAllFlagsHaveDescriptions(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			t.Run(cmd.CommandPath()+"/--"+f.Name, func(t *testing.T) {
				assert.NotEmpty(t, f.Usage, "flag --%s on %s has no description", f.Name, cmd.CommandPath())
			})
		})
	})
}

// TestCommandGroupsAssigned verifies top-level commands carry a GroupID.
func TestCommandGroupsAssigned(t *testing.T) {
	for _, cmd := range rootCmd.Commands() {
		if !cmd.IsAvailableCommand() || cmd.Name() == "help" {
			continue
		}
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.GroupID, "top-level command %q missing GroupID", cmd.Name())
		})
	}
}

// TestRootHelpContainsGroups verifies the root help lists command groups.
func TestRootHelpContainsGroups(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Help())

	help := buf.String()
	assert.Contains(t, help, "Wallet & Network:")
	assert.Contains(t, help, "Trading:")
	assert.Contains(t, help, "Portfolio:")
	assert.Contains(t, help, "Configuration:")
}

// TestWalkCommandsVisitsAll verifies walkCommands discovers every command.
func TestWalkCommandsVisitsAll(t *testing.T) {
	visited := make(map[string]bool)
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		visited[cmd.CommandPath()] = true
	})

	for _, path := range []string{
		"swapdesk",
		"swapdesk network list",
		"swapdesk network current",
		"swapdesk network switch",
		"swapdesk login",
		"swapdesk logout",
		"swapdesk whoami",
		"swapdesk chat",
		"swapdesk tx send",
		"swapdesk tx sign",
		"swapdesk tx status",
		"swapdesk quote",
		"swapdesk tokens",
		"swapdesk history",
		"swapdesk gas",
		"swapdesk serve",
		"swapdesk version",
		"swapdesk completion",
	} {
		assert.True(t, visited[path], "walkCommands did not visit %q", path)
	}
}

func TestWithNetworkList(t *testing.T) {
	t.Parallel()

	long := withNetworkList("Pick a network.", network.DefaultRegistry())

	assert.True(t, strings.HasPrefix(long, "Pick a network.\n\nNetworks:\n"))
	assert.Contains(t, long, "eth")
	assert.Contains(t, long, "[default]")
	assert.Contains(t, long, "polygon")
	assert.Contains(t, long, "0x2105")
	assert.False(t, strings.HasSuffix(long, "\n"))
}
