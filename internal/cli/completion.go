package cli

import (
	"io"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var completionNoDesc bool

// completionShells maps each supported shell to its script generator.
//
//nolint:gochecknoglobals // fixed lookup table
var completionShells = map[string]func(root *cobra.Command, w io.Writer, desc bool) error{
	"bash": func(root *cobra.Command, w io.Writer, desc bool) error {
		return root.GenBashCompletionV2(w, desc)
	},
	"zsh": func(root *cobra.Command, w io.Writer, desc bool) error {
		if desc {
			return root.GenZshCompletion(w)
		}
		return root.GenZshCompletionNoDesc(w)
	},
	"fish": func(root *cobra.Command, w io.Writer, desc bool) error {
		return root.GenFishCompletion(w, desc)
	},
	"powershell": func(root *cobra.Command, w io.Writer, desc bool) error {
		if desc {
			return root.GenPowerShellCompletionWithDesc(w)
		}
		return root.GenPowerShellCompletion(w)
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print a shell completion script",
	Long: `Print a completion script for bash, zsh, fish, or powershell.

Load it for the current session or save it where your shell picks up
completions. Scripts include command descriptions unless --no-descriptions
is given.`,
	Example: `  source <(swapdesk completion bash)
  swapdesk completion zsh > "${fpath[1]}/_swapdesk"
  swapdesk completion fish --no-descriptions > ~/.config/fish/completions/swapdesk.fish`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	completionCmd.GroupID = groupConfig
	rootCmd.AddCommand(completionCmd)
	completionCmd.Flags().BoolVar(&completionNoDesc, "no-descriptions", false, "omit command descriptions from the script")
}

func runCompletion(cmd *cobra.Command, args []string) error {
	gen, ok := completionShells[args[0]]
	if !ok {
		return cmd.Help()
	}
	return gen(cmd.Root(), cmd.OutOrStdout(), !completionNoDesc)
}
