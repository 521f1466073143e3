package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var versionCheck bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the swapdesk version, commit, and build date. With --check, also ask GitHub whether a newer release exists.`,
	Example: `  swapdesk version
  swapdesk version --check -o json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.GroupID = groupConfig
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}

// versionView is the JSON shape of version output.
type versionView struct {
	version.BuildInfo

	Update *version.Check `json:"update,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	v := versionView{BuildInfo: version.Current()}

	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, version.DefaultTimeout)
		defer cancel()

		check, err := version.NewClient("", nil).CheckLatest(ctx, v.Version)
		if err != nil {
			return err
		}
		v.Update = check
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}

	outln(cmd.OutOrStdout(), "swapdesk", v.String())
	out(cmd.OutOrStdout(), "%s %s/%s\n", v.Go, v.OS, v.Arch)
	if v.Update != nil {
		if v.Update.Newer {
			out(cmd.OutOrStdout(), "Update available: %s (%s)\n", output.Highlight(v.Update.Latest), v.Update.URL)
		} else {
			outln(cmd.OutOrStdout(), "You are running the latest release.")
		}
	}
	return nil
}
