package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "release-homebrew",
		Short:         "Audit, install, and test a Homebrew formula and publish it to tap repositories",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("formula-file", "", "Homebrew formula file to audit, install, and test")
	persistent.String("org-homebrew-repo", "", "target tap repository (owner/homebrew-tap)")
	persistent.Bool("validate", true, "run the audit, install, and test pipeline")
	persistent.Bool("contribute-to-homebrew-core", false, "also prepare a Homebrew/homebrew-core fork branch")
	persistent.Bool("is-fork-pr", false, "running from a forked pull request (skips livecheck)")
	persistent.Bool("skip-stable-version-audit", true, "skip the stable version audit substep")
	persistent.CountP("verbose", "v", "increase diagnostic verbosity")

	cmd.AddCommand(newRunCmd())

	return cmd
}
