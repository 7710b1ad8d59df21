package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lizardbyte/release-homebrew/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if flags.Changed("formula-file") {
		v, err := flags.GetString("formula-file")
		if err != nil {
			return values, fmt.Errorf("parse --formula-file: %w", err)
		}
		values.FormulaFile = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("org-homebrew-repo") {
		v, err := flags.GetString("org-homebrew-repo")
		if err != nil {
			return values, fmt.Errorf("parse --org-homebrew-repo: %w", err)
		}
		values.OrgHomebrewRepo = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("validate") {
		v, err := flags.GetBool("validate")
		if err != nil {
			return values, fmt.Errorf("parse --validate: %w", err)
		}
		values.Validate = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("contribute-to-homebrew-core") {
		v, err := flags.GetBool("contribute-to-homebrew-core")
		if err != nil {
			return values, fmt.Errorf("parse --contribute-to-homebrew-core: %w", err)
		}
		values.ContributeToCore = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("is-fork-pr") {
		v, err := flags.GetBool("is-fork-pr")
		if err != nil {
			return values, fmt.Errorf("parse --is-fork-pr: %w", err)
		}
		values.IsForkPR = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("skip-stable-version-audit") {
		v, err := flags.GetBool("skip-stable-version-audit")
		if err != nil {
			return values, fmt.Errorf("parse --skip-stable-version-audit: %w", err)
		}
		values.SkipStableVersionAudit = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
