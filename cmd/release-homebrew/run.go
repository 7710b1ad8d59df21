package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lizardbyte/release-homebrew/internal/config"
	"github.com/lizardbyte/release-homebrew/internal/logging"
	"github.com/lizardbyte/release-homebrew/internal/release"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the release run",
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	// Optional; workflows set everything through the environment directly.
	_ = godotenv.Load()

	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return fmt.Errorf("parse --verbose: %w", err)
	}
	logging.Setup(verbosity)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	orch := release.New(cfg, release.Options{Console: cmd.OutOrStdout()})
	return orch.Run()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	workspace := os.Getenv("GITHUB_WORKSPACE")
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("determine working directory: %w", err)
		}
		workspace = wd
	}

	cfg, err := config.Load(workspace)
	if err != nil {
		return config.Config{}, err
	}

	flagValues, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyFlags(&cfg, flagValues)

	if err := cfg.CheckRequired(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
