// Package config resolves the run's inputs. Precedence, lowest to highest:
// built-in defaults, an optional .release-homebrew.yml in the workspace, the
// INPUT_* environment variables a workflow provides, and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures every input of a release run.
type Config struct {
	FormulaFile string `yaml:"formula_file"`

	OrgHomebrewRepo string `yaml:"org_homebrew_repo"`
	OrgBaseBranch   string `yaml:"org_homebrew_repo_base_branch"`
	OrgHeadBranch   string `yaml:"org_homebrew_repo_head_branch"`

	ContributeToCore bool   `yaml:"contribute_to_homebrew_core"`
	UpstreamCoreRepo string `yaml:"upstream_homebrew_core_repo"`
	CoreBaseBranch   string `yaml:"homebrew_core_base_branch"`
	CoreHeadBranch   string `yaml:"homebrew_core_head_branch"`

	Validate               bool `yaml:"validate"`
	IsForkPR               bool `yaml:"is_fork_pr"`
	SkipStableVersionAudit bool `yaml:"skip_stable_version_audit"`

	GitEmail    string `yaml:"git_email"`
	GitUsername string `yaml:"git_username"`

	// Workspace anchors the managed checkouts; comes from GITHUB_WORKSPACE,
	// not configurable through the file.
	Workspace string `yaml:"-"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		OrgHomebrewRepo:        "LizardByte/homebrew-homebrew",
		OrgBaseBranch:          "master",
		UpstreamCoreRepo:       "Homebrew/homebrew-core",
		CoreBaseBranch:         "main",
		Validate:               true,
		SkipStableVersionAudit: true,
	}
}

// FileName is the optional per-workspace configuration file.
const FileName = ".release-homebrew.yml"

// Load builds the configuration from defaults, the workspace config file and
// the environment. Missing files are ignored.
func Load(workspace string) (Config, error) {
	cfg := Default()
	cfg.Workspace = workspace

	path := filepath.Join(workspace, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		var fileCfg fileConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
		cfg = mergeFile(cfg, fileCfg)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// fileConfig mirrors Config with pointer fields so absent keys are
// distinguishable from explicit false/empty values.
type fileConfig struct {
	FormulaFile            *string `yaml:"formula_file"`
	OrgHomebrewRepo        *string `yaml:"org_homebrew_repo"`
	OrgBaseBranch          *string `yaml:"org_homebrew_repo_base_branch"`
	OrgHeadBranch          *string `yaml:"org_homebrew_repo_head_branch"`
	ContributeToCore       *bool   `yaml:"contribute_to_homebrew_core"`
	UpstreamCoreRepo       *string `yaml:"upstream_homebrew_core_repo"`
	CoreBaseBranch         *string `yaml:"homebrew_core_base_branch"`
	CoreHeadBranch         *string `yaml:"homebrew_core_head_branch"`
	Validate               *bool   `yaml:"validate"`
	IsForkPR               *bool   `yaml:"is_fork_pr"`
	SkipStableVersionAudit *bool   `yaml:"skip_stable_version_audit"`
	GitEmail               *string `yaml:"git_email"`
	GitUsername            *string `yaml:"git_username"`
}

func mergeFile(base Config, override fileConfig) Config {
	out := base
	setString(&out.FormulaFile, override.FormulaFile)
	setString(&out.OrgHomebrewRepo, override.OrgHomebrewRepo)
	setString(&out.OrgBaseBranch, override.OrgBaseBranch)
	setString(&out.OrgHeadBranch, override.OrgHeadBranch)
	setBool(&out.ContributeToCore, override.ContributeToCore)
	setString(&out.UpstreamCoreRepo, override.UpstreamCoreRepo)
	setString(&out.CoreBaseBranch, override.CoreBaseBranch)
	setString(&out.CoreHeadBranch, override.CoreHeadBranch)
	setBool(&out.Validate, override.Validate)
	setBool(&out.IsForkPR, override.IsForkPR)
	setBool(&out.SkipStableVersionAudit, override.SkipStableVersionAudit)
	setString(&out.GitEmail, override.GitEmail)
	setString(&out.GitUsername, override.GitUsername)
	return out
}

// applyEnv overlays the INPUT_* variables GitHub Actions exposes for action
// inputs.
func applyEnv(cfg *Config) {
	envString(&cfg.FormulaFile, "INPUT_FORMULA_FILE")
	envString(&cfg.OrgHomebrewRepo, "INPUT_ORG_HOMEBREW_REPO")
	envString(&cfg.OrgBaseBranch, "INPUT_ORG_HOMEBREW_REPO_BASE_BRANCH")
	envString(&cfg.OrgHeadBranch, "INPUT_ORG_HOMEBREW_REPO_HEAD_BRANCH")
	envBool(&cfg.ContributeToCore, "INPUT_CONTRIBUTE_TO_HOMEBREW_CORE")
	envString(&cfg.UpstreamCoreRepo, "INPUT_UPSTREAM_HOMEBREW_CORE_REPO")
	envString(&cfg.CoreBaseBranch, "INPUT_HOMEBREW_CORE_BASE_BRANCH")
	envString(&cfg.CoreHeadBranch, "INPUT_HOMEBREW_CORE_HEAD_BRANCH")
	envBool(&cfg.Validate, "INPUT_VALIDATE")
	envBool(&cfg.IsForkPR, "INPUT_IS_FORK_PR")
	envBool(&cfg.SkipStableVersionAudit, "INPUT_SKIP_STABLE_VERSION_AUDIT")
	envString(&cfg.GitEmail, "INPUT_GIT_EMAIL")
	envString(&cfg.GitUsername, "INPUT_GIT_USERNAME")
}

// CheckRequired validates the inputs a run cannot proceed without.
func (c Config) CheckRequired() error {
	if strings.TrimSpace(c.FormulaFile) == "" {
		return errors.New("formula_file input is required")
	}
	if !strings.Contains(c.OrgHomebrewRepo, "/") {
		return fmt.Errorf("org_homebrew_repo %q is not in owner/repo form", c.OrgHomebrewRepo)
	}
	return nil
}

// ApplyFlags mutates cfg with values from CLI flags when they were set.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.FormulaFile.Set {
		cfg.FormulaFile = flags.FormulaFile.Value
	}
	if flags.OrgHomebrewRepo.Set {
		cfg.OrgHomebrewRepo = flags.OrgHomebrewRepo.Value
	}
	if flags.Validate.Set {
		cfg.Validate = flags.Validate.Value
	}
	if flags.ContributeToCore.Set {
		cfg.ContributeToCore = flags.ContributeToCore.Value
	}
	if flags.IsForkPR.Set {
		cfg.IsForkPR = flags.IsForkPR.Value
	}
	if flags.SkipStableVersionAudit.Set {
		cfg.SkipStableVersionAudit = flags.SkipStableVersionAudit.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was
// set explicitly.
type FlagValues struct {
	FormulaFile            StringFlag
	OrgHomebrewRepo        StringFlag
	Validate               BoolFlag
	ContributeToCore       BoolFlag
	IsForkPR               BoolFlag
	SkipStableVersionAudit BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.EqualFold(strings.TrimSpace(v), "true")
	}
}
