// Package release orchestrates a full run: resolve the tap identity, prepare
// release branches, distribute and commit the formula, then drive the
// validation pipeline.
package release

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lizardbyte/release-homebrew/internal/brew"
	"github.com/lizardbyte/release-homebrew/internal/config"
	"github.com/lizardbyte/release-homebrew/internal/formula"
	"github.com/lizardbyte/release-homebrew/internal/ghactions"
	"github.com/lizardbyte/release-homebrew/internal/gitrepo"
	"github.com/lizardbyte/release-homebrew/internal/logging"
	"github.com/lizardbyte/release-homebrew/internal/pipeline"
	"github.com/lizardbyte/release-homebrew/internal/runner"
	"github.com/lizardbyte/release-homebrew/internal/tap"
)

// checkoutDir is the workspace subdirectory holding the managed git clones.
const checkoutDir = "release_homebrew_action"

// Options configure an Orchestrator beyond its inputs; zero values select
// production behaviour.
type Options struct {
	// Console receives all human-facing output; defaults to os.Stdout.
	Console io.Writer
	// Outputs overrides the GITHUB_OUTPUT destination.
	Outputs *ghactions.Outputs
	// Env is the base subprocess environment; defaults to os.Environ().
	Env []string
	// TempRoots overrides the temp-dir search list.
	TempRoots []string
}

// Orchestrator owns the state of one release run. It is single-use per Run
// invocation and not safe for concurrent runs.
type Orchestrator struct {
	cfg     config.Config
	state   *runner.State
	runner  *runner.Runner
	console *ghactions.Writer
	outputs *ghactions.Outputs
	finder  *brew.TempDirFinder
	logger  zerolog.Logger

	// resolved during Run
	tapID     tap.Identity
	brew      *brew.Brew
	installed bool
	buildPath string
}

// New creates an orchestrator for the given configuration.
func New(cfg config.Config, opts Options) *Orchestrator {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	console := ghactions.NewWriter(opts.Console)
	outputs := opts.Outputs
	if outputs == nil {
		outputs = ghactions.NewOutputs()
	}

	state := runner.NewState()
	return &Orchestrator{
		cfg:     cfg,
		state:   state,
		runner:  runner.New(state, runner.Options{Console: console, Env: opts.Env}),
		console: console,
		outputs: outputs,
		finder:  brew.NewTempDirFinder(console, opts.TempRoots),
		logger:  logging.GetLogger("release"),
	}
}

// State exposes the run state, for inspection after a run.
func (o *Orchestrator) State() *runner.State {
	return o.state
}

// Run executes the whole release flow. Branch preparation and formula
// distribution always run; the audit/install/test pipeline only when the
// validate input is set.
func (o *Orchestrator) Run() error {
	o.state.Reset()

	installed, err := brew.Installed(o.runner, o.console)
	if err != nil {
		return err
	}
	if !installed {
		return errors.New("Homebrew is not installed")
	}
	o.installed = true

	name, err := o.processFormula()
	if err != nil {
		return err
	}

	if !o.cfg.Validate {
		o.console.Printf("Skipping audit, install, and test\n")
		return nil
	}

	return o.validate(name)
}

// processFormula validates the input file, resolves the tap, prepares the
// release branches, distributes the formula and commits it per repository.
// It returns the formula name used by every validation step.
func (o *Orchestrator) processFormula() (string, error) {
	file := o.cfg.FormulaFile
	if err := formula.Validate(file); err != nil {
		return "", err
	}

	name := formula.Name(file)
	letter := formula.FirstLetter(file)
	filename := filepath.Base(file)
	o.console.Printf("formula_filename: %s\n", filename)

	id, err := tap.Resolve(o.cfg.OrgHomebrewRepo)
	if err != nil {
		return "", err
	}
	o.tapID = id
	o.console.Printf("tap_repo_name: %s\n", id)
	o.brew = brew.New(o.runner, o.console, id)

	if err := o.brew.DeveloperOn(); err != nil {
		return "", err
	}

	orgRepoDir := filepath.Join(o.cfg.Workspace, checkoutDir, "org_homebrew_repo")
	coreForkDir := filepath.Join(o.cfg.Workspace, checkoutDir, "homebrew_core_fork_repo")
	o.logger.Debug().Str("org", orgRepoDir).Str("core_fork", coreForkDir).Msg("Resolved checkouts")

	if err := o.brew.Tap(orgRepoDir); err != nil {
		return "", err
	}

	prep := gitrepo.NewPreparer(o.runner, o.console, o.outputs)
	if _, err := prep.Prepare(gitrepo.BranchSpec{
		Suffix: name,
		Custom: o.cfg.OrgHeadBranch,
		Base:   o.cfg.OrgBaseBranch,
	}, orgRepoDir, "org homebrew repo", "org_homebrew_repo_branch"); err != nil {
		return "", err
	}

	if o.cfg.ContributeToCore {
		if _, err := prep.Prepare(gitrepo.BranchSpec{
			Suffix:         name,
			Custom:         o.cfg.CoreHeadBranch,
			UpstreamRepo:   o.cfg.UpstreamCoreRepo,
			UpstreamBranch: o.cfg.CoreBaseBranch,
		}, coreForkDir, "Homebrew/homebrew-core fork", "homebrew_core_branch"); err != nil {
			return "", err
		}
	}

	dests := []string{
		filepath.Join(orgRepoDir, "Formula", letter),
		filepath.Join(coreForkDir, "Formula", letter),
	}
	destRepo := map[string]string{
		dests[0]: orgRepoDir,
		dests[1]: coreForkDir,
	}
	if o.installed {
		root, err := o.brew.Repository()
		if err != nil {
			return "", err
		}
		tapRoot := filepath.Join(root, "Library", "Taps",
			strings.ToLower(id.Owner), "homebrew-"+id.Name)
		dest := filepath.Join(tapRoot, "Formula", letter)
		dests = append(dests, dest)
		destRepo[dest] = tapRoot
	}

	if err := o.copyFormula(file, filename, name, dests); err != nil {
		return "", err
	}

	version, _ := formula.ExtractVersion(file)

	author := gitrepo.Author{Email: o.cfg.GitEmail, Name: o.cfg.GitUsername}
	messages := make(map[string]string)
	for _, dir := range dests {
		repoPath := destRepo[dir]
		if _, done := messages[repoPath]; done {
			continue
		}
		if !gitrepo.IsRepo(repoPath) {
			o.console.Printf("Skipping commit for %s (not a git repository)\n", repoPath)
			continue
		}

		formulaPath := filepath.Join(dir, filename)
		isNew := !gitrepo.Tracked(o.runner, formulaPath, repoPath)
		message := formula.CommitMessage(name, version, isNew)
		messages[repoPath] = message

		if err := gitrepo.Commit(o.runner, o.console, repoPath, message, author); err != nil {
			return "", err
		}
	}

	// The org repo's message is the primary output.
	if message, ok := messages[orgRepoDir]; ok {
		if err := o.outputs.Set("commit_message", message); err != nil {
			return "", err
		}
	}

	return name, nil
}

// copyFormula distributes the formula file into every destination directory.
// A destination missing after the copy invalidates every downstream step, so
// the existence check is always fatal.
func (o *Orchestrator) copyFormula(src, filename, name string, dests []string) error {
	o.console.StartGroup(fmt.Sprintf("Copying formula %s to tap directories", name))
	defer o.console.EndGroup()

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read formula file %s: %w", src, err)
	}

	for _, dir := range dests {
		o.console.Printf("Copying %s to %s\n", filename, dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create tap directory %s: %w", dir, err)
		}

		dest := filepath.Join(dir, filename)
		// brew audit requires formulae to be world-readable and rejects
		// executable ones.
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("copy formula to %s: %w", dest, err)
		}
		if err := os.Chmod(dest, 0o644); err != nil {
			return fmt.Errorf("set permissions on %s: %w", dest, err)
		}

		if _, err := os.Stat(dest); err != nil {
			return fmt.Errorf("formula file %s was not copied to %s: %w", filename, dir, err)
		}
		o.console.Printf("Copied %s to %s\n", filename, dir)
	}
	return nil
}

// validate runs the fixed validation pipeline: environment prerequisites are
// fatal, the formula checks accumulate and are reported together.
func (o *Orchestrator) validate(name string) error {
	p := pipeline.New(o.state)
	steps := []pipeline.Step{
		{Name: "upgrade", Fatal: true, Run: o.brew.Upgrade},
		{Name: "cleanup-before", Fatal: true, Run: o.brew.TestBotCleanupBefore},
		{Name: "setup", Fatal: true, Run: o.brew.TestBotSetup},
		{Name: "audit", Run: func() (bool, error) { return o.brew.Audit(name) }},
		{Name: "tap-syntax", Run: o.brew.TestBotTapSyntax},
		{Name: "install", Run: o.installStep(name)},
		{Name: "test", Run: o.testStep(name)},
		{Name: "formulae", Run: func() (bool, error) {
			return o.brew.TestBotFormulae(name, brew.FormulaeOptions{
				OrgRepo:                o.cfg.OrgHomebrewRepo,
				SkipStableVersionAudit: o.cfg.SkipStableVersionAudit,
				SkipLivecheck:          o.cfg.IsForkPR,
			})
		}},
	}

	if err := p.Run(steps); err != nil {
		return err
	}

	o.console.Printf("Formula %s passed all checks!\n", name)
	return nil
}

// installStep builds the formula and publishes the discovered build tree.
func (o *Orchestrator) installStep(name string) func() (bool, error) {
	return func() (bool, error) {
		o.console.StartGroup(fmt.Sprintf("Installing formula %s", name))
		defer o.console.EndGroup()

		ok, err := o.brew.Install(name)
		if err != nil {
			return false, err
		}

		dir, err := o.finder.Find(name)
		if err != nil {
			return false, err
		}
		o.buildPath = dir
		if err := o.outputs.Set("buildpath", dir); err != nil {
			return false, err
		}
		return ok, nil
	}
}

// testStep runs the formula's tests and publishes the discovered test tree.
func (o *Orchestrator) testStep(name string) func() (bool, error) {
	return func() (bool, error) {
		o.console.StartGroup(fmt.Sprintf("Testing formula %s", name))
		defer o.console.EndGroup()

		ok, err := o.brew.Test(name, o.buildPath)
		if err != nil {
			return false, err
		}

		dir, err := o.finder.Find(name)
		if err != nil {
			return false, err
		}
		if err := o.outputs.Set("testpath", dir); err != nil {
			return false, err
		}
		return ok, nil
	}
}
