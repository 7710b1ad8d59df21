// Package gitrepo drives the git operations of a release run: branch
// preparation, formula commits, and tracked-file queries. git is invoked as a
// subprocess through the shared runner.
package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lizardbyte/release-homebrew/internal/ghactions"
	"github.com/lizardbyte/release-homebrew/internal/runner"
)

// BranchPrefix is used for auto-generated release branch names.
const BranchPrefix = "release_homebrew_action/"

// BranchSpec describes how to name and create one release branch.
type BranchSpec struct {
	// Suffix completes the auto-generated branch name; typically the
	// formula name.
	Suffix string
	// Custom, when non-empty, is used verbatim instead of the generated
	// name.
	Custom string
	// Base, when non-empty, is the start point a newly created branch
	// forks from. Existing branches are checked out as they are.
	Base string
	// UpstreamRepo, when non-empty, is an "owner/repo" to sync the branch
	// with via shallow fetch and hard reset.
	UpstreamRepo string
	// UpstreamBranch is the branch in UpstreamRepo to reset to.
	UpstreamBranch string
}

// Preparer creates or reuses release branches in the managed checkouts.
type Preparer struct {
	runner  *runner.Runner
	console *ghactions.Writer
	outputs *ghactions.Outputs
}

// NewPreparer creates a Preparer.
func NewPreparer(r *runner.Runner, console *ghactions.Writer, outputs *ghactions.Outputs) *Preparer {
	return &Preparer{runner: r, console: console, outputs: outputs}
}

// Prepare ensures the branch described by spec exists and is checked out in
// the repository at path, optionally hard-resetting it to the upstream tip.
// The resolved branch name is published under outputName and returned.
//
// Preparing an already-checked-out branch is an idempotent no-op. Otherwise
// the branch is created with `checkout -b`, falling back to a plain
// `checkout` when it already exists locally; both failing is fatal.
func (p *Preparer) Prepare(spec BranchSpec, path, repoType, outputName string) (string, error) {
	p.console.StartGroup(fmt.Sprintf("Preparing %s branch", repoType))
	defer p.console.EndGroup()

	branch := spec.Custom
	if branch != "" {
		p.console.Printf("Using custom head branch: %s\n", branch)
	} else {
		branch = BranchPrefix + spec.Suffix
		p.console.Printf("Auto-generating head branch: %s\n", branch)
	}

	if CurrentBranch(p.runner, path) == branch {
		p.console.Printf("Already on branch %s\n", branch)
	} else {
		if err := p.checkout(branch, spec.Base, path); err != nil {
			return "", err
		}
	}

	if spec.UpstreamRepo != "" {
		if err := p.syncUpstream(spec, path); err != nil {
			return "", err
		}
	}

	if err := p.outputs.Set(outputName, branch); err != nil {
		return "", err
	}
	return branch, nil
}

// checkout creates branch in the repository at path, forking from base when
// one is given, falling back to checking out an existing branch of that name.
// A failed first attempt marks the run state; a successful fallback restores
// it to its pre-call value.
func (p *Preparer) checkout(branch, base, path string) error {
	prev := p.runner.State().Snapshot()

	args := []string{"git", "checkout", "-b", branch}
	if base != "" {
		args = append(args, base)
	}
	p.console.Printf("Attempt to create new branch %s\n", branch)
	res, err := p.runner.Run(runner.Command{
		Args: args,
		Dir:  path,
	})
	if err != nil {
		return err
	}

	if !res.Success {
		p.console.Printf("Attempting to checkout existing branch %s\n", branch)
		res, err = p.runner.Run(runner.Command{
			Args: []string{"git", "checkout", branch},
			Dir:  path,
		})
		if err != nil {
			return err
		}
	}

	if !res.Success {
		return fmt.Errorf("failed to create or checkout branch %q in %s", branch, path)
	}

	p.runner.State().Restore(prev)
	return nil
}

// syncUpstream discards any local divergence so the branch matches the
// upstream tip exactly: the branch is meant to start from upstream, not be
// merged with it.
func (p *Preparer) syncUpstream(spec BranchSpec, path string) error {
	p.console.Printf("Adding upstream remote\n")
	// Idempotent: adding an already-registered remote is not a failure.
	if _, err := p.runner.Run(runner.Command{
		Args:        []string{"git", "remote", "add", "upstream", "https://github.com/" + spec.UpstreamRepo},
		Dir:         path,
		IgnoreError: true,
	}); err != nil {
		return err
	}

	p.console.Printf("Fetching upstream remote\n")
	if _, err := p.runner.Run(runner.Command{
		Args: []string{"git", "fetch", "upstream", "--depth=1"},
		Dir:  path,
	}); err != nil {
		return err
	}

	p.console.Printf("Hard resetting to upstream/%s\n", spec.UpstreamBranch)
	if _, err := p.runner.Run(runner.Command{
		Args: []string{"git", "reset", "--hard", "upstream/" + spec.UpstreamBranch},
		Dir:  path,
	}); err != nil {
		return err
	}
	return nil
}

// CurrentBranch returns the checked-out branch of the repository at path, or
// "" when it cannot be determined. The probe is read-only and never touches
// the run state.
func CurrentBranch(r *runner.Runner, path string) string {
	out, code, err := r.Capture(runner.Command{
		Args: []string{"git", "rev-parse", "--abbrev-ref", "HEAD"},
		Dir:  path,
	})
	if err != nil || code != 0 {
		return ""
	}
	return strings.TrimSpace(out)
}

// Tracked reports whether path is already tracked by the repository at
// repoPath. A non-zero exit means "not tracked", never an error.
func Tracked(r *runner.Runner, path, repoPath string) bool {
	_, code, err := r.Capture(runner.Command{
		Args: []string{"git", "ls-files", "--error-unmatch", path},
		Dir:  repoPath,
	})
	return err == nil && code == 0
}

// IsRepo reports whether path contains a git working tree.
func IsRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}
