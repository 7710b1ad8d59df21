package gitrepo

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lizardbyte/release-homebrew/internal/ghactions"
	"github.com/lizardbyte/release-homebrew/internal/runner"
)

func skipWithoutGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("tests require git on PATH")
	}
}

func newTestRunner(t *testing.T) (*runner.Runner, *runner.State, *bytes.Buffer) {
	t.Helper()
	state := runner.NewState()
	var buf bytes.Buffer
	return runner.New(state, runner.Options{Console: ghactions.NewPlainWriter(&buf)}), state, &buf
}

// initRepo creates a git repository with one committed file and returns its
// path.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	git("init", "--initial-branch=main")
	git("config", "user.email", "test@example.com")
	git("config", "user.name", "Test")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	git("add", "-A")
	git("commit", "-m", "initial")
	return dir
}

func newPreparer(t *testing.T) (*Preparer, *runner.State, *bytes.Buffer) {
	t.Helper()
	r, state, buf := newTestRunner(t)
	console := ghactions.NewPlainWriter(buf)
	return NewPreparer(r, console, ghactions.NewOutputsFile("")), state, buf
}

func TestPrepareCreatesBranch(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)
	p, state, _ := newPreparer(t)

	branch, err := p.Prepare(BranchSpec{Suffix: "hello_world"}, repo, "org repo", "org_homebrew_repo_branch")
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if branch != BranchPrefix+"hello_world" {
		t.Fatalf("unexpected branch name: %q", branch)
	}
	if got := currentBranch(t, repo); got != branch {
		t.Fatalf("repository on %q, want %q", got, branch)
	}
	if state.HadError() {
		t.Fatalf("failure flag set after successful preparation")
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)
	p, state, buf := newPreparer(t)

	spec := BranchSpec{Suffix: "hello_world"}
	first, err := p.Prepare(spec, repo, "org repo", "branch")
	if err != nil {
		t.Fatalf("first Prepare: %v", err)
	}
	buf.Reset()

	second, err := p.Prepare(spec, repo, "org repo", "branch")
	if err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if second != first {
		t.Fatalf("branch changed between calls: %q vs %q", first, second)
	}
	if !strings.Contains(buf.String(), "Already on branch") {
		t.Fatalf("second call should reuse the checked-out branch:\n%s", buf.String())
	}
	if state.HadError() {
		t.Fatalf("failure flag set by idempotent preparation")
	}
}

func TestPrepareFallsBackToExistingBranch(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)
	p, state, _ := newPreparer(t)

	// Create the branch out of band, then switch away so `checkout -b`
	// fails and the fallback path runs.
	for _, args := range [][]string{
		{"checkout", "-b", "existing"},
		{"checkout", "main"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = repo
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	branch, err := p.Prepare(BranchSpec{Custom: "existing"}, repo, "org repo", "branch")
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if branch != "existing" {
		t.Fatalf("unexpected branch: %q", branch)
	}
	if got := currentBranch(t, repo); got != "existing" {
		t.Fatalf("repository on %q, want existing", got)
	}
	if state.HadError() {
		t.Fatalf("failure flag should be restored after a successful fallback")
	}
}

func TestPrepareForksFromBase(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)
	p, _, _ := newPreparer(t)

	// Put a commit on the base branch that main does not have, so the fork
	// point is observable.
	for _, args := range [][]string{
		{"checkout", "-b", "stable"},
		{"commit", "--allow-empty", "-m", "on stable"},
		{"checkout", "main"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = repo
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	spec := BranchSpec{Suffix: "hello_world", Base: "stable"}
	if _, err := p.Prepare(spec, repo, "org repo", "branch"); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}

	rev := func(ref string) string {
		cmd := exec.Command("git", "rev-parse", ref)
		cmd.Dir = repo
		out, err := cmd.Output()
		if err != nil {
			t.Fatalf("rev-parse %s: %v", ref, err)
		}
		return strings.TrimSpace(string(out))
	}
	if rev("HEAD") != rev("stable") {
		t.Fatalf("branch not forked from base: HEAD=%s stable=%s", rev("HEAD"), rev("stable"))
	}
}

func TestPrepareCustomBranchName(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)
	p, _, _ := newPreparer(t)

	branch, err := p.Prepare(BranchSpec{Suffix: "ignored", Custom: "feature/my-branch"}, repo, "org repo", "branch")
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if branch != "feature/my-branch" {
		t.Fatalf("custom name not used: %q", branch)
	}
}

func TestCurrentBranchLeavesStateAlone(t *testing.T) {
	skipWithoutGit(t)
	r, state, _ := newTestRunner(t)

	if got := CurrentBranch(r, t.TempDir()); got != "" {
		t.Fatalf("expected empty branch outside a repository, got %q", got)
	}
	if state.HadError() {
		t.Fatalf("read-only probe must not mark the run failed")
	}
}

func TestTracked(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)
	r, state, _ := newTestRunner(t)

	if !Tracked(r, "README.md", repo) {
		t.Fatalf("committed file reported untracked")
	}
	if Tracked(r, "missing.rb", repo) {
		t.Fatalf("missing file reported tracked")
	}
	if state.HadError() {
		t.Fatalf("tracked query must not mark the run failed")
	}
}

func TestIsRepo(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)

	if !IsRepo(repo) {
		t.Fatalf("IsRepo false for a git repository")
	}
	if IsRepo(t.TempDir()) {
		t.Fatalf("IsRepo true for a plain directory")
	}
}

func TestCommit(t *testing.T) {
	skipWithoutGit(t)
	repo := initRepo(t)
	r, state, buf := newTestRunner(t)
	console := ghactions.NewPlainWriter(buf)

	if err := os.MkdirAll(filepath.Join(repo, "Formula", "h"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repo, "Formula", "h", "hello_world.rb"),
		[]byte("class HelloWorld < Formula\nend\n"), 0o644); err != nil {
		t.Fatalf("write formula: %v", err)
	}

	msg := "Update hello_world.rb"
	if err := Commit(r, console, repo, msg, Author{Email: "bot@example.com", Name: "Bot"}); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	cmd := exec.Command("git", "log", "-1", "--pretty=%s|%ae|%an")
	cmd.Dir = repo
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git log: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != msg+"|bot@example.com|Bot" {
		t.Fatalf("unexpected head commit: %q", got)
	}
	if state.HadError() {
		t.Fatalf("failure flag set after successful commit")
	}

	// A second commit with nothing staged must not fail the run.
	if err := Commit(r, console, repo, "no-op", Author{}); err != nil {
		t.Fatalf("empty Commit returned error: %v", err)
	}
	if state.HadError() {
		t.Fatalf("empty commit marked the run failed")
	}
}

func currentBranch(t *testing.T, repo string) string {
	t.Helper()
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = repo
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("rev-parse: %v", err)
	}
	return strings.TrimSpace(string(out))
}
