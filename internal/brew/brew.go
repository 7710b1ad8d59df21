// Package brew wraps the Homebrew command-line interface. Every operation is
// a subprocess invocation through the shared runner; this package only knows
// how to build the argument vectors and where Homebrew leaves its artifacts.
package brew

import (
	"fmt"
	"strings"

	"github.com/lizardbyte/release-homebrew/internal/ghactions"
	"github.com/lizardbyte/release-homebrew/internal/runner"
	"github.com/lizardbyte/release-homebrew/internal/tap"
)

// noDependentsCheck skips Homebrew's installed-dependents scan, which is
// noise in a throwaway CI environment.
var noDependentsCheck = map[string]string{"HOMEBREW_NO_INSTALLED_DEPENDENTS_CHECK": "1"}

// Brew drives the brew CLI for one release run.
type Brew struct {
	runner  *runner.Runner
	console *ghactions.Writer
	tap     tap.Identity
}

// New creates a Brew bound to the resolved tap identity.
func New(r *runner.Runner, console *ghactions.Writer, id tap.Identity) *Brew {
	return &Brew{runner: r, console: console, tap: id}
}

// Installed reports whether the brew executable is reachable.
func Installed(r *runner.Runner, console *ghactions.Writer) (bool, error) {
	console.Printf("Checking if Homebrew is installed\n")
	res, err := r.Run(runner.Command{Args: []string{"brew", "--version"}})
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// DeveloperOn enables brew developer mode, which surfaces audit diagnostics
// that are hidden by default.
func (b *Brew) DeveloperOn() error {
	b.console.Printf("Enabling brew developer mode\n")
	_, err := b.runner.Run(runner.Command{Args: []string{"brew", "developer", "on"}})
	return err
}

// Tap registers the local checkout at dir as the release tap.
func (b *Brew) Tap(dir string) error {
	b.console.StartGroup(fmt.Sprintf("Tapping repository %s", b.tap))
	defer b.console.EndGroup()

	b.console.Printf("Running `brew tap %s %s`\n", b.tap, dir)
	_, err := b.runner.Run(runner.Command{Args: []string{"brew", "tap", b.tap.String(), dir}})
	return err
}

// Repository returns brew's repository root, used to locate the tapped
// checkout under Library/Taps.
func (b *Brew) Repository() (string, error) {
	out, code, err := b.runner.Capture(runner.Command{Args: []string{"brew", "--repository"}})
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("brew --repository exited with code %d", code)
	}
	return out, nil
}

// Upgrade updates Homebrew itself and upgrades installed packages.
func (b *Brew) Upgrade() (bool, error) {
	b.console.StartGroup("Updating and Upgrading Homebrew")
	defer b.console.EndGroup()

	b.console.Printf("Updating Homebrew\n")
	res, err := b.runner.Run(runner.Command{
		Args: []string{"brew", "update"},
		Env:  noDependentsCheck,
	})
	if err != nil || !res.Success {
		return false, err
	}

	b.console.Printf("Upgrading Homebrew\n")
	res, err = b.runner.Run(runner.Command{
		Args: []string{"brew", "upgrade"},
		Env:  noDependentsCheck,
	})
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// Audit runs the strict online audit of the qualified formula.
func (b *Brew) Audit(formula string) (bool, error) {
	b.console.StartGroup(fmt.Sprintf("Auditing formula %s", formula))
	defer b.console.EndGroup()

	res, err := b.runner.Run(runner.Command{Args: []string{
		"brew", "audit",
		"--os=all",
		"--arch=all",
		"--strict",
		"--online",
		b.tap.Qualified(formula),
	}})
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// Install builds the formula from source with its test harness included,
// keeping the temporary build tree for later discovery.
func (b *Brew) Install(formula string) (bool, error) {
	res, err := b.runner.Run(runner.Command{
		Args: []string{
			"brew", "install",
			"--build-from-source",
			"--include-test",
			"--keep-tmp",
			"--verbose",
			b.tap.Qualified(formula),
		},
		Env: noDependentsCheck,
	})
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// Test runs the formula's test block. buildPath, when non-empty, is exported
// as HOMEBREW_BUILDPATH for tests that reach back into the build tree.
func (b *Brew) Test(formula, buildPath string) (bool, error) {
	res, err := b.runner.Run(runner.Command{
		Args: []string{
			"brew", "test",
			"--keep-tmp",
			"--verbose",
			b.tap.Qualified(formula),
		},
		Env: map[string]string{"HOMEBREW_BUILDPATH": buildPath},
	})
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// RootURL derives the ghcr.io bottle root for an "owner/homebrew-x" repo.
func RootURL(orgRepo string) string {
	trimmed := orgRepo
	if idx := strings.LastIndex(orgRepo, "-"); idx != -1 {
		trimmed = orgRepo[:idx]
	}
	return "https://ghcr.io/v2/" + strings.ToLower(trimmed)
}
