package brew

import (
	"fmt"

	"github.com/lizardbyte/release-homebrew/internal/runner"
)

// FormulaeOptions tune the final test-bot formulae pass.
type FormulaeOptions struct {
	// OrgRepo is the "owner/homebrew-x" input used to derive the bottle
	// root URL.
	OrgRepo string
	// SkipStableVersionAudit suppresses the stable-version audit substep.
	SkipStableVersionAudit bool
	// SkipLivecheck suppresses the livecheck substep; required when running
	// from a forked pull request without tap credentials.
	SkipLivecheck bool
}

// TestBotCleanupBefore resets the environment before validation.
func (b *Brew) TestBotCleanupBefore() (bool, error) {
	return b.testBotOnly("--only-cleanup-before")
}

// TestBotSetup verifies the test-bot environment.
func (b *Brew) TestBotSetup() (bool, error) {
	return b.testBotOnly("--only-setup")
}

// TestBotTapSyntax style-checks the whole tap.
func (b *Brew) TestBotTapSyntax() (bool, error) {
	return b.testBotOnly("--only-tap-syntax")
}

func (b *Brew) testBotOnly(flag string) (bool, error) {
	b.console.StartGroup(fmt.Sprintf("Running brew test-bot %s", flag))
	defer b.console.EndGroup()

	res, err := b.runner.Run(runner.Command{Args: []string{
		"brew", "test-bot",
		"--tap=" + b.tap.String(),
		flag,
	}})
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// TestBotFormulae runs the formula-level test-bot pass, building bottles for
// the tested formula.
func (b *Brew) TestBotFormulae(formula string, opts FormulaeOptions) (bool, error) {
	b.console.StartGroup(fmt.Sprintf("Running brew test-bot --only-formulae for %s", formula))
	defer b.console.EndGroup()

	args := []string{
		"brew", "test-bot",
		"--only-formulae",
		"--tap=" + b.tap.String(),
		"--testing-formulae=" + b.tap.Qualified(formula),
		"--root-url=" + RootURL(opts.OrgRepo),
	}
	if opts.SkipStableVersionAudit {
		args = append(args, "--skip-stable-version-audit")
	}
	if opts.SkipLivecheck {
		args = append(args, "--skip-livecheck")
		b.console.Printf("Skipping livecheck (running from fork PR)\n")
	}

	res, err := b.runner.Run(runner.Command{
		Args: args,
		// Skips advanced tests while bottles are being built.
		Env: map[string]string{"HOMEBREW_BOTTLE_BUILD": "true"},
	})
	if err != nil {
		return false, err
	}
	return res.Success, nil
}
