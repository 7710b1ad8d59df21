// Package pipeline sequences the named validation steps of a release run.
//
// Steps come in two kinds. Fatal steps are environment prerequisites
// (updating the toolchain, cleanup, setup): when one fails the run aborts
// immediately, because nothing past it can produce a meaningful result.
// Accumulating steps are independent checks on the same formula (audit,
// syntax, install, test): a failure is recorded and the remaining checks
// still run, so a single pass reports every problem instead of the first.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lizardbyte/release-homebrew/internal/logging"
	"github.com/lizardbyte/release-homebrew/internal/runner"
)

// Step is one named stage of the run.
type Step struct {
	Name  string
	Fatal bool
	// Run performs the step and reports success. A returned error aborts the
	// whole run regardless of kind; it is reserved for conditions that make
	// continuing meaningless (process creation failure, missing artifacts).
	Run func() (bool, error)
}

// Pipeline executes steps in order against a run state.
type Pipeline struct {
	state  *runner.State
	logger zerolog.Logger
}

// New creates a pipeline over the given run state.
func New(state *runner.State) *Pipeline {
	return &Pipeline{state: state, logger: logging.GetLogger("pipeline")}
}

// Run executes every step in order. Fatal-step failures abort immediately.
// After the last step, a non-empty failure record yields an error naming
// every failed step.
func (p *Pipeline) Run(steps []Step) error {
	for _, step := range steps {
		p.logger.Debug().Str("step", step.Name).Bool("fatal", step.Fatal).Msg("Running step")

		ok, err := step.Run()
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		if ok {
			continue
		}
		if step.Fatal {
			return fmt.Errorf("step %s failed", step.Name)
		}
		p.state.RecordFailedStep(step.Name)
	}

	if p.state.HadError() {
		failed := p.state.FailedSteps()
		if len(failed) == 0 {
			return fmt.Errorf("run failed outside named steps, check the logs")
		}
		return fmt.Errorf("formula did not pass checks: %s", strings.Join(failed, ", "))
	}
	return nil
}
