package runner

// State carries the failure record for one orchestrator run. It replaces the
// process-wide flags the workflow historically relied on: a fresh State is
// created per run and threaded through every component, so repeated runs (and
// tests) cannot contaminate each other.
//
// State is not safe for concurrent runs; a single pipeline owns it.
type State struct {
	hadError    bool
	failedSteps []string
}

// NewState creates an empty run state.
func NewState() *State {
	return &State{}
}

// Reset clears the state for a new top-level run.
func (s *State) Reset() {
	s.hadError = false
	s.failedSteps = nil
}

// MarkFailure records that some command in the run failed.
func (s *State) MarkFailure() {
	s.hadError = true
}

// HadError reports whether any non-ignored failure occurred.
func (s *State) HadError() bool {
	return s.hadError
}

// RecordFailedStep appends a named step to the failure list and marks the run
// as failed.
func (s *State) RecordFailedStep(name string) {
	s.hadError = true
	s.failedSteps = append(s.failedSteps, name)
}

// FailedSteps returns the names of failed accumulating steps in order.
func (s *State) FailedSteps() []string {
	return append([]string{}, s.failedSteps...)
}

// Snapshot returns the current failure flag so a caller can later Restore it.
// Used by the branch preparer, whose create-then-fallback protocol may record
// a failure that a successful fallback supersedes.
func (s *State) Snapshot() bool {
	return s.hadError
}

// Restore sets the failure flag back to a previous Snapshot value.
func (s *State) Restore(prev bool) {
	s.hadError = prev
}
