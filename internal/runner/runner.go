package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lizardbyte/release-homebrew/internal/ghactions"
	"github.com/lizardbyte/release-homebrew/internal/logging"
)

// Command describes one subprocess invocation.
type Command struct {
	// Args is the full argument vector; Args[0] is the executable.
	Args []string
	// Dir overrides the working directory when non-empty.
	Dir string
	// Env is overlaid on the runner's base environment.
	Env map[string]string
	// IgnoreError reports the invocation as successful regardless of exit
	// code and leaves the run state untouched. Used for best-effort commands
	// such as committing an unchanged tree.
	IgnoreError bool
}

// Result reports how an invocation finished.
type Result struct {
	ExitCode int
	Success  bool
}

// Options configure a Runner.
type Options struct {
	// Console receives the live, interleaved stdout/stderr of every command
	// and its failure annotations; defaults to a writer over os.Stdout.
	Console *ghactions.Writer
	// Env is the base environment; defaults to os.Environ().
	Env []string
	// Logger receives diagnostics; nil selects the runner component logger.
	Logger *zerolog.Logger
}

// Runner launches external commands, streams their output as it is produced,
// and folds exit status into the run State. Commands have no timeout: a hung
// external tool hangs the run.
type Runner struct {
	console *ghactions.Writer
	raw     io.Writer
	mu      sync.Mutex
	base    []string
	logger  zerolog.Logger
	state   *State
}

// New creates a runner bound to the given run state.
func New(state *State, opts Options) *Runner {
	if opts.Console == nil {
		opts.Console = ghactions.NewWriter(os.Stdout)
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	logger := logging.GetLogger("runner")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Runner{
		console: opts.Console,
		raw:     opts.Console.Raw(),
		base:    append([]string{}, opts.Env...),
		logger:  logger,
		state:   state,
	}
}

// State returns the run state this runner reports failures to.
func (r *Runner) State() *State {
	return r.state
}

// Run executes cmd, streaming output line by line to the console while the
// process runs and draining whatever remains after it exits. A non-zero exit
// never returns a Go error; the returned error is reserved for process
// creation failures (missing executable, permission denied).
func (r *Runner) Run(cmd Command) (Result, error) {
	if len(cmd.Args) == 0 {
		return Result{}, errors.New("empty command")
	}

	r.logger.Debug().Strs("args", cmd.Args).Str("dir", cmd.Dir).Msg("Running command")

	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	c.Env = overlayEnv(r.base, cmd.Env)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("pipe stdout for %v: %w", cmd.Args, err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("pipe stderr for %v: %w", cmd.Args, err)
	}

	if err := c.Start(); err != nil {
		return Result{}, fmt.Errorf("start %v: %w", cmd.Args, err)
	}

	// One reader per pipe so neither stream can fill its buffer and block
	// the child. Both are joined before Wait, which also drains anything
	// still buffered when the process exits.
	var wg sync.WaitGroup
	wg.Add(2)
	go r.stream(&wg, stdout)
	go r.stream(&wg, stderr)
	wg.Wait()

	exit := exitCode(c.Wait())
	if exit == 0 {
		return Result{ExitCode: 0, Success: true}, nil
	}

	r.console.Errorf("Process %v failed with exit code %d", cmd.Args, exit)
	if cmd.IgnoreError {
		return Result{ExitCode: exit, Success: true}, nil
	}

	r.state.MarkFailure()
	return Result{ExitCode: exit, Success: false}, nil
}

// Capture executes cmd with buffered output and returns the trimmed combined
// stdout/stderr together with the exit code. It is for read-only diagnostic
// queries: it never streams to the console and never touches the run State,
// so a probe's exit status cannot masquerade as a pipeline failure.
func (r *Runner) Capture(cmd Command) (string, int, error) {
	if len(cmd.Args) == 0 {
		return "", 0, errors.New("empty command")
	}

	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	c.Env = overlayEnv(r.base, cmd.Env)

	var buf strings.Builder
	c.Stdout = &buf
	c.Stderr = &buf

	err := c.Run()
	out := strings.TrimSpace(buf.String())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, exitCode(err), nil
		}
		return "", 0, fmt.Errorf("run %v: %w", cmd.Args, err)
	}
	return out, 0, nil
}

func (r *Runner) stream(wg *sync.WaitGroup, pipe io.Reader) {
	defer wg.Done()
	sc := bufio.NewScanner(pipe)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		r.mu.Lock()
		fmt.Fprintln(r.raw, sc.Text())
		r.mu.Unlock()
	}
}

func overlayEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	envMap := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range overlay {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
