package ghactions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lizardbyte/release-homebrew/internal/logging"
)

// Outputs publishes action output values through the GITHUB_OUTPUT file.
type Outputs struct {
	path string
}

// NewOutputs resolves the output file from the environment. When GITHUB_OUTPUT
// is unset (local runs), Set becomes a logged no-op.
func NewOutputs() *Outputs {
	return &Outputs{path: os.Getenv("GITHUB_OUTPUT")}
}

// NewOutputsFile creates an Outputs writing to an explicit file path.
func NewOutputsFile(path string) *Outputs {
	return &Outputs{path: path}
}

// Set appends a name/value pair using the heredoc delimiter format so values
// may span multiple lines.
func (o *Outputs) Set(name, value string) error {
	if o.path == "" {
		logger := logging.GetLogger("ghactions")
		logger.Debug().
			Str("name", name).
			Str("value", value).
			Msg("GITHUB_OUTPUT not set, skipping output")
		return nil
	}

	abs, err := filepath.Abs(o.path)
	if err != nil {
		return fmt.Errorf("resolve output file %q: %w", o.path, err)
	}

	f, err := os.OpenFile(abs, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file %q: %w", abs, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s<<EOF\n%s\nEOF\n", name, value); err != nil {
		return fmt.Errorf("write output %q: %w", name, err)
	}
	return nil
}
