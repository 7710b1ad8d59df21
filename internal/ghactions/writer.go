package ghactions

import (
	"fmt"
	"io"
	"os"
)

// Writer emits log lines using GitHub Actions workflow commands when running
// inside a workflow, and plain markers otherwise so local runs stay readable.
type Writer struct {
	out   io.Writer
	plain bool
}

// NewWriter creates a Writer targeting out. Workflow-command mode is selected
// by the GITHUB_ACTIONS environment variable.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, plain: os.Getenv("GITHUB_ACTIONS") != "true"}
}

// NewPlainWriter creates a Writer that always uses plain markers.
func NewPlainWriter(out io.Writer) *Writer {
	return &Writer{out: out, plain: true}
}

// StartGroup opens a collapsible log group.
func (w *Writer) StartGroup(title string) {
	if w.plain {
		fmt.Fprintf(w.out, ">> %s\n", title)
		return
	}
	fmt.Fprintf(w.out, "::group::%s\n", title)
}

// EndGroup closes the current log group.
func (w *Writer) EndGroup() {
	if w.plain {
		fmt.Fprintln(w.out, "<< END")
		return
	}
	fmt.Fprintln(w.out, "::endgroup::")
}

// Errorf emits an error annotation.
func (w *Writer) Errorf(format string, args ...any) {
	fmt.Fprintf(w.out, "::error:: "+format+"\n", args...)
}

// Printf writes an ordinary log line.
func (w *Writer) Printf(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

// Raw returns the underlying writer, for streaming subprocess output.
func (w *Writer) Raw() io.Writer {
	return w.out
}
