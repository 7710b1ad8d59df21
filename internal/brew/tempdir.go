package brew

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lizardbyte/release-homebrew/internal/ghactions"
)

// TempDirFinder locates the ephemeral build and test trees `--keep-tmp`
// leaves behind, so their paths can be published for downstream steps. Each
// discovered directory is remembered for the rest of the run: the install and
// test steps produce distinct `<formula>-*` trees under the same root, and a
// second search must not return the first hit again.
type TempDirFinder struct {
	console *ghactions.Writer
	roots   []string
	seen    map[string]struct{}
}

// NewTempDirFinder creates a finder over the platform-conventional temp
// roots. roots overrides the search list when non-nil (tests).
func NewTempDirFinder(console *ghactions.Writer, roots []string) *TempDirFinder {
	if roots == nil {
		roots = []string{
			os.Getenv("HOMEBREW_TEMP"), // if manually set
			"/private/tmp",             // macOS default
			"/var/tmp",                 // Linux default
		}
	}
	return &TempDirFinder{
		console: console,
		roots:   roots,
		seen:    make(map[string]struct{}),
	}
}

// Find returns the first directory named <formula>-* under the first existing
// temp root that has not already been discovered this run.
func (f *TempDirFinder) Find(formula string) (string, error) {
	f.console.Printf("Trying to find temp directory\n")

	var root string
	for _, candidate := range f.roots {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			root = candidate
			break
		}
	}
	if root == "" {
		return "", fmt.Errorf("could not find root temp directory")
	}
	f.console.Printf("Using temp directory %s\n", root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read temp directory %s: %w", root, err)
	}

	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if !strings.HasPrefix(entry.Name(), formula+"-") {
			continue
		}
		if _, ok := f.seen[dir]; ok {
			continue
		}
		f.console.Printf("Found temp directory %s\n", dir)
		f.seen[dir] = struct{}{}
		return dir, nil
	}

	return "", fmt.Errorf("could not find temp directory for formula %s under %s", formula, root)
}
