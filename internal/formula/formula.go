// Package formula extracts release metadata from a Homebrew formula file.
package formula

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lizardbyte/release-homebrew/internal/logging"
)

// Validate checks that path names an existing regular file with the .rb
// extension expected of a formula.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("formula file %s does not exist", path)
		}
		return fmt.Errorf("stat formula file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("formula file %s is not a file", path)
	}
	if !strings.HasSuffix(path, ".rb") {
		return fmt.Errorf("formula file %s is not a .rb file", path)
	}
	return nil
}

// Name returns the formula name derived from the filename, i.e. everything
// before the first dot.
func Name(path string) string {
	base := filepath.Base(path)
	if idx := strings.Index(base, "."); idx != -1 {
		return base[:idx]
	}
	return base
}

// FirstLetter returns the lowercased first letter of the formula filename,
// used for the Formula/<letter>/ sharding scheme of large taps.
func FirstLetter(path string) string {
	base := filepath.Base(path)
	if base == "" {
		return ""
	}
	return strings.ToLower(base[:1])
}

// ExtractVersion scans a formula file for its version string.
//
// The primary rule takes a class-level `version "x.y.z"` line: exactly two
// leading spaces (four or more would be an inner block such as a resource or
// head spec), trimmed content starting with "version", and a quoted value.
// The first such line wins and ends the scan.
//
// The fallback is the first `tag: "vx.y.z"` line at any indentation. A tag
// match does not stop the scan, since a version line later in the file still
// overrides it, but only the first tag is ever taken.
//
// Missing or unreadable files are logged and reported as not found.
func ExtractVersion(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		logger := logging.GetLogger("formula")
		logger.Warn().Err(err).Str("path", path).
			Msg("Could not extract version from formula")
		return "", false
	}
	defer f.Close()

	var version string
	var tagFound bool

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "    ") &&
			strings.HasPrefix(trimmed, "version") && strings.Contains(line, `"`):
			if v, ok := firstQuoted(line); ok {
				return v, true
			}
		case !tagFound && version == "" &&
			strings.HasPrefix(trimmed, "tag:") && strings.Contains(line, `"`):
			if v, ok := firstQuoted(line); ok {
				version = v
				tagFound = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		logger := logging.GetLogger("formula")
		logger.Warn().Err(err).Str("path", path).
			Msg("Could not extract version from formula")
		return "", false
	}

	return version, version != ""
}

// CommitMessage derives the commit message for a formula release, following
// homebrew-core conventions: "name version" for updates, with a
// "(new formula)" suffix for first-time additions.
func CommitMessage(name, version string, isNew bool) string {
	switch {
	case isNew && version != "":
		return fmt.Sprintf("%s %s (new formula)", name, version)
	case isNew:
		return fmt.Sprintf("%s (new formula)", name)
	case version != "":
		return fmt.Sprintf("%s %s", name, version)
	default:
		return name
	}
}

// firstQuoted extracts the first double-quoted substring of line.
func firstQuoted(line string) (string, bool) {
	start := strings.IndexByte(line, '"')
	if start == -1 {
		return "", false
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end == -1 {
		return "", false
	}
	return line[start+1 : start+1+end], true
}
