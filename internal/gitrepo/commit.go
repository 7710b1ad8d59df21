package gitrepo

import (
	"fmt"

	"github.com/lizardbyte/release-homebrew/internal/ghactions"
	"github.com/lizardbyte/release-homebrew/internal/runner"
)

// Author carries the optional git identity overrides for release commits.
type Author struct {
	Email string
	Name  string
}

// Commit stages everything in the repository at path and commits it with the
// given message. Committing an unchanged tree is not an error: release runs
// that change nothing must not poison the overall result.
func Commit(r *runner.Runner, console *ghactions.Writer, path, message string, author Author) error {
	console.StartGroup(fmt.Sprintf("Committing formula changes in %s", path))
	defer console.EndGroup()

	if author.Email != "" {
		console.Printf("Configuring git user.email: %s\n", author.Email)
		if _, err := r.Run(runner.Command{
			Args: []string{"git", "config", "user.email", author.Email},
			Dir:  path,
		}); err != nil {
			return err
		}
	}
	if author.Name != "" {
		console.Printf("Configuring git user.name: %s\n", author.Name)
		if _, err := r.Run(runner.Command{
			Args: []string{"git", "config", "user.name", author.Name},
			Dir:  path,
		}); err != nil {
			return err
		}
	}

	console.Printf("Adding changes to git\n")
	if _, err := r.Run(runner.Command{
		Args: []string{"git", "add", "-A"},
		Dir:  path,
	}); err != nil {
		return err
	}

	console.Printf("Committing changes: %s\n", message)
	if _, err := r.Run(runner.Command{
		Args:        []string{"git", "commit", "-m", message},
		Dir:         path,
		IgnoreError: true, // nothing to commit
	}); err != nil {
		return err
	}
	return nil
}
