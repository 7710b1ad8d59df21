// Package tap resolves the target tap repository identity from the
// "owner/repo" input. Homebrew requires tap repositories to be named
// homebrew-<tap>; the one exception is this project's own CI, which tests
// the action against its own repository.
package tap

import (
	"fmt"
	"strings"
)

const (
	homebrewPrefix = "homebrew-"

	// selfTestRepo is the carve-out used by CI to exercise the action
	// against a repository not named homebrew-*.
	selfTestRepo    = "LizardByte/actions"
	selfTestTapName = "actions"
)

// Identity identifies the tap a release targets. Resolved once per run and
// treated as read-only afterwards.
type Identity struct {
	Owner string
	Name  string
}

// Resolve derives the tap identity from an "owner/repo" string.
func Resolve(input string) (Identity, error) {
	owner, repo, ok := strings.Cut(input, "/")
	if !ok || owner == "" || repo == "" {
		return Identity{}, fmt.Errorf("repository %q is not in owner/repo form", input)
	}

	if strings.HasPrefix(repo, homebrewPrefix) {
		return Identity{Owner: owner, Name: strings.TrimPrefix(repo, homebrewPrefix)}, nil
	}
	if input == selfTestRepo {
		return Identity{Owner: owner, Name: selfTestTapName}, nil
	}

	return Identity{}, fmt.Errorf(
		"repository name %q does not follow the Homebrew tap naming convention: "+
			"it must start with %q (e.g. \"owner/homebrew-tap\"); current value: %s",
		repo, homebrewPrefix, input)
}

// String returns the tap reference passed to brew, e.g. "owner/tap".
func (i Identity) String() string {
	return strings.ToLower(i.Owner) + "/" + i.Name
}

// Qualified returns the fully qualified formula reference, e.g.
// "owner/tap/formula".
func (i Identity) Qualified(formula string) string {
	return i.String() + "/" + formula
}
