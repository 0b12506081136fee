// ABOUTME: Changeset format validation and vcs side parsing
// ABOUTME: Enforces the lowercase 40-hex contract before anything reaches the store

package mapper

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/relops/vcsmap/internal/store"
)

// ErrInvalidFormat is returned when a changeset fails the hex-length pattern
var ErrInvalidFormat = errors.New("invalid changeset format")

// ErrUnknownVCS is returned when a vcs side is neither "hg" nor "git"
var ErrUnknownVCS = errors.New("unknown vcs type")

// storedChangesetLen is the exact length required for storage. Shorter hex
// strings are valid only as lookup prefixes.
const storedChangesetLen = 40

var revPattern = regexp.MustCompile(`^[a-f0-9]{1,40}$`)

// CheckChangeset validates that sha is 1-40 lowercase hex characters. When
// exact is true it must additionally be the full 40 characters, as required
// for storage; prefix lookups pass exact=false.
func CheckChangeset(sha string, exact bool) error {
	if !revPattern.MatchString(sha) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, sha)
	}
	if exact && len(sha) != storedChangesetLen {
		return fmt.Errorf("%w: %q is not %d characters", ErrInvalidFormat, sha, storedChangesetLen)
	}
	return nil
}

// ParseVCS converts a vcs side string from a request into the typed enum the
// store dispatches on. Returns ErrUnknownVCS for anything but "hg" or "git".
func ParseVCS(side string) (store.VCS, error) {
	switch side {
	case "hg":
		return store.VCSHg, nil
	case "git":
		return store.VCSGit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVCS, side)
	}
}
