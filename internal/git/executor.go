package git

import (
	"context"
	"time"
)

// CommitInfo holds information about a git commit.
type CommitInfo struct {
	Hash      string    // Full 40-char SHA
	ShortHash string    // 7-char abbreviated hash
	Subject   string    // First line of commit message
	Author    string    // Author name
	Date      time.Time // Commit timestamp
}

// Executor defines the interface for git operations against the catalog's
// source repository. This abstraction allows for easy testing with mock
// implementations.
type Executor interface {
	// Clone clones url into the executor's working directory.
	Clone(ctx context.Context, url string) error
	// Pull fast-forwards the checkout to the remote state. Returns
	// ErrRemoteUnavailable when the remote cannot be reached; callers treat
	// that as a degraded condition, not a failure of the checkout.
	Pull(ctx context.Context) error
	// CurrentCommit returns info about HEAD.
	CurrentCommit() (CommitInfo, error)
	// IsGitRepo reports whether the working directory is a git repository.
	IsGitRepo() bool
	// GetRemoteURL returns the URL for the named remote (e.g., "origin").
	// Returns empty string and nil error if the remote doesn't exist.
	GetRemoteURL(name string) (string, error)
	// HasUncommittedChanges reports whether the checkout has local edits.
	HasUncommittedChanges() (bool, error)
}
