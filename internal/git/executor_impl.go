package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Git-specific errors for source repository operations.
var (
	// ErrRemoteUnavailable indicates the remote could not be reached.
	ErrRemoteUnavailable = errors.New("git remote unavailable")

	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrPathAlreadyExists indicates the clone target already exists.
	ErrPathAlreadyExists = errors.New("clone path already exists")

	// ErrNotFastForward indicates a pull could not fast-forward over local
	// history.
	ErrNotFastForward = errors.New("pull is not a fast-forward")
)

// Compile-time check that RealExecutor implements Executor.
var _ Executor = (*RealExecutor)(nil)

// RealExecutor implements Executor by executing actual git commands.
type RealExecutor struct {
	workDir string
}

// NewRealExecutor creates a new RealExecutor operating on workDir.
func NewRealExecutor(workDir string) *RealExecutor {
	return &RealExecutor{workDir: workDir}
}

// runGit executes a git command and returns an error if it fails.
func (e *RealExecutor) runGit(ctx context.Context, args ...string) error {
	_, err := e.runGitOutput(ctx, args...)
	return err
}

// runGitOutput executes a git command and returns stdout and any error.
func (e *RealExecutor) runGitOutput(ctx context.Context, args ...string) (string, error) {
	//nolint:gosec // G204: args come from controlled sources
	cmd := exec.CommandContext(ctx, "git", args...)
	if e.workDir != "" {
		cmd.Dir = e.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), ctx.Err())
		}
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", parseGitError(stderrStr, err)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// parseGitError converts git stderr messages to specific error types.
func parseGitError(stderr string, originalErr error) error {
	stderrLower := strings.ToLower(stderr)

	// Unreachable remote: "could not resolve host", "connection refused",
	// "could not read from remote repository", timeouts.
	if strings.Contains(stderrLower, "could not resolve host") ||
		strings.Contains(stderrLower, "connection refused") ||
		strings.Contains(stderrLower, "connection timed out") ||
		strings.Contains(stderrLower, "could not read from remote repository") ||
		strings.Contains(stderrLower, "unable to access") {
		return fmt.Errorf("%w: %s", ErrRemoteUnavailable, stderr)
	}

	// Clone target exists: fatal: destination path '<path>' already exists
	if strings.Contains(stderrLower, "already exists") {
		return fmt.Errorf("%w: %s", ErrPathAlreadyExists, stderr)
	}

	// Diverged local history: "not possible to fast-forward"
	if strings.Contains(stderrLower, "not possible to fast-forward") ||
		strings.Contains(stderrLower, "divergent branches") {
		return fmt.Errorf("%w: %s", ErrNotFastForward, stderr)
	}

	// Not a git repository
	if strings.Contains(stderrLower, "not a git repository") {
		return fmt.Errorf("%w: %s", ErrNotGitRepo, stderr)
	}

	return fmt.Errorf("git error: %s: %w", stderr, originalErr)
}

// Clone clones url into the working directory.
func (e *RealExecutor) Clone(ctx context.Context, url string) error {
	return e.runGit(ctx, "clone", url, ".")
}

// Pull fast-forwards the checkout to the remote state.
func (e *RealExecutor) Pull(ctx context.Context) error {
	return e.runGit(ctx, "pull", "--ff-only")
}

// IsGitRepo checks if the working directory is a git repository.
func (e *RealExecutor) IsGitRepo() bool {
	return e.runGit(context.Background(), "rev-parse", "--git-dir") == nil
}

// CurrentCommit returns info about HEAD.
func (e *RealExecutor) CurrentCommit() (CommitInfo, error) {
	// %H full hash, %h short hash, %s subject, %an author, %at unix time
	output, err := e.runGitOutput(context.Background(),
		"log", "-1", "--format=%H%x00%h%x00%s%x00%an%x00%at")
	if err != nil {
		return CommitInfo{}, err
	}

	parts := strings.Split(output, "\x00")
	if len(parts) != 5 {
		return CommitInfo{}, fmt.Errorf("unexpected git log output: %q", output)
	}
	unix, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("parse commit timestamp %q: %w", parts[4], err)
	}

	return CommitInfo{
		Hash:      parts[0],
		ShortHash: parts[1],
		Subject:   parts[2],
		Author:    parts[3],
		Date:      time.Unix(unix, 0).UTC(),
	}, nil
}

// GetRemoteURL returns the URL for the named remote.
func (e *RealExecutor) GetRemoteURL(name string) (string, error) {
	output, err := e.runGitOutput(context.Background(), "remote", "get-url", name)
	if err != nil {
		// Remote doesn't exist - not an error, just no URL
		if strings.Contains(err.Error(), "No such remote") ||
			strings.Contains(err.Error(), "no such remote") {
			return "", nil
		}
		return "", err
	}
	return output, nil
}

// HasUncommittedChanges checks if there are uncommitted changes in the
// working directory.
func (e *RealExecutor) HasUncommittedChanges() (bool, error) {
	output, err := e.runGitOutput(context.Background(), "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return output != "", nil
}
