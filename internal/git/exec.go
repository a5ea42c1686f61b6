package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runGitOutput executes a git command in dir and returns trimmed stdout.
func runGitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	//nolint:gosec // G204: args come from controlled sources
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
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

	if strings.Contains(stderrLower, "not a git repository") {
		return fmt.Errorf("%w: %s", ErrNotGitRepo, stderr)
	}

	// Rebase conflicts: "CONFLICT (content): ..." / "could not apply ..."
	if strings.Contains(stderrLower, "conflict") ||
		strings.Contains(stderrLower, "could not apply") {
		return fmt.Errorf("%w: %s", ErrRebaseConflict, stderr)
	}

	// Remote missing: "fatal: 'origin' does not appear to be a git repository"
	if strings.Contains(stderrLower, "does not appear to be a git repository") {
		return fmt.Errorf("%w: %s", ErrRemoteNotFound, stderr)
	}

	return fmt.Errorf("git error: %s: %w", stderr, originalErr)
}
