// Package git is the version-control client used by registers.
//
// Local operations (open, init, stage, commit, remotes, push) run in-process
// through go-git. Pull with rebase is not supported by go-git, so it shells out
// to the git binary the same way the rest of the package parses git stderr
// into sentinel errors.
package git

import (
	"context"
	"errors"
	"time"
)

// Git-specific errors.
var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrTimeout indicates a network operation exceeded the client timeout.
	ErrTimeout = errors.New("git operation timed out")

	// ErrRebaseConflict indicates pull --rebase stopped on a conflict.
	ErrRebaseConflict = errors.New("rebase stopped on conflict")

	// ErrRemoteNotFound indicates the named remote is not configured.
	ErrRemoteNotFound = errors.New("remote not found")
)

// Defaults applied when Config fields are zero.
const (
	DefaultTimeout     = 2 * time.Minute
	DefaultAuthorName  = "paneron"
	DefaultAuthorEmail = "paneron@localhost"
)

// Config configures a Client.
type Config struct {
	// Timeout bounds clone, pull and push. Zero means DefaultTimeout.
	Timeout time.Duration

	// AuthorName and AuthorEmail sign commits created by the client.
	AuthorName  string
	AuthorEmail string
}

// Client opens, initializes and clones repositories.
type Client interface {
	// Open opens an existing repository rooted at path.
	// Returns ErrNotGitRepo if path is not a repository root.
	Open(path string) (Repository, error)

	// Init creates a repository at path with branch as the initial HEAD.
	// If a repository already exists it is opened instead.
	Init(path, branch string) (Repository, error)

	// Clone clones url into path, naming the remote remoteName.
	// Cloning an empty remote initializes path and configures the remote.
	// Returns ErrTimeout if the client timeout is exceeded.
	Clone(ctx context.Context, url, path, remoteName, branch string) (Repository, error)
}

// Repository is an open working tree.
type Repository interface {
	// Path returns the working tree root.
	Path() string

	// AddAll stages every change in the working tree, including deletions.
	AddAll() error

	// HasStagedChanges reports whether the index differs from HEAD.
	HasStagedChanges() (bool, error)

	// Commit records the index and returns the new commit hash.
	Commit(message string) (string, error)

	// RemoteURL returns the first URL of the named remote.
	// Returns ErrRemoteNotFound if the remote doesn't exist.
	RemoteURL(name string) (string, error)

	// SetRemote points the named remote at url, replacing any existing one.
	SetRemote(name, url string) error

	// RemoveRemote deletes the named remote. Missing remotes are ignored.
	RemoveRemote(name string) error

	// PullRebase runs pull --rebase against remote/branch.
	PullRebase(ctx context.Context, remote, branch string) error

	// Push pushes the current branch to remote/branch and updates the
	// remote tracking ref.
	Push(ctx context.Context, remote, branch string) error

	// HasUnpushedCommits reports whether HEAD differs from the remote
	// tracking ref, or the tracking ref is missing.
	HasUnpushedCommits(remote, branch string) (bool, error)

	// HeadHash returns the commit hash at HEAD, or "" for an empty repository.
	HeadHash() (string, error)
}
