package register

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zjrosen/paneron/internal/git"
	"github.com/zjrosen/paneron/internal/log"
)

type actionKind int

const (
	actionNone actionKind = iota
	actionClone
	actionInit
	actionInitThenReconcile
)

// pendingAction is repository work deferred from construction to the next
// Register save.
type pendingAction struct {
	kind actionKind
	url  string
}

func (a pendingAction) String() string {
	switch a.kind {
	case actionClone:
		return "clone(" + a.url + ")"
	case actionInit:
		return "init"
	case actionInitThenReconcile:
		return "init+remote(" + a.url + ")"
	default:
		return "none"
	}
}

// acquire decides how the repository is obtained:
//
//	URL     path exists  behavior
//	absent  yes          open; not a repository -> Init at save
//	absent  no           Init at save
//	set     yes          open, reconcile remote, pull if update; not a repository -> InitThenReconcile at save
//	set     no           clone now
func (r *Register) acquire(ctx context.Context) error {
	if !r.vcs {
		return nil
	}
	exists := dirExists(r.path)

	switch {
	case r.remoteURL == "" && exists:
		opened, err := r.openExisting(pendingAction{kind: actionInit})
		if err != nil || !opened {
			return err
		}
		return r.adoptRemote()

	case r.remoteURL == "":
		r.pending = pendingAction{kind: actionInit}
		return nil

	case exists:
		opened, err := r.openExisting(pendingAction{kind: actionInitThenReconcile, url: r.remoteURL})
		if err != nil || !opened {
			return err
		}
		if err := r.reconcileRemote(); err != nil {
			return err
		}
		if r.update {
			return r.pull(ctx)
		}
		return nil

	default:
		if err := r.clone(ctx, r.remoteURL); err != nil {
			return err
		}
		r.freshClone = true
		return nil
	}
}

// openExisting opens the repository at r.path. When the directory is not a
// repository, fallback becomes the pending action and opened is false.
func (r *Register) openExisting(fallback pendingAction) (opened bool, err error) {
	repo, err := r.client.Open(r.path)
	if errors.Is(err, git.ErrNotGitRepo) {
		log.Debug(log.CatGit, "not a repository, deferring", "path", r.path, "action", fallback.String())
		r.pending = fallback
		return false, nil
	}
	if err != nil {
		return false, r.gitErr("open", err)
	}
	r.repo = repo
	return true, nil
}

// adoptRemote picks up the URL of an already configured remote.
func (r *Register) adoptRemote() error {
	url, err := r.repo.RemoteURL(r.remoteName)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return nil
	}
	if err != nil {
		return r.gitErr("read remote", err)
	}
	r.remoteURL = url
	return nil
}

// reconcileRemote points the configured remote at r.remoteURL.
func (r *Register) reconcileRemote() error {
	current, err := r.repo.RemoteURL(r.remoteName)
	switch {
	case err == nil && current == r.remoteURL:
		return nil
	case err == nil && r.strictRemote:
		conflict := fmt.Errorf("%w: %s has %s=%s, requested %s",
			ErrGitConfigConflict, r.path, r.remoteName, current, r.remoteURL)
		log.WarnErr(log.CatGit, "remote mismatch", conflict)
		return conflict
	case err != nil && !errors.Is(err, git.ErrRemoteNotFound):
		return r.gitErr("read remote", err)
	}

	if err := r.repo.SetRemote(r.remoteName, r.remoteURL); err != nil {
		return r.gitErr("set remote", err)
	}
	log.Info(log.CatGit, "remote configured", "path", r.path, "remote", r.remoteName, "url", r.remoteURL)
	return nil
}

func (r *Register) clone(ctx context.Context, url string) error {
	log.Info(log.CatGit, "cloning", "url", url, "path", r.path)
	repo, err := r.client.Clone(ctx, url, r.path, r.remoteName, r.branch)
	if err != nil {
		return r.gitErr("clone", err)
	}
	r.repo = repo
	r.clonedFrom = url
	return nil
}

func (r *Register) pull(ctx context.Context) error {
	if err := r.repo.PullRebase(ctx, r.remoteName, r.branch); err != nil {
		return r.gitErr("pull", err)
	}
	return nil
}

// gitErr logs a version-control failure and wraps it for the caller.
func (r *Register) gitErr(op string, err error) error {
	log.WarnErr(log.CatGit, "git "+op+" failed", err, "path", r.path)
	return fmt.Errorf("git %s %s: %w", op, r.path, err)
}

// SetRemoteURL changes the remote. An empty URL removes the remote and
// leaves the register local-only. Before the first save of a fresh clone a
// new URL replaces the clone at save time.
func (r *Register) SetRemoteURL(url string) error {
	r.remoteURL = url
	if !r.vcs {
		return nil
	}

	switch {
	case r.freshClone && url == r.clonedFrom:
		r.pending = pendingAction{}
		return nil
	case r.freshClone && url != "":
		r.pending = pendingAction{kind: actionClone, url: url}
		return nil
	case r.pending.kind == actionClone:
		// Keep the clone already on disk, just without a remote.
		r.pending = pendingAction{}
	case r.pending.kind == actionInit && url != "":
		r.pending = pendingAction{kind: actionInitThenReconcile, url: url}
		return nil
	case r.pending.kind == actionInitThenReconcile:
		if url == "" {
			r.pending = pendingAction{kind: actionInit}
		} else {
			r.pending.url = url
		}
		return nil
	}

	if r.repo == nil {
		return nil
	}
	if url == "" {
		if err := r.repo.RemoveRemote(r.remoteName); err != nil {
			return r.gitErr("remove remote", err)
		}
		log.Info(log.CatGit, "remote removed", "path", r.path, "remote", r.remoteName)
		return nil
	}
	return r.reconcileRemote()
}

// resolvePending runs the deferred repository action, if any.
func (r *Register) resolvePending(ctx context.Context) error {
	action := r.pending
	if !r.vcs || action.kind == actionNone {
		return nil
	}
	log.Debug(log.CatGit, "resolving pending action", "path", r.path, "action", action.String())

	switch action.kind {
	case actionInit, actionInitThenReconcile:
		if err := os.MkdirAll(r.path, 0o755); err != nil {
			return &PathError{Op: "mkdir", Path: r.path, Err: err}
		}
		repo, err := r.client.Init(r.path, r.branch)
		if err != nil {
			return r.gitErr("init", err)
		}
		r.repo = repo
		if action.kind == actionInitThenReconcile {
			r.remoteURL = action.url
			if err := r.reconcileRemote(); err != nil {
				return err
			}
		}

	case actionClone:
		if r.freshClone {
			if err := os.RemoveAll(r.path); err != nil {
				return &PathError{Op: "remove stale clone", Path: r.path, Err: err}
			}
		}
		r.repo = nil
		if err := r.clone(ctx, action.url); err != nil {
			return err
		}
		r.dataSets.reset()
		if err := r.loadMetadata(); err != nil {
			return err
		}
	}

	r.pending = pendingAction{}
	return nil
}
