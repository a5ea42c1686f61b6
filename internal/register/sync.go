package register

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/tracing"
)

// DefaultSyncMessage is the commit message used by Sync when none is given.
const DefaultSyncMessage = "Sync from paneron"

// SyncOptions configures Sync.
type SyncOptions struct {
	// Update pulls with rebase before committing.
	Update bool

	// Message is the commit message. Empty means DefaultSyncMessage.
	Message string
}

// Sync pulls (when requested), stages, commits staged changes and pushes
// when the branch is ahead of its remote tracking ref.
func (r *Register) Sync(ctx context.Context, opts SyncOptions) (err error) {
	if r.remoteURL == "" {
		return ErrNoRemoteConfigured
	}
	if r.repo == nil {
		return fmt.Errorf("%w: repository for %s is not initialized, save the register first",
			ErrNoRemoteConfigured, r.path)
	}

	ctx, span := tracer().Start(ctx, tracing.SpanSync, trace.WithAttributes(
		attribute.String(tracing.AttrEntityPath, r.path),
		attribute.String(tracing.AttrRemoteName, r.remoteName),
		attribute.String(tracing.AttrBranch, r.branch),
		attribute.Bool(tracing.AttrUpdate, opts.Update),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if opts.Update {
		if err := r.pull(ctx); err != nil {
			return err
		}
		span.AddEvent(tracing.EventPulled)
	}

	message := opts.Message
	if message == "" {
		message = DefaultSyncMessage
	}
	hash, err := r.commitIfStaged(message)
	if err != nil {
		return err
	}
	if hash != "" {
		span.SetAttributes(attribute.String(tracing.AttrCommitHash, hash))
	}

	unpushed, err := r.repo.HasUnpushedCommits(r.remoteName, r.branch)
	if err != nil {
		return r.gitErr("status", err)
	}
	if !unpushed {
		log.Debug(log.CatGit, "nothing to push", "path", r.path)
		return nil
	}
	if err := r.repo.Push(ctx, r.remoteName, r.branch); err != nil {
		return r.gitErr("push", err)
	}
	span.AddEvent(tracing.EventPushed)
	log.Info(log.CatGit, "pushed", "path", r.path, "remote", r.remoteName, "branch", r.branch)
	return nil
}

// Commit stages every change under the register and commits it without
// writing any entity. It returns "" when nothing was staged.
func (r *Register) Commit(message string) (string, error) {
	if r.repo == nil {
		return "", fmt.Errorf("%w at %s", ErrNoRepository, r.path)
	}
	if message == "" {
		message = DefaultSyncMessage
	}
	return r.commitIfStaged(message)
}

// commitIfStaged stages everything and commits when the index changed. It
// returns the new commit hash, or "" when nothing was committed or no
// repository is open.
func (r *Register) commitIfStaged(message string) (string, error) {
	if r.repo == nil {
		return "", nil
	}
	if err := r.repo.AddAll(); err != nil {
		return "", r.gitErr("add", err)
	}
	staged, err := r.repo.HasStagedChanges()
	if err != nil {
		return "", r.gitErr("status", err)
	}
	if !staged {
		return "", nil
	}
	hash, err := r.repo.Commit(message)
	if err != nil {
		return "", r.gitErr("commit", err)
	}
	log.Info(log.CatGit, "committed", "path", r.path, "hash", hash, "message", message)
	return hash, nil
}
