package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/zjrosen/paneron/internal/log"
)

// Compile-time checks.
var (
	_ Client     = (*GoGitClient)(nil)
	_ Repository = (*GoGitRepository)(nil)
)

// GoGitClient implements Client with go-git.
type GoGitClient struct {
	timeout     time.Duration
	authorName  string
	authorEmail string
}

// NewClient creates a GoGitClient, filling zero config fields with defaults.
func NewClient(cfg Config) *GoGitClient {
	c := &GoGitClient{
		timeout:     cfg.Timeout,
		authorName:  cfg.AuthorName,
		authorEmail: cfg.AuthorEmail,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.authorName == "" {
		c.authorName = DefaultAuthorName
	}
	if c.authorEmail == "" {
		c.authorEmail = DefaultAuthorEmail
	}
	return c
}

// Open opens the repository rooted at path.
func (c *GoGitClient) Open(path string) (Repository, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, path)
		}
		return nil, fmt.Errorf("opening repository %s: %w", path, err)
	}
	return c.wrap(path, repo), nil
}

// Init creates a repository at path with HEAD pointing at branch.
func (c *GoGitClient) Init(path, branch string) (Repository, error) {
	repo, err := gogit.PlainInitWithOptions(path, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(branch),
		},
	})
	if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		return c.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing repository %s: %w", path, err)
	}
	return c.wrap(path, repo), nil
}

// Clone clones url into path and checks out branch. When the remote has no
// such branch its default HEAD is checked out instead. An empty remote yields
// an initialized repository with the remote configured, ready for a first
// push.
func (c *GoGitClient) Clone(ctx context.Context, url, path, remoteName, branch string) (Repository, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, statErr := os.Stat(path)
	existed := statErr == nil

	opts := &gogit.CloneOptions{
		URL:        url,
		RemoteName: remoteName,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	repo, err := gogit.PlainCloneContext(ctx, path, false, opts)
	if branch != "" && errors.Is(err, plumbing.ErrReferenceNotFound) {
		log.Warn(log.CatGit, "remote has no such branch, using its default",
			"url", url, "branch", branch)
		if !existed {
			_ = os.RemoveAll(path)
		}
		opts.ReferenceName = ""
		repo, err = gogit.PlainCloneContext(ctx, path, false, opts)
	}
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		r, initErr := c.Init(path, branch)
		if initErr != nil {
			return nil, initErr
		}
		if err := r.SetRemote(remoteName, url); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: clone %s after %s", ErrTimeout, url, c.timeout)
		}
		return nil, fmt.Errorf("cloning %s: %w", url, err)
	}
	return c.wrap(path, repo), nil
}

func (c *GoGitClient) wrap(path string, repo *gogit.Repository) *GoGitRepository {
	return &GoGitRepository{path: path, repo: repo, client: c}
}

func (c *GoGitClient) signature() *object.Signature {
	return &object.Signature{
		Name:  c.authorName,
		Email: c.authorEmail,
		When:  time.Now(),
	}
}

// GoGitRepository implements Repository over a go-git repository.
type GoGitRepository struct {
	path   string
	repo   *gogit.Repository
	client *GoGitClient
}

// Path returns the working tree root.
func (r *GoGitRepository) Path() string {
	return r.path
}

// AddAll stages all changes, like git add -A.
func (r *GoGitRepository) AddAll() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}
	return nil
}

// HasStagedChanges reports whether anything is staged but not committed.
func (r *GoGitRepository) HasStagedChanges() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("reading status: %w", err)
	}
	for _, s := range status {
		if s.Staging != gogit.Unmodified && s.Staging != gogit.Untracked {
			return true, nil
		}
	}
	return false, nil
}

// Commit records the index.
func (r *GoGitRepository) Commit(message string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}
	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: r.client.signature(),
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return hash.String(), nil
}

// RemoteURL returns the first URL configured for name.
func (r *GoGitRepository) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return "", fmt.Errorf("%w: %s", ErrRemoteNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("reading remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// SetRemote replaces the named remote with one pointing at url.
func (r *GoGitRepository) SetRemote(name, url string) error {
	if err := r.RemoveRemote(name); err != nil {
		return err
	}
	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("adding remote %s: %w", name, err)
	}
	return nil
}

// RemoveRemote deletes the named remote if present.
func (r *GoGitRepository) RemoveRemote(name string) error {
	err := r.repo.DeleteRemote(name)
	if err != nil && !errors.Is(err, gogit.ErrRemoteNotFound) {
		return fmt.Errorf("removing remote %s: %w", name, err)
	}
	return nil
}

// PullRebase shells out to git, since go-git only fast-forwards.
func (r *GoGitRepository) PullRebase(ctx context.Context, remote, branch string) error {
	ctx, cancel := context.WithTimeout(ctx, r.client.timeout)
	defer cancel()

	_, err := runGitOutput(ctx, r.path,
		"-c", "user.name="+r.client.authorName,
		"-c", "user.email="+r.client.authorEmail,
		"pull", "--rebase", remote, branch,
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: pull %s/%s after %s", ErrTimeout, remote, branch, r.client.timeout)
		}
		return err
	}
	return nil
}

// Push pushes the checked-out branch to remote/branch.
func (r *GoGitRepository) Push(ctx context.Context, remote, branch string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.client.timeout)
	defer cancel()

	spec := config.RefSpec(fmt.Sprintf("%s:%s", head.Name(), plumbing.NewBranchReferenceName(branch)))
	err = r.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{spec},
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: push %s/%s after %s", ErrTimeout, remote, branch, r.client.timeout)
		}
		return fmt.Errorf("pushing to %s/%s: %w", remote, branch, err)
	}

	tracking := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remote, branch), head.Hash())
	if err := r.repo.Storer.SetReference(tracking); err != nil {
		return fmt.Errorf("updating tracking ref: %w", err)
	}
	return nil
}

// HasUnpushedCommits compares HEAD with refs/remotes/<remote>/<branch>.
func (r *GoGitRepository) HasUnpushedCommits(remote, branch string) (bool, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolving HEAD: %w", err)
	}

	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolving %s/%s: %w", remote, branch, err)
	}
	return head.Hash() != ref.Hash(), nil
}

// HeadHash returns HEAD's commit hash, or "" before the first commit.
func (r *GoGitRepository) HeadHash() (string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash().String(), nil
}
