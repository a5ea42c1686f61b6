package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

// requireGitBinary skips tests that need the git executable
// (local file transport and pull --rebase).
func requireGitBinary(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func commitCount(t *testing.T, path string) int {
	t.Helper()
	repo, err := gogit.PlainOpen(path)
	require.NoError(t, err)
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return 0
	}
	require.NoError(t, err)
	iter, err := repo.Log(&gogit.LogOptions{From: head.Hash()})
	require.NoError(t, err)
	n := 0
	for {
		if _, err := iter.Next(); err != nil {
			break
		}
		n++
	}
	return n
}

// initBareRemote creates a bare repository whose HEAD points at main.
func initBareRemote(t *testing.T) string {
	t.Helper()
	return initBareRemoteOn(t, "main")
}

func initBareRemoteOn(t *testing.T, branch string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(branch)},
		Bare:        true,
	})
	require.NoError(t, err)
	return dir
}

func headOf(t *testing.T, path string) *plumbing.Reference {
	t.Helper()
	repo, err := gogit.PlainOpen(path)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	return head
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})

	require.Equal(t, DefaultTimeout, c.timeout)
	require.Equal(t, DefaultAuthorName, c.authorName)
	require.Equal(t, DefaultAuthorEmail, c.authorEmail)
}

func TestGoGitClient_OpenNotRepo(t *testing.T) {
	c := NewClient(Config{})

	_, err := c.Open(t.TempDir())
	require.ErrorIs(t, err, ErrNotGitRepo)
}

func TestGoGitClient_InitSetsBranch(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(Config{})

	_, err := c.Init(dir, "main")
	require.NoError(t, err)

	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Storer.Reference(plumbing.HEAD)
	require.NoError(t, err)
	require.Equal(t, plumbing.NewBranchReferenceName("main"), head.Target())
}

func TestGoGitClient_InitExistingOpens(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(Config{})

	_, err := c.Init(dir, "main")
	require.NoError(t, err)
	r, err := c.Init(dir, "main")
	require.NoError(t, err)
	require.Equal(t, dir, r.Path())
}

func TestGoGitRepository_StageAndCommit(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(Config{AuthorName: "tester", AuthorEmail: "tester@example.com"})
	r, err := c.Init(dir, "main")
	require.NoError(t, err)

	staged, err := r.HasStagedChanges()
	require.NoError(t, err)
	require.False(t, staged, "fresh repository has nothing staged")

	writeFile(t, filepath.Join(dir, "paneron.yaml"), "title: test\n")
	require.NoError(t, r.AddAll())

	staged, err = r.HasStagedChanges()
	require.NoError(t, err)
	require.True(t, staged)

	hash, err := r.Commit("first")
	require.NoError(t, err)
	require.Len(t, hash, 40)

	head, err := r.HeadHash()
	require.NoError(t, err)
	require.Equal(t, hash, head)

	require.NoError(t, r.AddAll())
	staged, err = r.HasStagedChanges()
	require.NoError(t, err)
	require.False(t, staged, "nothing changed since the commit")
	require.Equal(t, 1, commitCount(t, dir))
}

func TestGoGitRepository_AddAllStagesDeletions(t *testing.T) {
	dir := t.TempDir()
	r, err := NewClient(Config{}).Init(dir, "main")
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "a", "x.yaml"), "id: x\n")
	require.NoError(t, r.AddAll())
	_, err = r.Commit("add")
	require.NoError(t, err)

	require.NoError(t, os.Rename(filepath.Join(dir, "a"), filepath.Join(dir, "b")))
	require.NoError(t, r.AddAll())
	_, err = r.Commit("move")
	require.NoError(t, err)

	require.NoError(t, r.AddAll())
	staged, err := r.HasStagedChanges()
	require.NoError(t, err)
	require.False(t, staged, "the old path must not linger in the index")
}

func TestGoGitRepository_Remotes(t *testing.T) {
	r, err := NewClient(Config{}).Init(t.TempDir(), "main")
	require.NoError(t, err)

	_, err = r.RemoteURL("origin")
	require.ErrorIs(t, err, ErrRemoteNotFound)

	require.NoError(t, r.SetRemote("origin", "https://example.com/a.git"))
	url, err := r.RemoteURL("origin")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/a.git", url)

	require.NoError(t, r.SetRemote("origin", "https://example.com/b.git"))
	url, err = r.RemoteURL("origin")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/b.git", url)

	require.NoError(t, r.RemoveRemote("origin"))
	require.NoError(t, r.RemoveRemote("origin"), "removing a missing remote is a no-op")
	_, err = r.RemoteURL("origin")
	require.ErrorIs(t, err, ErrRemoteNotFound)
}

func TestGoGitRepository_HasUnpushedCommits(t *testing.T) {
	dir := t.TempDir()
	r, err := NewClient(Config{}).Init(dir, "main")
	require.NoError(t, err)

	unpushed, err := r.HasUnpushedCommits("origin", "main")
	require.NoError(t, err)
	require.False(t, unpushed, "empty repository has nothing to push")

	writeFile(t, filepath.Join(dir, "f"), "x")
	require.NoError(t, r.AddAll())
	_, err = r.Commit("c")
	require.NoError(t, err)

	unpushed, err = r.HasUnpushedCommits("origin", "main")
	require.NoError(t, err)
	require.True(t, unpushed, "missing tracking ref counts as unpushed")
}

func TestGoGitClient_CloneEmptyRemoteAndPush(t *testing.T) {
	requireGitBinary(t)

	remoteDir := initBareRemote(t)

	workDir := filepath.Join(t.TempDir(), "work")
	c := NewClient(Config{})
	r, err := c.Clone(context.Background(), remoteDir, workDir, "origin", "main")
	require.NoError(t, err)

	url, err := r.RemoteURL("origin")
	require.NoError(t, err)
	require.Equal(t, remoteDir, url)

	writeFile(t, filepath.Join(workDir, "paneron.yaml"), "title: x\n")
	require.NoError(t, r.AddAll())
	hash, err := r.Commit("init")
	require.NoError(t, err)

	require.NoError(t, r.Push(context.Background(), "origin", "main"))

	unpushed, err := r.HasUnpushedCommits("origin", "main")
	require.NoError(t, err)
	require.False(t, unpushed)

	bare, err := gogit.PlainOpen(remoteDir)
	require.NoError(t, err)
	ref, err := bare.Reference(plumbing.NewBranchReferenceName("main"), true)
	require.NoError(t, err)
	require.Equal(t, hash, ref.Hash().String())

	// A second clone of the now non-empty remote sees the file.
	otherDir := filepath.Join(t.TempDir(), "other")
	_, err = c.Clone(context.Background(), remoteDir, otherDir, "origin", "main")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(otherDir, "paneron.yaml"))
}

func TestGoGitClient_CloneChecksOutConfiguredBranch(t *testing.T) {
	requireGitBinary(t)

	ctx := context.Background()
	c := NewClient(Config{})
	remoteDir := initBareRemoteOn(t, "master")

	// master and main point at different commits; the remote HEAD is master.
	seedDir := filepath.Join(t.TempDir(), "seed")
	seed, err := c.Init(seedDir, "master")
	require.NoError(t, err)
	require.NoError(t, seed.SetRemote("origin", remoteDir))
	writeFile(t, filepath.Join(seedDir, "one"), "1")
	require.NoError(t, seed.AddAll())
	masterHash, err := seed.Commit("one")
	require.NoError(t, err)
	require.NoError(t, seed.Push(ctx, "origin", "master"))
	writeFile(t, filepath.Join(seedDir, "two"), "2")
	require.NoError(t, seed.AddAll())
	mainHash, err := seed.Commit("two")
	require.NoError(t, err)
	require.NoError(t, seed.Push(ctx, "origin", "main"))

	workDir := filepath.Join(t.TempDir(), "work")
	r, err := c.Clone(ctx, remoteDir, workDir, "origin", "main")
	require.NoError(t, err)
	head := headOf(t, workDir)
	require.Equal(t, plumbing.NewBranchReferenceName("main"), head.Name())
	require.Equal(t, mainHash, head.Hash().String())

	unpushed, err := r.HasUnpushedCommits("origin", "main")
	require.NoError(t, err)
	require.False(t, unpushed, "a fresh clone tracks the configured branch")

	fallbackDir := filepath.Join(t.TempDir(), "fallback")
	_, err = c.Clone(ctx, remoteDir, fallbackDir, "origin", "release")
	require.NoError(t, err)
	require.Equal(t, masterHash, headOf(t, fallbackDir).Hash().String())
}

func TestGoGitRepository_PullRebase(t *testing.T) {
	requireGitBinary(t)

	remoteDir := initBareRemote(t)

	c := NewClient(Config{})
	ctx := context.Background()

	aDir := filepath.Join(t.TempDir(), "a")
	a, err := c.Clone(ctx, remoteDir, aDir, "origin", "main")
	require.NoError(t, err)
	writeFile(t, filepath.Join(aDir, "one"), "1")
	require.NoError(t, a.AddAll())
	_, err = a.Commit("one")
	require.NoError(t, err)
	require.NoError(t, a.Push(ctx, "origin", "main"))

	bDir := filepath.Join(t.TempDir(), "b")
	b, err := c.Clone(ctx, remoteDir, bDir, "origin", "main")
	require.NoError(t, err)

	writeFile(t, filepath.Join(aDir, "two"), "2")
	require.NoError(t, a.AddAll())
	_, err = a.Commit("two")
	require.NoError(t, err)
	require.NoError(t, a.Push(ctx, "origin", "main"))

	require.NoError(t, b.PullRebase(ctx, "origin", "main"))
	require.FileExists(t, filepath.Join(bDir, "two"))
}

func TestParseGitError(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"not a repo", "fatal: not a git repository (or any of the parent directories): .git", ErrNotGitRepo},
		{"conflict", "CONFLICT (content): Merge conflict in a.yaml", ErrRebaseConflict},
		{"could not apply", "error: could not apply 1234abc... update", ErrRebaseConflict},
		{"missing remote", "fatal: 'upstream' does not appear to be a git repository", ErrRemoteNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseGitError(tt.stderr, errors.New("exit status 1"))
			require.ErrorIs(t, err, tt.want)
		})
	}

	err := parseGitError("fatal: something else", errors.New("exit status 128"))
	require.Contains(t, err.Error(), "something else")
	require.NotErrorIs(t, err, ErrNotGitRepo)
}
