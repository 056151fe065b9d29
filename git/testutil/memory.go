// Package testutil provides in-memory testing utilities for the git package.
// It includes helpers for creating in-memory repositories, an in-process
// git server for network operations, and receivers that record every
// callback an operation delivers.
package testutil

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/light-tech/MiniGit/git"
	"github.com/stretchr/testify/require"
)

// NewMemoryRepo creates a new repository in a memory filesystem with the
// test signature configured. It fails the test on any error.
//
// Example:
//
//	repo := testutil.NewMemoryRepo(t)
//	first := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{
//	    "README.md": testutil.TestFileContent,
//	})
func NewMemoryRepo(t testing.TB, opts ...git.RepositoryOption) *git.Repository {
	t.Helper()

	repo := NewEmptyRepo(t, opts...)

	var errs git.ErrorRecorder
	repo.Create(&errs)
	RequireOK(t, &errs)

	repo.SetSignature(TestAuthor, TestEmail, &errs)
	RequireOK(t, &errs)

	return repo
}

// NewEmptyRepo returns a repository handle on a fresh memory filesystem
// without opening or creating anything, ready for Clone.
func NewEmptyRepo(t testing.TB, opts ...git.RepositoryOption) *git.Repository {
	t.Helper()

	opts = append([]git.RepositoryOption{git.WithFilesystem(memfs.New())}, opts...)
	repo := git.New(TestRepoPath, opts...)
	t.Cleanup(repo.Close)
	return repo
}

// RequireOK fails the test when errs recorded an error.
func RequireOK(t testing.TB, errs *git.ErrorRecorder) {
	t.Helper()
	require.NoError(t, errs.Err())
}

// WriteFile writes content to path in the working tree, creating parent
// directories as needed.
func WriteFile(t testing.TB, repo *git.Repository, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(repo.Filesystem(), path, []byte(content), 0o644))
}

// ReadFile returns the content of path in the working tree.
func ReadFile(t testing.TB, repo *git.Repository, path string) string {
	t.Helper()
	data, err := util.ReadFile(repo.Filesystem(), path)
	require.NoError(t, err)
	return string(data)
}

// RemoveFile deletes path from the working tree.
func RemoveFile(t testing.TB, repo *git.Repository, path string) {
	t.Helper()
	require.NoError(t, repo.Filesystem().Remove(path))
}

// Exists reports whether path exists in the working tree.
func Exists(t testing.TB, repo *git.Repository, path string) bool {
	t.Helper()
	_, err := repo.Filesystem().Lstat(path)
	return err == nil
}

// CommitFiles writes and stages files, then commits them on the current
// branch through Repository.Commit.
func CommitFiles(t testing.TB, repo *git.Repository, message string, files map[string]string) *git.Commit {
	t.Helper()

	var errs git.ErrorRecorder
	for path, content := range files {
		WriteFile(t, repo, path, content)
		repo.Stage(path, &errs)
		RequireOK(t, &errs)
	}

	commit := repo.Commit(message, &errs)
	RequireOK(t, &errs)
	require.NotNil(t, commit)
	return commit
}

// CommitAt writes and stages files like CommitFiles but records the commit
// with the given author and committer time, for tests that depend on
// commit ordering. It returns the commit as the repository produces it.
func CommitAt(t testing.TB, repo *git.Repository, message string, when time.Time, files map[string]string) *git.Commit {
	t.Helper()

	var errs git.ErrorRecorder
	for path, content := range files {
		WriteFile(t, repo, path, content)
		repo.Stage(path, &errs)
		RequireOK(t, &errs)
	}

	wt, err := repo.Underlying().Worktree()
	require.NoError(t, err)

	sig := &object.Signature{Name: TestAuthor, Email: TestEmail, When: when}
	h, err := wt.Commit(message, &gogit.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true})
	require.NoError(t, err)

	return FindCommit(t, repo, h.String())
}

// FindCommit walks the history of repo and returns the commit with the
// given hex identifier.
func FindCommit(t testing.TB, repo *git.Repository, id string) *git.Commit {
	t.Helper()

	graph := &GraphRecorder{}
	var errs git.ErrorRecorder
	repo.Log(graph, &errs)
	RequireOK(t, &errs)

	for _, c := range graph.Commits {
		if c.ID().String() == id {
			return c
		}
	}
	require.FailNow(t, "commit not found", id)
	return nil
}

// Reference returns the reference with the given full name.
func Reference(t testing.TB, repo *git.Repository, name string) *git.Reference {
	t.Helper()

	var errs git.ErrorRecorder
	refs := repo.References(&errs)
	RequireOK(t, &errs)

	for _, ref := range refs {
		if ref.Name() == name {
			return ref
		}
	}
	require.FailNow(t, "reference not found", name)
	return nil
}

// Branch creates a local branch at commit.
func Branch(t testing.TB, repo *git.Repository, name string, commit *git.Commit) *git.Reference {
	t.Helper()

	var errs git.ErrorRecorder
	ref := repo.CreateBranch(name, commit, &errs)
	RequireOK(t, &errs)
	return ref
}

// Checkout switches to the local branch with the given short name.
func Checkout(t testing.TB, repo *git.Repository, name string) {
	t.Helper()

	var errs git.ErrorRecorder
	repo.Checkout(Reference(t, repo, "refs/heads/"+name), nil, &errs)
	RequireOK(t, &errs)
}
