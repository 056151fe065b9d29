package testutil

import (
	"testing"
	"time"

	"github.com/light-tech/MiniGit/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryRepo(t *testing.T) {
	t.Run("creates valid repository", func(t *testing.T) {
		repo := NewMemoryRepo(t)

		assert.True(t, repo.Exists())
		assert.NotNil(t, repo.Underlying())
		assert.NotNil(t, repo.Filesystem())

		sig, ok := repo.Signature()
		require.True(t, ok)
		assert.Equal(t, TestAuthor, sig.Name)
		assert.Equal(t, TestEmail, sig.Email)
	})

	t.Run("filesystem is usable", func(t *testing.T) {
		repo := NewMemoryRepo(t)

		WriteFile(t, repo, "dir/test.txt", "test content")
		assert.True(t, Exists(t, repo, "dir/test.txt"))
		assert.Equal(t, "test content", ReadFile(t, repo, "dir/test.txt"))

		RemoveFile(t, repo, "dir/test.txt")
		assert.False(t, Exists(t, repo, "dir/test.txt"))
	})
}

func TestNewEmptyRepo(t *testing.T) {
	repo := NewEmptyRepo(t)
	assert.False(t, repo.Exists())
	assert.Equal(t, TestRepoPath, repo.Path())
}

func TestCommitFiles(t *testing.T) {
	repo := NewMemoryRepo(t)

	first := CommitFiles(t, repo, "Test commit message", map[string]string{"README.md": TestFileContent})
	assert.Equal(t, "Test commit message", first.Summary())
	assert.Empty(t, first.Parents())
	assert.Len(t, first.ID().String(), 40)

	second := CommitFiles(t, repo, "Second", map[string]string{"main.go": TestGoFileContent})
	require.Len(t, second.Parents(), 1)
	assert.Equal(t, first.ID(), second.Parents()[0].ID())
	assert.Same(t, second, FindCommit(t, repo, second.ID().String()))
}

func TestCommitAt(t *testing.T) {
	repo := NewMemoryRepo(t)
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	commit := CommitAt(t, repo, "Dated", when, map[string]string{"a.txt": "a\n"})
	assert.True(t, commit.Time().Equal(when))
	assert.Equal(t, "Dated", commit.Summary())
}

func TestBranchAndCheckout(t *testing.T) {
	repo := NewMemoryRepo(t)
	first := CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": TestFileContent})

	topic := Branch(t, repo, "topic", first)
	assert.Equal(t, "refs/heads/topic", topic.Name())
	assert.Equal(t, git.ReferenceBranch, topic.Kind())

	Checkout(t, repo, "topic")
	target, ok := repo.Head().SymbolicTarget()
	require.True(t, ok)
	assert.Equal(t, "refs/heads/topic", target)
}

func TestChangedPaths(t *testing.T) {
	assert.Nil(t, ChangedPaths(nil))
}
