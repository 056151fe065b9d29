package git_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/light-tech/MiniGit/git"
	"github.com/light-tech/MiniGit/git/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_OpenMissing(t *testing.T) {
	repo := testutil.NewEmptyRepo(t)

	var errs git.ErrorRecorder
	repo.Open(&errs)

	assert.False(t, errs.Failed(), "a missing repository is not an error")
	assert.False(t, repo.Exists())
	assert.Nil(t, repo.Underlying())
	assert.Nil(t, repo.Head())
}

func TestRepository_CreateThenOpen(t *testing.T) {
	fs := memfs.New()

	created := git.New("/work", git.WithFilesystem(fs))
	defer created.Close()

	var errs git.ErrorRecorder
	created.Create(&errs)
	testutil.RequireOK(t, &errs)
	assert.True(t, created.Exists())
	assert.Equal(t, "/work", created.Path())

	opened := git.New("/work", git.WithFilesystem(fs))
	defer opened.Close()

	opened.Open(&errs)
	testutil.RequireOK(t, &errs)
	assert.True(t, opened.Exists())

	head := opened.Head()
	require.NotNil(t, head)
	assert.True(t, head.IsSymbolic())
	target, ok := head.SymbolicTarget()
	assert.True(t, ok)
	assert.Equal(t, "refs/heads/master", target)
}

func TestRepository_CreateExisting(t *testing.T) {
	fs := memfs.New()

	first := git.New("/work", git.WithFilesystem(fs))
	defer first.Close()
	var errs git.ErrorRecorder
	first.Create(&errs)
	testutil.RequireOK(t, &errs)

	second := git.New("/work", git.WithFilesystem(fs))
	defer second.Close()
	second.Create(&errs)

	require.True(t, errs.Failed())
	assert.Equal(t, git.ErrExists, errs.Code())
	assert.Equal(t, "create", errs.Context())
	assert.Equal(t, git.ErrorClassRepository, errs.Detail().Class)
}

func TestRepository_NotOpen(t *testing.T) {
	repo := testutil.NewEmptyRepo(t)

	var errs git.ErrorRecorder
	refs := repo.References(&errs)

	assert.Nil(t, refs)
	assert.Equal(t, git.ErrInvalidSpec, errs.Code())
	assert.Equal(t, git.ErrorClassInvalid, errs.Detail().Class)
}

func TestRepository_Close(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	commit := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})

	repo.Close()
	assert.False(t, repo.Exists())
	assert.Nil(t, repo.Head())

	var errs git.ErrorRecorder
	assert.Nil(t, repo.CreateBranch("feature", commit, &errs))
	assert.Equal(t, git.ErrInvalidSpec, errs.Code())

	// Closing twice is harmless, and a closed repository cannot be reopened.
	repo.Close()
	var reopen git.ErrorRecorder
	repo.Open(&reopen)
	assert.Equal(t, git.ErrInvalidSpec, reopen.Code())
}

func TestRepository_ForeignObjects(t *testing.T) {
	a := testutil.NewMemoryRepo(t)
	b := testutil.NewMemoryRepo(t)
	commit := testutil.CommitFiles(t, a, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})
	testutil.CommitFiles(t, b, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})

	var errs git.ErrorRecorder
	assert.Nil(t, b.CreateBranch("feature", commit, &errs))
	assert.Equal(t, git.ErrInvalidSpec, errs.Code())

	var nilErrs git.ErrorRecorder
	assert.Nil(t, a.CreateBranch("feature", nil, &nilErrs))
	assert.Equal(t, git.ErrInvalidSpec, nilErrs.Code())
}

func TestRepository_Signature(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)

	sig, ok := repo.Signature()
	require.True(t, ok)
	assert.Equal(t, testutil.TestAuthor, sig.Name)
	assert.Equal(t, testutil.TestEmail, sig.Email)

	var errs git.ErrorRecorder
	repo.SetSignature("Other Person", "other@example.com", &errs)
	testutil.RequireOK(t, &errs)

	sig, ok = repo.Signature()
	require.True(t, ok)
	assert.Equal(t, "Other Person", sig.Name)

	repo.SetSignature("", "nobody@example.com", &errs)
	assert.Equal(t, git.ErrInvalidSpec, errs.Code())
	assert.Equal(t, git.ErrorClassConfig, errs.Detail().Class)
}

func TestRepository_OnlyFirstErrorReported(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)

	var calls int
	receiver := errorCounter(func() { calls++ })
	repo.Merge(nil, nil, receiver)

	assert.Equal(t, 1, calls)
}

type errorCounter func()

func (f errorCounter) OnError(git.ErrorCode, *git.ErrorDetail, string) { f() }
