package git_test

import (
	"testing"

	"github.com/light-tech/MiniGit/git"
	"github.com/light-tech/MiniGit/git/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceNames(refs []*git.Reference) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name())
	}
	return names
}

func TestCreateBranch(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	commit := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})

	var errs git.ErrorRecorder
	ref := repo.CreateBranch("feature", commit, &errs)
	testutil.RequireOK(t, &errs)
	require.NotNil(t, ref)

	assert.Equal(t, "refs/heads/feature", ref.Name())
	assert.Equal(t, "feature", ref.Shorthand())
	assert.Equal(t, git.ReferenceBranch, ref.Kind())
	assert.False(t, ref.IsSymbolic())

	name, ok := ref.BranchName()
	assert.True(t, ok)
	assert.Equal(t, "feature", name)

	target, ok := ref.Target()
	assert.True(t, ok)
	assert.Equal(t, commit.ID(), target)

	_, ok = ref.SymbolicTarget()
	assert.False(t, ok)

	// The back-links are refreshed once the branch exists.
	assert.Contains(t, referenceNames(commit.References()), "refs/heads/feature")
}

func TestCreateBranch_Errors(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	commit := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})
	testutil.Branch(t, repo, "feature", commit)

	tests := []struct {
		name     string
		branch   string
		wantCode git.ErrorCode
	}{
		{name: "existing branch", branch: "feature", wantCode: git.ErrExists},
		{name: "current branch", branch: "master", wantCode: git.ErrExists},
		{name: "invalid name", branch: "bad..name", wantCode: git.ErrInvalidSpec},
		{name: "lock suffix", branch: "topic.lock", wantCode: git.ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs git.ErrorRecorder
			ref := repo.CreateBranch(tt.branch, commit, &errs)

			assert.Nil(t, ref)
			assert.Equal(t, tt.wantCode, errs.Code())
			assert.Equal(t, git.ErrorClassReference, errs.Detail().Class)
		})
	}
}

func TestCreateLightweightTag(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	commit := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})

	var errs git.ErrorRecorder
	tag := repo.CreateLightweightTag("v1.0.0", commit, &errs)
	testutil.RequireOK(t, &errs)
	require.NotNil(t, tag)

	assert.Equal(t, "refs/tags/v1.0.0", tag.Name())
	assert.Equal(t, git.ReferenceTag, tag.Kind())
	target, ok := tag.Target()
	assert.True(t, ok)
	assert.Equal(t, commit.ID(), target)

	_, ok = tag.BranchName()
	assert.False(t, ok)

	assert.Nil(t, repo.CreateLightweightTag("v1.0.0", commit, &errs))
	assert.Equal(t, git.ErrExists, errs.Code())
}

func TestReferences(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	commit := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})
	testutil.Branch(t, repo, "feature", commit)

	var errs git.ErrorRecorder
	tag := repo.CreateLightweightTag("v1.0.0", commit, &errs)
	testutil.RequireOK(t, &errs)

	refs := repo.References(&errs)
	testutil.RequireOK(t, &errs)
	assert.Equal(t, []string{"HEAD", "refs/heads/feature", "refs/heads/master", "refs/tags/v1.0.0"}, referenceNames(refs))

	// The same reference value is handed out every time.
	again := repo.References(&errs)
	assert.Same(t, refs[3], again[3])
	assert.Same(t, tag, again[3])

	head := repo.Head()
	require.NotNil(t, head)
	assert.Same(t, refs[0], head)
	assert.Equal(t, git.ReferenceSymbolic, head.Kind())
	_, ok := head.Target()
	assert.False(t, ok)
}

func TestReferences_Unborn(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)

	var errs git.ErrorRecorder
	refs := repo.References(&errs)
	testutil.RequireOK(t, &errs)

	require.Len(t, refs, 1)
	target, ok := refs[0].SymbolicTarget()
	assert.True(t, ok)
	assert.Equal(t, "refs/heads/master", target)
}

func TestRemoveReference(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	commit := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})
	feature := testutil.Branch(t, repo, "feature", commit)

	var errs git.ErrorRecorder
	repo.RemoveReference(feature, &errs)
	testutil.RequireOK(t, &errs)

	refs := repo.References(&errs)
	assert.NotContains(t, referenceNames(refs), "refs/heads/feature")
	assert.NotContains(t, referenceNames(commit.References()), "refs/heads/feature")

	t.Run("removed reference is no longer valid", func(t *testing.T) {
		var errs git.ErrorRecorder
		repo.RemoveReference(feature, &errs)
		assert.Equal(t, git.ErrInvalidSpec, errs.Code())
	})

	t.Run("HEAD cannot be removed", func(t *testing.T) {
		var errs git.ErrorRecorder
		repo.RemoveReference(repo.Head(), &errs)
		assert.Equal(t, git.ErrInvalidSpec, errs.Code())
		assert.NotNil(t, repo.Head())
	})
}

func TestCommitReferences_ManualSync(t *testing.T) {
	repo := testutil.NewMemoryRepo(t, git.WithManualReferenceSync())
	commit := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"README.md": testutil.TestFileContent})
	testutil.Branch(t, repo, "feature", commit)

	assert.Empty(t, commit.References())

	repo.UpdateReferencesTargets()
	assert.ElementsMatch(t, []string{"HEAD", "refs/heads/feature", "refs/heads/master"}, referenceNames(commit.References()))
}
