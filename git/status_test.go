package git_test

import (
	"testing"

	"github.com/light-tech/MiniGit/git"
	"github.com/light-tech/MiniGit/git/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	testutil.CommitFiles(t, repo, "Initial commit", map[string]string{
		"keep.txt":   "keep\n",
		"change.txt": "one\ntwo\nthree\n",
		"gone.txt":   "gone\n",
	})

	testutil.WriteFile(t, repo, "staged.txt", "new\n")
	var errs git.ErrorRecorder
	repo.Stage("staged.txt", &errs)
	testutil.RequireOK(t, &errs)

	testutil.WriteFile(t, repo, "change.txt", "one\n2\nthree\n")
	testutil.RemoveFile(t, repo, "gone.txt")
	testutil.WriteFile(t, repo, "untracked.txt", "scratch\n")

	status := repoStatus(t, repo)

	assert.Equal(t, []string{"branch", "state", "staged", "unstaged"}, status.Calls)
	assert.Equal(t, "master", status.Branch)
	assert.Equal(t, git.StateNone, status.State)
	assert.Equal(t, []string{"staged.txt"}, testutil.ChangedPaths(status.Staged))
	assert.Equal(t, []string{"change.txt", "gone.txt", "untracked.txt"}, testutil.ChangedPaths(status.Unstaged))

	deltas := status.Unstaged.Deltas()
	require.Len(t, deltas, 3)

	change := deltas[0]
	require.Len(t, change.Hunks(), 1)
	var kinds []git.DiffLineKind
	for _, line := range change.Hunks()[0].Lines() {
		kinds = append(kinds, line.Kind)
	}
	assert.Equal(t, []git.DiffLineKind{
		git.DiffLineContext, git.DiffLineDeletion, git.DiffLineAddition, git.DiffLineContext,
	}, kinds)

	_, ok := deltas[1].NewFile().Path()
	assert.False(t, ok, "deleted file has no new side")
	assert.False(t, deltas[1].OldFile().ID().IsZero())

	_, ok = deltas[2].OldFile().Path()
	assert.False(t, ok, "untracked file has no old side")
}

func TestStatus_Unborn(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	testutil.WriteFile(t, repo, "README.md", testutil.TestFileContent)

	status := repoStatus(t, repo)
	assert.Equal(t, "master", status.Branch)
	assert.Empty(t, testutil.ChangedPaths(status.Staged))
	assert.Equal(t, []string{"README.md"}, testutil.ChangedPaths(status.Unstaged))
}

func TestStatus_NilReceiver(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)

	var errs git.ErrorRecorder
	repo.Status(nil, &errs)
	assert.Equal(t, git.ErrInvalidSpec, errs.Code())
}

func TestStageAndUnstage(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	testutil.CommitFiles(t, repo, "Initial commit", map[string]string{"a.txt": "one\n", "b.txt": "bee\n"})

	testutil.WriteFile(t, repo, "a.txt", "two\n")
	testutil.RemoveFile(t, repo, "b.txt")

	var errs git.ErrorRecorder
	repo.Stage("a.txt", &errs)
	repo.Stage("b.txt", &errs)
	testutil.RequireOK(t, &errs)

	status := repoStatus(t, repo)
	assert.Equal(t, []string{"a.txt", "b.txt"}, testutil.ChangedPaths(status.Staged))
	assert.Empty(t, testutil.ChangedPaths(status.Unstaged))

	repo.Unstage("a.txt", &errs)
	testutil.RequireOK(t, &errs)

	status = repoStatus(t, repo)
	assert.Equal(t, []string{"b.txt"}, testutil.ChangedPaths(status.Staged))
	assert.Equal(t, []string{"a.txt"}, testutil.ChangedPaths(status.Unstaged))
	assert.Equal(t, "two\n", testutil.ReadFile(t, repo, "a.txt"), "unstaging leaves the working tree alone")
}

func TestUnstage_Unborn(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	testutil.WriteFile(t, repo, "a.txt", "one\n")

	var errs git.ErrorRecorder
	repo.Stage("a.txt", &errs)
	testutil.RequireOK(t, &errs)
	require.Equal(t, []string{"a.txt"}, testutil.ChangedPaths(repoStatus(t, repo).Staged))

	repo.Unstage("a.txt", &errs)
	testutil.RequireOK(t, &errs)

	status := repoStatus(t, repo)
	assert.Empty(t, testutil.ChangedPaths(status.Staged))
	assert.Equal(t, []string{"a.txt"}, testutil.ChangedPaths(status.Unstaged))

	// Unstaging a path that was never staged is a no-op.
	repo.Unstage("other.txt", &errs)
	testutil.RequireOK(t, &errs)
}

func TestStage_PathOutsideWorktree(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)

	for _, path := range []string{"", "../escape.txt", "/etc/passwd"} {
		var errs git.ErrorRecorder
		repo.Stage(path, &errs)
		assert.Equal(t, git.ErrInvalidSpec, errs.Code(), path)
	}
}

func TestDiff(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	first := testutil.CommitFiles(t, repo, "First", map[string]string{
		"a.txt":   "one\ntwo\n",
		"old.txt": "old\n",
	})
	testutil.WriteFile(t, repo, "a.txt", "one\nTWO\n")
	testutil.RemoveFile(t, repo, "old.txt")
	testutil.WriteFile(t, repo, "new.txt", "new\n")

	var errs git.ErrorRecorder
	for _, p := range []string{"a.txt", "old.txt", "new.txt"} {
		repo.Stage(p, &errs)
	}
	testutil.RequireOK(t, &errs)
	second := repo.Commit("Second", &errs)
	testutil.RequireOK(t, &errs)

	recv := &testutil.DiffRecorder{}
	repo.Diff(first, second, recv, &errs)
	testutil.RequireOK(t, &errs)

	require.Len(t, recv.Diffs, 1)
	diff := recv.Diffs[0]
	assert.Equal(t, []string{"a.txt", "new.txt", "old.txt"}, testutil.ChangedPaths(diff))

	modified := diff.Deltas()[0]
	assert.False(t, modified.IsBinary())
	require.Len(t, modified.Hunks(), 1)
	assert.Equal(t, "@@ -1,2 +1,2 @@", modified.Hunks()[0].Header())

	lines := modified.Hunks()[0].Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, git.DiffLine{ID: lines[1].ID, Kind: git.DiffLineDeletion, Text: "two", OldLineNo: 2}, lines[1])
	assert.Equal(t, git.DiffLine{ID: lines[2].ID, Kind: git.DiffLineAddition, Text: "TWO", NewLineNo: 2}, lines[2])

	oldPath, ok := modified.OldFile().Path()
	assert.True(t, ok)
	assert.Equal(t, "a.txt", oldPath)
	assert.NotEqual(t, modified.OldFile().ID(), modified.NewFile().ID())

	t.Run("same commit", func(t *testing.T) {
		recv := &testutil.DiffRecorder{}
		var errs git.ErrorRecorder
		repo.Diff(second, second, recv, &errs)
		testutil.RequireOK(t, &errs)
		require.Len(t, recv.Diffs, 1)
		assert.Empty(t, recv.Diffs[0].Deltas())
	})

	t.Run("nil receiver", func(t *testing.T) {
		var errs git.ErrorRecorder
		repo.Diff(first, second, nil, &errs)
		assert.Equal(t, git.ErrInvalidSpec, errs.Code())
	})
}

func TestDiff_Binary(t *testing.T) {
	repo := testutil.NewMemoryRepo(t)
	first := testutil.CommitFiles(t, repo, "First", map[string]string{"blob.bin": "\x00\x01\x02"})
	second := testutil.CommitFiles(t, repo, "Second", map[string]string{"blob.bin": "\x00\x01\x03"})

	recv := &testutil.DiffRecorder{}
	var errs git.ErrorRecorder
	repo.Diff(first, second, recv, &errs)
	testutil.RequireOK(t, &errs)

	deltas := recv.Diffs[0].Deltas()
	require.Len(t, deltas, 1)
	assert.True(t, deltas[0].IsBinary())
	assert.Empty(t, deltas[0].Hunks())
}
