package git

import (
	"errors"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// Stage adds the current content of path to the index. If the file no
// longer exists in the working tree its deletion is staged instead. path is
// relative to the working tree and must stay inside it.
func (r *Repository) Stage(path string, errs ErrorReceiver) {
	op := r.begin("stage", errs, "file", path)
	defer op.finish(false)

	path, ok := op.worktreePath(path)
	if !ok || !op.ready() {
		return
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		op.fail(wrapError(err, "failed to get worktree"), ErrorClassRepository)
		return
	}

	if _, err := r.fs.Lstat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := wt.Remove(path); err != nil {
			op.fail(wrapError(err, "failed to stage deletion"), ErrorClassIndex)
		}
		return
	}

	if _, err := wt.Add(path); err != nil {
		op.fail(wrapError(err, "failed to stage file"), ErrorClassIndex)
	}
}

// Unstage restores the index entry for path to its state in HEAD. On an
// unborn branch, or when HEAD does not have the path, the entry is dropped
// from the index. The working tree is not touched.
func (r *Repository) Unstage(path string, errs ErrorReceiver) {
	op := r.begin("unstage", errs, "file", path)
	defer op.finish(false)

	path, ok := op.worktreePath(path)
	if !ok || !op.ready() {
		return
	}

	_, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		if err := r.dropIndexEntry(path); err != nil {
			op.fail(wrapError(err, "failed to unstage file"), ErrorClassIndex)
		}
		return
	}
	if err != nil {
		op.fail(wrapError(err, "failed to resolve HEAD"), ErrorClassReference)
		return
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		op.fail(wrapError(err, "failed to get worktree"), ErrorClassRepository)
		return
	}

	if err := wt.Restore(&gogit.RestoreOptions{Staged: true, Files: []string{path}}); err != nil {
		op.fail(wrapError(err, "failed to unstage file"), ErrorClassIndex)
	}
}

func (r *Repository) dropIndexEntry(path string) error {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return err
	}

	if _, err := idx.Remove(path); err != nil {
		if errors.Is(err, index.ErrEntryNotFound) {
			return nil
		}
		return err
	}

	return r.repo.Storer.SetIndex(idx)
}

// worktreePath normalizes path to the slash separated form the index uses.
// Paths that escape the working tree are a usage error.
func (op *operation) worktreePath(path string) (string, bool) {
	if path == "" || !filepath.IsLocal(path) {
		op.fail(platformerrors.Newf(platformerrors.CodeUsage, "path %q is outside the working tree", path),
			ErrorClassInvalid)
		return "", false
	}
	return filepath.ToSlash(filepath.Clean(path)), true
}
