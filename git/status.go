package git

import (
	"bytes"
	"errors"
	"io"
	"os"
	"slices"

	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
)

// Status reports the state of the working copy to recv, in order: the
// current branch, the in-progress operation, the staged changes (HEAD
// against the index) and the unstaged changes (index against the working
// tree, untracked files included as additions).
//
// The current branch is the branch shorthand, "HEAD" when detached, or the
// name of the branch to be born when nothing has been committed yet.
func (r *Repository) Status(recv StatusReceiver, errs ErrorReceiver) {
	op := r.begin("status", errs)
	defer op.finish(false)

	if !op.ready() {
		return
	}
	if recv == nil {
		op.usage("status receiver is nil")
		return
	}

	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		op.fail(wrapError(err, "failed to read HEAD"), ErrorClassReference)
		return
	}

	staged, err := r.stagedDiff()
	if err != nil {
		op.fail(wrapError(err, "failed to compute staged changes"), ErrorClassIndex)
		return
	}
	unstaged, err := r.unstagedDiff()
	if err != nil {
		op.fail(wrapError(err, "failed to compute unstaged changes"), ErrorClassIndex)
		return
	}

	recv.SetCurrentBranch(currentBranch(head))
	recv.SetState(r.state())
	recv.SetStagedChanges(staged)
	recv.SetUnstagedChanges(unstaged)
}

func currentBranch(head *plumbing.Reference) string {
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short()
	}
	return plumbing.HEAD.String()
}

// treeEntry is a blob entry keyed by path in a flattened tree or index.
type treeEntry struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

// treeEntries flattens the blobs of t by path. A nil tree is empty.
func treeEntries(t *object.Tree) (map[string]treeEntry, error) {
	entries := make(map[string]treeEntry)
	if t == nil {
		return entries, nil
	}

	err := t.Files().ForEach(func(f *object.File) error {
		entries[f.Name] = treeEntry{hash: f.Hash, mode: f.Mode}
		return nil
	})
	return entries, err
}

// headTree returns the tree of HEAD, or nil on an unborn branch.
func (r *Repository) headTree() (*object.Tree, error) {
	h, unborn, err := r.headTarget()
	if err != nil || unborn {
		return nil, err
	}
	return r.commitTree(h)
}

func (r *Repository) stagedDiff() (*Diff, error) {
	tree, err := r.headTree()
	if err != nil {
		return nil, err
	}
	committed, err := treeEntries(tree)
	if err != nil {
		return nil, err
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, err
	}
	staged := make(map[string]treeEntry, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Mode == filemode.Submodule {
			continue
		}
		staged[e.Name] = treeEntry{hash: e.Hash, mode: e.Mode}
	}

	paths := make([]string, 0, len(staged))
	for path := range committed {
		paths = append(paths, path)
	}
	for path := range staged {
		if _, ok := committed[path]; !ok {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	var patches []fdiff.FilePatch
	for _, path := range paths {
		from, inHead := committed[path]
		to, inIndex := staged[path]
		if inHead && inIndex && from == to {
			continue
		}

		var oldSide, newSide *diffSide
		if inHead {
			if oldSide, err = r.storedSide(path, from); err != nil {
				return nil, err
			}
		}
		if inIndex {
			if newSide, err = r.storedSide(path, to); err != nil {
				return nil, err
			}
		}
		patches = append(patches, newFilePatch(oldSide, newSide))
	}
	return buildDiff(patches)
}

func (r *Repository) unstagedDiff() (*Diff, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, err
	}

	var paths []string
	for path, s := range status {
		if s.Worktree != gogit.Unmodified {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	var patches []fdiff.FilePatch
	for _, path := range paths {
		var oldSide, newSide *diffSide
		if e, err := idx.Entry(path); err == nil {
			oldSide, err = r.storedSide(path, treeEntry{hash: e.Hash, mode: e.Mode})
			if err != nil {
				return nil, err
			}
		}
		if status[path].Worktree != gogit.Deleted {
			if newSide, err = r.worktreeSide(path); err != nil {
				return nil, err
			}
		}
		if oldSide == nil && newSide == nil {
			continue
		}
		patches = append(patches, newFilePatch(oldSide, newSide))
	}
	return buildDiff(patches)
}

// storedSide reads a blob from the object database.
func (r *Repository) storedSide(path string, e treeEntry) (*diffSide, error) {
	data, err := r.readBlob(e.hash)
	if err != nil {
		return nil, err
	}
	return newDiffSide(path, e.hash, e.mode, data)
}

// worktreeSide reads a file from the working tree and hashes it the way it
// would be stored.
func (r *Repository) worktreeSide(path string) (*diffSide, error) {
	fi, err := r.fs.Lstat(path)
	if err != nil {
		return nil, err
	}

	var data []byte
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := r.fs.Readlink(path)
		if err != nil {
			return nil, err
		}
		data = []byte(target)
	} else {
		data, err = util.ReadFile(r.fs, path)
		if err != nil {
			return nil, err
		}
	}

	mode, err := filemode.NewFromOSFileMode(fi.Mode())
	if err != nil {
		return nil, err
	}
	return newDiffSide(path, plumbing.ComputeHash(plumbing.BlobObject, data), mode, data)
}

func newDiffSide(path string, h plumbing.Hash, mode filemode.FileMode, data []byte) (*diffSide, error) {
	isBinary, err := binary.IsBinary(bytes.NewReader(data))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	side := &diffSide{path: path, hash: h, mode: mode, binary: isBinary}
	if !isBinary {
		side.content = string(data)
	}
	return side, nil
}
