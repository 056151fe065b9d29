package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// Merge merges the single reference in refs into the current branch. The
// analysis result is reported first through progress:
//
//   - MergeAnalysisUpToDate: the target is already contained in the current
//     branch. Nothing else is reported, not even OnComplete.
//   - MergeAnalysisFastForward: the current branch, or the unborn branch
//     HEAD names, moves to the target and the working tree is checked out,
//     with checkout progress and one OnComplete.
//   - MergeAnalysisNormal: the histories diverged. The changes are merged
//     into the working tree and index, with conflict markers where both
//     sides changed the same lines, and the repository is left in the merge
//     state with one OnComplete. The caller finishes with Commit or Reset.
//
// Merge never creates a commit. Passing more than one reference is a usage
// error. Merging while another operation is in progress is a conflict
// error, and uncommitted changes to tracked files are an
// uncommitted-changes error.
//
// Files are written in place and are not rolled back on failure.
func (r *Repository) Merge(refs []*Reference, progress MergeProgress, errs ErrorReceiver) {
	op := r.begin("merge", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() {
		return
	}
	if len(refs) != 1 {
		op.usage(fmt.Sprintf("merge takes exactly one reference, got %d", len(refs)))
		return
	}
	ref := refs[0]
	if !op.ownsReference(ref) {
		return
	}
	op.logger = op.logger.With("ref", ref.Name())
	if progress == nil {
		progress = nopMergeProgress{}
	}

	if state := r.state(); state != StateNone {
		op.fail(platformerrors.Newf(platformerrors.CodeConflict, "a %s is already in progress", state),
			ErrorClassMerge)
		return
	}

	target, ok := r.resolve(ref)
	if !ok {
		op.fail(platformerrors.Newf(platformerrors.CodeNotFound, "cannot resolve %s", ref.Name()),
			ErrorClassReference)
		return
	}
	theirs, err := r.repo.CommitObject(target)
	if err != nil {
		op.fail(wrapError(err, ref.Name()+" does not point at a commit"), ErrorClassMerge)
		return
	}

	ours, unborn, err := r.headTarget()
	if err != nil {
		op.fail(wrapError(err, "failed to resolve HEAD"), ErrorClassReference)
		return
	}

	analysis, err := r.analyzeMerge(ours, unborn, theirs)
	if err != nil {
		op.fail(wrapError(err, "failed to analyze merge"), ErrorClassMerge)
		return
	}
	op.logger.Debug("merge analyzed", "analysis", analysis.String())

	if analysis == MergeAnalysisUpToDate {
		progress.SetMergeAnalysisResult(analysis)
		return
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		op.fail(wrapError(err, "failed to get worktree"), ErrorClassRepository)
		return
	}
	if !op.clean(wt) {
		return
	}

	progress.SetMergeAnalysisResult(analysis)
	reporter := op.checkout(progress)

	if analysis == MergeAnalysisFastForward {
		total, err := r.checkoutTotal(target, nil)
		if err != nil {
			op.fail(wrapError(err, "failed to plan fast-forward"), ErrorClassCheckout)
			return
		}

		err = r.observeCheckout(reporter, total, func() error {
			if err := r.bornHead(target); err != nil {
				return err
			}
			return wt.Reset(&gogit.ResetOptions{Commit: target, Mode: gogit.MergeReset})
		})
		refsChanged = true
		if err != nil {
			op.fail(wrapError(err, "failed to fast-forward"), ErrorClassCheckout)
			return
		}
		reporter.complete()
		return
	}

	if err := r.mergeTrees(reporter, ours, theirs, ref); err != nil {
		op.fail(wrapError(err, "failed to merge "+ref.Shorthand()), ErrorClassMerge)
		return
	}
	reporter.complete()
}

type nopMergeProgress struct {
	NopCheckoutProgress
}

func (nopMergeProgress) SetMergeAnalysisResult(MergeAnalysis) {}

// analyzeMerge decides how theirs relates to the current branch. An unborn
// branch can always be fast-forwarded.
func (r *Repository) analyzeMerge(ours plumbing.Hash, unborn bool, theirs *object.Commit) (MergeAnalysis, error) {
	if unborn {
		return MergeAnalysisFastForward, nil
	}
	if ours == theirs.Hash {
		return MergeAnalysisUpToDate, nil
	}

	current, err := r.repo.CommitObject(ours)
	if err != nil {
		return MergeAnalysisNone, err
	}

	contained, err := theirs.IsAncestor(current)
	if err != nil {
		return MergeAnalysisNone, err
	}
	if contained {
		return MergeAnalysisUpToDate, nil
	}

	behind, err := current.IsAncestor(theirs)
	if err != nil {
		return MergeAnalysisNone, err
	}
	if behind {
		return MergeAnalysisFastForward, nil
	}
	return MergeAnalysisNormal, nil
}

// mergeStep is what a three-way merge does to one path.
type mergeStep struct {
	path string
	// entry is the resulting index entry. nil removes the path.
	entry *treeEntry
	// content is written to the working tree when write is set.
	content []byte
	write   bool
	// stage records entry in the index. Conflicted paths are left unstaged.
	stage    bool
	conflict bool
}

// mergeTrees performs a three-way merge of theirs into HEAD, writes the
// result and records the merge state.
func (r *Repository) mergeTrees(reporter *checkoutReporter, ours plumbing.Hash, theirs *object.Commit, ref *Reference) error {
	current, err := r.repo.CommitObject(ours)
	if err != nil {
		return err
	}

	var baseTree *object.Tree
	bases, err := current.MergeBase(theirs)
	if err != nil {
		return err
	}
	if len(bases) > 0 {
		if baseTree, err = bases[0].Tree(); err != nil {
			return err
		}
	}
	oursTree, err := current.Tree()
	if err != nil {
		return err
	}
	theirsTree, err := theirs.Tree()
	if err != nil {
		return err
	}

	steps, err := r.planMerge(baseTree, oursTree, theirsTree)
	if err != nil {
		return err
	}

	total := 0
	var conflicts []string
	for _, s := range steps {
		if s.write || s.entry == nil {
			total++
		}
		if s.conflict {
			conflicts = append(conflicts, s.path)
		}
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return err
	}
	err = r.observeCheckout(reporter, total, func() error {
		for _, s := range steps {
			if err := r.applyMergeStep(idx, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return err
	}

	return r.writeMergeState(theirs.Hash, mergeMessage(ref, conflicts))
}

// planMerge walks every path of the three trees and decides the outcome:
// a side that did not change takes the other side, identical changes are
// kept, text changed on both sides is merged line by line, and anything
// else is a conflict that keeps ours, or theirs when ours deleted the path.
func (r *Repository) planMerge(base, ours, theirs *object.Tree) ([]mergeStep, error) {
	b, err := treeEntries(base)
	if err != nil {
		return nil, err
	}
	o, err := treeEntries(ours)
	if err != nil {
		return nil, err
	}
	t, err := treeEntries(theirs)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]bool, len(o)+len(t))
	for _, m := range []map[string]treeEntry{b, o, t} {
		for p := range m {
			paths[p] = true
		}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	slices.Sort(sorted)

	var steps []mergeStep
	for _, p := range sorted {
		baseEntry, ourEntry, theirEntry := lookup(b, p), lookup(o, p), lookup(t, p)

		switch {
		case sameEntry(ourEntry, theirEntry), sameEntry(baseEntry, theirEntry):
			continue
		case sameEntry(baseEntry, ourEntry):
			step := mergeStep{path: p, entry: theirEntry, stage: true}
			if theirEntry != nil {
				data, err := r.readBlob(theirEntry.hash)
				if err != nil {
					return nil, err
				}
				step.content, step.write = data, true
			}
			steps = append(steps, step)
		case ourEntry == nil:
			// Deleted here, modified there: bring their version back unstaged.
			data, err := r.readBlob(theirEntry.hash)
			if err != nil {
				return nil, err
			}
			steps = append(steps, mergeStep{path: p, entry: theirEntry, content: data, write: true, conflict: true})
		case theirEntry == nil:
			steps = append(steps, mergeStep{path: p, entry: ourEntry, conflict: true})
		default:
			step, err := r.mergeContent(p, baseEntry, *ourEntry, *theirEntry)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
	}
	return steps, nil
}

// mergeContent merges a path both sides changed.
func (r *Repository) mergeContent(p string, base *treeEntry, ours, theirs treeEntry) (mergeStep, error) {
	keepOurs := mergeStep{path: p, entry: &ours, conflict: true}
	if !ours.mode.IsFile() || !theirs.mode.IsFile() || ours.mode == filemode.Symlink || theirs.mode == filemode.Symlink {
		return keepOurs, nil
	}

	var baseData []byte
	if base != nil {
		var err error
		if baseData, err = r.readBlob(base.hash); err != nil {
			return mergeStep{}, err
		}
	}
	ourData, err := r.readBlob(ours.hash)
	if err != nil {
		return mergeStep{}, err
	}
	theirData, err := r.readBlob(theirs.hash)
	if err != nil {
		return mergeStep{}, err
	}

	for _, data := range [][]byte{baseData, ourData, theirData} {
		if isBinary(data) {
			return keepOurs, nil
		}
	}

	merged := merge3(string(baseData), string(ourData), string(theirData))
	mode := ours.mode
	if base != nil && base.mode == ours.mode {
		mode = theirs.mode
	}

	step := mergeStep{
		path:     p,
		entry:    &treeEntry{mode: mode},
		content:  []byte(merged.content),
		write:    true,
		stage:    merged.conflicts == 0,
		conflict: merged.conflicts > 0,
	}
	if step.stage {
		h, err := r.writeBlob(step.content)
		if err != nil {
			return mergeStep{}, err
		}
		step.entry.hash = h
	}
	return step, nil
}

// applyMergeStep updates the working tree and idx for one path.
func (r *Repository) applyMergeStep(idx *index.Index, s mergeStep) error {
	if s.entry == nil {
		if err := r.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if _, err := idx.Remove(s.path); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
			return err
		}
		return nil
	}

	if s.write {
		if err := r.writeWorktreeFile(s.path, s.entry.mode, s.content); err != nil {
			return err
		}
	}
	if !s.stage {
		return nil
	}

	e, err := idx.Entry(s.path)
	if err != nil {
		e = idx.Add(s.path)
	}
	e.Hash = s.entry.hash
	e.Mode = s.entry.mode
	if fi, err := r.fs.Lstat(s.path); err == nil {
		e.ModifiedAt = fi.ModTime()
		e.Size = uint32(fi.Size())
	}
	return nil
}

func (r *Repository) writeWorktreeFile(p string, mode filemode.FileMode, data []byte) error {
	if dir := path.Dir(p); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if mode == filemode.Symlink {
		if err := r.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return r.fs.Symlink(string(data), p)
	}

	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}
	return util.WriteFile(r.fs, p, data, perm)
}

func (r *Repository) readBlob(h plumbing.Hash) ([]byte, error) {
	blob, err := r.repo.BlobObject(h)
	if err != nil {
		return nil, err
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

func (r *Repository) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return r.repo.Storer.SetEncodedObject(obj)
}

func isBinary(data []byte) bool {
	ok, err := binary.IsBinary(bytes.NewReader(data))
	return err == nil && ok
}

func lookup(entries map[string]treeEntry, p string) *treeEntry {
	if e, ok := entries[p]; ok {
		return &e
	}
	return nil
}

func sameEntry(a, b *treeEntry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// mergeMessage is the message git prepares in MERGE_MSG.
func mergeMessage(ref *Reference, conflicts []string) string {
	var msg strings.Builder
	switch ref.kind {
	case ReferenceRemoteBranch:
		fmt.Fprintf(&msg, "Merge remote-tracking branch '%s'\n", ref.Shorthand())
	case ReferenceTag:
		fmt.Fprintf(&msg, "Merge tag '%s'\n", ref.Shorthand())
	default:
		fmt.Fprintf(&msg, "Merge branch '%s'\n", ref.Shorthand())
	}

	if len(conflicts) > 0 {
		msg.WriteString("\n# Conflicts:\n")
		for _, p := range conflicts {
			fmt.Fprintf(&msg, "#\t%s\n", p)
		}
	}
	return msg.String()
}
