package git

import (
	"slices"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// Checkout makes the local branch ref the current branch and updates the
// working tree to its tip. Symbolic references and anything other than a
// local branch are usage errors and leave the working tree untouched, as do
// uncommitted changes to tracked files.
//
// progress receives an initial report announcing the total, one report per
// file written or removed, the perf data, and OnComplete.
//
// Files are written in place. If the update fails halfway, files already
// written are not rolled back; the progress delivered before the error
// tells how far it got.
func (r *Repository) Checkout(ref *Reference, progress CheckoutProgress, errs ErrorReceiver) {
	op := r.begin("checkout", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsReference(ref) {
		return
	}
	op.logger = op.logger.With("ref", ref.Name())

	if ref.kind != ReferenceBranch {
		op.usage("cannot check out " + ref.Name() + ": not a local branch")
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

	target, ok := r.resolve(ref)
	if !ok {
		op.fail(platformerrors.Newf(platformerrors.CodeNotFound, "cannot resolve %s", ref.Name()),
			ErrorClassReference)
		return
	}
	total, err := r.checkoutTotal(target, nil)
	if err != nil {
		op.fail(wrapError(err, "failed to plan checkout"), ErrorClassCheckout)
		return
	}

	reporter := op.checkout(progress)
	err = r.observeCheckout(reporter, total, func() error {
		return wt.Checkout(&gogit.CheckoutOptions{Branch: ref.name})
	})
	refsChanged = true
	if err != nil {
		op.fail(wrapError(err, "failed to check out "+ref.Shorthand()), ErrorClassCheckout)
		return
	}

	reporter.complete()
}

// Reset moves the current branch to commit and forces the index and the
// working tree to match it. Uncommitted changes are discarded, and so is any
// merge in progress. Commits that are no longer reachable are orphaned.
//
// Progress is reported as for Checkout. Files are written in place and are
// not rolled back if the reset fails partway.
func (r *Repository) Reset(commit *Commit, progress CheckoutProgress, errs ErrorReceiver) {
	op := r.begin("reset", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsCommit(commit) {
		return
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		op.fail(wrapError(err, "failed to get worktree"), ErrorClassRepository)
		return
	}

	dirty, err := dirtyPaths(wt)
	if err != nil {
		op.fail(wrapError(err, "failed to read worktree status"), ErrorClassCheckout)
		return
	}
	total, err := r.checkoutTotal(commit.id.hash(), dirty)
	if err != nil {
		op.fail(wrapError(err, "failed to plan reset"), ErrorClassCheckout)
		return
	}

	reporter := op.checkout(progress)
	err = r.observeCheckout(reporter, total, func() error {
		if err := r.bornHead(commit.id.hash()); err != nil {
			return err
		}
		return wt.Reset(&gogit.ResetOptions{Commit: commit.id.hash(), Mode: gogit.HardReset})
	})
	refsChanged = true
	if err != nil {
		op.fail(wrapError(err, "failed to reset"), ErrorClassCheckout)
		return
	}

	if err := r.clearMergeState(); err != nil {
		op.fail(wrapError(err, "failed to clear merge state"), ErrorClassRepository)
		return
	}

	reporter.complete()
}

// bornHead creates the branch HEAD names when it does not exist yet, so
// that moving HEAD has a branch to move.
func (r *Repository) bornHead(h plumbing.Hash) error {
	_, unborn, err := r.headTarget()
	if err != nil || !unborn {
		return err
	}

	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return err
	}
	if head.Type() != plumbing.SymbolicReference {
		return nil
	}
	return r.repo.Storer.SetReference(plumbing.NewHashReference(head.Target(), h))
}

// clean reports whether tracked files are free of uncommitted changes,
// failing the operation when they are not.
func (op *operation) clean(wt *gogit.Worktree) bool {
	dirty, err := dirtyPaths(wt)
	if err != nil {
		op.fail(wrapError(err, "failed to read worktree status"), ErrorClassCheckout)
		return false
	}
	if len(dirty) > 0 {
		op.fail(platformerrors.Newf(platformerrors.CodeUncommitted,
			"%d tracked file(s) have uncommitted changes, starting with %s", len(dirty), dirty[0]),
			ErrorClassCheckout)
		return false
	}
	return true
}

// dirtyPaths lists tracked paths with staged or unstaged changes, sorted.
// Untracked files do not count.
func dirtyPaths(wt *gogit.Worktree) ([]string, error) {
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	var dirty []string
	for path, s := range status {
		if s.Worktree == gogit.Untracked {
			continue
		}
		if s.Worktree != gogit.Unmodified || s.Staging != gogit.Unmodified {
			dirty = append(dirty, path)
		}
	}
	slices.Sort(dirty)
	return dirty, nil
}

// checkoutTotal estimates the number of files a checkout of target will
// touch: the paths that differ between HEAD and target plus extra paths
// that will be overwritten.
func (r *Repository) checkoutTotal(target plumbing.Hash, extra []string) (int, error) {
	from, err := r.headTree()
	if err != nil {
		return 0, err
	}
	to, err := r.commitTree(target)
	if err != nil {
		return 0, err
	}

	changes, err := object.DiffTree(from, to)
	if err != nil {
		return 0, err
	}

	paths := make(map[string]bool, len(changes)+len(extra))
	for _, ch := range changes {
		if ch.From.Name != "" {
			paths[ch.From.Name] = true
		}
		if ch.To.Name != "" {
			paths[ch.To.Name] = true
		}
	}
	for _, path := range extra {
		paths[path] = true
	}
	return len(paths), nil
}

// observeCheckout runs fn with the working tree observed. It reports the
// initial total, one step per file written or removed, and the perf data.
// The total grows if more files are touched than estimated.
func (r *Repository) observeCheckout(reporter *checkoutReporter, total int, fn func() error) error {
	completed := 0
	reporter.progressed("", completed, total)

	observer := newFSObserver(func(path string) {
		completed++
		total = max(total, completed)
		reporter.progressed(path, completed, total)
	})

	detach := r.fs.observe(observer)
	err := fn()
	detach()
	if err != nil {
		return err
	}

	reporter.perf(observer.stats)
	return nil
}
