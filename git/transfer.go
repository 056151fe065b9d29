package git

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/revlist"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// statusNonFastForward is the push status of a branch rejected because the
// remote has commits the local branch does not contain.
const statusNonFastForward = "non-fast-forward"

var totalLine = regexp.MustCompile(`Total (\d+) \(delta (\d+)\)`)

// sidebandWriter forwards the progress text the remote sends and picks the
// object and delta totals out of it.
type sidebandWriter struct {
	reporter *remoteReporter
	pending  strings.Builder

	objects int
	deltas  int
}

func (w *sidebandWriter) Write(p []byte) (int, error) {
	w.reporter.sideband(string(p))

	for _, b := range p {
		if b != '\r' && b != '\n' {
			w.pending.WriteByte(b)
			continue
		}
		w.parse(w.pending.String())
		w.pending.Reset()
	}
	return len(p), nil
}

func (w *sidebandWriter) parse(line string) {
	m := totalLine.FindStringSubmatch(line)
	if m == nil {
		return
	}
	w.objects, _ = strconv.Atoi(m[1])
	w.deltas, _ = strconv.Atoi(m[2])
}

// flush parses a trailing line that had no terminator.
func (w *sidebandWriter) flush() {
	if w.pending.Len() > 0 {
		w.parse(w.pending.String())
		w.pending.Reset()
	}
}

// isTrackedByFetch matches remote-tracking branches of remote and tags.
func isTrackedByFetch(remote string) func(plumbing.ReferenceName) bool {
	tracking := remoteTracking(remote)
	return func(name plumbing.ReferenceName) bool {
		return name.IsTag() || tracking(name)
	}
}

// reportTips reports every reference whose target differs between the two
// snapshots, in name order. It returns the new targets.
func reportTips(reporter *remoteReporter, before, after map[plumbing.ReferenceName]plumbing.Hash) []plumbing.Hash {
	names := make([]plumbing.ReferenceName, 0, len(after))
	for name := range after {
		names = append(names, name)
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	var tips []plumbing.Hash
	for _, name := range names {
		oldHash, newHash := before[name], after[name]
		if oldHash == newHash {
			continue
		}
		if !newHash.IsZero() {
			tips = append(tips, newHash)
		}
		reporter.updateTip(name.String(), oidFromHash(oldHash), oidFromHash(newHash))
	}
	return tips
}

// hashes returns the distinct targets of a snapshot.
func hashes(snapshot map[plumbing.ReferenceName]plumbing.Hash) []plumbing.Hash {
	out := make([]plumbing.Hash, 0, len(snapshot))
	for _, h := range snapshot {
		if !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}

// transferProgress builds the final counters of a download. Objects reachable
// from tips and not from known are counted when the remote did not announce
// a total.
func (r *Repository) transferProgress(sink *sidebandWriter, tips, known []plumbing.Hash, bytes int64) TransferProgress {
	total := sink.objects
	if len(tips) > 0 {
		if objs, err := revlist.Objects(r.repo.Storer, tips, known); err == nil {
			total = max(total, len(objs))
		}
	}

	return TransferProgress{
		TotalObjects:    total,
		IndexedObjects:  total,
		ReceivedObjects: total,
		TotalDeltas:     sink.deltas,
		IndexedDeltas:   sink.deltas,
		ReceivedBytes:   bytes,
	}
}

// Fetch downloads the objects and references of remote. Remote-tracking
// branches and tags that changed are reported through OnUpdateTips after the
// final transfer progress. A repository that is already up to date completes
// normally.
//
// When the remote asks for credentials, progress.GetCredential is consulted
// as described for RemoteProgress.
func (r *Repository) Fetch(remote *Remote, progress RemoteProgress, errs ErrorReceiver) {
	op := r.begin("fetch", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsRemote(remote) {
		return
	}
	op.logger = op.logger.With("remote", remote.name)

	reporter := op.remote(progress)
	sink := &sidebandWriter{reporter: reporter}
	before := r.refSnapshot(isTrackedByFetch(remote.name))
	known := hashes(r.refSnapshot(func(plumbing.ReferenceName) bool { return true }))

	observer := newFSObserver(nil)
	detach := r.dotGit.observe(observer)
	_, err := op.authenticate(reporter, nil, func(auth transport.AuthMethod) error {
		err := r.remoteOps.Fetch(context.Background(), r.repo, &gogit.FetchOptions{
			RemoteName: remote.name,
			Auth:       auth,
			Progress:   sink,
		})
		if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return nil
		}
		return err
	})
	detach()
	sink.flush()
	if err != nil {
		op.fail(wrapError(err, "failed to fetch "+remote.name), ErrorClassNet)
		return
	}

	after := r.refSnapshot(isTrackedByFetch(remote.name))
	refsChanged = true

	var tips []plumbing.Hash
	for name, h := range after {
		if before[name] != h {
			tips = append(tips, h)
		}
	}
	reporter.transfer(r.transferProgress(sink, tips, known, observer.stats.bytes))
	reportTips(reporter, before, after)
	reporter.complete()
}

// pushPlan is the outcome of comparing local branches with the remote.
type pushPlan struct {
	updates  []PushUpdate
	accepted []PushUpdate
	rejected []PushUpdate
}

// Push uploads every local branch whose tip differs from the remote's
// branch of the same name. The full list of updates goes to
// OnPushNegotiation before anything is sent. Unless force is set, a branch
// whose remote tip is not contained in the local branch is rejected with a
// non-fast-forward status and the operation reports ErrNonFastForward after
// the accepted branches were pushed.
func (r *Repository) Push(remote *Remote, force bool, progress RemoteProgress, errs ErrorReceiver) {
	op := r.begin("push", errs, "force", force)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsRemote(remote) {
		return
	}
	op.logger = op.logger.With("remote", remote.name)

	reporter := op.remote(progress)
	sink := &sidebandWriter{reporter: reporter}

	var advertised []*plumbing.Reference
	auth, err := op.authenticate(reporter, nil, func(auth transport.AuthMethod) error {
		var err error
		advertised, err = r.remoteOps.List(context.Background(), r.repo, remote.name, &gogit.ListOptions{Auth: auth})
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			advertised = nil
			return nil
		}
		return err
	})
	if err != nil {
		op.fail(wrapError(err, "failed to list references of "+remote.name), ErrorClassNet)
		return
	}

	plan := r.planPush(advertised, force)
	reporter.negotiation(plan.updates)
	if len(plan.updates) == 0 {
		op.logger.Debug("everything up-to-date")
		reporter.complete()
		return
	}

	if len(plan.accepted) > 0 {
		if err := r.reportPack(reporter, plan.accepted); err != nil {
			op.fail(wrapError(err, "failed to enumerate objects to push"), ErrorClassObject)
			return
		}

		before := r.refSnapshot(remoteTracking(remote.name))
		specs := make([]config.RefSpec, 0, len(plan.accepted))
		for _, u := range plan.accepted {
			spec := u.SrcRefName + ":" + u.DstRefName
			if force {
				spec = "+" + spec
			}
			specs = append(specs, config.RefSpec(spec))
		}

		_, err = op.authenticate(reporter, auth, func(auth transport.AuthMethod) error {
			err := r.remoteOps.Push(context.Background(), r.repo, &gogit.PushOptions{
				RemoteName: remote.name,
				RefSpecs:   specs,
				Auth:       auth,
				Force:      force,
				Progress:   sink,
			})
			if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
				return nil
			}
			return err
		})
		sink.flush()
		if err != nil {
			op.fail(wrapError(err, "failed to push to "+remote.name), ErrorClassNet)
			return
		}

		refsChanged = true
		reportTips(reporter, before, r.refSnapshot(remoteTracking(remote.name)))
	}

	for _, u := range plan.updates {
		status := ""
		if slices.Contains(plan.rejected, u) {
			status = statusNonFastForward
		}
		reporter.pushUpdate(u.DstRefName, status)
	}

	if len(plan.rejected) > 0 {
		op.fail(platformerrors.Newf(platformerrors.CodeNonFastForward,
			"%d branch(es) rejected as non-fast-forward, starting with %s",
			len(plan.rejected), plan.rejected[0].DstRefName), ErrorClassReference)
		return
	}

	reporter.complete()
}

// planPush lists the local branches that differ from the advertised ones.
func (r *Repository) planPush(advertised []*plumbing.Reference, force bool) pushPlan {
	remoteHeads := make(map[plumbing.ReferenceName]plumbing.Hash)
	for _, ref := range advertised {
		if ref.Type() == plumbing.HashReference && ref.Name().IsBranch() {
			remoteHeads[ref.Name()] = ref.Hash()
		}
	}

	local := r.refSnapshot(plumbing.ReferenceName.IsBranch)
	names := make([]plumbing.ReferenceName, 0, len(local))
	for name := range local {
		names = append(names, name)
	}
	slices.Sort(names)

	var plan pushPlan
	for _, name := range names {
		oldHash, newHash := remoteHeads[name], local[name]
		if oldHash == newHash {
			continue
		}

		u := PushUpdate{
			SrcRefName: name.String(),
			DstRefName: name.String(),
			Src:        oidFromHash(oldHash),
			Dst:        oidFromHash(newHash),
		}
		plan.updates = append(plan.updates, u)

		if force || oldHash.IsZero() || r.contains(newHash, oldHash) {
			plan.accepted = append(plan.accepted, u)
		} else {
			plan.rejected = append(plan.rejected, u)
		}
	}
	return plan
}

// contains reports whether the commit ancestor is known locally and
// reachable from tip.
func (r *Repository) contains(tip, ancestor plumbing.Hash) bool {
	a, err := r.repo.CommitObject(ancestor)
	if err != nil {
		return false
	}
	t, err := r.repo.CommitObject(tip)
	if err != nil {
		return false
	}
	ok, err := a.IsAncestor(t)
	return err == nil && ok
}

// reportPack reports the pack building and upload progress of the objects
// the accepted updates need.
func (r *Repository) reportPack(reporter *remoteReporter, accepted []PushUpdate) error {
	var tips, known []plumbing.Hash
	for _, u := range accepted {
		tips = append(tips, u.Dst.hash())
		if !u.Src.IsZero() {
			if _, err := r.repo.CommitObject(u.Src.hash()); err == nil {
				known = append(known, u.Src.hash())
			}
		}
	}

	objs, err := revlist.Objects(r.repo.Storer, tips, known)
	if err != nil {
		return err
	}
	total := len(objs)

	var size int64
	for _, h := range objs {
		if obj, err := r.repo.Storer.EncodedObject(plumbing.AnyObject, h); err == nil {
			size += obj.Size()
		}
	}

	for _, stage := range []PackStage{PackStageAddingObjects, PackStageDeltafication} {
		reporter.pack(stage, 0, total)
		reporter.pack(stage, total, total)
	}
	reporter.pushTransfer(0, total, 0)
	reporter.pushTransfer(total, total, size)
	return nil
}

// Clone downloads the repository at url into the configured path and checks
// out its default branch. The repository must not be open. Transfer
// progress, remote-tracking tips, and the remote's OnComplete are reported
// to remoteProgress. The checkout reports to checkoutProgress. Cloning an
// empty repository leaves an unborn HEAD and skips the checkout.
//
// Example:
//
//	repo := git.New("/path/to/clone")
//	repo.Clone("https://github.com/user/repo", remoteProgress, checkoutProgress, &errs)
func (r *Repository) Clone(url string, remoteProgress RemoteProgress, checkoutProgress CheckoutProgress,
	errs ErrorReceiver,
) {
	op := r.begin("clone", errs, "url", url)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	switch {
	case r.closed:
		op.usage("repository is closed")
		return
	case r.repo != nil:
		op.fail(platformerrors.New(platformerrors.CodeAlreadyExists, "repository is already open"),
			ErrorClassRepository)
		return
	case url == "":
		op.fail(platformerrors.New(platformerrors.CodeInvalidInput, "clone URL is required"), ErrorClassInvalid)
		return
	}

	worktree, dotGit, err := r.filesystems()
	if err != nil {
		op.fail(wrapError(err, "failed to scope filesystem to path"), ErrorClassOS)
		return
	}

	reporter := op.remote(remoteProgress)
	sink := &sidebandWriter{reporter: reporter}
	empty := false

	var repo *gogit.Repository
	observer := newFSObserver(nil)
	detach := dotGit.observe(observer)
	attempts := 0
	_, err = op.authenticate(reporter, nil, func(auth transport.AuthMethod) error {
		if attempts > 0 {
			if err := util.RemoveAll(worktree.Filesystem, gogit.GitDirName); err != nil {
				return err
			}
		}
		attempts++

		storage := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())
		var err error
		repo, err = r.remoteOps.Clone(context.Background(), storage, worktree, &gogit.CloneOptions{
			URL:        url,
			Auth:       auth,
			Progress:   sink,
			NoCheckout: true,
		})
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			empty = true
			repo, err = gogit.Open(storage, worktree)
		}
		return err
	})
	detach()
	sink.flush()
	if err != nil {
		op.fail(wrapError(err, "failed to clone "+url), ErrorClassNet)
		return
	}

	r.attach(repo, worktree, dotGit)
	refsChanged = true

	after := r.refSnapshot(func(name plumbing.ReferenceName) bool {
		return name.IsRemote() || name.IsTag()
	})
	tips := hashes(after)
	reporter.transfer(r.transferProgress(sink, tips, nil, observer.stats.bytes))
	reportTips(reporter, nil, after)

	if !empty {
		if err := r.checkoutClone(op, checkoutProgress); err != nil {
			op.fail(wrapError(err, "failed to check out clone"), ErrorClassCheckout)
			return
		}
	}

	reporter.complete()
}

// checkoutClone writes the tree of HEAD into the empty working tree.
func (r *Repository) checkoutClone(op *operation, progress CheckoutProgress) error {
	head, unborn, err := r.headTarget()
	if err != nil || unborn {
		return err
	}

	tree, err := r.commitTree(head)
	if err != nil {
		return err
	}
	entries, err := treeEntries(tree)
	if err != nil {
		return err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}

	reporter := op.checkout(progress)
	err = r.observeCheckout(reporter, len(entries), func() error {
		return wt.Reset(&gogit.ResetOptions{Commit: head, Mode: gogit.MergeReset})
	})
	if err != nil {
		return fmt.Errorf("checkout of %s: %w", head, err)
	}

	reporter.complete()
	return nil
}
