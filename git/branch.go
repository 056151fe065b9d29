package git

import (
	"errors"
	"strings"

	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// CreateBranch creates the local branch name pointing at commit. It fails
// with an already-exists error when the branch exists.
//
// Returns the new reference, or nil after reporting to errs.
func (r *Repository) CreateBranch(name string, commit *Commit, errs ErrorReceiver) *Reference {
	op := r.begin("create-branch", errs, "ref", name)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsCommit(commit) {
		return nil
	}

	ref, ok := op.createReference(plumbing.NewBranchReferenceName(name), commit.id.hash())
	refsChanged = ok
	return ref
}

// createReference writes a direct reference if no reference of that name
// exists yet.
func (op *operation) createReference(name plumbing.ReferenceName, target plumbing.Hash) (*Reference, bool) {
	r := op.repo
	if err := name.Validate(); err != nil {
		op.fail(platformerrors.Wrapf(err, platformerrors.CodeInvalidInput, "invalid reference name %q", name.Short()),
			ErrorClassReference)
		return nil, false
	}

	_, err := r.repo.Storer.Reference(name)
	if err == nil {
		op.fail(platformerrors.Newf(platformerrors.CodeAlreadyExists, "reference %s already exists", name),
			ErrorClassReference)
		return nil, false
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		op.fail(wrapError(err, "failed to read reference"), ErrorClassReference)
		return nil, false
	}

	ref := plumbing.NewHashReference(name, target)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		op.fail(wrapError(err, "failed to write reference"), ErrorClassReference)
		return nil, false
	}

	return r.referenceFor(ref), true
}

// CreateLocalTrackingBranch creates a local branch tracking the
// remote-tracking branch remoteRef, named after the branch on the remote.
// It is idempotent: if that local branch already tracks remoteRef, it is
// returned and nothing is created. A local branch of the same name that
// tracks something else is an already-exists error.
func (r *Repository) CreateLocalTrackingBranch(remoteRef *Reference, errs ErrorReceiver) *Reference {
	op := r.begin("create-tracking-branch", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsReference(remoteRef) {
		return nil
	}
	if remoteRef.kind != ReferenceRemoteBranch {
		op.usage("reference " + remoteRef.Name() + " is not a remote-tracking branch")
		return nil
	}

	cfg, err := r.repo.Config()
	if err != nil {
		op.fail(wrapError(err, "failed to read configuration"), ErrorClassConfig)
		return nil
	}

	remote, branch, ok := splitRemoteBranch(cfg, remoteRef.name)
	if !ok {
		op.fail(platformerrors.Newf(platformerrors.CodeNotFound, "no remote configured for %s", remoteRef.Name()),
			ErrorClassConfig)
		return nil
	}

	local := plumbing.NewBranchReferenceName(branch)
	merge := plumbing.NewBranchReferenceName(branch)
	if existing, err := r.repo.Storer.Reference(local); err == nil {
		if tracking, ok := cfg.Branches[branch]; ok && tracking.Remote == remote && tracking.Merge == merge {
			return r.referenceFor(existing)
		}
		op.fail(platformerrors.Newf(platformerrors.CodeAlreadyExists, "branch %s already exists", branch),
			ErrorClassReference)
		return nil
	}

	target, ok := r.resolve(remoteRef)
	if !ok {
		op.fail(platformerrors.Newf(platformerrors.CodeNotFound, "cannot resolve %s", remoteRef.Name()),
			ErrorClassReference)
		return nil
	}

	ref, ok := op.createReference(local, target)
	if !ok {
		return nil
	}
	refsChanged = true

	cfg.Branches[branch] = &config.Branch{Name: branch, Remote: remote, Merge: merge}
	if err := r.repo.SetConfig(cfg); err != nil {
		op.fail(wrapError(err, "failed to write tracking configuration"), ErrorClassConfig)
		return nil
	}
	return ref
}

// splitRemoteBranch splits refs/remotes/<remote>/<branch>. Remote names may
// contain slashes, so the longest configured remote name wins.
func splitRemoteBranch(cfg *config.Config, name plumbing.ReferenceName) (remote, branch string, ok bool) {
	rest, found := strings.CutPrefix(name.String(), "refs/remotes/")
	if !found {
		return "", "", false
	}

	for candidate := range cfg.Remotes {
		prefix := candidate + "/"
		if strings.HasPrefix(rest, prefix) && len(candidate) > len(remote) && len(rest) > len(prefix) {
			remote, branch = candidate, rest[len(prefix):]
		}
	}
	if remote != "" {
		return remote, branch, true
	}

	// Fall back to the first path segment for remotes that are not configured.
	remote, branch, found = strings.Cut(rest, "/")
	return remote, branch, found && remote != "" && branch != ""
}

// RemoveReference deletes ref. Deleting a local branch also drops its
// tracking configuration. HEAD cannot be removed.
func (r *Repository) RemoveReference(ref *Reference, errs ErrorReceiver) {
	op := r.begin("remove-reference", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsReference(ref) {
		return
	}
	if ref.name == plumbing.HEAD {
		op.usage("HEAD cannot be removed")
		return
	}

	if err := r.repo.Storer.RemoveReference(ref.name); err != nil {
		op.fail(wrapError(err, "failed to remove reference"), ErrorClassReference)
		return
	}
	delete(r.references, ref.name)
	refsChanged = true

	if ref.kind != ReferenceBranch {
		return
	}

	cfg, err := r.repo.Config()
	if err != nil {
		op.fail(wrapError(err, "failed to read configuration"), ErrorClassConfig)
		return
	}
	if _, ok := cfg.Branches[ref.name.Short()]; ok {
		delete(cfg.Branches, ref.name.Short())
		if err := r.repo.SetConfig(cfg); err != nil {
			op.fail(wrapError(err, "failed to write configuration"), ErrorClassConfig)
		}
	}
}
