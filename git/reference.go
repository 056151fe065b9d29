package git

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// ReferenceKind classifies a reference by where it lives.
type ReferenceKind int

const (
	// ReferenceOther is any reference not covered below, such as a detached
	// HEAD or a note.
	ReferenceOther ReferenceKind = iota
	// ReferenceBranch is a local branch under refs/heads.
	ReferenceBranch
	// ReferenceRemoteBranch is a remote-tracking branch under refs/remotes.
	ReferenceRemoteBranch
	// ReferenceTag is a tag under refs/tags.
	ReferenceTag
	// ReferenceSymbolic points at another reference by name.
	ReferenceSymbolic
)

func (k ReferenceKind) String() string {
	switch k {
	case ReferenceBranch:
		return "branch"
	case ReferenceRemoteBranch:
		return "remote-branch"
	case ReferenceTag:
		return "tag"
	case ReferenceSymbolic:
		return "symbolic"
	default:
		return "other"
	}
}

// maxSymbolicDepth bounds how many symbolic hops are followed.
const maxSymbolicDepth = 10

// Reference is a named pointer produced by a Repository. A symbolic
// reference has no direct target; it resolves through the reference it
// names.
type Reference struct {
	repo           *Repository
	name           plumbing.ReferenceName
	kind           ReferenceKind
	target         OID
	symbolicTarget plumbing.ReferenceName
}

// Name returns the full name, such as refs/heads/main.
func (r *Reference) Name() string {
	return r.name.String()
}

// Shorthand returns the display form of the name, such as main or
// origin/main.
func (r *Reference) Shorthand() string {
	return r.name.Short()
}

func (r *Reference) Kind() ReferenceKind {
	return r.kind
}

// IsSymbolic reports whether the reference points at another reference.
func (r *Reference) IsSymbolic() bool {
	return r.kind == ReferenceSymbolic
}

// BranchName returns the branch name of a local or remote-tracking branch.
// ok is false for every other kind.
func (r *Reference) BranchName() (name string, ok bool) {
	if r.kind != ReferenceBranch && r.kind != ReferenceRemoteBranch {
		return "", false
	}
	return r.name.Short(), true
}

// Target returns the object a direct reference points at. ok is false for
// symbolic references.
func (r *Reference) Target() (id OID, ok bool) {
	if r.kind == ReferenceSymbolic {
		return ZeroOID, false
	}
	return r.target, true
}

// SymbolicTarget returns the name a symbolic reference points at.
func (r *Reference) SymbolicTarget() (name string, ok bool) {
	if r.kind != ReferenceSymbolic {
		return "", false
	}
	return r.symbolicTarget.String(), true
}

func referenceKind(ref *plumbing.Reference) ReferenceKind {
	name := ref.Name()
	switch {
	case ref.Type() == plumbing.SymbolicReference:
		return ReferenceSymbolic
	case name.IsBranch():
		return ReferenceBranch
	case name.IsRemote():
		return ReferenceRemoteBranch
	case name.IsTag():
		return ReferenceTag
	default:
		return ReferenceOther
	}
}

// referenceFor returns the indexed reference for ref, refreshing its target.
func (r *Repository) referenceFor(ref *plumbing.Reference) *Reference {
	out, ok := r.references[ref.Name()]
	if !ok {
		out = r.makeReference()
		out.repo = r
		out.name = ref.Name()
		r.references[out.name] = out
	}

	out.kind = referenceKind(ref)
	out.target = ZeroOID
	out.symbolicTarget = ""
	if out.kind == ReferenceSymbolic {
		out.symbolicTarget = ref.Target()
	} else {
		out.target = oidFromHash(ref.Hash())
	}
	return out
}

// loadReferences reads every reference, HEAD included, and prunes indexed
// references that no longer exist. The result is sorted by name.
func (r *Repository) loadReferences() ([]*Reference, error) {
	iter, err := r.repo.Storer.IterReferences()
	if err != nil {
		return nil, err
	}

	live := make(map[plumbing.ReferenceName]bool)
	var refs []*Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if live[ref.Name()] {
			return nil
		}
		live[ref.Name()] = true
		refs = append(refs, r.referenceFor(ref))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !live[plumbing.HEAD] {
		head, err := r.repo.Storer.Reference(plumbing.HEAD)
		if err == nil {
			live[plumbing.HEAD] = true
			refs = append(refs, r.referenceFor(head))
		}
	}

	for name := range r.references {
		if !live[name] {
			delete(r.references, name)
		}
	}

	slices.SortFunc(refs, func(a, b *Reference) int {
		return strings.Compare(a.name.String(), b.name.String())
	})
	return refs, nil
}

// resolve follows symbolic references and peels annotated tags down to the
// commit a reference ultimately designates.
func (r *Repository) resolve(ref *Reference) (plumbing.Hash, bool) {
	name := ref.name
	for range maxSymbolicDepth {
		pref, err := r.repo.Storer.Reference(name)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		if pref.Type() == plumbing.SymbolicReference {
			name = pref.Target()
			continue
		}
		return r.peel(pref.Hash())
	}
	return plumbing.ZeroHash, false
}

func (r *Repository) peel(h plumbing.Hash) (plumbing.Hash, bool) {
	for range maxSymbolicDepth {
		tag, err := r.repo.TagObject(h)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return h, true
		}
		if err != nil {
			return plumbing.ZeroHash, false
		}
		h = tag.Target
	}
	return plumbing.ZeroHash, false
}

// UpdateReferencesTargets rebuilds every commit's reference back-links.
// Each indexed commit loses its back-links, every reference is re-read,
// and each is attached to the commit it resolves to when that commit has
// been produced by this repository. Operations that change references call
// it on completion unless WithManualReferenceSync was given.
func (r *Repository) UpdateReferencesTargets() {
	if r.closed || r.repo == nil {
		return
	}

	for _, c := range r.commits {
		c.removeAllReferences()
	}

	refs, err := r.loadReferences()
	if err != nil {
		r.logger.Warn("failed to read references", "path", r.path, "error", err)
		return
	}

	for _, ref := range refs {
		h, ok := r.resolve(ref)
		if !ok {
			continue
		}
		if c, ok := r.commits[oidFromHash(h)]; ok {
			c.addReference(ref)
		}
	}
}

// References returns every reference in the repository, HEAD included,
// sorted by name.
func (r *Repository) References(errs ErrorReceiver) []*Reference {
	op := r.begin("references", errs)
	defer op.finish(false)

	if !op.ready() {
		return nil
	}

	refs, err := r.loadReferences()
	if err != nil {
		op.fail(wrapError(err, "failed to list references"), ErrorClassReference)
		return nil
	}
	return refs
}

// Head returns the HEAD reference, or nil if the repository is not open.
// On an unborn branch HEAD is a symbolic reference to a branch that does
// not exist yet.
func (r *Repository) Head() *Reference {
	if r.closed || r.repo == nil {
		return nil
	}

	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return nil
	}
	return r.referenceFor(head)
}

// headTarget resolves HEAD to a commit hash. unborn is true when HEAD names
// a branch that has no commits yet.
func (r *Repository) headTarget() (h plumbing.Hash, unborn bool, err error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, true, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	return head.Hash(), false, nil
}
