package git

import (
	"errors"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// ReferenceLinker observes changes to a commit's reference back-links. A
// Factory can inject one into every commit it makes, for example to keep a
// view model in step with UpdateReferencesTargets.
type ReferenceLinker interface {
	AddReference(ref *Reference)
	RemoveAllReferences()
}

// Commit is a commit produced by a Repository. Its parents are fixed once
// the repository has populated it. Its references are a cached view that
// is only accurate right after UpdateReferencesTargets.
type Commit struct {
	repo      *Repository
	id        OID
	message   string
	author    Signature
	committer Signature

	parents    []*Commit
	parentsSet bool

	references []*Reference
	linker     ReferenceLinker
}

// NewCommit returns an empty commit for a Factory to hand to the
// repository. linker may be nil.
func NewCommit(linker ReferenceLinker) *Commit {
	return &Commit{linker: linker}
}

func (c *Commit) ID() OID {
	return c.id
}

// Message returns the full commit message.
func (c *Commit) Message() string {
	return c.message
}

// Summary returns the first line of the message.
func (c *Commit) Summary() string {
	summary, _, _ := strings.Cut(strings.TrimLeft(c.message, "\n"), "\n")
	return strings.TrimRight(summary, "\r")
}

func (c *Commit) Author() Signature {
	return c.author
}

func (c *Commit) Committer() Signature {
	return c.committer
}

// Time returns the commit time.
func (c *Commit) Time() time.Time {
	return c.committer.When
}

// Parents returns the parents in order, first parent first.
func (c *Commit) Parents() []*Commit {
	return append([]*Commit(nil), c.parents...)
}

// References returns the references that resolved to this commit at the
// last synchronization.
func (c *Commit) References() []*Reference {
	return append([]*Reference(nil), c.references...)
}

// setParents records the parents. It only has an effect the first time.
func (c *Commit) setParents(parents []*Commit) bool {
	if c.parentsSet {
		return false
	}
	c.parents = parents
	c.parentsSet = true
	return true
}

func (c *Commit) addReference(ref *Reference) {
	c.references = append(c.references, ref)
	if c.linker != nil {
		c.linker.AddReference(ref)
	}
}

func (c *Commit) removeAllReferences() {
	c.references = nil
	if c.linker != nil {
		c.linker.RemoveAllReferences()
	}
}

// loadCommit returns the indexed commit for h, indexing it and every
// ancestor not yet known. Ancestors missing from storage, as in a shallow
// clone, are left out of the parent lists.
func (r *Repository) loadCommit(h plumbing.Hash) (*Commit, error) {
	if c, ok := r.commits[oidFromHash(h)]; ok {
		return c, nil
	}

	var pending []*object.Commit
	seen := make(map[plumbing.Hash]bool)
	stack := []plumbing.Hash{h}
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[next] {
			continue
		}
		seen[next] = true
		if _, ok := r.commits[oidFromHash(next)]; ok {
			continue
		}

		obj, err := r.repo.CommitObject(next)
		if errors.Is(err, plumbing.ErrObjectNotFound) && next != h {
			continue
		}
		if err != nil {
			return nil, err
		}

		pending = append(pending, obj)
		stack = append(stack, obj.ParentHashes...)
	}

	for _, obj := range pending {
		c := r.makeCommit()
		c.repo = r
		c.id = oidFromHash(obj.Hash)
		c.message = obj.Message
		c.author = signatureFromObject(obj.Author)
		c.committer = signatureFromObject(obj.Committer)
		r.commits[c.id] = c
	}

	for _, obj := range pending {
		parents := make([]*Commit, 0, len(obj.ParentHashes))
		for _, p := range obj.ParentHashes {
			if parent, ok := r.commits[oidFromHash(p)]; ok {
				parents = append(parents, parent)
			}
		}
		r.commits[oidFromHash(obj.Hash)].setParents(parents)
	}

	return r.commits[oidFromHash(h)], nil
}

// Commit records the index as a new commit on the current branch, authored
// with the configured signature. The first commit of a branch has no
// parent. While a merge is in progress the merged commit becomes the second
// parent and the merge state is cleared.
//
// Returns the new commit, or nil after reporting to errs.
func (r *Repository) Commit(message string, errs ErrorReceiver) *Commit {
	op := r.begin("commit", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() {
		return nil
	}

	sig, ok := r.Signature()
	if !ok {
		op.fail(platformerrors.Wrap(gogit.ErrMissingAuthor, platformerrors.CodeInvalidInput,
			"author signature is not configured"), ErrorClassConfig)
		return nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		op.fail(wrapError(err, "failed to get worktree"), ErrorClassRepository)
		return nil
	}

	author := &object.Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
	opts := &gogit.CommitOptions{Author: author, Committer: author}

	theirs, merging, err := r.mergeHead()
	if err != nil {
		op.fail(wrapError(err, "failed to read merge state"), ErrorClassRepository)
		return nil
	}
	if merging {
		head, err := r.repo.Head()
		if err != nil {
			op.fail(wrapError(err, "failed to resolve HEAD"), ErrorClassReference)
			return nil
		}
		opts.Parents = []plumbing.Hash{head.Hash(), theirs}
		opts.AllowEmptyCommits = true
	}

	h, err := wt.Commit(message, opts)
	if err != nil {
		op.fail(wrapError(err, "failed to create commit"), ErrorClassObject)
		return nil
	}
	refsChanged = true

	if merging {
		if err := r.clearMergeState(); err != nil {
			op.fail(wrapError(err, "failed to clear merge state"), ErrorClassRepository)
			return nil
		}
	}

	c, err := r.loadCommit(h)
	if err != nil {
		op.fail(wrapError(err, "failed to load commit"), ErrorClassObject)
		return nil
	}
	return c
}
