package git

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// RemoteOperations defines the interface for Git remote network operations.
// This interface allows for testing by enabling mock implementations that
// don't require actual network access.
//
// The default implementation delegates to go-git. Implementations receive
// the options the Repository built, including the authentication of the
// current attempt and the sideband progress writer, and must return
// go-git's errors unchanged so that authentication failures and
// already-up-to-date results are recognized.
type RemoteOperations interface {
	// Clone initializes storer and worktree from the remote described by opts.
	Clone(ctx context.Context, storer storage.Storer, worktree billy.Filesystem, opts *gogit.CloneOptions) (*gogit.Repository, error)

	// Fetch downloads objects and refs from the remote repository.
	Fetch(ctx context.Context, repo *gogit.Repository, opts *gogit.FetchOptions) error

	// Push uploads objects and refs to the remote repository.
	Push(ctx context.Context, repo *gogit.Repository, opts *gogit.PushOptions) error

	// List returns the references the remote advertises.
	List(ctx context.Context, repo *gogit.Repository, remote string, opts *gogit.ListOptions) ([]*plumbing.Reference, error)
}

// defaultRemoteOps is the default implementation of RemoteOperations that
// uses go-git's network operations to interact with remote repositories.
type defaultRemoteOps struct{}

func (d *defaultRemoteOps) Clone(ctx context.Context, storer storage.Storer, worktree billy.Filesystem,
	opts *gogit.CloneOptions,
) (*gogit.Repository, error) {
	return gogit.CloneContext(ctx, storer, worktree, opts)
}

func (d *defaultRemoteOps) Fetch(ctx context.Context, repo *gogit.Repository, opts *gogit.FetchOptions) error {
	return repo.FetchContext(ctx, opts)
}

func (d *defaultRemoteOps) Push(ctx context.Context, repo *gogit.Repository, opts *gogit.PushOptions) error {
	return repo.PushContext(ctx, opts)
}

func (d *defaultRemoteOps) List(ctx context.Context, repo *gogit.Repository, remote string,
	opts *gogit.ListOptions,
) ([]*plumbing.Reference, error) {
	rem, err := repo.Remote(remote)
	if err != nil {
		return nil, err
	}
	return rem.ListContext(ctx, opts)
}

// Remote is a configured remote produced by a Repository.
type Remote struct {
	repo *Repository
	name string
	url  string
}

func (r *Remote) Name() string {
	return r.name
}

// URL returns the first configured URL.
func (r *Remote) URL() string {
	return r.url
}

// remoteFor returns the indexed remote for cfg, refreshing its URL.
func (r *Repository) remoteFor(cfg *config.RemoteConfig) *Remote {
	out, ok := r.remotes[cfg.Name]
	if !ok {
		out = r.makeRemote()
		out.repo = r
		out.name = cfg.Name
		r.remotes[cfg.Name] = out
	}

	out.url = ""
	if len(cfg.URLs) > 0 {
		out.url = cfg.URLs[0]
	}
	return out
}

// Remotes returns the configured remotes sorted by name.
//
// Example:
//
//	for _, remote := range repo.Remotes(&errs) {
//	    fmt.Printf("%s\t%s\n", remote.Name(), remote.URL())
//	}
func (r *Repository) Remotes(errs ErrorReceiver) []*Remote {
	op := r.begin("remotes", errs)
	defer op.finish(false)

	if !op.ready() {
		return nil
	}

	cfg, err := r.repo.Config()
	if err != nil {
		op.fail(wrapError(err, "failed to read configuration"), ErrorClassConfig)
		return nil
	}

	remotes := make([]*Remote, 0, len(cfg.Remotes))
	for name, rc := range cfg.Remotes {
		if rc.Name == "" {
			rc.Name = name
		}
		remotes = append(remotes, r.remoteFor(rc))
	}
	for name := range r.remotes {
		if _, ok := cfg.Remotes[name]; !ok {
			delete(r.remotes, name)
		}
	}

	slices.SortFunc(remotes, func(a, b *Remote) int {
		return strings.Compare(a.name, b.name)
	})
	return remotes
}

// AddRemote adds a new remote to the repository configuration. The remote
// name must be unique within the repository; an existing name is an
// already-exists error and nil is returned.
//
// Example:
//
//	remote := repo.AddRemote("upstream", "https://github.com/upstream/repo", &errs)
func (r *Repository) AddRemote(name, url string, errs ErrorReceiver) *Remote {
	op := r.begin("add-remote", errs, "remote", name)
	defer op.finish(false)

	if !op.ready() {
		return nil
	}
	if url == "" {
		op.fail(platformerrors.New(platformerrors.CodeInvalidInput, "remote URL is required"), ErrorClassConfig)
		return nil
	}

	rem, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		op.fail(wrapError(err, "failed to add remote"), ErrorClassConfig)
		return nil
	}

	return r.remoteFor(rem.Config())
}

// RemoveRemote removes remote from the configuration together with its
// remote-tracking branches and the tracking configuration of local branches
// that follow it.
func (r *Repository) RemoveRemote(remote *Remote, errs ErrorReceiver) {
	op := r.begin("remove-remote", errs)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsRemote(remote) {
		return
	}
	op.logger = op.logger.With("remote", remote.name)

	if err := r.repo.DeleteRemote(remote.name); err != nil {
		op.fail(wrapError(err, "failed to remove remote"), ErrorClassConfig)
		return
	}
	delete(r.remotes, remote.name)

	tracking := r.refSnapshot(remoteTracking(remote.name))
	for name := range tracking {
		if err := r.repo.Storer.RemoveReference(name); err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			op.fail(wrapError(err, "failed to remove remote-tracking branch"), ErrorClassReference)
			return
		}
		refsChanged = true
	}

	cfg, err := r.repo.Config()
	if err != nil {
		op.fail(wrapError(err, "failed to read configuration"), ErrorClassConfig)
		return
	}
	changed := false
	for name, branch := range cfg.Branches {
		if branch.Remote == remote.name {
			delete(cfg.Branches, name)
			changed = true
		}
	}
	if changed {
		if err := r.repo.SetConfig(cfg); err != nil {
			op.fail(wrapError(err, "failed to write configuration"), ErrorClassConfig)
		}
	}
}

// remoteTracking matches the remote-tracking branches of remote.
func remoteTracking(remote string) func(plumbing.ReferenceName) bool {
	prefix := "refs/remotes/" + remote + "/"
	return func(name plumbing.ReferenceName) bool {
		return strings.HasPrefix(name.String(), prefix)
	}
}

// refSnapshot returns the targets of the direct references name matches.
func (r *Repository) refSnapshot(match func(plumbing.ReferenceName) bool) map[plumbing.ReferenceName]plumbing.Hash {
	snapshot := make(map[plumbing.ReferenceName]plumbing.Hash)
	iter, err := r.repo.Storer.IterReferences()
	if err != nil {
		return snapshot
	}
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference && match(ref.Name()) {
			snapshot[ref.Name()] = ref.Hash()
		}
		return nil
	})
	return snapshot
}
