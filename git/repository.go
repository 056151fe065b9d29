package git

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// New returns a Repository for the given path. It does not touch the
// filesystem; call Open or Create before using it.
//
// By default the repository lives on the local filesystem rooted at path.
// This behavior can be customized using RepositoryOption functions.
//
// Examples:
//
//	// Open a repository from the local filesystem
//	repo := git.New("/path/to/repo")
//	repo.Open(&errs)
//	if !repo.Exists() {
//	    // no repository at this path
//	}
//
//	// Create one in memory (for testing)
//	repo := git.New("/", git.WithFilesystem(memfs.New()))
//	repo.Create(&errs)
func New(path string, opts ...RepositoryOption) *Repository {
	options := &repositoryOptions{
		factory:            DefaultFactory{},
		remoteOps:          &defaultRemoteOps{},
		logger:             slog.New(slog.DiscardHandler),
		credentialAttempts: DefaultCredentialAttempts,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Repository{
		path:               path,
		base:               options.fs,
		factory:            options.factory,
		remoteOps:          options.remoteOps,
		logger:             options.logger,
		manualSync:         options.manualSync,
		credentialAttempts: options.credentialAttempts,
		commits:            make(map[OID]*Commit),
		references:         make(map[plumbing.ReferenceName]*Reference),
		remotes:            make(map[string]*Remote),
	}
}

// Open opens the repository at the configured path if there is one. A
// missing repository is not an error: Exists reports false afterwards.
// Any other failure, such as unreadable storage, is sent to errs.
func (r *Repository) Open(errs ErrorReceiver) {
	op := r.begin("open", errs)
	defer op.finish(false)

	if r.closed {
		op.usage("repository is closed")
		return
	}

	worktree, dotGit, err := r.filesystems()
	if err != nil {
		op.fail(wrapError(err, "failed to scope filesystem to path"), ErrorClassOS)
		return
	}

	storage := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())
	repo, err := gogit.Open(storage, worktree)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		op.logger.Debug("no repository at path")
		return
	}
	if err != nil {
		op.fail(wrapError(err, "failed to open repository"), ErrorClassRepository)
		return
	}

	r.attach(repo, worktree, dotGit)
}

// Create initializes a new repository with a working tree at the configured
// path. Running it where a repository already exists reports an
// already-exists error.
func (r *Repository) Create(errs ErrorReceiver) {
	op := r.begin("create", errs)
	defer op.finish(false)

	if r.closed {
		op.usage("repository is closed")
		return
	}

	worktree, dotGit, err := r.filesystems()
	if err != nil {
		op.fail(wrapError(err, "failed to scope filesystem to path"), ErrorClassOS)
		return
	}

	storage := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())
	repo, err := gogit.Init(storage, worktree)
	if err != nil {
		op.fail(wrapError(err, "failed to initialize repository"), ErrorClassRepository)
		return
	}

	r.attach(repo, worktree, dotGit)
}

// Exists reports whether the repository has been opened or created
// successfully and not closed since.
func (r *Repository) Exists() bool {
	return r.repo != nil && !r.closed
}

// Close releases the engine handle. Every Commit, Reference and Remote the
// repository produced becomes invalid, and passing one back to any
// operation is a usage error.
func (r *Repository) Close() {
	if r.closed {
		return
	}
	r.logger.Debug("repository closed", "path", r.path)

	r.closed = true
	r.repo = nil
	clear(r.commits)
	clear(r.references)
	clear(r.remotes)
}

// Path returns the path the repository was created with.
func (r *Repository) Path() string {
	return r.path
}

// Underlying returns the underlying go-git Repository for advanced operations
// not covered by this wrapper. It is nil until Open or Create succeeds.
//
// Changes made through the underlying repository are not seen by commits
// and references already produced until the next UpdateReferencesTargets.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the filesystem scoped to the working tree. It is nil
// until Open or Create succeeds.
func (r *Repository) Filesystem() billy.Filesystem {
	if r.fs == nil {
		return nil
	}
	return r.fs
}

// Signature returns the configured author identity. The repository's own
// configuration wins over the global one. ok is false when no complete
// identity is configured.
func (r *Repository) Signature() (sig Signature, ok bool) {
	if r.repo == nil || r.closed {
		return Signature{}, false
	}

	cfg, err := r.repo.Config()
	if err == nil && cfg.User.Name != "" && cfg.User.Email != "" {
		return Signature{Name: cfg.User.Name, Email: cfg.User.Email, When: time.Now()}, true
	}

	// Global scope merges the user's configuration files under the local one.
	cfg, err = r.repo.ConfigScoped(config.GlobalScope)
	if err == nil && cfg.User.Name != "" && cfg.User.Email != "" {
		return Signature{Name: cfg.User.Name, Email: cfg.User.Email, When: time.Now()}, true
	}

	return Signature{}, false
}

// SetSignature stores the author identity in the repository configuration.
func (r *Repository) SetSignature(name, email string, errs ErrorReceiver) {
	op := r.begin("set-signature", errs)
	defer op.finish(false)

	if !op.ready() {
		return
	}
	if name == "" || email == "" {
		op.fail(platformerrors.New(platformerrors.CodeInvalidInput, "name and email are required"), ErrorClassConfig)
		return
	}

	cfg, err := r.repo.Config()
	if err != nil {
		op.fail(wrapError(err, "failed to read configuration"), ErrorClassConfig)
		return
	}

	cfg.User.Name = name
	cfg.User.Email = email
	if err := r.repo.SetConfig(cfg); err != nil {
		op.fail(wrapError(err, "failed to write configuration"), ErrorClassConfig)
	}
}

// filesystems returns the working tree filesystem and the git directory
// inside it.
func (r *Repository) filesystems() (worktree, dotGit *instrumentedFS, err error) {
	var scoped billy.Filesystem
	if r.base == nil {
		scoped = osfs.New(r.path)
	} else {
		scoped, err = r.base.Chroot(r.path)
		if err != nil {
			return nil, nil, err
		}
	}

	dir, err := scoped.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, nil, err
	}

	return newInstrumentedFS(scoped), newInstrumentedFS(dir), nil
}

func (r *Repository) attach(repo *gogit.Repository, worktree, dotGit *instrumentedFS) {
	r.repo = repo
	r.fs = worktree
	r.dotGit = dotGit
}
