package git

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultCredentialAttempts is how many times a credential supplied by a
// RemoteProgress is tried before the operation gives up.
const DefaultCredentialAttempts = 3

// Repository is the orchestrator over a single repository on disk. It owns
// the engine handle and is the only producer of Commit, Reference and Remote
// values. Every value it hands out is indexed in the repository and becomes
// invalid once Close is called.
//
// A Repository is not safe for concurrent use. Callers must serialize all
// calls made on the same instance.
type Repository struct {
	path   string
	base   billy.Filesystem
	fs     *instrumentedFS
	dotGit *instrumentedFS
	repo   *gogit.Repository

	factory            Factory
	remoteOps          RemoteOperations
	logger             *slog.Logger
	manualSync         bool
	credentialAttempts int

	commits    map[OID]*Commit
	references map[plumbing.ReferenceName]*Reference
	remotes    map[string]*Remote
	closed     bool
}

// RepositoryOption configures a Repository created with New.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	fs                 billy.Filesystem
	factory            Factory
	remoteOps          RemoteOperations
	logger             *slog.Logger
	manualSync         bool
	credentialAttempts int
}

// WithFilesystem sets the billy filesystem the repository lives on. The
// repository path is resolved inside it. If not provided, defaults to
// osfs.New(path).
//
// Example:
//
//	repo := git.New("/", git.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}

// WithFactory sets the Factory used to allocate commits, references and
// remotes. If not provided, DefaultFactory is used.
func WithFactory(factory Factory) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.factory = factory
	}
}

// WithRemoteOperations sets the RemoteOperations implementation to use for
// network operations (Clone, Fetch, Push). If not provided, defaults to the
// internal implementation that uses go-git's network operations.
//
// This option is primarily useful for testing, allowing consumers to mock
// network operations without actual network calls.
func WithRemoteOperations(ops RemoteOperations) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.remoteOps = ops
	}
}

// WithLogger sets the logger operations report to. The default logger
// discards everything.
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.logger = logger
	}
}

// WithManualReferenceSync stops operations from calling
// UpdateReferencesTargets after they create, move or remove references. The
// caller is then responsible for batching the synchronization.
func WithManualReferenceSync() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.manualSync = true
	}
}

// WithCredentialAttempts bounds how many times a supplied credential is
// retried after the remote rejects it. Values below one are ignored.
func WithCredentialAttempts(n int) RepositoryOption {
	return func(opts *repositoryOptions) {
		if n > 0 {
			opts.credentialAttempts = n
		}
	}
}
