// Package git provides an orchestration layer over go-git for applications
// that drive a repository through callbacks rather than return values.
//
// Every operation reports its outcome to receivers supplied by the caller:
// errors go to an ErrorReceiver, progress to a CheckoutProgress,
// MergeProgress or RemoteProgress, and results to a CommitGraph,
// DiffReceiver or StatusReceiver. Each operation reports at most one error,
// and a progress receiver sees OnComplete only when the operation succeeded.
//
// # Core Types
//
// Repository owns the go-git handle for one path and hands out the domain
// objects below. Objects stay valid until the repository is closed or the
// object is removed; passing a foreign or stale object back is a usage
// error reported as ErrInvalidSpec.
//
// Commit is an immutable snapshot of a commit with its parents and the
// references currently pointing at it.
//
// Reference is a named pointer to a commit (or to another reference, for
// HEAD). Its Kind tells local branches, remote-tracking branches and tags
// apart.
//
// Remote is a configured remote with its name and URL.
//
// Diff, DiffDelta, DiffFile, DiffHunk and DiffLine describe changes between
// two trees or between the index and the working tree.
//
// # Billy Filesystem Requirement
//
// All repository I/O goes through the go-billy filesystem abstraction. By
// default the OS filesystem (osfs) is used; tests and embedders can supply
// any billy.Filesystem, typically memfs:
//
//	repo := git.New("/repo", git.WithFilesystem(memfs.New()))
//	repo.Create(&errs)
//
// The filesystem is scoped to the repository path. The working tree and the
// git directory are instrumented so checkouts can report the paths they
// touched and the directory, stat and chmod calls they made.
//
// # Lifecycle
//
// New only records the path. Open attaches to an existing repository and is
// not an error when there is none; check Exists afterwards. Create
// initializes a repository, and Clone downloads one. Close invalidates every
// object the repository produced.
//
//	repo := git.New("/path/to/repo")
//	var errs git.ErrorRecorder
//	repo.Open(&errs)
//	if !repo.Exists() {
//	    repo.Clone("https://github.com/org/repo", remoteProgress, checkoutProgress, &errs)
//	}
//	if err := errs.Err(); err != nil {
//	    return err
//	}
//
// # Reference Back-Links
//
// Each Commit knows the references pointing at it. Operations that move
// references refresh these links before returning. WithManualReferenceSync
// turns this off; call UpdateReferencesTargets when the links are needed.
//
// # Merging
//
// Merge analyses the target against HEAD and reports the result through
// SetMergeAnalysisResult. Up-to-date merges stop there, fast-forwards move
// the branch and check out the new tree, and diverged histories are merged
// file by file. Conflicting files are written with conflict markers and left
// unstaged while the repository stays in the merge state; the next Commit
// records both parents.
//
// # Authentication
//
// When a remote asks for credentials, RemoteProgress.GetCredential is
// consulted and the attempt is repeated with what it returns, up to
// WithCredentialAttempts times. A nil credential makes the operation call
// MustSupplyCredential and fail with ErrAuth. The credential sub-package
// offers a YAML credential store and a bridge to git credential helpers.
//
// # RemoteOperations Interface
//
// The RemoteOperations interface abstracts the network calls (Clone, Fetch,
// Push, List) so tests can run without a network. Provide an implementation
// with WithRemoteOperations. The default uses go-git's transports.
//
// # Escape Hatches
//
// Underlying returns the go-git repository and Filesystem the scoped billy
// filesystem, for operations this package does not cover.
//
// # Error Handling
//
// go-git errors are classified into platform error codes from the errors
// package and then into the ErrorCode values delivered to ErrorReceiver.
// ErrorRecorder is a receiver that keeps the first report and turns it back
// into a Go error:
//
//	var errs git.ErrorRecorder
//	repo.Checkout(ref, nil, &errs)
//	if errs.Code() == git.ErrUncommitted {
//	    // stash or commit first
//	}
//
// # Logging
//
// Operations log through log/slog. Supply a logger with WithLogger; the
// default discards everything.
//
// # Testing
//
// The testutil sub-package creates in-memory repositories, serves them over
// an in-process file:// transport, and provides receivers that record every
// callback:
//
//	repo := testutil.NewMemoryRepo(t)
//	first := testutil.CommitFiles(t, repo, "Initial commit", map[string]string{
//	    "README.md": testutil.TestFileContent,
//	})
package git
