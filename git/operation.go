package git

import (
	"log/slog"

	platformerrors "github.com/light-tech/MiniGit/errors"
)

// operation tracks a single public call. It is the one place that reports
// to the ErrorReceiver, so every operation reports at most one error and
// receivers wrapped by it go silent once that has happened.
type operation struct {
	repo   *Repository
	name   string
	errs   ErrorReceiver
	logger *slog.Logger

	failed    bool
	completed bool
}

func (r *Repository) begin(name string, errs ErrorReceiver, attrs ...any) *operation {
	logger := r.logger.With(append([]any{"op", name, "path", r.path}, attrs...)...)
	logger.Debug("operation started")

	return &operation{repo: r, name: name, errs: errs, logger: logger}
}

// fail routes err to the error receiver. Only the first failure is
// delivered.
func (op *operation) fail(err error, class ErrorClass) {
	if op.failed || err == nil {
		return
	}
	op.failed = true

	code := engineCode(err)
	op.logger.Warn("operation failed", "error", err, "code", int(code))

	if op.errs != nil {
		op.errs.OnError(code, &ErrorDetail{Message: err.Error(), Class: class}, op.name)
	}
}

// usage reports a usage error, such as an object from another repository.
func (op *operation) usage(message string) {
	op.fail(platformerrors.New(platformerrors.CodeUsage, message), ErrorClassInvalid)
}

// ok reports whether the operation may keep going.
func (op *operation) ok() bool {
	return !op.failed
}

// ready checks the repository is open and usable.
func (op *operation) ready() bool {
	switch {
	case op.repo.closed:
		op.usage("repository is closed")
	case op.repo.repo == nil:
		op.usage("repository is not open")
	}
	return op.ok()
}

// finish logs the outcome and, for operations that changed references,
// resynchronizes the commit back-links unless the caller batches that
// itself.
func (op *operation) finish(refsChanged bool) {
	if refsChanged && !op.repo.manualSync && op.repo.repo != nil {
		op.repo.UpdateReferencesTargets()
	}
	if op.failed {
		return
	}
	op.logger.Debug("operation finished")
}

// ownsCommit validates that c was produced by this repository and is still live.
func (op *operation) ownsCommit(c *Commit) bool {
	if c == nil {
		op.usage("commit is nil")
		return false
	}
	if c.repo != op.repo || op.repo.closed || op.repo.commits[c.id] != c {
		op.usage("commit does not belong to this repository")
		return false
	}
	return true
}

func (op *operation) ownsReference(ref *Reference) bool {
	if ref == nil {
		op.usage("reference is nil")
		return false
	}
	if ref.repo != op.repo || op.repo.closed || op.repo.references[ref.name] != ref {
		op.usage("reference does not belong to this repository")
		return false
	}
	return true
}

func (op *operation) ownsRemote(remote *Remote) bool {
	if remote == nil {
		op.usage("remote is nil")
		return false
	}
	if remote.repo != op.repo || op.repo.closed || op.repo.remotes[remote.name] != remote {
		op.usage("remote does not belong to this repository")
		return false
	}
	return true
}

// checkoutReporter forwards checkout callbacks while the operation is
// healthy and delivers OnComplete at most once.
type checkoutReporter struct {
	op       *operation
	progress CheckoutProgress
}

func (op *operation) checkout(p CheckoutProgress) *checkoutReporter {
	if p == nil {
		p = NopCheckoutProgress{}
	}
	return &checkoutReporter{op: op, progress: p}
}

func (c *checkoutReporter) progressed(path string, completed, total int) {
	if c.op.ok() {
		c.progress.OnCheckoutProgress(path, completed, total)
	}
}

func (c *checkoutReporter) perf(stats fsStats) {
	if c.op.ok() {
		c.progress.OnCheckoutPerfData(stats.mkdir, stats.stat, stats.chmod)
	}
}

func (c *checkoutReporter) complete() {
	if c.op.ok() && !c.op.completed {
		c.op.completed = true
		c.progress.OnComplete()
	}
}

// remoteReporter is the RemoteProgress counterpart of checkoutReporter.
// Credential requests are not guarded since they happen before any failure
// can be reported.
type remoteReporter struct {
	op       *operation
	progress RemoteProgress
	done     bool
}

func (op *operation) remote(p RemoteProgress) *remoteReporter {
	if p == nil {
		p = NopRemoteProgress{}
	}
	return &remoteReporter{op: op, progress: p}
}

func (r *remoteReporter) sideband(text string) {
	if r.op.ok() {
		r.progress.OnSidebandProgress(text)
	}
}

func (r *remoteReporter) transfer(p TransferProgress) {
	if r.op.ok() {
		r.progress.OnTransferProgress(p)
	}
}

func (r *remoteReporter) updateTip(name string, oldID, newID OID) {
	if r.op.ok() {
		r.progress.OnUpdateTips(name, oldID, newID)
	}
}

func (r *remoteReporter) pack(stage PackStage, current, total int) {
	if r.op.ok() {
		r.progress.OnPackProgress(stage, current, total)
	}
}

func (r *remoteReporter) pushTransfer(current, total int, bytes int64) {
	if r.op.ok() {
		r.progress.OnPushTransferProgress(current, total, bytes)
	}
}

func (r *remoteReporter) pushUpdate(name, status string) {
	if r.op.ok() {
		r.progress.OnPushUpdateReference(name, status)
	}
}

func (r *remoteReporter) negotiation(updates []PushUpdate) {
	if r.op.ok() {
		r.progress.OnPushNegotiation(updates)
	}
}

func (r *remoteReporter) complete() {
	if r.op.ok() && !r.done {
		r.done = true
		r.progress.OnComplete()
	}
}
