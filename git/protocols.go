package git

// The receiver interfaces in this file are how every operation talks back to
// its caller. All callbacks run synchronously on the goroutine that invoked
// the operation. For a single operation, progress callbacks always precede
// the terminal OnComplete, OnComplete happens at most once, and nothing at
// all is delivered after the ErrorReceiver has fired.

// ErrorReceiver is the failure channel of every operation. OnError is called
// at most once per operation. detail is nil when the failure carries no
// structured message; context is an optional label naming what failed.
type ErrorReceiver interface {
	OnError(code ErrorCode, detail *ErrorDetail, context string)
}

// CheckoutProgress receives progress of an operation that rewrites the
// working tree.
type CheckoutProgress interface {
	// OnCheckoutProgress reports completed out of total steps. path is the
	// file just written or removed; it is empty for the initial report that
	// announces the total.
	OnCheckoutProgress(path string, completed, total int)

	// OnCheckoutPerfData reports how many directory creations, stat calls and
	// chmod calls the operation performed on the working tree.
	OnCheckoutPerfData(mkdirCalls, statCalls, chmodCalls int)

	// OnComplete is the terminal callback of a successful checkout.
	OnComplete()
}

// MergeAnalysis is the outcome of the analysis step of Merge. The values
// match the engine's bit flags.
type MergeAnalysis int

const (
	// MergeAnalysisNone means no analysis has been performed.
	MergeAnalysisNone MergeAnalysis = 0
	// MergeAnalysisNormal means the histories diverged and a three-way merge is needed.
	MergeAnalysisNormal MergeAnalysis = 1 << 0
	// MergeAnalysisUpToDate means the target is already contained in the current branch.
	MergeAnalysisUpToDate MergeAnalysis = 1 << 1
	// MergeAnalysisFastForward means the current branch can simply advance to the target.
	MergeAnalysisFastForward MergeAnalysis = 1 << 2
)

func (a MergeAnalysis) String() string {
	switch a {
	case MergeAnalysisNormal:
		return "normal"
	case MergeAnalysisUpToDate:
		return "up-to-date"
	case MergeAnalysisFastForward:
		return "fast-forward"
	default:
		return "none"
	}
}

// MergeProgress receives the analysis result of a merge followed by the
// checkout progress of whatever working tree update the merge performs.
type MergeProgress interface {
	CheckoutProgress

	SetMergeAnalysisResult(analysis MergeAnalysis)
}

// Credential supplies authentication material for a network operation.
// Only the username-password method is supported.
type Credential interface {
	IsUsernamePasswordMethod() bool
	UserName() string
	Password() string
}

// PackStage identifies the phase of building a pack for push.
type PackStage int

const (
	// PackStageAddingObjects is the object enumeration phase.
	PackStageAddingObjects PackStage = iota
	// PackStageDeltafication is the delta compression phase.
	PackStageDeltafication
)

// TransferProgress is a snapshot of the object transfer counters of a fetch.
type TransferProgress struct {
	TotalObjects    int
	IndexedObjects  int
	ReceivedObjects int
	LocalObjects    int
	TotalDeltas     int
	IndexedDeltas   int
	ReceivedBytes   int64
}

// RemoteProgress receives progress and credential requests of clone, fetch
// and push.
type RemoteProgress interface {
	// OnComplete is the terminal callback of a successful network operation.
	OnComplete()

	// GetCredential is asked for credentials when the remote requires them.
	// Returning nil declines.
	GetCredential() Credential

	// MustSupplyCredential is called after GetCredential declined; the
	// operation then fails with an authentication error.
	MustSupplyCredential()

	// OnSidebandProgress forwards the human readable text sent by the remote.
	OnSidebandProgress(text string)

	OnTransferProgress(progress TransferProgress)

	// OnUpdateTips reports a remote-tracking reference that changed. oldID is
	// zero when the reference is new, newID is zero when it was pruned.
	OnUpdateTips(refname string, oldID, newID OID)

	OnPackProgress(stage PackStage, current, total int)

	OnPushTransferProgress(current, total int, bytes int64)

	// OnPushUpdateReference reports the outcome for one pushed reference.
	// status is empty when the remote accepted the update, otherwise it holds
	// the rejection reason.
	OnPushUpdateReference(refname string, status string)

	// OnPushNegotiation lists every update about to be sent, before any
	// object is uploaded.
	OnPushNegotiation(updates []PushUpdate)
}

// DiffReceiver receives a complete diff tree in a single call.
type DiffReceiver interface {
	SetChanges(diff *Diff)
}

// CommitGraph receives the history walk of Log.
type CommitGraph interface {
	Clear()
	AddCommit(commit *Commit)
}

// RepositoryState is the in-progress operation recorded in the git
// directory, if any.
type RepositoryState int

const (
	StateNone RepositoryState = iota
	StateMerge
	StateRevert
	StateRevertSequence
	StateCherryPick
	StateCherryPickSequence
	StateBisect
	StateRebase
	StateRebaseInteractive
	StateRebaseMerge
	StateApplyMailbox
	StateApplyMailboxOrRebase
)

var repositoryStateNames = [...]string{
	StateNone:                 "none",
	StateMerge:                "merge",
	StateRevert:               "revert",
	StateRevertSequence:       "revert-sequence",
	StateCherryPick:           "cherry-pick",
	StateCherryPickSequence:   "cherry-pick-sequence",
	StateBisect:               "bisect",
	StateRebase:               "rebase",
	StateRebaseInteractive:    "rebase-interactive",
	StateRebaseMerge:          "rebase-merge",
	StateApplyMailbox:         "apply-mailbox",
	StateApplyMailboxOrRebase: "apply-mailbox-or-rebase",
}

func (s RepositoryState) String() string {
	if s < 0 || int(s) >= len(repositoryStateNames) {
		return "unknown"
	}
	return repositoryStateNames[s]
}

// StatusReceiver receives the parts of a Status report, in order.
type StatusReceiver interface {
	SetCurrentBranch(name string)
	SetState(state RepositoryState)
	SetStagedChanges(diff *Diff)
	SetUnstagedChanges(diff *Diff)
}

// NopCheckoutProgress implements CheckoutProgress with no-ops. Embed it to
// implement only the callbacks of interest.
type NopCheckoutProgress struct{}

func (NopCheckoutProgress) OnCheckoutProgress(string, int, int) {}
func (NopCheckoutProgress) OnCheckoutPerfData(int, int, int)    {}
func (NopCheckoutProgress) OnComplete()                         {}

// NopRemoteProgress implements RemoteProgress with no-ops and declines
// credential requests.
type NopRemoteProgress struct{}

func (NopRemoteProgress) OnComplete()                            {}
func (NopRemoteProgress) GetCredential() Credential              { return nil }
func (NopRemoteProgress) MustSupplyCredential()                  {}
func (NopRemoteProgress) OnSidebandProgress(string)              {}
func (NopRemoteProgress) OnTransferProgress(TransferProgress)    {}
func (NopRemoteProgress) OnUpdateTips(string, OID, OID)          {}
func (NopRemoteProgress) OnPackProgress(PackStage, int, int)     {}
func (NopRemoteProgress) OnPushTransferProgress(int, int, int64) {}
func (NopRemoteProgress) OnPushUpdateReference(string, string)   {}
func (NopRemoteProgress) OnPushNegotiation([]PushUpdate)         {}
