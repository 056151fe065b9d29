package testutil

import (
	"github.com/light-tech/MiniGit/git"
)

// CheckoutEvent is one OnCheckoutProgress call.
type CheckoutEvent struct {
	Path      string
	Completed int
	Total     int
}

// PerfData is one OnCheckoutPerfData call.
type PerfData struct {
	Mkdir int
	Stat  int
	Chmod int
}

// CheckoutRecorder records every CheckoutProgress callback. Calls lists the
// callback names in delivery order.
type CheckoutRecorder struct {
	Calls     []string
	Progress  []CheckoutEvent
	Perf      []PerfData
	Completed int
}

func (r *CheckoutRecorder) OnCheckoutProgress(path string, completed, total int) {
	r.Calls = append(r.Calls, "progress")
	r.Progress = append(r.Progress, CheckoutEvent{Path: path, Completed: completed, Total: total})
}

func (r *CheckoutRecorder) OnCheckoutPerfData(mkdir, stat, chmod int) {
	r.Calls = append(r.Calls, "perf")
	r.Perf = append(r.Perf, PerfData{Mkdir: mkdir, Stat: stat, Chmod: chmod})
}

func (r *CheckoutRecorder) OnComplete() {
	r.Calls = append(r.Calls, "complete")
	r.Completed++
}

// Paths returns the paths of the progress reports, skipping the initial
// report that carries none.
func (r *CheckoutRecorder) Paths() []string {
	var paths []string
	for _, e := range r.Progress {
		if e.Path != "" {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// MergeRecorder records a merge: the analysis result followed by the
// checkout callbacks.
type MergeRecorder struct {
	CheckoutRecorder
	Analysis []git.MergeAnalysis
}

func (r *MergeRecorder) SetMergeAnalysisResult(analysis git.MergeAnalysis) {
	r.Calls = append(r.Calls, "analysis")
	r.Analysis = append(r.Analysis, analysis)
}

// TipUpdate is one OnUpdateTips call.
type TipUpdate struct {
	Name string
	Old  git.OID
	New  git.OID
}

// PackEvent is one OnPackProgress call.
type PackEvent struct {
	Stage   git.PackStage
	Current int
	Total   int
}

// PushTransferEvent is one OnPushTransferProgress call.
type PushTransferEvent struct {
	Current int
	Total   int
	Bytes   int64
}

// PushStatus is one OnPushUpdateReference call.
type PushStatus struct {
	Name   string
	Status string
}

// RemoteRecorder records every RemoteProgress callback. GetCredential hands
// out Credentials in order and declines once they run out.
type RemoteRecorder struct {
	Credentials []git.Credential

	Calls              []string
	CredentialRequests int
	MustSupply         int
	Sideband           string
	Transfers          []git.TransferProgress
	Tips               []TipUpdate
	Packs              []PackEvent
	PushTransfers      []PushTransferEvent
	PushUpdates        []PushStatus
	Negotiations       [][]git.PushUpdate
	Completed          int
}

func (r *RemoteRecorder) OnComplete() {
	r.Calls = append(r.Calls, "complete")
	r.Completed++
}

func (r *RemoteRecorder) GetCredential() git.Credential {
	r.Calls = append(r.Calls, "credential")
	r.CredentialRequests++
	if len(r.Credentials) == 0 {
		return nil
	}
	cred := r.Credentials[0]
	r.Credentials = r.Credentials[1:]
	return cred
}

func (r *RemoteRecorder) MustSupplyCredential() {
	r.Calls = append(r.Calls, "must-supply")
	r.MustSupply++
}

func (r *RemoteRecorder) OnSidebandProgress(text string) {
	r.Sideband += text
}

func (r *RemoteRecorder) OnTransferProgress(progress git.TransferProgress) {
	r.Calls = append(r.Calls, "transfer")
	r.Transfers = append(r.Transfers, progress)
}

func (r *RemoteRecorder) OnUpdateTips(refname string, oldID, newID git.OID) {
	r.Calls = append(r.Calls, "tips")
	r.Tips = append(r.Tips, TipUpdate{Name: refname, Old: oldID, New: newID})
}

func (r *RemoteRecorder) OnPackProgress(stage git.PackStage, current, total int) {
	r.Calls = append(r.Calls, "pack")
	r.Packs = append(r.Packs, PackEvent{Stage: stage, Current: current, Total: total})
}

func (r *RemoteRecorder) OnPushTransferProgress(current, total int, bytes int64) {
	r.Calls = append(r.Calls, "push-transfer")
	r.PushTransfers = append(r.PushTransfers, PushTransferEvent{Current: current, Total: total, Bytes: bytes})
}

func (r *RemoteRecorder) OnPushUpdateReference(refname string, status string) {
	r.Calls = append(r.Calls, "push-update")
	r.PushUpdates = append(r.PushUpdates, PushStatus{Name: refname, Status: status})
}

func (r *RemoteRecorder) OnPushNegotiation(updates []git.PushUpdate) {
	r.Calls = append(r.Calls, "negotiation")
	r.Negotiations = append(r.Negotiations, updates)
}

// UserPass is a username-password credential.
type UserPass struct {
	User string
	Pass string
}

func (c UserPass) IsUsernamePasswordMethod() bool { return true }
func (c UserPass) UserName() string               { return c.User }
func (c UserPass) Password() string               { return c.Pass }

// GraphRecorder records a Log walk.
type GraphRecorder struct {
	Cleared int
	Commits []*git.Commit
}

func (g *GraphRecorder) Clear() {
	g.Cleared++
	g.Commits = nil
}

func (g *GraphRecorder) AddCommit(commit *git.Commit) {
	g.Commits = append(g.Commits, commit)
}

// Summaries returns the summary line of every recorded commit, in order.
func (g *GraphRecorder) Summaries() []string {
	out := make([]string, 0, len(g.Commits))
	for _, c := range g.Commits {
		out = append(out, c.Summary())
	}
	return out
}

// DiffRecorder records the diffs delivered by Diff.
type DiffRecorder struct {
	Diffs []*git.Diff
}

func (d *DiffRecorder) SetChanges(diff *git.Diff) {
	d.Diffs = append(d.Diffs, diff)
}

// StatusRecorder records a Status report.
type StatusRecorder struct {
	Calls    []string
	Branch   string
	State    git.RepositoryState
	Staged   *git.Diff
	Unstaged *git.Diff
}

func (s *StatusRecorder) SetCurrentBranch(name string) {
	s.Calls = append(s.Calls, "branch")
	s.Branch = name
}

func (s *StatusRecorder) SetState(state git.RepositoryState) {
	s.Calls = append(s.Calls, "state")
	s.State = state
}

func (s *StatusRecorder) SetStagedChanges(diff *git.Diff) {
	s.Calls = append(s.Calls, "staged")
	s.Staged = diff
}

func (s *StatusRecorder) SetUnstagedChanges(diff *git.Diff) {
	s.Calls = append(s.Calls, "unstaged")
	s.Unstaged = diff
}

// ChangedPaths returns the path of every delta in diff, using the new side
// unless the file was deleted.
func ChangedPaths(diff *git.Diff) []string {
	if diff == nil {
		return nil
	}
	var paths []string
	for _, d := range diff.Deltas() {
		if p, ok := d.NewFile().Path(); ok {
			paths = append(paths, p)
			continue
		}
		if p, ok := d.OldFile().Path(); ok {
			paths = append(paths, p)
		}
	}
	return paths
}
