package git

import (
	"errors"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
)

// State files kept in the git directory while an operation is in progress.
const (
	mergeHeadFile      = "MERGE_HEAD"
	mergeMsgFile       = "MERGE_MSG"
	mergeModeFile      = "MERGE_MODE"
	revertHeadFile     = "REVERT_HEAD"
	cherryPickHeadFile = "CHERRY_PICK_HEAD"
	bisectLogFile      = "BISECT_LOG"
	sequencerTodoFile  = "sequencer/todo"
	rebaseMergeDir     = "rebase-merge"
	rebaseApplyDir     = "rebase-apply"
)

// mergeHead returns the commit being merged, if a merge is in progress.
func (r *Repository) mergeHead() (plumbing.Hash, bool, error) {
	data, err := util.ReadFile(r.dotGit, mergeHeadFile)
	if errors.Is(err, os.ErrNotExist) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, err
	}

	line, _, _ := strings.Cut(string(data), "\n")
	id, ok := ParseOID(strings.TrimSpace(line))
	if !ok {
		return plumbing.ZeroHash, false, errors.New("malformed " + mergeHeadFile)
	}
	return id.hash(), true, nil
}

// writeMergeState records an in-progress merge of theirs.
func (r *Repository) writeMergeState(theirs plumbing.Hash, message string) error {
	if err := util.WriteFile(r.dotGit, mergeHeadFile, []byte(theirs.String()+"\n"), 0o644); err != nil {
		return err
	}
	if err := util.WriteFile(r.dotGit, mergeModeFile, nil, 0o644); err != nil {
		return err
	}
	return util.WriteFile(r.dotGit, mergeMsgFile, []byte(message), 0o644)
}

func (r *Repository) clearMergeState() error {
	for _, name := range []string{mergeHeadFile, mergeMsgFile, mergeModeFile} {
		if err := r.dotGit.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// state derives the in-progress operation from the files in the git
// directory, checking them in the same order git does.
func (r *Repository) state() RepositoryState {
	exists := func(name string) bool {
		_, err := r.dotGit.Stat(name)
		return err == nil
	}

	switch {
	case exists(rebaseApplyDir + "/rebasing"):
		return StateRebase
	case exists(rebaseApplyDir + "/applying"):
		return StateApplyMailbox
	case exists(rebaseApplyDir):
		return StateApplyMailboxOrRebase
	case exists(rebaseMergeDir + "/interactive"):
		return StateRebaseInteractive
	case exists(rebaseMergeDir):
		return StateRebaseMerge
	case exists(mergeHeadFile):
		return StateMerge
	case exists(revertHeadFile):
		if exists(sequencerTodoFile) {
			return StateRevertSequence
		}
		return StateRevert
	case exists(cherryPickHeadFile):
		if exists(sequencerTodoFile) {
			return StateCherryPickSequence
		}
		return StateCherryPick
	case exists(bisectLogFile):
		return StateBisect
	default:
		return StateNone
	}
}
