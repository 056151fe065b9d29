package git

import (
	"bytes"
	"container/heap"
)

// Log streams the history reachable from HEAD and every other reference.
// graph.Clear is called exactly once, then graph.AddCommit once per commit,
// newest first. A commit is only emitted after every commit that lists it
// as a parent. Among commits that are ready at the same time the most
// recent commit time goes first, then the smaller identifier. An empty
// history results in the Clear call alone.
//
// Reference back-links are synchronized before the first commit is added,
// so Commit.References is accurate while the graph is being built.
func (r *Repository) Log(graph CommitGraph, errs ErrorReceiver) {
	op := r.begin("log", errs)
	defer op.finish(false)

	if !op.ready() {
		return
	}
	if graph == nil {
		op.usage("commit graph is nil")
		return
	}
	graph.Clear()

	refs, err := r.loadReferences()
	if err != nil {
		op.fail(wrapError(err, "failed to list references"), ErrorClassReference)
		return
	}

	var tips []*Commit
	for _, ref := range refs {
		h, ok := r.resolve(ref)
		if !ok {
			continue
		}
		// References to trees or blobs have no history.
		if _, err := r.repo.CommitObject(h); err != nil {
			continue
		}
		c, err := r.loadCommit(h)
		if err != nil {
			op.fail(wrapError(err, "failed to load history"), ErrorClassObject)
			return
		}
		tips = append(tips, c)
	}

	r.UpdateReferencesTargets()

	for _, c := range topoOrder(tips) {
		graph.AddCommit(c)
	}
}

// topoOrder returns every commit reachable from tips with children before
// parents, breaking ties by time then identifier.
func topoOrder(tips []*Commit) []*Commit {
	reachable := make(map[*Commit]bool)
	stack := append([]*Commit(nil), tips...)
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[c] {
			continue
		}
		reachable[c] = true
		stack = append(stack, c.parents...)
	}

	// children counts the children of each commit still to be emitted.
	children := make(map[*Commit]int, len(reachable))
	for c := range reachable {
		for _, p := range c.parents {
			children[p]++
		}
	}

	ready := &commitQueue{}
	for c := range reachable {
		if children[c] == 0 {
			heap.Push(ready, c)
		}
	}

	order := make([]*Commit, 0, len(reachable))
	for ready.Len() > 0 {
		c := heap.Pop(ready).(*Commit)
		order = append(order, c)
		for _, p := range c.parents {
			children[p]--
			if children[p] == 0 {
				heap.Push(ready, p)
			}
		}
	}
	return order
}

// commitQueue is a max-heap on commit time.
type commitQueue []*Commit

func (q commitQueue) Len() int { return len(q) }

func (q commitQueue) Less(i, j int) bool {
	ti, tj := q[i].Time(), q[j].Time()
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return bytes.Compare(q[i].id[:], q[j].id[:]) < 0
}

func (q commitQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *commitQueue) Push(x any) {
	*q = append(*q, x.(*Commit))
}

func (q *commitQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return c
}
