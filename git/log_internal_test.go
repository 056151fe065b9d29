package git

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testCommit(name string, id byte, when int64, parents ...*Commit) *Commit {
	var oid OID
	oid[0] = id
	return &Commit{
		id:        oid,
		message:   name,
		committer: Signature{When: time.Unix(when, 0)},
		parents:   parents,
	}
}

func summaries(commits []*Commit) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.Summary())
	}
	return out
}

func TestTopoOrder(t *testing.T) {
	t.Run("merge history", func(t *testing.T) {
		root := testCommit("root", 1, 100)
		a := testCommit("a", 2, 200, root)
		b := testCommit("b", 3, 300, root)
		merge := testCommit("merge", 4, 400, a, b)

		assert.Equal(t, []string{"merge", "b", "a", "root"}, summaries(topoOrder([]*Commit{merge})))
	})

	t.Run("equal times break on identifier", func(t *testing.T) {
		root := testCommit("root", 1, 100)
		x := testCommit("x", 9, 500, root)
		y := testCommit("y", 5, 500, root)

		assert.Equal(t, []string{"y", "x", "root"}, summaries(topoOrder([]*Commit{x, y})))
	})

	t.Run("children come before newer parents", func(t *testing.T) {
		parent := testCommit("parent", 1, 1000)
		child := testCommit("child", 2, 500, parent)
		other := testCommit("other", 3, 700, parent)

		assert.Equal(t, []string{"other", "child", "parent"}, summaries(topoOrder([]*Commit{child, other})))
	})

	t.Run("shared tips are emitted once", func(t *testing.T) {
		root := testCommit("root", 1, 100)
		head := testCommit("head", 2, 200, root)

		assert.Equal(t, []string{"head", "root"}, summaries(topoOrder([]*Commit{head, head, root})))
	})

	t.Run("no tips", func(t *testing.T) {
		assert.Empty(t, topoOrder(nil))
	})
}
