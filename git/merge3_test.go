package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge3(t *testing.T) {
	tests := []struct {
		name          string
		base          string
		ours          string
		theirs        string
		want          string
		wantConflicts int
	}{
		{
			name:   "both sides unchanged",
			base:   "a\nb\nc\n",
			ours:   "a\nb\nc\n",
			theirs: "a\nb\nc\n",
			want:   "a\nb\nc\n",
		},
		{
			name:   "only theirs changed",
			base:   "a\nb\nc\n",
			ours:   "a\nb\nc\n",
			theirs: "a\nB\nc\n",
			want:   "a\nB\nc\n",
		},
		{
			name:   "separate regions",
			base:   "a\nb\nc\n",
			ours:   "A\nb\nc\n",
			theirs: "a\nb\nC\n",
			want:   "A\nb\nC\n",
		},
		{
			name:   "identical change",
			base:   "a\nb\nc\n",
			ours:   "a\nX\nc\n",
			theirs: "a\nX\nc\n",
			want:   "a\nX\nc\n",
		},
		{
			name:          "same line changed differently",
			base:          "a\nb\nc\n",
			ours:          "a\nX\nc\n",
			theirs:        "a\nY\nc\n",
			want:          "a\n<<<<<<< ours\nX\n=======\nY\n>>>>>>> theirs\nc\n",
			wantConflicts: 1,
		},
		{
			name:          "adjacent lines conflict",
			base:          "a\nb\nc\n",
			ours:          "A\nb\nc\n",
			theirs:        "a\nB\nc\n",
			want:          "<<<<<<< ours\nA\nb\n=======\na\nB\n>>>>>>> theirs\nc\n",
			wantConflicts: 1,
		},
		{
			name:          "missing trailing newline",
			base:          "x",
			ours:          "y",
			theirs:        "z",
			want:          "<<<<<<< ours\ny\n=======\nz\n>>>>>>> theirs\n",
			wantConflicts: 1,
		},
		{
			name:   "empty base with one side adding",
			base:   "",
			ours:   "",
			theirs: "new\n",
			want:   "new\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := merge3(tt.base, tt.ours, tt.theirs)
			assert.Equal(t, tt.want, got.content)
			assert.Equal(t, tt.wantConflicts, got.conflicts)
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a\n", "b"}, splitLines("a\nb"))
}
