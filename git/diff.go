package git

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLineKind tells whether a line was added, deleted, or is context.
type DiffLineKind int

const (
	DiffLineContext DiffLineKind = iota
	DiffLineAddition
	DiffLineDeletion
)

// String returns the unified diff marker for the kind.
func (k DiffLineKind) String() string {
	switch k {
	case DiffLineAddition:
		return "+"
	case DiffLineDeletion:
		return "-"
	default:
		return " "
	}
}

// DiffLine is one line of a hunk. Text has no trailing newline. Line
// numbers are one-based; OldLineNo is zero for additions and NewLineNo is
// zero for deletions.
type DiffLine struct {
	ID        uuid.UUID
	Kind      DiffLineKind
	Text      string
	OldLineNo int
	NewLineNo int
}

// DiffHunk is a contiguous region of change with its surrounding context.
type DiffHunk struct {
	id     uuid.UUID
	header string
	lines  []DiffLine
}

func (h *DiffHunk) ID() uuid.UUID {
	return h.id
}

// Header returns the hunk header, such as "@@ -1,3 +1,4 @@".
func (h *DiffHunk) Header() string {
	return h.header
}

// Lines returns the lines in file order.
func (h *DiffHunk) Lines() []DiffLine {
	return append([]DiffLine(nil), h.lines...)
}

// DiffFile is one side of a delta.
type DiffFile struct {
	path    string
	present bool
	id      OID
}

// Path returns the file path. ok is false when the file does not exist on
// this side, which means the delta added or removed it.
func (f DiffFile) Path() (path string, ok bool) {
	return f.path, f.present
}

// ID returns the blob identifier, or the zero OID when absent.
func (f DiffFile) ID() OID {
	return f.id
}

// DiffDelta is the change to a single file.
type DiffDelta struct {
	id      uuid.UUID
	oldFile DiffFile
	newFile DiffFile
	binary  bool
	hunks   []*DiffHunk
}

func (d *DiffDelta) ID() uuid.UUID {
	return d.id
}

// OldFile returns the base side of the change.
func (d *DiffDelta) OldFile() DiffFile {
	return d.oldFile
}

// NewFile returns the target side of the change.
func (d *DiffDelta) NewFile() DiffFile {
	return d.newFile
}

// IsBinary reports whether either side is binary. Binary deltas have no
// hunks.
func (d *DiffDelta) IsBinary() bool {
	return d.binary
}

func (d *DiffDelta) Hunks() []*DiffHunk {
	return append([]*DiffHunk(nil), d.hunks...)
}

// Diff is the root of a diff tree. It is immutable once built.
type Diff struct {
	deltas []*DiffDelta
}

// Deltas returns the per-file changes, ordered by path.
func (d *Diff) Deltas() []*DiffDelta {
	return append([]*DiffDelta(nil), d.deltas...)
}

// Diff computes the changes that turn base into target and delivers them
// to recv in a single SetChanges call.
func (r *Repository) Diff(base, target *Commit, recv DiffReceiver, errs ErrorReceiver) {
	op := r.begin("diff", errs)
	defer op.finish(false)

	if !op.ready() || !op.ownsCommit(base) || !op.ownsCommit(target) {
		return
	}
	if recv == nil {
		op.usage("diff receiver is nil")
		return
	}

	from, err := r.commitTree(base.id.hash())
	if err != nil {
		op.fail(wrapError(err, "failed to read base tree"), ErrorClassObject)
		return
	}
	to, err := r.commitTree(target.id.hash())
	if err != nil {
		op.fail(wrapError(err, "failed to read target tree"), ErrorClassObject)
		return
	}

	diff, err := diffTrees(from, to)
	if err != nil {
		op.fail(wrapError(err, "failed to compute diff"), ErrorClassObject)
		return
	}
	recv.SetChanges(diff)
}

func (r *Repository) commitTree(h plumbing.Hash) (*object.Tree, error) {
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, err
	}
	return c.Tree()
}

// diffTrees builds the diff between two trees. Either may be nil for an
// empty tree.
func diffTrees(from, to *object.Tree) (*Diff, error) {
	changes, err := object.DiffTree(from, to)
	if err != nil {
		return nil, err
	}

	var patches []fdiff.FilePatch
	for _, change := range changes {
		a, b, err := change.Files()
		if err != nil {
			return nil, err
		}
		oldSide, err := blobSide(a)
		if err != nil {
			return nil, err
		}
		newSide, err := blobSide(b)
		if err != nil {
			return nil, err
		}
		// Submodules and other non-file entries have no content to compare.
		if oldSide == nil && newSide == nil {
			continue
		}
		patches = append(patches, newFilePatch(oldSide, newSide))
	}

	return buildDiff(patches)
}

func blobSide(f *object.File) (*diffSide, error) {
	if f == nil {
		return nil, nil
	}

	binary, err := f.IsBinary()
	if err != nil {
		return nil, err
	}
	side := &diffSide{path: f.Name, hash: f.Hash, mode: f.Mode, binary: binary}
	if binary {
		return side, nil
	}

	side.content, err = f.Contents()
	if err != nil {
		return nil, err
	}
	return side, nil
}

// buildDiff turns file patches into a diff tree. Each patch is rendered
// with the engine's unified encoder and the output is parsed into hunks,
// so hunk boundaries and headers match what git would print.
func buildDiff(patches []fdiff.FilePatch) (*Diff, error) {
	diff := &Diff{deltas: make([]*DiffDelta, 0, len(patches))}
	for _, fp := range patches {
		delta, err := buildDelta(fp)
		if err != nil {
			return nil, err
		}
		diff.deltas = append(diff.deltas, delta)
	}
	return diff, nil
}

func buildDelta(fp fdiff.FilePatch) (*DiffDelta, error) {
	from, to := fp.Files()
	delta := &DiffDelta{
		id:      uuid.New(),
		oldFile: diffFileOf(from),
		newFile: diffFileOf(to),
		binary:  fp.IsBinary(),
	}
	if delta.binary {
		return delta, nil
	}

	var buf bytes.Buffer
	if err := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines).Encode(singlePatch{fp}); err != nil {
		return nil, err
	}
	delta.hunks = parseHunks(buf.String())
	return delta, nil
}

func diffFileOf(f fdiff.File) DiffFile {
	if f == nil {
		return DiffFile{}
	}
	return DiffFile{path: f.Path(), present: true, id: oidFromHash(f.Hash())}
}

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// parseHunks extracts the hunks of a single-file unified diff. Everything
// before the first hunk header is file metadata and is skipped.
func parseHunks(patch string) []*DiffHunk {
	var (
		hunks        []*DiffHunk
		current      *DiffHunk
		oldNo, newNo int
	)

	for _, line := range strings.Split(patch, "\n") {
		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			oldNo, _ = strconv.Atoi(m[1])
			newNo, _ = strconv.Atoi(m[2])
			current = &DiffHunk{id: uuid.New(), header: line}
			hunks = append(hunks, current)
			continue
		}
		if current == nil || line == "" {
			continue
		}

		switch line[0] {
		case '+':
			current.lines = append(current.lines, DiffLine{
				ID: uuid.New(), Kind: DiffLineAddition, Text: line[1:], NewLineNo: newNo,
			})
			newNo++
		case '-':
			current.lines = append(current.lines, DiffLine{
				ID: uuid.New(), Kind: DiffLineDeletion, Text: line[1:], OldLineNo: oldNo,
			})
			oldNo++
		case ' ':
			current.lines = append(current.lines, DiffLine{
				ID: uuid.New(), Kind: DiffLineContext, Text: line[1:], OldLineNo: oldNo, NewLineNo: newNo,
			})
			oldNo++
			newNo++
		}
		// "\ No newline at end of file" markers carry no line.
	}
	return hunks
}

// singlePatch presents one file patch as a whole patch to the encoder.
type singlePatch struct {
	fp fdiff.FilePatch
}

func (p singlePatch) FilePatches() []fdiff.FilePatch { return []fdiff.FilePatch{p.fp} }
func (p singlePatch) Message() string                { return "" }

// diffSide is the content of one side of a file patch.
type diffSide struct {
	path    string
	hash    plumbing.Hash
	mode    filemode.FileMode
	content string
	binary  bool
}

func (s *diffSide) Hash() plumbing.Hash     { return s.hash }
func (s *diffSide) Mode() filemode.FileMode { return s.mode }
func (s *diffSide) Path() string            { return s.path }

// filePatch is a line-level patch between two sides, either of which may
// be nil for an added or deleted file.
type filePatch struct {
	from, to *diffSide
	binary   bool
	chunks   []fdiff.Chunk
}

func newFilePatch(from, to *diffSide) *filePatch {
	p := &filePatch{from: from, to: to}
	if (from != nil && from.binary) || (to != nil && to.binary) {
		p.binary = true
		return p
	}

	var a, b string
	if from != nil {
		a = from.content
	}
	if to != nil {
		b = to.content
	}
	for _, d := range lineDiff(a, b) {
		p.chunks = append(p.chunks, lineChunk{content: d.Text, op: chunkOp(d.Type)})
	}
	return p
}

func (p *filePatch) IsBinary() bool        { return p.binary }
func (p *filePatch) Chunks() []fdiff.Chunk { return p.chunks }

func (p *filePatch) Files() (from, to fdiff.File) {
	if p.from != nil {
		from = p.from
	}
	if p.to != nil {
		to = p.to
	}
	return from, to
}

type lineChunk struct {
	content string
	op      fdiff.Operation
}

func (c lineChunk) Content() string       { return c.content }
func (c lineChunk) Type() fdiff.Operation { return c.op }

// lineDiff diffs two texts line by line.
func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

func chunkOp(op diffmatchpatch.Operation) fdiff.Operation {
	switch op {
	case diffmatchpatch.DiffInsert:
		return fdiff.Add
	case diffmatchpatch.DiffDelete:
		return fdiff.Delete
	default:
		return fdiff.Equal
	}
}
