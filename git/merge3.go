package git

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Conflict markers written around regions both sides changed differently.
const (
	markerOurs   = "<<<<<<< ours"
	markerSep    = "======="
	markerTheirs = ">>>>>>> theirs"
)

// mergeResult is the outcome of a three-way text merge.
type mergeResult struct {
	content   string
	conflicts int
}

// lineEdit replaces base lines [start, end) with lines. An insertion has
// start == end.
type lineEdit struct {
	start, end int
	lines      []string
}

// merge3 merges the changes ours and theirs made to base. Regions changed
// by only one side are taken from that side; regions both sides changed
// identically are taken once. Overlapping or adjacent regions changed
// differently are written between conflict markers.
func merge3(base, ours, theirs string) mergeResult {
	baseLines := splitLines(base)
	oursEdits := lineEdits(base, ours)
	theirsEdits := lineEdits(base, theirs)

	var (
		out    strings.Builder
		result mergeResult
		pos    int
		i, j   int
	)

	for i < len(oursEdits) || j < len(theirsEdits) {
		start := regionStart(oursEdits, i, theirsEdits, j)
		end := start

		var mine, yours []lineEdit
		for grown := true; grown; {
			grown = false
			if i < len(oursEdits) && touches(oursEdits[i], start, end) {
				end = max(end, oursEdits[i].end)
				mine = append(mine, oursEdits[i])
				i++
				grown = true
			}
			if j < len(theirsEdits) && touches(theirsEdits[j], start, end) {
				end = max(end, theirsEdits[j].end)
				yours = append(yours, theirsEdits[j])
				j++
				grown = true
			}
		}

		writeLines(&out, baseLines[pos:start])
		pos = end

		switch {
		case len(yours) == 0:
			writeLines(&out, applyEdits(baseLines, mine, start, end))
		case len(mine) == 0:
			writeLines(&out, applyEdits(baseLines, yours, start, end))
		default:
			a := applyEdits(baseLines, mine, start, end)
			b := applyEdits(baseLines, yours, start, end)
			if slices.Equal(a, b) {
				writeLines(&out, a)
				continue
			}
			result.conflicts++
			writeConflict(&out, a, b)
		}
	}
	writeLines(&out, baseLines[pos:])

	result.content = out.String()
	return result
}

func regionStart(a []lineEdit, i int, b []lineEdit, j int) int {
	switch {
	case i >= len(a):
		return b[j].start
	case j >= len(b):
		return a[i].start
	default:
		return min(a[i].start, b[j].start)
	}
}

// touches reports whether e starts inside or right at the end of the
// region. An empty region is touched by anything starting at its position.
func touches(e lineEdit, start, end int) bool {
	return e.start >= start && e.start <= end
}

func applyEdits(base []string, edits []lineEdit, start, end int) []string {
	var out []string
	pos := start
	for _, e := range edits {
		out = append(out, base[pos:e.start]...)
		out = append(out, e.lines...)
		pos = e.end
	}
	return append(out, base[pos:end]...)
}

func writeLines(out *strings.Builder, lines []string) {
	for _, line := range lines {
		out.WriteString(line)
	}
}

func writeConflict(out *strings.Builder, ours, theirs []string) {
	out.WriteString(markerOurs + "\n")
	writeTerminated(out, ours)
	out.WriteString(markerSep + "\n")
	writeTerminated(out, theirs)
	out.WriteString(markerTheirs + "\n")
}

// writeTerminated writes lines making sure the last one ends in a newline,
// so the following marker starts on a line of its own.
func writeTerminated(out *strings.Builder, lines []string) {
	writeLines(out, lines)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		out.WriteString("\n")
	}
}

// splitLines splits s after every newline. The last line has no newline
// when s does not end in one.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineEdits lists the edits turning base into side, in base order.
func lineEdits(base, side string) []lineEdit {
	sideLines := splitLines(side)

	dmp := diffmatchpatch.New()
	a, b, _ := dmp.DiffLinesToRunes(base, side)
	diffs := dmp.DiffMainRunes(a, b, false)

	var (
		edits   []lineEdit
		current *lineEdit
		bi, si  int
	)
	flush := func() {
		if current != nil {
			edits = append(edits, *current)
			current = nil
		}
	}

	for _, d := range diffs {
		// Each rune stands for one line.
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			bi += n
			si += n
		case diffmatchpatch.DiffDelete:
			if current == nil {
				current = &lineEdit{start: bi, end: bi}
			}
			bi += n
			current.end = bi
		case diffmatchpatch.DiffInsert:
			if current == nil {
				current = &lineEdit{start: bi, end: bi}
			}
			current.lines = append(current.lines, sideLines[si:si+n]...)
			si += n
		}
	}
	flush()
	return edits
}
