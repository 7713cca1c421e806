// Package merge reconciles two descendants of a common base revision. Both
// sides are diffed against the base, the resulting line edits are grouped
// into regions, and regions touched from only one side apply cleanly.
// Regions both sides changed differently come out wrapped in conflict
// markers; the caller decides what to do with them.
package merge

import (
	"regexp"
	"strconv"
	"strings"

	diff "github.com/shogoki/gotextdiff"

	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

const (
	defaultOursLabel   = "ours"
	defaultTheirsLabel = "theirs"
)

// Service implements interfaces.Merger.
type Service struct {
	log         interfaces.Logger
	oursLabel   string
	theirsLabel string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithLabels overrides the side names in conflict markers.
func WithLabels(ours, theirs string) Option {
	return func(s *Service) {
		if ours != "" {
			s.oursLabel = ours
		}
		if theirs != "" {
			s.theirsLabel = theirs
		}
	}
}

// New constructs a merger.
func New(opts ...Option) *Service {
	s := &Service{
		log:         logging.NoOp(),
		oursLabel:   defaultOursLabel,
		theirsLabel: defaultTheirsLabel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Merge three-way merges ours and theirs against base. The returned conflict
// count is the number of marked regions in the merged text; zero means the
// merge is clean.
func (s *Service) Merge(base, ours, theirs string) (string, int, error) {
	switch {
	case ours == theirs:
		return ours, 0, nil
	case base == ours:
		return theirs, 0, nil
	case base == theirs:
		return ours, 0, nil
	}

	baseLines := splitLines(base)
	ourEdits := parseEdits(diff.Diff("base", []byte(base), s.oursLabel, []byte(ours)))
	theirEdits := parseEdits(diff.Diff("base", []byte(base), s.theirsLabel, []byte(theirs)))

	var out []string
	conflicts := 0
	cursor := 0

	for _, g := range groupEdits(ourEdits, theirEdits) {
		out = append(out, baseLines[cursor:g.lo]...)
		cursor = g.hi

		oursText := applyEdits(baseLines, g.lo, g.hi, g.ours)
		theirsText := applyEdits(baseLines, g.lo, g.hi, g.theirs)

		switch {
		case len(g.theirs) == 0:
			out = append(out, oursText...)
		case len(g.ours) == 0:
			out = append(out, theirsText...)
		case equalLines(oursText, theirsText):
			out = append(out, oursText...)
		default:
			conflicts++
			out = append(out, "<<<<<<< "+s.oursLabel)
			out = append(out, oursText...)
			out = append(out, "=======")
			out = append(out, theirsText...)
			out = append(out, ">>>>>>> "+s.theirsLabel)
		}
	}
	out = append(out, baseLines[cursor:]...)

	merged := strings.Join(out, "\n")
	if strings.HasSuffix(ours, "\n") || strings.HasSuffix(theirs, "\n") {
		merged += "\n"
	}
	s.log.Debug("merge.three_way",
		"base_lines", len(baseLines),
		"our_edits", len(ourEdits),
		"their_edits", len(theirEdits),
		"conflicts", conflicts,
	)
	return merged, conflicts, nil
}

// edit replaces base lines [start, end) with repl. start == end is a pure
// insertion before line start.
type edit struct {
	start, end int
	repl       []string
}

// group is a run of edits whose base ranges touch. lo/hi bound the union of
// the member ranges.
type group struct {
	lo, hi int
	ours   []edit
	theirs []edit
}

type sidedEdit struct {
	edit
	theirs bool
}

// groupEdits merges the two sorted edit lists and clusters everything whose
// base ranges touch. Touching counts as overlap: adjacent edits from
// opposite sides cannot be ordered safely, so they conflict rather than
// silently interleave.
func groupEdits(ours, theirs []edit) []group {
	all := make([]sidedEdit, 0, len(ours)+len(theirs))
	i, j := 0, 0
	for i < len(ours) || j < len(theirs) {
		if j >= len(theirs) || (i < len(ours) && ours[i].start <= theirs[j].start) {
			all = append(all, sidedEdit{edit: ours[i]})
			i++
		} else {
			all = append(all, sidedEdit{edit: theirs[j], theirs: true})
			j++
		}
	}

	var groups []group
	for _, e := range all {
		if len(groups) > 0 && e.start <= groups[len(groups)-1].hi {
			g := &groups[len(groups)-1]
			if e.end > g.hi {
				g.hi = e.end
			}
			if e.theirs {
				g.theirs = append(g.theirs, e.edit)
			} else {
				g.ours = append(g.ours, e.edit)
			}
			continue
		}
		g := group{lo: e.start, hi: e.end}
		if e.theirs {
			g.theirs = []edit{e.edit}
		} else {
			g.ours = []edit{e.edit}
		}
		groups = append(groups, g)
	}
	return groups
}

// applyEdits renders base lines [lo, hi) with the side's edits applied.
func applyEdits(baseLines []string, lo, hi int, edits []edit) []string {
	var out []string
	cursor := lo
	for _, e := range edits {
		out = append(out, baseLines[cursor:e.start]...)
		out = append(out, e.repl...)
		cursor = e.end
	}
	out = append(out, baseLines[cursor:hi]...)
	return out
}

var hunkRe = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// parseEdits extracts base-coordinate edits from a unified diff. Each
// maximal run of -/+ lines inside a hunk becomes one edit.
func parseEdits(unified []byte) []edit {
	var edits []edit
	baseLine := 0
	pending := -1
	removed := 0
	var added []string

	flush := func() {
		if pending < 0 {
			return
		}
		edits = append(edits, edit{start: pending, end: pending + removed, repl: added})
		pending, removed, added = -1, 0, nil
	}

	for _, line := range strings.Split(string(unified), "\n") {
		if line == "" ||
			strings.HasPrefix(line, "diff ") ||
			strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ") ||
			strings.HasPrefix(line, `\`) {
			continue
		}
		switch line[0] {
		case '@':
			flush()
			if m := hunkRe.FindStringSubmatch(line); m != nil {
				start, _ := strconv.Atoi(m[1])
				if start > 0 {
					start--
				}
				baseLine = start
			}
		case '-':
			if pending < 0 {
				pending = baseLine
			}
			removed++
			baseLine++
		case '+':
			if pending < 0 {
				pending = baseLine
			}
			added = append(added, line[1:])
		case ' ':
			flush()
			baseLine++
		}
	}
	flush()
	return edits
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitLines splits on newlines, dropping the empty tail a trailing newline
// produces so line indices match unified-diff coordinates.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
