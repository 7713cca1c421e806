package merge

import (
	"strings"
	"testing"
)

func TestMergeNonOverlappingEditsApplyCleanly(t *testing.T) {
	base := "alpha\nbravo\ncharlie\ndelta\necho\nfoxtrot\n"
	ours := "ALPHA\nbravo\ncharlie\ndelta\necho\nfoxtrot\n"
	theirs := "alpha\nbravo\ncharlie\ndelta\necho\nFOXTROT\n"

	merged, conflicts, err := New().Merge(base, ours, theirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if conflicts != 0 {
		t.Fatalf("expected clean merge, got %d conflicts:\n%s", conflicts, merged)
	}
	want := "ALPHA\nbravo\ncharlie\ndelta\necho\nFOXTROT\n"
	if merged != want {
		t.Fatalf("unexpected merge result:\n%s", merged)
	}
}

func TestMergeFastPaths(t *testing.T) {
	base := "one\ntwo\n"
	changed := "one\nTWO\n"

	if merged, conflicts, _ := New().Merge(base, base, changed); merged != changed || conflicts != 0 {
		t.Fatalf("untouched ours should adopt theirs, got %q (%d)", merged, conflicts)
	}
	if merged, conflicts, _ := New().Merge(base, changed, base); merged != changed || conflicts != 0 {
		t.Fatalf("untouched theirs should adopt ours, got %q (%d)", merged, conflicts)
	}
	if merged, conflicts, _ := New().Merge(base, changed, changed); merged != changed || conflicts != 0 {
		t.Fatalf("identical sides merge to themselves, got %q (%d)", merged, conflicts)
	}
}

func TestMergeConflictingEditsAreMarked(t *testing.T) {
	base := "intro\nthe middle line\noutro\n"
	ours := "intro\nour middle line\noutro\n"
	theirs := "intro\ntheir middle line\noutro\n"

	merged, conflicts, err := New().Merge(base, ours, theirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if conflicts != 1 {
		t.Fatalf("expected 1 conflict, got %d:\n%s", conflicts, merged)
	}
	for _, want := range []string{
		"<<<<<<< ours",
		"our middle line",
		"=======",
		"their middle line",
		">>>>>>> theirs",
	} {
		if !strings.Contains(merged, want) {
			t.Fatalf("expected %q in merged output:\n%s", want, merged)
		}
	}
	if !strings.HasPrefix(merged, "intro\n") || !strings.HasSuffix(merged, "outro\n") {
		t.Fatalf("context lines should survive around the conflict:\n%s", merged)
	}
}

func TestMergeAdjacentEditsConflict(t *testing.T) {
	base := "a\nb\nc\nd\ne\nf\ng\nh\n"
	ours := "a\nb\nc\nD1\ne\nf\ng\nh\n"
	theirs := "a\nb\nc\nd\nE1\nf\ng\nh\n"

	// Touching ranges cannot be ordered safely, so they conflict.
	_, conflicts, err := New().Merge(base, ours, theirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if conflicts != 1 {
		t.Fatalf("expected adjacent edits to conflict, got %d", conflicts)
	}
}

func TestMergeOneSidedInsertion(t *testing.T) {
	base := "first\nsecond\nthird\nfourth\nfifth\nsixth\nseventh\neighth\n"
	ours := "first\nsecond\ninserted by ours\nthird\nfourth\nfifth\nsixth\nseventh\neighth\n"
	theirs := "first\nsecond\nthird\nfourth\nfifth\nsixth\nseventh\nCHANGED\n"

	merged, conflicts, err := New().Merge(base, ours, theirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if conflicts != 0 {
		t.Fatalf("expected clean merge, got %d conflicts:\n%s", conflicts, merged)
	}
	if !strings.Contains(merged, "inserted by ours") || !strings.Contains(merged, "CHANGED") {
		t.Fatalf("both edits should land:\n%s", merged)
	}
}

func TestMergeCustomLabels(t *testing.T) {
	base := "x\n"
	ours := "y\n"
	theirs := "z\n"

	merged, conflicts, err := New(WithLabels("local", "remote")).Merge(base, ours, theirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if conflicts != 1 {
		t.Fatalf("expected a conflict, got %d", conflicts)
	}
	if !strings.Contains(merged, "<<<<<<< local") || !strings.Contains(merged, ">>>>>>> remote") {
		t.Fatalf("expected custom labels in markers:\n%s", merged)
	}
}
