package doctree

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/goliatone/go-pagesync/block"
)

func applyDoc(t *testing.T, doc *Document, ops []block.Operation, opts ...ApplyOption) (*Document, Result) {
	t.Helper()
	out, res, err := NewEditor().Apply(context.Background(), doc, ops, opts...)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out, res
}

func TestApplyUpdateTextByAnchorMap(t *testing.T) {
	doc := &Document{Type: TypeDoc, Version: 1, Content: []*Node{
		paragraph("p1", "Old"),
	}}

	out, res := applyDoc(t, doc,
		[]block.Operation{{Type: block.OpUpdateText, Target: "Old", New: "New"}},
		WithAnchors(map[string]string{"old": "p1"}),
	)
	if res.Succeeded != 1 || res.Failed != 0 {
		t.Fatalf("counters: %+v", res)
	}
	node := out.Content[0]
	if node.LocalID() != "p1" {
		t.Errorf("localId changed: %q", node.LocalID())
	}
	if got := TextOf(node); got != "New" {
		t.Errorf("text: %q", got)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	doc := &Document{Type: TypeDoc, Version: 1, Content: []*Node{
		paragraph("p1", "unchanged"),
		tableOf("t1", []string{"A", "B"}),
	}}
	before, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	_, _ = applyDoc(t, doc, []block.Operation{
		{Type: block.OpUpdateText, Target: "unchanged", New: "mutated"},
		{Type: block.OpTableUpdateCell, Target: "A B", Row: 0, Col: 0, New: "Z"},
	})

	after, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("input document mutated:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestApplyUpdateTextRebuildsBreakNodes(t *testing.T) {
	// The paragraph starts with two breaks; the replacement has one. The
	// old break nodes must not survive alongside the new ones.
	doc := &Document{Type: TypeDoc, Content: []*Node{{
		Type:  TypeParagraph,
		Attrs: &Attrs{LocalID: "p1"},
		Content: []*Node{
			{Type: TypeText, Text: "a"},
			{Type: TypeHardBreak},
			{Type: TypeText, Text: "b"},
			{Type: TypeHardBreak},
			{Type: TypeText, Text: "c"},
		},
	}}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpUpdateText, Target: "a\nb\nc", New: "x\ny"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	texts, breaks := 0, 0
	for _, child := range out.Content[0].Content {
		switch child.Type {
		case TypeText:
			texts++
		case TypeHardBreak:
			breaks++
		}
	}
	if breaks != 1 || texts != 2 {
		t.Errorf("expected 1 break and 2 text nodes, got %d breaks, %d texts", breaks, texts)
	}
}

func TestApplyUpdateTextPreservesMarks(t *testing.T) {
	strong := json.RawMessage(`{"type":"strong"}`)
	doc := &Document{Type: TypeDoc, Content: []*Node{{
		Type:  TypeParagraph,
		Attrs: &Attrs{LocalID: "p1"},
		Content: []*Node{
			{Type: TypeText, Text: "bold text", Marks: []json.RawMessage{strong}},
		},
	}}}

	out, _ := applyDoc(t, doc, []block.Operation{
		{Type: block.OpUpdateText, Target: "bold text", New: "still bold"},
	})

	first := out.Content[0].Content[0]
	if first.Type != TypeText || len(first.Marks) != 1 {
		t.Fatalf("marks not carried: %+v", first)
	}
	if !reflect.DeepEqual(first.Marks[0], strong) {
		t.Errorf("mark content: %s", first.Marks[0])
	}
}

func TestApplyFuzzyFallback(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		paragraph("p1", "the quick brown fox jumps over the lazy dog"),
	}}

	// Target drifted slightly from the document text; word overlap is
	// well above the 0.8 threshold.
	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpUpdateText, Target: "the quick brown fox jumps over the lazy cat", New: "rewritten"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("fuzzy resolution failed: %+v", res)
	}
	if got := TextOf(out.Content[0]); got != "rewritten" {
		t.Errorf("text: %q", got)
	}
}

func TestApplyUpdateTextKeepsUnmarkedFirstSegment(t *testing.T) {
	strong := json.RawMessage(`{"type":"strong"}`)
	doc := &Document{Type: TypeDoc, Content: []*Node{{
		Type:  TypeParagraph,
		Attrs: &Attrs{LocalID: "p1"},
		Content: []*Node{
			{Type: TypeText, Text: "plain "},
			{Type: TypeText, Text: "bold", Marks: []json.RawMessage{strong}},
		},
	}}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpUpdateText, Target: "plain bold", New: "rewritten"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	first := out.Content[0].Content[0]
	if first.Type != TypeText || len(first.Marks) != 0 {
		t.Errorf("later marks migrated onto unmarked first segment: %+v", first)
	}
}

func TestApplyRefusesOpaqueTargets(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		{Type: TypeExtension, Attrs: &Attrs{LocalID: "e1", ExtensionKey: "chart"}},
		paragraph("p1", "prose"),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpDeleteBlock, Target: "extension:chart"},
	})
	if res.Failed != 1 || res.Succeeded != 0 {
		t.Fatalf("counters: %+v", res)
	}
	if res.Failures[0].Reason != block.ReasonRefused {
		t.Errorf("reason: %s", res.Failures[0].Reason)
	}
	if len(out.Content) != 2 {
		t.Errorf("content length changed: %d", len(out.Content))
	}
	if OpaqueCount(out) != OpaqueCount(doc) {
		t.Errorf("opaque count changed")
	}
}

func TestApplyNeverResolvesInsideOpaqueSubtrees(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{{
		Type:  TypeBodiedExtension,
		Attrs: &Attrs{LocalID: "e1", ExtensionKey: "chart"},
		Content: []*Node{
			paragraph("inner1", "Alpha"),
			paragraph("inner2", "Beta"),
		},
	}}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpUpdateText, Target: "Alpha", New: "Hacked"},
		{Type: block.OpDeleteBlock, Target: "Beta"},
	})
	if res.Succeeded != 0 || res.Failed != 2 {
		t.Fatalf("counters: %+v", res)
	}

	ext := out.Content[0]
	if len(ext.Content) != 2 {
		t.Fatalf("extension children changed: %d", len(ext.Content))
	}
	if TextOf(ext.Content[0]) != "Alpha" || TextOf(ext.Content[1]) != "Beta" {
		t.Errorf("extension content mutated: %+v", ext.Content)
	}
}

func TestApplyIgnoresAnchorsPointingIntoOpaqueNodes(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{{
		Type:    TypeBodiedExtension,
		Attrs:   &Attrs{LocalID: "e1", ExtensionKey: "chart"},
		Content: []*Node{paragraph("inner1", "Alpha")},
	}}}

	out, res := applyDoc(t, doc,
		[]block.Operation{{Type: block.OpUpdateText, Target: "Alpha", New: "Hacked"}},
		WithAnchors(map[string]string{"alpha": "inner1"}),
	)
	if res.Failed != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if got := TextOf(out.Content[0].Content[0]); got != "Alpha" {
		t.Errorf("extension content mutated: %q", got)
	}
}

func TestApplyDeleteBlock(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		paragraph("p1", "keep"),
		paragraph("p2", "drop"),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpDeleteBlock, Target: "drop"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if len(out.Content) != 1 || TextOf(out.Content[0]) != "keep" {
		t.Errorf("wrong node deleted: %+v", out.Content)
	}
}

func TestApplyInsertBlockAfterAnchor(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		paragraph("p1", "first"),
		paragraph("p2", "last"),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpInsertBlock, New: "inserted", Anchor: "first"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if len(out.Content) != 3 {
		t.Fatalf("content length: %d", len(out.Content))
	}
	middle := out.Content[1]
	if TextOf(middle) != "inserted" {
		t.Errorf("insert position: %+v", out.Content)
	}
	if middle.LocalID() == "" {
		t.Error("inserted node missing a localId")
	}
}

func TestApplyInsertBlockAppendsWhenAnchorMissing(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{paragraph("p1", "only")}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpInsertBlock, New: "appended", Anchor: "nothing matches this"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if TextOf(out.Content[len(out.Content)-1]) != "appended" {
		t.Errorf("not appended: %+v", out.Content)
	}
}

func TestApplyChangeHeadingLevel(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		heading("h1", "Section title", 2),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpChangeHeadingLevel, Target: "Section title", OldLevel: 2, NewLevel: 3, New: "Section title"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	node := out.Content[0]
	if node.Attrs.Level != 3 {
		t.Errorf("level: %d", node.Attrs.Level)
	}
	if node.LocalID() != "h1" {
		t.Errorf("localId lost: %q", node.LocalID())
	}
	if TextOf(node) != "Section title" {
		t.Errorf("text: %q", TextOf(node))
	}
}

func TestApplyTableUpdateCell(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		tableOf("t1", []string{"A", "B"}, []string{"1", "2"}),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpTableUpdateCell, Target: "A B 1 2", Row: 1, Col: 1, New: "3"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	blocks, err := NewExtractor().Extract(context.Background(), out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	if blocks[0].Rows[1][1] != "3" {
		t.Errorf("cell not updated: %+v", blocks[0].Rows)
	}
}

func TestApplyTableInsertRowPadsToColumnCount(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		tableOf("t1", []string{"A", "B", "C"}),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpTableInsertRow, Target: "A B C", Row: -1, Cells: []string{"only"}, Anchor: "A|B|C"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	rows := TableRows(out.Content[0])
	if len(rows) != 2 {
		t.Fatalf("row count: %d", len(rows))
	}
	if got := len(rowCells(rows[1])); got != 3 {
		t.Errorf("inserted row not padded: %d cells", got)
	}
}

func TestApplyTableInsertRowPrefersIndexOverAnchor(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		tableOf("t1", []string{"A", "B"}, []string{"1", "2"}),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpTableInsertRow, Target: "A B 1 2", Row: 0, Cells: []string{"x", "y"}, Anchor: "1|2"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	rows := TableRows(out.Content[0])
	if len(rows) != 3 {
		t.Fatalf("row count: %d", len(rows))
	}
	if got := rowCellTexts(rows[0]); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("row index should win over the anchor: %+v", got)
	}
}

func TestApplyTableDeleteRowByContent(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		tableOf("t1", []string{"A", "B"}, []string{"1", "2"}, []string{"3", "4"}),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		// Row index points at the wrong row; content identification wins.
		{Type: block.OpTableDeleteRow, Target: "A B 1 2 3 4", Row: 0, Cells: []string{"3", "4"}},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	rows := TableRows(out.Content[0])
	if len(rows) != 2 {
		t.Fatalf("row count: %d", len(rows))
	}
	if rowCellTexts(rows[0])[0] != "A" || rowCellTexts(rows[1])[0] != "1" {
		t.Errorf("wrong row deleted: %+v", rows)
	}
}

func TestApplyBatchContinuesAfterFailure(t *testing.T) {
	doc := &Document{Type: TypeDoc, Content: []*Node{
		paragraph("p1", "alpha"),
	}}

	out, res := applyDoc(t, doc, []block.Operation{
		{Type: block.OpUpdateText, Target: "does not exist anywhere", New: "x"},
		{Type: block.OpUpdateText, Target: "alpha", New: "beta"},
	})
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if TextOf(out.Content[0]) != "beta" {
		t.Errorf("second operation not applied: %q", TextOf(out.Content[0]))
	}
}

func TestApplyNilDocument(t *testing.T) {
	if _, _, err := NewEditor().Apply(context.Background(), nil, nil); err == nil {
		t.Fatal("expected ErrNilDocument")
	}
}
