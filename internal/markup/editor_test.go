package markup

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-pagesync/block"
)

func applyOps(t *testing.T, content string, ops []block.Operation) Result {
	t.Helper()
	res, err := NewEditor().Apply(context.Background(), content, ops)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return res
}

func TestApplyUpdateText(t *testing.T) {
	content := `<p>Hello world</p><p>Other paragraph</p>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpUpdateText, Target: "Hello world", New: "Hello brave world"},
	})
	if res.Succeeded != 1 || res.Failed != 0 {
		t.Fatalf("counters: %+v", res)
	}
	if !strings.Contains(res.Content, "Hello brave world") {
		t.Errorf("replacement missing: %s", res.Content)
	}
	if !strings.Contains(res.Content, "Other paragraph") {
		t.Errorf("untouched paragraph lost: %s", res.Content)
	}
}

func TestApplyUpdateTextPrefersMostSpecific(t *testing.T) {
	// The list item text also appears in the surrounding div's flattened
	// text; the edit must land on the item, not the container.
	content := `<div><p>intro</p><ul><li>target item</li><li>other item</li></ul></div>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpUpdateText, Target: "target item", New: "changed item"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if !strings.Contains(res.Content, "<li>changed item</li>") {
		t.Errorf("edit did not land on the list item: %s", res.Content)
	}
	if !strings.Contains(res.Content, "<p>intro</p>") {
		t.Errorf("container was flattened: %s", res.Content)
	}
}

func TestApplyUpdateTextInsideAnnotationKeepsMarker(t *testing.T) {
	content := `<p><wiki:annotation ref="a1">old note</wiki:annotation></p>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpUpdateText, Target: "old note", New: "new note"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if !strings.Contains(res.Content, `ref="a1"`) {
		t.Errorf("annotation marker destroyed: %s", res.Content)
	}
	if !strings.Contains(res.Content, "new note") {
		t.Errorf("text not replaced: %s", res.Content)
	}
}

func TestApplyUpdateTextSpanningInlineNodes(t *testing.T) {
	content := `<p>alpha <b>beta</b> gamma</p>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpUpdateText, Target: "alpha beta gamma", New: "replaced wholesale"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if !strings.Contains(res.Content, "replaced wholesale") {
		t.Errorf("full replacement missing: %s", res.Content)
	}
}

func TestApplyUpdateTextTargetNotFound(t *testing.T) {
	res := applyOps(t, `<p>content</p>`, []block.Operation{
		{Type: block.OpUpdateText, Target: "missing text", New: "x"},
	})
	if res.Succeeded != 0 || res.Failed != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if res.Failures[0].Reason != block.ReasonTargetNotFound {
		t.Errorf("reason: %s", res.Failures[0].Reason)
	}
}

func TestApplyDeleteBlock(t *testing.T) {
	content := `<p>keep me</p><p>delete me</p>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpDeleteBlock, Target: "delete me"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if strings.Contains(res.Content, "delete me") {
		t.Errorf("block not deleted: %s", res.Content)
	}
	if !strings.Contains(res.Content, "keep me") {
		t.Errorf("wrong block deleted: %s", res.Content)
	}
}

func TestApplyDeleteRequiresExactText(t *testing.T) {
	content := `<p>delete me please</p>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpDeleteBlock, Target: "delete me"},
	})
	if res.Failed != 1 || res.Succeeded != 0 {
		t.Fatalf("counters: %+v", res)
	}
	if res.Failures[0].Reason != block.ReasonTargetNotFound {
		t.Errorf("reason: %s", res.Failures[0].Reason)
	}
	if !strings.Contains(res.Content, "delete me please") {
		t.Errorf("superset block deleted: %s", res.Content)
	}
}

func TestApplyDeleteRefusesMacroContent(t *testing.T) {
	content := `<wiki:macro name="chart"><wiki:rich-text-body><p>macro body text</p></wiki:rich-text-body></wiki:macro>`
	frag, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	before := OpaqueCount(frag)

	res := applyOps(t, content, []block.Operation{
		{Type: block.OpDeleteBlock, Target: "macro body text"},
	})
	if res.Failed != 1 {
		t.Fatalf("expected refusal, got %+v", res)
	}

	after, err := Parse(res.Content)
	if err != nil {
		t.Fatalf("Parse result: %v", err)
	}
	if got := OpaqueCount(after); got != before {
		t.Errorf("opaque count changed: before %d, after %d", before, got)
	}
}

func TestApplyInsertBlockAfterAnchor(t *testing.T) {
	content := `<p>first</p><p>last</p>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpInsertBlock, New: "inserted", Anchor: "first"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	first := strings.Index(res.Content, "first")
	inserted := strings.Index(res.Content, "inserted")
	last := strings.Index(res.Content, "last")
	if !(first < inserted && inserted < last) {
		t.Errorf("insert position wrong: %s", res.Content)
	}
}

func TestApplyInsertBlockAppendsWithoutAnchor(t *testing.T) {
	res := applyOps(t, `<p>only</p>`, []block.Operation{
		{Type: block.OpInsertBlock, New: "appended", Anchor: "no such anchor"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if !strings.HasSuffix(strings.TrimSpace(res.Content), "<p>appended</p>") {
		t.Errorf("not appended at end: %s", res.Content)
	}
}

func TestApplyChangeHeadingLevel(t *testing.T) {
	content := `<h2 id="sec">Section title</h2>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpChangeHeadingLevel, Target: "Section title", OldLevel: 2, NewLevel: 3, New: "Section title"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if !strings.Contains(res.Content, `<h3 id="sec">Section title</h3>`) {
		t.Errorf("tag rename lost attributes or text: %s", res.Content)
	}
}

func TestApplyChangeHeadingLevelWithNewText(t *testing.T) {
	res := applyOps(t, `<h1>Old title</h1>`, []block.Operation{
		{Type: block.OpChangeHeadingLevel, Target: "Old title", OldLevel: 1, NewLevel: 2, New: "New title"},
	})
	if !strings.Contains(res.Content, "<h2>New title</h2>") {
		t.Errorf("level + text change: %s", res.Content)
	}
}

func TestApplyTableUpdateCell(t *testing.T) {
	content := `<table><tr><td>A</td><td>B</td></tr><tr><td>1</td><td>2</td></tr></table>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpTableUpdateCell, Target: "A B 1 2", Row: 1, Col: 1, New: "3"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	blocks, err := NewExtractor().Extract(context.Background(), res.Content)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	if blocks[0].Rows[1][1] != "3" {
		t.Errorf("cell not updated: %+v", blocks[0].Rows)
	}
}

func TestApplyTableFindByPrefix(t *testing.T) {
	content := `<table><tr><td>one</td><td>two</td><td>three</td><td>four</td><td>five</td><td>six</td></tr></table>`
	// Target carries only the leading words, as a truncated locator would.
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpTableUpdateCell, Target: "one two three four five something else entirely", Row: 0, Col: 0, New: "ONE"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("prefix lookup failed: %+v", res)
	}
}

func TestApplyTableInsertRow(t *testing.T) {
	content := `<table><tr><td>A</td><td>B</td></tr><tr><td>1</td><td>2</td></tr></table>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpTableInsertRow, Target: "A B 1 2", Row: -1, Cells: []string{"x", "y"}, Anchor: "A|B"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	blocks, err := NewExtractor().Extract(context.Background(), res.Content)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	rows := blocks[0].Rows
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %+v", rows)
	}
	if rows[1][0] != "x" || rows[1][1] != "y" {
		t.Errorf("row inserted in wrong place: %+v", rows)
	}
}

func TestApplyTableInsertRowPrefersIndexOverAnchor(t *testing.T) {
	content := `<table><tr><td>A</td><td>B</td></tr><tr><td>1</td><td>2</td></tr></table>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpTableInsertRow, Target: "A B 1 2", Row: 0, Cells: []string{"x", "y"}, Anchor: "1|2"},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	blocks, err := NewExtractor().Extract(context.Background(), res.Content)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	rows := blocks[0].Rows
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %+v", rows)
	}
	if rows[0][0] != "x" || rows[0][1] != "y" {
		t.Errorf("row index should win over the anchor: %+v", rows)
	}
}

func TestApplyTableDeleteRowByContent(t *testing.T) {
	content := `<table><tr><td>A</td><td>B</td></tr><tr><td>1</td><td>2</td></tr></table>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpTableDeleteRow, Target: "A B 1 2", Row: -1, Cells: []string{"1", "2"}},
	})
	if res.Succeeded != 1 {
		t.Fatalf("counters: %+v", res)
	}

	blocks, err := NewExtractor().Extract(context.Background(), res.Content)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	if len(blocks[0].Rows) != 1 || blocks[0].Rows[0][0] != "A" {
		t.Errorf("wrong row deleted: %+v", blocks[0].Rows)
	}
}

func TestApplyBatchContinuesAfterFailure(t *testing.T) {
	content := `<p>one</p><p>two</p>`
	res := applyOps(t, content, []block.Operation{
		{Type: block.OpUpdateText, Target: "missing", New: "x"},
		{Type: block.OpUpdateText, Target: "two", New: "TWO"},
	})
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Fatalf("counters: %+v", res)
	}
	if !strings.Contains(res.Content, "TWO") {
		t.Errorf("second operation not applied: %s", res.Content)
	}
}

func TestApplyInvalidOperationCounted(t *testing.T) {
	res := applyOps(t, `<p>x</p>`, []block.Operation{
		{Type: block.OpUpdateText}, // no target
	})
	if res.Failed != 1 || res.Failures[0].Reason != block.ReasonInvalid {
		t.Fatalf("invalid operation handling: %+v", res)
	}
}
