package markup

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Result reports a best-effort apply: the rendered content plus per
// operation counters. A failed operation never aborts the batch.
type Result struct {
	Content   string          `json:"content"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []block.Failure `json:"failures,omitempty"`
}

// Editor applies surgical operations to markup content.
type Editor struct {
	log interfaces.Logger
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithEditorLogger attaches a logger.
func WithEditorLogger(logger interfaces.Logger) EditorOption {
	return func(e *Editor) {
		if logger != nil {
			e.log = logger
		}
	}
}

// NewEditor constructs a markup editor.
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{log: logging.NoOp()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func tagSet(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	return set
}

var (
	updateTags  = tagSet("h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "td", "th", "span", "div")
	leafTags    = tagSet("h1", "h2", "h3", "h4", "h5", "h6", "p", "li")
	headingTags = tagSet("h1", "h2", "h3", "h4", "h5", "h6")
	anchorTags  = tagSet("h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "td", "th", "span", "div", "table", "ul", "ol", "pre")
	inlineTags  = tagSet("a", "b", "strong", "i", "em", "u", "s", "code", "sub", "sup", "mark")
)

// Apply parses content into a private tree, applies every operation
// fail-soft, and renders the result. Only a parse or render problem is an
// error; per-operation misses land in the counters.
func (e *Editor) Apply(ctx context.Context, content string, ops []block.Operation) (Result, error) {
	frag, err := Parse(content)
	if err != nil {
		return Result{}, err
	}

	w := &applier{frag: frag, log: e.log.WithContext(ctx)}
	for i, op := range ops {
		w.dispatch(i, op)
	}

	rendered, err := frag.Render()
	if err != nil {
		return Result{}, err
	}

	w.log.Debug("markup.apply",
		"operations", len(ops),
		"succeeded", w.succeeded,
		"failed", len(w.failures),
	)
	return Result{
		Content:   rendered,
		Succeeded: w.succeeded,
		Failed:    len(w.failures),
		Failures:  w.failures,
	}, nil
}

type applier struct {
	frag      *Fragment
	log       interfaces.Logger
	succeeded int
	failures  []block.Failure
}

func (w *applier) dispatch(index int, op block.Operation) {
	if err := op.Validate(); err != nil {
		w.fail(index, op, block.ReasonInvalid)
		return
	}
	switch op.Type {
	case block.OpUpdateText:
		w.updateText(index, op)
	case block.OpDeleteBlock:
		w.deleteBlock(index, op)
	case block.OpInsertBlock:
		w.insertBlock(index, op)
	case block.OpChangeHeadingLevel:
		w.changeHeadingLevel(index, op)
	case block.OpTableUpdateCell:
		w.tableUpdateCell(index, op)
	case block.OpTableInsertRow:
		w.tableInsertRow(index, op)
	case block.OpTableDeleteRow:
		w.tableDeleteRow(index, op)
	default:
		w.fail(index, op, block.ReasonInvalid)
	}
}

func (w *applier) ok() {
	w.succeeded++
}

func (w *applier) fail(index int, op block.Operation, reason block.Reason) {
	w.log.Debug("markup.apply.skip", "index", index, "type", op.Type, "reason", reason)
	w.failures = append(w.failures, block.Failure{
		Index:  index,
		Type:   op.Type,
		Target: op.Target,
		Reason: reason,
	})
}

func (w *applier) updateText(index int, op block.Operation) {
	el := w.findMostSpecific(updateTags, op.Target)
	if el == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	done, refused := substitute(el, op.Target, op.New)
	switch {
	case refused:
		w.fail(index, op, block.ReasonRefused)
	case !done:
		w.fail(index, op, block.ReasonTargetNotFound)
	default:
		w.ok()
	}
}

func (w *applier) deleteBlock(index int, op block.Operation) {
	el := w.findLeafExact(op.Target)
	if el == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if ContainsOpaque(el) {
		w.fail(index, op, block.ReasonRefused)
		return
	}
	w.frag.remove(el)
	w.ok()
}

func (w *applier) insertBlock(index int, op block.Operation) {
	p := newElement("p")
	p.AppendChild(newText(op.New))

	if op.Anchor != "" {
		if anchor := w.findMostSpecific(anchorTags, op.Anchor); anchor != nil {
			w.frag.insertAfter(anchor, p)
			w.ok()
			return
		}
	}
	w.frag.append(p)
	w.ok()
}

func (w *applier) changeHeadingLevel(index int, op block.Operation) {
	el := w.findMostSpecific(headingTags, op.Target)
	if el == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}

	tag := "h" + strconv.Itoa(op.NewLevel)
	el.Data = tag
	el.DataAtom = atom.Lookup([]byte(tag))

	if op.New != "" && block.NormalizeKey(op.New) != block.NormalizeKey(Text(el)) {
		substitute(el, op.Target, op.New)
	}
	w.ok()
}

func (w *applier) tableUpdateCell(index int, op block.Operation) {
	table := w.findTable(op.Target)
	if table == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	rows := tableRows(table)
	if op.Row < 0 || op.Row >= len(rows) {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	cells := cellNodes(rows[op.Row])
	if op.Col >= len(cells) {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	cell := cells[op.Col]
	if ContainsOpaque(cell) {
		w.fail(index, op, block.ReasonRefused)
		return
	}
	setCellText(cell, op.New)
	w.ok()
}

func (w *applier) tableInsertRow(index int, op block.Operation) {
	table := w.findTable(op.Target)
	if table == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if len(op.Cells) == 0 {
		w.fail(index, op, block.ReasonMalformedCells)
		return
	}

	tr := newElement("tr")
	for _, cell := range op.Cells {
		td := newElement("td")
		td.AppendChild(newText(cell))
		tr.AppendChild(td)
	}

	// Row index wins over the anchor, same precedence as the node-document
	// editor, so one operation batch lands rows identically in both trees.
	rows := tableRows(table)
	if op.Row >= 0 && op.Row < len(rows) {
		rows[op.Row].Parent.InsertBefore(tr, rows[op.Row])
		w.ok()
		return
	}
	if op.Anchor != "" {
		want := block.NormalizeKey(op.Anchor)
		for _, row := range rows {
			if block.NormalizeRow(rowCells(row)) == want {
				row.Parent.InsertBefore(tr, row.NextSibling)
				w.ok()
				return
			}
		}
	}
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		last.Parent.InsertBefore(tr, last.NextSibling)
		w.ok()
		return
	}
	rowParent(table).AppendChild(tr)
	w.ok()
}

func (w *applier) tableDeleteRow(index int, op block.Operation) {
	table := w.findTable(op.Target)
	if table == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	rows := tableRows(table)

	var target *html.Node
	if len(op.Cells) > 0 {
		want := block.NormalizeRow(op.Cells)
		for _, row := range rows {
			if block.NormalizeRow(rowCells(row)) == want {
				target = row
				break
			}
		}
	}
	if target == nil && op.Row >= 0 && op.Row < len(rows) {
		target = rows[op.Row]
	}
	if target == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if ContainsOpaque(target) {
		w.fail(index, op, block.ReasonRefused)
		return
	}
	target.Parent.RemoveChild(target)
	w.ok()
}

// findLeafExact returns the first leaf block element whose normalized text
// equals the target. Deletion never falls back to containment: removing a
// superset block would take neighboring text with it.
func (w *applier) findLeafExact(target string) *html.Node {
	norm := block.NormalizeKey(target)
	if norm == "" {
		return nil
	}
	var found *html.Node
	for _, top := range w.frag.nodes {
		if found != nil {
			break
		}
		walk(top, func(n *html.Node) bool {
			if found != nil || IsOpaque(n) {
				return false
			}
			if n.Type == html.ElementNode && leafTags[n.Data] && block.NormalizeKey(Text(n)) == norm {
				found = n
				return false
			}
			return true
		})
	}
	return found
}

// findMostSpecific returns the candidate element with the shortest
// normalized text that still contains the target, so edits land on the
// innermost block instead of a surrounding container.
func (w *applier) findMostSpecific(tags map[string]bool, target string) *html.Node {
	norm := block.NormalizeKey(target)
	if norm == "" {
		return nil
	}
	var best *html.Node
	bestLen := -1
	for _, top := range w.frag.nodes {
		walk(top, func(n *html.Node) bool {
			if IsOpaque(n) {
				return false
			}
			if n.Type == html.ElementNode && tags[n.Data] {
				text := block.NormalizeKey(Text(n))
				if text != "" && strings.Contains(text, norm) {
					if bestLen < 0 || len(text) < bestLen {
						best, bestLen = n, len(text)
					}
				}
			}
			return true
		})
	}
	return best
}

// findTable matches a table by normalized rendered text, falling back to a
// five-word prefix so truncated targets still resolve.
func (w *applier) findTable(target string) *html.Node {
	norm := block.NormalizeKey(target)
	if norm == "" {
		return nil
	}

	var tables []*html.Node
	for _, top := range w.frag.nodes {
		walk(top, func(n *html.Node) bool {
			if IsOpaque(n) {
				return false
			}
			if n.Type == html.ElementNode && n.Data == "table" {
				tables = append(tables, n)
				return false
			}
			return true
		})
	}

	for _, table := range tables {
		if strings.Contains(tableText(table), norm) {
			return table
		}
	}
	words := strings.Fields(norm)
	if len(words) > 5 {
		prefix := strings.Join(words[:5], " ")
		for _, table := range tables {
			if strings.Contains(tableText(table), prefix) {
				return table
			}
		}
	}
	return nil
}

func tableText(table *html.Node) string {
	var parts []string
	for _, row := range tableRows(table) {
		for _, cell := range rowCells(row) {
			if cell != "" {
				parts = append(parts, cell)
			}
		}
	}
	return block.NormalizeKey(strings.Join(parts, " "))
}

// rowParent picks where a fresh row belongs in a table with no rows yet.
func rowParent(table *html.Node) *html.Node {
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "tbody" {
			return c
		}
	}
	return table
}

// setCellText replaces a cell's content, keeping a single paragraph
// wrapper when the cell has one.
func setCellText(cell *html.Node, text string) {
	target := cell
	if only := soleElementChild(cell); only != nil && only.Data == "p" {
		target = only
	}
	removeChildren(target)
	target.AppendChild(newText(text))
}

func soleElementChild(n *html.Node) *html.Node {
	var only *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if only != nil {
				return nil
			}
			only = c
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		}
	}
	return only
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// substitute rewrites target text inside el, trying progressively wider
// scopes: direct child text, annotation markers, inline formatting, any
// descendant text node, and finally a full text replacement when the
// target spans several nodes. The full replacement is refused when it
// would flatten opaque content.
func substitute(el *html.Node, target, replacement string) (done, refused bool) {
	pattern := targetPattern(target)
	if pattern == nil {
		return false, false
	}

	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && substituteText(c, pattern, replacement) {
			return true, false
		}
	}
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if IsAnnotation(c) && substituteIn(c, pattern, replacement) {
			return true, false
		}
	}
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && inlineTags[c.Data] && substituteIn(c, pattern, replacement) {
			return true, false
		}
	}
	if substituteIn(el, pattern, replacement) {
		return true, false
	}

	if ContainsOpaque(el) {
		return false, true
	}
	removeChildren(el)
	el.AppendChild(newText(replacement))
	return true, false
}

// substituteIn applies the pattern to the first matching descendant text
// node, skipping opaque subtrees.
func substituteIn(root *html.Node, pattern *regexp.Regexp, replacement string) bool {
	done := false
	walk(root, func(n *html.Node) bool {
		if done {
			return false
		}
		if n != root && IsOpaque(n) {
			return false
		}
		if n.Type == html.TextNode && substituteText(n, pattern, replacement) {
			done = true
			return false
		}
		return true
	})
	return done
}

func substituteText(tn *html.Node, pattern *regexp.Regexp, replacement string) bool {
	loc := pattern.FindStringIndex(tn.Data)
	if loc == nil {
		return false
	}
	tn.Data = tn.Data[:loc[0]] + replacement + tn.Data[loc[1]:]
	return true
}

// targetPattern builds a whitespace-tolerant, case-insensitive matcher for
// canonical target text, since document text keeps its original spacing.
func targetPattern(target string) *regexp.Regexp {
	words := strings.Fields(target)
	if len(words) == 0 {
		return nil
	}
	escaped := make([]string, len(words))
	for i, word := range words {
		escaped[i] = regexp.QuoteMeta(word)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(escaped, `\s+`))
}
