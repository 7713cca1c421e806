package doctree

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/identity"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/internal/util"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// defaultAnchorFuzzy is the minimum word overlap for the fuzzy targeting
// fallback when an exact map lookup misses.
const defaultAnchorFuzzy = 0.8

// Result reports a best-effort apply over a node document.
type Result struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []block.Failure `json:"failures,omitempty"`
}

// Editor applies surgical operations to node documents.
type Editor struct {
	log   interfaces.Logger
	fuzzy float64
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

// WithFuzzyThreshold overrides the anchor fuzzy-match threshold.
func WithFuzzyThreshold(threshold float64) EditorOption {
	return func(e *Editor) {
		if threshold > 0 && threshold <= 1 {
			e.fuzzy = threshold
		}
	}
}

// NewEditor constructs a node-document editor.
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{log: logging.NoOp(), fuzzy: defaultAnchorFuzzy}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyOption configures a single Apply call.
type ApplyOption func(*applier)

// WithAnchors supplies a caller-derived text-to-localId map, typically
// built from the block list the diff ran against. Without it the editor
// derives the map from the current document state.
func WithAnchors(anchors map[string]string) ApplyOption {
	return func(w *applier) {
		if len(anchors) > 0 {
			w.anchors = util.CloneStringMap(anchors)
		}
	}
}

// Apply deep-copies doc, applies every operation fail-soft, and returns
// the copy. The input document is never mutated.
func (e *Editor) Apply(ctx context.Context, doc *Document, ops []block.Operation, opts ...ApplyOption) (*Document, Result, error) {
	if doc == nil {
		return nil, Result{}, ErrNilDocument
	}

	work := doc.Clone()
	w := &applier{doc: work, fuzzy: e.fuzzy, log: e.log.WithContext(ctx)}
	for _, opt := range opts {
		opt(w)
	}

	for i, op := range ops {
		w.dispatch(i, op)
	}

	w.log.Debug("doctree.apply",
		"operations", len(ops),
		"succeeded", w.succeeded,
		"failed", len(w.failures),
	)
	return work, Result{
		Succeeded: w.succeeded,
		Failed:    len(w.failures),
		Failures:  w.failures,
	}, nil
}

type applier struct {
	doc       *Document
	anchors   map[string]string
	fuzzy     float64
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
	w.log.Debug("doctree.apply.skip", "index", index, "type", op.Type, "reason", reason)
	w.failures = append(w.failures, block.Failure{
		Index:  index,
		Type:   op.Type,
		Target: op.Target,
		Reason: reason,
	})
}

// nodeRef pairs a node with its parent; a nil parent means the node sits
// in the document's top-level content.
type nodeRef struct {
	node   *Node
	parent *Node
}

func (w *applier) siblings(ref *nodeRef) []*Node {
	if ref.parent != nil {
		return ref.parent.Content
	}
	return w.doc.Content
}

func (w *applier) setSiblings(ref *nodeRef, nodes []*Node) {
	if ref.parent != nil {
		ref.parent.Content = nodes
		return
	}
	w.doc.Content = nodes
}

// walkRefs visits every node with its parent, stopping when visit
// returns false. Opaque subtrees are visited as a whole: the vendor-owned
// node itself is a candidate but nothing inside it ever is, so targets can
// never resolve into extension content.
func (w *applier) walkRefs(visit func(ref nodeRef) bool) {
	var walk func(parent *Node, nodes []*Node) bool
	walk = func(parent *Node, nodes []*Node) bool {
		for _, n := range nodes {
			if !visit(nodeRef{node: n, parent: parent}) {
				return false
			}
			if n.IsOpaque() {
				continue
			}
			if !walk(n, n.Content) {
				return false
			}
		}
		return true
	}
	walk(nil, w.doc.Content)
}

func (w *applier) byLocalID(id string) *nodeRef {
	var found *nodeRef
	w.walkRefs(func(ref nodeRef) bool {
		if ref.node.LocalID() == id {
			r := ref
			found = &r
			return false
		}
		return true
	})
	return found
}

// anchorMap is the normalized-text to localId map used for targeting:
// the caller-provided map when present, otherwise derived from the
// current document state.
func (w *applier) anchorMap() map[string]string {
	if w.anchors != nil {
		return w.anchors
	}
	blocks, err := NewExtractor().Extract(context.Background(), w.doc)
	if err != nil {
		return map[string]string{}
	}
	return Anchors(blocks)
}

// resolve locates the node addressed by canonical target text: exact map
// lookup, then an exact content walk for nodes without a localId, then a
// fuzzy scan of the map keys.
func (w *applier) resolve(target string) *nodeRef {
	key := block.NormalizeKey(target)
	if key == "" {
		return nil
	}
	anchors := w.anchorMap()

	if id, ok := anchors[key]; ok {
		if ref := w.byLocalID(id); ref != nil {
			return ref
		}
	}

	var exact *nodeRef
	w.walkRefs(func(ref nodeRef) bool {
		if isBlockType(ref.node.Type) && block.NormalizeKey(TextOf(ref.node)) == key {
			r := ref
			exact = &r
			return false
		}
		return true
	})
	if exact != nil {
		return exact
	}

	bestScore := 0.0
	bestID := ""
	for text, id := range anchors {
		if score := block.Overlap(key, text); score >= w.fuzzy && score > bestScore {
			bestScore, bestID = score, id
		}
	}
	if bestID != "" {
		return w.byLocalID(bestID)
	}
	return nil
}

func isBlockType(t string) bool {
	switch t {
	case TypeParagraph, TypeHeading, TypeListItem, TypeCodeBlock, TypeBlockquote, TypePanel, TypeTable:
		return true
	}
	return IsOpaqueType(t)
}

func (w *applier) updateText(index int, op block.Operation) {
	ref := w.resolve(op.Target)
	if ref == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if ref.node.IsOpaque() {
		w.fail(index, op, block.ReasonRefused)
		return
	}
	target := ref.node
	if target.Type == TypeListItem {
		// Item text lives in the item's first paragraph.
		if p := firstParagraph(target); p != nil {
			target = p
		}
	}
	setNodeText(target, op.New)
	w.ok()
}

func (w *applier) deleteBlock(index int, op block.Operation) {
	ref := w.resolve(op.Target)
	if ref == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if ref.node.IsOpaque() || containsOpaque(ref.node) {
		w.fail(index, op, block.ReasonRefused)
		return
	}
	w.removeNode(ref)
	w.ok()
}

func (w *applier) insertBlock(index int, op block.Operation) {
	node := &Node{
		Type:    TypeParagraph,
		Attrs:   &Attrs{LocalID: identity.NodeLocalID()},
		Content: buildTextNodes(op.New, nil),
	}

	if op.Anchor != "" {
		if ref := w.resolve(op.Anchor); ref != nil {
			w.insertAfter(ref, node)
			w.ok()
			return
		}
	}
	w.doc.Content = append(w.doc.Content, node)
	w.ok()
}

func (w *applier) changeHeadingLevel(index int, op block.Operation) {
	ref := w.resolve(op.Target)
	if ref == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if ref.node.IsOpaque() {
		w.fail(index, op, block.ReasonRefused)
		return
	}
	if ref.node.Type != TypeHeading {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}

	if ref.node.Attrs == nil {
		ref.node.Attrs = &Attrs{}
	}
	ref.node.Attrs.Level = op.NewLevel

	if op.New != "" && block.NormalizeKey(op.New) != block.NormalizeKey(TextOf(ref.node)) {
		setNodeText(ref.node, op.New)
	}
	w.ok()
}

func (w *applier) tableUpdateCell(index int, op block.Operation) {
	table := w.resolveTable(op.Target)
	if table == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	rows := TableRows(table)
	if op.Row < 0 || op.Row >= len(rows) {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	cells := rowCells(rows[op.Row])
	if op.Col >= len(cells) {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	cell := cells[op.Col]
	if containsOpaque(cell) {
		w.fail(index, op, block.ReasonRefused)
		return
	}
	setCellText(cell, op.New)
	w.ok()
}

func (w *applier) tableInsertRow(index int, op block.Operation) {
	table := w.resolveTable(op.Target)
	if table == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if len(op.Cells) == 0 {
		w.fail(index, op, block.ReasonMalformedCells)
		return
	}

	rows := TableRows(table)
	width := len(op.Cells)
	if len(rows) > 0 {
		width = len(rowCells(rows[0]))
	}
	row := buildTableRow(util.PadRow(op.Cells, width))

	switch {
	case op.Row >= 0 && op.Row < len(rows):
		w.insertRowAt(table, rows[op.Row], row, false)
	case op.Anchor != "" && w.insertRowAfterContent(table, rows, row, op.Anchor):
		// placed after the anchor row
	default:
		table.Content = append(table.Content, row)
	}
	w.ok()
}

func (w *applier) insertRowAfterContent(table *Node, rows []*Node, row *Node, anchor string) bool {
	want := block.NormalizeKey(anchor)
	for _, existing := range rows {
		if block.NormalizeRow(rowCellTexts(existing)) == want {
			w.insertRowAt(table, existing, row, true)
			return true
		}
	}
	return false
}

// insertRowAt splices row into the table relative to pivot, after it when
// after is true, otherwise in its place shifting it down.
func (w *applier) insertRowAt(table *Node, pivot, row *Node, after bool) {
	for i, child := range table.Content {
		if child == pivot {
			at := i
			if after {
				at = i + 1
			}
			table.Content = append(table.Content[:at], append([]*Node{row}, table.Content[at:]...)...)
			return
		}
	}
	table.Content = append(table.Content, row)
}

func (w *applier) tableDeleteRow(index int, op block.Operation) {
	table := w.resolveTable(op.Target)
	if table == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	rows := TableRows(table)

	var target *Node
	if op.Row >= 0 && op.Row < len(rows) {
		candidate := rows[op.Row]
		if len(op.Cells) == 0 || rowContentMatches(candidate, op.Cells) {
			target = candidate
		}
	}
	if target == nil && len(op.Cells) > 0 {
		for _, row := range rows {
			if rowContentMatches(row, op.Cells) {
				target = row
				break
			}
		}
	}
	if target == nil {
		w.fail(index, op, block.ReasonTargetNotFound)
		return
	}
	if containsOpaque(target) {
		w.fail(index, op, block.ReasonRefused)
		return
	}

	out := table.Content[:0]
	for _, child := range table.Content {
		if child != target {
			out = append(out, child)
		}
	}
	table.Content = out
	w.ok()
}

// resolveTable resolves the target to a table node, tolerating anchors
// that point into the table rather than at it.
func (w *applier) resolveTable(target string) *Node {
	ref := w.resolve(target)
	if ref == nil {
		return nil
	}
	if ref.node.Type == TypeTable {
		return ref.node
	}
	if ref.parent != nil && ref.parent.Type == TypeTable {
		return ref.parent
	}
	return nil
}

func rowContentMatches(row *Node, cells []string) bool {
	return block.NormalizeRow(rowCellTexts(row)) == block.NormalizeRow(cells)
}

func (w *applier) removeNode(ref *nodeRef) {
	siblings := w.siblings(ref)
	out := make([]*Node, 0, len(siblings))
	for _, n := range siblings {
		if n != ref.node {
			out = append(out, n)
		}
	}
	w.setSiblings(ref, out)
}

func (w *applier) insertAfter(ref *nodeRef, node *Node) {
	siblings := w.siblings(ref)
	for i, n := range siblings {
		if n == ref.node {
			out := append(siblings[:i+1], append([]*Node{node}, siblings[i+1:]...)...)
			w.setSiblings(ref, out)
			return
		}
	}
	w.setSiblings(ref, append(siblings, node))
}

func firstParagraph(n *Node) *Node {
	for _, child := range n.Content {
		if child.Type == TypeParagraph {
			return child
		}
	}
	return nil
}

func containsOpaque(n *Node) bool {
	if n.IsOpaque() {
		return true
	}
	for _, child := range n.Content {
		if containsOpaque(child) {
			return true
		}
	}
	return false
}

// setNodeText replaces a node's visible text. Every existing text and
// hardBreak child is removed first so stale break nodes never linger; the
// replacement splits on newlines into alternating text and hardBreak
// nodes, and the first removed text child's marks carry onto the first
// new text node.
func setNodeText(n *Node, text string) {
	var kept []*Node
	var marks []json.RawMessage
	seenText := false
	for _, child := range n.Content {
		switch child.Type {
		case TypeText:
			// Only the first text child donates marks; an unmarked first
			// segment means the replacement starts unmarked too.
			if !seenText {
				seenText = true
				marks = child.Marks
			}
		case TypeHardBreak:
			// dropped
		default:
			kept = append(kept, child)
		}
	}
	n.Content = append(kept, buildTextNodes(text, marks)...)
}

// buildTextNodes splits text on newlines into text nodes separated by
// hardBreak nodes. M newlines yield M hardBreak and M+1 text nodes.
func buildTextNodes(text string, marks []json.RawMessage) []*Node {
	segments := strings.Split(text, "\n")
	nodes := make([]*Node, 0, len(segments)*2-1)
	for i, segment := range segments {
		if i > 0 {
			nodes = append(nodes, &Node{Type: TypeHardBreak})
		}
		node := &Node{Type: TypeText, Text: segment}
		if i == 0 {
			node.Marks = marks
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// setCellText rewrites a cell's first paragraph, creating one when the
// cell is empty.
func setCellText(cell *Node, text string) {
	if p := firstParagraph(cell); p != nil {
		setNodeText(p, text)
		return
	}
	cell.Content = append(cell.Content, &Node{
		Type:    TypeParagraph,
		Content: buildTextNodes(text, nil),
	})
}

// buildTableRow builds a tableRow of tableCell > paragraph > text nodes.
func buildTableRow(cells []string) *Node {
	row := &Node{Type: TypeTableRow, Attrs: &Attrs{LocalID: identity.NodeLocalID()}}
	for _, cell := range cells {
		row.Content = append(row.Content, &Node{
			Type: TypeTableCell,
			Content: []*Node{{
				Type:    TypeParagraph,
				Content: buildTextNodes(cell, nil),
			}},
		})
	}
	return row
}
