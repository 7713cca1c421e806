package doctree

import (
	"context"
	"strings"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Extractor projects a node document onto the canonical block list.
// Granularity matches the Markdown extractor: lists expand to one block
// per item, tables collapse to a single block with a cell matrix.
type Extractor struct {
	log       interfaces.Logger
	pageTitle string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger attaches a logger.
func WithExtractorLogger(logger interfaces.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithPageTitle drops a leading level-1 heading that duplicates the page
// title, mirroring the Markdown extractor's option.
func WithPageTitle(title string) ExtractorOption {
	return func(e *Extractor) {
		e.pageTitle = title
	}
}

// NewExtractor constructs a node-document block extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{log: logging.NoOp()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract walks the document's top-level content. Every block carries the
// originating node's localId as its anchor when the node has one.
func (e *Extractor) Extract(ctx context.Context, doc *Document) ([]block.ContentBlock, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	var blocks []block.ContentBlock
	emit := func(b block.ContentBlock) {
		blocks = append(blocks, b)
	}

	for _, node := range doc.Content {
		e.extractNode(node, emit)
	}

	if e.pageTitle != "" && len(blocks) > 0 &&
		blocks[0].Kind == block.KindHeading &&
		block.NormalizeKey(blocks[0].Text) == block.NormalizeKey(e.pageTitle) {
		blocks = blocks[1:]
	}
	for i := range blocks {
		blocks[i].Position = i
	}

	e.log.WithContext(ctx).Debug("doctree.extract", "blocks", len(blocks))
	return blocks, nil
}

func (e *Extractor) extractNode(node *Node, emit func(block.ContentBlock)) {
	switch {
	case node.IsOpaque():
		emit(block.ContentBlock{
			Kind:   block.KindMacro,
			Text:   SyntheticMacroText(node),
			Anchor: node.LocalID(),
		})

	case node.Type == TypeHeading:
		level := 1
		if node.Attrs != nil && node.Attrs.Level > 0 {
			level = node.Attrs.Level
		}
		emit(block.ContentBlock{
			Kind:   block.KindHeading,
			Text:   block.NormalizeText(TextOf(node)),
			Level:  level,
			Anchor: node.LocalID(),
		})

	case node.Type == TypeParagraph:
		if text := block.NormalizeText(TextOf(node)); text != "" {
			emit(block.ContentBlock{
				Kind:   block.KindParagraph,
				Text:   text,
				Anchor: node.LocalID(),
			})
		}

	case node.Type == TypeBulletList || node.Type == TypeOrderedList:
		e.extractListItems(node, emit)

	case node.Type == TypeTable:
		rows := TableRows(node)
		cells := make([][]string, len(rows))
		var parts []string
		for i, row := range rows {
			cells[i] = rowCellTexts(row)
			for _, cell := range cells[i] {
				if cell != "" {
					parts = append(parts, cell)
				}
			}
		}
		emit(block.ContentBlock{
			Kind:   block.KindTable,
			Text:   block.NormalizeText(strings.Join(parts, " ")),
			Rows:   cells,
			Anchor: node.LocalID(),
		})

	case node.Type == TypeCodeBlock:
		if text := TextOf(node); text != "" {
			emit(block.ContentBlock{
				Kind:   block.KindCode,
				Text:   text,
				Anchor: node.LocalID(),
			})
		}

	default:
		if text := block.NormalizeText(TextOf(node)); text != "" {
			emit(block.ContentBlock{
				Kind:   block.KindOther,
				Text:   text,
				Anchor: node.LocalID(),
			})
		}
	}
}

// extractListItems expands a list depth-first: each item is one block,
// nested sublists flatten into subsequent items.
func (e *Extractor) extractListItems(list *Node, emit func(block.ContentBlock)) {
	for _, item := range list.Content {
		if item.Type != TypeListItem {
			continue
		}
		if text := block.NormalizeText(listItemOwnText(item)); text != "" {
			emit(block.ContentBlock{
				Kind:   block.KindListItem,
				Text:   text,
				Anchor: item.LocalID(),
			})
		}
		for _, child := range item.Content {
			if child.Type == TypeBulletList || child.Type == TypeOrderedList {
				e.extractListItems(child, emit)
			}
		}
	}
}

// listItemOwnText flattens an item's text without its nested sublists,
// which become their own blocks.
func listItemOwnText(item *Node) string {
	var parts []string
	for _, child := range item.Content {
		if child.Type == TypeBulletList || child.Type == TypeOrderedList {
			continue
		}
		if part := TextOf(child); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// Anchors derives the normalized-text to localId map the editor uses for
// targeting. Later blocks never displace earlier ones on key collision,
// matching document order precedence.
func Anchors(blocks []block.ContentBlock) map[string]string {
	anchors := make(map[string]string, len(blocks))
	for _, b := range blocks {
		if b.Anchor == "" {
			continue
		}
		key := block.NormalizeKey(b.Text)
		if key == "" {
			continue
		}
		if _, exists := anchors[key]; !exists {
			anchors[key] = b.Anchor
		}
	}
	return anchors
}

// TableRows lists a table's row nodes.
func TableRows(table *Node) []*Node {
	var rows []*Node
	for _, child := range table.Content {
		if child.Type == TypeTableRow {
			rows = append(rows, child)
		}
	}
	return rows
}

// rowCells lists a row's cell nodes (header or body).
func rowCells(row *Node) []*Node {
	var cells []*Node
	for _, child := range row.Content {
		if child.Type == TypeTableCell || child.Type == TypeTableHeader {
			cells = append(cells, child)
		}
	}
	return cells
}

func rowCellTexts(row *Node) []string {
	nodes := rowCells(row)
	cells := make([]string, len(nodes))
	for i, cell := range nodes {
		cells[i] = block.NormalizeText(TextOf(cell))
	}
	return cells
}
