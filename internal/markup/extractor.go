package markup

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Extractor projects a markup fragment onto the canonical block list.
//
// Pass order is part of the contract: opaque containers first (top level
// only), then headings, tables, lists, code and finally leftover
// paragraphs. Every pass marks the nodes it consumed so later passes never
// re-emit nested content.
type Extractor struct {
	log interfaces.Logger
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

// NewExtractor constructs a markup block extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{log: logging.NoOp()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses content and emits blocks in pass order.
func (e *Extractor) Extract(ctx context.Context, content string) ([]block.ContentBlock, error) {
	frag, err := Parse(content)
	if err != nil {
		return nil, err
	}
	blocks := e.ExtractFragment(frag)
	e.log.WithContext(ctx).Debug("markup.extract", "blocks", len(blocks))
	return blocks, nil
}

// ExtractFragment emits blocks from an already-parsed fragment.
func (e *Extractor) ExtractFragment(f *Fragment) []block.ContentBlock {
	consumed := map[*html.Node]bool{}
	var blocks []block.ContentBlock
	emit := func(b block.ContentBlock) {
		b.Position = len(blocks)
		blocks = append(blocks, b)
	}

	// Opaque pass: top-level macro containers only. Anything nested inside
	// them is consumed and never re-emitted as a standalone block.
	for _, top := range f.nodes {
		if top.Type == html.ElementNode && IsOpaque(top) {
			emit(block.ContentBlock{Kind: block.KindMacro, Text: SyntheticMacroText(top)})
			markConsumed(consumed, top)
		}
	}

	e.each(f, consumed, isHeading, func(n *html.Node) {
		emit(block.ContentBlock{
			Kind:  block.KindHeading,
			Text:  Text(n),
			Level: headingLevel(n),
		})
		markConsumed(consumed, n)
	})

	e.each(f, consumed, isTag("table"), func(n *html.Node) {
		rows := tableRows(n)
		cells := make([][]string, len(rows))
		var parts []string
		for i, row := range rows {
			cells[i] = rowCells(row)
			for _, cell := range cells[i] {
				if cell != "" {
					parts = append(parts, cell)
				}
			}
		}
		emit(block.ContentBlock{
			Kind: block.KindTable,
			Text: block.NormalizeText(strings.Join(parts, " ")),
			Rows: cells,
		})
		markConsumed(consumed, n)
	})

	e.each(f, consumed, isList, func(n *html.Node) {
		// Every list item, nested ones included, becomes its own block;
		// an item's text excludes its nested sublists.
		walk(n, func(node *html.Node) bool {
			if IsOpaque(node) {
				return false
			}
			if node.Type == html.ElementNode && node.Data == "li" {
				if text := listItemText(node); text != "" {
					emit(block.ContentBlock{Kind: block.KindListItem, Text: text})
				}
			}
			return true
		})
		markConsumed(consumed, n)
	})

	e.each(f, consumed, isTag("pre"), func(n *html.Node) {
		text := strings.Trim(rawText(n), "\n")
		if text == "" {
			markConsumed(consumed, n)
			return
		}
		emit(block.ContentBlock{Kind: block.KindCode, Text: text})
		markConsumed(consumed, n)
	})

	e.each(f, consumed, isTag("p"), func(n *html.Node) {
		if text := Text(n); text != "" {
			emit(block.ContentBlock{Kind: block.KindParagraph, Text: text})
		}
		markConsumed(consumed, n)
	})

	return blocks
}

// each walks the fragment, skipping consumed and opaque subtrees, and
// hands matching elements to handle.
func (e *Extractor) each(f *Fragment, consumed map[*html.Node]bool, match func(*html.Node) bool, handle func(*html.Node)) {
	for _, top := range f.nodes {
		walk(top, func(n *html.Node) bool {
			if consumed[n] || IsOpaque(n) {
				return false
			}
			if n.Type == html.ElementNode && match(n) {
				handle(n)
				return false
			}
			return true
		})
	}
}

func markConsumed(consumed map[*html.Node]bool, n *html.Node) {
	walk(n, func(node *html.Node) bool {
		consumed[node] = true
		return true
	})
}

// SyntheticMacroText is the stable position-bookkeeping text for a macro
// block: the tag plus the macro name. It is never meant to textually match
// Markdown content.
func SyntheticMacroText(n *html.Node) string {
	name := Attr(n, AttrMacroName)
	return strings.TrimSpace(n.Data + " " + name)
}

func isHeading(n *html.Node) bool {
	return headingLevel(n) > 0
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	level := int(n.Data[1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

func isTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Data == tag
	}
}

func isList(n *html.Node) bool {
	return n.Data == "ul" || n.Data == "ol"
}

// listItemText flattens one item's own text, leaving nested sublists to
// their own blocks.
func listItemText(li *html.Node) string {
	var parts []string
	walk(li, func(node *html.Node) bool {
		if node != li && node.Type == html.ElementNode && (isList(node) || IsOpaque(node)) {
			return false
		}
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
		}
		return true
	})
	return cleanFlattened(strings.Join(parts, " "))
}

// tableRows lists the tr elements of a table in document order.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	walk(table, func(n *html.Node) bool {
		if n != table && IsOpaque(n) {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, n)
			return false
		}
		return true
	})
	return rows
}

// rowCells flattens the cell text of one row.
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, Text(c))
		}
	}
	return cells
}

// cellNodes lists the cell elements of one row in order.
func cellNodes(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
		}
	}
	return cells
}
