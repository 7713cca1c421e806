package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// lineState names the classifier state the parser is in while scanning.
type lineState int

const (
	stateNone lineState = iota
	stateParagraph
	stateCodeFence
	statePipeTable
	stateSimpleTable
	stateGridTable
	stateListItem
)

var (
	headingRe     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	placeholderRe = regexp.MustCompile(`^\{\{macro:\d+\}\}$`)
	listItemRe    = regexp.MustCompile(`^(\s*)([-*+]|\d+[.)])\s+(.*)$`)
	fenceOpenRe   = regexp.MustCompile("^(`{3,}|~{3,})\\s*(\\S*)\\s*$")
	thematicRe    = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
)

// Extractor converts Markdown into ordered content blocks.
type Extractor struct {
	log       interfaces.Logger
	pageTitle string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger attaches a logger; extraction logs at debug level only.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithPageTitle drops a leading heading that duplicates the page title, so
// pages whose body repeats the remote title produce comparable block lists.
func WithPageTitle(title string) Option {
	return func(e *Extractor) {
		e.pageTitle = title
	}
}

// New constructs a Markdown block extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{log: logging.NoOp()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses content into the canonical block list. Front matter is
// skipped, placeholder lines become macro blocks, and each list item is its
// own block.
func (e *Extractor) Extract(ctx context.Context, content string) ([]block.ContentBlock, error) {
	log := e.log.WithContext(ctx)

	body := stripFrontMatter(content, log)

	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		// The final empty element is the trailing newline, not a blank line.
		lines = lines[:n-1]
	}

	p := &parser{lines: lines, state: stateNone}
	p.run()

	blocks := p.blocks
	if e.pageTitle != "" && len(blocks) > 0 &&
		blocks[0].Kind == block.KindHeading &&
		block.NormalizeKey(blocks[0].Text) == block.NormalizeKey(e.pageTitle) {
		blocks = blocks[1:]
	}
	for i := range blocks {
		blocks[i].Position = i
	}

	log.Debug("markdown.extract", "blocks", len(blocks))
	return blocks, nil
}

func stripFrontMatter(content string, log interfaces.Logger) string {
	var meta map[string]any
	body, err := frontmatter.Parse(strings.NewReader(content), &meta)
	if err != nil {
		// Malformed front matter is treated as body text rather than a
		// fatal extraction error.
		log.Debug("markdown.frontmatter.skip", "error", err)
		return content
	}
	return string(body)
}

type parser struct {
	lines  []string
	pos    int
	state  lineState
	blocks []block.ContentBlock

	para       []string
	item       []string
	itemIndent int
}

func (p *parser) run() {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			p.flush()
			p.pos++

		case fenceOpenRe.MatchString(trimmed):
			p.flush()
			p.parseCodeFence(trimmed)

		case placeholderRe.MatchString(trimmed):
			p.flush()
			p.emit(block.ContentBlock{Kind: block.KindMacro, Text: trimmed})
			p.pos++

		case headingRe.MatchString(trimmed):
			p.flush()
			p.parseHeading(trimmed)

		case isGridBorder(trimmed):
			p.flush()
			p.parseGridTable()

		case isSimpleSeparator(trimmed):
			p.parseSimpleTable()

		case thematicRe.MatchString(trimmed):
			p.flush()
			p.pos++

		case p.isPipeTableStart(trimmed):
			p.flush()
			p.parsePipeTable()

		case listItemRe.MatchString(line):
			p.flush()
			p.startListItem(line)

		case p.state == stateListItem && isIndented(line):
			p.item = append(p.item, trimmed)
			p.pos++

		default:
			p.flushItem()
			p.state = stateParagraph
			p.para = append(p.para, line)
			p.pos++
		}
	}
	p.flush()
}

func (p *parser) flush() {
	p.flushItem()
	p.flushPara()
	p.state = stateNone
}

func (p *parser) flushPara() {
	if len(p.para) == 0 {
		return
	}
	parts := make([]string, 0, len(p.para))
	for _, line := range p.para {
		parts = append(parts, strings.TrimSpace(line))
	}
	p.para = nil
	text := StripInline(strings.Join(parts, " "))
	if block.NormalizeText(text) == "" {
		return
	}
	p.emit(block.ContentBlock{Kind: block.KindParagraph, Text: block.NormalizeText(text)})
}

func (p *parser) flushItem() {
	if len(p.item) == 0 {
		return
	}
	text := StripInline(strings.Join(p.item, " "))
	p.item = nil
	if block.NormalizeText(text) == "" {
		return
	}
	p.emit(block.ContentBlock{Kind: block.KindListItem, Text: block.NormalizeText(text)})
}

func (p *parser) parseHeading(trimmed string) {
	m := headingRe.FindStringSubmatch(trimmed)
	text := stripHeadingDecorations(m[2])
	p.emit(block.ContentBlock{
		Kind:  block.KindHeading,
		Text:  block.NormalizeText(StripInline(text)),
		Level: len(m[1]),
	})
	p.pos++
}

func (p *parser) parseCodeFence(trimmed string) {
	marker := fenceOpenRe.FindStringSubmatch(trimmed)[1]
	p.state = stateCodeFence
	p.pos++

	var inner []string
	for p.pos < len(p.lines) {
		candidate := strings.TrimSpace(p.lines[p.pos])
		if isFenceClose(candidate, marker) {
			p.pos++
			break
		}
		inner = append(inner, p.lines[p.pos])
		p.pos++
	}

	p.emit(block.ContentBlock{Kind: block.KindCode, Text: strings.Join(inner, "\n")})
	p.state = stateNone
}

func (p *parser) startListItem(line string) {
	m := listItemRe.FindStringSubmatch(line)
	p.itemIndent = len(m[1])
	p.item = []string{strings.TrimSpace(m[3])}
	p.state = stateListItem
	p.pos++
}

func (p *parser) emit(b block.ContentBlock) {
	p.blocks = append(p.blocks, b)
}

func isFenceClose(trimmed, marker string) bool {
	if len(trimmed) < len(marker) {
		return false
	}
	ch := marker[0]
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != ch {
			return false
		}
	}
	return true
}

func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}
