package markdown

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-pagesync/block"
)

var (
	pipeSeparatorRe   = regexp.MustCompile(`^\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?$`)
	simpleSeparatorRe = regexp.MustCompile(`^[-=]{2,}(\s+[-=]{2,})+$`)
	gridBorderRe      = regexp.MustCompile(`^\+[-=]+(\+[-=]+)*\+$`)
)

func isPipeSeparator(trimmed string) bool {
	return strings.Contains(trimmed, "|") && strings.Contains(trimmed, "-") &&
		pipeSeparatorRe.MatchString(trimmed)
}

func isSimpleSeparator(trimmed string) bool {
	return simpleSeparatorRe.MatchString(trimmed)
}

func isGridBorder(trimmed string) bool {
	return gridBorderRe.MatchString(trimmed)
}

// isPipeTableStart recognises a bordered pipe row, or an unbordered header
// row when the next line is a pipe separator.
func (p *parser) isPipeTableStart(trimmed string) bool {
	if !strings.Contains(trimmed, "|") {
		return false
	}
	if strings.HasPrefix(trimmed, "|") {
		return true
	}
	if p.pos+1 < len(p.lines) && isPipeSeparator(strings.TrimSpace(p.lines[p.pos+1])) {
		return true
	}
	return false
}

func (p *parser) parsePipeTable() {
	p.state = statePipeTable
	var rows [][]string
	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if trimmed == "" || !strings.Contains(trimmed, "|") {
			break
		}
		if isPipeSeparator(trimmed) {
			p.pos++
			continue
		}
		rows = append(rows, splitPipeCells(trimmed))
		p.pos++
	}
	p.emitTable(rows)
	p.state = stateNone
}

// parseSimpleTable handles whitespace-aligned tables where the dash
// separator either follows the header row (held in the paragraph buffer)
// or precedes it.
func (p *parser) parseSimpleTable() {
	p.state = stateSimpleTable
	spans := dashSpans(p.lines[p.pos])
	var rows [][]string

	if len(p.para) > 0 {
		header := p.para[len(p.para)-1]
		p.para = p.para[:len(p.para)-1]
		p.flushPara()
		rows = append(rows, sliceColumns(header, spans))
		p.pos++
	} else {
		p.flush()
		p.pos++
		if p.pos < len(p.lines) {
			trimmed := strings.TrimSpace(p.lines[p.pos])
			if trimmed != "" && !isSimpleSeparator(trimmed) {
				rows = append(rows, sliceColumns(p.lines[p.pos], spans))
				p.pos++
				if p.pos < len(p.lines) && isSimpleSeparator(strings.TrimSpace(p.lines[p.pos])) {
					p.pos++
				}
			}
		}
	}

	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if trimmed == "" {
			break
		}
		if isSimpleSeparator(trimmed) {
			// Closing separator terminates the table.
			p.pos++
			break
		}
		rows = append(rows, sliceColumns(p.lines[p.pos], spans))
		p.pos++
	}

	p.emitTable(rows)
	p.state = stateNone
}

// parseGridTable handles border-drawn tables. Interior lines between two
// border lines form one logical row; their cells concatenate with a space.
func (p *parser) parseGridTable() {
	p.state = stateGridTable
	p.pos++

	var rows [][]string
	var pending [][]string

	flushRow := func() {
		if len(pending) == 0 {
			return
		}
		rows = append(rows, mergeGridRow(pending))
		pending = nil
	}

	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if isGridBorder(trimmed) {
			flushRow()
			p.pos++
			if p.pos >= len(p.lines) || !strings.HasPrefix(strings.TrimSpace(p.lines[p.pos]), "|") {
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "|") {
			pending = append(pending, splitPipeCells(trimmed))
			p.pos++
			continue
		}
		break
	}
	flushRow()

	p.emitTable(rows)
	p.state = stateNone
}

func (p *parser) emitTable(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	var parts []string
	for _, row := range rows {
		for _, cell := range row {
			if cell != "" {
				parts = append(parts, cell)
			}
		}
	}
	p.emit(block.ContentBlock{
		Kind: block.KindTable,
		Text: block.NormalizeText(strings.Join(parts, " ")),
		Rows: rows,
	})
}

func splitPipeCells(trimmed string) []string {
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	raw := strings.Split(trimmed, "|")
	cells := make([]string, len(raw))
	for i, cell := range raw {
		cells[i] = block.NormalizeText(StripInline(cell))
	}
	return cells
}

// dashSpans records the byte offsets of each dash group on a separator
// line; they define the column layout for whitespace-aligned tables.
func dashSpans(line string) [][2]int {
	var spans [][2]int
	start := -1
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '-', '=':
			if start < 0 {
				start = i
			}
		default:
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(line)})
	}
	return spans
}

// sliceColumns cuts a row line at the separator's column boundaries. Each
// column extends to the start of the next dash group so ragged content is
// still captured; the final column runs to end of line.
func sliceColumns(line string, spans [][2]int) []string {
	cells := make([]string, len(spans))
	for i, span := range spans {
		start := span[0]
		if start > len(line) {
			start = len(line)
		}
		end := len(line)
		if i+1 < len(spans) && spans[i+1][0] < end {
			end = spans[i+1][0]
		}
		if start > end {
			start = end
		}
		cells[i] = block.NormalizeText(StripInline(line[start:end]))
	}
	return cells
}

func mergeGridRow(pending [][]string) []string {
	width := 0
	for _, cells := range pending {
		if len(cells) > width {
			width = len(cells)
		}
	}
	row := make([]string, width)
	for col := 0; col < width; col++ {
		var parts []string
		for _, cells := range pending {
			if col < len(cells) && cells[col] != "" {
				parts = append(parts, cells[col])
			}
		}
		row[col] = strings.Join(parts, " ")
	}
	return row
}
