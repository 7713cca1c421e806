package diff

import (
	"sort"

	"github.com/goliatone/go-pagesync/block"
)

// analyzeTable plans row-level operations for a before/after table pair.
// Every operation targets the BEFORE table's canonical text and addresses
// rows in before-table coordinates; deletes come out in descending row order
// so that applying them top-down never shifts a later index.
func (a *Analyzer) analyzeTable(before, after block.ContentBlock) []block.Operation {
	target := before.Text

	beforeMatched := make([]bool, len(before.Rows))
	afterMatched := make([]bool, len(after.Rows))

	// Identical rows consume each other first-come.
	byIdentity := make(map[string][]int, len(before.Rows))
	for j, row := range before.Rows {
		id := block.NormalizeRow(row)
		byIdentity[id] = append(byIdentity[id], j)
	}
	for i, row := range after.Rows {
		id := block.NormalizeRow(row)
		queue := byIdentity[id]
		if len(queue) == 0 {
			continue
		}
		byIdentity[id] = queue[1:]
		beforeMatched[queue[0]] = true
		afterMatched[i] = true
	}

	// Pair edited rows by shared cells, then patch the differing cells.
	var updates []block.Operation
	for i, row := range after.Rows {
		if afterMatched[i] {
			continue
		}
		best := -1
		bestScore := 0.0
		for j, orig := range before.Rows {
			if beforeMatched[j] || len(orig) != len(row) {
				continue
			}
			score := rowSimilarity(orig, row)
			if score < a.cellThreshold {
				continue
			}
			if score > bestScore || (score == bestScore && j == i) {
				best, bestScore = j, score
			}
		}
		if best < 0 {
			continue
		}
		beforeMatched[best] = true
		afterMatched[i] = true
		for col := range row {
			if block.NormalizeKey(before.Rows[best][col]) == block.NormalizeKey(row[col]) {
				continue
			}
			updates = append(updates, block.Operation{
				Type:   block.OpTableUpdateCell,
				Target: target,
				Row:    best,
				Col:    col,
				New:    row[col],
			})
		}
	}

	var deleted []int
	for j := range before.Rows {
		if !beforeMatched[j] {
			deleted = append(deleted, j)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(deleted)))

	var deletes []block.Operation
	for _, j := range deleted {
		op := block.Operation{
			Type:   block.OpTableDeleteRow,
			Target: target,
			Row:    j,
		}
		// Entirely empty rows are identified by index alone.
		if !rowEmpty(before.Rows[j]) {
			op.Cells = before.Rows[j]
		}
		deletes = append(deletes, op)
	}

	var inserts []block.Operation
	for i, row := range after.Rows {
		if afterMatched[i] {
			continue
		}
		anchor := ""
		if i > 0 {
			anchor = block.JoinRow(after.Rows[i-1])
		}
		inserts = append(inserts, block.Operation{
			Type:   block.OpTableInsertRow,
			Target: target,
			Row:    i,
			Cells:  row,
			Anchor: anchor,
		})
	}

	ops := make([]block.Operation, 0, len(updates)+len(deletes)+len(inserts))
	ops = append(ops, updates...)
	ops = append(ops, deletes...)
	ops = append(ops, inserts...)
	return ops
}

func rowEmpty(cells []string) bool {
	for _, cell := range cells {
		if block.NormalizeText(cell) != "" {
			return false
		}
	}
	return true
}

// rowSimilarity is the fraction of equal cells between two same-length rows.
func rowSimilarity(a, b []string) float64 {
	if len(a) == 0 {
		return 0
	}
	equal := 0
	for i := range a {
		if block.NormalizeKey(a[i]) == block.NormalizeKey(b[i]) {
			equal++
		}
	}
	return float64(equal) / float64(len(a))
}
