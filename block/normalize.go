package block

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// DefaultKeyPrefix is the number of leading characters of normalized text
// that participate in exact-match keys.
const DefaultKeyPrefix = 100

// NormalizeText collapses every whitespace run to a single space and trims
// the result. All block comparisons go through this.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeKey lowercases on top of NormalizeText for case-insensitive
// comparisons.
func NormalizeKey(s string) string {
	return strings.ToLower(NormalizeText(s))
}

// WordSet splits normalized, lowercased text into a set of words.
func WordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Overlap scores word similarity as |intersection| / min(|a|, |b|).
// Empty inputs score zero.
func Overlap(a, b string) float64 {
	sa := WordSet(a)
	sb := WordSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	small, large := sa, sb
	if len(sb) < len(sa) {
		small, large = sb, sa
	}
	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

// JoinRow pipe-joins a row's cells for identity comparisons.
func JoinRow(cells []string) string {
	return strings.Join(cells, "|")
}

// NormalizeRow lowercases and whitespace-collapses each cell before
// pipe-joining, yielding the row identity used for table matching.
func NormalizeRow(cells []string) string {
	normalized := make([]string, len(cells))
	for i, cell := range cells {
		normalized[i] = NormalizeKey(cell)
	}
	return strings.Join(normalized, "|")
}

// RowsHash hashes the normalized row identities of a table. Distinct tables
// can collide; the match key also carries the row count, and the historic
// behavior tolerates the residual risk.
func RowsHash(rows [][]string) uint64 {
	h := fnv.New64a()
	for _, row := range rows {
		h.Write([]byte(NormalizeRow(row)))
		h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

// Key builds the exact-match identity for a block. Text blocks key on
// (kind, level, leading prefixLen characters of normalized text); tables key
// on (kind, row count, rows hash). prefixLen <= 0 falls back to
// DefaultKeyPrefix.
func Key(b ContentBlock, prefixLen int) string {
	if prefixLen <= 0 {
		prefixLen = DefaultKeyPrefix
	}
	if b.Kind == KindTable {
		return fmt.Sprintf("%s|%d|%x", b.Kind, len(b.Rows), RowsHash(b.Rows))
	}
	text := NormalizeText(b.Text)
	if runes := []rune(text); len(runes) > prefixLen {
		text = string(runes[:prefixLen])
	}
	return fmt.Sprintf("%s|%d|%s", b.Kind, b.Level, text)
}
