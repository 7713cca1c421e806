package diff

import (
	"context"
	"time"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/internal/runtimeconfig"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Analyzer plans surgical operations from block-list comparisons. The zero
// configuration matches the historic thresholds; every Analyze call is
// independent, so one Analyzer is safe for concurrent use.
type Analyzer struct {
	log     interfaces.Logger
	metrics interfaces.DiffMetrics

	fuzzyThreshold float64
	cellThreshold  float64
	keyPrefix      int
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger attaches a logger.
func WithLogger(logger interfaces.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.log = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(metrics interfaces.DiffMetrics) AnalyzerOption {
	return func(a *Analyzer) {
		if metrics != nil {
			a.metrics = metrics
		}
	}
}

// WithFuzzyThreshold overrides the minimum word-overlap ratio for pairing a
// changed block with its original.
func WithFuzzyThreshold(threshold float64) AnalyzerOption {
	return func(a *Analyzer) {
		if threshold > 0 && threshold <= 1 {
			a.fuzzyThreshold = threshold
		}
	}
}

// WithCellMatchThreshold overrides the minimum fraction of equal cells for
// two table rows to pair as an in-place edit.
func WithCellMatchThreshold(threshold float64) AnalyzerOption {
	return func(a *Analyzer) {
		if threshold > 0 && threshold <= 1 {
			a.cellThreshold = threshold
		}
	}
}

// WithKeyPrefix overrides how many leading characters of normalized text
// participate in exact-match keys.
func WithKeyPrefix(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.keyPrefix = n
		}
	}
}

// NewAnalyzer constructs an Analyzer with the default thresholds.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	defaults := runtimeconfig.DefaultConfig().Diff
	a := &Analyzer{
		log:            logging.NoOp(),
		metrics:        NoOpMetrics(),
		fuzzyThreshold: defaults.FuzzyThreshold,
		cellThreshold:  defaults.CellMatchThreshold,
		keyPrefix:      defaults.ExactKeyPrefix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze compares before and after block lists with the default analyzer.
func Analyze(before, after []block.ContentBlock) []block.Operation {
	return NewAnalyzer().Analyze(context.Background(), before, after)
}

// Analyze plans the operations that transform before into after. Identical
// lists yield an empty plan. The inputs are never mutated.
func (a *Analyzer) Analyze(ctx context.Context, before, after []block.ContentBlock) []block.Operation {
	start := time.Now()
	run := &analysis{
		Analyzer:      a,
		before:        before,
		after:         after,
		beforeMatched: make([]bool, len(before)),
		afterMatched:  make([]bool, len(after)),
		beforeByExact: make(map[string][]int),
		beforeByPos:   make(map[int]int, len(before)),
	}

	run.exactPass()
	run.positionalPass()
	run.fuzzyPass()
	run.insertPass()
	run.deletePass()

	for _, op := range run.ops {
		a.metrics.IncrementOperation(string(op.Type))
	}
	a.metrics.ObserveAnalyzeDuration(time.Since(start))
	a.log.WithContext(ctx).Debug("diff.analyze",
		"before", len(before),
		"after", len(after),
		"operations", len(run.ops),
	)
	return run.ops
}

type analysis struct {
	*Analyzer

	before, after []block.ContentBlock

	beforeMatched []bool
	afterMatched  []bool

	beforeByExact map[string][]int
	beforeByPos   map[int]int

	ops []block.Operation
}

func (r *analysis) emit(op block.Operation) {
	r.ops = append(r.ops, op)
}

// exactPass consumes unchanged blocks by identity key. This is the only pass
// macro blocks participate in: their synthetic texts either survive verbatim
// or the block counts as removed remote-side content.
func (r *analysis) exactPass() {
	for i, b := range r.before {
		key := block.Key(b, r.keyPrefix)
		r.beforeByExact[key] = append(r.beforeByExact[key], i)
	}
	for i, b := range r.after {
		key := block.Key(b, r.keyPrefix)
		queue := r.beforeByExact[key]
		if len(queue) == 0 {
			continue
		}
		j := queue[0]
		r.beforeByExact[key] = queue[1:]
		r.beforeMatched[j] = true
		r.afterMatched[i] = true
	}
}

// positionalPass pairs leftover blocks that kept their ordinal slot and
// kind. A block edited in place lands here.
func (r *analysis) positionalPass() {
	for j, b := range r.before {
		r.beforeByPos[b.Position] = j
	}
	for i := range r.after {
		if r.afterMatched[i] {
			continue
		}
		ab := r.after[i]
		if ab.IsOpaque() {
			continue
		}
		j, ok := r.beforeByPos[ab.Position]
		if !ok || r.beforeMatched[j] {
			continue
		}
		bb := r.before[j]
		if bb.IsOpaque() || bb.Kind != ab.Kind {
			continue
		}
		r.pairChanged(i, j)
	}
}

// fuzzyPass pairs each remaining after-block with the most similar
// remaining before-block of the same kind.
func (r *analysis) fuzzyPass() {
	for i := range r.after {
		if r.afterMatched[i] {
			continue
		}
		ab := r.after[i]
		if ab.IsOpaque() {
			continue
		}
		best := -1
		bestScore := 0.0
		for j := range r.before {
			if r.beforeMatched[j] {
				continue
			}
			bb := r.before[j]
			if bb.IsOpaque() || bb.Kind != ab.Kind {
				continue
			}
			score := block.Overlap(ab.Text, bb.Text)
			if score >= r.fuzzyThreshold && score > bestScore {
				best, bestScore = j, score
			}
		}
		if best < 0 {
			continue
		}
		r.pairFuzzy(i, best)
	}
}

// pairFuzzy consumes a fuzzily-matched after/before pair. Heading levels
// are an exact/positional concern, so this pass only rewrites text; table
// pairs go to the sub-analyzer.
func (r *analysis) pairFuzzy(i, j int) {
	ab, bb := r.after[i], r.before[j]
	r.beforeMatched[j] = true
	r.afterMatched[i] = true

	if bb.Kind == block.KindTable {
		r.ops = append(r.ops, r.analyzeTable(bb, ab)...)
		return
	}
	if block.NormalizeText(bb.Text) == block.NormalizeText(ab.Text) {
		return
	}
	if bb.IsEmpty() || ab.IsEmpty() {
		return
	}
	r.emit(block.Operation{
		Type:   block.OpUpdateText,
		Target: bb.Text,
		New:    ab.Text,
	})
}

// pairChanged emits the operation for an after/before pair already judged to
// be the same block, and consumes both sides.
func (r *analysis) pairChanged(i, j int) {
	ab, bb := r.after[i], r.before[j]
	r.beforeMatched[j] = true
	r.afterMatched[i] = true

	switch {
	case bb.Kind == block.KindHeading && bb.Level != ab.Level:
		r.emit(block.Operation{
			Type:     block.OpChangeHeadingLevel,
			Target:   bb.Text,
			New:      ab.Text,
			OldLevel: bb.Level,
			NewLevel: ab.Level,
		})
	case bb.Kind == block.KindTable:
		r.ops = append(r.ops, r.analyzeTable(bb, ab)...)
	case block.NormalizeText(bb.Text) != block.NormalizeText(ab.Text):
		if bb.IsEmpty() || ab.IsEmpty() {
			return
		}
		r.emit(block.Operation{
			Type:   block.OpUpdateText,
			Target: bb.Text,
			New:    ab.Text,
		})
	}
}

// insertPass turns each still-unmatched after-block into an insert anchored
// to its predecessor in the after list.
func (r *analysis) insertPass() {
	for i := range r.after {
		if r.afterMatched[i] {
			continue
		}
		ab := r.after[i]
		if ab.IsOpaque() || ab.IsEmpty() {
			continue
		}
		anchor := ""
		if i > 0 {
			anchor = r.after[i-1].Text
		}
		r.emit(block.Operation{
			Type:   block.OpInsertBlock,
			New:    ab.Text,
			Anchor: anchor,
		})
	}
}

// deletePass removes before-blocks nothing claimed. Opaque and empty blocks
// are left alone: the former must survive, the latter cannot be targeted.
func (r *analysis) deletePass() {
	for j := range r.before {
		if r.beforeMatched[j] {
			continue
		}
		bb := r.before[j]
		if bb.IsOpaque() || bb.IsEmpty() {
			continue
		}
		r.emit(block.Operation{
			Type:   block.OpDeleteBlock,
			Target: bb.Text,
		})
	}
}
