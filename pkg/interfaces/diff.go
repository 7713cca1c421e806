package interfaces

import (
	"context"
	"time"

	"github.com/goliatone/go-pagesync/block"
)

// DiffAnalyzer compares two canonical block lists and plans the surgical
// operations that turn the before content into the after content.
type DiffAnalyzer interface {
	Analyze(ctx context.Context, before, after []block.ContentBlock) []block.Operation
}

// DiffMetrics receives analyzer observations. Implementations must be safe
// for concurrent use.
type DiffMetrics interface {
	ObserveAnalyzeDuration(d time.Duration)
	IncrementOperation(opType string)
}
