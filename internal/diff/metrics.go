package diff

import (
	"time"

	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// NoOpMetrics returns a metrics recorder that drops every observation.
func NoOpMetrics() interfaces.DiffMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) ObserveAnalyzeDuration(time.Duration) {}

func (noopMetrics) IncrementOperation(string) {}
