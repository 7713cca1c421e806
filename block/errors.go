package block

import "fmt"

// StructuralError reports input that could not be parsed into a document
// tree at all: malformed markup, a node document whose root is not "doc",
// or schema violations. Structural problems are fatal for the call; they
// are returned as errors instead of landing in the per-operation counters.
type StructuralError struct {
	// Format names the document shape that failed ("markup", "nodedoc").
	Format string
	Reason string
	Cause  error
}

func (e *StructuralError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Format, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return e.Cause
}
