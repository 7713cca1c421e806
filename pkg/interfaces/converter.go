package interfaces

import "context"

// MacroCategory separates restorable block macros from inline annotations,
// which flatten to their visible text and stay flattened.
type MacroCategory string

const (
	// MacroCategoryBlock marks a macro element preserved behind a
	// placeholder and restorable after conversion.
	MacroCategoryBlock MacroCategory = "block_macro"
	// MacroCategoryInlineAnnotation marks an inline annotation marker whose
	// text was kept but whose marker is not restorable from Markdown.
	MacroCategoryInlineAnnotation MacroCategory = "inline_annotation"
)

// MacroRecord captures one piece of vendor-owned content lifted out of a
// markup document before conversion.
type MacroRecord struct {
	// Placeholder is the text token standing in for the macro ("{{macro:N}}").
	Placeholder string `json:"placeholder,omitempty"`
	// NativeMarkup is the verbatim original element.
	NativeMarkup string        `json:"native_markup"`
	Name         string        `json:"name,omitempty"`
	Category     MacroCategory `json:"category"`
	// Ref is the annotation identifier for inline annotations.
	Ref string `json:"ref,omitempty"`
	// VisibleText is the flattened text an inline annotation left behind.
	VisibleText string `json:"visible_text,omitempty"`
}

// Converter performs full-document conversion between Markdown and the
// remote markup dialect. It exists for flows where no surgical base is
// available (first-time page creation, fresh pulls); day-to-day updates go
// through the diff analyzer and editors instead.
type Converter interface {
	// MarkdownToMarkup renders Markdown to markup and restores the supplied
	// macro records into their placeholders.
	MarkdownToMarkup(ctx context.Context, markdown string, macros []MacroRecord) (string, error)
	// MarkupToMarkdown preserves vendor content behind placeholders, then
	// converts the remainder to Markdown. The returned records let a later
	// push restore block macros.
	MarkupToMarkdown(ctx context.Context, markup string) (string, []MacroRecord, error)
}

// Merger reconciles a local and a remote revision against their common
// ancestor. Conflicting regions are emitted with conflict markers;
// orchestration of when to merge stays with the caller.
type Merger interface {
	Merge(base, ours, theirs string) (merged string, conflicts int, err error)
}
