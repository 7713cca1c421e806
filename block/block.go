package block

// Kind identifies the canonical category of an extracted block.
type Kind string

const (
	// KindHeading is a section heading with a level between 1 and 6.
	KindHeading Kind = "heading"
	// KindParagraph is a run of plain prose.
	KindParagraph Kind = "paragraph"
	// KindTable is a tabular block carrying a cell matrix.
	KindTable Kind = "table"
	// KindListItem is a single list item; lists expand to one block per item.
	KindListItem Kind = "list_item"
	// KindCode is a code block whose text is kept verbatim.
	KindCode Kind = "code"
	// KindMacro marks opaque vendor content; never targeted by operations.
	KindMacro Kind = "macro"
	// KindOther covers block containers with no dedicated kind.
	KindOther Kind = "other"
)

// ContentBlock is the canonical projection shared by every extractor. The
// diff analyzer only ever compares ContentBlocks, so Markdown, markup-tree
// and node-id documents all meet in this shape.
type ContentBlock struct {
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	Level int    `json:"level,omitempty"`
	// Rows carries the cell matrix for table blocks, nil otherwise.
	Rows [][]string `json:"rows,omitempty"`
	// Position is the ordinal index in the emitting extractor's pass order.
	// Positions are only comparable between lists produced by the same
	// ordering rules.
	Position int `json:"position"`
	// Anchor holds the originating node id when the source format has one
	// (node-id tree localId). Empty for Markdown and markup sources.
	Anchor string `json:"anchor,omitempty"`
}

// IsOpaque reports whether the block projects vendor-owned content that
// surgical operations must never touch.
func (b ContentBlock) IsOpaque() bool {
	return b.Kind == KindMacro
}

// IsEmpty reports whether the block has no comparable text.
func (b ContentBlock) IsEmpty() bool {
	return NormalizeText(b.Text) == ""
}
