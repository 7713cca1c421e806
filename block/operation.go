package block

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OpType discriminates the closed set of surgical operations.
type OpType string

const (
	// OpUpdateText replaces the text of the block located by Target.
	OpUpdateText OpType = "update_text"
	// OpDeleteBlock removes the block located by Target.
	OpDeleteBlock OpType = "delete_block"
	// OpInsertBlock adds a new paragraph-equivalent block after Anchor.
	OpInsertBlock OpType = "insert_block"
	// OpChangeHeadingLevel moves a heading between levels, updating text too
	// when New differs from the current text.
	OpChangeHeadingLevel OpType = "change_heading_level"
	// OpTableUpdateCell rewrites one cell of the table located by Target.
	OpTableUpdateCell OpType = "table_update_cell"
	// OpTableInsertRow adds a row to the table located by Target.
	OpTableInsertRow OpType = "table_insert_row"
	// OpTableDeleteRow removes a row from the table located by Target.
	OpTableDeleteRow OpType = "table_delete_row"
)

// Operation is one surgical edit produced by the analyzer and consumed by
// the native editors. Targets carry canonical text, never node pointers, so
// a batch stays valid while the underlying tree mutates between diff and
// apply.
type Operation struct {
	Type OpType `json:"type"`
	// Target locates the block (or table) by canonical text.
	Target string `json:"target,omitempty"`
	// New carries replacement text for update-style operations and the body
	// of inserted blocks.
	New      string `json:"new,omitempty"`
	OldLevel int    `json:"old_level,omitempty"`
	NewLevel int    `json:"new_level,omitempty"`
	// Anchor is the text of the preceding block for insert_block, and the
	// pipe-joined preceding row content for table_insert_row.
	Anchor string `json:"anchor,omitempty"`
	// Row and Col address table cells in the before-side layout. Row may be
	// -1 when the row should be located by Cells content instead.
	Row int `json:"row,omitempty"`
	Col int `json:"col,omitempty"`
	// Cells is the typed row payload. Rows travel only as string slices;
	// nothing in the engine parses row content out of serialized literals.
	Cells []string `json:"cells,omitempty"`
}

var operationTypes = []any{
	OpUpdateText,
	OpDeleteBlock,
	OpInsertBlock,
	OpChangeHeadingLevel,
	OpTableUpdateCell,
	OpTableInsertRow,
	OpTableDeleteRow,
}

// Validate checks structural soundness before an editor attempts the
// operation. Editors count an invalid operation as a failure without
// applying it.
func (op Operation) Validate() error {
	if err := validation.ValidateStruct(&op,
		validation.Field(&op.Type, validation.Required, validation.In(operationTypes...)),
		validation.Field(&op.OldLevel, validation.Min(0), validation.Max(6)),
		validation.Field(&op.NewLevel, validation.Min(0), validation.Max(6)),
		validation.Field(&op.Row, validation.Min(-1)),
		validation.Field(&op.Col, validation.Min(0)),
	); err != nil {
		return err
	}

	switch op.Type {
	case OpUpdateText, OpDeleteBlock, OpChangeHeadingLevel,
		OpTableUpdateCell, OpTableInsertRow, OpTableDeleteRow:
		if strings.TrimSpace(op.Target) == "" {
			return validation.NewError("pagesync.block.operation.target_required", "target is required")
		}
	case OpInsertBlock:
		if strings.TrimSpace(op.New) == "" {
			return validation.NewError("pagesync.block.operation.new_required", "insert_block requires new text")
		}
	}

	switch op.Type {
	case OpChangeHeadingLevel:
		if op.NewLevel < 1 {
			return validation.NewError("pagesync.block.operation.level_required", "change_heading_level requires new_level >= 1")
		}
	case OpTableInsertRow:
		if len(op.Cells) == 0 {
			return validation.NewError("pagesync.block.operation.cells_required", "table_insert_row requires a cell payload")
		}
	case OpTableDeleteRow:
		if op.Row < 0 && len(op.Cells) == 0 {
			return validation.NewError("pagesync.block.operation.row_or_cells_required", "table_delete_row requires a row index or cell content")
		}
	}
	return nil
}

// IsTableOp reports whether the operation addresses rows or cells rather
// than whole blocks.
func (op Operation) IsTableOp() bool {
	switch op.Type {
	case OpTableUpdateCell, OpTableInsertRow, OpTableDeleteRow:
		return true
	}
	return false
}

// Reason classifies why an editor skipped an operation. Skips increment the
// failure counter and never abort the batch.
type Reason string

const (
	// ReasonTargetNotFound means no node resolved the target text.
	ReasonTargetNotFound Reason = "target_not_found"
	// ReasonRefused means the operation would have created, mutated, or
	// deleted opaque vendor content.
	ReasonRefused Reason = "refused_operation"
	// ReasonMalformedCells means the row payload was unusable.
	ReasonMalformedCells Reason = "malformed_cell_payload"
	// ReasonInvalid means Validate rejected the operation.
	ReasonInvalid Reason = "invalid_operation"
)

// Failure records one skipped operation for logs and results.
type Failure struct {
	Index  int    `json:"index"`
	Type   OpType `json:"type"`
	Target string `json:"target,omitempty"`
	Reason Reason `json:"reason"`
}
