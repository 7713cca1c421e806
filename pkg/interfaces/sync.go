package interfaces

import (
	"context"

	"github.com/goliatone/go-pagesync/block"
)

// RemoteFormat names the native shape of a remote page body.
type RemoteFormat string

const (
	// RemoteFormatMarkup is the HTML-like markup tree with vendor elements.
	RemoteFormatMarkup RemoteFormat = "markup"
	// RemoteFormatNodeDoc is the JSON node-id document tree.
	RemoteFormatNodeDoc RemoteFormat = "nodedoc"
)

// PullRequest asks for a remote body to be brought down into Markdown.
type PullRequest struct {
	Space        string
	PageKey      string
	Title        string
	Markup       string
	SaveBaseline bool
}

// PullResult reports the converted Markdown plus the macro records a later
// push needs to restore vendor content.
type PullResult struct {
	Markdown string
	Macros   []MacroRecord
}

// PushRequest asks for local Markdown edits to be applied surgically to the
// remote body. Remote carries the current body; when a baseline snapshot
// exists it is preferred as the diff base.
type PushRequest struct {
	Space        string
	PageKey      string
	Title        string
	Markdown     string
	Remote       string
	Format       RemoteFormat
	SaveBaseline bool
}

// PushResult carries the patched body and the batch counters.
type PushResult struct {
	Content    string
	Operations []block.Operation
	Succeeded  int
	Failed     int
}

// PreviewRequest asks for the operations a push would perform, without
// applying them.
type PreviewRequest struct {
	Title    string
	Markdown string
	Remote   string
	Format   RemoteFormat
}

// PreviewResult lists the planned operations.
type PreviewResult struct {
	Operations []block.Operation
}

// SyncService is the high-level contract the command layer and CLI consume.
type SyncService interface {
	Pull(ctx context.Context, req PullRequest) (*PullResult, error)
	Push(ctx context.Context, req PushRequest) (*PushResult, error)
	Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error)
}
