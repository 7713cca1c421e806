package synccmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

const (
	pullPageMessageType    = "pagesync.sync.pull_page"
	pushPageMessageType    = "pagesync.sync.push_page"
	previewDiffMessageType = "pagesync.sync.preview_diff"
)

func requiredText(code, label string) validation.Rule {
	return validation.By(func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, label+" is required")
		}
		return nil
	})
}

func validFormat(code string) validation.Rule {
	return validation.By(func(value any) error {
		switch interfaces.RemoteFormat(value.(string)) {
		case interfaces.RemoteFormatMarkup, interfaces.RemoteFormatNodeDoc:
			return nil
		}
		return validation.NewError(code, "format must be markup or nodedoc")
	})
}

// PullPageCommand brings a remote page body down into Markdown, recording
// the macro inventory and (optionally) the baseline snapshot.
type PullPageCommand struct {
	Space        string `json:"space"`
	PageKey      string `json:"page_key"`
	Title        string `json:"title,omitempty"`
	Markup       string `json:"markup"`
	SaveBaseline bool   `json:"save_baseline,omitempty"`
}

// Type implements command.Message.
func (PullPageCommand) Type() string { return pullPageMessageType }

// Validate ensures the page identity and body are present before handlers execute.
func (cmd PullPageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Space, validation.Required, requiredText("pagesync.sync.pull_page.space_required", "space")),
		validation.Field(&cmd.PageKey, validation.Required, requiredText("pagesync.sync.pull_page.page_key_required", "page key")),
		validation.Field(&cmd.Markup, validation.Required, requiredText("pagesync.sync.pull_page.markup_required", "markup body")),
	)
}

// PushPageCommand applies local Markdown edits surgically to a remote page
// body. Remote carries the current body in the named format.
type PushPageCommand struct {
	Space        string `json:"space"`
	PageKey      string `json:"page_key"`
	Title        string `json:"title,omitempty"`
	Markdown     string `json:"markdown"`
	Remote       string `json:"remote"`
	Format       string `json:"format"`
	SaveBaseline bool   `json:"save_baseline,omitempty"`
}

// Type implements command.Message.
func (PushPageCommand) Type() string { return pushPageMessageType }

// Validate ensures the push has both sides and a known remote format.
func (cmd PushPageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Space, validation.Required, requiredText("pagesync.sync.push_page.space_required", "space")),
		validation.Field(&cmd.PageKey, validation.Required, requiredText("pagesync.sync.push_page.page_key_required", "page key")),
		validation.Field(&cmd.Markdown, validation.Required, requiredText("pagesync.sync.push_page.markdown_required", "markdown body")),
		validation.Field(&cmd.Remote, validation.Required, requiredText("pagesync.sync.push_page.remote_required", "remote body")),
		validation.Field(&cmd.Format, validation.Required, validFormat("pagesync.sync.push_page.format_invalid")),
	)
}

// PreviewDiffCommand plans the operations a push would perform without
// applying them.
type PreviewDiffCommand struct {
	Title    string `json:"title,omitempty"`
	Markdown string `json:"markdown"`
	Remote   string `json:"remote"`
	Format   string `json:"format"`
}

// Type implements command.Message.
func (PreviewDiffCommand) Type() string { return previewDiffMessageType }

// Validate ensures both sides and a known remote format are present.
func (cmd PreviewDiffCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Markdown, validation.Required, requiredText("pagesync.sync.preview_diff.markdown_required", "markdown body")),
		validation.Field(&cmd.Remote, validation.Required, requiredText("pagesync.sync.preview_diff.remote_required", "remote body")),
		validation.Field(&cmd.Format, validation.Required, validFormat("pagesync.sync.preview_diff.format_invalid")),
	)
}
