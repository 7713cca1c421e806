// Package convert performs whole-document conversion between Markdown and
// the remote markup dialect. It serves the flows with no surgical base: a
// fresh pull brings markup down as Markdown, a first push renders Markdown
// up as markup. Vendor content crosses both directions behind the macro
// preserver's placeholders.
package convert

import (
	"bytes"
	"context"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/internal/macro"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Service implements interfaces.Converter. It is stateless apart from its
// collaborators, so one instance serves concurrent callers.
type Service struct {
	log       interfaces.Logger
	preserver *macro.Preserver
	engine    goldmark.Markdown
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithPreserver overrides the macro preserver.
func WithPreserver(p *macro.Preserver) Option {
	return func(s *Service) {
		if p != nil {
			s.preserver = p
		}
	}
}

// New constructs a converter with GFM-compatible rendering defaults.
func New(opts ...Option) *Service {
	s := &Service{
		log:       logging.NoOp(),
		preserver: macro.New(),
		engine: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.TaskList,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				// Vendor markup embedded in Markdown must pass through
				// verbatim, placeholders included.
				html.WithUnsafe(),
			),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkdownToMarkup renders Markdown to markup, then substitutes the supplied
// macro records back into their placeholders. Inline annotation records are
// ignored: their markers do not survive the Markdown round trip.
func (s *Service) MarkdownToMarkup(ctx context.Context, markdown string, macros []interfaces.MacroRecord) (string, error) {
	var buf bytes.Buffer
	if err := s.engine.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}

	restored, err := s.preserver.Restore(ctx, buf.String(), macros)
	if err != nil {
		return "", err
	}

	s.log.WithContext(ctx).Debug("convert.markdown_to_markup",
		"markdown_bytes", len(markdown),
		"markup_bytes", len(restored),
		"macros", len(macros),
	)
	return restored, nil
}

// MarkupToMarkdown lifts vendor content out behind placeholders, converts
// the remainder to Markdown, and returns the records a later push needs to
// restore block macros.
func (s *Service) MarkupToMarkdown(ctx context.Context, markup string) (string, []interfaces.MacroRecord, error) {
	preserved, records, err := s.preserver.Preserve(ctx, markup)
	if err != nil {
		return "", nil, err
	}

	markdown, err := htmltomarkdown.ConvertString(preserved)
	if err != nil {
		return "", nil, err
	}
	markdown = strings.TrimSpace(markdown) + "\n"

	s.log.WithContext(ctx).Debug("convert.markup_to_markdown",
		"markup_bytes", len(markup),
		"markdown_bytes", len(markdown),
		"macros", len(records),
	)
	return markdown, records, nil
}
