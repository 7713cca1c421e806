// Package sync orchestrates the pull, push, and preview workflows over the
// extractors, the diff analyzer, the surgical editors, and the baseline
// store.
package sync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/baseline"
	"github.com/goliatone/go-pagesync/internal/convert"
	"github.com/goliatone/go-pagesync/internal/diff"
	"github.com/goliatone/go-pagesync/internal/doctree"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/internal/markdown"
	"github.com/goliatone/go-pagesync/internal/markup"
	"github.com/goliatone/go-pagesync/internal/remote"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

var ErrMarkupRequired = errors.New("sync: markup body is required")
var ErrMarkdownRequired = errors.New("sync: markdown body is required")
var ErrRemoteRequired = errors.New("sync: remote body is required")
var ErrFormatUnknown = errors.New("sync: remote format is unknown")

// Service implements interfaces.SyncService by wiring the block extractors,
// the diff analyzer, and the editors into the page workflows.
type Service struct {
	log       interfaces.Logger
	markdown  *markdown.Extractor
	markup    *markup.Service
	documents *doctree.Service
	analyzer  interfaces.DiffAnalyzer
	converter interfaces.Converter
	baselines baseline.Repository
	links     *remote.LinkResolver
	now       func() time.Time
}

var _ interfaces.SyncService = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithMarkdownExtractor overrides the Markdown block extractor.
func WithMarkdownExtractor(extractor *markdown.Extractor) Option {
	return func(s *Service) {
		if extractor != nil {
			s.markdown = extractor
		}
	}
}

// WithMarkupService overrides the markup extractor/editor pair.
func WithMarkupService(service *markup.Service) Option {
	return func(s *Service) {
		if service != nil {
			s.markup = service
		}
	}
}

// WithDocumentService overrides the node-document extractor/editor pair.
func WithDocumentService(service *doctree.Service) Option {
	return func(s *Service) {
		if service != nil {
			s.documents = service
		}
	}
}

// WithAnalyzer overrides the diff analyzer.
func WithAnalyzer(analyzer interfaces.DiffAnalyzer) Option {
	return func(s *Service) {
		if analyzer != nil {
			s.analyzer = analyzer
		}
	}
}

// WithConverter overrides the full-document converter.
func WithConverter(converter interfaces.Converter) Option {
	return func(s *Service) {
		if converter != nil {
			s.converter = converter
		}
	}
}

// WithBaselines attaches the snapshot repository. Without one, pull and
// push skip baseline bookkeeping.
func WithBaselines(repo baseline.Repository) Option {
	return func(s *Service) {
		s.baselines = repo
	}
}

// WithLinkResolver attaches the remote link resolver used to enrich logs.
func WithLinkResolver(resolver *remote.LinkResolver) Option {
	return func(s *Service) {
		s.links = resolver
	}
}

// WithClock overrides the time source for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a sync service with default collaborators for anything not
// supplied via options.
func New(opts ...Option) *Service {
	s := &Service{
		log: logging.NoOp(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.markdown == nil {
		s.markdown = markdown.New(markdown.WithLogger(s.log))
	}
	if s.markup == nil {
		s.markup = markup.NewService(markup.WithServiceLogger(s.log))
	}
	if s.documents == nil {
		s.documents = doctree.NewService(doctree.WithServiceLogger(s.log))
	}
	if s.analyzer == nil {
		s.analyzer = diff.NewAnalyzer(diff.WithLogger(s.log))
	}
	if s.converter == nil {
		s.converter = convert.New(convert.WithLogger(s.log))
	}
	return s
}

// Pull converts a remote markup body into Markdown, records the macro
// inventory, and optionally stores the baseline snapshot.
func (s *Service) Pull(ctx context.Context, req interfaces.PullRequest) (*interfaces.PullResult, error) {
	if strings.TrimSpace(req.Markup) == "" {
		return nil, ErrMarkupRequired
	}

	md, macros, err := s.converter.MarkupToMarkdown(ctx, req.Markup)
	if err != nil {
		return nil, err
	}

	if req.SaveBaseline {
		if err := s.saveBaseline(ctx, req.Space, req.PageKey, req.Title, string(interfaces.RemoteFormatMarkup), req.Markup); err != nil {
			return nil, err
		}
	}

	logger := logging.WithPageContext(s.log.WithContext(ctx), req.Space, req.PageKey, "pull")
	logger.Info("sync.pull.completed",
		"markdown_bytes", len(md),
		"macro_count", len(macros),
		"page_url", s.pageURL(req.Space, req.PageKey),
	)

	return &interfaces.PullResult{Markdown: md, Macros: macros}, nil
}

// Push diffs local Markdown against the baseline (preferred) or the remote
// body and applies the resulting operations to the remote body surgically.
func (s *Service) Push(ctx context.Context, req interfaces.PushRequest) (*interfaces.PushResult, error) {
	if strings.TrimSpace(req.Markdown) == "" {
		return nil, ErrMarkdownRequired
	}
	if strings.TrimSpace(req.Remote) == "" {
		return nil, ErrRemoteRequired
	}

	after, err := s.extractLocal(ctx, req.Markdown, req.Title)
	if err != nil {
		return nil, err
	}

	base := s.diffBase(ctx, req)

	var result *interfaces.PushResult
	switch req.Format {
	case interfaces.RemoteFormatMarkup:
		result, err = s.pushMarkup(ctx, req, base, after)
	case interfaces.RemoteFormatNodeDoc:
		result, err = s.pushNodeDoc(ctx, req, base, after)
	default:
		return nil, ErrFormatUnknown
	}
	if err != nil {
		return nil, err
	}

	if req.SaveBaseline {
		if err := s.saveBaseline(ctx, req.Space, req.PageKey, req.Title, string(req.Format), result.Content); err != nil {
			return nil, err
		}
	}

	logger := logging.WithPageContext(s.log.WithContext(ctx), req.Space, req.PageKey, "push")
	logger.Info("sync.push.completed",
		"format", string(req.Format),
		"operations", len(result.Operations),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"page_url", s.pageURL(req.Space, req.PageKey),
	)

	return result, nil
}

// Preview reports the operations a push would perform without applying them.
func (s *Service) Preview(ctx context.Context, req interfaces.PreviewRequest) (*interfaces.PreviewResult, error) {
	if strings.TrimSpace(req.Markdown) == "" {
		return nil, ErrMarkdownRequired
	}
	if strings.TrimSpace(req.Remote) == "" {
		return nil, ErrRemoteRequired
	}

	after, err := s.extractLocal(ctx, req.Markdown, req.Title)
	if err != nil {
		return nil, err
	}

	var before []block.ContentBlock
	switch req.Format {
	case interfaces.RemoteFormatMarkup:
		before, err = s.markup.Extract(ctx, req.Remote)
	case interfaces.RemoteFormatNodeDoc:
		var doc *doctree.Document
		doc, err = doctree.Parse([]byte(req.Remote))
		if err == nil {
			before, err = s.documents.ExtractWithTitle(ctx, doc, req.Title)
		}
	default:
		return nil, ErrFormatUnknown
	}
	if err != nil {
		return nil, err
	}

	ops := s.analyzer.Analyze(ctx, before, after)
	s.log.WithContext(ctx).Debug("sync.preview.completed",
		"format", string(req.Format),
		"operations", len(ops),
	)
	return &interfaces.PreviewResult{Operations: ops}, nil
}

func (s *Service) pushMarkup(ctx context.Context, req interfaces.PushRequest, base string, after []block.ContentBlock) (*interfaces.PushResult, error) {
	before, err := s.markup.Extract(ctx, base)
	if err != nil {
		return nil, err
	}

	ops := s.analyzer.Analyze(ctx, before, after)
	res, err := s.markup.Apply(ctx, req.Remote, ops)
	if err != nil {
		return nil, err
	}

	return &interfaces.PushResult{
		Content:    res.Content,
		Operations: ops,
		Succeeded:  res.Succeeded,
		Failed:     res.Failed,
	}, nil
}

func (s *Service) pushNodeDoc(ctx context.Context, req interfaces.PushRequest, base string, after []block.ContentBlock) (*interfaces.PushResult, error) {
	remoteDoc, err := doctree.Parse([]byte(req.Remote))
	if err != nil {
		return nil, err
	}

	baseDoc := remoteDoc
	if base != req.Remote {
		baseDoc, err = doctree.Parse([]byte(base))
		if err != nil {
			return nil, err
		}
	}

	before, err := s.documents.ExtractWithTitle(ctx, baseDoc, req.Title)
	if err != nil {
		return nil, err
	}

	// Anchors come from the remote document because that is the tree the
	// editor mutates; baseline blocks may carry stale local ids.
	anchorBlocks := before
	if baseDoc != remoteDoc {
		anchorBlocks, err = s.documents.ExtractWithTitle(ctx, remoteDoc, req.Title)
		if err != nil {
			return nil, err
		}
	}

	ops := s.analyzer.Analyze(ctx, before, after)
	patched, res, err := s.documents.Apply(ctx, remoteDoc, ops, doctree.WithAnchors(doctree.Anchors(anchorBlocks)))
	if err != nil {
		return nil, err
	}

	data, err := doctree.Marshal(patched)
	if err != nil {
		return nil, err
	}

	return &interfaces.PushResult{
		Content:    string(data),
		Operations: ops,
		Succeeded:  res.Succeeded,
		Failed:     res.Failed,
	}, nil
}

// diffBase prefers the stored baseline as the before-side of the diff so
// remote-only edits in untouched blocks survive a push.
// extractLocal lists the local Markdown blocks, dropping a leading heading
// that duplicates the page title so both comparison sides filter it alike.
func (s *Service) extractLocal(ctx context.Context, source, title string) ([]block.ContentBlock, error) {
	if title == "" {
		return s.markdown.Extract(ctx, source)
	}
	return markdown.New(markdown.WithLogger(s.log), markdown.WithPageTitle(title)).Extract(ctx, source)
}

func (s *Service) diffBase(ctx context.Context, req interfaces.PushRequest) string {
	if s.baselines == nil {
		return req.Remote
	}
	snap, err := s.baselines.Get(ctx, req.Space, req.PageKey)
	if err != nil {
		var notFound *baseline.NotFoundError
		if !errors.As(err, &notFound) {
			s.log.WithContext(ctx).Warn("sync.push.baseline_lookup_failed",
				"space", req.Space,
				"page_key", req.PageKey,
				"error", err,
			)
		}
		return req.Remote
	}
	if snap.Format != string(req.Format) || strings.TrimSpace(snap.Content) == "" {
		return req.Remote
	}
	return snap.Content
}

func (s *Service) saveBaseline(ctx context.Context, space, pageKey, title, format, content string) error {
	if s.baselines == nil {
		return nil
	}
	_, err := s.baselines.Save(ctx, &baseline.Snapshot{
		Space:    space,
		PageKey:  pageKey,
		Title:    title,
		Format:   format,
		Content:  content,
		SyncedAt: s.now().UTC(),
	})
	return err
}

func (s *Service) pageURL(space, pageKey string) string {
	if s.links == nil || !s.links.Enabled() {
		return ""
	}
	url, err := s.links.PageURL(space, pageKey)
	if err != nil {
		return ""
	}
	return url
}
