package doctree

import (
	"context"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Service bundles the node-document extractor and editor behind one entry
// point for the module facade and the sync workflows.
type Service struct {
	logger    interfaces.Logger
	extractor *Extractor
	editor    *Editor
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	logger interfaces.Logger
	fuzzy  float64
}

// WithServiceLogger attaches a logger shared by the extractor and editor.
func WithServiceLogger(logger interfaces.Logger) ServiceOption {
	return func(cfg *serviceConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithServiceFuzzyThreshold overrides the editor's anchor re-targeting
// threshold.
func WithServiceFuzzyThreshold(threshold float64) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.fuzzy = threshold
	}
}

// NewService creates a node-document service with the default extractor
// and editor.
func NewService(opts ...ServiceOption) *Service {
	cfg := serviceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var extractorOpts []ExtractorOption
	var editorOpts []EditorOption
	if cfg.logger != nil {
		extractorOpts = append(extractorOpts, WithExtractorLogger(cfg.logger))
		editorOpts = append(editorOpts, WithEditorLogger(cfg.logger))
	}
	if cfg.fuzzy > 0 {
		editorOpts = append(editorOpts, WithFuzzyThreshold(cfg.fuzzy))
	}

	return &Service{
		logger:    cfg.logger,
		extractor: NewExtractor(extractorOpts...),
		editor:    NewEditor(editorOpts...),
	}
}

// Extract lists the canonical blocks of a parsed document.
func (s *Service) Extract(ctx context.Context, doc *Document) ([]block.ContentBlock, error) {
	return s.extractor.Extract(ctx, doc)
}

// ExtractWithTitle lists the canonical blocks, dropping a leading heading
// that duplicates the page title.
func (s *Service) ExtractWithTitle(ctx context.Context, doc *Document, title string) ([]block.ContentBlock, error) {
	if title == "" {
		return s.extractor.Extract(ctx, doc)
	}
	opts := []ExtractorOption{WithPageTitle(title)}
	if s.logger != nil {
		opts = append(opts, WithExtractorLogger(s.logger))
	}
	return NewExtractor(opts...).Extract(ctx, doc)
}

// Apply patches a document with the supplied operations, returning the
// edited copy. The input document is never mutated.
func (s *Service) Apply(ctx context.Context, doc *Document, ops []block.Operation, opts ...ApplyOption) (*Document, Result, error) {
	return s.editor.Apply(ctx, doc, ops, opts...)
}

// Extractor exposes the underlying extractor.
func (s *Service) Extractor() *Extractor { return s.extractor }

// Editor exposes the underlying editor.
func (s *Service) Editor() *Editor { return s.editor }
