package markup

import (
	"context"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Service bundles the markup extractor and surgical editor behind one
// entry point for the module facade and the sync workflows.
type Service struct {
	extractor *Extractor
	editor    *Editor
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	logger interfaces.Logger
}

// WithServiceLogger attaches a logger shared by the extractor and editor.
func WithServiceLogger(logger interfaces.Logger) ServiceOption {
	return func(cfg *serviceConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// NewService creates a markup service with the default extractor and editor.
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

	return &Service{
		extractor: NewExtractor(extractorOpts...),
		editor:    NewEditor(editorOpts...),
	}
}

// Extract parses markup content into the canonical block list.
func (s *Service) Extract(ctx context.Context, content string) ([]block.ContentBlock, error) {
	return s.extractor.Extract(ctx, content)
}

// Apply patches markup content with the supplied operations.
func (s *Service) Apply(ctx context.Context, content string, ops []block.Operation) (Result, error) {
	return s.editor.Apply(ctx, content, ops)
}

// Extractor exposes the underlying extractor.
func (s *Service) Extractor() *Extractor { return s.extractor }

// Editor exposes the underlying editor.
func (s *Service) Editor() *Editor { return s.editor }
