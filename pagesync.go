// Package pagesync synchronizes Markdown documents with remote wiki pages
// through block-level diffing and surgical patches, so untouched remote
// content (macros, annotations, unknown attributes) survives every sync.
package pagesync

import (
	"context"
	"fmt"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagesync/block"
	"github.com/goliatone/go-pagesync/internal/baseline"
	"github.com/goliatone/go-pagesync/internal/convert"
	"github.com/goliatone/go-pagesync/internal/diff"
	"github.com/goliatone/go-pagesync/internal/doctree"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/internal/logging/console"
	"github.com/goliatone/go-pagesync/internal/logging/gologger"
	"github.com/goliatone/go-pagesync/internal/markdown"
	"github.com/goliatone/go-pagesync/internal/markup"
	"github.com/goliatone/go-pagesync/internal/merge"
	"github.com/goliatone/go-pagesync/internal/remote"
	syncsvc "github.com/goliatone/go-pagesync/internal/sync"
	"github.com/goliatone/go-pagesync/pkg/interfaces"

	synccmd "github.com/goliatone/go-pagesync/internal/commands/sync"
)

// ContentBlock exports the canonical block model.
type ContentBlock = block.ContentBlock

// Kind exports the block kind enumeration.
type Kind = block.Kind

// Operation exports the surgical operation model.
type Operation = block.Operation

// OpType exports the operation type enumeration.
type OpType = block.OpType

// MacroRecord exports the preserved macro record.
type MacroRecord = interfaces.MacroRecord

// PullRequest / PullResult export the pull workflow contract.
type PullRequest = interfaces.PullRequest
type PullResult = interfaces.PullResult

// PushRequest / PushResult export the push workflow contract.
type PushRequest = interfaces.PushRequest
type PushResult = interfaces.PushResult

// PreviewRequest / PreviewResult export the preview workflow contract.
type PreviewRequest = interfaces.PreviewRequest
type PreviewResult = interfaces.PreviewResult

// RemoteFormat exports the remote body format enumeration.
type RemoteFormat = interfaces.RemoteFormat

const (
	FormatMarkup  = interfaces.RemoteFormatMarkup
	FormatNodeDoc = interfaces.RemoteFormatNodeDoc
)

// SyncService exports the high-level workflow contract.
type SyncService = interfaces.SyncService

// BaselineRepository exports the snapshot persistence contract.
type BaselineRepository = baseline.Repository

// BaselineSnapshot exports the stored snapshot record.
type BaselineSnapshot = baseline.Snapshot

// Logger and LoggerProvider export the logging contracts hosts implement.
type Logger = interfaces.Logger
type LoggerProvider = interfaces.LoggerProvider

// Command wiring surface for dispatcher integrations.
type (
	CommandRegistry    = synccmd.CommandRegistry
	CommandSinks       = synccmd.Sinks
	CommandHandlerSet  = synccmd.HandlerSet
	PullPageCommand    = synccmd.PullPageCommand
	PushPageCommand    = synccmd.PushPageCommand
	PreviewDiffCommand = synccmd.PreviewDiffCommand
)

// Module is the top level sync engine facade.
type Module struct {
	cfg       Config
	provider  interfaces.LoggerProvider
	markdown  *markdown.Extractor
	markup    *markup.Service
	documents *doctree.Service
	analyzer  *diff.Analyzer
	converter interfaces.Converter
	merger    interfaces.Merger
	baselines baseline.Repository
	links     *remote.LinkResolver
	sync      *syncsvc.Service
	db        *bun.DB
}

// Option overrides a module collaborator before wiring completes.
type Option func(*moduleOptions)

type moduleOptions struct {
	provider   interfaces.LoggerProvider
	metrics    interfaces.DiffMetrics
	db         *bun.DB
	baselines  baseline.Repository
	converter  interfaces.Converter
	merger     interfaces.Merger
	cacheSvc   repocache.CacheService
	serializer repocache.KeySerializer
}

// WithLogger installs a single logger used for every module namespace.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *moduleOptions) {
		if logger != nil {
			o.provider = singleLoggerProvider{logger: logger}
		}
	}
}

// WithLoggerProvider installs the provider used to fan out module loggers.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(o *moduleOptions) {
		if provider != nil {
			o.provider = provider
		}
	}
}

// WithMetrics attaches a metrics recorder to the diff analyzer.
func WithMetrics(metrics interfaces.DiffMetrics) Option {
	return func(o *moduleOptions) {
		o.metrics = metrics
	}
}

// WithBunDB supplies an existing database handle, skipping baseline.Open.
func WithBunDB(db *bun.DB) Option {
	return func(o *moduleOptions) {
		o.db = db
	}
}

// WithBaselineRepository overrides the snapshot repository entirely.
func WithBaselineRepository(repo baseline.Repository) Option {
	return func(o *moduleOptions) {
		o.baselines = repo
	}
}

// WithConverter overrides the full-document converter.
func WithConverter(converter interfaces.Converter) Option {
	return func(o *moduleOptions) {
		o.converter = converter
	}
}

// WithMerger overrides the three-way merger.
func WithMerger(merger interfaces.Merger) Option {
	return func(o *moduleOptions) {
		o.merger = merger
	}
}

// WithCache supplies the cache service and key serializer used by the
// baseline repository decorator when the cache feature is enabled.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(o *moduleOptions) {
		o.cacheSvc = service
		o.serializer = serializer
	}
}

// New constructs the sync engine from configuration plus optional overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := moduleOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	provider := options.provider
	if provider == nil && cfg.Features.Logger {
		built, err := buildLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		provider = built
	}

	m := &Module{
		cfg:      cfg,
		provider: provider,
		db:       options.db,
	}

	m.markdown = markdown.New(markdown.WithLogger(logging.MarkdownLogger(provider)))
	m.markup = markup.NewService(markup.WithServiceLogger(logging.MarkupLogger(provider)))
	m.documents = doctree.NewService(
		doctree.WithServiceLogger(logging.DoctreeLogger(provider)),
		doctree.WithServiceFuzzyThreshold(cfg.Diff.AnchorFuzzyThreshold),
	)

	analyzerOpts := []diff.AnalyzerOption{
		diff.WithLogger(logging.DiffLogger(provider)),
		diff.WithFuzzyThreshold(cfg.Diff.FuzzyThreshold),
		diff.WithCellMatchThreshold(cfg.Diff.CellMatchThreshold),
		diff.WithKeyPrefix(cfg.Diff.ExactKeyPrefix),
	}
	if options.metrics != nil {
		analyzerOpts = append(analyzerOpts, diff.WithMetrics(options.metrics))
	}
	m.analyzer = diff.NewAnalyzer(analyzerOpts...)

	m.converter = options.converter
	if m.converter == nil {
		m.converter = convert.New(convert.WithLogger(logging.ConvertLogger(provider)))
	}

	m.merger = options.merger
	if m.merger == nil {
		m.merger = merge.New(merge.WithLogger(logging.SyncLogger(provider)))
	}

	baselines, err := m.configureBaselines(options)
	if err != nil {
		return nil, err
	}
	m.baselines = baselines

	if cfg.Features.RemoteLinks {
		m.links = remote.New(cfg.Remote, remote.WithLogger(logging.SyncLogger(provider)))
	}

	m.sync = syncsvc.New(
		syncsvc.WithLogger(logging.SyncLogger(provider)),
		syncsvc.WithMarkdownExtractor(m.markdown),
		syncsvc.WithMarkupService(m.markup),
		syncsvc.WithDocumentService(m.documents),
		syncsvc.WithAnalyzer(m.analyzer),
		syncsvc.WithConverter(m.converter),
		syncsvc.WithBaselines(m.baselines),
		syncsvc.WithLinkResolver(m.links),
	)

	return m, nil
}

func (m *Module) configureBaselines(options moduleOptions) (baseline.Repository, error) {
	log := logging.BaselineLogger(m.provider)

	if options.baselines != nil {
		return options.baselines, nil
	}
	if !m.cfg.Features.Baseline {
		log.Debug("baseline.store.ready", "backend", "memory")
		return baseline.NewMemoryRepository(), nil
	}

	db := options.db
	if db == nil {
		opened, err := baseline.Open(m.cfg.Storage)
		if err != nil {
			return nil, err
		}
		db = opened
	}
	m.db = db

	if err := baseline.CreateSchema(context.Background(), db); err != nil {
		return nil, fmt.Errorf("pagesync: create baseline schema: %w", err)
	}

	if m.cfg.Features.Cache {
		cacheSvc := options.cacheSvc
		serializer := options.serializer
		if cacheSvc == nil {
			cfg := repocache.DefaultConfig()
			if m.cfg.Cache.DefaultTTL > 0 {
				cfg.TTL = m.cfg.Cache.DefaultTTL
			}
			service, err := repocache.NewCacheService(cfg)
			if err == nil {
				cacheSvc = service
			}
		}
		if cacheSvc != nil && serializer == nil {
			serializer = repocache.NewDefaultKeySerializer()
		}
		if cacheSvc != nil && serializer != nil {
			log.Debug("baseline.store.ready", "backend", m.cfg.Storage.Driver, "cache", true)
			return baseline.NewBunRepositoryWithCache(db, cacheSvc, serializer), nil
		}
	}
	log.Debug("baseline.store.ready", "backend", m.cfg.Storage.Driver, "cache", false)
	return baseline.NewBunRepository(db), nil
}

func buildLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "noop":
		return nil, nil
	case "console":
		level := console.ParseLevel(cfg.Level)
		return console.NewProvider(console.Options{MinLevel: &level}), nil
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Provider)
	}
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.cfg
}

// Markdown returns the Markdown block extractor.
func (m *Module) Markdown() *markdown.Extractor {
	return m.markdown
}

// Markup returns the markup extractor/editor service.
func (m *Module) Markup() *markup.Service {
	return m.markup
}

// Documents returns the node-document extractor/editor service.
func (m *Module) Documents() *doctree.Service {
	return m.documents
}

// Diff returns the block diff analyzer.
func (m *Module) Diff() *diff.Analyzer {
	return m.analyzer
}

// Converter returns the full-document converter.
func (m *Module) Converter() interfaces.Converter {
	return m.converter
}

// Merger returns the three-way text merger.
func (m *Module) Merger() interfaces.Merger {
	return m.merger
}

// Baselines returns the snapshot repository.
func (m *Module) Baselines() baseline.Repository {
	return m.baselines
}

// Links returns the remote link resolver, nil when the feature is disabled.
func (m *Module) Links() *remote.LinkResolver {
	return m.links
}

// Sync returns the high-level pull/push/preview service.
func (m *Module) Sync() interfaces.SyncService {
	return m.sync
}

// DB returns the baseline database handle, nil when storage is disabled or
// an external repository was supplied.
func (m *Module) DB() *bun.DB {
	return m.db
}

// LoggerProvider exposes the provider module loggers are derived from.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.provider
}

// RegisterCommands wires the pull, push, and preview command handlers into
// the supplied registry using the module's collaborators.
func (m *Module) RegisterCommands(reg synccmd.CommandRegistry, sinks synccmd.Sinks, opts ...synccmd.Option) (*synccmd.HandlerSet, error) {
	return synccmd.RegisterSyncCommands(reg, m.sync, m.provider, sinks, opts...)
}

type singleLoggerProvider struct {
	logger interfaces.Logger
}

func (p singleLoggerProvider) GetLogger(string) interfaces.Logger {
	return p.logger
}
