package synccmd

import (
	"errors"

	"github.com/goliatone/go-pagesync/internal/commands"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the sync command handlers produced by RegisterSyncCommands.
type HandlerSet struct {
	Pull    *PullPageHandler
	Push    *PushPageHandler
	Preview *PreviewDiffHandler
}

// Sinks carries the optional result callbacks for each command flow.
type Sinks struct {
	Pull    PullResultSink
	Push    PushResultSink
	Preview PreviewResultSink
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	pullHandlerOpts    []commands.HandlerOption[PullPageCommand]
	pushHandlerOpts    []commands.HandlerOption[PushPageCommand]
	previewHandlerOpts []commands.HandlerOption[PreviewDiffCommand]
}

// WithPullHandlerOptions forwards options to the PullPageHandler constructor.
func WithPullHandlerOptions(opts ...commands.HandlerOption[PullPageCommand]) Option {
	return func(cfg *options) {
		cfg.pullHandlerOpts = append(cfg.pullHandlerOpts, opts...)
	}
}

// WithPushHandlerOptions forwards options to the PushPageHandler constructor.
func WithPushHandlerOptions(opts ...commands.HandlerOption[PushPageCommand]) Option {
	return func(cfg *options) {
		cfg.pushHandlerOpts = append(cfg.pushHandlerOpts, opts...)
	}
}

// WithPreviewHandlerOptions forwards options to the PreviewDiffHandler constructor.
func WithPreviewHandlerOptions(opts ...commands.HandlerOption[PreviewDiffCommand]) Option {
	return func(cfg *options) {
		cfg.previewHandlerOpts = append(cfg.previewHandlerOpts, opts...)
	}
}

// RegisterSyncCommands builds the sync command handlers and registers them
// with the provided registry. The HandlerSet is returned so callers can wire
// additional integrations as needed.
func RegisterSyncCommands(reg CommandRegistry, service interfaces.SyncService, provider interfaces.LoggerProvider, sinks Sinks, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("sync command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "sync")

	set := &HandlerSet{
		Pull:    NewPullPageHandler(service, logger, sinks.Pull, cfg.pullHandlerOpts...),
		Push:    NewPushPageHandler(service, logger, sinks.Push, cfg.pushHandlerOpts...),
		Preview: NewPreviewDiffHandler(service, logger, sinks.Preview, cfg.previewHandlerOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Pull, set.Push, set.Preview} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
