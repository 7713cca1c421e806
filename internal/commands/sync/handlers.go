// Package synccmd exposes the sync engine's pull, push, and preview flows
// as validated command messages for dispatchers, cron wiring, and the CLI.
package synccmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-pagesync/internal/commands"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

const (
	pullOperation    = "sync.pull_page"
	pushOperation    = "sync.push_page"
	previewOperation = "sync.preview_diff"
)

var (
	_ command.Commander[PullPageCommand]    = (*PullPageHandler)(nil)
	_ command.Commander[PushPageCommand]    = (*PushPageHandler)(nil)
	_ command.Commander[PreviewDiffCommand] = (*PreviewDiffHandler)(nil)
)

// PullResultSink receives the outcome of a pull execution. Commanders only
// return errors, so results flow out through the sink.
type PullResultSink func(ctx context.Context, result *interfaces.PullResult)

// PushResultSink receives the outcome of a push execution.
type PushResultSink func(ctx context.Context, result *interfaces.PushResult)

// PreviewResultSink receives the planned operations of a preview execution.
type PreviewResultSink func(ctx context.Context, result *interfaces.PreviewResult)

// PullPageHandler orchestrates markup-to-markdown pulls via the shared
// command handler foundation.
type PullPageHandler struct {
	inner *commands.Handler[PullPageCommand]
}

// NewPullPageHandler creates a handler bound to the supplied sync service.
func NewPullPageHandler(service interfaces.SyncService, logger interfaces.Logger, sink PullResultSink, opts ...commands.HandlerOption[PullPageCommand]) *PullPageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PullPageCommand) error {
		result, err := service.Pull(ctx, interfaces.PullRequest{
			Space:        msg.Space,
			PageKey:      msg.PageKey,
			Title:        msg.Title,
			Markup:       msg.Markup,
			SaveBaseline: msg.SaveBaseline,
		})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"space":          msg.Space,
			"page_key":       msg.PageKey,
			"markdown_bytes": len(result.Markdown),
			"macro_count":    len(result.Macros),
		}).Info("sync.command.pull_page.completed")
		if sink != nil {
			sink(ctx, result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[PullPageCommand]{
		commands.WithLogger[PullPageCommand](baseLogger),
		commands.WithOperation[PullPageCommand](pullOperation),
		commands.WithMessageFields(func(msg PullPageCommand) map[string]any {
			fields := map[string]any{
				"space":    msg.Space,
				"page_key": msg.PageKey,
			}
			if msg.SaveBaseline {
				fields["save_baseline"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PullPageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PullPageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PullPageCommand].
func (h *PullPageHandler) Execute(ctx context.Context, msg PullPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PushPageHandler orchestrates surgical pushes via the shared command
// handler foundation.
type PushPageHandler struct {
	inner *commands.Handler[PushPageCommand]
}

// NewPushPageHandler creates a handler bound to the supplied sync service.
func NewPushPageHandler(service interfaces.SyncService, logger interfaces.Logger, sink PushResultSink, opts ...commands.HandlerOption[PushPageCommand]) *PushPageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PushPageCommand) error {
		result, err := service.Push(ctx, interfaces.PushRequest{
			Space:        msg.Space,
			PageKey:      msg.PageKey,
			Title:        msg.Title,
			Markdown:     msg.Markdown,
			Remote:       msg.Remote,
			Format:       interfaces.RemoteFormat(msg.Format),
			SaveBaseline: msg.SaveBaseline,
		})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"space":      msg.Space,
			"page_key":   msg.PageKey,
			"operations": len(result.Operations),
			"succeeded":  result.Succeeded,
			"failed":     result.Failed,
		}).Info("sync.command.push_page.completed")
		if sink != nil {
			sink(ctx, result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[PushPageCommand]{
		commands.WithLogger[PushPageCommand](baseLogger),
		commands.WithOperation[PushPageCommand](pushOperation),
		commands.WithMessageFields(func(msg PushPageCommand) map[string]any {
			fields := map[string]any{
				"space":    msg.Space,
				"page_key": msg.PageKey,
				"format":   msg.Format,
			}
			if msg.SaveBaseline {
				fields["save_baseline"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PushPageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PushPageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PushPageCommand].
func (h *PushPageHandler) Execute(ctx context.Context, msg PushPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PreviewDiffHandler plans operations without applying them.
type PreviewDiffHandler struct {
	inner *commands.Handler[PreviewDiffCommand]
}

// NewPreviewDiffHandler creates a handler bound to the supplied sync service.
func NewPreviewDiffHandler(service interfaces.SyncService, logger interfaces.Logger, sink PreviewResultSink, opts ...commands.HandlerOption[PreviewDiffCommand]) *PreviewDiffHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PreviewDiffCommand) error {
		result, err := service.Preview(ctx, interfaces.PreviewRequest{
			Title:    msg.Title,
			Markdown: msg.Markdown,
			Remote:   msg.Remote,
			Format:   interfaces.RemoteFormat(msg.Format),
		})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"operations": len(result.Operations),
			"format":     msg.Format,
		}).Info("sync.command.preview_diff.completed")
		if sink != nil {
			sink(ctx, result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[PreviewDiffCommand]{
		commands.WithLogger[PreviewDiffCommand](baseLogger),
		commands.WithOperation[PreviewDiffCommand](previewOperation),
		commands.WithMessageFields(func(msg PreviewDiffCommand) map[string]any {
			return map[string]any{"format": msg.Format}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PreviewDiffCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PreviewDiffHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PreviewDiffCommand].
func (h *PreviewDiffHandler) Execute(ctx context.Context, msg PreviewDiffCommand) error {
	return h.inner.Execute(ctx, msg)
}
