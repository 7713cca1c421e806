package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

const (
	rootModule     = "pagesync"
	diffModule     = "pagesync.diff"
	markdownModule = "pagesync.markdown"
	markupModule   = "pagesync.markup"
	doctreeModule  = "pagesync.doctree"
	convertModule  = "pagesync.convert"
	syncModule     = "pagesync.sync"
	baselineModule = "pagesync.baseline"
)

const (
	fieldPageSpace = "space"
	fieldPageKey   = "page_key"
	fieldAction    = "sync_action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// DiffLogger returns the logger namespace reserved for the diff analyzer.
func DiffLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, diffModule)
}

// MarkdownLogger returns the logger namespace reserved for the Markdown extractor.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// MarkupLogger returns the logger namespace reserved for markup tree work.
func MarkupLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markupModule)
}

// DoctreeLogger returns the logger namespace reserved for node-id documents.
func DoctreeLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, doctreeModule)
}

// ConvertLogger returns the logger namespace reserved for full-document conversion.
func ConvertLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, convertModule)
}

// SyncLogger returns the logger namespace reserved for sync workflows.
func SyncLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, syncModule)
}

// BaselineLogger returns the logger namespace reserved for baseline storage.
func BaselineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, baselineModule)
}

// WithPageContext enriches the provided logger with common page fields such
// as space, page key, and sync action. Empty values are ignored.
func WithPageContext(logger interfaces.Logger, space, pageKey, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(space); trimmed != "" {
		fields[fieldPageSpace] = trimmed
	}
	if trimmed := strings.TrimSpace(pageKey); trimmed != "" {
		fields[fieldPageKey] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
