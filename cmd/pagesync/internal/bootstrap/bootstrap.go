// Package bootstrap shares module construction and small IO helpers across
// the pagesync CLI entry points.
package bootstrap

import (
	"fmt"
	"io"
	"os"
	"strings"

	pagesync "github.com/goliatone/go-pagesync"
	"github.com/goliatone/go-pagesync/internal/logging"
	"github.com/goliatone/go-pagesync/pkg/interfaces"
)

// Options captures the configuration shared by the CLI commands.
type Options struct {
	StorageDriver  string
	StorageDSN     string
	Baseline       bool
	RemoteBaseURL  string
	LogProvider    string
	LogLevel       string
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the sync engine plus the CLI logger.
type Module struct {
	Module  *pagesync.Module
	Service interfaces.SyncService
	Logger  interfaces.Logger
}

// BuildModule constructs a pagesync module configured from CLI options.
func BuildModule(opts Options) (*Module, error) {
	cfg := pagesync.DefaultConfig()

	if opts.Baseline {
		cfg.Features.Baseline = true
		if trimmed := strings.TrimSpace(opts.StorageDriver); trimmed != "" {
			cfg.Storage.Driver = trimmed
		}
		if trimmed := strings.TrimSpace(opts.StorageDSN); trimmed != "" {
			cfg.Storage.DSN = trimmed
		}
	}

	if trimmed := strings.TrimSpace(opts.RemoteBaseURL); trimmed != "" {
		cfg.Features.RemoteLinks = true
		cfg.Remote.BaseURL = trimmed
	}

	if trimmed := strings.TrimSpace(opts.LogProvider); trimmed != "" {
		cfg.Features.Logger = true
		cfg.Logging.Provider = trimmed
		if level := strings.TrimSpace(opts.LogLevel); level != "" {
			cfg.Logging.Level = level
		}
	}

	moduleOpts := []pagesync.Option{}
	if opts.LoggerProvider != nil {
		moduleOpts = append(moduleOpts, pagesync.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := pagesync.New(cfg, moduleOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise pagesync module: %w", err)
	}

	return &Module{
		Module:  module,
		Service: module.Sync(),
		Logger:  logging.SyncLogger(module.LoggerProvider()),
	}, nil
}

// ReadInput loads a file, or stdin when path is "-" or empty.
func ReadInput(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", trimmed, err)
	}
	return string(data), nil
}

// WriteOutput writes to a file, or stdout when path is "-" or empty.
func WriteOutput(path, content string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}
	if err := os.WriteFile(trimmed, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", trimmed, err)
	}
	return nil
}

// ParseFormat validates the remote format flag.
func ParseFormat(value string) (pagesync.RemoteFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "markup":
		return pagesync.FormatMarkup, nil
	case "nodedoc":
		return pagesync.FormatNodeDoc, nil
	default:
		return "", fmt.Errorf("unknown remote format %q (markup|nodedoc)", value)
	}
}
