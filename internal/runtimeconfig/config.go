package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrDiffThresholdInvalid indicates a similarity threshold outside (0, 1].
var ErrDiffThresholdInvalid = errors.New("pagesync config: diff threshold must be in (0, 1]")

// ErrKeyPrefixInvalid indicates a non-positive matching key prefix length.
var ErrKeyPrefixInvalid = errors.New("pagesync config: diff key prefix length must be positive")

// ErrCacheRequiresBaseline ensures the cache decorator only builds when baselines are stored.
var ErrCacheRequiresBaseline = errors.New("pagesync config: cache feature requires baseline storage to be enabled")

var ErrStorageDriverUnknown = errors.New("pagesync config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("pagesync config: storage DSN is required when baseline storage is enabled")
var ErrRemoteBaseURLRequired = errors.New("pagesync config: remote base URL is required when remote links are enabled")
var ErrLoggingProviderRequired = errors.New("pagesync config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("pagesync config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("pagesync config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("pagesync config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the sync module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled  bool
	Diff     DiffConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	Remote   RemoteConfig
	Cache    CacheConfig
	Features Features
}

// DiffConfig tunes the block matcher. Zero values fall back to the
// shipped defaults at construction time.
type DiffConfig struct {
	// FuzzyThreshold is the minimum word-overlap ratio for pairing a
	// changed block with its old version.
	FuzzyThreshold float64
	// AnchorFuzzyThreshold is the minimum ratio used when re-anchoring
	// text inside a node document.
	AnchorFuzzyThreshold float64
	// CellMatchThreshold is the minimum fraction of equal cells for two
	// table rows to count as the same row.
	CellMatchThreshold float64
	// ExactKeyPrefix bounds the text portion of a block matching key.
	ExactKeyPrefix int
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// StorageConfig selects the backing database for baseline snapshots.
type StorageConfig struct {
	Driver string
	DSN    string
}

// RemoteConfig captures the wiki endpoint used for page link resolution.
type RemoteConfig struct {
	BaseURL   string
	SpacePath string
	PagePath  string
	// Routes overrides the generated route table when hosts need full
	// control over URL layout.
	Routes *urlkit.Config
}

// CacheConfig captures cache behaviour for the baseline repository.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// Features toggles module functionality.
type Features struct {
	Baseline    bool
	RemoteLinks bool
	Cache       bool
	Logger      bool
}

// DefaultConfig returns opinionated defaults; the diff thresholds are the
// shipped matcher behaviour.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Diff: DiffConfig{
			FuzzyThreshold:       0.3,
			AnchorFuzzyThreshold: 0.8,
			CellMatchThreshold:   0.5,
			ExactKeyPrefix:       100,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "file:pagesync.db?cache=shared&mode=rwc",
		},
		Remote: RemoteConfig{
			SpacePath: "/wiki/spaces/:space",
			PagePath:  "/wiki/spaces/:space/pages/:page",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Features: Features{},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if err := validateThreshold(cfg.Diff.FuzzyThreshold, "fuzzy"); err != nil {
		return err
	}
	if err := validateThreshold(cfg.Diff.AnchorFuzzyThreshold, "anchor_fuzzy"); err != nil {
		return err
	}
	if err := validateThreshold(cfg.Diff.CellMatchThreshold, "cell_match"); err != nil {
		return err
	}
	if cfg.Diff.ExactKeyPrefix <= 0 {
		return ErrKeyPrefixInvalid
	}
	if cfg.Features.Cache && !cfg.Features.Baseline {
		return ErrCacheRequiresBaseline
	}
	if cfg.Features.Baseline {
		driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
		if driver != "sqlite" && driver != "postgres" {
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	}
	if cfg.Features.RemoteLinks && cfg.Remote.Routes == nil {
		if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
			return ErrRemoteBaseURLRequired
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func validateThreshold(value float64, name string) error {
	if value <= 0 || value > 1 {
		return fmt.Errorf("%w: %s=%v", ErrDiffThresholdInvalid, name, value)
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
