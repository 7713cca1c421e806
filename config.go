package pagesync

import "github.com/goliatone/go-pagesync/internal/runtimeconfig"

var (
	ErrDiffThresholdInvalid    = runtimeconfig.ErrDiffThresholdInvalid
	ErrKeyPrefixInvalid        = runtimeconfig.ErrKeyPrefixInvalid
	ErrCacheRequiresBaseline   = runtimeconfig.ErrCacheRequiresBaseline
	ErrStorageDriverUnknown    = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrRemoteBaseURLRequired   = runtimeconfig.ErrRemoteBaseURLRequired
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	DiffConfig    = runtimeconfig.DiffConfig
	LoggingConfig = runtimeconfig.LoggingConfig
	StorageConfig = runtimeconfig.StorageConfig
	RemoteConfig  = runtimeconfig.RemoteConfig
	CacheConfig   = runtimeconfig.CacheConfig
	Features      = runtimeconfig.Features
)

// DefaultConfig returns the shipped defaults; the diff thresholds match the
// analyzer's documented behaviour.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
