package config

import "errors"

// Error variables for configuration and store resolution.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDefaultStoreEmpty  = errors.New("default_store cannot be empty")
	ErrTokenizerInvalid   = errors.New("tokenizer must be tiktoken, chars or none")
	ErrLogLevelInvalid    = errors.New("log_level must be debug, info, warn or error")
	ErrFlagRequiresArg    = errors.New("flag requires an argument")
	ErrUnknownFlag        = errors.New("unknown flag")
	ErrNoConfigDir        = errors.New("cannot locate config directory (set $XDG_CONFIG_HOME or $HOME)")
	ErrRegistryInvalid    = errors.New("invalid store registry")
	ErrStoreUnknown       = errors.New("store not registered")
	ErrStoreExists        = errors.New("store already registered")
	ErrStoreNameInvalid   = errors.New("store name must be lowercase kebab-case")
	ErrStoreRootRelative  = errors.New("store root must be an absolute path")
)
