// Package config resolves cortex settings and the store registry.
//
// Settings come from JSON-with-comments files layered over defaults; the
// registry maps store names to root directories. Neither is read by the
// store itself: the command line resolves a root and passes it down.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/Yeseh/cortex-sub001/internal/tokens"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DefaultStore string `json:"default_store"`
	Tokenizer    string `json:"tokenizer"`
	Encoding     string `json:"encoding"`
	LogLevel     string `json:"log_level"`

	// Resolved (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	ConfigDir    string `json:"-"` // Directory holding the global config and the registry
	StoreName    string `json:"-"` // Store selected with -s/--store, or DefaultStore
	StoreDir     string `json:"-"` // Absolute root from --store-dir; bypasses the registry

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Defaults.
const (
	DefaultStoreName = "default"
	DefaultLogLevel  = "warn"
)

// File names.
const (
	ProjectFileName  = ".cortex.json"
	GlobalFileName   = "config.json"
	RegistryFileName = "stores.json"

	// defaultStoreDir is the root of the "default" store inside ConfigDir
	// when the registry has no entry for it.
	defaultStoreDir = "memory"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DefaultStore: DefaultStoreName,
		Tokenizer:    tokens.NameChars,
		Encoding:     tokens.DefaultEncoding,
		LogLevel:     DefaultLogLevel,
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/cortex if set, otherwise
// ~/.config/cortex. Returns "" if neither variable is set.
func ConfigDir(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "cortex")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "cortex")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride  string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath       string            // -c/--config flag value
	StoreOverride    string            // -s/--store flag value
	StoreDirOverride string            // --store-dir flag value
	Env              map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (<ConfigDir>/config.json)
// 3. Project config file in the working directory (.cortex.json, if exists)
// 4. Explicit config file via ConfigPath (replaces 3, must exist)
// 5. CLI overrides.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
	}

	cfg := DefaultConfig()
	cfg.ConfigDir = ConfigDir(input.Env)

	globalCfg, globalPath, err := loadGlobalConfig(cfg.ConfigDir)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	err = validateConfig(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	cfg.StoreName = cfg.DefaultStore
	if input.StoreOverride != "" {
		cfg.StoreName = input.StoreOverride
	}

	if input.StoreDirOverride != "" {
		cfg.StoreDir = input.StoreDirOverride
		if !filepath.IsAbs(cfg.StoreDir) {
			cfg.StoreDir = filepath.Join(workDir, cfg.StoreDir)
		}
	}

	return cfg, nil
}

// RegistryPath returns the location of the store registry, or "" when no
// config directory is known.
func (c Config) RegistryPath() string {
	if c.ConfigDir == "" {
		return ""
	}

	return filepath.Join(c.ConfigDir, RegistryFileName)
}

// ResolveStore returns the root directory of the selected store.
//
// --store-dir wins; otherwise the store name is looked up in reg. The
// "default" store falls back to <ConfigDir>/memory when unregistered.
func (c Config) ResolveStore(reg *Registry) (string, error) {
	if c.StoreDir != "" {
		return c.StoreDir, nil
	}

	if reg != nil {
		if root, ok := reg.Resolve(c.StoreName); ok {
			return root, nil
		}
	}

	if c.StoreName == DefaultStoreName {
		if c.ConfigDir == "" {
			return "", ErrNoConfigDir
		}

		return filepath.Join(c.ConfigDir, defaultStoreDir), nil
	}

	return "", fmt.Errorf("%w: %s", ErrStoreUnknown, c.StoreName)
}

// SlogLevel maps LogLevel to a slog level. Load has already validated it.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// FormatConfig renders the serialized fields as indented JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}

// loadGlobalConfig loads <configDir>/config.json if it exists.
// Returns the config, the path if loaded, and any error.
func loadGlobalConfig(configDir string) (Config, string, error) {
	if configDir == "" {
		return Config{}, "", nil
	}

	globalCfgPath := filepath.Join(configDir, GlobalFileName)

	globalCfg, explicitEmpty, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["default_store"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, globalCfgPath, ErrDefaultStoreEmpty)
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads .cortex.json from workDir or an explicit config
// file. Returns the config, the path if loaded, and any error.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ProjectFileName)
		mustExist = false
	}

	fileCfg, explicitEmpty, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["default_store"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfgFile, ErrDefaultStoreEmpty)
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config, a map of explicitly empty fields,
// whether the file was loaded, and any error.
func loadConfigFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil, false, nil
		}

		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitEmpty, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, explicitEmpty, true, nil
}

func parseConfig(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitEmpty := make(map[string]bool)

	if val, exists := raw["default_store"]; exists {
		if str, ok := val.(string); ok && str == "" {
			explicitEmpty["default_store"] = true
		}
	}

	return cfg, explicitEmpty, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DefaultStore != "" {
		base.DefaultStore = overlay.DefaultStore
	}

	if overlay.Tokenizer != "" {
		base.Tokenizer = overlay.Tokenizer
	}

	if overlay.Encoding != "" {
		base.Encoding = overlay.Encoding
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.DefaultStore == "" {
		return ErrDefaultStoreEmpty
	}

	switch cfg.Tokenizer {
	case tokens.NameTiktoken, tokens.NameChars, tokens.NameNone:
	default:
		return fmt.Errorf("%w, got %q", ErrTokenizerInvalid, cfg.Tokenizer)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w, got %q", ErrLogLevelInvalid, cfg.LogLevel)
	}

	return nil
}
