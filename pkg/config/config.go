/*
Package config manages the TOML config of henkan.

	[engine]
	data_dir = "data"
	timeout_ms = 1000
	max_reading_len = 15
	max_expansions = 200000

	[costs]
	same_surface_penalty = 1000
	unknown_penalty = 10000
	adjacent_unknown_penalty = 8000
	user_word_cost = -3000

	[server]
	max_input = 256
	max_nbest = 100
	default_nbest = 5
	system_lexicon = true

	[cli]
	default_nbest = 5
	romaji = true

Values missing from the file keep their defaults. A file that fails to
decode is salvaged section by section, field by field.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/henkan/internal/utils"
	"github.com/bastiangx/henkan/pkg/converter"
	"github.com/bastiangx/henkan/pkg/decoder"
	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/bastiangx/henkan/pkg/lattice"
	"github.com/bastiangx/henkan/pkg/lexicon"
	"github.com/charmbracelet/log"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Costs  CostsConfig  `toml:"costs"`
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// EngineConfig locates the data and bounds one conversion.
type EngineConfig struct {
	DataDir       string `toml:"data_dir"`
	TimeoutMs     int    `toml:"timeout_ms"`
	MaxReadingLen int    `toml:"max_reading_len"`
	MaxExpansions int    `toml:"max_expansions"`
}

// CostsConfig holds the lattice and decoder penalties.
type CostsConfig struct {
	SameSurfacePenalty     int `toml:"same_surface_penalty"`
	UnknownPenalty         int `toml:"unknown_penalty"`
	AdjacentUnknownPenalty int `toml:"adjacent_unknown_penalty"`
	UserWordCost           int `toml:"user_word_cost"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxInput      int  `toml:"max_input"`
	MaxNBest      int  `toml:"max_nbest"`
	DefaultNBest  int  `toml:"default_nbest"`
	SystemLexicon bool `toml:"system_lexicon"`
}

// CliConfig holds interactive mode options.
type CliConfig struct {
	DefaultNBest int  `toml:"default_nbest"`
	Romaji       bool `toml:"romaji"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DataDir:       "data",
			TimeoutMs:     1000,
			MaxReadingLen: dictionary.DefaultMaxReadingLen,
			MaxExpansions: decoder.DefaultMaxExpansions,
		},
		Costs: CostsConfig{
			SameSurfacePenalty:     lattice.SameSurfacePenalty,
			UnknownPenalty:         lattice.UnknownPenalty,
			AdjacentUnknownPenalty: decoder.AdjacentUnknownPenalty,
			UserWordCost:           lexicon.DefaultWordCost,
		},
		Server: ServerConfig{
			MaxInput:      256,
			MaxNBest:      converter.MaxNBest,
			DefaultNBest:  5,
			SystemLexicon: true,
		},
		CLI: CliConfig{
			DefaultNBest: 5,
			Romaji:       true,
		},
	}
}

// EngineOptions maps the config onto converter options for dataDir.
func (c *Config) EngineOptions(dataDir string) converter.Options {
	opts := converter.DefaultOptions(dataDir)
	opts.Timeout = time.Duration(c.Engine.TimeoutMs) * time.Millisecond
	opts.MaxReadingLen = c.Engine.MaxReadingLen
	opts.UserWordCost = c.Costs.UserWordCost
	opts.Lattice = lattice.Options{
		SameSurfacePenalty: c.Costs.SameSurfacePenalty,
		UnknownPenalty:     c.Costs.UnknownPenalty,
	}
	opts.Decoder = decoder.Options{
		AdjacentUnknownPenalty: c.Costs.AdjacentUnknownPenalty,
		MaxExpansions:          c.Engine.MaxExpansions,
	}
	return opts
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/henkan
// 2. ~/Library/Application Support/henkan (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	for _, dir := range []string{
		filepath.Join(homeDir, ".config", utils.AppName),
		filepath.Join(homeDir, "Library", "Application Support", utils.AppName),
	} {
		if utils.CheckDirStatus(dir).Writable {
			return dir, nil
		}
	}
	return utils.GetExecutableDir()
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/henkan/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customPath string) (*Config, string, error) {
	if customPath != "" {
		if utils.FileExists(customPath) {
			config, err := LoadConfig(customPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customPath)
				return config, customPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customPath, err)
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customPath)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load config at %s: %v. Using built-in defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		log.Warnf("Failed to create config directory for %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return config, nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath), nil
	}
	return config, nil
}

// tryPartialParse keeps every well-typed field of a file that failed to
// decode as a whole.
func tryPartialParse(configPath string) *Config {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config
	}

	if section, ok := utils.ExtractSection(raw, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(raw, "costs"); ok {
		extractCostsConfig(section, &config.Costs)
	}
	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		engine.DataDir = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		engine.TimeoutMs = val
	}
	if val, ok := utils.ExtractInt64(data, "max_reading_len"); ok {
		engine.MaxReadingLen = val
	}
	if val, ok := utils.ExtractInt64(data, "max_expansions"); ok {
		engine.MaxExpansions = val
	}
}

func extractCostsConfig(data map[string]any, costs *CostsConfig) {
	if val, ok := utils.ExtractInt64(data, "same_surface_penalty"); ok {
		costs.SameSurfacePenalty = val
	}
	if val, ok := utils.ExtractInt64(data, "unknown_penalty"); ok {
		costs.UnknownPenalty = val
	}
	if val, ok := utils.ExtractInt64(data, "adjacent_unknown_penalty"); ok {
		costs.AdjacentUnknownPenalty = val
	}
	if val, ok := utils.ExtractInt64(data, "user_word_cost"); ok {
		costs.UserWordCost = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_input"); ok {
		server.MaxInput = val
	}
	if val, ok := utils.ExtractInt64(data, "max_nbest"); ok {
		server.MaxNBest = val
	}
	if val, ok := utils.ExtractInt64(data, "default_nbest"); ok {
		server.DefaultNBest = val
	}
	if val, ok := utils.ExtractBool(data, "system_lexicon"); ok {
		server.SystemLexicon = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_nbest"); ok {
		cli.DefaultNBest = val
	}
	if val, ok := utils.ExtractBool(data, "romaji"); ok {
		cli.Romaji = val
	}
}

// RebuildConfigFile force creates a new config.toml at the default path
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of the loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the server limits and saves to file. Nil values are left
// unchanged.
func (c *Config) Update(configPath string, timeoutMs, maxNBest, defaultNBest *int) error {
	if timeoutMs != nil {
		c.Engine.TimeoutMs = *timeoutMs
	}
	if maxNBest != nil {
		c.Server.MaxNBest = *maxNBest
	}
	if defaultNBest != nil {
		c.Server.DefaultNBest = *defaultNBest
	}
	return SaveConfig(c, configPath)
}
