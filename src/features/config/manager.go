package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu             sync.RWMutex
	v              *viper.Viper
	providerKeys   map[string]string
	openaiEmbedKey string
}

// NewManager creates a new Manager from a viper instance.
func NewManager(v *viper.Viper) *Manager {
	return &Manager{v: v, providerKeys: map[string]string{}}
}

func (m *Manager) getConfigUnsafe() (*Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, err := m.getConfigUnsafe()
	if err != nil {
		slog.Error("failed to unmarshal config", "error", err)
		return &Config{}
	}
	return cfg
}

// ProviderAPIKey returns the API key for a given LLM provider, loaded from
// the environment (never from the YAML file).
func (m *Manager) ProviderAPIKey(provider string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providerKeys[provider]
}

// OpenAIEmbedKey returns the API key used by the embedding client.
func (m *Manager) OpenAIEmbedKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openaiEmbedKey
}

// Update replaces the in-memory configuration.
func (m *Manager) Update(cfg *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	configMap, err := configToMap(cfg)
	if err != nil {
		slog.Error("failed to convert config to map", "error", err)
		return
	}
	for key, value := range configMap {
		m.v.Set(key, value)
	}
	slog.Debug("Configuration updated")
}

func configToMap(cfg *Config) (map[string]any, error) {
	bytes, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := yaml.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Save writes the current configuration to the specified file path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.v.SetConfigFile(path)
	if err := m.v.WriteConfigAs(path); err != nil {
		slog.Error("failed to write config file", "path", path, "error", err)
		return err
	}
	return nil
}

// EnsureDirectories creates the working and database directories if absent.
func (m *Manager) EnsureDirectories() error {
	m.mu.RLock()
	cfg, err := m.getConfigUnsafe()
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work dir %s: %w", cfg.Paths.WorkDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.CuratedPath), 0755); err != nil {
		return fmt.Errorf("failed to create database dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.SkippedLogPath), 0755); err != nil {
		return fmt.Errorf("failed to create skipped-log dir: %w", err)
	}
	return nil
}

// redactConfig returns a redacted copy of the Config for external exposure.
func redactConfig(cfg *Config) Config {
	cfgCpy := *cfg
	if cfgCpy.Telegram.Token != "" {
		cfgCpy.Telegram.Token = "<redacted>"
	}
	if cfgCpy.BlobStore.SecretAccessKey != "" {
		cfgCpy.BlobStore.SecretAccessKey = "<redacted>"
	}
	if cfgCpy.VectorIndex.APIKey != "" {
		cfgCpy.VectorIndex.APIKey = "<redacted>"
	}
	return cfgCpy
}

// GetJSON returns the current configuration as a redacted JSON string.
func (m *Manager) GetJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, err := m.getConfigUnsafe()
	if err != nil {
		slog.Error("failed to unmarshal config for JSON", "error", err)
		return err.Error()
	}
	redacted := redactConfig(cfg)
	jsonBytes, err := json.Marshal(redacted)
	if err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return string(jsonBytes)
}
