package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads a YAML file from the given path and returns a new Manager.
// If the file doesn't exist, a default configuration is written first.
func Load(path string) (*Manager, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ORIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", ":", "_"))
	v.AutomaticEnv()

	setViperDefaults(v)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		if err := v.SafeWriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		manager := NewManager(v)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		manager.loadProviderKeysFromEnv()
		return manager, nil
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	mergeIndexedSlicesIntoViper(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	manager := NewManager(v)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}
	manager.loadProviderKeysFromEnv()

	return manager, nil
}

// setViperDefaults sets default configuration values using viper.SetDefault.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("paths.work_dir", defaultConfig.Paths.WorkDir)
	v.SetDefault("paths.skipped_log_path", defaultConfig.Paths.SkippedLogPath)
	v.SetDefault("logger.level", defaultConfig.Logger.Level)
	v.SetDefault("logger.format", defaultConfig.Logger.Format)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	v.SetDefault("server.show_routes", defaultConfig.Server.PrintRoutes)
	v.SetDefault("telegram.enabled", defaultConfig.Telegram.Enabled)
	v.SetDefault("telegram.token", defaultConfig.Telegram.Token)
	v.SetDefault("telegram.chat_id", defaultConfig.Telegram.ChatID)
	v.SetDefault("database.curated_path", defaultConfig.Database.CuratedPath)
	v.SetDefault("database.ledger_path", defaultConfig.Database.LedgerPath)
	v.SetDefault("audio.duration_tolerance", defaultConfig.Audio.DurationTolerance)
	v.SetDefault("audio.match_threshold", defaultConfig.Audio.MatchThreshold)
	v.SetDefault("audio.search_results", defaultConfig.Audio.SearchResults)
	v.SetDefault("audio.slice_bitrate_kbps", defaultConfig.Audio.SliceBitrateKbps)
	v.SetDefault("segmenter.providers", defaultConfig.Segmenter.Providers)
	v.SetDefault("segmenter.batch_size_llm", defaultConfig.Segmenter.BatchSizeLLM)
	v.SetDefault("segmenter.max_retries", defaultConfig.Segmenter.MaxRetries)
	v.SetDefault("segmenter.retry_delay_seconds", defaultConfig.Segmenter.RetryDelaySeconds)
	v.SetDefault("segmenter.enable_batch_segmentation", defaultConfig.Segmenter.EnableBatch)
	v.SetDefault("segmenter.groq_model", defaultConfig.Segmenter.GroqModel)
	v.SetDefault("segmenter.together_model", defaultConfig.Segmenter.TogetherModel)
	v.SetDefault("vector_index.host", defaultConfig.VectorIndex.Host)
	v.SetDefault("vector_index.port", defaultConfig.VectorIndex.Port)
	v.SetDefault("vector_index.collection_name", defaultConfig.VectorIndex.CollectionName)
	v.SetDefault("vector_index.url", "")
	v.SetDefault("vector_index.api_key", "")
	v.SetDefault("blob_store.endpoint", "")
	v.SetDefault("blob_store.access_key_id", "")
	v.SetDefault("blob_store.secret_access_key", "")
	v.SetDefault("blob_store.bucket_name", "")
	v.SetDefault("blob_store.public_domain", "")
	v.SetDefault("embedding.dimension", defaultConfig.Embedding.Dimension)
}

// mergeIndexedSlicesIntoViper merges env-provided JSON arrays into slice fields.
func mergeIndexedSlicesIntoViper(v *viper.Viper) {
	var providers []string
	if raw := v.GetString("segmenter.providers"); raw != "" && strings.HasPrefix(strings.TrimSpace(raw), "[") {
		if err := json.Unmarshal([]byte(raw), &providers); err != nil {
			slog.Error("ORIN_SEGMENTER_PROVIDERS contains invalid JSON", "error", err)
		} else {
			v.Set("segmenter.providers", providers)
		}
	}
}

// loadProviderKeysFromEnv reads per-provider LLM API keys directly from the
// environment rather than through viper, since they are secrets and never
// belong in the YAML file or its JSON/YAML introspection output.
func (m *Manager) loadProviderKeysFromEnv() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerKeys = map[string]string{
		"groq":     os.Getenv("GROQ_API_KEY"),
		"together": os.Getenv("TOGETHER_API_KEY"),
	}
	m.openaiEmbedKey = os.Getenv("OPENAI_API_KEY")
}
