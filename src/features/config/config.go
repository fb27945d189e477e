package config

// Config holds the application configuration.
type Config struct {
	Paths       Paths       `yaml:"paths"`
	Logger      Logger      `yaml:"logger"`
	Server      Server      `yaml:"server"`
	Telegram    Telegram    `yaml:"telegram"`
	Database    Database    `yaml:"database"`
	Audio       Audio       `yaml:"audio"`
	Segmenter   Segmenter   `yaml:"segmenter"`
	VectorIndex VectorIndex `yaml:"vector_index"`
	BlobStore   BlobStore   `yaml:"blob_store"`
	Embedding   Embedding   `yaml:"embedding"`
}

// Paths holds the on-disk locations the pipeline reads from and writes to.
type Paths struct {
	WorkDir        string `yaml:"work_dir" validate:"required"`
	SkippedLogPath string `yaml:"skipped_log_path" validate:"required"`
}

// Server holds the configuration for the Fiber server.
type Server struct {
	Port        uint32 `yaml:"port"`
	PrintRoutes bool   `yaml:"show_routes"`
}

// Logger holds the configuration for app logging.
type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Database holds the configuration for the curated store and the ledger.
type Database struct {
	CuratedPath string `yaml:"curated_path" validate:"required"`
	LedgerPath  string `yaml:"ledger_path" validate:"required"`
}

// Telegram holds operator-notification-sink configuration.
type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// Audio holds configuration for the Audio Acquirer.
type Audio struct {
	DurationTolerance float64 `yaml:"duration_tolerance"`
	MatchThreshold    int     `yaml:"match_threshold"`
	SearchResults     int     `yaml:"search_results"`
	SliceBitrateKbps  int     `yaml:"slice_bitrate_kbps"`
}

// Segmenter holds configuration for the LLM segmentation providers.
type Segmenter struct {
	Providers         []string          `yaml:"providers"`
	BatchSizeLLM      int               `yaml:"batch_size_llm"`
	MaxRetries        int               `yaml:"max_retries"`
	RetryDelaySeconds float64           `yaml:"retry_delay_seconds"`
	EnableBatch       bool              `yaml:"enable_batch_segmentation"`
	ProviderAPIKeys   map[string]string `yaml:"-"`
	GroqModel         string            `yaml:"groq_model"`
	TogetherModel     string            `yaml:"together_model"`
}

// VectorIndex holds configuration for the Qdrant vector index gateway.
type VectorIndex struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	CollectionName string `yaml:"collection_name"`
}

// BlobStore holds configuration for the R2/S3-compatible blob store gateway.
type BlobStore struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	BucketName      string `yaml:"bucket_name"`
	PublicDomain    string `yaml:"public_domain"`
}

// Embedding holds configuration for the description embedder.
type Embedding struct {
	Dimension int `yaml:"dimension"`
}
