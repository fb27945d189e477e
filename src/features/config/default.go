package config

var defaultConfig = Config{
	Paths: Paths{
		WorkDir:        "./workdir",
		SkippedLogPath: "./workdir/skipped_songs.jsonl",
	},
	Logger: Logger{
		Level:  "info",
		Format: "text",
	},
	Server: Server{
		Port:        3737,
		PrintRoutes: false,
	},
	Telegram: Telegram{
		Enabled: false,
		Token:   "",
		ChatID:  0,
	},
	Database: Database{
		CuratedPath: "./workdir/curated.db",
		LedgerPath:  "./workdir/ledger.db",
	},
	Audio: Audio{
		DurationTolerance: 2.0,
		MatchThreshold:    50,
		SearchResults:     5,
		SliceBitrateKbps:  96,
	},
	Segmenter: Segmenter{
		Providers:         []string{"groq"},
		BatchSizeLLM:      10,
		MaxRetries:        3,
		RetryDelaySeconds: 1.0,
		EnableBatch:       true,
		GroqModel:         "llama-3.3-70b-versatile",
		TogetherModel:     "meta-llama/Llama-3.3-70B-Instruct-Turbo",
	},
	VectorIndex: VectorIndex{
		Host:           "localhost",
		Port:           6334,
		CollectionName: "snippets",
	},
	BlobStore: BlobStore{},
	Embedding: Embedding{
		Dimension: 768,
	},
}
