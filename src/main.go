package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/orinfm/pipeline/src/features/audio"
	"github.com/orinfm/pipeline/src/features/config"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/embedding"
	"github.com/orinfm/pipeline/src/features/eventbus"
	"github.com/orinfm/pipeline/src/features/hosting"
	"github.com/orinfm/pipeline/src/features/importing"
	"github.com/orinfm/pipeline/src/features/logging"
	"github.com/orinfm/pipeline/src/features/metrics"
	"github.com/orinfm/pipeline/src/features/pipeline"
	"github.com/orinfm/pipeline/src/features/segmenter"
	"github.com/orinfm/pipeline/src/features/trackpipeline"
	"github.com/orinfm/pipeline/src/infra/blobstore"
	"github.com/orinfm/pipeline/src/infra/ledger"
	"github.com/orinfm/pipeline/src/infra/vectorindex"
)

func main() {
	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	cfg := cfgManager.Get()

	curatedStore, err := curated.Open(cfg.Database.CuratedPath)
	if err != nil {
		log.Fatalf("failed to open curated store: %v", err)
	}
	defer curatedStore.Close()

	ldg, err := ledger.Open(cfg.Database.LedgerPath)
	if err != nil {
		log.Fatalf("failed to open ledger: %v", err)
	}
	defer ldg.Close()

	index, err := vectorindex.New(vectorindex.Config{
		URL: cfg.VectorIndex.URL, APIKey: cfg.VectorIndex.APIKey,
		Host: cfg.VectorIndex.Host, Port: cfg.VectorIndex.Port,
		CollectionName: cfg.VectorIndex.CollectionName, Dimension: cfg.Embedding.Dimension,
	})
	if err != nil {
		log.Fatalf("failed to connect to vector index: %v", err)
	}
	ctx := context.Background()
	if err := index.EnsureCollection(ctx); err != nil {
		slog.Error("failed to ensure vector collection exists", "error", err)
	}

	var blobs *blobstore.Gateway
	blobCfg := blobstore.Config{
		Endpoint: cfg.BlobStore.Endpoint, AccessKeyID: cfg.BlobStore.AccessKeyID,
		SecretAccessKey: cfg.BlobStore.SecretAccessKey, BucketName: cfg.BlobStore.BucketName,
		PublicDomain: cfg.BlobStore.PublicDomain,
	}
	if blobCfg.IsConfigured() {
		blobs, err = blobstore.New(ctx, blobCfg)
		if err != nil {
			slog.Error("failed to initialize blob store, snippets will keep local paths", "error", err)
		}
	} else {
		slog.Info("blob store not configured, snippet URLs will be local paths")
	}

	bus := eventbus.New()
	reg := metrics.NewRegistry()

	acquirer := audio.New(cfgManager)
	seg := segmenter.New(cfgManager)
	embedder := embedding.New(cfgManager)

	processor := trackpipeline.New(cfgManager, acquirer, seg, embedder, index, blobs)

	pipelineRunner := pipeline.New(cfgManager, curatedStore, ldg, processor, seg, bus, reg)
	importRunner := importing.New(curatedStore, bus, reg)

	stopTelegram := hosting.StartTelegramSink(cfgManager, bus)
	defer stopTelegram()

	server := hosting.NewServer(hosting.Deps{
		Config: cfgManager, Curated: curatedStore, Ledger: ldg, Bus: bus,
		PipelineRun: pipelineRunner, ImportRun: importRunner,
		Embedder: embedder, VectorIndex: index,
	})

	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	embedder.Unload()

	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("server gracefully shut down")
}
