package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/expert-coach-assistant/internal/config"
	"github.com/kirillkom/expert-coach-assistant/internal/core/ports"
	"github.com/kirillkom/expert-coach-assistant/internal/core/usecase"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/expert"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/extractor/xlsx"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/expert-coach-assistant/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.DocumentQueryService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	expertCfg, err := expert.LoadConfig(cfg.ExpertConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load expert config: %w", err)
	}
	registry := expert.NewRegistry(expertCfg)
	matcher := expert.NewRegexMatcher()
	classifier := expert.NewClassifier(registry, matcher)
	analyzer := expert.NewAnalyzer(registry, matcher)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).
		WithExecutor(resilience.NewExecutor(resilience.DefaultConfig()))
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extract := extractor.NewDispatcher(
		plaintext.NewExtractor(storage),
		pdf.NewExtractor(storage),
		xlsx.NewExtractor(storage),
	)

	queryClassifier := usecase.NewQueryClassifier(registry.QueryRules())
	reranker := usecase.NewReranker(
		registry.Priorities(),
		registry.QueryRules().Topics,
		registry.Weights(),
	)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(
		repo, extract, classifier, analyzer, chunker, embedder, vectorDB, logger,
	)
	queryUC := usecase.NewQueryDocumentsUseCase(
		embedder, vectorDB, generator, queryClassifier, reranker, logger,
	)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
