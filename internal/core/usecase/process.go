package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
	"github.com/kirillkom/expert-coach-assistant/internal/core/ports"
)

// ProcessDocumentUseCase runs the full ingestion pipeline for an uploaded
// document: extract, classify, chunk, analyze, embed, index. Invoked by the
// worker on queue events.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	analyzer   ports.ContentAnalyzer
	chunker    ports.Chunker
	embedder   ports.Embedder
	vectors    ports.VectorStore
	logger     *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	analyzer ports.ContentAnalyzer,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		analyzer:   analyzer,
		chunker:    chunker,
		embedder:   embedder,
		vectors:    vectors,
		logger:     logger,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := uc.process(ctx, doc); err != nil {
		if statusErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, err.Error()); statusErr != nil {
			uc.logger.ErrorContext(ctx, "failed to record processing failure",
				slog.String("document_id", doc.ID),
				slog.String("error", statusErr.Error()),
			)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) process(ctx context.Context, doc *domain.Document) error {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: document contains no extractable text", domain.ErrInvalidInput)
	}

	classification, err := uc.classifier.Classify(ctx, text, doc.Filename)
	if err != nil {
		return fmt.Errorf("classify document: %w", err)
	}
	doc.Classification = classification

	if err := uc.repo.SaveClassification(ctx, doc.ID, classification); err != nil {
		return fmt.Errorf("save classification: %w", err)
	}

	pieces := uc.chunker.Split(text)
	if len(pieces) == 0 {
		return fmt.Errorf("%w: chunker produced no chunks", domain.ErrInvalidInput)
	}

	analyzed := uc.analyzeChunks(ctx, pieces)

	vectors, err := uc.embedder.Embed(ctx, pieces)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(analyzed) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(analyzed))
	}

	if err := uc.vectors.IndexChunks(ctx, doc, analyzed, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	uc.logger.InfoContext(ctx, "document processed",
		slog.String("document_id", doc.ID),
		slog.String("source_type", classification.SourceType),
		slog.Int("chunks", len(analyzed)),
	)
	return nil
}

// analyzeChunks runs the content analyzer across chunks in parallel. The
// analyzer is pure, so the only coordination needed is writing disjoint slots.
func (uc *ProcessDocumentUseCase) analyzeChunks(ctx context.Context, pieces []string) []domain.AnalyzedChunk {
	analyzed := make([]domain.AnalyzedChunk, len(pieces))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, piece := range pieces {
		g.Go(func() error {
			analyzed[i] = domain.AnalyzedChunk{
				Index:    i,
				Text:     piece,
				Analysis: uc.analyzer.Analyze(piece),
			}
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()
	return analyzed
}
