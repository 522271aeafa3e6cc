package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
	"github.com/kirillkom/expert-coach-assistant/internal/core/ports"
)

const defaultTopK = 5

// oversampleFactor widens the vector search so the reranker has room to
// promote metadata-relevant chunks that similarity alone ranked below the cut.
const oversampleFactor = 2

// QueryDocumentsUseCase answers a question over the indexed corpus: classify
// the query, retrieve an oversampled candidate set, rerank by intent-aware
// relevance and generate the final answer from the survivors.
type QueryDocumentsUseCase struct {
	embedder   ports.Embedder
	vectors    ports.VectorStore
	generator  ports.AnswerGenerator
	classifier *QueryClassifier
	reranker   *Reranker
	logger     *slog.Logger
}

func NewQueryDocumentsUseCase(
	embedder ports.Embedder,
	vectors ports.VectorStore,
	generator ports.AnswerGenerator,
	classifier *QueryClassifier,
	reranker *Reranker,
	logger *slog.Logger,
) *QueryDocumentsUseCase {
	return &QueryDocumentsUseCase{
		embedder:   embedder,
		vectors:    vectors,
		generator:  generator,
		classifier: classifier,
		reranker:   reranker,
		logger:     logger,
	}
}

func (uc *QueryDocumentsUseCase) Answer(
	ctx context.Context,
	question string,
	limit int,
	filter domain.SearchFilter,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultTopK
	}

	query := uc.classifier.Classify(question)
	uc.logger.DebugContext(ctx, "query classified",
		slog.String("intent", query.Intent),
		slog.Any("topics", query.Topics),
	)

	vector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := uc.vectors.Search(ctx, vector, limit*oversampleFactor, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := uc.reranker.Rerank(candidates, query, limit)

	answer, err := uc.generator.GenerateAnswer(ctx, question, query, chunks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    answer,
		Sources: chunks,
		Query:   query,
	}, nil
}
